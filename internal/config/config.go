// Package config holds aegiscc's persisted CLI configuration: the
// defaults a project wants for --emit/--mode/--strict-init so they
// don't need to be repeated on every invocation.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// EmitKind selects which artifact `aegiscc` prints (spec.md §6).
type EmitKind string

const (
	EmitAST  EmitKind = "ast"
	EmitCore EmitKind = "core"
	EmitIR   EmitKind = "ir"
)

// Mode selects the module-default safety posture (spec.md §6).
type Mode string

const (
	ModeSafe   Mode = "safe"
	ModeCompat Mode = "compat"
	ModeUnsafe Mode = "unsafe"
)

// Config is aegiscc's persisted configuration.
type Config struct {
	Emit               EmitKind `json:"emit"`
	Mode               Mode     `json:"mode"`
	StrictInit         bool     `json:"strict_init"`
	RequireLangVersion string   `json:"require_lang_version,omitempty"`
	Verbose            bool     `json:"verbose"`
	JSON               bool     `json:"json"`
}

// Default returns the configuration spec.md §6 specifies when nothing
// overrides it: emit ir, mode safe.
func Default() *Config {
	return &Config{
		Emit: EmitIR,
		Mode: ModeSafe,
	}
}

// Load reads configuration from path, falling back to Default() if path
// is empty or the file doesn't exist.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to path as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
