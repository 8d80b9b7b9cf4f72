package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultMatchesSpecDefaults(t *testing.T) {
	cfg := Default()
	if cfg.Emit != EmitIR {
		t.Fatalf("expected default emit to be ir, got %s", cfg.Emit)
	}
	if cfg.Mode != ModeSafe {
		t.Fatalf("expected default mode to be safe, got %s", cfg.Mode)
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Emit != EmitIR || cfg.Mode != ModeSafe {
		t.Fatal("expected default config for a missing file")
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aegiscc.json")
	cfg := &Config{Emit: EmitCore, Mode: ModeUnsafe, StrictInit: true, Verbose: true}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *loaded != *cfg {
		t.Fatalf("round-trip mismatch: saved %+v, loaded %+v", cfg, loaded)
	}
}

func TestLoadEmptyPathReturnsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Emit != EmitIR {
		t.Fatal("expected default config for empty path")
	}
}
