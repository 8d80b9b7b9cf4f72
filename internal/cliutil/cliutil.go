// Package cliutil holds aegiscc's command-line plumbing: version
// metadata, a leveled logger, and the usage/help text shared by the
// `aegiscc` binary.
package cliutil

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"time"
)

const (
	Version   = "0.1.0"
	BuildDate = "2026-07-29"
	CommitSHA = "unknown"
)

// VersionInfo is aegiscc's structured version payload, printed by
// --version (plain text or --json).
type VersionInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"build_date"`
	CommitSHA string `json:"commit_sha"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Arch      string `json:"arch"`
}

func GetVersionInfo() *VersionInfo {
	return &VersionInfo{
		Version:   Version,
		BuildDate: BuildDate,
		CommitSHA: CommitSHA,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// PrintVersion writes version info to stdout, as JSON when jsonOutput.
func PrintVersion(jsonOutput bool) {
	info := GetVersionInfo()
	if jsonOutput {
		data, err := json.MarshalIndent(info, "", "  ")
		if err == nil {
			fmt.Println(string(data))
			return
		}
		fmt.Fprintf(os.Stderr, "failed to marshal version info: %v\n", err)
	}
	fmt.Printf("aegiscc v%s\n", info.Version)
	fmt.Printf("Build Date: %s\n", info.BuildDate)
	fmt.Printf("Go Version: %s\n", info.GoVersion)
	fmt.Printf("Platform: %s/%s\n", info.Platform, info.Arch)
}

// Logger is a small leveled logger; Verbose gates Info, DebugMode gates
// Debug. Warn/Error always print.
type Logger struct {
	Verbose   bool
	DebugMode bool
}

func NewLogger(verbose, debug bool) *Logger {
	return &Logger{Verbose: verbose, DebugMode: debug}
}

func (l *Logger) Info(format string, args ...interface{}) {
	if l.Verbose {
		fmt.Fprintf(os.Stderr, "[INFO] %s: %s\n", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	if l.DebugMode {
		fmt.Fprintf(os.Stderr, "[DEBUG] %s: %s\n", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	}
}

func (l *Logger) Warn(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[WARN] %s: %s\n", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[ERROR] %s: %s\n", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
}

const usageText = `aegiscc - AegisCC static memory-safety compiler front/middle-end

USAGE:
    aegiscc <input> [OPTIONS]

OPTIONS:
    --emit ast|core|ir        Artifact to print (default: ir)
    --mode safe|compat|unsafe Module default safety posture (default: safe)
    --strict-init             Reject MaybeInit reads
    --watch                   Recompile on file change
    --require-lang-version C  Require the compiler to satisfy semver constraint C
    --config PATH             Load configuration from PATH
    --json                    Emit diagnostics/version as JSON
    --version, -v             Show version information
    --help, -h                Show this help

Exit code 0 iff no diagnostics; any diagnostic produces a non-zero exit;
an internal compiler error exits 2.
`

// PrintUsage writes aegiscc's usage text to stdout.
func PrintUsage() {
	fmt.Print(usageText)
}

// ExitWithError prints a formatted error to stderr and exits 1.
func ExitWithError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
