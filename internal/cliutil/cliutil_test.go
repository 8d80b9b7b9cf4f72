package cliutil

import "testing"

func TestGetVersionInfoPopulatesPlatform(t *testing.T) {
	info := GetVersionInfo()
	if info.Version != Version {
		t.Fatalf("expected version %s, got %s", Version, info.Version)
	}
	if info.Platform == "" || info.Arch == "" {
		t.Fatal("expected platform and arch to be populated from runtime")
	}
}

func TestNewLoggerGatesOnFlags(t *testing.T) {
	l := NewLogger(false, false)
	if l.Verbose || l.DebugMode {
		t.Fatal("expected both flags false by default")
	}
	l2 := NewLogger(true, true)
	if !l2.Verbose || !l2.DebugMode {
		t.Fatal("expected both flags to carry through")
	}
}
