package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunRecompilesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.agc")
	if err := os.WriteFile(path, []byte("fn f(): void {}"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	var calls int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, path, func(p string) error {
			n := atomic.AddInt32(&calls, 1)
			if n == 2 {
				cancel()
			}
			return nil
		})
	}()

	// Give the watcher time to register before touching the file.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte("fn f(): void { let x: u32 = 0; }"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watch loop to exit")
	}

	if atomic.LoadInt32(&calls) < 1 {
		t.Fatal("expected at least the initial compile call")
	}
}
