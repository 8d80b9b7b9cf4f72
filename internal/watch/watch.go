// Package watch implements aegiscc's --watch flag: recompile the input
// file every time it changes, using OS-native filesystem notifications.
package watch

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Compile is invoked once at startup and again after every observed
// write to the watched file.
type Compile func(path string) error

// Run watches path and calls compile once immediately, then again on
// every write/create event, until ctx is canceled or an unrecoverable
// watcher error occurs.
func Run(ctx context.Context, path string, compile Compile) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return err
	}

	if err := compile(path); err != nil {
		return err
	}

	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := compile(path); err != nil {
				return err
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
