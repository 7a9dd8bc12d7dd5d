// Package watcher turns filesystem activity under a directory into
// debounced change notifications.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/fakeyudi/sessiondiff/internal/logging"
)

// Watcher watches Dir recursively and calls back after activity settles.
type Watcher struct {
	Dir            string
	IgnorePatterns []string
	// Debounce is the quiet period after the last event before onChange
	// runs. Zero calls back on every relevant event.
	Debounce time.Duration
	// Interval triggers onChange periodically regardless of events, to pick
	// up changes the event stream misses. Zero disables it.
	Interval time.Duration
}

// Run blocks until ctx is done, invoking onChange from the calling goroutine
// so callbacks never overlap. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context)) error {
	ctx = logging.WithComponent(ctx, "watcher")

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	dir := w.Dir
	if dir == "" {
		dir = "."
	}
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	patterns, err := loadIgnorePatterns(dir, w.IgnorePatterns)
	if err != nil {
		logging.Warn(ctx, "failed to load ignore patterns", slog.String("error", err.Error()))
	}
	if err := w.addTree(fw, dir, patterns); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	var tick <-chan time.Time
	if w.Interval > 0 {
		ticker := time.NewTicker(w.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) || isIgnored(dir, event.Name, patterns) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(fw, event.Name, patterns); err != nil {
						logging.Debug(ctx, "failed to watch new directory",
							slog.String("path", event.Name), slog.String("error", err.Error()))
					}
				}
			}
			if w.Debounce <= 0 {
				onChange(ctx)
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			onChange(ctx)

		case <-tick:
			onChange(ctx)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logging.Warn(ctx, "watcher error", slog.String("error", err.Error()))
		}
	}
}

// addTree adds root and every non-ignored directory below it.
func (w *Watcher) addTree(fw *fsnotify.Watcher, root string, patterns []string) error {
	base := w.Dir
	if base == "" {
		base = "."
	}
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if !d.IsDir() {
			return nil
		}
		if path != base && isIgnored(base, path, patterns) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}

func relevant(e fsnotify.Event) bool {
	return e.Has(fsnotify.Write) || e.Has(fsnotify.Create) || e.Has(fsnotify.Remove) || e.Has(fsnotify.Rename)
}
