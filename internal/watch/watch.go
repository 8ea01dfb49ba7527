// Package watch reports changes to target files below a directory.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"greenlens/internal/analysis"
)

// DefaultDebounce is the quiet period after the last event before a batch
// of changes is delivered. Editors often emit several events per save.
const DefaultDebounce = 150 * time.Millisecond

// Watcher watches a directory tree for changes to target files.
type Watcher struct {
	root     string
	exts     []string
	exclude  func(rel string) bool
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// Options configures a Watcher.
type Options struct {
	// Extensions of target files; nil selects analysis.DefaultExtensions.
	Extensions []string
	// Exclude receives paths relative to the root.
	Exclude  func(rel string) bool
	Debounce time.Duration
}

// New watches root and every non-excluded directory below it.
func New(root string, opts Options) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	w := &Watcher{
		root:     root,
		exts:     opts.Extensions,
		exclude:  opts.Exclude,
		debounce: opts.Debounce,
		watcher:  watcher,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if err := w.addTree(root); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) excluded(path string) bool {
	if w.exclude == nil || path == w.root {
		return false
	}
	rel, err := filepath.Rel(w.root, path)
	return err == nil && w.exclude(rel)
}

// addTree registers dir and its subdirectories; fsnotify is not recursive.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.excluded(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// Run delivers batches of changed target files to onChange until ctx is
// done or the watcher is closed. Removed files are delivered too; the
// callback decides what a missing file means.
func (w *Watcher) Run(ctx context.Context, onChange func(paths []string)) error {
	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	flush := func() {
		if len(pending) == 0 {
			return
		}
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		clear(pending)
		onChange(paths)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						slog.Warn("watch: cannot follow new directory", "path", event.Name, "err", err)
					}
					continue
				}
			}
			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}
			if !analysis.HasTargetExt(event.Name, w.exts) || w.excluded(event.Name) {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case <-timer.C:
			flush()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch: watcher error", "err", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
