// Package watch reports debounced file changes under a workspace root.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce is the quiet period after the last event before a change
// is reported.
const DefaultDebounce = 250 * time.Millisecond

// Watcher watches a directory tree recursively.
type Watcher struct {
	root     string
	skip     []string
	debounce time.Duration
}

// New creates a Watcher for root. Paths whose slash-separated root-relative
// form equals or lies under an entry of skip are not watched.
func New(root string, skip []string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{root: root, skip: skip, debounce: debounce}
}

func (w *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, s := range w.skip {
		if rel == s || strings.HasPrefix(rel, s+"/") {
			return true
		}
	}
	return false
}

// Run blocks until ctx is done, calling onChange once per burst of
// file events. It returns nil on cancellation.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() {
		_ = watcher.Close()
	}()

	if err := w.addRecursive(watcher, w.root); err != nil {
		return err
	}
	log.Debug().Str("path", w.root).Dur("debounce", w.debounce).Msg("watching for changes")

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if w.ignored(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addRecursive(watcher, event.Name)
				}
			}
			timer.Reset(w.debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watcher error")

		case <-timer.C:
			onChange()
		}
	}
}

func (w *Watcher) addRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Skip entries that vanished or cannot be read.
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(path) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to add watch")
		}
		return nil
	})
}
