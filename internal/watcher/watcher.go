// Package watcher reports changes under a submissions tree so a report can be
// regenerated.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce is how long the tree must stay quiet before onChange fires.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches a directory tree and calls onChange once per burst of events.
// fsnotify is not recursive, so every directory is watched on its own and new
// directories are added as they appear.
type Watcher struct {
	root     string
	onChange func()
	ignore   func(name string) bool
	skip     map[string]bool
	debounce time.Duration
	logger   zerolog.Logger

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.Mutex
	running bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithIgnore skips directories whose name matches.
func WithIgnore(ignore func(name string) bool) Option {
	return func(w *Watcher) { w.ignore = ignore }
}

// WithSkipFile drops events for one file, such as a report written inside the tree.
func WithSkipFile(path string) Option {
	return func(w *Watcher) {
		if abs, err := filepath.Abs(path); err == nil {
			w.skip[abs] = true
		}
	}
}

// New creates a watcher for root.
func New(root string, onChange func(), logger zerolog.Logger, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		root:     filepath.Clean(root),
		onChange: onChange,
		ignore:   func(string) bool { return false },
		skip:     make(map[string]bool),
		debounce: DefaultDebounce,
		logger:   logger.With().Str("component", "watcher").Logger(),
		watcher:  fsw,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start adds the tree and begins delivering events.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	if err := w.addTree(w.root); err != nil {
		_ = w.watcher.Close()
		return err
	}
	w.running = true

	go w.watchLoop()
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	w.cancel()
	err := w.watcher.Close()
	<-w.done
	return err
}

// addTree watches dir and every non-ignored directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == dir {
				return fmt.Errorf("watch %s: %w", dir, walkErr)
			}
			w.logger.Warn().Err(walkErr).Str("path", path).Msg("Skipping unreadable path")
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.ignore(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) watchLoop() {
	defer close(w.done)

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			if w.skipped(event.Name) || w.ignoredPath(event.Name) {
				continue
			}

			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addTree(event.Name); err != nil {
						w.logger.Warn().Err(err).Str("path", event.Name).Msg("Failed to watch new directory")
					}
				}
			}

			w.logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("Change detected")
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.fire)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

func (w *Watcher) fire() {
	if w.ctx.Err() != nil || w.onChange == nil {
		return
	}
	w.onChange()
}

func (w *Watcher) skipped(path string) bool {
	if len(w.skip) == 0 {
		return false
	}
	abs, err := filepath.Abs(path)
	return err == nil && w.skip[abs]
}

// ignoredPath reports whether any directory between root and path is ignored.
func (w *Watcher) ignoredPath(path string) bool {
	rel, err := filepath.Rel(w.root, filepath.Clean(path))
	if err != nil || rel == "." {
		return false
	}
	for _, part := range splitPath(rel) {
		if w.ignore(part) {
			return true
		}
	}
	return false
}

func splitPath(rel string) []string {
	var parts []string
	for rel != "" && rel != "." {
		dir, file := filepath.Split(rel)
		parts = append(parts, file)
		rel = filepath.Clean(dir)
		if rel == string(filepath.Separator) {
			break
		}
	}
	return parts
}
