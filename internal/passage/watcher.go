package passage

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"
)

// SeedWatcher monitors passage seed files for changes and re-imports them
// when modified. It uses polling (not fsnotify) to keep dependencies minimal.
//
// Imports are idempotent: passages whose IDs already exist in the store are
// skipped, so only newly added passages land on each reload.
type SeedWatcher struct {
	store    Store
	paths    []string
	interval time.Duration
	onImport func(path string, count int)

	mu       sync.Mutex
	done     chan struct{}
	stopOnce sync.Once

	// last known file state per path for change detection
	last map[string]fileState
}

type fileState struct {
	mtime time.Time
	hash  [sha256.Size]byte
}

// SeedWatcherOption configures a [SeedWatcher].
type SeedWatcherOption func(*SeedWatcher)

// WithInterval sets the polling interval. The default is 5 seconds.
func WithInterval(d time.Duration) SeedWatcherOption {
	return func(w *SeedWatcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithImportCallback registers a callback invoked after every successful
// re-import with the file path and the number of passages added.
func WithImportCallback(fn func(path string, count int)) SeedWatcherOption {
	return func(w *SeedWatcher) {
		w.onImport = fn
	}
}

// NewSeedWatcher creates a watcher over the given seed files. It records the
// current state of each file without importing (the caller is expected to
// have imported them already) and starts polling in a background goroutine.
func NewSeedWatcher(store Store, paths []string, opts ...SeedWatcherOption) (*SeedWatcher, error) {
	w := &SeedWatcher{
		store:    store,
		paths:    paths,
		interval: 5 * time.Second,
		done:     make(chan struct{}),
		last:     make(map[string]fileState, len(paths)),
	}
	for _, opt := range opts {
		opt(w)
	}

	for _, path := range paths {
		st, err := stateOf(path)
		if err != nil {
			return nil, fmt.Errorf("passage: watch %q: %w", path, err)
		}
		w.last[path] = st
	}

	go w.poll()
	return w, nil
}

// Stop stops the file watcher.
func (w *SeedWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
}

// poll runs in a background goroutine, checking each seed file periodically.
func (w *SeedWatcher) poll() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			for _, path := range w.paths {
				w.check(path)
			}
		}
	}
}

// check re-imports path if its content has changed since the last look.
// Invalid files are logged and skipped; the previous state is kept so the
// file is retried once it changes again.
func (w *SeedWatcher) check(path string) {
	// Quick mtime check first to avoid hashing unchanged files.
	info, err := os.Stat(path)
	if err != nil {
		slog.Warn("seed watcher: cannot stat file", "path", path, "err", err)
		return
	}

	w.mu.Lock()
	prev := w.last[path]
	w.mu.Unlock()

	if info.ModTime().Equal(prev.mtime) {
		return
	}

	st, err := stateOf(path)
	if err != nil {
		slog.Warn("seed watcher: cannot read file", "path", path, "err", err)
		return
	}

	if st.hash == prev.hash {
		// File was touched but content is identical.
		w.mu.Lock()
		w.last[path] = st
		w.mu.Unlock()
		return
	}

	seed, err := LoadSeedFile(path)
	if err != nil {
		slog.Warn("seed watcher: invalid seed file, keeping current passages", "path", path, "err", err)
		return
	}

	n, err := ImportSeed(context.Background(), w.store, seed)
	if err != nil {
		slog.Warn("seed watcher: import failed", "path", path, "err", err)
		return
	}

	w.mu.Lock()
	w.last[path] = st
	w.mu.Unlock()

	slog.Info("seed watcher: passages reloaded", "path", path, "added", n)
	if w.onImport != nil {
		w.onImport(path, n)
	}
}

// stateOf reads path and returns its modification time and content hash.
func stateOf(path string) (fileState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileState{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}, err
	}
	return fileState{mtime: info.ModTime(), hash: sha256.Sum256(data)}, nil
}
