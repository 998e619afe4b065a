// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Agent POC Contributors

package data

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for a burst of file events
// to settle before invalidating the cache.
const DefaultDebounce = 250 * time.Millisecond

// Watcher invalidates a Loader's cache when its data files change on disk.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	onChange func()
	debounce time.Duration

	mu    sync.Mutex
	timer *time.Timer

	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// WatchLoader starts watching loader's directory and invalidates its cache
// after changes to any data file.
func WatchLoader(loader *Loader, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	return NewWatcher(loader.Dir(), debounce, logger, loader.Invalidate)
}

// NewWatcher watches dir and calls onChange, debounced, after writes,
// creates, renames, or removals of a data file.
func NewWatcher(dir string, debounce time.Duration, logger *slog.Logger, onChange func()) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher:  fw,
		logger:   logger,
		onChange: onChange,
		debounce: debounce,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Stop stops watching and cancels any pending invalidation.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		err = w.watcher.Close()
		<-w.done

		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isDataFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.logger.Debug("data file changed",
					"file", filepath.Base(event.Name),
					"op", event.Op.String())
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("data watcher error", "error", err)

		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}

func isDataFile(path string) bool {
	switch filepath.Base(path) {
	case AccountFile, FacilityFile, NotesFile:
		return true
	default:
		return false
	}
}
