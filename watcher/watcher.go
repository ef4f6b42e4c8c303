package watcher

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Filter decides which paths produce events. Ignore files always pass so
// their changes can trigger a rule reload.
type Filter interface {
	ShouldIgnore(absolutePath string) bool
	IsIgnoreFile(path string) bool
}

// Watcher watches the scan roots, non-recursively, and emits debounced
// batches of changes to their direct children.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	filter    Filter
	roots     map[string]bool
	logger    *slog.Logger
}

// NewWatcher registers every readable root. Roots that cannot be watched are
// logged and skipped; an error is returned only when none could be watched.
func NewWatcher(roots []string, filter Filter, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		debouncer: NewDebouncer(debounce),
		filter:    filter,
		roots:     make(map[string]bool, len(roots)),
		logger:    logger,
	}

	for _, root := range roots {
		root = filepath.Clean(root)
		if err := fsWatcher.Add(root); err != nil {
			w.logger.Warn("failed to watch root", "root", root, "error", err)
			continue
		}
		w.roots[root] = true
	}
	if len(w.roots) == 0 {
		fsWatcher.Close()
		return nil, errors.New("no root directory could be watched")
	}

	return w, nil
}

// Events returns the channel that receives debounced file system events.
func (w *Watcher) Events() <-chan []DebouncedEvent {
	return w.debouncer.Output()
}

// WatchedRoots returns the number of roots being watched.
func (w *Watcher) WatchedRoots() int {
	return len(w.roots)
}

// Start begins listening for file system events. Call this in a goroutine.
// It runs until the watcher is closed, then closes the Events channel.
func (w *Watcher) Start() {
	defer w.debouncer.Stop()
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// handleEvent converts a relevant fsnotify event to a debounced event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	// Subdirectories are never watched, but events may still name them.
	if !w.roots[filepath.Dir(path)] {
		return
	}

	if !w.filter.IsIgnoreFile(path) {
		if w.filter.ShouldIgnore(path) {
			return
		}
		if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
			if info, err := os.Stat(path); err == nil && info.IsDir() {
				return
			}
		}
	}

	var op EventOp
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpWrite
	case event.Has(fsnotify.Remove):
		op = OpRemove
	case event.Has(fsnotify.Rename):
		op = OpRename
	default:
		return
	}

	w.debouncer.Add(path, op)
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}
