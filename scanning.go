package main

import (
	"log/slog"

	"github.com/lexandro/docshelf-mcp/discovery"
	"github.com/lexandro/docshelf-mcp/ignore"
	"github.com/lexandro/docshelf-mcp/library"
	"github.com/lexandro/docshelf-mcp/watcher"
)

// inspector classifies a single path the way a scan would.
type inspector interface {
	Inspect(absolutePath string) (discovery.Document, bool)
}

// handleWatcherEvents processes debounced file system events. A batch that
// touches a shelf document, or a file that would become one, triggers one
// refresh. Changes to an ignore file reload the rules first.
func handleWatcherEvents(
	events <-chan []watcher.DebouncedEvent,
	lib *library.Library,
	scanner inspector,
	ignoreMatcher *ignore.Matcher,
	logger *slog.Logger,
) {
	for batch := range events {
		reload, changed := classifyBatch(batch, lib, scanner, ignoreMatcher)
		if reload {
			ignoreMatcher.Reload()
			logger.Info("reloaded ignore rules", "trigger", ignore.IgnoreFileName)
		}
		if !reload && changed == 0 {
			logger.Debug("ignored watcher batch", "events", len(batch))
			continue
		}
		logger.Debug("refreshing after file changes", "changed", changed, "reload", reload)
		lib.Refresh()
	}
}

// classifyBatch reports whether the batch changed an ignore file and how
// many events concern shelf documents.
func classifyBatch(
	batch []watcher.DebouncedEvent,
	lib *library.Library,
	scanner inspector,
	ignoreMatcher *ignore.Matcher,
) (reload bool, changed int) {
	docIndex := lib.DocumentIndex()
	for _, event := range batch {
		if ignoreMatcher.IsIgnoreFile(event.Path) {
			reload = true
			continue
		}

		_, known := docIndex.GetByPath(event.Path)
		switch event.Op {
		case watcher.OpRemove, watcher.OpRename:
			if known {
				changed++
			}
		case watcher.OpCreate, watcher.OpWrite:
			// A known file may also have dropped below the size floor.
			if _, ok := scanner.Inspect(event.Path); ok || known {
				changed++
			}
		}
	}
	return reload, changed
}
