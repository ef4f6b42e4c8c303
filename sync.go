package main

import (
	"log/slog"
	"time"

	"github.com/lexandro/docshelf-mcp/library"
)

// SyncResult holds the outcome of a single sync verification run.
type SyncResult struct {
	MissingFiles  int // on disk but not on the shelf
	StaleFiles    int // on the shelf but gone from disk
	ModifiedFiles int // size or ModTime differs
	Refreshed     bool
	Duration      time.Duration
}

// runPeriodicSync starts a background loop that compares the roots with the
// shelf at the given interval, catching changes the watcher missed.
// It runs until the provided stop channel is closed.
func runPeriodicSync(
	intervalSeconds int,
	scanner library.Scanner,
	lib *library.Library,
	logger *slog.Logger,
	stop <-chan struct{},
) {
	interval := time.Duration(intervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("periodic sync started", "intervalSeconds", intervalSeconds)

	for {
		select {
		case <-stop:
			logger.Info("periodic sync stopped")
			return
		case <-ticker.C:
			result := performSyncVerification(scanner, lib)
			if result.Refreshed {
				logger.Info("sync verification refreshed the shelf",
					"missing", result.MissingFiles,
					"stale", result.StaleFiles,
					"modified", result.ModifiedFiles,
					"duration", result.Duration,
				)
			} else {
				logger.Debug("sync verification complete, shelf is in sync", "duration", result.Duration)
			}
		}
	}
}

// performSyncVerification scans the roots and refreshes the library when
// the listing differs from the current snapshot.
func performSyncVerification(scanner library.Scanner, lib *library.Library) SyncResult {
	start := time.Now()

	onDisk := scanner.Scan()
	changes := library.Diff(lib.Snapshot().Documents, onDisk.Documents)

	result := SyncResult{
		MissingFiles:  changes.Added,
		StaleFiles:    changes.Removed,
		ModifiedFiles: changes.Modified,
	}
	if changes.Total() > 0 {
		lib.Refresh()
		result.Refreshed = true
	}
	result.Duration = time.Since(start)
	return result
}
