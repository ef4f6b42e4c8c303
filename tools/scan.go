package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexandro/docshelf-mcp/library"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ScanArgs defines the input parameters for the docshelf_scan tool (none required).
type ScanArgs struct{}

// ScanHandler holds the dependencies for the scan tool.
type ScanHandler struct {
	Library *library.Library
	Logger  *slog.Logger
}

// Handle processes a docshelf_scan request.
func (h *ScanHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ScanArgs) (*mcp.CallToolResult, any, error) {
	h.Logger.Info("docshelf_scan started")

	before := h.Library.Snapshot()
	snap := h.Library.Refresh()
	changes := library.Diff(before.Documents, snap.Documents)

	var totalSize int64
	for _, doc := range snap.Documents {
		totalSize += doc.SizeBytes
	}

	h.Logger.Info("docshelf_scan complete",
		"documents", len(snap.Documents),
		"added", changes.Added,
		"removed", changes.Removed,
		"modified", changes.Modified,
		"elapsed", snap.Stats.Duration,
	)

	output := fmt.Sprintf("scanned: %d documents (%s) in %s\nroots: %d scanned, %d skipped\nentries: %d seen, %d ignored, %d unreadable\nchanges: %d added, %d removed, %d modified",
		len(snap.Documents), formatFileSize(totalSize), snap.Stats.Duration.Round(time.Millisecond),
		snap.Stats.RootsScanned, snap.Stats.RootsSkipped,
		snap.Stats.EntriesSeen, snap.Stats.EntriesIgnored, snap.Stats.EntriesSkipped,
		changes.Added, changes.Removed, changes.Modified,
	)
	if !snap.AccessGranted {
		output += "\nwarning: storage access was not granted; results may be empty"
	}

	return textResult(output), nil, nil
}
