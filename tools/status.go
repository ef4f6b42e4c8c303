package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/lexandro/docshelf-mcp/catalog"
	"github.com/lexandro/docshelf-mcp/library"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StatusArgs defines the input parameters for the docshelf_status tool (none required).
type StatusArgs struct{}

// StatusHandler holds the dependencies for the status tool.
type StatusHandler struct {
	Library   *library.Library
	Roots     []string
	PrefsFile string
	StartTime time.Time
	Logger    *slog.Logger
}

// Handle processes a docshelf_status request.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
	var builder strings.Builder

	snap := h.Library.Snapshot()
	docIndex := h.Library.DocumentIndex()
	totalSize := docIndex.TotalSizeBytes()
	categoryCounts := docIndex.CategoryCounts()
	favorites := 0
	for _, doc := range snap.Documents {
		if doc.Favorite {
			favorites++
		}
	}
	uptime := time.Since(h.StartTime)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	h.Logger.Info("docshelf_status",
		"documents", len(snap.Documents),
		"totalSize", totalSize,
		"memory", memStats.Alloc,
		"uptime", uptime,
	)

	builder.WriteString("=== docshelf-mcp Status ===\n\n")
	builder.WriteString("Roots:\n")
	for _, root := range h.Roots {
		builder.WriteString(fmt.Sprintf("  %s\n", root))
	}
	access := "granted"
	if !snap.AccessGranted {
		access = "denied"
	}
	if snap.Generation == 0 {
		access = "not requested yet"
	}
	builder.WriteString(fmt.Sprintf("Storage access: %s\n", access))
	builder.WriteString(fmt.Sprintf("Uptime: %s\n", formatDuration(uptime)))
	if snap.Generation > 0 {
		builder.WriteString(fmt.Sprintf("Last scan: %s (#%d, took %s)\n",
			snap.ScannedAt.Local().Format(timeLayout), snap.Generation, snap.Stats.Duration.Round(time.Millisecond)))
	}
	builder.WriteString(fmt.Sprintf("Documents: %d\n", len(snap.Documents)))
	builder.WriteString(fmt.Sprintf("Favorites: %d\n", favorites))
	builder.WriteString(fmt.Sprintf("Total size: %s\n", formatFileSize(totalSize)))
	if h.PrefsFile != "" {
		builder.WriteString(fmt.Sprintf("Preferences file: %s\n", h.PrefsFile))
	}
	builder.WriteString(fmt.Sprintf("Memory usage: %s (heap: %s)\n",
		formatFileSize(int64(memStats.Alloc)),
		formatFileSize(int64(memStats.HeapAlloc)),
	))

	if len(categoryCounts) > 0 {
		builder.WriteString("\nCategories:\n")

		type categoryEntry struct {
			category catalog.Category
			count    int
		}
		entries := make([]categoryEntry, 0, len(categoryCounts))
		for category, count := range categoryCounts {
			entries = append(entries, categoryEntry{category, count})
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].count != entries[j].count {
				return entries[i].count > entries[j].count
			}
			return entries[i].category < entries[j].category
		})

		for _, entry := range entries {
			builder.WriteString(fmt.Sprintf("  %-10s %d documents\n", entry.category, entry.count))
		}
	}

	return textResult(builder.String()), nil, nil
}
