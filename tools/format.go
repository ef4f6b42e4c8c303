package tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/lexandro/docshelf-mcp/discovery"
	"github.com/lexandro/docshelf-mcp/library"
	"github.com/lexandro/docshelf-mcp/preview"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const timeLayout = "2006-01-02 15:04"

// FormatDocuments formats a document list as human-readable text. total is
// the number of matches before truncation.
func FormatDocuments(docs []discovery.Document, total int) string {
	if len(docs) == 0 {
		return "No documents found."
	}

	var builder strings.Builder
	if total > len(docs) {
		builder.WriteString(fmt.Sprintf("Found %d documents (showing %d):\n\n", total, len(docs)))
	} else {
		builder.WriteString(fmt.Sprintf("Found %d documents:\n\n", len(docs)))
	}

	for _, doc := range docs {
		writeDocument(&builder, doc)
	}
	return builder.String()
}

// FormatRecentlyOpened formats the recently-opened list.
func FormatRecentlyOpened(opened []library.OpenedDocument) string {
	if len(opened) == 0 {
		return "No recently opened documents."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Recently opened (%d):\n\n", len(opened)))
	for _, entry := range opened {
		builder.WriteString(fmt.Sprintf("  opened %s\n", entry.OpenedAt.Local().Format(timeLayout)))
		writeDocument(&builder, entry.Document)
	}
	return builder.String()
}

func writeDocument(builder *strings.Builder, doc discovery.Document) {
	marker := " "
	if doc.Favorite {
		marker = "★"
	}
	builder.WriteString(fmt.Sprintf("%s %s  (%s, %s, modified %s)\n",
		marker,
		doc.Name,
		documentLabel(doc),
		formatFileSize(doc.SizeBytes),
		doc.ModTime.Local().Format(timeLayout),
	))
	builder.WriteString(fmt.Sprintf("    id: %s\n", doc.ID))
	builder.WriteString(fmt.Sprintf("    path: %s\n", doc.Path))
}

func documentLabel(doc discovery.Document) string {
	if doc.Category != "" {
		return string(doc.Category)
	}
	return strings.ToUpper(doc.Extension)
}

// FormatPreview renders a preview with a header, numbered text lines or a
// tab-separated sheet.
func FormatPreview(p *preview.Preview) string {
	var builder strings.Builder
	doc := p.Document
	builder.WriteString(fmt.Sprintf("── %s (%s, %s) ──\n", doc.Name, p.MimeType, formatFileSize(doc.SizeBytes)))
	builder.WriteString(fmt.Sprintf("path: %s\n", doc.Path))
	builder.WriteString(fmt.Sprintf("modified: %s\n", doc.ModTime.Local().Format(timeLayout)))

	switch p.Mode {
	case preview.ModeText:
		builder.WriteString("\n")
		width := len(fmt.Sprintf("%d", len(p.Lines)))
		for i, line := range p.Lines {
			builder.WriteString(fmt.Sprintf("%*d│ %s\n", width, i+1, line))
		}
	case preview.ModeSheet:
		builder.WriteString(fmt.Sprintf("sheet: %s (of %d)\n\n", p.Sheet.Sheet, len(p.Sheet.Sheets)))
		for _, row := range p.Sheet.StringRows() {
			builder.WriteString(strings.Join(row, "\t"))
			builder.WriteString("\n")
		}
	default:
		builder.WriteString("\nNo content preview for this format.\n")
	}

	if p.Truncated {
		builder.WriteString("… (truncated)\n")
	}
	return builder.String()
}

// formatFileSize converts bytes to a human-readable string.
func formatFileSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024*1024:
		return fmt.Sprintf("%.1f GB", float64(bytes)/(1024*1024*1024))
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	totalMinutes := totalSeconds / 60
	remainderSeconds := totalSeconds % 60
	if totalMinutes < 60 {
		return fmt.Sprintf("%dm%ds", totalMinutes, remainderSeconds)
	}
	hours := totalMinutes / 60
	remainderMinutes := totalMinutes % 60
	return fmt.Sprintf("%dh%dm", hours, remainderMinutes)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
