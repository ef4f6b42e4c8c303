package tools

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/lexandro/docshelf-mcp/catalog"
	"github.com/lexandro/docshelf-mcp/discovery"
	"github.com/lexandro/docshelf-mcp/library"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ListArgs defines the input parameters for the docshelf_list tool.
type ListArgs struct {
	Category   string `json:"category,omitempty" jsonschema:"Category filter: ALL, PDF, DOC, XLS, PPT, TXT, RTF, EPUB or IMAGE (case-insensitive)"`
	Name       string `json:"name,omitempty" jsonschema:"Case-insensitive substring of the file name"`
	Pattern    string `json:"pattern,omitempty" jsonschema:"Glob over absolute paths or names (e.g. **/Downloads/*.pdf or invoice-*)"`
	Favorites  bool   `json:"favorites,omitempty" jsonschema:"If true return only favorite documents"`
	Recent     int    `json:"recent,omitempty" jsonschema:"If set return only the N most recently modified documents"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of documents to return (default 50)"`
}

// ListHandler holds the dependencies for the list tool.
type ListHandler struct {
	Library    *library.Library
	MaxResults int
	Logger     *slog.Logger
}

// Handle processes a docshelf_list request.
func (h *ListHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ListArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()
	docs := h.Library.Snapshot().Documents

	if args.Category != "" {
		if _, ok := catalog.ParseCategory(args.Category); !ok {
			h.Logger.Warn("docshelf_list called with unknown category", "category", args.Category)
			return errorResult("Error: unknown category %q (valid: %s)", args.Category, categoryNames()), nil, nil
		}
		docs = discovery.FilterByCategory(docs, args.Category)
	}
	if args.Name != "" {
		docs = discovery.FilterByName(docs, args.Name)
	}
	if args.Favorites {
		docs = discovery.Favorites(docs)
	}
	if args.Pattern != "" {
		matched, err := h.Library.DocumentIndex().SearchByGlob(args.Pattern, math.MaxInt)
		if err != nil {
			h.Logger.Error("docshelf_list failed", "pattern", args.Pattern, "error", err)
			return errorResult("Pattern error: %v", err), nil, nil
		}
		keep := make(map[string]bool, len(matched))
		for _, doc := range matched {
			keep[doc.ID] = true
		}
		filtered := make([]discovery.Document, 0, len(docs))
		for _, doc := range docs {
			if keep[doc.ID] {
				filtered = append(filtered, doc)
			}
		}
		docs = filtered
	}
	if args.Recent > 0 {
		docs = discovery.Recent(docs, args.Recent)
	}

	total := len(docs)
	docs = limit(docs, args.MaxResults, h.MaxResults)

	h.Logger.Info("docshelf_list",
		"category", args.Category,
		"name", args.Name,
		"pattern", args.Pattern,
		"favorites", args.Favorites,
		"results", total,
		"elapsed", time.Since(start),
	)

	return textResult(FormatDocuments(docs, total)), nil, nil
}

func categoryNames() string {
	names := []string{string(catalog.CategoryAll)}
	for _, c := range catalog.Categories() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

// limit truncates docs to max, or to fallback when max is not positive.
func limit(docs []discovery.Document, max int, fallback int) []discovery.Document {
	if max <= 0 {
		max = fallback
	}
	if max > 0 && len(docs) > max {
		return docs[:max]
	}
	return docs
}
