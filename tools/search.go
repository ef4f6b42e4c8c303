package tools

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/lexandro/docshelf-mcp/index"
	"github.com/lexandro/docshelf-mcp/library"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// SearchArgs defines the input parameters for the docshelf_search tool.
type SearchArgs struct {
	Query      string `json:"query" jsonschema:"Search query. Plain words match names and text, quoted for exact phrase, /regex/ for regular expression"`
	Extension  string `json:"extension,omitempty" jsonschema:"Optional extension filter (e.g. pdf or xlsx)"`
	MaxResults int    `json:"maxResults,omitempty" jsonschema:"Maximum number of documents to return (default 50)"`
}

// SearchHandler holds the dependencies for the search tool.
type SearchHandler struct {
	Library    *library.Library
	MaxResults int
	Logger     *slog.Logger
}

// Handle processes a docshelf_search request.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if strings.TrimSpace(args.Query) == "" {
		h.Logger.Warn("docshelf_search called with empty query")
		return errorResult("Error: query parameter is required"), nil, nil
	}

	maxResults := args.MaxResults
	if maxResults <= 0 {
		maxResults = h.MaxResults
	}

	docs, err := h.Library.Search(index.NameSearchOptions{
		Query:      args.Query,
		Extension:  strings.ToLower(strings.TrimPrefix(args.Extension, ".")),
		MaxResults: maxResults,
	})
	if err != nil {
		h.Logger.Error("docshelf_search failed", "query", args.Query, "error", err)
		return errorResult("Search error: %v", err), nil, nil
	}

	h.Logger.Info("docshelf_search",
		"query", args.Query,
		"extension", args.Extension,
		"results", len(docs),
		"elapsed", time.Since(start),
	)

	return textResult(FormatDocuments(docs, len(docs))), nil, nil
}
