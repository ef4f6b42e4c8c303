package tools

import (
	"context"
	"log/slog"

	"github.com/lexandro/docshelf-mcp/library"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RecentArgs defines the input parameters for the docshelf_recent tool.
type RecentArgs struct {
	MaxResults int `json:"maxResults,omitempty" jsonschema:"Maximum number of entries to return (default: all)"`
}

// RecentHandler holds the dependencies for the recent tool.
type RecentHandler struct {
	Library *library.Library
	Logger  *slog.Logger
}

// Handle processes a docshelf_recent request.
func (h *RecentHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args RecentArgs) (*mcp.CallToolResult, any, error) {
	opened := h.Library.RecentlyOpened()
	if args.MaxResults > 0 && len(opened) > args.MaxResults {
		opened = opened[:args.MaxResults]
	}

	h.Logger.Info("docshelf_recent", "results", len(opened))
	return textResult(FormatRecentlyOpened(opened)), nil, nil
}
