package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lexandro/docshelf-mcp/library"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// FavoriteArgs defines the input parameters for the docshelf_favorite tool.
type FavoriteArgs struct {
	ID string `json:"id" jsonschema:"Document id as shown by docshelf_list or docshelf_search"`
}

// FavoriteHandler holds the dependencies for the favorite tool.
type FavoriteHandler struct {
	Library *library.Library
	Logger  *slog.Logger
}

// Handle processes a docshelf_favorite request. It toggles the state.
func (h *FavoriteHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args FavoriteArgs) (*mcp.CallToolResult, any, error) {
	if args.ID == "" {
		h.Logger.Warn("docshelf_favorite called with empty id")
		return errorResult("Error: id parameter is required"), nil, nil
	}

	favorite, err := h.Library.ToggleFavorite(args.ID)
	if errors.Is(err, library.ErrNotFound) {
		h.Logger.Info("docshelf_favorite document not found", "id", args.ID)
		return errorResult("Document not found: %s", args.ID), nil, nil
	}
	if err != nil {
		h.Logger.Error("docshelf_favorite failed", "id", args.ID, "error", err)
		return errorResult("Favorite error: %v", err), nil, nil
	}

	doc, _ := h.Library.Get(args.ID)
	h.Logger.Info("docshelf_favorite", "id", args.ID, "favorite", favorite)

	state := "removed from favorites"
	if favorite {
		state = "added to favorites"
	}
	return textResult(fmt.Sprintf("%s: %s", doc.Name, state)), nil, nil
}
