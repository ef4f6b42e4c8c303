package tools

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lexandro/docshelf-mcp/library"
	"github.com/lexandro/docshelf-mcp/preview"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// OpenArgs defines the input parameters for the docshelf_open tool.
type OpenArgs struct {
	ID string `json:"id" jsonschema:"Document id as shown by docshelf_list or docshelf_search"`
}

// OpenHandler holds the dependencies for the open tool.
type OpenHandler struct {
	Library  *library.Library
	Renderer *preview.Renderer
	Logger   *slog.Logger
}

// Handle processes a docshelf_open request: the document is recorded as
// recently opened and its preview is returned.
func (h *OpenHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args OpenArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.ID == "" {
		h.Logger.Warn("docshelf_open called with empty id")
		return errorResult("Error: id parameter is required"), nil, nil
	}

	doc, err := h.Library.MarkOpened(args.ID)
	if errors.Is(err, library.ErrNotFound) {
		h.Logger.Info("docshelf_open document not found", "id", args.ID)
		return errorResult("Document not found: %s", args.ID), nil, nil
	}
	if err != nil {
		h.Logger.Error("docshelf_open failed", "id", args.ID, "error", err)
		return errorResult("Open error: %v", err), nil, nil
	}

	p, err := h.Renderer.Render(doc)
	if errors.Is(err, preview.ErrBinary) {
		return errorResult("%s does not contain readable text", doc.Name), nil, nil
	}
	if err != nil {
		h.Logger.Error("docshelf_open preview failed", "path", doc.Path, "error", err)
		return errorResult("Preview error: %v", err), nil, nil
	}

	h.Logger.Info("docshelf_open", "path", doc.Path, "mode", p.Mode, "elapsed", time.Since(start))
	return textResult(FormatPreview(p)), nil, nil
}
