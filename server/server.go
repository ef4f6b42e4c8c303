package server

import (
	"github.com/lexandro/docshelf-mcp/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported to MCP clients.
const Version = "0.3.0"

// Handlers groups the tool handlers registered on the server.
type Handlers struct {
	Scan     *tools.ScanHandler
	List     *tools.ListHandler
	Search   *tools.SearchHandler
	Favorite *tools.FavoriteHandler
	Open     *tools.OpenHandler
	Recent   *tools.RecentHandler
	Status   *tools.StatusHandler
}

// Setup creates and configures the MCP server with all tool registrations.
func Setup(handlers Handlers) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "docshelf-mcp",
			Version: Version,
		},
		&mcp.ServerOptions{
			Instructions: `This server keeps a shelf of the user's documents and images found in Downloads, Documents, Desktop, Pictures and the home directory (top level only, no subfolders).

- Use docshelf_list to browse by category (PDF, DOC, XLS, PPT, TXT, RTF, EPUB, IMAGE), name, glob pattern or favorites
- Use docshelf_search to find documents by words in their name or, for text files, their content
- Use docshelf_open with a document id to read a preview (text lines, spreadsheet rows or metadata)
- Use docshelf_favorite to star or unstar a document, docshelf_recent for recently opened ones
- The shelf refreshes automatically when files change; docshelf_scan forces a rescan`,
		},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "docshelf_list",
		Description: `List documents on the shelf, newest first.

Filters (all optional, combined):
  - category: ALL, PDF, DOC, XLS, PPT, TXT, RTF, EPUB or IMAGE
  - name: case-insensitive substring of the file name
  - pattern: glob over names ("invoice-*") or absolute paths ("**/Downloads/*.pdf")
  - favorites: only starred documents
  - recent: only the N most recently modified`,
	}, handlers.List.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "docshelf_search",
		Description: `Search documents by name and, for plain text files, content.

Query formats:
  - Plain text: word matching, single words also match name prefixes (e.g., "rep" finds "report.pdf")
  - "quoted text": exact phrase matching
  - /regex/: regular expression matching on words`,
	}, handlers.Search.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "docshelf_open",
		Description: "Open a document by id: records it as recently opened and returns a preview. Text files show numbered lines, xlsx files show the first rows of the first sheet, other formats show metadata.",
	}, handlers.Open.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "docshelf_favorite",
		Description: "Toggle the favorite state of a document by id. Favorites persist across restarts.",
	}, handlers.Favorite.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "docshelf_recent",
		Description: "List recently opened documents, most recent first.",
	}, handlers.Recent.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "docshelf_scan",
		Description: "Rescan all roots now and report what changed since the previous scan.",
	}, handlers.Scan.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "docshelf_status",
		Description: "Show shelf status: roots, storage access, document counts per category, favorites, memory usage and uptime.",
	}, handlers.Status.Handle)

	return mcpServer
}
