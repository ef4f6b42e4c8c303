package discovery

import (
	"strings"

	"github.com/lexandro/docshelf-mcp/catalog"
)

// The queries below work on an already-scanned collection. They never
// rescan, never modify their input, and always return a new slice.

// FilterByCategory returns the documents whose extension belongs to the
// category. The category name is case-insensitive; unknown categories match
// nothing.
func FilterByCategory(docs []Document, category string) []Document {
	c, ok := catalog.ParseCategory(category)
	if !ok {
		return []Document{}
	}
	allowed := make(map[string]bool)
	for _, ext := range catalog.Extensions(c) {
		allowed[ext] = true
	}
	return filter(docs, func(d Document) bool { return allowed[d.Extension] })
}

// FilterByName returns the documents whose display name contains substr,
// ignoring case. An empty substr matches everything.
func FilterByName(docs []Document, substr string) []Document {
	needle := strings.ToLower(substr)
	return filter(docs, func(d Document) bool {
		return strings.Contains(strings.ToLower(d.Name), needle)
	})
}

// Favorites returns the documents marked as favorite.
func Favorites(docs []Document) []Document {
	return filter(docs, func(d Document) bool { return d.Favorite })
}

// Recent returns the n most recently modified documents, newest first.
func Recent(docs []Document, n int) []Document {
	if n <= 0 {
		return []Document{}
	}
	sorted := append([]Document(nil), docs...)
	sortByModTimeDesc(sorted)
	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// WithFavorites returns copies of docs with Favorite set from the identifier set.
func WithFavorites(docs []Document, favoriteIDs map[string]bool) []Document {
	out := make([]Document, len(docs))
	for i, d := range docs {
		d.Favorite = favoriteIDs[d.ID]
		out[i] = d
	}
	return out
}

// FindByID returns the document with the given identifier.
func FindByID(docs []Document, id string) (Document, bool) {
	for _, d := range docs {
		if d.ID == id {
			return d, true
		}
	}
	return Document{}, false
}

func filter(docs []Document, keep func(Document) bool) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}
