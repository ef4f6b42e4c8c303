package library

import "github.com/lexandro/docshelf-mcp/discovery"

// Changes counts the differences between two document lists.
type Changes struct {
	Added    int // in the new list only
	Removed  int // in the old list only
	Modified int // in both, with a different size or modification time
}

// Total returns the number of differing documents.
func (c Changes) Total() int {
	return c.Added + c.Removed + c.Modified
}

// Diff compares two document lists by identifier. Favorite state is ignored.
func Diff(old, new []discovery.Document) Changes {
	previous := make(map[string]discovery.Document, len(old))
	for _, doc := range old {
		previous[doc.ID] = doc
	}

	var changes Changes
	for _, doc := range new {
		before, ok := previous[doc.ID]
		if !ok {
			changes.Added++
			continue
		}
		delete(previous, doc.ID)
		if before.SizeBytes != doc.SizeBytes || !before.ModTime.Equal(doc.ModTime) {
			changes.Modified++
		}
	}
	changes.Removed = len(previous)
	return changes
}
