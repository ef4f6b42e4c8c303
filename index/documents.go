package index

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/lexandro/docshelf-mcp/catalog"
	"github.com/lexandro/docshelf-mcp/discovery"
)

// DocumentIndex holds the documents of the current shelf snapshot for fast
// lookups by identifier or path and glob-based searching.
type DocumentIndex struct {
	mu          sync.RWMutex
	byID        map[string]discovery.Document
	idByPath    map[string]string // key: slash path
	sortedPaths []string          // slash paths, sorted for consistent iteration
}

// NewDocumentIndex creates an empty document index.
func NewDocumentIndex() *DocumentIndex {
	return &DocumentIndex{
		byID:        make(map[string]discovery.Document),
		idByPath:    make(map[string]string),
		sortedPaths: make([]string, 0),
	}
}

// Replace swaps the indexed set for docs.
func (di *DocumentIndex) Replace(docs []discovery.Document) {
	byID := make(map[string]discovery.Document, len(docs))
	idByPath := make(map[string]string, len(docs))
	paths := make([]string, 0, len(docs))
	for _, doc := range docs {
		slashPath := filepath.ToSlash(doc.Path)
		byID[doc.ID] = doc
		if _, exists := idByPath[slashPath]; !exists {
			paths = append(paths, slashPath)
		}
		idByPath[slashPath] = doc.ID
	}
	sort.Strings(paths)

	di.mu.Lock()
	defer di.mu.Unlock()
	di.byID = byID
	di.idByPath = idByPath
	di.sortedPaths = paths
}

// Get returns the document with the given identifier.
func (di *DocumentIndex) Get(id string) (discovery.Document, bool) {
	di.mu.RLock()
	defer di.mu.RUnlock()
	doc, ok := di.byID[id]
	return doc, ok
}

// GetByPath returns the document stored under an absolute path.
func (di *DocumentIndex) GetByPath(path string) (discovery.Document, bool) {
	di.mu.RLock()
	defer di.mu.RUnlock()
	id, ok := di.idByPath[filepath.ToSlash(filepath.Clean(path))]
	if !ok {
		return discovery.Document{}, false
	}
	doc, ok := di.byID[id]
	return doc, ok
}

// Count returns the number of indexed documents.
func (di *DocumentIndex) Count() int {
	di.mu.RLock()
	defer di.mu.RUnlock()
	return len(di.byID)
}

// TotalSizeBytes returns the total size of all indexed documents.
func (di *DocumentIndex) TotalSizeBytes() int64 {
	di.mu.RLock()
	defer di.mu.RUnlock()

	var total int64
	for _, doc := range di.byID {
		total += doc.SizeBytes
	}
	return total
}

// CategoryCounts returns a map of category -> document count.
// Documents outside the catalog are counted under "OTHER".
func (di *DocumentIndex) CategoryCounts() map[catalog.Category]int {
	di.mu.RLock()
	defer di.mu.RUnlock()

	counts := make(map[catalog.Category]int)
	for _, doc := range di.byID {
		category := doc.Category
		if category == "" {
			category = "OTHER"
		}
		counts[category]++
	}
	return counts
}

// SearchByGlob returns documents matching a doublestar glob pattern, in path
// order. Patterns containing a slash are matched against the absolute path
// (forward slashes), all others against the display name.
func (di *DocumentIndex) SearchByGlob(pattern string, maxResults int) ([]discovery.Document, error) {
	di.mu.RLock()
	defer di.mu.RUnlock()

	if maxResults <= 0 {
		maxResults = 50
	}

	pattern = strings.ReplaceAll(pattern, "\\", "/")
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
	}
	matchPath := strings.Contains(pattern, "/")

	var results []discovery.Document
	for _, path := range di.sortedPaths {
		if len(results) >= maxResults {
			break
		}
		doc := di.byID[di.idByPath[path]]

		subject := doc.Name
		if matchPath {
			subject = path
		}
		matched, err := doublestar.Match(pattern, subject)
		if err != nil || !matched {
			continue
		}
		results = append(results, doc)
	}
	return results, nil
}

// All returns every indexed document in path order.
func (di *DocumentIndex) All() []discovery.Document {
	di.mu.RLock()
	defer di.mu.RUnlock()

	result := make([]discovery.Document, 0, len(di.sortedPaths))
	for _, path := range di.sortedPaths {
		result = append(result, di.byID[di.idByPath[path]])
	}
	return result
}
