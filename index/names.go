package index

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/lexandro/docshelf-mcp/discovery"
)

// MaxIndexedTextBytes bounds the text indexed per document.
const MaxIndexedTextBytes int64 = 64 * 1024

// TextLoader returns searchable text for a document, or "" when the document
// has none. It is only called for documents that are new or changed.
type TextLoader func(doc discovery.Document) string

// NameIndex provides full-text search over document names and, where a
// TextLoader supplies it, document text. Backed by an in-memory Bleve index.
type NameIndex struct {
	mu    sync.RWMutex
	index bleve.Index
	// versions tracks what was indexed per document id, to skip unchanged docs
	versions map[string]indexedVersion
}

type indexedVersion struct {
	modTime time.Time
	size    int64
}

// NewNameIndex creates a new in-memory Bleve name index.
func NewNameIndex() (*NameIndex, error) {
	bleveIndex, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating bleve index: %w", err)
	}
	return &NameIndex{
		index:    bleveIndex,
		versions: make(map[string]indexedVersion),
	}, nil
}

// bleveDocument is the document structure stored in Bleve.
type bleveDocument struct {
	Name      string `json:"name"`
	Extension string `json:"extension"`
	Category  string `json:"category"`
	Text      string `json:"text"`
}

// buildIndexMapping creates the Bleve index mapping for document metadata.
func buildIndexMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Store = true
	nameFieldMapping.IncludeInAll = true
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	extFieldMapping := bleve.NewKeywordFieldMapping()
	extFieldMapping.Store = true
	extFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("extension", extFieldMapping)

	categoryFieldMapping := bleve.NewKeywordFieldMapping()
	categoryFieldMapping.Store = true
	categoryFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("category", categoryFieldMapping)

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Store = false
	textFieldMapping.IncludeInAll = true
	docMapping.AddFieldMappingsAt("text", textFieldMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Sync brings the index in line with docs: documents that disappeared are
// removed, new or changed ones are (re)indexed. loadText may be nil.
func (ni *NameIndex) Sync(docs []discovery.Document, loadText TextLoader) error {
	ni.mu.Lock()
	defer ni.mu.Unlock()

	present := make(map[string]bool, len(docs))
	batch := ni.index.NewBatch()

	for _, doc := range docs {
		present[doc.ID] = true
		version := indexedVersion{modTime: doc.ModTime, size: doc.SizeBytes}
		if prev, ok := ni.versions[doc.ID]; ok && prev.modTime.Equal(version.modTime) && prev.size == version.size {
			continue
		}

		entry := bleveDocument{
			// "report.final.pdf" would otherwise be a single token
			Name:      strings.ReplaceAll(doc.Name, ".", " "),
			Extension: doc.Extension,
			Category:  string(doc.Category),
		}
		if loadText != nil {
			entry.Text = loadText(doc)
		}
		if err := batch.Index(doc.ID, entry); err != nil {
			return fmt.Errorf("indexing %s: %w", doc.Path, err)
		}
		ni.versions[doc.ID] = version
	}

	for id := range ni.versions {
		if !present[id] {
			batch.Delete(id)
			delete(ni.versions, id)
		}
	}

	if err := ni.index.Batch(batch); err != nil {
		return fmt.Errorf("applying index batch: %w", err)
	}
	return nil
}

// NameSearchOptions configures a name search.
type NameSearchOptions struct {
	Query      string
	Extension  string // optional exact extension tag filter
	MaxResults int
}

// NameSearchHit is one matching document id with its relevance score.
type NameSearchHit struct {
	ID    string
	Score float64
}

// Search runs a query against names and text.
// Query format:
//   - Plain text: match query, plus prefix matching for single words
//   - "quoted text": phrase query (exact phrase match)
//   - /regex/: regexp query
func (ni *NameIndex) Search(options NameSearchOptions) ([]NameSearchHit, error) {
	ni.mu.RLock()
	defer ni.mu.RUnlock()

	if options.MaxResults <= 0 {
		options.MaxResults = 50
	}

	var bleveQuery query.Query = buildQuery(options.Query)
	if options.Extension != "" {
		extQuery := bleve.NewTermQuery(strings.ToLower(options.Extension))
		extQuery.SetField("extension")
		bleveQuery = bleve.NewConjunctionQuery(bleveQuery, extQuery)
	}

	searchRequest := bleve.NewSearchRequest(bleveQuery)
	searchRequest.Size = options.MaxResults

	searchResults, err := ni.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	hits := make([]NameSearchHit, 0, len(searchResults.Hits))
	for _, hit := range searchResults.Hits {
		hits = append(hits, NameSearchHit{ID: hit.ID, Score: hit.Score})
	}
	return hits, nil
}

// buildQuery parses the query string into a Bleve query.
func buildQuery(queryString string) query.Query {
	queryString = strings.TrimSpace(queryString)

	// Regex query: /pattern/
	if strings.HasPrefix(queryString, "/") && strings.HasSuffix(queryString, "/") && len(queryString) > 2 {
		return bleve.NewRegexpQuery(queryString[1 : len(queryString)-1])
	}

	// Phrase query: "exact phrase"
	if strings.HasPrefix(queryString, "\"") && strings.HasSuffix(queryString, "\"") && len(queryString) > 2 {
		return bleve.NewMatchPhraseQuery(queryString[1 : len(queryString)-1])
	}

	matchQuery := bleve.NewMatchQuery(queryString)
	if strings.ContainsAny(queryString, " \t") {
		return matchQuery
	}
	// Single word: also match names that start with it ("rep" -> "report")
	prefixQuery := bleve.NewPrefixQuery(strings.ToLower(queryString))
	return bleve.NewDisjunctionQuery(matchQuery, prefixQuery)
}

// DocumentCount returns the number of documents in the Bleve index.
func (ni *NameIndex) DocumentCount() uint64 {
	ni.mu.RLock()
	defer ni.mu.RUnlock()
	count, _ := ni.index.DocCount()
	return count
}

// Close closes the Bleve index.
func (ni *NameIndex) Close() error {
	ni.mu.Lock()
	defer ni.mu.Unlock()
	return ni.index.Close()
}
