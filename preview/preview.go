package preview

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lexandro/docshelf-mcp/catalog"
	"github.com/lexandro/docshelf-mcp/discovery"
)

var (
	// ErrBinary is returned when a text preview finds binary content.
	ErrBinary = errors.New("binary content")
	// ErrUnsupported is returned for formats without a content preview.
	ErrUnsupported = errors.New("no content preview for this format")
)

// Mode says which part of a Preview is populated.
type Mode string

const (
	ModeText     Mode = "text"
	ModeSheet    Mode = "sheet"
	ModeMetadata Mode = "metadata"
)

// Preview is the data behind a format-specific viewer.
type Preview struct {
	Document  discovery.Document
	MimeType  string
	Mode      Mode
	Lines     []string      // ModeText
	Sheet     *SheetPreview // ModeSheet
	Truncated bool
}

// Options configures a Renderer.
type Options struct {
	MaxLines     int   // text lines per preview (default 200)
	MaxTextBytes int64 // bytes read for text previews (default 256 KiB)
	MaxRows      int   // spreadsheet rows per preview (default 100)
	CacheSize    int   // cached previews (default 64)
	Logger       *slog.Logger
}

type cacheKey struct {
	id      string
	modTime int64
	size    int64
}

// Renderer builds previews and caches them by document version, so a
// modified file is never served from a stale entry.
type Renderer struct {
	maxLines     int
	maxTextBytes int64
	maxRows      int
	cache        *lru.Cache[cacheKey, *Preview]
	logger       *slog.Logger
}

// NewRenderer creates a preview renderer.
func NewRenderer(options Options) (*Renderer, error) {
	if options.MaxLines <= 0 {
		options.MaxLines = 200
	}
	if options.MaxTextBytes <= 0 {
		options.MaxTextBytes = 256 * 1024
	}
	if options.MaxRows <= 0 {
		options.MaxRows = 100
	}
	if options.CacheSize <= 0 {
		options.CacheSize = 64
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	cache, err := lru.New[cacheKey, *Preview](options.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating preview cache: %w", err)
	}
	return &Renderer{
		maxLines:     options.MaxLines,
		maxTextBytes: options.MaxTextBytes,
		maxRows:      options.MaxRows,
		cache:        cache,
		logger:       options.Logger,
	}, nil
}

// Render returns the preview for doc. Formats without a content preview
// (pdf, docx, images, ...) get a metadata-only preview rather than an error.
func (r *Renderer) Render(doc discovery.Document) (*Preview, error) {
	key := cacheKey{id: doc.ID, modTime: doc.ModTime.UnixNano(), size: doc.SizeBytes}
	if cached, ok := r.cache.Get(key); ok {
		return cached, nil
	}

	start := time.Now()
	p, err := r.render(doc)
	if errors.Is(err, ErrUnsupported) {
		p, err = &Preview{Mode: ModeMetadata}, nil
	}
	if err != nil {
		return nil, err
	}
	p.Document = doc
	p.MimeType = catalog.MimeType(doc.Extension)

	r.cache.Add(key, p)
	r.logger.Debug("rendered preview", "path", doc.Path, "mode", p.Mode, "elapsed", time.Since(start))
	return p, nil
}

// CachedCount returns the number of cached previews.
func (r *Renderer) CachedCount() int {
	return r.cache.Len()
}

func (r *Renderer) render(doc discovery.Document) (*Preview, error) {
	switch doc.Extension {
	case "txt", "rtf":
		text, cut, err := ReadText(doc.Path, r.maxTextBytes)
		if err != nil {
			return nil, err
		}
		lines, more := textLines(text, r.maxLines)
		return &Preview{Mode: ModeText, Lines: lines, Truncated: cut || more}, nil
	case "xlsx":
		sheet, err := ReadSheet(doc.Path, r.maxRows)
		if err != nil {
			return nil, err
		}
		return &Preview{Mode: ModeSheet, Sheet: sheet, Truncated: sheet.Truncated}, nil
	default:
		return nil, ErrUnsupported
	}
}

// TextLoader returns a function suitable for indexing plain text documents.
// Non-text documents and unreadable files yield "".
func TextLoader(maxBytes int64, logger *slog.Logger) func(doc discovery.Document) string {
	return func(doc discovery.Document) string {
		if doc.Extension != "txt" {
			return ""
		}
		text, _, err := ReadText(doc.Path, maxBytes)
		if err != nil {
			if logger != nil {
				logger.Debug("skipped text indexing", "path", doc.Path, "error", err)
			}
			return ""
		}
		return text
	}
}
