package discovery

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lexandro/docshelf-mcp/catalog"
)

// DefaultSizeFloorBytes is the minimum size of a non-image document.
// Smaller files are assumed to be placeholders.
const DefaultSizeFloorBytes int64 = 1024

// IgnoreChecker is used by the scan to drop entries before they are classified.
type IgnoreChecker interface {
	ShouldIgnore(absolutePath string) bool
	IsFileTooLarge(fileSize int64) bool
}

// Options configures a Service. Zero values select the defaults.
type Options struct {
	// Roots are listed non-recursively, in order.
	Roots []string
	// SizeFloorBytes applies to documents only. 0 selects
	// DefaultSizeFloorBytes; a negative value disables the floor.
	SizeFloorBytes     int64
	DocumentExtensions []string
	ImageExtensions    []string
	Ignore             IgnoreChecker
	Access             AccessRequester
	Logger             *slog.Logger
}

// Stats describes how a scan went. A caller cannot tell partial failure from
// absence through the document list alone; Stats is diagnostic only.
type Stats struct {
	RootsScanned   int
	RootsSkipped   int
	EntriesSeen    int
	EntriesIgnored int // rejected by ignore rules, extension, or size
	EntriesSkipped int // metadata could not be read
	Duplicates     int
	Duration       time.Duration
}

// Result is the caller-owned outcome of one Scan.
type Result struct {
	Documents []Document
	Stats     Stats
	ScannedAt time.Time
}

// Service enumerates the configured roots for document and image files.
// A Service holds no mutable state; concurrent Scan calls are independent.
type Service struct {
	roots     []string
	sizeFloor int64
	documents map[string]bool
	images    map[string]bool
	ignore    IgnoreChecker
	access    AccessRequester
	logger    *slog.Logger
}

// NewService creates a discovery service.
func NewService(options Options) *Service {
	s := &Service{
		sizeFloor: options.SizeFloorBytes,
		documents: toSet(options.DocumentExtensions, catalog.DocumentExtensions),
		images:    toSet(options.ImageExtensions, catalog.ImageExtensions),
		ignore:    options.Ignore,
		access:    options.Access,
		logger:    options.Logger,
	}
	if s.sizeFloor == 0 {
		s.sizeFloor = DefaultSizeFloorBytes
	}
	if s.sizeFloor < 0 {
		s.sizeFloor = 0
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	for _, root := range options.Roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			abs = filepath.Clean(root)
		}
		s.roots = append(s.roots, abs)
	}
	if s.access == nil {
		s.access = DirectoryAccess{Roots: s.roots}
	}
	return s
}

// Roots returns the absolute scan roots in scan order.
func (s *Service) Roots() []string {
	return append([]string(nil), s.roots...)
}

// SizeFloorBytes returns the effective document size floor.
func (s *Service) SizeFloorBytes() int64 {
	return s.sizeFloor
}

// RequestAccess asks the configured requester for storage access.
func (s *Service) RequestAccess() bool {
	granted := s.access.RequestAccess()
	s.logger.Debug("storage access requested", "granted", granted)
	return granted
}

// Scan lists every root once and returns the accepted files, deduplicated by
// path and ordered by modification time, newest first. It never fails:
// unreadable roots and entries are logged and skipped.
func (s *Service) Scan() *Result {
	start := time.Now()
	result := &Result{ScannedAt: start}
	var found []Document

	for _, root := range s.roots {
		entries, err := os.ReadDir(root)
		if err != nil && len(entries) == 0 {
			s.logger.Warn("skipping root", "root", root, "error", err)
			result.Stats.RootsSkipped++
			continue
		}
		if err != nil {
			// ReadDir returns what it read before failing
			s.logger.Warn("partial root listing", "root", root, "entries", len(entries), "error", err)
		}
		result.Stats.RootsScanned++

		for _, entry := range entries {
			result.Stats.EntriesSeen++
			doc, outcome := s.inspect(root, entry)
			switch outcome {
			case entryAccepted:
				found = append(found, doc)
			case entryIgnored:
				result.Stats.EntriesIgnored++
			case entryFailed:
				result.Stats.EntriesSkipped++
			}
		}
	}

	docs, dupes := dedupByPath(found)
	sortByModTimeDesc(docs)

	result.Documents = docs
	result.Stats.Duplicates = dupes
	result.Stats.Duration = time.Since(start)

	s.logger.Debug("scan complete",
		"documents", len(docs),
		"rootsScanned", result.Stats.RootsScanned,
		"rootsSkipped", result.Stats.RootsSkipped,
		"skipped", result.Stats.EntriesSkipped,
		"duration", result.Stats.Duration,
	)
	return result
}

// Inspect classifies a single path the same way Scan would. It is used by
// the watcher to decide whether a change event is relevant.
func (s *Service) Inspect(absolutePath string) (Document, bool) {
	info, err := os.Stat(absolutePath)
	if err != nil || !info.Mode().IsRegular() {
		return Document{}, false
	}
	return s.classify(absolutePath, info)
}

type entryOutcome int

const (
	entryAccepted entryOutcome = iota
	entryIgnored
	entryFailed
)

func (s *Service) inspect(root string, entry os.DirEntry) (Document, entryOutcome) {
	path := filepath.Join(root, entry.Name())

	if entry.IsDir() {
		return Document{}, entryIgnored
	}

	var info os.FileInfo
	var err error
	if entry.Type()&os.ModeSymlink != 0 {
		info, err = os.Stat(path)
	} else {
		info, err = entry.Info()
	}
	if err != nil {
		s.logger.Debug("skipped entry", "path", path, "error", err)
		return Document{}, entryFailed
	}
	if !info.Mode().IsRegular() {
		return Document{}, entryIgnored
	}

	doc, ok := s.classify(path, info)
	if !ok {
		return Document{}, entryIgnored
	}
	return doc, entryAccepted
}

// classify applies the ignore rules, allow-lists and size floor.
func (s *Service) classify(path string, info os.FileInfo) (Document, bool) {
	name := filepath.Base(path)

	if s.ignore != nil && s.ignore.ShouldIgnore(path) {
		return Document{}, false
	}

	tag, ok := catalog.ExtensionTag(name)
	if !ok {
		return Document{}, false
	}

	var kind catalog.Kind
	switch {
	case s.images[tag]:
		kind = catalog.KindImage
	case s.documents[tag]:
		kind = catalog.KindDocument
	default:
		return Document{}, false
	}

	size := info.Size()
	if kind == catalog.KindDocument && size < s.sizeFloor {
		return Document{}, false
	}
	if s.ignore != nil && s.ignore.IsFileTooLarge(size) {
		return Document{}, false
	}

	category, _ := catalog.CategoryOf(tag)
	return Document{
		ID:         DocumentID(path),
		Name:       name,
		Path:       path,
		Extension:  tag,
		Kind:       kind,
		Category:   category,
		SizeBytes:  size,
		ModTime:    info.ModTime(),
		AccessTime: accessTime(info),
	}, true
}

// dedupByPath keeps one record per path. A later record replaces an earlier
// one but keeps the earlier position.
func dedupByPath(docs []Document) ([]Document, int) {
	positions := make(map[string]int, len(docs))
	out := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if idx, exists := positions[doc.Path]; exists {
			out[idx] = doc
			continue
		}
		positions[doc.Path] = len(out)
		out = append(out, doc)
	}
	return out, len(docs) - len(out)
}

func sortByModTimeDesc(docs []Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].ModTime.After(docs[j].ModTime)
	})
}

func toSet(values []string, fallback []string) map[string]bool {
	if len(values) == 0 {
		values = fallback
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[strings.ToLower(strings.TrimPrefix(v, "."))] = true
	}
	return set
}
