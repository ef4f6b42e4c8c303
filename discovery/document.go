package discovery

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/lexandro/docshelf-mcp/catalog"
)

// Document is one discovered file. Records are built fresh by every scan and
// are treated as values: queries return modified copies, never edit in place.
type Document struct {
	ID         string           `json:"id"`         // UUIDv5 of the absolute path
	Name       string           `json:"name"`       // final path segment
	Path       string           `json:"path"`       // cleaned absolute path
	Extension  string           `json:"extension"`  // lower-cased, never empty
	Kind       catalog.Kind     `json:"kind"`       // document or image
	Category   catalog.Category `json:"category"`   // empty for tags outside the catalog
	SizeBytes  int64            `json:"sizeBytes"`  // size at scan time
	ModTime    time.Time        `json:"modTime"`    // last modification
	AccessTime time.Time        `json:"accessTime"` // last access, ModTime where unavailable
	Favorite   bool             `json:"favorite"`
}

// DocumentID derives the stable identifier for an absolute path. The same
// path always yields the same identifier, across scans and process restarts.
func DocumentID(absolutePath string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(filepath.Clean(absolutePath)))).String()
}
