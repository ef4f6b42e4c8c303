package catalog

import (
	"path/filepath"
	"sort"
	"strings"
)

// Kind separates documents, which are subject to the size floor, from images.
type Kind string

const (
	KindDocument Kind = "document"
	KindImage    Kind = "image"
	KindUnknown  Kind = "unknown"
)

// Category is a user-facing grouping of extension tags.
type Category string

const (
	CategoryAll   Category = "ALL"
	CategoryPDF   Category = "PDF"
	CategoryDoc   Category = "DOC"
	CategoryXLS   Category = "XLS"
	CategoryPPT   Category = "PPT"
	CategoryTXT   Category = "TXT"
	CategoryRTF   Category = "RTF"
	CategoryEPUB  Category = "EPUB"
	CategoryImage Category = "IMAGE"
)

// DocumentExtensions is the default document allow-list.
var DocumentExtensions = []string{
	"pdf", "doc", "docx", "txt", "ppt", "pptx", "xls", "xlsx", "rtf", "epub",
}

// ImageExtensions is the default image allow-list.
var ImageExtensions = []string{
	"jpg", "jpeg", "png", "gif", "bmp", "webp",
}

// categoryExtensions maps every category except ALL to its extension tags.
var categoryExtensions = map[Category][]string{
	CategoryPDF:   {"pdf"},
	CategoryDoc:   {"doc", "docx"},
	CategoryXLS:   {"xls", "xlsx"},
	CategoryPPT:   {"ppt", "pptx"},
	CategoryTXT:   {"txt"},
	CategoryRTF:   {"rtf"},
	CategoryEPUB:  {"epub"},
	CategoryImage: ImageExtensions,
}

var mimeTypes = map[string]string{
	"pdf":  "application/pdf",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"txt":  "text/plain",
	"ppt":  "application/vnd.ms-powerpoint",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"rtf":  "application/rtf",
	"epub": "application/epub+zip",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"webp": "image/webp",
}

// ExtensionTag returns the lower-cased text after the last dot of the file
// name. ok is false when the name has no usable extension: no dot, a
// trailing dot, or a dot-file such as ".profile".
func ExtensionTag(name string) (tag string, ok bool) {
	base := filepath.Base(name)
	idx := strings.LastIndex(base, ".")
	if idx <= 0 || idx == len(base)-1 {
		return "", false
	}
	return strings.ToLower(base[idx+1:]), true
}

// IsDocument reports whether tag is in the default document allow-list.
func IsDocument(tag string) bool {
	return contains(DocumentExtensions, tag)
}

// IsImage reports whether tag is in the default image allow-list.
func IsImage(tag string) bool {
	return contains(ImageExtensions, tag)
}

// KindOf classifies an extension tag against the default allow-lists.
func KindOf(tag string) Kind {
	switch {
	case IsImage(tag):
		return KindImage
	case IsDocument(tag):
		return KindDocument
	default:
		return KindUnknown
	}
}

// ParseCategory normalizes a category name. Matching is case-insensitive.
func ParseCategory(name string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(name)))
	if c == CategoryAll {
		return c, true
	}
	_, ok := categoryExtensions[c]
	return c, ok
}

// Extensions returns the extension tags belonging to a category.
// ALL expands to both allow-lists. Unknown categories return nil.
func Extensions(c Category) []string {
	if c == CategoryAll {
		all := make([]string, 0, len(DocumentExtensions)+len(ImageExtensions))
		all = append(all, DocumentExtensions...)
		return append(all, ImageExtensions...)
	}
	exts := categoryExtensions[c]
	if exts == nil {
		return nil
	}
	return append([]string(nil), exts...)
}

// CategoryOf returns the specific category an extension tag belongs to.
func CategoryOf(tag string) (Category, bool) {
	for c, exts := range categoryExtensions {
		if contains(exts, tag) {
			return c, true
		}
	}
	return "", false
}

// Categories lists the specific categories (without ALL) in name order.
func Categories() []Category {
	cats := make([]Category, 0, len(categoryExtensions))
	for c := range categoryExtensions {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

// MimeType returns the MIME type for a known tag, or application/octet-stream.
func MimeType(tag string) string {
	if m, ok := mimeTypes[tag]; ok {
		return m
	}
	return "application/octet-stream"
}

func contains(list []string, tag string) bool {
	for _, t := range list {
		if t == tag {
			return true
		}
	}
	return false
}
