package ignore

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	gitignore "github.com/denormal/go-gitignore"
)

// IgnoreFileName is the per-root ignore file, in .gitignore syntax.
const IgnoreFileName = ".docshelfignore"

// Matcher decides whether a directory entry found under one of the scan roots
// should be skipped. It combines default patterns, a .docshelfignore file in
// each root and custom CLI patterns.
// Thread-safe: Reload() acquires a write lock, ShouldIgnore() a read lock.
type Matcher struct {
	mu               sync.RWMutex
	roots            []string
	rootIgnores      map[string]gitignore.GitIgnore // key: cleaned root dir
	customPatterns   []string
	maxFileSizeBytes int64
}

// MatcherOptions configures the ignore matcher.
type MatcherOptions struct {
	Roots          []string
	CustomPatterns []string
	// MaxFileSizeBytes is an upper size bound; 0 or less disables it.
	MaxFileSizeBytes int64
}

// NewMatcher creates an ignore matcher for the given roots.
func NewMatcher(options MatcherOptions) *Matcher {
	roots := make([]string, 0, len(options.Roots))
	for _, r := range options.Roots {
		roots = append(roots, filepath.Clean(r))
	}

	matcher := &Matcher{
		roots:            roots,
		customPatterns:   options.CustomPatterns,
		maxFileSizeBytes: options.MaxFileSizeBytes,
	}
	matcher.rootIgnores = loadRootIgnores(roots)
	return matcher
}

// ShouldIgnore returns true if the file at absolutePath must not be offered
// as a document. The entry's parent directory is treated as its root.
func (m *Matcher) ShouldIgnore(absolutePath string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	baseName := filepath.Base(absolutePath)

	if matchesDefaultPatterns(baseName) {
		return true
	}

	if gi := m.rootIgnores[filepath.Dir(filepath.Clean(absolutePath))]; gi != nil {
		match := gi.Relative(baseName, false)
		if match != nil && match.Ignore() {
			return true
		}
	}

	return m.matchesCustomPatterns(absolutePath, baseName)
}

// IsIgnoreFile reports whether path is one of the per-root ignore files.
func (m *Matcher) IsIgnoreFile(path string) bool {
	return filepath.Base(path) == IgnoreFileName
}

// IsFileTooLarge returns true if the file exceeds the max file size limit.
func (m *Matcher) IsFileTooLarge(fileSize int64) bool {
	return m.maxFileSizeBytes > 0 && fileSize > m.maxFileSizeBytes
}

// MaxFileSizeBytes returns the configured maximum file size (0 = unlimited).
func (m *Matcher) MaxFileSizeBytes() int64 {
	return m.maxFileSizeBytes
}

// matchesDefaultPatterns checks the basename against DefaultIgnorePatterns.
func matchesDefaultPatterns(baseName string) bool {
	baseNameLower := strings.ToLower(baseName)
	for _, pattern := range DefaultIgnorePatterns {
		if !strings.ContainsAny(pattern, "*?[") {
			if baseNameLower == strings.ToLower(pattern) {
				return true
			}
			continue
		}
		matched, err := filepath.Match(strings.ToLower(pattern), baseNameLower)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// matchesCustomPatterns checks the full path and the basename against the
// user-provided exclude patterns.
func (m *Matcher) matchesCustomPatterns(absolutePath string, baseName string) bool {
	slashPath := filepath.ToSlash(absolutePath)
	for _, pattern := range m.customPatterns {
		if matched, err := filepath.Match(pattern, slashPath); err == nil && matched {
			return true
		}
		if matched, err := filepath.Match(pattern, baseName); err == nil && matched {
			return true
		}
	}
	return false
}

// Reload re-reads every root's ignore file from disk.
// Used when the watcher sees one of them change.
func (m *Matcher) Reload() {
	m.mu.RLock()
	roots := m.roots
	m.mu.RUnlock()

	fresh := loadRootIgnores(roots)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rootIgnores = fresh
}

func loadRootIgnores(roots []string) map[string]gitignore.GitIgnore {
	ignores := make(map[string]gitignore.GitIgnore, len(roots))
	for _, root := range roots {
		if gi := loadIgnoreFile(filepath.Join(root, IgnoreFileName), root); gi != nil {
			ignores[root] = gi
		}
	}
	return ignores
}

// loadIgnoreFile reads an ignore file and creates a GitIgnore matcher from it.
// Uses io.Reader approach to ensure the file handle is properly closed on Windows.
func loadIgnoreFile(filePath string, baseDir string) gitignore.GitIgnore {
	f, err := os.Open(filePath)
	if err != nil {
		return nil
	}
	defer f.Close()

	return gitignore.New(f, baseDir, nil)
}
