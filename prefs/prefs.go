package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// DefaultMaxRecent caps the recently-opened list.
const DefaultMaxRecent = 20

// RecentEntry records when a document was last opened.
type RecentEntry struct {
	ID       string    `json:"id"`
	OpenedAt time.Time `json:"openedAt"`
}

// Preferences is the on-disk layout of the preferences file.
type Preferences struct {
	Favorites []string      `json:"favorites"`
	Recent    []RecentEntry `json:"recent"`
}

// Store persists favorites and recently-opened documents, keyed by document
// identifier. Every mutation is a serialized read-modify-write followed by an
// atomic file replace, so concurrent toggles never lose updates.
// A Store with an empty path keeps everything in memory.
type Store struct {
	mu        sync.Mutex
	path      string
	maxRecent int
	current   Preferences
}

// Open loads the preferences file. A missing file yields empty preferences.
func Open(path string, maxRecent int) (*Store, error) {
	if maxRecent <= 0 {
		maxRecent = DefaultMaxRecent
	}
	s := &Store{path: path, maxRecent: maxRecent}
	if path == "" {
		return s, nil
	}
	prefs, err := readFile(path)
	if err != nil {
		return nil, err
	}
	s.current = prefs
	return s, nil
}

// Path returns the backing file path ("" for in-memory stores).
func (s *Store) Path() string {
	return s.path
}

// FavoriteSet returns a snapshot of the favorite identifiers.
func (s *Store) FavoriteSet() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	set := make(map[string]bool, len(s.current.Favorites))
	for _, id := range s.current.Favorites {
		set[id] = true
	}
	return set
}

// IsFavorite reports whether id is a favorite.
func (s *Store) IsFavorite(id string) bool {
	return s.FavoriteSet()[id]
}

// ToggleFavorite flips the favorite state of id and returns the new state.
func (s *Store) ToggleFavorite(id string) (bool, error) {
	var favorite bool
	err := s.update(func(p *Preferences) {
		idx := indexOf(p.Favorites, id)
		if idx >= 0 {
			p.Favorites = append(p.Favorites[:idx], p.Favorites[idx+1:]...)
			favorite = false
			return
		}
		p.Favorites = append(p.Favorites, id)
		sort.Strings(p.Favorites)
		favorite = true
	})
	if err != nil {
		return false, err
	}
	return favorite, nil
}

// MarkOpened moves id to the front of the recently-opened list.
func (s *Store) MarkOpened(id string, at time.Time) error {
	return s.update(func(p *Preferences) {
		recent := make([]RecentEntry, 0, len(p.Recent)+1)
		recent = append(recent, RecentEntry{ID: id, OpenedAt: at})
		for _, entry := range p.Recent {
			if entry.ID != id {
				recent = append(recent, entry)
			}
		}
		if len(recent) > s.maxRecent {
			recent = recent[:s.maxRecent]
		}
		p.Recent = recent
	})
}

// Recent returns the recently-opened entries, most recent first.
func (s *Store) Recent() []RecentEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecentEntry(nil), s.current.Recent...)
}

// update runs mutate on a fresh copy of the preferences and persists the
// result. The in-memory state only changes once the write succeeded.
func (s *Store) update(mutate func(p *Preferences)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	if s.path != "" {
		// Another process may have written since we last looked.
		onDisk, err := readFile(s.path)
		if err != nil {
			return err
		}
		next = onDisk
	}
	next.Favorites = append([]string(nil), next.Favorites...)
	next.Recent = append([]RecentEntry(nil), next.Recent...)

	mutate(&next)

	if s.path != "" {
		if err := writeFile(s.path, next); err != nil {
			return err
		}
	}
	s.current = next
	return nil
}

func readFile(path string) (Preferences, error) {
	var prefs Preferences
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return prefs, nil
	}
	if err != nil {
		return prefs, fmt.Errorf("reading preferences %s: %w", path, err)
	}
	if len(data) == 0 {
		return prefs, nil
	}
	if err := json.Unmarshal(data, &prefs); err != nil {
		return prefs, fmt.Errorf("parsing preferences %s: %w", path, err)
	}
	return prefs, nil
}

// writeFile replaces the preferences file atomically: temp file in the same
// directory, then rename.
func writeFile(path string, prefs Preferences) error {
	output, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling preferences: %w", err)
	}
	output = append(output, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	tmpFile, err := os.CreateTemp(dir, ".prefs-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(output); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file %s: %w", tmpPath, err)
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming %s to %s: %w", tmpPath, path, err)
	}
	return nil
}

func indexOf(list []string, value string) int {
	for i, v := range list {
		if v == value {
			return i
		}
	}
	return -1
}
