package library

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lexandro/docshelf-mcp/discovery"
	"github.com/lexandro/docshelf-mcp/index"
	"github.com/lexandro/docshelf-mcp/prefs"
)

// ErrNotFound is returned for identifiers that are not in the current snapshot.
var ErrNotFound = errors.New("document not found")

// Scanner is the part of discovery.Service the library depends on.
type Scanner interface {
	Scan() *discovery.Result
	RequestAccess() bool
}

// Snapshot is an immutable view of the shelf after one scan. Callers must
// not modify Documents.
type Snapshot struct {
	Documents     []discovery.Document
	Stats         discovery.Stats
	ScannedAt     time.Time
	Generation    uint64
	AccessGranted bool
}

// EventKind identifies what changed.
type EventKind string

const (
	EventRefreshed       EventKind = "refreshed"
	EventFavoriteChanged EventKind = "favorite"
	EventOpened          EventKind = "opened"
)

// Event is delivered to observers after a change has been applied.
type Event struct {
	Kind       EventKind
	Snapshot   *Snapshot
	DocumentID string // set for favorite and opened events
}

// Observer receives change notifications. Observers are called synchronously
// from the goroutine that made the change, outside the library lock.
type Observer func(Event)

// OpenedDocument is a recently-opened entry joined with its current record.
type OpenedDocument struct {
	Document discovery.Document
	OpenedAt time.Time
}

// Options configures a Library.
type Options struct {
	Scanner       Scanner
	Prefs         *prefs.Store
	DocumentIndex *index.DocumentIndex // optional
	NameIndex     *index.NameIndex     // optional
	TextLoader    index.TextLoader     // optional, used with NameIndex
	Logger        *slog.Logger
	Now           func() time.Time
}

// Library owns the latest snapshot, keeps the indexes in step with it and
// notifies observers of changes.
type Library struct {
	scanner    Scanner
	prefs      *prefs.Store
	docs       *index.DocumentIndex
	names      *index.NameIndex
	textLoader index.TextLoader
	logger     *slog.Logger
	now        func() time.Time

	generation atomic.Uint64

	mu      sync.RWMutex
	current *Snapshot

	observersMu  sync.Mutex
	observers    []subscription
	nextObserver int
}

type subscription struct {
	id       int
	observer Observer
}

// New creates a library. No scan is performed until Refresh is called.
func New(options Options) *Library {
	l := &Library{
		scanner:    options.Scanner,
		prefs:      options.Prefs,
		docs:       options.DocumentIndex,
		names:      options.NameIndex,
		textLoader: options.TextLoader,
		logger:     options.Logger,
		now:        options.Now,
		current:    &Snapshot{},
	}
	if l.logger == nil {
		l.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.docs == nil {
		l.docs = index.NewDocumentIndex()
	}
	return l
}

// Subscribe registers an observer and returns a function that removes it.
func (l *Library) Subscribe(observer Observer) (unsubscribe func()) {
	l.observersMu.Lock()
	defer l.observersMu.Unlock()

	id := l.nextObserver
	l.nextObserver++
	l.observers = append(l.observers, subscription{id: id, observer: observer})

	return func() {
		l.observersMu.Lock()
		defer l.observersMu.Unlock()
		for i, sub := range l.observers {
			if sub.id == id {
				l.observers = append(l.observers[:i:i], l.observers[i+1:]...)
				return
			}
		}
	}
}

// Refresh requests access, scans, applies the favorites overlay and
// publishes the result. Concurrent refreshes are allowed; the snapshot
// started last wins.
func (l *Library) Refresh() *Snapshot {
	generation := l.generation.Add(1)
	granted := l.scanner.RequestAccess()
	result := l.scanner.Scan()

	snap := &Snapshot{
		Stats:         result.Stats,
		ScannedAt:     result.ScannedAt,
		Generation:    generation,
		AccessGranted: granted,
	}

	l.mu.Lock()
	if generation < l.current.Generation {
		// A newer scan already published.
		current := l.current
		l.mu.Unlock()
		l.logger.Debug("discarding stale scan", "generation", generation, "current", current.Generation)
		return current
	}
	// Under l.mu so a toggle that persisted meanwhile is not overwritten.
	snap.Documents = discovery.WithFavorites(result.Documents, l.favoriteSet())
	l.publishLocked(snap)
	l.mu.Unlock()

	l.logger.Info("shelf refreshed",
		"documents", len(snap.Documents),
		"generation", generation,
		"accessGranted", granted,
		"duration", snap.Stats.Duration,
	)
	l.notify(Event{Kind: EventRefreshed, Snapshot: snap})
	return snap
}

// Snapshot returns the latest published snapshot. Before the first Refresh
// it is empty with generation 0.
func (l *Library) Snapshot() *Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Get returns a document from the current snapshot.
func (l *Library) Get(id string) (discovery.Document, bool) {
	return l.docs.Get(id)
}

// ToggleFavorite flips the persisted favorite state of a document and
// re-applies the overlay to the current snapshot.
func (l *Library) ToggleFavorite(id string) (bool, error) {
	if _, ok := l.docs.Get(id); !ok {
		return false, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if l.prefs == nil {
		return false, errors.New("favorites are not configured")
	}

	favorite, err := l.prefs.ToggleFavorite(id)
	if err != nil {
		return false, fmt.Errorf("toggling favorite: %w", err)
	}

	l.mu.Lock()
	next := *l.current
	next.Documents = discovery.WithFavorites(l.current.Documents, l.favoriteSet())
	l.publishLocked(&next)
	l.mu.Unlock()

	l.logger.Info("favorite toggled", "id", id, "favorite", favorite)
	l.notify(Event{Kind: EventFavoriteChanged, Snapshot: &next, DocumentID: id})
	return favorite, nil
}

// MarkOpened records that a document was opened and returns its record.
func (l *Library) MarkOpened(id string) (discovery.Document, error) {
	doc, ok := l.docs.Get(id)
	if !ok {
		return discovery.Document{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if l.prefs != nil {
		if err := l.prefs.MarkOpened(id, l.now()); err != nil {
			return discovery.Document{}, fmt.Errorf("recording opened document: %w", err)
		}
	}
	l.notify(Event{Kind: EventOpened, Snapshot: l.Snapshot(), DocumentID: id})
	return doc, nil
}

// RecentlyOpened returns recently-opened documents that still exist in the
// current snapshot, most recent first.
func (l *Library) RecentlyOpened() []OpenedDocument {
	if l.prefs == nil {
		return nil
	}
	var opened []OpenedDocument
	for _, entry := range l.prefs.Recent() {
		doc, ok := l.docs.Get(entry.ID)
		if !ok {
			continue
		}
		opened = append(opened, OpenedDocument{Document: doc, OpenedAt: entry.OpenedAt})
	}
	return opened
}

// Search runs a name/text query and returns matching documents in score order.
func (l *Library) Search(options index.NameSearchOptions) ([]discovery.Document, error) {
	if l.names == nil {
		return nil, errors.New("search index is not configured")
	}
	hits, err := l.names.Search(options)
	if err != nil {
		return nil, err
	}
	docs := make([]discovery.Document, 0, len(hits))
	for _, hit := range hits {
		if doc, ok := l.docs.Get(hit.ID); ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// DocumentIndex exposes the index backing the current snapshot.
func (l *Library) DocumentIndex() *index.DocumentIndex {
	return l.docs
}

// publishLocked installs snap as current and updates the indexes.
// l.mu must be held for writing.
func (l *Library) publishLocked(snap *Snapshot) {
	l.current = snap
	l.docs.Replace(snap.Documents)
	if l.names != nil {
		if err := l.names.Sync(snap.Documents, l.textLoader); err != nil {
			l.logger.Warn("updating search index failed", "error", err)
		}
	}
}

func (l *Library) favoriteSet() map[string]bool {
	if l.prefs == nil {
		return nil
	}
	return l.prefs.FavoriteSet()
}

func (l *Library) notify(event Event) {
	l.observersMu.Lock()
	observers := make([]Observer, 0, len(l.observers))
	for _, sub := range l.observers {
		observers = append(observers, sub.observer)
	}
	l.observersMu.Unlock()

	for _, o := range observers {
		o(event)
	}
}
