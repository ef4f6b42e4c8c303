package library

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/lexandro/docshelf-mcp/discovery"
	"github.com/lexandro/docshelf-mcp/index"
	"github.com/lexandro/docshelf-mcp/prefs"
)

// fakeScanner returns a fixed document list.
type fakeScanner struct {
	mu      sync.Mutex
	docs    []discovery.Document
	granted bool
	scans   int
}

func (f *fakeScanner) Scan() *discovery.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++
	return &discovery.Result{
		Documents: append([]discovery.Document(nil), f.docs...),
		ScannedAt: time.Now(),
	}
}

func (f *fakeScanner) RequestAccess() bool { return f.granted }

func (f *fakeScanner) set(docs ...discovery.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs = docs
}

// blockingScanner pauses inside Scan once armed, until release is closed.
type blockingScanner struct {
	fakeScanner
	armed   chan struct{}
	started chan struct{}
	release chan struct{}
}

func newBlockingScanner(docs ...discovery.Document) *blockingScanner {
	b := &blockingScanner{
		armed:   make(chan struct{}),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	b.set(docs...)
	return b
}

func (b *blockingScanner) Scan() *discovery.Result {
	select {
	case <-b.armed:
		close(b.started)
		<-b.release
	default:
	}
	return b.fakeScanner.Scan()
}

func testDoc(path string, size int64, modTime time.Time) discovery.Document {
	return discovery.Document{
		ID:        discovery.DocumentID(path),
		Name:      filepath.Base(path),
		Path:      path,
		Extension: "pdf",
		SizeBytes: size,
		ModTime:   modTime,
	}
}

func newTestLibrary(t *testing.T, scanner Scanner) (*Library, *prefs.Store) {
	t.Helper()
	store, err := prefs.Open(filepath.Join(t.TempDir(), "prefs.json"), 0)
	if err != nil {
		t.Fatalf("opening prefs: %v", err)
	}
	return New(Options{Scanner: scanner, Prefs: store}), store
}

func Test_Library_SnapshotBeforeRefresh(t *testing.T) {
	lib, _ := newTestLibrary(t, &fakeScanner{})
	snap := lib.Snapshot()
	if snap.Generation != 0 || len(snap.Documents) != 0 {
		t.Errorf("expected empty generation-0 snapshot, got %+v", snap)
	}
}

func Test_Library_RefreshPublishesAndNotifies(t *testing.T) {
	now := time.Now()
	scanner := &fakeScanner{granted: true}
	scanner.set(testDoc("/docs/a.pdf", 2048, now), testDoc("/docs/b.pdf", 4096, now.Add(-time.Hour)))
	lib, _ := newTestLibrary(t, scanner)

	var events []Event
	lib.Subscribe(func(e Event) { events = append(events, e) })

	snap := lib.Refresh()
	if snap.Generation != 1 {
		t.Errorf("expected generation 1, got %d", snap.Generation)
	}
	if !snap.AccessGranted {
		t.Error("expected access to be granted")
	}
	if len(events) != 1 || events[0].Kind != EventRefreshed || events[0].Snapshot != snap {
		t.Fatalf("expected one refresh event carrying the snapshot, got %+v", events)
	}
	if lib.DocumentIndex().Count() != 2 {
		t.Errorf("expected document index to hold 2 documents, got %d", lib.DocumentIndex().Count())
	}

	second := lib.Refresh()
	if second.Generation != 2 {
		t.Errorf("expected generation 2, got %d", second.Generation)
	}
}

func Test_Library_Unsubscribe(t *testing.T) {
	lib, _ := newTestLibrary(t, &fakeScanner{})
	calls := 0
	unsubscribe := lib.Subscribe(func(Event) { calls++ })

	lib.Refresh()
	unsubscribe()
	lib.Refresh()

	if calls != 1 {
		t.Errorf("expected 1 notification before unsubscribing, got %d", calls)
	}
}

func Test_Library_ObserversInSubscriptionOrder(t *testing.T) {
	lib, _ := newTestLibrary(t, &fakeScanner{})

	var order []int
	var unsubscribers []func()
	for i := range 8 {
		unsubscribers = append(unsubscribers, lib.Subscribe(func(Event) { order = append(order, i) }))
	}
	unsubscribers[3]()

	for range 20 {
		order = order[:0]
		lib.Refresh()
		want := []int{0, 1, 2, 4, 5, 6, 7}
		if len(order) != len(want) {
			t.Fatalf("expected %v, got %v", want, order)
		}
		for i := range want {
			if order[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, order)
			}
		}
	}
}

func Test_Library_ToggleDuringRefreshIsKept(t *testing.T) {
	doc := testDoc("/docs/a.pdf", 2048, time.Now())
	scanner := newBlockingScanner(doc)
	lib, _ := newTestLibrary(t, scanner)
	lib.Refresh()

	close(scanner.armed)
	done := make(chan *Snapshot)
	go func() { done <- lib.Refresh() }()
	<-scanner.started

	if _, err := lib.ToggleFavorite(doc.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	close(scanner.release)
	snap := <-done

	if !snap.Documents[0].Favorite {
		t.Error("expected the refreshed snapshot to keep the favorite")
	}
	if !lib.Snapshot().Documents[0].Favorite {
		t.Error("expected the current snapshot to keep the favorite")
	}
}

func Test_Library_RefreshAndTogglesConverge(t *testing.T) {
	scanner := &fakeScanner{}
	var docs []discovery.Document
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		docs = append(docs, testDoc("/docs/"+name+".pdf", 2048, time.Now()))
	}
	scanner.set(docs...)
	lib, store := newTestLibrary(t, scanner)
	lib.Refresh()

	var wg sync.WaitGroup
	for round := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			lib.Refresh()
		}()
		go func(id string) {
			defer wg.Done()
			if _, err := lib.ToggleFavorite(id); err != nil {
				t.Errorf("toggle %s: %v", id, err)
			}
		}(docs[round%len(docs)].ID)
	}
	wg.Wait()

	persisted := store.FavoriteSet()
	for _, doc := range lib.Snapshot().Documents {
		if doc.Favorite != persisted[doc.ID] {
			t.Errorf("%s: snapshot favorite=%v, persisted=%v", doc.Name, doc.Favorite, persisted[doc.ID])
		}
	}
}

func Test_Library_ToggleFavorite(t *testing.T) {
	doc := testDoc("/docs/a.pdf", 2048, time.Now())
	scanner := &fakeScanner{}
	scanner.set(doc)
	lib, store := newTestLibrary(t, scanner)
	lib.Refresh()

	var favoriteEvents int
	lib.Subscribe(func(e Event) {
		if e.Kind == EventFavoriteChanged && e.DocumentID == doc.ID {
			favoriteEvents++
		}
	})

	favorite, err := lib.ToggleFavorite(doc.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !favorite || !store.IsFavorite(doc.ID) {
		t.Error("expected document to become a favorite")
	}
	if !lib.Snapshot().Documents[0].Favorite {
		t.Error("expected snapshot to reflect the favorite")
	}
	if got, _ := lib.Get(doc.ID); !got.Favorite {
		t.Error("expected index record to reflect the favorite")
	}
	if favoriteEvents != 1 {
		t.Errorf("expected 1 favorite event, got %d", favoriteEvents)
	}

	// Favorites survive a rescan.
	lib.Refresh()
	if !lib.Snapshot().Documents[0].Favorite {
		t.Error("expected favorite to survive refresh")
	}

	favorite, _ = lib.ToggleFavorite(doc.ID)
	if favorite {
		t.Error("expected second toggle to clear the favorite")
	}
}

func Test_Library_ToggleFavorite_UnknownID(t *testing.T) {
	lib, _ := newTestLibrary(t, &fakeScanner{})
	lib.Refresh()

	_, err := lib.ToggleFavorite("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func Test_Library_ConcurrentToggles(t *testing.T) {
	scanner := &fakeScanner{}
	var docs []discovery.Document
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		docs = append(docs, testDoc("/docs/"+name+".pdf", 2048, time.Now()))
	}
	scanner.set(docs...)
	lib, store := newTestLibrary(t, scanner)
	lib.Refresh()

	var wg sync.WaitGroup
	for _, doc := range docs {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := lib.ToggleFavorite(id); err != nil {
				t.Errorf("toggle %s: %v", id, err)
			}
		}(doc.ID)
	}
	wg.Wait()

	if got := len(store.FavoriteSet()); got != len(docs) {
		t.Errorf("expected %d favorites, got %d", len(docs), got)
	}
	if got := len(discovery.Favorites(lib.Snapshot().Documents)); got != len(docs) {
		t.Errorf("expected snapshot to hold %d favorites, got %d", len(docs), got)
	}
}

func Test_Library_MarkOpenedAndRecentlyOpened(t *testing.T) {
	a := testDoc("/docs/a.pdf", 2048, time.Now())
	b := testDoc("/docs/b.pdf", 2048, time.Now())
	scanner := &fakeScanner{}
	scanner.set(a, b)

	store, _ := prefs.Open("", 0)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lib := New(Options{
		Scanner: scanner,
		Prefs:   store,
		Now: func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		},
	})
	lib.Refresh()

	if _, err := lib.MarkOpened(a.ID); err != nil {
		t.Fatalf("mark opened: %v", err)
	}
	if _, err := lib.MarkOpened(b.ID); err != nil {
		t.Fatalf("mark opened: %v", err)
	}

	recent := lib.RecentlyOpened()
	if len(recent) != 2 || recent[0].Document.ID != b.ID || recent[1].Document.ID != a.ID {
		t.Fatalf("expected b then a, got %+v", recent)
	}

	// Documents gone from disk drop out of the recent list.
	scanner.set(a)
	lib.Refresh()
	recent = lib.RecentlyOpened()
	if len(recent) != 1 || recent[0].Document.ID != a.ID {
		t.Errorf("expected only a after b disappeared, got %+v", recent)
	}

	if _, err := lib.MarkOpened("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func Test_Library_Search(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quarterly-report.pdf")
	os.WriteFile(path, make([]byte, 2048), 0644)
	info, _ := os.Stat(path)

	scanner := &fakeScanner{}
	scanner.set(testDoc(path, info.Size(), info.ModTime()))

	names, err := index.NewNameIndex()
	if err != nil {
		t.Fatalf("creating name index: %v", err)
	}
	defer names.Close()

	lib := New(Options{Scanner: scanner, NameIndex: names})
	lib.Refresh()

	docs, err := lib.Search(index.NameSearchOptions{Query: "quarterly"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(docs) != 1 || docs[0].Path != path {
		t.Errorf("expected quarterly-report.pdf, got %+v", docs)
	}
}

func Test_Library_SearchWithoutIndex(t *testing.T) {
	lib := New(Options{Scanner: &fakeScanner{}})
	if _, err := lib.Search(index.NameSearchOptions{Query: "x"}); err == nil {
		t.Error("expected an error without a name index")
	}
}
