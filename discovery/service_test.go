package discovery

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// writeSized creates a file of exactly size bytes with the given mtime.
func writeSized(t *testing.T, dir string, name string, size int, modTime time.Time) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	if !modTime.IsZero() {
		if err := os.Chtimes(path, modTime, modTime); err != nil {
			t.Fatalf("setting times on %s: %v", name, err)
		}
	}
	return path
}

func names(docs []Document) map[string]Document {
	byName := make(map[string]Document, len(docs))
	for _, d := range docs {
		byName[d.Name] = d
	}
	return byName
}

func Test_Service_Scan_MissingRootsNeverFail(t *testing.T) {
	tmpDir := t.TempDir()
	svc := NewService(Options{Roots: []string{
		filepath.Join(tmpDir, "Download"),
		filepath.Join(tmpDir, "Documents"),
		filepath.Join(tmpDir, "DCIM"),
		filepath.Join(tmpDir, "Pictures"),
		filepath.Join(tmpDir, "nope"),
	}})

	result := svc.Scan()
	if result == nil {
		t.Fatal("expected a result, got nil")
	}
	if len(result.Documents) != 0 {
		t.Errorf("expected no documents, got %d", len(result.Documents))
	}
	if result.Stats.RootsSkipped != 5 {
		t.Errorf("expected 5 skipped roots, got %d", result.Stats.RootsSkipped)
	}
}

func Test_Service_Scan_MixedScenario(t *testing.T) {
	tmpDir := t.TempDir()
	writeSized(t, tmpDir, "report.PDF", 2000, time.Time{})
	writeSized(t, tmpDir, "note.txt", 500, time.Time{})
	writeSized(t, tmpDir, "image.png", 200, time.Time{})

	result := NewService(Options{Roots: []string{tmpDir}}).Scan()
	got := names(result.Documents)

	report, ok := got["report.PDF"]
	if !ok {
		t.Fatal("expected report.PDF to be included")
	}
	if report.Extension != "pdf" {
		t.Errorf("expected extension tag pdf, got %q", report.Extension)
	}
	if _, ok := got["note.txt"]; ok {
		t.Error("expected note.txt to be excluded by the size floor")
	}
	if _, ok := got["image.png"]; !ok {
		t.Error("expected image.png to be included despite its size")
	}
	if len(result.Documents) != 2 {
		t.Errorf("expected 2 documents, got %d", len(result.Documents))
	}
}

func Test_Service_Scan_SizeFloorBoundary(t *testing.T) {
	tmpDir := t.TempDir()
	writeSized(t, tmpDir, "under.docx", 1023, time.Time{})
	writeSized(t, tmpDir, "exact.docx", 1024, time.Time{})

	got := names(NewService(Options{Roots: []string{tmpDir}}).Scan().Documents)

	if _, ok := got["under.docx"]; ok {
		t.Error("expected a 1023-byte document to be excluded")
	}
	if _, ok := got["exact.docx"]; !ok {
		t.Error("expected a 1024-byte document to be included")
	}
}

func Test_Service_Scan_ConfigurableSizeFloor(t *testing.T) {
	tmpDir := t.TempDir()
	writeSized(t, tmpDir, "tiny.txt", 10, time.Time{})

	disabled := NewService(Options{Roots: []string{tmpDir}, SizeFloorBytes: -1}).Scan()
	if len(disabled.Documents) != 1 {
		t.Errorf("expected the floor to be disabled, got %d documents", len(disabled.Documents))
	}

	raised := NewService(Options{Roots: []string{tmpDir}, SizeFloorBytes: 4096})
	if raised.SizeFloorBytes() != 4096 {
		t.Errorf("expected floor 4096, got %d", raised.SizeFloorBytes())
	}
}

func Test_Service_Scan_NoExtensionExcluded(t *testing.T) {
	tmpDir := t.TempDir()
	writeSized(t, tmpDir, "README", 4096, time.Time{})
	writeSized(t, tmpDir, "draft.", 4096, time.Time{})
	writeSized(t, tmpDir, "archive.zip", 4096, time.Time{})

	result := NewService(Options{Roots: []string{tmpDir}}).Scan()
	if len(result.Documents) != 0 {
		t.Errorf("expected no documents, got %v", result.Documents)
	}
	if result.Stats.EntriesIgnored != 3 {
		t.Errorf("expected 3 ignored entries, got %d", result.Stats.EntriesIgnored)
	}
}

func Test_Service_Scan_NonRecursive(t *testing.T) {
	tmpDir := t.TempDir()
	nested := filepath.Join(tmpDir, "nested")
	os.Mkdir(nested, 0755)
	writeSized(t, nested, "deep.pdf", 4096, time.Time{})

	result := NewService(Options{Roots: []string{tmpDir}}).Scan()
	if len(result.Documents) != 0 {
		t.Errorf("expected nested files to be skipped, got %d documents", len(result.Documents))
	}
}

func Test_Service_Scan_DedupSamePath(t *testing.T) {
	tmpDir := t.TempDir()
	writeSized(t, tmpDir, "report.pdf", 4096, time.Time{})

	// The same directory listed twice yields the same absolute paths twice.
	result := NewService(Options{Roots: []string{tmpDir, tmpDir + string(filepath.Separator)}}).Scan()

	if len(result.Documents) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(result.Documents))
	}
	if result.Stats.Duplicates != 1 {
		t.Errorf("expected 1 duplicate, got %d", result.Stats.Duplicates)
	}
}

func Test_Service_Scan_SortedByModTimeDesc(t *testing.T) {
	tmpDir := t.TempDir()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	writeSized(t, tmpDir, "old.pdf", 2048, base.Add(-48*time.Hour))
	writeSized(t, tmpDir, "new.pdf", 2048, base)
	writeSized(t, tmpDir, "mid.jpg", 10, base.Add(-24*time.Hour))

	docs := NewService(Options{Roots: []string{tmpDir}}).Scan().Documents
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
	for i := 1; i < len(docs); i++ {
		if docs[i-1].ModTime.Before(docs[i].ModTime) {
			t.Errorf("documents not sorted: %s (%v) before %s (%v)",
				docs[i-1].Name, docs[i-1].ModTime, docs[i].Name, docs[i].ModTime)
		}
	}
	if docs[0].Name != "new.pdf" || docs[2].Name != "old.pdf" {
		t.Errorf("unexpected order: %s, %s, %s", docs[0].Name, docs[1].Name, docs[2].Name)
	}
}

func Test_Service_Scan_StableIdentifiers(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeSized(t, tmpDir, "report.pdf", 2048, time.Time{})
	svc := NewService(Options{Roots: []string{tmpDir}})

	first := svc.Scan().Documents
	second := svc.Scan().Documents
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one document per scan, got %d and %d", len(first), len(second))
	}
	if first[0].ID != second[0].ID {
		t.Errorf("expected stable identifier, got %s then %s", first[0].ID, second[0].ID)
	}
	if first[0].ID != DocumentID(path) {
		t.Errorf("expected identifier derived from path")
	}
	if first[0].Favorite {
		t.Error("expected Favorite to default to false")
	}
}

func Test_Service_Scan_RecordFields(t *testing.T) {
	tmpDir := t.TempDir()
	mod := time.Date(2025, 12, 24, 8, 30, 0, 0, time.UTC)
	path := writeSized(t, tmpDir, "Budget.XLSX", 3000, mod)

	docs := NewService(Options{Roots: []string{tmpDir}}).Scan().Documents
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	d := docs[0]
	if d.Path != path {
		t.Errorf("expected path %s, got %s", path, d.Path)
	}
	if d.SizeBytes != 3000 {
		t.Errorf("expected 3000 bytes, got %d", d.SizeBytes)
	}
	if !d.ModTime.Equal(mod) {
		t.Errorf("expected mtime %v, got %v", mod, d.ModTime)
	}
	if d.Kind != "document" || d.Category != "XLS" {
		t.Errorf("expected document/XLS, got %s/%s", d.Kind, d.Category)
	}
	if d.AccessTime.IsZero() {
		t.Error("expected an access time")
	}
}

func Test_Service_Scan_UnreadableEntrySkipped(t *testing.T) {
	tmpDir := t.TempDir()
	writeSized(t, tmpDir, "kept.pdf", 2048, time.Time{})
	if err := os.Symlink(filepath.Join(tmpDir, "missing"), filepath.Join(tmpDir, "ghost.pdf")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	result := NewService(Options{Roots: []string{tmpDir}}).Scan()

	got := names(result.Documents)
	if _, ok := got["kept.pdf"]; !ok || len(got) != 1 {
		t.Errorf("expected only kept.pdf, got %v", got)
	}
	if result.Stats.EntriesSkipped != 1 {
		t.Errorf("expected 1 skipped entry, got %d", result.Stats.EntriesSkipped)
	}
	if result.Stats.RootsScanned != 1 {
		t.Errorf("expected 1 scanned root, got %d", result.Stats.RootsScanned)
	}
}

func Test_Service_Scan_UnreadableRootSkipped(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits are not enforced on windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("root can read any directory")
	}
	locked := filepath.Join(t.TempDir(), "locked")
	readable := t.TempDir()
	os.Mkdir(locked, 0755)
	writeSized(t, locked, "secret.pdf", 2048, time.Time{})
	writeSized(t, readable, "public.pdf", 2048, time.Time{})
	if err := os.Chmod(locked, 0000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	result := NewService(Options{Roots: []string{locked, readable}}).Scan()

	got := names(result.Documents)
	if _, ok := got["public.pdf"]; !ok || len(got) != 1 {
		t.Errorf("expected only public.pdf, got %v", got)
	}
	if result.Stats.RootsSkipped != 1 || result.Stats.RootsScanned != 1 {
		t.Errorf("expected 1 skipped and 1 scanned root, got %+v", result.Stats)
	}
}

func Test_Service_Scan_UsesIgnoreChecker(t *testing.T) {
	tmpDir := t.TempDir()
	writeSized(t, tmpDir, "keep.pdf", 2048, time.Time{})
	writeSized(t, tmpDir, "drop.pdf", 2048, time.Time{})

	svc := NewService(Options{
		Roots:  []string{tmpDir},
		Ignore: stubIgnore{name: "drop.pdf"},
	})
	got := names(svc.Scan().Documents)
	if _, ok := got["drop.pdf"]; ok {
		t.Error("expected drop.pdf to be ignored")
	}
	if _, ok := got["keep.pdf"]; !ok {
		t.Error("expected keep.pdf to be kept")
	}
}

func Test_Service_Scan_CustomAllowList(t *testing.T) {
	tmpDir := t.TempDir()
	writeSized(t, tmpDir, "slides.key", 4096, time.Time{})
	writeSized(t, tmpDir, "report.pdf", 4096, time.Time{})

	svc := NewService(Options{Roots: []string{tmpDir}, DocumentExtensions: []string{".KEY"}})
	got := names(svc.Scan().Documents)
	if _, ok := got["slides.key"]; !ok {
		t.Error("expected custom allow-list to accept .key")
	}
	if _, ok := got["report.pdf"]; ok {
		t.Error("expected pdf to be rejected by the custom allow-list")
	}
}

func Test_Service_Inspect(t *testing.T) {
	tmpDir := t.TempDir()
	path := writeSized(t, tmpDir, "slides.pptx", 4096, time.Time{})
	svc := NewService(Options{Roots: []string{tmpDir}})

	doc, ok := svc.Inspect(path)
	if !ok {
		t.Fatal("expected slides.pptx to be accepted")
	}
	if doc.Extension != "pptx" {
		t.Errorf("expected pptx, got %s", doc.Extension)
	}
	if _, ok := svc.Inspect(filepath.Join(tmpDir, "gone.pdf")); ok {
		t.Error("expected missing file to be rejected")
	}
}

func Test_Service_RequestAccess(t *testing.T) {
	tmpDir := t.TempDir()

	granted := NewService(Options{Roots: []string{filepath.Join(tmpDir, "missing"), tmpDir}})
	if !granted.RequestAccess() {
		t.Error("expected access when one root is readable")
	}

	denied := NewService(Options{Roots: []string{filepath.Join(tmpDir, "missing")}})
	if denied.RequestAccess() {
		t.Error("expected no access when no root is readable")
	}

	custom := NewService(Options{Access: AccessFunc(func() bool { return true })})
	if !custom.RequestAccess() {
		t.Error("expected custom requester to be used")
	}
}

type stubIgnore struct {
	name string
}

func (s stubIgnore) ShouldIgnore(absolutePath string) bool {
	return filepath.Base(absolutePath) == s.name
}

func (s stubIgnore) IsFileTooLarge(int64) bool { return false }
