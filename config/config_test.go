package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func Test_Load_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxResults != 50 || cfg.MaxRecent != 20 || cfg.SyncInterval != 300 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.HTTPAddr != "" {
		t.Errorf("expected HTTP API disabled by default, got %q", cfg.HTTPAddr)
	}
	if len(cfg.Roots) != len(DefaultRoots()) {
		t.Errorf("expected default roots, got %v", cfg.Roots)
	}
}

func Test_DefaultRoots_FourWellKnownPlusHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	roots := DefaultRoots()
	if len(roots) != 5 {
		t.Fatalf("expected 5 roots, got %v", roots)
	}
	if roots[4] != home {
		t.Errorf("expected home directory last, got %s", roots[4])
	}
	if filepath.Base(roots[0]) != "Downloads" {
		t.Errorf("expected Downloads first, got %s", roots[0])
	}
}

func Test_Load_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "docshelf.yaml")
	content := "roots:\n  - " + filepath.ToSlash(dir) + "\nsize_floor: -1\nmax_results: 10\nexclude:\n  - \"*.bak\"\nhttp_addr: 127.0.0.1:8765\n"
	os.WriteFile(path, []byte(content), 0644)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.Roots) != 1 || cfg.Roots[0] != dir {
		t.Errorf("expected roots [%s], got %v", dir, cfg.Roots)
	}
	if cfg.SizeFloor != -1 || cfg.MaxResults != 10 || cfg.HTTPAddr != "127.0.0.1:8765" {
		t.Errorf("unexpected values %+v", cfg)
	}
	if len(cfg.Exclude) != 1 || cfg.Exclude[0] != "*.bak" {
		t.Errorf("unexpected exclude %v", cfg.Exclude)
	}
	// Unset keys keep their defaults.
	if cfg.MaxRecent != 20 {
		t.Errorf("expected default max_recent, got %d", cfg.MaxRecent)
	}
}

func Test_Load_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error for a missing config file")
	}
}

func Test_Load_Environment(t *testing.T) {
	t.Setenv("DOCSHELF_MAX_RESULTS", "7")
	t.Setenv("DOCSHELF_HTTP_ADDR", ":9999")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.MaxResults != 7 || cfg.HTTPAddr != ":9999" {
		t.Errorf("expected environment overrides, got %+v", cfg)
	}
}

func Test_Config_ApplyFlags(t *testing.T) {
	dir := t.TempDir()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var roots StringList
	fs.Var(&roots, "root", "")
	fs.Int("max-results", 50, "")
	fs.Int64("size-floor", 0, "")
	fs.String("http-addr", "", "")

	if err := fs.Parse([]string{"-root", dir, "-root", "~", "-size-floor", "2048"}); err != nil {
		t.Fatalf("parse: %v", err)
	}

	cfg := Config{MaxResults: 10, HTTPAddr: ":1"}
	cfg.ApplyFlags(fs)

	home, _ := os.UserHomeDir()
	if len(cfg.Roots) != 2 || cfg.Roots[0] != dir || cfg.Roots[1] != home {
		t.Errorf("unexpected roots %v", cfg.Roots)
	}
	if cfg.SizeFloor != 2048 {
		t.Errorf("expected size floor 2048, got %d", cfg.SizeFloor)
	}
	// Flags that were not set leave the loaded values alone.
	if cfg.MaxResults != 10 || cfg.HTTPAddr != ":1" {
		t.Errorf("expected unset flags to be ignored, got %+v", cfg)
	}
}

func Test_StringList_CommaSeparated(t *testing.T) {
	var list StringList
	list.Set("a, b")
	list.Set("c")
	if got := list.String(); got != "a,b,c" {
		t.Errorf("expected a,b,c, got %s", got)
	}
}

func Test_ExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/Documents", filepath.Join(home, "Documents")},
		{"/tmp/x", "/tmp/x"},
		{"~other/x", "~other/x"},
	}
	for _, tt := range tests {
		if got := ExpandHome(tt.in); got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
