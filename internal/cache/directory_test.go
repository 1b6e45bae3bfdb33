package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/standardbeagle/lci/internal/semtypes"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDirectory_LoadAllSymbolEntries(t *testing.T) {
	tmp := t.TempDir()
	repoHashDir := filepath.Join(tmp, "deadbeefcafef00d")
	writeFile(t, filepath.Join(repoHashDir, "symbol_index.jsonl"),
		`{"symbol":"FetchUser","hash":"h1","file":"a.go","lines":"1-10"}`+"\n"+
			`{"symbol":"validate","hash":"h2","file":"a.go","lines":"12-20"}`+"\n")

	d := &Directory{root: repoHashDir, metrics: NewMetricsCache(DefaultCacheConfig())}
	entries, err := d.LoadAllSymbolEntries()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Symbol != "FetchUser" {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
}

func TestDirectory_LoadCallGraph(t *testing.T) {
	tmp := t.TempDir()
	repoHashDir := filepath.Join(tmp, "deadbeefcafef00d")
	writeFile(t, filepath.Join(repoHashDir, "call_graph.toon"),
		"_type: CallGraph\nversion: 0.1.0\nh1: [h2, ext:fmt:Println]\n")

	d := &Directory{root: repoHashDir, metrics: NewMetricsCache(DefaultCacheConfig())}
	edges, err := d.LoadCallGraph()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(edges) != 1 || edges[0].CallerHash != "h1" {
		t.Fatalf("unexpected edges: %+v", edges)
	}
	if len(edges[0].Callees) != 2 || edges[0].Callees[1] != "ext:fmt:Println" {
		t.Errorf("unexpected callees: %v", edges[0].Callees)
	}
}

func TestDirectory_UpdateSymbolIndexForFile_ReplacesOnlyThatFile(t *testing.T) {
	tmp := t.TempDir()
	repoHashDir := filepath.Join(tmp, "deadbeefcafef00d")
	writeFile(t, filepath.Join(repoHashDir, "symbol_index.jsonl"),
		`{"symbol":"Old","hash":"h1","file":"a.go","lines":"1-5"}`+"\n"+
			`{"symbol":"Other","hash":"h2","file":"b.go","lines":"1-5"}`+"\n")

	d := &Directory{root: repoHashDir, metrics: NewMetricsCache(DefaultCacheConfig())}
	err := d.UpdateSymbolIndexForFile("a.go", []semtypes.SymbolIndexEntry{
		{Symbol: "New", Hash: "h3", File: "a.go", Lines: "1-8"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := d.LoadAllSymbolEntries()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries after update, got %d: %+v", len(entries), entries)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Symbol)
	}
	if !contains(names, "New") || !contains(names, "Other") || contains(names, "Old") {
		t.Errorf("expected Old replaced by New, Other kept, got %v", names)
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func TestDirectory_SearchSymbolsWithFallback_UsesIndexFirst(t *testing.T) {
	tmp := t.TempDir()
	repoHashDir := filepath.Join(tmp, "deadbeefcafef00d")
	writeFile(t, filepath.Join(repoHashDir, "symbol_index.jsonl"),
		`{"symbol":"FetchUser","hash":"h1","file":"a.go","lines":"1-10"}`+"\n")

	d := &Directory{root: repoHashDir, metrics: NewMetricsCache(DefaultCacheConfig())}
	results, err := d.SearchSymbolsWithFallback("FetchUser", tmp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Source != "index" {
		t.Fatalf("expected one indexed result, got %+v", results)
	}
}

func TestDirectory_RegenerateGraphs_NeededWhenMissing(t *testing.T) {
	tmp := t.TempDir()
	repoHashDir := filepath.Join(tmp, "deadbeefcafef00d")
	writeFile(t, filepath.Join(repoHashDir, "symbol_index.jsonl"), "")

	d := &Directory{root: repoHashDir, metrics: NewMetricsCache(DefaultCacheConfig())}
	needed, err := d.RegenerateGraphs()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !needed {
		t.Error("expected regeneration needed when call_graph.toon is missing")
	}
}

func TestForRepo_DerivesStableHashDir(t *testing.T) {
	tmp := t.TempDir()
	d1 := ForRepo(tmp, "/repos/project")
	d2 := ForRepo(tmp, "/repos/project")
	if d1.Root() != d2.Root() {
		t.Errorf("expected stable hash directory, got %q vs %q", d1.Root(), d2.Root())
	}
	if !strings.HasPrefix(d1.Root(), tmp) {
		t.Errorf("expected root under cache root, got %q", d1.Root())
	}
}
