package syncer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/standardbeagle/lci/internal/drift"
	"github.com/standardbeagle/lci/internal/overlay"
	"github.com/standardbeagle/lci/internal/semtypes"
	"github.com/standardbeagle/lci/internal/server"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestIncrementalUpdate_AddsSymbols(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pkg/a.go", "package pkg\n\nfunc Foo() {}\n\nfunc Bar() {}\n")

	s := New(root)
	st := server.New()

	stats, err := s.IncrementalUpdate(context.Background(), st, overlay.Working, []string{"pkg/a.go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.FilesProcessed != 1 {
		t.Errorf("expected 1 file processed, got %d", stats.FilesProcessed)
	}
	if stats.SymbolsAdded != 2 {
		t.Errorf("expected 2 symbols added, got %d", stats.SymbolsAdded)
	}

	indexStats := st.Stats()
	if indexStats.Counts[overlay.Working] != 2 {
		t.Errorf("expected 2 symbols in Working layer, got %d", indexStats.Counts[overlay.Working])
	}
}

func TestIncrementalUpdate_ReparseMarksModified(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pkg/a.go", "package pkg\n\nfunc Foo() {}\n")

	s := New(root)
	st := server.New()

	if _, err := s.IncrementalUpdate(context.Background(), st, overlay.Working, []string{"pkg/a.go"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	writeFile(t, root, "pkg/a.go", "package pkg\n\nfunc Foo() {\n\tbar()\n}\n")
	stats, err := s.IncrementalUpdate(context.Background(), st, overlay.Working, []string{"pkg/a.go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.SymbolsModified != 1 {
		t.Errorf("expected 1 symbol modified, got %d (added=%d)", stats.SymbolsModified, stats.SymbolsAdded)
	}
}

func TestIncrementalUpdate_DeletedFileClearsSymbols(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "pkg/a.go", "package pkg\n\nfunc Foo() {}\n")

	s := New(root)
	st := server.New()
	if _, err := s.IncrementalUpdate(context.Background(), st, overlay.Working, []string{"pkg/a.go"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := os.Remove(filepath.Join(root, "pkg/a.go")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.IncrementalUpdate(context.Background(), st, overlay.Working, []string{"pkg/a.go"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats := st.Stats()
	if stats.Counts[overlay.Working] != 0 {
		t.Errorf("expected 0 active symbols after deletion, got %d", stats.Counts[overlay.Working])
	}
}

func TestUpdateLayer_FreshIsNoOp(t *testing.T) {
	s := New(t.TempDir())
	st := server.New()

	stats, err := s.UpdateLayer(context.Background(), st, overlay.Branch, drift.Fresh, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.FilesProcessed != 0 {
		t.Errorf("expected no files processed for Fresh, got %d", stats.FilesProcessed)
	}
	if st.LayerStatusOf(overlay.Branch).Stale {
		t.Error("expected layer marked fresh after UpdateLayer")
	}
}

func TestFullRebuildLayer_ClearsAILayer(t *testing.T) {
	s := New(t.TempDir())
	st := server.New()
	st.UpsertSymbol(overlay.AI, "h1", overlay.ActiveState(semtypes.SymbolInfo{Name: "Scratch"}))

	stats, err := s.FullRebuildLayer(context.Background(), st, overlay.AI)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.SymbolsRemoved != 1 {
		t.Errorf("expected 1 symbol removed, got %d", stats.SymbolsRemoved)
	}
	if st.Stats().Counts[overlay.AI] != 0 {
		t.Error("expected AI layer cleared")
	}
}

func TestRebaseLayer_PreservesModifiedOverActive(t *testing.T) {
	st := server.New()
	st.UpsertSymbol(overlay.Base, "modified-hash", overlay.ActiveState(semtypes.SymbolInfo{Name: "Base version"}))
	st.UpsertSymbol(overlay.Branch, "modified-hash", overlay.ModifiedState(semtypes.SymbolInfo{Name: "Edited version"}))

	st.UpsertSymbol(overlay.Base, "active-hash", overlay.ActiveState(semtypes.SymbolInfo{Name: "Base stays"}))
	st.UpsertSymbol(overlay.Branch, "active-hash", overlay.ActiveState(semtypes.SymbolInfo{Name: "Base stays"}))

	st.UpsertSymbol(overlay.Branch, "orphan-hash", overlay.ActiveState(semtypes.SymbolInfo{Name: "No longer in base"}))

	s := New(t.TempDir())
	result, err := s.RebaseLayer(st, overlay.Branch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ConflictsResolved != 1 {
		t.Errorf("expected 1 conflict resolved (modified preserved), got %d", result.ConflictsResolved)
	}
	if result.Discarded != 1 {
		t.Errorf("expected 1 discarded orphan, got %d", result.Discarded)
	}

	info, ok := st.ResolveSymbol("modified-hash")
	if !ok || info.Name != "Edited version" {
		t.Errorf("expected modified edit to survive rebase, got %+v ok=%v", info, ok)
	}
}

