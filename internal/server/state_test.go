package server

import (
	"testing"

	"github.com/standardbeagle/lci/internal/overlay"
	"github.com/standardbeagle/lci/internal/semtypes"
)

func TestUpsertAndResolveSymbol(t *testing.T) {
	s := New()
	s.UpsertSymbol(overlay.Base, "h1", overlay.ActiveState(semtypes.SymbolInfo{Name: "Foo"}))

	info, ok := s.ResolveSymbol("h1")
	if !ok || info.Name != "Foo" {
		t.Fatalf("expected Foo, got %+v ok=%v", info, ok)
	}
}

func TestWithIndexWrite_AtomicMultiStep(t *testing.T) {
	s := New()
	s.WithIndexWrite(func(idx *overlay.LayeredIndex) {
		idx.Upsert(overlay.Working, "h1", overlay.ActiveState(semtypes.SymbolInfo{Name: "A"}))
		idx.Upsert(overlay.Working, "h2", overlay.ActiveState(semtypes.SymbolInfo{Name: "B"}))
		idx.IndexFile(overlay.Working, "a.go", []string{"h1", "h2"})
	})

	stats := s.Stats()
	if stats.Counts[overlay.Working] != 2 {
		t.Errorf("expected 2 symbols in Working, got %d", stats.Counts[overlay.Working])
	}

	s.ClearFile(overlay.Working, "a.go")
	stats = s.Stats()
	if stats.Counts[overlay.Working] != 0 {
		t.Errorf("expected ClearFile to evict both symbols, got %d", stats.Counts[overlay.Working])
	}
}

func TestMarkLayerStaleAndFresh(t *testing.T) {
	s := New()
	s.MarkLayerStale(overlay.Branch)
	if !s.LayerStatusOf(overlay.Branch).Stale {
		t.Fatal("expected Branch to be stale")
	}

	s.MarkLayerFresh(overlay.Branch, 12345)
	status := s.LayerStatusOf(overlay.Branch)
	if status.Stale {
		t.Error("expected Branch to be fresh")
	}
	if status.LastSyncUnix != 12345 {
		t.Errorf("expected sync time 12345, got %d", status.LastSyncUnix)
	}
}

func TestCache_NoneAttachedInitially(t *testing.T) {
	s := New()
	if s.Cache() != nil {
		t.Fatal("expected no cache attached initially")
	}
}
