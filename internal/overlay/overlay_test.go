package overlay

import (
	"testing"

	"github.com/standardbeagle/lci/internal/semtypes"
)

func TestResolve_HighestLayerWins(t *testing.T) {
	idx := New()
	idx.Upsert(Base, "h1", ActiveState(semtypes.SymbolInfo{Name: "Base"}))
	idx.Upsert(Working, "h1", ModifiedState(semtypes.SymbolInfo{Name: "Working"}))

	info, ok := idx.Resolve("h1")
	if !ok || info.Name != "Working" {
		t.Errorf("expected Working layer to win, got %+v ok=%v", info, ok)
	}
}

func TestResolve_DeletedStopsSearch(t *testing.T) {
	idx := New()
	idx.Upsert(Base, "h1", ActiveState(semtypes.SymbolInfo{Name: "Base"}))
	idx.Upsert(Working, "h1", DeletedState)

	_, ok := idx.Resolve("h1")
	if ok {
		t.Error("expected Deleted in Working to mask Base and resolve to not-found")
	}
}

func TestResolve_FallsThroughToLowerLayer(t *testing.T) {
	idx := New()
	idx.Upsert(Base, "h1", ActiveState(semtypes.SymbolInfo{Name: "Base"}))

	info, ok := idx.Resolve("h1")
	if !ok || info.Name != "Base" {
		t.Errorf("expected fallthrough to Base, got %+v ok=%v", info, ok)
	}
}

func TestResolve_MissingEverywhere(t *testing.T) {
	idx := New()
	if _, ok := idx.Resolve("nope"); ok {
		t.Error("expected not-found for unknown hash")
	}
}

func TestClearFile_RemovesAttributedSymbols(t *testing.T) {
	idx := New()
	idx.Upsert(Working, "h1", ActiveState(semtypes.SymbolInfo{Name: "A"}))
	idx.Upsert(Working, "h2", ActiveState(semtypes.SymbolInfo{Name: "B"}))
	idx.IndexFile(Working, "a.go", []string{"h1", "h2"})

	idx.ClearFile(Working, "a.go")

	if _, ok := idx.Resolve("h1"); ok {
		t.Error("expected h1 cleared")
	}
	if _, ok := idx.Resolve("h2"); ok {
		t.Error("expected h2 cleared")
	}
}

func TestClearLayer_EmptiesOnlyThatLayer(t *testing.T) {
	idx := New()
	idx.Upsert(Base, "h1", ActiveState(semtypes.SymbolInfo{Name: "Base"}))
	idx.Upsert(Working, "h1", ActiveState(semtypes.SymbolInfo{Name: "Working"}))

	idx.ClearLayer(Working)

	info, ok := idx.Resolve("h1")
	if !ok || info.Name != "Base" {
		t.Errorf("expected Base to resolve after Working cleared, got %+v ok=%v", info, ok)
	}
}

func TestStats_CountsPerLayer(t *testing.T) {
	idx := New()
	idx.Upsert(Base, "h1", ActiveState(semtypes.SymbolInfo{Name: "A"}))
	idx.Upsert(Base, "h2", ActiveState(semtypes.SymbolInfo{Name: "B"}))
	idx.Upsert(AI, "h3", ActiveState(semtypes.SymbolInfo{Name: "C"}))

	stats := idx.Stats()
	if stats.Counts[Base] != 2 {
		t.Errorf("expected 2 in Base, got %d", stats.Counts[Base])
	}
	if stats.Counts[AI] != 1 {
		t.Errorf("expected 1 in AI, got %d", stats.Counts[AI])
	}
}

func TestLayerKind_String(t *testing.T) {
	cases := map[LayerKind]string{Base: "base", Branch: "branch", Working: "working", AI: "ai"}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("LayerKind(%d).String() = %q, want %q", k, got, want)
		}
	}
}
