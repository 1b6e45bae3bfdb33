package idcodec

import (
	"testing"

	"github.com/standardbeagle/lci/internal/semtypes"
)

func TestComputeHash_Deterministic(t *testing.T) {
	a := ComputeHash("pkg/foo", "Bar", semtypes.SymbolFunction, 2)
	b := ComputeHash("pkg/foo", "Bar", semtypes.SymbolFunction, 2)
	if a != b {
		t.Fatalf("expected deterministic hash, got %s vs %s", a, b)
	}
	if len(a) != 16 {
		t.Fatalf("expected 16-hex-char hash, got %d chars: %s", len(a), a)
	}
}

func TestComputeHash_DiffersOnArity(t *testing.T) {
	a := ComputeHash("pkg/foo", "Bar", semtypes.SymbolFunction, 1)
	b := ComputeHash("pkg/foo", "Bar", semtypes.SymbolFunction, 2)
	if a == b {
		t.Fatalf("expected different hashes for different arity, got %s for both", a)
	}
}

func TestNamespaceFromPath_StripsRoot(t *testing.T) {
	cases := map[string]string{
		"src/foo/bar.go":    "foo/bar",
		"lib/baz.py":        "baz",
		"app/pages/home.tsx": "home",
		"standalone.go":     "standalone",
	}
	for in, want := range cases {
		if got := NamespaceFromPath(in); got != want {
			t.Errorf("NamespaceFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCalleeToken(t *testing.T) {
	if got := CalleeToken("", "foo"); got != "ext:foo" {
		t.Errorf("expected ext:foo, got %s", got)
	}
	if got := CalleeToken("pkg", "foo"); got != "ext:pkg:foo" {
		t.Errorf("expected ext:pkg:foo, got %s", got)
	}
}

func TestSortCalleeTokens_DedupsAndOrders(t *testing.T) {
	in := []string{"ext:z", "ext:a", "ext:z", "ext:m"}
	got := SortCalleeTokens(in)
	want := []string{"ext:a", "ext:m", "ext:z"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("at %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSortCalleeTokens_DoesNotMutateInput(t *testing.T) {
	in := []string{"ext:z", "ext:a"}
	_ = SortCalleeTokens(in)
	if in[0] != "ext:z" || in[1] != "ext:a" {
		t.Errorf("input slice was mutated: %v", in)
	}
}
