package duplicate

import (
	"testing"

	"github.com/standardbeagle/lci/internal/semtypes"
)

func TestTokenizeCamelSnake(t *testing.T) {
	got := tokenizeCamelSnake("handleUserLogin")
	want := []string{"handle", "user", "login"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %q, want %q", i, got[i], want[i])
		}
	}

	got = tokenizeCamelSnake("fetch_user_data")
	want = []string{"fetch", "user", "data"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestIsUtilityCall(t *testing.T) {
	if !isUtilityCall("log") || !isUtilityCall("unwrap") {
		t.Error("expected known utility calls to be filtered")
	}
	if isUtilityCall("fetchUser") {
		t.Error("business call incorrectly treated as utility")
	}
}

func TestBuildSignature_FiltersUtilityCalls(t *testing.T) {
	info := semtypes.SymbolInfo{
		Name:      "fetchUserData",
		StartLine: 1,
		EndLine:   10,
		Arguments: []semtypes.Argument{{Name: "id"}},
		Calls: []semtypes.Call{
			{Name: "log"},
			{Object: "db", Name: "query"},
		},
	}
	sig := BuildSignature(info, "deadbeef")
	if len(sig.BusinessCalls) != 1 || sig.BusinessCalls[0] != "db.query" {
		t.Errorf("expected only db.query retained, got %v", sig.BusinessCalls)
	}
	if sig.ParamCount != 1 {
		t.Errorf("expected param count 1, got %d", sig.ParamCount)
	}
	if sig.LineCount != 10 {
		t.Errorf("expected line count 10, got %d", sig.LineCount)
	}
}

func makeSigned(hash, name string, calls []string, params int) Signed {
	return Signed{
		Ref: SymbolRef{Hash: hash, Name: name},
		Sig: semtypes.FunctionSignature{
			Hash:            hash,
			NameTokens:      tokenizeCamelSnake(name),
			BusinessCalls:   calls,
			ParamCount:      params,
			CallFingerprint: fingerprintOf(calls),
		},
	}
}

func fingerprintOf(calls []string) uint64 {
	var h uint64 = 0xcbf29ce484222325
	for _, c := range calls {
		for i := 0; i < len(c); i++ {
			h ^= uint64(c[i])
			h *= 0x100000001b3
		}
	}
	return h
}

func TestFindDuplicates_IdenticalCallSetsScoreNearOrBetter(t *testing.T) {
	calls := []string{"db.query", "cache.get"}
	a := makeSigned("h1", "fetchUser", calls, 2)
	b := makeSigned("h2", "getUser", calls, 2)

	d := NewDetector()
	matches := d.FindDuplicates([]Signed{a, b})
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Score < nearThreshold {
		t.Errorf("expected near-or-better score for identical call sets, got %f", matches[0].Score)
	}
}

func TestFindDuplicates_CoarseFilterExcludesDissimilarParamCounts(t *testing.T) {
	a := makeSigned("h1", "fetchUser", []string{"db.query"}, 1)
	b := makeSigned("h2", "renderPage", []string{"db.query"}, 5)

	d := NewDetector()
	matches := d.FindDuplicates([]Signed{a, b})
	if len(matches) != 0 {
		t.Errorf("expected param-count coarse filter to exclude pair, got %v", matches)
	}
}

func TestFindDuplicates_SelfExcluded(t *testing.T) {
	a := makeSigned("h1", "fetchUser", []string{"db.query"}, 1)
	d := NewDetector()
	matches := d.FindDuplicates([]Signed{a, a})
	if len(matches) != 0 {
		t.Errorf("expected identical-hash pair to be self-excluded, got %v", matches)
	}
}

func TestFindAllClusters_GroupsTransitiveMatches(t *testing.T) {
	calls := []string{"db.query", "cache.get"}
	a := makeSigned("h1", "fetchUser", calls, 2)
	b := makeSigned("h2", "getUser", calls, 2)
	c := makeSigned("h3", "loadUser", calls, 2)

	d := NewDetector()
	clusters := d.FindAllClusters([]Signed{a, b, c})
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	if len(clusters[0].Members) != 3 {
		t.Errorf("expected 3 members in cluster, got %d", len(clusters[0].Members))
	}
}

func TestJaccardSimilarity(t *testing.T) {
	if s := jaccardSimilarity([]string{"a", "b"}, []string{"a", "b"}); s != 1 {
		t.Errorf("expected identical sets to score 1, got %f", s)
	}
	if s := jaccardSimilarity([]string{"a"}, []string{"b"}); s != 0 {
		t.Errorf("expected disjoint sets to score 0, got %f", s)
	}
}

func TestDuplicateCluster_Summary(t *testing.T) {
	c := DuplicateCluster{
		Members: []SymbolRef{{Name: "fetchUser"}, {Name: "getUser"}},
		Kind:    KindNear,
		Score:   0.92,
	}
	if got := c.Summary(); got == "" {
		t.Error("expected non-empty summary")
	}
}
