package duplicate

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/lci/internal/semtypes"
)

// SymbolRef identifies the symbol a FunctionSignature was built from, so
// matches and clusters can be reported back in terms a caller recognizes.
type SymbolRef struct {
	Hash   string
	Name   string
	File   string
	Module string
}

// DuplicateKind classifies how closely two signatures match (§3.5).
type DuplicateKind string

const (
	KindExact     DuplicateKind = "exact"
	KindNear      DuplicateKind = "near"
	KindDivergent DuplicateKind = "divergent"
)

const (
	exactThreshold     = 0.98
	nearThreshold      = 0.90
	divergentThreshold = 0.80
)

func classify(score float64) (DuplicateKind, bool) {
	switch {
	case score >= exactThreshold:
		return KindExact, true
	case score >= nearThreshold:
		return KindNear, true
	case score >= divergentThreshold:
		return KindDivergent, true
	default:
		return "", false
	}
}

// Difference records one axis along which two matched symbols differ, so a
// report can explain a Near/Divergent match instead of just scoring it.
type Difference struct {
	Aspect string
	A      string
	B      string
}

// DuplicateMatch is one pair of symbols found similar enough to report.
type DuplicateMatch struct {
	A           SymbolRef
	B           SymbolRef
	Score       float64
	Kind        DuplicateKind
	Differences []Difference
}

// DuplicateCluster groups several mutually-similar symbols together.
type DuplicateCluster struct {
	Members []SymbolRef
	Kind    DuplicateKind
	Score   float64 // lowest pairwise score among the cluster's members
}

// Summary produces a short human-readable description of the cluster.
func (c DuplicateCluster) Summary() string {
	if len(c.Members) == 0 {
		return "empty cluster"
	}
	return fmt.Sprintf("%d %s duplicates of %s (lowest pairwise score %.2f)",
		len(c.Members), c.Kind, c.Members[0].Name, c.Score)
}

// Signed is a signature paired with the symbol it was derived from. The
// BoilerplateCategory field is optional (no classifier is built here); an
// empty category never excludes a pair from matching.
type Signed struct {
	Ref SymbolRef
	Sig semtypes.FunctionSignature
}

// Detector mirrors the original's DuplicateDetector configuration: a
// similarity threshold for Near/Exact matches, a lower threshold for
// Divergent, and whether boilerplate-tagged symbols are excluded outright.
type Detector struct {
	Threshold          float64
	DivergentThreshold float64
	ExcludeBoilerplate bool
}

// NewDetector returns a detector configured with the original's defaults.
func NewDetector() Detector {
	return Detector{
		Threshold:          nearThreshold,
		DivergentThreshold: divergentThreshold,
		ExcludeBoilerplate: true,
	}
}

// coarseFilter reports whether a,b are even worth the fine similarity
// computation, applying the original's cheap exclusion rules before the
// more expensive Jaccard/fingerprint math (grounded on duplicate/mod.rs's
// coarse_filter).
func (d Detector) coarseFilter(a, b Signed) bool {
	if a.Ref.Hash == b.Ref.Hash {
		return false
	}
	if d.ExcludeBoilerplate {
		if a.Sig.BoilerplateCategory != "" && a.Sig.BoilerplateCategory == b.Sig.BoilerplateCategory {
			return false
		}
	}
	if len(a.Sig.BusinessCalls) == 0 && len(b.Sig.BusinessCalls) == 0 {
		return false
	}
	if abs(a.Sig.ParamCount-b.Sig.ParamCount) > 2 {
		return false
	}
	if abs(len(a.Sig.BusinessCalls)-len(b.Sig.BusinessCalls)) > 3 {
		return false
	}
	if hammingDistance(a.Sig.CallFingerprint, b.Sig.CallFingerprint) > 12 {
		return false
	}
	return true
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func hammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// fingerprintSimilarity turns a Hamming distance over 64 bits into a
// 0..1 similarity score, consistent with the bit-similarity the coarse
// filter's Hamming check already implies.
func fingerprintSimilarity(a, b uint64) float64 {
	return 1 - float64(hammingDistance(a, b))/64
}

// jaccardSimilarity is the standard |A∩B| / |A∪B| over two string sets.
func jaccardSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	setA := make(map[string]bool, len(a))
	for _, s := range a {
		setA[s] = true
	}
	setB := make(map[string]bool, len(b))
	for _, s := range b {
		setB[s] = true
	}
	inter := 0
	for s := range setA {
		if setB[s] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 1
	}
	return float64(inter) / float64(union)
}

// computeSimilarity is the weighted blend from §3.5: 45% call overlap, 20%
// name-token overlap, 20% control-flow fingerprint closeness, 15% state
// fingerprint closeness.
func computeSimilarity(a, b semtypes.FunctionSignature) float64 {
	callSim := jaccardSimilarity(a.BusinessCalls, b.BusinessCalls)
	nameSim := nameSimilarity(a.NameTokens, b.NameTokens)
	controlSim := fingerprintSimilarity(a.ControlFlowFingerprint, b.ControlFlowFingerprint)
	stateSim := fingerprintSimilarity(a.StateFingerprint, b.StateFingerprint)
	return callSim*0.45 + nameSim*0.20 + controlSim*0.20 + stateSim*0.15
}

// nameSimilarity blends token-set overlap with a Jaro-Winkler edit-distance
// score over the joined tokens, so a renamed-but-barely-changed function
// (getUserById vs getUserByID) still scores close to an exact token match
// rather than being scored purely on set membership.
func nameSimilarity(a, b []string) float64 {
	jaccard := jaccardSimilarity(a, b)
	if len(a) == 0 || len(b) == 0 {
		return jaccard
	}
	edit, err := edlib.StringsSimilarity(strings.Join(a, ""), strings.Join(b, ""), edlib.JaroWinkler)
	if err != nil {
		return jaccard
	}
	return jaccard*0.6 + float64(edit)*0.4
}

func computeDifferences(a, b semtypes.FunctionSignature) []Difference {
	var diffs []Difference
	if a.ParamCount != b.ParamCount {
		diffs = append(diffs, Difference{Aspect: "param_count", A: fmt.Sprint(a.ParamCount), B: fmt.Sprint(b.ParamCount)})
	}
	if a.LineCount != b.LineCount {
		diffs = append(diffs, Difference{Aspect: "line_count", A: fmt.Sprint(a.LineCount), B: fmt.Sprint(b.LineCount)})
	}
	missingFromB := setDiff(a.BusinessCalls, b.BusinessCalls)
	missingFromA := setDiff(b.BusinessCalls, a.BusinessCalls)
	if len(missingFromB) > 0 || len(missingFromA) > 0 {
		diffs = append(diffs, Difference{
			Aspect: "business_calls",
			A:      fmt.Sprint(missingFromB),
			B:      fmt.Sprint(missingFromA),
		})
	}
	return diffs
}

func setDiff(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, s := range b {
		inB[s] = true
	}
	var out []string
	for _, s := range a {
		if !inB[s] {
			out = append(out, s)
		}
	}
	return out
}

// FindDuplicates runs the coarse filter then fine similarity over every
// pair in signed, returning matches at or above d.DivergentThreshold.
func (d Detector) FindDuplicates(signed []Signed) []DuplicateMatch {
	var matches []DuplicateMatch
	for i := 0; i < len(signed); i++ {
		for j := i + 1; j < len(signed); j++ {
			a, b := signed[i], signed[j]
			if !d.coarseFilter(a, b) {
				continue
			}
			score := computeSimilarity(a.Sig, b.Sig)
			if score < d.DivergentThreshold {
				continue
			}
			kind, ok := classify(score)
			if !ok {
				continue
			}
			matches = append(matches, DuplicateMatch{
				A:           a.Ref,
				B:           b.Ref,
				Score:       score,
				Kind:        kind,
				Differences: computeDifferences(a.Sig, b.Sig),
			})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	return matches
}

// FindAllClusters unions matched pairs into connected components, then
// reports the weakest (lowest-score) pairwise match as the cluster's Kind
// and Score — a cluster is only as strong as its loosest member.
func (d Detector) FindAllClusters(signed []Signed) []DuplicateCluster {
	matches := d.FindDuplicates(signed)
	if len(matches) == 0 {
		return nil
	}

	parent := make(map[string]string)
	find := func(x string) string {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(x, y string) {
		rx, ry := find(x), find(y)
		if rx != ry {
			parent[rx] = ry
		}
	}
	ensure := func(x string) {
		if _, ok := parent[x]; !ok {
			parent[x] = x
		}
	}

	refByHash := make(map[string]SymbolRef)
	lowestByRoot := make(map[string]float64)
	for _, m := range matches {
		ensure(m.A.Hash)
		ensure(m.B.Hash)
		refByHash[m.A.Hash] = m.A
		refByHash[m.B.Hash] = m.B
		union(m.A.Hash, m.B.Hash)
	}
	for _, m := range matches {
		root := find(m.A.Hash)
		if cur, ok := lowestByRoot[root]; !ok || m.Score < cur {
			lowestByRoot[root] = m.Score
		}
	}

	groups := make(map[string][]SymbolRef)
	for hash := range parent {
		root := find(hash)
		groups[root] = append(groups[root], refByHash[hash])
	}

	var clusters []DuplicateCluster
	for root, members := range groups {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i].Hash < members[j].Hash })
		score := lowestByRoot[root]
		kind, _ := classify(score)
		clusters = append(clusters, DuplicateCluster{Members: members, Kind: kind, Score: score})
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Score > clusters[j].Score })
	return clusters
}
