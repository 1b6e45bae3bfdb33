// Package overlay implements the four-layer live index (§3.3): Base,
// Branch, Working and AI layers stacked low-to-high, each holding the
// symbols that layer currently knows about. Resolution walks top-down —
// AI, then Working, then Branch, then Base — and the first Active or
// Modified entry wins; a Deleted entry stops the search.
package overlay

import (
	"github.com/standardbeagle/lci/internal/semtypes"
)

// LayerKind identifies one of the four stacked layers, lowest to highest.
type LayerKind int

const (
	Base LayerKind = iota
	Branch
	Working
	AI
)

// String names a layer for logging/diagnostics.
func (k LayerKind) String() string {
	switch k {
	case Base:
		return "base"
	case Branch:
		return "branch"
	case Working:
		return "working"
	case AI:
		return "ai"
	default:
		return "unknown"
	}
}

// layerOrder is the top-down resolution order (§3.3).
var layerOrder = []LayerKind{AI, Working, Branch, Base}

// SymbolStateKind tags which variant a SymbolState holds.
type SymbolStateKind int

const (
	StateActive SymbolStateKind = iota
	StateDeleted
	StateModified
)

// SymbolState is a symbol's status within one layer: present (Active),
// removed in this layer (Deleted, which terminates resolution), or present
// with edits relative to a lower layer (Modified).
type SymbolState struct {
	Kind SymbolStateKind
	Info semtypes.SymbolInfo // populated for Active and Modified
}

// ActiveState wraps info as an Active symbol state.
func ActiveState(info semtypes.SymbolInfo) SymbolState {
	return SymbolState{Kind: StateActive, Info: info}
}

// ModifiedState wraps info as a Modified symbol state.
func ModifiedState(info semtypes.SymbolInfo) SymbolState {
	return SymbolState{Kind: StateModified, Info: info}
}

// DeletedState is the tombstone marker for a symbol removed in a layer.
var DeletedState = SymbolState{Kind: StateDeleted}

// LayerMeta tracks the commit/timestamp bookkeeping drift detection reads
// (§3.3): the SHA this layer was last indexed at, the merge-base SHA it
// diverged from (Branch/Working layers only), and the last-update time.
type LayerMeta struct {
	IndexedSHA   string
	MergeBaseSHA string
	LastUpdateNs int64
}

// Layer is one layer's symbol storage: a flat map plus the inverted
// file->hashes index §3.3 requires for fast per-file invalidation.
type Layer struct {
	Symbols       map[string]SymbolState
	SymbolsByFile map[string][]string // file path -> symbol hashes
	Meta          LayerMeta
}

func newLayer() *Layer {
	return &Layer{
		Symbols:       make(map[string]SymbolState),
		SymbolsByFile: make(map[string][]string),
	}
}

// LayeredIndex holds all four layers. It performs no locking of its own —
// concurrent access is the caller's responsibility (§4.12 pushes locking up
// to the server state facade, with a fixed index->cache->status order).
type LayeredIndex struct {
	layers map[LayerKind]*Layer
}

// New returns an empty four-layer index.
func New() *LayeredIndex {
	idx := &LayeredIndex{layers: make(map[LayerKind]*Layer, 4)}
	for _, k := range layerOrder {
		idx.layers[k] = newLayer()
	}
	return idx
}

// Layer returns the named layer, creating it if this is the first access.
func (idx *LayeredIndex) Layer(kind LayerKind) *Layer {
	l, ok := idx.layers[kind]
	if !ok {
		l = newLayer()
		idx.layers[kind] = l
	}
	return l
}

// Upsert sets hash's state within kind's layer. Per-file attribution (for
// ClearFile) is tracked separately via IndexFile, since SymbolInfo itself
// carries no file field — the caller already knows which file it extracted
// a symbol from.
func (idx *LayeredIndex) Upsert(kind LayerKind, hash string, state SymbolState) {
	idx.Layer(kind).Symbols[hash] = state
}

// IndexFile records which symbol hashes came from a given file, letting
// ClearFile evict them all without scanning every hash.
func (idx *LayeredIndex) IndexFile(kind LayerKind, file string, hashes []string) {
	l := idx.Layer(kind)
	l.SymbolsByFile[file] = hashes
}

// ClearFile removes every symbol a layer had attributed to file, used when
// a file is re-extracted and its old symbol set must not linger.
func (idx *LayeredIndex) ClearFile(kind LayerKind, file string) {
	l := idx.Layer(kind)
	for _, hash := range l.SymbolsByFile[file] {
		delete(l.Symbols, hash)
	}
	delete(l.SymbolsByFile, file)
}

// ClearLayer empties a layer entirely (e.g. Working after a commit lands
// the same changes onto Branch).
func (idx *LayeredIndex) ClearLayer(kind LayerKind) {
	idx.layers[kind] = newLayer()
}

// Resolve walks the layers top-down (AI, Working, Branch, Base) and
// returns the first Active/Modified symbol found for hash, or
// (semtypes.SymbolInfo{}, false) if every layer either lacks the hash or the
// highest layer holding it marks it Deleted.
func (idx *LayeredIndex) Resolve(hash string) (semtypes.SymbolInfo, bool) {
	for _, kind := range layerOrder {
		l := idx.layers[kind]
		state, ok := l.Symbols[hash]
		if !ok {
			continue
		}
		if state.Kind == StateDeleted {
			return semtypes.SymbolInfo{}, false
		}
		return state.Info, true
	}
	return semtypes.SymbolInfo{}, false
}

// LayeredIndexStats summarizes each layer's size for status reporting.
type LayeredIndexStats struct {
	Counts map[LayerKind]int
}

// Stats reports the symbol count of every layer.
func (idx *LayeredIndex) Stats() LayeredIndexStats {
	counts := make(map[LayerKind]int, 4)
	for _, k := range layerOrder {
		counts[k] = len(idx.layers[k].Symbols)
	}
	return LayeredIndexStats{Counts: counts}
}

// SetMeta replaces a layer's metadata wholesale.
func (idx *LayeredIndex) SetMeta(kind LayerKind, meta LayerMeta) {
	idx.Layer(kind).Meta = meta
}

// Meta returns a layer's current metadata.
func (idx *LayeredIndex) Meta(kind LayerKind) LayerMeta {
	return idx.Layer(kind).Meta
}
