// Package server implements the process-wide state facade (§4.12) that
// wraps the four-layer overlay index, the on-disk cache directory and each
// layer's freshness status behind one fixed lock order: index, then cache,
// then status. Every other package that mutates the live index — syncer
// and watch — goes through here rather than touching
// internal/overlay directly, so concurrent resyncs and reads never race.
package server

import (
	"sync"

	"github.com/standardbeagle/lci/internal/cache"
	"github.com/standardbeagle/lci/internal/overlay"
	"github.com/standardbeagle/lci/internal/semtypes"
)

// LayerStatus tracks whether a layer's view of the repository is known to
// be current, and when it was last brought up to date.
type LayerStatus struct {
	Stale        bool
	LastSyncUnix int64
}

// State is the shared, lock-guarded view of one repository's live index.
// The zero value is not usable; construct with New.
type State struct {
	indexMu sync.RWMutex
	index   *overlay.LayeredIndex

	cacheMu sync.RWMutex
	cache   *cache.Directory

	statusMu sync.Mutex
	status   map[overlay.LayerKind]LayerStatus
}

// New returns a facade over a fresh, empty layered index with no cache
// directory attached yet (attach one with SetCache once a repo is known).
func New() *State {
	return &State{
		index:  overlay.New(),
		status: make(map[overlay.LayerKind]LayerStatus),
	}
}

// WithCache returns a facade over a fresh layered index backed by an
// already-opened cache directory.
func WithCache(dir *cache.Directory) *State {
	s := New()
	s.cache = dir
	return s
}

// WithIndexRead runs fn with the index locked for reading, so several
// overlay.LayeredIndex reads see one consistent snapshot. Sequences that
// mutate the index (e.g. syncer's per-file upsert-then-delete) use
// WithIndexWrite instead.
func (s *State) WithIndexRead(fn func(*overlay.LayeredIndex)) {
	s.indexMu.RLock()
	defer s.indexMu.RUnlock()
	fn(s.index)
}

// WithIndexWrite runs fn with the index locked for writing.
func (s *State) WithIndexWrite(fn func(*overlay.LayeredIndex)) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	fn(s.index)
}

// ResolveSymbol resolves a symbol hash through every layer (§3.3).
func (s *State) ResolveSymbol(hash string) (semtypes.SymbolInfo, bool) {
	s.indexMu.RLock()
	defer s.indexMu.RUnlock()
	return s.index.Resolve(hash)
}

// UpsertSymbol sets a symbol's state within one layer.
func (s *State) UpsertSymbol(layer overlay.LayerKind, hash string, state overlay.SymbolState) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	s.index.Upsert(layer, hash, state)
}

// IndexFile records a file's symbol hashes within one layer.
func (s *State) IndexFile(layer overlay.LayerKind, file string, hashes []string) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	s.index.IndexFile(layer, file, hashes)
}

// ClearFile evicts a file's symbols from one layer.
func (s *State) ClearFile(layer overlay.LayerKind, file string) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	s.index.ClearFile(layer, file)
}

// ClearLayer empties a layer entirely.
func (s *State) ClearLayer(layer overlay.LayerKind) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	s.index.ClearLayer(layer)
}

// Stats reports every layer's symbol count.
func (s *State) Stats() overlay.LayeredIndexStats {
	s.indexMu.RLock()
	defer s.indexMu.RUnlock()
	return s.index.Stats()
}

// LayerMeta returns a layer's commit/timestamp bookkeeping.
func (s *State) LayerMeta(layer overlay.LayerKind) overlay.LayerMeta {
	s.indexMu.RLock()
	defer s.indexMu.RUnlock()
	return s.index.Meta(layer)
}

// SetLayerMeta replaces a layer's commit/timestamp bookkeeping.
func (s *State) SetLayerMeta(layer overlay.LayerKind, meta overlay.LayerMeta) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	s.index.SetMeta(layer, meta)
}

// Cache returns the attached cache directory, or nil if none is attached
// (an in-memory-only index, e.g. the AI layer's scratch state).
//
// Lock order: a caller that needs both the index and the cache locked must
// acquire the index lock first — enforced here by Cache/SetCache never
// taking s.indexMu themselves.
func (s *State) Cache() *cache.Directory {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.cache
}

// SetCache attaches or replaces the cache directory backing this state.
func (s *State) SetCache(dir *cache.Directory) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cache = dir
}

// MarkLayerStale flags a layer as needing a resync, e.g. because drift
// detection observed the repo moved past what the layer last indexed.
//
// Lock order: status is always acquired last, after index and cache, so a
// caller already holding either of those locks can safely call this.
func (s *State) MarkLayerStale(layer overlay.LayerKind) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	st := s.status[layer]
	st.Stale = true
	s.status[layer] = st
}

// MarkLayerFresh flags a layer as up to date and stamps the sync time.
func (s *State) MarkLayerFresh(layer overlay.LayerKind, syncUnix int64) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status[layer] = LayerStatus{Stale: false, LastSyncUnix: syncUnix}
}

// LayerStatusOf returns a layer's current freshness status.
func (s *State) LayerStatusOf(layer overlay.LayerKind) LayerStatus {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	return s.status[layer]
}
