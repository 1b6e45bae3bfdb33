// Package astcache keeps a per-file cache of the most recent source and
// parsed tree for every file the pipeline has touched (§4.8), so a reparse
// after a small edit can reuse tree-sitter's incremental parsing instead of
// starting over. This is what internal/syncer calls on every file it
// resyncs; internal/extract's own per-call parser remains the one-shot path
// used by a cold full index.
package astcache

import (
	"sync"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lci/internal/langdispatch"
)

// CachedFile is one file's last-known source, parsed tree and language, plus
// the time it was last updated (read by EvictOlderThan).
type CachedFile struct {
	Source      []byte
	Tree        *sitter.Tree
	Lang        langdispatch.Lang
	LastUpdated time.Time
}

// ParseResultKind tags which of the three parse outcomes ParseFile produced.
type ParseResultKind int

const (
	// Full means no prior cache entry existed (or the language changed), so
	// a plain from-scratch parse ran.
	Full ParseResultKind = iota
	// Cached means the source was byte-for-byte identical to what was
	// cached; the existing tree was returned untouched.
	Cached
	// Incremental means an edit was computed against the cached tree and
	// tree-sitter reparsed only the affected ranges.
	Incremental
)

// ParseResult describes how ParseFile produced its tree. ChangedRanges and
// Edit are only populated for Incremental.
type ParseResult struct {
	Kind          ParseResultKind
	ChangedRanges []sitter.Range
	Edit          *sitter.InputEdit
}

// IsIncremental reports whether the parse reused a prior tree via an edit.
func (r ParseResult) IsIncremental() bool { return r.Kind == Incremental }

// IsCached reports whether the parse was a no-op because source didn't change.
func (r ParseResult) IsCached() bool { return r.Kind == Cached }

// AstCacheStats summarizes the cache's current footprint.
type AstCacheStats struct {
	FileCount        int
	TotalSourceBytes int
}

// AstCache maps file path to its cached parse state. The zero value is not
// usable; construct with New.
type AstCache struct {
	mu    sync.RWMutex
	files map[string]*CachedFile
}

// New returns an empty cache.
func New() *AstCache {
	return &AstCache{files: make(map[string]*CachedFile)}
}

// Get returns the cached entry for path, if any.
func (c *AstCache) Get(path string) (*CachedFile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.files[path]
	return f, ok
}

// Contains reports whether path has a cached entry.
func (c *AstCache) Contains(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.files[path]
	return ok
}

// ParseFile parses newSource for path, reusing the cached tree when
// possible (§4.8):
//
//   - no cached entry, or the cached entry's language differs: full parse.
//   - cached entry with byte-identical source: return the cached tree as-is.
//   - cached entry with the same language and different source: compute the
//     single-region edit between old and new source, apply it to the cached
//     tree, and reparse incrementally from that edited tree.
//
// The returned tree is owned by the cache; callers must not close it — use
// Remove/Clear/EvictOlderThan to release trees.
func (c *AstCache) ParseFile(path string, newSource []byte, lang langdispatch.Lang) (*sitter.Tree, ParseResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cached, ok := c.files[path]
	if !ok || cached.Lang != lang {
		tree, err := parseFresh(newSource, lang, nil)
		if err != nil {
			return nil, ParseResult{}, err
		}
		if ok && cached.Tree != nil {
			cached.Tree.Close()
		}
		c.files[path] = &CachedFile{Source: newSource, Tree: tree, Lang: lang, LastUpdated: time.Now()}
		return tree, ParseResult{Kind: Full}, nil
	}

	if string(cached.Source) == string(newSource) {
		cached.LastUpdated = time.Now()
		return cached.Tree, ParseResult{Kind: Cached}, nil
	}

	edit := ComputeEdit(cached.Source, newSource)
	cached.Tree.Edit(&edit)

	newTree, err := parseFresh(newSource, lang, cached.Tree)
	if err != nil {
		return nil, ParseResult{}, err
	}

	changedRanges := cached.Tree.ChangedRanges(newTree)
	cached.Tree.Close()

	c.files[path] = &CachedFile{Source: newSource, Tree: newTree, Lang: lang, LastUpdated: time.Now()}
	return newTree, ParseResult{Kind: Incremental, ChangedRanges: changedRanges, Edit: &edit}, nil
}

func parseFresh(source []byte, lang langdispatch.Lang, oldTree *sitter.Tree) (*sitter.Tree, error) {
	parser, ok := langdispatch.NewParser(lang)
	if !ok {
		return nil, &UnparseableLanguageError{Lang: lang}
	}
	defer parser.Close()
	tree := parser.Parse(source, oldTree)
	return tree, nil
}

// UnparseableLanguageError is returned when ParseFile is asked to parse a
// language with no wired tree-sitter grammar.
type UnparseableLanguageError struct {
	Lang langdispatch.Lang
}

func (e *UnparseableLanguageError) Error() string {
	return "astcache: no grammar available for language " + string(e.Lang)
}

// Remove evicts path's cached entry, closing its tree.
func (c *AstCache) Remove(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.files[path]; ok {
		if f.Tree != nil {
			f.Tree.Close()
		}
		delete(c.files, path)
	}
}

// Clear evicts every cached entry, closing every tree.
func (c *AstCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range c.files {
		if f.Tree != nil {
			f.Tree.Close()
		}
	}
	c.files = make(map[string]*CachedFile)
}

// Len reports the number of cached files.
func (c *AstCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.files)
}

// IsEmpty reports whether the cache holds no entries.
func (c *AstCache) IsEmpty() bool {
	return c.Len() == 0
}

// Stats reports the cache's current size.
func (c *AstCache) Stats() AstCacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats := AstCacheStats{FileCount: len(c.files)}
	for _, f := range c.files {
		stats.TotalSourceBytes += len(f.Source)
	}
	return stats
}

// EvictOlderThan removes every entry last updated more than maxAge ago,
// closing their trees. Called periodically by the watcher (§4.14) so a
// long-lived process doesn't keep trees for files nobody has touched.
func (c *AstCache) EvictOlderThan(maxAge time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := time.Now().Add(-maxAge)
	for path, f := range c.files {
		if f.LastUpdated.Before(cutoff) {
			if f.Tree != nil {
				f.Tree.Close()
			}
			delete(c.files, path)
		}
	}
}

// ComputeEdit derives the single-region InputEdit between oldSource and
// newSource by finding the first differing byte and the longest common
// suffix, mirroring the original implementation's compute_edit (§4.8). This
// assumes a single contiguous edit region, which holds for the common case
// of one text-editor change; a source rewritten in multiple disjoint spots
// still produces a valid (if larger than necessary) edit region.
func ComputeEdit(oldSource, newSource []byte) sitter.InputEdit {
	prefix := 0
	minLen := len(oldSource)
	if len(newSource) < minLen {
		minLen = len(newSource)
	}
	for prefix < minLen && oldSource[prefix] == newSource[prefix] {
		prefix++
	}

	oldSuffix := len(oldSource)
	newSuffix := len(newSource)
	for oldSuffix > prefix && newSuffix > prefix && oldSource[oldSuffix-1] == newSource[newSuffix-1] {
		oldSuffix--
		newSuffix--
	}

	startByte := prefix
	oldEndByte := oldSuffix
	newEndByte := newSuffix

	return sitter.InputEdit{
		StartByte:      uint(startByte),
		OldEndByte:     uint(oldEndByte),
		NewEndByte:     uint(newEndByte),
		StartPosition:  byteToPoint(oldSource, startByte),
		OldEndPosition: byteToPoint(oldSource, oldEndByte),
		NewEndPosition: byteToPoint(newSource, newEndByte),
	}
}

// byteToPoint converts a byte offset into source to a tree-sitter Point
// (0-indexed row, 0-indexed column within that row), walking the source once
// and resetting the column on every newline.
func byteToPoint(source []byte, byteOffset int) sitter.Point {
	if byteOffset > len(source) {
		byteOffset = len(source)
	}
	row := uint(0)
	col := uint(0)
	for i := 0; i < byteOffset; i++ {
		if source[i] == '\n' {
			row++
			col = 0
		} else {
			col++
		}
	}
	return sitter.Point{Row: row, Column: col}
}
