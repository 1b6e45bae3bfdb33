// Package syncer applies a drift.UpdateStrategy verdict to one overlay
// layer (§4.9/§4.13): reparsing a handful of changed files incrementally,
// reconciling a layer against a new base, or discarding and rebuilding it
// outright. internal/server holds the state this package mutates;
// internal/astcache supplies incremental reparses; internal/drift supplies
// the strategy decision this package only executes.
package syncer

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/standardbeagle/lci/internal/astcache"
	"github.com/standardbeagle/lci/internal/cache"
	"github.com/standardbeagle/lci/internal/drift"
	"github.com/standardbeagle/lci/internal/duplicate"
	"github.com/standardbeagle/lci/internal/extract"
	"github.com/standardbeagle/lci/internal/git"
	"github.com/standardbeagle/lci/internal/idcodec"
	"github.com/standardbeagle/lci/internal/langdispatch"
	"github.com/standardbeagle/lci/internal/overlay"
	"github.com/standardbeagle/lci/internal/risk"
	"github.com/standardbeagle/lci/internal/semtypes"
	"github.com/standardbeagle/lci/internal/server"
)

// LayerUpdateStats reports what one UpdateLayer call actually did, for the
// CLI/watch callers to log (§4.13).
type LayerUpdateStats struct {
	Strategy          string
	FilesProcessed    int
	SymbolsAdded      int
	SymbolsRemoved    int
	SymbolsModified   int
	FullParses        int
	CachedParses      int
	IncrementalParses int
	ParseTimeUs       int64
	DurationMs        int64
}

// RebaseResult reports a Rebase pass's outcome (§4.9): Preserved counts
// entries kept without conflict (Active entries refreshed to Base's state,
// and the layer's own deletions), ConflictsResolved counts Modified entries
// kept in preference to Base, and Discarded counts Active or Modified
// entries whose symbol is missing from, or deleted in, Base.
type RebaseResult struct {
	Preserved         int
	ConflictsResolved int
	Discarded         int
}

// Synchronizer owns the resources one repository's resyncs share: a
// parser registry, an optional on-disk cache directory to mirror updates
// into, an optional ast cache for incremental reparsing, and a git
// provider for rediscovering changed files during a full rebuild.
type Synchronizer struct {
	RepoRoot string
	Registry *extract.Registry
	Cache    *cache.Directory
	Ast      *astcache.AstCache
	Git      *git.Provider
}

// New returns a synchronizer rooted at repoRoot with no cache, ast cache
// or git provider attached yet.
func New(repoRoot string) *Synchronizer {
	return &Synchronizer{RepoRoot: repoRoot, Registry: extract.NewRegistry()}
}

// WithCache attaches a cache directory so updated files are also mirrored
// into symbol_index.jsonl/the call graph shards.
func (s *Synchronizer) WithCache(dir *cache.Directory) *Synchronizer {
	s.Cache = dir
	return s
}

// WithAstCache attaches an ast cache, enabling incremental tree-sitter
// reparses instead of a full parse on every touched file.
func (s *Synchronizer) WithAstCache(ac *astcache.AstCache) *Synchronizer {
	s.Ast = ac
	return s
}

// WithGit attaches a git provider, required for FullRebuildLayer on the
// Branch and Working layers (it rediscovers the changed-file set itself
// rather than trusting a possibly-stale caller-supplied list).
func (s *Synchronizer) WithGit(p *git.Provider) *Synchronizer {
	s.Git = p
	return s
}

// gitAdapter narrows internal/git.Provider down to drift.GitProvider's
// two-method surface. ListAllFiles already matches verbatim; GetChangedFiles
// needs its AnalysisParams-based signature collapsed into the (baseRef,
// headRef) pair drift expects, and its []ChangedFile result flattened to
// plain paths.
type gitAdapter struct {
	provider *git.Provider
}

func (a gitAdapter) GetChangedFiles(ctx context.Context, baseRef, headRef string) ([]string, error) {
	changed, err := a.provider.GetChangedFiles(ctx, git.AnalysisParams{
		Scope:    git.ScopeRange,
		BaseRef:  baseRef,
		TargetRef: headRef,
	})
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(changed))
	for _, c := range changed {
		paths = append(paths, c.Path)
	}
	return paths, nil
}

func (a gitAdapter) ListAllFiles(ctx context.Context) ([]string, error) {
	return a.provider.ListAllFiles(ctx)
}

// UpdateLayer dispatches to the synchronization routine matching strategy
// (§4.9's four verdicts), timing the whole call and marking the layer
// fresh in state on success.
func (s *Synchronizer) UpdateLayer(ctx context.Context, state *server.State, layer overlay.LayerKind, strategy drift.UpdateStrategy, changedFiles []string) (LayerUpdateStats, error) {
	start := time.Now()
	var stats LayerUpdateStats
	var err error

	switch strategy {
	case drift.Fresh:
		stats = LayerUpdateStats{Strategy: strategy.String()}
	case drift.Incremental:
		stats, err = s.IncrementalUpdate(ctx, state, layer, changedFiles)
	case drift.Rebase:
		var result RebaseResult
		result, err = s.RebaseLayer(state, layer)
		stats = LayerUpdateStats{
			Strategy:        strategy.String(),
			SymbolsAdded:    result.Preserved,
			SymbolsModified: result.ConflictsResolved,
			SymbolsRemoved:  result.Discarded,
		}
	case drift.FullRebuild:
		stats, err = s.FullRebuildLayer(ctx, state, layer)
	default:
		stats = LayerUpdateStats{Strategy: strategy.String()}
	}

	stats.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		return stats, err
	}
	state.MarkLayerFresh(layer, time.Now().Unix())
	return stats, nil
}

// IncrementalUpdate reparses each changed file directly and upserts its
// symbols into layer (§4.9 Incremental: "<10 files, reparse them directly").
func (s *Synchronizer) IncrementalUpdate(ctx context.Context, state *server.State, layer overlay.LayerKind, files []string) (LayerUpdateStats, error) {
	stats := LayerUpdateStats{Strategy: drift.Incremental.String()}

	for _, f := range files {
		fstats, err := s.updateSingleFile(ctx, state, layer, f)
		if err != nil {
			return stats, err
		}
		stats.FilesProcessed++
		stats.SymbolsAdded += fstats.added
		stats.SymbolsRemoved += fstats.removed
		stats.SymbolsModified += fstats.modified
		stats.ParseTimeUs += fstats.parseTimeUs
		switch fstats.parseKind {
		case astcache.Full:
			stats.FullParses++
		case astcache.Cached:
			stats.CachedParses++
		case astcache.Incremental:
			stats.IncrementalParses++
		}
	}

	if s.Cache != nil {
		// Best effort: a stale call graph shard doesn't invalidate the
		// symbol-level update this call already committed.
		s.Cache.RegenerateGraphs()
	}

	return stats, nil
}

type fileUpdateStats struct {
	added, removed, modified int
	parseTimeUs               int64
	parseKind                 astcache.ParseResultKind
}

// updateSingleFile reparses one file (via the ast cache when attached,
// falling back to extract.Extract's one-shot parser otherwise), diffs its
// new symbol set against what layer already attributed to the file, and
// commits additions/modifications/deletions atomically under one
// WithIndexWrite call.
func (s *Synchronizer) updateSingleFile(ctx context.Context, state *server.State, layer overlay.LayerKind, relPath string) (fileUpdateStats, error) {
	absPath := filepath.Join(s.RepoRoot, relPath)
	source, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			s.markFileDeleted(state, layer, relPath)
			return fileUpdateStats{}, nil
		}
		return fileUpdateStats{}, err
	}

	summary, parseKind, parseTimeUs, err := s.parse(relPath, source)
	if err != nil {
		return fileUpdateStats{}, err
	}
	if summary == nil {
		// Unsupported extension: nothing to index, but not an error.
		return fileUpdateStats{parseTimeUs: parseTimeUs, parseKind: parseKind}, nil
	}

	fstats := fileUpdateStats{parseTimeUs: parseTimeUs, parseKind: parseKind}
	module := idcodec.NamespaceFromPath(relPath)
	fileRisk := risk.CalculateRisk(summary)
	cognitive := risk.CognitiveComplexity(summary.ControlFlowChanges)
	maxNesting := risk.MaxNesting(summary.ControlFlowChanges)

	newHashes := make([]string, 0, len(summary.Symbols))
	entries := make([]semtypes.SymbolIndexEntry, 0, len(summary.Symbols))

	state.WithIndexWrite(func(idx *overlay.LayeredIndex) {
		existingHashes := make(map[string]bool)
		for _, h := range idx.Layer(layer).SymbolsByFile[relPath] {
			existingHashes[h] = true
		}

		seen := make(map[string]bool, len(summary.Symbols))
		for _, sym := range summary.Symbols {
			id := idcodec.Identity(relPath, sym)
			hash := string(id.Hash)
			sym.Hash = hash
			seen[hash] = true
			newHashes = append(newHashes, hash)

			if existingHashes[hash] {
				idx.Upsert(layer, hash, overlay.ModifiedState(sym))
				fstats.modified++
			} else {
				idx.Upsert(layer, hash, overlay.ActiveState(sym))
				fstats.added++
			}

			entries = append(entries, indexEntry(sym, id, module, relPath, fileRisk, cognitive, maxNesting))
		}
		for hash := range existingHashes {
			if !seen[hash] {
				idx.Upsert(layer, hash, overlay.DeletedState)
				fstats.removed++
			}
		}
		idx.IndexFile(layer, relPath, newHashes)
	})

	s.checkAndEmitDuplicates(relPath, module, summary)

	if s.Cache != nil {
		if err := s.Cache.UpdateSymbolIndexForFile(relPath, entries); err != nil {
			return fstats, err
		}
	}

	return fstats, nil
}

// parse extracts relPath's semantic summary, preferring the ast cache's
// incremental reparse when one is attached and the family has a
// tree-sitter grammar at all.
func (s *Synchronizer) parse(relPath string, source []byte) (*semtypes.SemanticSummary, astcache.ParseResultKind, int64, error) {
	res, err := langdispatch.Dispatch(relPath)
	if err != nil {
		return nil, astcache.Full, 0, nil
	}

	textBased := res.Family == langdispatch.FamilyShell || res.Family == langdispatch.FamilyHcl ||
		res.Family == langdispatch.FamilyGradle || res.Lang == langdispatch.Dockerfile

	if s.Ast == nil || textBased {
		start := time.Now()
		summary, err := extract.Extract(s.Registry, relPath, source)
		if err != nil {
			return nil, astcache.Full, 0, err
		}
		return summary, astcache.Full, time.Since(start).Microseconds(), nil
	}

	start := time.Now()
	tree, parseResult, err := s.Ast.ParseFile(relPath, source, res.Lang)
	if err != nil {
		return nil, astcache.Full, 0, err
	}

	extractor, ok := s.Registry.For(res.Family)
	if !ok {
		summary, err := extract.Extract(s.Registry, relPath, source)
		return summary, parseResult.Kind, time.Since(start).Microseconds(), err
	}

	summary, err := extractor.Extract(relPath, source, tree, res.Lang)
	if err != nil {
		return nil, parseResult.Kind, 0, err
	}
	summary.Language = string(res.Lang)
	summary.File = relPath
	return summary, parseResult.Kind, time.Since(start).Microseconds(), nil
}

func indexEntry(sym semtypes.SymbolInfo, id semtypes.SymbolIdentity, module, file string, riskLevel semtypes.RiskLevel, cognitive, maxNesting int) semtypes.SymbolIndexEntry {
	return semtypes.SymbolIndexEntry{
		Symbol:              sym.Name,
		Hash:                string(id.Hash),
		SemanticHash:        string(id.Hash),
		Kind:                string(sym.Kind),
		Module:              module,
		File:                file,
		Lines:               formatLines(sym.StartLine, sym.EndLine),
		Risk:                string(riskLevel),
		CognitiveComplexity: cognitive,
		MaxNesting:          maxNesting,
		IsEscapeLocal:       sym.IsDefaultExport,
		FrameworkEntryPoint: sym.FrameworkEntryPoint,
		IsExported:          sym.IsExported,
		Decorators:          sym.Decorators,
		Arity:               id.Arity,
		IsAsync:             sym.IsAsync,
		ReturnType:          sym.ReturnType,
		ExtPackage:          sym.ExtPackage,
		BaseClasses:         sym.BaseClasses,
	}
}

func formatLines(start, end int) string {
	if start == 0 && end == 0 {
		return ""
	}
	return strconv.Itoa(start) + "-" + strconv.Itoa(end)
}

// markFileDeleted tombstones every symbol relPath previously contributed
// to layer and clears its file attribution.
func (s *Synchronizer) markFileDeleted(state *server.State, layer overlay.LayerKind, relPath string) {
	state.WithIndexWrite(func(idx *overlay.LayeredIndex) {
		idx.ClearFile(layer, relPath)
	})
	if s.Cache != nil {
		s.Cache.UpdateSymbolIndexForFile(relPath, nil)
	}
}

// checkAndEmitDuplicates runs the §3.5 fingerprint matcher over one file's
// freshly extracted symbols and logs any match. There is no event bus in
// this codebase (DESIGN.md), so "emit" here means a log line a caller can
// scrape or redirect, not a published event.
func (s *Synchronizer) checkAndEmitDuplicates(relPath, module string, summary *semtypes.SemanticSummary) {
	if len(summary.Symbols) < 2 {
		return
	}
	signed := make([]duplicate.Signed, 0, len(summary.Symbols))
	for _, sym := range summary.Symbols {
		hash := string(idcodec.Identity(relPath, sym).Hash)
		ref := duplicate.SymbolRef{Hash: hash, Name: sym.Name, File: relPath, Module: module}
		signed = append(signed, duplicate.Signed{Ref: ref, Sig: duplicate.BuildSignature(sym, hash)})
	}
	matches := duplicate.NewDetector().FindDuplicates(signed)
	for _, m := range matches {
		logDuplicateMatch(m)
	}
}

// logDuplicateMatch is the sole place a found duplicate reaches the
// outside world; swapped out in tests that need to observe calls.
var logDuplicateMatch = func(m duplicate.DuplicateMatch) {
	log.Printf("syncer: duplicate match %s ~ %s (%s, score %.2f)", m.A.Name, m.B.Name, m.Kind, m.Score)
}

// RebaseLayer reconciles layer against the Base layer (§4.9 Rebase):
// symbols the layer itself marked Modified are preserved as the winning
// state (the layer's edits take precedence over a merely-moved base);
// symbols the layer left Active are refreshed to whatever Base now says,
// since the layer never touched them; symbols no longer present in Base
// at all are discarded. There is no stored content hash to diff against
// (DESIGN.md) so the approximation used here is SymbolState.Kind: a layer
// only ever marks a symbol Modified by going through updateSingleFile,
// so Modified is itself evidence of a local edit worth preserving.
func (s *Synchronizer) RebaseLayer(state *server.State, layer overlay.LayerKind) (RebaseResult, error) {
	var result RebaseResult
	state.WithIndexWrite(func(idx *overlay.LayeredIndex) {
		base := idx.Layer(overlay.Base)
		l := idx.Layer(layer)

		for hash, st := range l.Symbols {
			baseState, inBase := base.Symbols[hash]

			switch st.Kind {
			case overlay.StateModified:
				if !inBase || baseState.Kind == overlay.StateDeleted {
					result.Discarded++
					delete(l.Symbols, hash)
					continue
				}
				result.ConflictsResolved++
			case overlay.StateActive:
				if !inBase || baseState.Kind == overlay.StateDeleted {
					result.Discarded++
					delete(l.Symbols, hash)
					continue
				}
				l.Symbols[hash] = baseState
				result.Preserved++
			case overlay.StateDeleted:
				result.Preserved++
			}
		}
	})
	return result, nil
}

// FullRebuildLayer discards layer and recreates it from scratch (§4.9
// FullRebuild). Base has nothing upstream of it to rebuild from, so it is
// simply cleared — a caller orchestrating a cold reindex is expected to
// follow up with a fresh internal/shard.Write-driven load. Branch and
// Working re-derive their changed-file set from git and replay
// IncrementalUpdate over every file currently in the repository. AI is
// pure scratch state with no upstream source of truth, so it is just
// cleared.
func (s *Synchronizer) FullRebuildLayer(ctx context.Context, state *server.State, layer overlay.LayerKind) (LayerUpdateStats, error) {
	stats := LayerUpdateStats{Strategy: drift.FullRebuild.String()}

	switch layer {
	case overlay.Base, overlay.AI:
		state.WithIndexWrite(func(idx *overlay.LayeredIndex) {
			stats.SymbolsRemoved = len(idx.Layer(layer).Symbols)
			idx.ClearLayer(layer)
		})
		return stats, nil
	}

	if s.Git == nil {
		state.WithIndexWrite(func(idx *overlay.LayeredIndex) {
			stats.SymbolsRemoved = len(idx.Layer(layer).Symbols)
			idx.ClearLayer(layer)
		})
		return stats, nil
	}

	state.WithIndexWrite(func(idx *overlay.LayeredIndex) {
		idx.ClearLayer(layer)
	})

	files, err := s.Git.ListAllFiles(ctx)
	if err != nil {
		return stats, err
	}

	sub, err := s.IncrementalUpdate(ctx, state, layer, files)
	if err != nil {
		return stats, err
	}
	sub.Strategy = drift.FullRebuild.String()
	return sub, nil
}

// DriftAdapter wraps a git.Provider as a drift.GitProvider, so the same
// provider instance can back both this package's FullRebuildLayer calls
// and a drift.Detector's Check calls.
func DriftAdapter(p *git.Provider) drift.GitProvider {
	return gitAdapter{provider: p}
}
