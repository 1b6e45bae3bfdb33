package cache

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/lci/internal/errors"
	"github.com/standardbeagle/lci/internal/idcodec"
	"github.com/standardbeagle/lci/internal/semtypes"
)

// Directory is the on-disk "Cache Directory" contract (§4.7): the read/
// update side of the shard set `internal/shard` writes. It holds an
// in-process MetricsCache that keeps SearchSymbolsWithFallback results
// keyed by pattern, so a repeated search within a session does not
// re-read symbol_index.jsonl.
type Directory struct {
	root    string // <cache-root>/<repo-hash>
	metrics *MetricsCache
}

// ForRepo opens the cache directory for a repo's canonical absolute path,
// without requiring the shard set to already exist on disk (callers check
// Exists before reading).
func ForRepo(cacheRoot, absRepoPath string) *Directory {
	return &Directory{
		root:    filepath.Join(cacheRoot, idcodec.RepoHash(absRepoPath)),
		metrics: NewMetricsCache(DefaultCacheConfig()),
	}
}

// Root returns the shard set directory this Directory reads from.
func (d *Directory) Root() string { return d.root }

// Exists reports whether a shard set has ever been written for this repo.
func (d *Directory) Exists() bool {
	_, err := os.Stat(filepath.Join(d.root, "meta.json"))
	return err == nil
}

// LoadAllSymbolEntries reads every record out of symbol_index.jsonl.
func (d *Directory) LoadAllSymbolEntries() ([]semtypes.SymbolIndexEntry, error) {
	path := filepath.Join(d.root, "symbol_index.jsonl")
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewFileError("open", path, err)
	}
	defer f.Close()

	var entries []semtypes.SymbolIndexEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var entry semtypes.SymbolIndexEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return nil, errors.NewFileError("decode", path, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewFileError("scan", path, err)
	}
	return entries, nil
}

// CallGraphEdge is one caller's resolved callee list, as read back from
// call_graph.toon's "<hash>: [<callee>, ...]" line format.
type CallGraphEdge struct {
	CallerHash string
	Callees    []string
}

// LoadCallGraph reads call_graph.toon back into caller/callee edges.
func (d *Directory) LoadCallGraph() ([]CallGraphEdge, error) {
	return loadEdgeShard(filepath.Join(d.root, "call_graph.toon"))
}

func loadEdgeShard(path string) ([]CallGraphEdge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewFileError("open", path, err)
	}
	defer f.Close()

	var edges []CallGraphEdge
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "_type:") || strings.HasPrefix(line, "version:") {
			continue
		}
		idx := strings.Index(line, ": [")
		if idx < 0 || !strings.HasSuffix(line, "]") {
			continue
		}
		caller := line[:idx]
		body := line[idx+3 : len(line)-1]
		var callees []string
		if strings.TrimSpace(body) != "" {
			for _, c := range strings.Split(body, ", ") {
				callees = append(callees, strings.TrimSpace(c))
			}
		}
		edges = append(edges, CallGraphEdge{CallerHash: caller, Callees: callees})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.NewFileError("scan", path, err)
	}
	return edges, nil
}

// LoadImportGraph reads import_graph.toon back into file/dependency edges,
// in the same "<file>: [<dep>, ...]" line shape as the call graph.
func (d *Directory) LoadImportGraph() ([]CallGraphEdge, error) {
	return loadEdgeShard(filepath.Join(d.root, "import_graph.toon"))
}

// UpdateSymbolIndexForFile replaces every symbol_index.jsonl entry whose
// File matches path with the given entries, appended at the end — the
// remove-then-append strategy for incremental single-file updates (§4.7),
// written back atomically via a temp file + rename.
func (d *Directory) UpdateSymbolIndexForFile(path string, entries []semtypes.SymbolIndexEntry) error {
	all, err := d.LoadAllSymbolEntries()
	if err != nil && !os.IsNotExist(unwrapFileErr(err)) {
		return err
	}
	kept := all[:0:0]
	for _, e := range all {
		if e.File != path {
			kept = append(kept, e)
		}
	}
	kept = append(kept, entries...)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range kept {
		if err := enc.Encode(e); err != nil {
			return err
		}
	}

	target := filepath.Join(d.root, "symbol_index.jsonl")
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return errors.NewFileError("mkdir", d.root, err)
	}
	return atomicWriteFile(target, buf.Bytes())
}

func unwrapFileErr(err error) error {
	var fe *errors.FileError
	if e, ok := err.(*errors.FileError); ok {
		fe = e
		return fe.Underlying
	}
	return err
}

func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return errors.NewFileError("create_temp", path, err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return errors.NewFileError("write", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(name)
		return errors.NewFileError("fsync", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return errors.NewFileError("close", path, err)
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return errors.NewFileError("rename", path, err)
	}
	return nil
}

// SearchResult is one symbol match, from either the indexed search or the
// ripgrep fallback.
type SearchResult struct {
	Symbol string
	File   string
	Line   int
	Source string // "index" or "ripgrep"
}

// SearchSymbolsWithFallback searches symbol_index.jsonl for symbols whose
// name matches pattern as a doublestar glob or contains it as a
// case-insensitive substring; if the index has no matches —
// e.g. because it's stale or missing — it falls back to shelling out to
// `rg`, mirroring a search a human would run by hand when the index can't
// answer (§4.7). repoRoot scopes the ripgrep fallback.
func (d *Directory) SearchSymbolsWithFallback(pattern, repoRoot string) ([]SearchResult, error) {
	cacheKey := "search:" + pattern
	if cached := d.metrics.Get([]byte(cacheKey), 0, cacheKey); cached != nil {
		if results, ok := cached.([]SearchResult); ok {
			return results, nil
		}
	}

	var results []SearchResult
	if entries, err := d.LoadAllSymbolEntries(); err == nil {
		for _, e := range entries {
			matched, _ := doublestar.Match(pattern, e.Symbol)
			if !matched {
				matched = strings.Contains(strings.ToLower(e.Symbol), strings.ToLower(pattern))
			}
			if matched {
				line := 0
				fmt.Sscanf(e.Lines, "%d-", &line)
				results = append(results, SearchResult{Symbol: e.Symbol, File: e.File, Line: line, Source: "index"})
			}
		}
	}

	if len(results) == 0 {
		rgResults, err := ripgrepFallback(pattern, repoRoot)
		if err == nil {
			results = rgResults
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Symbol < results[j].Symbol })
	d.metrics.Put([]byte(cacheKey), 0, cacheKey, results)
	return results, nil
}

// ripgrepFallback shells out to `rg` the same way internal/git's provider
// shells out to `git`: os/exec, no shared state, parsed output. Absence of
// `rg` on PATH is not an error here — it just means no fallback results.
func ripgrepFallback(pattern, repoRoot string) ([]SearchResult, error) {
	cmd := exec.Command("rg", "--line-number", "--no-heading", "--fixed-strings", pattern, repoRoot)
	out, err := cmd.Output()
	if err != nil {
		if _, ok := err.(*exec.ExitError); ok && len(out) == 0 {
			return nil, nil
		}
		if _, ok := err.(*exec.Error); ok {
			return nil, nil
		}
	}
	var results []SearchResult
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.SplitN(line, ":", 3)
		if len(parts) < 3 {
			continue
		}
		lineNo := 0
		fmt.Sscanf(parts[1], "%d", &lineNo)
		results = append(results, SearchResult{
			Symbol: pattern,
			File:   parts[0],
			Line:   lineNo,
			Source: "ripgrep",
		})
	}
	return results, nil
}

// RegenerateGraphs rebuilds call_graph.toon/import_graph.toon from the
// current symbol_index.jsonl contents by delegating to the shard writer's
// own graph builders would require symbol-level Call data this flat jsonl
// format doesn't retain, so full graph regeneration is driven by re-running
// extraction+shard.Write over the affected files, not by this package —
// this method only reports whether regeneration is needed.
func (d *Directory) RegenerateGraphs() (needed bool, err error) {
	callGraphPath := filepath.Join(d.root, "call_graph.toon")
	indexPath := filepath.Join(d.root, "symbol_index.jsonl")
	callInfo, callErr := os.Stat(callGraphPath)
	indexInfo, indexErr := os.Stat(indexPath)
	if indexErr != nil {
		return false, errors.NewFileError("stat", indexPath, indexErr)
	}
	if callErr != nil {
		return true, nil
	}
	return indexInfo.ModTime().After(callInfo.ModTime()), nil
}
