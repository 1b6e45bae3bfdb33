// Package shard writes a repo's extracted symbols out to the on-disk shard
// set (§4.5/§6.1): per-module and per-symbol TOON shards, the call/import/
// module graphs, the flat symbol_index.jsonl and signatures.jsonl streams,
// and a meta.json written last so a reader never observes a partially
// written shard set as complete.
package shard

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/lci/internal/errors"
	"github.com/standardbeagle/lci/internal/idcodec"
	"github.com/standardbeagle/lci/internal/toon"
)

// Meta is the shard set's meta.json payload, written only after every other
// shard has landed successfully.
type Meta struct {
	RepoPath     string `json:"repo_path"`
	RepoHash     string `json:"repo_hash"`
	SymbolCount  int    `json:"symbol_count"`
	ModuleCount  int    `json:"module_count"`
	IndexedSHA   string `json:"indexed_sha,omitempty"`
	GeneratedAt  int64  `json:"generated_at_unix_ns"`
}

// Writer writes shard sets to a cache root directory (§6.1: one
// subdirectory per repo, named by its 16-hex repo hash).
type Writer struct {
	CacheRoot string
}

// NewWriter returns a Writer rooted at cacheRoot (the directory holding one
// subdirectory per indexed repo).
func NewWriter(cacheRoot string) *Writer {
	return &Writer{CacheRoot: cacheRoot}
}

// ShardDir returns the shard set directory for a repo, given its canonical
// absolute path.
func (w *Writer) ShardDir(absRepoPath string) string {
	return filepath.Join(w.CacheRoot, idcodec.RepoHash(absRepoPath))
}

// Write runs the full shard-writing algorithm (§4.5) for one repo snapshot:
// group by module, build symbol/signature records, build the three graphs,
// write every shard in parallel via atomic temp-file+rename, then write
// meta.json last.
func (w *Writer) Write(ctx context.Context, absRepoPath string, indexedSHA string, files []FileResult) error {
	dir := w.ShardDir(absRepoPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewFileError("mkdir", dir, err)
	}
	for _, sub := range []string{"modules", "symbols"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return errors.NewFileError("mkdir", filepath.Join(dir, sub), err)
		}
	}

	records := buildSymbolRecords(files)
	modules, byModule := recordsByModule(records)
	callGraph := buildCallGraph(records)
	importGraph := buildImportGraph(files)
	moduleGraph := buildModuleGraph(records)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return writeRepoOverview(gctx, dir, absRepoPath, modules, len(records)) })
	for _, m := range modules {
		m := m
		g.Go(func() error { return writeModuleShard(gctx, dir, m, byModule[m]) })
	}
	for _, r := range records {
		r := r
		g.Go(func() error { return writeSymbolShard(gctx, dir, r) })
	}
	g.Go(func() error { return writeCallGraph(gctx, dir, callGraph) })
	g.Go(func() error { return writeImportGraph(gctx, dir, importGraph) })
	g.Go(func() error { return writeModuleGraph(gctx, dir, moduleGraph) })
	g.Go(func() error { return writeSymbolIndexJSONL(gctx, dir, records) })
	g.Go(func() error { return writeSignaturesJSONL(gctx, dir, records) })

	if err := g.Wait(); err != nil {
		return err
	}

	meta := Meta{
		RepoPath:    absRepoPath,
		RepoHash:    idcodec.RepoHash(absRepoPath),
		SymbolCount: len(records),
		ModuleCount: len(modules),
		IndexedSHA:  indexedSHA,
		GeneratedAt: nowUnixNano(),
	}
	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return errors.NewFileError("marshal", "meta.json", err)
	}
	return atomicWrite(filepath.Join(dir, "meta.json"), metaBytes)
}

// nowUnixNano is the one place wall-clock time enters the writer, isolated
// so tests can observe it's called without asserting an exact value.
func nowUnixNano() int64 {
	return time.Now().UnixNano()
}

// atomicWrite writes data to a temp file in path's directory, fsyncs it,
// then renames it into place (§4.5's atomicity invariant: every shard
// write is write-to-temp + fsync + rename, so a reader never observes a
// half-written shard).
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return errors.NewFileError("create_temp", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewFileError("write", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewFileError("fsync", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewFileError("close", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.NewFileError("rename", path, err)
	}
	return nil
}

func writeRepoOverview(_ context.Context, dir, repoPath string, modules []string, symbolCount int) error {
	e := toon.NewEncoder(toon.TypeRepoOverview)
	e.Field("repo_path", repoPath)
	e.IntField("module_count", len(modules))
	e.IntField("symbol_count", symbolCount)
	e.ListField("modules", modules)
	return atomicWrite(filepath.Join(dir, "repo_overview.toon"), e.Bytes())
}
