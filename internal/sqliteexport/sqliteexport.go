// Package sqliteexport writes a repository's shard set out to a single
// queryable SQLite file (§4.11): one row per symbol, one row per resolved
// call edge, the module-level and import-level rollups, and the
// inheritance graph resolved by name. This is the bulk-analysis escape
// hatch for tooling that wants SQL over the shard set instead of streaming
// symbol_index.jsonl/TOON shards directly.
package sqliteexport

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/standardbeagle/lci/internal/cache"
	"github.com/standardbeagle/lci/internal/errors"
	"github.com/standardbeagle/lci/internal/semtypes"
)

const (
	// DefaultBatchSize is the number of rows flushed per transaction when
	// streaming nodes/edges into the database.
	DefaultBatchSize = 5000
	minBatchSize      = 100
	maxBatchSize      = 50000
)

// Phase names one step of the export pipeline, reported through Progress
// so a long export can drive a progress bar.
type Phase string

const (
	PhaseCreatingSchema       Phase = "creating_schema"
	PhaseInsertingNodes       Phase = "inserting_nodes"
	PhaseInsertingEdges       Phase = "inserting_edges"
	PhaseComputingModuleEdges Phase = "computing_module_edges"
	PhaseInsertingImports     Phase = "inserting_imports"
	PhaseInsertingInheritance Phase = "inserting_inheritance"
	PhaseUpdatingCounts       Phase = "updating_counts"
	PhaseCreatingIndexes      Phase = "creating_indexes"
	PhaseFinalizing           Phase = "finalizing"
)

// Progress is one step's position within its phase.
type Progress struct {
	Phase   Phase
	Current int
	Total   int
}

// ProgressFunc receives Progress updates during Export. A nil func is
// valid and simply means nobody is watching.
type ProgressFunc func(Progress)

func report(fn ProgressFunc, phase Phase, current, total int) {
	if fn != nil {
		fn(Progress{Phase: phase, Current: current, Total: total})
	}
}

// Stats summarizes one completed export.
type Stats struct {
	NodesInserted        int
	EdgesInserted        int
	ModuleEdgesInserted  int
	ImportsInserted      int
	InheritanceInserted  int
	DurationMs           int64
	OutputPath           string
	FileSizeBytes        int64
}

// Exporter writes shard sets to SQLite in configurable batch sizes.
type Exporter struct {
	BatchSize int
}

// New returns an exporter using DefaultBatchSize.
func New() *Exporter {
	return &Exporter{BatchSize: DefaultBatchSize}
}

// WithBatchSize returns an exporter using size, clamped to [100, 50000]
// (matching the original implementation's clamp so a caller can't pick a
// batch size pathologically small or large enough to thrash SQLite).
func WithBatchSize(size int) *Exporter {
	return &Exporter{BatchSize: clampBatchSize(size)}
}

func clampBatchSize(n int) int {
	if n < minBatchSize {
		return minBatchSize
	}
	if n > maxBatchSize {
		return maxBatchSize
	}
	return n
}

// DefaultExportPath is where Export writes when the caller doesn't name
// an explicit output path: call_graph.sqlite at the cache directory root.
func DefaultExportPath(cacheRoot string) string {
	return filepath.Join(cacheRoot, "call_graph.sqlite")
}

// Export runs the full pipeline (§4.11): schema, nodes, edges, module
// edges, imports, inheritance, counts, indexes — indexes are created last
// so bulk insert isn't slowed by maintaining them row by row.
func (e *Exporter) Export(dir *cache.Directory, outputPath string, includeEscapeRefs bool, progress ProgressFunc) (Stats, error) {
	start := time.Now()
	if e.BatchSize == 0 {
		e.BatchSize = DefaultBatchSize
	}
	if outputPath == "" {
		outputPath = DefaultExportPath(dir.Root())
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return Stats{}, errors.NewFileError("mkdir", filepath.Dir(outputPath), err)
	}
	os.Remove(outputPath)

	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return Stats{}, errors.NewFileError("open", outputPath, err)
	}
	defer db.Close()

	report(progress, PhaseCreatingSchema, 0, 0)
	if err := createSchema(db); err != nil {
		return Stats{}, err
	}

	entries, err := dir.LoadAllSymbolEntries()
	if err != nil {
		return Stats{}, err
	}

	report(progress, PhaseInsertingNodes, 0, len(entries))
	nodeModules, nodesInserted, err := e.insertNodes(db, entries, includeEscapeRefs, progress)
	if err != nil {
		return Stats{}, err
	}

	callEdges, err := dir.LoadCallGraph()
	if err != nil {
		callEdges = nil
	}
	report(progress, PhaseInsertingEdges, 0, len(callEdges))
	edgesInserted, moduleEdgeCounts, err := e.insertEdges(db, callEdges, nodeModules, progress)
	if err != nil {
		return Stats{}, err
	}

	report(progress, PhaseComputingModuleEdges, 0, len(moduleEdgeCounts))
	moduleEdgesInserted, err := insertModuleEdges(db, moduleEdgeCounts)
	if err != nil {
		return Stats{}, err
	}

	importEdges, err := dir.LoadImportGraph()
	if err != nil {
		importEdges = nil
	}
	report(progress, PhaseInsertingImports, 0, len(importEdges))
	importsInserted, err := insertImports(db, importEdges)
	if err != nil {
		return Stats{}, err
	}

	report(progress, PhaseInsertingInheritance, 0, 0)
	inheritanceInserted, err := insertInheritance(db)
	if err != nil {
		return Stats{}, err
	}

	report(progress, PhaseUpdatingCounts, 0, 0)
	if err := updateCounts(db); err != nil {
		return Stats{}, err
	}

	report(progress, PhaseCreatingIndexes, 0, 0)
	if err := createIndexes(db); err != nil {
		return Stats{}, err
	}

	report(progress, PhaseFinalizing, 0, 0)

	fi, err := os.Stat(outputPath)
	var size int64
	if err == nil {
		size = fi.Size()
	}

	return Stats{
		NodesInserted:       nodesInserted,
		EdgesInserted:       edgesInserted,
		ModuleEdgesInserted: moduleEdgesInserted,
		ImportsInserted:     importsInserted,
		InheritanceInserted: inheritanceInserted,
		DurationMs:          time.Since(start).Milliseconds(),
		OutputPath:          outputPath,
		FileSizeBytes:       size,
	}, nil
}

func createSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE schema_info (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
		`INSERT INTO schema_info (key, value) VALUES ('version', '1.0')`,
		`INSERT INTO schema_info (key, value) VALUES ('created_at', datetime('now'))`,
		`INSERT INTO schema_info (key, value) VALUES ('generator', 'lci')`,
		`CREATE TABLE nodes (
			hash TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			module TEXT NOT NULL,
			file_path TEXT NOT NULL,
			line_start INTEGER,
			line_end INTEGER,
			risk TEXT NOT NULL DEFAULT 'low',
			complexity INTEGER NOT NULL DEFAULT 0,
			caller_count INTEGER NOT NULL DEFAULT 0,
			callee_count INTEGER NOT NULL DEFAULT 0,
			is_exported INTEGER NOT NULL DEFAULT 0,
			decorators TEXT NOT NULL DEFAULT '',
			framework_entry_point TEXT NOT NULL DEFAULT '',
			arity INTEGER NOT NULL DEFAULT 0,
			is_self_recursive INTEGER NOT NULL DEFAULT 0,
			is_async INTEGER NOT NULL DEFAULT 0,
			return_type TEXT NOT NULL DEFAULT '',
			ext_package TEXT NOT NULL DEFAULT '',
			base_classes TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE edges (
			caller_hash TEXT NOT NULL,
			callee_hash TEXT NOT NULL,
			call_count INTEGER NOT NULL DEFAULT 1,
			edge_kind TEXT NOT NULL DEFAULT 'call',
			PRIMARY KEY (caller_hash, callee_hash, edge_kind)
		)`,
		`CREATE TABLE module_edges (
			caller_module TEXT NOT NULL,
			callee_module TEXT NOT NULL,
			edge_count INTEGER NOT NULL,
			PRIMARY KEY (caller_module, callee_module)
		)`,
		`CREATE TABLE imports (
			importer_module TEXT NOT NULL,
			imported_module TEXT NOT NULL,
			import_count INTEGER NOT NULL DEFAULT 1,
			PRIMARY KEY (importer_module, imported_module)
		)`,
		`CREATE TABLE inheritance (
			child_hash TEXT NOT NULL,
			parent_hash TEXT NOT NULL,
			child_module TEXT NOT NULL,
			parent_module TEXT NOT NULL,
			parent_name TEXT NOT NULL,
			PRIMARY KEY (child_hash, parent_hash)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("sqliteexport: create schema: %w", err)
		}
	}
	return nil
}

// insertNodes streams symbol_index.jsonl entries into the nodes table in
// batched transactions, skipping escape-local entries unless
// includeEscapeRefs is set (§4.11). Returns the hash->module map later
// steps need to resolve caller/callee modules without re-reading the
// table.
func (e *Exporter) insertNodes(db *sql.DB, entries []semtypes.SymbolIndexEntry, includeEscapeRefs bool, progress ProgressFunc) (map[string]string, int, error) {
	nodeModules := make(map[string]string, len(entries))
	inserted := 0

	err := inBatches(e.BatchSize, len(entries), func(start, end int) error {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		stmt, err := tx.Prepare(`INSERT OR REPLACE INTO nodes
			(hash, name, kind, module, file_path, line_start, line_end, risk, complexity,
			 is_exported, decorators, framework_entry_point, arity, is_async, return_type,
			 ext_package, base_classes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			tx.Rollback()
			return err
		}
		defer stmt.Close()

		for _, entry := range entries[start:end] {
			if entry.IsEscapeLocal && !includeEscapeRefs {
				continue
			}
			lineStart, lineEnd := parseLineRange(entry.Lines)
			frameworkEntry := ""
			if entry.FrameworkEntryPoint {
				frameworkEntry = "true"
			}
			_, err := stmt.Exec(
				entry.Hash, entry.Symbol, entry.Kind, entry.Module, entry.File,
				lineStart, lineEnd, entry.Risk, entry.CognitiveComplexity,
				boolToInt(entry.IsExported), strings.Join(entry.Decorators, ","), frameworkEntry,
				entry.Arity, boolToInt(entry.IsAsync), entry.ReturnType,
				entry.ExtPackage, strings.Join(entry.BaseClasses, ","),
			)
			if err != nil {
				tx.Rollback()
				return err
			}
			nodeModules[entry.Hash] = entry.Module
			inserted++
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		report(progress, PhaseInsertingNodes, end, len(entries))
		return nil
	})
	return nodeModules, inserted, err
}

// moduleEdgeKey identifies one caller-module -> callee-module pair for
// the aggregated module_edges rollup.
type moduleEdgeKey struct {
	caller, callee string
}

// insertEdges streams call_graph.toon's resolved edges into the edges
// table, creating synthetic external nodes for "ext:" tokens the first
// time they're seen, and aggregating module-level edge counts as it goes
// (§4.11's insert_edges_streaming).
func (e *Exporter) insertEdges(db *sql.DB, edges []cache.CallGraphEdge, nodeModules map[string]string, progress ProgressFunc) (int, map[moduleEdgeKey]int, error) {
	moduleEdgeCounts := make(map[moduleEdgeKey]int)
	externalSeen := make(map[string]bool)
	inserted := 0

	err := inBatches(e.BatchSize, len(edges), func(start, end int) error {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		upsert, err := tx.Prepare(`INSERT INTO edges (caller_hash, callee_hash, call_count, edge_kind)
			VALUES (?, ?, 1, ?)
			ON CONFLICT(caller_hash, callee_hash, edge_kind) DO UPDATE SET call_count = call_count + 1`)
		if err != nil {
			tx.Rollback()
			return err
		}
		defer upsert.Close()

		extStmt, err := tx.Prepare(`INSERT OR IGNORE INTO nodes (hash, name, kind, module, file_path, ext_package)
			VALUES (?, ?, 'external', '(external)', '', ?)`)
		if err != nil {
			tx.Rollback()
			return err
		}
		defer extStmt.Close()

		callerModule := ""
		for _, e := range edges[start:end] {
			callerModule = nodeModules[e.CallerHash]
			for _, token := range e.Callees {
				calleeHash, edgeKind := decodeCalleeToken(token)

				if pkg, name, ok := externalToken(calleeHash); ok {
					if !externalSeen[calleeHash] {
						extPkg := pkg
						if calleeHash == "ext:"+name {
							extPkg = ""
						}
						if _, err := extStmt.Exec(calleeHash, name, extPkg); err != nil {
							tx.Rollback()
							return err
						}
						externalSeen[calleeHash] = true
						nodeModules[calleeHash] = "(external)"
					}
				}

				if _, err := upsert.Exec(e.CallerHash, calleeHash, edgeKind); err != nil {
					tx.Rollback()
					return err
				}
				inserted++

				if calleeModule, ok := nodeModules[calleeHash]; ok && callerModule != "" {
					key := moduleEdgeKey{caller: callerModule, callee: calleeModule}
					moduleEdgeCounts[key]++
				}
			}
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		report(progress, PhaseInsertingEdges, end, len(edges))
		return nil
	})
	return inserted, moduleEdgeCounts, err
}

// decodeCalleeToken splits the ":await"/":try" edge-kind suffix
// buildCallGraph appends off a callee token, leaving the bare callee
// hash/external token and the edge kind ("call" if no suffix was present).
func decodeCalleeToken(token string) (callee, edgeKind string) {
	switch {
	case strings.HasSuffix(token, ":await"):
		return strings.TrimSuffix(token, ":await"), "await"
	case strings.HasSuffix(token, ":try"):
		return strings.TrimSuffix(token, ":try"), "try"
	default:
		return token, "call"
	}
}

// externalToken reports whether token is an "ext:package:symbol" or
// "ext:symbol" unresolved-callee token, and splits out its package (empty
// for the bare "ext:symbol" form) and symbol name.
func externalToken(token string) (pkg, name string, ok bool) {
	if !strings.HasPrefix(token, "ext:") {
		return "", "", false
	}
	rest := strings.TrimPrefix(token, "ext:")
	if idx := strings.LastIndex(rest, ":"); idx >= 0 {
		return rest[:idx], rest[idx+1:], true
	}
	return "", rest, true
}

func insertModuleEdges(db *sql.DB, counts map[moduleEdgeKey]int) (int, error) {
	if len(counts) == 0 {
		return 0, nil
	}
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO module_edges (caller_module, callee_module, edge_count) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for key, count := range counts {
		if _, err := stmt.Exec(key.caller, key.callee, count); err != nil {
			tx.Rollback()
			return 0, err
		}
		inserted++
	}
	return inserted, tx.Commit()
}

// insertImports streams import_graph.toon's file -> dependency edges into
// the imports table, keyed by each importing file's own path (the
// shard's import graph is file-granular; the original's module_graph.toon
// was module-granular, a divergence recorded in DESIGN.md).
func insertImports(db *sql.DB, edges []cache.CallGraphEdge) (int, error) {
	if len(edges) == 0 {
		return 0, nil
	}
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO imports (importer_module, imported_module, import_count) VALUES (?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	defer stmt.Close()

	inserted := 0
	for _, e := range edges {
		for _, dep := range e.Callees {
			if _, err := stmt.Exec(e.CallerHash, dep, 1); err != nil {
				tx.Rollback()
				return 0, err
			}
			inserted++
		}
	}
	return inserted, tx.Commit()
}

// insertInheritance resolves every node's base_classes column by name
// against the nodes table, inserting a synthetic "unresolved:<name>" hash
// when a parent can't be found locally (§4.11's insert_inheritance).
func insertInheritance(db *sql.DB) (int, error) {
	rows, err := db.Query(`SELECT hash, module, base_classes FROM nodes WHERE base_classes != ''`)
	if err != nil {
		return 0, err
	}
	type childRow struct{ hash, module, bases string }
	var children []childRow
	for rows.Next() {
		var c childRow
		if err := rows.Scan(&c.hash, &c.module, &c.bases); err != nil {
			rows.Close()
			return 0, err
		}
		children = append(children, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if len(children) == 0 {
		return 0, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	resolve, err := tx.Prepare(`SELECT hash, module FROM nodes WHERE name = ? AND kind IN ('class', 'interface', 'trait') LIMIT 1`)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	defer resolve.Close()

	insert, err := tx.Prepare(`INSERT OR IGNORE INTO inheritance (child_hash, parent_hash, child_module, parent_module, parent_name) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	defer insert.Close()

	inserted := 0
	for _, c := range children {
		for _, parentName := range strings.Split(c.bases, ",") {
			parentName = strings.TrimSpace(parentName)
			if parentName == "" {
				continue
			}
			var parentHash, parentModule string
			err := resolve.QueryRow(parentName).Scan(&parentHash, &parentModule)
			if err != nil {
				parentHash = "unresolved:" + parentName
				parentModule = ""
			}
			if _, err := insert.Exec(c.hash, parentHash, c.module, parentModule, parentName); err != nil {
				tx.Rollback()
				return 0, err
			}
			inserted++
		}
	}
	return inserted, tx.Commit()
}

// updateCounts populates caller_count/callee_count from the edges table
// and flags self-recursive symbols, run once after all edges are in
// rather than incrementally during insertEdges (§4.11).
func updateCounts(db *sql.DB) error {
	stmts := []string{
		`UPDATE nodes SET callee_count = (
			SELECT COUNT(*) FROM edges WHERE edges.caller_hash = nodes.hash
		)`,
		`UPDATE nodes SET caller_count = (
			SELECT COUNT(*) FROM edges WHERE edges.callee_hash = nodes.hash
		)`,
		`UPDATE nodes SET is_self_recursive = 1 WHERE hash IN (
			SELECT caller_hash FROM edges WHERE caller_hash = callee_hash
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("sqliteexport: update counts: %w", err)
		}
	}
	return nil
}

// createIndexes creates every secondary index after bulk insert has
// finished, matching the original's ordering rationale: maintaining these
// indexes row-by-row during the insert phases would be far slower than
// building them once over the finished tables.
func createIndexes(db *sql.DB) error {
	stmts := []string{
		`CREATE INDEX idx_nodes_name ON nodes(name)`,
		`CREATE INDEX idx_nodes_module ON nodes(module)`,
		`CREATE INDEX idx_nodes_kind ON nodes(kind)`,
		`CREATE INDEX idx_nodes_risk ON nodes(risk)`,
		`CREATE INDEX idx_nodes_file_path ON nodes(file_path)`,
		`CREATE INDEX idx_nodes_caller_count ON nodes(caller_count DESC)`,
		`CREATE INDEX idx_nodes_callee_count ON nodes(callee_count DESC)`,
		`CREATE INDEX idx_edges_caller ON edges(caller_hash)`,
		`CREATE INDEX idx_edges_callee ON edges(callee_hash)`,
		`CREATE INDEX idx_module_edges_caller ON module_edges(caller_module)`,
		`CREATE INDEX idx_module_edges_callee ON module_edges(callee_module)`,
		`CREATE INDEX idx_module_edges_count ON module_edges(edge_count DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("sqliteexport: create indexes: %w", err)
		}
	}
	return nil
}

// inBatches calls fn once per [start, end) slice of size batchSize over
// [0, total), so callers can commit one transaction per batch instead of
// one transaction per row or one transaction for the whole export.
func inBatches(batchSize, total int, fn func(start, end int) error) error {
	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}
		if err := fn(start, end); err != nil {
			return err
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// parseLineRange parses a symbol_index.jsonl "lines" field ("45-89", a
// bare "45", or "") into nullable start/end line numbers for the nodes
// table (§4.11's parse_line_range).
func parseLineRange(s string) (start, end *int) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.SplitN(s, "-", 2)
	if len(parts) == 1 {
		n, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, nil
		}
		return &n, &n
	}
	s1, err1 := strconv.Atoi(parts[0])
	s2, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return nil, nil
	}
	return &s1, &s2
}
