package shard

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/standardbeagle/lci/internal/semtypes"
)

func sampleFiles() []FileResult {
	return []FileResult{
		{
			Path: "src/users/service.go",
			Summary: &semtypes.SemanticSummary{
				File:              "src/users/service.go",
				AddedDependencies: []string{"fmt", "errors"},
				Symbols: []semtypes.SymbolInfo{
					{
						Name:       "FetchUser",
						Kind:       semtypes.SymbolFunction,
						StartLine:  1,
						EndLine:    20,
						IsExported: true,
						Arguments:  []semtypes.Argument{{Name: "id"}},
						Calls:      []semtypes.Call{{Object: "db", Name: "query"}, {Name: "validate"}},
					},
					{
						Name:      "validate",
						Kind:      semtypes.SymbolFunction,
						StartLine: 22,
						EndLine:   30,
					},
				},
			},
		},
	}
}

func TestWrite_ProducesAllShards(t *testing.T) {
	tmp := t.TempDir()
	w := NewWriter(tmp)
	repoPath := filepath.Join(tmp, "repo")

	if err := w.Write(context.Background(), repoPath, "abc123", sampleFiles()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	dir := w.ShardDir(repoPath)
	mustExist := []string{
		"repo_overview.toon",
		"call_graph.toon",
		"import_graph.toon",
		"module_graph.toon",
		"symbol_index.jsonl",
		"signatures.jsonl",
		"meta.json",
	}
	for _, name := range mustExist {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected shard %s to exist: %v", name, err)
		}
	}

	modules, err := os.ReadDir(filepath.Join(dir, "modules"))
	if err != nil || len(modules) == 0 {
		t.Errorf("expected at least one module shard, got %v (err %v)", modules, err)
	}

	symbols, err := os.ReadDir(filepath.Join(dir, "symbols"))
	if err != nil || len(symbols) != 2 {
		t.Errorf("expected 2 symbol shards, got %v (err %v)", symbols, err)
	}
}

func TestWrite_SymbolIndexJSONL_HasStableFields(t *testing.T) {
	tmp := t.TempDir()
	w := NewWriter(tmp)
	repoPath := filepath.Join(tmp, "repo")

	if err := w.Write(context.Background(), repoPath, "", sampleFiles()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(w.ShardDir(repoPath), "symbol_index.jsonl"))
	if err != nil {
		t.Fatalf("reading symbol_index.jsonl: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(lines))
	}

	var entry semtypes.SymbolIndexEntry
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if entry.Hash == "" || entry.Symbol == "" || entry.Lines == "" {
		t.Errorf("expected populated entry, got %+v", entry)
	}
}

func TestWrite_CallGraphResolvesLocalCallee(t *testing.T) {
	tmp := t.TempDir()
	w := NewWriter(tmp)
	repoPath := filepath.Join(tmp, "repo")

	if err := w.Write(context.Background(), repoPath, "", sampleFiles()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(w.ShardDir(repoPath), "call_graph.toon"))
	if err != nil {
		t.Fatalf("reading call_graph.toon: %v", err)
	}
	// FetchUser calls validate(), a local symbol, and db.query(), external.
	if !strings.Contains(string(data), "ext:db:query") {
		t.Errorf("expected external call token in call graph, got %q", data)
	}
	if strings.Contains(string(data), "ext:validate") {
		t.Errorf("expected validate() to resolve to its local hash, got %q", data)
	}
}

func TestWrite_IsIdempotentOnRewrite(t *testing.T) {
	tmp := t.TempDir()
	w := NewWriter(tmp)
	repoPath := filepath.Join(tmp, "repo")

	if err := w.Write(context.Background(), repoPath, "", sampleFiles()); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := w.Write(context.Background(), repoPath, "", sampleFiles()); err != nil {
		t.Fatalf("second write failed: %v", err)
	}
}

func TestModuleOf(t *testing.T) {
	if got := moduleOf("users/service"); got != "users" {
		t.Errorf("expected 'users', got %q", got)
	}
	if got := moduleOf("main"); got != "(root)" {
		t.Errorf("expected '(root)' for top-level namespace, got %q", got)
	}
}
