package shard

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/standardbeagle/lci/internal/toon"
)

// sanitizeShardName turns a module/symbol identifier into a filesystem-safe
// shard file stem, matching the module's own path-separator convention
// (module names are slash-joined namespaces; symbol hashes are already hex).
func sanitizeShardName(name string) string {
	if name == "" || name == "(root)" {
		return "_root"
	}
	return strings.ReplaceAll(name, "/", "_")
}

func writeModuleShard(_ context.Context, dir, module string, records []symbolRecord) error {
	e := toon.NewEncoder(toon.TypeModule)
	e.Field("module", module)
	e.IntField("symbol_count", len(records))

	rows := make([]toon.Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, toon.Row{string(r.id.Hash), r.info.Name, string(r.info.Kind), r.file})
	}
	e.Table("symbols", []string{"hash", "name", "kind", "file"}, rows)

	path := filepath.Join(dir, "modules", sanitizeShardName(module)+".toon")
	return atomicWrite(path, e.Bytes())
}

func writeSymbolShard(_ context.Context, dir string, r symbolRecord) error {
	e := toon.NewEncoder(toon.TypeSymbol)
	e.Field("hash", string(r.id.Hash))
	e.Field("name", r.info.Name)
	e.Field("kind", string(r.info.Kind))
	e.Field("module", r.module)
	e.Field("file", r.file)
	e.IntField("start_line", r.info.StartLine)
	e.IntField("end_line", r.info.EndLine)
	e.BoolField("is_exported", r.info.IsExported)
	e.BoolField("is_async", r.info.IsAsync)
	e.Field("risk", string(r.risk))
	e.IntField("cognitive_complexity", r.cognitive)
	e.IntField("cyclomatic_complexity", r.cyclomatic)
	e.IntField("max_nesting", r.maxNesting)
	if len(r.info.BaseClasses) > 0 {
		e.ListField("base_classes", r.info.BaseClasses)
	}
	if len(r.info.Decorators) > 0 {
		e.ListField("decorators", r.info.Decorators)
	}

	var callRows []toon.Row
	for _, c := range r.info.Calls {
		target := c.Name
		if c.Object != "" {
			target = c.Object + "." + c.Name
		}
		callRows = append(callRows, toon.Row{target, boolStr(c.IsAwaited), boolStr(c.InTry)})
	}
	if len(callRows) > 0 {
		e.Table("calls", []string{"target", "await", "in_try"}, callRows)
	}

	path := filepath.Join(dir, "symbols", string(r.id.Hash)+".toon")
	return atomicWrite(path, e.Bytes())
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func writeCallGraph(_ context.Context, dir string, edges []callGraphEdge) error {
	e := toon.NewEncoder(toon.TypeCallGraph)
	for _, edge := range edges {
		e.CallGraphEdges(edge.callerHash, edge.callees)
	}
	return atomicWrite(filepath.Join(dir, "call_graph.toon"), e.Bytes())
}

func writeImportGraph(_ context.Context, dir string, edges []importEdge) error {
	e := toon.NewEncoder(toon.TypeImportGraph)
	for _, edge := range edges {
		e.CallGraphEdges(edge.file, edge.imports)
	}
	return atomicWrite(filepath.Join(dir, "import_graph.toon"), e.Bytes())
}

func writeModuleGraph(_ context.Context, dir string, edges []moduleEdge) error {
	e := toon.NewEncoder(toon.TypeModuleGraph)
	for _, edge := range edges {
		e.CallGraphEdges(edge.module, []string{edge.parent})
	}
	return atomicWrite(filepath.Join(dir, "module_graph.toon"), e.Bytes())
}

func writeSymbolIndexJSONL(_ context.Context, dir string, records []symbolRecord) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range records {
		if err := enc.Encode(indexEntryOf(r)); err != nil {
			return err
		}
	}
	return atomicWrite(filepath.Join(dir, "symbol_index.jsonl"), buf.Bytes())
}

func writeSignaturesJSONL(_ context.Context, dir string, records []symbolRecord) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range records {
		if err := enc.Encode(signatureOf(r)); err != nil {
			return err
		}
	}
	return atomicWrite(filepath.Join(dir, "signatures.jsonl"), buf.Bytes())
}
