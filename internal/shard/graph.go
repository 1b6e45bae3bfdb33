package shard

import (
	"sort"
	"strconv"
	"strings"

	"github.com/standardbeagle/lci/internal/duplicate"
	"github.com/standardbeagle/lci/internal/idcodec"
	"github.com/standardbeagle/lci/internal/risk"
	"github.com/standardbeagle/lci/internal/semtypes"
)

// FileResult pairs one source file's path with the semantic summary
// extracted from it (§3.1). This is the shard writer's sole input unit.
type FileResult struct {
	Path    string
	Summary *semtypes.SemanticSummary
}

// symbolRecord is a fully identified symbol ready to be shard-encoded: its
// SymbolInfo, the file/module it came from, and its assigned identity.
type symbolRecord struct {
	file    string
	module  string
	info    semtypes.SymbolInfo
	id      semtypes.SymbolIdentity
	risk    semtypes.RiskLevel
	cognitive int
	cyclomatic int
	maxNesting int
}

// moduleOf derives a symbol's module grouping from its namespace: every
// path segment but the last (§4.5 groups symbols "by module" before
// per-symbol work starts; a module is a namespace's containing directory).
func moduleOf(namespace string) string {
	idx := strings.LastIndex(namespace, "/")
	if idx < 0 {
		return "(root)"
	}
	return namespace[:idx]
}

// buildSymbolRecords assigns identity hashes and risk fields to every
// symbol across every file, and groups them by module (§4.5 step 1-2).
func buildSymbolRecords(files []FileResult) []symbolRecord {
	var records []symbolRecord
	for _, f := range files {
		if f.Summary == nil {
			continue
		}
		fileRiskLevel := risk.CalculateRisk(f.Summary)
		cognitive := risk.CognitiveComplexity(f.Summary.ControlFlowChanges)
		cyclomatic := risk.CyclomaticComplexity(f.Summary.ControlFlowChanges)
		maxNesting := risk.MaxNesting(f.Summary.ControlFlowChanges)

		for _, sym := range f.Summary.Symbols {
			id := idcodec.Identity(f.Path, sym)
			sym.Hash = string(id.Hash)
			records = append(records, symbolRecord{
				file:       f.Path,
				module:     moduleOf(id.Namespace),
				info:       sym,
				id:         id,
				risk:       fileRiskLevel,
				cognitive:  cognitive,
				cyclomatic: cyclomatic,
				maxNesting: maxNesting,
			})
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].module != records[j].module {
			return records[i].module < records[j].module
		}
		if records[i].file != records[j].file {
			return records[i].file < records[j].file
		}
		return records[i].info.Name < records[j].info.Name
	})
	return records
}

// indexEntryOf converts a fully identified symbol into its flat
// symbol_index.jsonl record (§6.2).
func indexEntryOf(r symbolRecord) semtypes.SymbolIndexEntry {
	return semtypes.SymbolIndexEntry{
		Symbol:              r.info.Name,
		Hash:                string(r.id.Hash),
		SemanticHash:        string(r.id.Hash),
		Kind:                string(r.info.Kind),
		Module:              r.module,
		File:                r.file,
		Lines:               formatLines(r.info.StartLine, r.info.EndLine),
		Risk:                string(r.risk),
		CognitiveComplexity: r.cognitive,
		MaxNesting:          r.maxNesting,
		IsEscapeLocal:       r.info.IsDefaultExport,
		FrameworkEntryPoint: r.info.FrameworkEntryPoint,
		IsExported:          r.info.IsExported,
		Decorators:          r.info.Decorators,
		Arity:               r.id.Arity,
		IsAsync:             r.info.IsAsync,
		ReturnType:          r.info.ReturnType,
		ExtPackage:          r.info.ExtPackage,
		BaseClasses:         r.info.BaseClasses,
	}
}

func formatLines(start, end int) string {
	return strconv.Itoa(start) + "-" + strconv.Itoa(end)
}

// signatureOf builds the duplicate-detection fingerprint for a symbol
// (§3.5), sharing identity with the shard's own symbol hash.
func signatureOf(r symbolRecord) semtypes.FunctionSignature {
	return duplicate.BuildSignature(r.info, string(r.id.Hash))
}

// callGraphEdge is one caller's resolved callee list, ready for
// toon.CallGraphEdges (§6.4).
type callGraphEdge struct {
	callerHash string
	callees    []string
}

// buildCallGraph resolves each symbol's call sites to either a local
// symbol's hash (same-file, matched by name) or an "ext:" fallback token
// (§4.3/§4.5 step 3), sorting/deduping each edge list for stable output.
func buildCallGraph(records []symbolRecord) []callGraphEdge {
	byNameInFile := make(map[string]map[string]string) // file -> name -> hash
	for _, r := range records {
		m, ok := byNameInFile[r.file]
		if !ok {
			m = make(map[string]string)
			byNameInFile[r.file] = m
		}
		m[r.info.Name] = string(r.id.Hash)
	}

	var edges []callGraphEdge
	for _, r := range records {
		var callees []string
		local := byNameInFile[r.file]
		for _, c := range r.info.Calls {
			var token string
			if c.Object == "" {
				if hash, ok := local[c.Name]; ok && hash != string(r.id.Hash) {
					token = hash
				} else {
					token = idcodec.CalleeToken("", c.Name)
				}
			} else {
				token = idcodec.CalleeToken(c.Object, c.Name)
			}
			if c.IsAwaited {
				token += ":await"
			}
			if c.InTry {
				token += ":try"
			}
			callees = append(callees, token)
		}
		if len(callees) == 0 {
			continue
		}
		edges = append(edges, callGraphEdge{
			callerHash: string(r.id.Hash),
			callees:    idcodec.SortCalleeTokens(callees),
		})
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].callerHash < edges[j].callerHash })
	return edges
}

// importEdge is one file's set of added dependencies (§4.5 step 4).
type importEdge struct {
	file    string
	imports []string
}

func buildImportGraph(files []FileResult) []importEdge {
	var edges []importEdge
	for _, f := range files {
		if f.Summary == nil || len(f.Summary.AddedDependencies) == 0 {
			continue
		}
		edges = append(edges, importEdge{
			file:    f.Path,
			imports: idcodec.SortCalleeTokens(f.Summary.AddedDependencies),
		})
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].file < edges[j].file })
	return edges
}

// moduleEdge is a module's parent in the directory hierarchy, the module
// graph's sole relationship (§4.5 step 5).
type moduleEdge struct {
	module string
	parent string
}

func buildModuleGraph(records []symbolRecord) []moduleEdge {
	seen := make(map[string]bool)
	var modules []string
	for _, r := range records {
		if !seen[r.module] {
			seen[r.module] = true
			modules = append(modules, r.module)
		}
	}
	sort.Strings(modules)

	var edges []moduleEdge
	for _, m := range modules {
		parent := "(root)"
		if idx := strings.LastIndex(m, "/"); idx >= 0 {
			parent = m[:idx]
		}
		if parent == m {
			parent = "(root)"
		}
		edges = append(edges, moduleEdge{module: m, parent: parent})
	}
	return edges
}

// recordsByModule groups already-sorted records by their module field,
// preserving module order of first appearance.
func recordsByModule(records []symbolRecord) (modules []string, byModule map[string][]symbolRecord) {
	byModule = make(map[string][]symbolRecord)
	for _, r := range records {
		if _, ok := byModule[r.module]; !ok {
			modules = append(modules, r.module)
		}
		byModule[r.module] = append(byModule[r.module], r)
	}
	return modules, byModule
}
