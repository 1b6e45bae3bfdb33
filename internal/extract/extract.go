// Package extract walks a parsed file and produces the SemanticSummary
// the rest of the pipeline consumes (§4.2). One Extractor implementation
// exists per language family from internal/langdispatch; Dockerfile is the
// one family extracted from raw text rather than a tree-sitter CST.
package extract

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lci/internal/langdispatch"
	"github.com/standardbeagle/lci/internal/semtypes"
)

// Extractor turns one parsed file into a SemanticSummary.
type Extractor interface {
	// Extract walks tree (nil for text-based families) over source and
	// returns the file's semantic summary. lang is the specific language
	// tag resolved by langdispatch.Dispatch, not just the family.
	Extract(path string, source []byte, tree *sitter.Tree, lang langdispatch.Lang) (*semtypes.SemanticSummary, error)
}

// Registry dispatches a family to its Extractor.
type Registry struct {
	byFamily map[langdispatch.Family]Extractor
}

// NewRegistry builds a registry with every family extractor this package
// implements wired in (§4.2's family list).
func NewRegistry() *Registry {
	r := &Registry{byFamily: make(map[langdispatch.Family]Extractor)}
	r.byFamily[langdispatch.FamilyGo] = goExtractor{}
	r.byFamily[langdispatch.FamilyJavaScript] = jsExtractor{}
	r.byFamily[langdispatch.FamilyPython] = pythonExtractor{}
	r.byFamily[langdispatch.FamilyRust] = rustExtractor{}
	r.byFamily[langdispatch.FamilyJava] = javaExtractor{}
	r.byFamily[langdispatch.FamilyCFamily] = cFamilyExtractor{}
	r.byFamily[langdispatch.FamilyKotlin] = rawFallbackExtractor{insertion: "Kotlin: no grammar available, raw fallback"}
	r.byFamily[langdispatch.FamilyMarkup] = markupExtractor{}
	r.byFamily[langdispatch.FamilyConfig] = configExtractor{}
	r.byFamily[langdispatch.FamilyHcl] = hclExtractor{}
	r.byFamily[langdispatch.FamilyShell] = shellExtractor{}
	r.byFamily[langdispatch.FamilyGradle] = gradleExtractor{}
	return r
}

// For resolves the extractor for a dispatched family. Dockerfile is
// special-cased by its caller (internal/extract's top-level Extract
// function below), since it never produces a family via langdispatch's
// extension table in the usual sense — it is matched on basename.
func (r *Registry) For(family langdispatch.Family) (Extractor, bool) {
	e, ok := r.byFamily[family]
	return e, ok
}

// Extract resolves path to a language/family via langdispatch, parses it
// (unless it's a Dockerfile, which is text-based), and runs the matching
// extractor. This is the entry point the indexing pipeline calls per file.
func Extract(reg *Registry, path string, source []byte) (*semtypes.SemanticSummary, error) {
	res, err := langdispatch.Dispatch(path)
	if err != nil {
		return nil, err
	}

	if res.Lang == langdispatch.Dockerfile {
		return extractDockerfile(path, source)
	}

	// Shell, HCL and Gradle carry no tree-sitter grammar (DESIGN.md), so
	// their extractors work straight off raw text, same as Dockerfile.
	// Route them directly instead of requiring langdispatch.NewParser to
	// succeed, or they'd never get past the generic no-grammar fallback.
	if res.Family == langdispatch.FamilyShell || res.Family == langdispatch.FamilyHcl || res.Family == langdispatch.FamilyGradle {
		extractor, ok := reg.For(res.Family)
		if !ok {
			return fallbackSummary(path, string(res.Lang), source, "no extractor registered, raw fallback"), nil
		}
		summary, err := extractor.Extract(path, source, nil, res.Lang)
		if err != nil {
			return nil, err
		}
		summary.Language = string(res.Lang)
		summary.File = path
		return summary, nil
	}

	parser, ok := langdispatch.NewParser(res.Lang)
	if !ok {
		return fallbackSummary(path, string(res.Lang), source, "no grammar available, raw fallback"), nil
	}
	defer parser.Close()

	tree := parser.Parse(source, nil)
	if tree == nil {
		return fallbackSummary(path, string(res.Lang), source, "parse failed, raw fallback"), nil
	}
	defer tree.Close()

	extractor, ok := reg.For(res.Family)
	if !ok {
		return fallbackSummary(path, string(res.Lang), source, "no extractor registered, raw fallback"), nil
	}

	summary, err := extractor.Extract(path, source, tree, res.Lang)
	if err != nil {
		return nil, err
	}
	summary.Language = string(res.Lang)
	summary.File = path
	return summary, nil
}

func fallbackSummary(path, lang string, source []byte, reason string) *semtypes.SemanticSummary {
	s := &semtypes.SemanticSummary{File: path, Language: lang}
	s.SetRawFallback(string(source))
	s.Insertions = append(s.Insertions, reason)
	return s
}

// rawFallbackExtractor backs families with no grammar (Kotlin, §4.1/§9):
// extraction_complete is always false and the source is truncated into
// raw_fallback.
type rawFallbackExtractor struct {
	insertion string
}

func (e rawFallbackExtractor) Extract(path string, source []byte, _ *sitter.Tree, lang langdispatch.Lang) (*semtypes.SemanticSummary, error) {
	s := fallbackSummary(path, string(lang), source, e.insertion)
	return s, nil
}

// nodeText returns the source slice covered by node.
func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start > uint(len(source)) || end > uint(len(source)) || start > end {
		return ""
	}
	return string(source[start:end])
}

func nodeLocation(node *sitter.Node) semtypes.Location {
	if node == nil {
		return semtypes.Location{}
	}
	pos := node.StartPosition()
	return semtypes.Location{Line: int(pos.Row) + 1, Column: int(pos.Column) + 1}
}

func lineRange(node *sitter.Node) (int, int) {
	if node == nil {
		return 0, 0
	}
	return int(node.StartPosition().Row) + 1, int(node.EndPosition().Row) + 1
}

func childByKind(node *sitter.Node, kind string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

func childrenByKind(node *sitter.Node, kind string) []*sitter.Node {
	if node == nil {
		return nil
	}
	var out []*sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			out = append(out, child)
		}
	}
	return out
}

// walk depth-first traverses node, calling visit on every descendant
// (including node itself). Returning false from visit skips that node's
// children but continues the traversal elsewhere.
func walk(node *sitter.Node, visit func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !visit(node) {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		walk(node.Child(i), visit)
	}
}

// isExportedByCase implements the Go capitalization export rule, reused by
// any family whose visibility is name-based rather than keyword-based.
func isExportedByCase(name string) bool {
	return len(name) > 0 && strings.ToUpper(name[:1]) == name[:1] && strings.ToLower(name[:1]) != name[:1]
}

// appendStateInsertion records a state-hook insertion at the end of the
// summary's insertions. It only appends; §4.2's rule that state-hook
// insertions come after non-state ones holds because jsExtractor prepends
// its JSX insertion after all state-hook insertions are in place.
func appendStateInsertion(s *semtypes.SemanticSummary, insertion string) {
	s.Insertions = append(s.Insertions, insertion)
}
