package extract

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lci/internal/langdispatch"
	"github.com/standardbeagle/lci/internal/semtypes"
)

type javaExtractor struct{}

func (javaExtractor) Extract(path string, source []byte, tree *sitter.Tree, _ langdispatch.Lang) (*semtypes.SemanticSummary, error) {
	root := tree.RootNode()
	summary := &semtypes.SemanticSummary{ExtractionComplete: true}
	summary.AddedDependencies = javaImports(root, source)

	var symbols []semtypes.SymbolInfo
	walk(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "class_declaration", "interface_declaration", "enum_declaration":
			symbols = append(symbols, javaType(n, source))
		case "method_declaration", "constructor_declaration":
			symbols = append(symbols, javaMethod(n, source))
		}
		return true
	})
	summary.Symbols = symbols

	for _, s := range symbols {
		summary.ControlFlowChanges = append(summary.ControlFlowChanges, s.ControlFlow...)
		summary.Calls = append(summary.Calls, s.Calls...)
		if s.IsExported {
			summary.PublicSurfaceChanged = true
		}
	}

	if len(symbols) > 0 {
		first := symbols[0]
		summary.Symbol = first.Name
		summary.SymbolKind = first.Kind
		start, end := first.StartLine, first.EndLine
		summary.StartLine = &start
		summary.EndLine = &end
	}
	return summary, nil
}

func javaImports(root *sitter.Node, source []byte) []string {
	var deps []string
	for _, imp := range childrenByKind(root, "import_declaration") {
		deps = append(deps, nodeText(imp, source))
	}
	return deps
}

func javaType(node *sitter.Node, source []byte) semtypes.SymbolInfo {
	name := nodeText(node.ChildByFieldName("name"), source)
	start, end := lineRange(node)
	kind := semtypes.SymbolClass
	switch node.Kind() {
	case "interface_declaration":
		kind = semtypes.SymbolInterface
	case "enum_declaration":
		kind = semtypes.SymbolEnum
	}
	var bases []string
	if super := node.ChildByFieldName("superclass"); super != nil {
		bases = append(bases, nodeText(super, source))
	}
	return semtypes.SymbolInfo{
		Name:           name,
		Kind:           kind,
		StartLine:      start,
		EndLine:        end,
		IsExported:     hasModifier(node, "public"),
		BaseClasses:    bases,
		BehavioralRisk: semtypes.RiskLow,
	}
}

func javaMethod(node *sitter.Node, source []byte) semtypes.SymbolInfo {
	name := nodeText(node.ChildByFieldName("name"), source)
	start, end := lineRange(node)
	body := node.ChildByFieldName("body")
	return semtypes.SymbolInfo{
		Name:           name,
		Kind:           semtypes.SymbolMethod,
		StartLine:      start,
		EndLine:        end,
		IsExported:     hasModifier(node, "public"),
		Arguments:      javaParams(node.ChildByFieldName("parameters"), source),
		ReturnType:     nodeText(node.ChildByFieldName("type"), source),
		ControlFlow:    collectControlFlow(body, nil),
		Calls:          javaCalls(body, source),
		BehavioralRisk: semtypes.RiskLow,
	}
}

func hasModifier(node *sitter.Node, modifier string) bool {
	mods := childByKind(node, "modifiers")
	if mods == nil {
		return false
	}
	return nodeTextContainsWord(mods, modifier)
}

func nodeTextContainsWord(node *sitter.Node, word string) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.Child(i).Kind() == word {
			return true
		}
	}
	return false
}

func javaParams(params *sitter.Node, source []byte) []semtypes.Argument {
	if params == nil {
		return nil
	}
	var args []semtypes.Argument
	for _, p := range childrenByKind(params, "formal_parameter") {
		name := nodeText(p.ChildByFieldName("name"), source)
		typ := nodeText(p.ChildByFieldName("type"), source)
		args = append(args, semtypes.Argument{Name: name, Type: typ})
	}
	return args
}

func javaCalls(body *sitter.Node, source []byte) []semtypes.Call {
	if body == nil {
		return nil
	}
	var calls []semtypes.Call
	walk(body, func(n *sitter.Node) bool {
		if n.Kind() != "method_invocation" {
			return true
		}
		name := nodeText(n.ChildByFieldName("name"), source)
		object := nodeText(n.ChildByFieldName("object"), source)
		calls = append(calls, semtypes.Call{
			Name:      name,
			Object:    object,
			InTry:     ancestorIsKind(n, "try_statement"),
			Arguments: callArgTexts(n.ChildByFieldName("arguments"), source),
		})
		return true
	})
	return calls
}
