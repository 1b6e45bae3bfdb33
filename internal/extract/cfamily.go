package extract

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lci/internal/langdispatch"
	"github.com/standardbeagle/lci/internal/semtypes"
)

// cFamilyExtractor handles C and C++ (§4.2: "C-family also captures
// includes as dependencies").
type cFamilyExtractor struct{}

func (cFamilyExtractor) Extract(path string, source []byte, tree *sitter.Tree, _ langdispatch.Lang) (*semtypes.SemanticSummary, error) {
	root := tree.RootNode()
	summary := &semtypes.SemanticSummary{ExtractionComplete: true}
	summary.AddedDependencies = cIncludes(root, source)

	var symbols []semtypes.SymbolInfo
	walk(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "function_definition":
			symbols = append(symbols, cFunction(n, source))
			return false
		case "struct_specifier", "class_specifier":
			if name := n.ChildByFieldName("name"); name != nil {
				symbols = append(symbols, cType(n, source))
			}
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

func cIncludes(root *sitter.Node, source []byte) []string {
	var deps []string
	walk(root, func(n *sitter.Node) bool {
		if n.Kind() == "preproc_include" {
			if path := childByKind(n, "system_lib_string"); path != nil {
				deps = append(deps, nodeText(path, source))
			} else if path := childByKind(n, "string_literal"); path != nil {
				deps = append(deps, nodeText(path, source))
			}
			return false
		}
		return true
	})
	return deps
}

func cFunction(node *sitter.Node, source []byte) semtypes.SymbolInfo {
	declarator := node.ChildByFieldName("declarator")
	name := cFunctionName(declarator, source)
	start, end := lineRange(node)
	body := node.ChildByFieldName("body")
	return semtypes.SymbolInfo{
		Name:           name,
		Kind:           semtypes.SymbolFunction,
		StartLine:      start,
		EndLine:        end,
		IsExported:     true, // C has no module-private keyword at this grain; static would need declarator inspection
		ReturnType:     nodeText(node.ChildByFieldName("type"), source),
		ControlFlow:    collectControlFlow(body, nil),
		Calls:          cCalls(body, source),
		BehavioralRisk: semtypes.RiskLow,
	}
}

func cFunctionName(declarator *sitter.Node, source []byte) string {
	if declarator == nil {
		return ""
	}
	if declarator.Kind() == "function_declarator" {
		return nodeText(declarator.ChildByFieldName("declarator"), source)
	}
	return nodeText(declarator, source)
}

func cCalls(body *sitter.Node, source []byte) []semtypes.Call {
	if body == nil {
		return nil
	}
	var calls []semtypes.Call
	walk(body, func(n *sitter.Node) bool {
		if n.Kind() != "call_expression" {
			return true
		}
		name := nodeText(n.ChildByFieldName("function"), source)
		calls = append(calls, semtypes.Call{
			Name:      name,
			Arguments: callArgTexts(n.ChildByFieldName("arguments"), source),
		})
		return true
	})
	return calls
}

func cType(node *sitter.Node, source []byte) semtypes.SymbolInfo {
	name := nodeText(node.ChildByFieldName("name"), source)
	start, end := lineRange(node)
	kind := semtypes.SymbolStruct
	if node.Kind() == "class_specifier" {
		kind = semtypes.SymbolClass
	}
	return semtypes.SymbolInfo{
		Name: name, Kind: kind, StartLine: start, EndLine: end,
		IsExported: true, BehavioralRisk: semtypes.RiskLow,
	}
}
