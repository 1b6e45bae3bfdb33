package extract

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lci/internal/langdispatch"
	"github.com/standardbeagle/lci/internal/semtypes"
)

type rustExtractor struct{}

func (rustExtractor) Extract(path string, source []byte, tree *sitter.Tree, _ langdispatch.Lang) (*semtypes.SemanticSummary, error) {
	root := tree.RootNode()
	summary := &semtypes.SemanticSummary{ExtractionComplete: true}
	summary.AddedDependencies = rustUses(root, source)

	var symbols []semtypes.SymbolInfo
	walk(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "function_item":
			symbols = append(symbols, rustFunction(n, source))
			return false
		case "struct_item":
			symbols = append(symbols, rustTypeLike(n, source, semtypes.SymbolStruct))
		case "enum_item":
			symbols = append(symbols, rustTypeLike(n, source, semtypes.SymbolEnum))
		case "trait_item":
			symbols = append(symbols, rustTypeLike(n, source, semtypes.SymbolTrait))
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

func rustUses(root *sitter.Node, source []byte) []string {
	var deps []string
	for _, use := range childrenByKind(root, "use_declaration") {
		deps = append(deps, nodeText(use, source))
	}
	return deps
}

func rustFunction(node *sitter.Node, source []byte) semtypes.SymbolInfo {
	name := nodeText(node.ChildByFieldName("name"), source)
	start, end := lineRange(node)
	body := node.ChildByFieldName("body")
	return semtypes.SymbolInfo{
		Name:           name,
		Kind:           semtypes.SymbolFunction,
		StartLine:      start,
		EndLine:        end,
		IsExported:     childByKind(node, "visibility_modifier") != nil,
		Arguments:      rustParams(node.ChildByFieldName("parameters"), source),
		ReturnType:     nodeText(node.ChildByFieldName("return_type"), source),
		ControlFlow:    collectControlFlow(body, rustExtraCF),
		Calls:          rustCalls(body, source),
		BehavioralRisk: semtypes.RiskLow,
	}
}

var rustExtraCF = map[string]semtypes.ControlFlowKind{
	"match_expression": semtypes.CFMatch,
	"loop_expression":  semtypes.CFLoop,
}

func rustParams(params *sitter.Node, source []byte) []semtypes.Argument {
	if params == nil {
		return nil
	}
	var args []semtypes.Argument
	for _, p := range childrenByKind(params, "parameter") {
		name := nodeText(p.ChildByFieldName("pattern"), source)
		typ := nodeText(p.ChildByFieldName("type"), source)
		args = append(args, semtypes.Argument{Name: name, Type: typ})
	}
	return args
}

func rustCalls(body *sitter.Node, source []byte) []semtypes.Call {
	if body == nil {
		return nil
	}
	var calls []semtypes.Call
	walk(body, func(n *sitter.Node) bool {
		if n.Kind() != "call_expression" {
			return true
		}
		fn := n.ChildByFieldName("function")
		name := nodeText(fn, source)
		object := ""
		if fn != nil && fn.Kind() == "field_expression" {
			object = nodeText(fn.ChildByFieldName("value"), source)
			name = nodeText(fn.ChildByFieldName("field"), source)
		}
		calls = append(calls, semtypes.Call{
			Name:      name,
			Object:    object,
			Arguments: callArgTexts(n.ChildByFieldName("arguments"), source),
		})
		return true
	})
	return calls
}

func rustTypeLike(node *sitter.Node, source []byte, kind semtypes.SymbolKind) semtypes.SymbolInfo {
	name := nodeText(node.ChildByFieldName("name"), source)
	start, end := lineRange(node)
	return semtypes.SymbolInfo{
		Name:           name,
		Kind:           kind,
		StartLine:      start,
		EndLine:        end,
		IsExported:     childByKind(node, "visibility_modifier") != nil,
		BehavioralRisk: semtypes.RiskLow,
	}
}
