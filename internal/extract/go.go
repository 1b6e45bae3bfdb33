package extract

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lci/internal/langdispatch"
	"github.com/standardbeagle/lci/internal/semtypes"
)

type goExtractor struct{}

func (goExtractor) Extract(path string, source []byte, tree *sitter.Tree, _ langdispatch.Lang) (*semtypes.SemanticSummary, error) {
	root := tree.RootNode()
	summary := &semtypes.SemanticSummary{ExtractionComplete: true}

	summary.AddedDependencies = goImports(root, source)

	var symbols []semtypes.SymbolInfo
	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "function_declaration":
			symbols = append(symbols, goFunction(child, source, false))
		case "method_declaration":
			symbols = append(symbols, goFunction(child, source, true))
		case "type_declaration":
			symbols = append(symbols, goTypeDecl(child, source)...)
		}
	}
	summary.Symbols = symbols

	for _, s := range symbols {
		summary.ControlFlowChanges = append(summary.ControlFlowChanges, s.ControlFlow...)
		summary.Calls = append(summary.Calls, s.Calls...)
		summary.StateChanges = append(summary.StateChanges, s.StateChanges...)
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

func goImports(root *sitter.Node, source []byte) []string {
	var deps []string
	for _, decl := range childrenByKind(root, "import_declaration") {
		walk(decl, func(n *sitter.Node) bool {
			if n.Kind() == "interpreted_string_literal" {
				deps = append(deps, strings.Trim(nodeText(n, source), `"`))
			}
			return true
		})
	}
	return deps
}

func goFunction(node *sitter.Node, source []byte, isMethod bool) semtypes.SymbolInfo {
	nameNode := node.ChildByFieldName("name")
	name := nodeText(nameNode, source)
	start, end := lineRange(node)

	kind := semtypes.SymbolFunction
	if isMethod {
		kind = semtypes.SymbolMethod
	}

	body := node.ChildByFieldName("body")
	info := semtypes.SymbolInfo{
		Name:        name,
		Kind:        kind,
		StartLine:   start,
		EndLine:     end,
		IsExported:  isExportedByCase(name),
		Arguments:   goParams(node.ChildByFieldName("parameters"), source),
		ReturnType:  nodeText(node.ChildByFieldName("result"), source),
		ControlFlow: collectControlFlow(body, nil),
		Calls:       goCalls(body, source),
		IsAsync:     false,
	}
	info.BehavioralRisk = semtypes.RiskLow
	return info
}

func goParams(params *sitter.Node, source []byte) []semtypes.Argument {
	if params == nil {
		return nil
	}
	var args []semtypes.Argument
	for _, decl := range childrenByKind(params, "parameter_declaration") {
		typ := nodeText(decl.ChildByFieldName("type"), source)
		for _, n := range childrenByKind(decl, "identifier") {
			args = append(args, semtypes.Argument{Name: nodeText(n, source), Type: typ})
		}
	}
	return args
}

func goCalls(body *sitter.Node, source []byte) []semtypes.Call {
	if body == nil {
		return nil
	}
	var calls []semtypes.Call
	inTry := false // Go has no try/catch; kept for interface symmetry with other families
	walk(body, func(n *sitter.Node) bool {
		if n.Kind() != "call_expression" {
			return true
		}
		fn := n.ChildByFieldName("function")
		name := nodeText(fn, source)
		object := ""
		if fn != nil && fn.Kind() == "selector_expression" {
			object = nodeText(fn.ChildByFieldName("operand"), source)
			name = nodeText(fn.ChildByFieldName("field"), source)
		}
		calls = append(calls, semtypes.Call{
			Name:      name,
			Object:    object,
			InTry:     inTry,
			Arguments: callArgTexts(n.ChildByFieldName("arguments"), source),
		})
		return true
	})
	return calls
}

func callArgTexts(args *sitter.Node, source []byte) []string {
	if args == nil {
		return nil
	}
	var out []string
	for i := uint(0); i < args.ChildCount(); i++ {
		c := args.Child(i)
		if c == nil || c.Kind() == "," || c.Kind() == "(" || c.Kind() == ")" {
			continue
		}
		out = append(out, nodeText(c, source))
	}
	return out
}

func goTypeDecl(node *sitter.Node, source []byte) []semtypes.SymbolInfo {
	var out []semtypes.SymbolInfo
	for _, spec := range childrenByKind(node, "type_spec") {
		name := nodeText(spec.ChildByFieldName("name"), source)
		start, end := lineRange(spec)
		kind := semtypes.SymbolTypeAlias
		underlying := spec.ChildByFieldName("type")
		if underlying != nil {
			switch underlying.Kind() {
			case "struct_type":
				kind = semtypes.SymbolStruct
			case "interface_type":
				kind = semtypes.SymbolInterface
			}
		}
		out = append(out, semtypes.SymbolInfo{
			Name:           name,
			Kind:           kind,
			StartLine:      start,
			EndLine:        end,
			IsExported:     isExportedByCase(name),
			BehavioralRisk: semtypes.RiskLow,
		})
	}
	return out
}
