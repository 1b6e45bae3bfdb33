package extract

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lci/internal/langdispatch"
	"github.com/standardbeagle/lci/internal/semtypes"
)

type pythonExtractor struct{}

func (pythonExtractor) Extract(path string, source []byte, tree *sitter.Tree, _ langdispatch.Lang) (*semtypes.SemanticSummary, error) {
	root := tree.RootNode()
	summary := &semtypes.SemanticSummary{ExtractionComplete: true}
	summary.AddedDependencies = pythonImports(root, source)

	var symbols []semtypes.SymbolInfo
	for i := uint(0); i < root.ChildCount(); i++ {
		child := root.Child(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "function_definition":
			symbols = append(symbols, pythonFunction(child, source, semtypes.SymbolFunction))
		case "class_definition":
			symbols = append(symbols, pythonClass(child, source))
		}
	}
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

func pythonImports(root *sitter.Node, source []byte) []string {
	var deps []string
	walk(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "import_statement", "import_from_statement":
			walk(n, func(inner *sitter.Node) bool {
				if inner.Kind() == "dotted_name" || inner.Kind() == "identifier" {
					deps = append(deps, nodeText(inner, source))
				}
				return true
			})
			return false
		}
		return true
	})
	return deps
}

func pythonFunction(node *sitter.Node, source []byte, kind semtypes.SymbolKind) semtypes.SymbolInfo {
	name := nodeText(node.ChildByFieldName("name"), source)
	start, end := lineRange(node)
	body := node.ChildByFieldName("body")
	return semtypes.SymbolInfo{
		Name:           name,
		Kind:           kind,
		StartLine:      start,
		EndLine:        end,
		IsExported:     !hasUnderscorePrefix(name),
		IsAsync:        hasChildKeyword(node, "async"),
		Arguments:      pythonParams(node.ChildByFieldName("parameters"), source),
		ReturnType:     nodeText(node.ChildByFieldName("return_type"), source),
		ControlFlow:    collectControlFlow(body, pythonExtraCF),
		Calls:          pythonCalls(body, source),
		BehavioralRisk: semtypes.RiskLow,
	}
}

var pythonExtraCF = map[string]semtypes.ControlFlowKind{
	"except_clause": semtypes.CFCatch,
	"with_statement": semtypes.CFGuard,
}

func hasUnderscorePrefix(name string) bool {
	return len(name) > 0 && name[0] == '_'
}

func pythonParams(params *sitter.Node, source []byte) []semtypes.Argument {
	if params == nil {
		return nil
	}
	var args []semtypes.Argument
	for i := uint(0); i < params.ChildCount(); i++ {
		c := params.Child(i)
		if c == nil {
			continue
		}
		switch c.Kind() {
		case "identifier":
			args = append(args, semtypes.Argument{Name: nodeText(c, source)})
		case "typed_parameter", "default_parameter", "typed_default_parameter":
			if id := childByKind(c, "identifier"); id != nil {
				args = append(args, semtypes.Argument{Name: nodeText(id, source), Type: nodeText(c.ChildByFieldName("type"), source)})
			}
		}
	}
	return args
}

func pythonCalls(body *sitter.Node, source []byte) []semtypes.Call {
	if body == nil {
		return nil
	}
	var calls []semtypes.Call
	walk(body, func(n *sitter.Node) bool {
		if n.Kind() != "call" {
			return true
		}
		fn := n.ChildByFieldName("function")
		name := nodeText(fn, source)
		object := ""
		if fn != nil && fn.Kind() == "attribute" {
			object = nodeText(fn.ChildByFieldName("object"), source)
			name = nodeText(fn.ChildByFieldName("attribute"), source)
		}
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

func pythonClass(node *sitter.Node, source []byte) semtypes.SymbolInfo {
	name := nodeText(node.ChildByFieldName("name"), source)
	start, end := lineRange(node)
	var bases []string
	if argList := node.ChildByFieldName("superclasses"); argList != nil {
		bases = callArgTexts(argList, source)
	}
	return semtypes.SymbolInfo{
		Name:           name,
		Kind:           semtypes.SymbolClass,
		StartLine:      start,
		EndLine:        end,
		IsExported:     !hasUnderscorePrefix(name),
		BaseClasses:    bases,
		BehavioralRisk: semtypes.RiskLow,
	}
}
