package extract

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lci/internal/langdispatch"
	"github.com/standardbeagle/lci/internal/semtypes"
)

type jsExtractor struct{}

func (jsExtractor) Extract(path string, source []byte, tree *sitter.Tree, lang langdispatch.Lang) (*semtypes.SemanticSummary, error) {
	root := tree.RootNode()
	summary := &semtypes.SemanticSummary{ExtractionComplete: true}

	summary.AddedDependencies = jsImports(root, source)

	var symbols []semtypes.SymbolInfo
	walk(root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "function_declaration", "class_declaration", "arrow_function", "method_definition":
			symbols = append(symbols, jsSymbol(n, source, lang))
			return false
		}
		return true
	})
	summary.Symbols = symbols

	for _, s := range symbols {
		summary.ControlFlowChanges = append(summary.ControlFlowChanges, s.ControlFlow...)
		summary.Calls = append(summary.Calls, s.Calls...)
		summary.StateChanges = append(summary.StateChanges, s.StateChanges...)
		if s.IsExported {
			summary.PublicSurfaceChanged = true
		}
		for _, sc := range s.StateChanges {
			appendStateInsertion(summary, "state hook: "+sc.Name)
		}
	}

	if langdispatch.SupportsJSX(lang) {
		jsxCount := 0
		walk(root, func(n *sitter.Node) bool {
			if n.Kind() == "jsx_element" || n.Kind() == "jsx_self_closing_element" {
				jsxCount++
			}
			return true
		})
		if jsxCount > 0 {
			summary.Insertions = append([]string{"JSX elements present"}, summary.Insertions...)
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

func jsImports(root *sitter.Node, source []byte) []string {
	var deps []string
	walk(root, func(n *sitter.Node) bool {
		if n.Kind() == "import_statement" {
			walk(n, func(inner *sitter.Node) bool {
				if inner.Kind() == "string" {
					deps = append(deps, trimQuotes(nodeText(inner, source)))
				}
				return true
			})
			return false
		}
		return true
	})
	return deps
}

func trimQuotes(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"' || s[0] == '`') {
		return s[1 : len(s)-1]
	}
	return s
}

func jsSymbol(node *sitter.Node, source []byte, lang langdispatch.Lang) semtypes.SymbolInfo {
	nameNode := node.ChildByFieldName("name")
	name := nodeText(nameNode, source)
	start, end := lineRange(node)

	kind := semtypes.SymbolFunction
	switch node.Kind() {
	case "class_declaration":
		kind = semtypes.SymbolClass
	case "method_definition":
		kind = semtypes.SymbolMethod
	}
	if langdispatch.SupportsJSX(lang) && looksLikeComponent(name) {
		kind = semtypes.SymbolComponent
	}

	body := node.ChildByFieldName("body")
	info := semtypes.SymbolInfo{
		Name:           name,
		Kind:           kind,
		StartLine:      start,
		EndLine:        end,
		IsExported:     jsIsExported(node),
		IsAsync:        hasChildKeyword(node, "async"),
		Arguments:      jsParams(node.ChildByFieldName("parameters"), source),
		ControlFlow:    collectControlFlow(body, nil),
		Calls:          jsCalls(body, source),
		StateChanges:   jsStateHooks(body, source),
		BehavioralRisk: semtypes.RiskLow,
	}
	return info
}

func looksLikeComponent(name string) bool {
	return len(name) > 0 && name[0] >= 'A' && name[0] <= 'Z'
}

func jsIsExported(node *sitter.Node) bool {
	parent := node.Parent()
	return parent != nil && (parent.Kind() == "export_statement" || parent.Kind() == "export_default_declaration")
}

func hasChildKeyword(node *sitter.Node, keyword string) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.Child(i).Kind() == keyword {
			return true
		}
	}
	return false
}

func jsParams(params *sitter.Node, source []byte) []semtypes.Argument {
	if params == nil {
		return nil
	}
	var args []semtypes.Argument
	for i := uint(0); i < params.ChildCount(); i++ {
		c := params.Child(i)
		if c == nil || c.Kind() == "(" || c.Kind() == ")" || c.Kind() == "," {
			continue
		}
		args = append(args, semtypes.Argument{Name: nodeText(c, source)})
	}
	return args
}

func jsCalls(body *sitter.Node, source []byte) []semtypes.Call {
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
		if fn != nil && fn.Kind() == "member_expression" {
			object = nodeText(fn.ChildByFieldName("object"), source)
			name = nodeText(fn.ChildByFieldName("property"), source)
		}
		awaited := false
		if parent := n.Parent(); parent != nil && parent.Kind() == "await_expression" {
			awaited = true
		}
		inTry := ancestorIsKind(n, "try_statement")
		calls = append(calls, semtypes.Call{
			Name:      name,
			Object:    object,
			IsAwaited: awaited,
			InTry:     inTry,
			Arguments: callArgTexts(n.ChildByFieldName("arguments"), source),
		})
		return true
	})
	return calls
}

func ancestorIsKind(node *sitter.Node, kind string) bool {
	for p := node.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == kind {
			return true
		}
	}
	return false
}

// jsStateHooks recognizes the React useState pattern:
// "const [x, setX] = useState(...)".
func jsStateHooks(body *sitter.Node, source []byte) []semtypes.StateChange {
	if body == nil {
		return nil
	}
	var out []semtypes.StateChange
	walk(body, func(n *sitter.Node) bool {
		if n.Kind() != "call_expression" {
			return true
		}
		fn := n.ChildByFieldName("function")
		if nodeText(fn, source) != "useState" {
			return true
		}
		parent := n.Parent()
		if parent == nil || parent.Kind() != "variable_declarator" {
			return true
		}
		namePattern := parent.ChildByFieldName("name")
		names := extractArrayPatternNames(namePattern, source)
		if len(names) == 0 {
			return true
		}
		init := ""
		if args := n.ChildByFieldName("arguments"); args != nil {
			texts := callArgTexts(args, source)
			if len(texts) > 0 {
				init = texts[0]
			}
		}
		out = append(out, semtypes.StateChange{Name: names[0], StateType: "state", Initializer: init})
		return true
	})
	return out
}

func extractArrayPatternNames(node *sitter.Node, source []byte) []string {
	if node == nil || node.Kind() != "array_pattern" {
		return nil
	}
	var names []string
	for i := uint(0); i < node.ChildCount(); i++ {
		c := node.Child(i)
		if c != nil && c.Kind() == "identifier" {
			names = append(names, nodeText(c, source))
		}
	}
	return names
}
