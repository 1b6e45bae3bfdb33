package extract

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lci/internal/semtypes"
)

// cfNodeKinds maps a family-specific tree-sitter node kind to the
// control-flow construct it represents. Shared across families whose
// grammars reuse similar node names (if_statement, for_statement, ...);
// family-specific extras are merged in by each extractor.
var cfNodeKinds = map[string]semtypes.ControlFlowKind{
	"if_statement":          semtypes.CFIf,
	"else_clause":           semtypes.CFElse,
	"for_statement":         semtypes.CFFor,
	"for_in_statement":      semtypes.CFFor,
	"for_expression":        semtypes.CFFor,
	"while_statement":       semtypes.CFWhile,
	"while_expression":      semtypes.CFWhile,
	"switch_statement":      semtypes.CFSwitch,
	"switch_expression":     semtypes.CFSwitch,
	"case_clause":           semtypes.CFCase,
	"match_arm":             semtypes.CFCase,
	"try_statement":         semtypes.CFTry,
	"catch_clause":          semtypes.CFCatch,
	"finally_clause":        semtypes.CFFinally,
	"match_expression":      semtypes.CFMatch,
	"loop_expression":       semtypes.CFLoop,
	"conditional_expression": semtypes.CFTernary,
	"ternary_expression":    semtypes.CFTernary,
	"throw_statement":       semtypes.CFThrow,
	"raise_statement":       semtypes.CFThrow,
}

// collectControlFlow walks a symbol body subtree and emits one
// ControlFlowChange per matching node, with nesting_depth counted as the
// number of ancestor control-flow nodes already seen on the path from the
// symbol root (§4.2: depth 0 at the root).
func collectControlFlow(body *sitter.Node, extra map[string]semtypes.ControlFlowKind) []semtypes.ControlFlowChange {
	if body == nil {
		return nil
	}
	var out []semtypes.ControlFlowChange
	var visit func(node *sitter.Node, depth int)
	visit = func(node *sitter.Node, depth int) {
		kind, ok := cfNodeKinds[node.Kind()]
		if !ok && extra != nil {
			kind, ok = extra[node.Kind()]
		}
		nextDepth := depth
		if ok {
			out = append(out, semtypes.ControlFlowChange{
				Kind:         kind,
				NestingDepth: depth,
				Location:     nodeLocation(node),
			})
			nextDepth = depth + 1
		}
		for i := uint(0); i < node.ChildCount(); i++ {
			visit(node.Child(i), nextDepth)
		}
	}
	visit(body, 0)
	return out
}
