package extract

import (
	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lci/internal/semtypes"
)

// keywordFilter excludes identifiers that are really keywords the grammar
// happens to tokenize as identifier-shaped nodes in some languages.
var keywordFilter = map[string]bool{
	"self": true, "this": true, "super": true, "nil": true, "null": true,
	"true": true, "false": true, "none": true, "undefined": true,
}

// determineRefKind classifies how an identifier node is used by walking up
// to its nearest assignment-shaped ancestor (§4.2's locals subsystem),
// mirroring the original's parent-pattern walk rather than a tree-sitter
// locals query, since building a per-grammar .scm query set is out of
// reach without the grammars' own query packages.
func determineRefKind(node *sitter.Node) semtypes.RefKind {
	current := node
	for current != nil {
		parent := current.Parent()
		if parent == nil {
			break
		}
		switch parent.Kind() {
		case "augmented_assignment", "augmented_assignment_expression", "compound_assignment_expr":
			if isOnLHS(current, parent) {
				return semtypes.RefWrite
			}
		case "assignment_expression", "assignment", "variable_assignment", "short_var_declaration":
			if isOnLHS(current, parent) {
				return semtypes.RefWrite
			}
			return semtypes.RefRead
		case "update_expression", "unary_expression":
			if hasIncDecOperator(parent) {
				return semtypes.RefReadWrite
			}
		case "let_declaration", "variable_declarator":
			if field := parent.ChildByFieldName("pattern"); field != nil && nodeContains(field, node) {
				return semtypes.RefWrite
			}
			if field := parent.ChildByFieldName("name"); field != nil && nodeContains(field, node) {
				return semtypes.RefWrite
			}
		}
		current = parent
	}
	return semtypes.RefRead
}

func isOnLHS(node, assignment *sitter.Node) bool {
	left := assignment.ChildByFieldName("left")
	if left == nil {
		left = assignment.Child(0)
	}
	return left != nil && nodeContains(left, node)
}

func hasIncDecOperator(node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		k := node.Child(i).Kind()
		if k == "++" || k == "--" {
			return true
		}
	}
	return false
}

func nodeContains(ancestor, node *sitter.Node) bool {
	return node.StartByte() >= ancestor.StartByte() && node.EndByte() <= ancestor.EndByte()
}

// localsSupportedFamilies mirrors the original's broader-than-Bash locals
// coverage (§4.2 names Bash explicitly; the original wires most AST
// families). Markup/Config families return no locals, matching both spec
// and original.
var localsSupportedFamilies = map[string]bool{
	"go": true, "javascript": true, "python": true, "rust": true,
	"java": true, "c_family": true, "shell": true, "gradle": true, "hcl": true,
}
