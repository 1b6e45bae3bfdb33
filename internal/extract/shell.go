package extract

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lci/internal/langdispatch"
	"github.com/standardbeagle/lci/internal/semtypes"
)

// shellExtractor handles Bash scripts. No Bash grammar is in this module's
// dependency set (same gap as Kotlin, §4.1/§9), so extraction is
// line-oriented: assignments become StateChanges, and bare command words
// become Calls. The locals subsystem's read/write classification (§4.2)
// degrades to "every assignment LHS is a write" since there's no AST to
// walk ancestors on.
type shellExtractor struct{}

var shellAssignment = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)=(.*)$`)
var shellCommand = regexp.MustCompile(`^([A-Za-z0-9_./-]+)\b`)

func (shellExtractor) Extract(path string, source []byte, _ *sitter.Tree, _ langdispatch.Lang) (*semtypes.SemanticSummary, error) {
	summary := &semtypes.SemanticSummary{ExtractionComplete: true, Insertions: []string{"shell script"}}
	scanner := bufio.NewScanner(bytes.NewReader(source))
	for scanner.Scan() {
		trimmed := strings.TrimSpace(scanner.Text())
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if m := shellAssignment.FindStringSubmatch(trimmed); m != nil {
			summary.StateChanges = append(summary.StateChanges, semtypes.StateChange{
				Name: m[1], StateType: "shell-var", Initializer: strings.TrimSpace(m[2]),
			})
			continue
		}
		if m := shellCommand.FindStringSubmatch(trimmed); m != nil {
			summary.Calls = append(summary.Calls, semtypes.Call{Name: m[1]})
		}
	}
	return summary, nil
}
