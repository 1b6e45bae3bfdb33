// Package risk computes cognitive/cyclomatic complexity and the behavioral
// risk score assigned to each extracted symbol (§4.4).
package risk

import (
	"strings"

	"github.com/standardbeagle/lci/internal/semtypes"
)

// networkTerms mark insertions describing network, fetch, I/O, or file
// activity. Matching is substring, case-insensitive, same as the original.
var networkTerms = []string{"network", "fetch", "invoke", "i/o", "file"}

// persistenceTerms mark insertions describing persistence operations.
var persistenceTerms = []string{"storage", "database", "persist", "localstorage", "sessionstorage"}

// Score computes the raw risk score for a semantic summary (§4.4).
func Score(summary *semtypes.SemanticSummary) int {
	score := 0

	imports := len(summary.AddedDependencies)
	if imports > 3 {
		imports = 3
	}
	score += imports

	score += len(summary.StateChanges)

	cfCount := len(summary.ControlFlowChanges)
	if cfCount > 0 {
		score++
	}
	if cfCount > 5 {
		score++
	}
	if cfCount > 15 {
		score++
	}

	for _, insertion := range summary.Insertions {
		lower := strings.ToLower(insertion)
		if containsAny(lower, networkTerms) {
			score += 2
		}
	}

	if summary.PublicSurfaceChanged {
		score += 3
	}

	for _, insertion := range summary.Insertions {
		lower := strings.ToLower(insertion)
		if containsAny(lower, persistenceTerms) {
			score += 3
		}
	}

	return score
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// CalculateRisk scores a summary and maps it to its risk level in one step.
func CalculateRisk(summary *semtypes.SemanticSummary) semtypes.RiskLevel {
	return semtypes.RiskFromScore(Score(summary))
}

// CognitiveComplexity is the SonarSource-variant cognitive complexity: each
// control-flow change contributes 1 plus its nesting depth.
func CognitiveComplexity(changes []semtypes.ControlFlowChange) int {
	total := 0
	for _, c := range changes {
		total += 1 + c.NestingDepth
	}
	return total
}

// CyclomaticComplexity is 1 plus the number of control-flow changes.
func CyclomaticComplexity(changes []semtypes.ControlFlowChange) int {
	return 1 + len(changes)
}

// MaxNesting is the deepest nesting depth among the given control-flow
// changes, or 0 when there are none.
func MaxNesting(changes []semtypes.ControlFlowChange) int {
	max := 0
	for _, c := range changes {
		if c.NestingDepth > max {
			max = c.NestingDepth
		}
	}
	return max
}
