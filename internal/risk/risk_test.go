package risk

import (
	"testing"

	"github.com/standardbeagle/lci/internal/semtypes"
)

func TestCalculateRisk_Low(t *testing.T) {
	summary := &semtypes.SemanticSummary{
		AddedDependencies: []string{"useState"},
	}
	if got := CalculateRisk(summary); got != semtypes.RiskLow {
		t.Errorf("expected low risk, got %s", got)
	}
}

func TestCalculateRisk_Medium(t *testing.T) {
	summary := &semtypes.SemanticSummary{
		AddedDependencies: []string{"useState", "useEffect"},
		StateChanges: []semtypes.StateChange{
			{Name: "open", StateType: "boolean", Initializer: "false"},
		},
	}
	if got := CalculateRisk(summary); got != semtypes.RiskMedium {
		t.Errorf("expected medium risk, got %s", got)
	}
}

func TestCalculateRisk_HighControlFlow(t *testing.T) {
	summary := &semtypes.SemanticSummary{
		AddedDependencies: []string{"fetch"},
		ControlFlowChanges: []semtypes.ControlFlowChange{
			{Kind: semtypes.CFIf},
			{Kind: semtypes.CFFor},
		},
		Insertions:           []string{"network call introduced"},
		PublicSurfaceChanged: true,
	}
	// 1 import + 1 control flow + 2 network + 3 public = 7 -> high
	if got := CalculateRisk(summary); got != semtypes.RiskHigh {
		t.Errorf("expected high risk, got %s", got)
	}
}

func TestCalculateRisk_HighNetworkAndPublicSurface(t *testing.T) {
	summary := &semtypes.SemanticSummary{
		Insertions:           []string{"network call introduced", "writes to storage"},
		PublicSurfaceChanged: true,
	}
	// 2 network + 3 persistence + 3 public = 8 -> high
	if got := CalculateRisk(summary); got != semtypes.RiskHigh {
		t.Errorf("expected high risk, got %s", got)
	}
}

func TestScore_ImportsCappedAtThree(t *testing.T) {
	summary := &semtypes.SemanticSummary{
		AddedDependencies: []string{"a", "b", "c", "d", "e"},
	}
	if got := Score(summary); got != 3 {
		t.Errorf("expected capped import score 3, got %d", got)
	}
}

func TestCognitiveComplexity(t *testing.T) {
	changes := []semtypes.ControlFlowChange{
		{Kind: semtypes.CFIf, NestingDepth: 0},
		{Kind: semtypes.CFFor, NestingDepth: 1},
		{Kind: semtypes.CFIf, NestingDepth: 2},
	}
	// (1+0) + (1+1) + (1+2) = 6
	if got := CognitiveComplexity(changes); got != 6 {
		t.Errorf("expected cognitive complexity 6, got %d", got)
	}
}

func TestCyclomaticComplexity(t *testing.T) {
	changes := []semtypes.ControlFlowChange{{Kind: semtypes.CFIf}, {Kind: semtypes.CFFor}}
	if got := CyclomaticComplexity(changes); got != 3 {
		t.Errorf("expected cyclomatic complexity 3, got %d", got)
	}
}

func TestMaxNesting(t *testing.T) {
	changes := []semtypes.ControlFlowChange{
		{NestingDepth: 0}, {NestingDepth: 3}, {NestingDepth: 1},
	}
	if got := MaxNesting(changes); got != 3 {
		t.Errorf("expected max nesting 3, got %d", got)
	}
}

func TestMaxNesting_Empty(t *testing.T) {
	if got := MaxNesting(nil); got != 0 {
		t.Errorf("expected 0 for no control flow, got %d", got)
	}
}
