package extract

import (
	"testing"

	"github.com/standardbeagle/lci/internal/langdispatch"
	"github.com/standardbeagle/lci/internal/semtypes"
)

const pythonFixture = `import os
from collections import OrderedDict

def greet(name):
    if not name:
        raise ValueError("empty")
    print(os.getcwd())
    return f"hi {name}"

def _helper():
    return None

class Widget(Base):
    def __init__(self):
        pass
`

func TestPythonExtractor_Symbols(t *testing.T) {
	tree, closeFn := parseFixture(t, langdispatch.Python, pythonFixture)
	defer closeFn()

	summary, err := pythonExtractor{}.Extract("sample.py", []byte(pythonFixture), tree, langdispatch.Python)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var greet, helper, widget *semtypes.SymbolInfo
	for i := range summary.Symbols {
		switch summary.Symbols[i].Name {
		case "greet":
			greet = &summary.Symbols[i]
		case "_helper":
			helper = &summary.Symbols[i]
		case "Widget":
			widget = &summary.Symbols[i]
		}
	}
	if greet == nil || helper == nil || widget == nil {
		t.Fatalf("expected greet, _helper and Widget symbols, got %+v", summary.Symbols)
	}
	if !greet.IsExported {
		t.Errorf("expected greet to be exported (no underscore prefix)")
	}
	if helper.IsExported {
		t.Errorf("expected _helper to not be exported")
	}
	if widget.Kind != semtypes.SymbolClass {
		t.Errorf("expected Widget to be a class, got %s", widget.Kind)
	}
	if len(widget.BaseClasses) != 1 || widget.BaseClasses[0] != "Base" {
		t.Errorf("expected Widget to list Base as a base class, got %v", widget.BaseClasses)
	}

	found := false
	for _, dep := range summary.AddedDependencies {
		if dep == "os" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected os import recorded, got %v", summary.AddedDependencies)
	}
}

func TestPythonExtractor_CallsAndControlFlow(t *testing.T) {
	tree, closeFn := parseFixture(t, langdispatch.Python, pythonFixture)
	defer closeFn()

	summary, err := pythonExtractor{}.Extract("sample.py", []byte(pythonFixture), tree, langdispatch.Python)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	foundGetcwd := false
	for _, c := range summary.Calls {
		if c.Name == "getcwd" && c.Object == "os" {
			foundGetcwd = true
		}
	}
	if !foundGetcwd {
		t.Errorf("expected os.getcwd call, got %v", summary.Calls)
	}
	if len(summary.ControlFlowChanges) == 0 {
		t.Errorf("expected at least one control flow change from the if-raise in greet")
	}
}
