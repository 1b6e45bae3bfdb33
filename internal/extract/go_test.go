package extract

import (
	"testing"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/lci/internal/langdispatch"
	"github.com/standardbeagle/lci/internal/semtypes"
)

func parseFixture(t *testing.T, lang langdispatch.Lang, source string) (*sitter.Tree, func()) {
	t.Helper()
	parser, ok := langdispatch.NewParser(lang)
	if !ok {
		t.Fatalf("no grammar wired for %s", lang)
	}
	tree := parser.Parse([]byte(source), nil)
	if tree == nil {
		t.Fatalf("parse failed for %s", lang)
	}
	return tree, func() {
		tree.Close()
		parser.Close()
	}
}

const goFixture = `package sample

import (
	"fmt"
	"errors"
)

func Add(a int, b int) int {
	if a < 0 {
		panic("negative")
	}
	for i := 0; i < b; i++ {
		fmt.Println(i)
	}
	return a + b
}

func unexported() error {
	return errors.New("boom")
}

type Widget struct {
	Name string
}
`

func TestGoExtractor_Symbols(t *testing.T) {
	tree, closeFn := parseFixture(t, langdispatch.Go, goFixture)
	defer closeFn()

	summary, err := goExtractor{}.Extract("sample.go", []byte(goFixture), tree, langdispatch.Go)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !summary.ExtractionComplete {
		t.Fatalf("expected extraction complete")
	}
	if len(summary.Symbols) != 3 {
		t.Fatalf("expected 3 symbols (Add, unexported, Widget), got %d: %+v", len(summary.Symbols), summary.Symbols)
	}

	var add, widget *semtypes.SymbolInfo
	for i := range summary.Symbols {
		switch summary.Symbols[i].Name {
		case "Add":
			add = &summary.Symbols[i]
		case "Widget":
			widget = &summary.Symbols[i]
		}
	}
	if add == nil {
		t.Fatalf("expected to find Add symbol")
	}
	if !add.IsExported {
		t.Errorf("expected Add to be exported")
	}
	if len(add.Arguments) != 2 {
		t.Errorf("expected 2 arguments for Add, got %d", len(add.Arguments))
	}
	if len(add.ControlFlow) != 2 {
		t.Errorf("expected if+for control flow changes for Add, got %d: %+v", len(add.ControlFlow), add.ControlFlow)
	}

	if widget == nil {
		t.Fatalf("expected to find Widget symbol")
	}
	if widget.Kind != semtypes.SymbolStruct {
		t.Errorf("expected Widget to be a struct, got %s", widget.Kind)
	}

	if !summary.PublicSurfaceChanged {
		t.Errorf("expected public surface changed since Add and Widget are exported")
	}

	found := false
	for _, dep := range summary.AddedDependencies {
		if dep == "fmt" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected fmt import recorded, got %v", summary.AddedDependencies)
	}
}

func TestGoExtractor_Calls(t *testing.T) {
	tree, closeFn := parseFixture(t, langdispatch.Go, goFixture)
	defer closeFn()

	summary, err := goExtractor{}.Extract("sample.go", []byte(goFixture), tree, langdispatch.Go)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, c := range summary.Calls {
		if c.Name == "Println" && c.Object == "fmt" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected fmt.Println call, got %v", summary.Calls)
	}
}
