package extract

import (
	"testing"

	"github.com/standardbeagle/lci/internal/langdispatch"
	"github.com/standardbeagle/lci/internal/semtypes"
)

const tsxFixture = `import React from "react";
import { fetchUser } from "./api";

export function App() {
  const [count, setCount] = useState(0);
  useEffect(() => {
    fetchUser().then(console.log);
  }, []);
  return <div>{count}</div>;
}

function helper() {
  return 1;
}
`

func TestJsExtractor_ComponentAndStateHook(t *testing.T) {
	tree, closeFn := parseFixture(t, langdispatch.Tsx, tsxFixture)
	defer closeFn()

	summary, err := jsExtractor{}.Extract("App.tsx", []byte(tsxFixture), tree, langdispatch.Tsx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var app, helper *semtypes.SymbolInfo
	for i := range summary.Symbols {
		switch summary.Symbols[i].Name {
		case "App":
			app = &summary.Symbols[i]
		case "helper":
			helper = &summary.Symbols[i]
		}
	}
	if app == nil || helper == nil {
		t.Fatalf("expected App and helper symbols, got %+v", summary.Symbols)
	}
	if app.Kind != semtypes.SymbolComponent {
		t.Errorf("expected App to be classified as a component, got %s", app.Kind)
	}
	if !app.IsExported {
		t.Errorf("expected App to be exported")
	}
	if len(app.StateChanges) != 1 || app.StateChanges[0].Name != "count" {
		t.Errorf("expected a count state hook, got %v", app.StateChanges)
	}

	if !hasInsertionContaining(summary.Insertions, "JSX elements present") {
		t.Errorf("expected JSX insertion, got %v", summary.Insertions)
	}
	if !hasInsertionContaining(summary.Insertions, "state hook: count") {
		t.Errorf("expected state hook insertion, got %v", summary.Insertions)
	}
	if summary.Insertions[0] != "JSX elements present" {
		t.Errorf("expected JSX insertion before state hook insertion, got %v", summary.Insertions)
	}

	found := false
	for _, dep := range summary.AddedDependencies {
		if dep == "react" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected react import recorded, got %v", summary.AddedDependencies)
	}
}

func TestJsExtractor_AwaitAndMemberCalls(t *testing.T) {
	src := `async function run() {
  try {
    await fetchUser().then(console.log);
  } catch (e) {
    console.error(e);
  }
}
`
	tree, closeFn := parseFixture(t, langdispatch.JavaScript, src)
	defer closeFn()

	summary, err := jsExtractor{}.Extract("run.js", []byte(src), tree, langdispatch.JavaScript)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary.Symbols) != 1 || !summary.Symbols[0].IsAsync {
		t.Fatalf("expected one async symbol, got %+v", summary.Symbols)
	}

	foundAwaited := false
	foundInTry := false
	for _, c := range summary.Calls {
		if c.Name == "then" && c.Object == "fetchUser()" && c.IsAwaited {
			foundAwaited = true
		}
		if c.Name == "then" && c.InTry {
			foundInTry = true
		}
	}
	if !foundAwaited {
		t.Errorf("expected the awaited fetchUser().then() call to be marked awaited, got %v", summary.Calls)
	}
	if !foundInTry {
		t.Errorf("expected a call inside the try block, got %v", summary.Calls)
	}
}
