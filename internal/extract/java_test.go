package extract

import (
	"testing"

	"github.com/standardbeagle/lci/internal/langdispatch"
	"github.com/standardbeagle/lci/internal/semtypes"
)

const javaFixture = `import java.util.List;

public class Service {
    public String run(String name) {
        try {
            System.out.println(name);
        } catch (Exception e) {
            return null;
        }
        return name;
    }

    private void helper() {}
}

interface Greeter {
    String greet(String name);
}
`

func TestJavaExtractor_Symbols(t *testing.T) {
	tree, closeFn := parseFixture(t, langdispatch.Java, javaFixture)
	defer closeFn()

	summary, err := javaExtractor{}.Extract("Service.java", []byte(javaFixture), tree, langdispatch.Java)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var service, run, helper, greeter *semtypes.SymbolInfo
	for i := range summary.Symbols {
		switch summary.Symbols[i].Name {
		case "Service":
			service = &summary.Symbols[i]
		case "run":
			run = &summary.Symbols[i]
		case "helper":
			helper = &summary.Symbols[i]
		case "Greeter":
			greeter = &summary.Symbols[i]
		}
	}
	if service == nil || run == nil || helper == nil || greeter == nil {
		t.Fatalf("expected Service, run, helper and Greeter symbols, got %+v", summary.Symbols)
	}
	if !service.IsExported {
		t.Errorf("expected Service to be public/exported")
	}
	if !run.IsExported {
		t.Errorf("expected run to be public/exported")
	}
	if helper.IsExported {
		t.Errorf("expected helper to not be exported")
	}
	if greeter.Kind != semtypes.SymbolInterface {
		t.Errorf("expected Greeter to be an interface, got %s", greeter.Kind)
	}

	found := false
	for _, c := range run.Calls {
		if c.Name == "println" && c.Object == "System.out" && c.InTry {
			found = true
		}
	}
	if !found {
		t.Errorf("expected System.out.println call inside try, got %v", run.Calls)
	}

	foundImport := false
	for _, dep := range summary.AddedDependencies {
		if dep == "import java.util.List;" {
			foundImport = true
		}
	}
	if !foundImport {
		t.Errorf("expected java.util.List import recorded, got %v", summary.AddedDependencies)
	}
}
