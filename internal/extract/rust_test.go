package extract

import (
	"testing"

	"github.com/standardbeagle/lci/internal/langdispatch"
	"github.com/standardbeagle/lci/internal/semtypes"
)

const rustFixture = `use std::collections::HashMap;

pub fn process(input: &str) -> i32 {
    match input.len() {
        0 => 0,
        _ => {
            println!("{}", input);
            input.len() as i32
        }
    }
}

fn private_helper() {}

pub struct Record {
    name: String,
}

enum Status {
    Ok,
    Err,
}
`

func TestRustExtractor_Symbols(t *testing.T) {
	tree, closeFn := parseFixture(t, langdispatch.Rust, rustFixture)
	defer closeFn()

	summary, err := rustExtractor{}.Extract("sample.rs", []byte(rustFixture), tree, langdispatch.Rust)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var process, helper, record, status *semtypes.SymbolInfo
	for i := range summary.Symbols {
		switch summary.Symbols[i].Name {
		case "process":
			process = &summary.Symbols[i]
		case "private_helper":
			helper = &summary.Symbols[i]
		case "Record":
			record = &summary.Symbols[i]
		case "Status":
			status = &summary.Symbols[i]
		}
	}
	if process == nil || helper == nil || record == nil || status == nil {
		t.Fatalf("expected process, private_helper, Record and Status symbols, got %+v", summary.Symbols)
	}
	if !process.IsExported {
		t.Errorf("expected process to be pub/exported")
	}
	if helper.IsExported {
		t.Errorf("expected private_helper to not be exported")
	}
	if record.Kind != semtypes.SymbolStruct {
		t.Errorf("expected Record to be a struct, got %s", record.Kind)
	}
	if status.Kind != semtypes.SymbolEnum {
		t.Errorf("expected Status to be an enum, got %s", status.Kind)
	}
	if len(process.ControlFlow) == 0 {
		t.Errorf("expected at least one control flow change (match) in process")
	}

	found := false
	for _, dep := range summary.AddedDependencies {
		if dep == "use std::collections::HashMap;" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected use declaration recorded, got %v", summary.AddedDependencies)
	}
}

func TestRustExtractor_Calls(t *testing.T) {
	tree, closeFn := parseFixture(t, langdispatch.Rust, rustFixture)
	defer closeFn()

	summary, err := rustExtractor{}.Extract("sample.rs", []byte(rustFixture), tree, langdispatch.Rust)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, c := range summary.Calls {
		if c.Name == "len" && c.Object == "input" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected input.len() call, got %v", summary.Calls)
	}
}
