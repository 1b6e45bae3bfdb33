package toon

import (
	"strings"
	"testing"
)

func TestEncoder_Header(t *testing.T) {
	e := NewEncoder(TypeSymbol)
	out := e.String()
	if !strings.HasPrefix(out, "_type: Symbol\nversion: "+PackageVersion+"\n") {
		t.Fatalf("unexpected header: %q", out)
	}
}

func TestEncoder_Field_QuotingRules(t *testing.T) {
	e := NewEncoder(TypeModule)
	e.Field("name", "plain")
	e.Field("path", "has space")
	e.Field("list_like", "a,b")
	out := e.String()
	if !strings.Contains(out, "name: plain\n") {
		t.Errorf("expected unquoted plain value, got %q", out)
	}
	if !strings.Contains(out, `path: "has space"`) {
		t.Errorf("expected quoted value with space, got %q", out)
	}
	if !strings.Contains(out, `list_like: "a,b"`) {
		t.Errorf("expected quoted value with comma, got %q", out)
	}
}

func TestEncoder_Object_Indents(t *testing.T) {
	e := NewEncoder(TypeSymbol)
	e.Object("location", func(e *Encoder) {
		e.IntField("line", 10)
		e.IntField("column", 4)
	})
	out := e.String()
	if !strings.Contains(out, "location:\n  line: 10\n  column: 4\n") {
		t.Errorf("unexpected object encoding: %q", out)
	}
}

func TestEncoder_Table(t *testing.T) {
	e := NewEncoder(TypeModule)
	e.Table("symbols", []string{"hash", "name"}, []Row{
		{"abc123", "foo"},
		{"def456", "bar"},
	})
	out := e.String()
	if !strings.Contains(out, "symbols[2]{hash,name}:\n  abc123,foo\n  def456,bar\n") {
		t.Errorf("unexpected table encoding: %q", out)
	}
}

func TestEncoder_CallGraphEdges(t *testing.T) {
	e := NewEncoder(TypeCallGraph)
	e.CallGraphEdges("abc123", []string{"def456", "ext:fmt:Println"})
	out := e.String()
	if !strings.Contains(out, "abc123: [def456, ext:fmt:Println]\n") {
		t.Errorf("unexpected call graph encoding: %q", out)
	}
}

func TestNeedsQuoting(t *testing.T) {
	cases := map[string]bool{
		"plain":     false,
		"":          false,
		"a b":       true,
		" leading":  true,
		"trailing ": true,
		"a,b":       true,
		"a:b":       true,
	}
	for in, want := range cases {
		if got := needsQuoting(in); got != want {
			t.Errorf("needsQuoting(%q) = %v, want %v", in, got, want)
		}
	}
}
