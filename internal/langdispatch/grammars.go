package langdispatch

import (
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
	tree_sitter_zig "github.com/tree-sitter-grammars/tree-sitter-zig/bindings/go"
)

// grammarOf returns the raw tree-sitter language pointer for a Lang, or nil
// when no grammar is wired (Dockerfile is text-based by design, §9; Kotlin
// has no official Go bindings as of the teacher's dependency set — see
// DESIGN.md).
func grammarOf(l Lang) *sitter.Language {
	switch l {
	case TypeScript:
		return sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	case Tsx:
		return sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	case JavaScript, Jsx:
		return sitter.NewLanguage(tree_sitter_javascript.Language())
	case Rust:
		return sitter.NewLanguage(tree_sitter_rust.Language())
	case Python:
		return sitter.NewLanguage(tree_sitter_python.Language())
	case Go:
		return sitter.NewLanguage(tree_sitter_go.Language())
	case Java:
		return sitter.NewLanguage(tree_sitter_java.Language())
	case Cpp, C:
		return sitter.NewLanguage(tree_sitter_cpp.Language())
	default:
		return additionalGrammar(l)
	}
}

// additionalGrammar covers grammars the teacher's go.mod carries for
// languages outside the spec's own table (C#, PHP, Zig). Nothing in
// langdispatch's extension table routes to these yet, but registering them
// here keeps every grammar dependency the teacher pulled in reachable
// through one hook, per SPEC_FULL §4.1, instead of leaving them unimported
// dead weight.
func additionalGrammar(l Lang) *sitter.Language {
	switch l {
	case "csharp":
		return sitter.NewLanguage(tree_sitter_csharp.Language())
	case "php":
		return sitter.NewLanguage(tree_sitter_php.Language())
	case "zig":
		return sitter.NewLanguage(tree_sitter_zig.Language())
	default:
		return nil
	}
}

// NewParser builds a ready-to-use tree-sitter parser for a language. It
// returns (nil, false) for languages without a wired grammar so the caller
// can fall back to raw_fallback extraction (§3.1 extraction_complete=false).
func NewParser(l Lang) (*sitter.Parser, bool) {
	lang := grammarOf(l)
	if lang == nil {
		return nil, false
	}
	p := sitter.NewParser()
	if err := p.SetLanguage(lang); err != nil {
		return nil, false
	}
	return p, true
}

// Language exposes the raw tree-sitter language, e.g. for building
// tree-sitter queries against it (locals.scm, extraction queries).
func Language(l Lang) (*sitter.Language, bool) {
	lang := grammarOf(l)
	return lang, lang != nil
}
