// Package langdispatch resolves a file path to a language tag, a family
// classification, and the tree-sitter grammar that parses it.
package langdispatch

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Lang is one of the supported language tags (§6.5).
type Lang string

const (
	TypeScript Lang = "typescript"
	Tsx        Lang = "tsx"
	JavaScript Lang = "javascript"
	Jsx        Lang = "jsx"
	Rust       Lang = "rust"
	Python     Lang = "python"
	Go         Lang = "go"
	Java       Lang = "java"
	C          Lang = "c"
	Cpp        Lang = "cpp"
	Kotlin     Lang = "kotlin"
	Html       Lang = "html"
	Css        Lang = "css"
	Scss       Lang = "scss"
	Json       Lang = "json"
	Yaml       Lang = "yaml"
	Toml       Lang = "toml"
	Xml        Lang = "xml"
	Hcl        Lang = "hcl"
	Markdown   Lang = "markdown"
	Vue        Lang = "vue"
	Bash       Lang = "bash"
	Gradle     Lang = "gradle"
	Dockerfile Lang = "dockerfile"
)

// Family groups languages that share an extraction pipeline (§4.2).
type Family string

const (
	FamilyJavaScript Family = "javascript"
	FamilyRust       Family = "rust"
	FamilyPython     Family = "python"
	FamilyGo         Family = "go"
	FamilyJava       Family = "java"
	FamilyCFamily    Family = "c_family"
	FamilyKotlin     Family = "kotlin"
	FamilyMarkup     Family = "markup"
	FamilyConfig     Family = "config"
	FamilyHcl        Family = "hcl"
	FamilyShell      Family = "shell"
	FamilyGradle     Family = "gradle"
)

// UnsupportedLanguageError is returned for unknown extensions (§7).
type UnsupportedLanguageError struct {
	Extension string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language for extension %q", e.Extension)
}

// extensionTable is the §6.5 extension -> language table, plus the
// Dockerfile special case (matched on basename, not extension, below).
var extensionTable = map[string]Lang{
	"rs":         Rust,
	"ts":         TypeScript,
	"mts":        TypeScript,
	"cts":        TypeScript,
	"tsx":        Tsx,
	"js":         JavaScript,
	"mjs":        JavaScript,
	"cjs":        JavaScript,
	"jsx":        Jsx,
	"py":         Python,
	"pyi":        Python,
	"go":         Go,
	"java":       Java,
	"c":          C,
	"h":          C,
	"cpp":        Cpp,
	"cc":         Cpp,
	"cxx":        Cpp,
	"hpp":        Cpp,
	"hxx":        Cpp,
	"hh":         Cpp,
	"kt":         Kotlin,
	"kts":        Kotlin,
	"html":       Html,
	"htm":        Html,
	"css":        Css,
	"scss":       Scss,
	"sass":       Scss,
	"json":       Json,
	"yaml":       Yaml,
	"yml":        Yaml,
	"toml":       Toml,
	"xml":        Xml,
	"xsd":        Xml,
	"xsl":        Xml,
	"xslt":       Xml,
	"svg":        Xml,
	"plist":      Xml,
	"pom":        Xml,
	"tf":         Hcl,
	"hcl":        Hcl,
	"tfvars":     Hcl,
	"md":         Markdown,
	"markdown":   Markdown,
	"vue":        Vue,
	"sh":         Bash,
	"bash":       Bash,
	"zsh":        Bash,
	"fish":       Bash,
	"gradle":     Gradle,
}

var familyTable = map[Lang]Family{
	TypeScript: FamilyJavaScript,
	Tsx:        FamilyJavaScript,
	JavaScript: FamilyJavaScript,
	Jsx:        FamilyJavaScript,
	Vue:        FamilyJavaScript,
	Rust:       FamilyRust,
	Python:     FamilyPython,
	Go:         FamilyGo,
	Java:       FamilyJava,
	Kotlin:     FamilyKotlin,
	C:          FamilyCFamily,
	Cpp:        FamilyCFamily,
	Html:       FamilyMarkup,
	Css:        FamilyMarkup,
	Scss:       FamilyMarkup,
	Markdown:   FamilyMarkup,
	Json:       FamilyConfig,
	Yaml:       FamilyConfig,
	Toml:       FamilyConfig,
	Xml:        FamilyConfig,
	Hcl:        FamilyHcl,
	Bash:       FamilyShell,
	Gradle:     FamilyGradle,
}

// Resolution is the (language, family) pair returned by Dispatch.
type Resolution struct {
	Lang   Lang
	Family Family
}

// Dispatch resolves a file path to its language and family. Matching is
// case-insensitive on the extension and honors compound extensions (.mjs,
// .tsx) because the lookup table keys on the full suffix after the last
// dot, not a stripped-down short form.
//
// Dockerfiles are matched on basename since they carry no extension; per
// §4.2 and §9 they use text-based extraction, so no grammar is attached.
func Dispatch(path string) (Resolution, error) {
	base := filepath.Base(path)
	if isDockerfileName(base) {
		return Resolution{Lang: Dockerfile, Family: FamilyShell}, nil
	}

	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	ext = strings.ToLower(ext)
	if ext == "" {
		return Resolution{}, &UnsupportedLanguageError{Extension: "none"}
	}

	lang, ok := extensionTable[ext]
	if !ok {
		return Resolution{}, &UnsupportedLanguageError{Extension: ext}
	}

	family, ok := familyTable[lang]
	if !ok {
		// Vue/Html share the HTML grammar as an outer container (§4.1);
		// the family table above covers every language we emit from
		// extensionTable, so this branch only guards future additions.
		return Resolution{}, &UnsupportedLanguageError{Extension: ext}
	}

	return Resolution{Lang: lang, Family: family}, nil
}

func isDockerfileName(base string) bool {
	lower := strings.ToLower(base)
	return lower == "dockerfile" || strings.HasPrefix(lower, "dockerfile.")
}

// SupportsJSX reports whether a language may contain JSX elements (§4.2).
func SupportsJSX(l Lang) bool {
	return l == Tsx || l == Jsx || l == Vue
}

// IsVueSFC reports whether a language is a Vue single-file component.
func IsVueSFC(l Lang) bool {
	return l == Vue
}

// Extensions returns the registered extensions for a language, used by the
// cache directory's glob-based discovery (§4.7).
func Extensions(l Lang) []string {
	var out []string
	for ext, lang := range extensionTable {
		if lang == l {
			out = append(out, ext)
		}
	}
	return out
}
