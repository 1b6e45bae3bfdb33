// Package toon implements a deterministic subset of the Token-Oriented
// Object Notation used for shard files (§4.6/§6.3): two-line headers,
// indented objects, and tabular blocks for uniform arrays.
//
// No Go (or Rust-independent) TOON library exists anywhere in the example
// pack — the original implementation wraps the Rust-only `rtoon` crate, so
// this encoder is hand-written against the spec's textual description and
// the field orderings enumerated in §6.
package toon

import (
	"fmt"
	"strconv"
	"strings"
)

// PackageVersion is emitted as the "version:" header line on every shard.
const PackageVersion = "0.1.0"

// KnownTypeNames are the shard header type tags (§6.3).
const (
	TypeRepoOverview = "RepoOverview"
	TypeModule       = "Module"
	TypeSymbol       = "Symbol"
	TypeCallGraph    = "CallGraph"
	TypeImportGraph  = "ImportGraph"
	TypeModuleGraph  = "ModuleGraph"
)

const indentUnit = "  "

// Encoder builds a TOON document incrementally. Every public method returns
// the Encoder so calls can be chained in field-order-declares-output style,
// matching the fixed per-record-type ordering §6 requires.
type Encoder struct {
	buf    strings.Builder
	indent int
}

// NewEncoder starts a new document with the standard two-line header.
func NewEncoder(typeName string) *Encoder {
	e := &Encoder{}
	e.buf.WriteString("_type: " + typeName + "\n")
	e.buf.WriteString("version: " + PackageVersion + "\n")
	return e
}

func (e *Encoder) writeIndent() {
	for i := 0; i < e.indent; i++ {
		e.buf.WriteString(indentUnit)
	}
}

// Field writes "key: value" with scalar quoting rules applied.
func (e *Encoder) Field(key string, value string) *Encoder {
	e.writeIndent()
	e.buf.WriteString(key)
	e.buf.WriteString(": ")
	e.buf.WriteString(quoteIfNeeded(value))
	e.buf.WriteString("\n")
	return e
}

// IntField writes an integer-valued field.
func (e *Encoder) IntField(key string, value int) *Encoder {
	e.writeIndent()
	e.buf.WriteString(key)
	e.buf.WriteString(": ")
	e.buf.WriteString(strconv.Itoa(value))
	e.buf.WriteString("\n")
	return e
}

// BoolField writes a boolean-valued field.
func (e *Encoder) BoolField(key string, value bool) *Encoder {
	e.writeIndent()
	e.buf.WriteString(key)
	e.buf.WriteString(": ")
	e.buf.WriteString(strconv.FormatBool(value))
	e.buf.WriteString("\n")
	return e
}

// ListField writes an inline comma-separated list of scalars: "key[N]: a,b,c".
// Used for small, non-tabular arrays (e.g. decorators, base classes).
func (e *Encoder) ListField(key string, values []string) *Encoder {
	e.writeIndent()
	fmt.Fprintf(&e.buf, "%s[%d]: ", key, len(values))
	for i, v := range values {
		if i > 0 {
			e.buf.WriteString(",")
		}
		e.buf.WriteString(quoteIfNeeded(v))
	}
	e.buf.WriteString("\n")
	return e
}

// Object opens a nested, indented block under key, runs fn to populate it,
// then closes the block. Nesting tracks the encoder's own indent counter so
// callers never manage indentation by hand.
func (e *Encoder) Object(key string, fn func(*Encoder)) *Encoder {
	e.writeIndent()
	e.buf.WriteString(key)
	e.buf.WriteString(":\n")
	e.indent++
	fn(e)
	e.indent--
	return e
}

// Row is one line of a tabular array: values in the same order as the
// header fields passed to Table.
type Row []string

// Table emits a uniform array as a single field header followed by one row
// per element (§4.6): "key[N]{f1,f2,...}:" then one indented comma-joined
// row per element.
func (e *Encoder) Table(key string, fields []string, rows []Row) *Encoder {
	e.writeIndent()
	fmt.Fprintf(&e.buf, "%s[%d]{%s}:\n", key, len(rows), strings.Join(fields, ","))
	e.indent++
	for _, row := range rows {
		e.writeIndent()
		for i, v := range row {
			if i > 0 {
				e.buf.WriteString(",")
			}
			e.buf.WriteString(quoteIfNeeded(v))
		}
		e.buf.WriteString("\n")
	}
	e.indent--
	return e
}

// RawLine writes a pre-formatted line verbatim at the current indent, used
// by the call-graph shard's "<hash>: [<callee>, ...]" lines (§6.4), whose
// shape does not fit the field/table model above.
func (e *Encoder) RawLine(line string) *Encoder {
	e.writeIndent()
	e.buf.WriteString(line)
	e.buf.WriteString("\n")
	return e
}

// String returns the finished document.
func (e *Encoder) String() string {
	return e.buf.String()
}

// Bytes returns the finished document as bytes, ready for an atomic
// temp-file + rename write (§4.5).
func (e *Encoder) Bytes() []byte {
	return []byte(e.buf.String())
}

// quoteIfNeeded quotes a scalar when it contains a comma, colon, brace,
// bracket, space, tab or newline, or has leading/trailing whitespace
// (§4.6).
func quoteIfNeeded(s string) string {
	if needsQuoting(s) {
		return strconv.Quote(s)
	}
	return s
}

func needsQuoting(s string) bool {
	if s == "" {
		return false
	}
	if strings.TrimSpace(s) != s {
		return true
	}
	for _, r := range s {
		switch r {
		case ',', ':', ' ', '\t', '\n', '{', '}', '[', ']':
			return true
		}
	}
	return false
}
