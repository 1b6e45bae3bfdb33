package idcodec

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/standardbeagle/lci/internal/semtypes"
)

// FNV-1a 64-bit constants (§3.2). Matching the original implementation's
// constants bit for bit keeps hashes reproducible across ports.
const (
	fnvOffset uint64 = 0xcbf29ce484222325
	fnvPrime  uint64 = 0x100000001b3
)

// fnv1a hashes a string with 64-bit FNV-1a.
func fnv1a(s string) uint64 {
	h := fnvOffset
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= fnvPrime
	}
	return h
}

// namespaceRoots are stripped from the front of a relative path when
// deriving a symbol's namespace, mirroring the original's root list.
var namespaceRoots = map[string]bool{
	"src":  true,
	"lib":  true,
	".":    true,
	"..":   true,
	"app":  true,
	"pages": true,
}

// NamespaceFromPath derives a symbol's namespace from its file path: the
// path with its extension dropped and any leading root segment (src, lib,
// app, pages, ., ..) stripped. A path with nothing left after stripping
// falls back to the file's stem.
func NamespaceFromPath(filePath string) string {
	clean := filepath_ToSlash(filePath)
	ext := path.Ext(clean)
	trimmed := strings.TrimSuffix(clean, ext)

	segments := strings.Split(trimmed, "/")
	for len(segments) > 1 && namespaceRoots[segments[0]] {
		segments = segments[1:]
	}
	ns := strings.Join(segments, "/")
	if ns == "" {
		base := path.Base(clean)
		return strings.TrimSuffix(base, ext)
	}
	return ns
}

// filepath_ToSlash normalizes path separators without importing
// path/filepath, whose Ext/Base are platform-dependent on separators; the
// inputs here are always repo-relative and slash-separated once normalized.
func filepath_ToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// ComputeHash computes a symbol's 16-hex-character identity hash from its
// namespace, name, kind and arity (§3.2). The hash input is the literal
// "namespace:symbol:kind:arity" string, matching the original schema.
func ComputeHash(namespace, symbol string, kind semtypes.SymbolKind, arity int) semtypes.SymbolID {
	input := fmt.Sprintf("%s:%s:%s:%d", namespace, symbol, kind, arity)
	return semtypes.SymbolID(fmt.Sprintf("%016x", fnv1a(input)))
}

// Identity builds the full SymbolIdentity for a symbol found in a file,
// computing its namespace and hash in one step.
func Identity(filePath string, info semtypes.SymbolInfo) semtypes.SymbolIdentity {
	ns := NamespaceFromPath(filePath)
	arity := info.Arity()
	return semtypes.SymbolIdentity{
		Hash:      ComputeHash(ns, info.Name, info.Kind, arity),
		Namespace: ns,
		Symbol:    info.Name,
		Kind:      info.Kind,
		Arity:     arity,
	}
}

// RepoHash computes the 16-hex-character cache-directory name for a repo
// (§6.1): FNV-1a over the canonical absolute repo path.
func RepoHash(absRepoPath string) string {
	return fmt.Sprintf("%016x", fnv1a(absRepoPath))
}

// CalleeToken canonicalizes a call-graph edge target into the
// "ext:<package>:<symbol>" / "ext:<symbol>" token form used when a callee
// cannot be resolved to a local symbol hash (§4.3). Edge kind suffixes
// (e.g. ":await", ":try") are appended by the caller, not here, so the same
// token can be reused across edge kinds for a given callee.
func CalleeToken(pkg, symbol string) string {
	if pkg == "" {
		return "ext:" + symbol
	}
	return fmt.Sprintf("ext:%s:%s", pkg, symbol)
}

// FingerprintSet computes a 64-bit FNV-1a fingerprint over a set of strings,
// sorted and deduplicated first so two equal sets always fingerprint equal
// regardless of input order (§3.5: duplicate detection, security matching
// and CVE compilation all key off this same identity function).
func FingerprintSet(items []string) uint64 {
	sorted := SortCalleeTokens(items)
	return fnv1a(strings.Join(sorted, ","))
}

// SortCalleeTokens orders a call graph edge's callee tokens lexicographically
// and drops duplicates (§4.3: edge lists must be stable across re-indexing
// runs so TOON shard diffs stay minimal). The input slice is not mutated.
func SortCalleeTokens(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
