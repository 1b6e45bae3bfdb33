// Package duplicate implements the fingerprint contract from §3.5: building
// a FunctionSignature per symbol and a two-phase coarse/fine matcher over a
// batch of signatures. This stops at the contract boundary the spec draws —
// no CVE catalog, no boilerplate rule set beyond the name/call shape needed
// to fingerprint a symbol.
package duplicate

import (
	"strings"
	"unicode"

	"github.com/standardbeagle/lci/internal/idcodec"
	"github.com/standardbeagle/lci/internal/semtypes"
)

// utilityCallNames are low-signal calls excluded from business_calls (§3.5),
// grounded on the original's is_utility_call allow-list.
var utilityCallNames = map[string]bool{
	"console": true, "log": true, "debug": true, "info": true, "warn": true,
	"error": true, "print": true, "println": true, "trace": true,
	"len": true, "length": true, "size": true,
	"toString": true, "to_string": true, "clone": true,
	"map": true, "filter": true, "reduce": true, "forEach": true, "for_each": true,
	"push": true, "pop": true, "append": true, "extend": true,
	"iter": true, "into_iter": true, "collect": true,
	"unwrap": true, "expect": true, "ok": true, "err": true,
	"Some": true, "None": true, "Ok": true, "Err": true,
}

func isUtilityCall(name string) bool {
	return utilityCallNames[name]
}

func formatCallName(c semtypes.Call) string {
	if c.Object != "" {
		return c.Object + "." + c.Name
	}
	return c.Name
}

// tokenizeCamelSnake splits an identifier on underscores and camelCase
// boundaries: "handleUserLogin" -> ["handle", "user", "login"].
func tokenizeCamelSnake(name string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, strings.ToLower(cur.String()))
			cur.Reset()
		}
	}
	runes := []rune(name)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-':
			flush()
		case unicode.IsUpper(r) && i > 0 && !unicode.IsUpper(runes[i-1]):
			flush()
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// BuildSignature derives a FunctionSignature from a symbol's full info
// (§3.5). hash is the symbol's already-computed identity hash.
func BuildSignature(info semtypes.SymbolInfo, hash string) semtypes.FunctionSignature {
	var businessCalls []string
	for _, c := range info.Calls {
		if isUtilityCall(c.Name) {
			continue
		}
		businessCalls = append(businessCalls, formatCallName(c))
	}
	sortedCalls := idcodec.SortCalleeTokens(businessCalls)

	var cfKinds []string
	for _, cf := range info.ControlFlow {
		cfKinds = append(cfKinds, string(cf.Kind))
	}
	var stateNames []string
	for _, sc := range info.StateChanges {
		stateNames = append(stateNames, sc.Name)
	}

	lineCount := info.EndLine - info.StartLine + 1
	if lineCount < 0 {
		lineCount = 0
	}

	return semtypes.FunctionSignature{
		Hash:                   hash,
		NameTokens:             tokenizeCamelSnake(info.Name),
		CallFingerprint:        idcodec.FingerprintSet(sortedCalls),
		ControlFlowFingerprint: idcodec.FingerprintSet(cfKinds),
		StateFingerprint:       idcodec.FingerprintSet(stateNames),
		BusinessCalls:          sortedCalls,
		ParamCount:             info.Arity(),
		LineCount:              lineCount,
	}
}
