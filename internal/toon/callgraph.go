package toon

import "strings"

// CallGraphEdges writes the call_graph.toon body: one line per caller, in
// the order callers are given, each listing its callees as a bracketed,
// comma-separated list (§6.4). Callers are expected to have already sorted
// both the caller order and each callee slice for byte-identical output
// given identical input (§4.5's ordering guarantee).
func (e *Encoder) CallGraphEdges(callerHash string, callees []string) *Encoder {
	e.RawLine(callerHash + ": [" + strings.Join(callees, ", ") + "]")
	return e
}
