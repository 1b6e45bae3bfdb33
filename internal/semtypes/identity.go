package semtypes

// SymbolID is the 16-hex-char stable identity of a symbol (§3.2). It is kept
// as a string because the hash is meant to travel through JSONL shards and
// TOON text unchanged; internal/idcodec is the only package that computes
// one of these from its components.
type SymbolID string

// SymbolIdentity carries the components a SymbolID was derived from,
// alongside the resulting hash. Kept around by the shard writer and the
// syncer so a symbol can be re-identified after an incremental
// reparse without walking the whole namespace derivation again.
type SymbolIdentity struct {
	Hash      SymbolID
	Namespace string
	Symbol    string
	Kind      SymbolKind
	Arity     int
}
