// Package knowledge estimates mutual knowledge: how much a caller already
// knows about the topic they are asking about.
//
// The estimator blends four signals into a score in [0, 1]: a neutral base,
// a lexical boost when the utterance carries markers of prior shared context
// ("we spoke", "you mentioned", "remember"), confidence-weighted overlap
// with the knowledge ledger (facts the caller is recorded as knowing), and a
// relationship affinity bonus when the caller is associated with the domain.
//
// The ledger itself is append-only and written by an external ingestion
// process; the estimator only reads it. A failed ledger read degrades the
// estimate to the non-ledger signals rather than failing the call.
package knowledge
