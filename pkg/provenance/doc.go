// Package provenance verifies whether an utterance's referent has a
// verifiable evidentiary record.
//
// Provenance records attach verbatim transcript fragments to a semantic key
// (a normalized topic phrase); several records may share one key. Matching
// an utterance against keys is substring containment in both directions,
// deliberately loose: recall is preferred over precision, and false
// positives are damped by confidence weighting downstream rather than by a
// stricter matcher.
//
// A record's verified flag moves one way only, from false to true.
package provenance
