// Package engine is the decision orchestrator: the single entry point that
// turns a disclosure request into an immutable Decision.
//
// Evaluate runs a fixed pipeline (policy, mutual knowledge, trust,
// provenance, security classification, risk) and folds each evaluator's
// result into a running decision state. The state starts at the optimistic
// Disclose and each stage can only restrict it to an equal-or-more-severe
// outcome, so a veto applied early can never be undone later. Every call
// produces exactly one Decision; the engine keeps no state between calls.
//
// Evaluator stores may fail without failing the call: the engine degrades
// to the most conservative evaluator default, marks the decision with a
// degradation reason code, and lets the reduced confidence speak for
// itself.
package engine
