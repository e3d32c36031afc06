// Package decision defines the shared vocabulary of the disclosure-decision
// engine: the request context that enters the orchestrator, the immutable
// Decision record it emits, and the closed enumerations (outcomes, reason
// codes, topic domains, security classifications, trust bands) that every
// evaluator speaks.
//
// All types in this package are plain data. Behavior lives in the evaluator
// packages (policy, trust, knowledge, provenance, risk) and in the
// orchestrator (engine).
package decision
