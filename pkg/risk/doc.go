// Package risk folds trust, mutual knowledge, sensitivity and security
// classification into a qualitative risk level.
//
// Risk is scored additively from independent weighted factors and bucketed
// into LOW, MEDIUM and HIGH. The package also plans response strategies for
// risky interactions: a small registered table of influence strategies
// (reciprocity, coordination, deflection) selected by attribute matching,
// always constrained by non-negotiable guardrails.
package risk
