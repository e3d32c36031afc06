// Package source provides rule-table sources for the policy evaluator:
// a file source with fsnotify-based hot reload and a static in-memory
// source for tests and embedding.
//
// For GitOps-style rule management, see the sibling git package, which
// serves rules from a polled repository checkout through the same
// policy.Source interface.
package source
