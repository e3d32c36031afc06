// Package storage provides persistence backends for trust profiles.
//
// A trust profile is keyed by (caller, domain) and holds two Laplace-smoothed
// accumulators of observed trustworthy and untrustworthy behavior. The Store
// interface exposes an atomic per-key read-modify-write so that concurrent
// outcome recording and decay sweeps never lose updates, and a key scan so
// the decay sweeper can walk all profiles in chunks.
//
// Two backends are provided: MemoryStore for tests and ephemeral deployments,
// and SQLiteStore for single-instance deployments that need trust to survive
// restarts.
package storage
