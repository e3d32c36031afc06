// Package storage provides ledger backends for provenance records.
//
// The ledger is append-plus-verify: records are written once and only their
// verified flag ever changes, monotonically from false to true.
// MemoryLedger serves tests and ephemeral deployments; SQLiteLedger
// persists records for single-instance deployments.
package storage
