// Package storage provides ledger backends for knowledge records.
//
// The ledger is append-only: records are written once by ingestion or
// seeding and read many times by the estimator. MemoryLedger serves tests
// and ephemeral deployments; SQLiteLedger persists records for
// single-instance deployments.
package storage
