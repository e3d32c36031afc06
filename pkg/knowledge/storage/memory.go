package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/janus/pkg/knowledge"
)

// MemoryLedger implements knowledge.Ledger with in-memory storage.
// All data is lost when the process exits.
type MemoryLedger struct {
	records []*knowledge.Record
	mu      sync.RWMutex
}

// NewMemoryLedger creates an empty in-memory knowledge ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

// Scan returns all records passing the query's filters.
func (m *MemoryLedger) Scan(ctx context.Context, q knowledge.Query) ([]*knowledge.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*knowledge.Record
	for _, rec := range m.records {
		if q.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Append adds a record to the ledger. A missing ID or timestamp is filled in.
func (m *MemoryLedger) Append(ctx context.Context, rec *knowledge.Record) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid knowledge record: %w", err)
	}

	stored := *rec
	stored.KnownBy = append([]string(nil), rec.KnownBy...)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.Timestamp.IsZero() {
		stored.Timestamp = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, &stored)
	return nil
}

// Size returns the number of stored records.
func (m *MemoryLedger) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// Close releases any resources held by the ledger.
func (m *MemoryLedger) Close() error {
	return nil
}
