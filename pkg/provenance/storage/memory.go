package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/janus/pkg/provenance"
)

// MemoryLedger implements provenance.Ledger with in-memory storage.
// All data is lost when the process exits.
type MemoryLedger struct {
	records map[string]*provenance.Record
	order   []string
	mu      sync.RWMutex
}

// NewMemoryLedger creates an empty in-memory provenance ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		records: make(map[string]*provenance.Record),
	}
}

// Scan returns all records in append order.
func (m *MemoryLedger) Scan(ctx context.Context) ([]*provenance.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*provenance.Record, 0, len(m.order))
	for _, id := range m.order {
		rec := *m.records[id]
		out = append(out, &rec)
	}
	return out, nil
}

// Append adds a record. A missing event id or timestamp is filled in.
func (m *MemoryLedger) Append(ctx context.Context, rec *provenance.Record) error {
	if rec == nil {
		return fmt.Errorf("record cannot be nil")
	}
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("invalid provenance record: %w", err)
	}

	stored := *rec
	if stored.EventID == "" {
		stored.EventID = uuid.NewString()
	}
	if stored.Timestamp.IsZero() {
		stored.Timestamp = time.Now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[stored.EventID]; exists {
		return fmt.Errorf("duplicate event id %q", stored.EventID)
	}
	m.records[stored.EventID] = &stored
	m.order = append(m.order, stored.EventID)
	return nil
}

// Get returns the record for an event id.
func (m *MemoryLedger) Get(ctx context.Context, eventID string) (*provenance.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[eventID]
	if !ok {
		return nil, provenance.ErrNotFound
	}
	out := *rec
	return &out, nil
}

// Verify marks the record verified, monotonically.
func (m *MemoryLedger) Verify(ctx context.Context, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[eventID]
	if !ok {
		return provenance.ErrNotFound
	}
	rec.Verified = true
	return nil
}

// Close releases any resources held by the ledger.
func (m *MemoryLedger) Close() error {
	return nil
}
