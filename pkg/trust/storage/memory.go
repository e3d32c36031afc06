package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mercator-hq/janus/pkg/decision"
)

// MemoryStore implements Store with in-memory storage. All data is lost when
// the process exits.
//
// Each profile carries its own lock, so concurrent updates to different
// (caller, domain) keys proceed in parallel; only the entry index itself is
// guarded by a store-wide lock.
type MemoryStore struct {
	entries map[Key]*memoryEntry
	mu      sync.RWMutex
	now     func() time.Time
}

type memoryEntry struct {
	mu      sync.Mutex
	profile *Profile
}

// NewMemoryStore creates an empty in-memory trust store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[Key]*memoryEntry),
		now:     time.Now,
	}
}

// Get returns a copy of the stored profile, or nil if none exists.
func (m *MemoryStore) Get(ctx context.Context, callerID string, domain decision.Domain) (*Profile, error) {
	if callerID == "" {
		return nil, fmt.Errorf("caller id cannot be empty")
	}
	if domain == "" {
		return nil, fmt.Errorf("domain cannot be empty")
	}

	m.mu.RLock()
	entry, ok := m.entries[Key{CallerID: callerID, Domain: domain}]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.profile.Clone(), nil
}

// Update applies fn to the profile under the entry's lock. A missing profile
// is materialized with the smoothed prior first.
func (m *MemoryStore) Update(ctx context.Context, callerID string, domain decision.Domain, fn func(*Profile) error) error {
	if callerID == "" {
		return fmt.Errorf("caller id cannot be empty")
	}
	if domain == "" {
		return fmt.Errorf("domain cannot be empty")
	}
	if fn == nil {
		return fmt.Errorf("update function cannot be nil")
	}

	key := Key{CallerID: callerID, Domain: domain}

	m.mu.Lock()
	entry, ok := m.entries[key]
	if !ok {
		entry = &memoryEntry{profile: NewProfile(callerID, domain, m.now())}
		m.entries[key] = entry
	}
	m.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	// Mutate a copy so a failed fn leaves the stored profile untouched.
	next := entry.profile.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("update produced invalid profile: %w", err)
	}

	entry.profile = next
	return nil
}

// HasCaller reports whether the caller has a profile in any domain.
func (m *MemoryStore) HasCaller(ctx context.Context, callerID string) (bool, error) {
	if callerID == "" {
		return false, fmt.Errorf("caller id cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for key := range m.entries {
		if key.CallerID == callerID {
			return true, nil
		}
	}
	return false, nil
}

// Keys returns all profile keys.
func (m *MemoryStore) Keys(ctx context.Context) ([]Key, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]Key, 0, len(m.entries))
	for key := range m.entries {
		keys = append(keys, key)
	}
	return keys, nil
}

// Size returns the number of stored profiles. Useful for monitoring and tests.
func (m *MemoryStore) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close releases any resources held by the store.
func (m *MemoryStore) Close() error {
	return nil
}
