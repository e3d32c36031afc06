package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"mercator-hq/janus/pkg/decision"
)

// backends builds one instance of every Store implementation for matrix tests.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "trust.db"))
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStore_GetMissingProfile(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			p, err := store.Get(context.Background(), "stranger", decision.DomainHealth)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if p != nil {
				t.Errorf("expected nil profile, got %+v", p)
			}
		})
	}
}

func TestStore_UpdateCreatesAndMutates(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			err := store.Update(ctx, "spouse", decision.DomainFamily, func(p *Profile) error {
				if p.Successes != 1 || p.Failures != 1 {
					t.Errorf("fresh profile should carry the prior, got %+v", p)
				}
				p.Successes += 3
				return nil
			})
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}

			p, err := store.Get(ctx, "spouse", decision.DomainFamily)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if p == nil {
				t.Fatal("expected profile after update")
			}
			if p.Successes != 4 || p.Failures != 1 {
				t.Errorf("accumulators = (%f, %f), want (4, 1)", p.Successes, p.Failures)
			}
			if got := p.Mean(); got != 0.8 {
				t.Errorf("Mean() = %f, want 0.8", got)
			}
		})
	}
}

func TestStore_UpdateErrorLeavesProfileUnchanged(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := store.Update(ctx, "spouse", decision.DomainFamily, func(p *Profile) error {
				p.Successes = 5
				return nil
			}); err != nil {
				t.Fatalf("seed Update() error = %v", err)
			}

			wantErr := fmt.Errorf("boom")
			err := store.Update(ctx, "spouse", decision.DomainFamily, func(p *Profile) error {
				p.Successes = 100
				return wantErr
			})
			if err == nil {
				t.Fatal("expected update error to propagate")
			}

			p, err := store.Get(ctx, "spouse", decision.DomainFamily)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if p.Successes != 5 {
				t.Errorf("Successes = %f, want 5 (failed update must not persist)", p.Successes)
			}
		})
	}
}

func TestStore_UpdateRejectsInvariantViolation(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			err := store.Update(context.Background(), "spouse", decision.DomainFamily, func(p *Profile) error {
				p.Successes = 0.2 // Below the smoothed prior.
				return nil
			})
			if err == nil {
				t.Fatal("expected invariant violation error")
			}
		})
	}
}

func TestStore_HasCaller(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := store.Update(ctx, "grandmother", decision.DomainFinance, func(p *Profile) error {
				return nil
			}); err != nil {
				t.Fatalf("Update() error = %v", err)
			}

			known, err := store.HasCaller(ctx, "grandmother")
			if err != nil {
				t.Fatalf("HasCaller() error = %v", err)
			}
			if !known {
				t.Error("grandmother should be a known caller")
			}

			known, err = store.HasCaller(ctx, "stranger")
			if err != nil {
				t.Fatalf("HasCaller() error = %v", err)
			}
			if known {
				t.Error("stranger should not be a known caller")
			}
		})
	}
}

func TestStore_Keys(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			seed := []Key{
				{CallerID: "spouse", Domain: decision.DomainFamily},
				{CallerID: "spouse", Domain: decision.DomainFinance},
				{CallerID: "grandmother", Domain: decision.DomainFinance},
			}
			for _, k := range seed {
				if err := store.Update(ctx, k.CallerID, k.Domain, func(p *Profile) error {
					return nil
				}); err != nil {
					t.Fatalf("Update(%v) error = %v", k, err)
				}
			}

			keys, err := store.Keys(ctx)
			if err != nil {
				t.Fatalf("Keys() error = %v", err)
			}
			if len(keys) != len(seed) {
				t.Fatalf("len(Keys()) = %d, want %d", len(keys), len(seed))
			}
			got := make(map[Key]bool, len(keys))
			for _, k := range keys {
				got[k] = true
			}
			for _, k := range seed {
				if !got[k] {
					t.Errorf("missing key %v", k)
				}
			}
		})
	}
}

func TestStore_ConcurrentUpdatesSameKey(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			const workers = 8
			const perWorker = 25

			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < perWorker; j++ {
						_ = store.Update(ctx, "spouse", decision.DomainFamily, func(p *Profile) error {
							p.Successes++
							return nil
						})
					}
				}()
			}
			wg.Wait()

			p, err := store.Get(ctx, "spouse", decision.DomainFamily)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			want := float64(1 + workers*perWorker)
			if p.Successes != want {
				t.Errorf("Successes = %f, want %f (lost updates)", p.Successes, want)
			}
		})
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trust.db")

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	err = store.Update(context.Background(), "spouse", decision.DomainFamily, func(p *Profile) error {
		p.Successes = 9
		p.UpdatedAt = ts
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer reopened.Close()

	p, err := reopened.Get(context.Background(), "spouse", decision.DomainFamily)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p == nil {
		t.Fatal("expected profile to survive reopen")
	}
	if p.Successes != 9 {
		t.Errorf("Successes = %f, want 9", p.Successes)
	}
	if !p.UpdatedAt.Equal(ts) {
		t.Errorf("UpdatedAt = %v, want %v", p.UpdatedAt, ts)
	}
}
