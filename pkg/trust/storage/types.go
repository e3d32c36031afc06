package storage

import (
	"context"
	"fmt"
	"time"

	"mercator-hq/janus/pkg/decision"
)

// Profile is the per-(caller, domain) trust accumulator state.
//
// Successes and Failures are Laplace-smoothed pseudo-counts: both start at 1
// and never drop below 1. The mean Successes/(Successes+Failures) is the
// undecayed trust estimate; decay against UpdatedAt happens in the scorer.
type Profile struct {
	CallerID  string
	Domain    decision.Domain
	Successes float64
	Failures  float64
	UpdatedAt time.Time
	CreatedAt time.Time
}

// NewProfile creates a fresh profile with the smoothed prior (1, 1).
func NewProfile(callerID string, domain decision.Domain, now time.Time) *Profile {
	return &Profile{
		CallerID:  callerID,
		Domain:    domain,
		Successes: 1,
		Failures:  1,
		UpdatedAt: now,
		CreatedAt: now,
	}
}

// Mean returns the undecayed trust estimate.
func (p *Profile) Mean() float64 {
	total := p.Successes + p.Failures
	if total <= 0 {
		return 0
	}
	return p.Successes / total
}

// Validate checks the accumulator invariants. A violation indicates a
// programming bug, not a recoverable runtime condition.
func (p *Profile) Validate() error {
	if p.CallerID == "" {
		return fmt.Errorf("caller id cannot be empty")
	}
	if p.Domain == "" {
		return fmt.Errorf("domain cannot be empty")
	}
	if p.Successes < 1 || p.Failures < 1 {
		return fmt.Errorf("accumulators must stay at or above the smoothed prior: successes=%f failures=%f",
			p.Successes, p.Failures)
	}
	return nil
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	c := *p
	return &c
}

// Key identifies one profile.
type Key struct {
	CallerID string
	Domain   decision.Domain
}

// Store persists trust profiles.
//
// Update must be atomic per key: the modify function runs against the current
// profile (a fresh one if none exists) and its result is stored only when it
// returns nil. Updates to different keys must not block each other.
type Store interface {
	// Get returns the profile for a key, or nil if none exists.
	Get(ctx context.Context, callerID string, domain decision.Domain) (*Profile, error)

	// Update applies an atomic read-modify-write to the profile for a key.
	// A missing profile is materialized with the smoothed prior before fn
	// runs. If fn returns an error the profile is left unchanged.
	Update(ctx context.Context, callerID string, domain decision.Domain, fn func(*Profile) error) error

	// HasCaller reports whether any profile exists for the caller in any
	// domain. The scorer uses this to tell strangers apart from known
	// callers entering a new domain.
	HasCaller(ctx context.Context, callerID string) (bool, error)

	// Keys returns the keys of all stored profiles.
	Keys(ctx context.Context) ([]Key, error)

	// Close releases any resources held by the store.
	Close() error
}
