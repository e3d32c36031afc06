package trust

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"mercator-hq/janus/pkg/decision"
	"mercator-hq/janus/pkg/trust/storage"
)

const (
	// DefaultRetention is the per-day decay factor applied to the mean.
	DefaultRetention = 0.98

	// DefaultUnknownCallerScore is the score for a caller with no profile
	// in any domain.
	DefaultUnknownCallerScore = 0.1

	// DefaultNewDomainScore is the score for a known caller with no profile
	// in the requested domain.
	DefaultNewDomainScore = 0.3
)

// Band boundaries. Fixed classification cut points, independent of the
// per-domain disclosure thresholds.
const (
	greenFloor = 0.80
	amberFloor = 0.55
)

// BandFor classifies a trust score. The bands are exhaustive and
// non-overlapping: Green at or above 0.80, Amber in [0.55, 0.80), Red below.
func BandFor(score float64) decision.TrustBand {
	switch {
	case score >= greenFloor:
		return decision.TrustBandGreen
	case score >= amberFloor:
		return decision.TrustBandAmber
	default:
		return decision.TrustBandRed
	}
}

// Config configures the trust scorer.
type Config struct {
	// Retention is the per-day decay factor in (0, 1]. Default: 0.98.
	Retention float64

	// UnknownCallerScore is the default for callers with no profile at all.
	UnknownCallerScore float64

	// NewDomainScore is the default for known callers with no profile in
	// the requested domain.
	NewDomainScore float64
}

// ApplyDefaults fills zero-valued fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.Retention == 0 {
		c.Retention = DefaultRetention
	}
	if c.UnknownCallerScore == 0 {
		c.UnknownCallerScore = DefaultUnknownCallerScore
	}
	if c.NewDomainScore == 0 {
		c.NewDomainScore = DefaultNewDomainScore
	}
}

// Validate checks configuration bounds.
func (c *Config) Validate() error {
	if c.Retention <= 0 || c.Retention > 1 {
		return fmt.Errorf("retention must be in (0, 1], got %f", c.Retention)
	}
	if c.UnknownCallerScore < 0 || c.UnknownCallerScore > 1 {
		return fmt.Errorf("unknown caller score must be in [0, 1], got %f", c.UnknownCallerScore)
	}
	if c.NewDomainScore < 0 || c.NewDomainScore > 1 {
		return fmt.Errorf("new domain score must be in [0, 1], got %f", c.NewDomainScore)
	}
	return nil
}

// Scorer computes decayed trust scores and records outcome feedback.
// It is safe for concurrent use; all mutable state lives in the store.
type Scorer struct {
	store  storage.Store
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewScorer creates a trust scorer backed by the given store.
func NewScorer(store storage.Store, cfg Config, logger *slog.Logger) (*Scorer, error) {
	if store == nil {
		return nil, fmt.Errorf("trust store cannot be nil")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid trust config: %w", err)
	}
	if logger == nil {
		logger = slog.Default().With("component", "trust")
	}

	return &Scorer{
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Score returns the decayed trust score for a caller in a domain.
//
// A stored profile yields clamp01(mean * retention^days_since_update). With
// no profile, the score falls back to the new-domain default when the caller
// is known elsewhere, and the unknown-caller default otherwise.
func (s *Scorer) Score(ctx context.Context, callerID string, domain decision.Domain) (float64, error) {
	profile, err := s.store.Get(ctx, callerID, domain)
	if err != nil {
		return 0, fmt.Errorf("failed to load trust profile: %w", err)
	}

	if profile == nil {
		known, err := s.store.HasCaller(ctx, callerID)
		if err != nil {
			return 0, fmt.Errorf("failed to check caller: %w", err)
		}
		if known {
			return s.cfg.NewDomainScore, nil
		}
		return s.cfg.UnknownCallerScore, nil
	}

	days := s.now().Sub(profile.UpdatedAt).Hours() / 24
	if days < 0 {
		days = 0
	}
	decay := math.Pow(s.cfg.Retention, days)

	return clamp01(profile.Mean() * decay), nil
}

// RecordOutcome feeds an observed interaction outcome back into the profile.
// Success and failure are independent: a partially trustworthy interaction
// may set both. A zero timestamp means now. Recording is additive, so
// retrying a failed call is safe.
func (s *Scorer) RecordOutcome(ctx context.Context, callerID string, domain decision.Domain, success, failure bool, ts time.Time) error {
	if callerID == "" {
		return fmt.Errorf("caller id cannot be empty")
	}
	if domain == "" {
		return fmt.Errorf("domain cannot be empty")
	}
	if !success && !failure {
		return nil
	}
	if ts.IsZero() {
		ts = s.now()
	}

	err := s.store.Update(ctx, callerID, domain, func(p *storage.Profile) error {
		if success {
			p.Successes++
		}
		if failure {
			p.Failures++
		}
		p.UpdatedAt = ts
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record outcome: %w", err)
	}

	s.logger.Debug("recorded trust outcome",
		"caller_id", callerID,
		"domain", domain,
		"success", success,
		"failure", failure,
	)

	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
