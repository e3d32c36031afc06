// Package decay implements the periodic trust decay sweep.
//
// The sweep shrinks every profile's accumulators toward the smoothed prior
// by retention^elapsed_days, flooring at the prior. Shrinking preserves the
// success/failure ratio approximately while reducing the weight of old
// evidence, so confidence fades when no new outcomes arrive. The sweep is
// idempotent: it stamps each profile with the sweep time, and a re-run over
// freshly stamped profiles is a no-op.
package decay

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"mercator-hq/janus/pkg/trust/storage"
)

const (
	// DefaultChunkSize is the number of profiles decayed per chunk.
	DefaultChunkSize = 100

	// minElapsed is the smallest staleness worth decaying. Profiles updated
	// more recently are skipped, which keeps re-runs cheap.
	minElapsed = time.Minute
)

// SweeperConfig configures the decay sweep.
type SweeperConfig struct {
	// Retention is the per-day decay factor in (0, 1].
	Retention float64

	// ChunkSize bounds how many profiles are updated between context
	// checks, so a sweep over a large store stays cancellable.
	// Default: 100.
	ChunkSize int

	// Metrics receives sweep counters. Nil disables instrumentation.
	Metrics *Metrics
}

// Stats summarizes one sweep run.
type Stats struct {
	// Scanned is the number of profile keys visited.
	Scanned int

	// Decayed is the number of profiles actually shrunk.
	Decayed int

	// Skipped is the number of profiles too fresh to decay.
	Skipped int

	// Errors is the number of per-profile update failures.
	Errors int

	// Duration is the wall time of the sweep.
	Duration time.Duration
}

// Sweeper walks all trust profiles and applies time decay.
type Sweeper struct {
	store  storage.Store
	cfg    SweeperConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewSweeper creates a decay sweeper.
func NewSweeper(store storage.Store, cfg SweeperConfig, logger *slog.Logger) (*Sweeper, error) {
	if store == nil {
		return nil, fmt.Errorf("trust store cannot be nil")
	}
	if cfg.Retention <= 0 || cfg.Retention > 1 {
		return nil, fmt.Errorf("retention must be in (0, 1], got %f", cfg.Retention)
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if logger == nil {
		logger = slog.Default().With("component", "trust.decay")
	}

	return &Sweeper{
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Sweep decays all profiles in chunks. Cancelling the context stops the
// sweep between chunks; profiles already decayed keep their new state, and
// a re-run picks up the remainder because decay is time-based and
// idempotent. Per-profile failures are counted and logged, not fatal.
func (s *Sweeper) Sweep(ctx context.Context) (*Stats, error) {
	start := s.now()

	keys, err := s.store.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list trust profiles: %w", err)
	}

	stats := &Stats{}
	for i, key := range keys {
		if i > 0 && i%s.cfg.ChunkSize == 0 {
			select {
			case <-ctx.Done():
				stats.Duration = s.now().Sub(start)
				return stats, ctx.Err()
			default:
			}
		}

		stats.Scanned++
		decayed, err := s.decayProfile(ctx, key)
		switch {
		case err != nil:
			stats.Errors++
			s.logger.Warn("failed to decay trust profile",
				"caller_id", key.CallerID,
				"domain", key.Domain,
				"error", err,
			)
		case decayed:
			stats.Decayed++
		default:
			stats.Skipped++
		}
	}

	stats.Duration = s.now().Sub(start)
	s.cfg.Metrics.observeSweep(stats)
	s.logger.Info("trust decay sweep completed",
		"scanned", stats.Scanned,
		"decayed", stats.Decayed,
		"skipped", stats.Skipped,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)

	return stats, nil
}

// decayProfile applies decay to a single profile under the store's atomic
// update.
func (s *Sweeper) decayProfile(ctx context.Context, key storage.Key) (bool, error) {
	decayed := false
	err := s.store.Update(ctx, key.CallerID, key.Domain, func(p *storage.Profile) error {
		now := s.now()
		elapsed := now.Sub(p.UpdatedAt)
		if elapsed < minElapsed {
			return nil
		}

		factor := math.Pow(s.cfg.Retention, elapsed.Hours()/24)

		// Shrink the evidence above the prior, never below it.
		p.Successes = math.Max(1, 1+(p.Successes-1)*factor)
		p.Failures = math.Max(1, 1+(p.Failures-1)*factor)
		p.UpdatedAt = now
		decayed = true
		return nil
	})
	return decayed, err
}
