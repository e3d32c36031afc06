package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"mercator-hq/janus/pkg/decision"
)

// Default scoring weights.
const (
	DefaultBaseScore      = 0.4
	DefaultIndicatorBoost = 0.2
	DefaultOverlapWeight  = 0.1
	DefaultAffinityBoost  = 0.15

	// StrictTruthMinConfidence is the confidence floor applied to
	// WhatDoesKnow lookups in strict-truth mode.
	StrictTruthMinConfidence = 0.75
)

// sharedContextMarkers are lexical indicators that the caller refers to
// prior shared context.
var sharedContextMarkers = []string{
	"we spoke",
	"we talked",
	"we discussed",
	"you mentioned",
	"you told me",
	"you said",
	"remember",
	"last time",
}

// Config configures the estimator's scoring weights.
type Config struct {
	// BaseScore is the neutral starting score. Default: 0.4.
	BaseScore float64

	// IndicatorBoost is added once when the utterance carries a shared
	// context marker. Default: 0.2.
	IndicatorBoost float64

	// OverlapWeight scales the per-record ledger contribution.
	// Default: 0.1.
	OverlapWeight float64

	// AffinityBoost is added when the caller's relationship is associated
	// with the domain. Default: 0.15.
	AffinityBoost float64
}

// ApplyDefaults fills zero-valued fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.BaseScore == 0 {
		c.BaseScore = DefaultBaseScore
	}
	if c.IndicatorBoost == 0 {
		c.IndicatorBoost = DefaultIndicatorBoost
	}
	if c.OverlapWeight == 0 {
		c.OverlapWeight = DefaultOverlapWeight
	}
	if c.AffinityBoost == 0 {
		c.AffinityBoost = DefaultAffinityBoost
	}
}

// Estimate is the result of one mutual-knowledge estimation.
type Estimate struct {
	// Score is the mutual-knowledge score in [0, 1].
	Score float64

	// Matches is the number of ledger records that contributed.
	Matches int

	// Degraded is set when the ledger was unreachable and only the
	// non-ledger signals contributed.
	Degraded bool
}

// KnowOptions filters a WhatDoesKnow lookup.
type KnowOptions struct {
	// Domain restricts the lookup to one topic domain.
	Domain decision.Domain

	// AsOf asks what was known at a past point in time.
	AsOf time.Time

	// StrictTruth raises the confidence floor to
	// StrictTruthMinConfidence.
	StrictTruth bool
}

// Estimator computes mutual-knowledge scores against a knowledge ledger.
// It is stateless apart from its configuration and safe for concurrent use.
type Estimator struct {
	ledger   Ledger
	cfg      Config
	affinity map[string]map[decision.Domain]bool
	logger   *slog.Logger
	now      func() time.Time
}

// NewEstimator creates a mutual-knowledge estimator. The affinity table maps
// caller identifiers to the domains their relationship is associated with
// (e.g. family members to the family domain).
func NewEstimator(ledger Ledger, cfg Config, affinity map[string][]decision.Domain, logger *slog.Logger) (*Estimator, error) {
	if ledger == nil {
		return nil, fmt.Errorf("knowledge ledger cannot be nil")
	}
	cfg.ApplyDefaults()
	if logger == nil {
		logger = slog.Default().With("component", "knowledge")
	}

	idx := make(map[string]map[decision.Domain]bool, len(affinity))
	for caller, domains := range affinity {
		set := make(map[decision.Domain]bool, len(domains))
		for _, d := range domains {
			set[d] = true
		}
		idx[caller] = set
	}

	return &Estimator{
		ledger:   ledger,
		cfg:      cfg,
		affinity: idx,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Estimate scores how much the caller already knows about the utterance's
// topic. A ledger failure is reported through the Degraded flag rather than
// an error: the estimate falls back to the lexical and affinity signals.
func (e *Estimator) Estimate(ctx context.Context, callerID, utterance string, domain decision.Domain) Estimate {
	score := e.cfg.BaseScore

	if hasSharedContextMarker(utterance) {
		score += e.cfg.IndicatorBoost
	}

	est := Estimate{}
	records, err := e.ledger.Scan(ctx, Query{Domain: domain, KnownBy: callerID})
	if err != nil {
		est.Degraded = true
		e.logger.Warn("knowledge ledger unavailable, estimating without it",
			"caller_id", callerID,
			"domain", domain,
			"error", err,
		)
	} else {
		now := e.now()
		normalized := normalize(utterance)
		for _, rec := range records {
			if !overlaps(normalized, normalize(rec.Fact)) {
				continue
			}
			score += e.cfg.OverlapWeight * rec.Confidence * recencyFactor(now.Sub(rec.Timestamp))
			est.Matches++
		}
	}

	if e.affinity[callerID][domain] {
		score += e.cfg.AffinityBoost
	}

	est.Score = clamp01(score)
	return est
}

// WhatDoesKnow returns the ledger records the target identity is known to
// possess, for audit and explanation surfaces. The asker is logged, not
// authorized here; access control belongs to the layer above.
func (e *Estimator) WhatDoesKnow(ctx context.Context, asker, target string, opts KnowOptions) ([]*Record, error) {
	if target == "" {
		return nil, fmt.Errorf("target identity cannot be empty")
	}

	q := Query{
		Domain:  opts.Domain,
		AsOf:    opts.AsOf,
		KnownBy: target,
	}
	if opts.StrictTruth {
		q.MinConfidence = StrictTruthMinConfidence
	}

	records, err := e.ledger.Scan(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge ledger: %w", err)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Timestamp.After(records[j].Timestamp)
	})

	e.logger.Debug("knowledge lookup",
		"asker", asker,
		"target", target,
		"domain", opts.Domain,
		"strict_truth", opts.StrictTruth,
		"record_count", len(records),
	)

	return records, nil
}

// recencyFactor discounts ledger evidence by age: full weight inside 30
// days, three quarters inside 180, half beyond.
func recencyFactor(age time.Duration) float64 {
	switch {
	case age < 30*24*time.Hour:
		return 1.0
	case age < 180*24*time.Hour:
		return 0.75
	default:
		return 0.5
	}
}

// hasSharedContextMarker reports whether the utterance contains a lexical
// indicator of prior shared context.
func hasSharedContextMarker(utterance string) bool {
	lower := strings.ToLower(utterance)
	for _, marker := range sharedContextMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// normalize lowercases and collapses whitespace so matching is insensitive
// to casing and formatting.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// overlaps reports containment in either direction. Loose on purpose:
// recall matters more than precision here, since every match is confidence-
// weighted downstream.
func overlaps(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
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
