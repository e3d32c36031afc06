package provenance

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mercator-hq/janus/pkg/decision"
)

// Default confidence weights per matching record.
const (
	DefaultVerifiedWeight   = 0.3
	DefaultUnverifiedWeight = 0.1
)

// DefaultSensitiveDomains are the domains where any provenance match forces
// verification regardless of verified status.
var DefaultSensitiveDomains = []decision.Domain{
	decision.DomainFinance,
	decision.DomainHealth,
}

// Config configures the provenance verifier.
type Config struct {
	// VerifiedWeight is the confidence added per verified match.
	// Default: 0.3.
	VerifiedWeight float64

	// UnverifiedWeight is the confidence added per unverified match.
	// Default: 0.1.
	UnverifiedWeight float64

	// SensitiveDomains force RequiresVerification on any match.
	// Default: finance and health.
	SensitiveDomains []decision.Domain
}

// ApplyDefaults fills zero-valued fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.VerifiedWeight == 0 {
		c.VerifiedWeight = DefaultVerifiedWeight
	}
	if c.UnverifiedWeight == 0 {
		c.UnverifiedWeight = DefaultUnverifiedWeight
	}
	if c.SensitiveDomains == nil {
		c.SensitiveDomains = DefaultSensitiveDomains
	}
}

// Result reports what the ledger holds for an utterance.
type Result struct {
	// HasProvenance reports whether any record supports the utterance. In
	// strict mode only verified records count.
	HasProvenance bool

	// RequiresVerification is forced for matches in sensitive domains.
	RequiresVerification bool

	// EventIDs, Timestamps and Speakers describe the matching records, in
	// ledger order, index-aligned.
	EventIDs   []string
	Timestamps []time.Time
	Speakers   []string

	// Confidence accumulates per-record weights, capped at 1.0.
	Confidence float64

	// Degraded is set when the ledger was unreachable and provenance was
	// conservatively reported absent.
	Degraded bool
}

// Verifier checks utterances against the provenance ledger.
type Verifier struct {
	ledger    Ledger
	cfg       Config
	sensitive map[decision.Domain]bool
	logger    *slog.Logger
}

// NewVerifier creates a provenance verifier.
func NewVerifier(ledger Ledger, cfg Config, logger *slog.Logger) (*Verifier, error) {
	if ledger == nil {
		return nil, fmt.Errorf("provenance ledger cannot be nil")
	}
	cfg.ApplyDefaults()
	if logger == nil {
		logger = slog.Default().With("component", "provenance")
	}

	sensitive := make(map[decision.Domain]bool, len(cfg.SensitiveDomains))
	for _, d := range cfg.SensitiveDomains {
		sensitive[d] = true
	}

	return &Verifier{
		ledger:    ledger,
		cfg:       cfg,
		sensitive: sensitive,
		logger:    logger,
	}, nil
}

// Check matches the utterance against provenance keys and reports the
// evidentiary support found. In strict mode unverified records are ignored
// entirely: no verified match means no provenance, whatever else matched.
//
// A ledger failure degrades to "no provenance" with the Degraded flag set,
// never to a fabricated match.
func (v *Verifier) Check(ctx context.Context, utterance string, domain decision.Domain, strict bool) Result {
	records, err := v.ledger.Scan(ctx)
	if err != nil {
		v.logger.Warn("provenance ledger unavailable, reporting no provenance",
			"domain", domain,
			"error", err,
		)
		return Result{Degraded: true}
	}

	normalized := normalize(utterance)
	res := Result{}
	for _, rec := range records {
		if !keyMatches(normalized, normalize(rec.Key)) {
			continue
		}
		if strict && !rec.Verified {
			continue
		}

		res.EventIDs = append(res.EventIDs, rec.EventID)
		res.Timestamps = append(res.Timestamps, rec.Timestamp)
		res.Speakers = append(res.Speakers, rec.Speaker)

		if rec.Verified {
			res.Confidence += v.cfg.VerifiedWeight
		} else {
			res.Confidence += v.cfg.UnverifiedWeight
		}
	}

	if res.Confidence > 1.0 {
		res.Confidence = 1.0
	}
	res.HasProvenance = len(res.EventIDs) > 0
	if res.HasProvenance && v.sensitive[domain] {
		res.RequiresVerification = true
	}

	return res
}

// Verify marks a record verified. Idempotent via the ledger's monotonic
// verify semantics.
func (v *Verifier) Verify(ctx context.Context, eventID string) error {
	if eventID == "" {
		return fmt.Errorf("event id cannot be empty")
	}
	if err := v.ledger.Verify(ctx, eventID); err != nil {
		return fmt.Errorf("failed to verify provenance record: %w", err)
	}

	v.logger.Info("provenance record verified", "event_id", eventID)
	return nil
}

// normalize lowercases and collapses whitespace so key matching is
// insensitive to casing and formatting.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// keyMatches is substring containment in both directions.
func keyMatches(utterance, key string) bool {
	if utterance == "" || key == "" {
		return false
	}
	return strings.Contains(utterance, key) || strings.Contains(key, utterance)
}
