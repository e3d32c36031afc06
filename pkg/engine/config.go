package engine

import (
	"fmt"

	"mercator-hq/janus/pkg/decision"
)

// Ladder holds the five ascending mutual-knowledge cut points. The same
// score maps to different behavior purely by where it falls between them:
// below Divert the topic is steered away, below Probe the caller is asked
// for specifics, below Partial a full disclosure is reduced to a summary.
// Disclose and Verify label the upper zones for diagnostics.
type Ladder struct {
	Divert   float64 `yaml:"divert"`
	Probe    float64 `yaml:"probe"`
	Partial  float64 `yaml:"partial"`
	Disclose float64 `yaml:"disclose"`
	Verify   float64 `yaml:"verify"`
}

// DefaultLadder returns the reference cut points.
func DefaultLadder() Ladder {
	return Ladder{
		Divert:   0.20,
		Probe:    0.35,
		Partial:  0.60,
		Disclose: 0.75,
		Verify:   0.90,
	}
}

// Validate checks that the cut points ascend strictly and stay in [0, 1].
func (l Ladder) Validate() error {
	points := []float64{l.Divert, l.Probe, l.Partial, l.Disclose, l.Verify}
	names := []string{"divert", "probe", "partial", "disclose", "verify"}
	for i, p := range points {
		if p < 0 || p > 1 {
			return fmt.Errorf("ladder threshold %s must be in [0, 1], got %f", names[i], p)
		}
		if i > 0 && p <= points[i-1] {
			return fmt.Errorf("ladder thresholds must ascend strictly: %s (%f) <= %s (%f)",
				names[i], p, names[i-1], points[i-1])
		}
	}
	return nil
}

// Bucket names the zone a score falls in. Diagnostic only; the pipeline
// applies the cut points directly.
func (l Ladder) Bucket(score float64) string {
	switch {
	case score < l.Divert:
		return "divert"
	case score < l.Probe:
		return "probe"
	case score < l.Partial:
		return "partial"
	case score < l.Disclose:
		return "disclose"
	case score < l.Verify:
		return "verify"
	default:
		return "certain"
	}
}

// ClassificationPolicy gates disclosure for one security classification.
type ClassificationPolicy struct {
	// MinTrust is the trust ceiling the caller must clear.
	MinTrust float64 `yaml:"min_trust"`

	// EscalateDisclose escalates a still-optimistic Disclose when the
	// caller is below MinTrust.
	EscalateDisclose decision.Outcome `yaml:"escalate_disclose"`

	// EscalatePartial escalates a Partial when the caller is below
	// MinTrust. Empty leaves Partial alone.
	EscalatePartial decision.Outcome `yaml:"escalate_partial"`
}

// Config holds the orchestrator's thresholds.
type Config struct {
	// Ladder holds the mutual-knowledge cut points.
	Ladder Ladder `yaml:"ladder"`

	// TrustThresholds are the per-domain disclosure thresholds, separate
	// from the fixed band boundaries.
	TrustThresholds map[decision.Domain]float64 `yaml:"trust_thresholds"`

	// DefaultTrustThreshold applies to domains without an entry.
	DefaultTrustThreshold float64 `yaml:"default_trust_threshold"`

	// DegradedTrustScore substitutes when the trust store is unreachable.
	// Conservative: the unknown-caller default.
	DegradedTrustScore float64 `yaml:"degraded_trust_score"`

	// Classifications maps security labels to their disclosure policies.
	// Ultra is not listed: its owner-only veto is absolute and hardcoded.
	Classifications map[decision.Classification]ClassificationPolicy `yaml:"classifications"`
}

// DefaultConfig returns the reference thresholds.
func DefaultConfig() Config {
	return Config{
		Ladder: DefaultLadder(),
		TrustThresholds: map[decision.Domain]float64{
			decision.DomainFinance:  0.75,
			decision.DomainHealth:   0.70,
			decision.DomainLegal:    0.70,
			decision.DomainWork:     0.60,
			decision.DomainFamily:   0.55,
			decision.DomainMemories: 0.50,
		},
		DefaultTrustThreshold: 0.60,
		DegradedTrustScore:    0.10,
		Classifications: map[decision.Classification]ClassificationPolicy{
			decision.ClassificationGeneral: {},
			decision.ClassificationSecret: {
				MinTrust:         0.60,
				EscalateDisclose: decision.OutcomeVerify,
			},
			decision.ClassificationC2C3: {
				MinTrust:         0.75,
				EscalateDisclose: decision.OutcomeVerify,
				EscalatePartial:  decision.OutcomeVerify,
			},
		},
	}
}

// ApplyDefaults fills zero-valued fields from DefaultConfig.
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if c.Ladder == (Ladder{}) {
		c.Ladder = def.Ladder
	}
	if c.TrustThresholds == nil {
		c.TrustThresholds = def.TrustThresholds
	}
	if c.DefaultTrustThreshold == 0 {
		c.DefaultTrustThreshold = def.DefaultTrustThreshold
	}
	if c.DegradedTrustScore == 0 {
		c.DegradedTrustScore = def.DegradedTrustScore
	}
	if c.Classifications == nil {
		c.Classifications = def.Classifications
	}
}

// Validate checks threshold bounds. Invalid configuration fails closed at
// construction: the engine refuses to start rather than evaluating with a
// broken table.
func (c *Config) Validate() error {
	if err := c.Ladder.Validate(); err != nil {
		return err
	}
	for d, v := range c.TrustThresholds {
		if v < 0 || v > 1 {
			return fmt.Errorf("trust threshold for %q must be in [0, 1], got %f", d, v)
		}
	}
	if c.DefaultTrustThreshold < 0 || c.DefaultTrustThreshold > 1 {
		return fmt.Errorf("default trust threshold must be in [0, 1], got %f", c.DefaultTrustThreshold)
	}
	if c.DegradedTrustScore < 0 || c.DegradedTrustScore > 1 {
		return fmt.Errorf("degraded trust score must be in [0, 1], got %f", c.DegradedTrustScore)
	}
	for class, policy := range c.Classifications {
		if !class.Valid() || class == "" {
			return fmt.Errorf("unknown classification %q in policy table", class)
		}
		if policy.MinTrust < 0 || policy.MinTrust > 1 {
			return fmt.Errorf("min trust for %q must be in [0, 1], got %f", class, policy.MinTrust)
		}
		if policy.EscalateDisclose != "" && !policy.EscalateDisclose.Valid() {
			return fmt.Errorf("invalid escalation outcome %q for %q", policy.EscalateDisclose, class)
		}
		if policy.EscalatePartial != "" && !policy.EscalatePartial.Valid() {
			return fmt.Errorf("invalid escalation outcome %q for %q", policy.EscalatePartial, class)
		}
	}
	return nil
}

// TrustThresholdFor returns the disclosure threshold for a domain.
func (c *Config) TrustThresholdFor(domain decision.Domain) float64 {
	if v, ok := c.TrustThresholds[domain]; ok {
		return v
	}
	return c.DefaultTrustThreshold
}
