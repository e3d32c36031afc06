package risk

import (
	"mercator-hq/janus/pkg/decision"
)

// Level is the qualitative risk bucket.
type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

// Bucket boundaries.
const (
	mediumFloor = 0.4
	highFloor   = 0.7
)

// Factor weights. Factors are additive and not mutually exclusive, except
// that very low trust subsumes below-average trust.
const (
	weightVeryLowTrust    = 0.4
	weightLowTrust        = 0.2
	weightLowMKE          = 0.3
	weightClassification  = 0.3
	weightSensitivityFlag = 0.2
	weightRiskyDomain     = 0.1
)

// Factor thresholds.
const (
	veryLowTrustCeiling = 0.3
	lowTrustCeiling     = 0.55
	lowMKECeiling       = 0.4
)

// highRiskDomains carry an intrinsic risk premium.
var highRiskDomains = map[decision.Domain]bool{
	decision.DomainFinance: true,
	decision.DomainHealth:  true,
	decision.DomainLegal:   true,
}

// Factor names the signal that contributed to the risk score.
type Factor string

const (
	FactorVeryLowTrust    Factor = "very_low_trust"
	FactorLowTrust        Factor = "below_average_trust"
	FactorLowMKE          Factor = "low_mutual_knowledge"
	FactorClassification  Factor = "elevated_classification"
	FactorSensitivityFlag Factor = "sensitivity_flag"
	FactorHighRiskDomain  Factor = "high_risk_domain"
)

// Input carries the upstream evaluator outputs the assessor combines.
type Input struct {
	TrustScore     float64
	MKEScore       float64
	Classification decision.Classification
	Sensitive      bool
	Domain         decision.Domain
}

// Assessment is the result of one risk evaluation.
type Assessment struct {
	// Level is the qualitative bucket.
	Level Level

	// Score is the raw additive risk score.
	Score float64

	// Factors lists the signals that contributed, in evaluation order.
	Factors []Factor

	// Recommendations suggest how to handle the interaction.
	Recommendations []string

	// Confidence grows with the number of independent signals present.
	Confidence float64
}

// Assessor computes risk assessments. Stateless and safe for concurrent use.
type Assessor struct{}

// NewAssessor creates a risk assessor.
func NewAssessor() *Assessor {
	return &Assessor{}
}

// Assess combines the weighted factors into a level. Pure function of its
// input.
func (a *Assessor) Assess(in Input) Assessment {
	var (
		score   float64
		factors []Factor
	)

	switch {
	case in.TrustScore < veryLowTrustCeiling:
		score += weightVeryLowTrust
		factors = append(factors, FactorVeryLowTrust)
	case in.TrustScore < lowTrustCeiling:
		score += weightLowTrust
		factors = append(factors, FactorLowTrust)
	}

	if in.MKEScore < lowMKECeiling {
		score += weightLowMKE
		factors = append(factors, FactorLowMKE)
	}
	if in.Classification.Rank() >= decision.ClassificationSecret.Rank() {
		score += weightClassification
		factors = append(factors, FactorClassification)
	}
	if in.Sensitive {
		score += weightSensitivityFlag
		factors = append(factors, FactorSensitivityFlag)
	}
	if highRiskDomains[in.Domain] {
		score += weightRiskyDomain
		factors = append(factors, FactorHighRiskDomain)
	}

	level := levelFor(score)

	return Assessment{
		Level:           level,
		Score:           score,
		Factors:         factors,
		Recommendations: recommendationsFor(level, factors),
		Confidence:      confidenceFor(factors),
	}
}

// levelFor buckets a raw score.
func levelFor(score float64) Level {
	switch {
	case score >= highFloor:
		return LevelHigh
	case score >= mediumFloor:
		return LevelMedium
	default:
		return LevelLow
	}
}

// recommendationsFor maps the level and its drivers to handling advice.
func recommendationsFor(level Level, factors []Factor) []string {
	var recs []string

	switch level {
	case LevelHigh:
		recs = append(recs, "slow the interaction down and require verification before any disclosure")
	case LevelMedium:
		recs = append(recs, "verify the caller's intent before disclosing specifics")
	default:
		recs = append(recs, "proceed with standard disclosure rules")
	}

	for _, f := range factors {
		switch f {
		case FactorVeryLowTrust:
			recs = append(recs, "treat the caller as unestablished; disclose nothing sensitive")
		case FactorLowMKE:
			recs = append(recs, "probe for specifics to confirm shared context")
		case FactorClassification:
			recs = append(recs, "apply the classification's disclosure policy")
		}
	}

	return recs
}

// confidenceFor grows with the number of independent signals, within
// [0.5, 0.9].
func confidenceFor(factors []Factor) float64 {
	c := 0.5 + 0.1*float64(len(factors))
	if c > 0.9 {
		c = 0.9
	}
	return c
}
