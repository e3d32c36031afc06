package decision

import (
	"fmt"
	"strings"
)

// Domain is the closed set of topic domains a disclosure request can target.
type Domain string

const (
	DomainFinance  Domain = "finance"
	DomainHealth   Domain = "health"
	DomainFamily   Domain = "family"
	DomainWork     Domain = "work"
	DomainMemories Domain = "memories"
	DomainLegal    Domain = "legal"
)

// Domains returns all known topic domains.
func Domains() []Domain {
	return []Domain{
		DomainFinance,
		DomainHealth,
		DomainFamily,
		DomainWork,
		DomainMemories,
		DomainLegal,
	}
}

// Known reports whether d is a member of the closed domain set.
// Unknown domains are legal inputs; the policy evaluator treats them as
// permissive by default.
func (d Domain) Known() bool {
	switch d {
	case DomainFinance, DomainHealth, DomainFamily, DomainWork, DomainMemories, DomainLegal:
		return true
	}
	return false
}

// ParseDomain parses a case-insensitive domain name. Unknown names are
// returned as-is (lowercased) so callers can still route them through the
// permissive default path.
func ParseDomain(s string) Domain {
	return Domain(strings.ToLower(strings.TrimSpace(s)))
}

// Classification is an ordered security label gating maximum permissible
// disclosure. The zero value means unclassified.
type Classification string

const (
	ClassificationGeneral Classification = "general"
	ClassificationSecret  Classification = "secret"
	ClassificationC2C3    Classification = "c2c3"
	ClassificationUltra   Classification = "ultra"
)

// classificationRank orders classifications from least to most sensitive.
var classificationRank = map[Classification]int{
	ClassificationGeneral: 1,
	ClassificationSecret:  2,
	ClassificationC2C3:    3,
	ClassificationUltra:   4,
}

// Rank returns the ordering position of the classification. The zero value
// (unclassified) ranks below General.
func (c Classification) Rank() int {
	return classificationRank[c]
}

// Valid reports whether c is empty or a member of the closed label set.
func (c Classification) Valid() bool {
	if c == "" {
		return true
	}
	_, ok := classificationRank[c]
	return ok
}

// ParseClassification parses a case-insensitive classification label.
// Returns an error for labels outside the closed set.
func ParseClassification(s string) (Classification, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	c := Classification(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown security classification %q", s)
	}
	return c, nil
}

// TrustBand is the qualitative classification of a decayed trust score.
type TrustBand string

const (
	TrustBandGreen TrustBand = "green"
	TrustBandAmber TrustBand = "amber"
	TrustBandRed   TrustBand = "red"
)

// RequestContext is the immutable input to a single evaluation. Caller
// identity is assumed to be already resolved to a stable identifier by the
// layer above the engine.
type RequestContext struct {
	// CallerID is the stable identifier of the requesting party.
	CallerID string

	// Utterance is the raw text of the disclosure request.
	Utterance string

	// Domain is the topic domain the request targets.
	Domain Domain

	// Scope optionally narrows the request within the domain.
	Scope string

	// Classification is the optional security label attached to the
	// referenced information. Empty means unclassified.
	Classification Classification

	// StrictTruth requires verifiable provenance for any disclosure.
	StrictTruth bool

	// Sensitive forces a risk review regardless of other signals.
	Sensitive bool
}

// Validate checks the structural invariants of the request context. An
// invalid context is still answerable; the orchestrator converts the error
// into a low-confidence inconclusive Decision rather than failing the call.
func (rc *RequestContext) Validate() error {
	if strings.TrimSpace(rc.CallerID) == "" {
		return fmt.Errorf("caller id cannot be empty")
	}
	if strings.TrimSpace(rc.Utterance) == "" {
		return fmt.Errorf("utterance cannot be empty")
	}
	if !rc.Classification.Valid() {
		return fmt.Errorf("invalid classification %q", rc.Classification)
	}
	return nil
}
