package decision

import "time"

// Decision is the immutable record emitted by the orchestrator for every
// evaluation. Exactly one Decision is produced per call; the engine retains
// no state between calls.
type Decision struct {
	// ID uniquely identifies this decision for audit correlation.
	ID string `json:"id"`

	// Outcome is the final disposition.
	Outcome Outcome `json:"outcome"`

	// Reasons lists, in the order stages appended them, the machine-readable
	// codes explaining the outcome. Codes are never duplicated.
	Reasons []ReasonCode `json:"reasons"`

	// Confidence is a heuristic priority signal in [0,1], not a calibrated
	// probability.
	Confidence float64 `json:"confidence"`

	// MKEScore is the mutual-knowledge estimate actually applied.
	MKEScore float64 `json:"mke_score"`

	// TrustScore is the decayed trust score actually applied.
	TrustScore float64 `json:"trust_score"`

	// TrustBand is the band classification of TrustScore.
	TrustBand TrustBand `json:"trust_band"`

	// TrustThreshold is the domain-specific disclosure threshold applied.
	TrustThreshold float64 `json:"trust_threshold"`

	// Prompts contains clarifying prompts for the conversational layer.
	Prompts []string `json:"prompts,omitempty"`

	// Redactions lists mandatory redaction tags from the policy table.
	Redactions []string `json:"redactions,omitempty"`

	// RequireVerify and NeedsVerification are kept identical by contract;
	// both are populated for downstream layers that consume either name.
	RequireVerify     bool `json:"require_verify"`
	NeedsVerification bool `json:"needs_verification"`

	// EvaluatedAt is when the orchestrator produced this decision.
	EvaluatedAt time.Time `json:"evaluated_at"`

	// EvaluationTime is the wall-clock duration of the pipeline.
	EvaluationTime time.Duration `json:"evaluation_time"`
}

// HasReason reports whether the decision carries the given reason code.
func (d *Decision) HasReason(code ReasonCode) bool {
	for _, r := range d.Reasons {
		if r == code {
			return true
		}
	}
	return false
}

// ProblematicReasonCount returns the number of distinct confidence-reducing
// reason codes on the decision.
func (d *Decision) ProblematicReasonCount() int {
	n := 0
	for _, r := range d.Reasons {
		if r.Problematic() {
			n++
		}
	}
	return n
}
