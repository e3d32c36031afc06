package decision

// ReasonCode is a machine-readable tag explaining why a pipeline stage
// altered (or confirmed) the outcome.
type ReasonCode string

const (
	// ReasonOK indicates no stage restricted the outcome.
	ReasonOK ReasonCode = "OK"

	// ReasonPolicyDeny indicates the policy table denied the domain or
	// classification.
	ReasonPolicyDeny ReasonCode = "MPL_DENY"

	// ReasonSecurityViolation indicates an Ultra-classified request from a
	// caller other than the data owner.
	ReasonSecurityViolation ReasonCode = "SECURITY_VIOLATION"

	// ReasonTrustRed indicates the caller's trust score fell in the Red band
	// below the domain threshold.
	ReasonTrustRed ReasonCode = "TRUST_RED"

	// ReasonTrustAmber indicates the caller's trust score fell in the Amber
	// band below the domain threshold.
	ReasonTrustAmber ReasonCode = "TRUST_AMBER"

	// ReasonTruthMissing indicates strict-truth mode found no verifiable
	// provenance for the utterance.
	ReasonTruthMissing ReasonCode = "TRUTH_MISSING"

	// ReasonMKEDivert indicates mutual knowledge below the divert threshold.
	ReasonMKEDivert ReasonCode = "MKE_DIVERT"

	// ReasonMKEProbe indicates mutual knowledge below the probe threshold.
	ReasonMKEProbe ReasonCode = "MKE_PROBE"

	// ReasonMKEPartial indicates mutual knowledge below the partial threshold.
	ReasonMKEPartial ReasonCode = "MKE_PARTIAL"

	// ReasonClassVerify indicates the security classification demanded more
	// trust than the caller holds.
	ReasonClassVerify ReasonCode = "CLASS_VERIFY"

	// ReasonRiskHigh indicates the risk assessor bucketed the request HIGH.
	ReasonRiskHigh ReasonCode = "RISK_HIGH"

	// ReasonRiskMedium indicates the risk assessor bucketed the request MEDIUM.
	ReasonRiskMedium ReasonCode = "RISK_MEDIUM"

	// ReasonStoreDegraded indicates an injected store was unreachable and a
	// conservative evaluator default was substituted.
	ReasonStoreDegraded ReasonCode = "STORE_DEGRADED"

	// ReasonInputInvalid indicates an empty caller id or utterance.
	ReasonInputInvalid ReasonCode = "INPUT_INVALID"

	// ReasonEvalTimeout indicates the caller's deadline expired mid-pipeline.
	ReasonEvalTimeout ReasonCode = "EVAL_TIMEOUT"
)

// problematic is the fixed set of reason codes that reduce decision
// confidence. Each distinct member present on a Decision subtracts a fixed
// penalty from the confidence blend.
var problematic = map[ReasonCode]bool{
	ReasonPolicyDeny:        true,
	ReasonSecurityViolation: true,
	ReasonTrustRed:          true,
	ReasonTrustAmber:        true,
	ReasonTruthMissing:      true,
	ReasonRiskHigh:          true,
	ReasonStoreDegraded:     true,
	ReasonInputInvalid:      true,
	ReasonEvalTimeout:       true,
}

// Problematic reports whether the reason code belongs to the fixed
// confidence-reducing set.
func (r ReasonCode) Problematic() bool {
	return problematic[r]
}
