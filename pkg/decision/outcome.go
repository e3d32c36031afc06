package decision

// Outcome is the final disposition of a disclosure request.
type Outcome string

const (
	// OutcomeDisclose allows full disclosure of the requested information.
	OutcomeDisclose Outcome = "disclose"

	// OutcomeRedact allows disclosure with mandatory redactions applied.
	OutcomeRedact Outcome = "redact"

	// OutcomePartial allows a limited, summarized disclosure.
	OutcomePartial Outcome = "partial"

	// OutcomeVerify requires identity or intent verification before disclosure.
	OutcomeVerify Outcome = "verify"

	// OutcomeProbe asks the caller for more specificity before deciding.
	OutcomeProbe Outcome = "probe"

	// OutcomeDivert steers the conversation away from the topic.
	OutcomeDivert Outcome = "divert"

	// OutcomeThrottle slows the interaction down due to elevated risk.
	OutcomeThrottle Outcome = "throttle"

	// OutcomeInconclusive means the engine cannot decide with the evidence
	// at hand (missing provenance, invalid input, or a deadline hit).
	OutcomeInconclusive Outcome = "inconclusive"

	// OutcomeDecline refuses disclosure outright.
	OutcomeDecline Outcome = "decline"
)

// severity orders outcomes from most to least permissive. The orchestrator
// only ever moves to an equal-or-more-restrictive outcome, so a later stage
// can never undo a veto applied by an earlier one.
var severity = map[Outcome]int{
	OutcomeDisclose:     0,
	OutcomeRedact:       1,
	OutcomePartial:      2,
	OutcomeVerify:       3,
	OutcomeProbe:        4,
	OutcomeDivert:       5,
	OutcomeThrottle:     6,
	OutcomeInconclusive: 7,
	OutcomeDecline:      8,
}

// Severity returns the restrictiveness rank of the outcome. Higher is more
// restrictive. Unknown outcomes rank as most restrictive.
func (o Outcome) Severity() int {
	s, ok := severity[o]
	if !ok {
		return severity[OutcomeDecline]
	}
	return s
}

// MoreRestrictiveThan reports whether o is strictly more restrictive than other.
func (o Outcome) MoreRestrictiveThan(other Outcome) bool {
	return o.Severity() > other.Severity()
}

// Valid reports whether o is a member of the closed outcome vocabulary.
func (o Outcome) Valid() bool {
	_, ok := severity[o]
	return ok
}

// Outcomes returns all valid outcomes in ascending severity order.
func Outcomes() []Outcome {
	return []Outcome{
		OutcomeDisclose,
		OutcomeRedact,
		OutcomePartial,
		OutcomeVerify,
		OutcomeProbe,
		OutcomeDivert,
		OutcomeThrottle,
		OutcomeInconclusive,
		OutcomeDecline,
	}
}
