package risk

import (
	"strings"

	"mercator-hq/janus/pkg/decision"
)

// Baseline guardrails appended to every plan. Non-negotiable.
var baseGuardrails = []string{
	"never fabricate information",
	"always offer an opt-out",
	"log the interaction for audit",
}

// ultraGuardrail is appended when the context carries the maximum
// classification.
const ultraGuardrail = "owner-only access for ultra-classified information"

// PlanContext describes the interaction a response plan is for.
type PlanContext struct {
	CallerID       string
	Domain         decision.Domain
	TrustBand      decision.TrustBand
	RiskLevel      Level
	Classification decision.Classification
}

// Plan is a selected response strategy plus its guardrails.
type Plan struct {
	// Strategy names the selected influence strategy.
	Strategy string

	// Guidance lists the strategy's concrete steps.
	Guidance []string

	// Guardrails are the non-negotiable constraints on the plan.
	Guardrails []string
}

// strategy is one entry in the registered strategy table.
type strategy struct {
	name     string
	applies  func(goal string, pctx PlanContext) bool
	guidance []string
}

// strategyTable is evaluated in order; the first applicable strategy wins.
// Deflection is the catch-all.
var strategyTable = []strategy{
	{
		name: "reciprocity",
		applies: func(goal string, pctx PlanContext) bool {
			return containsAny(goal, "share", "exchange", "mutual", "in return") &&
				pctx.TrustBand != decision.TrustBandRed
		},
		guidance: []string{
			"offer a comparable piece of already-shared context first",
			"disclose incrementally and watch for reciprocation",
		},
	},
	{
		name: "coordination",
		applies: func(goal string, pctx PlanContext) bool {
			return containsAny(goal, "plan", "schedule", "together", "coordinate", "arrange")
		},
		guidance: []string{
			"frame the disclosure around the shared task, not the underlying facts",
			"confirm the caller's role in the task before adding detail",
		},
	},
	{
		name: "deflection",
		applies: func(goal string, pctx PlanContext) bool {
			return true
		},
		guidance: []string{
			"acknowledge the question without confirming specifics",
			"steer toward a topic the caller is already party to",
		},
	},
}

// Planner selects response strategies. Stateless and safe for concurrent use.
type Planner struct{}

// NewPlanner creates a response planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// PlanResponse selects the first applicable strategy for the goal and
// appends the guardrails. Always returns a plan; deflection is the
// fallback.
func (p *Planner) PlanResponse(goal string, pctx PlanContext) Plan {
	for _, s := range strategyTable {
		if !s.applies(goal, pctx) {
			continue
		}

		guardrails := append([]string(nil), baseGuardrails...)
		if pctx.Classification == decision.ClassificationUltra {
			guardrails = append(guardrails, ultraGuardrail)
		}

		return Plan{
			Strategy:   s.name,
			Guidance:   append([]string(nil), s.guidance...),
			Guardrails: guardrails,
		}
	}

	// Unreachable: deflection always applies.
	return Plan{Strategy: "deflection", Guardrails: append([]string(nil), baseGuardrails...)}
}

// containsAny reports whether the goal contains any of the markers,
// case-insensitively.
func containsAny(goal string, markers ...string) bool {
	lower := strings.ToLower(goal)
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
