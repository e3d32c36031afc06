package risk

import (
	"testing"

	"mercator-hq/janus/pkg/decision"
)

func TestPlanResponse_StrategySelection(t *testing.T) {
	p := NewPlanner()

	tests := []struct {
		name         string
		goal         string
		pctx         PlanContext
		wantStrategy string
	}{
		{
			name:         "reciprocity for mutual sharing",
			goal:         "share updates about the family in return for theirs",
			pctx:         PlanContext{TrustBand: decision.TrustBandGreen},
			wantStrategy: "reciprocity",
		},
		{
			name:         "reciprocity denied to red band callers",
			goal:         "share updates in return",
			pctx:         PlanContext{TrustBand: decision.TrustBandRed},
			wantStrategy: "deflection",
		},
		{
			name:         "coordination for shared tasks",
			goal:         "schedule the appointment together",
			pctx:         PlanContext{TrustBand: decision.TrustBandAmber},
			wantStrategy: "coordination",
		},
		{
			name:         "deflection is the fallback",
			goal:         "find out the account balance",
			pctx:         PlanContext{TrustBand: decision.TrustBandGreen},
			wantStrategy: "deflection",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := p.PlanResponse(tt.goal, tt.pctx)
			if plan.Strategy != tt.wantStrategy {
				t.Errorf("Strategy = %q, want %q", plan.Strategy, tt.wantStrategy)
			}
			if len(plan.Guidance) == 0 {
				t.Error("expected strategy guidance")
			}
		})
	}
}

func TestPlanResponse_GuardrailsAlwaysPresent(t *testing.T) {
	p := NewPlanner()

	plan := p.PlanResponse("anything", PlanContext{})
	if len(plan.Guardrails) != len(baseGuardrails) {
		t.Fatalf("Guardrails = %v, want the base set", plan.Guardrails)
	}

	// Ultra classification appends the owner-only guardrail.
	plan = p.PlanResponse("anything", PlanContext{Classification: decision.ClassificationUltra})
	if len(plan.Guardrails) != len(baseGuardrails)+1 {
		t.Fatalf("Guardrails = %v, want base set plus owner-only", plan.Guardrails)
	}
	if plan.Guardrails[len(plan.Guardrails)-1] != ultraGuardrail {
		t.Errorf("last guardrail = %q, want %q", plan.Guardrails[len(plan.Guardrails)-1], ultraGuardrail)
	}
}
