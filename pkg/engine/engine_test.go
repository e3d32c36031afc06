package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/janus/pkg/decision"
	"mercator-hq/janus/pkg/knowledge"
	"mercator-hq/janus/pkg/policy"
	"mercator-hq/janus/pkg/provenance"
	"mercator-hq/janus/pkg/risk"
	"mercator-hq/janus/pkg/telemetry/tracing"
)

type stubPolicy struct {
	result policy.Result
	owner  string
}

func (s *stubPolicy) Evaluate(decision.Domain, decision.Classification, string) policy.Result {
	return s.result
}

func (s *stubPolicy) Owner() string {
	if s.owner == "" {
		return "owner"
	}
	return s.owner
}

type stubTrust struct {
	score    float64
	err      error
	recorded int
}

func (s *stubTrust) Score(context.Context, string, decision.Domain) (float64, error) {
	return s.score, s.err
}

func (s *stubTrust) RecordOutcome(context.Context, string, decision.Domain, bool, bool, time.Time) error {
	s.recorded++
	return nil
}

type stubKnowledge struct {
	estimate knowledge.Estimate
	records  []*knowledge.Record
}

func (s *stubKnowledge) Estimate(context.Context, string, string, decision.Domain) knowledge.Estimate {
	return s.estimate
}

func (s *stubKnowledge) WhatDoesKnow(context.Context, string, string, knowledge.KnowOptions) ([]*knowledge.Record, error) {
	return s.records, nil
}

type stubProvenance struct {
	result    provenance.Result
	verifyErr error
}

func (s *stubProvenance) Check(context.Context, string, decision.Domain, bool) provenance.Result {
	return s.result
}

func (s *stubProvenance) Verify(context.Context, string) error {
	return s.verifyErr
}

// deps returns a dependency set describing a well-established caller: policy
// allows, mutual knowledge and trust are both high.
func happyDeps() Dependencies {
	return Dependencies{
		Policy:     &stubPolicy{result: policy.Result{Allow: true}},
		Trust:      &stubTrust{score: 0.85},
		Knowledge:  &stubKnowledge{estimate: knowledge.Estimate{Score: 0.75, Matches: 3}},
		Provenance: &stubProvenance{result: provenance.Result{HasProvenance: true}},
		Risk:       risk.NewAssessor(),
	}
}

func newTestEngine(t *testing.T, deps Dependencies) *Engine {
	t.Helper()
	e, err := New(deps, Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func request() decision.RequestContext {
	return decision.RequestContext{
		CallerID:  "spouse-1",
		Utterance: "how did the doctor visit go",
		Domain:    decision.DomainFamily,
	}
}

func TestEvaluateEstablishedCallerDiscloses(t *testing.T) {
	e := newTestEngine(t, happyDeps())

	d, err := e.Evaluate(context.Background(), request())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if d.Outcome != decision.OutcomeDisclose {
		t.Errorf("outcome = %v, want disclose", d.Outcome)
	}
	if len(d.Reasons) != 1 || d.Reasons[0] != decision.ReasonOK {
		t.Errorf("reasons = %v, want [OK]", d.Reasons)
	}
	if d.TrustBand != decision.TrustBandGreen {
		t.Errorf("trust band = %v, want green", d.TrustBand)
	}
	if !closeTo(d.Confidence, 0.98) {
		t.Errorf("confidence = %f, want 0.98", d.Confidence)
	}
	if d.ID == "" {
		t.Error("decision id should be populated")
	}
	if d.NeedsVerification {
		t.Error("established caller should not need verification")
	}
}

func TestEvaluateAmberTrustReducesToPartial(t *testing.T) {
	deps := happyDeps()
	deps.Trust = &stubTrust{score: 0.67}
	deps.Knowledge = &stubKnowledge{estimate: knowledge.Estimate{Score: 0.70}}
	e := newTestEngine(t, deps)

	rc := request()
	rc.CallerID = "grandmother-1"
	rc.Domain = decision.DomainFinance

	d, err := e.Evaluate(context.Background(), rc)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if d.Outcome != decision.OutcomePartial {
		t.Errorf("outcome = %v, want partial", d.Outcome)
	}
	if !d.HasReason(decision.ReasonTrustAmber) {
		t.Errorf("reasons = %v, want TRUST_AMBER", d.Reasons)
	}
	if !d.NeedsVerification {
		t.Error("amber trust below threshold should demand verification")
	}
	if !closeTo(d.TrustThreshold, 0.75) {
		t.Errorf("trust threshold = %f, want the finance threshold 0.75", d.TrustThreshold)
	}
}

func TestEvaluateStrangerSensitiveHealthDeclines(t *testing.T) {
	deps := happyDeps()
	deps.Trust = &stubTrust{score: 0.05}
	deps.Knowledge = &stubKnowledge{estimate: knowledge.Estimate{Score: 0.10}}
	e := newTestEngine(t, deps)

	rc := request()
	rc.CallerID = "stranger-1"
	rc.Domain = decision.DomainHealth
	rc.Sensitive = true

	d, err := e.Evaluate(context.Background(), rc)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	// The red-band veto wins even though the risk stage runs afterwards:
	// throttle is less severe than decline and cannot overwrite it.
	if d.Outcome != decision.OutcomeDecline {
		t.Errorf("outcome = %v, want decline", d.Outcome)
	}
	for _, want := range []decision.ReasonCode{
		decision.ReasonMKEDivert,
		decision.ReasonTrustRed,
		decision.ReasonRiskHigh,
	} {
		if !d.HasReason(want) {
			t.Errorf("reasons = %v, missing %v", d.Reasons, want)
		}
	}
	if len(d.Prompts) == 0 {
		t.Error("divert should attach a steering prompt")
	}
}

func TestEvaluateUltraNonOwnerAbsoluteVeto(t *testing.T) {
	deps := happyDeps()
	deps.Policy = &stubPolicy{
		result: policy.Result{Allow: false, Reason: decision.ReasonSecurityViolation},
		owner:  "owner-1",
	}
	e := newTestEngine(t, deps)

	rc := request()
	rc.CallerID = "spouse-1"
	rc.Classification = decision.ClassificationUltra

	d, err := e.Evaluate(context.Background(), rc)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if d.Outcome != decision.OutcomeDecline {
		t.Errorf("outcome = %v, want decline", d.Outcome)
	}
	if !d.HasReason(decision.ReasonSecurityViolation) || !d.HasReason(decision.ReasonPolicyDeny) {
		t.Errorf("reasons = %v, want SECURITY_VIOLATION and MPL_DENY", d.Reasons)
	}

	// The classification stage re-checks the veto; the code must not repeat.
	count := 0
	for _, r := range d.Reasons {
		if r == decision.ReasonSecurityViolation {
			count++
		}
	}
	if count != 1 {
		t.Errorf("SECURITY_VIOLATION appears %d times, want 1", count)
	}
}

func TestEvaluateStrictTruthWithoutProvenance(t *testing.T) {
	deps := happyDeps()
	deps.Provenance = &stubProvenance{result: provenance.Result{HasProvenance: false}}
	e := newTestEngine(t, deps)

	rc := request()
	rc.StrictTruth = true

	d, err := e.Evaluate(context.Background(), rc)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if d.Outcome != decision.OutcomeInconclusive {
		t.Errorf("outcome = %v, want inconclusive", d.Outcome)
	}
	if !d.HasReason(decision.ReasonTruthMissing) {
		t.Errorf("reasons = %v, want TRUTH_MISSING", d.Reasons)
	}
	if len(d.Prompts) == 0 {
		t.Error("missing provenance should attach an explanatory prompt")
	}
}

func TestEvaluateStrictTruthProvenanceNeedsVerification(t *testing.T) {
	deps := happyDeps()
	deps.Provenance = &stubProvenance{result: provenance.Result{
		HasProvenance:        true,
		RequiresVerification: true,
	}}
	e := newTestEngine(t, deps)

	rc := request()
	rc.StrictTruth = true

	d, err := e.Evaluate(context.Background(), rc)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if d.Outcome != decision.OutcomeVerify {
		t.Errorf("outcome = %v, want verify", d.Outcome)
	}
	if !d.NeedsVerification {
		t.Error("provenance verification demand should set the flag")
	}
}

func TestEvaluateMutualKnowledgeLadder(t *testing.T) {
	tests := []struct {
		name       string
		mke        float64
		outcome    decision.Outcome
		wantReason decision.ReasonCode
	}{
		{"below divert", 0.10, decision.OutcomeDivert, decision.ReasonMKEDivert},
		{"below probe", 0.30, decision.OutcomeProbe, decision.ReasonMKEProbe},
		{"below partial", 0.50, decision.OutcomePartial, decision.ReasonMKEPartial},
		{"above partial", 0.70, decision.OutcomeDisclose, decision.ReasonOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := happyDeps()
			deps.Knowledge = &stubKnowledge{estimate: knowledge.Estimate{Score: tt.mke}}
			e := newTestEngine(t, deps)

			d, err := e.Evaluate(context.Background(), request())
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if d.Outcome != tt.outcome {
				t.Errorf("outcome = %v, want %v", d.Outcome, tt.outcome)
			}
			if !d.HasReason(tt.wantReason) {
				t.Errorf("reasons = %v, want %v", d.Reasons, tt.wantReason)
			}
		})
	}
}

func TestEvaluatePolicyRedactionsProduceRedact(t *testing.T) {
	deps := happyDeps()
	deps.Policy = &stubPolicy{result: policy.Result{
		Allow:      true,
		Redactions: []string{"account_numbers"},
	}}
	e := newTestEngine(t, deps)

	d, err := e.Evaluate(context.Background(), request())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if d.Outcome != decision.OutcomeRedact {
		t.Errorf("outcome = %v, want redact", d.Outcome)
	}
	if len(d.Redactions) != 1 || d.Redactions[0] != "account_numbers" {
		t.Errorf("redactions = %v, want [account_numbers]", d.Redactions)
	}
}

func TestEvaluateRedactionsDoNotSoftenRestrictedOutcome(t *testing.T) {
	deps := happyDeps()
	deps.Policy = &stubPolicy{result: policy.Result{
		Allow:      true,
		Redactions: []string{"account_numbers"},
	}}
	deps.Trust = &stubTrust{score: 0.40}
	e := newTestEngine(t, deps)

	d, err := e.Evaluate(context.Background(), request())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if d.Outcome == decision.OutcomeRedact || d.Outcome == decision.OutcomeDisclose {
		t.Errorf("outcome = %v, red-band trust must dominate redaction", d.Outcome)
	}
}

func TestEvaluateClassificationEscalation(t *testing.T) {
	deps := happyDeps()
	deps.Trust = &stubTrust{score: 0.58}
	e := newTestEngine(t, deps)

	// Above the family trust threshold but below the Secret ceiling, so only
	// the classification gate fires.
	rc := request()
	rc.Classification = decision.ClassificationSecret

	d, err := e.Evaluate(context.Background(), rc)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if d.Outcome != decision.OutcomeVerify {
		t.Errorf("outcome = %v, want verify", d.Outcome)
	}
	if !d.HasReason(decision.ReasonClassVerify) {
		t.Errorf("reasons = %v, want CLASS_VERIFY", d.Reasons)
	}
	if !d.NeedsVerification {
		t.Error("classification gate should demand verification")
	}
}

func TestEvaluateUltraOwnerPasses(t *testing.T) {
	deps := happyDeps()
	deps.Policy = &stubPolicy{result: policy.Result{Allow: true}, owner: "owner-1"}
	e := newTestEngine(t, deps)

	rc := request()
	rc.CallerID = "owner-1"
	rc.Classification = decision.ClassificationUltra

	d, err := e.Evaluate(context.Background(), rc)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if d.Outcome != decision.OutcomeDisclose {
		t.Errorf("outcome = %v, want disclose for the owner", d.Outcome)
	}
}

func TestEvaluateTrustStoreDegraded(t *testing.T) {
	deps := happyDeps()
	deps.Trust = &stubTrust{err: errors.New("store offline")}
	e := newTestEngine(t, deps)

	d, err := e.Evaluate(context.Background(), request())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	// The degraded default is the unknown-caller score, deep in the red band.
	if d.Outcome != decision.OutcomeDecline {
		t.Errorf("outcome = %v, want decline", d.Outcome)
	}
	if !d.HasReason(decision.ReasonStoreDegraded) {
		t.Errorf("reasons = %v, want STORE_DEGRADED", d.Reasons)
	}
	if !closeTo(d.TrustScore, 0.10) {
		t.Errorf("trust score = %f, want the degraded default 0.10", d.TrustScore)
	}
}

func TestEvaluateInvalidInput(t *testing.T) {
	e := newTestEngine(t, happyDeps())

	d, err := e.Evaluate(context.Background(), decision.RequestContext{})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if d.Outcome != decision.OutcomeInconclusive {
		t.Errorf("outcome = %v, want inconclusive", d.Outcome)
	}
	if !d.HasReason(decision.ReasonInputInvalid) {
		t.Errorf("reasons = %v, want INPUT_INVALID", d.Reasons)
	}
}

func TestEvaluateExpiredDeadline(t *testing.T) {
	e := newTestEngine(t, happyDeps())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d, err := e.Evaluate(ctx, request())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if d.Outcome != decision.OutcomeInconclusive {
		t.Errorf("outcome = %v, want inconclusive", d.Outcome)
	}
	if !d.HasReason(decision.ReasonEvalTimeout) {
		t.Errorf("reasons = %v, want EVAL_TIMEOUT", d.Reasons)
	}
}

func TestEvaluateConfidenceStaysInRange(t *testing.T) {
	tests := []struct {
		name  string
		trust float64
		mke   float64
	}{
		{"floor", 0.0, 0.0},
		{"ceiling", 1.0, 1.0},
		{"midrange", 0.5, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := happyDeps()
			deps.Trust = &stubTrust{score: tt.trust}
			deps.Knowledge = &stubKnowledge{estimate: knowledge.Estimate{Score: tt.mke}}
			e := newTestEngine(t, deps)

			d, err := e.Evaluate(context.Background(), request())
			if err != nil {
				t.Fatalf("Evaluate() error = %v", err)
			}
			if d.Confidence < 0 || d.Confidence > 1 {
				t.Errorf("confidence = %f, out of [0, 1]", d.Confidence)
			}
		})
	}
}

func TestEvaluateRecordsMetrics(t *testing.T) {
	deps := happyDeps()
	deps.Metrics = NewMetricsWith(prometheus.NewRegistry())
	e := newTestEngine(t, deps)

	if _, err := e.Evaluate(context.Background(), request()); err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	got := testutil.ToFloat64(deps.Metrics.decisions.WithLabelValues(string(decision.OutcomeDisclose)))
	if got != 1 {
		t.Errorf("decisions counter = %f, want 1", got)
	}
}

func TestEvaluateSpanCarriesRequestAndDecisionAttributes(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	deps := happyDeps()
	deps.Tracer = tp.Tracer("engine-test")
	e := newTestEngine(t, deps)

	d, err := e.Evaluate(context.Background(), request())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("recorded %d span(s), want 1", len(spans))
	}
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range spans[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}

	if got := attrs[tracing.AttrCallerID].AsString(); got != "spouse-1" {
		t.Errorf("%s = %q, want spouse-1", tracing.AttrCallerID, got)
	}
	if got := attrs[tracing.AttrOutcome].AsString(); got != string(d.Outcome) {
		t.Errorf("%s = %q, want %q", tracing.AttrOutcome, got, d.Outcome)
	}
	if got := attrs[tracing.AttrConfidence].AsFloat64(); !closeTo(got, d.Confidence) {
		t.Errorf("%s = %f, want %f", tracing.AttrConfidence, got, d.Confidence)
	}
	if got := attrs[tracing.AttrDecisionID].AsString(); got != d.ID {
		t.Errorf("%s = %q, want %q", tracing.AttrDecisionID, got, d.ID)
	}
	// The raw utterance must never reach the span.
	for _, kv := range spans[0].Attributes() {
		if kv.Value.AsString() == request().Utterance {
			t.Errorf("utterance leaked into span attribute %s", kv.Key)
		}
	}
}

func TestRecordOutcomePassthrough(t *testing.T) {
	deps := happyDeps()
	trust := &stubTrust{score: 0.85}
	deps.Trust = trust
	e := newTestEngine(t, deps)

	if err := e.RecordOutcome(context.Background(), "spouse-1", decision.DomainFamily, true, false, time.Now()); err != nil {
		t.Fatalf("RecordOutcome() error = %v", err)
	}
	if trust.recorded != 1 {
		t.Errorf("recorded = %d, want 1", trust.recorded)
	}
}

func TestNewRejectsMissingDependencies(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Dependencies)
	}{
		{"nil policy", func(d *Dependencies) { d.Policy = nil }},
		{"nil trust", func(d *Dependencies) { d.Trust = nil }},
		{"nil knowledge", func(d *Dependencies) { d.Knowledge = nil }},
		{"nil provenance", func(d *Dependencies) { d.Provenance = nil }},
		{"nil risk", func(d *Dependencies) { d.Risk = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := happyDeps()
			tt.mutate(&deps)
			if _, err := New(deps, Config{}); err == nil {
				t.Error("New() should reject missing dependency")
			}
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := Config{Ladder: Ladder{Divert: 0.9, Probe: 0.5, Partial: 0.6, Disclose: 0.7, Verify: 0.8}}
	if _, err := New(happyDeps(), cfg); err == nil {
		t.Error("New() should reject a non-ascending ladder")
	}
}

func closeTo(got, want float64) bool {
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}
