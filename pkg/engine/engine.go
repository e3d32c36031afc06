package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/janus/pkg/decision"
	"mercator-hq/janus/pkg/knowledge"
	"mercator-hq/janus/pkg/policy"
	"mercator-hq/janus/pkg/provenance"
	"mercator-hq/janus/pkg/risk"
	"mercator-hq/janus/pkg/telemetry/tracing"
)

// Clarifying prompts attached to softer outcomes.
const (
	divertPrompt       = "Let's talk about something else for now."
	probePrompt        = "Could you be more specific about what you mean?"
	truthMissingPrompt = "I don't have verified information about that."
)

// PolicyEvaluator is the policy stage dependency.
type PolicyEvaluator interface {
	Evaluate(domain decision.Domain, class decision.Classification, callerID string) policy.Result
	Owner() string
}

// TrustScorer is the trust stage dependency.
type TrustScorer interface {
	Score(ctx context.Context, callerID string, domain decision.Domain) (float64, error)
	RecordOutcome(ctx context.Context, callerID string, domain decision.Domain, success, failure bool, ts time.Time) error
}

// KnowledgeEstimator is the mutual-knowledge stage dependency.
type KnowledgeEstimator interface {
	Estimate(ctx context.Context, callerID, utterance string, domain decision.Domain) knowledge.Estimate
	WhatDoesKnow(ctx context.Context, asker, target string, opts knowledge.KnowOptions) ([]*knowledge.Record, error)
}

// ProvenanceVerifier is the provenance stage dependency.
type ProvenanceVerifier interface {
	Check(ctx context.Context, utterance string, domain decision.Domain, strict bool) provenance.Result
	Verify(ctx context.Context, eventID string) error
}

// RiskAssessor is the risk stage dependency.
type RiskAssessor interface {
	Assess(in risk.Input) risk.Assessment
}

// Dependencies carries the five evaluators plus optional telemetry. The
// engine is constructed once at startup and shared; all per-call state
// lives on the stack.
type Dependencies struct {
	Policy     PolicyEvaluator
	Trust      TrustScorer
	Knowledge  KnowledgeEstimator
	Provenance ProvenanceVerifier
	Risk       RiskAssessor

	// Logger defaults to slog.Default. Metrics and Tracer may be nil.
	Logger  *slog.Logger
	Metrics *Metrics
	Tracer  trace.Tracer
}

// Engine orchestrates the decision pipeline. Safe for concurrent use.
type Engine struct {
	deps   Dependencies
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// New creates a decision engine. All five evaluators are required; an
// invalid configuration fails construction rather than failing open later.
func New(deps Dependencies, cfg Config) (*Engine, error) {
	if deps.Policy == nil {
		return nil, fmt.Errorf("policy evaluator cannot be nil")
	}
	if deps.Trust == nil {
		return nil, fmt.Errorf("trust scorer cannot be nil")
	}
	if deps.Knowledge == nil {
		return nil, fmt.Errorf("knowledge estimator cannot be nil")
	}
	if deps.Provenance == nil {
		return nil, fmt.Errorf("provenance verifier cannot be nil")
	}
	if deps.Risk == nil {
		return nil, fmt.Errorf("risk assessor cannot be nil")
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default().With("component", "engine")
	}

	return &Engine{
		deps:   deps,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}, nil
}

// state is the mutable decision being folded through the pipeline.
type state struct {
	outcome    decision.Outcome
	reasons    []decision.ReasonCode
	prompts    []string
	redactions []string

	requireVerify bool

	mkeScore   float64
	trustScore float64
	trustBand  decision.TrustBand
	threshold  float64
}

// restrictTo moves the outcome to the candidate only if the candidate is
// equally or more restrictive. The one-way ratchet at the heart of the
// pipeline.
func (s *state) restrictTo(o decision.Outcome) {
	if o.Severity() >= s.outcome.Severity() {
		s.outcome = o
	}
}

// addReason appends a reason code, deduplicated.
func (s *state) addReason(code decision.ReasonCode) {
	for _, r := range s.reasons {
		if r == code {
			return
		}
	}
	s.reasons = append(s.reasons, code)
}

// Evaluate runs the pipeline and always returns a well-formed Decision.
// The error return is reserved for programming errors (a nil receiver);
// store failures and bad input degrade into the Decision itself.
func (e *Engine) Evaluate(ctx context.Context, rc decision.RequestContext) (*decision.Decision, error) {
	start := e.now()

	if e.deps.Tracer != nil {
		var span trace.Span
		ctx, span = e.deps.Tracer.Start(ctx, "engine.Evaluate",
			trace.WithAttributes(tracing.RequestAttributes(rc)...))
		defer span.End()
	}

	st := &state{outcome: decision.OutcomeDisclose}

	if err := rc.Validate(); err != nil {
		e.logger.Warn("invalid request context", "error", err)
		tracing.SetError(trace.SpanFromContext(ctx), err)
		st.restrictTo(decision.OutcomeInconclusive)
		st.addReason(decision.ReasonInputInvalid)
		return e.finalize(ctx, rc, st, start), nil
	}

	// 1. Policy.
	e.stagePolicy(rc, st)

	// 2. Mutual knowledge.
	if !e.deadlineHit(ctx, st) {
		e.stageKnowledge(ctx, rc, st)
	}

	// 3. Trust.
	if !e.deadlineHit(ctx, st) {
		e.stageTrust(ctx, rc, st)
	}

	// 4. Provenance, strict-truth requests only.
	if rc.StrictTruth && !e.deadlineHit(ctx, st) {
		e.stageProvenance(ctx, rc, st)
	}

	// 5. Security classification.
	if rc.Classification != "" && !e.deadlineHit(ctx, st) {
		e.stageClassification(rc, st)
	}

	// 6. Risk, sensitive requests only.
	if rc.Sensitive && !e.deadlineHit(ctx, st) {
		e.stageRisk(rc, st)
	}

	return e.finalize(ctx, rc, st, start), nil
}

// deadlineHit converts an expired context into the inconclusive outcome.
// Never silently defaults to disclosure.
func (e *Engine) deadlineHit(ctx context.Context, st *state) bool {
	if ctx.Err() == nil {
		return false
	}
	st.restrictTo(decision.OutcomeInconclusive)
	st.addReason(decision.ReasonEvalTimeout)
	return true
}

// stagePolicy applies the policy table. A denial ends in Verify when the
// rule offers the verification escape hatch, Decline otherwise. The Ultra
// owner-only veto is absolute.
func (e *Engine) stagePolicy(rc decision.RequestContext, st *state) {
	res := e.deps.Policy.Evaluate(rc.Domain, rc.Classification, rc.CallerID)

	if res.Allow {
		st.requireVerify = st.requireVerify || res.RequireVerify
		st.redactions = append(st.redactions, res.Redactions...)
		return
	}

	if res.Reason == decision.ReasonSecurityViolation {
		st.restrictTo(decision.OutcomeDecline)
		st.addReason(decision.ReasonPolicyDeny)
		st.addReason(decision.ReasonSecurityViolation)
		return
	}

	if res.RequireVerify {
		st.restrictTo(decision.OutcomeVerify)
		st.requireVerify = true
	} else {
		st.restrictTo(decision.OutcomeDecline)
	}
	st.addReason(decision.ReasonPolicyDeny)
}

// stageKnowledge scores mutual knowledge against the ladder's lower cut
// points.
func (e *Engine) stageKnowledge(ctx context.Context, rc decision.RequestContext, st *state) {
	est := e.deps.Knowledge.Estimate(ctx, rc.CallerID, rc.Utterance, rc.Domain)
	st.mkeScore = est.Score
	if est.Degraded {
		st.addReason(decision.ReasonStoreDegraded)
		e.deps.Metrics.observeDegraded("knowledge")
	}

	switch {
	case est.Score < e.cfg.Ladder.Divert:
		st.restrictTo(decision.OutcomeDivert)
		st.addReason(decision.ReasonMKEDivert)
		st.prompts = append(st.prompts, divertPrompt)
	case est.Score < e.cfg.Ladder.Probe:
		st.restrictTo(decision.OutcomeProbe)
		st.addReason(decision.ReasonMKEProbe)
		st.prompts = append(st.prompts, probePrompt)
	case est.Score < e.cfg.Ladder.Partial:
		if st.outcome == decision.OutcomeDisclose {
			st.restrictTo(decision.OutcomePartial)
			st.addReason(decision.ReasonMKEPartial)
		}
	}
}

// stageTrust applies the decayed trust score against the domain threshold.
// Red band below threshold is a strong veto; Amber below threshold reduces
// a full disclosure to a summary and demands verification.
func (e *Engine) stageTrust(ctx context.Context, rc decision.RequestContext, st *state) {
	score, err := e.deps.Trust.Score(ctx, rc.CallerID, rc.Domain)
	if err != nil {
		// Treat the caller as unknown, the most conservative default.
		score = e.cfg.DegradedTrustScore
		st.addReason(decision.ReasonStoreDegraded)
		e.deps.Metrics.observeDegraded("trust")
		e.logger.Warn("trust store unavailable, using unknown-caller default",
			"caller_id", rc.CallerID,
			"domain", rc.Domain,
			"error", err,
		)
	}

	st.trustScore = score
	st.trustBand = bandFor(score)
	st.threshold = e.cfg.TrustThresholdFor(rc.Domain)

	if score >= st.threshold {
		return
	}

	switch st.trustBand {
	case decision.TrustBandRed:
		st.restrictTo(decision.OutcomeDecline)
		st.addReason(decision.ReasonTrustRed)
	case decision.TrustBandAmber:
		if st.outcome == decision.OutcomeDisclose {
			st.restrictTo(decision.OutcomePartial)
		}
		st.requireVerify = true
		st.addReason(decision.ReasonTrustAmber)
	}
}

// stageProvenance enforces strict truth: no verified evidentiary record
// means the engine cannot answer.
func (e *Engine) stageProvenance(ctx context.Context, rc decision.RequestContext, st *state) {
	res := e.deps.Provenance.Check(ctx, rc.Utterance, rc.Domain, true)
	if res.Degraded {
		st.addReason(decision.ReasonStoreDegraded)
		e.deps.Metrics.observeDegraded("provenance")
	}

	if !res.HasProvenance {
		st.restrictTo(decision.OutcomeInconclusive)
		st.addReason(decision.ReasonTruthMissing)
		st.prompts = append(st.prompts, truthMissingPrompt)
		return
	}

	if res.RequiresVerification {
		st.requireVerify = true
		if st.outcome == decision.OutcomeDisclose {
			st.restrictTo(decision.OutcomeVerify)
		}
	}
}

// stageClassification re-applies the Ultra veto and gates the remaining
// labels on their trust ceilings.
func (e *Engine) stageClassification(rc decision.RequestContext, st *state) {
	if rc.Classification == decision.ClassificationUltra {
		if rc.CallerID != e.deps.Policy.Owner() {
			st.restrictTo(decision.OutcomeDecline)
			st.addReason(decision.ReasonSecurityViolation)
		}
		return
	}

	pol, ok := e.cfg.Classifications[rc.Classification]
	if !ok || st.trustScore >= pol.MinTrust {
		return
	}

	st.requireVerify = true
	st.addReason(decision.ReasonClassVerify)
	switch st.outcome {
	case decision.OutcomeDisclose:
		if pol.EscalateDisclose != "" {
			st.restrictTo(pol.EscalateDisclose)
		}
	case decision.OutcomePartial:
		if pol.EscalatePartial != "" {
			st.restrictTo(pol.EscalatePartial)
		}
	}
}

// stageRisk throttles high-risk interactions and demands verification for
// medium-risk ones that would otherwise disclose in full.
func (e *Engine) stageRisk(rc decision.RequestContext, st *state) {
	assessment := e.deps.Risk.Assess(risk.Input{
		TrustScore:     st.trustScore,
		MKEScore:       st.mkeScore,
		Classification: rc.Classification,
		Sensitive:      rc.Sensitive,
		Domain:         rc.Domain,
	})

	switch assessment.Level {
	case risk.LevelHigh:
		st.restrictTo(decision.OutcomeThrottle)
		st.addReason(decision.ReasonRiskHigh)
	case risk.LevelMedium:
		if st.outcome == decision.OutcomeDisclose {
			st.restrictTo(decision.OutcomeVerify)
			st.requireVerify = true
		}
		st.addReason(decision.ReasonRiskMedium)
	}
}

// finalize seals the state into an immutable Decision.
func (e *Engine) finalize(ctx context.Context, rc decision.RequestContext, st *state, start time.Time) *decision.Decision {
	// Redaction tags only matter if the final outcome still discloses in
	// full; this is the sole way Redact is produced.
	if st.outcome == decision.OutcomeDisclose && len(st.redactions) > 0 {
		st.outcome = decision.OutcomeRedact
	}

	if len(st.reasons) == 0 {
		st.addReason(decision.ReasonOK)
	}

	d := &decision.Decision{
		ID:                uuid.NewString(),
		Outcome:           st.outcome,
		Reasons:           st.reasons,
		MKEScore:          st.mkeScore,
		TrustScore:        st.trustScore,
		TrustBand:         st.trustBand,
		TrustThreshold:    st.threshold,
		Prompts:           st.prompts,
		Redactions:        st.redactions,
		RequireVerify:     st.requireVerify,
		NeedsVerification: st.requireVerify,
		EvaluatedAt:       start,
		EvaluationTime:    e.now().Sub(start),
	}
	d.Confidence = confidence(st.mkeScore, st.trustScore, d.ProblematicReasonCount())

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(tracing.DecisionAttributes(d)...)
	}

	e.deps.Metrics.observeDecision(d)
	e.logger.Info("decision evaluated",
		"decision_id", d.ID,
		"domain", rc.Domain,
		"outcome", d.Outcome,
		"reasons", d.Reasons,
		"confidence", d.Confidence,
		"mke_bucket", e.cfg.Ladder.Bucket(d.MKEScore),
		"trust_band", d.TrustBand,
	)

	return d
}

// RecordOutcome feeds interaction feedback back into the trust scorer.
func (e *Engine) RecordOutcome(ctx context.Context, callerID string, domain decision.Domain, success, failure bool, ts time.Time) error {
	return e.deps.Trust.RecordOutcome(ctx, callerID, domain, success, failure, ts)
}

// WhatDoesKnow exposes the knowledge estimator's explanatory query.
func (e *Engine) WhatDoesKnow(ctx context.Context, asker, target string, opts knowledge.KnowOptions) ([]*knowledge.Record, error) {
	return e.deps.Knowledge.WhatDoesKnow(ctx, asker, target, opts)
}

// VerifyProvenance marks a provenance record verified.
func (e *Engine) VerifyProvenance(ctx context.Context, eventID string) error {
	return e.deps.Provenance.Verify(ctx, eventID)
}

// confidence is the heuristic priority blend: base 0.5, plus 0.3 each for
// mutual knowledge and trust, minus 0.15 per distinct problematic reason,
// clamped to [0, 1].
func confidence(mke, trust float64, problematic int) float64 {
	c := 0.5 + 0.3*mke + 0.3*trust - 0.15*float64(problematic)
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// bandFor classifies a trust score into the fixed bands.
func bandFor(score float64) decision.TrustBand {
	switch {
	case score >= 0.80:
		return decision.TrustBandGreen
	case score >= 0.55:
		return decision.TrustBandAmber
	default:
		return decision.TrustBandRed
	}
}
