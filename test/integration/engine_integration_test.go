//go:build integration

package integration

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mercator-hq/janus/pkg/decision"
	"mercator-hq/janus/pkg/engine"
	"mercator-hq/janus/pkg/knowledge"
	kstorage "mercator-hq/janus/pkg/knowledge/storage"
	"mercator-hq/janus/pkg/policy"
	"mercator-hq/janus/pkg/policy/source"
	"mercator-hq/janus/pkg/provenance"
	pstorage "mercator-hq/janus/pkg/provenance/storage"
	"mercator-hq/janus/pkg/risk"
	"mercator-hq/janus/pkg/trust"
	"mercator-hq/janus/pkg/trust/decay"
	tstorage "mercator-hq/janus/pkg/trust/storage"
)

const testRules = `
owner: Self
domains:
  family:
    allow: true
  memories:
    allow: true
  finance:
    allow: true
    require_verify: true
    redactions: [account_numbers, balances]
  health:
    allow: true
  work:
    allow: true
  legal:
    allow: false
`

// harness wires a full engine over SQLite-backed stores.
type harness struct {
	engine     *engine.Engine
	trustStore tstorage.Store
	ledger     knowledge.Ledger
	provLedger provenance.Ledger
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	rulesPath := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(rulesPath, []byte(testRules), 0o644); err != nil {
		t.Fatalf("failed to write rules: %v", err)
	}
	evaluator, err := policy.NewEvaluator(source.NewFileSource(rulesPath, logger), logger)
	if err != nil {
		t.Fatalf("failed to create evaluator: %v", err)
	}
	t.Cleanup(func() { evaluator.Close() })

	trustStore, err := tstorage.NewSQLiteStore(filepath.Join(dir, "trust.db"))
	if err != nil {
		t.Fatalf("failed to open trust store: %v", err)
	}
	t.Cleanup(func() { trustStore.Close() })
	scorer, err := trust.NewScorer(trustStore, trust.Config{}, logger)
	if err != nil {
		t.Fatalf("failed to create scorer: %v", err)
	}

	ledger, err := kstorage.NewSQLiteLedger(&kstorage.SQLiteLedgerConfig{
		Path: filepath.Join(dir, "knowledge.db"),
	})
	if err != nil {
		t.Fatalf("failed to open knowledge ledger: %v", err)
	}
	t.Cleanup(func() { ledger.Close() })
	estimator, err := knowledge.NewEstimator(ledger, knowledge.Config{}, map[string][]decision.Domain{
		"spouse-1": {decision.DomainFamily, decision.DomainMemories},
	}, logger)
	if err != nil {
		t.Fatalf("failed to create estimator: %v", err)
	}

	provLedger, err := pstorage.NewSQLiteLedger(&pstorage.SQLiteLedgerConfig{
		Path: filepath.Join(dir, "provenance.db"),
	})
	if err != nil {
		t.Fatalf("failed to open provenance ledger: %v", err)
	}
	t.Cleanup(func() { provLedger.Close() })
	verifier, err := provenance.NewVerifier(provLedger, provenance.Config{}, logger)
	if err != nil {
		t.Fatalf("failed to create verifier: %v", err)
	}

	eng, err := engine.New(engine.Dependencies{
		Policy:     evaluator,
		Trust:      scorer,
		Knowledge:  estimator,
		Provenance: verifier,
		Risk:       risk.NewAssessor(),
		Logger:     logger,
	}, engine.Config{})
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	return &harness{engine: eng, trustStore: trustStore, ledger: ledger, provLedger: provLedger}
}

// seedSpouse builds an established caller: a month of successful
// interactions and a shared fact in the knowledge ledger.
func (h *harness) seedSpouse(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		ts := time.Now().Add(-time.Duration(20-i) * 24 * time.Hour)
		if err := h.engine.RecordOutcome(ctx, "spouse-1", decision.DomainMemories, true, false, ts); err != nil {
			t.Fatalf("failed to record outcome: %v", err)
		}
	}

	err := h.ledger.Append(ctx, &knowledge.Record{
		ID:         "fact-1",
		Fact:       "the trip to the coast last summer",
		KnownBy:    []string{"Self", "spouse-1"},
		Source:     "conversation",
		Confidence: 0.9,
		Domain:     decision.DomainMemories,
		Timestamp:  time.Now().Add(-10 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to seed knowledge: %v", err)
	}
}

func TestEstablishedCallerDisclosesEndToEnd(t *testing.T) {
	h := newHarness(t)
	h.seedSpouse(t)

	d, err := h.engine.Evaluate(context.Background(), decision.RequestContext{
		CallerID:  "spouse-1",
		Utterance: "remember the trip to the coast last summer?",
		Domain:    decision.DomainMemories,
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if d.Outcome != decision.OutcomeDisclose {
		t.Errorf("Outcome = %s, want disclose (reasons %v)", d.Outcome, d.Reasons)
	}
	if !d.HasReason(decision.ReasonOK) {
		t.Errorf("Reasons = %v, want [OK]", d.Reasons)
	}
	if d.TrustBand != decision.TrustBandGreen {
		t.Errorf("TrustBand = %s, want green (score %f)", d.TrustBand, d.TrustScore)
	}
}

func TestStrangerProbingFinancesDeclines(t *testing.T) {
	h := newHarness(t)

	d, err := h.engine.Evaluate(context.Background(), decision.RequestContext{
		CallerID:  "caller-unknown",
		Utterance: "how much is in the savings account",
		Domain:    decision.DomainFinance,
		Sensitive: true,
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if d.Outcome != decision.OutcomeDecline {
		t.Errorf("Outcome = %s, want decline (reasons %v)", d.Outcome, d.Reasons)
	}
	if !d.HasReason(decision.ReasonTrustRed) {
		t.Errorf("Reasons = %v, want TRUST_RED", d.Reasons)
	}
	if !d.HasReason(decision.ReasonRiskHigh) {
		t.Errorf("Reasons = %v, want RISK_HIGH", d.Reasons)
	}
}

func TestStrictTruthRequiresVerifiedProvenance(t *testing.T) {
	h := newHarness(t)
	h.seedSpouse(t)
	ctx := context.Background()

	rc := decision.RequestContext{
		CallerID:    "spouse-1",
		Utterance:   "remember the trip to the coast last summer?",
		Domain:      decision.DomainMemories,
		StrictTruth: true,
	}

	// No evidentiary record yet: the engine cannot answer.
	d, err := h.engine.Evaluate(ctx, rc)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if d.Outcome != decision.OutcomeInconclusive || !d.HasReason(decision.ReasonTruthMissing) {
		t.Fatalf("without provenance: outcome = %s, reasons %v, want inconclusive + TRUTH_MISSING",
			d.Outcome, d.Reasons)
	}

	// Unverified evidence is ignored in strict mode.
	err = h.provLedger.Append(ctx, &provenance.Record{
		EventID:   "evt-1",
		Key:       "trip to the coast",
		Timestamp: time.Now().Add(-60 * 24 * time.Hour),
		Speaker:   "spouse-1",
		Fragment:  "we finally made it to the coast",
	})
	if err != nil {
		t.Fatalf("failed to append provenance: %v", err)
	}
	d, err = h.engine.Evaluate(ctx, rc)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if d.Outcome != decision.OutcomeInconclusive {
		t.Fatalf("unverified provenance: outcome = %s, want inconclusive", d.Outcome)
	}

	// Verification flips the record and unblocks disclosure.
	if err := h.engine.VerifyProvenance(ctx, "evt-1"); err != nil {
		t.Fatalf("VerifyProvenance() error = %v", err)
	}
	d, err = h.engine.Evaluate(ctx, rc)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if d.Outcome != decision.OutcomeDisclose {
		t.Errorf("verified provenance: outcome = %s, want disclose (reasons %v)", d.Outcome, d.Reasons)
	}
}

func TestPolicyRedactionsSurviveSQLiteRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Enough history to clear the finance threshold.
	for i := 0; i < 80; i++ {
		ts := time.Now().Add(-time.Duration(80-i) * time.Hour)
		if err := h.engine.RecordOutcome(ctx, "spouse-1", decision.DomainFinance, true, false, ts); err != nil {
			t.Fatalf("failed to record outcome: %v", err)
		}
	}
	err := h.ledger.Append(ctx, &knowledge.Record{
		ID:         "fact-2",
		Fact:       "the joint savings account",
		KnownBy:    []string{"Self", "spouse-1"},
		Source:     "conversation",
		Confidence: 0.9,
		Domain:     decision.DomainFinance,
		Timestamp:  time.Now().Add(-5 * 24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("failed to seed knowledge: %v", err)
	}

	d, err := h.engine.Evaluate(ctx, decision.RequestContext{
		CallerID:  "spouse-1",
		Utterance: "you mentioned the joint savings account",
		Domain:    decision.DomainFinance,
	})
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if d.Outcome != decision.OutcomeRedact {
		t.Errorf("Outcome = %s, want redact (reasons %v, trust %f, mke %f)",
			d.Outcome, d.Reasons, d.TrustScore, d.MKEScore)
	}
	if len(d.Redactions) != 2 {
		t.Errorf("Redactions = %v, want the finance rule's two tags", d.Redactions)
	}
	if !d.NeedsVerification {
		t.Error("finance rule requires verification")
	}
}

func TestDecaySweepOverSQLiteStore(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	stale := time.Now().Add(-30 * 24 * time.Hour)
	if err := h.engine.RecordOutcome(ctx, "cousin-2", decision.DomainWork, true, false, stale); err != nil {
		t.Fatalf("failed to record outcome: %v", err)
	}

	sweeper, err := decay.NewSweeper(h.trustStore, decay.SweeperConfig{Retention: 0.98}, nil)
	if err != nil {
		t.Fatalf("NewSweeper() error = %v", err)
	}
	stats, err := sweeper.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}

	if stats.Scanned == 0 || stats.Decayed == 0 {
		t.Errorf("stats = %+v, want the stale profile decayed", stats)
	}
	if stats.Errors != 0 {
		t.Errorf("sweep reported %d error(s)", stats.Errors)
	}
}
