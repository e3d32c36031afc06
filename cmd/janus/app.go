package main

import (
	"context"
	"fmt"
	"log/slog"

	"mercator-hq/janus/pkg/config"
	"mercator-hq/janus/pkg/decision"
	"mercator-hq/janus/pkg/engine"
	"mercator-hq/janus/pkg/knowledge"
	kstorage "mercator-hq/janus/pkg/knowledge/storage"
	"mercator-hq/janus/pkg/policy"
	"mercator-hq/janus/pkg/policy/git"
	"mercator-hq/janus/pkg/policy/source"
	"mercator-hq/janus/pkg/provenance"
	pstorage "mercator-hq/janus/pkg/provenance/storage"
	"mercator-hq/janus/pkg/risk"
	"mercator-hq/janus/pkg/telemetry/logging"
	"mercator-hq/janus/pkg/telemetry/metrics"
	"mercator-hq/janus/pkg/telemetry/tracing"
	"mercator-hq/janus/pkg/trust"
	"mercator-hq/janus/pkg/trust/decay"
	tstorage "mercator-hq/janus/pkg/trust/storage"
)

// app holds the fully wired decision engine and its supporting services.
// Commands build one from the loaded configuration and tear it down with
// Close when they are finished.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	evaluator *policy.Evaluator
	engine    *engine.Engine
	sweeper   *decay.Sweeper
	scheduler *decay.Scheduler

	metricsSrv *metrics.Server
	tracer     *tracing.Tracer

	trustStore      tstorage.Store
	knowledgeLedger knowledge.Ledger
	provLedger      provenance.Ledger
}

// newApp wires every component from the configuration. Components are
// constructed in dependency order; any failure tears down what was
// already built.
func newApp(cfg *config.Config) (*app, error) {
	logger, err := logging.New(logging.Config{
		Level:         cfg.Telemetry.Logging.Level,
		Format:        cfg.Telemetry.Logging.Format,
		AddSource:     cfg.Telemetry.Logging.AddSource,
		RedactContent: cfg.Telemetry.Logging.RedactContent,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	slog.SetDefault(logger)

	a := &app{cfg: cfg, logger: logger}

	if err := a.wire(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire() error {
	cfg := a.cfg

	a.metricsSrv = metrics.NewServer(cfg.Telemetry.Metrics, a.logger)

	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracer = tracer

	ruleSource, err := newRuleSource(cfg.Policy, a.logger)
	if err != nil {
		return err
	}
	a.evaluator, err = policy.NewEvaluator(ruleSource, a.logger)
	if err != nil {
		return fmt.Errorf("failed to load policy rules: %w", err)
	}

	a.trustStore, err = newTrustStore(cfg.Trust)
	if err != nil {
		return err
	}
	scorer, err := trust.NewScorer(a.trustStore, trust.Config{
		Retention: cfg.Trust.Retention,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create trust scorer: %w", err)
	}

	var sweepMetrics *decay.Metrics
	if cfg.Telemetry.Metrics.Enabled {
		sweepMetrics = decay.NewMetricsWith(a.metricsSrv.Registerer())
	}
	a.sweeper, err = decay.NewSweeper(a.trustStore, decay.SweeperConfig{
		Retention: cfg.Trust.Retention,
		ChunkSize: cfg.Trust.Decay.ChunkSize,
		Metrics:   sweepMetrics,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create decay sweeper: %w", err)
	}
	if cfg.Trust.Decay.Schedule != "" {
		a.scheduler = decay.NewScheduler(a.sweeper, cfg.Trust.Decay.Schedule, a.logger)
	}

	a.knowledgeLedger, err = newKnowledgeLedger(cfg.Knowledge)
	if err != nil {
		return err
	}
	estimator, err := knowledge.NewEstimator(a.knowledgeLedger, knowledge.Config{},
		affinityDomains(cfg.Knowledge.Affinity), a.logger)
	if err != nil {
		return fmt.Errorf("failed to create knowledge estimator: %w", err)
	}

	a.provLedger, err = newProvenanceLedger(cfg.Provenance)
	if err != nil {
		return err
	}
	verifier, err := provenance.NewVerifier(a.provLedger, provenance.Config{}, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create provenance verifier: %w", err)
	}

	var engineMetrics *engine.Metrics
	if cfg.Telemetry.Metrics.Enabled {
		engineMetrics = engine.NewMetricsWith(a.metricsSrv.Registerer())
	}

	a.engine, err = engine.New(engine.Dependencies{
		Policy:     a.evaluator,
		Trust:      scorer,
		Knowledge:  estimator,
		Provenance: verifier,
		Risk:       risk.NewAssessor(),
		Logger:     a.logger,
		Metrics:    engineMetrics,
		Tracer:     tracer.Tracer(),
	}, engineConfigFrom(cfg.Engine))
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	return nil
}

// Close releases every resource the app holds. Safe to call on a
// partially wired app.
func (a *app) Close() {
	if a.scheduler != nil && a.scheduler.IsRunning() {
		a.scheduler.Stop()
	}
	if a.evaluator != nil {
		if err := a.evaluator.Close(); err != nil {
			a.logger.Warn("failed to close policy evaluator", "error", err)
		}
	}
	for name, c := range map[string]interface{ Close() error }{
		"trust store":       a.trustStore,
		"knowledge ledger":  a.knowledgeLedger,
		"provenance ledger": a.provLedger,
	} {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			a.logger.Warn("failed to close "+name, "error", err)
		}
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			a.logger.Warn("failed to shut down tracer", "error", err)
		}
	}
}

func newRuleSource(cfg config.PolicyConfig, logger *slog.Logger) (policy.Source, error) {
	switch cfg.Mode {
	case "git":
		src, err := git.NewSource(git.Config{
			Repository:   cfg.Git.Repository,
			Branch:       cfg.Git.Branch,
			RulesPath:    cfg.Git.RulesPath,
			LocalPath:    cfg.Git.LocalPath,
			Token:        cfg.Git.Token,
			PollInterval: cfg.Git.PollInterval,
			PullTimeout:  cfg.Git.PullTimeout,
			Depth:        cfg.Git.Depth,
			CleanOnStart: cfg.Git.CleanOnStart,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create git rule source: %w", err)
		}
		return src, nil
	default:
		return source.NewFileSource(cfg.FilePath, logger), nil
	}
}

func newTrustStore(cfg config.TrustConfig) (tstorage.Store, error) {
	switch cfg.Backend {
	case "sqlite":
		store, err := tstorage.NewSQLiteStoreWithConfig(tstorage.SQLiteStoreConfig{
			DBPath:             cfg.SQLite.Path,
			CheckpointInterval: cfg.SQLite.SnapshotInterval,
			BusyTimeout:        cfg.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open trust store: %w", err)
		}
		return store, nil
	default:
		return tstorage.NewMemoryStore(), nil
	}
}

func newKnowledgeLedger(cfg config.KnowledgeConfig) (knowledge.Ledger, error) {
	switch cfg.Backend {
	case "sqlite":
		ledger, err := kstorage.NewSQLiteLedger(&kstorage.SQLiteLedgerConfig{
			Path:        cfg.SQLite.Path,
			WALMode:     true,
			BusyTimeout: cfg.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open knowledge ledger: %w", err)
		}
		return ledger, nil
	default:
		return kstorage.NewMemoryLedger(), nil
	}
}

func newProvenanceLedger(cfg config.ProvenanceConfig) (provenance.Ledger, error) {
	switch cfg.Backend {
	case "sqlite":
		ledger, err := pstorage.NewSQLiteLedger(&pstorage.SQLiteLedgerConfig{
			Path:        cfg.SQLite.Path,
			WALMode:     true,
			BusyTimeout: cfg.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open provenance ledger: %w", err)
		}
		return ledger, nil
	default:
		return pstorage.NewMemoryLedger(), nil
	}
}

// affinityDomains converts the configured relationship map into typed
// domains. Unknown names pass through lowercased and simply never match
// a request domain.
func affinityDomains(affinity map[string][]string) map[string][]decision.Domain {
	if len(affinity) == 0 {
		return nil
	}
	out := make(map[string][]decision.Domain, len(affinity))
	for caller, domains := range affinity {
		typed := make([]decision.Domain, 0, len(domains))
		for _, d := range domains {
			typed = append(typed, decision.ParseDomain(d))
		}
		out[caller] = typed
	}
	return out
}

// engineConfigFrom converts the YAML-facing threshold section into the
// engine's typed configuration. Zero values stay zero so the engine's
// own defaults apply.
func engineConfigFrom(cfg config.EngineConfig) engine.Config {
	ec := engine.Config{
		Ladder: engine.Ladder{
			Divert:   cfg.Ladder.Divert,
			Probe:    cfg.Ladder.Probe,
			Partial:  cfg.Ladder.Partial,
			Disclose: cfg.Ladder.Disclose,
			Verify:   cfg.Ladder.Verify,
		},
		DefaultTrustThreshold: cfg.DefaultTrustThreshold,
		DegradedTrustScore:    cfg.DegradedTrustScore,
	}
	if len(cfg.TrustThresholds) > 0 {
		ec.TrustThresholds = make(map[decision.Domain]float64, len(cfg.TrustThresholds))
		for d, v := range cfg.TrustThresholds {
			ec.TrustThresholds[decision.ParseDomain(d)] = v
		}
	}
	return ec
}
