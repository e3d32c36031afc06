package policy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"mercator-hq/janus/pkg/decision"
)

// Result is the policy evaluator's verdict for one request.
type Result struct {
	// Allow permits the pipeline to continue toward disclosure.
	Allow bool

	// RequireVerify demands verification before disclosure.
	RequireVerify bool

	// Redactions lists mandatory redaction tags.
	Redactions []string

	// Reason is set when the verdict restricts the request; empty otherwise.
	Reason decision.ReasonCode
}

// Source provides rule tables to the evaluator.
type Source interface {
	// Load loads the current rule table from the source.
	Load(ctx context.Context) (*RuleSet, error)

	// Watch watches for rule changes and sends events on the returned
	// channel. The channel is closed when the context is cancelled.
	Watch(ctx context.Context) (<-chan Event, error)
}

// Event signals that the rule source changed.
type Event struct {
	// Path is the file or checkout path that changed.
	Path string

	// Err is any error that occurred while detecting the change.
	Err error
}

// Evaluator evaluates disclosure requests against the loaded rule table.
// It is safe for concurrent use; reloads swap the table atomically.
type Evaluator struct {
	rules  *RuleSet
	mu     sync.RWMutex
	source Source
	logger *slog.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewEvaluator creates a policy evaluator and loads the initial rule table
// from the source. A failed initial load fails construction: callers must
// not run with an empty table unknowingly (Evaluate would deny everything).
func NewEvaluator(source Source, logger *slog.Logger) (*Evaluator, error) {
	if source == nil {
		return nil, fmt.Errorf("policy source cannot be nil")
	}
	if logger == nil {
		logger = slog.Default().With("component", "policy")
	}

	e := &Evaluator{
		source: source,
		logger: logger,
		stopCh: make(chan struct{}),
	}

	if err := e.Reload(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to load initial policy rules: %w", err)
	}

	return e, nil
}

// Evaluate returns the policy verdict for a request. It is a pure function
// of the loaded table and the inputs, with two absolute rules: the Ultra
// owner-only veto, and fail-closed denial when no table is loaded.
func (e *Evaluator) Evaluate(domain decision.Domain, class decision.Classification, callerID string) Result {
	e.mu.RLock()
	rs := e.rules
	e.mu.RUnlock()

	if rs == nil {
		// Fail closed. Reachable only if construction was bypassed.
		return Result{Allow: false, Reason: decision.ReasonPolicyDeny}
	}

	if class == decision.ClassificationUltra {
		if callerID != rs.Owner {
			return Result{Allow: false, Reason: decision.ReasonSecurityViolation}
		}
		if rs.Ultra != nil {
			if !rs.Ultra.Allow {
				return Result{
					Allow:         false,
					RequireVerify: rs.Ultra.RequireVerify,
					Reason:        decision.ReasonPolicyDeny,
				}
			}
			return Result{
				Allow:         true,
				RequireVerify: rs.Ultra.RequireVerify,
				Redactions:    rs.Ultra.Redactions,
			}
		}
	}

	rule, ok := rs.Rule(domain)
	if !ok {
		// Unknown domains default to permissive.
		return Result{Allow: true}
	}

	if !rule.Allow {
		return Result{
			Allow:         false,
			RequireVerify: rule.RequireVerify,
			Reason:        decision.ReasonPolicyDeny,
		}
	}

	return Result{
		Allow:         true,
		RequireVerify: rule.RequireVerify,
		Redactions:    rule.Redactions,
	}
}

// Reload loads a fresh rule table from the source and swaps it in. On error
// the previous table stays active.
func (e *Evaluator) Reload(ctx context.Context) error {
	rs, err := e.source.Load(ctx)
	if err != nil {
		return &ReloadError{Source: "source", Cause: err}
	}

	e.mu.Lock()
	e.rules = rs
	e.mu.Unlock()

	e.logger.Info("policy rules loaded",
		"owner", rs.Owner,
		"domain_count", len(rs.Domains),
		"ultra_override", rs.Ultra != nil,
	)

	return nil
}

// Owner returns the data owner named by the loaded rule table.
func (e *Evaluator) Owner() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.rules == nil {
		return DefaultOwner
	}
	return e.rules.Owner
}

// Rules returns the currently loaded rule table for introspection.
func (e *Evaluator) Rules() *RuleSet {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rules
}

// Start begins watching the source for rule changes. Each change event
// triggers a reload; a failed reload keeps the previous table and logs the
// error. Start returns immediately.
func (e *Evaluator) Start(ctx context.Context) error {
	eventCh, err := e.source.Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to start policy watcher: %w", err)
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for {
			select {
			case <-e.stopCh:
				return
			case <-ctx.Done():
				return
			case event, ok := <-eventCh:
				if !ok {
					return
				}
				e.handleEvent(ctx, event)
			}
		}
	}()

	return nil
}

// handleEvent processes a single source change event.
func (e *Evaluator) handleEvent(ctx context.Context, event Event) {
	if event.Err != nil {
		e.logger.Error("policy source watch error", "error", event.Err)
		return
	}

	e.logger.Info("policy source changed", "path", event.Path)
	if err := e.Reload(ctx); err != nil {
		e.logger.Error("failed to reload policy rules, keeping previous table",
			"error", err,
			"path", event.Path,
		)
	}
}

// Close stops the watch goroutine, if any.
func (e *Evaluator) Close() error {
	close(e.stopCh)
	e.wg.Wait()
	return nil
}
