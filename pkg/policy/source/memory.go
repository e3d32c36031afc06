package source

import (
	"context"

	"mercator-hq/janus/pkg/policy"
)

// MemorySource serves a fixed rule table. Useful for tests and for callers
// that build rules programmatically.
type MemorySource struct {
	rules *policy.RuleSet
}

// NewMemorySource creates a source serving the given rule table.
func NewMemorySource(rules *policy.RuleSet) *MemorySource {
	return &MemorySource{rules: rules}
}

// Load returns the fixed rule table.
func (s *MemorySource) Load(ctx context.Context) (*policy.RuleSet, error) {
	if s.rules == nil {
		return nil, policy.ErrNoRulesLoaded
	}
	return s.rules, nil
}

// Watch returns a channel that never delivers events and closes when the
// context is cancelled.
func (s *MemorySource) Watch(ctx context.Context) (<-chan policy.Event, error) {
	eventCh := make(chan policy.Event)
	go func() {
		<-ctx.Done()
		close(eventCh)
	}()
	return eventCh, nil
}
