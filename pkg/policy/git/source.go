package git

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"mercator-hq/janus/pkg/policy"
)

// Source loads the rule table from a Git checkout and polls the remote for
// new commits. It implements policy.Source.
type Source struct {
	repo   *Repository
	cfg    Config
	logger *slog.Logger

	cloneOnce sync.Once
	cloneErr  error
}

// NewSource creates a Git-backed rule source. The repository is cloned
// lazily on the first Load or Watch call.
func NewSource(cfg Config, logger *slog.Logger) (*Source, error) {
	if logger == nil {
		logger = slog.Default().With("component", "policy.git")
	}
	cfg.applyDefaults()

	repo, err := NewRepository(cfg)
	if err != nil {
		return nil, err
	}

	return &Source{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// ensureClone performs the initial clone exactly once.
func (s *Source) ensureClone(ctx context.Context) error {
	s.cloneOnce.Do(func() {
		s.cloneErr = s.repo.Clone(ctx)
		if s.cloneErr == nil {
			sha, err := s.repo.Head()
			if err == nil {
				s.logger.Info("cloned rules repository",
					"repository", s.cfg.Repository,
					"branch", s.cfg.Branch,
					"sha", sha,
				)
			}
		}
	})
	return s.cloneErr
}

// Load reads and parses the rules file from the local checkout.
func (s *Source) Load(ctx context.Context) (*policy.RuleSet, error) {
	if err := s.ensureClone(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare rules checkout: %w", err)
	}

	path := s.repo.RulesFilePath()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %q: %w", path, err)
	}

	rs, err := policy.ParseRules(data, path)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("loaded rules from checkout",
		"path", path,
		"domain_count", len(rs.Domains),
	)

	return rs, nil
}

// Watch polls the remote at the configured interval and emits an event
// whenever the rules file changes between commits. Pull errors are reported
// on the channel but do not stop the poll loop. The channel is closed when
// the context is cancelled.
func (s *Source) Watch(ctx context.Context) (<-chan policy.Event, error) {
	if err := s.ensureClone(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare rules checkout: %w", err)
	}

	eventCh := make(chan policy.Event)

	go func() {
		defer close(eventCh)

		ticker := time.NewTicker(s.cfg.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.poll(ctx, eventCh)
			}
		}
	}()

	s.logger.Info("polling rules repository",
		"repository", s.cfg.Repository,
		"branch", s.cfg.Branch,
		"interval", s.cfg.PollInterval,
	)

	return eventCh, nil
}

// poll runs one pull cycle and emits an event if warranted.
func (s *Source) poll(ctx context.Context, eventCh chan<- policy.Event) {
	result, err := s.repo.Pull(ctx)
	if err != nil {
		select {
		case eventCh <- policy.Event{Path: s.repo.RulesFilePath(), Err: err}:
		case <-ctx.Done():
		}
		return
	}

	if !result.HadChanges {
		return
	}

	s.logger.Info("rules repository advanced",
		"from", result.FromSHA,
		"to", result.ToSHA,
		"rules_changed", result.RulesChanged,
	)

	if !result.RulesChanged {
		return
	}

	select {
	case eventCh <- policy.Event{Path: s.repo.RulesFilePath()}:
	case <-ctx.Done():
	}
}
