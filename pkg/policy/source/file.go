package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"mercator-hq/janus/pkg/policy"
)

// FileSource loads the rule table from a single YAML file on disk and
// watches it for changes with fsnotify.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource creates a file-based rule source.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default().With("component", "policy.source")
	}
	return &FileSource{
		path:   path,
		logger: logger,
	}
}

// Load reads and parses the rule file.
func (s *FileSource) Load(ctx context.Context) (*policy.RuleSet, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file %q: %w", s.path, err)
	}

	rs, err := policy.ParseRules(data, s.path)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("loaded rules file",
		"path", s.path,
		"domain_count", len(rs.Domains),
	)

	return rs, nil
}

// Watch watches the rule file for changes and sends an event per write.
// The watch is placed on the parent directory so that editors that replace
// the file (rename-over-write) are still observed. The channel is closed
// when the context is cancelled.
func (s *FileSource) Watch(ctx context.Context) (<-chan policy.Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory %q: %w", dir, err)
	}

	target, err := filepath.Abs(s.path)
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to resolve rules path %q: %w", s.path, err)
	}

	eventCh := make(chan policy.Event)

	go func() {
		defer close(eventCh)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !s.matchesTarget(ev.Name, target) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				select {
				case eventCh <- policy.Event{Path: s.path}:
				case <-ctx.Done():
					return
				}
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				select {
				case eventCh <- policy.Event{Path: s.path, Err: werr}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	s.logger.Info("watching rules file", "path", s.path)

	return eventCh, nil
}

// matchesTarget reports whether a watcher event refers to the rules file.
func (s *FileSource) matchesTarget(name, target string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	return abs == target
}
