package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"mercator-hq/janus/pkg/decision"
)

const originRules = `
owner: Self
domains:
  finance:
    allow: true
    require_verify: true
  family:
    allow: true
`

// initOrigin creates a local repository with an initial rules commit and
// returns its path together with a commit helper.
func initOrigin(t *testing.T) (string, func(file, content, msg string)) {
	t.Helper()

	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init origin repo: %v", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}

	commit := func(file, content, msg string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", file, err)
		}
		if _, err := worktree.Add(file); err != nil {
			t.Fatalf("failed to stage %s: %v", file, err)
		}
		_, err := worktree.Commit(msg, &gogit.CommitOptions{
			Author: &object.Signature{
				Name:  "tester",
				Email: "tester@example.com",
				When:  time.Now(),
			},
		})
		if err != nil {
			t.Fatalf("failed to commit: %v", err)
		}
	}

	commit("rules.yaml", originRules, "initial rules")
	return dir, commit
}

func newTestSource(t *testing.T, origin string) *Source {
	t.Helper()
	src, err := NewSource(Config{
		Repository: origin,
		Branch:     "master",
		LocalPath:  filepath.Join(t.TempDir(), "checkout"),
	}, nil)
	if err != nil {
		t.Fatalf("NewSource() error = %v", err)
	}
	return src
}

func TestSource_Load(t *testing.T) {
	origin, _ := initOrigin(t)
	src := newTestSource(t, origin)

	rs, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rs.Owner != "Self" {
		t.Errorf("Owner = %q, want Self", rs.Owner)
	}
	fin, ok := rs.Rule(decision.DomainFinance)
	if !ok {
		t.Fatal("expected finance rule")
	}
	if !fin.RequireVerify {
		t.Error("expected finance to require verification")
	}
}

func TestSource_LoadReusesCheckout(t *testing.T) {
	origin, _ := initOrigin(t)
	src := newTestSource(t, origin)

	if _, err := src.Load(context.Background()); err != nil {
		t.Fatalf("first Load() error = %v", err)
	}
	if _, err := src.Load(context.Background()); err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
}

func TestRepository_PullDetectsRulesChanges(t *testing.T) {
	origin, commit := initOrigin(t)
	src := newTestSource(t, origin)

	if _, err := src.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Commit that does not touch the rules file.
	commit("README.md", "docs\n", "add readme")

	result, err := src.repo.Pull(context.Background())
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if !result.HadChanges {
		t.Fatal("expected new commits")
	}
	if result.RulesChanged {
		t.Error("readme-only commit should not flag a rules change")
	}

	// Commit that rewrites the rules file.
	commit("rules.yaml", originRules+"  health:\n    allow: false\n", "deny health")

	result, err = src.repo.Pull(context.Background())
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if !result.RulesChanged {
		t.Error("rules rewrite should flag a rules change")
	}

	// A subsequent pull with no new commits is a no-op.
	result, err = src.repo.Pull(context.Background())
	if err != nil {
		t.Fatalf("Pull() error = %v", err)
	}
	if result.HadChanges {
		t.Error("expected no changes on an up-to-date pull")
	}
}

func TestSource_WatchEmitsOnRulesChange(t *testing.T) {
	origin, commit := initOrigin(t)

	src, err := NewSource(Config{
		Repository:   origin,
		Branch:       "master",
		LocalPath:    filepath.Join(t.TempDir(), "checkout"),
		PollInterval: 50 * time.Millisecond,
	}, nil)
	if err != nil {
		t.Fatalf("NewSource() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := src.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	commit("rules.yaml", originRules+"  work:\n    allow: true\n", "allow work")

	select {
	case ev := <-events:
		if ev.Err != nil {
			t.Fatalf("unexpected watch error: %v", ev.Err)
		}
		if ev.Path != src.repo.RulesFilePath() {
			t.Errorf("event path = %q, want %q", ev.Path, src.repo.RulesFilePath())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for poll event")
	}
}

func TestNewRepository_Validation(t *testing.T) {
	if _, err := NewRepository(Config{Branch: "main"}); err == nil {
		t.Error("expected error for missing repository URL")
	}
	if _, err := NewRepository(Config{Repository: "https://example.com/r.git"}); err == nil {
		t.Error("expected error for missing branch")
	}
}
