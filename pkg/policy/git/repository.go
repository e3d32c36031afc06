package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// Config configures the Git rule source.
type Config struct {
	// Repository is the clone URL of the rules repository.
	Repository string

	// Branch is the branch to track.
	Branch string

	// RulesPath is the path of the rules file within the repository.
	// Default: "rules.yaml".
	RulesPath string

	// LocalPath is where the repository is checked out. Defaults to a
	// directory under the system temp dir.
	LocalPath string

	// Token is an optional bearer token for HTTPS authentication.
	Token string

	// PollInterval is how often to check for new commits. Default: 30s.
	PollInterval time.Duration

	// PullTimeout bounds each clone/pull operation. Default: 10s.
	PullTimeout time.Duration

	// Depth enables shallow clones when positive.
	Depth int

	// CleanOnStart removes any existing checkout before cloning.
	CleanOnStart bool
}

// applyDefaults fills zero-valued fields.
func (c *Config) applyDefaults() {
	if c.RulesPath == "" {
		c.RulesPath = "rules.yaml"
	}
	if c.LocalPath == "" {
		c.LocalPath = filepath.Join(os.TempDir(), "janus-rules")
	}
	if c.PollInterval == 0 {
		c.PollInterval = 30 * time.Second
	}
	if c.PullTimeout == 0 {
		c.PullTimeout = 10 * time.Second
	}
}

// PullResult describes the outcome of a poll cycle.
type PullResult struct {
	FromSHA      string
	ToSHA        string
	HadChanges   bool
	RulesChanged bool
}

// Repository manages the local checkout of the rules repository.
// All Git operations are serialized; the checkout is never left in a
// partially updated state visible to readers.
type Repository struct {
	cfg  Config
	repo *gogit.Repository
	mu   sync.Mutex
}

// NewRepository creates a repository manager. Clone must be called before
// the first Pull.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Repository == "" {
		return nil, fmt.Errorf("repository URL cannot be empty")
	}
	if cfg.Branch == "" {
		return nil, fmt.Errorf("branch cannot be empty")
	}
	cfg.applyDefaults()

	return &Repository{cfg: cfg}, nil
}

// RulesFilePath returns the absolute path of the rules file in the checkout.
func (r *Repository) RulesFilePath() string {
	return filepath.Join(r.cfg.LocalPath, r.cfg.RulesPath)
}

// Clone initializes the local checkout. An existing checkout is reused
// unless CleanOnStart is set.
func (r *Repository) Clone(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cfg.CleanOnStart {
		if err := os.RemoveAll(r.cfg.LocalPath); err != nil {
			return fmt.Errorf("failed to clean existing checkout: %w", err)
		}
	}

	if _, err := os.Stat(filepath.Join(r.cfg.LocalPath, ".git")); err == nil {
		repo, err := gogit.PlainOpen(r.cfg.LocalPath)
		if err != nil {
			return fmt.Errorf("failed to open existing checkout: %w", err)
		}
		r.repo = repo
		return nil
	}

	if err := os.MkdirAll(r.cfg.LocalPath, 0o755); err != nil {
		return fmt.Errorf("failed to create checkout directory: %w", err)
	}

	cloneCtx, cancel := context.WithTimeout(ctx, r.cfg.PullTimeout)
	defer cancel()

	repo, err := gogit.PlainCloneContext(cloneCtx, r.cfg.LocalPath, false, &gogit.CloneOptions{
		URL:           r.cfg.Repository,
		ReferenceName: plumbing.NewBranchReferenceName(r.cfg.Branch),
		SingleBranch:  r.cfg.Depth > 0,
		Depth:         r.cfg.Depth,
		Auth:          r.auth(),
	})
	if err != nil {
		return fmt.Errorf("failed to clone %q: %w", r.cfg.Repository, err)
	}

	r.repo = repo
	return nil
}

// Pull fetches the latest commits and reports whether the rules file
// changed between the previous and new HEAD.
func (r *Repository) Pull(ctx context.Context) (*PullResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo == nil {
		return nil, fmt.Errorf("repository not initialized, call Clone first")
	}

	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get HEAD: %w", err)
	}
	fromSHA := head.Hash()

	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}

	pullCtx, cancel := context.WithTimeout(ctx, r.cfg.PullTimeout)
	defer cancel()

	err = worktree.PullContext(pullCtx, &gogit.PullOptions{
		RemoteName: "origin",
		Auth:       r.auth(),
	})
	if err != nil && err != gogit.NoErrAlreadyUpToDate {
		return nil, fmt.Errorf("failed to pull: %w", err)
	}

	newHead, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to get new HEAD: %w", err)
	}
	toSHA := newHead.Hash()

	result := &PullResult{
		FromSHA:    fromSHA.String(),
		ToSHA:      toSHA.String(),
		HadChanges: fromSHA != toSHA,
	}

	if result.HadChanges {
		changed, err := r.rulesFileChanged(fromSHA, toSHA)
		if err != nil {
			// Comparison failed; err on the side of reloading.
			result.RulesChanged = true
		} else {
			result.RulesChanged = changed
		}
	}

	return result, nil
}

// Head returns the SHA of the current checkout.
func (r *Repository) Head() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.repo == nil {
		return "", fmt.Errorf("repository not initialized")
	}
	ref, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	return ref.Hash().String(), nil
}

// rulesFileChanged compares the rules file blob between two commits.
func (r *Repository) rulesFileChanged(from, to plumbing.Hash) (bool, error) {
	fromHash, err := r.rulesBlobHash(from)
	if err != nil {
		return false, err
	}
	toHash, err := r.rulesBlobHash(to)
	if err != nil {
		return false, err
	}
	return fromHash != toHash, nil
}

// rulesBlobHash returns the blob hash of the rules file at a commit.
// A commit without the file yields the zero hash, so adding or removing
// the file also counts as a change.
func (r *Repository) rulesBlobHash(sha plumbing.Hash) (plumbing.Hash, error) {
	commit, err := r.repo.CommitObject(sha)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to read commit %s: %w", sha, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to read tree for %s: %w", sha, err)
	}
	entry, err := tree.File(r.cfg.RulesPath)
	if err != nil {
		return plumbing.ZeroHash, nil
	}
	return entry.Hash, nil
}

// auth returns HTTPS credentials when a token is configured.
func (r *Repository) auth() *githttp.BasicAuth {
	if r.cfg.Token == "" {
		return nil
	}
	return &githttp.BasicAuth{
		Username: "janus", // Any non-empty user works for token auth.
		Password: r.cfg.Token,
	}
}
