package vcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bianoble/modsync/internal/cache"
	"github.com/bianoble/modsync/internal/gitcli"
	"github.com/bianoble/modsync/internal/inspect"
	"github.com/bianoble/modsync/internal/registry"
	"github.com/bianoble/modsync/internal/sandbox"
)

// UpstreamState relates a module's desired ref to its checkout and the cache.
type UpstreamState string

const (
	// StateAbsent means there is no checkout at the module path.
	StateAbsent UpstreamState = "absent"
	// StateMismatched means the checkout tracks a different source.
	StateMismatched UpstreamState = "mismatched"
	// StateOutdated means HEAD differs from the ref, or the ref is a branch
	// that has not been fetched this run.
	StateOutdated UpstreamState = "outdated"
	// StateSatisfied means the checkout already matches the ref.
	StateSatisfied UpstreamState = "satisfied"
)

// Workspace computes upstream state and syncs working trees from the cache.
type Workspace struct {
	Git       *gitcli.Runner
	Inspector *inspect.Inspector
	Cache     *cache.Coordinator
}

// NewWorkspace wires a Workspace from its collaborators.
func NewWorkspace(git *gitcli.Runner, inspector *inspect.Inspector, c *cache.Coordinator) *Workspace {
	return &Workspace{Git: git, Inspector: inspector, Cache: c}
}

// Open returns the Repo adapter for a module.
func (w *Workspace) Open(m registry.Module) *Repo {
	return &Repo{
		Path:      m.Path,
		Source:    m.Source,
		inspector: w.Inspector,
		cache:     w.Cache,
	}
}

// Head returns the commit checked out at path.
func (w *Workspace) Head(path string) (string, error) {
	return (&Repo{Path: path}).Head()
}

// UpstreamState classifies a declared module.
func (w *Workspace) UpstreamState(ctx context.Context, m registry.Module) (UpstreamState, error) {
	gitDir := filepath.Join(m.Path, ".git")
	info, err := os.Stat(gitDir)
	if os.IsNotExist(err) {
		return StateAbsent, nil
	}
	if err != nil {
		return "", fmt.Errorf("checking %s: %w", gitDir, err)
	}
	if !info.IsDir() {
		return StateMismatched, nil
	}

	repo := w.Open(m)
	origin, err := repo.Origin()
	switch {
	case errors.Is(err, ErrNotRepository), errors.Is(err, ErrNoOrigin):
		return StateMismatched, nil
	case err != nil:
		return "", err
	case origin != m.Source:
		return StateMismatched, nil
	}

	head, err := repo.Head()
	if err != nil {
		// An unborn branch has no HEAD commit yet.
		return StateOutdated, nil
	}

	res, err := w.Cache.Resolve(m.Source, m.Ref)
	if err != nil || res.Commit != head {
		return StateOutdated, nil
	}

	if res.Kind == cache.RefBranch && !w.Cache.IsSynced(m.Source) {
		return StateOutdated, nil
	}

	return StateSatisfied, nil
}

// Sync forces the module's working tree to the commit its ref resolves to in
// the cache. Local modifications are discarded, so callers must only sync
// trees the inspector found clean. It reports whether the tree changed;
// syncing a satisfied module is a no-op.
func (w *Workspace) Sync(ctx context.Context, m registry.Module) (bool, error) {
	state, err := w.UpstreamState(ctx, m)
	if err != nil {
		return false, err
	}

	switch state {
	case StateSatisfied:
		return false, nil
	case StateMismatched:
		if err := sandbox.ClearDir(m.ModuleDir, m.Path); err != nil {
			return false, fmt.Errorf("clearing mismatched checkout %s: %w", m.Path, err)
		}
		fallthrough
	case StateAbsent:
		if err := w.initRepo(ctx, m); err != nil {
			return false, err
		}
	}

	res, err := w.Cache.Resolve(m.Source, m.Ref)
	if err != nil {
		return false, fmt.Errorf("resolving %s: %w", m.Ref, err)
	}
	pin, err := w.Cache.Pin(m.Source, res.Commit)
	if err != nil {
		return false, err
	}

	if _, err := w.Git.Run(ctx, m.Path, "fetch", "--quiet", "--force", "--tags",
		w.Cache.Dir(m.Source), "+refs/remotes/origin/*:refs/remotes/cache/*", "+"+pin+":"+pin); err != nil {
		return false, fmt.Errorf("fetching from cache: %w", err)
	}

	if _, err := w.Git.Run(ctx, m.Path, "checkout", "--quiet", "--force", "--detach", res.Commit); err != nil {
		return false, fmt.Errorf("checking out %s: %w", res.Commit, err)
	}

	return true, nil
}

func (w *Workspace) initRepo(ctx context.Context, m registry.Module) error {
	if err := os.MkdirAll(m.Path, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", m.Path, err)
	}
	if _, err := w.Git.Run(ctx, m.Path, "init", "--quiet"); err != nil {
		return fmt.Errorf("initializing %s: %w", m.Path, err)
	}
	if _, err := w.Git.Run(ctx, m.Path, "remote", "add", "origin", m.Source); err != nil {
		return fmt.Errorf("setting origin of %s: %w", m.Path, err)
	}
	return nil
}
