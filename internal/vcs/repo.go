// Package vcs adapts git to the capabilities the reconciliation engine needs:
// a module's origin, its checked-out HEAD, its dirtiness, its cache handle,
// its upstream state and a destructive working-tree sync.
package vcs

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"

	"github.com/bianoble/modsync/internal/cache"
	"github.com/bianoble/modsync/internal/inspect"
)

var (
	// ErrNotRepository indicates the path holds no git repository.
	ErrNotRepository = errors.New("not a git repository")

	// ErrNoOrigin indicates the repository has no origin remote.
	ErrNoOrigin = errors.New("no origin remote")
)

// Repo wraps a working-tree path with the queries the engine runs against it.
type Repo struct {
	Path   string
	Source string

	inspector *inspect.Inspector
	cache     *cache.Coordinator
}

// Origin returns the URL of the origin remote.
func (r *Repo) Origin() (string, error) {
	repo, err := r.open()
	if err != nil {
		return "", err
	}

	remote, err := repo.Remote("origin")
	if errors.Is(err, git.ErrRemoteNotFound) {
		return "", fmt.Errorf("%s: %w", r.Path, ErrNoOrigin)
	}
	if err != nil {
		return "", fmt.Errorf("reading origin of %s: %w", r.Path, err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("%s: %w", r.Path, ErrNoOrigin)
	}
	return urls[0], nil
}

// Head returns the commit currently checked out.
func (r *Repo) Head() (string, error) {
	repo, err := r.open()
	if err != nil {
		return "", err
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("reading HEAD of %s: %w", r.Path, err)
	}
	return head.Hash().String(), nil
}

// Dirty inspects the working tree for local modifications.
func (r *Repo) Dirty(ctx context.Context) (inspect.TreeState, error) {
	return r.inspector.IsDirty(ctx, r.Path)
}

// Cache returns the shared cache entry for the repository's declared source.
func (r *Repo) Cache() *cache.Entry {
	return r.cache.Entry(r.Source)
}

func (r *Repo) open() (*git.Repository, error) {
	repo, err := git.PlainOpen(r.Path)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("%s: %w", r.Path, ErrNotRepository)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", r.Path, err)
	}
	return repo, nil
}
