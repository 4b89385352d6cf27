package engine

import (
	"context"

	"github.com/bianoble/modsync/internal/registry"
	"github.com/bianoble/modsync/internal/vcs"
)

// Workspace classifies and syncs module working trees. Sync reports whether
// the tree changed.
type Workspace interface {
	UpstreamState(ctx context.Context, m registry.Module) (vcs.UpstreamState, error)
	Sync(ctx context.Context, m registry.Module) (bool, error)
}

// CacheProvider answers whether a source was fetched this run and fetches it.
type CacheProvider interface {
	IsSynced(source string) bool
	Sync(ctx context.Context, source string) error
}

// HeadReader reads the commit checked out at a path.
type HeadReader interface {
	Head(path string) (string, error)
}

// ModuleError represents an error associated with a specific module.
type ModuleError struct {
	Module string
	Err    error
}

func (e ModuleError) Error() string {
	return e.Module + ": " + e.Err.Error()
}

func (e ModuleError) Unwrap() error {
	return e.Err
}

// Skip records a module the driver deliberately left alone.
type Skip struct {
	Module string
	Reason string
}

// Action is what the driver did, or would do, to a module.
type Action struct {
	Module string
	State  vcs.UpstreamState
}

// CheckoutResult holds the outcome of a checkout run.
type CheckoutResult struct {
	Synced []Action
	// Current lists modules already at their ref.
	Current []string
	Skipped []Skip
	Errors  []ModuleError
}

// DirtyModule is a declared module with local modifications.
type DirtyModule struct {
	Name string
	// Path is relative to the project root when possible.
	Path   string
	Reason string
}

// StatusReport holds the outcome of a status run.
type StatusReport struct {
	Changes []DirtyModule
	Unknown []string
	// Missing lists declared modules that have never been checked out.
	Missing []string
}

// HasChanges reports whether any declared module has local modifications.
func (r *StatusReport) HasChanges() bool {
	return len(r.Changes) > 0
}
