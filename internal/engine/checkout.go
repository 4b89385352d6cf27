package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/bianoble/modsync/internal/cache"
	"github.com/bianoble/modsync/internal/registry"
	"github.com/bianoble/modsync/internal/vcs"
)

var discard = log.New(io.Discard)

func loggerOr(l *log.Logger) *log.Logger {
	if l == nil {
		return discard
	}
	return l
}

// CheckoutEngine reconciles module working trees against the manifest.
type CheckoutEngine struct {
	Workspace Workspace
	Cache     CacheProvider
	Logger    *log.Logger
}

// CheckoutOptions configures a checkout run.
type CheckoutOptions struct {
	// DryRun reports what would be synced without fetching or touching any tree.
	DryRun bool
}

// Checkout walks the modules in order and syncs every clean declared module
// whose upstream state calls for it.
//
// Only absent, mismatched and outdated modules are synced. Any other state,
// including one this engine does not recognize, is skipped. The source cache
// is fetched at most once per run and always before the working tree is
// touched. A module with local modifications is never synced.
//
// An outdated branch whose fetched tip equals HEAD needs no sync and is
// reported as current. Failures are recorded per module and the run continues. The only errors
// returned are context cancellation and a cache root that cannot be created.
func (e *CheckoutEngine) Checkout(ctx context.Context, modules []registry.Module, opts CheckoutOptions) (*CheckoutResult, error) {
	logger := loggerOr(e.Logger)
	result := &CheckoutResult{}

	skip := func(name, reason string) {
		logger.Warnf("%s: Skipping - %s", name, reason)
		result.Skipped = append(result.Skipped, Skip{Module: name, Reason: reason})
	}
	fail := func(name string, err error) {
		logger.Error("module failed", "module", name, "error", err)
		result.Errors = append(result.Errors, ModuleError{Module: name, Err: err})
	}

	for _, m := range modules {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		// Undeclared checkouts have no source to fetch or ref to sync to.
		if !m.Declared {
			skip(m.Name, registry.StatusUnknown)
			continue
		}

		state, err := e.Workspace.UpstreamState(ctx, m)
		if err != nil {
			fail(m.Name, fmt.Errorf("computing upstream state: %w", err))
			continue
		}

		switch state {
		case vcs.StateAbsent, vcs.StateMismatched, vcs.StateOutdated:
		case vcs.StateSatisfied:
			logger.Debugf("%s: Skipping - Unknown status type %s", m.Name, state)
			result.Current = append(result.Current, m.Name)
			continue
		default:
			skip(m.Name, fmt.Sprintf("Unknown status type %s", state))
			continue
		}

		if opts.DryRun {
			if !m.IsKnown() {
				skip(m.Name, m.Status())
				continue
			}
			logger.Infof("%s: would sync (%s)", m.Name, state)
			result.Synced = append(result.Synced, Action{Module: m.Name, State: state})
			continue
		}

		if !e.Cache.IsSynced(m.Source) {
			logger.Debug("fetching into cache", "module", m.Name, "source", m.Source)
			if err := e.Cache.Sync(ctx, m.Source); err != nil {
				var rootErr *cache.RootError
				if errors.As(err, &rootErr) {
					return result, err
				}
				fail(m.Name, err)
				continue
			}
		}

		if !m.IsKnown() {
			skip(m.Name, m.Status())
			continue
		}

		changed, err := e.Workspace.Sync(ctx, m)
		if err != nil {
			fail(m.Name, err)
			continue
		}
		if !changed {
			logger.Debugf("%s: already at %s", m.Name, m.Ref)
			result.Current = append(result.Current, m.Name)
			continue
		}
		logger.Infof("%s: Synced to %s (%s)", m.Name, m.Ref, state)
		result.Synced = append(result.Synced, Action{Module: m.Name, State: state})
	}

	return result, nil
}
