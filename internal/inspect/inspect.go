// Package inspect decides whether a module's working tree holds local
// modifications that a destructive sync would throw away.
package inspect

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"syscall"

	"github.com/bianoble/modsync/internal/gitcli"
)

// Dirty reasons, in the order the checks run.
const (
	ReasonIndexRefresh = "could not refresh index"
	ReasonUnstaged     = "has unstaged changes"
	ReasonUncommitted  = "has uncommitted changes"
	ReasonUntracked    = "has untracked files"
)

// TreeState is the verdict on a working tree: Clean, or Dirty with a reason.
type TreeState struct {
	reason string
}

// Clean is the verdict for a tree that is safe to overwrite.
var Clean = TreeState{}

// Dirty returns a verdict carrying the reason the tree must not be overwritten.
func Dirty(reason string) TreeState {
	return TreeState{reason: reason}
}

// IsDirty reports whether the tree holds local modifications.
func (s TreeState) IsDirty() bool {
	return s.reason != ""
}

// Reason returns the dirty reason, or "" for a clean tree.
func (s TreeState) Reason() string {
	return s.reason
}

func (s TreeState) String() string {
	if s.reason == "" {
		return "clean"
	}
	return s.reason
}

// InvariantError reports an untracked-file listing that failed after the
// earlier checks had already shown the repository to be well formed.
type InvariantError struct {
	Path string
	Err  error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("listing untracked files in %s: %s", e.Path, e.Err)
}

func (e *InvariantError) Unwrap() error {
	return e.Err
}

// Inspector runs the dirtiness checks against a path.
type Inspector struct {
	Git *gitcli.Runner
}

// New returns an Inspector that shells out through git.
func New(git *gitcli.Runner) *Inspector {
	return &Inspector{Git: git}
}

// IsDirty inspects the working tree at path. A path that does not exist, is
// not a directory, or is an empty directory has nothing to protect and is
// Clean. Any other failure to examine the path is an error.
//
// The checks run in a fixed order and stop at the first failure. Only the
// index refresh mutates anything.
func (i *Inspector) IsDirty(ctx context.Context, path string) (TreeState, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		return Clean, nil
	case err != nil:
		// A tree that cannot be examined must not pass for clean.
		return Clean, fmt.Errorf("inspecting %s: %w", path, err)
	case !info.IsDir():
		return Clean, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return Clean, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(entries) == 0 {
		return Clean, nil
	}

	checks := []struct {
		args   []string
		reason string
	}{
		{[]string{"update-index", "-q", "--ignore-submodules", "--refresh"}, ReasonIndexRefresh},
		{[]string{"diff-files", "--quiet", "--ignore-submodules", "--"}, ReasonUnstaged},
		{[]string{"diff-index", "--cached", "--quiet", "HEAD", "--ignore-submodules", "--"}, ReasonUncommitted},
	}

	for _, c := range checks {
		if _, err := i.Git.Run(ctx, path, c.args...); err != nil {
			if gitcli.IsExitError(err) {
				return Dirty(c.reason), nil
			}
			return Clean, err
		}
	}

	untracked, err := i.Git.Run(ctx, path, "ls-files", "-o", "-d", "--exclude-standard")
	if err != nil {
		return Clean, &InvariantError{Path: path, Err: err}
	}
	if strings.TrimSpace(untracked) != "" {
		return Dirty(ReasonUntracked), nil
	}

	return Clean, nil
}
