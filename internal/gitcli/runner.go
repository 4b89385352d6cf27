// Package gitcli runs the git command-line client as a blocking subprocess.
package gitcli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultBinary is the git executable looked up on PATH when none is configured.
const DefaultBinary = "git"

// Runner executes git commands inside a working directory.
type Runner struct {
	// Binary is the git executable. Empty means DefaultBinary.
	Binary string

	// Env is appended to the process environment of every command.
	Env []string
}

// New returns a Runner for the given git binary.
func New(binary string) *Runner {
	return &Runner{Binary: binary}
}

// GitError describes a git invocation that could not be started or exited non-zero.
type GitError struct {
	Dir    string
	Args   []string
	Output string
	Err    error
}

func (e *GitError) Error() string {
	msg := fmt.Sprintf("git %s (in %s): %s", strings.Join(e.Args, " "), e.Dir, e.Err)
	if e.Output != "" {
		msg += ": " + e.Output
	}
	return msg
}

func (e *GitError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit status of the command, or -1 if it never ran to completion.
func (e *GitError) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// IsExitError reports whether err is a git command that ran and exited non-zero,
// as opposed to one that could not be started at all.
func IsExitError(err error) bool {
	var gitErr *GitError
	if !errors.As(err, &gitErr) {
		return false
	}
	return gitErr.ExitCode() > 0
}

// Run executes git with args in dir and returns its trimmed standard output.
//
// Repository discovery is fenced at dir: git never walks up into an enclosing
// repository, so a directory without its own .git is reported as not a repository.
func (r *Runner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	bin := r.Binary
	if bin == "" {
		bin = DefaultBinary
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	if abs, err := filepath.Abs(dir); err == nil {
		cmd.Env = append(cmd.Env, "GIT_CEILING_DIRECTORIES="+filepath.Dir(abs))
	}
	cmd.Env = append(cmd.Env, r.Env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", &GitError{
			Dir:    dir,
			Args:   args,
			Output: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
	}
	return strings.TrimSpace(stdout.String()), nil
}
