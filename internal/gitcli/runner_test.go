package gitcli

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func TestRunVersion(t *testing.T) {
	requireGit(t)

	out, err := New("").Run(context.Background(), t.TempDir(), "--version")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.HasPrefix(out, "git version") {
		t.Errorf("output = %q", out)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	requireGit(t)

	_, err := New("").Run(context.Background(), t.TempDir(), "rev-parse", "--verify", "HEAD")
	if err == nil {
		t.Fatal("expected error outside a repository")
	}
	if !IsExitError(err) {
		t.Errorf("expected exit error, got %v", err)
	}

	var gitErr *GitError
	if !errors.As(err, &gitErr) {
		t.Fatalf("expected *GitError, got %T", err)
	}
	if gitErr.ExitCode() <= 0 {
		t.Errorf("exit code = %d", gitErr.ExitCode())
	}
	if !strings.Contains(gitErr.Error(), "rev-parse") {
		t.Errorf("error should name the command: %v", gitErr)
	}
}

func TestRunMissingBinary(t *testing.T) {
	_, err := New("/nonexistent/git-binary").Run(context.Background(), t.TempDir(), "status")
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
	if IsExitError(err) {
		t.Error("a binary that never started must not look like an exit error")
	}
}

func TestRunDoesNotDiscoverParentRepository(t *testing.T) {
	requireGit(t)

	parent := t.TempDir()
	if _, err := New("").Run(context.Background(), parent, "init"); err != nil {
		t.Fatalf("init parent: %v", err)
	}

	child := filepath.Join(parent, "child")
	if err := os.MkdirAll(child, 0755); err != nil {
		t.Fatal(err)
	}

	_, err := New("").Run(context.Background(), child, "rev-parse", "--git-dir")
	if err == nil {
		t.Fatal("child directory must not resolve to the parent repository")
	}
}
