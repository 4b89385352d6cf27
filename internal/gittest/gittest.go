// Package gittest builds throwaway git repositories for tests.
package gittest

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// Require skips the test when no git binary is available.
func Require(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

// Git runs git in dir with a fixed identity and returns trimmed stdout.
func Git(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@test.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@test.com",
		"GIT_CONFIG_NOSYSTEM=1",
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v: %s: %v", args, out, err)
	}
	return strings.TrimSpace(string(out))
}

// WriteFile writes content to dir/rel, creating parent directories.
func WriteFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// Commit stages everything in dir and commits it, returning the new HEAD.
func Commit(t *testing.T, dir, message string) string {
	t.Helper()
	Git(t, dir, "add", "-A")
	Git(t, dir, "commit", "--allow-empty", "-m", message)
	return Git(t, dir, "rev-parse", "HEAD")
}

// Upstream is a bare repository fed from a scratch working copy.
type Upstream struct {
	// URL is the bare repository path, usable as a clone source.
	URL string
	work string
	t    *testing.T
}

// NewUpstream creates a bare repository on branch main holding one commit with
// a README, and returns it with that commit.
func NewUpstream(t *testing.T) (*Upstream, string) {
	t.Helper()
	work := t.TempDir()
	bare := filepath.Join(t.TempDir(), "upstream.git")

	Git(t, work, "init", "-b", "main")
	WriteFile(t, work, "README.md", "# upstream\n")
	commit := Commit(t, work, "initial")
	Git(t, work, "clone", "--bare", work, bare)
	Git(t, work, "remote", "add", "origin", bare)

	return &Upstream{URL: bare, work: work, t: t}, commit
}

// Push commits a new file on main and pushes it, returning the new commit.
func (u *Upstream) Push(rel, content string) string {
	u.t.Helper()
	WriteFile(u.t, u.work, rel, content)
	commit := Commit(u.t, u.work, "update "+rel)
	Git(u.t, u.work, "push", "origin", "main")
	return commit
}

// Tag creates and pushes a lightweight tag at the current main commit.
func (u *Upstream) Tag(name string) {
	u.t.Helper()
	Git(u.t, u.work, "tag", name)
	Git(u.t, u.work, "push", "origin", name)
}

// Clone checks out the upstream into dest on branch main.
func (u *Upstream) Clone(dest string) {
	u.t.Helper()
	Git(u.t, filepath.Dir(dest), "clone", "-b", "main", u.URL, dest)
}
