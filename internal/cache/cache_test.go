package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bianoble/modsync/internal/gittest"
)

func TestDirName(t *testing.T) {
	tests := []struct {
		source string
		prefix string
	}{
		{"https://github.com/example/stdlib.git", "https---github.com-example-stdlib.git-"},
		{"git@github.com:example/stdlib.git", "git-github.com-example-stdlib.git-"},
		{"/srv/git/repo", "-srv-git-repo-"},
	}
	for _, tt := range tests {
		got := dirName(tt.source)
		if !strings.HasPrefix(got, tt.prefix) || len(got) != len(tt.prefix)+16 {
			t.Errorf("dirName(%q) = %q, want %q plus a 16-char hash", tt.source, got, tt.prefix)
		}
		if got != dirName(tt.source) {
			t.Errorf("dirName(%q) is not stable", tt.source)
		}
	}

	if got := dirName(".."); strings.Contains(got, "..") || strings.ContainsRune(got, filepath.Separator) {
		t.Errorf("dirName(\"..\") = %q escapes the cache root", got)
	}
}

func TestDirNameDistinguishesFlattenedSources(t *testing.T) {
	pairs := [][2]string{
		{"https://example.com/org-foo/bar.git", "https://example.com/org/foo-bar.git"},
		{"git@example.com:a/b.git", "git@example.com/a:b.git"},
		{"/srv/git/a b", "/srv/git/a-b"},
	}
	for _, p := range pairs {
		if dirName(p[0]) == dirName(p[1]) {
			t.Errorf("%q and %q share cache dir %q", p[0], p[1], dirName(p[0]))
		}
	}
}

func TestEntryDedup(t *testing.T) {
	c := New(t.TempDir(), nil)

	a := c.Entry("https://example.com/a.git")
	b := c.Entry("https://example.com/a.git")
	other := c.Entry("https://example.com/b.git")

	if a != b {
		t.Error("same source must share one entry")
	}
	if a == other {
		t.Error("different sources must not share an entry")
	}
	if a.Dir() == other.Dir() {
		t.Error("different sources must not share a directory")
	}
}

func TestRootCreatedLazily(t *testing.T) {
	root := filepath.Join(t.TempDir(), "cache")
	c := New(root, nil)
	_ = c.Entry("https://example.com/a.git")

	if _, err := os.Stat(root); !os.IsNotExist(err) {
		t.Fatal("cache root must not exist before the first sync")
	}
	if c.Path() != root {
		t.Errorf("Path = %q", c.Path())
	}
}

func TestSyncRootError(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	c := New(filepath.Join(blocker, "cache"), nil)
	err := c.Sync(context.Background(), "https://example.com/a.git")

	var rootErr *RootError
	if !errors.As(err, &rootErr) {
		t.Fatalf("expected *RootError, got %v", err)
	}
	if c.IsSynced("https://example.com/a.git") {
		t.Error("failed sync must not mark the entry synced")
	}
}

func TestSyncAndResolve(t *testing.T) {
	gittest.Require(t)

	up, first := gittest.NewUpstream(t)
	up.Tag("v1.0.0")

	c := New(filepath.Join(t.TempDir(), "cache"), nil)
	ctx := context.Background()

	if c.IsSynced(up.URL) {
		t.Fatal("entry must start unsynced")
	}
	if _, err := c.Resolve(up.URL, "main"); err == nil {
		t.Fatal("resolve before the first sync should fail")
	}

	if err := c.Sync(ctx, up.URL); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if !c.IsSynced(up.URL) {
		t.Fatal("entry should be synced")
	}

	res, err := c.Resolve(up.URL, "main")
	if err != nil {
		t.Fatalf("Resolve branch: %v", err)
	}
	if res.Commit != first || res.Kind != RefBranch {
		t.Errorf("branch = %+v, want %s/branch", res, first)
	}

	res, err = c.Resolve(up.URL, "v1.0.0")
	if err != nil {
		t.Fatalf("Resolve tag: %v", err)
	}
	if res.Commit != first || res.Kind != RefTag {
		t.Errorf("tag = %+v, want %s/tag", res, first)
	}

	res, err = c.Resolve(up.URL, first)
	if err != nil {
		t.Fatalf("Resolve commit: %v", err)
	}
	if res.Commit != first || res.Kind != RefCommit {
		t.Errorf("commit = %+v", res)
	}

	if _, err := c.Resolve(up.URL, "no-such-branch"); err == nil {
		t.Error("unknown ref should fail")
	}
}

func TestSyncAtMostOncePerRun(t *testing.T) {
	gittest.Require(t)

	up, _ := gittest.NewUpstream(t)
	c := New(filepath.Join(t.TempDir(), "cache"), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := c.Sync(ctx, up.URL); err != nil {
			t.Fatalf("Sync %d: %v", i, err)
		}
	}
	if n := c.Entry(up.URL).Fetches(); n != 1 {
		t.Errorf("fetches = %d, want 1", n)
	}
}

func TestSyncFetchesExistingMirror(t *testing.T) {
	gittest.Require(t)

	up, _ := gittest.NewUpstream(t)
	root := filepath.Join(t.TempDir(), "cache")
	ctx := context.Background()

	if err := New(root, nil).Sync(ctx, up.URL); err != nil {
		t.Fatalf("first run Sync: %v", err)
	}

	second := up.Push("CHANGELOG.md", "v2\n")

	// A new coordinator is a new run over the same on-disk mirror.
	c := New(root, nil)
	if c.IsSynced(up.URL) {
		t.Fatal("a new run must start unsynced")
	}
	if err := c.Sync(ctx, up.URL); err != nil {
		t.Fatalf("second run Sync: %v", err)
	}

	res, err := c.Resolve(up.URL, "main")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Commit != second {
		t.Errorf("main = %s, want %s", res.Commit, second)
	}
}

func TestSyncReplacesMirrorOfAnotherSource(t *testing.T) {
	gittest.Require(t)

	other, _ := gittest.NewUpstream(t)
	up, _ := gittest.NewUpstream(t)
	want := up.Push("OWN.md", "own\n")

	c := New(filepath.Join(t.TempDir(), "cache"), nil)
	ctx := context.Background()

	// A mirror of a different source already sits where up's mirror belongs.
	if err := os.MkdirAll(c.Path(), 0755); err != nil {
		t.Fatal(err)
	}
	gittest.Git(t, c.Path(), "clone", "--quiet", "--bare", other.URL, c.Dir(up.URL))

	if err := c.Sync(ctx, up.URL); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	res, err := c.Resolve(up.URL, "main")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Commit != want {
		t.Errorf("main = %s, want %s from the declared source", res.Commit, want)
	}
}

func TestPinKeepsCommitReachable(t *testing.T) {
	gittest.Require(t)

	up, first := gittest.NewUpstream(t)
	c := New(filepath.Join(t.TempDir(), "cache"), nil)
	if err := c.Sync(context.Background(), up.URL); err != nil {
		t.Fatal(err)
	}

	ref, err := c.Pin(up.URL, first)
	if err != nil {
		t.Fatalf("Pin: %v", err)
	}
	if ref != PinPrefix+first {
		t.Errorf("ref = %q", ref)
	}
	if got := gittest.Git(t, c.Dir(up.URL), "rev-parse", ref); got != first {
		t.Errorf("%s = %s, want %s", ref, got, first)
	}
}


func TestSize(t *testing.T) {
	root := t.TempDir()
	c := New(root, nil)
	if err := os.WriteFile(filepath.Join(root, "f"), make([]byte, 10), 0644); err != nil {
		t.Fatal(err)
	}
	size, err := c.Size()
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 10 {
		t.Errorf("size = %d, want 10", size)
	}

	missing := New(filepath.Join(root, "none"), nil)
	if size, err := missing.Size(); err != nil || size != 0 {
		t.Errorf("missing cache size = %d, %v", size, err)
	}
}

func TestRefKindString(t *testing.T) {
	if RefBranch.String() != "branch" || RefTag.String() != "tag" || RefCommit.String() != "commit" {
		t.Error("unexpected RefKind strings")
	}
}
