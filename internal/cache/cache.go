package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// DefaultDirName is the cache directory created next to the manifest.
const DefaultDirName = ".modsync_cache"

// PinPrefix namespaces the mirror refs that keep pinned commits reachable.
const PinPrefix = "refs/pins/"

// RootError reports a cache root that could not be created. No module can be
// synced without it, so callers abort the run.
type RootError struct {
	Dir string
	Err error
}

func (e *RootError) Error() string {
	return fmt.Sprintf("creating cache directory %s: %s", e.Dir, e.Err)
}

func (e *RootError) Unwrap() error {
	return e.Err
}

// Coordinator owns the shared fetch cache. Each distinct source gets exactly
// one bare mirror under the root, reused by every module that names it.
type Coordinator struct {
	root string
	auth AuthFunc

	mu      sync.Mutex
	rootErr error
	ready   bool
	entries map[string]*Entry
}

// New returns a Coordinator rooted at dir. The directory is created on first
// use, not here. A nil auth means anonymous access.
func New(dir string, auth AuthFunc) *Coordinator {
	if auth == nil {
		auth = func(string) transport.AuthMethod { return nil }
	}
	return &Coordinator{
		root:    dir,
		auth:    auth,
		entries: make(map[string]*Entry),
	}
}

// DefaultDir returns the cache directory for a project root.
func DefaultDir(projectRoot string) string {
	return filepath.Join(projectRoot, DefaultDirName)
}

// Path returns the cache root.
func (c *Coordinator) Path() string {
	return c.root
}

// Entry returns the shared entry for source, creating it on first request.
func (c *Coordinator) Entry(source string) *Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[source]
	if !ok {
		e = &Entry{
			source: source,
			dir:    filepath.Join(c.root, dirName(source)),
			coord:  c,
		}
		c.entries[source] = e
	}
	return e
}

// IsSynced reports whether source has been fetched during this run.
func (c *Coordinator) IsSynced(source string) bool {
	return c.Entry(source).IsSynced()
}

// Sync fetches source into the cache.
func (c *Coordinator) Sync(ctx context.Context, source string) error {
	return c.Entry(source).Sync(ctx)
}

// Resolve resolves ref against the cached mirror of source.
func (c *Coordinator) Resolve(source, ref string) (Resolution, error) {
	return c.Entry(source).Resolve(ref)
}

// Dir returns the mirror directory for source.
func (c *Coordinator) Dir(source string) string {
	return c.Entry(source).Dir()
}

// Pin keeps commit reachable in the mirror of source and returns the ref.
func (c *Coordinator) Pin(source, commit string) (string, error) {
	return c.Entry(source).Pin(commit)
}

// Size returns the total size of the cache in bytes.
func (c *Coordinator) Size() (int64, error) {
	var total int64
	err := filepath.Walk(c.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	if os.IsNotExist(err) {
		return 0, nil
	}
	return total, err
}

func (c *Coordinator) ensureRoot() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ready {
		return nil
	}
	if c.rootErr != nil {
		return c.rootErr
	}
	if err := os.MkdirAll(c.root, 0755); err != nil {
		c.rootErr = &RootError{Dir: c.root, Err: err}
		return c.rootErr
	}
	c.ready = true
	return nil
}

// Entry is the cache of a single source: a bare mirror plus whether it has
// been fetched in this run.
type Entry struct {
	source string
	dir    string
	coord  *Coordinator

	mu      sync.Mutex
	synced  bool
	fetches int
}

// Source returns the upstream locator this entry mirrors.
func (e *Entry) Source() string {
	return e.source
}

// Dir returns the bare mirror directory.
func (e *Entry) Dir() string {
	return e.dir
}

// IsSynced reports whether the mirror has been fetched during this run.
func (e *Entry) IsSynced() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.synced
}

// Fetches returns how many times Sync has contacted upstream.
func (e *Entry) Fetches() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fetches
}

// Sync clones the mirror on first use and fetches it otherwise. Concurrent
// callers are serialized, so a source is fetched at most once per run.
func (e *Entry) Sync(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.synced {
		return nil
	}

	if err := e.coord.ensureRoot(); err != nil {
		return err
	}

	auth := e.coord.auth(e.source)

	repo, err := git.PlainOpen(e.dir)
	if err == nil && !e.mirrors(repo) {
		// A mirror of another source must never be fetched into.
		if err := os.RemoveAll(e.dir); err != nil {
			return fmt.Errorf("removing foreign cache %s: %w", e.dir, err)
		}
		repo, err = nil, git.ErrRepositoryNotExists
	}
	switch {
	case errors.Is(err, git.ErrRepositoryNotExists):
		e.fetches++
		if _, err := git.PlainCloneContext(ctx, e.dir, true, &git.CloneOptions{
			URL:  e.source,
			Auth: auth,
			Tags: git.AllTags,
		}); err != nil {
			_ = os.RemoveAll(e.dir)
			return fmt.Errorf("cloning %s into cache: %w", e.source, err)
		}
	case err != nil:
		return fmt.Errorf("opening cache for %s: %w", e.source, err)
	default:
		e.fetches++
		err = repo.FetchContext(ctx, &git.FetchOptions{
			RemoteName: "origin",
			RefSpecs: []config.RefSpec{
				"+refs/heads/*:refs/remotes/origin/*",
				"+refs/tags/*:refs/tags/*",
			},
			Auth:  auth,
			Tags:  git.AllTags,
			Force: true,
		})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("fetching %s into cache: %w", e.source, err)
		}
	}

	e.synced = true
	return nil
}

// mirrors reports whether repo's origin is this entry's source.
func (e *Entry) mirrors(repo *git.Repository) bool {
	remote, err := repo.Remote("origin")
	if err != nil {
		return false
	}
	urls := remote.Config().URLs
	return len(urls) > 0 && urls[0] == e.source
}

// Pin makes commit reachable from a ref in the mirror so a working tree can
// fetch it even when no branch or tag points at it any more. It returns the
// pinning ref.
func (e *Entry) Pin(commit string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	repo, err := git.PlainOpen(e.dir)
	if err != nil {
		return "", fmt.Errorf("opening cache for %s: %w", e.source, err)
	}
	name := plumbing.ReferenceName(PinPrefix + commit)
	if err := repo.Storer.SetReference(plumbing.NewHashReference(name, plumbing.NewHash(commit))); err != nil {
		return "", fmt.Errorf("pinning %s in cache: %w", commit, err)
	}
	return name.String(), nil
}

// dirName converts a source locator into a single path-safe directory name:
// a readable form of the locator followed by a short hash of it, so distinct
// sources never share a mirror.
func dirName(source string) string {
	var b strings.Builder
	for _, r := range source {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	name := strings.Trim(b.String(), ".")
	if len(name) > 64 {
		name = name[len(name)-64:]
	}

	sum := sha256.Sum256([]byte(source))
	hash := hex.EncodeToString(sum[:])[:16]
	if name == "" {
		return hash
	}
	return name + "-" + hash
}
