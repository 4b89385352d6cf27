// Package modsync provides the public Go library API for modsync.
//
// modsync reconciles a manifest of git-hosted modules against the working
// trees checked out in a project. It never overwrites a tree with local
// modifications and fetches each upstream source at most once per run.
//
// # Basic Usage
//
//	client, err := modsync.New(modsync.Options{
//	    ProjectRoot: "/path/to/project",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Bring every clean module to its declared ref
//	result, err := client.Checkout(ctx, modsync.VariantTracking, modsync.CheckoutOptions{})
//
//	// List modules with local changes
//	report, err := client.Status(ctx, modsync.VariantTracking)
//
//	// Pin what is checked out into modsync.stable.yaml
//	rec, err := client.Record(ctx, modsync.VariantTracking)
package modsync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/bianoble/modsync/internal/cache"
	"github.com/bianoble/modsync/internal/engine"
	"github.com/bianoble/modsync/internal/gitcli"
	"github.com/bianoble/modsync/internal/inspect"
	"github.com/bianoble/modsync/internal/manifest"
	"github.com/bianoble/modsync/internal/registry"
	"github.com/bianoble/modsync/internal/vcs"
)

// Manifest variants.
const (
	VariantTracking = manifest.VariantTracking
	VariantStable   = manifest.VariantStable
)

// Options configures a modsync client.
type Options struct {
	// ProjectRoot is the directory containing the manifests. Default: ".".
	ProjectRoot string

	// CacheDir is the fetch cache. If empty, uses <ProjectRoot>/.modsync_cache.
	CacheDir string

	// GitBinary is the git executable. Default: "git".
	GitBinary string

	// Logger receives per-module progress. Nil discards it.
	Logger *log.Logger
}

// RecordResult describes a written snapshot.
type RecordResult struct {
	Path    string
	Modules int
	// Replaced lists stable manifests in other formats removed by the write.
	Replaced []string
}

// Client is the main entry point for the modsync library.
type Client struct {
	root      string
	cacheDir  string
	git       *gitcli.Runner
	inspector *inspect.Inspector
	logger    *log.Logger
}

// New creates a new modsync Client.
func New(opts Options) (*Client, error) {
	if opts.ProjectRoot == "" {
		opts.ProjectRoot = "."
	}
	root, err := filepath.Abs(opts.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	cacheDir := opts.CacheDir
	switch {
	case cacheDir == "":
		cacheDir = cache.DefaultDir(root)
	case !filepath.IsAbs(cacheDir):
		cacheDir = filepath.Join(root, cacheDir)
	}

	git := gitcli.New(opts.GitBinary)
	return &Client{
		root:      root,
		cacheDir:  cacheDir,
		git:       git,
		inspector: inspect.New(git),
		logger:    opts.Logger,
	}, nil
}

// ProjectRoot returns the absolute project directory.
func (c *Client) ProjectRoot() string {
	return c.root
}

// CacheDir returns the fetch cache directory.
func (c *Client) CacheDir() string {
	return c.cacheDir
}

// ManifestPath locates the manifest file for a variant.
func (c *Client) ManifestPath(variant string) (string, error) {
	return manifest.Find(c.root, variant)
}

// Inventory builds the module inventory for a variant.
func (c *Client) Inventory(ctx context.Context, variant string) (*Inventory, error) {
	path, err := c.ManifestPath(variant)
	if err != nil {
		return nil, err
	}
	return registry.NewBuilder(c.inspector).Build(ctx, path)
}

// newWorkspace starts a run: a fresh cache coordinator means every source is
// fetched at most once from here on.
func (c *Client) newWorkspace() *vcs.Workspace {
	coord := cache.New(c.cacheDir, cache.EnvironmentAuth(os.Getenv))
	return vcs.NewWorkspace(c.git, c.inspector, coord)
}

// Checkout reconciles every module of the variant's manifest.
func (c *Client) Checkout(ctx context.Context, variant string, opts CheckoutOptions) (*CheckoutResult, error) {
	inv, err := c.Inventory(ctx, variant)
	if err != nil {
		return nil, err
	}

	ws := c.newWorkspace()
	eng := &engine.CheckoutEngine{
		Workspace: ws,
		Cache:     ws.Cache,
		Logger:    c.logger,
	}
	return eng.Checkout(ctx, inv.Modules, opts)
}

// Status reports modules with local changes and undeclared checkouts.
func (c *Client) Status(ctx context.Context, variant string) (*StatusReport, error) {
	inv, err := c.Inventory(ctx, variant)
	if err != nil {
		return nil, err
	}

	eng := &engine.StatusEngine{ProjectRoot: inv.Root}
	return eng.Status(ctx, inv.Modules)
}

// Record pins every declared module of the variant's manifest to its
// checked-out commit and writes the stable manifest next to it, in the same
// format.
func (c *Client) Record(ctx context.Context, variant string) (*RecordResult, error) {
	inv, err := c.Inventory(ctx, variant)
	if err != nil {
		return nil, err
	}

	eng := &engine.RecordEngine{Heads: c.newWorkspace()}
	snapshot, err := eng.Record(ctx, inv.Modules)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(inv.Root, manifest.FileName(manifest.VariantStable, inv.Format))
	if err := manifest.Save(path, snapshot); err != nil {
		return nil, fmt.Errorf("saving stable manifest: %w", err)
	}

	// A stable manifest left in another format would shadow this one.
	existing, err := manifest.Existing(inv.Root, manifest.VariantStable)
	if err != nil {
		return nil, err
	}
	result := &RecordResult{Path: path, Modules: snapshot.Len()}
	for _, old := range existing {
		if old == path {
			continue
		}
		if err := os.Remove(old); err != nil {
			return nil, fmt.Errorf("removing superseded stable manifest: %w", err)
		}
		result.Replaced = append(result.Replaced, old)
	}

	return result, nil
}

// CacheSize returns the total size of the fetch cache in bytes.
func (c *Client) CacheSize() (int64, error) {
	return cache.New(c.cacheDir, nil).Size()
}
