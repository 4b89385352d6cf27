// Package registry builds the module inventory: every module the manifest
// declares plus every undeclared checkout found under a declared module
// directory, each tagged with its working-tree verdict.
package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bianoble/modsync/internal/inspect"
	"github.com/bianoble/modsync/internal/manifest"
)

// Status values that are not dirty reasons.
const (
	StatusKnown   = "known"
	StatusUnknown = "unknown"
)

// Module is one entry of the inventory.
type Module struct {
	Name string

	// Path is the absolute checkout location, ModuleDir/Name.
	Path string

	// ModuleDir is the absolute directory grouping sibling modules.
	ModuleDir string

	// DeclaredDir is the module directory exactly as the manifest wrote it.
	DeclaredDir string

	// Source and Ref are empty for undeclared modules.
	Source string
	Ref    string

	Options map[string]string

	Declared bool
	Tree     inspect.TreeState
}

// Status returns "known" for a clean declared module, "unknown" for an
// undeclared one, and the dirty reason otherwise.
func (m Module) Status() string {
	switch {
	case !m.Declared:
		return StatusUnknown
	case m.Tree.IsDirty():
		return m.Tree.Reason()
	default:
		return StatusKnown
	}
}

// IsKnown reports whether the module is declared and safe to overwrite.
func (m Module) IsKnown() bool {
	return m.Status() == StatusKnown
}

// Inventory is the result of one registry build.
type Inventory struct {
	ManifestPath string

	// Root is the manifest's directory; relative module dirs resolve against it.
	Root string

	Format  manifest.Format
	Modules []Module
}

// Declared returns the modules listed in the manifest, in manifest order.
func (inv *Inventory) Declared() []Module {
	var out []Module
	for _, m := range inv.Modules {
		if m.Declared {
			out = append(out, m)
		}
	}
	return out
}

// Unknown returns the undeclared checkouts, in discovery order.
func (inv *Inventory) Unknown() []Module {
	var out []Module
	for _, m := range inv.Modules {
		if !m.Declared {
			out = append(out, m)
		}
	}
	return out
}

// DirtyChecker reports whether a working tree holds local modifications.
type DirtyChecker interface {
	IsDirty(ctx context.Context, path string) (inspect.TreeState, error)
}

// Builder assembles inventories.
type Builder struct {
	Inspector DirtyChecker
}

// NewBuilder returns a Builder using the given dirtiness check.
func NewBuilder(inspector DirtyChecker) *Builder {
	return &Builder{Inspector: inspector}
}

// Build loads the manifest at manifestPath and cross-references it against
// the module directories on disk.
//
// Declared module paths are created if missing, so every later step can
// assume the directory exists. Inspector failures abort the build: a tree
// whose dirtiness cannot be determined must never be treated as clean.
func (b *Builder) Build(ctx context.Context, manifestPath string) (*Inventory, error) {
	abs, err := filepath.Abs(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("resolving manifest path: %w", err)
	}

	format, err := manifest.FormatOf(abs)
	if err != nil {
		return nil, err
	}

	m, err := manifest.Load(abs)
	if err != nil {
		return nil, err
	}

	inv := &Inventory{
		ManifestPath: abs,
		Root:         filepath.Dir(abs),
		Format:       format,
	}

	type group struct {
		dir      string
		raw      string
		declared map[string]bool
	}
	var groups []group

	for _, d := range m.ModuleDirs {
		dir := d.Dir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(inv.Root, dir)
		}
		dir = filepath.Clean(dir)

		g := group{dir: dir, raw: d.Dir, declared: make(map[string]bool, len(d.Modules))}

		for _, mod := range d.Modules {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			path := filepath.Join(dir, mod.Name)
			tree, err := b.Inspector.IsDirty(ctx, path)
			if err != nil {
				return nil, fmt.Errorf("inspecting module '%s': %w", mod.Name, err)
			}

			if err := os.MkdirAll(path, 0755); err != nil {
				return nil, fmt.Errorf("creating module directory %s: %w", path, err)
			}

			inv.Modules = append(inv.Modules, Module{
				Name:        mod.Name,
				Path:        path,
				ModuleDir:   dir,
				DeclaredDir: d.Dir,
				Source:      mod.Source,
				Ref:         mod.Ref,
				Options:     copyOptions(mod.Options),
				Declared:    true,
				Tree:        tree,
			})
			g.declared[mod.Name] = true
		}

		groups = append(groups, g)
	}

	for _, g := range groups {
		entries, err := os.ReadDir(g.dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("listing module directory %s: %w", g.dir, err)
		}

		for _, e := range entries {
			if g.declared[e.Name()] {
				continue
			}
			path := filepath.Join(g.dir, e.Name())
			if !HasGitMarker(path) {
				continue
			}
			inv.Modules = append(inv.Modules, Module{
				Name:        e.Name(),
				Path:        path,
				ModuleDir:   g.dir,
				DeclaredDir: g.raw,
				Declared:    false,
				Tree:        inspect.Clean,
			})
		}
	}

	return inv, nil
}

// HasGitMarker reports whether path contains a .git entry, directory or gitfile.
func HasGitMarker(path string) bool {
	_, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil
}

func copyOptions(opts map[string]string) map[string]string {
	if len(opts) == 0 {
		return nil
	}
	out := make(map[string]string, len(opts))
	for k, v := range opts {
		out[k] = v
	}
	return out
}
