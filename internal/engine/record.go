package engine

import (
	"context"
	"fmt"

	"github.com/bianoble/modsync/internal/manifest"
	"github.com/bianoble/modsync/internal/registry"
)

// RecordEngine snapshots what is actually checked out into a manifest.
type RecordEngine struct {
	Heads HeadReader
}

// Record returns a manifest that pins every declared module to the commit
// checked out in its working tree. Module directories keep the spelling and
// order of the source manifest. Undeclared modules are not recorded.
//
// Any module whose HEAD cannot be read fails the whole snapshot: a partial
// stable manifest would silently drop a dependency.
func (e *RecordEngine) Record(ctx context.Context, modules []registry.Module) (*manifest.Manifest, error) {
	out := &manifest.Manifest{Version: 1}
	index := make(map[string]int)

	for _, m := range modules {
		if !m.Declared {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		head, err := e.Heads.Head(m.Path)
		if err != nil {
			return nil, ModuleError{Module: m.Name, Err: fmt.Errorf("reading checked-out revision: %w", err)}
		}

		i, ok := index[m.DeclaredDir]
		if !ok {
			i = len(out.ModuleDirs)
			index[m.DeclaredDir] = i
			out.ModuleDirs = append(out.ModuleDirs, manifest.ModuleDir{Dir: m.DeclaredDir})
		}

		out.ModuleDirs[i].Modules = append(out.ModuleDirs[i].Modules, manifest.Module{
			Name:    m.Name,
			Source:  m.Source,
			Ref:     head,
			Options: m.Options,
		})
	}

	return out, nil
}
