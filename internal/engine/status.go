package engine

import (
	"context"
	"path/filepath"

	"github.com/bianoble/modsync/internal/registry"
)

// StatusEngine reports local modifications and undeclared checkouts.
// It never mutates anything.
type StatusEngine struct {
	ProjectRoot string
}

// Status classifies the inventory. Undeclared modules land in Unknown only,
// whatever the state of their working tree.
func (e *StatusEngine) Status(ctx context.Context, modules []registry.Module) (*StatusReport, error) {
	report := &StatusReport{}

	for _, m := range modules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch {
		case !m.Declared:
			report.Unknown = append(report.Unknown, m.Name)
		case m.Tree.IsDirty():
			report.Changes = append(report.Changes, DirtyModule{
				Name:   m.Name,
				Path:   e.relative(m.Path),
				Reason: m.Tree.Reason(),
			})
		case !registry.HasGitMarker(m.Path):
			report.Missing = append(report.Missing, m.Name)
		}
	}

	return report, nil
}

func (e *StatusEngine) relative(path string) string {
	if e.ProjectRoot == "" {
		return path
	}
	rel, err := filepath.Rel(e.ProjectRoot, path)
	if err != nil {
		return path
	}
	return rel
}
