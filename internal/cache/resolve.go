package cache

import (
	"fmt"
	"regexp"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// RefKind classifies what a manifest ref named in the mirror.
type RefKind int

const (
	RefBranch RefKind = iota
	RefTag
	RefCommit
)

func (k RefKind) String() string {
	switch k {
	case RefBranch:
		return "branch"
	case RefTag:
		return "tag"
	case RefCommit:
		return "commit"
	default:
		return "unknown"
	}
}

// Resolution is a ref resolved to a commit in the mirror.
type Resolution struct {
	Commit string
	Kind   RefKind
}

var hexRef = regexp.MustCompile(`^[0-9a-fA-F]{4,40}$`)

// Resolve resolves ref against the mirror. Branches win over tags, and tags
// over commit ids, matching how git itself disambiguates a short name.
func (e *Entry) Resolve(ref string) (Resolution, error) {
	repo, err := git.PlainOpen(e.dir)
	if err != nil {
		return Resolution{}, fmt.Errorf("opening cache for %s: %w", e.source, err)
	}

	if r, err := repo.Reference(plumbing.NewRemoteReferenceName("origin", ref), true); err == nil {
		return Resolution{Commit: r.Hash().String(), Kind: RefBranch}, nil
	}

	if r, err := repo.Reference(plumbing.NewTagReferenceName(ref), true); err == nil {
		hash := r.Hash()
		// Annotated tags point at a tag object; peel to the commit.
		if tag, err := repo.TagObject(hash); err == nil {
			if commit, err := tag.Commit(); err == nil {
				hash = commit.Hash
			}
		}
		return Resolution{Commit: hash.String(), Kind: RefTag}, nil
	}

	if hexRef.MatchString(ref) {
		hash, err := repo.ResolveRevision(plumbing.Revision(ref))
		if err == nil {
			if _, err := repo.CommitObject(*hash); err == nil {
				return Resolution{Commit: hash.String(), Kind: RefCommit}, nil
			}
		}
	}

	return Resolution{}, fmt.Errorf("ref %q not found in cache for %s", ref, e.source)
}
