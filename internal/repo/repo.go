// Package repo inspects a vault repository without modifying it.
package repo

import (
	"sort"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	autopushErrors "github.com/bashhack/autopush/internal/errors"
)

// Info is a read-only snapshot of a repository.
type Info struct {
	// Root is the top of the working tree containing the inspected path.
	Root string

	// Branch is the short branch name, empty when HEAD is detached or unborn.
	Branch string

	// Head is the commit hash HEAD points at, empty for an unborn branch.
	Head string

	Detached bool
	Unborn   bool

	// Clean is true when the worktree has no staged, modified or untracked files.
	Clean   bool
	Changes int

	Remotes []string
}

// ShortHead returns the first seven characters of Head.
func (i Info) ShortHead() string {
	if len(i.Head) > 7 {
		return i.Head[:7]
	}
	return i.Head
}

// Inspect opens the repository containing path, searching parent
// directories for .git, and describes it.
func Inspect(path string) (Info, error) {
	r, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if autopushErrors.Is(err, gogit.ErrRepositoryNotExists) {
		return Info{}, autopushErrors.Wrap(autopushErrors.ErrNotGitRepository, path)
	}
	if err != nil {
		return Info{}, autopushErrors.Wrap(err, "open repository")
	}

	info := Info{}

	wt, err := r.Worktree()
	if err != nil {
		return Info{}, autopushErrors.Wrap(err, "get worktree")
	}
	info.Root = wt.Filesystem.Root()

	head, err := r.Head()
	switch {
	case autopushErrors.Is(err, plumbing.ErrReferenceNotFound):
		info.Unborn = true
		if ref, refErr := r.Storer.Reference(plumbing.HEAD); refErr == nil && ref.Type() == plumbing.SymbolicReference {
			info.Branch = ref.Target().Short()
		}
	case err != nil:
		return Info{}, autopushErrors.Wrap(err, "get HEAD")
	default:
		info.Head = head.Hash().String()
		if head.Name().IsBranch() {
			info.Branch = head.Name().Short()
		} else {
			info.Detached = true
		}
	}

	status, err := wt.Status()
	if err != nil {
		return Info{}, autopushErrors.Wrap(err, "get status")
	}
	for _, st := range status {
		if st.Staging != gogit.Unmodified || st.Worktree != gogit.Unmodified {
			info.Changes++
		}
	}
	info.Clean = info.Changes == 0

	remotes, err := r.Remotes()
	if err != nil {
		return Info{}, autopushErrors.Wrap(err, "list remotes")
	}
	for _, remote := range remotes {
		info.Remotes = append(info.Remotes, remote.Config().Name)
	}
	sort.Strings(info.Remotes)

	return info, nil
}
