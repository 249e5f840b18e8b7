// Package git resolves repository metadata for ctxlab runs: the repository
// root, the current branch, and the current commit. Version-control queries
// never abort a run; failures degrade to placeholder values.
package git

import (
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
)

// ErrNotGitRepo indicates no repository was found from the starting path.
var ErrNotGitRepo = errors.New("not a git repository")

// Unknown is the placeholder for branch or commit when the repository state
// is unreadable.
const Unknown = "(unknown)"

// Info describes the current repository state.
type Info struct {
	Branch string
	Commit string
}

// FindRoot locates the repository worktree root by searching upward from
// start for a .git directory.
func FindRoot(start string) (string, error) {
	repo, err := gogit.PlainOpenWithOptions(start, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotGitRepo, start)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("repository has no worktree: %w", err)
	}
	return worktree.Filesystem.Root(), nil
}

// Describe reports the current branch and commit for the repository at
// path. It never returns an error: an unreadable repository or HEAD yields
// Unknown placeholders, a detached HEAD yields "detached" with the commit
// hash.
func Describe(path string) Info {
	info := Info{Branch: Unknown, Commit: Unknown}

	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return info
	}

	head, err := repo.Head()
	if err != nil {
		return info
	}

	info.Commit = head.Hash().String()
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	} else {
		info.Branch = "detached"
	}
	return info
}
