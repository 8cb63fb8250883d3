package testable

import (
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// GitOpener opens the repository a workspace lives in. Discovery history
// stamps each run with the HEAD commit it was taken at.
type GitOpener interface {
	PlainOpen(path string) (GitRepository, error)
}

// GitRepository is the part of *git.Repository lintlab reads.
type GitRepository interface {
	Head() (*plumbing.Reference, error)
}

// RealGitOpener opens repositories with go-git, walking up from path until
// a .git directory is found.
type RealGitOpener struct{}

// PlainOpen opens the repository containing path.
func (RealGitOpener) PlainOpen(path string) (GitRepository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// DefaultGitOpener is used when callers pass no opener.
var DefaultGitOpener GitOpener = RealGitOpener{}

// HeadHash returns the commit HEAD points to in the repository that
// contains dir, or "" when dir is not inside a repository or HEAD is unborn.
func HeadHash(opener GitOpener, dir string) string {
	if opener == nil {
		opener = DefaultGitOpener
	}
	repo, err := opener.PlainOpen(dir)
	if err != nil {
		return ""
	}
	ref, err := repo.Head()
	if err != nil {
		return ""
	}
	return ref.Hash().String()
}
