package testable

import (
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// MockGitOpener hands out Repo for every path and records the paths it was
// asked to open. With no Repo it reports that no repository exists.
type MockGitOpener struct {
	Repo      GitRepository
	OpenCalls []string
}

func (m *MockGitOpener) PlainOpen(path string) (GitRepository, error) {
	m.OpenCalls = append(m.OpenCalls, path)
	if m.Repo == nil {
		return nil, git.ErrRepositoryNotExists
	}
	return m.Repo, nil
}

// MockGitRepository returns a fixed HEAD.
type MockGitRepository struct {
	HeadRef *plumbing.Reference
	HeadErr error
}

func (m *MockGitRepository) Head() (*plumbing.Reference, error) {
	return m.HeadRef, m.HeadErr
}

// NewMockHead returns a repository whose HEAD is main at hash.
func NewMockHead(hash string) *MockGitRepository {
	return &MockGitRepository{
		HeadRef: plumbing.NewHashReference(plumbing.NewBranchReferenceName("main"), plumbing.NewHash(hash)),
	}
}
