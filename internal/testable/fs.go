package testable

import (
	"os"
	"path/filepath"
)

// FileSystem is the file access lintlab performs. Workspace resolution uses
// the path methods, the persister uses the write-temp-then-rename set, and
// backup listing and pruning use ReadDir and Remove.
type FileSystem interface {
	// path resolution
	Abs(path string) (string, error)
	EvalSymlinks(path string) (string, error)
	Stat(name string) (os.FileInfo, error)

	// reads and plain writes
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	MkdirAll(path string, perm os.FileMode) error

	// atomic replace
	CreateTemp(dir, pattern string) (*os.File, error)
	Chmod(name string, mode os.FileMode) error
	Rename(oldpath, newpath string) error

	// backup housekeeping
	ReadDir(name string) ([]os.DirEntry, error)
	Remove(name string) error
}

// OsFileSystem delegates to the os and path/filepath packages.
type OsFileSystem struct{}

func (OsFileSystem) Abs(path string) (string, error)          { return filepath.Abs(path) }
func (OsFileSystem) EvalSymlinks(path string) (string, error) { return filepath.EvalSymlinks(path) }
func (OsFileSystem) Stat(name string) (os.FileInfo, error)    { return os.Stat(name) }

func (OsFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name) //nolint:gosec // workspace config paths
}

func (OsFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm) //nolint:gosec // workspace config paths
}

func (OsFileSystem) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

func (OsFileSystem) CreateTemp(dir, pattern string) (*os.File, error) {
	return os.CreateTemp(dir, pattern)
}

func (OsFileSystem) Chmod(name string, mode os.FileMode) error { return os.Chmod(name, mode) }
func (OsFileSystem) Rename(oldpath, newpath string) error      { return os.Rename(oldpath, newpath) }
func (OsFileSystem) ReadDir(name string) ([]os.DirEntry, error) { return os.ReadDir(name) }
func (OsFileSystem) Remove(name string) error                   { return os.Remove(name) }

// DefaultFS is the FileSystem packages fall back to when none is injected.
var DefaultFS FileSystem = OsFileSystem{}
