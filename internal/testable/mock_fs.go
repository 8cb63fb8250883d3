package testable

import "os"

// MockFileSystem overrides individual FileSystem methods through its Fn
// fields. Methods whose field is nil hit the real disk, so a test can fail
// one step of a commit (say, the rename) while the rest behaves normally.
type MockFileSystem struct {
	AbsFn          func(path string) (string, error)
	EvalSymlinksFn func(path string) (string, error)
	StatFn         func(name string) (os.FileInfo, error)
	ReadFileFn     func(name string) ([]byte, error)
	WriteFileFn    func(name string, data []byte, perm os.FileMode) error
	MkdirAllFn     func(path string, perm os.FileMode) error
	CreateTempFn   func(dir, pattern string) (*os.File, error)
	ChmodFn        func(name string, mode os.FileMode) error
	RenameFn       func(oldpath, newpath string) error
	ReadDirFn      func(name string) ([]os.DirEntry, error)
	RemoveFn       func(name string) error
}

var disk OsFileSystem

func (m *MockFileSystem) Abs(path string) (string, error) {
	if m.AbsFn != nil {
		return m.AbsFn(path)
	}
	return disk.Abs(path)
}

func (m *MockFileSystem) EvalSymlinks(path string) (string, error) {
	if m.EvalSymlinksFn != nil {
		return m.EvalSymlinksFn(path)
	}
	return disk.EvalSymlinks(path)
}

func (m *MockFileSystem) Stat(name string) (os.FileInfo, error) {
	if m.StatFn != nil {
		return m.StatFn(name)
	}
	return disk.Stat(name)
}

func (m *MockFileSystem) ReadFile(name string) ([]byte, error) {
	if m.ReadFileFn != nil {
		return m.ReadFileFn(name)
	}
	return disk.ReadFile(name)
}

func (m *MockFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	if m.WriteFileFn != nil {
		return m.WriteFileFn(name, data, perm)
	}
	return disk.WriteFile(name, data, perm)
}

func (m *MockFileSystem) MkdirAll(path string, perm os.FileMode) error {
	if m.MkdirAllFn != nil {
		return m.MkdirAllFn(path, perm)
	}
	return disk.MkdirAll(path, perm)
}

func (m *MockFileSystem) CreateTemp(dir, pattern string) (*os.File, error) {
	if m.CreateTempFn != nil {
		return m.CreateTempFn(dir, pattern)
	}
	return disk.CreateTemp(dir, pattern)
}

func (m *MockFileSystem) Chmod(name string, mode os.FileMode) error {
	if m.ChmodFn != nil {
		return m.ChmodFn(name, mode)
	}
	return disk.Chmod(name, mode)
}

func (m *MockFileSystem) Rename(oldpath, newpath string) error {
	if m.RenameFn != nil {
		return m.RenameFn(oldpath, newpath)
	}
	return disk.Rename(oldpath, newpath)
}

func (m *MockFileSystem) ReadDir(name string) ([]os.DirEntry, error) {
	if m.ReadDirFn != nil {
		return m.ReadDirFn(name)
	}
	return disk.ReadDir(name)
}

func (m *MockFileSystem) Remove(name string) error {
	if m.RemoveFn != nil {
		return m.RemoveFn(name)
	}
	return disk.Remove(name)
}

var _ FileSystem = (*MockFileSystem)(nil)
