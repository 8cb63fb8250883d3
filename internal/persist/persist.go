// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

// Package persist writes configuration files atomically. Every commit goes
// through a temp file in the target directory, a timestamped backup of the
// previous text and a rename over the target, all under an exclusive lock.
package persist

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/davetashner/lintlab/internal/config"
	"github.com/davetashner/lintlab/internal/testable"
)

// Step names one stage of a commit.
type Step string

const (
	StepTempWrite   Step = "temp-write"
	StepBackupWrite Step = "backup-write"
	StepRename      Step = "rename"
)

// StepError reports the commit stage that failed. The live file is never
// modified when Step is StepTempWrite or StepBackupWrite.
type StepError struct {
	Step Step
	Path string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("persist %s: %s: %v", e.Step, e.Path, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// BackupRef identifies a backup file. The zero value means no backup was
// written.
type BackupRef struct {
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// IsZero reports whether r refers to no backup.
func (r BackupRef) IsZero() bool { return r.Path == "" }

const defaultMode fs.FileMode = 0o644

// Persister commits, restores and prunes configuration files.
type Persister struct {
	FS  testable.FileSystem
	Now func() time.Time
}

// New returns a Persister over fsys. A nil fsys uses the real filesystem.
func New(fsys testable.FileSystem) *Persister {
	if fsys == nil {
		fsys = testable.DefaultFS
	}
	return &Persister{FS: fsys, Now: time.Now}
}

var defaultPersister = New(nil)

// Commit writes newText to path on the real filesystem.
func Commit(path string, newText []byte, prev *config.Snapshot) (BackupRef, error) {
	return defaultPersister.Commit(path, newText, prev)
}

// Commit replaces path with newText. When prev describes an existing file its
// text is first saved as a backup. Concurrent commits to the same path, from
// this process or another, wait for each other.
func (p *Persister) Commit(path string, newText []byte, prev *config.Snapshot) (BackupRef, error) {
	abs, err := p.FS.Abs(path)
	if err != nil {
		return BackupRef{}, &StepError{Step: StepTempWrite, Path: path, Err: err}
	}

	unlock, err := acquire(abs)
	if err != nil {
		return BackupRef{}, &StepError{Step: StepTempWrite, Path: abs, Err: fmt.Errorf("lock: %w", err)}
	}
	defer unlock()

	return p.commitLocked(abs, newText, prev)
}

func (p *Persister) commitLocked(path string, newText []byte, prev *config.Snapshot) (BackupRef, error) {
	mode := defaultMode
	if info, err := p.FS.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := p.writeTemp(path, newText, mode)
	if err != nil {
		return BackupRef{}, &StepError{Step: StepTempWrite, Path: path, Err: err}
	}

	var ref BackupRef
	if prev != nil && prev.Exists {
		ref, err = p.writeBackup(path, prev.Text, mode)
		if err != nil {
			p.discard(tmp)
			return BackupRef{}, &StepError{Step: StepBackupWrite, Path: path, Err: err}
		}
	}

	if err := p.FS.Rename(tmp, path); err != nil {
		p.discard(tmp)
		return ref, &StepError{Step: StepRename, Path: path, Err: err}
	}

	slog.Debug("config committed", "path", path, "bytes", len(newText), "backup", ref.Path)
	return ref, nil
}

func (p *Persister) writeTemp(path string, data []byte, mode fs.FileMode) (string, error) {
	f, err := p.FS.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		p.discard(name)
		return "", err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		p.discard(name)
		return "", err
	}
	if err := f.Close(); err != nil {
		p.discard(name)
		return "", err
	}
	if err := p.FS.Chmod(name, mode); err != nil {
		p.discard(name)
		return "", err
	}
	return name, nil
}

// writeBackup stores data under the first free timestamp at or after now.
func (p *Persister) writeBackup(path string, data []byte, mode fs.FileMode) (BackupRef, error) {
	ts := p.Now().Unix()
	for {
		name := BackupName(path, ts)
		_, err := p.FS.Stat(name)
		if errors.Is(err, fs.ErrNotExist) {
			if err := p.FS.WriteFile(name, data, mode); err != nil {
				return BackupRef{}, err
			}
			return BackupRef{Path: name, Timestamp: time.Unix(ts, 0)}, nil
		}
		if err != nil {
			return BackupRef{}, err
		}
		ts++
	}
}

func (p *Persister) discard(name string) {
	if err := p.FS.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to remove temp file", "path", name, "error", err)
	}
}

// Restore makes the content of backupPath the live content of path. The
// file being replaced is itself backed up first.
func (p *Persister) Restore(path, backupPath string) (BackupRef, error) {
	data, err := p.FS.ReadFile(backupPath)
	if err != nil {
		return BackupRef{}, fmt.Errorf("read backup %s: %w", backupPath, err)
	}

	current, err := p.FS.ReadFile(path)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return BackupRef{}, fmt.Errorf("read %s: %w", path, err)
	}
	prev := &config.Snapshot{Path: path, Text: current, TakenAt: p.Now(), Exists: exists}

	return p.Commit(path, data, prev)
}

// Restore restores backupPath over path on the real filesystem.
func Restore(path, backupPath string) (BackupRef, error) {
	return defaultPersister.Restore(path, backupPath)
}
