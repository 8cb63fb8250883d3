// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

package persist

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const backupSuffix = ".backup"

// BackupName returns the backup file name for path at unix second ts:
// {base}.{ts}.backup next to path.
func BackupName(path string, ts int64) string {
	return fmt.Sprintf("%s.%d%s", path, ts, backupSuffix)
}

// parseBackupName extracts the timestamp from a backup file name of base.
func parseBackupName(base, name string) (int64, bool) {
	prefix := base + "."
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, backupSuffix) {
		return 0, false
	}
	mid := strings.TrimSuffix(strings.TrimPrefix(name, prefix), backupSuffix)
	ts, err := strconv.ParseInt(mid, 10, 64)
	if err != nil || ts < 0 {
		return 0, false
	}
	return ts, true
}

// ListBackups returns the backups of path, newest first.
func (p *Persister) ListBackups(path string) ([]BackupRef, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	entries, err := p.FS.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list backups in %s: %w", dir, err)
	}

	var refs []BackupRef
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ts, ok := parseBackupName(base, e.Name())
		if !ok {
			continue
		}
		refs = append(refs, BackupRef{Path: filepath.Join(dir, e.Name()), Timestamp: time.Unix(ts, 0)})
	}
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].Timestamp.After(refs[j].Timestamp)
	})
	return refs, nil
}

// Prune deletes all but the keep newest backups of path and returns the
// deleted paths.
func (p *Persister) Prune(path string, keep int) ([]string, error) {
	if keep < 0 {
		return nil, fmt.Errorf("prune %s: keep must be >= 0, got %d", path, keep)
	}
	refs, err := p.ListBackups(path)
	if err != nil {
		return nil, err
	}
	if len(refs) <= keep {
		return nil, nil
	}

	var removed []string
	for _, r := range refs[keep:] {
		if err := p.FS.Remove(r.Path); err != nil {
			return removed, fmt.Errorf("prune %s: %w", r.Path, err)
		}
		removed = append(removed, r.Path)
	}
	return removed, nil
}

// ListBackups lists the backups of path on the real filesystem.
func ListBackups(path string) ([]BackupRef, error) {
	return defaultPersister.ListBackups(path)
}

// Prune prunes the backups of path on the real filesystem.
func Prune(path string, keep int) ([]string, error) {
	return defaultPersister.Prune(path, keep)
}
