// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

// Package session drives one editing session of a workspace's linter
// configuration: load, mutate in memory, preview, commit, re-lint.
package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/davetashner/lintlab/internal/config"
	"github.com/davetashner/lintlab/internal/diff"
	"github.com/davetashner/lintlab/internal/finding"
	"github.com/davetashner/lintlab/internal/findingstore"
	"github.com/davetashner/lintlab/internal/linter"
	"github.com/davetashner/lintlab/internal/persist"
	"github.com/davetashner/lintlab/internal/testable"
)

// ErrStale is returned by Commit when the file changed on disk after the
// session loaded it.
var ErrStale = errors.New("config changed on disk since it was loaded")

// ErrNoChanges is returned by Commit when there is nothing to write.
var ErrNoChanges = errors.New("no changes to commit")

// Options configures a Session.
type Options struct {
	WorkspaceRoot string
	// ConfigPath overrides <WorkspaceRoot>/<Settings.ConfigFileName>.
	ConfigPath string
	Settings   config.Settings
	Defaults   config.Defaults
	Linter     linter.Linter
	// Store receives findings after each lint. Optional.
	Store     findingstore.Store
	Persister *persist.Persister
	Git       testable.GitOpener
	FS        testable.FileSystem
}

// Session holds the live snapshot and the in-memory working copy. It is
// not safe for concurrent use.
type Session struct {
	opts Options
	root string
	path string

	snap *config.Snapshot
	cfg  *config.Config
}

// CommitResult reports what Commit did.
type CommitResult struct {
	Diff     *diff.Diff
	Backup   persist.BackupRef
	Pruned   []string
	Findings []finding.Finding
	// LintErr is set when the post-commit lint failed. The commit itself
	// succeeded.
	LintErr error
}

// Open loads the configuration of opts.WorkspaceRoot.
func Open(opts Options) (*Session, error) {
	if opts.FS == nil {
		opts.FS = testable.DefaultFS
	}
	if opts.Persister == nil {
		opts.Persister = persist.New(opts.FS)
	}
	if opts.Git == nil {
		opts.Git = testable.DefaultGitOpener
	}
	if opts.Settings.ConfigFileName == "" {
		opts.Settings.ConfigFileName = config.DefaultFileName
	}
	if opts.WorkspaceRoot == "" {
		opts.WorkspaceRoot = "."
	}

	root, err := opts.FS.Abs(opts.WorkspaceRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace %s: %w", opts.WorkspaceRoot, err)
	}
	path := opts.ConfigPath
	if path == "" {
		path = filepath.Join(root, opts.Settings.ConfigFileName)
	} else if path, err = opts.FS.Abs(path); err != nil {
		return nil, fmt.Errorf("resolve config %s: %w", opts.ConfigPath, err)
	}

	s := &Session{opts: opts, root: root, path: path}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) reload() error {
	snap, err := config.LoadSnapshot(s.path)
	if err != nil {
		return err
	}
	s.snap = snap
	s.cfg = snap.Config.Clone()
	return nil
}

// Root is the absolute workspace root.
func (s *Session) Root() string { return s.root }

// Path is the absolute config file path.
func (s *Session) Path() string { return s.path }

// WorkspaceID identifies the workspace in the findings store.
func (s *Session) WorkspaceID() string { return s.root }

// Snapshot returns the config as last loaded from disk.
func (s *Session) Snapshot() *config.Snapshot { return s.snap }

// Config returns a copy of the working config.
func (s *Session) Config() *config.Config { return s.cfg.Clone() }

// Dirty reports whether the working config differs from the snapshot.
func (s *Session) Dirty() bool { return !s.cfg.Equal(s.snap.Config) }

// Apply replaces the working config with fn's result. On error the working
// config is unchanged. Nothing is written to disk.
func (s *Session) Apply(fn func(*config.Config) (*config.Config, error)) error {
	next, err := fn(s.cfg.Clone())
	if err != nil {
		return err
	}
	if next == nil {
		return errors.New("apply: mutation returned no config")
	}
	s.cfg = next
	return nil
}

// Reset discards in-memory changes.
func (s *Session) Reset() { s.cfg = s.snap.Config.Clone() }

// Preview diffs the working config against the snapshot.
func (s *Session) Preview() (*diff.Diff, error) {
	return diff.Compute(s.snap, s.cfg)
}

// Commit writes the working config, keeping the comments and layout of the
// loaded file, then prunes backups and re-lints the workspace.
func (s *Session) Commit(ctx context.Context) (*CommitResult, error) {
	if err := config.Validate(s.cfg); err != nil {
		return nil, err
	}
	d, err := s.Preview()
	if err != nil {
		return nil, err
	}
	if d.Empty() {
		return nil, ErrNoChanges
	}
	if err := s.checkFresh(); err != nil {
		return nil, err
	}

	ref, err := s.opts.Persister.Commit(s.path, d.After, s.snap)
	if err != nil {
		return nil, err
	}
	res := &CommitResult{Diff: d, Backup: ref}
	slog.Info("config committed", "path", s.path, "changes", d.Summary(), "backup", ref.Path)

	if keep := s.opts.Settings.BackupRetention; keep > 0 {
		pruned, err := s.opts.Persister.Prune(s.path, keep)
		if err != nil {
			slog.Warn("backup pruning failed", "path", s.path, "error", err)
		}
		res.Pruned = pruned
	}

	if err := s.reload(); err != nil {
		return res, fmt.Errorf("reload after commit: %w", err)
	}

	if s.opts.Linter != nil {
		res.Findings, res.LintErr = s.Lint(ctx)
		if res.LintErr != nil {
			slog.Warn("post-commit lint failed", "error", res.LintErr)
		}
	}
	return res, nil
}

// checkFresh compares the file on disk with the snapshot.
func (s *Session) checkFresh() error {
	data, err := s.opts.FS.ReadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if s.snap.Exists {
			return fmt.Errorf("%w: %s was removed", ErrStale, s.path)
		}
		return nil
	case err != nil:
		return fmt.Errorf("read %s: %w", s.path, err)
	case !s.snap.Exists || !bytes.Equal(data, s.snap.Text):
		return fmt.Errorf("%w: %s", ErrStale, s.path)
	}
	return nil
}

// Lint runs the linter with the live config, drops findings under the
// default exclusions and records the rest in the store.
func (s *Session) Lint(ctx context.Context) ([]finding.Finding, error) {
	if s.opts.Linter == nil {
		return nil, errors.New("lint: no linter configured")
	}
	all, err := s.opts.Linter.Lint(ctx, s.path, s.root)
	if err != nil {
		return nil, err
	}

	kept := make([]finding.Finding, 0, len(all))
	for _, f := range all {
		if !s.opts.Defaults.IsExcluded(f.File) {
			kept = append(kept, f)
		}
	}
	finding.Sort(kept)

	if s.opts.Store != nil {
		meta := findingstore.Meta{
			GitHead:    testable.HeadHash(s.opts.Git, s.root),
			ConfigPath: s.path,
		}
		if err := s.opts.Store.Store(ctx, s.WorkspaceID(), kept, meta); err != nil {
			return kept, fmt.Errorf("store findings: %w", err)
		}
	}
	slog.Debug("workspace linted", "root", s.root, "findings", len(kept), "excluded", len(all)-len(kept))
	return kept, nil
}
