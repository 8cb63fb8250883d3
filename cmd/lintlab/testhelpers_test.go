package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/lintlab/internal/config"
	"github.com/davetashner/lintlab/internal/finding"
	"github.com/davetashner/lintlab/internal/findingstore"
	"github.com/davetashner/lintlab/internal/linter"
)

// fakeLinter returns the same findings on every run, or err.
type fakeLinter struct {
	mu       sync.Mutex
	findings []finding.Finding
	err      error
	calls    int
}

func (f *fakeLinter) Lint(_ context.Context, _, _ string) ([]finding.Finding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]finding.Finding(nil), f.findings...), nil
}

// keepOpen lets one in-memory store outlive the per-command Close.
type keepOpen struct{ s findingstore.Store }

func (k keepOpen) Store(ctx context.Context, ws string, fs []finding.Finding, meta findingstore.Meta) error {
	return k.s.Store(ctx, ws, fs, meta)
}

func (k keepOpen) Query(ctx context.Context, filter findingstore.Filter) ([]findingstore.Record, error) {
	return k.s.Query(ctx, filter)
}

func (k keepOpen) Suppress(ctx context.Context, id, reason string) error {
	return k.s.Suppress(ctx, id, reason)
}

func (k keepOpen) MarkResolved(ctx context.Context, id string) error {
	return k.s.MarkResolved(ctx, id)
}

func (keepOpen) Close() error { return nil }

var _ findingstore.Store = keepOpen{}

type testEnv struct {
	dir    string
	linter *fakeLinter
	store  findingstore.Store
}

// setupTest isolates a test: fresh flags, no user settings file, a fake
// linter and an in-memory findings store.
func setupTest(t *testing.T, content string) *testEnv {
	t.Helper()
	resetAllFlags()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	if content != "" {
		writeConfig(t, dir, content)
	}

	env := &testEnv{dir: dir, linter: &fakeLinter{}}
	store, err := findingstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	env.store = store

	origSettings, origLinter, origStore := settingsPath, newLinter, openStore
	settingsPath = func() string { return filepath.Join(dir, "no-settings", "config.yaml") }
	newLinter = func(config.Settings) linter.Linter { return env.linter }
	openStore = func(string, config.Settings) (findingstore.Store, error) { return keepOpen{store}, nil }
	t.Cleanup(func() {
		settingsPath, newLinter, openStore = origSettings, origLinter, origStore
	})
	return env
}

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultFileName), []byte(content), 0o600))
}

func readConfig(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, config.DefaultFileName))
	require.NoError(t, err)
	return string(data)
}

func newTestCmd() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	return rootCmd, stdout, stderr
}

// resetAllFlags undoes flag values left behind by a previous Execute.
func resetAllFlags() {
	resetGlobalFlags()
	resetRuleFlags()
	resetConfigFlags()
	resetImportFlags()
	resetBackupFlags()
	resetSimulateFlags()
	resetMigrateFlags()
	resetFindingsFlags()
	for _, name := range []string{"window", "json"} {
		if f := historyCmd.Flags().Lookup(name); f != nil {
			_ = f.Value.Set(f.DefValue)
		}
	}
	if f := rootCmd.Flags().Lookup("help"); f != nil {
		_ = f.Value.Set("false")
	}
}

// run executes lintlab with args in the test workspace.
func (e *testEnv) run(args ...string) (string, error) {
	resetAllFlags()
	cmd, stdout, _ := newTestCmd()
	cmd.SetArgs(append([]string{"--workspace", e.dir, "--quiet"}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func backups(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, config.DefaultFileName+".*.backup"))
	require.NoError(t, err)
	return matches
}
