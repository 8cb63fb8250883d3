package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/davetashner/lintlab/internal/config"
	"github.com/davetashner/lintlab/internal/findingstore"
	"github.com/davetashner/lintlab/internal/history"
	"github.com/davetashner/lintlab/internal/linter"
	"github.com/davetashner/lintlab/internal/persist"
	"github.com/davetashner/lintlab/internal/session"
	"github.com/davetashner/lintlab/internal/simulate"
)

// settingsPath locates lintlab's own settings file. Tests point it at a
// temp dir.
var settingsPath = config.SettingsPath

// newLinter builds the linter used by every command. Tests replace it.
var newLinter = func(s config.Settings) linter.Linter {
	inv := linter.New(s.Binary, s.ViolationExitCodes, nil)
	inv.ExtraArgs = s.ExtraArgs
	return inv
}

// openStore opens the findings store of a workspace. Tests replace it with
// an in-memory store.
var openStore = func(root string, s config.Settings) (findingstore.Store, error) {
	dir := s.StoreDir
	if dir == "" {
		dir = filepath.Join(root, history.Dir, "findings")
	}
	var logger *slog.Logger
	if verbose {
		logger = slog.Default()
	}
	return findingstore.Open(findingstore.Config{Path: dir, Logger: logger})
}

func loadSettings() (config.Settings, error) {
	path := settingsPath()
	s, err := config.LoadSettings(path)
	if err != nil {
		return s, exitError(ExitInvalidArgs, "loading settings: %v", err)
	}
	slog.Debug("settings loaded", "path", path, "binary", s.Binary)
	return s, nil
}

// resolveWorkspace returns the absolute workspace root and checks that it is
// a directory.
func resolveWorkspace() (string, error) {
	root, err := cmdFS.Abs(workspace)
	if err != nil {
		return "", exitError(ExitInvalidArgs, "lintlab: cannot resolve path %q: %v", workspace, err)
	}
	info, err := cmdFS.Stat(root)
	if err != nil {
		return "", exitError(ExitInvalidArgs, "lintlab: path %q does not exist", workspace)
	}
	if !info.IsDir() {
		return "", exitError(ExitInvalidArgs, "lintlab: %q is not a directory", workspace)
	}
	return root, nil
}

// workbench bundles what a command needs: settings, an open session and,
// when asked for, the findings store.
type workbench struct {
	settings config.Settings
	sess     *session.Session
	store    findingstore.Store
}

func openWorkbench(withStore bool) (*workbench, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	root, err := resolveWorkspace()
	if err != nil {
		return nil, err
	}

	wb := &workbench{settings: settings}
	if withStore {
		wb.store, err = openStore(root, settings)
		if err != nil {
			return nil, exitError(ExitTotalFailure, "lintlab: %v", err)
		}
	}

	sess, err := session.Open(session.Options{
		WorkspaceRoot: root,
		ConfigPath:    configFile,
		Settings:      settings,
		Defaults:      settings.Defaults(),
		Linter:        newLinter(settings),
		Store:         wb.store,
		Persister:     persist.New(cmdFS),
		FS:            cmdFS,
	})
	if err != nil {
		wb.Close()
		return nil, fmt.Errorf("loading config: %w", err)
	}
	wb.sess = sess
	return wb, nil
}

// Close releases the findings store, if open.
func (wb *workbench) Close() {
	if wb.store == nil {
		return
	}
	if err := wb.store.Close(); err != nil {
		slog.Warn("closing finding store", "error", err)
	}
}

func (wb *workbench) simulator() *simulate.Simulator {
	return simulate.New(newLinter(wb.settings), simulate.Options{
		Defaults:     wb.settings.Defaults(),
		PreviewLimit: wb.settings.PreviewLimit,
		RuleTimeout:  wb.settings.RuleTimeout,
		FS:           cmdFS,
	})
}

// liveConfigPath resolves the config file path without parsing it, for
// commands that must work on a broken file.
func liveConfigPath() (string, config.Settings, error) {
	settings, err := loadSettings()
	if err != nil {
		return "", settings, err
	}
	if configFile != "" {
		p, err := cmdFS.Abs(configFile)
		if err != nil {
			return "", settings, exitError(ExitInvalidArgs, "lintlab: cannot resolve path %q: %v", configFile, err)
		}
		return p, settings, nil
	}
	root, err := resolveWorkspace()
	if err != nil {
		return "", settings, err
	}
	return filepath.Join(root, settings.ConfigFileName), settings, nil
}

// reopen loads the config from disk again, keeping the workbench's linter
// and store.
func reopen(wb *workbench) (*session.Session, error) {
	sess, err := session.Open(session.Options{
		WorkspaceRoot: wb.sess.Root(),
		ConfigPath:    wb.sess.Path(),
		Settings:      wb.settings,
		Defaults:      wb.settings.Defaults(),
		Linter:        newLinter(wb.settings),
		Store:         wb.store,
		Persister:     persist.New(cmdFS),
		FS:            cmdFS,
	})
	if err != nil {
		return nil, err
	}
	wb.sess = sess
	return sess, nil
}
