// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Settings configures lintlab itself, as opposed to the linter config file
// it edits. They live in SettingsPath and every field has a default.
type Settings struct {
	// Binary is the external linter executable, looked up on PATH.
	Binary string `yaml:"binary" validate:"required"`

	// ExtraArgs are appended to every linter invocation.
	ExtraArgs []string `yaml:"extra_args,omitempty"`

	// ViolationExitCodes are non-zero exit codes that still mean the run
	// succeeded and reported violations.
	ViolationExitCodes []int `yaml:"violation_exit_codes,omitempty" validate:"dive,min=1,max=255"`

	// ConfigFileName is the linter config looked up in the workspace root.
	ConfigFileName string `yaml:"config_file_name" validate:"required,excludesall=/\\"`

	// BackupRetention is how many backups a commit keeps. Zero keeps all.
	BackupRetention int `yaml:"backup_retention" validate:"min=0,max=1000"`

	// PreviewLimit caps the findings kept per simulated rule.
	PreviewLimit int `yaml:"preview_limit" validate:"min=1,max=10000"`

	// RuleTimeout bounds each simulated rule. Zero means no deadline.
	RuleTimeout time.Duration `yaml:"rule_timeout,omitempty" validate:"gte=0"`

	// StoreDir holds the findings database. Empty means <workspace>/.lintlab/findings.
	StoreDir string `yaml:"store_dir,omitempty"`

	// Excluded adds to the built-in default exclusions.
	Excluded []string `yaml:"excluded,omitempty" validate:"dive,required"`
}

// DefaultSettings returns the settings used when no settings file exists.
func DefaultSettings() Settings {
	return Settings{
		Binary:             "swiftlint",
		ViolationExitCodes: []int{2},
		ConfigFileName:     DefaultFileName,
		BackupRetention:    10,
		PreviewLimit:       50,
	}
}

// Defaults builds the shared exclusion defaults from these settings.
func (s Settings) Defaults() Defaults {
	return NewDefaults(s.Excluded...)
}

// SettingsDir returns the directory for lintlab's own configuration.
// It uses $XDG_CONFIG_HOME/lintlab if set, otherwise ~/.config/lintlab.
func SettingsDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "lintlab")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "lintlab")
}

// SettingsPath returns the path to the settings file.
func SettingsPath() string {
	return filepath.Join(SettingsDir(), "config.yaml")
}

// LoadSettings reads the settings file at path over DefaultSettings.
// If the file does not exist, it returns the defaults and nil error.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	data, err := os.ReadFile(path) //nolint:gosec // user config path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return s, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := ValidateSettings(s); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

var settingsValidator = validator.New()

// ValidateSettings checks field constraints and reports every violation.
func ValidateSettings(s Settings) error {
	err := settingsValidator.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		msg := fmt.Sprintf("%s: failed %q", field, fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("%s: failed %q (%s), got %v", field, fe.Tag(), fe.Param(), fe.Value())
		}
		msgs = append(msgs, msg)
	}
	return fmt.Errorf("settings validation failed:\n  %s", strings.Join(msgs, "\n  "))
}
