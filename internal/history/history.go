// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

// Package history records the outcome of safe-rule discovery runs in
// <workspace>/.lintlab/simulation-history.json so that later runs can be
// compared with earlier ones.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"time"

	"github.com/davetashner/lintlab/internal/simulate"
	"github.com/davetashner/lintlab/internal/testable"
)

// Dir is the per-workspace state directory.
const Dir = ".lintlab"

// historyFile is the filename for simulation history.
const historyFile = "simulation-history.json"

// historySchemaVersion is the current history file schema version.
const historySchemaVersion = "1"

// MaxEntries is the FIFO cap for history entries.
const MaxEntries = 100

// FS is the file system implementation used by this package.
var FS testable.FileSystem = testable.DefaultFS

// Entry captures the summary of one discovery run.
type Entry struct {
	Timestamp      time.Time      `json:"timestamp"`
	GitHead        string         `json:"git_head"`
	Candidates     int            `json:"candidates"`
	Safe           []string       `json:"safe"`
	WithViolations map[string]int `json:"with_violations"`
	Failures       []string       `json:"failures,omitempty"`
	Cancelled      bool           `json:"cancelled"`
	Duration       time.Duration  `json:"duration"`
}

// TotalViolations sums the violations of every rule in the entry.
func (e Entry) TotalViolations() int {
	total := 0
	for _, n := range e.WithViolations {
		total += n
	}
	return total
}

// History stores a time-series of discovery runs, oldest first.
type History struct {
	Version string  `json:"version"`
	Entries []Entry `json:"entries"`
}

// Path returns the history file of workspaceRoot.
func Path(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, Dir, historyFile)
}

// Load reads the history of workspaceRoot. A missing file yields (nil, nil).
func Load(workspaceRoot string) (*History, error) {
	data, err := FS.ReadFile(Path(workspaceRoot))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var h History
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parse %s: %w", Path(workspaceRoot), err)
	}
	return &h, nil
}

// Save writes h, creating the state directory if needed.
func Save(workspaceRoot string, h *History) error {
	dir := filepath.Join(workspaceRoot, Dir)
	if err := FS.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return err
	}

	if err := FS.WriteFile(filepath.Join(dir, historyFile), data, 0o644); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}
	return nil
}

// Append adds an entry and enforces the FIFO cap.
func Append(h *History, entry Entry) *History {
	if h == nil {
		h = &History{}
	}
	h.Version = historySchemaVersion
	h.Entries = append(h.Entries, entry)
	if len(h.Entries) > MaxEntries {
		h.Entries = h.Entries[len(h.Entries)-MaxEntries:]
	}
	return h
}

// Record loads the history of workspaceRoot, appends an entry built from
// res and saves it.
func Record(workspaceRoot, gitHead string, res *simulate.BatchResult) (*History, error) {
	h, err := Load(workspaceRoot)
	if err != nil {
		return nil, err
	}
	h = Append(h, BuildEntry(gitHead, res))
	if err := Save(workspaceRoot, h); err != nil {
		return nil, err
	}
	return h, nil
}

// BuildEntry summarizes a discovery result.
func BuildEntry(gitHead string, res *simulate.BatchResult) Entry {
	e := Entry{
		Timestamp:      res.CompletedAt.UTC(),
		GitHead:        gitHead,
		Candidates:     res.Total,
		Safe:           res.SafeRules(),
		WithViolations: make(map[string]int),
		Cancelled:      res.Cancelled,
		Duration:       res.Duration,
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	for _, r := range res.RulesWithViolations() {
		e.WithViolations[r.RuleID] = r.ViolationCount
	}
	for _, f := range res.Failures {
		e.Failures = append(e.Failures, f.RuleID)
	}
	sort.Strings(e.Failures)
	return e
}

// SortedKeys returns the sorted keys from a map[string]int.
func SortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
