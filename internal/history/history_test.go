// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

package history

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/lintlab/internal/simulate"
	"github.com/davetashner/lintlab/internal/testable"
)

func TestLoad_NonExistentFile(t *testing.T) {
	h, err := Load(t.TempDir())
	assert.NoError(t, err)
	assert.Nil(t, h)
}

func TestLoad_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, Dir), 0o750))
	require.NoError(t, os.WriteFile(Path(dir), []byte("not json"), 0o600))

	h, err := Load(dir)
	assert.Error(t, err)
	assert.Nil(t, h)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	original := Append(nil, Entry{
		Timestamp:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		GitHead:        "abc123",
		Candidates:     3,
		Safe:           []string{"a"},
		WithViolations: map[string]int{"b": 4, "c": 1},
	})
	require.NoError(t, Save(dir, original))

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "1", loaded.Version)
	require.Len(t, loaded.Entries, 1)
	assert.Equal(t, "abc123", loaded.Entries[0].GitHead)
	assert.Equal(t, 5, loaded.Entries[0].TotalViolations())
}

func TestSave_WriteError(t *testing.T) {
	old := FS
	t.Cleanup(func() { FS = old })
	FS = &testable.MockFileSystem{WriteFileFn: func(string, []byte, os.FileMode) error {
		return errors.New("read-only")
	}}

	err := Save(t.TempDir(), Append(nil, Entry{}))
	assert.ErrorContains(t, err, "write history file")
}

func TestAppend_FIFOCap(t *testing.T) {
	var h *History
	for i := 0; i < MaxEntries+5; i++ {
		h = Append(h, Entry{Candidates: i})
	}
	require.Len(t, h.Entries, MaxEntries)
	assert.Equal(t, 5, h.Entries[0].Candidates)
	assert.Equal(t, MaxEntries+4, h.Entries[MaxEntries-1].Candidates)
}

func TestRecord(t *testing.T) {
	dir := t.TempDir()
	res := &simulate.BatchResult{
		Results: []simulate.RuleImpactResult{
			{RuleID: "safe_one"},
			{RuleID: "noisy", ViolationCount: 7},
		},
		Failures:    []simulate.Failure{{RuleID: "broken", Error: "boom"}},
		Total:       3,
		Duration:    2 * time.Second,
		CompletedAt: time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
	}

	h, err := Record(dir, "deadbeef", res)
	require.NoError(t, err)
	require.Len(t, h.Entries, 1)

	e := h.Entries[0]
	assert.Equal(t, []string{"safe_one"}, e.Safe)
	assert.Equal(t, map[string]int{"noisy": 7}, e.WithViolations)
	assert.Equal(t, []string{"broken"}, e.Failures)
	assert.Equal(t, 3, e.Candidates)
	assert.Equal(t, "deadbeef", e.GitHead)

	h, err = Record(dir, "deadbeef", res)
	require.NoError(t, err)
	assert.Len(t, h.Entries, 2)
}

func TestComputeTrends(t *testing.T) {
	h := &History{Entries: []Entry{
		{Safe: []string{"a"}, WithViolations: map[string]int{"x": 10, "y": 5}},
		{Cancelled: true, WithViolations: map[string]int{"x": 1}},
		{Safe: []string{"a", "b", "c"}, WithViolations: map[string]int{"x": 4, "z": 2}},
	}}

	tr := ComputeTrends(h, DefaultWindowSize)
	require.NotNil(t, tr)
	assert.Equal(t, 2, tr.DataPoints)
	assert.Equal(t, TrendLine{Current: 6, Previous: 15, Delta: -9, Direction: Improving}, tr.ViolationTrend)
	assert.Equal(t, Improving, tr.SafeTrend.Direction)
	assert.Equal(t, Improving, tr.RuleTrends["y"].Direction)
	assert.Equal(t, Degrading, tr.RuleTrends["z"].Direction)
	assert.Len(t, tr.RuleTrends, 3)
}

func TestComputeTrends_NotEnoughData(t *testing.T) {
	assert.Nil(t, ComputeTrends(nil, DefaultWindowSize))
	assert.Nil(t, ComputeTrends(&History{Entries: []Entry{{}, {Cancelled: true}}}, DefaultWindowSize))
}

func TestClassifyDirection(t *testing.T) {
	assert.Equal(t, Stable, classifyDirection(0, 0))
	assert.Equal(t, Stable, classifyDirection(100, 105))
	assert.Equal(t, Degrading, classifyDirection(0, 3))
	assert.Equal(t, Improving, classifyDirection(10, 2))
}
