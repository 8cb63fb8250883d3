package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/lintlab/internal/config"
	"github.com/davetashner/lintlab/internal/finding"
)

const liveConfig = `# team config
disabled_rules:
  - line_length # noisy
  - trailing_whitespace

opt_in_rules:
  - empty_count

rules:
  type_body_length:
    severity: warning
`

func snapshot(t *testing.T, text string, exists bool) *config.Snapshot {
	t.Helper()
	s, err := config.NewSnapshot("/work/.swiftlint.yml", []byte(text), exists)
	require.NoError(t, err)
	return s
}

func TestCompute_NoChange(t *testing.T) {
	s := snapshot(t, liveConfig, true)
	d, err := Compute(s, s.Config.Clone())
	require.NoError(t, err)

	assert.True(t, d.Empty())
	assert.Equal(t, liveConfig, string(d.After))
	assert.Empty(t, d.Unified)
	assert.Equal(t, Stats{}, d.Stats)
	require.Len(t, d.Ops, 1)
	assert.Equal(t, OpEqual, d.Ops[0].Kind)
}

func TestCompute_EnableDisabledRule(t *testing.T) {
	s := snapshot(t, liveConfig, true)
	after, err := config.SetEnabled(s.Config, "line_length", true, false)
	require.NoError(t, err)

	d, err := Compute(s, after)
	require.NoError(t, err)

	assert.Equal(t, []string{"line_length"}, d.Removed)
	assert.Empty(t, d.Added)
	assert.Empty(t, d.Modified)
	assert.NotContains(t, string(d.After), "line_length")
	assert.Contains(t, string(d.After), "# team config")

	assert.Equal(t, 1, d.Stats.Hunks)
	assert.Equal(t, 1, d.Stats.LinesRemoved)
	assert.Equal(t, 0, d.Stats.LinesAdded)
	assert.Contains(t, d.Unified, "--- a/.swiftlint.yml")
	assert.Contains(t, d.Unified, "+++ b/.swiftlint.yml")
	assert.Contains(t, d.Unified, "-  - line_length # noisy")
}

func TestCompute_Modified(t *testing.T) {
	s := snapshot(t, liveConfig, true)
	after, err := config.SetSeverity(s.Config, "type_body_length", finding.SeverityError)
	require.NoError(t, err)

	d, err := Compute(s, after)
	require.NoError(t, err)
	assert.Equal(t, []string{"type_body_length"}, d.Modified)
	assert.Empty(t, d.Added)
	assert.Empty(t, d.Removed)
	assert.Equal(t, 1, d.Stats.LinesAdded)
	assert.Equal(t, 1, d.Stats.LinesRemoved)
}

func TestCompute_MembershipMove(t *testing.T) {
	s := snapshot(t, liveConfig, true)
	after, err := config.SetEnabled(s.Config, "empty_count", false, false)
	require.NoError(t, err)
	after, err = config.AddDisabled(after, "empty_count")
	require.NoError(t, err)

	d, err := Compute(s, after)
	require.NoError(t, err)
	assert.Equal(t, []string{"empty_count"}, d.Modified)
}

func TestCompute_AddOptIn(t *testing.T) {
	s := snapshot(t, liveConfig, true)
	after, err := config.SetEnabled(s.Config, "force_unwrapping", true, true)
	require.NoError(t, err)

	d, err := Compute(s, after)
	require.NoError(t, err)
	assert.Equal(t, []string{"force_unwrapping"}, d.Added)
	assert.Equal(t, 1, d.Stats.LinesAdded)
	assert.Contains(t, d.Unified, "+  - force_unwrapping")

	var inserts int
	for _, op := range d.Ops {
		if op.Kind == OpInsert {
			inserts++
			assert.Equal(t, op.BeforeStart, op.BeforeEnd)
			assert.Equal(t, 1, op.AfterEnd-op.AfterStart)
		}
	}
	assert.Equal(t, 1, inserts)
}

func TestCompute_FreshSnapshot(t *testing.T) {
	s := snapshot(t, "", false)
	after := &config.Config{
		DisabledRules: []string{"line_length"},
		OptInRules:    []string{"empty_count"},
	}

	d, err := Compute(s, after)
	require.NoError(t, err)
	assert.True(t, d.Fresh)
	assert.Equal(t, []string{"empty_count", "line_length"}, d.Added)
	assert.Empty(t, d.Removed)
	assert.Empty(t, d.Before)
	assert.Equal(t, 0, d.Stats.LinesRemoved)
	assert.Equal(t, strings.Count(string(d.After), "\n"), d.Stats.LinesAdded)
}

func TestCompute_NilSnapshot(t *testing.T) {
	_, err := Compute(nil, &config.Config{})
	assert.Error(t, err)
}

func TestDiff_Summary(t *testing.T) {
	d := &Diff{Added: []string{"a"}, Modified: []string{"b", "c"}, Stats: Stats{LinesAdded: 3, LinesRemoved: 1}}
	assert.Equal(t, "1 added, 0 removed, 2 modified (+3 -1 lines)", d.Summary())
	assert.Equal(t, 3, d.RuleChanges())
	assert.False(t, d.Empty())
}

func TestSplitLines(t *testing.T) {
	assert.Nil(t, splitLines(nil))
	assert.Equal(t, []string{"a\n", "b\n"}, splitLines([]byte("a\nb")))
	assert.Equal(t, []string{"a\r\n", "b\r\n"}, splitLines([]byte("a\r\nb\r\n")))
}
