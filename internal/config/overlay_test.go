// Copyright 2026 The Lintlab Authors
// SPDX-License-Identifier: MIT

package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/lintlab/internal/finding"
)

func serialize(t *testing.T, cfg *Config, overlay string) string {
	t.Helper()
	out, err := Serialize(cfg, []byte(overlay))
	require.NoError(t, err)
	return string(out)
}

func TestSerialize_RoundTripIdentity(t *testing.T) {
	texts := map[string]string{
		"sample":          sampleConfig,
		"crlf":            strings.ReplaceAll(sampleConfig, "\n", "\r\n"),
		"no final eol":    strings.TrimSuffix(sampleConfig, "\n"),
		"flow root":       "{disabled_rules: [a], reporter: json}\n",
		"comments only":   "# nothing here yet\n\n",
		"document marker": "---\nreporter: json\n...\n",
		"zero-indent seq": "disabled_rules:\n- a\n- b\n",
		"empty values":    "disabled_rules: []\nopt_in_rules:\nrules: {}\n",
		"unknown only":    "analyzer_rules:\n  - unused_import\nstrict: true\n",
	}
	for name, text := range texts {
		t.Run(name, func(t *testing.T) {
			cfg := mustParse(t, text)
			assert.Equal(t, text, serialize(t, cfg, text))
			assert.Equal(t, text, serialize(t, cfg.Clone(), text))
		})
	}
}

func TestSerialize_EnableRemovesDisabledItem(t *testing.T) {
	cfg := mustParse(t, sampleConfig)
	next, err := SetEnabled(cfg, "line_length", true, false)
	require.NoError(t, err)

	want := strings.Replace(sampleConfig, "  - line_length # too noisy\n", "", 1)
	assert.Equal(t, want, serialize(t, next, sampleConfig))
}

func TestSerialize_DisableAppendsItem(t *testing.T) {
	cfg := mustParse(t, sampleConfig)
	next, err := SetEnabled(cfg, "force_cast", false, false)
	require.NoError(t, err)

	want := strings.Replace(sampleConfig,
		"  - trailing_whitespace\n",
		"  - trailing_whitespace\n  - force_cast\n", 1)
	assert.Equal(t, want, serialize(t, next, sampleConfig))
}

func TestSerialize_RemovedItemKeepsNeighbourComments(t *testing.T) {
	cfg := mustParse(t, sampleConfig)
	next, err := SetEnabled(cfg, "empty_count", false, true)
	require.NoError(t, err)

	out := serialize(t, next, sampleConfig)
	assert.NotContains(t, out, "- empty_count")
	assert.Contains(t, out, "opt_in_rules:\n  # - force_unwrapping\n  - closure_spacing\n")
}

func TestSerialize_RuleEntryRerendered(t *testing.T) {
	cfg := mustParse(t, sampleConfig)
	next, err := SetSeverity(cfg, "line_length", finding.SeverityError)
	require.NoError(t, err)

	want := strings.Replace(sampleConfig, `  line_length:
    severity: warning
    parameters:
      warning: 120
      error: 200
`, `  line_length:
    severity: error
    parameters:
      error: 200
      warning: 120
`, 1)
	out := serialize(t, next, sampleConfig)
	assert.Equal(t, want, out)
	assert.Contains(t, out, "  # keep lines readable\n  line_length:")
}

func TestSerialize_NewRuleAppendedToRules(t *testing.T) {
	cfg := mustParse(t, sampleConfig)
	next, err := SetSeverity(cfg, "zz_rule", finding.SeverityError)
	require.NoError(t, err)

	want := strings.Replace(sampleConfig,
		"    enabled: true\n\ncustom_rules:",
		"    enabled: true\n  zz_rule:\n    severity: error\n\ncustom_rules:", 1)
	assert.Equal(t, want, serialize(t, next, sampleConfig))
}

func TestSerialize_RemovedRuleEntry(t *testing.T) {
	cfg := mustParse(t, sampleConfig)
	next, err := RemoveRule(cfg, "type_body_length")
	require.NoError(t, err)

	want := strings.Replace(sampleConfig, "  type_body_length:\n    enabled: true\n", "", 1)
	assert.Equal(t, want, serialize(t, next, sampleConfig))
}

func TestSerialize_ScalarKeepsLineComment(t *testing.T) {
	cfg := mustParse(t, sampleConfig)
	next, err := SetValue(cfg, "reporter", "json")
	require.NoError(t, err)

	out := serialize(t, next, sampleConfig)
	var line string
	for _, l := range strings.Split(out, "\n") {
		if strings.HasPrefix(l, "reporter:") {
			line = l
		}
	}
	assert.True(t, strings.HasPrefix(line, "reporter: json"), "got %q", line)
	assert.Contains(t, line, "# IDE friendly")
	assert.Equal(t, strings.Count(sampleConfig, "\n"), strings.Count(out, "\n"))
}

func TestSerialize_FlowSequenceStaysFlow(t *testing.T) {
	cfg := mustParse(t, sampleConfig)
	next, err := SetList(cfg, KeyIncluded, []string{"Sources", "Tests", "App"})
	require.NoError(t, err)

	want := strings.Replace(sampleConfig, "included: [Sources, Tests]\n", "included: [Sources, Tests, App]\n", 1)
	assert.Equal(t, want, serialize(t, next, sampleConfig))
}

func TestSerialize_EmptiedListDropsKey(t *testing.T) {
	cfg := mustParse(t, sampleConfig)
	next, err := SetList(cfg, KeyDisabledRules, nil)
	require.NoError(t, err)

	out := serialize(t, next, sampleConfig)
	assert.NotContains(t, out, "disabled_rules")
	assert.True(t, strings.HasPrefix(out,
		"# SwiftLint configuration\n# maintained by the platform team\n\n# Opt-in rules we enabled deliberately\nopt_in_rules:\n"))

	back := mustParse(t, out)
	assert.True(t, back.Equal(next))
}

func TestSerialize_DroppedEntryKeepsSectionComment(t *testing.T) {
	text := "excluded:\n  - Pods\n\n# ---- reporting ----\n\nreporter: json\n"
	cfg := mustParse(t, text)
	next, err := SetList(cfg, KeyExcluded, nil)
	require.NoError(t, err)

	assert.Equal(t, "\n# ---- reporting ----\n\nreporter: json\n", serialize(t, next, text))
}

func TestSerialize_AddedKeyAppended(t *testing.T) {
	text := "disabled_rules:\n  - a\n"
	cfg := mustParse(t, text)
	next, err := SetSeverity(cfg, "x", finding.SeverityError)
	require.NoError(t, err)

	assert.Equal(t, "disabled_rules:\n  - a\nrules:\n  x:\n    severity: error\n", serialize(t, next, text))
}

func TestSerialize_AppendWithoutFinalNewline(t *testing.T) {
	text := "disabled_rules:\n  - a"
	cfg := mustParse(t, text)
	next, err := AddDisabled(cfg, "b")
	require.NoError(t, err)

	assert.Equal(t, "disabled_rules:\n  - a\n  - b\n", serialize(t, next, text))
}

func TestSerialize_CRLFPreserved(t *testing.T) {
	text := "disabled_rules:\r\n  - a\r\nreporter: xcode\r\n"
	cfg := mustParse(t, text)
	next, err := AddDisabled(cfg, "b")
	require.NoError(t, err)
	next, err = SetSeverity(next, "b", finding.SeverityHint)
	require.NoError(t, err)

	out := serialize(t, next, text)
	assert.Equal(t, "disabled_rules:\r\n  - a\r\n  - b\r\nreporter: xcode\r\nrules:\r\n  b:\r\n    severity: hint\r\n", out)
}

func TestSerialize_ZeroIndentSequence(t *testing.T) {
	text := "disabled_rules:\n- a\nreporter: json\n"
	cfg := mustParse(t, text)
	next, err := AddDisabled(cfg, "b")
	require.NoError(t, err)

	assert.Equal(t, "disabled_rules:\n- a\n- b\nreporter: json\n", serialize(t, next, text))
}

func TestSerialize_QuotesAmbiguousItems(t *testing.T) {
	text := "excluded:\n  - Pods\n"
	cfg := mustParse(t, text)
	next, err := SetList(cfg, KeyExcluded, []string{"Pods", "yes"})
	require.NoError(t, err)

	out := serialize(t, next, text)
	assert.Equal(t, []string{"Pods", "yes"}, mustParse(t, out).Excluded)
}

func TestSerialize_UnknownKeysPreserved(t *testing.T) {
	cfg := mustParse(t, sampleConfig)
	next, err := SetEnabled(cfg, "line_length", true, false)
	require.NoError(t, err)

	out := serialize(t, next, sampleConfig)
	assert.Contains(t, out, "custom_rules:\n  no_print:\n    regex: \"print\\\\(\"\n    message: \"Use the logger\"\n# end of file\n")
}

func TestSerialize_FlowRootFallsBackToCanonical(t *testing.T) {
	text := "{disabled_rules: [a], reporter: json}\n"
	cfg := mustParse(t, text)
	next, err := AddDisabled(cfg, "b")
	require.NoError(t, err)

	assert.Equal(t, "disabled_rules:\n  - a\n  - b\nreporter: json\n", serialize(t, next, text))
}

func TestSerialize_NilOverlayIsCanonical(t *testing.T) {
	cfg := &Config{DisabledRules: []string{"a"}, Reporter: "json"}
	out, err := Serialize(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "disabled_rules:\n  - a\nreporter: json\n", string(out))
}

func TestSerialize_InvalidOverlay(t *testing.T) {
	_, err := Serialize(&Config{}, []byte("rules: 3\n"))
	var pe *ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestSerialize_MutationsSurviveReparse(t *testing.T) {
	cfg := mustParse(t, sampleConfig)
	next, err := BulkApply(cfg, []Change{
		{Kind: ChangeEnable, RuleID: "trailing_whitespace"},
		{Kind: ChangeEnable, RuleID: "force_unwrapping", OptIn: true},
		{Kind: ChangeParameter, RuleID: "line_length", Name: "warning", Value: 140},
		{Kind: ChangeSeverity, RuleID: "cyclomatic_complexity", Severity: finding.SeverityError},
	})
	require.NoError(t, err)

	out := serialize(t, next, sampleConfig)
	back := mustParse(t, out)
	assert.True(t, back.Equal(next), "reparsed config differs:\n%s", out)
	assert.Contains(t, out, "# SwiftLint configuration\n")
	assert.Contains(t, out, "  - line_length # too noisy\n")
	assert.Contains(t, out, "reporter: xcode   # IDE friendly\n")
}
