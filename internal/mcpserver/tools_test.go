package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/lintlab/internal/config"
	"github.com/davetashner/lintlab/internal/finding"
)

// worldLinter reports the same findings for every run; the simulator keeps
// only the target rule's.
type worldLinter struct {
	mu    sync.Mutex
	world []finding.Finding
	calls int
}

func (w *worldLinter) Lint(_ context.Context, _, _ string) ([]finding.Finding, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.calls++
	return append([]finding.Finding(nil), w.world...), nil
}

func testWorld() []finding.Finding {
	return []finding.Finding{
		{RuleID: "force_cast", File: "A.swift", Line: 3, Severity: finding.SeverityError, Message: "Force casts should be avoided."},
		{RuleID: "force_cast", File: "B.swift", Line: 9, Severity: finding.SeverityError, Message: "Force casts should be avoided."},
		{RuleID: "line_length", File: "A.swift", Line: 1, Severity: finding.SeverityWarning, Message: "Line should be 120 characters or less."},
	}
}

func newWorkspace(t *testing.T, content string) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	if content != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultFileName), []byte(content), 0o600))
	}
	return dir
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	return res.Content[0].(*mcp.TextContent).Text
}

func TestHandleGetConfig(t *testing.T) {
	dir := newWorkspace(t, "disabled_rules:\n  - line_length\nopt_in_rules:\n  - empty_count\nrules:\n  type_name:\n    severity: error\n")
	h := newHandlers(Options{Linter: &worldLinter{}})

	res, _, err := h.handleGetConfig(context.Background(), nil, GetConfigInput{Path: dir})
	require.NoError(t, err)

	var view ConfigView
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &view))
	assert.True(t, view.Exists)
	assert.Equal(t, filepath.Join(dir, config.DefaultFileName), view.Path)
	assert.Equal(t, []string{"line_length"}, view.DisabledRules)
	assert.Equal(t, []string{"empty_count"}, view.OptInRules)
	assert.Equal(t, "error", view.Rules["type_name"].Severity)
}

func TestHandleGetConfig_MissingFile(t *testing.T) {
	dir := newWorkspace(t, "")
	h := newHandlers(Options{Linter: &worldLinter{}})

	res, _, err := h.handleGetConfig(context.Background(), nil, GetConfigInput{Path: dir})
	require.NoError(t, err)
	text := textOf(t, res)
	assert.Contains(t, text, `"exists": false`)
	assert.Contains(t, text, `"disabled_rules": []`)
}

func TestHandlePreview_DoesNotWrite(t *testing.T) {
	original := "# keep me\ndisabled_rules:\n  - line_length\n"
	dir := newWorkspace(t, original)
	h := newHandlers(Options{Linter: &worldLinter{}})

	res, _, err := h.handlePreview(context.Background(), nil, PreviewInput{Path: dir, RuleID: "line_length", Action: "enable"})
	require.NoError(t, err)
	text := textOf(t, res)
	assert.Contains(t, text, "-  - line_length")
	assert.Contains(t, text, `"empty": false`)

	data, err := os.ReadFile(filepath.Join(dir, config.DefaultFileName))
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
}

func TestHandlePreview_Param(t *testing.T) {
	dir := newWorkspace(t, "opt_in_rules: []\n")
	h := newHandlers(Options{Linter: &worldLinter{}})

	res, _, err := h.handlePreview(context.Background(), nil, PreviewInput{
		Path: dir, RuleID: "line_length", Action: "param", Parameter: "warning", Value: "140",
	})
	require.NoError(t, err)
	text := textOf(t, res)
	assert.Contains(t, text, "warning: 140")
	assert.Contains(t, text, `"line_length"`)
}

func TestHandlePreview_Errors(t *testing.T) {
	dir := newWorkspace(t, "opt_in_rules: []\n")
	h := newHandlers(Options{Linter: &worldLinter{}})

	tests := []struct {
		name  string
		input PreviewInput
		want  string
	}{
		{"missing rule", PreviewInput{Path: dir, Action: "enable"}, "rule_id is required"},
		{"bad action", PreviewInput{Path: dir, RuleID: "x", Action: "explode"}, "unsupported action"},
		{"bad severity", PreviewInput{Path: dir, RuleID: "x", Action: "severity", Severity: "fatal"}, "unknown severity"},
		{"missing param", PreviewInput{Path: dir, RuleID: "x", Action: "param"}, "parameter is required"},
		{"bad path", PreviewInput{Path: filepath.Join(dir, "nope"), RuleID: "x", Action: "enable"}, "cannot resolve"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := h.handlePreview(context.Background(), nil, tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestHandleSimulate(t *testing.T) {
	dir := newWorkspace(t, "disabled_rules:\n  - line_length\n")
	l := &worldLinter{world: testWorld()}
	h := newHandlers(Options{Linter: l})

	res, _, err := h.handleSimulate(context.Background(), nil, SimulateInput{Path: dir, RuleID: "line_length"})
	require.NoError(t, err)

	var got struct {
		ViolationCount int      `json:"violation_count"`
		AffectedFiles  []string `json:"affected_files"`
	}
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &got))
	assert.Equal(t, 1, got.ViolationCount)
	assert.Equal(t, []string{"A.swift"}, got.AffectedFiles)
	assert.Equal(t, 1, l.calls)
}

func TestHandleFindSafeRules_DefaultsToDisabledRules(t *testing.T) {
	dir := newWorkspace(t, "disabled_rules:\n  - line_length\n  - todo\n")
	l := &worldLinter{world: testWorld()}
	h := newHandlers(Options{Linter: l})

	res, _, err := h.handleFindSafeRules(context.Background(), nil, SafeRulesInput{Path: dir, OptInRules: "force_cast, empty_count"})
	require.NoError(t, err)

	var got struct {
		Safe      []string `json:"safe"`
		Total     int      `json:"total"`
		Cancelled bool     `json:"cancelled"`
	}
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &got))
	assert.Equal(t, 4, got.Total)
	assert.Equal(t, []string{"todo", "empty_count"}, got.Safe)
	assert.False(t, got.Cancelled)
	assert.Equal(t, 4, l.calls)
}

func TestHandleFindSafeRules_ExplicitRules(t *testing.T) {
	dir := newWorkspace(t, "disabled_rules:\n  - line_length\n")
	h := newHandlers(Options{Linter: &worldLinter{world: testWorld()}})

	res, _, err := h.handleFindSafeRules(context.Background(), nil, SafeRulesInput{Path: dir, Rules: "todo"})
	require.NoError(t, err)
	assert.Contains(t, textOf(t, res), `"safe": [`+"\n    \"todo\"")
}
