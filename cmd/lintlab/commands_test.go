package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davetashner/lintlab/internal/finding"
	"github.com/davetashner/lintlab/internal/findingstore"
	"github.com/davetashner/lintlab/internal/history"
)

const baseConfig = `# team rules
disabled_rules:
  - line_length
  - todo
opt_in_rules:
  - empty_count
`

func hit(rule, file string, line int) finding.Finding {
	return finding.Finding{RuleID: rule, File: file, Line: line, Severity: finding.SeverityWarning, Message: rule + " violation"}
}

func TestShow(t *testing.T) {
	env := setupTest(t, baseConfig)
	out, err := env.run("show")
	require.NoError(t, err)
	assert.Contains(t, out, "line_length")
	assert.Contains(t, out, "disabled")
	assert.Contains(t, out, "empty_count")
	assert.Contains(t, out, "opt-in")
}

func TestShow_ParseError(t *testing.T) {
	env := setupTest(t, "disabled_rules: [unclosed\n")
	_, err := env.run("show")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidArgs, exitCodeFor(err))
}

func TestRuleEnable_WritesWithBackup(t *testing.T) {
	env := setupTest(t, baseConfig)
	env.linter.findings = []finding.Finding{hit("todo", "A.swift", 3)}

	out, err := env.run("rule", "enable", "line_length")
	require.NoError(t, err)
	assert.Contains(t, out, "- line_length")
	assert.Contains(t, out, "Wrote ")
	assert.Contains(t, out, "Lint: 1 finding(s).")

	got := readConfig(t, env.dir)
	assert.NotContains(t, got, "line_length")
	assert.Contains(t, got, "# team rules")
	assert.Contains(t, got, "  - todo")

	b := backups(t, env.dir)
	require.Len(t, b, 1)
	prev, err := os.ReadFile(b[0])
	require.NoError(t, err)
	assert.Equal(t, baseConfig, string(prev))

	recs, err := env.store.Query(context.Background(), findingstore.Filter{})
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestRuleEnable_DryRun(t *testing.T) {
	env := setupTest(t, baseConfig)
	out, err := env.run("rule", "enable", "line_length", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run: nothing written.")
	assert.Equal(t, baseConfig, readConfig(t, env.dir))
	assert.Empty(t, backups(t, env.dir))
	assert.Zero(t, env.linter.calls)
}

func TestRuleEnable_NoChange(t *testing.T) {
	env := setupTest(t, baseConfig)
	out, err := env.run("rule", "disable", "todo")
	require.NoError(t, err)
	assert.Contains(t, out, "No changes.")
	assert.Empty(t, backups(t, env.dir))
}

func TestRuleSeverity(t *testing.T) {
	env := setupTest(t, baseConfig)
	_, err := env.run("rule", "severity", "force_cast", "error")
	require.NoError(t, err)
	got := readConfig(t, env.dir)
	assert.Contains(t, got, "force_cast:")
	assert.Contains(t, got, "severity: error")

	_, err = env.run("rule", "severity", "force_cast", "fatal")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidArgs, exitCodeFor(err))
}

func TestRuleParam(t *testing.T) {
	env := setupTest(t, baseConfig)
	_, err := env.run("rule", "param", "type_name", "max_length", "40")
	require.NoError(t, err)
	assert.Contains(t, readConfig(t, env.dir), "max_length: 40")
}

func TestRuleEnable_LintFailureDoesNotFailCommit(t *testing.T) {
	env := setupTest(t, baseConfig)
	env.linter.err = errors.New("swiftlint crashed")

	out, err := env.run("rule", "enable", "todo")
	require.NoError(t, err)
	assert.Contains(t, out, "Lint after commit failed")
	assert.NotContains(t, readConfig(t, env.dir), "todo")
}

func TestConfigGetSet(t *testing.T) {
	env := setupTest(t, baseConfig)

	out, err := env.run("config", "get", "disabled_rules")
	require.NoError(t, err)
	assert.Equal(t, "- line_length\n- todo\n", out)

	_, err = env.run("config", "set", "opt_in_rules", "empty_count,force_unwrapping")
	require.NoError(t, err)
	assert.Contains(t, readConfig(t, env.dir), "  - force_unwrapping")

	out, err = env.run("config", "get")
	require.NoError(t, err)
	assert.Contains(t, out, "disabled_rules = [line_length todo]\n")

	_, err = env.run("config", "get", "nope")
	require.Error(t, err)

	_, err = env.run("config", "set", "bogus", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown key")
}

func TestConfigSettings(t *testing.T) {
	env := setupTest(t, "")
	out, err := env.run("config", "settings")
	require.NoError(t, err)
	assert.Contains(t, out, "binary: swiftlint")
	assert.Contains(t, out, "no-settings")
}

func TestImport_Merge(t *testing.T) {
	env := setupTest(t, baseConfig)
	remote := filepath.Join(env.dir, "team.yml")
	require.NoError(t, os.WriteFile(remote, []byte("disabled_rules:\n  - force_cast\n"), 0o600))

	_, err := env.run("import", remote)
	require.NoError(t, err)
	got := readConfig(t, env.dir)
	assert.Contains(t, got, "  - line_length")
	assert.Contains(t, got, "  - force_cast")
}

func TestImport_Errors(t *testing.T) {
	env := setupTest(t, baseConfig)
	_, err := env.run("import", filepath.Join(env.dir, "missing.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")

	remote := filepath.Join(env.dir, "team.yml")
	require.NoError(t, os.WriteFile(remote, []byte("opt_in_rules: []\n"), 0o600))
	_, err = env.run("import", remote, "--mode", "squash")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown merge mode")
}

func TestBackupListRestorePrune(t *testing.T) {
	env := setupTest(t, baseConfig)

	out, err := env.run("backup", "list")
	require.NoError(t, err)
	assert.Equal(t, "No backups.\n", out)

	_, err = env.run("rule", "enable", "todo")
	require.NoError(t, err)
	edited := readConfig(t, env.dir)

	out, err = env.run("backup", "list")
	require.NoError(t, err)
	assert.Contains(t, out, ".backup")

	out, err = env.run("backup", "restore")
	require.NoError(t, err)
	assert.Contains(t, out, "Restored")
	assert.Equal(t, baseConfig, readConfig(t, env.dir))
	assert.NotEqual(t, edited, readConfig(t, env.dir))
	assert.Len(t, backups(t, env.dir), 2)

	out, err = env.run("backup", "prune", "--keep", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 backup(s), kept 1.")
	assert.Len(t, backups(t, env.dir), 1)
}

func TestBackupRestore_NoBackups(t *testing.T) {
	env := setupTest(t, baseConfig)
	_, err := env.run("backup", "restore")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no backups")
}

func TestSimulate(t *testing.T) {
	env := setupTest(t, baseConfig)
	env.linter.findings = []finding.Finding{hit("line_length", "A.swift", 1), hit("line_length", "B.swift", 2), hit("todo", "A.swift", 5)}

	out, err := env.run("simulate", "line_length")
	require.NoError(t, err)
	assert.Contains(t, out, "2 violation(s) in 2 file(s)")
	assert.Equal(t, baseConfig, readConfig(t, env.dir))

	out, err = env.run("simulate", "empty_count", "--opt-in", "--json")
	require.NoError(t, err)
	var res struct {
		RuleID         string `json:"rule_id"`
		ViolationCount int    `json:"violation_count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "empty_count", res.RuleID)
	assert.Zero(t, res.ViolationCount)
}

func TestSimulate_LinterMissing(t *testing.T) {
	env := setupTest(t, baseConfig)
	env.linter.err = errors.New("exec: swiftlint: not found")
	_, err := env.run("simulate", "todo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "simulate todo")
}

func TestSafeRules(t *testing.T) {
	env := setupTest(t, baseConfig)
	env.linter.findings = []finding.Finding{hit("line_length", "A.swift", 1)}

	out, err := env.run("safe-rules", "--opt-in-rules", "force_unwrapping")
	require.NoError(t, err)
	assert.Contains(t, out, "Safe to enable (2)")
	assert.Contains(t, out, "  todo\n")
	assert.Contains(t, out, "  force_unwrapping\n")
	assert.Contains(t, out, "line_length")
	assert.Equal(t, 3, env.linter.calls)

	h, err := history.Load(env.dir)
	require.NoError(t, err)
	require.NotNil(t, h)
	require.Len(t, h.Entries, 1)
	assert.Equal(t, []string{"todo", "force_unwrapping"}, h.Entries[0].Safe)
	assert.Equal(t, map[string]int{"line_length": 1}, h.Entries[0].WithViolations)
}

func TestSafeRules_JSONAndNoHistory(t *testing.T) {
	env := setupTest(t, baseConfig)
	out, err := env.run("safe-rules", "--rules", "todo", "--json", "--no-history")
	require.NoError(t, err)

	var res struct {
		Safe  []string `json:"safe"`
		Total int      `json:"total"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []string{"todo"}, res.Safe)
	assert.Equal(t, 1, res.Total)

	_, statErr := os.Stat(history.Path(env.dir))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSafeRules_AllFail(t *testing.T) {
	env := setupTest(t, baseConfig)
	env.linter.err = errors.New("swiftlint crashed")

	out, err := env.run("safe-rules", "--no-history")
	require.Error(t, err)
	assert.Equal(t, ExitTotalFailure, exitCodeFor(err))
	assert.Contains(t, out, "Failed")
}

func TestHistoryCmd(t *testing.T) {
	env := setupTest(t, baseConfig)
	out, err := env.run("history")
	require.NoError(t, err)
	assert.Equal(t, "No discovery history.\n", out)

	_, err = env.run("safe-rules")
	require.NoError(t, err)
	out, err = env.run("history", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"candidates": 2`)
}

func TestMigrate(t *testing.T) {
	env := setupTest(t, "disabled_rules:\n  - variable_name\n")

	out, err := env.run("migrate", "--from", "0.20.0", "--to", "0.30.0")
	require.NoError(t, err)
	assert.Contains(t, out, "rename variable_name to identifier_name")
	assert.Contains(t, readConfig(t, env.dir), "variable_name")

	out, err = env.run("migrate", "--from", "0.20.0", "--to", "0.30.0", "--apply")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote ")
	got := readConfig(t, env.dir)
	assert.Contains(t, got, "identifier_name")
	assert.NotContains(t, got, "variable_name")
}

func TestMigrate_Errors(t *testing.T) {
	env := setupTest(t, baseConfig)
	_, err := env.run("migrate", "--from", "0.50.0", "--to", "0.40.0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than")

	_, err = env.run("migrate", "--from", "0.50.0", "--to", "0.57.0", "--table", filepath.Join(env.dir, "nope.toml"))
	require.Error(t, err)
}

func TestMigrate_CustomTable(t *testing.T) {
	env := setupTest(t, "disabled_rules:\n  - old_rule\n")
	table := filepath.Join(env.dir, "table.toml")
	require.NoError(t, os.WriteFile(table, []byte("[[renames]]\nsince = \"1.1.0\"\nfrom = \"old_rule\"\nto = \"new_rule\"\n"), 0o600))

	out, err := env.run("migrate", "--from", "1.0.0", "--to", "1.1.0", "--table", table)
	require.NoError(t, err)
	assert.Contains(t, out, "rename old_rule to new_rule")
}

func TestLintAndFindings(t *testing.T) {
	env := setupTest(t, baseConfig)
	env.linter.findings = []finding.Finding{
		hit("force_cast", "A.swift", 3),
		hit("force_cast", "Pods/Lib/X.swift", 1),
	}

	out, err := env.run("lint")
	require.NoError(t, err)
	assert.Contains(t, out, "A.swift:3")
	assert.NotContains(t, out, "Pods/")
	assert.Contains(t, out, "1 finding(s).")

	out, err = env.run("findings", "list", "--json")
	require.NoError(t, err)
	var recs []findingstore.Record
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 1)
	id := recs[0].ID

	out, err = env.run("findings", "suppress", id[:8], "--reason", "legacy")
	require.NoError(t, err)
	assert.Contains(t, out, "suppressed")

	out, err = env.run("findings", "list", "--status", "suppressed")
	require.NoError(t, err)
	assert.Contains(t, out, id[:8])

	out, err = env.run("findings", "list")
	require.NoError(t, err)
	assert.Equal(t, "No findings.\n", out)

	_, err = env.run("findings", "resolve", "ffffffff")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	_, err = env.run("findings", "list", "--status", "weird")
	require.Error(t, err)
}

func TestLint_LinterFailure(t *testing.T) {
	env := setupTest(t, baseConfig)
	env.linter.err = errors.New("boom")
	_, err := env.run("lint")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lint: boom")
}

func TestMCPCommands(t *testing.T) {
	var serve bool
	for _, c := range mcpCmd.Commands() {
		if c.Use == "serve" {
			serve = true
		}
	}
	assert.True(t, serve, "serve command should be registered on mcpCmd")
	assert.Error(t, mcpServeCmd.Args(mcpServeCmd, []string{"extra"}))
}
