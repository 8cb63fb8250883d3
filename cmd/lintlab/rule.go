package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davetashner/lintlab/internal/config"
	"github.com/davetashner/lintlab/internal/finding"
	"github.com/davetashner/lintlab/internal/render"
	"github.com/davetashner/lintlab/internal/session"
)

// Rule command flags.
var (
	ruleDryRun bool
	ruleOptIn  bool
)

// ruleCmd is the parent command for single-rule edits.
var ruleCmd = &cobra.Command{
	Use:   "rule",
	Short: "Enable, disable or configure a rule",
	Long: `Change one rule in the config file. Every change prints the diff first
and is then written atomically, with a timestamped backup of the previous
file. Comments and layout of untouched parts of the file are kept.`,
}

var ruleEnableCmd = &cobra.Command{
	Use:   "enable <rule>",
	Short: "Enable a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRuleEdit(cmd, func(c *config.Config) (*config.Config, error) {
			return config.SetEnabled(c, args[0], true, ruleOptIn)
		})
	},
}

var ruleDisableCmd = &cobra.Command{
	Use:   "disable <rule>",
	Short: "Disable a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRuleEdit(cmd, func(c *config.Config) (*config.Config, error) {
			return config.SetEnabled(c, args[0], false, ruleOptIn)
		})
	},
}

var ruleSeverityCmd = &cobra.Command{
	Use:   "severity <rule> <warning|error|hint>",
	Short: "Set a rule's severity",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sev, err := finding.ParseSeverity(args[1])
		if err != nil {
			return exitError(ExitInvalidArgs, "lintlab: %v", err)
		}
		return runRuleEdit(cmd, func(c *config.Config) (*config.Config, error) {
			return config.SetSeverity(c, args[0], sev)
		})
	},
}

var ruleParamCmd = &cobra.Command{
	Use:   "param <rule> <name> <value>",
	Short: "Set a rule parameter",
	Long: `Set a rule parameter. The value is auto-detected as bool, int, float
or string.

Examples:
  lintlab rule param line_length warning 140
  lintlab rule param type_name validates_start_with_lowercase false`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := fmt.Sprintf("rules.%s.parameters.%s", args[0], args[1])
		return runRuleEdit(cmd, func(c *config.Config) (*config.Config, error) {
			return config.SetValue(c, key, args[2])
		})
	},
}

func init() {
	ruleCmd.PersistentFlags().BoolVar(&ruleDryRun, "dry-run", false, "show the diff without writing")
	ruleEnableCmd.Flags().BoolVar(&ruleOptIn, "opt-in", false, "the rule is opt-in (listed in opt_in_rules when enabled)")
	ruleDisableCmd.Flags().BoolVar(&ruleOptIn, "opt-in", false, "the rule is opt-in (removed from opt_in_rules when disabled)")

	ruleCmd.AddCommand(ruleEnableCmd)
	ruleCmd.AddCommand(ruleDisableCmd)
	ruleCmd.AddCommand(ruleSeverityCmd)
	ruleCmd.AddCommand(ruleParamCmd)
}

// resetRuleFlags resets rule command flags for testing.
func resetRuleFlags() {
	ruleDryRun = false
	ruleOptIn = false
	if f := ruleCmd.PersistentFlags().Lookup("dry-run"); f != nil {
		_ = f.Value.Set("false")
	}
	for _, c := range []*cobra.Command{ruleEnableCmd, ruleDisableCmd} {
		if f := c.Flags().Lookup("opt-in"); f != nil {
			_ = f.Value.Set("false")
		}
	}
}

func runRuleEdit(cmd *cobra.Command, fn func(*config.Config) (*config.Config, error)) error {
	wb, err := openWorkbench(true)
	if err != nil {
		return err
	}
	defer wb.Close()

	if err := wb.sess.Apply(fn); err != nil {
		return exitError(ExitInvalidArgs, "lintlab: %v", err)
	}
	return commitChanges(cmd, wb, ruleDryRun)
}

// commitChanges prints the pending diff and, unless dryRun, commits it and
// reports the post-commit lint.
func commitChanges(cmd *cobra.Command, wb *workbench, dryRun bool) error {
	w := cmd.OutOrStdout()
	d, err := wb.sess.Preview()
	if err != nil {
		return err
	}
	if err := render.Diff(w, d); err != nil {
		return err
	}
	if d.Empty() {
		return nil
	}
	if dryRun {
		_, _ = fmt.Fprintln(w, "\nDry run: nothing written.")
		return nil
	}

	res, err := wb.sess.Commit(cmd.Context())
	switch {
	case errors.Is(err, session.ErrNoChanges):
		return nil
	case errors.Is(err, session.ErrStale):
		return exitError(ExitInvalidArgs, "lintlab: %v; reload and try again", err)
	case err != nil:
		return err
	}

	_, _ = fmt.Fprintf(w, "\nWrote %s", wb.sess.Path())
	if !res.Backup.IsZero() {
		_, _ = fmt.Fprintf(w, " (backup %s)", res.Backup.Path)
	}
	_, _ = fmt.Fprintln(w)
	if len(res.Pruned) > 0 {
		_, _ = fmt.Fprintf(w, "Pruned %d old backup(s).\n", len(res.Pruned))
	}
	if res.LintErr != nil {
		_, _ = fmt.Fprintf(w, "Lint after commit failed: %v\n", res.LintErr)
		return nil
	}
	_, _ = fmt.Fprintf(w, "Lint: %d finding(s).\n", len(res.Findings))
	return nil
}
