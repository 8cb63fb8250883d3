package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/davetashner/lintlab/internal/history"
	"github.com/davetashner/lintlab/internal/render"
	"github.com/davetashner/lintlab/internal/simulate"
	"github.com/davetashner/lintlab/internal/testable"
)

// Simulation command flags.
var (
	simOptIn      bool
	simJSON       bool
	simTimeout    time.Duration
	safeRules     []string
	safeOptIn     []string
	safeJSON      bool
	safeTimeout   time.Duration
	safeNoHistory bool
)

// simulateCmd measures the impact of enabling one rule.
var simulateCmd = &cobra.Command{
	Use:   "simulate <rule>",
	Short: "Show the violations enabling a rule would add",
	Long: `Run the linter with one rule enabled on a temporary copy of the config
file. The live file is never touched.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

// safeRulesCmd finds rules that can be enabled without new violations.
var safeRulesCmd = &cobra.Command{
	Use:   "safe-rules",
	Short: "Find disabled or opt-in rules that produce no violations",
	Long: `Simulate each candidate rule in turn and report which ones could be
enabled without adding a single violation.

By default the candidates are the config's disabled_rules. Pass --opt-in-rules
to try opt-in rules as well. Ctrl-C stops after the rule in flight and prints
the rules finished so far.`,
	Args: cobra.NoArgs,
	RunE: runSafeRules,
}

func init() {
	simulateCmd.Flags().BoolVar(&simOptIn, "opt-in", false, "the rule is opt-in and must be listed in opt_in_rules")
	simulateCmd.Flags().BoolVar(&simJSON, "json", false, "print the result as JSON")
	simulateCmd.Flags().DurationVar(&simTimeout, "timeout", 0, "deadline for the linter run (default: rule_timeout setting)")

	safeRulesCmd.Flags().StringSliceVar(&safeRules, "rules", nil, "disabled rules to try (default: the config's disabled_rules)")
	safeRulesCmd.Flags().StringSliceVar(&safeOptIn, "opt-in-rules", nil, "opt-in rules to try")
	safeRulesCmd.Flags().BoolVar(&safeJSON, "json", false, "print the result as JSON")
	safeRulesCmd.Flags().DurationVar(&safeTimeout, "timeout", 0, "deadline per rule (default: rule_timeout setting)")
	safeRulesCmd.Flags().BoolVar(&safeNoHistory, "no-history", false, "do not record the run in .lintlab/simulation-history.json")
}

// resetSimulateFlags resets simulate and safe-rules flags for testing.
func resetSimulateFlags() {
	simOptIn, simJSON, simTimeout = false, false, 0
	safeRules, safeOptIn = nil, nil
	safeJSON, safeTimeout, safeNoHistory = false, 0, false
	for _, c := range []*cobra.Command{simulateCmd, safeRulesCmd} {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	if f := safeRulesCmd.Flags().Lookup("rules"); f != nil {
		_ = f.Value.(pflag.SliceValue).Replace(nil)
	}
	if f := safeRulesCmd.Flags().Lookup("opt-in-rules"); f != nil {
		_ = f.Value.(pflag.SliceValue).Replace(nil)
	}
}

func runSimulate(cmd *cobra.Command, args []string) error {
	wb, err := openWorkbench(false)
	if err != nil {
		return err
	}
	defer wb.Close()
	if simTimeout > 0 {
		wb.settings.RuleTimeout = simTimeout
	}

	res, err := wb.simulator().Simulate(cmd.Context(), simulate.Request{
		RuleID:        args[0],
		Base:          wb.sess.Snapshot().Config,
		OptIn:         simOptIn,
		WorkspaceRoot: wb.sess.Root(),
	})
	if err != nil {
		if errors.Is(err, simulate.ErrCancelled) || errors.Is(err, context.DeadlineExceeded) {
			return exitError(ExitPartialFailure, "lintlab: simulate %s: %v", args[0], err)
		}
		return exitError(exitCodeFor(err), "lintlab: simulate %s: %v", args[0], err)
	}

	if simJSON {
		return writeJSON(cmd.OutOrStdout(), res)
	}
	return render.Impact(cmd.OutOrStdout(), res)
}

func runSafeRules(cmd *cobra.Command, _ []string) error {
	wb, err := openWorkbench(false)
	if err != nil {
		return err
	}
	defer wb.Close()
	if safeTimeout > 0 {
		wb.settings.RuleTimeout = safeTimeout
	}

	base := wb.sess.Snapshot().Config
	req := simulate.BatchRequest{
		Disabled:      safeRules,
		OptIn:         safeOptIn,
		Base:          base,
		WorkspaceRoot: wb.sess.Root(),
	}
	if len(req.Disabled) == 0 {
		req.Disabled = base.DisabledRules
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	errOut := cmd.ErrOrStderr()
	res, err := wb.simulator().FindSafeRules(ctx, req, func(p simulate.Progress) {
		if !quiet && !safeJSON {
			_, _ = fmt.Fprintf(errOut, "[%d/%d] %s\n", p.Completed, p.Total, p.RuleID)
		}
	})
	if err != nil {
		return exitError(ExitInvalidArgs, "lintlab: %v", err)
	}

	if !safeNoHistory {
		head := testable.HeadHash(nil, wb.sess.Root())
		if _, err := history.Record(wb.sess.Root(), head, res); err != nil {
			slog.Warn("failed to record simulation history", "error", err)
		}
	}

	w := cmd.OutOrStdout()
	if safeJSON {
		if err := writeJSON(w, struct {
			Safe []string `json:"safe"`
			*simulate.BatchResult
		}{res.SafeRules(), res}); err != nil {
			return err
		}
	} else if err := render.Batch(w, res); err != nil {
		return err
	}

	switch {
	case res.Total > 0 && len(res.Results) == 0 && len(res.Failures) > 0 && !res.Cancelled:
		return exitError(ExitTotalFailure, "")
	case res.Cancelled || len(res.Failures) > 0:
		return exitError(ExitPartialFailure, "")
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
