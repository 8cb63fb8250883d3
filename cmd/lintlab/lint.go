package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davetashner/lintlab/internal/findingstore"
	"github.com/davetashner/lintlab/internal/render"
)

// Lint and findings command flags.
var (
	lintJSON       bool
	findingsRule   string
	findingsFile   string
	findingsStatus string
	findingsLimit  int
	findingsJSON   bool
	suppressReason string
)

// lintCmd runs the linter with the live config and records the findings.
var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Lint the workspace and record the findings",
	Long: `Run the linter with the live config. Findings under the default
exclusions are dropped; the rest are stored so that findings fixed since the
previous run are marked resolved.`,
	Args: cobra.NoArgs,
	RunE: runLint,
}

// findingsCmd is the parent command for the findings store.
var findingsCmd = &cobra.Command{
	Use:   "findings",
	Short: "Query and triage recorded findings",
}

var findingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded findings",
	Args:  cobra.NoArgs,
	RunE:  runFindingsList,
}

var findingsSuppressCmd = &cobra.Command{
	Use:   "suppress <id>",
	Short: "Suppress a finding; it stays suppressed across runs",
	Args:  cobra.ExactArgs(1),
	RunE:  runFindingsSuppress,
}

var findingsResolveCmd = &cobra.Command{
	Use:   "resolve <id>",
	Short: "Mark a finding resolved",
	Args:  cobra.ExactArgs(1),
	RunE:  runFindingsResolve,
}

func init() {
	lintCmd.Flags().BoolVar(&lintJSON, "json", false, "print findings as JSON")

	findingsListCmd.Flags().StringVar(&findingsRule, "rule", "", "only this rule")
	findingsListCmd.Flags().StringVar(&findingsFile, "file", "", "only this file (workspace-relative)")
	findingsListCmd.Flags().StringVar(&findingsStatus, "status", "open", "open, suppressed, resolved or all")
	findingsListCmd.Flags().IntVar(&findingsLimit, "limit", 0, "maximum findings to list (0 = unlimited)")
	findingsListCmd.Flags().BoolVar(&findingsJSON, "json", false, "print findings as JSON")
	findingsSuppressCmd.Flags().StringVar(&suppressReason, "reason", "", "why the finding is suppressed")

	findingsCmd.AddCommand(findingsListCmd)
	findingsCmd.AddCommand(findingsSuppressCmd)
	findingsCmd.AddCommand(findingsResolveCmd)
}

// resetFindingsFlags resets lint and findings flags for testing.
func resetFindingsFlags() {
	lintJSON = false
	findingsRule, findingsFile, findingsStatus = "", "", "open"
	findingsLimit, findingsJSON = 0, false
	suppressReason = ""
	for _, c := range []*cobra.Command{lintCmd, findingsListCmd, findingsSuppressCmd} {
		for _, name := range []string{"json", "rule", "file", "status", "limit", "reason"} {
			if f := c.Flags().Lookup(name); f != nil {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			}
		}
	}
}

func runLint(cmd *cobra.Command, _ []string) error {
	wb, err := openWorkbench(true)
	if err != nil {
		return err
	}
	defer wb.Close()

	found, err := wb.sess.Lint(cmd.Context())
	if err != nil {
		return exitError(exitCodeFor(err), "lintlab: lint: %v", err)
	}
	if lintJSON {
		return writeJSON(cmd.OutOrStdout(), found)
	}
	w := cmd.OutOrStdout()
	if len(found) == 0 {
		_, _ = fmt.Fprintln(w, "No findings.")
		return nil
	}
	if err := render.Findings(w, found); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, "\n%d finding(s).\n", len(found))
	return nil
}

func runFindingsList(cmd *cobra.Command, _ []string) error {
	filter := findingstore.Filter{
		RuleID: findingsRule,
		File:   findingsFile,
		Limit:  findingsLimit,
	}
	if findingsStatus != "all" {
		st, err := findingstore.ParseStatus(findingsStatus)
		if err != nil {
			return exitError(ExitInvalidArgs, "lintlab: %v", err)
		}
		filter.Status = st
	}

	wb, err := openWorkbench(true)
	if err != nil {
		return err
	}
	defer wb.Close()
	filter.WorkspaceID = wb.sess.WorkspaceID()

	records, err := wb.store.Query(cmd.Context(), filter)
	if err != nil {
		return err
	}
	if findingsJSON {
		return writeJSON(cmd.OutOrStdout(), records)
	}
	return render.Records(cmd.OutOrStdout(), records)
}

func runFindingsSuppress(cmd *cobra.Command, args []string) error {
	return updateFinding(cmd, args[0], "suppressed", func(ctx context.Context, s findingstore.Store, id string) error {
		return s.Suppress(ctx, id, suppressReason)
	})
}

func runFindingsResolve(cmd *cobra.Command, args []string) error {
	return updateFinding(cmd, args[0], "resolved", func(ctx context.Context, s findingstore.Store, id string) error {
		return s.MarkResolved(ctx, id)
	})
}

// updateFinding resolves a full or short id (as printed by findings list)
// and applies fn to it.
func updateFinding(cmd *cobra.Command, id, verb string, fn func(context.Context, findingstore.Store, string) error) error {
	wb, err := openWorkbench(true)
	if err != nil {
		return err
	}
	defer wb.Close()

	full, err := expandID(cmd.Context(), wb.store, wb.sess.WorkspaceID(), id)
	if err != nil {
		return err
	}
	if err := fn(cmd.Context(), wb.store, full); err != nil {
		return exitError(ExitInvalidArgs, "lintlab: %s: %v", id, err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Finding %s %s.\n", full, verb)
	return nil
}

func expandID(ctx context.Context, store findingstore.Store, workspaceID, prefix string) (string, error) {
	records, err := store.Query(ctx, findingstore.Filter{WorkspaceID: workspaceID})
	if err != nil {
		return "", err
	}
	var match string
	for _, r := range records {
		if r.ID == prefix {
			return r.ID, nil
		}
		if len(prefix) >= 4 && len(r.ID) > len(prefix) && r.ID[:len(prefix)] == prefix {
			if match != "" {
				return "", exitError(ExitInvalidArgs, "lintlab: finding id %q is ambiguous", prefix)
			}
			match = r.ID
		}
	}
	if match == "" {
		return "", exitError(ExitInvalidArgs, "lintlab: %v: %s", findingstore.ErrNotFound, prefix)
	}
	return match, nil
}
