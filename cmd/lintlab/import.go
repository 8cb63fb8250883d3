package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davetashner/lintlab/internal/config"
)

// Import command flags.
var (
	importMode   string
	importDryRun bool
)

// importCmd merges another config file into the live one.
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Merge or replace the config with another config file",
	Long: `Import rules from another config file, such as a team baseline.

--mode merge (default) unions disabled_rules, opt_in_rules and excluded and
takes the imported settings for rules configured on both sides.
--mode replace takes the imported file as a whole; the previous file is
kept as a backup.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importMode, "mode", "merge", "merge or replace")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "show the diff without writing")
}

// resetImportFlags resets import command flags for testing.
func resetImportFlags() {
	importMode = "merge"
	importDryRun = false
	if f := importCmd.Flags().Lookup("mode"); f != nil {
		_ = f.Value.Set("merge")
	}
	if f := importCmd.Flags().Lookup("dry-run"); f != nil {
		_ = f.Value.Set("false")
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	mode, err := config.ParseMode(importMode)
	if err != nil {
		return exitError(ExitInvalidArgs, "lintlab: %v", err)
	}
	snap, err := config.LoadSnapshot(args[0])
	if err != nil {
		return exitError(ExitInvalidArgs, "lintlab: import %s: %v", args[0], err)
	}
	if !snap.Exists {
		return exitError(ExitInvalidArgs, "lintlab: import %s: file does not exist", args[0])
	}
	remote := snap.Config

	wb, err := openWorkbench(true)
	if err != nil {
		return err
	}
	defer wb.Close()

	if err := wb.sess.Apply(func(c *config.Config) (*config.Config, error) {
		return config.Merge(c, remote, mode)
	}); err != nil {
		return exitError(ExitInvalidArgs, "lintlab: %v", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Importing %s (%s)\n\n", args[0], mode)
	return commitChanges(cmd, wb, importDryRun)
}
