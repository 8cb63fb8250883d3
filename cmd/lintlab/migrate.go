package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/davetashner/lintlab/internal/config"
	"github.com/davetashner/lintlab/internal/migrate"
	"github.com/davetashner/lintlab/internal/render"
)

// Migrate command flags.
var (
	migrateFrom   string
	migrateTo     string
	migrateTable  string
	migrateApply  bool
	migrateDryRun bool
)

// migrateCmd plans the config edits for a linter upgrade.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Plan config changes for a linter upgrade",
	Long: `List the rule renames, removals and parameter renames between two linter
releases that affect this config. With --apply, the automatic steps are
written (diff first, backup kept); manual steps are only listed.

Examples:
  lintlab migrate --from 0.50.0 --to 0.57.0
  lintlab migrate --from 0.50.0 --to 0.57.0 --apply`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrateFrom, "from", "", "linter version the config was written for")
	migrateCmd.Flags().StringVar(&migrateTo, "to", "", "linter version to migrate to")
	migrateCmd.Flags().StringVar(&migrateTable, "table", "", "migration table in TOML (default: built-in)")
	migrateCmd.Flags().BoolVar(&migrateApply, "apply", false, "write the automatic steps")
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "with --apply, show the diff without writing")
	_ = migrateCmd.MarkFlagRequired("from")
	_ = migrateCmd.MarkFlagRequired("to")
}

// resetMigrateFlags resets migrate command flags for testing.
func resetMigrateFlags() {
	migrateFrom, migrateTo, migrateTable = "", "", ""
	migrateApply, migrateDryRun = false, false
	for _, name := range []string{"from", "to", "table", "apply", "dry-run"} {
		if f := migrateCmd.Flags().Lookup(name); f != nil {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	}
}

func loadMigrationTable() (*migrate.Table, error) {
	if migrateTable == "" {
		return migrate.DefaultTable()
	}
	f, err := os.Open(migrateTable) //nolint:gosec // user-supplied table path
	if err != nil {
		return nil, exitError(ExitInvalidArgs, "lintlab: %v", err)
	}
	defer func() { _ = f.Close() }()
	return migrate.LoadTable(f)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	table, err := loadMigrationTable()
	if err != nil {
		return err
	}

	wb, err := openWorkbench(migrateApply)
	if err != nil {
		return err
	}
	defer wb.Close()

	steps, err := migrate.Plan(wb.sess.Snapshot().Config, migrateFrom, migrateTo, table)
	if err != nil {
		return exitError(ExitInvalidArgs, "lintlab: %v", err)
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "%s %s -> %s\n", render.SectionTitle("Migration"), migrateFrom, migrateTo)
	if err := render.Steps(w, steps); err != nil {
		return err
	}
	if !migrateApply || len(steps) == 0 {
		return nil
	}

	if err := wb.sess.Apply(func(c *config.Config) (*config.Config, error) {
		return migrate.ApplyAutoSteps(c, steps)
	}); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w)
	return commitChanges(cmd, wb, migrateDryRun)
}
