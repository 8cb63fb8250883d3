package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/davetashner/lintlab/internal/persist"
	"github.com/davetashner/lintlab/internal/render"
)

// Backup command flags.
var backupKeep int

// backupCmd is the parent command for backup management.
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "List, restore and prune config backups",
	Long: `Every write keeps the previous config file next to it as
<file>.<unix-seconds>.backup. These commands manage those files.`,
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backups, newest first",
	Args:  cobra.NoArgs,
	RunE:  runBackupList,
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore [backup]",
	Short: "Restore a backup (default: the newest)",
	Long: `Restore a backup over the live config file. The restore is itself a
write, so the current file is backed up first and the restore can be undone.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBackupRestore,
}

var backupPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest backups",
	Args:  cobra.NoArgs,
	RunE:  runBackupPrune,
}

func init() {
	backupPruneCmd.Flags().IntVar(&backupKeep, "keep", 0, "backups to keep (default: backup_retention setting)")

	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupCmd.AddCommand(backupPruneCmd)
}

// resetBackupFlags resets backup command flags for testing.
func resetBackupFlags() {
	backupKeep = 0
	if f := backupPruneCmd.Flags().Lookup("keep"); f != nil {
		_ = f.Value.Set("0")
	}
}

func runBackupList(cmd *cobra.Command, _ []string) error {
	path, _, err := liveConfigPath()
	if err != nil {
		return err
	}
	refs, err := persist.New(cmdFS).ListBackups(path)
	if err != nil {
		return err
	}
	return render.Backups(cmd.OutOrStdout(), refs)
}

func runBackupRestore(cmd *cobra.Command, args []string) error {
	path, _, err := liveConfigPath()
	if err != nil {
		return err
	}
	p := persist.New(cmdFS)

	var from string
	if len(args) == 1 {
		from = args[0]
		if filepath.Base(from) == from {
			from = filepath.Join(filepath.Dir(path), from)
		}
	} else {
		refs, err := p.ListBackups(path)
		if err != nil {
			return err
		}
		if len(refs) == 0 {
			return exitError(ExitInvalidArgs, "lintlab: no backups of %s", path)
		}
		from = refs[0].Path
	}

	ref, err := p.Restore(path, from)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "Restored %s from %s\n", path, from)
	if !ref.IsZero() {
		_, _ = fmt.Fprintf(w, "Previous file kept as %s\n", ref.Path)
	}
	return nil
}

func runBackupPrune(cmd *cobra.Command, _ []string) error {
	path, settings, err := liveConfigPath()
	if err != nil {
		return err
	}
	keep := backupKeep
	if keep == 0 {
		keep = settings.BackupRetention
	}
	if keep <= 0 {
		return exitError(ExitInvalidArgs, "lintlab: --keep must be positive")
	}
	removed, err := persist.New(cmdFS).Prune(path, keep)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %d backup(s), kept %d.\n", len(removed), keep)
	return nil
}
