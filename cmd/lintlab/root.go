package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	lintlablog "github.com/davetashner/lintlab/internal/log"
)

// Global flag values.
var (
	configFile string
	workspace  string
	verbose    bool
	quiet      bool
	noColor    bool
	logFormat  string
)

// rootCmd is the base command for lintlab.
var rootCmd = &cobra.Command{
	Use:   "lintlab",
	Short: "Edit, preview and simulate linter configurations",
	Long: `lintlab manages a workspace's linter configuration file. It edits rules
without losing comments or layout, shows a diff before every write, keeps
timestamped backups, and measures what enabling a rule would cost by running
the linter against a temporary copy of the configuration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		format, err := lintlablog.ParseFormat(logFormat)
		if err != nil {
			return exitError(ExitInvalidArgs, "%v", err)
		}
		lintlablog.Setup(verbose, quiet, format)
		if noColor {
			color.NoColor = true
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&workspace, "workspace", "w", ".", "workspace root the linter runs in")
	pf.StringVarP(&configFile, "config", "c", "", "linter config file (default <workspace>/.swiftlint.yml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVarP(&quiet, "quiet", "q", false, "suppress non-essential output")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")
	pf.StringVar(&logFormat, "log-format", "text", "log output format: text or json")

	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(ruleCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(safeRulesCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(lintCmd)
	rootCmd.AddCommand(findingsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}

// resetGlobalFlags restores global flag defaults for testing.
func resetGlobalFlags() {
	configFile = ""
	workspace = "."
	verbose = false
	quiet = false
	noColor = false
	logFormat = "text"
	for name, def := range map[string]string{
		"workspace": ".", "config": "", "verbose": "false", "quiet": "false",
		"no-color": "false", "log-format": "text",
	} {
		if f := rootCmd.PersistentFlags().Lookup(name); f != nil {
			_ = f.Value.Set(def)
			f.Changed = false
		}
	}
}
