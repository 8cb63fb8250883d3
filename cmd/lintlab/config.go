package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/davetashner/lintlab/internal/config"
)

// Config command flags.
var configDryRun bool

// configCmd is the parent command for config subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and write config file values by key path",
	Long: `Read and write values of the linter config file by dot-notation key path.

Writes go through the same overlay serializer as the rule commands, so
comments and layout of untouched keys are kept.`,
}

// configGetCmd retrieves a configuration value by dot-notation key path.
var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a configuration value",
	Long: `Get a configuration value by dot-notation key path. With no key, list
every leaf key and its value.

Examples:
  lintlab config get
  lintlab config get disabled_rules
  lintlab config get rules.line_length`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigGet,
}

// configSetCmd sets a configuration value.
var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the config file.

List keys take a comma-separated value; an empty value clears the list.
Parameter values are auto-detected as bool, int, float, or string.

Examples:
  lintlab config set opt_in_rules empty_count,force_unwrapping
  lintlab config set rules.line_length.severity error
  lintlab config set rules.line_length.parameters.warning 140`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

// configSettingsCmd prints lintlab's own settings.
var configSettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show lintlab's own settings",
	Long: `Show the effective lintlab settings and the file they were read from
($XDG_CONFIG_HOME/lintlab/config.yaml or ~/.config/lintlab/config.yaml).`,
	Args: cobra.NoArgs,
	RunE: runConfigSettings,
}

func init() {
	configSetCmd.Flags().BoolVar(&configDryRun, "dry-run", false, "show the diff without writing")

	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSettingsCmd)
}

// resetConfigFlags resets config command flags for testing.
func resetConfigFlags() {
	configDryRun = false
	if f := configSetCmd.Flags().Lookup("dry-run"); f != nil {
		_ = f.Value.Set("false")
	}
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	wb, err := openWorkbench(false)
	if err != nil {
		return err
	}
	defer wb.Close()

	cfg := wb.sess.Snapshot().Config
	if len(args) == 0 {
		return printAll(cmd, cfg)
	}
	val, err := config.GetValue(cfg, args[0])
	if err != nil {
		return exitError(ExitInvalidArgs, "lintlab: %v", err)
	}
	return printValue(cmd, val)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	keyPath, rawValue := args[0], args[1]
	if err := config.ValidateKeyPath(keyPath); err != nil {
		return exitError(ExitInvalidArgs, "lintlab: %v", err)
	}

	wb, err := openWorkbench(true)
	if err != nil {
		return err
	}
	defer wb.Close()

	if err := wb.sess.Apply(func(c *config.Config) (*config.Config, error) {
		return config.SetValue(c, keyPath, rawValue)
	}); err != nil {
		return exitError(ExitInvalidArgs, "lintlab: %v", err)
	}
	return commitChanges(cmd, wb, configDryRun)
}

func runConfigSettings(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	faint := color.New(color.Faint)
	_, _ = fmt.Fprintf(w, "%s\n", faint.Sprintf("# %s", settingsPath()))
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func printAll(cmd *cobra.Command, cfg *config.Config) error {
	m, err := config.ToMap(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	flat := config.FlattenMap(m, "")
	w := cmd.OutOrStdout()
	for _, k := range config.SortedKeys(flat) {
		_, _ = fmt.Fprintf(w, "%s = %v\n", k, flat[k])
	}
	return nil
}

// printValue writes a scalar on one line and anything else as YAML.
func printValue(cmd *cobra.Command, val any) error {
	w := cmd.OutOrStdout()
	switch v := val.(type) {
	case map[string]any, []any:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshaling value: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		_, err := fmt.Fprintln(w, v)
		return err
	}
}
