package main

import (
	"github.com/spf13/cobra"

	"github.com/davetashner/lintlab/internal/history"
	"github.com/davetashner/lintlab/internal/render"
)

var (
	historyWindow int
	historyJSON   bool
)

// historyCmd shows past safe-rule discovery runs and their trend.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past safe-rule discovery runs and trends",
	Long: `Show the runs recorded by safe-rules in .lintlab/simulation-history.json
and whether violations and safe rules are trending up or down. Cancelled
runs are listed with a * and left out of the trend.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyWindow, "window", 10, "runs compared for the trend")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print history and trends as JSON")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	root, err := resolveWorkspace()
	if err != nil {
		return err
	}
	h, err := history.Load(root)
	if err != nil {
		return err
	}
	window := historyWindow
	if window < 2 {
		window = 2
	}
	trends := history.ComputeTrends(h, window)

	if historyJSON {
		return writeJSON(cmd.OutOrStdout(), struct {
			History *history.History      `json:"history"`
			Trends  *history.TrendResult `json:"trends,omitempty"`
		}{h, trends})
	}
	return render.Trends(cmd.OutOrStdout(), h, trends)
}
