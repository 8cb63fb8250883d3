package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davetashner/lintlab/internal/render"
)

// showCmd prints the rule summary of the live config.
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the rules the config file mentions",
	Long: `Show every rule named in the config file with its membership
(disabled, opt-in or configured), severity and parameters.`,
	Args: cobra.NoArgs,
	RunE: runShow,
}

func runShow(cmd *cobra.Command, _ []string) error {
	wb, err := openWorkbench(false)
	if err != nil {
		return err
	}
	defer wb.Close()

	w := cmd.OutOrStdout()
	snap := wb.sess.Snapshot()
	if !snap.Exists {
		_, _ = fmt.Fprintf(w, "%s does not exist yet.\n", snap.Path)
	} else {
		_, _ = fmt.Fprintf(w, "%s\n\n", render.SectionTitle(snap.Path))
	}
	return render.Rules(w, snap.Config)
}
