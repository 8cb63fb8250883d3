package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/davetashner/lintlab/internal/watch"
)

var watchDebounce time.Duration

// watchCmd re-lints whenever the config file changes.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-lint whenever the config file changes",
	Long: `Watch the live config file and re-run the linter after each change,
recording the findings. Stops on Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "quiet period before re-linting")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	wb, err := openWorkbench(true)
	if err != nil {
		return err
	}
	defer wb.Close()

	w := cmd.OutOrStdout()
	path := wb.sess.Path()
	watcher, err := watch.New(path, watchDebounce, func(ctx context.Context) {
		relint(ctx, w, wb)
	})
	if err != nil {
		return exitError(ExitTotalFailure, "lintlab: %v", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	_, _ = fmt.Fprintf(w, "Watching %s (Ctrl-C to stop)\n", path)
	return watcher.Run(ctx)
}

// relint reopens the session so the new file content is linted.
func relint(ctx context.Context, w io.Writer, wb *workbench) {
	next, err := reopen(wb)
	if err != nil {
		slog.Warn("config reload failed", "error", err)
		_, _ = fmt.Fprintf(w, "%s: %v\n", time.Now().Format(time.TimeOnly), err)
		return
	}
	found, err := next.Lint(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(w, "%s: lint failed: %v\n", time.Now().Format(time.TimeOnly), err)
		return
	}
	_, _ = fmt.Fprintf(w, "%s: %d finding(s)\n", time.Now().Format(time.TimeOnly), len(found))
}
