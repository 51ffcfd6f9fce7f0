package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/tabkeep/internal/autosave"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Auto-save the active project as the window changes",
	Long: `Watches the window file and re-saves the active project once the window
has been quiet for the debounce interval. Keyboard commands written by the
browser bridge (next-project, previous-project, save-current) are run as they
arrive. A pending save is flushed on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// A switch cut short by a crash leaves the flag set and would block
		// auto-save forever.
		stale, err := current.gw.ResetSwitching(ctx)
		if err != nil {
			return err
		}
		if stale {
			current.logger.Warn("cleared a stale switching flag")
		}

		events, err := current.window.Events(ctx)
		if err != nil {
			return fmt.Errorf("watching %s: %w", current.window.Path(), err)
		}

		l := autosave.NewListener(current.mgr, current.cfg.Debounce(), current.logger)
		sched := l.Scheduler()
		defer sched.Stop()

		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (debounce %s). Press Ctrl+C to stop.\n", current.window.Path(), sched.Delay())
		if err := l.Run(ctx, events); err != nil {
			return err
		}

		if sched.Flush() {
			current.logger.Info("flushed pending auto-save on shutdown")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
