package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/tabkeep/internal/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Write the global config interactively (re-run anytime to edit settings)",
	Args:  cobra.NoArgs,
	// Bypass the normal PersistentPreRunE so setup works with a broken config.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		existing, err := config.LoadGlobal()
		if err != nil {
			d := config.Defaults()
			existing = &d
			fmt.Fprintf(cmd.ErrOrStderr(), "  ⚠ ignoring unreadable config: %v\n", err)
		}
		cfg, err := config.RunSetup(cmd.InOrStdin(), cmd.OutOrStdout(), config.Merge(existing, nil))
		if err != nil {
			return fmt.Errorf("setup cancelled: %w", err)
		}
		path, err := config.SaveGlobal(cfg)
		if err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  ✓ Config saved to %s\n", path)
		fmt.Fprintln(cmd.OutOrStdout(), "  Run 'tabkeep save <name>' to capture your first project.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
