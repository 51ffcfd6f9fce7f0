package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/tabkeep/internal/reconcile"
)

var (
	diffAgainst string
	diffJSON    bool
)

var restoreCmd = &cobra.Command{
	Use:   "restore <id>",
	Short: "Open a project's groups alongside the live ones and make it active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := current.mgr.RestoreProject(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %d groups\n", n)
		return nil
	},
}

var switchCmd = &cobra.Command{
	Use:   "switch <id>",
	Short: "Close every live group and open the project's groups instead",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := current.mgr.SwitchToProject(ctx, args[0]); err != nil {
			return err
		}
		p, err := current.gw.GetProject(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Switched to %q\n", p.Name)
		return nil
	},
}

func cycleCmd(use, short string, step int) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := current.mgr.CycleProject(cmd.Context(), step)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Active project: %q\n", p.Name)
			return nil
		},
	}
}

var activateCmd = &cobra.Command{
	Use:   "activate <url>",
	Short: "Focus the open tab with the given URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		found, err := current.mgr.ActivateTabByURL(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("no open tab with URL %s", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Activated %s\n", args[0])
		return nil
	},
}

var diffCmd = &cobra.Command{
	Use:   "diff [id]",
	Short: "Show how the live window (or another project) differs from a saved project",
	Long: `Compares a saved project (default: the active project) with the live
window. With --against, compares it with another saved project instead.
Groups are matched by title and tabs by URL.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		var id string
		if len(args) == 1 {
			id = args[0]
		}

		var report reconcile.Report
		if diffAgainst != "" {
			if id == "" {
				return fmt.Errorf("--against needs a project id to compare with")
			}
			base, err := current.gw.GetProject(ctx, id)
			if err != nil {
				return err
			}
			other, err := current.gw.GetProject(ctx, diffAgainst)
			if err != nil {
				return err
			}
			report = reconcile.DiffGroups(base.Groups, other.Groups)
		} else {
			var err error
			report, err = current.mgr.Drift(ctx, id)
			if err != nil {
				return err
			}
		}

		if diffJSON {
			return writeJSON(cmd.OutOrStdout(), report)
		}
		printReport(cmd.OutOrStdout(), report)
		return nil
	},
}

func init() {
	diffCmd.Flags().StringVar(&diffAgainst, "against", "", "Compare with this saved project instead of the live window")
	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "Print the report as JSON")
	rootCmd.AddCommand(
		restoreCmd,
		switchCmd,
		cycleCmd("next", "Switch to the next saved project", 1),
		cycleCmd("prev", "Switch to the previous saved project", -1),
		activateCmd,
		diffCmd,
	)
}
