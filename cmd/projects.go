package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/tabkeep/internal/tabgroups"
)

var (
	saveUpdateID string
	listJSON     bool
)

var saveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save the live tab groups as a project and make it active",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name := strings.TrimSpace(strings.Join(args, " "))
		if name == "" {
			return fmt.Errorf("project name must not be empty")
		}
		if saveUpdateID != "" {
			if _, err := current.gw.GetProject(ctx, saveUpdateID); err != nil {
				return err
			}
		}

		p, err := current.mgr.CaptureProject(ctx, name, saveUpdateID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %q (%s): %d groups, %d tabs\n", p.Name, p.ID, len(p.Groups), p.TabCount())
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List saved projects",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := current.gw.GetStore(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if listJSON {
			return writeJSON(out, s)
		}
		if len(s.Projects) == 0 {
			fmt.Fprintln(out, "No saved projects.")
			return nil
		}
		for _, p := range s.Projects {
			marker := " "
			if p.ID == s.ActiveProjectID {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %-36s  %-24s  %3d groups  %4d tabs  %s\n",
				marker, p.ID, p.Name, len(p.Groups), p.TabCount(), p.Updated().Format(timeLayout))
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a project's groups and tabs (default: the active project)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		active, err := current.gw.GetActiveProjectID(ctx)
		if err != nil {
			return err
		}
		id := active
		if len(args) == 1 {
			id = args[0]
		}
		if id == "" {
			return tabgroups.ErrNoActiveProject
		}
		p, err := current.gw.GetProject(ctx, id)
		if err != nil {
			return err
		}
		printProject(cmd.OutOrStdout(), *p, p.ID == active)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a saved project",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := current.gw.DeleteProject(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

var reorderCmd = &cobra.Command{
	Use:   "reorder <id>...",
	Short: "Move the given projects to the front, in the given order",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := current.gw.ReorderProjects(ctx, args); err != nil {
			return err
		}
		projects, err := current.gw.GetProjects(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i, p := range projects {
			fmt.Fprintf(out, "%d. %s  %s\n", i+1, p.Name, p.ID)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active project and whether the live window has drifted from it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		s, err := current.gw.GetStore(ctx)
		if err != nil {
			return err
		}
		switching, err := current.gw.IsSwitching(ctx)
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Projects: %d\n", len(s.Projects))
		fmt.Fprintf(out, "Window:   %s\n", current.window.Path())
		if switching {
			fmt.Fprintln(out, "Switching: yes (run `tabkeep watch` to clear a stale flag)")
		}

		i := s.Find(s.ActiveProjectID)
		if i < 0 {
			fmt.Fprintln(out, "Active:   none")
			return nil
		}
		p := s.Projects[i]
		fmt.Fprintf(out, "Active:   %s (%s)\n", p.Name, p.ID)

		report, err := current.mgr.Drift(ctx, p.ID)
		if err != nil {
			return err
		}
		if report.HasChanges {
			fmt.Fprintf(out, "Drift:    +%d / -%d tabs in %d groups\n", report.TotalAdded, report.TotalRemoved, len(report.Groups))
		} else {
			fmt.Fprintln(out, "Drift:    none")
		}

		// Reordered or retitled tabs are not drift but still need a save.
		dirty, err := current.mgr.IsDirty(ctx, p.ID)
		if err != nil {
			return err
		}
		unsaved := "no"
		if dirty {
			unsaved = "yes"
		}
		fmt.Fprintf(out, "Unsaved:  %s\n", unsaved)
		return nil
	},
}

func init() {
	saveCmd.Flags().StringVar(&saveUpdateID, "update", "", "Overwrite the saved project with this id instead of creating one")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print the store as JSON")
	rootCmd.AddCommand(saveCmd, listCmd, showCmd, deleteCmd, reorderCmd, statusCmd)
}
