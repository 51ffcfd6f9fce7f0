package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/tabkeep/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find saved tabs by title or URL, and projects by name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projects, err := current.gw.GetProjects(cmd.Context())
		if err != nil {
			return err
		}
		query := strings.Join(args, " ")
		results := search.Search(projects, query)

		out := cmd.OutOrStdout()
		if len(results) == 0 {
			fmt.Fprintf(out, "No matches for %q.\n", query)
			return nil
		}
		fmt.Fprintf(out, "%d tabs in %d projects\n", search.CountMatches(results), len(results))
		for _, r := range results {
			fmt.Fprintf(out, "\n%s  %s\n", r.Project.Name, r.Project.ID)
			for _, g := range r.MatchingGroups {
				fmt.Fprintln(out, "  "+groupLabel(g.Group))
				for _, t := range g.MatchingTabs {
					fmt.Fprintln(out, "    - "+tabLabel(t))
				}
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
