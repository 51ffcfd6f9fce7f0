package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/tabkeep/internal/bundle"
	"github.com/fakeyudi/tabkeep/internal/reconcile"
	"github.com/fakeyudi/tabkeep/internal/tui"
)

var plainOutput bool

var viewCmd = &cobra.Command{
	Use:   "view [export-file]",
	Short: "Browse saved projects, or the projects in an export file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			data tui.Data
			err  error
		)
		if len(args) == 1 {
			data, err = exportData(args[0])
		} else {
			data, err = storeData(cmd)
		}
		if err != nil {
			return err
		}

		if plainOutput || !term.IsTerminal(os.Stdout.Fd()) {
			printOverview(cmd.OutOrStdout(), data)
			return nil
		}
		return tui.Run(data)
	},
}

func storeData(cmd *cobra.Command) (tui.Data, error) {
	ctx := cmd.Context()
	s, err := current.gw.GetStore(ctx)
	if err != nil {
		return tui.Data{}, err
	}
	data := tui.Data{
		Projects: s.Projects,
		ActiveID: s.ActiveProjectID,
		Source:   current.cfg.Dir(),
	}
	data.Live, data.LiveErr = current.mgr.LiveGroups(ctx)
	if data.LiveErr != nil {
		current.logger.Warn("live window unavailable", "path", current.window.Path(), "error", data.LiveErr)
		data.Live = nil
	}
	return data, nil
}

// exportData loads an export file for read-only browsing. The live window is
// left out; drift against a file is not meaningful.
func exportData(path string) (tui.Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return tui.Data{}, fmt.Errorf("file not found: %s", path)
		}
		return tui.Data{}, err
	}
	projects, err := bundle.Detect(raw).Parse(raw)
	if err != nil {
		return tui.Data{}, err
	}
	return tui.Data{
		Projects: projects,
		Source:   path,
		LiveErr:  errors.New("viewing an export file"),
	}, nil
}

// printOverview writes a plain-text rendition of the TUI's Projects and
// Drift tabs.
func printOverview(w io.Writer, data tui.Data) {
	fmt.Fprintln(w, "## Projects")
	if len(data.Projects) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, p := range data.Projects {
		printProject(w, p, p.ID == data.ActiveID)
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "## Drift")
	i := -1
	for j, p := range data.Projects {
		if p.ID == data.ActiveID {
			i = j
		}
	}
	switch {
	case data.Live == nil:
		reason := "not connected"
		if data.LiveErr != nil {
			reason = data.LiveErr.Error()
		}
		fmt.Fprintf(w, "  (live window unavailable: %s)\n", reason)
	case i < 0:
		fmt.Fprintln(w, "  (no active project)")
	default:
		printReport(w, reconcile.DiffGroups(data.Projects[i].Groups, data.Live))
	}
}

func init() {
	viewCmd.Flags().BoolVar(&plainOutput, "plain", false, "plain text output instead of TUI")
	rootCmd.AddCommand(viewCmd)
}
