package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/tabkeep/internal/bundle"
	"github.com/fakeyudi/tabkeep/internal/fsutil"
)

var (
	exportProject string
	exportFormat  string
	exportOutput  string
	importMode    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write saved projects to a versioned export file",
	Long: `Writes every saved project (or one, with --project) to
tab-groups-<date>.json in the configured export directory. Use -o to pick
the path, or -o - for stdout. The markdown format is human-readable and can
be imported back.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := bundle.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		env, err := current.bundles.Envelope(cmd.Context(), exportProject)
		if err != nil {
			return err
		}
		data, err := format.Renderer().Render(env)
		if err != nil {
			return fmt.Errorf("render export: %w", err)
		}

		if exportOutput == "-" {
			_, err := cmd.OutOrStdout().Write(data)
			return err
		}

		path := exportPath(exportOutput, current.cfg.ExportDir, format.Filename(time.Now()))
		if err := fsutil.WriteFileAtomic(path, data); err != nil {
			return fmt.Errorf("write export file: %w", err)
		}
		current.logger.Debug("export written", "path", path, "bytes", len(data))
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d projects to %s\n", len(env.Projects), path)
		return nil
	},
}

// exportPath resolves -o against the export directory. An -o naming an
// existing directory gets the default filename inside it.
func exportPath(output, dir, filename string) string {
	if output == "" {
		if dir == "" {
			dir = "."
		}
		return filepath.Join(dir, filename)
	}
	if fi, err := os.Stat(output); err == nil && fi.IsDir() {
		return filepath.Join(output, filename)
	}
	return output
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load projects from an export file (JSON or markdown)",
	Long: `Reads an export file (- for stdin). In merge mode, projects whose id is
already saved are skipped. In replace mode the file becomes the whole
collection. Either way the active project is cleared, and nothing is written
unless the whole file is valid.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := bundle.ParseMode(importMode)
		if err != nil {
			return err
		}

		var data []byte
		if args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
			if os.IsNotExist(err) {
				return fmt.Errorf("file not found: %s", args[0])
			}
		}
		if err != nil {
			return err
		}

		res, err := current.bundles.Import(cmd.Context(), data, mode)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d projects (%s), skipped %d\n", res.Imported, mode, res.Skipped)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportProject, "project", "", "Export only the project with this id")
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format: json or markdown")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output path, directory, or - for stdout")
	importCmd.Flags().StringVar(&importMode, "mode", "merge", "Import mode: merge or replace")
	rootCmd.AddCommand(exportCmd, importCmd)
}
