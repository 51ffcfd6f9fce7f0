package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/tabkeep/internal/bundle"
	"github.com/fakeyudi/tabkeep/internal/config"
	"github.com/fakeyudi/tabkeep/internal/host"
	"github.com/fakeyudi/tabkeep/internal/kv"
	"github.com/fakeyudi/tabkeep/internal/storage"
	"github.com/fakeyudi/tabkeep/internal/tabgroups"
)

// app holds everything a subcommand needs, built once in PersistentPreRunE.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	store   kv.Store
	gw      *storage.Gateway
	window  *host.FileWindow
	mgr     *tabgroups.Manager
	bundles *bundle.Service
}

var current *app

var rootCmd = &cobra.Command{
	Use:           "tabkeep",
	Short:         "Save, restore and switch between named sets of browser tab groups",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		a, err := newApp(cmd.Context(), cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		current = a
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeApp()
	},
}

func newApp(ctx context.Context, cfg config.Config, logOut io.Writer) (*app, error) {
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))

	store, err := kv.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", cfg.Backend, err)
	}
	logger.Debug("store opened", "backend", cfg.Backend, "dir", cfg.Dir())

	gw := storage.New(store)
	window := host.NewFileWindow(cfg.Window())
	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		gw:      gw,
		window:  window,
		mgr:     tabgroups.NewManager(window, gw, logger),
		bundles: bundle.NewService(gw),
	}, nil
}

func closeApp() error {
	if current == nil {
		return nil
	}
	err := current.store.Close()
	current = nil
	return err
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	err := rootCmd.Execute()
	if cerr := closeApp(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
