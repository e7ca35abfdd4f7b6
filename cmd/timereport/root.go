package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/warp/timereport/config"
	"github.com/warp/timereport/store"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	driver  string
	dbPath  string
	verbose bool
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "timereport",
		Short:         "Staff time accounting reports",
		Long:          "timereport seeds time-accounting datasets and renders indicator, element, time-series and composite reports.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.driver, "driver", "", "store driver: sqlite, postgres or memory (default from DB_DRIVER)")
	root.PersistentFlags().StringVar(&g.dbPath, "db", "", "sqlite database path (default from DB_PATH)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log report timings to stderr")

	root.AddCommand(newSeedCmd(g))
	root.AddCommand(newReportCmd(g))
	root.AddCommand(newScenariosCmd())
	return root
}

// config loads the environment and applies flag overrides.
func (g *globals) config() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if g.driver != "" {
		cfg.Database.Driver = g.driver
	}
	if g.dbPath != "" {
		cfg.Database.Path = g.dbPath
	}
	return cfg, cfg.Validate()
}

func (g *globals) open(ctx context.Context) (*config.Config, store.Backend, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, nil, err
	}
	b, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, b, nil
}

// logger writes to stderr so report output on stdout stays clean.
func (g *globals) logger(cfg *config.Config, stderr io.Writer) *slog.Logger {
	if !g.verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cfg.App.LogLevel = slog.LevelDebug.String()
	return cfg.Logger(stderr, version)
}
