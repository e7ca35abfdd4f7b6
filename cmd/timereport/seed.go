package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/timereport/factory"
)

func newSeedCmd(g *globals) *cobra.Command {
	var (
		file     string
		demo     bool
		scenario string
		year     int
		reset    bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a JSON dataset or a demo scenario into the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, backend, err := g.open(ctx)
			if err != nil {
				return err
			}
			defer backend.Close()

			ds, err := seedDataset(file, demo, scenario, year)
			if err != nil {
				return err
			}
			built, err := ds.Build()
			if err != nil {
				return err
			}
			if reset {
				if err := backend.Reset(ctx); err != nil {
					return err
				}
			}
			if err := built.Seed(ctx, backend); err != nil {
				return err
			}
			g.logger(cfg, cmd.ErrOrStderr()).Info("dataset seeded", "driver", cfg.Database.Driver)
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d elements, %d employments, %d profiles, %d holidays, %d setpoints, %d entries\n",
				len(built.Elements), len(built.Employments), len(built.Profiles), len(built.Holidays), len(built.Setpoints), len(built.Entries))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "dataset JSON file")
	cmd.Flags().BoolVar(&demo, "demo", false, "seed the full-time-teacher demo scenario")
	cmd.Flags().StringVar(&scenario, "scenario", "", "seed a named demo scenario (see 'timereport scenarios')")
	cmd.Flags().IntVar(&year, "year", 0, "scenario year (default: current year)")
	cmd.Flags().BoolVar(&reset, "reset", false, "clear the store before seeding")
	cmd.MarkFlagsMutuallyExclusive("file", "demo", "scenario")
	cmd.MarkFlagsOneRequired("file", "demo", "scenario")
	return cmd
}

func seedDataset(file string, demo bool, scenario string, year int) (*factory.Dataset, error) {
	if year == 0 {
		year = time.Now().Year()
	}
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read dataset: %w", err)
		}
		return factory.Parse(data)
	case demo:
		return factory.DemoDataset(year), nil
	case scenario != "":
		s, err := factory.ScenarioByID(scenario)
		if err != nil {
			return nil, err
		}
		return s.Build(year), nil
	}
	return nil, errors.New("one of --file, --demo or --scenario is required")
}

func newScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List the demo scenarios",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, s := range factory.Scenarios() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", s.ID, s.Description)
			}
		},
	}
}
