package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/warp/timereport/export"
	"github.com/warp/timereport/factory"
	"github.com/warp/timereport/generic"
	"github.com/warp/timereport/report"
)

var reportKinds = []string{"indicators", "elements", "timeseries", "all", "generic", "csv"}

type reportFlags struct {
	params    report.Params
	shape     string
	format    string
	delimiter string
	out       string
	demo      bool
}

func newReportCmd(g *globals) *cobra.Command {
	f := &reportFlags{}
	cmd := &cobra.Command{
		Use:       "report <indicators|elements|timeseries|all|generic|csv>",
		Short:     "Render a report for one user and date range",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: reportKinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, g, f, args[0])
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.params.Start, "start", "", "first day, YYYY-MM-DD")
	fl.StringVar(&f.params.End, "end", "", "last day, YYYY-MM-DD (same year as --start)")
	fl.StringVar((*string)(&f.params.UserID), "user", "", "user id")
	fl.BoolVar(&f.params.Enhanced, "enhanced", false, "convert day indicators into hours")
	fl.BoolVar(&f.params.YearScope, "year-scope", false, "iterate the whole year for holidays and targets")
	fl.BoolVar(&f.params.Raw, "raw", false, "attach per-day detail")
	fl.StringVar(&f.params.Position, "position", "", "narrow to one indicator or element label")
	fl.BoolVar(&f.params.Aggregated, "aggregated", false, "csv: drop the day columns")
	fl.BoolVar(&f.params.Compact, "compact", false, "csv: keep only days with data")
	fl.BoolVar(&f.params.Comments, "comments", false, "csv: add the comments row")
	fl.StringVar(&f.shape, "shape", "report", "output shape: report, flat or mapped")
	fl.StringVar(&f.format, "format", "json", "csv output format: json, csv or xlsx")
	fl.StringVar(&f.delimiter, "delimiter", ",", "csv field delimiter")
	fl.StringVarP(&f.out, "out", "o", "", "write to file instead of stdout")
	fl.BoolVar(&f.demo, "demo", false, "seed the demo dataset for the report year first (memory driver)")
	return cmd
}

func runReport(cmd *cobra.Command, g *globals, f *reportFlags, kind string) error {
	ctx := cmd.Context()
	p := f.params
	shape, err := report.ParseShape(f.shape)
	if err != nil {
		return err
	}
	p.Shape = shape
	if err := p.Validate(); err != nil {
		return err
	}
	format, err := export.ParseFormat(f.format)
	if err != nil {
		return err
	}
	delimiter := []rune(f.delimiter)
	if len(delimiter) != 1 {
		return fmt.Errorf("%w: delimiter must be one character", generic.ErrInvalidValue)
	}

	cfg, backend, err := g.open(ctx)
	if err != nil {
		return err
	}
	defer backend.Close()

	if f.demo {
		built, err := factory.DemoDataset(p.Year()).Build()
		if err != nil {
			return err
		}
		if err := built.Seed(ctx, backend); err != nil {
			return err
		}
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	r := report.NewReporter(backend, g.logger(cfg, cmd.ErrOrStderr()))
	r.Location = loc

	var data any
	switch kind {
	case "indicators":
		rep, err := r.Indicators(ctx, p)
		if err != nil {
			return err
		}
		data = rep.Output(p.Shape)
	case "elements":
		rep, err := r.Elements(ctx, p)
		if err != nil {
			return err
		}
		data = rep.Output(p.Shape)
	case "timeseries":
		rep, err := r.Timeseries(ctx, p)
		if err != nil {
			return err
		}
		data = rep.Output(p.Shape)
	case "all":
		if data, err = r.All(ctx, p); err != nil {
			return err
		}
	case "generic":
		if data, err = r.Generic(ctx, p); err != nil {
			return err
		}
	case "csv":
		rows, err := r.CSV(ctx, p)
		if err != nil {
			return err
		}
		return writeOutput(cmd, f.out, func(w io.Writer) error {
			switch format {
			case export.FormatCSV:
				return export.WriteCSV(w, rows, delimiter[0])
			case export.FormatXLSX:
				return export.WriteXLSX(w, export.DefaultSheet, rows)
			}
			return writeJSON(w, rows)
		})
	}
	return writeOutput(cmd, f.out, func(w io.Writer) error { return writeJSON(w, data) })
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeOutput runs render against --out, or stdout when it is empty.
func writeOutput(cmd *cobra.Command, path string, render func(io.Writer) error) error {
	if path == "" {
		bw := bufio.NewWriter(cmd.OutOrStdout())
		if err := render(bw); err != nil {
			return err
		}
		return bw.Flush()
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := render(file); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
	return nil
}
