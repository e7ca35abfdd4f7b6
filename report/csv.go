package report

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/timereport/generic"
)

// =============================================================================
// CSV PROJECTION - Flat rows for tabular export
// =============================================================================

// Column headers of the fixed part of every CSV row.
var csvHeader = []any{"Position", "Target", "Actual", "Saldo"}

const (
	csvHolidays  = "Holidays"
	csvTarget    = "Daily target"
	csvActual    = "Daily actual"
	csvSaldo     = "Daily saldo"
	csvEffective = "Effective time"
	csvComments  = "Comments"
)

// CSV builds the composite report with per-day detail and flattens it.
// Cells are string, float64 or nil (blank).
func (r *Reporter) CSV(ctx context.Context, p Params) (rows [][]any, err error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	done := r.trace("csv", p)
	defer func() { done(err) }()

	p.Raw = true
	all, err := r.all(ctx, p)
	if err != nil {
		return nil, err
	}
	return ProjectCSV(all, p), nil
}

// ProjectCSV flattens a composite report. Aggregated mode drops the day
// columns, compact mode keeps only days with an entry or a holiday.
func ProjectCSV(all *AllReport, p Params) [][]any {
	days := csvDays(all.Timeseries.Days, p)
	t := csvTable{days: days, width: len(csvHeader) + len(days)}

	header := append([]any{}, csvHeader...)
	for _, d := range days {
		header = append(header, d.Date.String())
	}
	t.rows = append(t.rows, header)

	indicatorHours := make(map[string]decimal.Decimal)
	for _, row := range all.Indicators.Rows {
		t.add(row.Label, cell(row.Target), cell(row.Actual), cell(row.Saldo), dailyCells(row.Daily))
		for k, v := range row.Daily {
			indicatorHours[k] = indicatorHours[k].Add(v)
		}
	}
	for _, row := range all.Elements.Rows {
		t.add(row.Label, cell(row.Target), cell(row.Actual), cell(row.Saldo), dailyCells(row.Daily))
	}
	if p.Position == "" {
		for _, el := range all.Timeseries.Elements {
			if isOther(el) && !el.Actual.IsZero() {
				t.add(el.Label, nil, cell(el.Actual), nil, dailyCells(el.Daily))
			}
		}
	}

	ts := all.Timeseries.Total
	t.add(csvHolidays, nil, cell(ts.Holidays), nil, func(d DayRecord) any { return nonZero(d.Holiday) })
	t.add(csvTarget, cell(ts.Target), nil, nil, func(d DayRecord) any { return cell(d.Target) })
	t.add(csvActual, nil, cell(ts.Actual), nil, func(d DayRecord) any { return cell(d.Actual) })
	t.add(csvSaldo, nil, nil, cell(ts.Saldo), func(d DayRecord) any { return cell(d.Saldo) })

	// sumTracks[d] - indicator hours[d]: time actually worked that day.
	effective := zero
	for _, d := range all.Timeseries.Days {
		effective = effective.Add(d.exactActual.Sub(indicatorHours[d.Date.String()]))
	}
	t.add(csvEffective, nil, cell(generic.Round2(effective)), nil, func(d DayRecord) any {
		return cell(d.Actual.Sub(indicatorHours[d.Date.String()]))
	})

	if p.Comments {
		t.add(csvComments, nil, nil, nil, func(d DayRecord) any {
			if len(d.Comments) == 0 {
				return nil
			}
			return strings.Join(d.Comments, "; ")
		})
	}

	t.rows = append(t.rows, make([]any, t.width))
	for _, l := range summaryLines(all.Summary) {
		t.add(l.Label, nil, cell(l.Value), nil, nil)
	}
	return t.rows
}

func csvDays(days []DayRecord, p Params) []DayRecord {
	if p.Aggregated {
		return nil
	}
	if !p.Compact {
		return days
	}
	var out []DayRecord
	for _, d := range days {
		if d.Tracked {
			out = append(out, d)
		}
	}
	return out
}

type csvTable struct {
	days  []DayRecord
	width int
	rows  [][]any
}

// add appends a row; perDay may be nil for rows without day cells.
func (t *csvTable) add(label string, target, actual, saldo any, perDay func(DayRecord) any) {
	row := make([]any, 0, t.width)
	row = append(row, label, target, actual, saldo)
	for _, d := range t.days {
		if perDay == nil {
			row = append(row, nil)
			continue
		}
		row = append(row, perDay(d))
	}
	t.rows = append(t.rows, row)
}

func dailyCells(daily map[string]decimal.Decimal) func(DayRecord) any {
	return func(d DayRecord) any {
		v, ok := daily[d.Date.String()]
		if !ok {
			return nil
		}
		return cell(v)
	}
}

func cell(d decimal.Decimal) any {
	return generic.Round2(d).InexactFloat64()
}

func nonZero(d decimal.Decimal) any {
	if d.IsZero() {
		return nil
	}
	return cell(d)
}
