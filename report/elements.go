package report

import (
	"github.com/shopspring/decimal"

	"github.com/warp/timereport/generic"
)

// =============================================================================
// ELEMENT REPORT - Dynamic teaching/service elements against setpoints
// =============================================================================

type ElementRow struct {
	ID      generic.ElementID `json:"id"`
	Project string            `json:"project"`
	Unit    generic.EntryUnit `json:"unit"`
	Row

	// TargetLession is the raw setpoint for lesson elements, nil otherwise.
	TargetLession *decimal.Decimal `json:"targetLession"`

	// Raw mode.
	Daily   map[string]decimal.Decimal `json:"daily,omitempty"`
	Entries map[string][]EntryDetail   `json:"entries,omitempty"`
}

type ElementReport struct {
	Rows  []ElementRow `json:"rows"`
	Total Row          `json:"total"`
}

func (r ElementReport) Output(s Shape) Output[ElementReport, ElementRow] {
	return shape(s, &r, r.Rows, func(row ElementRow) string { return row.Label })
}

// ElementInput is the snapshot the element aggregation runs on.
type ElementInput struct {
	// Elements are dynamic elements with the user's entries in range.
	Elements  []generic.Element
	Setpoints []generic.Setpoint
}

// ComputeElements aggregates every dynamic element active in p's range.
// A missing setpoint plans 0.
func ComputeElements(p Params, in ElementInput) ElementReport {
	period := p.Period()

	setpoints := make(map[generic.ElementID]decimal.Decimal, len(in.Setpoints))
	for _, s := range in.Setpoints {
		setpoints[s.ElementID] = s.Value
	}

	out := ElementReport{Rows: []ElementRow{}, Total: Row{Label: "Total"}}
	for _, el := range in.Elements {
		if el.Type != generic.ElementDynamic || !el.ActiveIn(period) {
			continue
		}
		setpoint := setpoints[el.ID]

		var seconds int64
		row := ElementRow{ID: el.ID, Project: el.Project, Unit: el.Unit}
		if p.Raw {
			row.Daily = make(map[string]decimal.Decimal)
			row.Entries = make(map[string][]EntryDetail)
		}
		for _, e := range el.Entries {
			if !period.Contains(e.Date) || el.Unit == generic.EntryText {
				continue
			}
			seconds += e.Duration
			if p.Raw {
				key := e.Date.String()
				hours := generic.SecondsAsHours(e.Duration)
				row.Daily[key] = row.Daily[key].Add(hours)
				row.Entries[key] = append(row.Entries[key], detail(el, e, hours))
			}
		}

		row.Row = Row{
			Label:  el.Label,
			Target: generic.Round2(setpoint.Mul(el.Multiplier())),
			Actual: generic.SecondsAsHours(seconds),
			exact:  decimal.NewFromInt(seconds).Div(decimal.NewFromInt(generic.SecondsPerHour)),
		}
		row.Saldo = generic.Round2(row.Actual.Sub(row.Target))
		if el.Unit == generic.EntryLesson {
			lessons := setpoint
			row.TargetLession = &lessons
		}

		out.Rows = append(out.Rows, row)
		out.Total = out.Total.add(row.Row)
	}
	return out
}

// filterElements keeps the row labelled position.
func filterElements(r ElementReport, position string) ElementReport {
	if position == "" {
		return r
	}
	out := ElementReport{Rows: []ElementRow{}, Total: Row{Label: r.Total.Label}}
	for _, row := range r.Rows {
		if row.Label == position {
			out.Rows = append(out.Rows, row)
			out.Total = out.Total.add(row.Row)
		}
	}
	return out
}
