package report

import (
	"github.com/shopspring/decimal"

	"github.com/warp/timereport/generic"
)

// =============================================================================
// INDICATOR REPORT
// =============================================================================

type IndicatorRow struct {
	Indicator Indicator `json:"-"`
	Key       string    `json:"key"`
	Row
	Unit generic.Unit `json:"unit"`

	// Daily holds the actual per day (raw mode).
	Daily map[string]decimal.Decimal `json:"daily,omitempty"`
}

// Deduction is what the indicator removes from net working time: the plan
// for planned leave, the saldo (plan plus bookings) for deductions.
func (r IndicatorRow) Deduction() decimal.Decimal {
	if r.Indicator.Saldo() == SaldoTargetPlusActual {
		return r.Saldo
	}
	return r.Target
}

type IndicatorReport struct {
	Rows []IndicatorRow `json:"rows"`
}

// Get returns the row of i, if it survived position filtering.
func (r IndicatorReport) Get(i Indicator) (IndicatorRow, bool) {
	for _, row := range r.Rows {
		if row.Indicator == i {
			return row, true
		}
	}
	return IndicatorRow{}, false
}

// deduction is the Deduction of i, 0 when filtered out.
func (r IndicatorReport) deduction(i Indicator) decimal.Decimal {
	row, ok := r.Get(i)
	if !ok {
		return zero
	}
	return row.Deduction()
}

func (r IndicatorReport) target(i Indicator) decimal.Decimal {
	row, _ := r.Get(i)
	return row.Target
}

func (r IndicatorReport) Output(s Shape) Output[IndicatorReport, IndicatorRow] {
	return shape(s, &r, r.Rows, func(row IndicatorRow) string { return row.Key })
}

// =============================================================================
// AGGREGATION
// =============================================================================

// IndicatorInput is the snapshot the indicator aggregation runs on.
type IndicatorInput struct {
	// Elements are static elements with the user's entries in range.
	Elements    []generic.Element
	Employments []generic.Employment
	Profile     generic.Profile
}

// ComputeIndicators aggregates the six indicators over p's range.
//
// Plain mode reports day-denominated indicators in days as booked and
// planned. Enhanced mode reports hours: each booked day is scaled by that
// day's work fraction, and day-denominated plan fields (per year, see
// conversionPolicies) are converted with the scope-weighted annual factor.
func ComputeIndicators(p Params, in IndicatorInput) IndicatorReport {
	period := p.Period()
	year := period.Year()
	resolver := generic.NewScopeResolver(in.Employments)

	byLabel := make(map[string]generic.Element, len(in.Elements))
	for _, el := range in.Elements {
		if _, seen := byLabel[el.Label]; !seen {
			byLabel[el.Label] = el
		}
	}

	out := IndicatorReport{Rows: make([]IndicatorRow, 0, len(indicatorPolicies))}
	for _, ind := range Indicators() {
		el, found := byLabel[ind.Label()]

		unit := generic.UnitHours
		if !p.Enhanced && (!found || el.Unit == generic.EntryDay) {
			unit = generic.UnitDays
		}

		actual := zero
		var daily map[string]decimal.Decimal
		if p.Raw {
			daily = make(map[string]decimal.Decimal)
		}
		if found {
			for _, e := range el.Entries {
				if !period.Contains(e.Date) {
					continue
				}
				v := indicatorValue(el, e, p.Enhanced, resolver)
				actual = actual.Add(v)
				if daily != nil {
					key := e.Date.String()
					daily[key] = daily[key].Add(v)
				}
			}
		}

		target := zero
		for _, f := range ind.TargetFields() {
			v := in.Profile.Field(f)
			if p.Enhanced && PlannedInDays(year, f) {
				v = resolver.AnnualDaysToHours(v, year)
			}
			target = target.Add(v)
		}

		row := IndicatorRow{
			Indicator: ind,
			Key:       ind.Key(),
			Unit:      unit,
			Daily:     roundAll(daily),
			Row: Row{
				Label:  ind.Label(),
				Target: generic.Round2(target),
				Actual: generic.Round2(actual),
				exact:  actual,
			},
		}
		row.Saldo = generic.Round2(ind.Saldo().Apply(row.Target, row.Actual))
		out.Rows = append(out.Rows, row)
	}
	return out
}

// indicatorValue is one entry's contribution: hours in enhanced mode, the
// booked day count (or hours for non-day units) otherwise.
func indicatorValue(el generic.Element, e generic.TimeEntry, enhanced bool, r *generic.ScopeResolver) decimal.Decimal {
	if el.Unit == generic.EntryDay && !enhanced {
		return dayValue(e.Value)
	}
	return entryHours(e, el.Unit, r.WorkFractionOn(e.Date))
}

// filterIndicators keeps the row labelled position.
func filterIndicators(r IndicatorReport, position string) IndicatorReport {
	if position == "" {
		return r
	}
	out := IndicatorReport{Rows: []IndicatorRow{}}
	for _, row := range r.Rows {
		if row.Label == position {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}
