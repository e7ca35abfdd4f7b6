/*
scope.go - Calendar/scope resolution

PURPOSE:
  Turns a date range plus a user's employments into per-day work fractions
  and working-day counts. Every aggregator iterates the sequence produced here.

KEY INSIGHT:
  Plan values are expressed in full-time days ("25 vacation days"). A user
  whose work percentage changed mid-year earns those days at different rates,
  so the hour equivalent is weighted per employment segment:

    hours = days * DayHours / workingDays(year) * sum(segmentWorkingDays * scope)

OVERLAPS:
  Employments of one user must not overlap; writes reject overlaps. On the
  read path the first covering employment wins, with no precedence rule.

SEE ALSO:
  - period.go: Period enumeration
  - units.go: DayHours
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// DayScope is one calendar day with the work fraction in effect.
type DayScope struct {
	Date     TimePoint
	Fraction decimal.Decimal
}

// Enumeration is the ordered day sequence of a period.
type Enumeration struct {
	All      []DayScope
	Weekdays []DayScope
}

// ScopeResolver answers work-fraction questions for one user's employments.
type ScopeResolver struct {
	employments []Employment
}

func NewScopeResolver(employments []Employment) *ScopeResolver {
	return &ScopeResolver{employments: employments}
}

// WorkFractionOn returns scope/100 of the first employment covering day, or 0.
func (r *ScopeResolver) WorkFractionOn(day TimePoint) decimal.Decimal {
	for _, e := range r.employments {
		if e.Covers(day) {
			return e.Fraction()
		}
	}
	return decimal.Zero
}

// EnumerateDays lists every day of p in ascending order with its fraction.
// An empty or invalid period enumerates nothing.
func (r *ScopeResolver) EnumerateDays(p Period) Enumeration {
	days := p.Days()
	out := Enumeration{All: make([]DayScope, 0, len(days))}
	for _, d := range days {
		ds := DayScope{Date: d, Fraction: r.WorkFractionOn(d)}
		out.All = append(out.All, ds)
		if d.IsWorkday() {
			out.Weekdays = append(out.Weekdays, ds)
		}
	}
	return out
}

// WorkingDays counts weekdays of p clipped to year and, when given, to bounds.
func WorkingDays(p Period, year int, bounds ...Period) int {
	clipped := p.Clip(YearPeriod(year))
	for _, b := range bounds {
		clipped = clipped.Clip(b)
	}
	return clipped.WorkdayCount()
}

// ScopeWeightedDays sums workingDays * fraction over every employment segment
// of year (optionally narrowed by bounds).
func (r *ScopeResolver) ScopeWeightedDays(year int, bounds ...Period) decimal.Decimal {
	yp := YearPeriod(year)
	total := decimal.Zero
	for _, e := range r.employments {
		n := WorkingDays(e.Period(yp), year, bounds...)
		if n == 0 {
			continue
		}
		total = total.Add(decimal.NewFromInt(int64(n)).Mul(e.Fraction()))
	}
	return total
}

// AnnualDaysToHours converts a yearly full-time day plan into hours for this
// user's employment history. The result is not rounded.
func (r *ScopeResolver) AnnualDaysToHours(days decimal.Decimal, year int) decimal.Decimal {
	yearDays := YearPeriod(year).WorkdayCount()
	if yearDays == 0 || days.IsZero() {
		return decimal.Zero
	}
	return days.Mul(DayHours).Mul(r.ScopeWeightedDays(year)).Div(decimal.NewFromInt(int64(yearDays)))
}
