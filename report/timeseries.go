/*
timeseries.go - Day-by-day target, actual and saldo

PURPOSE:
  Produces one DayRecord per iterated day and the running totals the
  composite report derives its summary from.

RULES:
  dailyTarget = fraction * DayHours - holidays                (weekdays)
              = 0                                             (weekends)
  holidays    = sum(holiday hours) + holiday-element bookings
  dailyActual = sum(entry hours), day units scaled by fraction
  dailySaldo  = dailyActual - dailyTarget

  Holidays on weekends are ignored. Text entries never count. A holiday is
  deducted in full regardless of the work fraction, so the daily target of a
  part-time day can go negative; the total target then drops by exactly the
  holiday hours.

TOTALS:
  Target/Actual/Saldo accumulate over every iterated day. Actuals accumulate
  unrounded and are rounded once for display. The Current*
  triple only accumulates days inside [start, end] that are not after today.
  A range starting on January 1st seeds CurrentActual with the transferred
  overtime of the profile.

YEAR SCOPE:
  With YearScope the iteration covers the whole year (holidays and targets
  for every day), while entries are still only aggregated inside [start, end].
*/
package report

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/timereport/generic"
)

// =============================================================================
// TYPES
// =============================================================================

type DayRecord struct {
	Date     generic.TimePoint `json:"date"`
	Fraction decimal.Decimal   `json:"workFraction"`
	Target   decimal.Decimal   `json:"target"`
	Actual   decimal.Decimal   `json:"actual"`
	Saldo    decimal.Decimal   `json:"saldo"`
	Holiday  decimal.Decimal   `json:"holiday"` // hours deducted from target

	CumulativeTarget decimal.Decimal `json:"cumulativeTarget"`
	CumulativeActual decimal.Decimal `json:"cumulativeActual"`
	CumulativeSaldo  decimal.Decimal `json:"cumulativeSaldo"`

	// Tracked is set when at least one entry or holiday falls on the day.
	Tracked  bool          `json:"tracked"`
	Entries  []EntryDetail `json:"entries,omitempty"`
	Comments []string      `json:"comments,omitempty"`

	exactActual decimal.Decimal
}

type Totals struct {
	Target   decimal.Decimal `json:"target"`
	Actual   decimal.Decimal `json:"actual"`
	Saldo    decimal.Decimal `json:"saldo"`
	Holidays decimal.Decimal `json:"holidays"`

	CurrentTarget decimal.Decimal `json:"currentTarget"`
	CurrentActual decimal.Decimal `json:"currentActual"`
	CurrentSaldo  decimal.Decimal `json:"currentSaldo"`

	// Transfer is the prior-year overtime seeded into CurrentActual.
	Transfer decimal.Decimal `json:"transfer"`
}

// add folds one day into the totals and returns the new totals.
func (t Totals) add(d DayRecord, current bool) Totals {
	t.Target = t.Target.Add(d.Target)
	t.Actual = t.Actual.Add(d.exactActual)
	t.Saldo = t.Actual.Sub(t.Target)
	t.Holidays = t.Holidays.Add(d.Holiday)
	if current {
		t.CurrentTarget = t.CurrentTarget.Add(d.Target)
		t.CurrentActual = t.CurrentActual.Add(d.exactActual)
	}
	t.CurrentSaldo = t.CurrentActual.Sub(t.CurrentTarget)
	return t
}

func (t Totals) rounded() Totals {
	r2 := generic.Round2
	return Totals{
		Target:        r2(t.Target),
		Actual:        r2(t.Actual),
		Saldo:         r2(t.Saldo),
		Holidays:      r2(t.Holidays),
		CurrentTarget: r2(t.CurrentTarget),
		CurrentActual: r2(t.CurrentActual),
		CurrentSaldo:  r2(t.CurrentSaldo),
		Transfer:      t.Transfer,
	}
}

// ElementTotal is the time-series contribution of one element.
type ElementTotal struct {
	ID        generic.ElementID          `json:"id"`
	Label     string                     `json:"label"`
	Project   string                     `json:"project"`
	Type      generic.ElementType        `json:"type"`
	IsHoliday bool                       `json:"isHoliday"`
	Actual    decimal.Decimal            `json:"actual"`
	Daily     map[string]decimal.Decimal `json:"daily,omitempty"`

	exact decimal.Decimal
}

type TimeseriesReport struct {
	Days     []DayRecord    `json:"days"`
	Total    Totals         `json:"total"`
	Elements []ElementTotal `json:"elements,omitempty"`

	// exact holds the totals before display rounding.
	exact Totals
}

func (r TimeseriesReport) Output(s Shape) Output[TimeseriesReport, DayRecord] {
	return shape(s, &r, r.Days, func(d DayRecord) string { return d.Date.String() })
}

// Day returns the record of date, if iterated.
func (r TimeseriesReport) Day(date string) (DayRecord, bool) {
	for _, d := range r.Days {
		if d.Date.String() == date {
			return d, true
		}
	}
	return DayRecord{}, false
}

// TimeseriesInput is the snapshot the time series runs on.
type TimeseriesInput struct {
	// Elements are all elements with the user's entries in [start, end].
	Elements    []generic.Element
	Holidays    []generic.Holiday
	Employments []generic.Employment
	// Profile is optional; without it nothing is seeded.
	Profile *generic.Profile
}

// =============================================================================
// AGGREGATION
// =============================================================================

type dayBucket struct {
	actual   decimal.Decimal
	holiday  decimal.Decimal
	tracked  bool
	entries  []EntryDetail
	comments []string
}

// ComputeTimeseries folds the day sequence of p into records and totals.
func ComputeTimeseries(p Params, in TimeseriesInput, today generic.TimePoint) TimeseriesReport {
	period := p.Period()
	resolver := generic.NewScopeResolver(in.Employments)
	buckets := make(map[string]*dayBucket)
	bucket := func(key string) *dayBucket {
		b, ok := buckets[key]
		if !ok {
			b = &dayBucket{}
			buckets[key] = b
		}
		return b
	}

	var elements []ElementTotal
	for _, el := range in.Elements {
		total := ElementTotal{ID: el.ID, Label: el.Label, Project: el.Project, Type: el.Type, IsHoliday: el.IsHoliday}
		if p.Raw {
			total.Daily = make(map[string]decimal.Decimal)
		}
		for _, e := range el.Entries {
			if !period.Contains(e.Date) {
				continue
			}
			key := e.Date.String()
			b := bucket(key)
			b.tracked = true
			collectComment(b, el, e, p)

			hours := entryHours(e, el.Unit, resolver.WorkFractionOn(e.Date))
			if el.IsHoliday {
				if e.Date.IsWorkday() {
					b.holiday = b.holiday.Add(hours)
				}
				continue
			}
			if el.Unit == generic.EntryText {
				continue
			}
			b.actual = b.actual.Add(hours)
			total.Actual = total.Actual.Add(hours)
			if p.Raw {
				total.Daily[key] = total.Daily[key].Add(hours)
				b.entries = append(b.entries, detail(el, e, hours))
			}
		}
		total.exact = total.Actual
		total.Actual = generic.Round2(total.Actual)
		total.Daily = roundAll(total.Daily)
		elements = append(elements, total)
	}

	for _, h := range in.Holidays {
		if h.Date.IsWeekend() {
			continue
		}
		b := bucket(h.Date.String())
		b.tracked = true
		b.holiday = b.holiday.Add(h.Hours())
	}

	totals := Totals{}
	if period.Start.IsYearStart() && in.Profile != nil {
		totals.Transfer = generic.Round2(in.Profile.TransferOvertime.Add(in.Profile.TransferGrantedOvertime))
		totals.CurrentActual = totals.Transfer
		totals.CurrentSaldo = totals.Transfer
	}

	days := resolver.EnumerateDays(p.DayPeriod()).All
	out := TimeseriesReport{Days: make([]DayRecord, 0, len(days)), Elements: elements}
	for _, ds := range days {
		rec := DayRecord{Date: ds.Date, Fraction: ds.Fraction, Target: zero, Holiday: zero}
		b := buckets[ds.Date.String()]
		if b != nil {
			rec.Tracked = b.tracked
			rec.exactActual = b.actual
			rec.Actual = generic.Round2(b.actual)
			rec.Entries = b.entries
			rec.Comments = b.comments
		}
		if ds.Date.IsWorkday() {
			full := generic.DaysToHours(ds.Fraction)
			if b != nil {
				rec.Holiday = generic.Round2(b.holiday)
			}
			rec.Target = generic.Round2(full).Sub(rec.Holiday)
		}
		rec.Saldo = rec.Actual.Sub(rec.Target)

		current := period.Contains(ds.Date) && ds.Date.BeforeOrEqual(today)
		totals = totals.add(rec, current)
		rec.CumulativeTarget = generic.Round2(totals.Target)
		rec.CumulativeActual = generic.Round2(totals.Actual)
		rec.CumulativeSaldo = generic.Round2(totals.Saldo)
		out.Days = append(out.Days, rec)
	}
	out.exact = totals
	out.Total = totals.rounded()
	return out
}

func collectComment(b *dayBucket, el generic.Element, e generic.TimeEntry, p Params) {
	if !p.Comments && !p.Raw {
		return
	}
	var parts []string
	if el.Unit == generic.EntryText && strings.TrimSpace(e.Value) != "" {
		parts = append(parts, e.Value)
	}
	if strings.TrimSpace(e.Comment) != "" {
		parts = append(parts, e.Comment)
	}
	if len(parts) == 0 {
		return
	}
	b.comments = append(b.comments, el.Label+": "+strings.Join(parts, " "))
}
