/*
all.go - Composite report

PURPOSE:
  Runs the indicator, element and time-series aggregations over one
  parameter set and derives the summary figures every projection shows.

CONCURRENCY:
  The position filter is checked before anything else is read. The four
  reads (static elements, dynamic elements + setpoints, all elements +
  holidays + employments, profile) then run concurrently in an errgroup. The
  first failure cancels the others and voids the whole report; it is returned
  as the store reported it. Aggregation runs after the join on immutable
  snapshots.

SUMMARY:
  net       = gross - vacation
  effective = net - mixed - quali - premiums - special absence - sickness - transfers
  final     = effective - lectureship target

  Every figure is rounded to 2 decimals where it is computed.
*/
package report

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/warp/timereport/generic"
)

// ReconciliationTolerance is the largest accepted difference between the
// day-based and the row-based saldo.
var ReconciliationTolerance = decimal.RequireFromString("0.01")

// =============================================================================
// TYPES
// =============================================================================

type Summary struct {
	GrossTarget  decimal.Decimal `json:"grossTarget"`
	HolidayHours decimal.Decimal `json:"holidayHours"`

	VacationTarget decimal.Decimal `json:"vacationTarget"`
	VacationActual decimal.Decimal `json:"vacationActual"`
	NetTime        decimal.Decimal `json:"netTime"`

	Mixed          decimal.Decimal `json:"mixed"`
	Quali          decimal.Decimal `json:"quali"`
	Premiums       decimal.Decimal `json:"premiums"`
	SpecialAbsence decimal.Decimal `json:"specialAbsence"`
	Sickness       decimal.Decimal `json:"sickness"`

	TransferOvertime        decimal.Decimal `json:"transferOvertime"`
	TransferGrantedOvertime decimal.Decimal `json:"transferGrantedOvertime"`
	Transfers               decimal.Decimal `json:"transfers"`
	EffectiveTime           decimal.Decimal `json:"effectiveTime"`

	LectureshipTarget decimal.Decimal `json:"lectureshipTarget"`
	LectureshipActual decimal.Decimal `json:"lectureshipActual"`
	LectureshipSaldo  decimal.Decimal `json:"lectureshipSaldo"`
	OtherActual       decimal.Decimal `json:"otherActual"`
	FinalSaldo        decimal.Decimal `json:"finalSaldo"`

	TotalActual   decimal.Decimal `json:"totalActual"`
	TotalSaldo    decimal.Decimal `json:"totalSaldo"`
	CurrentTarget decimal.Decimal `json:"currentTarget"`
	CurrentActual decimal.Decimal `json:"currentActual"`
	CurrentSaldo  decimal.Decimal `json:"currentSaldo"`

	ManualCorrection      decimal.Decimal `json:"manualCorrection"`
	TransferTotalLastYear decimal.Decimal `json:"transferTotalLastYear"`
	YearEndBalance        decimal.Decimal `json:"yearEndBalance"`
}

// Reconciliation compares the saldo computed from day records with the one
// computed from indicator, element and other-element rows.
type Reconciliation struct {
	FromDays   decimal.Decimal `json:"fromDays"`
	FromRows   decimal.Decimal `json:"fromRows"`
	Difference decimal.Decimal `json:"difference"`
	Balanced   bool            `json:"balanced"`
}

type AllReport struct {
	Params     Params           `json:"params"`
	Indicators IndicatorReport  `json:"indicators"`
	Elements   ElementReport    `json:"elements"`
	Timeseries TimeseriesReport `json:"timeseries"`
	Profile    generic.Profile  `json:"-"`
	Summary    Summary          `json:"summary"`

	// Reconciliation is nil when a position filter removed rows.
	Reconciliation *Reconciliation `json:"reconciliation,omitempty"`
}

// =============================================================================
// ENTRY POINT
// =============================================================================

// All builds the composite report. Indicators are always computed in hours
// so they can be subtracted from the time-series target.
func (r *Reporter) All(ctx context.Context, p Params) (rep *AllReport, err error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	done := r.trace("all", p)
	defer func() { done(err) }()

	return r.all(ctx, p)
}

func (r *Reporter) all(ctx context.Context, p Params) (*AllReport, error) {
	p.Enhanced = true

	var (
		indIn IndicatorInput
		elIn  ElementInput
		tsIn  TimeseriesInput
		prof  *generic.Profile
	)
	today := r.today()

	if err := r.checkPosition(ctx, p); err != nil {
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		in, err := r.loadIndicators(gCtx, p)
		if err != nil {
			return err
		}
		indIn = in
		return nil
	})
	g.Go(func() error {
		in, err := r.loadElements(gCtx, p)
		if err != nil {
			return err
		}
		elIn = in
		return nil
	})
	g.Go(func() error {
		in, err := r.loadTimeseries(gCtx, p)
		if err != nil {
			return err
		}
		tsIn = in
		return nil
	})
	g.Go(func() error {
		pr, err := r.profile(gCtx, p)
		if err != nil {
			return err
		}
		prof = pr
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	indIn.Profile = *prof
	tsIn.Profile = prof

	rep := &AllReport{
		Params:     p,
		Profile:    *prof,
		Indicators: filterIndicators(ComputeIndicators(p, indIn), p.Position),
		Elements:   filterElements(ComputeElements(p, elIn), p.Position),
		Timeseries: ComputeTimeseries(p, tsIn, today),
	}
	rep.Summary = summarize(rep)
	if p.Position == "" {
		rec := reconcile(rep)
		rep.Reconciliation = &rec
	}
	return rep, nil
}

// =============================================================================
// DERIVATION
// =============================================================================

func summarize(rep *AllReport) Summary {
	r2 := generic.Round2
	ind := rep.Indicators
	ts := rep.Timeseries.Total
	prof := rep.Profile

	s := Summary{
		GrossTarget:  r2(ts.Target),
		HolidayHours: r2(ts.Holidays),

		VacationTarget: r2(ind.target(IndicatorVacation)),
		Mixed:          r2(ind.deduction(IndicatorMixed)),
		Quali:          r2(ind.deduction(IndicatorQuali)),
		Premiums:       r2(ind.deduction(IndicatorPremium)),
		SpecialAbsence: r2(ind.deduction(IndicatorSpecialAbsence)),
		Sickness:       r2(ind.deduction(IndicatorSickness)),

		TransferOvertime:        r2(prof.TransferOvertime),
		TransferGrantedOvertime: r2(prof.TransferGrantedOvertime),

		LectureshipTarget: r2(rep.Elements.Total.Target),
		LectureshipActual: r2(rep.Elements.Total.Actual),
		OtherActual:       r2(otherActual(rep)),

		TotalActual:   r2(ts.Actual),
		TotalSaldo:    r2(ts.Saldo),
		CurrentTarget: r2(ts.CurrentTarget),
		CurrentActual: r2(ts.CurrentActual),
		CurrentSaldo:  r2(ts.CurrentSaldo),

		ManualCorrection:      r2(prof.ManualCorrection),
		TransferTotalLastYear: r2(prof.TransferTotalLastYear),
	}
	if row, ok := ind.Get(IndicatorVacation); ok {
		s.VacationActual = row.Actual
	}

	s.NetTime = r2(s.GrossTarget.Sub(s.VacationTarget))
	s.Transfers = r2(s.TransferOvertime.Add(s.TransferGrantedOvertime))
	s.EffectiveTime = r2(s.NetTime.
		Sub(s.Mixed).
		Sub(s.Quali).
		Sub(s.Premiums).
		Sub(s.SpecialAbsence).
		Sub(s.Sickness).
		Sub(s.Transfers))
	s.LectureshipSaldo = r2(s.LectureshipActual.Sub(s.LectureshipTarget))
	s.FinalSaldo = r2(s.EffectiveTime.Sub(s.LectureshipTarget))
	s.YearEndBalance = r2(s.TotalSaldo.Add(s.TransferTotalLastYear).Add(s.ManualCorrection))
	return s
}

// otherActual sums the unrounded time-series contributions of elements that
// are neither indicators, dynamic elements nor holiday elements.
func otherActual(rep *AllReport) decimal.Decimal {
	sum := zero
	for _, el := range rep.Timeseries.Elements {
		if isOther(el) {
			sum = sum.Add(el.exact)
		}
	}
	return sum
}

func isOther(el ElementTotal) bool {
	if el.IsHoliday || el.Type == generic.ElementDynamic {
		return false
	}
	_, indicator := IndicatorByLabel(el.Label)
	return !indicator
}

// reconcile works on unrounded sums on both sides; rounding happens once at
// the end.
func reconcile(rep *AllReport) Reconciliation {
	rows := zero
	for _, row := range rep.Indicators.Rows {
		rows = rows.Add(row.exact)
	}
	rows = rows.Add(rep.Elements.Total.exact).Add(otherActual(rep))

	exact := rep.Timeseries.exact
	rec := Reconciliation{
		FromDays: generic.Round2(exact.Saldo),
		FromRows: generic.Round2(rows.Sub(exact.Target)),
	}
	rec.Difference = rec.FromDays.Sub(rec.FromRows)
	rec.Balanced = rec.Difference.Abs().LessThanOrEqual(ReconciliationTolerance)
	return rec
}
