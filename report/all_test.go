package report_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timereport/generic"
	"github.com/warp/timereport/report"
)

// =============================================================================
// COMPOSITE REPORT
// =============================================================================

func TestAll_SummaryChain(t *testing.T) {
	// GIVEN: The one-week fixture, full-time, today = Thursday
	// WHEN: Building the composite report
	// THEN: Every summary figure follows the subtraction chain

	_, r := newFixture(t)
	rep, err := r.All(context.Background(), week())
	require.NoError(t, err)

	s := rep.Summary
	assertDec(t, "42", s.GrossTarget)
	assertDec(t, "210", s.VacationTarget)
	assertDec(t, "8.4", s.VacationActual)
	assertDec(t, "-168", s.NetTime)
	assertDec(t, "16.8", s.Mixed)
	assertDec(t, "10", s.Quali)
	assertDec(t, "0", s.Premiums)
	assertDec(t, "0", s.SpecialAbsence)
	assertDec(t, "2", s.Sickness)
	assertDec(t, "6", s.Transfers)
	assertDec(t, "-202.8", s.EffectiveTime)
	assertDec(t, "40", s.LectureshipTarget)
	assertDec(t, "4.5", s.LectureshipActual)
	assertDec(t, "-35.5", s.LectureshipSaldo)
	assertDec(t, "-242.8", s.FinalSaldo)
	assertDec(t, "4", s.OtherActual)
	assertDec(t, "18.9", s.TotalActual)
	assertDec(t, "-23.1", s.TotalSaldo)
	assertDec(t, "33.6", s.CurrentTarget)
	assertDec(t, "17.4", s.CurrentActual)
	assertDec(t, "-16.2", s.CurrentSaldo)
	assertDec(t, "-18.1", s.YearEndBalance)
}

func TestAll_ReconcilesDaysAgainstRows(t *testing.T) {
	_, r := newFixture(t)
	rep, err := r.All(context.Background(), week())
	require.NoError(t, err)

	require.NotNil(t, rep.Reconciliation)
	assert.True(t, rep.Reconciliation.Balanced)
	assertDec(t, "-23.1", rep.Reconciliation.FromDays)
	assertDec(t, "-23.1", rep.Reconciliation.FromRows)
}

func TestAll_MissingProfile_IsDataError400ForEveryProjection(t *testing.T) {
	// GIVEN: u2 has no profile for 2025
	// WHEN: Requesting any composite projection
	// THEN: A data error with status 400

	_, r := newFixture(t)
	p := week()
	p.UserID = "u2"
	ctx := context.Background()

	_, errAll := r.All(ctx, p)
	_, errGeneric := r.Generic(ctx, p)
	_, errCSV := r.CSV(ctx, p)
	_, errIndicators := r.Indicators(ctx, p)

	for name, err := range map[string]error{"all": errAll, "generic": errGeneric, "csv": errCSV, "indicators": errIndicators} {
		require.Error(t, err, name)
		assert.ErrorIs(t, err, generic.ErrProfileMissing, name)
		var de *generic.DataError
		require.ErrorAs(t, err, &de, name)
		assert.Equal(t, http.StatusBadRequest, de.Status, name)
		assert.Equal(t, http.StatusBadRequest, generic.StatusOf(err), name)
	}
}

func TestAll_BranchFailureVoidsReport(t *testing.T) {
	m, r := newFixture(t)
	boom := errors.New("connection reset")
	m.FailOn("setpoints", boom)

	rep, err := r.All(context.Background(), week())

	assert.Nil(t, rep)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, http.StatusInternalServerError, generic.StatusOf(err))
	assert.Equal(t, boom.Error(), err.Error())
}

func TestAll_DataErrorsSurfaceUnchanged(t *testing.T) {
	// GIVEN: Failing reads in each branch of the composite report
	// WHEN: Building the composite report
	// THEN: The error text is exactly the store's, no branch prefix

	ctx := context.Background()
	for _, op := range []string{"elements", "setpoints", "holidays", "employments"} {
		t.Run(op, func(t *testing.T) {
			m, r := newFixture(t)
			boom := errors.New(op + " unavailable")
			m.FailOn(op, boom)

			_, err := r.All(ctx, week())

			require.Error(t, err)
			assert.Equal(t, boom.Error(), err.Error())
		})
	}

	_, r := newFixture(t)
	p := week()
	p.UserID = "u2"
	_, errAll := r.All(ctx, p)
	_, errIndicators := r.Indicators(ctx, p)
	require.Error(t, errAll)
	assert.Equal(t, errIndicators.Error(), errAll.Error())
}

func TestAll_PositionFilter_MatchesUnfilteredRows(t *testing.T) {
	// GIVEN: An unfiltered report
	// WHEN: Filtering on one element and on one indicator
	// THEN: The remaining rows equal their unfiltered counterparts

	_, r := newFixture(t)
	ctx := context.Background()
	full, err := r.All(ctx, week())
	require.NoError(t, err)

	p := week()
	p.Position = "Mathematik"
	onlyMath, err := r.All(ctx, p)
	require.NoError(t, err)

	assert.Empty(t, onlyMath.Indicators.Rows)
	require.Len(t, onlyMath.Elements.Rows, 1)
	for _, row := range full.Elements.Rows {
		if row.Label == "Mathematik" {
			assert.Equal(t, row, onlyMath.Elements.Rows[0])
		}
	}
	assert.Nil(t, onlyMath.Reconciliation)

	p.Position = "Krankheit"
	onlySick, err := r.All(ctx, p)
	require.NoError(t, err)
	require.Len(t, onlySick.Indicators.Rows, 1)
	want, _ := full.Indicators.Get(report.IndicatorSickness)
	assert.Equal(t, want, onlySick.Indicators.Rows[0])
	assert.Empty(t, onlySick.Elements.Rows)
}

func TestAll_UnknownPosition(t *testing.T) {
	_, r := newFixture(t)
	p := week()
	p.Position = "Chemie"

	_, err := r.All(context.Background(), p)

	assert.ErrorIs(t, err, generic.ErrInvalidPosition)
	var pe *generic.ParameterError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "position", pe.Field)
}

func TestAll_UnknownPositionReportedBeforeAnyRead(t *testing.T) {
	// GIVEN: An unknown position, no profile and failing data reads
	// WHEN: Requesting every composite projection
	// THEN: The position parameter error wins over every data error

	m, r := newFixture(t)
	m.FailOn("setpoints", errors.New("setpoints unavailable"))
	m.FailOn("holidays", errors.New("holidays unavailable"))
	m.FailOn("employments", errors.New("employments unavailable"))
	p := week()
	p.UserID = "u2"
	p.Position = "Chemie"
	ctx := context.Background()

	_, errAll := r.All(ctx, p)
	_, errGeneric := r.Generic(ctx, p)
	_, errCSV := r.CSV(ctx, p)

	for name, err := range map[string]error{"all": errAll, "generic": errGeneric, "csv": errCSV} {
		assert.ErrorIs(t, err, generic.ErrInvalidPosition, name)
		assert.NotErrorIs(t, err, generic.ErrProfileMissing, name)
		assert.Equal(t, http.StatusBadRequest, generic.StatusOf(err), name)
	}
}

func TestEntryPoints_PositionValidatedEverywhere(t *testing.T) {
	// GIVEN: The one-week fixture
	// WHEN: Requesting the single projections with a position
	// THEN: Unknown names fail as parameter errors, known names pass

	_, r := newFixture(t)
	ctx := context.Background()
	p := week()
	p.Position = "Chemie"

	_, errIndicators := r.Indicators(ctx, p)
	_, errElements := r.Elements(ctx, p)
	_, errTimeseries := r.Timeseries(ctx, p)

	for name, err := range map[string]error{"indicators": errIndicators, "elements": errElements, "timeseries": errTimeseries} {
		require.ErrorIs(t, err, generic.ErrInvalidPosition, name)
		var pe *generic.ParameterError
		require.ErrorAs(t, err, &pe, name)
		assert.Equal(t, "position", pe.Field, name)
	}

	p.Position = "Mathematik"
	ind, err := r.Indicators(ctx, p)
	require.NoError(t, err)
	assert.Empty(t, ind.Rows)
	els, err := r.Elements(ctx, p)
	require.NoError(t, err)
	require.Len(t, els.Rows, 1)
	assert.Equal(t, "Mathematik", els.Rows[0].Label)

	p.Position = "Krankheit"
	_, err = r.Timeseries(ctx, p)
	require.NoError(t, err)
}

func TestAll_MinuteBookingsReconcile(t *testing.T) {
	// GIVEN: Ten weekdays with a one-minute presence booking each
	// WHEN: Building the composite report over the two weeks
	// THEN: Day and row saldos agree, totals are rounded from exact sums

	m, r := newFixture(t)
	ctx := context.Background()
	presence := elPresence
	presence.Start = generic.NewTimePoint(2020, time.January, 1)
	for d := 13; d <= 24; d++ {
		date := day(time.January, d)
		if !date.IsWorkday() {
			continue
		}
		require.NoError(t, m.SaveEntry(ctx, presence, generic.TimeEntry{UserID: "u1", Date: date, Value: "08:00-08:01"}))
	}
	p := report.Params{Start: "2025-01-13", End: "2025-01-24", UserID: "u1"}

	rep, err := r.All(ctx, p)
	require.NoError(t, err)

	require.NotNil(t, rep.Reconciliation)
	assert.True(t, rep.Reconciliation.Balanced)
	assertDec(t, "0", rep.Reconciliation.Difference)
	assertDec(t, "-83.83", rep.Reconciliation.FromDays)
	assertDec(t, "-83.83", rep.Reconciliation.FromRows)
	assertDec(t, "0.17", rep.Summary.TotalActual)
	assertDec(t, "0.17", rep.Summary.OtherActual)
	mon, _ := rep.Timeseries.Day("2025-01-13")
	assertDec(t, "0.02", mon.Actual)
}

// =============================================================================
// PARAMETER ERRORS
// =============================================================================

func TestEntryPoints_MultiYearRangeIsIdenticalError(t *testing.T) {
	_, r := newFixture(t)
	ctx := context.Background()
	p := report.Params{Start: "2025-12-01", End: "2026-01-31", UserID: "u1"}

	_, e1 := r.Indicators(ctx, p)
	_, e2 := r.Elements(ctx, p)
	_, e3 := r.Timeseries(ctx, p)
	_, e4 := r.All(ctx, p)
	_, e5 := r.Generic(ctx, p)
	_, e6 := r.CSV(ctx, p)

	for _, err := range []error{e1, e2, e3, e4, e5, e6} {
		require.ErrorIs(t, err, generic.ErrInvalidRange)
		assert.Equal(t, e1.Error(), err.Error())
		assert.True(t, generic.IsClientError(err))
	}
}

func TestParams_Validate(t *testing.T) {
	base := report.Params{Start: "2025-01-01", End: "2025-12-31", UserID: "u1"}
	with := func(f func(*report.Params)) report.Params {
		p := base
		f(&p)
		return p
	}

	cases := []struct {
		name string
		p    report.Params
		want error
	}{
		{"valid", base, nil},
		{"missing start", with(func(p *report.Params) { p.Start = "" }), generic.ErrMissingStart},
		{"missing end", with(func(p *report.Params) { p.End = " " }), generic.ErrMissingEnd},
		{"missing user", with(func(p *report.Params) { p.UserID = "" }), generic.ErrMissingUser},
		{"bad date", with(func(p *report.Params) { p.End = "2025-02-30" }), generic.ErrInvalidDate},
		{"end before start", with(func(p *report.Params) { p.Start, p.End = "2025-05-01", "2025-04-01" }), generic.ErrInvalidRange},
		{"aggregated compact", with(func(p *report.Params) { p.Aggregated, p.Compact = true, true }), generic.ErrAggregatedCompact},
		{"aggregated comments", with(func(p *report.Params) { p.Aggregated, p.Comments = true, true }), generic.ErrAggregatedComments},
		{"position comments", with(func(p *report.Params) { p.Position, p.Comments = "Ferien", true }), generic.ErrPositionComments},
		{"padded position", with(func(p *report.Params) { p.Position = " Ferien" }), generic.ErrInvalidPosition},
		{"shape", with(func(p *report.Params) { p.Shape = "tree" }), generic.ErrInvalidShape},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.p.Validate()
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, http.StatusBadRequest, generic.StatusOf(err))
		})
	}
}

func TestCSV_FlagConflictsRejectedBeforeFetch(t *testing.T) {
	// GIVEN: A store where every read fails
	// WHEN: Requesting a CSV with conflicting flags
	// THEN: The parameter error wins, nothing was fetched

	m, r := newFixture(t)
	for _, op := range []string{"elements", "profile", "setpoints", "holidays", "employments"} {
		m.FailOn(op, errors.New("must not be called"))
	}
	p := week()
	p.Aggregated, p.Compact = true, true

	_, err := r.CSV(context.Background(), p)

	assert.ErrorIs(t, err, generic.ErrAggregatedCompact)
}
