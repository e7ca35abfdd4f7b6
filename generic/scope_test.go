package generic_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/timereport/generic"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func day(m time.Month, d int) generic.TimePoint {
	return generic.NewTimePoint(2025, m, d)
}

func ptr(tp generic.TimePoint) *generic.TimePoint { return &tp }

// splitEmployment is 80% for the first half of 2025 and 100% from July on.
func splitEmployment() []generic.Employment {
	return []generic.Employment{
		{ID: "e1", UserID: "u1", Start: day(time.January, 1), End: ptr(day(time.June, 30)), Scope: 80},
		{ID: "e2", UserID: "u1", Start: day(time.July, 1), Scope: 100},
	}
}

// =============================================================================
// WORK FRACTION
// =============================================================================

func TestWorkFractionOn_FirstCoveringEmployment(t *testing.T) {
	r := generic.NewScopeResolver(splitEmployment())

	cases := []struct {
		on   generic.TimePoint
		want string
	}{
		{day(time.March, 3), "0.8"},
		{day(time.June, 30), "0.8"},
		{day(time.July, 1), "1"},
		{generic.NewTimePoint(2030, time.May, 5), "1"}, // open-ended
		{generic.NewTimePoint(2024, time.December, 31), "0"},
	}
	for _, tc := range cases {
		got := r.WorkFractionOn(tc.on)
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Errorf("WorkFractionOn(%s) = %s, want %s", tc.on, got, tc.want)
		}
	}
}

func TestWorkFractionOn_GapIsZero(t *testing.T) {
	r := generic.NewScopeResolver([]generic.Employment{
		{Start: day(time.January, 1), End: ptr(day(time.January, 31)), Scope: 50},
		{Start: day(time.March, 1), Scope: 50},
	})
	if f := r.WorkFractionOn(day(time.February, 14)); !f.IsZero() {
		t.Errorf("expected 0 in employment gap, got %s", f)
	}
}

// =============================================================================
// ENUMERATION
// =============================================================================

func TestEnumerateDays_SplitsWeekdays(t *testing.T) {
	// GIVEN: Mon 2025-01-06 .. Sun 2025-01-12
	// WHEN: Enumerating
	// THEN: 7 days, 5 weekdays, ascending

	r := generic.NewScopeResolver(splitEmployment())
	e := r.EnumerateDays(generic.Period{Start: day(time.January, 6), End: day(time.January, 12)})

	if len(e.All) != 7 || len(e.Weekdays) != 5 {
		t.Fatalf("expected 7/5 days, got %d/%d", len(e.All), len(e.Weekdays))
	}
	for i := 1; i < len(e.All); i++ {
		if !e.All[i-1].Date.Before(e.All[i].Date) {
			t.Fatalf("days not ascending at %d", i)
		}
	}
	if !e.All[0].Fraction.Equal(decimal.RequireFromString("0.8")) {
		t.Errorf("expected fraction 0.8, got %s", e.All[0].Fraction)
	}
}

func TestEnumerateDays_InvalidRangeIsEmpty(t *testing.T) {
	r := generic.NewScopeResolver(splitEmployment())

	for _, p := range []generic.Period{
		generic.ParsePeriod("2025-13-01", "2025-12-31"),
		generic.ParsePeriod("2025-05-01", "2025-04-01"),
		{},
	} {
		e := r.EnumerateDays(p)
		if len(e.All) != 0 || len(e.Weekdays) != 0 {
			t.Errorf("expected empty enumeration for %s", p)
		}
		if n := generic.WorkingDays(p, 2025); n != 0 {
			t.Errorf("expected 0 working days for %s, got %d", p, n)
		}
	}
}

// =============================================================================
// WORKING DAYS / SCOPE WEIGHTING
// =============================================================================

func TestWorkingDays_ClippedToYearAndBounds(t *testing.T) {
	year := generic.YearPeriod(2025)
	if n := generic.WorkingDays(year, 2025); n != 261 {
		t.Errorf("expected 261 working days in 2025, got %d", n)
	}

	spanning := generic.Period{Start: generic.NewTimePoint(2024, time.December, 1), End: day(time.January, 31)}
	if n := generic.WorkingDays(spanning, 2025); n != 23 {
		t.Errorf("expected 23 January working days, got %d", n)
	}

	firstHalf := generic.Period{Start: day(time.January, 1), End: day(time.June, 30)}
	if n := generic.WorkingDays(year, 2025, firstHalf); n != 129 {
		t.Errorf("expected 129 working days in H1, got %d", n)
	}
}

func TestAnnualDaysToHours_ScopeChangeMidYear(t *testing.T) {
	// GIVEN: 80% Jan-Jun (129 weekdays), 100% Jul-Dec (132 weekdays)
	// WHEN: Converting a 25 day vacation plan
	// THEN: 25 * 8.4 / 261 * (129*0.8 + 132*1.0) = 189.24

	r := generic.NewScopeResolver(splitEmployment())
	got := generic.Round2(r.AnnualDaysToHours(decimal.NewFromInt(25), 2025))

	if !got.Equal(decimal.RequireFromString("189.24")) {
		t.Errorf("expected 189.24 hours, got %s", got)
	}
}

func TestAnnualDaysToHours_FullTimeWholeYear(t *testing.T) {
	r := generic.NewScopeResolver([]generic.Employment{{Start: day(time.January, 1), Scope: 100}})
	got := generic.Round2(r.AnnualDaysToHours(decimal.NewFromInt(25), 2025))
	if !got.Equal(decimal.NewFromInt(210)) {
		t.Errorf("expected 210 hours, got %s", got)
	}
}

func TestAnnualDaysToHours_NoEmployment(t *testing.T) {
	r := generic.NewScopeResolver(nil)
	if got := r.AnnualDaysToHours(decimal.NewFromInt(25), 2025); !got.IsZero() {
		t.Errorf("expected 0 without employment, got %s", got)
	}
}
