package report_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timereport/generic"
	"github.com/warp/timereport/generic/store"
	"github.com/warp/timereport/report"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(m time.Month, d int) generic.TimePoint { return generic.NewTimePoint(2025, m, d) }

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}

// week is Mon 2025-01-06 .. Sun 2025-01-12.
func week() report.Params {
	return report.Params{Start: "2025-01-06", End: "2025-01-12", UserID: "u1", Enhanced: true}
}

// thursday is the "today" of the fixture.
func thursday() time.Time { return time.Date(2025, time.January, 9, 15, 0, 0, 0, time.UTC) }

var (
	elVacation  = generic.Element{ID: "vac", Type: generic.ElementStatic, Unit: generic.EntryDay, Label: "Ferien", Project: "Absenzen"}
	elSickness  = generic.Element{ID: "sick", Type: generic.ElementStatic, Unit: generic.EntryHour, Label: "Krankheit", Project: "Absenzen"}
	elSpecial   = generic.Element{ID: "special", Type: generic.ElementStatic, Unit: generic.EntryDay, Label: "Sonderurlaub", Project: "Absenzen"}
	elNote      = generic.Element{ID: "note", Type: generic.ElementStatic, Unit: generic.EntryText, Label: "Notiz", Project: "Diverses"}
	elPresence  = generic.Element{ID: "presence", Type: generic.ElementRange, Unit: generic.EntryRange, Label: "Präsenz", Project: "Diverses"}
	elMath      = generic.Element{ID: "math", Type: generic.ElementDynamic, Unit: generic.EntryLesson, Label: "Mathematik", Project: "Gymnasium", Factor: dec("0.75")}
	elPhysics   = generic.Element{ID: "physics", Type: generic.ElementDynamic, Unit: generic.EntryHour, Label: "Physik", Project: "Gymnasium"}
	elCommittee = generic.Element{ID: "committee", Type: generic.ElementDynamic, Unit: generic.EntryHour, Label: "Kommission", Project: "Dienste"}
)

// newFixture seeds a full-time user u1 for 2025:
//
//	Mon 06  Ferien 1 day                 8.4h
//	Tue 07  Krankheit 2h, Mathematik 4L  2h + 3h
//	Wed 08  Präsenz 08:00-12:00, Notiz   4h
//	Thu 09  -                            (today)
//	Fri 10  Physik 1.5h                  1.5h
func newFixture(t *testing.T) (*store.Memory, *report.Reporter) {
	t.Helper()
	ctx := context.Background()
	m := store.NewMemory()

	start := generic.NewTimePoint(2020, time.January, 1)
	for _, el := range []generic.Element{elVacation, elSickness, elSpecial, elNote, elPresence, elMath, elPhysics, elCommittee} {
		el.Start = start
		require.NoError(t, m.SaveElement(ctx, el))
	}
	require.NoError(t, m.SaveEmployment(ctx, generic.Employment{ID: "emp", UserID: "u1", Start: day(time.January, 1), Scope: 100}))
	require.NoError(t, m.SaveProfile(ctx, generic.Profile{
		UserID:                  "u1",
		Year:                    2025,
		PlannedVacations:        dec("25"),
		PlannedMixed:            dec("2"),
		PlannedQuali:            dec("10"),
		TransferOvertime:        dec("5"),
		TransferGrantedOvertime: dec("1"),
		TransferTotalLastYear:   dec("6"),
		ManualCorrection:        dec("-1"),
	}))
	require.NoError(t, m.SaveSetpoint(ctx, generic.Setpoint{ElementID: "math", UserID: "u1", Year: 2025, Value: dec("40")}))
	require.NoError(t, m.SaveSetpoint(ctx, generic.Setpoint{ElementID: "physics", UserID: "u1", Year: 2025, Value: dec("10")}))

	entries := []struct {
		el    generic.Element
		on    generic.TimePoint
		value string
	}{
		{elVacation, day(time.January, 6), "1"},
		{elSickness, day(time.January, 7), "2"},
		{elMath, day(time.January, 7), "4"},
		{elPresence, day(time.January, 8), "08:00-12:00"},
		{elNote, day(time.January, 8), "Elternabend"},
		{elPhysics, day(time.January, 10), "1.5"},
	}
	for _, e := range entries {
		el := e.el
		el.Start = start
		require.NoError(t, m.SaveEntry(ctx, el, generic.TimeEntry{UserID: "u1", Date: e.on, Value: e.value}))
	}

	r := report.NewReporter(m, nil)
	r.Now = thursday
	return m, r
}
