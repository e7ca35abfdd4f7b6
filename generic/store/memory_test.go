package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/timereport/generic"
	"github.com/warp/timereport/generic/store"
)

func d(m time.Month, day int) generic.TimePoint { return generic.NewTimePoint(2025, m, day) }

func vacation() generic.Element {
	return generic.Element{
		ID: "el-vac", Type: generic.ElementStatic, Unit: generic.EntryDay,
		Label: "Ferien", Project: "Absenzen", Start: generic.NewTimePoint(2020, time.January, 1),
	}
}

func TestMemory_Elements_FiltersEntriesByUserAndPeriod(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	el := vacation()
	if err := m.SaveElement(ctx, el); err != nil {
		t.Fatal(err)
	}
	for _, e := range []generic.TimeEntry{
		{UserID: "u1", Date: d(time.March, 3), Value: "1"},
		{UserID: "u1", Date: d(time.February, 3), Value: "0.5"},
		{UserID: "u2", Date: d(time.March, 3), Value: "1"},
		{UserID: "u1", Date: d(time.May, 5), Value: "1"},
	} {
		if err := m.SaveEntry(ctx, el, e); err != nil {
			t.Fatal(err)
		}
	}

	got, err := m.Elements(ctx, generic.ElementQuery{
		Period:         generic.Period{Start: d(time.January, 1), End: d(time.March, 31)},
		UserID:         "u1",
		Label:          "Ferien",
		IncludeEntries: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || len(got[0].Entries) != 2 {
		t.Fatalf("expected 1 element with 2 entries, got %+v", got)
	}
	if !got[0].Entries[0].Date.Equal(d(time.February, 3)) {
		t.Errorf("entries must be ordered by date")
	}
	if got[0].Entries[0].Duration != 15120 {
		t.Errorf("expected duration computed at write time, got %d", got[0].Entries[0].Duration)
	}
}

func TestMemory_SaveEntry_Invariants(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	el := vacation()
	_ = m.SaveElement(ctx, el)

	first := generic.TimeEntry{ID: "t1", UserID: "u1", Date: d(time.March, 3), Value: "1"}
	if err := m.SaveEntry(ctx, el, first); err != nil {
		t.Fatal(err)
	}

	// Same day, different entry
	err := m.SaveEntry(ctx, el, generic.TimeEntry{ID: "t2", UserID: "u1", Date: d(time.March, 3), Value: "0.5"})
	if !errors.Is(err, generic.ErrDuplicateEntry) {
		t.Errorf("expected ErrDuplicateEntry, got %v", err)
	}

	// Same entry may be updated while open
	first.Value = "0.5"
	if err := m.SaveEntry(ctx, el, first); err != nil {
		t.Errorf("expected update to succeed, got %v", err)
	}

	// Closed entries are immutable
	closed := generic.TimeEntry{ID: "t3", UserID: "u1", Date: d(time.April, 1), Value: "1", Closed: true}
	_ = m.SaveEntry(ctx, el, closed)
	closed.Value = "0"
	if err := m.SaveEntry(ctx, el, closed); !errors.Is(err, generic.ErrEntryClosed) {
		t.Errorf("expected ErrEntryClosed, got %v", err)
	}

	// Invalid raw value
	err = m.SaveEntry(ctx, el, generic.TimeEntry{UserID: "u1", Date: d(time.May, 1), Value: "2"})
	if !errors.Is(err, generic.ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}

	// Before element start
	err = m.SaveEntry(ctx, el, generic.TimeEntry{UserID: "u1", Date: generic.NewTimePoint(2019, time.May, 1), Value: "1"})
	if !errors.Is(err, generic.ErrElementInactive) {
		t.Errorf("expected ErrElementInactive, got %v", err)
	}
}

func TestMemory_SaveEmployment_RejectsOverlap(t *testing.T) {
	// GIVEN: An employment Jan-Jun
	// WHEN: Adding one that starts in June / one that starts in July
	// THEN: The overlapping one is rejected, the adjacent one accepted

	ctx := context.Background()
	m := store.NewMemory()
	end := d(time.June, 30)
	if err := m.SaveEmployment(ctx, generic.Employment{ID: "e1", UserID: "u1", Start: d(time.January, 1), End: &end, Scope: 80}); err != nil {
		t.Fatal(err)
	}

	err := m.SaveEmployment(ctx, generic.Employment{ID: "e2", UserID: "u1", Start: d(time.June, 1), Scope: 100})
	if !errors.Is(err, generic.ErrEmploymentOverlap) {
		t.Errorf("expected ErrEmploymentOverlap, got %v", err)
	}
	if err := m.SaveEmployment(ctx, generic.Employment{ID: "e3", UserID: "u1", Start: d(time.July, 1), Scope: 100}); err != nil {
		t.Errorf("adjacent employment rejected: %v", err)
	}
	if err := m.SaveEmployment(ctx, generic.Employment{ID: "e4", UserID: "u2", Start: d(time.June, 1), Scope: 100}); err != nil {
		t.Errorf("other user's employment rejected: %v", err)
	}

	// Updating e1 in place does not collide with itself
	longer := d(time.June, 30)
	if err := m.SaveEmployment(ctx, generic.Employment{ID: "e1", UserID: "u1", Start: d(time.January, 1), End: &longer, Scope: 60}); err != nil {
		t.Errorf("in-place update rejected: %v", err)
	}

	got, err := m.EmploymentIntersections(ctx, generic.EmploymentQuery{Period: generic.YearPeriod(2025), UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "e1" || got[0].Scope != 60 {
		t.Errorf("unexpected employments %+v", got)
	}
}

func TestMemory_ProfileAbsentIsNil(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	_ = m.SaveProfile(ctx, generic.Profile{UserID: "u1", Year: 2025, PlannedVacations: decimal.NewFromInt(25)})

	p, err := m.Profile(ctx, "u1", 2024)
	if err != nil || p != nil {
		t.Errorf("expected nil profile, got %+v, %v", p, err)
	}
	p, err = m.Profile(ctx, "u1", 2025)
	if err != nil || p == nil || !p.PlannedVacations.Equal(decimal.NewFromInt(25)) {
		t.Errorf("expected stored profile, got %+v, %v", p, err)
	}
}

func TestMemory_FailOn(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	boom := errors.New("boom")
	m.FailOn("holidays", boom)

	if _, err := m.Holidays(ctx, generic.YearPeriod(2025)); !errors.Is(err, boom) {
		t.Errorf("expected injected failure, got %v", err)
	}
	m.FailOn("holidays", nil)
	if _, err := m.Holidays(ctx, generic.YearPeriod(2025)); err != nil {
		t.Errorf("expected failure cleared, got %v", err)
	}
}
