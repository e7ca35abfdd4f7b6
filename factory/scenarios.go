package factory

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/timereport/generic"
)

// =============================================================================
// DEMO SCENARIOS
// =============================================================================

// Scenario is a named dataset builder for demos and manual testing.
type Scenario struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	build       func(year int) *Dataset
}

// Build returns the scenario's dataset for year.
func (s Scenario) Build(year int) *Dataset { return s.build(year) }

// DemoUser is the user every scenario books for.
const DemoUser = "demo"

var scenarios = []Scenario{
	{
		ID:          "full-time-teacher",
		Name:        "Full-Time Teacher",
		Description: "100% employment, lessons, attendance ranges and a vacation week",
		build:       fullTimeTeacher,
	},
	{
		ID:          "scope-change",
		Name:        "Mid-Year Scope Change",
		Description: "80% until June, 100% from July, planned days weighted by scope",
		build:       scopeChange,
	},
	{
		ID:          "legacy-policy",
		Name:        "Legacy Conversion Policy",
		Description: "Quali and premium days planned in days (pre-2025 rules)",
		build:       legacyPolicy,
	},
}

// Scenarios lists the available demo scenarios.
func Scenarios() []Scenario {
	out := make([]Scenario, len(scenarios))
	copy(out, scenarios)
	return out
}

// ScenarioByID looks up a scenario.
func ScenarioByID(id string) (Scenario, error) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, nil
		}
	}
	return Scenario{}, fmt.Errorf("%w: scenario %q", generic.ErrEntityNotFound, id)
}

// DemoDataset is the default scenario for year.
func DemoDataset(year int) *Dataset { return fullTimeTeacher(year) }

// =============================================================================
// SHARED CATALOGUE
// =============================================================================

func catalogue() []ElementJSON {
	return []ElementJSON{
		{ID: "vacation", Type: "static", Unit: "day", Label: "Ferien", Project: "Absenzen"},
		{ID: "mixed", Type: "static", Unit: "day", Label: "Militär, Mutterschaft, Diverses", Project: "Absenzen"},
		{ID: "quali", Type: "static", Unit: "day", Label: "Weiterbildung", Project: "Absenzen"},
		{ID: "premium", Type: "static", Unit: "day", Label: "Treueprämie", Project: "Absenzen"},
		{ID: "special", Type: "static", Unit: "day", Label: "Sonderurlaub", Project: "Absenzen"},
		{ID: "sickness", Type: "static", Unit: "hour", Label: "Krankheit", Project: "Absenzen"},
		{ID: "bridge", Type: "static", Unit: "day", Label: "Brückentag", Project: "Absenzen", IsHoliday: true},
		{ID: "note", Type: "static", Unit: "text", Label: "Notiz", Project: "Diverses"},
		{ID: "presence", Type: "range", Unit: "range", Label: "Präsenz", Project: "Diverses"},
		{ID: "math", Type: "dynamic", Unit: "lesson", Label: "Mathematik", Project: "Gymnasium", Factor: decimal.RequireFromString("1.75")},
		{ID: "physics", Type: "dynamic", Unit: "lesson", Label: "Physik", Project: "Gymnasium", Factor: decimal.RequireFromString("1.75")},
		{ID: "class-teacher", Type: "dynamic", Unit: "hour", Label: "Klassenlehrperson", Project: "Dienste"},
		{ID: "library", Type: "dynamic", Unit: "number", Label: "Mediothek", Project: "Dienste"},
	}
}

func holidays(year int) []HolidayJSON {
	d := func(m time.Month, day int) string { return generic.NewTimePoint(year, m, day).String() }
	return []HolidayJSON{
		{Date: d(time.January, 1), Label: "Neujahr"},
		{Date: d(time.January, 2), Label: "Berchtoldstag"},
		{Date: d(time.May, 1), Label: "Tag der Arbeit", Duration: 4 * generic.SecondsPerHour},
		{Date: d(time.August, 1), Label: "Bundesfeier"},
		{Date: d(time.December, 24), Label: "Heiligabend", Duration: 4 * generic.SecondsPerHour},
		{Date: d(time.December, 25), Label: "Weihnachten"},
		{Date: d(time.December, 26), Label: "Stephanstag"},
	}
}

// weekly books value on every given weekday of year that is not a holiday.
func weekly(year int, element string, weekday time.Weekday, value string, skip map[string]bool) []EntryJSON {
	var out []EntryJSON
	for _, day := range generic.YearPeriod(year).Days() {
		if day.Weekday() != weekday || skip[day.String()] {
			continue
		}
		out = append(out, EntryJSON{ElementID: element, UserID: DemoUser, Date: day.String(), Value: value})
	}
	return out
}

func holidaySet(hs []HolidayJSON) map[string]bool {
	out := make(map[string]bool, len(hs))
	for _, h := range hs {
		out[h.Date] = true
	}
	return out
}

// =============================================================================
// SCENARIO BUILDERS
// =============================================================================

func fullTimeTeacher(year int) *Dataset {
	hs := holidays(year)
	skip := holidaySet(hs)
	d := func(m time.Month, day int) string { return generic.NewTimePoint(year, m, day).String() }

	// Vacation week in mid February, Monday to Friday.
	vacation := generic.NewTimePoint(year, time.February, 10)
	for vacation.Weekday() != time.Monday {
		vacation = vacation.AddDays(1)
	}
	for i := 0; i < 5; i++ {
		skip[vacation.AddDays(i).String()] = true
	}

	ds := &Dataset{
		Elements:    catalogue(),
		Employments: []EmploymentJSON{{ID: "demo-employment", UserID: DemoUser, Start: fmt.Sprintf("%d-01-01", year-3), Scope: 100}},
		Profiles: []ProfileJSON{{
			UserID:                  DemoUser,
			Year:                    year,
			PlannedVacations:        decimal.NewFromInt(25),
			PlannedMixed:            decimal.NewFromInt(2),
			PlannedQuali:            decimal.NewFromInt(5),
			TransferTotalLastYear:   decimal.RequireFromString("12.5"),
			TransferOvertime:        decimal.RequireFromString("10.5"),
			TransferGrantedOvertime: decimal.NewFromInt(2),
		}},
		Holidays: hs,
		Setpoints: []SetpointJSON{
			{ElementID: "math", UserID: DemoUser, Year: year, Value: decimal.NewFromInt(560)},
			{ElementID: "physics", UserID: DemoUser, Year: year, Value: decimal.NewFromInt(280)},
			{ElementID: "class-teacher", UserID: DemoUser, Year: year, Value: decimal.NewFromInt(80)},
		},
	}
	for i := 0; i < 5; i++ {
		ds.Entries = append(ds.Entries, EntryJSON{ElementID: "vacation", UserID: DemoUser, Date: vacation.AddDays(i).String(), Value: "1"})
	}
	ds.Entries = append(ds.Entries, weekly(year, "math", time.Monday, "4", skip)...)
	ds.Entries = append(ds.Entries, weekly(year, "math", time.Wednesday, "3", skip)...)
	ds.Entries = append(ds.Entries, weekly(year, "physics", time.Thursday, "3", skip)...)
	ds.Entries = append(ds.Entries, weekly(year, "presence", time.Tuesday, "07:30-12:00", skip)...)
	ds.Entries = append(ds.Entries, weekly(year, "class-teacher", time.Friday, "1.5", skip)...)
	ds.Entries = append(ds.Entries,
		EntryJSON{ElementID: "sickness", UserID: DemoUser, Date: d(time.March, 18), Value: "4"},
		EntryJSON{ElementID: "note", UserID: DemoUser, Date: d(time.March, 18), Value: "Arzttermin"},
		EntryJSON{ElementID: "library", UserID: DemoUser, Date: d(time.March, 21), Value: "2"},
	)
	return ds
}

func scopeChange(year int) *Dataset {
	ds := fullTimeTeacher(year)
	ds.Employments = []EmploymentJSON{
		{ID: "demo-part-time", UserID: DemoUser, Start: fmt.Sprintf("%d-01-01", year-1), End: fmt.Sprintf("%d-06-30", year), Scope: 80},
		{ID: "demo-full-time", UserID: DemoUser, Start: fmt.Sprintf("%d-07-01", year), Scope: 100},
	}
	ds.Profiles[0].PlannedVacations = decimal.NewFromInt(28)
	return ds
}

func legacyPolicy(year int) *Dataset {
	ds := fullTimeTeacher(year)
	ds.Profiles[0].PlannedQuali = decimal.NewFromInt(10)
	ds.Profiles[0].PlannedPremiums = decimal.NewFromInt(5)
	ds.Entries = append(ds.Entries,
		EntryJSON{ElementID: "quali", UserID: DemoUser, Date: generic.NewTimePoint(year, time.April, 8).String(), Value: "1"},
		EntryJSON{ElementID: "premium", UserID: DemoUser, Date: generic.NewTimePoint(year, time.April, 9).String(), Value: "0.5"},
	)
	return ds
}
