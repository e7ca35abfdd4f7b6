package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// ELEMENT - What a time entry is booked against
// =============================================================================

type ElementType string

const (
	ElementStatic  ElementType = "static"  // fixed catalogue items (vacation, sickness, ...)
	ElementRange   ElementType = "range"   // attendance recorded as from-to ranges
	ElementDynamic ElementType = "dynamic" // teaching/service items with yearly setpoints
)

// Element defines how raw values booked against it convert to durations.
// Entries carries the bookings the store pre-filtered to one user and range.
type Element struct {
	ID        ElementID
	Type      ElementType
	Unit      EntryUnit
	Label     string
	Project   string
	Factor    decimal.Decimal
	Start     TimePoint
	End       *TimePoint // nil = open-ended
	IsHoliday bool

	Entries []TimeEntry
}

// Multiplier is the conversion factor, defaulting to 1 when unset.
func (e Element) Multiplier() decimal.Decimal {
	if e.Factor.IsZero() {
		return decimal.NewFromInt(1)
	}
	return e.Factor
}

// ActiveOn reports whether the element accepts entries on day.
func (e Element) ActiveOn(day TimePoint) bool {
	if !e.Start.IsZero() && day.Before(e.Start) {
		return false
	}
	return e.End == nil || day.BeforeOrEqual(*e.End)
}

// ActiveIn reports whether the element's lifetime intersects p.
func (e Element) ActiveIn(p Period) bool {
	if p.IsEmpty() {
		return false
	}
	if e.End != nil && e.End.Before(p.Start) {
		return false
	}
	return e.Start.IsZero() || e.Start.BeforeOrEqual(p.End)
}

// =============================================================================
// TIME ENTRY - One booking per (element, user, day)
// =============================================================================

type TimeEntry struct {
	ID        EntryID
	Date      TimePoint
	ElementID ElementID
	UserID    UserID
	Value     string
	Unit      EntryUnit
	Duration  int64 // seconds, computed at write time
	Closed    bool
	Comment   string
}

// =============================================================================
// EMPLOYMENT - Work percentage over an interval
// =============================================================================

type Employment struct {
	ID     EmploymentID
	UserID UserID
	Start  TimePoint
	End    *TimePoint // nil = ongoing
	Scope  int        // percent of full time, 0-100
}

// Covers reports whether day falls inside [Start, End].
func (e Employment) Covers(day TimePoint) bool {
	if day.Before(e.Start) {
		return false
	}
	return e.End == nil || day.BeforeOrEqual(*e.End)
}

// Period returns the employment interval clipped to within.
func (e Employment) Period(within Period) Period {
	p := Period{Start: e.Start, End: within.End}
	if e.End != nil {
		p.End = *e.End
	}
	return p.Clip(within)
}

// Fraction is Scope as a 0..1 decimal.
func (e Employment) Fraction() decimal.Decimal {
	return decimal.NewFromInt(int64(e.Scope)).Div(decimal.NewFromInt(100))
}

// =============================================================================
// EMPLOYMENT PROFILE - Yearly plan values for one user
// =============================================================================

type ProfileField string

const (
	FieldPlannedVacations         ProfileField = "plannedVacations"
	FieldPlannedMixed             ProfileField = "plannedMixed"
	FieldPlannedQuali             ProfileField = "plannedQuali"
	FieldPlannedPremiums          ProfileField = "plannedPremiums"
	FieldTransferTotalLastYear    ProfileField = "transferTotalLastYear"
	FieldTransferOvertime         ProfileField = "transferOvertime"
	FieldTransferGrantedVacations ProfileField = "transferGrantedVacations"
	FieldTransferGrantedOvertime  ProfileField = "transferGrantedOvertime"
	FieldManualCorrection         ProfileField = "manualCorrection"
)

type Profile struct {
	UserID UserID
	Year   int

	PlannedVacations         decimal.Decimal
	PlannedMixed             decimal.Decimal
	PlannedQuali             decimal.Decimal
	PlannedPremiums          decimal.Decimal
	TransferTotalLastYear    decimal.Decimal
	TransferOvertime         decimal.Decimal
	TransferGrantedVacations decimal.Decimal
	TransferGrantedOvertime  decimal.Decimal
	ManualCorrection         decimal.Decimal

	Closed bool
}

// Field returns the value of a named profile field (zero for unknown names).
func (p Profile) Field(f ProfileField) decimal.Decimal {
	switch f {
	case FieldPlannedVacations:
		return p.PlannedVacations
	case FieldPlannedMixed:
		return p.PlannedMixed
	case FieldPlannedQuali:
		return p.PlannedQuali
	case FieldPlannedPremiums:
		return p.PlannedPremiums
	case FieldTransferTotalLastYear:
		return p.TransferTotalLastYear
	case FieldTransferOvertime:
		return p.TransferOvertime
	case FieldTransferGrantedVacations:
		return p.TransferGrantedVacations
	case FieldTransferGrantedOvertime:
		return p.TransferGrantedOvertime
	case FieldManualCorrection:
		return p.ManualCorrection
	default:
		return decimal.Zero
	}
}

// =============================================================================
// HOLIDAY / SETPOINT
// =============================================================================

// Holiday is a calendar-wide non-working day (or part of one).
type Holiday struct {
	ID       string
	Date     TimePoint
	Label    string
	Duration int64 // seconds of a full-time day
	Value    string
}

// Hours is the full-time hour length of the holiday; a holiday without a
// duration covers a whole day.
func (h Holiday) Hours() decimal.Decimal {
	if h.Duration <= 0 {
		return DayHours
	}
	return SecondsAsHours(h.Duration)
}

// Setpoint is the yearly plan value of one dynamic element for one user.
type Setpoint struct {
	ElementID ElementID
	UserID    UserID
	Year      int
	Value     decimal.Decimal
}
