package generic

// =============================================================================
// PERIOD - Inclusive date range, the unit every report is computed for
// =============================================================================

// Period defines the [Start, End] boundary of a calculation. Both ends are
// inclusive. A zero Period (or one whose End precedes its Start) is empty:
// it enumerates no days and counts zero working days.
type Period struct {
	Start TimePoint
	End   TimePoint
}

// ParsePeriod builds a Period from two YYYY-MM-DD strings. Unparseable input
// yields an empty Period instead of an error; callers that need to reject bad
// dates validate them up front.
func ParsePeriod(start, end string) Period {
	s, err := ParseDate(start)
	if err != nil {
		return Period{}
	}
	e, err := ParseDate(end)
	if err != nil {
		return Period{}
	}
	return Period{Start: s, End: e}
}

// YearPeriod returns Jan 1 - Dec 31 of year.
func YearPeriod(year int) Period {
	return Period{Start: StartOfYear(year), End: EndOfYear(year)}
}

// IsEmpty reports whether the period contains no day.
func (p Period) IsEmpty() bool {
	return p.Start.IsZero() || p.End.IsZero() || p.End.Before(p.Start)
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	if p.IsEmpty() {
		return false
	}
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// SameYear reports whether both ends fall in one calendar year.
func (p Period) SameYear() bool {
	return p.Start.Year() == p.End.Year()
}

// Year is the calendar year of the period start.
func (p Period) Year() int { return p.Start.Year() }

// Clip returns the intersection of p and other (empty if they do not overlap).
func (p Period) Clip(other Period) Period {
	if p.IsEmpty() || other.IsEmpty() {
		return Period{}
	}
	out := p
	if other.Start.After(out.Start) {
		out.Start = other.Start
	}
	if other.End.Before(out.End) {
		out.End = other.End
	}
	if out.IsEmpty() {
		return Period{}
	}
	return out
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	if p.IsEmpty() {
		return nil
	}
	days := make([]TimePoint, 0, DaysBetween(p.Start, p.End)+1)
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Weekdays returns the Monday-Friday days of the period.
func (p Period) Weekdays() []TimePoint {
	var days []TimePoint
	for _, d := range p.Days() {
		if d.IsWorkday() {
			days = append(days, d)
		}
	}
	return days
}

// WorkdayCount counts Monday-Friday days without materializing them.
func (p Period) WorkdayCount() int {
	n := 0
	for _, d := range p.Days() {
		if d.IsWorkday() {
			n++
		}
	}
	return n
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
