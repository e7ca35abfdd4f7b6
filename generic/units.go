package generic

import (
	"fmt"
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENTRY UNITS - How a raw booked value is encoded
// =============================================================================

type EntryUnit string

const (
	EntryDay    EntryUnit = "day"    // fraction of a full day, 0..1
	EntryHour   EntryUnit = "hour"   // decimal hours, 0 < h < 24
	EntryRange  EntryUnit = "range"  // "HH:MM-HH:MM"
	EntryLesson EntryUnit = "lesson" // lesson count, scaled by the element factor
	EntryNumber EntryUnit = "number" // same grammar as hour
	EntryText   EntryUnit = "text"   // free-form remark, never aggregated
)

const (
	SecondsPerHour = 3600
	MaxTextLength  = 254
)

// DayHours is the length of a full-time working day.
var DayHours = decimal.RequireFromString("8.4")

var (
	secondsPerHour = decimal.NewFromInt(SecondsPerHour)
	maxDayHours    = decimal.NewFromInt(24)
	one            = decimal.NewFromInt(1)
	rangePattern   = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)-([01]\d|2[0-3]):([0-5]\d)$`)
)

func (u EntryUnit) IsValid() bool {
	switch u {
	case EntryDay, EntryHour, EntryRange, EntryLesson, EntryNumber, EntryText:
		return true
	}
	return false
}

// Validate checks raw against the grammar of u. It is used on the write path
// only; aggregation never rejects stored values.
func (u EntryUnit) Validate(raw string) error {
	switch u {
	case EntryDay:
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() || d.GreaterThan(one) {
			return fmt.Errorf("%w: day value %q must be between 0 and 1", ErrInvalidValue, raw)
		}
	case EntryHour, EntryNumber:
		d, err := decimal.NewFromString(raw)
		if err != nil || !d.IsPositive() || !d.LessThan(maxDayHours) {
			return fmt.Errorf("%w: hour value %q must be greater than 0 and less than 24", ErrInvalidValue, raw)
		}
	case EntryRange:
		if !rangePattern.MatchString(raw) {
			return fmt.Errorf("%w: range %q must look like HH:MM-HH:MM", ErrInvalidValue, raw)
		}
	case EntryLesson:
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() {
			return fmt.Errorf("%w: lesson count %q must be a non-negative number", ErrInvalidValue, raw)
		}
	case EntryText:
		if utf8.RuneCountInString(raw) > MaxTextLength {
			return fmt.Errorf("%w: text longer than %d characters", ErrInvalidValue, MaxTextLength)
		}
	default:
		return fmt.Errorf("%w: unknown unit %q", ErrInvalidValue, u)
	}
	return nil
}

// Duration converts raw into seconds. Invalid input converts to 0 instead of
// failing. factor only applies to lessons; a zero factor counts as 1.
func Duration(u EntryUnit, raw string, factor decimal.Decimal) int64 {
	if u.Validate(raw) != nil {
		return 0
	}
	switch u {
	case EntryDay:
		return DurationFromHours(DaysToHours(MustParseDecimal(raw)))
	case EntryHour, EntryNumber:
		return DurationFromHours(MustParseDecimal(raw))
	case EntryRange:
		return rangeSeconds(raw)
	case EntryLesson:
		if factor.IsZero() {
			factor = one
		}
		return DurationFromHours(MustParseDecimal(raw).Mul(factor))
	default:
		return 0
	}
}

func rangeSeconds(raw string) int64 {
	m := rangePattern.FindStringSubmatch(raw)
	if m == nil {
		return 0
	}
	from := clockSeconds(m[1], m[2])
	to := clockSeconds(m[3], m[4])
	if to < from {
		return 0
	}
	return to - from
}

func clockSeconds(hh, mm string) int64 {
	h, _ := strconv.Atoi(hh)
	m, _ := strconv.Atoi(mm)
	return int64(h*SecondsPerHour + m*60)
}

// =============================================================================
// HOUR CONVERSIONS
// =============================================================================

// DaysToHours multiplies a full-time day count by DayHours. Not rounded.
func DaysToHours(days decimal.Decimal) decimal.Decimal {
	return days.Mul(DayHours)
}

// SecondsAsHours converts seconds into decimal hours rounded to 2 decimals.
func SecondsAsHours(seconds int64) decimal.Decimal {
	return Round2(decimal.NewFromInt(seconds).Div(secondsPerHour))
}

// DurationFromHours rounds h to 2 decimals and converts it into seconds.
// 0.01h is 36s, so the result is exact and SecondsAsHours inverts it.
func DurationFromHours(h decimal.Decimal) int64 {
	return Round2(h).Mul(secondsPerHour).IntPart()
}

// FormatHours renders hours with exactly two decimals.
func FormatHours(h decimal.Decimal) string {
	return Round2(h).StringFixed(Precision)
}
