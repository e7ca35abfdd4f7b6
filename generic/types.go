/*
Package generic provides the calendar and quantity foundation of the
time-accounting engine.

PURPOSE:
  This package contains the domain-agnostic types every aggregator builds on:
  quantities with a unit, calendar days, employment scope resolution, raw value
  conversion, and the read-only persistence contract. The report package
  combines them into indicator, element and time-series reports.

KEY CONCEPTS IN THIS FILE (types.go):
  - Unit: The unit a reported figure is expressed in (days or hours)
  - Identifiers: Type-safe user/element/entry IDs

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal so sums reconcile exactly
  2. Rounding: Derived values are rounded half-up to 2 decimals where they are
     computed, not only when they are displayed
  3. Type Safety: Strong typing for IDs prevents mixing users and elements

USAGE:
  hours := generic.Round2(generic.DaysToHours(decimal.NewFromInt(25)))

SEE ALSO:
  - time.go: TimePoint (calendar day)
  - period.go: Period (inclusive date range)
  - scope.go: Employment scope resolution
  - units.go: Raw value conversion
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// UNITS AND ROUNDING
// =============================================================================

// Unit labels a reported figure.
type Unit string

const (
	UnitDays  Unit = "days"
	UnitHours Unit = "hours"
)

// Precision is the number of decimals every reported figure is rounded to.
const Precision = 2

// MustParseDecimal parses s, returning zero for malformed input.
func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Round2 rounds half away from zero to two decimals.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(Precision) }

// =============================================================================
// IDENTIFIERS
// =============================================================================

type UserID string
type ElementID string
type EntryID string
type EmploymentID string
