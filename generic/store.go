/*
store.go - Persistence interface consumed by the reporting engine

PURPOSE:
  Defines the boundary between the aggregators and the database. The
  engine only reads already-filtered, immutable snapshots; writes exist for
  seeding and are guarded by the invariants below.

KEY INTERFACES:
  Store:  Read path (elements with entries, profile, setpoints, holidays,
          employment intersections)
  Writer: Write path used by seeding and the CLI
  ReadWriter: Both

WRITE INVARIANTS:
  - At most one entry per (element, user, day): ErrDuplicateEntry
  - Closed entries are immutable: ErrEntryClosed
  - Employments of one user never overlap: ErrEmploymentOverlap
  - Raw values match their unit grammar: ErrInvalidValue

IMPLEMENTATIONS:
  - generic/store/memory.go: In-memory for testing
  - store/sqlite/sqlite.go: SQLite
  - store/postgres/postgres.go: PostgreSQL

SEE ALSO:
  - report/all.go: Fans the read path out concurrently
*/
package generic

import (
	"context"
	"fmt"
)

// =============================================================================
// QUERIES
// =============================================================================

// ElementQuery selects elements active in Period. Empty Type / Label match
// any. With IncludeEntries, each element carries UserID's entries inside Period.
type ElementQuery struct {
	Period         Period
	UserID         UserID
	Type           ElementType
	Label          string
	IncludeEntries bool
}

// Matches reports whether el passes the query's element-level filters.
func (q ElementQuery) Matches(el Element) bool {
	if q.Type != "" && el.Type != q.Type {
		return false
	}
	if q.Label != "" && el.Label != q.Label {
		return false
	}
	return el.ActiveIn(q.Period)
}

// EmploymentQuery selects UserID's employments intersecting Period, except
// ExcludeID (used when an existing employment is being updated).
type EmploymentQuery struct {
	ExcludeID EmploymentID
	Period    Period
	UserID    UserID
}

// Matches reports whether e intersects the query.
func (q EmploymentQuery) Matches(e Employment) bool {
	if e.UserID != q.UserID || (q.ExcludeID != "" && e.ID == q.ExcludeID) {
		return false
	}
	return !e.Period(q.Period).IsEmpty()
}

// =============================================================================
// STORE - Read path
// =============================================================================

type Store interface {
	// Elements returns matching elements ordered by project, label, id.
	// Entries are ordered by date.
	Elements(ctx context.Context, q ElementQuery) ([]Element, error)

	// Profile returns (nil, nil) when no profile exists for (user, year).
	Profile(ctx context.Context, user UserID, year int) (*Profile, error)

	Setpoints(ctx context.Context, user UserID, year int) ([]Setpoint, error)

	// Holidays returns holidays inside p ordered by date.
	Holidays(ctx context.Context, p Period) ([]Holiday, error)

	// EmploymentIntersections returns employments ordered by start.
	EmploymentIntersections(ctx context.Context, q EmploymentQuery) ([]Employment, error)
}

// =============================================================================
// WRITER - Seeding path
// =============================================================================

type Writer interface {
	SaveElement(ctx context.Context, el Element) error
	SaveEmployment(ctx context.Context, e Employment) error
	SaveProfile(ctx context.Context, p Profile) error
	SaveHoliday(ctx context.Context, h Holiday) error
	SaveSetpoint(ctx context.Context, s Setpoint) error

	// SaveEntry validates the raw value against el, computes the duration and
	// upserts by (element, user, day).
	SaveEntry(ctx context.Context, el Element, e TimeEntry) error
}

type ReadWriter interface {
	Store
	Writer
}

// =============================================================================
// WRITE HELPERS - Shared by every implementation
// =============================================================================

// PrepareEntry validates e against its element and fills Unit and Duration.
func PrepareEntry(el Element, e TimeEntry) (TimeEntry, error) {
	if e.ElementID == "" {
		e.ElementID = el.ID
	}
	if e.ElementID != el.ID {
		return e, fmt.Errorf("%w: entry references element %s, got %s", ErrInvalidValue, e.ElementID, el.ID)
	}
	if e.UserID == "" {
		return e, fmt.Errorf("%w: entry without user", ErrInvalidValue)
	}
	if e.Date.IsZero() {
		return e, fmt.Errorf("%w: entry without date", ErrInvalidValue)
	}
	if !el.ActiveOn(e.Date) {
		return e, fmt.Errorf("%w: %s on %s", ErrElementInactive, el.Label, e.Date)
	}
	e.Unit = el.Unit
	if err := el.Unit.Validate(e.Value); err != nil {
		return e, err
	}
	e.Duration = Duration(el.Unit, e.Value, el.Multiplier())
	return e, nil
}

// ValidateEmployment checks scope bounds and interval order.
func ValidateEmployment(e Employment) error {
	if e.UserID == "" {
		return fmt.Errorf("%w: employment without user", ErrInvalidValue)
	}
	if e.Scope < 0 || e.Scope > 100 {
		return fmt.Errorf("%w: scope %d outside 0-100", ErrInvalidValue, e.Scope)
	}
	if e.Start.IsZero() {
		return fmt.Errorf("%w: employment without start", ErrInvalidValue)
	}
	if e.End != nil && e.End.Before(e.Start) {
		return fmt.Errorf("%w: employment ends before it starts", ErrInvalidValue)
	}
	return nil
}

// EmploymentSpan is the interval an overlap check has to look at.
func EmploymentSpan(e Employment) Period {
	end := NewTimePoint(9999, 12, 31)
	if e.End != nil {
		end = *e.End
	}
	return Period{Start: e.Start, End: end}
}
