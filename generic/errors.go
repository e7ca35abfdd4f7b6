/*
errors.go - Centralized error types for the reporting engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers branch with errors.Is / errors.As, the HTTP layer maps them to
  status codes through StatusOf.

ERROR CATEGORIES:
  1. Parameter errors - Rejected request parameters, raised before any fetch
  2. Data errors - Missing profile or persistence failure, surfaced verbatim
  3. Write errors - Invariants enforced when entities are stored

Malformed stored values are NOT errors: aggregation converts them to a zero
contribution (see units.go).

SEE ALSO:
  - report/params.go: Raises parameter errors
  - store/sqlite/sqlite.go: Raises write errors
*/
package generic

import (
	"errors"
	"fmt"
	"net/http"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

// Parameter errors.
var (
	ErrMissingStart = errors.New("start date is required")
	ErrMissingEnd   = errors.New("end date is required")
	ErrMissingUser  = errors.New("user id is required")
	ErrInvalidDate  = errors.New("invalid date, expected YYYY-MM-DD")

	// ErrInvalidRange is returned when start and end are not in the same
	// calendar year or end precedes start.
	ErrInvalidRange = errors.New("start and end must be in the same year, start before end")

	ErrAggregatedCompact  = errors.New("aggregated and compact cannot be combined")
	ErrAggregatedComments = errors.New("aggregated and comments cannot be combined")
	ErrPositionComments   = errors.New("position and comments cannot be combined")
	ErrInvalidPosition    = errors.New("unknown position")
	ErrInvalidShape       = errors.New("unknown output shape")
)

// Data errors.
var (
	// ErrProfileMissing is returned when the user has no employment profile
	// for the requested year. Composite reports cannot be computed without it.
	ErrProfileMissing = errors.New("employment profile missing for year")

	ErrEntityNotFound = errors.New("entity not found")
)

// Write errors.
var (
	ErrEmploymentOverlap = errors.New("employment overlaps an existing employment")
	ErrDuplicateEntry    = errors.New("entry already exists for element, user and day")
	ErrEntryClosed       = errors.New("entry is closed")
	ErrInvalidValue      = errors.New("invalid value")
	ErrElementInactive   = errors.New("element is not active on that day")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ParameterError names the offending request parameter.
type ParameterError struct {
	Field string
	Err   error
}

func NewParameterError(field string, err error) *ParameterError {
	return &ParameterError{Field: field, Err: err}
}

func (e *ParameterError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ParameterError) Unwrap() error { return e.Err }

// Status is always 400.
func (e *ParameterError) Status() int { return http.StatusBadRequest }

// DataError carries an HTTP-style status next to the underlying error.
type DataError struct {
	Status int
	Err    error
}

func (e *DataError) Error() string { return e.Err.Error() }
func (e *DataError) Unwrap() error { return e.Err }

// ProfileMissing builds the 400 data error for (user, year).
func ProfileMissing(user UserID, year int) *DataError {
	return &DataError{
		Status: http.StatusBadRequest,
		Err:    fmt.Errorf("%w: user %s, year %d", ErrProfileMissing, user, year),
	}
}

// Persistence wraps a store failure as a 500 data error. nil stays nil and
// errors that already are data or parameter errors pass through.
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	var de *DataError
	var pe *ParameterError
	if errors.As(err, &de) || errors.As(err, &pe) {
		return err
	}
	return &DataError{Status: http.StatusInternalServerError, Err: err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return StatusOf(err) == http.StatusBadRequest ||
		errors.Is(err, ErrEmploymentOverlap) ||
		errors.Is(err, ErrDuplicateEntry) ||
		errors.Is(err, ErrEntryClosed) ||
		errors.Is(err, ErrInvalidValue) ||
		errors.Is(err, ErrElementInactive)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntityNotFound)
}

// StatusOf returns the HTTP-style status carried by err, 500 if none.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var pe *ParameterError
	if errors.As(err, &pe) {
		return pe.Status()
	}
	var de *DataError
	if errors.As(err, &de) && de.Status != 0 {
		return de.Status
	}
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, ErrEmploymentOverlap), errors.Is(err, ErrDuplicateEntry), errors.Is(err, ErrEntryClosed):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidValue), errors.Is(err, ErrInvalidDate), errors.Is(err, ErrElementInactive):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
