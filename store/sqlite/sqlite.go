/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements generic.ReadWriter using SQLite. Reports read immutable
  snapshots through the Store half; the seeding path and the demo loader
  write through the Writer half.

INTERFACES IMPLEMENTED:
  generic.Store:  Read path used by the report snapshot loaders
  generic.Writer: Validated write path (entries, employments, plan data)

WRITE INVARIANTS:
  - One entry per (element, user, day), enforced by a UNIQUE constraint
  - Closed entries are never overwritten
  - Employments of one user never overlap (checked inside the write tx)
  - Entry durations are computed once at write time

KEY TABLES:
  elements:    Bookable positions with unit and factor
  entries:     Time entries with raw value and computed duration
  employments: Work percentage intervals per user
  profiles:    Yearly plan values per user
  holidays:    Calendar-wide holidays, one per date
  setpoints:   Yearly plan values of dynamic elements

DATES:
  Stored as YYYY-MM-DD text, so lexical and chronological order agree.
  Open employment and element ends are NULL.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. With PostgreSQL (store/postgres),
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so report reads don't
  block on a running seed.

USAGE:
  store, err := sqlite.New("./data/timereport.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  reporter := report.NewReporter(store, logger)

SEE ALSO:
  - generic/store.go: Interface definitions and shared write helpers
  - generic/store/memory.go: In-memory implementation for testing
  - store/postgres: pgx implementation of the same interfaces
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/timereport/generic"
	"github.com/warp/timereport/generic/store"
)

const openEnd = "9999-12-31"

// Store implements generic.ReadWriter using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	s := Open(db)
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Open wraps an existing handle without touching the schema.
func Open(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate creates the database schema.
func (s *Store) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS elements (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		unit TEXT NOT NULL,
		label TEXT NOT NULL,
		project TEXT NOT NULL DEFAULT '',
		factor TEXT NOT NULL DEFAULT '0',
		start_date TEXT NOT NULL DEFAULT '',
		end_date TEXT,
		is_holiday BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_elements_label ON elements(label);

	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		element_id TEXT NOT NULL REFERENCES elements(id),
		user_id TEXT NOT NULL,
		date TEXT NOT NULL,
		value TEXT NOT NULL,
		unit TEXT NOT NULL,
		duration INTEGER NOT NULL,
		closed BOOLEAN NOT NULL DEFAULT FALSE,
		comment TEXT NOT NULL DEFAULT '',
		UNIQUE(element_id, user_id, date)
	);

	-- Hot path: one user's entries in a date range
	CREATE INDEX IF NOT EXISTS idx_entries_user_date ON entries(user_id, date);

	CREATE TABLE IF NOT EXISTS employments (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT,
		scope INTEGER NOT NULL CHECK (scope BETWEEN 0 AND 100)
	);

	CREATE INDEX IF NOT EXISTS idx_employments_user ON employments(user_id, start_date);

	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		planned_vacations TEXT NOT NULL DEFAULT '0',
		planned_mixed TEXT NOT NULL DEFAULT '0',
		planned_quali TEXT NOT NULL DEFAULT '0',
		planned_premiums TEXT NOT NULL DEFAULT '0',
		transfer_total_last_year TEXT NOT NULL DEFAULT '0',
		transfer_overtime TEXT NOT NULL DEFAULT '0',
		transfer_granted_vacations TEXT NOT NULL DEFAULT '0',
		transfer_granted_overtime TEXT NOT NULL DEFAULT '0',
		manual_correction TEXT NOT NULL DEFAULT '0',
		closed BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (user_id, year)
	);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL UNIQUE,
		label TEXT NOT NULL,
		duration INTEGER NOT NULL DEFAULT 0,
		value TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS setpoints (
		element_id TEXT NOT NULL REFERENCES elements(id),
		user_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (element_id, user_id, year)
	);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// =============================================================================
// READ PATH (generic.Store interface)
// =============================================================================

// Elements returns elements active in q.Period, with q.UserID's entries
// attached when q.IncludeEntries is set.
func (s *Store) Elements(ctx context.Context, q generic.ElementQuery) ([]generic.Element, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if q.Period.IsEmpty() {
		return nil, nil
	}

	query := `
		SELECT id, type, unit, label, project, factor, start_date, end_date, is_holiday
		FROM elements
		WHERE (start_date = '' OR start_date <= ?)
		  AND (end_date IS NULL OR end_date >= ?)
	`
	args := []any{q.Period.End.String(), q.Period.Start.String()}
	if q.Type != "" {
		query += " AND type = ?"
		args = append(args, string(q.Type))
	}
	if q.Label != "" {
		query += " AND label = ?"
		args = append(args, q.Label)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query elements: %w", err)
	}
	defer rows.Close()

	var result []generic.Element
	index := make(map[generic.ElementID]int)
	for rows.Next() {
		el, err := scanElement(rows)
		if err != nil {
			return nil, err
		}
		index[el.ID] = len(result)
		result = append(result, el)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if q.IncludeEntries && len(result) > 0 {
		entries, err := s.entries(ctx, q.UserID, q.Period)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if i, ok := index[e.ElementID]; ok {
				result[i].Entries = append(result[i].Entries, e)
			}
		}
	}

	store.SortElements(result)
	return result, nil
}

func (s *Store) entries(ctx context.Context, user generic.UserID, p generic.Period) ([]generic.TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, element_id, user_id, date, value, unit, duration, closed, comment
		FROM entries
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, string(user), p.Start.String(), p.End.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var result []generic.TimeEntry
	for rows.Next() {
		var (
			e    generic.TimeEntry
			date string
		)
		if err := rows.Scan(&e.ID, &e.ElementID, &e.UserID, &date, &e.Value, &e.Unit, &e.Duration, &e.Closed, &e.Comment); err != nil {
			return nil, err
		}
		if e.Date, err = generic.ParseDate(date); err != nil {
			return nil, fmt.Errorf("entry %s: %w", e.ID, err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// Profile returns nil, nil when the user has no profile for year.
func (s *Store) Profile(ctx context.Context, user generic.UserID, year int) (*generic.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := generic.Profile{UserID: user, Year: year}
	err := s.db.QueryRowContext(ctx, `
		SELECT planned_vacations, planned_mixed, planned_quali, planned_premiums,
		       transfer_total_last_year, transfer_overtime, transfer_granted_vacations,
		       transfer_granted_overtime, manual_correction, closed
		FROM profiles
		WHERE user_id = ? AND year = ?
	`, string(user), year).Scan(
		&p.PlannedVacations, &p.PlannedMixed, &p.PlannedQuali, &p.PlannedPremiums,
		&p.TransferTotalLastYear, &p.TransferOvertime, &p.TransferGrantedVacations,
		&p.TransferGrantedOvertime, &p.ManualCorrection, &p.Closed,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	return &p, nil
}

func (s *Store) Setpoints(ctx context.Context, user generic.UserID, year int) ([]generic.Setpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT element_id, value FROM setpoints
		WHERE user_id = ? AND year = ?
		ORDER BY element_id ASC
	`, string(user), year)
	if err != nil {
		return nil, fmt.Errorf("failed to query setpoints: %w", err)
	}
	defer rows.Close()

	var result []generic.Setpoint
	for rows.Next() {
		sp := generic.Setpoint{UserID: user, Year: year}
		if err := rows.Scan(&sp.ElementID, &sp.Value); err != nil {
			return nil, err
		}
		result = append(result, sp)
	}
	return result, rows.Err()
}

func (s *Store) Holidays(ctx context.Context, p generic.Period) ([]generic.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, label, duration, value FROM holidays
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC
	`, p.Start.String(), p.End.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var result []generic.Holiday
	for rows.Next() {
		var (
			h    generic.Holiday
			date string
		)
		if err := rows.Scan(&h.ID, &date, &h.Label, &h.Duration, &h.Value); err != nil {
			return nil, err
		}
		if h.Date, err = generic.ParseDate(date); err != nil {
			return nil, fmt.Errorf("holiday %s: %w", h.ID, err)
		}
		result = append(result, h)
	}
	return result, rows.Err()
}

// EmploymentIntersections returns the user's employments intersecting
// q.Period, ordered by start.
func (s *Store) EmploymentIntersections(ctx context.Context, q generic.EmploymentQuery) ([]generic.Employment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryEmployments(ctx, s.db, q)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryEmployments(ctx context.Context, db querier, q generic.EmploymentQuery) ([]generic.Employment, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, start_date, end_date, scope FROM employments
		WHERE user_id = ? AND id != ?
		  AND start_date <= ? AND COALESCE(end_date, '`+openEnd+`') >= ?
		ORDER BY start_date ASC
	`, string(q.UserID), string(q.ExcludeID), q.Period.End.String(), q.Period.Start.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query employments: %w", err)
	}
	defer rows.Close()

	var result []generic.Employment
	for rows.Next() {
		var (
			e     generic.Employment
			start string
			end   sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.UserID, &start, &end, &e.Scope); err != nil {
			return nil, err
		}
		if e.Start, err = generic.ParseDate(start); err != nil {
			return nil, fmt.Errorf("employment %s: %w", e.ID, err)
		}
		if e.End, err = parseNullDate(end); err != nil {
			return nil, fmt.Errorf("employment %s: %w", e.ID, err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// =============================================================================
// WRITE PATH (generic.Writer interface)
// =============================================================================

func (s *Store) SaveElement(ctx context.Context, el generic.Element) error {
	if el.ID == "" {
		el.ID = generic.ElementID(uuid.NewString())
	}
	if !el.Unit.IsValid() {
		return fmt.Errorf("%w: element %s has unit %q", generic.ErrInvalidValue, el.Label, el.Unit)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO elements (id, type, unit, label, project, factor, start_date, end_date, is_holiday)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			type = excluded.type, unit = excluded.unit, label = excluded.label,
			project = excluded.project, factor = excluded.factor,
			start_date = excluded.start_date, end_date = excluded.end_date,
			is_holiday = excluded.is_holiday
	`, string(el.ID), string(el.Type), string(el.Unit), el.Label, el.Project,
		el.Factor.String(), el.Start.String(), nullDate(el.End), el.IsHoliday)
	if err != nil {
		return fmt.Errorf("failed to save element: %w", err)
	}
	return nil
}

// SaveEmployment inserts or replaces e (matched by ID) unless it overlaps
// another employment of the same user.
func (s *Store) SaveEmployment(ctx context.Context, e generic.Employment) error {
	if err := generic.ValidateEmployment(e); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = generic.EmploymentID(uuid.NewString())
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := generic.EmploymentQuery{ExcludeID: e.ID, Period: generic.EmploymentSpan(e), UserID: e.UserID}
	overlapping, err := queryEmployments(ctx, tx, q)
	if err != nil {
		return err
	}
	if len(overlapping) > 0 {
		return fmt.Errorf("%w: %s intersects %s", generic.ErrEmploymentOverlap, q.Period, overlapping[0].ID)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO employments (id, user_id, start_date, end_date, scope)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id, start_date = excluded.start_date,
			end_date = excluded.end_date, scope = excluded.scope
	`, string(e.ID), string(e.UserID), e.Start.String(), nullDate(e.End), e.Scope)
	if err != nil {
		return fmt.Errorf("failed to save employment: %w", err)
	}
	return tx.Commit()
}

func (s *Store) SaveProfile(ctx context.Context, p generic.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, year, planned_vacations, planned_mixed, planned_quali,
			planned_premiums, transfer_total_last_year, transfer_overtime,
			transfer_granted_vacations, transfer_granted_overtime, manual_correction, closed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, year) DO UPDATE SET
			planned_vacations = excluded.planned_vacations,
			planned_mixed = excluded.planned_mixed,
			planned_quali = excluded.planned_quali,
			planned_premiums = excluded.planned_premiums,
			transfer_total_last_year = excluded.transfer_total_last_year,
			transfer_overtime = excluded.transfer_overtime,
			transfer_granted_vacations = excluded.transfer_granted_vacations,
			transfer_granted_overtime = excluded.transfer_granted_overtime,
			manual_correction = excluded.manual_correction,
			closed = excluded.closed
	`, string(p.UserID), p.Year,
		p.PlannedVacations.String(), p.PlannedMixed.String(), p.PlannedQuali.String(),
		p.PlannedPremiums.String(), p.TransferTotalLastYear.String(), p.TransferOvertime.String(),
		p.TransferGrantedVacations.String(), p.TransferGrantedOvertime.String(),
		p.ManualCorrection.String(), p.Closed)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// SaveHoliday upserts by date; a date carries at most one holiday.
func (s *Store) SaveHoliday(ctx context.Context, h generic.Holiday) error {
	if h.Date.IsZero() {
		return fmt.Errorf("%w: holiday without date", generic.ErrInvalidValue)
	}
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO holidays (id, date, label, duration, value)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			label = excluded.label, duration = excluded.duration, value = excluded.value
	`, h.ID, h.Date.String(), h.Label, h.Duration, h.Value)
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

func (s *Store) SaveSetpoint(ctx context.Context, sp generic.Setpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO setpoints (element_id, user_id, year, value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(element_id, user_id, year) DO UPDATE SET value = excluded.value
	`, string(sp.ElementID), string(sp.UserID), sp.Year, sp.Value.String())
	if err != nil {
		return fmt.Errorf("failed to save setpoint: %w", err)
	}
	return nil
}

// SaveEntry validates e against el and upserts it by (element, user, day).
func (s *Store) SaveEntry(ctx context.Context, el generic.Element, e generic.TimeEntry) error {
	e, err := generic.PrepareEntry(el, e)
	if err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = generic.EntryID(uuid.NewString())
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		existingID string
		closed     bool
	)
	err = tx.QueryRowContext(ctx, `
		SELECT id, closed FROM entries WHERE element_id = ? AND user_id = ? AND date = ?
	`, string(e.ElementID), string(e.UserID), e.Date.String()).Scan(&existingID, &closed)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("failed to query entry: %w", err)
	case closed:
		return fmt.Errorf("%w: %s on %s", generic.ErrEntryClosed, el.Label, e.Date)
	case existingID != string(e.ID):
		return fmt.Errorf("%w: %s on %s", generic.ErrDuplicateEntry, el.Label, e.Date)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO entries (id, element_id, user_id, date, value, unit, duration, closed, comment)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			value = excluded.value, unit = excluded.unit, duration = excluded.duration,
			closed = excluded.closed, comment = excluded.comment
	`, string(e.ID), string(e.ElementID), string(e.UserID), e.Date.String(),
		e.Value, string(e.Unit), e.Duration, e.Closed, e.Comment)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: %s on %s", generic.ErrDuplicateEntry, el.Label, e.Date)
		}
		return fmt.Errorf("failed to save entry: %w", err)
	}
	return tx.Commit()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"entries", "setpoints", "elements", "employments", "profiles", "holidays"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func scanElement(rows *sql.Rows) (generic.Element, error) {
	var (
		el     generic.Element
		factor decimal.Decimal
		start  string
		end    sql.NullString
	)
	if err := rows.Scan(&el.ID, &el.Type, &el.Unit, &el.Label, &el.Project, &factor, &start, &end, &el.IsHoliday); err != nil {
		return el, err
	}
	el.Factor = factor
	var err error
	if start != "" {
		if el.Start, err = generic.ParseDate(start); err != nil {
			return el, fmt.Errorf("element %s: %w", el.ID, err)
		}
	}
	if el.End, err = parseNullDate(end); err != nil {
		return el, fmt.Errorf("element %s: %w", el.ID, err)
	}
	return el, nil
}

func nullDate(tp *generic.TimePoint) sql.NullString {
	if tp == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: tp.String(), Valid: true}
}

func parseNullDate(s sql.NullString) (*generic.TimePoint, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := generic.ParseDate(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ generic.ReadWriter = (*Store)(nil)

