/*
Package postgres provides a PostgreSQL implementation of generic.ReadWriter.

PURPOSE:
  Production storage behind the report server. Same tables and invariants
  as store/sqlite, with native DATE / NUMERIC columns and database-level
  concurrency control instead of a process mutex.

CONCURRENCY:
  Writes that check an invariant across rows (employment overlap, one entry
  per day) take a transaction-scoped advisory lock on the user, so two
  concurrent seeds for the same user serialize.

USAGE:
  store, err := postgres.New(ctx, os.Getenv("DATABASE_URL"))
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - store/sqlite: Embedded implementation used for demos and tests
*/
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warp/timereport/generic"
	"github.com/warp/timereport/generic/store"
)

// Querier is satisfied by both the pool and a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
}

// New connects, pings and migrates.
func New(ctx context.Context, dsn string) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	config.MaxConns = 25
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := NewWithPool(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
	CREATE TABLE IF NOT EXISTS elements (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		unit TEXT NOT NULL,
		label TEXT NOT NULL,
		project TEXT NOT NULL DEFAULT '',
		factor NUMERIC NOT NULL DEFAULT 0,
		start_date DATE,
		end_date DATE,
		is_holiday BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		element_id TEXT NOT NULL REFERENCES elements(id),
		user_id TEXT NOT NULL,
		date DATE NOT NULL,
		value TEXT NOT NULL,
		unit TEXT NOT NULL,
		duration BIGINT NOT NULL,
		closed BOOLEAN NOT NULL DEFAULT FALSE,
		comment TEXT NOT NULL DEFAULT '',
		UNIQUE (element_id, user_id, date)
	);

	CREATE INDEX IF NOT EXISTS idx_entries_user_date ON entries(user_id, date);

	CREATE TABLE IF NOT EXISTS employments (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE,
		scope INTEGER NOT NULL CHECK (scope BETWEEN 0 AND 100)
	);

	CREATE INDEX IF NOT EXISTS idx_employments_user ON employments(user_id, start_date);

	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		planned_vacations NUMERIC NOT NULL DEFAULT 0,
		planned_mixed NUMERIC NOT NULL DEFAULT 0,
		planned_quali NUMERIC NOT NULL DEFAULT 0,
		planned_premiums NUMERIC NOT NULL DEFAULT 0,
		transfer_total_last_year NUMERIC NOT NULL DEFAULT 0,
		transfer_overtime NUMERIC NOT NULL DEFAULT 0,
		transfer_granted_vacations NUMERIC NOT NULL DEFAULT 0,
		transfer_granted_overtime NUMERIC NOT NULL DEFAULT 0,
		manual_correction NUMERIC NOT NULL DEFAULT 0,
		closed BOOLEAN NOT NULL DEFAULT FALSE,
		PRIMARY KEY (user_id, year)
	);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date DATE NOT NULL UNIQUE,
		label TEXT NOT NULL,
		duration BIGINT NOT NULL DEFAULT 0,
		value TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS setpoints (
		element_id TEXT NOT NULL REFERENCES elements(id),
		user_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		value NUMERIC NOT NULL,
		PRIMARY KEY (element_id, user_id, year)
	);
	`)
	return err
}

// WithTransaction executes fn inside a database transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// =============================================================================
// READ PATH
// =============================================================================

func (s *Store) Elements(ctx context.Context, q generic.ElementQuery) ([]generic.Element, error) {
	if q.Period.IsEmpty() {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, type, unit, label, project, factor::text, start_date, end_date, is_holiday
		FROM elements
		WHERE (start_date IS NULL OR start_date <= $1)
		  AND (end_date IS NULL OR end_date >= $2)
		  AND ($3 = '' OR type = $3)
		  AND ($4 = '' OR label = $4)
	`, q.Period.End.Time, q.Period.Start.Time, string(q.Type), q.Label)
	if err != nil {
		return nil, fmt.Errorf("failed to query elements: %w", err)
	}
	defer rows.Close()

	var result []generic.Element
	index := make(map[generic.ElementID]int)
	for rows.Next() {
		var (
			el         generic.Element
			start, end *time.Time
		)
		if err := rows.Scan(&el.ID, &el.Type, &el.Unit, &el.Label, &el.Project, &el.Factor, &start, &end, &el.IsHoliday); err != nil {
			return nil, err
		}
		if start != nil {
			el.Start = generic.DayOf(*start)
		}
		el.End = optionalDay(end)
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
	rows, err := s.pool.Query(ctx, `
		SELECT id, element_id, user_id, date, value, unit, duration, closed, comment
		FROM entries
		WHERE user_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`, string(user), p.Start.Time, p.End.Time)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var result []generic.TimeEntry
	for rows.Next() {
		var (
			e    generic.TimeEntry
			date time.Time
		)
		if err := rows.Scan(&e.ID, &e.ElementID, &e.UserID, &date, &e.Value, &e.Unit, &e.Duration, &e.Closed, &e.Comment); err != nil {
			return nil, err
		}
		e.Date = generic.DayOf(date)
		result = append(result, e)
	}
	return result, rows.Err()
}

func (s *Store) Profile(ctx context.Context, user generic.UserID, year int) (*generic.Profile, error) {
	p := generic.Profile{UserID: user, Year: year}
	err := s.pool.QueryRow(ctx, `
		SELECT planned_vacations::text, planned_mixed::text, planned_quali::text, planned_premiums::text,
		       transfer_total_last_year::text, transfer_overtime::text, transfer_granted_vacations::text,
		       transfer_granted_overtime::text, manual_correction::text, closed
		FROM profiles
		WHERE user_id = $1 AND year = $2
	`, string(user), year).Scan(
		&p.PlannedVacations, &p.PlannedMixed, &p.PlannedQuali, &p.PlannedPremiums,
		&p.TransferTotalLastYear, &p.TransferOvertime, &p.TransferGrantedVacations,
		&p.TransferGrantedOvertime, &p.ManualCorrection, &p.Closed,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	return &p, nil
}

func (s *Store) Setpoints(ctx context.Context, user generic.UserID, year int) ([]generic.Setpoint, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT element_id, value::text FROM setpoints
		WHERE user_id = $1 AND year = $2
		ORDER BY element_id
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
	rows, err := s.pool.Query(ctx, `
		SELECT id, date, label, duration, value FROM holidays
		WHERE date BETWEEN $1 AND $2
		ORDER BY date
	`, p.Start.Time, p.End.Time)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var result []generic.Holiday
	for rows.Next() {
		var (
			h    generic.Holiday
			date time.Time
		)
		if err := rows.Scan(&h.ID, &date, &h.Label, &h.Duration, &h.Value); err != nil {
			return nil, err
		}
		h.Date = generic.DayOf(date)
		result = append(result, h)
	}
	return result, rows.Err()
}

func (s *Store) EmploymentIntersections(ctx context.Context, q generic.EmploymentQuery) ([]generic.Employment, error) {
	return queryEmployments(ctx, s.pool, q)
}

func queryEmployments(ctx context.Context, db Querier, q generic.EmploymentQuery) ([]generic.Employment, error) {
	rows, err := db.Query(ctx, `
		SELECT id, user_id, start_date, end_date, scope FROM employments
		WHERE user_id = $1 AND id <> $2
		  AND start_date <= $3 AND (end_date IS NULL OR end_date >= $4)
		ORDER BY start_date
	`, string(q.UserID), string(q.ExcludeID), q.Period.End.Time, q.Period.Start.Time)
	if err != nil {
		return nil, fmt.Errorf("failed to query employments: %w", err)
	}
	defer rows.Close()

	var result []generic.Employment
	for rows.Next() {
		var (
			e     generic.Employment
			start time.Time
			end   *time.Time
		)
		if err := rows.Scan(&e.ID, &e.UserID, &start, &end, &e.Scope); err != nil {
			return nil, err
		}
		e.Start = generic.DayOf(start)
		e.End = optionalDay(end)
		result = append(result, e)
	}
	return result, rows.Err()
}

// =============================================================================
// WRITE PATH
// =============================================================================

func (s *Store) SaveElement(ctx context.Context, el generic.Element) error {
	if el.ID == "" {
		el.ID = generic.ElementID(uuid.NewString())
	}
	if !el.Unit.IsValid() {
		return fmt.Errorf("%w: element %s has unit %q", generic.ErrInvalidValue, el.Label, el.Unit)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO elements (id, type, unit, label, project, factor, start_date, end_date, is_holiday)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			type = EXCLUDED.type, unit = EXCLUDED.unit, label = EXCLUDED.label,
			project = EXCLUDED.project, factor = EXCLUDED.factor,
			start_date = EXCLUDED.start_date, end_date = EXCLUDED.end_date,
			is_holiday = EXCLUDED.is_holiday
	`, string(el.ID), string(el.Type), string(el.Unit), el.Label, el.Project,
		el.Factor.String(), optionalTime(&el.Start), optionalTime(el.End), el.IsHoliday)
	if err != nil {
		return fmt.Errorf("failed to save element: %w", err)
	}
	return nil
}

func (s *Store) SaveEmployment(ctx context.Context, e generic.Employment) error {
	if err := generic.ValidateEmployment(e); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = generic.EmploymentID(uuid.NewString())
	}
	return s.WithTransaction(ctx, func(tx pgx.Tx) error {
		if err := lockUser(ctx, tx, e.UserID); err != nil {
			return err
		}
		q := generic.EmploymentQuery{ExcludeID: e.ID, Period: generic.EmploymentSpan(e), UserID: e.UserID}
		overlapping, err := queryEmployments(ctx, tx, q)
		if err != nil {
			return err
		}
		if len(overlapping) > 0 {
			return fmt.Errorf("%w: %s intersects %s", generic.ErrEmploymentOverlap, q.Period, overlapping[0].ID)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO employments (id, user_id, start_date, end_date, scope)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				user_id = EXCLUDED.user_id, start_date = EXCLUDED.start_date,
				end_date = EXCLUDED.end_date, scope = EXCLUDED.scope
		`, string(e.ID), string(e.UserID), e.Start.Time, optionalTime(e.End), e.Scope)
		if err != nil {
			return fmt.Errorf("failed to save employment: %w", err)
		}
		return nil
	})
}

func (s *Store) SaveProfile(ctx context.Context, p generic.Profile) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (user_id, year, planned_vacations, planned_mixed, planned_quali,
			planned_premiums, transfer_total_last_year, transfer_overtime,
			transfer_granted_vacations, transfer_granted_overtime, manual_correction, closed)
		VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6::numeric, $7::numeric,
			$8::numeric, $9::numeric, $10::numeric, $11::numeric, $12)
		ON CONFLICT (user_id, year) DO UPDATE SET
			planned_vacations = EXCLUDED.planned_vacations,
			planned_mixed = EXCLUDED.planned_mixed,
			planned_quali = EXCLUDED.planned_quali,
			planned_premiums = EXCLUDED.planned_premiums,
			transfer_total_last_year = EXCLUDED.transfer_total_last_year,
			transfer_overtime = EXCLUDED.transfer_overtime,
			transfer_granted_vacations = EXCLUDED.transfer_granted_vacations,
			transfer_granted_overtime = EXCLUDED.transfer_granted_overtime,
			manual_correction = EXCLUDED.manual_correction,
			closed = EXCLUDED.closed
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

func (s *Store) SaveHoliday(ctx context.Context, h generic.Holiday) error {
	if h.Date.IsZero() {
		return fmt.Errorf("%w: holiday without date", generic.ErrInvalidValue)
	}
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO holidays (id, date, label, duration, value)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (date) DO UPDATE SET
			label = EXCLUDED.label, duration = EXCLUDED.duration, value = EXCLUDED.value
	`, h.ID, h.Date.Time, h.Label, h.Duration, h.Value)
	if err != nil {
		return fmt.Errorf("failed to save holiday: %w", err)
	}
	return nil
}

func (s *Store) SaveSetpoint(ctx context.Context, sp generic.Setpoint) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO setpoints (element_id, user_id, year, value)
		VALUES ($1, $2, $3, $4::numeric)
		ON CONFLICT (element_id, user_id, year) DO UPDATE SET value = EXCLUDED.value
	`, string(sp.ElementID), string(sp.UserID), sp.Year, sp.Value.String())
	if err != nil {
		return fmt.Errorf("failed to save setpoint: %w", err)
	}
	return nil
}

func (s *Store) SaveEntry(ctx context.Context, el generic.Element, e generic.TimeEntry) error {
	e, err := generic.PrepareEntry(el, e)
	if err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = generic.EntryID(uuid.NewString())
	}
	return s.WithTransaction(ctx, func(tx pgx.Tx) error {
		if err := lockUser(ctx, tx, e.UserID); err != nil {
			return err
		}
		var (
			existingID string
			closed     bool
		)
		err := tx.QueryRow(ctx, `
			SELECT id, closed FROM entries WHERE element_id = $1 AND user_id = $2 AND date = $3
		`, string(e.ElementID), string(e.UserID), e.Date.Time).Scan(&existingID, &closed)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
		case err != nil:
			return fmt.Errorf("failed to query entry: %w", err)
		case closed:
			return fmt.Errorf("%w: %s on %s", generic.ErrEntryClosed, el.Label, e.Date)
		case existingID != string(e.ID):
			return fmt.Errorf("%w: %s on %s", generic.ErrDuplicateEntry, el.Label, e.Date)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO entries (id, element_id, user_id, date, value, unit, duration, closed, comment)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				value = EXCLUDED.value, unit = EXCLUDED.unit, duration = EXCLUDED.duration,
				closed = EXCLUDED.closed, comment = EXCLUDED.comment
		`, string(e.ID), string(e.ElementID), string(e.UserID), e.Date.Time,
			e.Value, string(e.Unit), e.Duration, e.Closed, e.Comment)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return fmt.Errorf("%w: %s on %s", generic.ErrDuplicateEntry, el.Label, e.Date)
			}
			return fmt.Errorf("failed to save entry: %w", err)
		}
		return nil
	})
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE entries, setpoints, elements, employments, profiles, holidays`)
	return err
}

// Helper functions

func lockUser(ctx context.Context, tx pgx.Tx, user generic.UserID) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, string(user)); err != nil {
		return fmt.Errorf("failed to lock user: %w", err)
	}
	return nil
}

func optionalDay(t *time.Time) *generic.TimePoint {
	if t == nil {
		return nil
	}
	d := generic.DayOf(*t)
	return &d
}

func optionalTime(tp *generic.TimePoint) *time.Time {
	if tp == nil || tp.IsZero() {
		return nil
	}
	t := tp.Time
	return &t
}

var _ generic.ReadWriter = (*Store)(nil)
