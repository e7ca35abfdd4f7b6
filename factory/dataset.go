/*
Package factory provides JSON to Go dataset conversion.

PURPOSE:
  Converts JSON seed files into generic entities and writes them through a
  generic.Writer. Every value is validated the way the write path validates
  it, so a seeded store only ever holds entries the reports can trust.

JSON SCHEMA:
  {
    "elements": [
      {"id": "math", "type": "dynamic", "unit": "lesson", "label": "Mathematik",
       "project": "Gymnasium", "factor": 0.75, "start": "2020-01-01"}
    ],
    "employments": [
      {"user_id": "u1", "start": "2025-01-01", "end": "2025-06-30", "scope": 80}
    ],
    "profiles": [
      {"user_id": "u1", "year": 2025, "planned_vacations": 25}
    ],
    "holidays": [{"date": "2025-08-01", "label": "Bundesfeier"}],
    "setpoints": [{"element_id": "math", "user_id": "u1", "year": 2025, "value": 40}],
    "entries": [
      {"element_label": "Ferien", "user_id": "u1", "date": "2025-02-10", "value": "1"}
    ]
  }

VALIDATION:
  - Units and element types must be known
  - Entry values must match the element unit grammar
  - Entries must fall inside the element lifetime
  - Employments of one user must not overlap

USAGE:
  // From a file
  built, err := factory.Load(ctx, store, data)

  // From a demo scenario
  s, _ := factory.ScenarioByID("scope-change")
  built, err := s.Build(2025).Build()
  err = built.Seed(ctx, store)

SEE ALSO:
  - generic/store.go: Write invariants
  - cmd/timereport: seed command
*/
package factory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/timereport/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

type Dataset struct {
	Elements    []ElementJSON    `json:"elements"`
	Employments []EmploymentJSON `json:"employments"`
	Profiles    []ProfileJSON    `json:"profiles"`
	Holidays    []HolidayJSON    `json:"holidays"`
	Setpoints   []SetpointJSON   `json:"setpoints"`
	Entries     []EntryJSON      `json:"entries"`
}

type ElementJSON struct {
	ID        string          `json:"id,omitempty"`
	Type      string          `json:"type"` // static, range, dynamic
	Unit      string          `json:"unit"` // day, hour, range, lesson, number, text
	Label     string          `json:"label"`
	Project   string          `json:"project,omitempty"`
	Factor    decimal.Decimal `json:"factor,omitempty"`
	Start     string          `json:"start,omitempty"`
	End       string          `json:"end,omitempty"`
	IsHoliday bool            `json:"is_holiday,omitempty"`
}

type EmploymentJSON struct {
	ID     string `json:"id,omitempty"`
	UserID string `json:"user_id"`
	Start  string `json:"start"`
	End    string `json:"end,omitempty"`
	Scope  int    `json:"scope"`
}

type ProfileJSON struct {
	UserID                   string          `json:"user_id"`
	Year                     int             `json:"year"`
	PlannedVacations         decimal.Decimal `json:"planned_vacations"`
	PlannedMixed             decimal.Decimal `json:"planned_mixed"`
	PlannedQuali             decimal.Decimal `json:"planned_quali"`
	PlannedPremiums          decimal.Decimal `json:"planned_premiums"`
	TransferTotalLastYear    decimal.Decimal `json:"transfer_total_last_year"`
	TransferOvertime         decimal.Decimal `json:"transfer_overtime"`
	TransferGrantedVacations decimal.Decimal `json:"transfer_granted_vacations"`
	TransferGrantedOvertime  decimal.Decimal `json:"transfer_granted_overtime"`
	ManualCorrection         decimal.Decimal `json:"manual_correction"`
	Closed                   bool            `json:"closed,omitempty"`
}

type HolidayJSON struct {
	Date     string `json:"date"`
	Label    string `json:"label"`
	Duration int64  `json:"duration,omitempty"` // seconds, 0 = full day
	Value    string `json:"value,omitempty"`
}

type SetpointJSON struct {
	ElementID    string          `json:"element_id,omitempty"`
	ElementLabel string          `json:"element_label,omitempty"`
	UserID       string          `json:"user_id"`
	Year         int             `json:"year"`
	Value        decimal.Decimal `json:"value"`
}

// EntryJSON references its element by id or, when the id is empty, by label.
type EntryJSON struct {
	ID           string `json:"id,omitempty"`
	ElementID    string `json:"element_id,omitempty"`
	ElementLabel string `json:"element_label,omitempty"`
	UserID       string `json:"user_id"`
	Date         string `json:"date"`
	Value        string `json:"value"`
	Comment      string `json:"comment,omitempty"`
	Closed       bool   `json:"closed,omitempty"`
}

// =============================================================================
// BUILT DATASET
// =============================================================================

// Built holds validated entities in write order.
type Built struct {
	Elements    []generic.Element
	Employments []generic.Employment
	Profiles    []generic.Profile
	Holidays    []generic.Holiday
	Setpoints   []generic.Setpoint
	Entries     []generic.TimeEntry
}

// Parse decodes a JSON dataset.
func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse dataset JSON: %w", err)
	}
	return &ds, nil
}

// Build converts and validates every entity. Missing ids are generated.
func (ds *Dataset) Build() (*Built, error) {
	b := &Built{}
	byID := make(map[generic.ElementID]generic.Element)
	byLabel := make(map[string]generic.Element)

	for i, ej := range ds.Elements {
		el, err := parseElement(ej)
		if err != nil {
			return nil, fmt.Errorf("elements[%d]: %w", i, err)
		}
		if _, dup := byID[el.ID]; dup {
			return nil, fmt.Errorf("elements[%d]: %w: duplicate id %s", i, generic.ErrInvalidValue, el.ID)
		}
		byID[el.ID] = el
		if _, seen := byLabel[el.Label]; !seen {
			byLabel[el.Label] = el
		}
		b.Elements = append(b.Elements, el)
	}

	for i, ej := range ds.Employments {
		emp, err := parseEmployment(ej)
		if err != nil {
			return nil, fmt.Errorf("employments[%d]: %w", i, err)
		}
		q := generic.EmploymentQuery{ExcludeID: emp.ID, Period: generic.EmploymentSpan(emp), UserID: emp.UserID}
		for _, other := range b.Employments {
			if q.Matches(other) {
				return nil, fmt.Errorf("employments[%d]: %w: %s", i, generic.ErrEmploymentOverlap, other.ID)
			}
		}
		b.Employments = append(b.Employments, emp)
	}

	for i, pj := range ds.Profiles {
		if pj.UserID == "" || pj.Year == 0 {
			return nil, fmt.Errorf("profiles[%d]: %w: user_id and year are required", i, generic.ErrInvalidValue)
		}
		b.Profiles = append(b.Profiles, parseProfile(pj))
	}

	for i, hj := range ds.Holidays {
		date, err := generic.ParseDate(hj.Date)
		if err != nil {
			return nil, fmt.Errorf("holidays[%d]: %w: %v", i, generic.ErrInvalidDate, err)
		}
		b.Holidays = append(b.Holidays, generic.Holiday{
			ID:       uuid.NewString(),
			Date:     date,
			Label:    hj.Label,
			Duration: hj.Duration,
			Value:    hj.Value,
		})
	}

	resolve := func(id, label string) (generic.Element, error) {
		if id != "" {
			el, ok := byID[generic.ElementID(id)]
			if !ok {
				return generic.Element{}, fmt.Errorf("%w: element %s", generic.ErrEntityNotFound, id)
			}
			return el, nil
		}
		el, ok := byLabel[label]
		if !ok {
			return generic.Element{}, fmt.Errorf("%w: element %q", generic.ErrEntityNotFound, label)
		}
		return el, nil
	}

	for i, sj := range ds.Setpoints {
		el, err := resolve(sj.ElementID, sj.ElementLabel)
		if err != nil {
			return nil, fmt.Errorf("setpoints[%d]: %w", i, err)
		}
		b.Setpoints = append(b.Setpoints, generic.Setpoint{
			ElementID: el.ID,
			UserID:    generic.UserID(sj.UserID),
			Year:      sj.Year,
			Value:     sj.Value,
		})
	}

	seen := make(map[string]bool)
	for i, enj := range ds.Entries {
		el, err := resolve(enj.ElementID, enj.ElementLabel)
		if err != nil {
			return nil, fmt.Errorf("entries[%d]: %w", i, err)
		}
		date, err := generic.ParseDate(enj.Date)
		if err != nil {
			return nil, fmt.Errorf("entries[%d]: %w: %v", i, generic.ErrInvalidDate, err)
		}
		entry, err := generic.PrepareEntry(el, generic.TimeEntry{
			ID:      generic.EntryID(enj.ID),
			Date:    date,
			UserID:  generic.UserID(enj.UserID),
			Value:   enj.Value,
			Comment: enj.Comment,
			Closed:  enj.Closed,
		})
		if err != nil {
			return nil, fmt.Errorf("entries[%d]: %w", i, err)
		}
		key := string(entry.ElementID) + "|" + string(entry.UserID) + "|" + entry.Date.String()
		if seen[key] {
			return nil, fmt.Errorf("entries[%d]: %w", i, generic.ErrDuplicateEntry)
		}
		seen[key] = true
		if entry.ID == "" {
			entry.ID = generic.EntryID(uuid.NewString())
		}
		b.Entries = append(b.Entries, entry)
	}
	return b, nil
}

// Seed writes the dataset in dependency order.
func (b *Built) Seed(ctx context.Context, w generic.Writer) error {
	elements := make(map[generic.ElementID]generic.Element, len(b.Elements))
	for _, el := range b.Elements {
		if err := w.SaveElement(ctx, el); err != nil {
			return fmt.Errorf("seed element %s: %w", el.Label, err)
		}
		elements[el.ID] = el
	}
	for _, e := range b.Employments {
		if err := w.SaveEmployment(ctx, e); err != nil {
			return fmt.Errorf("seed employment %s: %w", e.ID, err)
		}
	}
	for _, p := range b.Profiles {
		if err := w.SaveProfile(ctx, p); err != nil {
			return fmt.Errorf("seed profile %s/%d: %w", p.UserID, p.Year, err)
		}
	}
	for _, h := range b.Holidays {
		if err := w.SaveHoliday(ctx, h); err != nil {
			return fmt.Errorf("seed holiday %s: %w", h.Date, err)
		}
	}
	for _, s := range b.Setpoints {
		if err := w.SaveSetpoint(ctx, s); err != nil {
			return fmt.Errorf("seed setpoint %s: %w", s.ElementID, err)
		}
	}
	for _, e := range b.Entries {
		if err := w.SaveEntry(ctx, elements[e.ElementID], e); err != nil {
			return fmt.Errorf("seed entry %s on %s: %w", e.ElementID, e.Date, err)
		}
	}
	return nil
}

// Load parses, validates and seeds a JSON dataset in one go.
func Load(ctx context.Context, w generic.Writer, data []byte) (*Built, error) {
	ds, err := Parse(data)
	if err != nil {
		return nil, err
	}
	b, err := ds.Build()
	if err != nil {
		return nil, err
	}
	return b, b.Seed(ctx, w)
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseElement(ej ElementJSON) (generic.Element, error) {
	el := generic.Element{
		ID:        generic.ElementID(ej.ID),
		Type:      generic.ElementType(ej.Type),
		Unit:      generic.EntryUnit(ej.Unit),
		Label:     ej.Label,
		Project:   ej.Project,
		Factor:    ej.Factor,
		IsHoliday: ej.IsHoliday,
	}
	if el.ID == "" {
		el.ID = generic.ElementID(uuid.NewString())
	}
	if el.Label == "" {
		return el, fmt.Errorf("%w: element without label", generic.ErrInvalidValue)
	}
	switch el.Type {
	case generic.ElementStatic, generic.ElementRange, generic.ElementDynamic:
	default:
		return el, fmt.Errorf("%w: unknown element type %q", generic.ErrInvalidValue, ej.Type)
	}
	if !el.Unit.IsValid() {
		return el, fmt.Errorf("%w: unknown unit %q", generic.ErrInvalidValue, ej.Unit)
	}
	if el.Factor.IsNegative() {
		return el, fmt.Errorf("%w: negative factor", generic.ErrInvalidValue)
	}
	var err error
	if ej.Start != "" {
		if el.Start, err = generic.ParseDate(ej.Start); err != nil {
			return el, fmt.Errorf("%w: start %q", generic.ErrInvalidDate, ej.Start)
		}
	}
	if el.End, err = parseOptionalDate(ej.End); err != nil {
		return el, err
	}
	return el, nil
}

func parseEmployment(ej EmploymentJSON) (generic.Employment, error) {
	emp := generic.Employment{
		ID:     generic.EmploymentID(ej.ID),
		UserID: generic.UserID(ej.UserID),
		Scope:  ej.Scope,
	}
	if emp.ID == "" {
		emp.ID = generic.EmploymentID(uuid.NewString())
	}
	var err error
	if emp.Start, err = generic.ParseDate(ej.Start); err != nil {
		return emp, fmt.Errorf("%w: start %q", generic.ErrInvalidDate, ej.Start)
	}
	if emp.End, err = parseOptionalDate(ej.End); err != nil {
		return emp, err
	}
	return emp, generic.ValidateEmployment(emp)
}

func parseProfile(pj ProfileJSON) generic.Profile {
	return generic.Profile{
		UserID:                   generic.UserID(pj.UserID),
		Year:                     pj.Year,
		PlannedVacations:         pj.PlannedVacations,
		PlannedMixed:             pj.PlannedMixed,
		PlannedQuali:             pj.PlannedQuali,
		PlannedPremiums:          pj.PlannedPremiums,
		TransferTotalLastYear:    pj.TransferTotalLastYear,
		TransferOvertime:         pj.TransferOvertime,
		TransferGrantedVacations: pj.TransferGrantedVacations,
		TransferGrantedOvertime:  pj.TransferGrantedOvertime,
		ManualCorrection:         pj.ManualCorrection,
		Closed:                   pj.Closed,
	}
}

func parseOptionalDate(s string) (*generic.TimePoint, error) {
	if s == "" {
		return nil, nil
	}
	d, err := generic.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", generic.ErrInvalidDate, s)
	}
	return &d, nil
}
