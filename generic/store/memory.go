// Package store provides Store implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/warp/timereport/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	elements    map[generic.ElementID]generic.Element
	entries     map[entryKey]generic.TimeEntry
	employments []generic.Employment
	profiles    map[yearKey]generic.Profile
	setpoints   map[setpointKey]generic.Setpoint
	holidays    map[string]generic.Holiday
	failures    map[string]error
}

type entryKey struct {
	ElementID generic.ElementID
	UserID    generic.UserID
	Date      string
}

type yearKey struct {
	UserID generic.UserID
	Year   int
}

type setpointKey struct {
	ElementID generic.ElementID
	yearKey
}

func NewMemory() *Memory {
	return &Memory{
		elements:  make(map[generic.ElementID]generic.Element),
		entries:   make(map[entryKey]generic.TimeEntry),
		profiles:  make(map[yearKey]generic.Profile),
		setpoints: make(map[setpointKey]generic.Setpoint),
		holidays:  make(map[string]generic.Holiday),
		failures:  make(map[string]error),
	}
}

// FailOn makes the named read operation ("elements", "profile", "setpoints",
// "holidays", "employments") return err. Passing nil clears it.
func (m *Memory) FailOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, op)
		return
	}
	m.failures[op] = err
}

// Reset drops all data. Injected failures are kept.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.elements = make(map[generic.ElementID]generic.Element)
	m.entries = make(map[entryKey]generic.TimeEntry)
	m.employments = nil
	m.profiles = make(map[yearKey]generic.Profile)
	m.setpoints = make(map[setpointKey]generic.Setpoint)
	m.holidays = make(map[string]generic.Holiday)
	return nil
}

// =============================================================================
// READ PATH
// =============================================================================

func (m *Memory) Elements(_ context.Context, q generic.ElementQuery) ([]generic.Element, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failures["elements"]; err != nil {
		return nil, err
	}

	var result []generic.Element
	for _, el := range m.elements {
		if !q.Matches(el) {
			continue
		}
		el.Entries = nil
		if q.IncludeEntries {
			el.Entries = m.entriesLocked(el.ID, q.UserID, q.Period)
		}
		result = append(result, el)
	}
	SortElements(result)
	return result, nil
}

func (m *Memory) entriesLocked(id generic.ElementID, user generic.UserID, p generic.Period) []generic.TimeEntry {
	var result []generic.TimeEntry
	for k, e := range m.entries {
		if k.ElementID == id && k.UserID == user && p.Contains(e.Date) {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result
}

func (m *Memory) Profile(_ context.Context, user generic.UserID, year int) (*generic.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failures["profile"]; err != nil {
		return nil, err
	}
	p, ok := m.profiles[yearKey{UserID: user, Year: year}]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *Memory) Setpoints(_ context.Context, user generic.UserID, year int) ([]generic.Setpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failures["setpoints"]; err != nil {
		return nil, err
	}
	var result []generic.Setpoint
	for k, s := range m.setpoints {
		if k.UserID == user && k.Year == year {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ElementID < result[j].ElementID })
	return result, nil
}

func (m *Memory) Holidays(_ context.Context, p generic.Period) ([]generic.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failures["holidays"]; err != nil {
		return nil, err
	}
	var result []generic.Holiday
	for _, h := range m.holidays {
		if p.Contains(h.Date) {
			result = append(result, h)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (m *Memory) EmploymentIntersections(_ context.Context, q generic.EmploymentQuery) ([]generic.Employment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failures["employments"]; err != nil {
		return nil, err
	}
	var result []generic.Employment
	for _, e := range m.employments {
		if q.Matches(e) {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Start.Before(result[j].Start) })
	return result, nil
}

// =============================================================================
// WRITE PATH
// =============================================================================

func (m *Memory) SaveElement(_ context.Context, el generic.Element) error {
	if el.ID == "" {
		el.ID = generic.ElementID(uuid.NewString())
	}
	if !el.Unit.IsValid() {
		return fmt.Errorf("%w: element %s has unit %q", generic.ErrInvalidValue, el.Label, el.Unit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	el.Entries = nil
	m.elements[el.ID] = el
	return nil
}

// SaveEmployment inserts or replaces e (matched by ID) unless it overlaps
// another employment of the same user.
func (m *Memory) SaveEmployment(_ context.Context, e generic.Employment) error {
	if err := generic.ValidateEmployment(e); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = generic.EmploymentID(uuid.NewString())
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	q := generic.EmploymentQuery{ExcludeID: e.ID, Period: generic.EmploymentSpan(e), UserID: e.UserID}
	for _, other := range m.employments {
		if q.Matches(other) {
			return fmt.Errorf("%w: %s intersects %s", generic.ErrEmploymentOverlap, q.Period, other.ID)
		}
	}
	for i := range m.employments {
		if m.employments[i].ID == e.ID {
			m.employments[i] = e
			return nil
		}
	}
	m.employments = append(m.employments, e)
	return nil
}

func (m *Memory) SaveProfile(_ context.Context, p generic.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[yearKey{UserID: p.UserID, Year: p.Year}] = p
	return nil
}

func (m *Memory) SaveHoliday(_ context.Context, h generic.Holiday) error {
	if h.Date.IsZero() {
		return fmt.Errorf("%w: holiday without date", generic.ErrInvalidValue)
	}
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holidays[h.Date.String()] = h
	return nil
}

func (m *Memory) SaveSetpoint(_ context.Context, s generic.Setpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setpoints[setpointKey{ElementID: s.ElementID, yearKey: yearKey{UserID: s.UserID, Year: s.Year}}] = s
	return nil
}

func (m *Memory) SaveEntry(_ context.Context, el generic.Element, e generic.TimeEntry) error {
	e, err := generic.PrepareEntry(el, e)
	if err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = generic.EntryID(uuid.NewString())
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	k := entryKey{ElementID: e.ElementID, UserID: e.UserID, Date: e.Date.String()}
	if existing, ok := m.entries[k]; ok {
		if existing.Closed {
			return fmt.Errorf("%w: %s on %s", generic.ErrEntryClosed, el.Label, e.Date)
		}
		if existing.ID != e.ID {
			return fmt.Errorf("%w: %s on %s", generic.ErrDuplicateEntry, el.Label, e.Date)
		}
	}
	m.entries[k] = e
	return nil
}

// SortElements orders elements by project, label, id.
func SortElements(els []generic.Element) {
	sort.SliceStable(els, func(i, j int) bool {
		a, b := els[i], els[j]
		if a.Project != b.Project {
			return a.Project < b.Project
		}
		if a.Label != b.Label {
			return a.Label < b.Label
		}
		return a.ID < b.ID
	})
}
