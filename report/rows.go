package report

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/warp/timereport/generic"
)

// =============================================================================
// ROW - target / actual / saldo triple every report is built from
// =============================================================================

type Row struct {
	Label  string          `json:"label"`
	Target decimal.Decimal `json:"target"`
	Actual decimal.Decimal `json:"actual"`
	Saldo  decimal.Decimal `json:"saldo"`

	// exact is Actual before rounding; reconciliation sums these.
	exact decimal.Decimal
}

func (r Row) add(o Row) Row {
	return Row{
		Label:  r.Label,
		Target: r.Target.Add(o.Target),
		Actual: r.Actual.Add(o.Actual),
		Saldo:  r.Saldo.Add(o.Saldo),
		exact:  r.exact.Add(o.exact),
	}
}

// EntryDetail is one contributing entry in raw mode.
type EntryDetail struct {
	ElementID generic.ElementID `json:"elementId"`
	Label     string            `json:"label"`
	Value     string            `json:"value"`
	Unit      generic.EntryUnit `json:"unit"`
	Hours     decimal.Decimal   `json:"hours"`
	Comment   string            `json:"comment,omitempty"`
}

// =============================================================================
// OUTPUT - One typed variant per Shape
// =============================================================================

// Output holds exactly one of Report, Flat or Mapped, selected by Shape.
type Output[R any, T any] struct {
	Shape  Shape
	Report *R
	Flat   []T
	Mapped map[string]T
}

func (o Output[R, T]) MarshalJSON() ([]byte, error) {
	switch o.Shape {
	case ShapeFlat:
		if o.Flat == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(o.Flat)
	case ShapeMapped:
		return json.Marshal(o.Mapped)
	case ShapeReport, "":
		return json.Marshal(o.Report)
	}
	return nil, fmt.Errorf("%w: %q", generic.ErrInvalidShape, o.Shape)
}

func shape[R any, T any](s Shape, report *R, rows []T, key func(T) string) Output[R, T] {
	out := Output[R, T]{Shape: s}
	switch s {
	case ShapeFlat:
		out.Flat = rows
	case ShapeMapped:
		out.Mapped = make(map[string]T, len(rows))
		for _, r := range rows {
			out.Mapped[key(r)] = r
		}
	default:
		out.Shape = ShapeReport
		out.Report = report
	}
	return out
}

// =============================================================================
// HELPERS
// =============================================================================

var zero = decimal.Zero

// dayValue parses a day-denominated raw value, 0 when invalid.
func dayValue(raw string) decimal.Decimal {
	if generic.EntryDay.Validate(raw) != nil {
		return zero
	}
	return generic.MustParseDecimal(raw)
}

// entryHours converts one entry into hours. Day-denominated values are scaled
// by the work fraction of the entry's day. Text never counts.
func entryHours(e generic.TimeEntry, unit generic.EntryUnit, fraction decimal.Decimal) decimal.Decimal {
	if e.Unit != "" {
		unit = e.Unit
	}
	switch unit {
	case generic.EntryText:
		return zero
	case generic.EntryDay:
		return dayValue(e.Value).Mul(fraction).Mul(generic.DayHours)
	default:
		return decimal.NewFromInt(e.Duration).Div(decimal.NewFromInt(generic.SecondsPerHour))
	}
}

func detail(el generic.Element, e generic.TimeEntry, hours decimal.Decimal) EntryDetail {
	return EntryDetail{
		ElementID: el.ID,
		Label:     el.Label,
		Value:     e.Value,
		Unit:      el.Unit,
		Hours:     generic.Round2(hours),
		Comment:   e.Comment,
	}
}

func roundAll(m map[string]decimal.Decimal) map[string]decimal.Decimal {
	for k, v := range m {
		m[k] = generic.Round2(v)
	}
	return m
}
