package report

import (
	"strings"

	"github.com/warp/timereport/generic"
)

// =============================================================================
// OUTPUT SHAPE
// =============================================================================

type Shape string

const (
	ShapeReport Shape = "report" // structured object (default)
	ShapeFlat   Shape = "flat"   // bare row array
	ShapeMapped Shape = "mapped" // rows keyed by date or label
)

func ParseShape(s string) (Shape, error) {
	switch Shape(strings.ToLower(strings.TrimSpace(s))) {
	case "", ShapeReport:
		return ShapeReport, nil
	case ShapeFlat:
		return ShapeFlat, nil
	case ShapeMapped:
		return ShapeMapped, nil
	}
	return "", generic.NewParameterError("shape", generic.ErrInvalidShape)
}

// =============================================================================
// PARAMS - Shared by every report entry point
// =============================================================================

type Params struct {
	Start  string         `json:"start"`
	End    string         `json:"end"`
	UserID generic.UserID `json:"userId"`

	// Enhanced converts day-denominated indicators into hours.
	Enhanced bool `json:"enhanced"`
	// YearScope widens the day iteration (holidays, targets) to the whole
	// year; entries are still aggregated over [Start, End].
	YearScope bool `json:"yearScope"`
	// Raw attaches per-day detail to every row.
	Raw   bool  `json:"raw"`
	Shape Shape `json:"shape"`

	// Position narrows indicators and elements to the one with this label.
	Position string `json:"position,omitempty"`

	// CSV only.
	Aggregated bool `json:"aggregated"`
	Compact    bool `json:"compact"`
	Comments   bool `json:"comments"`
}

// Validate rejects parameters before anything is fetched. Every entry point
// returns the same error for the same bad input.
func (p Params) Validate() error {
	if strings.TrimSpace(p.Start) == "" {
		return generic.NewParameterError("start", generic.ErrMissingStart)
	}
	if strings.TrimSpace(p.End) == "" {
		return generic.NewParameterError("end", generic.ErrMissingEnd)
	}
	if strings.TrimSpace(string(p.UserID)) == "" {
		return generic.NewParameterError("userId", generic.ErrMissingUser)
	}
	start, err := generic.ParseDate(p.Start)
	if err != nil {
		return generic.NewParameterError("start", generic.ErrInvalidDate)
	}
	end, err := generic.ParseDate(p.End)
	if err != nil {
		return generic.NewParameterError("end", generic.ErrInvalidDate)
	}
	if period := (generic.Period{Start: start, End: end}); !period.SameYear() || period.IsEmpty() {
		return generic.NewParameterError("range", generic.ErrInvalidRange)
	}

	switch {
	case p.Aggregated && p.Compact:
		return generic.NewParameterError("compact", generic.ErrAggregatedCompact)
	case p.Aggregated && p.Comments:
		return generic.NewParameterError("comments", generic.ErrAggregatedComments)
	case p.Position != "" && p.Comments:
		return generic.NewParameterError("comments", generic.ErrPositionComments)
	}

	if p.Position != "" && (strings.TrimSpace(p.Position) != p.Position || len(p.Position) > generic.MaxTextLength) {
		return generic.NewParameterError("position", generic.ErrInvalidPosition)
	}
	if _, err := ParseShape(string(p.Shape)); err != nil {
		return err
	}
	return nil
}

// Period is [Start, End]. Only meaningful after Validate succeeded.
func (p Params) Period() generic.Period {
	return generic.ParsePeriod(p.Start, p.End)
}

func (p Params) Year() int { return p.Period().Year() }

// DayPeriod is the iterated day range: the whole year with YearScope.
func (p Params) DayPeriod() generic.Period {
	if p.YearScope {
		return generic.YearPeriod(p.Year())
	}
	return p.Period()
}
