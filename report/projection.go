package report

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// GENERIC PROJECTION - Sections for on-screen display
// =============================================================================

// Line is one labelled figure.
type Line struct {
	Key   string          `json:"key"`
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

type ProjectSection struct {
	Project  string       `json:"project"`
	Rows     []ElementRow `json:"rows"`
	Subtotal Row          `json:"subtotal"`
}

type GenericReport struct {
	Params     Params           `json:"params"`
	Indicators []IndicatorRow   `json:"indicators"`
	Projects   []ProjectSection `json:"projects"`

	// Lectureship is the total over all projects.
	Lectureship Row `json:"lectureship"`

	// Effective walks from gross target to effective working time.
	Effective []Line `json:"effective"`

	// Final is the closing summary.
	Final []Line `json:"final"`

	Reconciliation *Reconciliation `json:"reconciliation,omitempty"`
}

// Generic builds the composite report and projects it into sections.
func (r *Reporter) Generic(ctx context.Context, p Params) (rep *GenericReport, err error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	done := r.trace("generic", p)
	defer func() { done(err) }()

	all, err := r.all(ctx, p)
	if err != nil {
		return nil, err
	}
	return ProjectGeneric(all), nil
}

// ProjectGeneric groups elements by project in order of first appearance.
func ProjectGeneric(all *AllReport) *GenericReport {
	out := &GenericReport{
		Params:         all.Params,
		Indicators:     all.Indicators.Rows,
		Projects:       []ProjectSection{},
		Lectureship:    Row{Label: "Lectureship"},
		Reconciliation: all.Reconciliation,
	}

	index := make(map[string]int)
	for _, row := range all.Elements.Rows {
		i, ok := index[row.Project]
		if !ok {
			i = len(out.Projects)
			index[row.Project] = i
			out.Projects = append(out.Projects, ProjectSection{Project: row.Project, Subtotal: Row{Label: row.Project}})
		}
		sec := &out.Projects[i]
		sec.Rows = append(sec.Rows, row)
		sec.Subtotal = sec.Subtotal.add(row.Row)
	}
	for _, sec := range out.Projects {
		out.Lectureship = out.Lectureship.add(sec.Subtotal)
	}

	s := all.Summary
	out.Effective = []Line{
		{Key: "grossTarget", Label: "Gross working time", Value: s.GrossTarget},
		{Key: "vacation", Label: IndicatorVacation.Label(), Value: s.VacationTarget.Neg()},
		{Key: "netTime", Label: "Net working time", Value: s.NetTime},
		{Key: "mixed", Label: IndicatorMixed.Label(), Value: s.Mixed.Neg()},
		{Key: "quali", Label: IndicatorQuali.Label(), Value: s.Quali.Neg()},
		{Key: "premiums", Label: IndicatorPremium.Label(), Value: s.Premiums.Neg()},
		{Key: "specialAbsence", Label: IndicatorSpecialAbsence.Label(), Value: s.SpecialAbsence.Neg()},
		{Key: "sickness", Label: IndicatorSickness.Label(), Value: s.Sickness.Neg()},
		{Key: "transfers", Label: "Transferred overtime", Value: s.Transfers.Neg()},
		{Key: "effectiveTime", Label: "Effective working time", Value: s.EffectiveTime},
	}
	out.Final = summaryLines(s)
	return out
}

// summaryLines is the closing block shared by the generic and CSV projections.
func summaryLines(s Summary) []Line {
	return []Line{
		{Key: "effectiveTime", Label: "Effective working time", Value: s.EffectiveTime},
		{Key: "lectureshipTarget", Label: "Lectureship target", Value: s.LectureshipTarget},
		{Key: "lectureshipActual", Label: "Lectureship actual", Value: s.LectureshipActual},
		{Key: "finalSaldo", Label: "Final saldo", Value: s.FinalSaldo},
		{Key: "otherActual", Label: "Other tracked time", Value: s.OtherActual},
		{Key: "holidayHours", Label: "Holidays", Value: s.HolidayHours},
		{Key: "currentTarget", Label: "Target to date", Value: s.CurrentTarget},
		{Key: "currentActual", Label: "Actual to date", Value: s.CurrentActual},
		{Key: "currentSaldo", Label: "Saldo to date", Value: s.CurrentSaldo},
		{Key: "transferTotalLastYear", Label: "Transfer last year", Value: s.TransferTotalLastYear},
		{Key: "manualCorrection", Label: "Manual correction", Value: s.ManualCorrection},
		{Key: "yearEndBalance", Label: "Year-end balance", Value: s.YearEndBalance},
	}
}
