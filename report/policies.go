/*
Package report implements the time-accounting reports: indicator, element
and time-series aggregation, the composite report and its generic and CSV
projections.

PURPOSE:
  Every report answers the same three questions for a date range inside one
  calendar year: how many hours were planned (target), how many were booked
  (actual), and what is the balance (saldo).

KEY CONCEPTS IN THIS FILE (policies.go):
  - Indicator: one of the six leave/absence categories, bound to a static
    element label and to the profile fields that plan it
  - SaldoRule: target-actual for planned leave, target+actual for
    deductions (special absence, sickness)
  - conversionPolicies: which plan fields are day-denominated, per year

SEE ALSO:
  - indicators.go: Indicator aggregation
  - all.go: Composite report
*/
package report

import (
	"github.com/shopspring/decimal"

	"github.com/warp/timereport/generic"
)

// =============================================================================
// INDICATORS
// =============================================================================

type Indicator int

const (
	IndicatorVacation Indicator = iota
	IndicatorMixed
	IndicatorQuali
	IndicatorPremium
	IndicatorSpecialAbsence
	IndicatorSickness
)

type SaldoRule int

const (
	// SaldoTargetMinusActual: what is left of the plan.
	SaldoTargetMinusActual SaldoRule = iota
	// SaldoTargetPlusActual: the actual is itself a deduction.
	SaldoTargetPlusActual
)

func (r SaldoRule) Apply(target, actual decimal.Decimal) decimal.Decimal {
	if r == SaldoTargetPlusActual {
		return target.Add(actual)
	}
	return target.Sub(actual)
}

type indicatorPolicy struct {
	key     string
	label   string // label of the static element entries are booked on
	targets []generic.ProfileField
	saldo   SaldoRule
}

var indicatorPolicies = [...]indicatorPolicy{
	IndicatorVacation: {
		key:     "vacation",
		label:   "Ferien",
		targets: []generic.ProfileField{generic.FieldPlannedVacations, generic.FieldTransferGrantedVacations},
	},
	IndicatorMixed: {
		key:     "mixed",
		label:   "Militär, Mutterschaft, Diverses",
		targets: []generic.ProfileField{generic.FieldPlannedMixed},
	},
	IndicatorQuali: {
		key:     "quali",
		label:   "Weiterbildung",
		targets: []generic.ProfileField{generic.FieldPlannedQuali},
	},
	IndicatorPremium: {
		key:     "premium",
		label:   "Treueprämie",
		targets: []generic.ProfileField{generic.FieldPlannedPremiums},
	},
	IndicatorSpecialAbsence: {
		key:   "specialAbsence",
		label: "Sonderurlaub",
		saldo: SaldoTargetPlusActual,
	},
	IndicatorSickness: {
		key:   "sickness",
		label: "Krankheit",
		saldo: SaldoTargetPlusActual,
	},
}

// Indicators returns every indicator in display order.
func Indicators() []Indicator {
	out := make([]Indicator, len(indicatorPolicies))
	for i := range indicatorPolicies {
		out[i] = Indicator(i)
	}
	return out
}

func (i Indicator) valid() bool                          { return i >= 0 && int(i) < len(indicatorPolicies) }
func (i Indicator) Key() string                          { return indicatorPolicies[i].key }
func (i Indicator) Label() string                        { return indicatorPolicies[i].label }
func (i Indicator) TargetFields() []generic.ProfileField { return indicatorPolicies[i].targets }
func (i Indicator) Saldo() SaldoRule                     { return indicatorPolicies[i].saldo }

func (i Indicator) String() string {
	if !i.valid() {
		return "unknown"
	}
	return i.Key()
}

// IndicatorByLabel resolves an element label to its indicator.
func IndicatorByLabel(label string) (Indicator, bool) {
	for i, p := range indicatorPolicies {
		if p.label == label {
			return Indicator(i), true
		}
	}
	return 0, false
}

// =============================================================================
// DAY-TO-HOUR CONVERSION POLICY - Versioned by year
// =============================================================================

// conversionPolicy lists the profile fields planned in full-time days from
// year From on. Fields outside the set are already planned in hours.
type conversionPolicy struct {
	From   int
	Fields []generic.ProfileField
}

// Ordered by From. From 2025 on qualification and premiums are planned in hours.
var conversionPolicies = []conversionPolicy{
	{From: 0, Fields: []generic.ProfileField{
		generic.FieldPlannedVacations,
		generic.FieldTransferGrantedVacations,
		generic.FieldPlannedMixed,
		generic.FieldPlannedQuali,
		generic.FieldPlannedPremiums,
	}},
	{From: 2025, Fields: []generic.ProfileField{
		generic.FieldPlannedVacations,
		generic.FieldTransferGrantedVacations,
		generic.FieldPlannedMixed,
	}},
}

func conversionPolicyFor(year int) conversionPolicy {
	policy := conversionPolicies[0]
	for _, p := range conversionPolicies {
		if p.From <= year {
			policy = p
		}
	}
	return policy
}

// PlannedInDays reports whether field f is day-denominated in year.
func PlannedInDays(year int, f generic.ProfileField) bool {
	for _, field := range conversionPolicyFor(year).Fields {
		if field == f {
			return true
		}
	}
	return false
}
