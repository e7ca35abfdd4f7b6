package report_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timereport/report"
)

func csvRow(t *testing.T, rows [][]any, label string) []any {
	t.Helper()
	for _, r := range rows {
		if len(r) > 0 && r[0] == label {
			return r
		}
	}
	require.Failf(t, "row not found", "label %q", label)
	return nil
}

// =============================================================================
// CSV PROJECTION
// =============================================================================

func TestCSV_FullWeek(t *testing.T) {
	// GIVEN: The one-week fixture
	// WHEN: Exporting without flags
	// THEN: One column per day, indicator/element/daily/summary rows, nil blanks

	_, r := newFixture(t)
	rows, err := r.CSV(context.Background(), week())
	require.NoError(t, err)

	header := rows[0]
	require.Len(t, header, 11)
	assert.Equal(t, []any{"Position", "Target", "Actual", "Saldo", "2025-01-06"}, header[:5])
	for _, row := range rows {
		assert.Len(t, row, 11, "rows are rectangular")
	}

	vac := csvRow(t, rows, "Ferien")
	assert.Equal(t, []any{"Ferien", 210.0, 8.4, 201.6, 8.4, nil, nil, nil, nil, nil, nil}, vac)

	sick := csvRow(t, rows, "Krankheit")
	assert.Equal(t, 2.0, sick[3], "sickness saldo is target + actual")

	math := csvRow(t, rows, "Mathematik")
	assert.Equal(t, []any{"Mathematik", 30.0, 3.0, -27.0}, math[:4])
	assert.Equal(t, 3.0, math[5])

	presence := csvRow(t, rows, "Präsenz")
	assert.Nil(t, presence[1])
	assert.Equal(t, 4.0, presence[2])

	target := csvRow(t, rows, "Daily target")
	assert.Equal(t, []any{"Daily target", 42.0, nil, nil, 8.4, 8.4, 8.4, 8.4, 8.4, 0.0, 0.0}, target)

	effective := csvRow(t, rows, "Effective time")
	assert.Equal(t, []any{"Effective time", nil, 8.5, nil, 0.0, 3.0, 4.0, 0.0, 1.5, 0.0, 0.0}, effective)

	final := csvRow(t, rows, "Final saldo")
	assert.Equal(t, -242.8, final[2])
}

func TestCSV_Aggregated_NoDayColumns(t *testing.T) {
	_, r := newFixture(t)
	p := week()
	p.Aggregated = true

	rows, err := r.CSV(context.Background(), p)
	require.NoError(t, err)

	for _, row := range rows {
		assert.Len(t, row, 4)
	}
	assert.Equal(t, []any{"Ferien", 210.0, 8.4, 201.6}, csvRow(t, rows, "Ferien"))
}

func TestCSV_Compact_OnlyTrackedDays(t *testing.T) {
	_, r := newFixture(t)
	p := week()
	p.Compact = true

	rows, err := r.CSV(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, []any{"Position", "Target", "Actual", "Saldo", "2025-01-06", "2025-01-07", "2025-01-08", "2025-01-10"}, rows[0])
}

func TestCSV_Comments(t *testing.T) {
	_, r := newFixture(t)
	p := week()
	p.Comments = true

	rows, err := r.CSV(context.Background(), p)
	require.NoError(t, err)

	comments := csvRow(t, rows, "Comments")
	assert.Equal(t, "Notiz: Elternabend", comments[6])
	assert.Nil(t, comments[4])
}

func TestCSV_PositionKeepsOnlyThatRow(t *testing.T) {
	_, r := newFixture(t)
	p := week()
	p.Position = "Physik"

	rows, err := r.CSV(context.Background(), p)
	require.NoError(t, err)

	for _, label := range []string{"Ferien", "Mathematik", "Präsenz"} {
		for _, row := range rows {
			assert.NotEqual(t, label, row[0])
		}
	}
	physics := csvRow(t, rows, "Physik")
	assert.Equal(t, []any{"Physik", 10.0, 1.5, -8.5}, physics[:4])
}

// =============================================================================
// GENERIC PROJECTION
// =============================================================================

func TestGeneric_GroupsByProject(t *testing.T) {
	_, r := newFixture(t)
	rep, err := r.Generic(context.Background(), week())
	require.NoError(t, err)

	require.Len(t, rep.Projects, 2)
	assert.Equal(t, "Dienste", rep.Projects[0].Project)
	gym := rep.Projects[1]
	assert.Equal(t, "Gymnasium", gym.Project)
	require.Len(t, gym.Rows, 2)
	assertDec(t, "40", gym.Subtotal.Target)
	assertDec(t, "4.5", gym.Subtotal.Actual)
	assertDec(t, "-35.5", gym.Subtotal.Saldo)

	assertDec(t, "40", rep.Lectureship.Target)
	assertDec(t, "4.5", rep.Lectureship.Actual)

	last := rep.Effective[len(rep.Effective)-1]
	assert.Equal(t, "effectiveTime", last.Key)
	assertDec(t, "-202.8", last.Value)

	var final report.Line
	for _, l := range rep.Final {
		if l.Key == "finalSaldo" {
			final = l
		}
	}
	assertDec(t, "-242.8", final.Value)
}

func TestOutput_MarshalsSelectedVariant(t *testing.T) {
	_, r := newFixture(t)
	rep, err := r.Indicators(context.Background(), week())
	require.NoError(t, err)

	flat, err := json.Marshal(rep.Output(report.ShapeFlat))
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(flat, &rows))
	assert.Len(t, rows, 6)

	mapped, err := json.Marshal(rep.Output(report.ShapeMapped))
	require.NoError(t, err)
	var byKey map[string]map[string]any
	require.NoError(t, json.Unmarshal(mapped, &byKey))
	assert.Contains(t, byKey, "sickness")
	assert.Equal(t, "Krankheit", byKey["sickness"]["label"])
}
