package export_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/timereport/export"
)

var rows = [][]any{
	{"Position", "Target", "Actual", "Saldo", "2025-01-06", "2025-01-07"},
	{"Ferien", 210.0, 8.4, 201.6, 8.4, nil},
	{"Comments", nil, nil, nil, nil, "Notiz: Elternabend, Zimmer 3"},
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, rows, 0))

	want := "Position,Target,Actual,Saldo,2025-01-06,2025-01-07\n" +
		"Ferien,210,8.4,201.6,8.4,\n" +
		"Comments,,,,,\"Notiz: Elternabend, Zimmer 3\"\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_Semicolon(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, rows[:2], ';'))
	assert.Contains(t, buf.String(), "Ferien;210;8.4;201.6;8.4;\n")
}

func TestWriteXLSX_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteXLSX(&buf, "", rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{export.DefaultSheet}, f.GetSheetList())
	got, err := f.GetRows(export.DefaultSheet)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Position", got[0][0])
	assert.Equal(t, []string{"Ferien", "210", "8.4", "201.6", "8.4"}, got[1])
	assert.Equal(t, "Notiz: Elternabend, Zimmer 3", got[2][5])
}

func TestParseFormat(t *testing.T) {
	cases := map[string]export.Format{"": export.FormatJSON, "CSV": export.FormatCSV, " xlsx ": export.FormatXLSX}
	for in, want := range cases {
		got, err := export.ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := export.ParseFormat("pdf")
	assert.Error(t, err)
	assert.Equal(t, ".xlsx", export.FormatXLSX.Extension())
}
