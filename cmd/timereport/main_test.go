package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/warp/timereport/factory"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

var january = []string{"--user", factory.DemoUser, "--start", "2025-01-01", "--end", "2025-01-31"}

func TestReport_DemoInMemory(t *testing.T) {
	args := append([]string{"--driver", "memory", "report", "all", "--demo"}, january...)
	out, err := execute(t, args...)
	require.NoError(t, err)

	var rep map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Contains(t, rep, "summary")
	assert.Contains(t, rep, "timeseries")
}

func TestReport_CSVToStdout(t *testing.T) {
	args := append([]string{"--driver", "memory", "report", "csv", "--demo", "--format", "csv", "--aggregated"}, january...)
	out, err := execute(t, args...)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Position,Target,Actual,Saldo"), out)
}

func TestReport_XLSXToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jan.xlsx")
	args := append([]string{"--driver", "memory", "report", "csv", "--demo", "--format", "xlsx", "--out", path}, january...)
	_, err := execute(t, args...)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Report")
	require.NoError(t, err)
	assert.Equal(t, "Position", rows[0][0])
}

func TestSeedThenReport_SQLite(t *testing.T) {
	db := filepath.Join(t.TempDir(), "timereport.db")

	out, err := execute(t, "--driver", "sqlite", "--db", db, "seed", "--scenario", "scope-change", "--year", "2025")
	require.NoError(t, err)
	assert.Contains(t, out, "2 employments")

	args := append([]string{"--driver", "sqlite", "--db", db, "report", "timeseries", "--shape", "flat"}, january...)
	out, err = execute(t, args...)
	require.NoError(t, err)

	var days []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &days))
	assert.Len(t, days, 31)
}

func TestSeed_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dataset.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
	  "elements": [{"id": "vac", "type": "static", "unit": "day", "label": "Ferien"}],
	  "employments": [{"user_id": "u1", "start": "2025-01-01", "scope": 100}]
	}`), 0o644))

	out, err := execute(t, "--driver", "memory", "seed", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 1 elements, 1 employments")
}

func TestSeed_RequiresSource(t *testing.T) {
	_, err := execute(t, "--driver", "memory", "seed")
	assert.Error(t, err)

	_, err = execute(t, "--driver", "memory", "seed", "--demo", "--scenario", "scope-change")
	assert.Error(t, err)
}

func TestReport_Errors(t *testing.T) {
	cases := map[string][]string{
		"unknown kind":  append([]string{"--driver", "memory", "report", "pdf"}, january...),
		"missing user":  {"--driver", "memory", "report", "all", "--start", "2025-01-01", "--end", "2025-01-31"},
		"no profile":    append([]string{"--driver", "memory", "report", "all"}, january...),
		"bad format":    append([]string{"--driver", "memory", "report", "csv", "--format", "pdf"}, january...),
		"bad delimiter": append([]string{"--driver", "memory", "report", "csv", "--delimiter", ";;"}, january...),
		"bad driver":    append([]string{"--driver", "mongo", "report", "all"}, january...),
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := execute(t, args...)
			assert.Error(t, err)
		})
	}
}

func TestScenariosCommand(t *testing.T) {
	out, err := execute(t, "scenarios")
	require.NoError(t, err)
	for _, s := range factory.Scenarios() {
		assert.Contains(t, out, s.ID)
	}
}
