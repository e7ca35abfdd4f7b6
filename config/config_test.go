package config_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timereport/config"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := config.FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, config.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "timereport.db", cfg.Database.Path)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:8080"}, cfg.Origins())
	assert.False(t, cfg.IsProduction())
}

func TestFromViper_Environment(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/timereport")
	t.Setenv("REPORT_TIMEZONE", "Europe/Zurich")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, config.DriverPostgres, cfg.Database.Driver)
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Zurich", loc.String())
	assert.Equal(t, "DEBUG", cfg.Level().String())
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"postgres without url", map[string]string{"DB_DRIVER": "postgres"}},
		{"unknown driver", map[string]string{"DB_DRIVER": "mongo"}},
		{"bad timezone", map[string]string{"REPORT_TIMEZONE": "Mars/Olympus"}},
		{"bad level", map[string]string{"LOG_LEVEL": "loud"}},
		{"bad port", map[string]string{"APP_PORT": "0"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := config.FromViper(viper.New())
			assert.Error(t, err)
		})
	}
}

func TestLogger_WritesJSONWithBaseAttributes(t *testing.T) {
	cfg, err := config.FromViper(viper.New())
	require.NoError(t, err)

	var buf bytes.Buffer
	cfg.Logger(&buf, "v0.1.0").Info("hello", "user", "u1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "timereport", line["app"])
	assert.Equal(t, "development", line["env"])
	assert.Equal(t, "u1", line["user"])
}
