// Package config loads runtime configuration from the environment.
//
// A .env file in the working directory is loaded first when present; real
// environment variables always win over it.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-chi/httplog/v3"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	App      AppConfig      `mapstructure:",squash"`
	Database DatabaseConfig `mapstructure:",squash"`
	Report   ReportConfig   `mapstructure:",squash"`
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int    `mapstructure:"app_port"`
	Env         string `mapstructure:"app_env"`
	LogLevel    string `mapstructure:"log_level"`
	CORSOrigins string `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"db_driver"`
	Path   string `mapstructure:"db_path"`
	URL    string `mapstructure:"database_url"`
}

type ReportConfig struct {
	Timezone string `mapstructure:"report_timezone"`
}

var defaults = map[string]any{
	"app_port":        8080,
	"app_env":         "development",
	"log_level":       "info",
	"cors_origins":    "http://localhost:5173,http://localhost:8080",
	"db_driver":       DriverSQLite,
	"db_path":         "timereport.db",
	"database_url":    "",
	"report_timezone": "UTC",
}

// Load reads .env (if any) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromViper(viper.New())
}

// FromViper applies defaults and environment bindings to v and decodes it.
func FromViper(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, err
		}
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("DB_PATH is required for sqlite")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver)
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("invalid APP_PORT %d", c.App.Port)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := parseLevel(c.App.LogLevel); err != nil {
		return err
	}
	return nil
}

func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.App.Port) }

func (c *Config) IsProduction() bool { return c.App.Env == "production" }

// Origins splits CORS_ORIGINS.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.App.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Location is the zone deciding which calendar day "today" is.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid REPORT_TIMEZONE %q: %w", c.Report.Timezone, err)
	}
	return loc, nil
}

// =============================================================================
// LOGGING
// =============================================================================

// Logger builds the JSON slog logger in the ECS schema used by the request
// logger, tagged with app, version and env.
func (c *Config) Logger(w io.Writer, version string) *slog.Logger {
	level, _ := parseLevel(c.App.LogLevel)
	format := httplog.SchemaECS.Concise(!c.IsProduction())
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: format.ReplaceAttr,
	})).With(
		slog.String("app", "timereport"),
		slog.String("version", version),
		slog.String("env", c.App.Env),
	)
}

// Level is the configured log level.
func (c *Config) Level() slog.Level {
	level, _ := parseLevel(c.App.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
	return level, nil
}
