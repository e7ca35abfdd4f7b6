/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the time report server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment)
  2. Open the configured store (memory, sqlite or postgres)
  3. Optionally seed the demo dataset
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -demo    Seed the full-time-teacher scenario for the current year

ENVIRONMENT:
  APP_PORT, APP_ENV, LOG_LEVEL, CORS_ORIGINS
  DB_DRIVER (sqlite|postgres|memory), DB_PATH, DATABASE_URL
  REPORT_TIMEZONE
  See config/config.go for defaults.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # In-memory store with demo data
  DB_DRIVER=memory ./server -demo

  # Postgres
  DB_DRIVER=postgres DATABASE_URL=postgres://localhost/timereport ./server

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration keys
  - store/open.go: Backend selection
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/timereport/api"
	"github.com/warp/timereport/config"
	"github.com/warp/timereport/factory"
	"github.com/warp/timereport/store"
)

var version = "dev"

func main() {
	demo := flag.Bool("demo", false, "seed the demo dataset for the current year")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}
	logger := cfg.Logger(os.Stdout, version)
	slog.SetDefault(logger)

	if err := run(cfg, logger, *demo); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, demo bool) error {
	ctx := context.Background()

	backend, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer backend.Close()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	handler := api.NewHandler(backend, logger)
	handler.Reporter.Location = loc

	if demo {
		year := time.Now().In(loc).Year()
		built, err := factory.DemoDataset(year).Build()
		if err != nil {
			return err
		}
		if err := backend.Reset(ctx); err != nil {
			return err
		}
		if err := built.Seed(ctx, backend); err != nil {
			return fmt.Errorf("seed demo dataset: %w", err)
		}
		logger.Info("demo dataset loaded", "user", factory.DemoUser, "year", year)
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(handler, logger, cfg.Origins()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Addr(), "driver", cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case <-quit:
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
