// Package store selects the persistence backend named by the configuration.
//
// The backends themselves live in the sqlite and postgres subpackages and in
// generic/store (memory).
package store

import (
	"context"
	"fmt"

	"github.com/warp/timereport/config"
	"github.com/warp/timereport/generic"
	memstore "github.com/warp/timereport/generic/store"
	"github.com/warp/timereport/store/postgres"
	"github.com/warp/timereport/store/sqlite"
)

// Backend is a store the server and CLI can seed, reset and close.
type Backend interface {
	generic.ReadWriter
	Reset(ctx context.Context) error
	Close() error
}

// Open connects to the configured backend and migrates its schema.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Backend, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory{memstore.NewMemory()}, nil
	case config.DriverSQLite:
		s, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
		}
		return s, nil
	case config.DriverPostgres:
		s, err := postgres.New(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}

type memory struct{ *memstore.Memory }

func (memory) Close() error { return nil }

var (
	_ Backend = (*sqlite.Store)(nil)
	_ Backend = (*postgres.Store)(nil)
	_ Backend = memory{}
)
