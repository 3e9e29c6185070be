package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Drivers accepted by Open.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config bridges configuration settings with a concrete Store.
type Config struct {
	Driver string // file (default), sqlite or postgres
	Dir    string // data directory for the file store and the default sqlite database
	DSN    string // sqlite path or postgres connection string
}

// Open returns the Store described by cfg.
func Open(ctx context.Context, cfg Config) (Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = "./data"
	}

	switch cfg.Driver {
	case "", DriverFile:
		return NewFileStore(dir)
	case DriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
			dsn = filepath.Join(dir, "davis.sqlite")
		}
		return OpenSQL(ctx, DialectSQLite, dsn)
	case DriverPostgres:
		return OpenSQL(ctx, DialectPostgres, cfg.DSN)
	}
	return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
}
