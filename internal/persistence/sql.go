package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour of a SQLStore.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SQLStore keeps every table in a single records relation.
type SQLStore struct {
	dialect Dialect
	db      *sql.DB
}

// OpenSQL connects, pings and migrates a SQL backed store.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string) (*SQLStore, error) {
	var driver string
	switch dialect {
	case DialectSQLite:
		driver = "sqlite"
	case DialectPostgres:
		driver = "pgx"
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	if dsn == "" {
		return nil, fmt.Errorf("%s store requires a dsn", dialect)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}

	s := &SQLStore{dialect: dialect, db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) bind(pos int) string {
	if s.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

func (s *SQLStore) migrate(ctx context.Context) error {
	create := `
		CREATE TABLE IF NOT EXISTS records (
			table_name TEXT NOT NULL,
			record_key TEXT NOT NULL,
			value      TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (table_name, record_key)
		)
	`
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create records: %w", err)
	}
	return nil
}

// Load returns every record in the table.
func (s *SQLStore) Load(ctx context.Context, table Table) (map[string]json.RawMessage, error) {
	q := "SELECT record_key, value FROM records WHERE table_name = " + s.bind(1)
	rows, err := s.db.QueryContext(ctx, q, string(table))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", table, err)
	}
	defer rows.Close()

	out := make(map[string]json.RawMessage)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out[key] = json.RawMessage(value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return out, nil
}

// Save upserts one record.
func (s *SQLStore) Save(ctx context.Context, table Table, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s/%s: %w", table, key, err)
	}
	q := fmt.Sprintf(
		`INSERT INTO records (table_name, record_key, value, updated_at) VALUES (%s, %s, %s, %s)
		ON CONFLICT (table_name, record_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		s.bind(1), s.bind(2), s.bind(3), s.bind(4),
	)
	if _, err := s.db.ExecContext(ctx, q, string(table), key, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("save %s/%s: %w", table, key, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
