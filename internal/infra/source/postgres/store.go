// Package postgres reads elements from a Postgres table of JSONB payloads.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"gtasync/internal/source/core"
	"gtasync/pkg/domain"
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/gtasync?sslmode=disable"
	defaultTable  = "gtasync_elements"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// OverrideSQLOpen swaps the function used to open connections and returns a
// restore func. Tests use it to inject a stub driver.
func OverrideSQLOpen(fn func(driverName, dsn string) (*sql.DB, error)) func() {
	openMu.Lock()
	prev := sqlOpen
	sqlOpen = fn
	openMu.Unlock()
	return func() {
		openMu.Lock()
		sqlOpen = prev
		openMu.Unlock()
	}
}

// Store serves elements from a single table keyed by id.
type Store struct {
	db    *sql.DB
	table string
}

// Open connects to dsn, pings the server and ensures the elements table
// exists. Empty arguments fall back to local defaults.
func Open(ctx context.Context, dsn, table string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	if table == "" {
		table = defaultTable
	}
	if !validIdentifier(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id BIGINT PRIMARY KEY,
		payload JSONB NOT NULL
	)`, table)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create %s: %w", table, err)
	}
	return &Store{db: db, table: table}, nil
}

// Save upserts e.
func (s *Store) Save(ctx context.Context, e domain.Element) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode element %d: %w", e.ID, err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, payload) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload`, s.table)
	if _, err := s.db.ExecContext(ctx, query, e.ID, payload); err != nil {
		return fmt.Errorf("save element %d: %w", e.ID, err)
	}
	return nil
}

// FetchElement implements core.Fetcher.
func (s *Store) FetchElement(ctx context.Context, id int64) (domain.Element, error) {
	var payload []byte
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE id = $1`, s.table)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Element{}, core.NotFound(id)
	}
	if err != nil {
		return domain.Element{}, fmt.Errorf("select element %d: %w", id, err)
	}
	return core.Decode(id, payload)
}

// Driver implements core.Fetcher.
func (s *Store) Driver() core.Driver { return core.DriverPostgres }

// Close implements core.Fetcher.
func (s *Store) Close() error { return s.db.Close() }

func validIdentifier(name string) bool {
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return name != ""
}
