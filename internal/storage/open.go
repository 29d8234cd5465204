package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// busyTimeout is how long a connection waits on a locked database
// before surfacing "database is locked".
const busyTimeout = 5 * time.Second

// dsn builds a sqlite connection string with the pragmas the facade
// requires: WAL journal mode, foreign keys enforced, and a generous
// busy timeout for concurrent daemon/CLI access.
func dsn(path string) string {
	return fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_pragma=journal_mode(wal)",
		path, int64(busyTimeout/time.Millisecond),
	)
}

// Storage is the SQLite-backed facade over the tracker schema: it owns
// the schema DDL, required indexes, and the typed accessors the merge
// engine and mode router call through.
type Storage struct {
	db *sql.DB
}

// Executor is satisfied by both *sql.DB and *sql.Tx, letting every
// accessor run either standalone or inside a caller-managed transaction.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens (creating if absent) the database at path, applies pragmas,
// and runs schema migration.
func Open(path string) (*Storage, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL still allows concurrent readers via separate handles

	if err := migrate(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}
	return &Storage{db: db}, nil
}

// DB returns the underlying *sql.DB, satisfying Executor directly.
func (s *Storage) DB() *sql.DB { return s.db }

// BeginTx starts the transaction every mutating merge-engine operation
// runs inside.
func (s *Storage) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// Close releases the database handle.
func (s *Storage) Close() error {
	return s.db.Close()
}
