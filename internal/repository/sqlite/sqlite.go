// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// CONCURRENCY MODEL:
// The pool is capped at ONE connection, so every transaction is a serialised
// critical section. RSVP mutations (append/remove a member) run as a single
// statement inside such a transaction; concurrent joins on one event are all
// recorded.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides repository methods.
// It implements TokenRepository, UserRepository and EventRepository.
type DB struct {
	conn *sql.DB
}

// querier is the subset of *sql.DB and *sql.Tx that the read helpers need,
// so the same helper can run inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/teamrsvp.db"  → file-based database (persistent)
//   - ":memory:"          → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// One connection: serialises writers, and keeps a ":memory:" database
	// alive (every new connection to ":memory:" would be a fresh, empty DB).
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers from other processes (e.g. the `tokens` CLI command)
	// proceed while the server writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the three logical collections (tokens, users, events) plus
// the event_members table holding the RSVP sets.
//
// CREATE TABLE IF NOT EXISTS keeps this idempotent; there is no migration
// history table because the schema has only ever had one version.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS tokens (
			token           TEXT PRIMARY KEY,
			user            TEXT NOT NULL,
			channel         TEXT NOT NULL,
			timezone        TEXT NOT NULL DEFAULT '',
			timezone_offset INTEGER NOT NULL DEFAULT 0,
			issued_at       DATETIME NOT NULL,
			expire_at       DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating tokens table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id   TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT ''
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id        TEXT PRIMARY KEY,
			owner     TEXT NOT NULL,
			channel   TEXT NOT NULL,
			name      TEXT NOT NULL,
			timestamp INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
	`)
	if err != nil {
		return fmt.Errorf("creating events table: %w", err)
	}

	// seq is AUTOINCREMENT so it is strictly increasing and never reused:
	// ordering by seq reproduces the order in which users joined.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS event_members (
			seq      INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			user_id  TEXT NOT NULL,
			kind     TEXT NOT NULL CHECK (kind IN ('participant', 'alternate'))
		);
		CREATE INDEX IF NOT EXISTS idx_event_members_event ON event_members(event_id, seq);
	`)
	if err != nil {
		return fmt.Errorf("creating event_members table: %w", err)
	}

	return nil
}

// inTx runs fn inside a transaction, committing on success and rolling back
// on any error.
func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}
