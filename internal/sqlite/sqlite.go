package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/PraverBajaj/doobie/internal/driver"
)

// Conn wraps a SQLite database as a driver.Conn.
//
// A transaction is begun lazily on the first Prepare after a transaction
// boundary; Commit and Rollback end it. Statements prepared inside a
// boundary are invalidated by Commit/Rollback, which matches the core's
// contract that a statement's lifetime is contained in one invocation.
//
// Not safe for concurrent use: the execution core runs one in-flight
// execution per connection.
type Conn struct {
	db *sql.DB
	tx *sql.Tx
}

// Open creates or opens a SQLite database at the given path and configures
// it for use by the execution core:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// The pool is pinned to a single connection; SQLite supports one writer at
// a time and the core assumes one execution per connection anyway.
func Open(path string) (*Conn, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	return &Conn{db: db}, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Prepare creates a prepared statement inside the connection's current
// transaction, beginning one if none is open.
func (c *Conn) Prepare(ctx context.Context, query string) (driver.Stmt, error) {
	if c.tx == nil {
		tx, err := c.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("begin transaction: %w", err)
		}
		c.tx = tx
	}
	st, err := c.tx.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement: %w", err)
	}
	return &stmt{st: st}, nil
}

// Commit ends the current transaction boundary. No-op without one.
func (c *Conn) Commit(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback discards the current transaction boundary. No-op without one.
func (c *Conn) Rollback(ctx context.Context) error {
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// Close rolls back any open transaction and closes the database.
func (c *Conn) Close() error {
	if c.tx != nil {
		_ = c.tx.Rollback()
		c.tx = nil
	}
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// DB returns the underlying sql.DB for direct queries (tests, migrations).
// Use with caution - prefer going through the execution core.
func (c *Conn) DB() *sql.DB {
	return c.db
}
