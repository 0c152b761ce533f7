package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/PraverBajaj/doobie/internal/driver"
)

// cancelTimeout bounds the out-of-band cancel request; a hung cancel must
// not hold up the cancellation path indefinitely.
const cancelTimeout = 5 * time.Second

// Conn wraps a single *pgx.Conn as a driver.Conn.
//
// Like the sqlite adapter, the connection operates JDBC-style: a transaction
// is begun lazily on the first Prepare after a boundary, and Commit/Rollback
// end it. Not safe for concurrent use beyond the core's single in-flight
// execution per connection.
type Conn struct {
	conn  *pgx.Conn
	inTx  bool
	stmtN int
}

// Connect opens a PostgreSQL connection for the given DSN.
func Connect(ctx context.Context, dsn string) (*Conn, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Conn{conn: conn}, nil
}

// Prepare creates a server-side prepared statement inside the connection's
// current transaction, beginning one if none is open.
func (c *Conn) Prepare(ctx context.Context, query string) (driver.Stmt, error) {
	if !c.inTx {
		if _, err := c.conn.Exec(ctx, "BEGIN"); err != nil {
			return nil, fmt.Errorf("begin transaction: %w", err)
		}
		c.inTx = true
	}
	c.stmtN++
	name := fmt.Sprintf("doobie_stmt_%d", c.stmtN)
	if _, err := c.conn.Prepare(ctx, name, query); err != nil {
		return nil, fmt.Errorf("prepare statement: %w", err)
	}
	return &stmt{conn: c.conn, name: name}, nil
}

// Commit ends the current transaction boundary. No-op without one.
func (c *Conn) Commit(ctx context.Context) error {
	if !c.inTx {
		return nil
	}
	c.inTx = false
	if _, err := c.conn.Exec(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Rollback discards the current transaction boundary. No-op without one.
func (c *Conn) Rollback(ctx context.Context) error {
	if !c.inTx {
		return nil
	}
	c.inTx = false
	if _, err := c.conn.Exec(ctx, "ROLLBACK"); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

// Close rolls back any open transaction and closes the connection.
func (c *Conn) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
	defer cancel()
	if c.inTx {
		c.inTx = false
		_, _ = c.conn.Exec(ctx, "ROLLBACK")
	}
	return c.conn.Close(ctx)
}

// stmt is a named server-side prepared statement.
type stmt struct {
	conn   *pgx.Conn
	name   string
	params []any
}

// Bind stores value at the 1-based placeholder index.
func (s *stmt) Bind(index int, value any) error {
	if index < 1 {
		return fmt.Errorf("bind parameter: index %d out of range", index)
	}
	for len(s.params) < index {
		s.params = append(s.params, nil)
	}
	s.params[index-1] = value
	return nil
}

// Query executes the prepared statement and returns a cursor over its rows.
func (s *stmt) Query(ctx context.Context) (driver.Cursor, error) {
	rows, err := s.conn.Query(ctx, s.name, s.params...)
	if err != nil {
		return nil, err
	}
	return &cursor{rows: rows}, nil
}

// Exec executes the prepared statement and returns the affected row count.
func (s *stmt) Exec(ctx context.Context) (int64, error) {
	tag, err := s.conn.Exec(ctx, s.name, s.params...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Cancel sends an out-of-band cancel request for whatever is running on the
// connection. The server treats a cancel for a finished statement as a
// no-op.
func (s *stmt) Cancel() error {
	ctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
	defer cancel()
	return s.conn.PgConn().CancelRequest(ctx)
}

// Close deallocates the server-side statement.
func (s *stmt) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), cancelTimeout)
	defer cancel()
	return s.conn.Deallocate(ctx, s.name)
}

// cursor wraps pgx.Rows as a driver.Cursor.
type cursor struct {
	rows pgx.Rows
}

// FetchNext pulls up to max rows. A short return means exhaustion.
func (c *cursor) FetchNext(ctx context.Context, max int) ([]driver.Row, error) {
	out := make([]driver.Row, 0, max)
	for len(out) < max {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !c.rows.Next() {
			if err := c.rows.Err(); err != nil {
				return nil, err
			}
			return out, nil
		}
		vals, err := c.rows.Values()
		if err != nil {
			return nil, err
		}
		out = append(out, driver.Row(vals))
	}
	return out, nil
}

// Close releases the cursor. pgx requires draining or closing rows before
// the connection is reusable; Close handles both.
func (c *cursor) Close() error {
	c.rows.Close()
	return c.rows.Err()
}
