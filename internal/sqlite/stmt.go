package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/PraverBajaj/doobie/internal/driver"
)

// stmt wraps *sql.Stmt as a driver.Stmt. Parameters are accumulated by Bind
// and passed positionally on execution.
//
// Cancel interrupts an in-flight Query/Exec by cancelling the exec-scoped
// context captured when execution started; go-sqlite3 aborts the running
// statement when its context is cancelled. The cancel function is published
// under a mutex because Cancel is called from the watcher goroutine.
type stmt struct {
	st     *sql.Stmt
	params []any

	mu     sync.Mutex
	cancel context.CancelFunc
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

func (s *stmt) execContext(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	return ctx
}

// Query executes the statement and returns a cursor over its rows.
func (s *stmt) Query(ctx context.Context) (driver.Cursor, error) {
	rows, err := s.st.QueryContext(s.execContext(ctx), s.params...)
	if err != nil {
		return nil, err
	}
	cols, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, err
	}
	return &cursor{rows: rows, width: len(cols)}, nil
}

// Exec executes the statement and returns the affected row count.
func (s *stmt) Exec(ctx context.Context) (int64, error) {
	res, err := s.st.ExecContext(s.execContext(ctx), s.params...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Cancel interrupts an in-flight execution. No-op before execution started
// or after it finished.
func (s *stmt) Cancel() error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}

// Close releases the statement handle.
func (s *stmt) Close() error {
	return s.st.Close()
}

// cursor wraps *sql.Rows as a driver.Cursor, fetching in bounded batches.
type cursor struct {
	rows  *sql.Rows
	width int
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
		row := make(driver.Row, c.width)
		ptrs := make([]any, c.width)
		for i := range row {
			ptrs[i] = &row[i]
		}
		if err := c.rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

// Close releases the cursor handle.
func (c *cursor) Close() error {
	return c.rows.Close()
}
