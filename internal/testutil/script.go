// Package testutil provides deterministic helpers for exercising the
// execution core without a real database: a step clock for reproducible
// durations, scripted driver doubles with programmable per-phase outcomes,
// and counters that let tests verify the exactly-once release and cancel
// contracts.
package testutil

import (
	"context"
	"sync"

	"github.com/PraverBajaj/doobie/internal/driver"
)

// Script programs the outcome of each lifecycle phase of a scripted
// connection. The zero value is a connection that prepares, binds, and
// executes successfully over an empty result set.
type Script struct {
	// CreateErr fails Prepare; no statement handle is created.
	CreateErr error

	// BindErr fails every Bind call.
	BindErr error

	// ExecuteErr fails Query/Exec after any configured blocking.
	ExecuteErr error

	// Rows is the scripted result set served by the cursor.
	Rows [][]any

	// RowsAffected is returned by Exec.
	RowsAffected int64

	// FetchErr fails the FetchErrOnCall-th FetchNext call (1-based).
	FetchErr       error
	FetchErrOnCall int

	// BlockExecute, when non-nil, blocks Query/Exec until the channel is
	// closed, the statement is cancelled, or ctx is done. Used by
	// cancellation tests.
	BlockExecute chan struct{}

	// StmtCloseErr and CursorCloseErr fail the respective Close calls
	// (after the close is counted).
	StmtCloseErr   error
	CursorCloseErr error
}

// Conn is a scripted driver.Conn recording transaction boundary calls and
// every statement it hands out.
type Conn struct {
	Script Script

	Stmts     []*Stmt
	Commits   int
	Rollbacks int
	Closes    int
}

// NewConn creates a scripted connection.
func NewConn(script Script) *Conn {
	return &Conn{Script: script}
}

// LastStmt returns the most recently prepared statement, or nil.
func (c *Conn) LastStmt() *Stmt {
	if len(c.Stmts) == 0 {
		return nil
	}
	return c.Stmts[len(c.Stmts)-1]
}

// Prepare implements driver.Conn.
func (c *Conn) Prepare(ctx context.Context, query string) (driver.Stmt, error) {
	if c.Script.CreateErr != nil {
		return nil, c.Script.CreateErr
	}
	st := &Stmt{script: c.Script, Query_: query, Binds: map[int]any{}, cancelled: make(chan struct{})}
	c.Stmts = append(c.Stmts, st)
	return st, nil
}

// Commit implements driver.Conn.
func (c *Conn) Commit(ctx context.Context) error {
	c.Commits++
	return nil
}

// Rollback implements driver.Conn.
func (c *Conn) Rollback(ctx context.Context) error {
	c.Rollbacks++
	return nil
}

// Close implements driver.Conn.
func (c *Conn) Close() error {
	c.Closes++
	return nil
}

// Stmt is a scripted driver.Stmt counting every call against it.
type Stmt struct {
	script Script

	Query_      string
	Binds       map[int]any
	Cursors     []*Cursor
	QueryCalls  int
	ExecCalls   int
	CancelCalls int
	CloseCalls  int

	mu        sync.Mutex
	cancelled chan struct{}
	closed    bool
}

// Bind implements driver.Stmt.
func (s *Stmt) Bind(index int, value any) error {
	if s.script.BindErr != nil {
		return s.script.BindErr
	}
	s.Binds[index] = value
	return nil
}

// block waits for the scripted unblock or a cancel request. It deliberately
// ignores ctx: it models an execution interruptible only by an out-of-band
// cancel, so tests can assert the cancel request was actually delivered.
func (s *Stmt) block() error {
	if s.script.BlockExecute == nil {
		return nil
	}
	select {
	case <-s.script.BlockExecute:
		return nil
	case <-s.cancelled:
		return context.Canceled
	}
}

// Query implements driver.Stmt.
func (s *Stmt) Query(ctx context.Context) (driver.Cursor, error) {
	s.QueryCalls++
	if err := s.block(); err != nil {
		return nil, err
	}
	if s.script.ExecuteErr != nil {
		return nil, s.script.ExecuteErr
	}
	cur := &Cursor{script: s.script, rows: s.script.Rows}
	s.Cursors = append(s.Cursors, cur)
	return cur, nil
}

// LastCursor returns the most recently opened cursor, or nil.
func (s *Stmt) LastCursor() *Cursor {
	if len(s.Cursors) == 0 {
		return nil
	}
	return s.Cursors[len(s.Cursors)-1]
}

// Exec implements driver.Stmt.
func (s *Stmt) Exec(ctx context.Context) (int64, error) {
	s.ExecCalls++
	if err := s.block(); err != nil {
		return 0, err
	}
	if s.script.ExecuteErr != nil {
		return 0, s.script.ExecuteErr
	}
	return s.script.RowsAffected, nil
}

// Cancel implements driver.Stmt. Safe to call from the watcher goroutine.
func (s *Stmt) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CancelCalls++
	select {
	case <-s.cancelled:
	default:
		close(s.cancelled)
	}
	return nil
}

// Close implements driver.Stmt.
func (s *Stmt) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CloseCalls++
	s.closed = true
	return s.script.StmtCloseErr
}

// Closed reports whether Close has been called.
func (s *Stmt) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Cursor is a scripted driver.Cursor serving the scripted rows in order.
type Cursor struct {
	script Script
	rows   [][]any
	pos    int

	FetchCalls int
	CloseCalls int
}

// FetchNext implements driver.Cursor.
func (c *Cursor) FetchNext(ctx context.Context, max int) ([]driver.Row, error) {
	c.FetchCalls++
	if c.script.FetchErr != nil && c.FetchCalls == c.script.FetchErrOnCall {
		return nil, c.script.FetchErr
	}
	out := make([]driver.Row, 0, max)
	for len(out) < max && c.pos < len(c.rows) {
		out = append(out, driver.Row(c.rows[c.pos]))
		c.pos++
	}
	return out, nil
}

// Close implements driver.Cursor.
func (c *Cursor) Close() error {
	c.CloseCalls++
	return c.script.CursorCloseErr
}
