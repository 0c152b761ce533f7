package driver

import "context"

// Row is one raw, undecoded result row as produced by a Cursor fetch.
// Column order matches the statement's result shape.
type Row []any

// Conn prepares statements and controls transaction boundaries.
//
// A Conn must not be shared by two concurrent in-flight executions; the
// execution core assumes a single logical thread of execution per connection.
// Concurrency across distinct connections is unconstrained.
type Conn interface {
	// Prepare creates a server-side prepared statement for the given SQL.
	Prepare(ctx context.Context, query string) (Stmt, error)

	// Commit makes the work performed on this connection since the last
	// transaction boundary durable. Committing with no open transaction
	// is a no-op.
	Commit(ctx context.Context) error

	// Rollback discards the work performed on this connection since the
	// last transaction boundary. Rolling back with no open transaction
	// is a no-op.
	Rollback(ctx context.Context) error

	// Close releases the connection. Any open transaction is rolled back.
	Close() error
}

// Stmt is a prepared statement handle.
//
// Exactly one of Query or Exec is invoked per statement, and at most once.
// Cancel may be called from a different goroutine while Query or Exec is in
// flight; it is a best-effort interrupt and a no-op once execution finished.
type Stmt interface {
	// Bind binds a parameter value at the given 1-based placeholder index.
	Bind(index int, value any) error

	// Query executes the statement and returns an open cursor over its
	// result set.
	Query(ctx context.Context) (Cursor, error)

	// Exec executes the statement and returns the number of rows affected.
	Exec(ctx context.Context) (int64, error)

	// Cancel requests cancellation of an in-flight Query or Exec.
	Cancel() error

	// Close releases the statement handle.
	Close() error
}

// Cursor is an open handle over a pending result set, fetched incrementally.
type Cursor interface {
	// FetchNext pulls up to max rows from the cursor. A return of fewer
	// than max rows (including zero) means the result set is exhausted.
	FetchNext(ctx context.Context, max int) ([]Row, error)

	// Close releases the cursor handle.
	Close() error
}

// Decoder turns one raw row into a typed value. It fails with a *DecodeError
// when the row shape or a column type does not match T.
type Decoder[T any] func(Row) (T, error)

// Encoder turns a typed parameter value into the driver-level value bound to
// a placeholder. The zero Encoder (nil) binds values unchanged.
type Encoder func(value any) (any, error)
