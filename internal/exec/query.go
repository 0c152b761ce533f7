package exec

import (
	"context"
	"errors"

	"github.com/PraverBajaj/doobie/internal/driver"
)

// createStep prepares query on conn.
func createStep(conn driver.Conn, query string) func(context.Context) (driver.Stmt, error) {
	return func(ctx context.Context) (driver.Stmt, error) {
		return conn.Prepare(ctx, query)
	}
}

// bindStep encodes each arg through the executor's encoder and binds it at
// its 1-based placeholder index.
func (ex *Executor) bindStep(args []any) func(context.Context, driver.Stmt) error {
	return func(_ context.Context, st driver.Stmt) error {
		for i, a := range args {
			v, err := ex.encodeArg(a)
			if err != nil {
				return err
			}
			if err := st.Bind(i+1, v); err != nil {
				return err
			}
		}
		return nil
	}
}

// NewCursorPlan builds the acquisition plan for a streamed query: prepare
// query on conn, bind args, execute to a cursor. Used by the stream package.
func NewCursorPlan(ex *Executor, conn driver.Conn, label, query string, args ...any) CursorPlan {
	return CursorPlan{
		Info:    LogInfo{Label: label, SQL: query, Args: args},
		Create:  createStep(conn, query),
		Prepare: ex.bindStep(args),
		Execute: func(ctx context.Context, st driver.Stmt) (driver.Cursor, error) {
			return st.Query(ctx)
		},
	}
}

// Query prepares and executes query on conn, eagerly decoding every result
// row with dec. The full lifecycle (timing, logging, cancellation, release)
// applies.
func Query[T any](ctx context.Context, ex *Executor, conn driver.Conn, label, query string, args []any, dec driver.Decoder[T]) ([]T, error) {
	p := QueryPlan[[]T]{
		Info:    LogInfo{Label: label, SQL: query, Args: args},
		Create:  createStep(conn, query),
		Prepare: ex.bindStep(args),
		Execute: func(ctx context.Context, st driver.Stmt) (driver.Cursor, error) {
			return st.Query(ctx)
		},
		Process: func(ctx context.Context, cur driver.Cursor) ([]T, error) {
			return DrainAll(ctx, cur, dec, DefaultFetchSize)
		},
	}
	return WithResult(ctx, ex, p)
}

// QueryOne is Query for statements expected to produce exactly one row.
func QueryOne[T any](ctx context.Context, ex *Executor, conn driver.Conn, label, query string, args []any, dec driver.Decoder[T]) (T, error) {
	p := QueryPlan[T]{
		Info:    LogInfo{Label: label, SQL: query, Args: args},
		Create:  createStep(conn, query),
		Prepare: ex.bindStep(args),
		Execute: func(ctx context.Context, st driver.Stmt) (driver.Cursor, error) {
			return st.Query(ctx)
		},
		Process: func(ctx context.Context, cur driver.Cursor) (T, error) {
			return One(ctx, cur, dec)
		},
	}
	return WithResult(ctx, ex, p)
}

// Exec prepares and executes a statement that returns no rows, yielding the
// affected row count as the terminal value.
func Exec(ctx context.Context, ex *Executor, conn driver.Conn, label, query string, args ...any) (int64, error) {
	p := ExecPlan[int64]{
		Info:    LogInfo{Label: label, SQL: query, Args: args},
		Create:  createStep(conn, query),
		Prepare: ex.bindStep(args),
		Execute: func(ctx context.Context, st driver.Stmt) (int64, error) {
			return st.Exec(ctx)
		},
	}
	return WithoutResult(ctx, ex, p)
}

// Transact runs fn inside the connection's transaction boundaries: commit on
// success, rollback on error or panic. A rollback or commit failure is
// joined onto the returned error.
func Transact[T any](ctx context.Context, conn driver.Conn, fn func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if p := recover(); p != nil {
			_ = conn.Rollback(ctx)
			panic(p)
		}
	}()

	v, err = fn(ctx)
	if err != nil {
		var zero T
		if rerr := conn.Rollback(ctx); rerr != nil {
			err = errors.Join(err, rerr)
		}
		return zero, err
	}
	if cerr := conn.Commit(ctx); cerr != nil {
		var zero T
		rerr := conn.Rollback(ctx)
		return zero, errors.Join(cerr, rerr)
	}
	return v, nil
}
