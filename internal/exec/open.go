package exec

import (
	"context"
	"errors"
	"time"

	"github.com/PraverBajaj/doobie/internal/driver"
)

// CursorPlan describes the acquisition half of a streamed invocation:
// create, prepare, and execute-to-cursor. Consumption is driven externally
// through the returned PendingCursor.
type CursorPlan struct {
	Info    LogInfo
	Create  func(ctx context.Context) (driver.Stmt, error)
	Prepare func(ctx context.Context, st driver.Stmt) error
	Execute func(ctx context.Context, st driver.Stmt) (driver.Cursor, error)
}

// PendingCursor is an executed statement whose open cursor is consumed
// outside the lifecycle manager, batch by batch. The statement and cursor
// handles stay owned here: Finish releases both (cursor first) and emits the
// invocation's single terminal event. The processing duration covers the
// whole span from execution to Finish.
//
// A PendingCursor is bound to the single logical thread driving the
// consumption loop; it is not safe for concurrent use.
type PendingCursor struct {
	ex      *Executor
	info    LogInfo
	execDur time.Duration
	started time.Time
	st      driver.Stmt
	cur     driver.Cursor
	stc     *closer
	curc    *closer
	done    bool
}

// Open runs create, prepare, and execute. Failures in those phases release
// the statement, emit the ExecutionFailure event, and surface exactly as in
// WithResult. On success the caller owns driving the cursor and must call
// Finish exactly once.
func Open(ctx context.Context, ex *Executor, p CursorPlan) (*PendingCursor, error) {
	info := ex.stamp(p.Info)

	st, err := p.Create(ctx)
	if err != nil {
		ferr := ex.failure(CodeCreation, info, 0, err)
		return nil, ex.emit(execFailureEvent(info, 0, ferr), ferr)
	}
	stc := newCloser(st.Close)

	if err := p.Prepare(ctx, st); err != nil {
		ferr := ex.failure(CodePreparation, info, 0, err)
		return nil, ex.emit(execFailureEvent(info, 0, ferr), errors.Join(ferr, stc.close()))
	}

	cur, execDur, err := Attempt(ex.now, func() (driver.Cursor, error) {
		return guardCancel(ctx, st, p.Execute)
	})
	if err != nil {
		ferr := ex.failure(CodeExecution, info, execDur, err)
		return nil, ex.emit(execFailureEvent(info, execDur, ferr), errors.Join(ferr, stc.close()))
	}

	return &PendingCursor{
		ex:      ex,
		info:    info,
		execDur: execDur,
		started: ex.now(),
		st:      st,
		cur:     cur,
		stc:     stc,
		curc:    newCloser(cur.Close),
	}, nil
}

// Fetch pulls up to max raw rows from the cursor. A short (or empty) fetch
// means the result set is exhausted.
func (pc *PendingCursor) Fetch(ctx context.Context, max int) ([]driver.Row, error) {
	return pc.cur.FetchNext(ctx, max)
}

// Info returns the invocation's finalized LogInfo.
func (pc *PendingCursor) Info() LogInfo { return pc.info }

// Finish ends the consumption phase: the cursor and statement are released
// (cursor first) and the terminal event is emitted. With a nil perr the
// invocation succeeded, including when the consumer stopped early, and a
// Success event carries the full drain duration. With a non-nil perr a
// ProcessingFailure event carries both durations and the returned error
// wraps perr.
//
// Finish is idempotent; calls after the first return the first outcome's
// release errors only and emit nothing.
func (pc *PendingCursor) Finish(perr error) error {
	if pc.done {
		return errors.Join(pc.curc.close(), pc.stc.close())
	}
	pc.done = true

	procDur := pc.ex.now().Sub(pc.started)
	if procDur < 0 {
		procDur = -procDur
	}

	if perr != nil {
		ferr := pc.ex.failure(CodeProcessing, pc.info, procDur, perr)
		cerr := errors.Join(pc.curc.close(), pc.stc.close())
		return pc.ex.emit(processingFailureEvent(pc.info, pc.execDur, procDur, ferr), errors.Join(ferr, cerr))
	}

	cerr := errors.Join(pc.curc.close(), pc.stc.close())
	return pc.ex.emit(successEvent(pc.info, pc.execDur, procDur), cerr)
}
