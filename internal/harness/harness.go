package harness

import (
	"context"
	"errors"
	"time"

	"github.com/PraverBajaj/doobie/internal/driver"
	"github.com/PraverBajaj/doobie/internal/exec"
	"github.com/PraverBajaj/doobie/internal/stream"
	"github.com/PraverBajaj/doobie/internal/testutil"
)

// clockStep is the fixed duration of one clock reading. Every timed phase
// reads the clock twice, so phase durations in traces are exact multiples of
// this step.
const clockStep = time.Millisecond

// cancelDelay bounds how long a blocked execute phase waits before the
// harness cancels the invocation's context.
const cancelDelay = 10 * time.Millisecond

// Run executes one scenario against a scripted connection and returns the
// outcome. The executor is wired with a step clock and an event recorder, so
// the same scenario always produces the same trace.
func Run(s *Scenario) *Result {
	return RunContext(context.Background(), s)
}

// RunContext is Run with a caller-supplied parent context.
func RunContext(ctx context.Context, s *Scenario) *Result {
	conn := testutil.NewConn(buildScript(s.Script))

	rec := &testutil.Recorder{}
	if s.Script.SinkError != "" {
		rec.Fail = errors.New(s.Script.SinkError)
	}

	clock := testutil.NewStepClock(clockStep)
	opts := []exec.Option{
		exec.WithHandler(rec.Handle),
		exec.WithClock(clock.Now),
	}
	if s.Call.Redact {
		opts = append(opts, exec.WithRedaction())
	}
	ex := exec.New(opts...)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if s.Script.BlockExecute {
		// The scripted execute phase parks until cancelled; let the
		// invocation reach it, then cancel.
		time.AfterFunc(cancelDelay, cancel)
	}

	res := &Result{Scenario: s, Conn: conn}
	switch s.Call.Mode {
	case ModeQuery:
		res.Values, res.Err = runQuery(ctx, ex, conn, s)
	case ModeExec:
		res.RowsAffected, res.Err = exec.Exec(ctx, ex, conn, s.Call.Label, s.Call.SQL, s.Call.Args...)
	case ModeStream:
		res.Batches, res.Err = runStream(ctx, cancel, ex, conn, s)
	}
	res.Trace = traceOf(rec.Events())
	return res
}

// buildScript translates the YAML script into the scripted driver's form.
func buildScript(s Script) testutil.Script {
	ts := testutil.Script{
		Rows:           s.Rows,
		RowsAffected:   s.RowsAffected,
		FetchErrOnCall: s.FetchErrOnCall,
	}
	if s.CreateError != "" {
		ts.CreateErr = errors.New(s.CreateError)
	}
	if s.BindError != "" {
		ts.BindErr = errors.New(s.BindError)
	}
	if s.ExecuteError != "" {
		ts.ExecuteErr = errors.New(s.ExecuteError)
	}
	if s.FetchError != "" {
		ts.FetchErr = errors.New(s.FetchError)
	}
	if s.StmtCloseError != "" {
		ts.StmtCloseErr = errors.New(s.StmtCloseError)
	}
	if s.BlockExecute {
		ts.BlockExecute = make(chan struct{})
	}
	return ts
}

func runQuery(ctx context.Context, ex *exec.Executor, conn driver.Conn, s *Scenario) ([]int, error) {
	if s.Call.ChunkSize <= 0 {
		return exec.Query(ctx, ex, conn, s.Call.Label, s.Call.SQL, s.Call.Args, testutil.DecodeInt)
	}
	size := s.Call.ChunkSize
	p := exec.QueryPlan[[]int]{
		Info: exec.LogInfo{Label: s.Call.Label, SQL: s.Call.SQL, Args: s.Call.Args},
		Create: func(ctx context.Context) (driver.Stmt, error) {
			return conn.Prepare(ctx, s.Call.SQL)
		},
		Prepare: func(_ context.Context, st driver.Stmt) error {
			for i, a := range s.Call.Args {
				if err := st.Bind(i+1, a); err != nil {
					return err
				}
			}
			return nil
		},
		Execute: func(ctx context.Context, st driver.Stmt) (driver.Cursor, error) {
			return st.Query(ctx)
		},
		Process: func(ctx context.Context, cur driver.Cursor) ([]int, error) {
			return exec.DrainAll(ctx, cur, testutil.DecodeInt, size)
		},
	}
	return exec.WithResult(ctx, ex, p)
}

func runStream(ctx context.Context, cancel context.CancelFunc, ex *exec.Executor, conn driver.Conn, s *Scenario) ([][]int, error) {
	var batches [][]int
	var n int
	seq := stream.Query(ctx, ex, conn, s.Call.Label, s.Call.SQL, s.Call.Args, testutil.DecodeInt, s.Call.ChunkSize)
	for batch, err := range seq {
		if err != nil {
			return batches, err
		}
		batches = append(batches, batch)
		n++
		if s.Call.CancelAfterBatches != nil && n >= *s.Call.CancelAfterBatches {
			cancel()
		}
	}
	return batches, nil
}
