package harness

import (
	"errors"

	"github.com/PraverBajaj/doobie/internal/exec"
	"github.com/PraverBajaj/doobie/internal/testutil"
)

// TraceEvent is one emitted execution event, flattened for golden-file
// comparison. Call IDs are random per invocation and deliberately omitted;
// durations are whole milliseconds, which the step clock makes exact.
type TraceEvent struct {
	Kind      string `json:"kind"`
	Label     string `json:"label"`
	SQL       string `json:"sql"`
	Args      []any  `json:"args,omitempty"`
	ExecMs    int64  `json:"exec_ms"`
	ProcessMs int64  `json:"process_ms"`

	// ErrorCode is the lifecycle code carried by the event's error, empty
	// on success events.
	ErrorCode string `json:"error_code,omitempty"`

	// Cause is the root cause message under the lifecycle error.
	Cause string `json:"cause,omitempty"`
}

// Result is the outcome of running one scenario: the terminal value or
// error, the recorded event trace, and the scripted connection with its
// call counters for release/cancel assertions.
type Result struct {
	Scenario *Scenario

	// Values holds the decoded rows in query mode.
	Values []int

	// Batches holds the decoded chunks in stream mode.
	Batches [][]int

	// RowsAffected holds the terminal count in exec mode.
	RowsAffected int64

	// Err is the invocation's terminal error, nil on success.
	Err error

	// Trace is the flattened event trace in emission order.
	Trace []TraceEvent

	// Conn is the scripted connection the invocation ran against.
	Conn *testutil.Conn
}

// traceOf flattens recorded events into golden-comparable trace entries.
func traceOf(events []exec.Event) []TraceEvent {
	trace := make([]TraceEvent, 0, len(events))
	for _, ev := range events {
		te := TraceEvent{
			Kind:      string(ev.Kind),
			Label:     ev.Info.Label,
			SQL:       ev.Info.SQL,
			Args:      ev.Info.Args,
			ExecMs:    ev.ExecDuration.Milliseconds(),
			ProcessMs: ev.ProcessDuration.Milliseconds(),
		}
		if ev.Err != nil {
			te.ErrorCode = string(exec.CodeOf(ev.Err))
			te.Cause = rootCause(ev.Err)
		}
		trace = append(trace, te)
	}
	return trace
}

// rootCause digs under the lifecycle error for the original failure message.
// Lifecycle error strings embed the random call ID, so they never appear in
// traces directly.
func rootCause(err error) string {
	var pe *exec.PhaseError
	if errors.As(err, &pe) && pe.Err != nil {
		return pe.Err.Error()
	}
	return err.Error()
}
