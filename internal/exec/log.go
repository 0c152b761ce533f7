package exec

import (
	"time"

	"github.com/google/uuid"
)

// LogInfo identifies one logical call site. It is created once per invocation
// and carried unchanged on every event emitted for that invocation.
type LogInfo struct {
	// ID correlates all events of one invocation. Stamped with a UUIDv7
	// when left empty; tests set it explicitly for deterministic traces.
	ID string

	// Label names the call site (e.g. "users.byEmail").
	Label string

	// SQL is the statement text, canonicalized for stable log output.
	SQL string

	// Args are the bound parameter values, possibly redacted.
	Args []any
}

// EventKind tags the terminal outcome an Event reports.
type EventKind string

const (
	// KindSuccess reports a fully successful invocation.
	KindSuccess EventKind = "success"

	// KindExecFailure reports a failure during statement creation,
	// parameter binding, or execution.
	KindExecFailure EventKind = "exec_failure"

	// KindProcessingFailure reports a failure while consuming the cursor
	// after a successful execution.
	KindProcessingFailure EventKind = "processing_failure"
)

// Event is one structured execution record. Exactly one terminal Event is
// emitted per invocation: a success, or the failure that short-circuited it.
type Event struct {
	Kind EventKind
	Info LogInfo

	// ExecDuration covers the execute phase. Zero when the invocation
	// failed before execution started.
	ExecDuration time.Duration

	// ProcessDuration covers cursor consumption. Zero for invocations
	// without a cursor branch and for failures before processing.
	ProcessDuration time.Duration

	// Err is the captured failure; nil on KindSuccess.
	Err error
}

// LogHandler receives every Event emitted by an Executor. Implementations
// must be safe for use across invocations; the executor only ever invokes
// the handler, never mutates it. A non-nil return aborts the logging step
// and is surfaced to the caller as a LOGGING_FAILED error superseding (but
// wrapping) the error being reported.
type LogHandler func(Event) error

// NopHandler discards every event. It is the default handler.
func NopHandler(Event) error { return nil }

// newCallID returns an RFC 4122 UUIDv7 for correlating events.
// Panics if UUID generation fails (should never happen in practice).
func newCallID() string {
	return uuid.Must(uuid.NewV7()).String()
}

func successEvent(info LogInfo, execDur, procDur time.Duration) Event {
	return Event{Kind: KindSuccess, Info: info, ExecDuration: execDur, ProcessDuration: procDur}
}

func execFailureEvent(info LogInfo, execDur time.Duration, err error) Event {
	return Event{Kind: KindExecFailure, Info: info, ExecDuration: execDur, Err: err}
}

func processingFailureEvent(info LogInfo, execDur, procDur time.Duration, err error) Event {
	return Event{Kind: KindProcessingFailure, Info: info, ExecDuration: execDur, ProcessDuration: procDur, Err: err}
}
