package exec

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/PraverBajaj/doobie/internal/driver"
)

// Executor interprets execution plans. It owns the cross-cutting concerns of
// every invocation: the log handler, the parameter encoder, the clock used
// for phase timing, and the redaction policy for logged arguments.
//
// The zero value is not usable; construct with New. An Executor is immutable
// after construction and safe for concurrent use across connections, subject
// to the rule that a single connection never carries two concurrent
// in-flight executions.
type Executor struct {
	handler LogHandler
	encode  driver.Encoder
	now     func() time.Time
	redact  bool
}

// Option configures an Executor.
type Option func(*Executor)

// WithHandler installs the log handler receiving every terminal Event.
func WithHandler(h LogHandler) Option {
	return func(ex *Executor) {
		if h != nil {
			ex.handler = h
		}
	}
}

// WithEncoder installs the parameter encoder applied before binding.
func WithEncoder(enc driver.Encoder) Option {
	return func(ex *Executor) { ex.encode = enc }
}

// WithClock replaces the timestamp source used for phase timing.
// Tests install a deterministic clock here.
func WithClock(now func() time.Time) Option {
	return func(ex *Executor) {
		if now != nil {
			ex.now = now
		}
	}
}

// WithRedaction masks credential-shaped argument values before they are
// attached to log events.
func WithRedaction() Option {
	return func(ex *Executor) { ex.redact = true }
}

// New builds an Executor. Without options it times with time.Now, binds
// parameters unchanged, and discards every event.
func New(opts ...Option) *Executor {
	ex := &Executor{
		handler: NopHandler,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(ex)
	}
	return ex
}

// stamp finalizes the LogInfo for one invocation: call ID, canonical SQL
// text, and redacted arguments when configured. A preset ID is honored so
// tests can produce deterministic traces.
func (ex *Executor) stamp(info LogInfo) LogInfo {
	if info.ID == "" {
		info.ID = newCallID()
	}
	info.SQL = CanonicalSQL(info.SQL)
	if ex.redact {
		info.Args = RedactArgs(info.Args)
	}
	return info
}

// emit hands ev to the handler and returns the invocation's terminal error.
// A handler failure supersedes terminal, which stays reachable through the
// returned LOGGING_FAILED error's cause chain.
func (ex *Executor) emit(ev Event, terminal error) error {
	if lerr := ex.handler(ev); lerr != nil {
		return &PhaseError{Code: CodeLogging, Info: ev.Info, Err: errors.Join(lerr, terminal)}
	}
	return terminal
}

func (ex *Executor) encodeArg(v any) (any, error) {
	if ex.encode == nil {
		return v, nil
	}
	return ex.encode(v)
}

// QueryPlan describes an invocation whose execute step yields an open cursor
// consumed by the process step. Pure data; nothing runs until the plan is
// handed to WithResult.
type QueryPlan[T any] struct {
	Info    LogInfo
	Create  func(ctx context.Context) (driver.Stmt, error)
	Prepare func(ctx context.Context, st driver.Stmt) error
	Execute func(ctx context.Context, st driver.Stmt) (driver.Cursor, error)
	Process func(ctx context.Context, cur driver.Cursor) (T, error)
}

// ExecPlan describes an invocation whose execute step yields the terminal
// value directly: row counts, generated keys read eagerly by the driver.
// There is no cursor branch.
type ExecPlan[T any] struct {
	Info    LogInfo
	Create  func(ctx context.Context) (driver.Stmt, error)
	Prepare func(ctx context.Context, st driver.Stmt) error
	Execute func(ctx context.Context, st driver.Stmt) (T, error)
}

// WithResult runs a QueryPlan through the full lifecycle:
// create, prepare, execute, process.
//
// The statement handle is released on every exit path, the cursor handle
// before it. Exactly one terminal Event is emitted. A release failure is
// joined onto the returned error, never discarded.
func WithResult[T any](ctx context.Context, ex *Executor, p QueryPlan[T]) (T, error) {
	var zero T
	info := ex.stamp(p.Info)

	st, err := p.Create(ctx)
	if err != nil {
		// No statement exists to close.
		ferr := ex.failure(CodeCreation, info, 0, err)
		return zero, ex.emit(execFailureEvent(info, 0, ferr), ferr)
	}
	stc := newCloser(st.Close)
	defer stc.close()

	if err := p.Prepare(ctx, st); err != nil {
		ferr := ex.failure(CodePreparation, info, 0, err)
		return zero, ex.emit(execFailureEvent(info, 0, ferr), errors.Join(ferr, stc.close()))
	}

	cur, execDur, err := Attempt(ex.now, func() (driver.Cursor, error) {
		return guardCancel(ctx, st, p.Execute)
	})
	if err != nil {
		ferr := ex.failure(CodeExecution, info, execDur, err)
		return zero, ex.emit(execFailureEvent(info, execDur, ferr), errors.Join(ferr, stc.close()))
	}
	curc := newCloser(cur.Close)
	defer curc.close()

	v, procDur, err := Attempt(ex.now, func() (T, error) {
		return p.Process(ctx, cur)
	})
	if err != nil {
		ferr := ex.failure(CodeProcessing, info, procDur, err)
		cerr := errors.Join(curc.close(), stc.close())
		return zero, ex.emit(processingFailureEvent(info, execDur, procDur, ferr), errors.Join(ferr, cerr))
	}

	cerr := errors.Join(curc.close(), stc.close())
	return v, ex.emit(successEvent(info, execDur, procDur), cerr)
}

// WithoutResult runs an ExecPlan: identical to WithResult minus the cursor
// branch. The Success event carries a zero processing duration.
func WithoutResult[T any](ctx context.Context, ex *Executor, p ExecPlan[T]) (T, error) {
	var zero T
	info := ex.stamp(p.Info)

	st, err := p.Create(ctx)
	if err != nil {
		ferr := ex.failure(CodeCreation, info, 0, err)
		return zero, ex.emit(execFailureEvent(info, 0, ferr), ferr)
	}
	stc := newCloser(st.Close)
	defer stc.close()

	if err := p.Prepare(ctx, st); err != nil {
		ferr := ex.failure(CodePreparation, info, 0, err)
		return zero, ex.emit(execFailureEvent(info, 0, ferr), errors.Join(ferr, stc.close()))
	}

	v, execDur, err := Attempt(ex.now, func() (T, error) {
		return guardCancel(ctx, st, p.Execute)
	})
	if err != nil {
		ferr := ex.failure(CodeExecution, info, execDur, err)
		return zero, ex.emit(execFailureEvent(info, execDur, ferr), errors.Join(ferr, stc.close()))
	}

	cerr := stc.close()
	return v, ex.emit(successEvent(info, execDur, 0), cerr)
}

// closer makes a release function idempotent: the underlying close runs at
// most once, every call observes its error. Handles are closed explicitly on
// each exit path for error capture; the deferred call is the panic backstop.
type closer struct {
	once sync.Once
	f    func() error
	err  error
}

func newCloser(f func() error) *closer {
	return &closer{f: f}
}

func (c *closer) close() error {
	c.once.Do(func() { c.err = c.f() })
	return c.err
}
