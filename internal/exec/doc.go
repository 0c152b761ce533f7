// Package exec implements the statement lifecycle: creating a prepared
// statement, binding its parameters, executing it, and consuming its result,
// with every phase timed, logged, and cancellable, and with the statement and
// cursor handles guaranteed to be released exactly once on every exit path.
//
// The unit of work is a plan: a bundle of closures describing what to run.
// [QueryPlan] carries an execute step that yields an open cursor plus a
// process step that consumes it; [ExecPlan] carries an execute step that
// yields the terminal value directly (row counts and the like). Nothing runs
// until the plan is handed to [WithResult] or [WithoutResult].
//
// Phases run strictly in order: create, prepare, execute, process. Exactly
// one terminal [Event] is emitted per invocation, to the [LogHandler]
// supplied when the [Executor] was built (no-op by default). A failing
// handler supersedes the error it was reporting; the original error stays
// reachable as a wrapped cause. This trade-off is deliberate: an
// observability failure is surfaced rather than silently dropped.
//
// For lazily streamed results, [Open] runs the first three phases and hands
// back a [PendingCursor] driven externally, batch by batch, by the stream
// package.
package exec
