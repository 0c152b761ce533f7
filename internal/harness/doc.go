// Package harness provides a conformance testing framework for the statement
// execution core.
//
// A scenario is a YAML file describing one invocation: the call site (label,
// SQL, arguments, execution mode), a script programming the outcome of every
// driver phase, and an expect clause over the terminal value, the emitted
// event trace, and the handle release/cancel counters.
//
// Scenarios run against scripted driver doubles with a deterministic step
// clock, so the same scenario produces a byte-identical event trace on every
// run. Traces can therefore be compared against golden files (testdata/golden)
// in addition to the expect-clause assertions.
//
// The harness drives the real execution core end to end; only the driver
// underneath it is scripted.
package harness
