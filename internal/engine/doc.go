// Package engine runs nested suites and specs.
//
// A loaded test file is a Unit: a function that declares suites and specs on
// a *Suite builder. The builder is backed by a RunContext owning all mutable
// state of one file run: the description stack, the per-depth hook registry,
// snapshot occurrence counters and the result set. Nothing is process-wide,
// so sequential runs cannot observe each other.
//
// # Execution Model
//
// Every suite and spec body runs on its own goroutine while its caller
// blocks, so exactly one goroutine touches the RunContext at a time and
// no locking is needed. The goroutine gives each body an isolation
// boundary: panics are recovered there, and runtime.Goexit (used by
// T.FailNow) ends only that body.
//
// # Classification
//
//   - Spec body returns cleanly: Pass.
//   - Spec body fails an assertion or panics: Fail.
//   - Suite body (or the unit itself) panics: Error, attributed to its path.
//
// Setup hooks run shallow-to-deep before every spec body and teardown hooks
// run in the same order after it, whatever the outcome. Hooks run outside
// the spec's isolation, so a panicking hook becomes an Error of the
// enclosing suite body.
package engine
