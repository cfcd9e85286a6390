// Package engine compiles batches of queries concurrently and records the
// results in the parse log.
//
// ARCHITECTURE:
//
// Worker Pool, Single Writer:
// Compilation is a pure function, so requests are spread over N workers.
// Results are handed to one writer goroutine that releases them strictly in
// request order. Only the writer touches the clock and the store, so:
//   - seq numbers follow request order, whatever order workers finish in
//   - the log for a batch is identical across runs
//   - SQLite sees a single writer
//
// Logical Clock:
// Runs and parses are stamped with seq numbers from Clock.Next(). Wall-clock
// time is never recorded.
//
// Replay:
// Replay recompiles every stored parse with the settings of its run and
// reports any field that differs from what was recorded. An empty report
// means this build of the frontend is deterministic with respect to the log.
package engine
