// Package executor runs image decoding off the interactive thread.
//
// One contract, two substrates. On native builds Spawn starts a
// dedicated decode goroutine; on js/wasm builds SpawnWorker drives a
// Web Worker over a structured message protocol, and RunWorker is the
// entry point for the wasm binary running inside that worker. Both
// satisfy the Executor interface: fire-and-forget request submission
// and a non-blocking result poll, with no ordering guarantee between
// requests.
package executor
