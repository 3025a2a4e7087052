// Package preload drives the decode-upload-evict loop.
//
// The Controller is called once per frame from the interactive
// context. Each Tick submits missing preload-window neighbors to the
// executor, drains at most one decode result into the GPU cache, and
// periodically evicts everything outside the keep window. No call ever
// blocks.
package preload
