package executor

import (
	"sync"

	"github.com/gogpu/hyperview"
)

// heldRequest is one decode request buffered before the substrate
// signaled readiness.
type heldRequest struct {
	id   uint64
	name hyperview.Identity
	data []byte
}

// readyQueue gates request submission on a one-shot readiness signal.
//
// Until MarkReady is called, Hold buffers requests in FIFO order.
// After the signal, Hold refuses and the caller submits directly. The
// zero value is a valid, not-yet-ready queue.
type readyQueue struct {
	mu    sync.Mutex
	ready bool
	held  []heldRequest
}

// Hold buffers the request if the substrate is not ready yet. It
// reports false when the queue is already open, in which case the
// caller must submit the request itself.
func (q *readyQueue) Hold(r heldRequest) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.ready {
		return false
	}
	q.held = append(q.held, r)
	return true
}

// MarkReady opens the queue and returns everything buffered so far in
// submission order. Subsequent calls return nil.
func (q *readyQueue) MarkReady() []heldRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ready = true
	held := q.held
	q.held = nil
	return held
}

// Ready reports whether the readiness signal has arrived.
func (q *readyQueue) Ready() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.ready
}

// Drop discards anything still buffered without opening the queue.
func (q *readyQueue) Drop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.held = nil
}
