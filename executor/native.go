//go:build !js

package executor

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/hyperview"
)

// ThreadExecutor runs decodes on one dedicated background goroutine.
//
// Requests go through a lock-guarded queue with a wake signal rather
// than a bounded channel, so RequestDecode never blocks no matter how
// far the decoder falls behind.
type ThreadExecutor struct {
	mu      sync.Mutex
	queue   []heldRequest
	results []*Outcome
	pending map[hyperview.Identity]int

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup

	nextID atomic.Uint64
	closed atomic.Bool
}

var _ Executor = (*ThreadExecutor)(nil)

// Spawn starts the background decode goroutine and returns the
// executor. The substrate is ready immediately; FlushQueue is a no-op.
func Spawn() (*ThreadExecutor, error) {
	e := &ThreadExecutor{
		pending: make(map[hyperview.Identity]int),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	e.wg.Add(1)
	go e.run()
	hyperview.Logger().Info("decode executor spawned")
	return e, nil
}

// RequestDecode submits one payload for decoding. It never blocks.
// Requests submitted after Close are dropped.
func (e *ThreadExecutor) RequestDecode(name hyperview.Identity, data []byte) {
	if e.closed.Load() {
		hyperview.Logger().Warn("decode request after close", "name", string(name))
		return
	}
	id := e.nextID.Add(1)

	e.mu.Lock()
	e.queue = append(e.queue, heldRequest{id: id, name: name, data: data})
	e.pending[name]++
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// TakeOneResult removes and returns the oldest finished outcome, if
// any. Taking the result releases the identity from the pending set.
func (e *ThreadExecutor) TakeOneResult() (*Outcome, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.results) == 0 {
		return nil, false
	}
	out := e.results[0]
	e.results = e.results[1:]
	e.releasePendingLocked(out.Name)
	return out, true
}

// PendingCount returns the number of requests submitted and not yet
// taken.
func (e *ThreadExecutor) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, c := range e.pending {
		n += c
	}
	return n
}

// IsPending reports whether a request for the identity is in flight or
// has an untaken result.
func (e *ThreadExecutor) IsPending(name hyperview.Identity) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending[name] > 0
}

// FlushQueue is a no-op: the goroutine substrate is ready from Spawn.
func (e *ThreadExecutor) FlushQueue() {}

// Close stops the decode goroutine, discarding queued requests and
// unread results. Close is idempotent and safe to call while a decode
// is in flight; it returns after the goroutine has exited.
func (e *ThreadExecutor) Close() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	close(e.done)
	e.wg.Wait()

	e.mu.Lock()
	e.queue = nil
	e.results = nil
	e.pending = make(map[hyperview.Identity]int)
	e.mu.Unlock()

	hyperview.Logger().Info("decode executor closed")
}

func (e *ThreadExecutor) releasePendingLocked(name hyperview.Identity) {
	if e.pending[name] > 1 {
		e.pending[name]--
		return
	}
	delete(e.pending, name)
}

// run is the decode loop. It drains the request queue on each wake
// signal and appends outcomes to the result queue.
func (e *ThreadExecutor) run() {
	defer e.wg.Done()
	for {
		select {
		case <-e.done:
			return
		case <-e.wake:
		}
		for {
			e.mu.Lock()
			if len(e.queue) == 0 {
				e.mu.Unlock()
				break
			}
			req := e.queue[0]
			e.queue = e.queue[1:]
			e.mu.Unlock()

			img, err := safeDecode(req.name, req.data)
			if err != nil {
				hyperview.Logger().Warn("decode failed", "name", string(req.name), "error", err)
			}

			e.mu.Lock()
			e.results = append(e.results, &Outcome{ID: req.id, Name: req.name, Image: img, Err: err})
			e.mu.Unlock()

			select {
			case <-e.done:
				return
			default:
			}
		}
	}
}
