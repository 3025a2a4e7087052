//go:build js && wasm

package executor

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"syscall/js"

	"github.com/gogpu/hyperview"
)

// WorkerExecutor runs decodes inside a browser Web Worker.
//
// The main-thread wasm instance posts request messages to the worker;
// the worker runs its own wasm instance (entered through RunWorker),
// decodes, and posts result messages back. Requests submitted before
// the worker's one-time ready message arrive are buffered in-process
// and flushed on readiness, so callers never block on worker startup.
//
// Message protocol, worker-bound:
//
//	{id: number, name: string, bytes: Uint8Array}
//
// main-thread-bound:
//
//	{type: "ready"}
//	{id: number, name: string, width, height, num_bands, num_layers, layers: [Uint8Array]}
//	{id: number, name: string, error: string}
type WorkerExecutor struct {
	worker    js.Value
	onMessage js.Func
	onError   js.Func

	rq readyQueue

	mu      sync.Mutex
	results []*Outcome
	pending map[hyperview.Identity]int

	nextID atomic.Uint64
	closed atomic.Bool
}

var _ Executor = (*WorkerExecutor)(nil)

// SpawnWorker creates a Web Worker from the given script URL and wires
// the decode message protocol to it. The worker script is expected to
// load a wasm binary whose main calls RunWorker.
func SpawnWorker(scriptURL string) (e *WorkerExecutor, err error) {
	defer func() {
		if r := recover(); r != nil {
			e = nil
			err = fmt.Errorf("executor: spawn worker %q: %v", scriptURL, r)
		}
	}()

	worker := js.Global().Get("Worker").New(scriptURL)
	e = &WorkerExecutor{
		worker:  worker,
		pending: make(map[hyperview.Identity]int),
	}
	e.onMessage = js.FuncOf(e.handleMessage)
	e.onError = js.FuncOf(e.handleError)
	worker.Set("onmessage", e.onMessage)
	worker.Set("onerror", e.onError)

	hyperview.Logger().Info("decode worker spawned", "script", scriptURL)
	return e, nil
}

// RequestDecode submits one payload for decoding. Before the worker is
// ready the request is held in-process; afterwards it is posted
// directly. It never blocks.
func (e *WorkerExecutor) RequestDecode(name hyperview.Identity, data []byte) {
	if e.closed.Load() {
		hyperview.Logger().Warn("decode request after close", "name", string(name))
		return
	}
	id := e.nextID.Add(1)

	e.mu.Lock()
	e.pending[name]++
	e.mu.Unlock()

	req := heldRequest{id: id, name: name, data: data}
	if e.rq.Hold(req) {
		return
	}
	e.post(req)
}

// TakeOneResult removes and returns the oldest finished outcome, if
// any. Taking the result releases the identity from the pending set.
func (e *WorkerExecutor) TakeOneResult() (*Outcome, bool) {
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
func (e *WorkerExecutor) PendingCount() int {
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
func (e *WorkerExecutor) IsPending(name hyperview.Identity) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending[name] > 0
}

// FlushQueue posts any requests still held from before readiness. The
// ready message normally flushes them already; FlushQueue exists for
// callers that want an explicit pump point in their frame loop.
func (e *WorkerExecutor) FlushQueue() {
	if !e.rq.Ready() {
		return
	}
	for _, r := range e.rq.MarkReady() {
		e.post(r)
	}
}

// Close terminates the worker and discards held requests and unread
// results. Close is idempotent.
func (e *WorkerExecutor) Close() {
	if !e.closed.CompareAndSwap(false, true) {
		return
	}
	e.worker.Call("terminate")
	e.onMessage.Release()
	e.onError.Release()
	e.rq.Drop()

	e.mu.Lock()
	e.results = nil
	e.pending = make(map[hyperview.Identity]int)
	e.mu.Unlock()

	hyperview.Logger().Info("decode worker closed")
}

func (e *WorkerExecutor) releasePendingLocked(name hyperview.Identity) {
	if e.pending[name] > 1 {
		e.pending[name]--
		return
	}
	delete(e.pending, name)
}

// post sends one request message to the worker.
func (e *WorkerExecutor) post(r heldRequest) {
	bytes := js.Global().Get("Uint8Array").New(len(r.data))
	js.CopyBytesToJS(bytes, r.data)
	e.worker.Call("postMessage", js.ValueOf(map[string]interface{}{
		"id":    float64(r.id),
		"name":  string(r.name),
		"bytes": bytes,
	}))
}

// handleMessage dispatches worker-to-main messages: the one-time ready
// gate, then decode results.
func (e *WorkerExecutor) handleMessage(_ js.Value, args []js.Value) interface{} {
	if len(args) == 0 {
		return nil
	}
	msg := args[0].Get("data")

	if t := msg.Get("type"); t.Type() == js.TypeString && t.String() == "ready" {
		held := e.rq.MarkReady()
		hyperview.Logger().Info("decode worker ready", "flushed", len(held))
		for _, r := range held {
			e.post(r)
		}
		return nil
	}

	out := &Outcome{
		ID:   uint64(msg.Get("id").Float()),
		Name: hyperview.Identity(msg.Get("name").String()),
	}
	if errv := msg.Get("error"); errv.Type() == js.TypeString {
		out.Err = errors.New(errv.String())
		hyperview.Logger().Warn("decode failed", "name", string(out.Name), "error", out.Err)
	} else {
		jsLayers := msg.Get("layers")
		layers := make([][]byte, jsLayers.Length())
		for i := range layers {
			src := jsLayers.Index(i)
			layers[i] = make([]byte, src.Length())
			js.CopyBytesToGo(layers[i], src)
		}
		out.Image = &hyperview.DecodedImage{
			Name:      out.Name,
			Width:     msg.Get("width").Int(),
			Height:    msg.Get("height").Int(),
			NumBands:  msg.Get("num_bands").Int(),
			NumLayers: msg.Get("num_layers").Int(),
			Layers:    layers,
		}
	}

	e.mu.Lock()
	e.results = append(e.results, out)
	e.mu.Unlock()
	return nil
}

// handleError surfaces worker-level failures (script load errors and
// uncaught exceptions) in the log. Individual decode failures come
// back as error messages instead.
func (e *WorkerExecutor) handleError(_ js.Value, args []js.Value) interface{} {
	detail := "unknown"
	if len(args) > 0 {
		if m := args[0].Get("message"); m.Type() == js.TypeString {
			detail = m.String()
		}
	}
	hyperview.Logger().Warn("decode worker error", "error", detail)
	return nil
}

// RunWorker is the wasm entry point inside the Web Worker. It posts
// the ready message, then serves decode requests until the worker is
// terminated. It never returns.
func RunWorker() {
	global := js.Global()

	onMessage := js.FuncOf(func(_ js.Value, args []js.Value) interface{} {
		if len(args) == 0 {
			return nil
		}
		msg := args[0].Get("data")
		id := msg.Get("id").Float()
		name := hyperview.Identity(msg.Get("name").String())

		src := msg.Get("bytes")
		data := make([]byte, src.Length())
		js.CopyBytesToGo(data, src)

		img, err := safeDecode(name, data)
		if err != nil {
			global.Call("postMessage", js.ValueOf(map[string]interface{}{
				"id":    id,
				"name":  string(name),
				"error": err.Error(),
			}))
			return nil
		}

		jsLayers := make([]interface{}, len(img.Layers))
		for i, layer := range img.Layers {
			arr := global.Get("Uint8Array").New(len(layer))
			js.CopyBytesToJS(arr, layer)
			jsLayers[i] = arr
		}
		global.Call("postMessage", js.ValueOf(map[string]interface{}{
			"id":         id,
			"name":       string(name),
			"width":      img.Width,
			"height":     img.Height,
			"num_bands":  img.NumBands,
			"num_layers": img.NumLayers,
			"layers":     jsLayers,
		}))
		return nil
	})
	global.Set("onmessage", onMessage)

	global.Call("postMessage", js.ValueOf(map[string]interface{}{"type": "ready"}))

	select {}
}
