package executor

import (
	"errors"
	"fmt"

	"github.com/gogpu/hyperview"
	"github.com/gogpu/hyperview/decode"
)

// Executor errors.
var (
	// ErrClosed is returned or logged when an operation reaches an
	// executor after Close.
	ErrClosed = errors.New("executor: closed")

	// ErrDecodePanic tags decode failures caused by a recovered panic
	// inside a parser.
	ErrDecodePanic = errors.New("executor: decode panic")
)

// Outcome is one finished decode, success or failure. Exactly one of
// Image and Err is set.
type Outcome struct {
	// ID is the per-executor monotonic request id.
	ID uint64

	// Name is the identity the request was submitted for.
	Name hyperview.Identity

	// Image is the decoded result on success.
	Image *hyperview.DecodedImage

	// Err is the decode failure on error.
	Err error
}

// Executor is the background decode contract shared by the native
// goroutine substrate and the Web Worker substrate.
//
// Submission is fire-and-forget and polling is non-blocking, so the
// interactive thread can call both every frame. Results arrive in
// completion order, not submission order. An identity stays pending
// from RequestDecode until its Outcome is taken; the executor does
// not deduplicate requests, that is the caller's job via IsPending.
type Executor interface {
	// RequestDecode submits one payload for background decoding.
	// It never blocks. Requests made before the substrate is ready
	// are buffered in-process and flushed when it becomes ready.
	RequestDecode(name hyperview.Identity, data []byte)

	// TakeOneResult removes and returns one finished outcome, if any.
	// It never blocks; ok is false when no result is waiting.
	TakeOneResult() (out *Outcome, ok bool)

	// PendingCount returns the number of identities submitted but not
	// yet taken.
	PendingCount() int

	// IsPending reports whether the identity has been submitted and
	// its outcome not yet taken.
	IsPending(name hyperview.Identity) bool

	// FlushQueue forwards any requests buffered before the substrate
	// became ready. It is a no-op on substrates that are ready from
	// construction.
	FlushQueue()

	// Close shuts the executor down, discarding queued requests and
	// unread results. Close is idempotent and never deadlocks.
	Close()
}

// safeDecode runs the decoder with a panic barrier so a malformed
// payload can never take down the decode substrate.
func safeDecode(name hyperview.Identity, data []byte) (img *hyperview.DecodedImage, err error) {
	defer func() {
		if r := recover(); r != nil {
			img = nil
			err = fmt.Errorf("%w: %v", ErrDecodePanic, r)
		}
	}()
	return decode.Decode(name, data)
}
