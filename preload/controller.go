package preload

import (
	"github.com/gogpu/hyperview"
	"github.com/gogpu/hyperview/executor"
	"github.com/gogpu/hyperview/texture"
)

// DefaultEvictEvery is the number of ticks between eviction passes.
// Eviction walks the whole cache, so it runs on a coarser cadence than
// request submission.
const DefaultEvictEvery = 8

// ByteReader supplies raw image payloads. Raw I/O stays outside the
// library: the host decides whether bytes come from disk, an archive,
// or a network fetch.
type ByteReader interface {
	// ReadBytes returns the raw payload for the identity.
	ReadBytes(name hyperview.Identity) ([]byte, error)
}

// Uploader is the upload half of texture.Uploader, split out so tests
// can substitute their own.
type Uploader interface {
	Upload(img *hyperview.DecodedImage) (*texture.Entry, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithEvictEvery sets the tick period between eviction passes. Values
// below one are treated as one (evict every tick).
func WithEvictEvery(n int) Option {
	return func(c *Controller) {
		if n < 1 {
			n = 1
		}
		c.evictEvery = n
	}
}

// Controller coordinates the sequence, executor, uploader, and cache.
//
// It is owned by the interactive context and is not safe for
// concurrent use. A stale decode result, one whose identity has since
// left the keep window, is still inserted and swept out by the next
// eviction pass; this keeps Tick free of any window recheck.
type Controller struct {
	exec     executor.Executor
	cache    *texture.Cache
	uploader Uploader
	reader   ByteReader
	seq      *hyperview.Sequence

	evictEvery int
	tick       int
}

// NewController wires the preload loop together. The sequence is
// shared with the caller, which navigates it between ticks.
func NewController(exec executor.Executor, cache *texture.Cache, uploader Uploader, reader ByteReader, seq *hyperview.Sequence, opts ...Option) *Controller {
	c := &Controller{
		exec:       exec,
		cache:      cache,
		uploader:   uploader,
		reader:     reader,
		seq:        seq,
		evictEvery: DefaultEvictEvery,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tick runs one frame of preload work and never blocks:
//
//  1. Submit a decode request for each preload-window neighbor that is
//     neither resident nor already pending. Read failures are logged
//     and the identity skipped until a later tick retries it.
//  2. Drain at most one decode result; on success upload it and insert
//     the entry, on failure log and drop (no automatic retry).
//  3. Every evict period, destroy everything outside the keep window.
func (c *Controller) Tick() {
	current := c.seq.CurrentIndex()

	for _, name := range c.cache.PathsToPreload(c.seq, current) {
		if c.exec.IsPending(name) {
			continue
		}
		data, err := c.reader.ReadBytes(name)
		if err != nil {
			hyperview.Logger().Warn("read failed", "name", string(name), "error", err)
			continue
		}
		c.exec.RequestDecode(name, data)
	}
	c.exec.FlushQueue()

	if out, ok := c.exec.TakeOneResult(); ok {
		switch {
		case out.Err != nil:
			hyperview.Logger().Warn("decode failed", "name", string(out.Name), "error", out.Err)
		default:
			entry, err := c.uploader.Upload(out.Image)
			if err != nil {
				hyperview.Logger().Warn("upload failed", "name", string(out.Name), "error", err)
			} else {
				c.cache.Insert(entry)
			}
		}
	}

	c.tick++
	if c.tick%c.evictEvery == 0 {
		c.cache.RetainOnly(c.cache.PathsToKeep(c.seq, current))
	}
}

// TakeCurrent removes and returns the entry for the current identity,
// transferring GPU ownership to the caller, typically to hand it to
// the active render slot. Returns false when the current image is not
// resident yet.
func (c *Controller) TakeCurrent() (*texture.Entry, bool) {
	name, ok := c.seq.Current()
	if !ok {
		return nil, false
	}
	return c.cache.Take(name)
}

// Evict runs an eviction pass immediately, outside the periodic
// cadence. Useful after a jump navigation that invalidates most of the
// window.
func (c *Controller) Evict() {
	c.cache.RetainOnly(c.cache.PathsToKeep(c.seq, c.seq.CurrentIndex()))
}

// Reset clears the GPU cache. Call it when the sequence contents are
// replaced wholesale; in-flight decode results for dropped identities
// are tolerated and swept by later eviction passes.
func (c *Controller) Reset() {
	c.cache.Clear()
	c.tick = 0
}
