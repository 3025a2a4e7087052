package texture

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/hyperview"
)

// DefaultPreloadCount is the preload window radius used when no option
// overrides it: two neighbors ahead and two behind the current image.
const DefaultPreloadCount = 2

// Stats holds cache counters, sampled atomically.
type Stats struct {
	// Hits and Misses count Contains lookups.
	Hits   uint64
	Misses uint64

	// Evictions counts entries destroyed by RetainOnly or Clear.
	Evictions uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithPreloadCount sets the preload window radius. Values below zero
// are treated as zero.
func WithPreloadCount(n int) Option {
	return func(c *Cache) {
		if n < 0 {
			n = 0
		}
		c.preloadCount = n
	}
}

// Cache maps identities to GPU-resident entries and computes the
// preload and keep windows over a circular sequence.
//
// With preload count p, the keep window around the current image holds
// at most 2p+1 entries: the current image plus p forward and p
// backward neighbors, deduplicated modulo the sequence length. All
// methods are safe for concurrent use, though the intended caller is
// the single interactive context.
type Cache struct {
	mu           sync.Mutex
	device       hal.Device
	entries      map[hyperview.Identity]*Entry
	preloadCount int

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// NewCache creates a cache whose evicted entries are destroyed on the
// given device.
func NewCache(device hal.Device, opts ...Option) *Cache {
	c := &Cache{
		device:       device,
		entries:      make(map[hyperview.Identity]*Entry),
		preloadCount: DefaultPreloadCount,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Contains reports whether an entry for the identity is resident.
func (c *Cache) Contains(name hyperview.Identity) bool {
	c.mu.Lock()
	_, ok := c.entries[name]
	c.mu.Unlock()
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return ok
}

// Insert stores the entry under its identity, taking ownership of its
// GPU resources. An existing entry for the same identity is destroyed
// first.
func (c *Cache) Insert(e *Entry) {
	c.mu.Lock()
	old := c.entries[e.Name]
	c.entries[e.Name] = e
	c.mu.Unlock()

	if old != nil && old != e {
		old.Destroy(c.device)
		c.evictions.Add(1)
	}
}

// Take removes and returns the entry for the identity, transferring
// GPU ownership to the caller. The entry is not destroyed; the caller
// destroys it (or re-Inserts it) when done.
func (c *Cache) Take(name hyperview.Identity) (*Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[name]
	if !ok {
		return nil, false
	}
	delete(c.entries, name)
	return e, true
}

// Len returns the number of resident entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// PreloadCount returns the current window radius.
func (c *Cache) PreloadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.preloadCount
}

// SetPreloadCount changes the window radius at runtime. The new value
// takes effect on the next window computation; it does not evict
// anything by itself. Values below zero are treated as zero.
func (c *Cache) SetPreloadCount(n int) {
	if n < 0 {
		n = 0
	}
	c.mu.Lock()
	c.preloadCount = n
	c.mu.Unlock()
}

// PathsToPreload returns the identities within the preload window of
// current that are neither resident nor the current image itself, in
// priority order: forward neighbors nearest-first, then backward
// neighbors nearest-first. Duplicates from wrap-around are dropped, so
// a short sequence or a large window never lists an identity twice.
func (c *Cache) PathsToPreload(seq *hyperview.Sequence, current int) []hyperview.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()

	length := seq.Len()
	if length <= 1 {
		return nil
	}
	cur := seq.At(current)
	seen := map[hyperview.Identity]struct{}{cur: {}}
	var out []hyperview.Identity

	add := func(idx int) {
		name := seq.At(idx)
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		if _, resident := c.entries[name]; resident {
			return
		}
		out = append(out, name)
	}
	for off := 1; off <= c.preloadCount; off++ {
		add(hyperview.ForwardIndex(current, off, length))
	}
	for off := 1; off <= c.preloadCount; off++ {
		add(hyperview.BackwardIndex(current, off, length))
	}
	return out
}

// PathsToKeep returns the full keep window: the current identity plus
// every preload neighbor, resident or not, deduplicated. RetainOnly
// with this set enforces the 2p+1 residency bound.
func (c *Cache) PathsToKeep(seq *hyperview.Sequence, current int) []hyperview.Identity {
	c.mu.Lock()
	defer c.mu.Unlock()

	length := seq.Len()
	if length == 0 {
		return nil
	}
	seen := make(map[hyperview.Identity]struct{})
	var out []hyperview.Identity

	add := func(idx int) {
		name := seq.At(idx)
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	add(current)
	for off := 1; off <= c.preloadCount; off++ {
		add(hyperview.ForwardIndex(current, off, length))
		add(hyperview.BackwardIndex(current, off, length))
	}
	return out
}

// RetainOnly destroys every resident entry whose identity is not in
// keep. Destruction is synchronous; when RetainOnly returns the
// evicted GPU memory is reclaimable. Calling it again with the same
// set is a no-op.
func (c *Cache) RetainOnly(keep []hyperview.Identity) {
	keepSet := make(map[hyperview.Identity]struct{}, len(keep))
	for _, name := range keep {
		keepSet[name] = struct{}{}
	}

	c.mu.Lock()
	var evicted []*Entry
	for name, e := range c.entries {
		if _, ok := keepSet[name]; !ok {
			evicted = append(evicted, e)
			delete(c.entries, name)
		}
	}
	c.mu.Unlock()

	for _, e := range evicted {
		e.Destroy(c.device)
		c.evictions.Add(1)
		hyperview.Logger().Debug("evicted texture entry", "name", string(e.Name))
	}
}

// Clear destroys every resident entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	entries := c.entries
	c.entries = make(map[hyperview.Identity]*Entry)
	c.mu.Unlock()

	for _, e := range entries {
		e.Destroy(c.device)
		c.evictions.Add(1)
	}
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

// ResetStats resets all counters to zero.
func (c *Cache) ResetStats() {
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
}
