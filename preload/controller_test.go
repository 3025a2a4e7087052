package preload

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gogpu/hyperview"
	"github.com/gogpu/hyperview/executor"
	"github.com/gogpu/hyperview/texture"
)

// fakeExecutor records requests and serves queued outcomes without any
// background work.
type fakeExecutor struct {
	requests []hyperview.Identity
	pending  map[hyperview.Identity]bool
	results  []*executor.Outcome
	flushes  int
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{pending: make(map[hyperview.Identity]bool)}
}

func (f *fakeExecutor) RequestDecode(name hyperview.Identity, _ []byte) {
	f.requests = append(f.requests, name)
	f.pending[name] = true
}

func (f *fakeExecutor) TakeOneResult() (*executor.Outcome, bool) {
	if len(f.results) == 0 {
		return nil, false
	}
	out := f.results[0]
	f.results = f.results[1:]
	delete(f.pending, out.Name)
	return out, true
}

func (f *fakeExecutor) PendingCount() int { return len(f.pending) }

func (f *fakeExecutor) IsPending(name hyperview.Identity) bool { return f.pending[name] }

func (f *fakeExecutor) FlushQueue() { f.flushes++ }

func (f *fakeExecutor) Close() {}

// fakeReader serves payloads from a map; missing names error.
type fakeReader struct {
	data  map[hyperview.Identity][]byte
	reads []hyperview.Identity
}

func (r *fakeReader) ReadBytes(name hyperview.Identity) ([]byte, error) {
	r.reads = append(r.reads, name)
	d, ok := r.data[name]
	if !ok {
		return nil, fmt.Errorf("no payload for %s", name)
	}
	return d, nil
}

// fakeUploader wraps images into entries without touching a GPU.
type fakeUploader struct {
	uploads []hyperview.Identity
	fail    bool
}

func (u *fakeUploader) Upload(img *hyperview.DecodedImage) (*texture.Entry, error) {
	if u.fail {
		return nil, errors.New("upload refused")
	}
	u.uploads = append(u.uploads, img.Name)
	return &texture.Entry{
		Name:      img.Name,
		Width:     uint32(img.Width),  //nolint:gosec // test dimensions
		Height:    uint32(img.Height), //nolint:gosec // test dimensions
		NumBands:  img.NumBands,
		NumLayers: img.NumLayers,
	}, nil
}

func decodedImage(name hyperview.Identity) *hyperview.DecodedImage {
	return &hyperview.DecodedImage{Name: name, Width: 1, Height: 1, NumBands: 1, NumLayers: 2}
}

func newTestController(seqNames []hyperview.Identity, preloadCount int, opts ...Option) (*Controller, *fakeExecutor, *fakeReader, *fakeUploader, *texture.Cache) {
	exec := newFakeExecutor()
	reader := &fakeReader{data: make(map[hyperview.Identity][]byte)}
	for _, n := range seqNames {
		reader.data[n] = []byte{1}
	}
	up := &fakeUploader{}
	cache := texture.NewCache(nil, texture.WithPreloadCount(preloadCount))
	seq := hyperview.NewSequence(seqNames)
	ctrl := NewController(exec, cache, up, reader, seq, opts...)
	return ctrl, exec, reader, up, cache
}

func TestTickSubmitsPreloadWindow(t *testing.T) {
	ctrl, exec, reader, _, _ := newTestController(
		[]hyperview.Identity{"a", "b", "c", "d", "e"}, 2)

	ctrl.Tick()

	want := []hyperview.Identity{"b", "c", "e", "d"}
	if len(exec.requests) != len(want) {
		t.Fatalf("requests = %v, want %v", exec.requests, want)
	}
	for i, n := range want {
		if exec.requests[i] != n {
			t.Errorf("requests[%d] = %q, want %q", i, exec.requests[i], n)
		}
	}
	if len(reader.reads) != len(want) {
		t.Errorf("reads = %v, want one per request", reader.reads)
	}
	if exec.flushes != 1 {
		t.Errorf("flushes = %d, want 1", exec.flushes)
	}
}

func TestTickPendingGuard(t *testing.T) {
	// A neighbor already in flight must not be resubmitted: the
	// executor does not deduplicate, the controller does.
	ctrl, exec, _, _, _ := newTestController(
		[]hyperview.Identity{"a", "b", "c"}, 1)

	ctrl.Tick()
	before := len(exec.requests)

	ctrl.Tick() // nothing resolved, everything still pending
	if len(exec.requests) != before {
		t.Errorf("requests grew from %d to %d while pending", before, len(exec.requests))
	}
}

func TestTickUploadsResult(t *testing.T) {
	ctrl, exec, _, up, cache := newTestController(
		[]hyperview.Identity{"a", "b", "c"}, 1)

	exec.results = append(exec.results, &executor.Outcome{
		ID: 1, Name: "b", Image: decodedImage("b"),
	})

	ctrl.Tick()

	if len(up.uploads) != 1 || up.uploads[0] != "b" {
		t.Fatalf("uploads = %v, want [b]", up.uploads)
	}
	if !cache.Contains("b") {
		t.Error("uploaded entry not inserted into cache")
	}
}

func TestTickDrainsOneResultPerTick(t *testing.T) {
	ctrl, exec, _, up, _ := newTestController(
		[]hyperview.Identity{"a", "b", "c"}, 1)

	exec.results = append(exec.results,
		&executor.Outcome{ID: 1, Name: "b", Image: decodedImage("b")},
		&executor.Outcome{ID: 2, Name: "c", Image: decodedImage("c")},
	)

	ctrl.Tick()
	if len(up.uploads) != 1 {
		t.Fatalf("uploads after one tick = %v, want 1 entry", up.uploads)
	}
	ctrl.Tick()
	if len(up.uploads) != 2 {
		t.Errorf("uploads after two ticks = %v, want 2 entries", up.uploads)
	}
}

func TestTickDropsDecodeError(t *testing.T) {
	ctrl, exec, _, up, cache := newTestController(
		[]hyperview.Identity{"a", "b", "c"}, 1)

	exec.results = append(exec.results, &executor.Outcome{
		ID: 1, Name: "b", Err: errors.New("bad payload"),
	})

	ctrl.Tick()

	if len(up.uploads) != 0 {
		t.Errorf("uploads = %v for failed decode", up.uploads)
	}
	if cache.Contains("b") {
		t.Error("failed decode inserted into cache")
	}
	// No automatic retry within the same pending cycle: the identity
	// is free again and resubmitted on the next tick.
	if exec.IsPending("b") {
		t.Error("failed identity still pending")
	}
}

func TestTickSkipsUnreadableAndRetriesLater(t *testing.T) {
	ctrl, exec, reader, _, _ := newTestController(
		[]hyperview.Identity{"a", "b", "c"}, 1)
	delete(reader.data, "b")

	ctrl.Tick()

	// "b" failed to read, "c" was submitted.
	for _, n := range exec.requests {
		if n == "b" {
			t.Error("unreadable identity was submitted")
		}
	}
	if !exec.IsPending("c") {
		t.Error("readable neighbor not submitted")
	}

	// The payload appears later; the next tick picks it up.
	reader.data["b"] = []byte{1}
	ctrl.Tick()
	if !exec.IsPending("b") {
		t.Error("identity not retried after read recovered")
	}
}

func TestTickEvictsOutsideKeepWindow(t *testing.T) {
	ctrl, _, _, _, cache := newTestController(
		[]hyperview.Identity{"a", "b", "c", "d", "e"}, 1,
		WithEvictEvery(1))

	for _, n := range []hyperview.Identity{"a", "b", "c", "d", "e"} {
		cache.Insert(&texture.Entry{Name: n})
	}

	ctrl.Tick() // current 0, keep {a, b, e}

	if cache.Len() != 3 {
		t.Errorf("Len() = %d after eviction tick, want 3", cache.Len())
	}
	for _, n := range []hyperview.Identity{"a", "b", "e"} {
		if !cache.Contains(n) {
			t.Errorf("keep-window entry %q evicted", n)
		}
	}
}

func TestTickEvictionCadence(t *testing.T) {
	ctrl, _, _, _, cache := newTestController(
		[]hyperview.Identity{"a", "b", "c", "d", "e"}, 1,
		WithEvictEvery(3))

	cache.Insert(&texture.Entry{Name: "d"}) // outside keep window of 0

	ctrl.Tick()
	ctrl.Tick()
	if !cache.Contains("d") {
		t.Fatal("evicted before the cadence elapsed")
	}
	ctrl.Tick()
	if cache.Contains("d") {
		t.Error("not evicted on the cadence tick")
	}
}

func TestTakeCurrent(t *testing.T) {
	ctrl, _, _, _, cache := newTestController(
		[]hyperview.Identity{"a", "b", "c"}, 1)

	if _, ok := ctrl.TakeCurrent(); ok {
		t.Error("TakeCurrent() succeeded with nothing resident")
	}

	cache.Insert(&texture.Entry{Name: "a"})
	entry, ok := ctrl.TakeCurrent()
	if !ok || entry.Name != "a" {
		t.Fatalf("TakeCurrent() = %v, %v", entry, ok)
	}
	if entry.IsDestroyed() {
		t.Error("TakeCurrent destroyed the entry")
	}
	if cache.Contains("a") {
		t.Error("entry still resident after TakeCurrent")
	}
}

func TestTakeCurrentEmptySequence(t *testing.T) {
	ctrl, _, _, _, _ := newTestController(nil, 1)
	if _, ok := ctrl.TakeCurrent(); ok {
		t.Error("TakeCurrent() succeeded on empty sequence")
	}
}

func TestReset(t *testing.T) {
	ctrl, _, _, _, cache := newTestController(
		[]hyperview.Identity{"a", "b", "c"}, 1)

	e := &texture.Entry{Name: "a"}
	cache.Insert(e)
	ctrl.Reset()

	if cache.Len() != 0 {
		t.Errorf("Len() = %d after Reset, want 0", cache.Len())
	}
	if !e.IsDestroyed() {
		t.Error("Reset did not destroy cached entries")
	}
}

func TestUploadFailureLoggedAndDropped(t *testing.T) {
	ctrl, exec, _, up, cache := newTestController(
		[]hyperview.Identity{"a", "b", "c"}, 1)
	up.fail = true

	exec.results = append(exec.results, &executor.Outcome{
		ID: 1, Name: "b", Image: decodedImage("b"),
	})
	ctrl.Tick()

	if cache.Contains("b") {
		t.Error("failed upload inserted into cache")
	}
}
