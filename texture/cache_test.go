package texture

import (
	"testing"

	"github.com/gogpu/hyperview"
)

func names(ids ...string) []hyperview.Identity {
	out := make([]hyperview.Identity, len(ids))
	for i, s := range ids {
		out[i] = hyperview.Identity(s)
	}
	return out
}

func equalIdentities(a, b []hyperview.Identity) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPathsToPreloadWindow(t *testing.T) {
	// Five images, radius 2, current at index 0: forward neighbors
	// first (1, 2), then backward (4, 3).
	seq := hyperview.NewSequence(names("a", "b", "c", "d", "e"))
	c := NewCache(nil, WithPreloadCount(2))

	got := c.PathsToPreload(seq, 0)
	want := names("b", "c", "e", "d")
	if !equalIdentities(got, want) {
		t.Errorf("PathsToPreload() = %v, want %v", got, want)
	}
}

func TestPathsToPreloadExcludesResident(t *testing.T) {
	seq := hyperview.NewSequence(names("a", "b", "c", "d", "e"))
	c := NewCache(nil, WithPreloadCount(2))
	c.Insert(&Entry{Name: "c"})

	got := c.PathsToPreload(seq, 0)
	want := names("b", "e", "d")
	if !equalIdentities(got, want) {
		t.Errorf("PathsToPreload() = %v, want %v", got, want)
	}
}

func TestPathsToPreloadEdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		seq     []hyperview.Identity
		preload int
		current int
		want    int
	}{
		{"single element", names("a"), 2, 0, 0},
		{"zero radius", names("a", "b", "c"), 0, 0, 0},
		{"radius exceeds length", names("a", "b", "c"), 7, 1, 2},
		{"radius equals length", names("a", "b", "c", "d"), 4, 0, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq := hyperview.NewSequence(tt.seq)
			c := NewCache(nil, WithPreloadCount(tt.preload))
			got := c.PathsToPreload(seq, tt.current)
			if len(got) != tt.want {
				t.Errorf("PathsToPreload() = %v (%d identities), want %d", got, len(got), tt.want)
			}
			seen := make(map[hyperview.Identity]bool)
			for _, n := range got {
				if seen[n] {
					t.Errorf("duplicate identity %q", n)
				}
				seen[n] = true
				if n == seq.At(tt.current) {
					t.Error("preload window contains the current identity")
				}
			}
		})
	}
}

func TestPathsToKeepWindow(t *testing.T) {
	// Three images, radius 1: keep set covers the whole ring.
	seq := hyperview.NewSequence(names("a", "b", "c"))
	c := NewCache(nil, WithPreloadCount(1))

	got := c.PathsToKeep(seq, 1)
	want := names("b", "c", "a")
	if !equalIdentities(got, want) {
		t.Errorf("PathsToKeep() = %v, want %v", got, want)
	}
}

func TestPathsToKeepBound(t *testing.T) {
	// The keep set never exceeds 2p+1 entries, regardless of wrap.
	seq := hyperview.NewSequence(names("a", "b", "c", "d", "e", "f", "g"))
	c := NewCache(nil, WithPreloadCount(2))

	for cur := 0; cur < seq.Len(); cur++ {
		got := c.PathsToKeep(seq, cur)
		if len(got) != 5 {
			t.Errorf("current %d: keep set has %d identities, want 5", cur, len(got))
		}
		if got[0] != seq.At(cur) {
			t.Errorf("current %d: keep[0] = %q, want current identity", cur, got[0])
		}
	}
}

func TestPathsToKeepSingleElement(t *testing.T) {
	seq := hyperview.NewSequence(names("a"))
	c := NewCache(nil, WithPreloadCount(3))

	got := c.PathsToKeep(seq, 0)
	if !equalIdentities(got, names("a")) {
		t.Errorf("PathsToKeep() = %v, want [a]", got)
	}
}

func TestCacheInsertTakeContains(t *testing.T) {
	c := NewCache(nil)

	if c.Contains("a") {
		t.Error("Contains() = true on empty cache")
	}
	e := &Entry{Name: "a"}
	c.Insert(e)
	if !c.Contains("a") {
		t.Error("Contains() = false after Insert")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}

	got, ok := c.Take("a")
	if !ok || got != e {
		t.Fatalf("Take() = %v, %v", got, ok)
	}
	// Ownership transferred: the entry must not be destroyed.
	if got.IsDestroyed() {
		t.Error("Take destroyed the entry")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Take, want 0", c.Len())
	}
	if _, ok := c.Take("a"); ok {
		t.Error("second Take() succeeded")
	}
}

func TestCacheInsertReplaces(t *testing.T) {
	c := NewCache(nil)
	old := &Entry{Name: "a"}
	c.Insert(old)

	repl := &Entry{Name: "a"}
	c.Insert(repl)

	if !old.IsDestroyed() {
		t.Error("replaced entry was not destroyed")
	}
	if repl.IsDestroyed() {
		t.Error("replacement entry was destroyed")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestRetainOnly(t *testing.T) {
	c := NewCache(nil)
	a := &Entry{Name: "a"}
	b := &Entry{Name: "b"}
	d := &Entry{Name: "d"}
	c.Insert(a)
	c.Insert(b)
	c.Insert(d)

	c.RetainOnly(names("a", "c"))

	if !c.Contains("a") {
		t.Error("retained entry evicted")
	}
	if c.Contains("b") || c.Contains("d") {
		t.Error("evicted entry still resident")
	}
	if a.IsDestroyed() {
		t.Error("retained entry destroyed")
	}
	if !b.IsDestroyed() || !d.IsDestroyed() {
		t.Error("evicted entries not destroyed")
	}

	// Same keep set again: no-op.
	c.RetainOnly(names("a", "c"))
	if !c.Contains("a") || c.Len() != 1 {
		t.Error("repeated RetainOnly changed residency")
	}
}

func TestRetainOnlyEnforcesBound(t *testing.T) {
	// After a full preload cycle the cache never holds more than 2p+1
	// entries once RetainOnly runs with the keep window.
	seq := hyperview.NewSequence(names("a", "b", "c", "d", "e", "f"))
	c := NewCache(nil, WithPreloadCount(1))

	for _, n := range seq.Names() {
		c.Insert(&Entry{Name: n})
	}
	c.RetainOnly(c.PathsToKeep(seq, 2))

	if c.Len() != 3 {
		t.Errorf("Len() = %d after RetainOnly, want 3", c.Len())
	}
	for _, n := range names("b", "c", "d") {
		if !c.Contains(n) {
			t.Errorf("keep-window entry %q missing", n)
		}
	}
}

func TestCacheClear(t *testing.T) {
	c := NewCache(nil)
	a := &Entry{Name: "a"}
	b := &Entry{Name: "b"}
	c.Insert(a)
	c.Insert(b)

	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", c.Len())
	}
	if !a.IsDestroyed() || !b.IsDestroyed() {
		t.Error("Clear did not destroy entries")
	}
}

func TestSetPreloadCount(t *testing.T) {
	seq := hyperview.NewSequence(names("a", "b", "c", "d", "e"))
	c := NewCache(nil, WithPreloadCount(1))

	if got := len(c.PathsToPreload(seq, 0)); got != 2 {
		t.Fatalf("radius 1 preload set has %d identities, want 2", got)
	}

	c.SetPreloadCount(2)
	if c.PreloadCount() != 2 {
		t.Errorf("PreloadCount() = %d, want 2", c.PreloadCount())
	}
	if got := len(c.PathsToPreload(seq, 0)); got != 4 {
		t.Errorf("radius 2 preload set has %d identities, want 4", got)
	}

	c.SetPreloadCount(-3)
	if c.PreloadCount() != 0 {
		t.Errorf("PreloadCount() = %d after negative set, want 0", c.PreloadCount())
	}
}

func TestCacheStats(t *testing.T) {
	c := NewCache(nil)
	c.Insert(&Entry{Name: "a"})

	c.Contains("a") // hit
	c.Contains("b") // miss
	c.RetainOnly(nil)

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Evictions != 1 {
		t.Errorf("Stats() = %+v, want 1 hit, 1 miss, 1 eviction", s)
	}

	c.ResetStats()
	if s := c.Stats(); s.Hits != 0 || s.Misses != 0 || s.Evictions != 0 {
		t.Errorf("Stats() after reset = %+v", s)
	}
}
