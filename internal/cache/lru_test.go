package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[string], *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[string](size, ttl)
	c.now = clock.now
	return c, clock
}

func TestLRUCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should be cached")
	}
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("a = %q %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUCacheExpires(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")

	clock.t = clock.t.Add(2 * time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatal("a should be expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired removed %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUCacheDeletePrefix(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Set("summary:o1:a", "x")
	c.Set("summary:o1:b", "y")
	c.Set("summary:o10:a", "z")

	if n := c.DeletePrefix("summary:o1:"); n != 2 {
		t.Fatalf("removed %d, want 2", n)
	}
	if _, ok := c.Get("summary:o10:a"); !ok {
		t.Fatal("other owner's entry must survive")
	}
}

func TestLRUCacheStats(t *testing.T) {
	c, clock := newTestCache(1, time.Minute)
	c.Set("a", "1")
	c.Get("a")
	c.Get("missing")
	c.Set("b", "2")
	clock.t = clock.t.Add(2 * time.Minute)
	c.Get("b")

	got := c.Stats()
	want := Stats{Hits: 1, Misses: 2, Evictions: 1, Size: 0}
	if got != want {
		t.Fatalf("Stats = %+v, want %+v", got, want)
	}
}

func TestManagerCleanAllAndStop(t *testing.T) {
	c, clock := newTestCache(10, time.Second)
	c.Set("a", "1")
	clock.t = clock.t.Add(time.Minute)

	m := NewManager(nil)
	m.Register(c)
	if n := m.CleanAll(); n != 1 {
		t.Fatalf("CleanAll = %d, want 1", n)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}

func TestManagerStopWithoutStart(t *testing.T) {
	m := NewManager(nil)
	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without a running cleanup loop")
	}
}
