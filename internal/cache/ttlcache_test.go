package cache

import (
	"testing"
	"time"
)

func TestGetSetRoundTrip(t *testing.T) {
	c := New[string, int](time.Minute, 0)
	c.Set("a", 1)

	v, ok := c.Get("a")
	if !ok || v != 1 {
		t.Fatalf("Get(a) = (%d, %v), want (1, true)", v, ok)
	}
}

func TestGetMissingKey(t *testing.T) {
	c := New[string, int](time.Minute, 0)
	if _, ok := c.Get("missing"); ok {
		t.Fatal("Get(missing) = true, want false")
	}
}

func TestEntryExpires(t *testing.T) {
	c := New[string, int](time.Millisecond, 0)
	c.Set("a", 1)
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Fatal("Get(a) = true after expiry, want false")
	}
}

func TestDelete(t *testing.T) {
	c := New[string, int](time.Minute, 0)
	c.Set("a", 1)
	c.Delete("a")

	if _, ok := c.Get("a"); ok {
		t.Fatal("Get(a) = true after Delete, want false")
	}
}

func TestFlushClearsEverything(t *testing.T) {
	c := New[string, int](time.Minute, 0)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Flush()

	if c.Len() != 0 {
		t.Fatalf("Len() = %d after Flush, want 0", c.Len())
	}
}

func TestSweepEvictsOnlyExpired(t *testing.T) {
	c := New[string, int](5*time.Millisecond, 0)
	c.Set("stale", 1)
	time.Sleep(10 * time.Millisecond)
	c.Set("fresh", 2)

	c.Sweep()

	if c.Len() != 1 {
		t.Fatalf("Len() = %d after Sweep, want 1", c.Len())
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Fatal("Get(fresh) = false after Sweep, want true")
	}
}

func TestBackgroundSweepEvictsOverTime(t *testing.T) {
	c := New[string, int](5*time.Millisecond, 5*time.Millisecond)
	c.Start()
	defer c.Stop()

	c.Set("a", 1)
	time.Sleep(50 * time.Millisecond)

	if c.Len() != 0 {
		t.Fatalf("Len() = %d after background sweep, want 0", c.Len())
	}
}

func TestStopIsIdempotent(t *testing.T) {
	c := New[string, int](time.Minute, time.Millisecond)
	c.Start()
	c.Stop()
	c.Stop()
}
