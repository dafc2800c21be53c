package guard

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func TestDeduplicatorWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	d := NewDeduplicator(60 * time.Second)
	d.now = clock.Now

	if !d.ShouldProcess("upd:1") {
		t.Fatal("first occurrence must pass")
	}
	if d.ShouldProcess("upd:1") {
		t.Fatal("repeat within TTL must be rejected")
	}

	clock.Advance(61 * time.Second)
	if !d.ShouldProcess("upd:1") {
		t.Fatal("key must pass again after TTL expiry")
	}
}

func TestDeduplicatorLazyEviction(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	d := NewDeduplicator(10 * time.Second)
	d.now = clock.Now

	for _, k := range []string{"a", "b", "c"} {
		d.ShouldProcess(k)
	}
	if got := d.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}

	clock.Advance(11 * time.Second)
	d.ShouldProcess("d")
	// The previous three are past TTL and evicted on this call.
	if got := d.Len(); got != 1 {
		t.Fatalf("Len() after eviction = %d, want 1", got)
	}
}

func TestDeduplicatorEmptyKey(t *testing.T) {
	d := NewDeduplicator(0)
	if !d.ShouldProcess("") || !d.ShouldProcess("") {
		t.Fatal("empty keys must always pass")
	}
}

func TestRateLimiterMinInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	r := NewRateLimiter(300 * time.Millisecond)
	r.now = clock.Now

	if !r.Allow(7) {
		t.Fatal("first call must be allowed")
	}
	clock.Advance(100 * time.Millisecond)
	if r.Allow(7) {
		t.Fatal("call within interval must be rejected")
	}
	clock.Advance(301 * time.Millisecond)
	if !r.Allow(7) {
		t.Fatal("call after interval must be allowed")
	}
}

func TestRateLimiterBurstCollapses(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	r := NewRateLimiter(300 * time.Millisecond)
	r.now = clock.Now

	allowed := 0
	for i := 0; i < 10; i++ {
		if r.Allow(7) {
			allowed++
		}
		clock.Advance(50 * time.Millisecond)
	}
	// The timestamp is refreshed on rejected calls too, so a sustained burst
	// yields a single allowed call rather than one per interval.
	if allowed != 1 {
		t.Fatalf("allowed = %d, want 1", allowed)
	}
}

func TestRateLimiterPerUser(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	r := NewRateLimiter(300 * time.Millisecond)
	r.now = clock.Now

	if !r.Allow(1) || !r.Allow(2) {
		t.Fatal("different users must not share limits")
	}
}
