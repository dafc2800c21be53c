// Package guard protects update processing against duplicate delivery and
// excessive per-user request rates. Both structures are shared by every
// concurrently running update handler and are safe for concurrent use.
package guard

import (
	"sync"
	"time"
)

// DefaultDedupTTL is the trailing window within which a repeated update key
// is considered a duplicate.
const DefaultDedupTTL = 60 * time.Second

// Deduplicator remembers recently seen update keys for a TTL window.
// Telegram redelivers updates on network hiccups; the first occurrence of a
// key passes, repeats within the window do not.
type Deduplicator struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

// NewDeduplicator creates a Deduplicator with the given window.
// A non-positive ttl falls back to DefaultDedupTTL.
func NewDeduplicator(ttl time.Duration) *Deduplicator {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	return &Deduplicator{
		seen: make(map[string]time.Time),
		ttl:  ttl,
		now:  time.Now,
	}
}

// ShouldProcess reports whether the key is seen for the first time within the
// TTL window. Expired entries are evicted lazily on each call.
func (d *Deduplicator) ShouldProcess(key string) bool {
	if key == "" {
		return true
	}
	now := d.now()

	d.mu.Lock()
	defer d.mu.Unlock()

	for k, ts := range d.seen {
		if now.Sub(ts) > d.ttl {
			delete(d.seen, k)
		}
	}
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = now
	return true
}

// Len returns the number of tracked keys, expired entries included.
func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
