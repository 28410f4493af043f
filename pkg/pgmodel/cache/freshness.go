// This file and its contents are licensed under the Apache License 2.0.
// Please see the included NOTICE for copyright information and
// LICENSE for a copy of the license.

package cache

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/routewatch/bmpstore/pkg/pgmodel/metrics"
	"github.com/routewatch/bmpstore/pkg/pgmodel/model"
)

// Freshness remembers when an entity was last written so that repeated
// writes of the same router or peer inside a window are suppressed.
//
// Expiry is lazy: an entry is only compared against the window when its key
// is looked up again. When the cache holds max entries, inserting a new key
// evicts one chosen by a CLOCK sweep (approximate LRU); an evicted key
// behaves as if it was never seen.
type Freshness struct {
	lock     sync.Mutex
	elements map[model.Hash]int
	storage  []freshnessEntry
	max      int
	// CLOCK sweep position
	next int
	now  func() time.Time

	suppressed prometheus.Counter
	proceeded  prometheus.Counter
	evictions  prometheus.Counter
}

type freshnessEntry struct {
	key        model.Hash
	lastSeenAt time.Time
	// CLOCK marker, set on every lookup
	used bool
}

// NewFreshness creates a cache holding at most max entries. A max of 0
// means unbounded. kind labels the cache metrics.
func NewFreshness(kind string, max int) *Freshness {
	initial := max
	if initial <= 0 || initial > 1024 {
		initial = 1024
	}
	return &Freshness{
		elements:   make(map[model.Hash]int, initial),
		storage:    make([]freshnessEntry, 0, initial),
		max:        max,
		now:        time.Now,
		suppressed: metrics.FreshnessChecks.WithLabelValues(kind, "suppressed"),
		proceeded:  metrics.FreshnessChecks.WithLabelValues(kind, "proceed"),
		evictions:  metrics.FreshnessEvictions.WithLabelValues(kind),
	}
}

// WithClock replaces the time source, for tests.
func (c *Freshness) WithClock(now func() time.Time) *Freshness {
	c.now = now
	return c
}

// CheckAndMark reports whether a write for key should proceed. It returns
// false when key was marked less than window ago. Otherwise the entry is
// created or refreshed to now and true is returned.
func (c *Freshness) CheckAndMark(key model.Hash, window time.Duration) bool {
	now := c.now()

	c.lock.Lock()
	defer c.lock.Unlock()

	if idx, ok := c.elements[key]; ok {
		elem := &c.storage[idx]
		elem.used = true
		if window > 0 && now.Sub(elem.lastSeenAt) < window {
			c.suppressed.Inc()
			return false
		}
		elem.lastSeenAt = now
		c.proceeded.Inc()
		return true
	}

	c.insert(key, now)
	c.proceeded.Inc()
	return true
}

// Mark records key as written now without checking the window.
func (c *Freshness) Mark(key model.Hash) {
	now := c.now()

	c.lock.Lock()
	defer c.lock.Unlock()

	if idx, ok := c.elements[key]; ok {
		c.storage[idx].lastSeenAt = now
		c.storage[idx].used = true
		return
	}
	c.insert(key, now)
}

// Forget drops key so that its next write proceeds.
func (c *Freshness) Forget(key model.Hash) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if idx, ok := c.elements[key]; ok {
		// zero timestamp is always outside any window
		c.storage[idx].lastSeenAt = time.Time{}
	}
}

func (c *Freshness) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.storage)
}

func (c *Freshness) insert(key model.Hash, now time.Time) {
	if c.max <= 0 || len(c.storage) < c.max {
		c.storage = append(c.storage, freshnessEntry{key: key, lastSeenAt: now})
		c.elements[key] = len(c.storage) - 1
		return
	}

	idx := c.evict()
	delete(c.elements, c.storage[idx].key)
	c.storage[idx] = freshnessEntry{key: key, lastSeenAt: now}
	c.elements[key] = idx
	c.evictions.Inc()
}

// evict walks storage in a ring from the last stop, clearing used markers,
// and returns the first entry that was not marked. Under the cache lock this
// finishes within two sweeps.
func (c *Freshness) evict() int {
	n := len(c.storage)
	for i := 0; i < 2*n; i++ {
		idx := c.next
		c.next++
		if c.next >= n {
			c.next = 0
		}
		if !c.storage[idx].used {
			return idx
		}
		c.storage[idx].used = false
	}
	return c.next
}
