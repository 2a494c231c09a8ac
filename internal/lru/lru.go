// Package lru provides a bounded, mutex-guarded least-recently-used cache.
//
// Ordering lives in an insertion-ordered map: the oldest pair is the least
// recently used entry, and a touched key is moved to the back. The lock is
// held only for the O(1) map operation, never across caller I/O.
package lru

import (
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Stats reports cache activity since creation or the last Clear.
type Stats struct {
	Size      int    `json:"size"`
	Capacity  int    `json:"capacity"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// Cache is a fixed-capacity LRU map. The zero value is not usable; call New.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	entries  *orderedmap.OrderedMap[K, V]
	onEvict  func(K, V)

	hits, misses, evictions uint64
}

// New creates a cache holding at most capacity entries. A non-positive
// capacity is treated as 1.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Cache[K, V]{
		capacity: capacity,
		entries:  orderedmap.New[K, V](),
	}
}

// OnEvict registers fn to run for every entry dropped by capacity pressure.
// It is not called for Remove or Clear.
func (c *Cache[K, V]) OnEvict(fn func(K, V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Get returns the value for key and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.entries.Get(key)
	if !ok {
		c.misses++
		return v, false
	}
	c.hits++
	_ = c.entries.MoveToBack(key)
	return v, true
}

// Peek returns the value for key without touching its recency.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Get(key)
}

// Put inserts or replaces key, marks it most recently used and evicts the
// least recently used entry when the cache is over capacity.
func (c *Cache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	c.entries.Set(key, value)
	_ = c.entries.MoveToBack(key)

	var evicted []*orderedmap.Pair[K, V]
	for c.entries.Len() > c.capacity {
		oldest := c.entries.Oldest()
		c.entries.Delete(oldest.Key)
		c.evictions++
		evicted = append(evicted, oldest)
	}
	fn := c.onEvict
	c.mu.Unlock()

	if fn != nil {
		for _, p := range evicted {
			fn(p.Key, p.Value)
		}
	}
}

// Remove deletes key and reports whether it was present.
func (c *Cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries.Delete(key)
	return ok
}

// RemoveFunc deletes every entry for which match returns true and returns
// how many were removed.
func (c *Cache[K, V]) RemoveFunc(match func(K, V) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var doomed []K
	for p := c.entries.Oldest(); p != nil; p = p.Next() {
		if match(p.Key, p.Value) {
			doomed = append(doomed, p.Key)
		}
	}
	for _, k := range doomed {
		c.entries.Delete(k)
	}
	return len(doomed)
}

// Keys returns the keys from least to most recently used.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, c.entries.Len())
	for p := c.entries.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// Clear drops every entry and resets the counters.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = orderedmap.New[K, V]()
	c.hits, c.misses, c.evictions = 0, 0, 0
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Size:      c.entries.Len(),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
