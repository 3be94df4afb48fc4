// Package cache provides the bounded memoization store for indicator
// results. Entries are keyed by a content fingerprint, so a series edit
// anywhere produces a different key and a clean miss rather than a stale
// hit.
package cache

import (
	"fmt"
	"sync"

	"taengine/internal/model"
)

// DefaultCapacity is the entry bound used when no capacity is configured.
const DefaultCapacity = 128

// Fingerprint identifies one (indicator, parameters, series content) triple.
type Fingerprint string

// NewFingerprint derives the cache key for a computation. paramKey must be
// a canonical rendering of the parameter set (same params, same string).
// The series digest is recomputed from current content on every call.
func NewFingerprint(id, paramKey string, s *model.Series) Fingerprint {
	return Fingerprint(fmt.Sprintf("%s|%s|%016x:%d", id, paramKey, s.ContentHash(), s.Len()))
}

// entry is one cached value with its bookkeeping. lastAccess and insertSeq
// are draws from the cache's logical clock, not wall time, so eviction
// order is deterministic under any timer resolution.
type entry struct {
	value       any
	insertSeq   uint64
	lastAccess  uint64
	accessCount int64
}

// EntryInfo describes a resident entry for inspection. Reading it does not
// count as an access. InsertSeq and LastAccess are logical-clock draws,
// comparable only within one cache instance.
type EntryInfo struct {
	Fingerprint Fingerprint `json:"fingerprint"`
	AccessCount int64       `json:"access_count"`
	InsertSeq   uint64      `json:"insert_seq"`
	LastAccess  uint64      `json:"last_access"`
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Entries   int    `json:"entries"`
	Capacity  int    `json:"capacity"`
}

// Cache is a thread-safe bounded memoization store. Eviction removes the
// least recently accessed entry, with ties broken by lowest access count,
// then oldest insertion. Insertion counts as an access.
type Cache struct {
	mu      sync.Mutex
	entries map[Fingerprint]*entry
	cap     int
	clock   uint64
	hits    uint64
	misses  uint64
	evicted uint64
}

// New returns a Cache bounded to capacity entries. capacity <= 0 falls
// back to DefaultCapacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		entries: make(map[Fingerprint]*entry, capacity),
		cap:     capacity,
	}
}

// Get returns the value stored under fp. A hit refreshes recency and
// bumps the entry's access count; a miss is counted.
func (c *Cache) Get(fp Fingerprint) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[fp]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.clock++
	e.lastAccess = c.clock
	e.accessCount++
	return e.value, true
}

// Put stores value under fp, evicting one entry first if the key is new
// and the cache is full. Overwriting an existing key installs a fresh
// entry: last writer wins and prior access history is discarded.
func (c *Cache) Put(fp Fingerprint, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[fp]; !exists && len(c.entries) >= c.cap {
		c.evict()
	}
	c.clock++
	c.entries[fp] = &entry{
		value:       value,
		insertSeq:   c.clock,
		lastAccess:  c.clock,
		accessCount: 1,
	}
}

// evict removes the single worst entry. Caller holds c.mu.
func (c *Cache) evict() {
	var victim Fingerprint
	var worst *entry
	for fp, e := range c.entries {
		if worst == nil || older(e, worst) {
			victim, worst = fp, e
		}
	}
	if worst != nil {
		delete(c.entries, victim)
		c.evicted++
	}
}

// older reports whether a should be evicted before b: least recent access
// first, then lowest access count, then oldest insertion.
func older(a, b *entry) bool {
	if a.lastAccess != b.lastAccess {
		return a.lastAccess < b.lastAccess
	}
	if a.accessCount != b.accessCount {
		return a.accessCount < b.accessCount
	}
	return a.insertSeq < b.insertSeq
}

// Clear drops every entry. Hit, miss, and eviction counters survive so
// long-running stats stay meaningful across resets.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Len returns the number of resident entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evicted,
		Entries:   len(c.entries),
		Capacity:  c.cap,
	}
}

// Info reports whether fp is resident and, if so, its bookkeeping.
// Unlike Get it does not touch recency or the miss counter.
func (c *Cache) Info(fp Fingerprint) (EntryInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[fp]
	if !ok {
		return EntryInfo{}, false
	}
	return EntryInfo{
		Fingerprint: fp,
		AccessCount: e.accessCount,
		InsertSeq:   e.insertSeq,
		LastAccess:  e.lastAccess,
	}, true
}

// GetOrCompute returns the cached value for fp, computing and storing it
// on a miss. compute runs outside the cache lock; concurrent misses on the
// same key may compute more than once, with the last writer winning.
// Errors are returned to the caller and never cached. A nil cache degrades
// to plain computation.
func GetOrCompute[T any](c *Cache, fp Fingerprint, compute func() (T, error)) (T, error) {
	if c == nil {
		return compute()
	}
	if v, ok := c.Get(fp); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}
	c.Put(fp, v)
	return v, nil
}
