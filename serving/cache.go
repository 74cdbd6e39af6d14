package serving

import (
	"math"
	"slices"
	"sync"
	"time"
)

// CacheStats is a snapshot of cache counters.
type CacheStats struct {
	Size      int     `json:"size"`
	Capacity  int     `json:"capacity"`
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Evictions uint64  `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
}

type cacheEntry struct {
	storedAt time.Time
	resp     Response
}

// Cache is a fingerprint-keyed response cache with a fixed TTL and
// capacity. Expired entries are removed when looked up. Inserting into a
// full cache evicts the entry with the oldest insertion time.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]cacheEntry
	ttl       time.Duration
	capacity  int
	now       func() time.Time
	hits      uint64
	misses    uint64
	evictions uint64
}

// NewCache creates a cache. now defaults to time.Now.
func NewCache(ttl time.Duration, capacity int, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		entries:  make(map[string]cacheEntry),
		ttl:      ttl,
		capacity: capacity,
		now:      now,
	}
}

// Get returns a copy of the response stored under key if it is younger
// than the TTL.
func (c *Cache) Get(key string) (Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return Response{}, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		c.misses++
		return Response{}, false
	}
	c.hits++
	return e.resp.clone(), true
}

// Put stores a copy of resp under key with the current time.
func (c *Cache) Put(key string, resp Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictOldest()
	}
	c.entries[key] = cacheEntry{storedAt: c.now(), resp: resp.clone()}
}

func (c *Cache) evictOldest() {
	var (
		oldestKey string
		oldestAt  time.Time
		found     bool
	)
	for k, e := range c.entries {
		if !found || e.storedAt.Before(oldestAt) || (e.storedAt.Equal(oldestAt) && k < oldestKey) {
			oldestKey, oldestAt, found = k, e.storedAt, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
		c.evictions++
	}
}

// Len returns the number of stored entries, including expired ones not yet
// looked up.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := CacheStats{
		Size:      len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = math.Round(float64(c.hits)/float64(total)*1000) / 1000
	}
	return s
}

func (r Response) clone() Response {
	r.Items = slices.Clone(r.Items)
	return r
}
