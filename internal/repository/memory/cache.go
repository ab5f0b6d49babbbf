package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/Guyuepp/community-board/domain"
)

// minSweepAt is the entry count at which Set first drops expired entries.
const minSweepAt = 1024

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e cacheEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Cache is an in-process CacheBackend. Values are copied on the way in and out,
// so readers never observe a half written entry.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	sweepAt int
	now     func() time.Time
}

var _ domain.CacheBackend = (*Cache)(nil)

func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]cacheEntry),
		sweepAt: minSweepAt,
		now:     time.Now,
	}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	now := c.now()
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	if e.expired(now) {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok && cur.expired(now) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, domain.ErrCacheMiss
	}
	return clone(e.value), nil
}

func (c *Cache) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	now := c.now()
	res := make([][]byte, len(keys))

	c.mu.RLock()
	defer c.mu.RUnlock()
	for i, key := range keys {
		if e, ok := c.entries[key]; ok && !e.expired(now) {
			res[i] = clone(e.value)
		}
	}
	return res, nil
}

// Set stores value for ttl. A non-positive ttl never expires.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := c.now()
	c.mu.Lock()
	c.put(now, key, value, ttl)
	c.mu.Unlock()
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

func (c *Cache) Incr(ctx context.Context, ttl time.Duration, keys ...string) error {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		n := c.counter(now, key) + 1
		c.put(now, key, []byte(strconv.FormatInt(n, 10)), ttl)
	}
	return nil
}

func (c *Cache) SetIfEqual(ctx context.Context, guard string, gen int64, key string, value []byte, ttl time.Duration) (bool, error) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counter(now, guard) != gen {
		return false, nil
	}
	c.put(now, key, value, ttl)
	return true, nil
}

// counter reads an integer entry; absent, expired or malformed entries read 0.
// Callers hold the lock.
func (c *Cache) counter(now time.Time, key string) int64 {
	e, ok := c.entries[key]
	if !ok || e.expired(now) {
		return 0
	}
	n, err := strconv.ParseInt(string(e.value), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// put stores an entry and sweeps expired ones once the map has grown past
// sweepAt. Callers hold the write lock.
func (c *Cache) put(now time.Time, key string, value []byte, ttl time.Duration) {
	e := cacheEntry{value: clone(value)}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	c.entries[key] = e

	if len(c.entries) < c.sweepAt {
		return
	}
	for k, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, k)
		}
	}
	c.sweepAt = max(minSweepAt, 2*len(c.entries))
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.sweepAt = minSweepAt
	c.mu.Unlock()
}

// Len counts the entries that have not expired yet.
func (c *Cache) Len() int {
	now := c.now()
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, e := range c.entries {
		if !e.expired(now) {
			n++
		}
	}
	return n
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
