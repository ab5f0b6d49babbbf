package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Lease is the generation of a key observed before a read-through load. Fill
// stores the loaded value only while the generation is unchanged, so a Delete
// racing with the load wins.
type Lease struct {
	key   string
	gen   int64
	valid bool
}

// Key is the unprefixed key the lease was taken on.
func (l Lease) Key() string {
	return l.key
}

// Lease observes the generation of key. Take it before reading the store.
func (c *Cache) Lease(ctx context.Context, key string) Lease {
	return c.Leases(ctx, []string{key})[0]
}

// Leases observes the generations of keys in one backend round trip. When the
// backend fails every lease is invalid and the matching fills are skipped.
func (c *Cache) Leases(ctx context.Context, keys []string) []Lease {
	leases := make([]Lease, len(keys))
	for i, k := range keys {
		leases[i].key = k
	}
	if c == nil || len(keys) == 0 {
		return leases
	}
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	gens := make([]string, len(keys))
	for i, k := range keys {
		gens[i] = c.prefix + generationKey(k)
	}
	vals, err := c.backend.MGet(ctx, gens)
	if err != nil {
		logrus.Warnf("cache generation read of %d keys failed, skipping fills: %v", len(keys), err)
		return leases
	}
	for i := range leases {
		if i >= len(vals) {
			break
		}
		if vals[i] == nil {
			leases[i].valid = true
			continue
		}
		n, err := strconv.ParseInt(string(vals[i]), 10, 64)
		if err != nil {
			logrus.Warnf("cache generation of %s is corrupt: %v", keys[i], err)
			continue
		}
		leases[i].gen, leases[i].valid = n, true
	}
	return leases
}

// Fill stores v under the leased key for ttl unless the key was invalidated
// since the lease was taken. Failures are logged and dropped.
func (c *Cache) Fill(ctx context.Context, l Lease, v any, ttl time.Duration) {
	if c == nil || !l.valid {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		logrus.Warnf("failed to marshal cache entry %s: %v", l.key, err)
		record(opSet, resultError, 1)
		return
	}
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	ok, err := c.backend.SetIfEqual(ctx, c.prefix+generationKey(l.key), l.gen, c.prefix+l.key, data, ttl)
	if err != nil {
		logrus.Warnf("cache fill %s failed: %v", l.key, err)
		record(opSet, resultError, 1)
		return
	}
	if !ok {
		record(opSet, resultStale, 1)
		return
	}
	record(opSet, resultOK, 1)
}
