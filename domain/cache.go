package domain

import (
	"context"
	"time"
)

// CacheBackend is a key-value store with TTL. Get returns ErrCacheMiss for absent keys.
type CacheBackend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// MGet returns one slot per key; absent keys yield a nil slot.
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Incr bumps the integer counter at every key and keeps it for ttl.
	Incr(ctx context.Context, ttl time.Duration, keys ...string) error
	// SetIfEqual stores value at key only while the counter at guard still
	// reads gen. An absent counter reads 0.
	SetIfEqual(ctx context.Context, guard string, gen int64, key string, value []byte, ttl time.Duration) (bool, error)
}
