// Package cache is the keyed TTL cache in front of the resolvers and the post
// detail view. It is never the source of truth: every failure of the backend is
// reported as a miss so callers fall through to the entity store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Guyuepp/community-board/domain"
)

const (
	// DefaultEnvironment is the deployment whose keys carry no prefix.
	DefaultEnvironment = "production"

	defaultOpTimeout = 200 * time.Millisecond

	// generationTTL outlives any read-through fill by a wide margin.
	generationTTL = time.Hour
)

// Cache wraps a backend with namespacing, JSON encoding and fail-open semantics.
// A nil *Cache behaves as an always-empty cache.
type Cache struct {
	backend   domain.CacheBackend
	prefix    string
	opTimeout time.Duration
}

type Option func(*Cache)

// WithOpTimeout bounds every single backend call.
func WithOpTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.opTimeout = d
		}
	}
}

// New creates a cache whose keys are namespaced for env.
func New(backend domain.CacheBackend, env string, opts ...Option) *Cache {
	c := &Cache{
		backend:   backend,
		prefix:    Namespace(env),
		opTimeout: defaultOpTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Namespace returns the key prefix of a deployment environment.
func Namespace(env string) string {
	env = strings.ToLower(strings.TrimSpace(env))
	if env == "" || env == DefaultEnvironment {
		return ""
	}
	return env + ":"
}

// Prefix is the namespace applied to every key.
func (c *Cache) Prefix() string {
	if c == nil {
		return ""
	}
	return c.prefix
}

func (c *Cache) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.opTimeout)
}

// GetJSON decodes the entry at key into dst and reports whether it was found.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) bool {
	if c == nil {
		return false
	}
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	data, err := c.backend.Get(ctx, c.prefix+key)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			record(opGet, resultMiss, 1)
		} else {
			logrus.Warnf("cache get %s failed, treating as miss: %v", key, err)
			record(opGet, resultError, 1)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		logrus.Warnf("cache entry %s is corrupt, treating as miss: %v", key, err)
		record(opGet, resultError, 1)
		return false
	}
	record(opGet, resultHit, 1)
	return true
}

// GetMany reads every key in one backend round trip and returns the decoded hits
// keyed by the unprefixed key.
func GetMany[T any](ctx context.Context, c *Cache, keys []string) map[string]T {
	res := make(map[string]T, len(keys))
	if c == nil || len(keys) == 0 {
		return res
	}
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
	}
	vals, err := c.backend.MGet(ctx, full)
	if err != nil {
		logrus.Warnf("cache mget of %d keys failed, treating as miss: %v", len(keys), err)
		record(opGet, resultError, len(keys))
		return res
	}

	misses := 0
	for i, data := range vals {
		if i >= len(keys) {
			break
		}
		if data == nil {
			misses++
			continue
		}
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			logrus.Warnf("cache entry %s is corrupt, treating as miss: %v", keys[i], err)
			record(opGet, resultError, 1)
			continue
		}
		res[keys[i]] = v
	}
	record(opGet, resultMiss, misses)
	record(opGet, resultHit, len(res))
	return res
}

// SetJSON stores v under key for ttl. Failures are logged and dropped.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	if c == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		logrus.Warnf("failed to marshal cache entry %s: %v", key, err)
		record(opSet, resultError, 1)
		return
	}
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	if err := c.backend.Set(ctx, c.prefix+key, data, ttl); err != nil {
		logrus.Warnf("cache set %s failed: %v", key, err)
		record(opSet, resultError, 1)
		return
	}
	record(opSet, resultOK, 1)
}

// Delete removes keys. It runs even when ctx is already cancelled, since it
// follows a committed write. The generation of every key is bumped before the
// entries go, so a Fill leased earlier is dropped instead of restoring them.
func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	ctx, cancel := c.opContext(context.WithoutCancel(ctx))
	defer cancel()

	full := make([]string, len(keys))
	gens := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.prefix + k
		gens[i] = c.prefix + generationKey(k)
	}
	if err := c.backend.Incr(ctx, generationTTL, gens...); err != nil {
		logrus.Errorf("cache generation bump of %v failed: %v", keys, err)
	}
	if err := c.backend.Delete(ctx, full...); err != nil {
		logrus.Errorf("cache invalidation of %v failed, entries stay until ttl: %v", keys, err)
		record(opDelete, resultError, len(keys))
		return
	}
	record(opDelete, resultOK, len(keys))
}
