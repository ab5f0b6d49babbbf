package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Guyuepp/community-board/domain"
)

var incrScript = redis.NewScript(`
	for _, key in ipairs(KEYS) do
		redis.call('INCR', key)
		redis.call('PEXPIRE', key, ARGV[1])
	end
	return #KEYS
`)

// setIfEqualScript writes KEYS[2] while the counter at KEYS[1] reads ARGV[1].
var setIfEqualScript = redis.NewScript(`
	local cur = redis.call('GET', KEYS[1]) or '0'
	if cur ~= ARGV[1] then
		return 0
	end
	local ttl = tonumber(ARGV[3])
	if ttl > 0 then
		redis.call('SET', KEYS[2], ARGV[2], 'PX', ttl)
	else
		redis.call('SET', KEYS[2], ARGV[2])
	end
	return 1
`)

type redisCache struct {
	client *redis.Client
}

var _ domain.CacheBackend = (*redisCache)(nil)

func NewRedisCache(client *redis.Client) *redisCache {
	return &redisCache{
		client,
	}
}

func (c *redisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	} else if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return data, nil
}

func (c *redisCache) MGet(ctx context.Context, keys []string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	jsonList, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}

	res := make([][]byte, len(keys))
	for i, val := range jsonList {
		if i >= len(res) {
			break
		}
		if str, ok := val.(string); ok {
			res[i] = []byte(str)
		}
	}
	return res, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

func (c *redisCache) Incr(ctx context.Context, ttl time.Duration, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := incrScript.Run(ctx, c.client, keys, ttl.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

func (c *redisCache) SetIfEqual(ctx context.Context, guard string, gen int64, key string, value []byte, ttl time.Duration) (bool, error) {
	args := []interface{}{strconv.FormatInt(gen, 10), value, ttl.Milliseconds()}
	res, err := setIfEqualScript.Run(ctx, c.client, []string{guard, key}, args...).Int()
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrCacheUnavailable, err)
	}
	return res == 1, nil
}
