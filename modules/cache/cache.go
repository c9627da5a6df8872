// Package cache provides the Redis-backed task list cache, its availability
// tracking and the mono module that owns the Redis connection.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores JSON documents in Redis and counts every outcome.
// Connectivity errors are returned wrapped by ClassifyError.
type Cache struct {
	client   *redis.Client
	prefix   string
	counters counters
}

type counters struct {
	hits    atomic.Uint64
	misses  atomic.Uint64
	sets    atomic.Uint64
	deletes atomic.Uint64
	errors  atomic.Uint64
}

// StatsSnapshot is a point-in-time copy of the cache counters.
type StatsSnapshot struct {
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Sets      uint64  `json:"sets"`
	Deletes   uint64  `json:"deletes"`
	Errors    uint64  `json:"errors"`
	HitRate   float64 `json:"hit_rate"`
	TotalGets uint64  `json:"total_gets"`
}

// New creates a cache. Keys are stored as prefix+key.
func New(client *redis.Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// Get decodes the value stored under key into dest and reports a hit.
// A missing key is a miss, not an error. A value that does not decode is an
// error but is not classified: Redis itself answered.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		c.counters.misses.Add(1)
		return false, nil
	case err != nil:
		return false, c.fail("get", ClassifyError(err))
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, c.fail("decode", err)
	}
	c.counters.hits.Add(1)
	return true, nil
}

// SetWithTTL stores value under key for ttl.
func (c *Cache) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return c.fail("encode", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return c.fail("set", ClassifyError(err))
	}
	c.counters.sets.Add(1)
	return nil
}

// Delete removes key. A missing key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return c.fail("delete", ClassifyError(err))
	}
	c.counters.deletes.Add(1)
	return nil
}

func (c *Cache) fail(op string, err error) error {
	c.counters.errors.Add(1)
	return fmt.Errorf("cache %s error: %w", op, err)
}

// GetStats returns the current counters with the derived hit rate (percent).
func (c *Cache) GetStats() StatsSnapshot {
	s := StatsSnapshot{
		Hits:    c.counters.hits.Load(),
		Misses:  c.counters.misses.Load(),
		Sets:    c.counters.sets.Load(),
		Deletes: c.counters.deletes.Load(),
		Errors:  c.counters.errors.Load(),
	}
	s.TotalGets = s.Hits + s.Misses
	if s.TotalGets > 0 {
		s.HitRate = float64(s.Hits) / float64(s.TotalGets) * 100
	}
	return s
}

// ResetStats zeroes every counter.
func (c *Cache) ResetStats() {
	for _, v := range []*atomic.Uint64{
		&c.counters.hits, &c.counters.misses, &c.counters.sets,
		&c.counters.deletes, &c.counters.errors,
	} {
		v.Store(0)
	}
}

// Ping checks that Redis answers. It satisfies Pinger.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
