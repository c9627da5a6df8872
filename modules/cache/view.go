package cache

import (
	"context"
	"errors"
	"time"

	"github.com/example/task-tracker/domain/task"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/sony/gobreaker/v2"
)

// DefaultListKey is the Redis key holding the serialized task list.
const DefaultListKey = "tasks"

// breakerFailureThreshold is the number of consecutive connectivity failures
// that opens the breaker and switches the service to degraded mode.
const breakerFailureThreshold = 3

// ListCache stores the whole task list under a single key.
// Cache failures never surface to callers: a failed read is a miss and a
// failed write or invalidation is logged and dropped.
type ListCache struct {
	cache   *Cache
	key     string
	status  *Availability
	breaker *gobreaker.CircuitBreaker[any]
	logger  types.Logger
}

// NewListCache creates a list cache. The breaker re-admits a trial request
// after resetTimeout.
func NewListCache(c *Cache, key string, status *Availability, resetTimeout time.Duration, logger types.Logger) *ListCache {
	l := &ListCache{
		cache:  c,
		key:    key,
		status: status,
		logger: logger,
	}

	l.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "redis:" + key,
		MaxRequests: 1,
		Timeout:     resetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			if to == gobreaker.StateOpen {
				status.Set(false)
			}
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrCacheUnreachable)
		},
	})

	return l
}

// Key returns the Redis key of the list.
func (l *ListCache) Key() string {
	return l.key
}

// GetCachedList returns the cached list and true on a hit.
func (l *ListCache) GetCachedList(ctx context.Context) ([]task.Task, bool) {
	var tasks []task.Task

	result, err := l.breaker.Execute(func() (any, error) {
		return l.cache.Get(ctx, l.key, &tasks)
	})
	if err != nil {
		l.logFailure("get", err)
		return nil, false
	}

	found, _ := result.(bool)
	if !found {
		return nil, false
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	return tasks, true
}

// SetCachedList stores the list with the given TTL.
func (l *ListCache) SetCachedList(ctx context.Context, tasks []task.Task, ttl time.Duration) {
	_, err := l.breaker.Execute(func() (any, error) {
		return nil, l.cache.SetWithTTL(ctx, l.key, tasks, ttl)
	})
	if err != nil {
		l.logFailure("set", err)
	}
}

// InvalidateList deletes the cached list. It bypasses the breaker so an open
// breaker can never leave a stale list behind once Redis answers again.
func (l *ListCache) InvalidateList(ctx context.Context) {
	if err := l.cache.Delete(ctx, l.key); err != nil {
		if errors.Is(err, ErrCacheUnreachable) {
			l.status.Set(false)
		}
		l.logFailure("invalidate", err)
	}
}

// Reset deletes the cached list and reports the error. The prober uses it
// before marking the cache available again.
func (l *ListCache) Reset(ctx context.Context) error {
	return l.cache.Delete(ctx, l.key)
}

// BreakerState returns the current circuit breaker state.
func (l *ListCache) BreakerState() string {
	return l.breaker.State().String()
}

func (l *ListCache) logFailure(op string, err error) {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		l.logger.Debug("Cache skipped: circuit open", "op", op, "key", l.key)
		return
	}
	l.logger.Warn("Cache operation failed", "op", op, "key", l.key, "error", err)
}
