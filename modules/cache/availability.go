package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Probe failure classes.
var (
	// ErrCacheUnreachable means Redis could not be reached. It is transient and
	// re-probing may recover it.
	ErrCacheUnreachable = errors.New("cache unreachable")

	// ErrCacheMisconfigured means Redis answered but rejected the client, e.g.
	// bad credentials or database index. Re-probing will not help.
	ErrCacheMisconfigured = errors.New("cache misconfigured")
)

// Server error prefixes that indicate a configuration problem.
var misconfiguredPrefixes = []string{
	"NOAUTH",
	"WRONGPASS",
	"NOPERM",
	"ERR AUTH",
	"ERR invalid password",
	"ERR DB index is out of range",
	"ERR invalid DB index",
}

// ClassifyError wraps a Redis client error with ErrCacheMisconfigured or
// ErrCacheUnreachable. A nil error stays nil.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	var redisErr redis.Error
	if errors.As(err, &redisErr) {
		msg = redisErr.Error()
	}
	for _, prefix := range misconfiguredPrefixes {
		if strings.HasPrefix(msg, prefix) {
			return fmt.Errorf("%w: %w", ErrCacheMisconfigured, err)
		}
	}
	return fmt.Errorf("%w: %w", ErrCacheUnreachable, err)
}

// Pinger checks cache connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Probe pings the cache once, bounded by timeout, and returns a classified error.
func Probe(ctx context.Context, p Pinger, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return ClassifyError(p.Ping(ctx))
}

// Availability records whether cache operations should be attempted.
// It is shared between the prober, the list cache breaker and the task service.
type Availability struct {
	available atomic.Bool
	disabled  atomic.Bool
}

// NewAvailability returns an Availability with the given initial state.
func NewAvailability(available bool) *Availability {
	a := &Availability{}
	a.available.Store(available)
	return a
}

// Available reports whether the cache should be used.
func (a *Availability) Available() bool {
	return a.available.Load() && !a.disabled.Load()
}

// Set records the latest reachability and reports whether it changed.
func (a *Availability) Set(available bool) bool {
	return a.available.Swap(available) != available
}

// Disable turns caching off for the rest of the process lifetime.
func (a *Availability) Disable() {
	a.disabled.Store(true)
	a.available.Store(false)
}

// Disabled reports whether caching was turned off permanently.
func (a *Availability) Disabled() bool {
	return a.disabled.Load()
}
