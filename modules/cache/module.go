package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/redis/go-redis/v9"
)

// DefaultProbeInterval is used when Config.ProbeInterval is not set.
const DefaultProbeInterval = 15 * time.Second

// Config holds cache module configuration.
type Config struct {
	Enabled       bool
	Addr          string
	Password      string
	DB            int
	Key           string
	TTL           time.Duration
	ProbeInterval time.Duration
}

// Module owns the Redis client, the availability flag and the prober.
// A Redis outage never fails Start: the module comes up degraded instead.
type Module struct {
	cfg    Config
	client *redis.Client
	cache  *Cache
	list   *ListCache
	status *Availability
	prober *Prober
	logger types.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a new cache module.
func NewModule(cfg Config, logger types.Logger) *Module {
	if cfg.Key == "" {
		cfg.Key = DefaultListKey
	}
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = DefaultProbeInterval
	}
	return &Module{
		cfg:    cfg,
		status: NewAvailability(false),
		logger: logger,
	}
}

// ============================================================
// Module Interface Implementation
// ============================================================

// Name returns the module name.
func (m *Module) Name() string {
	return "cache"
}

// Start creates the Redis client, runs the startup probe and launches the
// background prober.
func (m *Module) Start(ctx context.Context) error {
	if !m.cfg.Enabled {
		m.logger.Info("Caching disabled by configuration")
		return nil
	}

	m.client = redis.NewClient(&redis.Options{
		Addr:         m.cfg.Addr,
		Password:     m.cfg.Password,
		DB:           m.cfg.DB,
		PoolSize:     50,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		MaxRetries:   1,
	})

	m.cache = New(m.client, "")
	m.list = NewListCache(m.cache, m.cfg.Key, m.status, m.cfg.ProbeInterval, m.logger)
	m.prober = NewProber(m.cache, m.status, m.cfg.ProbeInterval, m.list.Reset, m.logger)

	if err := m.prober.ProbeOnce(ctx); err != nil {
		m.logger.Warn("Redis not available at startup",
			"addr", m.cfg.Addr,
			"error", err,
		)
	} else {
		m.logger.Info("Connected to Redis",
			"addr", m.cfg.Addr,
			"key", m.cfg.Key,
			"ttl", m.cfg.TTL.String(),
		)
	}

	if !m.status.Disabled() {
		m.prober.Start()
	}
	return nil
}

// Stop stops the prober and closes the Redis connection.
func (m *Module) Stop(ctx context.Context) error {
	if m.prober != nil {
		if err := m.prober.Stop(ctx); err != nil {
			m.logger.Warn("Cache prober shutdown timeout exceeded", "error", err)
		}
	}
	if m.client != nil {
		if err := m.client.Close(); err != nil {
			return fmt.Errorf("failed to close Redis connection: %w", err)
		}
	}
	m.logger.Info("Cache module stopped")
	return nil
}

// ============================================================
// Public API
// ============================================================

// ListCache returns the task list cache, or nil when caching is disabled.
func (m *Module) ListCache() *ListCache {
	return m.list
}

// Availability returns the shared availability flag.
func (m *Module) Availability() *Availability {
	return m.status
}

// TTL returns the lifetime of a cached list.
func (m *Module) TTL() time.Duration {
	return m.cfg.TTL
}

// Stats returns cache statistics. The zero value is returned when caching
// is disabled.
func (m *Module) Stats() StatsSnapshot {
	if m.cache == nil {
		return StatsSnapshot{}
	}
	return m.cache.GetStats()
}

// ResetStats zeroes the cache counters. It is a no-op when caching is disabled.
func (m *Module) ResetStats() {
	if m.cache != nil {
		m.cache.ResetStats()
	}
}

// ============================================================
// Health Check
// ============================================================

// Health reports cache state. The application works without Redis, so an
// unreachable cache is reported as degraded but healthy.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	details := map[string]any{
		"enabled":   m.cfg.Enabled,
		"addr":      m.cfg.Addr,
		"key":       m.cfg.Key,
		"available": m.status.Available(),
	}
	if m.list != nil {
		details["breaker"] = m.list.BreakerState()
	}

	switch {
	case !m.cfg.Enabled:
		return mono.HealthStatus{Healthy: true, Message: "disabled", Details: details}
	case m.status.Disabled():
		return mono.HealthStatus{Healthy: true, Message: "disabled: misconfigured", Details: details}
	case !m.status.Available():
		return mono.HealthStatus{Healthy: true, Message: "degraded: redis not available", Details: details}
	default:
		return mono.HealthStatus{Healthy: true, Message: "operational", Details: details}
	}
}
