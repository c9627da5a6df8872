package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testModuleConfig(addr string) Config {
	return Config{
		Enabled:       true,
		Addr:          addr,
		TTL:           60 * time.Second,
		ProbeInterval: time.Hour,
	}
}

func TestModule_Name(t *testing.T) {
	m := NewModule(Config{}, &mockLogger{})
	assert.Equal(t, "cache", m.Name())
}

func TestModule_DefaultKey(t *testing.T) {
	m := NewModule(Config{}, &mockLogger{})
	assert.Equal(t, DefaultListKey, m.cfg.Key)
}

func TestModule_StartWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	m := NewModule(testModuleConfig(mr.Addr()), &mockLogger{})
	ctx := context.Background()

	require.NoError(t, m.Start(ctx))
	t.Cleanup(func() { _ = m.Stop(context.Background()) })

	assert.True(t, m.Availability().Available())
	require.NotNil(t, m.ListCache())
	assert.Equal(t, "tasks", m.ListCache().Key())

	status := m.Health(ctx)
	assert.True(t, status.Healthy)
	assert.Equal(t, "operational", status.Message)
	assert.Equal(t, "closed", status.Details["breaker"])
}

func TestModule_StartWithoutRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	m := NewModule(testModuleConfig(addr), &mockLogger{})
	ctx := context.Background()

	require.NoError(t, m.Start(ctx), "an unreachable cache must not fail startup")
	t.Cleanup(func() { _ = m.Stop(context.Background()) })

	assert.False(t, m.Availability().Available())
	assert.False(t, m.Availability().Disabled())

	status := m.Health(ctx)
	assert.True(t, status.Healthy)
	assert.Equal(t, "degraded: redis not available", status.Message)
}

func TestModule_Misconfigured(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("secret")

	m := NewModule(testModuleConfig(mr.Addr()), &mockLogger{})
	ctx := context.Background()

	require.NoError(t, m.Start(ctx))
	t.Cleanup(func() { _ = m.Stop(context.Background()) })

	assert.True(t, m.Availability().Disabled())
	assert.Equal(t, "disabled: misconfigured", m.Health(ctx).Message)
}

func TestModule_Disabled(t *testing.T) {
	m := NewModule(Config{Enabled: false}, &mockLogger{})
	ctx := context.Background()

	require.NoError(t, m.Start(ctx))
	assert.Nil(t, m.ListCache())
	assert.False(t, m.Availability().Available())
	assert.Equal(t, StatsSnapshot{}, m.Stats())
	m.ResetStats()
	assert.Equal(t, "disabled", m.Health(ctx).Message)
	require.NoError(t, m.Stop(ctx))
}

func TestModule_ResetStats(t *testing.T) {
	mr := miniredis.RunT(t)
	m := NewModule(testModuleConfig(mr.Addr()), &mockLogger{})
	ctx := context.Background()

	require.NoError(t, m.Start(ctx))
	t.Cleanup(func() { _ = m.Stop(context.Background()) })

	_, hit := m.ListCache().GetCachedList(ctx)
	require.False(t, hit)
	assert.Equal(t, uint64(1), m.Stats().Misses)

	m.ResetStats()
	assert.Equal(t, StatsSnapshot{}, m.Stats())
}
