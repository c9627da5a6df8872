package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	assert.NoError(t, ClassifyError(nil))

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"connection refused", errors.New("dial tcp 127.0.0.1:6379: connect: connection refused"), ErrCacheUnreachable},
		{"timeout", context.DeadlineExceeded, ErrCacheUnreachable},
		{"no auth", errors.New("NOAUTH Authentication required."), ErrCacheMisconfigured},
		{"wrong password", errors.New("WRONGPASS invalid username-password pair"), ErrCacheMisconfigured},
		{"bad db", errors.New("ERR DB index is out of range"), ErrCacheMisconfigured},
		{"loading", errors.New("LOADING Redis is loading the dataset in memory"), ErrCacheUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestAvailability(t *testing.T) {
	a := NewAvailability(false)
	assert.False(t, a.Available())

	assert.True(t, a.Set(true), "false -> true is a change")
	assert.False(t, a.Set(true), "true -> true is not a change")
	assert.True(t, a.Available())

	a.Disable()
	assert.True(t, a.Disabled())
	assert.False(t, a.Available())

	a.Set(true)
	assert.False(t, a.Available(), "a disabled cache stays unavailable")
}

func newTestProber(t *testing.T, mr *miniredis.Miniredis, password string, status *Availability) (*Prober, *ListCache) {
	t.Helper()

	c := New(newTestClient(t, mr.Addr(), password), "")
	list := NewListCache(c, DefaultListKey, status, time.Minute, &mockLogger{})
	return NewProber(c, status, time.Hour, list.Reset, &mockLogger{}), list
}

func TestProber_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	status := NewAvailability(true)
	p, _ := newTestProber(t, mr, "", status)

	mr.Close()

	err := p.ProbeOnce(context.Background())
	assert.ErrorIs(t, err, ErrCacheUnreachable)
	assert.False(t, status.Available())
	assert.False(t, status.Disabled(), "unreachable keeps re-probing")
}

func TestProber_Misconfigured(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("secret")

	status := NewAvailability(false)
	p, _ := newTestProber(t, mr, "", status)

	err := p.ProbeOnce(context.Background())
	assert.ErrorIs(t, err, ErrCacheMisconfigured)
	assert.True(t, status.Disabled())
	assert.False(t, status.Available())

	// Once disabled the prober no longer touches Redis.
	assert.ErrorIs(t, p.ProbeOnce(context.Background()), ErrCacheMisconfigured)
}

func TestProber_RecoveryPurgesStaleList(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set(DefaultListKey, `[{"id":1,"title":"stale"}]`))

	status := NewAvailability(false)
	p, _ := newTestProber(t, mr, "", status)

	require.NoError(t, p.ProbeOnce(context.Background()))
	assert.True(t, status.Available())
	assert.False(t, mr.Exists(DefaultListKey), "stale list must be removed before the cache is reused")
}

func TestProber_BackgroundLoop(t *testing.T) {
	mr := miniredis.RunT(t)
	status := NewAvailability(false)

	c := New(newTestClient(t, mr.Addr(), ""), "")
	p := NewProber(c, status, 20*time.Millisecond, nil, &mockLogger{})
	p.Start()

	assert.Eventually(t, status.Available, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, p.Stop(ctx))
	require.NoError(t, p.Stop(ctx), "Stop is idempotent")
}

func TestProber_StopWithoutStart(t *testing.T) {
	p := NewProber(nil, NewAvailability(false), time.Second, nil, &mockLogger{})
	assert.NoError(t, p.Stop(context.Background()))
}
