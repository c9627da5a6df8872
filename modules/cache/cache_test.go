package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/redis/go-redis/v9"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any)         {}
func (m *mockLogger) Info(_ string, _ ...any)          {}
func (m *mockLogger) Warn(_ string, _ ...any)          {}
func (m *mockLogger) Error(_ string, _ ...any)         {}
func (m *mockLogger) With(_ ...any) types.Logger       { return m }
func (m *mockLogger) WithModule(_ string) types.Logger { return m }
func (m *mockLogger) WithError(_ error) types.Logger   { return m }

// newTestClient returns a client for addr without retries so outage tests
// fail fast.
func newTestClient(t *testing.T, addr, password string) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  200 * time.Millisecond,
		ReadTimeout:  200 * time.Millisecond,
		WriteTimeout: 200 * time.Millisecond,
		MaxRetries:   -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

// setupTestCache starts an in-process Redis and returns a cache on top of it.
func setupTestCache(t *testing.T, prefix string) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	return New(newTestClient(t, mr.Addr(), ""), prefix), mr
}

type testItem struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestCache_SetAndGet(t *testing.T) {
	c, mr := setupTestCache(t, "test:")
	ctx := context.Background()

	if err := c.SetWithTTL(ctx, "item1", testItem{ID: 1, Name: "Widget"}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if !mr.Exists("test:item1") {
		t.Fatal("expected prefixed key to exist in Redis")
	}
	if ttl := mr.TTL("test:item1"); ttl != time.Minute {
		t.Errorf("TTL = %v, want %v", ttl, time.Minute)
	}

	var got testItem
	found, err := c.Get(ctx, "item1", &got)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("Get() returned found = false, want true")
	}
	if got.ID != 1 || got.Name != "Widget" {
		t.Errorf("Get() = %+v, want {1 Widget}", got)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c, _ := setupTestCache(t, "")

	var got testItem
	found, err := c.Get(context.Background(), "missing", &got)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Get() returned found = true for missing key")
	}
}

func TestCache_SetWithTTL_Expires(t *testing.T) {
	c, mr := setupTestCache(t, "")
	ctx := context.Background()

	if err := c.SetWithTTL(ctx, "short", testItem{ID: 2}, 5*time.Second); err != nil {
		t.Fatalf("SetWithTTL() error = %v", err)
	}

	mr.FastForward(6 * time.Second)

	var got testItem
	found, err := c.Get(ctx, "short", &got)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("expected entry to expire")
	}
}

func TestCache_Delete(t *testing.T) {
	c, mr := setupTestCache(t, "")
	ctx := context.Background()

	if err := c.SetWithTTL(ctx, "gone", testItem{ID: 3}, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := c.Delete(ctx, "gone"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if mr.Exists("gone") {
		t.Error("key still exists after Delete()")
	}

	// Deleting a missing key is not an error.
	if err := c.Delete(ctx, "gone"); err != nil {
		t.Errorf("Delete() on missing key error = %v", err)
	}
}

func TestCache_CorruptEntry(t *testing.T) {
	c, mr := setupTestCache(t, "")

	if err := mr.Set("bad", "{not json"); err != nil {
		t.Fatalf("failed to seed key: %v", err)
	}

	var got testItem
	found, err := c.Get(context.Background(), "bad", &got)
	if err == nil || found {
		t.Fatalf("Get() = (%v, %v), want unmarshal error", found, err)
	}
	if errors.Is(err, ErrCacheUnreachable) {
		t.Error("unmarshal error must not be classified as unreachable")
	}
}

func TestCache_Stats(t *testing.T) {
	c, _ := setupTestCache(t, "")
	ctx := context.Background()

	_ = c.SetWithTTL(ctx, "k", testItem{ID: 1}, time.Minute)
	var got testItem
	_, _ = c.Get(ctx, "k", &got)
	_, _ = c.Get(ctx, "k", &got)
	_, _ = c.Get(ctx, "missing", &got)
	_ = c.Delete(ctx, "k")

	stats := c.GetStats()
	if stats.Hits != 2 || stats.Misses != 1 || stats.Sets != 1 || stats.Deletes != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.TotalGets != 3 {
		t.Errorf("TotalGets = %d, want 3", stats.TotalGets)
	}
	if stats.HitRate < 66.6 || stats.HitRate > 66.7 {
		t.Errorf("HitRate = %f, want ~66.67", stats.HitRate)
	}

	c.ResetStats()
	if stats := c.GetStats(); stats.Hits != 0 || stats.TotalGets != 0 || stats.HitRate != 0 {
		t.Errorf("expected zeroed stats after reset, got %+v", stats)
	}
}

func TestCache_ServerDown(t *testing.T) {
	c, mr := setupTestCache(t, "")
	mr.Close()

	var got testItem
	_, err := c.Get(context.Background(), "k", &got)
	if !errors.Is(err, ErrCacheUnreachable) {
		t.Errorf("Get() error = %v, want ErrCacheUnreachable", err)
	}
	if stats := c.GetStats(); stats.Errors != 1 {
		t.Errorf("Errors = %d, want 1", stats.Errors)
	}
}
