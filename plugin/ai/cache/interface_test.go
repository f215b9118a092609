package cache

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapRemote is a map-backed remote tier that records how often it was read.
type mapRemote struct {
	mu    sync.Mutex
	items map[string][]byte
	until map[string]time.Time
	reads int
}

func newMapRemote() *mapRemote {
	return &mapRemote{items: map[string][]byte{}, until: map[string]time.Time{}}
}

func (m *mapRemote) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if exp, ok := m.until[key]; ok && time.Now().After(exp) {
		return nil, false
	}
	v, ok := m.items[key]
	return v, ok
}

func (m *mapRemote) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	delete(m.until, key)
	if ttl > 0 {
		m.until[key] = time.Now().Add(ttl)
	}
	return nil
}

func (m *mapRemote) Invalidate(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix, wildcard := strings.CutSuffix(pattern, "*")
	for key := range m.items {
		if key == pattern || (wildcard && strings.HasPrefix(key, prefix)) {
			delete(m.items, key)
			delete(m.until, key)
		}
	}
	return nil
}

func newMiniRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCacheWithClient(client, "test:", time.Hour), mr
}

// TestCacheServiceContract runs the same behaviour checks against every implementation.
func TestCacheServiceContract(t *testing.T) {
	redisCache, _ := newMiniRedisCache(t)
	tiered := NewService(ServiceConfig{Name: "contract", Capacity: 100, Remote: newMapRemote()})
	defer tiered.Close()

	impls := map[string]CacheService{
		"service": NewService(DefaultServiceConfig("contract-local")),
		"tiered":  tiered,
		"redis":   redisCache,
	}

	for name, svc := range impls {
		t.Run(name, func(t *testing.T) {
			runCacheContract(t, svc)
		})
	}
}

func runCacheContract(t *testing.T, svc CacheService) {
	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		require.NoError(t, svc.Set(ctx, "test-key", []byte("test-value"), time.Hour))
		got, ok := svc.Get(ctx, "test-key")
		require.True(t, ok)
		assert.Equal(t, "test-value", string(got))
	})

	t.Run("MissingKey", func(t *testing.T) {
		_, ok := svc.Get(ctx, "nonexistent-key")
		assert.False(t, ok)
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, svc.Set(ctx, "overwrite-key", []byte("value1"), time.Hour))
		require.NoError(t, svc.Set(ctx, "overwrite-key", []byte("value2"), time.Hour))
		got, _ := svc.Get(ctx, "overwrite-key")
		assert.Equal(t, "value2", string(got))
	})

	t.Run("InvalidateExact", func(t *testing.T) {
		require.NoError(t, svc.Set(ctx, "invalidate-exact", []byte("v"), time.Hour))
		require.NoError(t, svc.Invalidate(ctx, "invalidate-exact"))
		_, ok := svc.Get(ctx, "invalidate-exact")
		assert.False(t, ok)
	})

	t.Run("InvalidateWildcard", func(t *testing.T) {
		require.NoError(t, svc.Set(ctx, "translate:a", []byte("1"), time.Hour))
		require.NoError(t, svc.Set(ctx, "translate:b", []byte("2"), time.Hour))
		require.NoError(t, svc.Set(ctx, "classify:a", []byte("3"), time.Hour))

		require.NoError(t, svc.Invalidate(ctx, "translate:*"))

		_, ok := svc.Get(ctx, "translate:a")
		assert.False(t, ok)
		_, ok = svc.Get(ctx, "translate:b")
		assert.False(t, ok)
		_, ok = svc.Get(ctx, "classify:a")
		assert.True(t, ok)
	})

	t.Run("InvalidateMissingIsNotAnError", func(t *testing.T) {
		assert.NoError(t, svc.Invalidate(ctx, "nonexistent"))
	})

	t.Run("ConcurrentAccess", func(t *testing.T) {
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_ = svc.Set(ctx, "concurrent-key", []byte("value"), time.Hour)
			}()
			go func() {
				defer wg.Done()
				svc.Get(ctx, "concurrent-key")
			}()
		}
		wg.Wait()
	})
}

func TestService_ReadsRemoteOnLocalMiss(t *testing.T) {
	ctx := context.Background()
	remote := newMapRemote()
	require.NoError(t, remote.Set(ctx, "classify:plum cake", []byte(`{"intent":"search"}`), time.Hour))
	require.NoError(t, remote.Set(ctx, "classify:stale", []byte("old"), time.Millisecond))

	svc := NewService(ServiceConfig{Name: "classify", Capacity: 10, Remote: remote})
	defer svc.Close()

	got, ok := svc.Get(ctx, "classify:plum cake")
	require.True(t, ok)
	assert.JSONEq(t, `{"intent":"search"}`, string(got))
	_, ok = svc.Get(ctx, "classify:plum cake")
	require.True(t, ok)
	assert.Equal(t, 1, remote.reads, "second read is served locally")

	time.Sleep(5 * time.Millisecond)
	_, ok = svc.Get(ctx, "classify:stale")
	assert.False(t, ok)

	require.NoError(t, svc.Set(ctx, "translate:hei", []byte("this"), time.Hour))
	v, ok := remote.Get(ctx, "translate:hei")
	require.True(t, ok)
	assert.Equal(t, "this", string(v))
}
