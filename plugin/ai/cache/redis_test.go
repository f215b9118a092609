package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_PrefixAndTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newMiniRedisCache(t)

	require.NoError(t, c.Set(ctx, "translate:abc", []byte("x"), 0))
	assert.True(t, mr.Exists("test:translate:abc"))
	assert.Equal(t, time.Hour, mr.TTL("test:translate:abc"))

	mr.FastForward(2 * time.Hour)
	_, ok := c.Get(ctx, "translate:abc")
	assert.False(t, ok)
}

func TestRedisCache_ServerDown(t *testing.T) {
	ctx := context.Background()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	c := NewRedisCacheWithClient(client, "test:", time.Hour)
	mr.Close()

	_, ok := c.Get(ctx, "anything")
	assert.False(t, ok)
	assert.Error(t, c.Set(ctx, "anything", []byte("v"), 0))
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	cfg := DefaultRedisConfig()
	cfg.Addr = "127.0.0.1:1"
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := NewRedisCache(ctx, cfg)
	assert.Error(t, err)
}

func TestNewRedisCache_Connects(t *testing.T) {
	_, mr := newMiniRedisCache(t)
	cfg := DefaultRedisConfig()
	cfg.Addr = mr.Addr()

	c, err := NewRedisCache(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), time.Minute))
	assert.True(t, mr.Exists("bazaarbot:k"))
}
