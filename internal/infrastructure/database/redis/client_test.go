package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irisuniflora/VF/internal/config"
	"github.com/irisuniflora/VF/internal/infrastructure/monitoring/logging"
)

func TestNewClient_Connects(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := NewClient(config.RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "foo", "bar", time.Minute).Err())
	val, err := client.Get(ctx, "foo").Result()
	require.NoError(t, err)
	assert.Equal(t, "bar", val)
	assert.NotNil(t, client.PoolStats())
}

func TestNewClient_ConnectionFailed(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	client, err := NewClient(config.RedisConfig{Addr: addr, DialTimeout: 200 * time.Millisecond}, logging.NewNopLogger())

	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestClient_ClosedRejectsCommands(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := NewClient(config.RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	ctx := context.Background()
	assert.ErrorIs(t, client.Ping(ctx), ErrClientClosed)
	assert.ErrorIs(t, client.Get(ctx, "foo").Err(), ErrClientClosed)
	assert.ErrorIs(t, client.Del(ctx, "foo").Err(), ErrClientClosed)
}

func TestCache_WithMiniredis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := NewClient(config.RedisConfig{Addr: mr.Addr()}, logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()
	cache := NewRedisCache(client, nil, WithPrefix("vf:"))
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "file:a", cachedFile{Path: "a", Content: "x"}, time.Hour))
	assert.True(t, mr.Exists("vf:file:a"))
	ttl := mr.TTL("vf:file:a")
	assert.InDelta(t, float64(time.Hour), float64(ttl), float64(6*time.Minute+time.Second))

	var got cachedFile
	require.NoError(t, cache.Get(ctx, "file:a", &got))
	assert.Equal(t, "x", got.Content)
}
