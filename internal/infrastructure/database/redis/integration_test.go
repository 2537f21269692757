//go:build integration

package redis

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/irisuniflora/VF/internal/config"
	"github.com/irisuniflora/VF/internal/infrastructure/monitoring/logging"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestIntegration_GetOrSetLoadsOnceUnderConcurrency(t *testing.T) {
	client, err := NewClient(config.RedisConfig{Addr: startRedis(t)}, logging.NewNopLogger())
	require.NoError(t, err)
	defer client.Close()
	cache := NewRedisCache(client, nil, WithPrefix("it:"))

	var loads int32
	loader := func(context.Context) (interface{}, error) {
		atomic.AddInt32(&loads, 1)
		time.Sleep(50 * time.Millisecond)
		return cachedFile{Path: "/p", Content: "ATOM"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var got cachedFile
			assert.NoError(t, cache.GetOrSet(context.Background(), "file:p", &got, time.Minute, loader))
			assert.Equal(t, "ATOM", got.Content)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, atomic.LoadInt32(&loads))

	n, err := cache.DeleteByPrefix(context.Background(), "file:")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
