//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/notaria/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newRedisConfig(t *testing.T) config.RedisConfig {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "Failed to start Redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	return config.RedisConfig{Enabled: true, Host: host, Port: port.Int()}
}

func TestRedisIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewRedisIdempotencyStore(ctx, newRedisConfig(t), 5*time.Second)
	require.NoError(t, err)
	defer store.Close()

	isNew, err := store.MarkProcessed(ctx, "ready:evt-1", time.Second)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = store.MarkProcessed(ctx, "ready:evt-1", time.Second)
	require.NoError(t, err)
	assert.False(t, isNew)

	ok, err := store.IsProcessed(ctx, "ready:evt-1")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Eventually(t, func() bool {
		ok, err := store.IsProcessed(ctx, "ready:evt-1")
		return err == nil && !ok
	}, 5*time.Second, 100*time.Millisecond)
}
