package cache

import (
	"context"
	"testing"
	"time"

	"github.com/mywatercloset/api/pkg/config"
	"github.com/mywatercloset/api/pkg/testutils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedisStorage(t *testing.T) *RedisStorage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7.0.5",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	s, err := NewRedisStorage(&config.Redis{URL: "redis://" + endpoint + "/0"}, "ratelimit:", testutils.Logger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRedisStorage_SetGetDelete(t *testing.T) {
	s := setupRedisStorage(t)

	got, err := s.Get("10.0.0.1")
	require.NoError(t, err)
	assert.Nil(t, got, "missing key")

	require.NoError(t, s.Set("10.0.0.1", []byte("3"), time.Minute))
	got, err = s.Get("10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), got)

	require.NoError(t, s.Delete("10.0.0.1"))
	got, err = s.Get("10.0.0.1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStorage_ResetKeepsForeignKeys(t *testing.T) {
	s := setupRedisStorage(t)
	ctx := context.Background()
	require.NoError(t, s.client.Set(ctx, "other:key", "x", 0).Err())
	require.NoError(t, s.Set("a", []byte("1"), 0))
	require.NoError(t, s.Set("b", []byte("2"), 0))

	require.NoError(t, s.Reset())

	n, err := s.client.Exists(ctx, "ratelimit:a", "ratelimit:b").Result()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, s.client.Get(ctx, "other:key").Err())
}

func TestRedisStorage_IgnoresEmptyKeys(t *testing.T) {
	s := NewRedisStorageWithClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), "p:", testutils.Logger())
	got, err := s.Get("")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, s.Set("", []byte("x"), 0))
	assert.NoError(t, s.Delete(""))
}

func TestNewRedisStorage_Validation(t *testing.T) {
	_, err := NewRedisStorage(nil, "p:", testutils.Logger())
	assert.Error(t, err)
	_, err = NewRedisStorage(&config.Redis{URL: "not a url"}, "p:", testutils.Logger())
	assert.Error(t, err)
}
