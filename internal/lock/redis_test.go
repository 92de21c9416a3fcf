package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("INDEXMETA_TEST_REDIS")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available at %s: %v", addr, err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisLockExclusive(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()
	name := "test_" + t.Name()
	client.Del(ctx, Key(name))

	l := NewRedis(client, time.Minute)
	release, err := l.Lock(ctx, name)
	require.NoError(t, err)

	ttl, err := client.PTTL(ctx, Key(name)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	short, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	_, err = NewRedis(client, time.Minute).Lock(short, name)
	assert.ErrorIs(t, err, ErrNotAcquired)

	require.NoError(t, release(ctx))
	assert.Equal(t, int64(0), client.Exists(ctx, Key(name)).Val())

	release, err = l.Lock(ctx, name)
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}

func TestRedisReleaseKeepsForeignToken(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()
	name := "test_" + t.Name()
	client.Del(ctx, Key(name))

	release, err := NewRedis(client, time.Minute).Lock(ctx, name)
	require.NoError(t, err)

	// Simulate expiry followed by another holder.
	require.NoError(t, client.Set(ctx, Key(name), "other", time.Minute).Err())
	require.NoError(t, release(ctx))
	assert.Equal(t, "other", client.Get(ctx, Key(name)).Val())

	client.Del(ctx, Key(name))
}

func TestRedisLockOutlivesTTLWhileHeld(t *testing.T) {
	client := testClient(t)
	ctx := context.Background()
	name := "test_" + t.Name()
	client.Del(ctx, Key(name))

	ttl := 300 * time.Millisecond
	release, err := NewRedis(client, ttl).Lock(ctx, name)
	require.NoError(t, err)

	// Wait for several TTLs; a second holder must still be kept out.
	short, cancel := context.WithTimeout(ctx, 4*ttl)
	defer cancel()
	_, err = NewRedis(client, ttl).Lock(short, name)
	assert.ErrorIs(t, err, ErrNotAcquired)

	pttl, err := client.PTTL(ctx, Key(name)).Result()
	require.NoError(t, err)
	assert.Greater(t, pttl, time.Duration(0))

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx))
	assert.Equal(t, int64(0), client.Exists(ctx, Key(name)).Val())

	// No renewal survives the release.
	time.Sleep(ttl)
	assert.Equal(t, int64(0), client.Exists(ctx, Key(name)).Val())
}
