package websocket

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAdmission_Ceiling(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryAdmission(DefaultMaxSessionsPerUser)

	for i := 0; i < DefaultMaxSessionsPerUser; i++ {
		require.NoError(t, a.TryAdmit(ctx, "alice"), "session %d", i+1)
	}
	assert.ErrorIs(t, a.TryAdmit(ctx, "alice"), ErrTooManySessions)
	assert.Equal(t, 5, a.Count("alice"))

	// Other principals are unaffected
	require.NoError(t, a.TryAdmit(ctx, "bob"))

	require.NoError(t, a.Release(ctx, "alice"))
	require.NoError(t, a.TryAdmit(ctx, "alice"))
	assert.Equal(t, 5, a.Count("alice"))
}

func TestMemoryAdmission_ReleaseDropsIdlePrincipals(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryAdmission(2)

	require.NoError(t, a.TryAdmit(ctx, "alice"))
	assert.Equal(t, 1, a.Principals())

	require.NoError(t, a.Release(ctx, "alice"))
	assert.Equal(t, 0, a.Count("alice"))
	assert.Equal(t, 0, a.Principals())

	// Releasing an unknown principal is a no-op
	require.NoError(t, a.Release(ctx, "ghost"))
	assert.Equal(t, 0, a.Principals())
}

func TestMemoryAdmission_InvalidCeilingUsesDefault(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryAdmission(0)

	for i := 0; i < DefaultMaxSessionsPerUser; i++ {
		require.NoError(t, a.TryAdmit(ctx, "alice"))
	}
	assert.ErrorIs(t, a.TryAdmit(ctx, "alice"), ErrTooManySessions)
}

func TestMemoryAdmission_Concurrent(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryAdmission(DefaultMaxSessionsPerUser)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		admitted int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if a.TryAdmit(ctx, "alice") == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, DefaultMaxSessionsPerUser, admitted)
	assert.Equal(t, DefaultMaxSessionsPerUser, a.Count("alice"))

	for i := 0; i < admitted; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, a.Release(ctx, "alice"))
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, a.Count("alice"))
}

func newRedisClient(t *testing.T) *redis.Client {
	t.Helper()

	host := os.Getenv("REDIS_HOST")
	if host == "" {
		t.Skip("REDIS_HOST not set, skipping redis admission tests")
	}
	port := os.Getenv("REDIS_PORT")
	if port == "" {
		port = "6379"
	}

	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port)})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisAdmission_Ceiling(t *testing.T) {
	client := newRedisClient(t)
	ctx := context.Background()

	prefix := "threadfit:test:" + uuid.NewString() + ":"
	a := NewRedisAdmission(client, 2).WithKeyPrefix(prefix)
	t.Cleanup(func() { client.Del(context.Background(), prefix+"alice") })

	require.NoError(t, a.TryAdmit(ctx, "alice"))
	require.NoError(t, a.TryAdmit(ctx, "alice"))
	assert.ErrorIs(t, a.TryAdmit(ctx, "alice"), ErrTooManySessions)

	require.NoError(t, a.Release(ctx, "alice"))
	require.NoError(t, a.TryAdmit(ctx, "alice"))

	require.NoError(t, a.Release(ctx, "alice"))
	require.NoError(t, a.Release(ctx, "alice"))
	n, err := client.Exists(ctx, prefix+"alice").Result()
	require.NoError(t, err)
	assert.Zero(t, n, "key should be removed once the count reaches zero")

	// Extra releases never drive the count negative
	require.NoError(t, a.Release(ctx, "alice"))
	require.NoError(t, a.TryAdmit(ctx, "alice"))
	require.NoError(t, a.TryAdmit(ctx, "alice"))
	assert.ErrorIs(t, a.TryAdmit(ctx, "alice"), ErrTooManySessions)
}
