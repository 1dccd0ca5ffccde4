//go:build integration

package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLock(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	l := NewRedis(client, time.Second)
	key := uuid.NewString()

	release, err := l.Acquire(ctx, key)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, key)
	assert.ErrorIs(t, err, ErrHeld)

	release()
	release()

	again, err := l.Acquire(ctx, key)
	require.NoError(t, err)
	again()
}

func TestRedisLockExpires(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	l := NewRedis(client, 200*time.Millisecond)
	key := uuid.NewString()

	stale, err := l.Acquire(ctx, key)
	require.NoError(t, err)
	time.Sleep(400 * time.Millisecond)

	fresh, err := l.Acquire(ctx, key)
	require.NoError(t, err)

	// the expired holder must not delete the new holder's key
	stale()
	_, err = l.Acquire(ctx, key)
	assert.ErrorIs(t, err, ErrHeld)
	fresh()
}
