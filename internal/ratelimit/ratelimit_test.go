package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(Config{Limit: 3, Window: time.Minute, MaxKeys: 10})
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d := l.Check(ctx, "1.2.3.4")
		assert.True(t, d.Allowed, "request %d should pass", i)
		assert.Equal(t, 3-i, d.Remaining)
		assert.Equal(t, now.Add(time.Minute), d.ResetAt)
	}

	d := l.Check(ctx, "1.2.3.4")
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Equal(t, time.Minute, d.RetryAfter(now))

	// Other clients have their own window
	assert.True(t, l.Check(ctx, "5.6.7.8").Allowed)

	// Window elapses
	now = now.Add(time.Minute)
	d = l.Check(ctx, "1.2.3.4")
	assert.True(t, d.Allowed)
	assert.Equal(t, 2, d.Remaining)
}

func TestMemoryLimiter_BoundedKeys(t *testing.T) {
	l := NewMemoryLimiter(Config{Limit: 1, Window: time.Minute, MaxKeys: 5})
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		l.Check(ctx, fmt.Sprintf("10.0.0.%d", i))
	}
	assert.Equal(t, 5, l.Len())

	// The oldest key was evicted, so it starts over
	assert.True(t, l.Check(ctx, "10.0.0.0").Allowed)
	// A recent key is still limited
	assert.False(t, l.Check(ctx, "10.0.0.19").Allowed)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultLimit, cfg.Limit)
	assert.Equal(t, 5*time.Minute, cfg.Window)
	assert.Equal(t, 500, cfg.MaxKeys)
}

func TestRedisLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	l := NewRedisLimiter(client, "rl:", Config{Limit: 2, Window: time.Minute}, nil)
	ctx := context.Background()

	require.True(t, l.Check(ctx, "ip").Allowed)
	d := l.Check(ctx, "ip")
	assert.True(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.False(t, l.Check(ctx, "ip").Allowed)

	ttl := mr.TTL("rl:ip")
	assert.True(t, ttl > 0 && ttl <= time.Minute, "unexpected ttl %s", ttl)

	mr.FastForward(time.Minute + time.Second)
	assert.True(t, l.Check(ctx, "ip").Allowed)
}

func TestRedisLimiter_FallsBackToMemory(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()

	l := NewRedisLimiter(client, "rl:", Config{Limit: 1, Window: time.Minute}, nil)
	mr.Close()

	ctx := context.Background()
	assert.True(t, l.Check(ctx, "ip").Allowed)
	assert.False(t, l.Check(ctx, "ip").Allowed)
}
