package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLocal_Burst(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	l := NewLocal(Policy{PerMinute: 60, Burst: 3})
	l.now = c.now
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "user:1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}
	ok, _ := l.Allow(ctx, "user:1")
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "user:2")
	assert.True(t, ok, "keys are independent")

	c.advance(time.Second)
	ok, _ = l.Allow(ctx, "user:1")
	assert.True(t, ok, "one token refilled")
}

func TestLocal_DropsIdleKeys(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	l := NewLocal(Policy{PerMinute: 10, Burst: 1})
	l.now = c.now
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = l.Allow(ctx, fmt.Sprintf("k%d", i))
	}
	assert.Equal(t, 5, l.Len())

	c.advance(10 * time.Minute)
	_, _ = l.Allow(ctx, "fresh")
	assert.Equal(t, 1, l.Len())
}

func TestPolicy_Normalized(t *testing.T) {
	p := Policy{}.normalized()
	assert.Equal(t, 1, p.PerMinute)
	assert.Equal(t, 1, p.Burst)
}

func TestRedis_Integration(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skip("redis not available")
	}
	defer rdb.Close()

	c := &clock{t: time.Now()}
	l := NewRedis(rdb, Policy{PerMinute: 60, Burst: 1})
	l.now = c.now
	l.prefix = fmt.Sprintf("test:%d:", time.Now().UnixNano())

	ok, err := l.Allow(ctx, "user:1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.Allow(ctx, "user:1")
	require.NoError(t, err)
	assert.False(t, ok)

	c.advance(1100 * time.Millisecond)
	ok, err = l.Allow(ctx, "user:1")
	require.NoError(t, err)
	assert.True(t, ok)
}
