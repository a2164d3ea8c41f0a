package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewFromClient(rdb, zap.NewNop()), mr
}

func TestBlacklistToken(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.BlacklistToken(ctx, "jti-1", time.Minute))

	ok, err := c.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.IsBlacklisted(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = c.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, ok, "blacklist entry should expire with the token")
}

func TestBlacklistToken_ExpiredIsNoop(t *testing.T) {
	c, mr := newTestClient(t)

	require.NoError(t, c.BlacklistToken(context.Background(), "jti-old", 0))
	assert.False(t, mr.Exists(blacklistPrefix+"jti-old"))
}

func TestCheckRateLimit(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := c.CheckRateLimit(ctx, "rl:test", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "hit %d should be allowed", i+1)
	}

	allowed, err := c.CheckRateLimit(ctx, "rl:test", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed, "fourth hit inside the window must be refused")

	allowed, err = c.CheckRateLimit(ctx, "rl:other", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed, "keys are independent")
}
