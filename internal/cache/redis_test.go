package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/cache"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/config"
)

func setupCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c := cache.NewRedisCache(&config.Config{RedisAddr: mr.Addr()})
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestOAuthStateIsSingleUse(t *testing.T) {
	ctx := context.Background()
	c, _ := setupCache(t)

	require.NoError(t, c.SaveOAuthState(ctx, "abc", `{"mode":"login"}`, time.Minute))

	val, err := c.ConsumeOAuthState(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, `{"mode":"login"}`, val)

	_, err = c.ConsumeOAuthState(ctx, "abc")
	assert.ErrorIs(t, err, cache.ErrStateNotFound)
}

func TestOAuthStateExpires(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCache(t)

	require.NoError(t, c.SaveOAuthState(ctx, "xyz", "p", time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := c.ConsumeOAuthState(ctx, "xyz")
	assert.ErrorIs(t, err, cache.ErrStateNotFound)
}

func TestFirstDelivery(t *testing.T) {
	ctx := context.Background()
	c, _ := setupCache(t)

	first, err := c.FirstDelivery(ctx, "evt-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := c.FirstDelivery(ctx, "evt-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, again)

	anon, err := c.FirstDelivery(ctx, "", time.Hour)
	require.NoError(t, err)
	assert.True(t, anon)
}
