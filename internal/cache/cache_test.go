package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"roblox-trader/internal/cache"
)

func newTestCache(t *testing.T) (cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return cache.NewRedis(client), mr
}

func TestSetAndGet(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "foo", []byte("bar"), time.Hour))

	val, err := c.Get(ctx, "foo")
	require.NoError(t, err)
	require.Equal(t, []byte("bar"), val)
}

func TestGetMissingKey(t *testing.T) {
	c, _ := newTestCache(t)

	_, err := c.Get(context.Background(), "absent")
	require.ErrorIs(t, err, cache.ErrMiss)
}

func TestExpiredKeyIsAMiss(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "foo", []byte("bar"), 900*time.Second))
	mr.FastForward(901 * time.Second)

	_, err := c.Get(ctx, "foo")
	require.ErrorIs(t, err, cache.ErrMiss)
}

func TestSetOverwrites(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "user_cookie:42", []byte("old"), time.Hour))
	require.NoError(t, c.Set(ctx, "user_cookie:42", []byte("new"), time.Hour))

	val, err := c.Get(ctx, "user_cookie:42")
	require.NoError(t, err)
	require.Equal(t, "new", string(val))
}

func TestUnreachableServerIsNotAMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := cache.NewRedis(client)
	mr.Close()

	_, err := c.Get(context.Background(), "foo")
	require.Error(t, err)
	require.NotErrorIs(t, err, cache.ErrMiss)
}
