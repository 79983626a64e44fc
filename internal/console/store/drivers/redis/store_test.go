package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/consoleauth/internal/console/store"
	"github.com/aussiebroadwan/consoleauth/internal/console/store/drivers/redis"
	"github.com/aussiebroadwan/consoleauth/internal/console/store/storetest"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestStore(t *testing.T) {
	t.Parallel()

	_, client := newTestRedis(t)
	s, err := redis.New(redis.Config{Client: client})
	require.NoError(t, err)

	storetest.Run(t, s)
}

func TestKeysArePrefixed(t *testing.T) {
	t.Parallel()

	mr, client := newTestRedis(t)
	s, err := redis.New(redis.Config{Client: client, KeyPrefix: "test:"})
	require.NoError(t, err)

	require.NoError(t, s.Put(context.Background(), "auth", []byte("sealed")))

	got, err := mr.Get("test:kv:auth")
	require.NoError(t, err)
	require.Equal(t, "sealed", got)
}

func TestExternalDeleteIsNotFound(t *testing.T) {
	t.Parallel()

	mr, client := newTestRedis(t)
	s, err := redis.New(redis.Config{Client: client})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "auth", []byte("sealed")))
	mr.Del(redis.DefaultKeyPrefix + "kv:auth")

	_, err = s.Get(ctx, "auth")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWatch(t *testing.T) {
	t.Parallel()

	_, client := newTestRedis(t)
	watcher, err := redis.New(redis.Config{Client: client})
	require.NoError(t, err)

	storetest.RunWatch(t, watcher, watcher)
}

func TestNewRequiresClient(t *testing.T) {
	t.Parallel()

	_, err := redis.New(redis.Config{})
	require.Error(t, err)
}

func TestOpen(t *testing.T) {
	t.Parallel()

	mr, _ := newTestRedis(t)
	addr := mr.Addr()
	s, err := redis.Open(context.Background(), addr, "", 0, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Ping(context.Background()))

	mr.Close()
	_, err = redis.Open(context.Background(), addr, "", 0, "")
	require.Error(t, err)
}
