package kvstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/sso-service/internal/config"
	"github.com/jrsteele09/sso-service/kvstore"
	"github.com/stretchr/testify/require"
)

func redisConfig(t *testing.T, url string) config.RedisConfig {
	t.Helper()
	cfg, err := config.FromMap(map[string]string{
		"JWT_SECRET_KEY":      "secret",
		"REDIS_URL":           url,
		"REDIS_DIAL_TIMEOUT":  "200ms",
		"REDIS_READ_TIMEOUT":  "200ms",
		"REDIS_WRITE_TIMEOUT": "200ms",
	})
	require.NoError(t, err)
	return cfg
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("connects and pings", func(t *testing.T) {
		mr := miniredis.RunT(t)

		client, err := kvstore.New(ctx, redisConfig(t, "redis://"+mr.Addr()+"/0"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })

		require.NoError(t, client.Ping(ctx))
		require.NoError(t, client.Redis().Set(ctx, "k", "v", time.Minute).Err())
		got, err := mr.Get("k")
		require.NoError(t, err)
		require.Equal(t, "v", got)
	})

	t.Run("fails eagerly when unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := kvstore.New(ctx, redisConfig(t, "redis://"+addr+"/0"))
		require.Error(t, err)
	})

	t.Run("rejects malformed url", func(t *testing.T) {
		_, err := kvstore.New(ctx, redisConfig(t, "http://not-redis"))
		require.Error(t, err)
	})
}

func TestNewWithClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client := kvstore.NewWithClient(newRedis(mr.Addr()))
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Ping(context.Background()))
	mr.SetError("LOADING")
	require.Error(t, client.Ping(context.Background()))
}
