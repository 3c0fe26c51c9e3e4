package revocation_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	apperrors "github.com/jrsteele09/sso-service/internal/errors"
	"github.com/jrsteele09/sso-service/revocation"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	mr     *miniredis.Miniredis
	ledger *revocation.Ledger
}

func setupTestFixture(t *testing.T, opts ...revocation.Option) *testFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	opts = append([]revocation.Option{revocation.WithRetryBackoff(time.Millisecond)}, opts...)
	ledger, err := revocation.New(client, opts...)
	require.NoError(t, err)

	return &testFixture{mr: mr, ledger: ledger}
}

func TestLedger_RevokeAndCheck(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	revoked, err := f.ledger.IsRevoked(ctx, "tok-a")
	require.NoError(t, err)
	require.False(t, revoked)

	require.NoError(t, f.ledger.Revoke(ctx, "tok-a", time.Hour))

	revoked, err = f.ledger.IsRevoked(ctx, "tok-a")
	require.NoError(t, err)
	require.True(t, revoked)

	val, err := f.mr.Get("blacklist:token:tok-a")
	require.NoError(t, err)
	require.Equal(t, "1", val)
	require.Equal(t, time.Hour, f.mr.TTL("blacklist:token:tok-a"))

	revoked, err = f.ledger.IsRevoked(ctx, "tok-b")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestLedger_RevokeIsIdempotent(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ledger.Revoke(ctx, "tok", time.Minute))
	require.NoError(t, f.ledger.Revoke(ctx, "tok", time.Minute))

	revoked, err := f.ledger.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	require.True(t, revoked)
	require.Len(t, f.mr.Keys(), 1)
}

func TestLedger_EntryExpires(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.ledger.Revoke(ctx, "tok", 10*time.Second))
	f.mr.FastForward(11 * time.Second)

	revoked, err := f.ledger.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestLedger_TTLHandling(t *testing.T) {
	t.Run("non-positive ttl uses default", func(t *testing.T) {
		f := setupTestFixture(t, revocation.WithDefaultTTL(15*time.Minute))
		require.NoError(t, f.ledger.Revoke(context.Background(), "zero", 0))
		require.NoError(t, f.ledger.Revoke(context.Background(), "negative", -time.Second))
		require.Equal(t, 15*time.Minute, f.mr.TTL("blacklist:token:zero"))
		require.Equal(t, 15*time.Minute, f.mr.TTL("blacklist:token:negative"))
	})

	t.Run("sub-second remainder rounds up", func(t *testing.T) {
		f := setupTestFixture(t)
		require.NoError(t, f.ledger.Revoke(context.Background(), "tok", 1500*time.Millisecond))
		require.Equal(t, 2*time.Second, f.mr.TTL("blacklist:token:tok"))
	})
}

func TestLedger_HashKey(t *testing.T) {
	f := setupTestFixture(t, revocation.WithHashKey([]byte("ledger-key")))
	ctx := context.Background()

	require.NoError(t, f.ledger.Revoke(ctx, "raw.jwt.value", time.Minute))

	keys := f.mr.Keys()
	require.Len(t, keys, 1)
	require.True(t, strings.HasPrefix(keys[0], revocation.KeyPrefix))
	require.NotContains(t, keys[0], "raw.jwt.value")
	require.Len(t, strings.TrimPrefix(keys[0], revocation.KeyPrefix), 64)

	revoked, err := f.ledger.IsRevoked(ctx, "raw.jwt.value")
	require.NoError(t, err)
	require.True(t, revoked)

	_, err = revocation.New(redis.NewClient(&redis.Options{}), revocation.WithHashKey(make([]byte, 65)))
	require.Error(t, err)
}

func TestLedger_Clear(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	for i := 0; i < 250; i++ {
		require.NoError(t, f.ledger.Revoke(ctx, fmt.Sprintf("tok-%d", i), time.Minute))
	}
	require.NoError(t, f.mr.Set("unrelated", "keep"))

	removed, err := f.ledger.Clear(ctx)
	require.NoError(t, err)
	require.Equal(t, 250, removed)
	require.Equal(t, []string{"unrelated"}, f.mr.Keys())
}

func TestLedger_StoreUnavailable(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	f.mr.Close()

	revoked, err := f.ledger.IsRevoked(ctx, "tok")
	require.ErrorIs(t, err, apperrors.ErrLedgerUnavailable)
	require.False(t, revoked)

	err = f.ledger.Revoke(ctx, "tok", time.Minute)
	require.ErrorIs(t, err, apperrors.ErrLedgerUnavailable)

	_, err = f.ledger.Clear(ctx)
	require.ErrorIs(t, err, apperrors.ErrLedgerUnavailable)
}

func TestLedger_RetriesOnce(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	f.mr.SetError("LOADING Redis is loading the dataset in memory")
	_, err := f.ledger.IsRevoked(ctx, "tok")
	require.ErrorIs(t, err, apperrors.ErrLedgerUnavailable)

	f.mr.SetError("")
	revoked, err := f.ledger.IsRevoked(ctx, "tok")
	require.NoError(t, err)
	require.False(t, revoked)
}

func TestLedger_ConcurrentRevoke(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = f.ledger.Revoke(ctx, fmt.Sprintf("tok-%d", i%5), time.Minute)
		}(i)
	}
	wg.Wait()
	require.Len(t, f.mr.Keys(), 5)
}
