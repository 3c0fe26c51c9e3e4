// Package revocation records revoked tokens in Redis until they would have
// expired on their own.
package revocation

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/cenkalti/backoff/v5"
	apperrors "github.com/jrsteele09/sso-service/internal/errors"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/blake2b"
)

// KeyPrefix namespaces ledger entries in the shared store.
const KeyPrefix = "blacklist:token:"

const (
	defaultTTL          = 30 * time.Minute
	defaultRetryBackoff = 50 * time.Millisecond
	clearBatchSize      = 100
)

// Ledger is safe for concurrent use. All state lives in Redis.
type Ledger struct {
	client       redis.UniversalClient
	defaultTTL   time.Duration
	hashKey      []byte
	retryBackoff time.Duration
}

type Option func(*Ledger)

// WithDefaultTTL sets the lifetime used when Revoke is called without a positive ttl.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(l *Ledger) {
		l.defaultTTL = ttl
	}
}

// WithHashKey stores a keyed BLAKE2b-256 digest of each token instead of the raw token.
func WithHashKey(key []byte) Option {
	return func(l *Ledger) {
		l.hashKey = key
	}
}

// WithRetryBackoff sets the wait before the single retry of a failed store call.
func WithRetryBackoff(d time.Duration) Option {
	return func(l *Ledger) {
		l.retryBackoff = d
	}
}

func New(client redis.UniversalClient, options ...Option) (*Ledger, error) {
	if client == nil {
		return nil, errors.New("[revocation.New] redis client is required")
	}
	l := &Ledger{
		client:       client,
		defaultTTL:   defaultTTL,
		retryBackoff: defaultRetryBackoff,
	}
	for _, opt := range options {
		opt(l)
	}
	if l.defaultTTL <= 0 {
		return nil, errors.New("[revocation.New] default ttl must be positive")
	}
	if len(l.hashKey) > blake2b.Size {
		return nil, errors.Errorf("[revocation.New] hash key longer than %d bytes", blake2b.Size)
	}
	return l, nil
}

// Revoke marks token as revoked for ttl. A non-positive ttl falls back to the
// default. Revoking an already revoked token refreshes its expiry.
func (l *Ledger) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = l.defaultTTL
	}
	key, err := l.key(token)
	if err != nil {
		return err
	}
	_, err = retry(ctx, l.retryBackoff, "revoke", func() (struct{}, error) {
		return struct{}{}, l.client.Set(ctx, key, "1", wholeSeconds(ttl)).Err()
	})
	if err != nil {
		return apperrors.Mark(apperrors.ErrLedgerUnavailable, err)
	}
	return nil
}

// IsRevoked reports whether token has a live ledger entry. A store failure is
// returned as an error and never as false.
func (l *Ledger) IsRevoked(ctx context.Context, token string) (bool, error) {
	key, err := l.key(token)
	if err != nil {
		return false, err
	}
	n, err := retry(ctx, l.retryBackoff, "exists", func() (int64, error) {
		return l.client.Exists(ctx, key).Result()
	})
	if err != nil {
		return false, apperrors.Mark(apperrors.ErrLedgerUnavailable, err)
	}
	return n > 0, nil
}

// Clear deletes every ledger entry and returns how many were removed. It is
// meant for tests and operator tooling.
func (l *Ledger) Clear(ctx context.Context) (int, error) {
	removed := 0
	var cursor uint64
	for {
		keys, next, err := l.client.Scan(ctx, cursor, KeyPrefix+"*", clearBatchSize).Result()
		if err != nil {
			return removed, apperrors.Mark(apperrors.ErrLedgerUnavailable, err)
		}
		if len(keys) > 0 {
			n, err := l.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, apperrors.Mark(apperrors.ErrLedgerUnavailable, err)
			}
			removed += int(n)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	log.Info().Int("removed", removed).Msg("revocation ledger cleared")
	return removed, nil
}

func (l *Ledger) key(token string) (string, error) {
	if len(l.hashKey) == 0 {
		return KeyPrefix + token, nil
	}
	h, err := blake2b.New256(l.hashKey)
	if err != nil {
		return "", errors.Wrap(err, "ledger key hash")
	}
	h.Write([]byte(token))
	return KeyPrefix + hex.EncodeToString(h.Sum(nil)), nil
}

// wholeSeconds rounds up so the entry never expires before the token.
func wholeSeconds(ttl time.Duration) time.Duration {
	return ((ttl + time.Second - 1) / time.Second) * time.Second
}

// retry runs op once more after a short exponential backoff if it fails.
func retry[T any](ctx context.Context, initial time.Duration, op string, fn func() (T, error)) (T, error) {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = initial
	expBackoff.MaxInterval = 4 * initial
	expBackoff.Reset()

	return backoff.Retry[T](ctx, fn,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(2),
		backoff.WithNotify(func(err error, d time.Duration) {
			log.Warn().Err(err).Str("op", op).Dur("backoff", d).Msg("revocation ledger call failed, retrying")
		}),
	)
}
