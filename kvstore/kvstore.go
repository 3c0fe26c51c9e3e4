// Package kvstore owns the process-wide Redis connection. It is created once at
// startup and handed to every component that needs it.
package kvstore

import (
	"context"

	"github.com/jrsteele09/sso-service/internal/config"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

type Client struct {
	rdb redis.UniversalClient
}

// New connects to the store described by cfg and pings it. Construction fails
// when the store is unreachable.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	opts, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, errors.Wrap(err, "kvstore: parse redis url")
	}
	if d := cfg.GetRedisDialTimeout(); d > 0 {
		opts.DialTimeout = d
	}
	if d := cfg.GetRedisReadTimeout(); d > 0 {
		opts.ReadTimeout = d
	}
	if d := cfg.GetRedisWriteTimeout(); d > 0 {
		opts.WriteTimeout = d
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "kvstore: connect to %s", opts.Addr)
	}
	log.Info().Str("addr", opts.Addr).Int("db", opts.DB).Msg("connected to redis")

	return &Client{rdb: rdb}, nil
}

// NewWithClient wraps an existing client, typically one pointed at miniredis.
func NewWithClient(rdb redis.UniversalClient) *Client {
	return &Client{rdb: rdb}
}

func (c *Client) Redis() redis.UniversalClient {
	return c.rdb
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
