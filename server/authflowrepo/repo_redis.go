package authflowrepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	apperrors "github.com/jrsteele09/sso-service/internal/errors"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "auth:state:"

var _ Repo = (*RedisRepo)(nil)

// RedisRepo keeps login state in Redis so any replica can complete a login
// started on another.
type RedisRepo struct {
	client redis.UniversalClient
}

func NewRedisRepo(client redis.UniversalClient) *RedisRepo {
	return &RedisRepo{client: client}
}

func (r *RedisRepo) Upsert(ctx context.Context, state string, authState *AuthFlowState, ttl time.Duration) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if authState == nil {
		return errors.New("authState cannot be nil")
	}
	data, err := json.Marshal(authState)
	if err != nil {
		return apperrors.Wrapf(err, "marshal login state")
	}
	if err := r.client.Set(ctx, redisKeyPrefix+state, data, ttl).Err(); err != nil {
		return apperrors.Wrapf(err, "store login state")
	}
	return nil
}

func (r *RedisRepo) Take(ctx context.Context, state string) (*AuthFlowState, error) {
	if state == "" {
		return nil, errors.New("state cannot be empty")
	}
	data, err := r.client.GetDel(ctx, redisKeyPrefix+state).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "login state")
	}
	if err != nil {
		return nil, apperrors.Wrapf(err, "load login state")
	}

	var authState AuthFlowState
	if err := json.Unmarshal(data, &authState); err != nil {
		return nil, apperrors.Wrapf(err, "unmarshal login state")
	}
	return &authState, nil
}
