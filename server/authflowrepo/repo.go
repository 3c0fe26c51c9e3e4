package authflowrepo

import (
	"context"
	"time"
)

// AuthFlowState is what the login redirect needs to remember until the
// provider calls back.
type AuthFlowState struct {
	CodeVerifier string    `json:"code_verifier"`
	CreatedAt    time.Time `json:"created_at"`
}

// Repo stores login state keyed by the OAuth state parameter. Take removes the
// entry it returns so a state value can be used once only. Missing or expired
// entries return an error wrapping errors.ErrNotFound.
type Repo interface {
	Upsert(ctx context.Context, state string, authState *AuthFlowState, ttl time.Duration) error
	Take(ctx context.Context, state string) (*AuthFlowState, error)
}
