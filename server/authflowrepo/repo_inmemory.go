package authflowrepo

import (
	"context"
	"errors"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/sso-service/internal/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

type inMemoryEntry struct {
	state     AuthFlowState
	expiresAt time.Time
}

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu      sync.Mutex
	states  map[string]inMemoryEntry
	nowFunc func() time.Time
}

// NewInMemoryRepo creates a new in-memory auth flow state repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		states:  make(map[string]inMemoryEntry),
		nowFunc: time.Now,
	}
}

// WithNowFunc replaces the clock used for expiry
func (r *InMemoryRepo) WithNowFunc(now func() time.Time) *InMemoryRepo {
	r.nowFunc = now
	return r
}

func (r *InMemoryRepo) Upsert(_ context.Context, state string, authState *AuthFlowState, ttl time.Duration) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if authState == nil {
		return errors.New("authState cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.states[state] = inMemoryEntry{state: *authState, expiresAt: r.nowFunc().Add(ttl)}
	return nil
}

func (r *InMemoryRepo) Take(_ context.Context, state string) (*AuthFlowState, error) {
	if state == "" {
		return nil, errors.New("state cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, exists := r.states[state]
	if !exists {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "login state")
	}
	delete(r.states, state)
	if !r.nowFunc().Before(entry.expiresAt) {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "login state expired")
	}

	authState := entry.state
	return &authState, nil
}
