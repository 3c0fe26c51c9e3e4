package bunrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/sso-service/internal/errors"
	"github.com/jrsteele09/sso-service/users"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

var _ users.Store = (*Store)(nil)

// Store implements users.Store on top of the admin backend's tables.
type Store struct {
	db *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*users.Principal, error) {
	user := new(userModel)
	err := s.db.NewSelect().
		Model(user).
		Relation("Unit").
		Where("u.email = ?", email).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.Wrapf(apperrors.ErrNotFound, "user %s", email)
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return s.withRoles(ctx, user)
}

// LinkProviderID sets the provider id only while it is unset, so the first
// link wins. The stored row is returned either way.
func (s *Store) LinkProviderID(ctx context.Context, userID int64, providerID string) (*users.Principal, error) {
	_, err := s.db.NewUpdate().
		Model((*userModel)(nil)).
		Set("google_id = ?", providerID).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", userID).
		Where("google_id IS NULL").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("link provider id: %w", err)
	}

	user := new(userModel)
	if err := s.db.NewSelect().Model(user).Relation("Unit").Where("u.id = ?", userID).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.Wrapf(apperrors.ErrNotFound, "user id %d", userID)
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return s.withRoles(ctx, user)
}

func (s *Store) withRoles(ctx context.Context, user *userModel) (*users.Principal, error) {
	var roles []roleModel
	err := s.db.NewSelect().
		Model(&roles).
		Join("JOIN user_roles AS ur ON ur.role_id = r.id").
		Where("ur.user_id = ?", user.ID).
		Order("r.id").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get roles for user %d: %w", user.ID, err)
	}
	return user.toPrincipal(roles), nil
}
