package fakeuserrepo_test

import (
	"context"
	"testing"

	apperrors "github.com/jrsteele09/sso-service/internal/errors"
	"github.com/jrsteele09/sso-service/users"
	fakeuserrepo "github.com/jrsteele09/sso-service/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestFakeUserRepo(t *testing.T) {
	ctx := context.Background()
	repo := fakeuserrepo.NewFakeUserRepo()

	stored := repo.Upsert(&users.Principal{
		Email:    "alice@example.com",
		IsActive: true,
		Roles:    []users.Role{{ID: 1, Name: "viewer"}},
	})
	require.Equal(t, int64(1), stored.ID)

	t.Run("find returns a copy", func(t *testing.T) {
		p, err := repo.FindByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		p.Roles[0].Name = "mutated"

		again, err := repo.FindByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, "viewer", again.Roles[0].Name)
	})

	t.Run("missing email", func(t *testing.T) {
		_, err := repo.FindByEmail(ctx, "nobody@example.com")
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("link provider id", func(t *testing.T) {
		p, err := repo.LinkProviderID(ctx, stored.ID, "google-123")
		require.NoError(t, err)
		require.Equal(t, "google-123", p.ProviderID)

		p, err = repo.LinkProviderID(ctx, stored.ID, "google-456")
		require.NoError(t, err)
		require.Equal(t, "google-123", p.ProviderID)

		_, err = repo.LinkProviderID(ctx, 99, "x")
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("upsert by email keeps id", func(t *testing.T) {
		updated := repo.Upsert(&users.Principal{Email: "alice@example.com", IsActive: false})
		require.Equal(t, stored.ID, updated.ID)
	})

	t.Run("delete", func(t *testing.T) {
		repo.Delete("alice@example.com")
		_, err := repo.FindByEmail(ctx, "alice@example.com")
		require.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}
