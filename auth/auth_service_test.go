package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jrsteele09/sso-service/auth"
	"github.com/jrsteele09/sso-service/identity"
	apperrors "github.com/jrsteele09/sso-service/internal/errors"
	"github.com/jrsteele09/sso-service/revocation"
	"github.com/jrsteele09/sso-service/token"
	"github.com/jrsteele09/sso-service/users"
	fakeuserrepo "github.com/jrsteele09/sso-service/users/repofake"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const (
	secretStr      = "1234"
	aliceEmail     = "alice@example.com"
	aliceGoogleSub = "google-sub-alice"
	aliceIDToken   = "id-token-alice"
	accessTTL      = 30 * time.Minute
	refreshTTL     = 7 * 24 * time.Hour
)

var testNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

// stubVerifier maps raw ID tokens to identities
type stubVerifier map[string]*identity.VerifiedIdentity

func (v stubVerifier) Verify(_ context.Context, raw string) (*identity.VerifiedIdentity, error) {
	id, ok := v[raw]
	if !ok {
		return nil, apperrors.ErrInvalidIdentityAssertion
	}
	return id, nil
}

type testFixture struct {
	mr       *miniredis.Miniredis
	userRepo *fakeuserrepo.FakeUserRepo
	codec    *token.Codec
	ledger   *revocation.Ledger
	verifier stubVerifier
	service  *auth.SessionService
}

func setupTestFixture(t *testing.T, options ...auth.SessionServiceOption) *testFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	ledger, err := revocation.New(rdb, revocation.WithDefaultTTL(accessTTL), revocation.WithRetryBackoff(time.Millisecond))
	require.NoError(t, err)

	signer, err := token.NewSigner("HS256", secretStr, "")
	require.NoError(t, err)
	codec, err := token.NewCodec(signer,
		token.WithAccessTTL(accessTTL),
		token.WithRefreshTTL(refreshTTL),
		token.WithNowFunc(func() time.Time { return testNow }),
	)
	require.NoError(t, err)

	ur := fakeuserrepo.NewFakeUserRepo()
	verifier := stubVerifier{
		aliceIDToken:        {Email: aliceEmail, ProviderSubjectID: aliceGoogleSub, GivenName: "Alice"},
		"id-token-stranger": {Email: "stranger@example.com", ProviderSubjectID: "google-sub-stranger"},
	}

	options = append([]auth.SessionServiceOption{auth.WithLedger(ledger), auth.WithVerifier(verifier)}, options...)
	service, err := auth.NewSessionService(ur, codec, options...)
	require.NoError(t, err)

	return &testFixture{
		mr:       mr,
		userRepo: ur,
		codec:    codec,
		ledger:   ledger,
		verifier: verifier,
		service:  service,
	}
}

func (f *testFixture) createAlice(t *testing.T, mutate ...func(*users.Principal)) *users.Principal {
	t.Helper()
	alice := &users.Principal{
		Email:     aliceEmail,
		FirstName: "Alice",
		LastName:  "Liddell",
		IsActive:  true,
		Roles:     []users.Role{{ID: 1, Name: "viewer"}, {ID: 2, Name: "editor"}},
		Unit:      &users.Unit{ID: 3, Code: "FIN", Name: "Finance"},
	}
	for _, m := range mutate {
		m(alice)
	}
	return f.userRepo.Upsert(alice)
}

func TestNewSessionService_RequiresDependencies(t *testing.T) {
	signer, err := token.NewSigner("HS256", secretStr, "")
	require.NoError(t, err)
	codec, err := token.NewCodec(signer)
	require.NoError(t, err)

	_, err = auth.NewSessionService(nil, codec)
	require.Error(t, err)
	_, err = auth.NewSessionService(fakeuserrepo.NewFakeUserRepo(), nil)
	require.Error(t, err)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("registered user gets a token pair", func(t *testing.T) {
		f := setupTestFixture(t)
		alice := f.createAlice(t)

		pair, err := f.service.Login(ctx, aliceIDToken)
		require.NoError(t, err)
		require.Equal(t, accessTTL, pair.ExpiresIn)

		access, err := f.codec.DecodeAccess(pair.AccessToken)
		require.NoError(t, err)
		require.Equal(t, aliceEmail, access.Subject)
		require.Equal(t, alice.ID, access.UserID)
		require.Equal(t, []string{"viewer", "editor"}, access.RoleNames())
		require.Equal(t, &token.UnitClaim{ID: 3, Code: "FIN", Name: "Finance"}, access.Unit)
		require.True(t, access.IsActive)
		require.Equal(t, testNow.Add(accessTTL).Unix(), access.ExpiresAt.Unix())

		refresh, err := f.codec.DecodeRefresh(pair.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, token.KindRefresh, refresh.TokenType)
		require.Equal(t, aliceEmail, refresh.Subject)

		_, err = f.codec.DecodeAccess(pair.RefreshToken)
		require.ErrorIs(t, err, apperrors.ErrWrongTokenKind)

		stored, err := f.userRepo.FindByEmail(ctx, aliceEmail)
		require.NoError(t, err)
		require.Equal(t, aliceGoogleSub, stored.ProviderID)
	})

	t.Run("existing provider id is kept", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createAlice(t, func(p *users.Principal) { p.ProviderID = "google-sub-original" })

		_, err := f.service.Login(ctx, aliceIDToken)
		require.NoError(t, err)

		stored, err := f.userRepo.FindByEmail(ctx, aliceEmail)
		require.NoError(t, err)
		require.Equal(t, "google-sub-original", stored.ProviderID)
	})

	t.Run("unregistered email", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createAlice(t)

		_, err := f.service.Login(ctx, "id-token-stranger")
		require.ErrorIs(t, err, apperrors.ErrUnknownSubject)
	})

	t.Run("inactive user", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createAlice(t, func(p *users.Principal) { p.IsActive = false })

		_, err := f.service.Login(ctx, aliceIDToken)
		require.ErrorIs(t, err, apperrors.ErrInactiveSubject)
	})

	t.Run("invalid identity assertion", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createAlice(t)

		_, err := f.service.Login(ctx, "forged")
		require.ErrorIs(t, err, apperrors.ErrInvalidIdentityAssertion)
	})

	t.Run("no verifier configured", func(t *testing.T) {
		f := setupTestFixture(t, auth.WithVerifier(nil))
		_, err := f.service.Login(ctx, aliceIDToken)
		require.Error(t, err)
	})
}

func TestIssueTokenPair_UsesCurrentRecord(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	stale := f.createAlice(t)

	f.createAlice(t, func(p *users.Principal) {
		p.Roles = []users.Role{{ID: 9, Name: "admin"}}
		p.Unit = nil
	})

	pair, err := f.service.IssueTokenPair(ctx, stale)
	require.NoError(t, err)

	access, err := f.codec.DecodeAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, []string{"admin"}, access.RoleNames())
	require.Nil(t, access.Unit)

	f.userRepo.Delete(aliceEmail)
	_, err = f.service.IssueTokenPair(ctx, stale)
	require.ErrorIs(t, err, apperrors.ErrUnknownSubject)
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()

	t.Run("issues a new pair", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createAlice(t)
		pair, err := f.service.Login(ctx, aliceIDToken)
		require.NoError(t, err)

		next, err := f.service.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		access, err := f.codec.DecodeAccess(next.AccessToken)
		require.NoError(t, err)
		require.Equal(t, aliceEmail, access.Subject)

		// The consumed refresh token stays usable by default.
		_, err = f.service.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
	})

	t.Run("access token is rejected", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createAlice(t)
		pair, err := f.service.Login(ctx, aliceIDToken)
		require.NoError(t, err)

		_, err = f.service.Refresh(ctx, pair.AccessToken)
		require.ErrorIs(t, err, apperrors.ErrWrongTokenKind)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.Refresh(ctx, "garbage")
		require.ErrorIs(t, err, apperrors.ErrInvalidToken)
	})

	t.Run("revoked refresh token", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createAlice(t)
		pair, err := f.service.Login(ctx, aliceIDToken)
		require.NoError(t, err)

		require.NoError(t, f.service.RevokeToken(ctx, pair.RefreshToken, true))
		_, err = f.service.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, apperrors.ErrTokenRevoked)
	})

	t.Run("user removed", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createAlice(t)
		pair, err := f.service.Login(ctx, aliceIDToken)
		require.NoError(t, err)

		f.userRepo.Delete(aliceEmail)
		_, err = f.service.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, apperrors.ErrUnknownSubject)
	})

	t.Run("user deactivated", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createAlice(t)
		pair, err := f.service.Login(ctx, aliceIDToken)
		require.NoError(t, err)

		f.createAlice(t, func(p *users.Principal) { p.IsActive = false })
		_, err = f.service.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, apperrors.ErrInactiveSubject)
	})

	t.Run("revoke on rotate", func(t *testing.T) {
		f := setupTestFixture(t, auth.WithRevokeOnRotate(true))
		f.createAlice(t)
		pair, err := f.service.Login(ctx, aliceIDToken)
		require.NoError(t, err)

		_, err = f.service.Refresh(ctx, pair.RefreshToken)
		require.NoError(t, err)
		_, err = f.service.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, apperrors.ErrTokenRevoked)
	})

	t.Run("ledger unavailable", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createAlice(t)
		pair, err := f.service.Login(ctx, aliceIDToken)
		require.NoError(t, err)

		f.mr.Close()
		_, err = f.service.Refresh(ctx, pair.RefreshToken)
		require.ErrorIs(t, err, apperrors.ErrLedgerUnavailable)
	})
}

func TestRevokeToken(t *testing.T) {
	ctx := context.Background()

	t.Run("ttl follows remaining lifetime", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createAlice(t)
		pair, err := f.service.Login(ctx, aliceIDToken)
		require.NoError(t, err)

		require.NoError(t, f.service.RevokeToken(ctx, pair.AccessToken, false))
		require.NoError(t, f.service.RevokeToken(ctx, pair.RefreshToken, true))

		require.Equal(t, accessTTL, f.mr.TTL(revocation.KeyPrefix+pair.AccessToken))
		require.Equal(t, refreshTTL, f.mr.TTL(revocation.KeyPrefix+pair.RefreshToken))
	})

	t.Run("undecodable token is not recorded", func(t *testing.T) {
		f := setupTestFixture(t)

		require.NoError(t, f.service.RevokeToken(ctx, "opaque-access", false))
		require.NoError(t, f.service.RevokeToken(ctx, "opaque-refresh", true))

		require.False(t, f.mr.Exists(revocation.KeyPrefix+"opaque-access"))
		require.False(t, f.mr.Exists(revocation.KeyPrefix+"opaque-refresh"))
		require.Empty(t, f.mr.Keys())
	})

	t.Run("token signed with another key is not recorded", func(t *testing.T) {
		f := setupTestFixture(t)
		signer, err := token.NewSigner("HS256", "some-other-secret", "")
		require.NoError(t, err)
		foreign, err := token.NewCodec(signer)
		require.NoError(t, err)
		raw, err := foreign.MintAccess(token.AccessClaims{Email: aliceEmail})
		require.NoError(t, err)

		require.NoError(t, f.service.RevokeToken(ctx, raw, false))
		require.Empty(t, f.mr.Keys())
	})

	t.Run("idempotent", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createAlice(t)
		pair, err := f.service.Login(ctx, aliceIDToken)
		require.NoError(t, err)

		require.NoError(t, f.service.RevokeToken(ctx, pair.AccessToken, false))
		require.NoError(t, f.service.RevokeToken(ctx, pair.AccessToken, false))

		revoked, err := f.service.IsBlacklisted(ctx, pair.AccessToken)
		require.NoError(t, err)
		require.True(t, revoked)

		revoked, err = f.service.IsBlacklisted(ctx, pair.RefreshToken)
		require.NoError(t, err)
		require.False(t, revoked)
	})

	t.Run("without a ledger", func(t *testing.T) {
		f := setupTestFixture(t, auth.WithLedger(nil))
		f.createAlice(t)
		pair, err := f.service.Login(ctx, aliceIDToken)
		require.NoError(t, err)

		require.NoError(t, f.service.RevokeToken(ctx, pair.AccessToken, false))
		revoked, err := f.service.IsBlacklisted(ctx, pair.AccessToken)
		require.NoError(t, err)
		require.False(t, revoked)
		require.Empty(t, f.mr.Keys())
	})
}

func TestVerifyTokenAndCurrentUser(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	alice := f.createAlice(t)

	pair, err := f.service.Login(ctx, aliceIDToken)
	require.NoError(t, err)

	claims, err := f.service.VerifyToken(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, aliceEmail, claims.Subject)

	me, err := f.service.CurrentUser(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, alice.ID, me.ID)
	require.Equal(t, aliceGoogleSub, me.ProviderID)

	_, err = f.service.VerifyToken(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, apperrors.ErrWrongTokenKind)

	f.userRepo.Delete(aliceEmail)
	_, err = f.service.CurrentUser(ctx, pair.AccessToken)
	require.ErrorIs(t, err, apperrors.ErrUnknownSubject)

	require.NoError(t, f.service.RevokeToken(ctx, pair.AccessToken, false))
	_, err = f.service.VerifyToken(ctx, pair.AccessToken)
	require.ErrorIs(t, err, apperrors.ErrTokenRevoked)
}
