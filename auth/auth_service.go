package auth

import (
	"context"
	"time"

	"github.com/jrsteele09/sso-service/identity"
	apperrors "github.com/jrsteele09/sso-service/internal/errors"
	"github.com/jrsteele09/sso-service/token"
	"github.com/jrsteele09/sso-service/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration // Lifetime of the access token
}

// IdentityVerifier checks an identity provider's ID token.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (*identity.VerifiedIdentity, error)
}

// Ledger records revoked tokens.
type Ledger interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// SessionService turns verified identities into token pairs and manages
// their lifecycle. It holds only immutable configuration and handles.
type SessionService struct {
	users          users.Store
	codec          *token.Codec
	ledger         Ledger
	verifier       IdentityVerifier
	revokeOnRotate bool
}

// SessionServiceOption defines a function type to modify the SessionService instance.
type SessionServiceOption func(*SessionService)

// WithLedger enables revocation. Without a ledger nothing is ever revoked.
func WithLedger(ledger Ledger) SessionServiceOption {
	return func(s *SessionService) {
		s.ledger = ledger
	}
}

// WithVerifier sets the verifier used by Login.
func WithVerifier(verifier IdentityVerifier) SessionServiceOption {
	return func(s *SessionService) {
		s.verifier = verifier
	}
}

// WithRevokeOnRotate makes Refresh revoke the refresh token it consumed.
func WithRevokeOnRotate(revoke bool) SessionServiceOption {
	return func(s *SessionService) {
		s.revokeOnRotate = revoke
	}
}

func NewSessionService(store users.Store, codec *token.Codec, options ...SessionServiceOption) (*SessionService, error) {
	if store == nil {
		return nil, errors.New("[NewSessionService] user store is required")
	}
	if codec == nil {
		return nil, errors.New("[NewSessionService] token codec is required")
	}

	s := &SessionService{
		users: store,
		codec: codec,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Login verifies a raw ID token, resolves the principal it names and issues a
// token pair for it.
func (s *SessionService) Login(ctx context.Context, rawIDToken string) (*TokenPair, error) {
	if s.verifier == nil {
		return nil, errors.New("[Login] no identity verifier configured")
	}
	id, err := s.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, err
	}
	principal, err := s.ResolveOrRejectIdentity(ctx, id)
	if err != nil {
		return nil, err
	}
	pair, err := s.IssueTokenPair(ctx, principal)
	if err != nil {
		return nil, err
	}
	log.Info().Int64("user_id", principal.ID).Str("name", principal.FullName()).Msg("user logged in")
	return pair, nil
}

// ResolveOrRejectIdentity maps a verified identity to a registered principal.
// Unregistered emails are rejected. A missing provider id is back-filled.
func (s *SessionService) ResolveOrRejectIdentity(ctx context.Context, id *identity.VerifiedIdentity) (*users.Principal, error) {
	if id == nil {
		return nil, apperrors.ErrInvalidIdentityAssertion
	}
	principal, err := s.findByEmail(ctx, id.Email)
	if err != nil {
		return nil, err
	}

	if principal.ProviderID == "" && id.ProviderSubjectID != "" {
		linked, err := s.users.LinkProviderID(ctx, principal.ID, id.ProviderSubjectID)
		if err != nil {
			return nil, errors.Wrap(err, "[ResolveOrRejectIdentity] LinkProviderID")
		}
		log.Info().Int64("user_id", principal.ID).Msg("linked google account to user")
		principal = linked
	}
	return principal, nil
}

// IssueTokenPair mints an access and a refresh token for principal. The
// principal is re-read from the store so the claims reflect current roles.
func (s *SessionService) IssueTokenPair(ctx context.Context, principal *users.Principal) (*TokenPair, error) {
	if principal == nil {
		return nil, apperrors.ErrUnknownSubject
	}
	current, err := s.findByEmail(ctx, principal.Email)
	if err != nil {
		return nil, err
	}
	if !current.IsActive {
		return nil, errors.Wrapf(apperrors.ErrInactiveSubject, "user %d", current.ID)
	}

	accessToken, err := s.codec.MintAccess(accessClaimsFor(current))
	if err != nil {
		return nil, errors.Wrap(err, "[IssueTokenPair] MintAccess")
	}
	refreshToken, err := s.codec.MintRefresh(token.RefreshClaims{
		UserID:           current.ID,
		RegisteredClaims: subject(current.Email),
	})
	if err != nil {
		return nil, errors.Wrap(err, "[IssueTokenPair] MintRefresh")
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    s.codec.AccessTTL(),
	}, nil
}

// Refresh exchanges a refresh token for a new pair. The ledger is consulted
// before the token is decoded.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	revoked, err := s.IsBlacklisted(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperrors.ErrTokenRevoked
	}

	claims, err := s.codec.DecodeRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	principal, err := s.findByEmail(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}

	pair, err := s.IssueTokenPair(ctx, principal)
	if err != nil {
		return nil, err
	}

	if s.revokeOnRotate {
		if err := s.RevokeToken(ctx, refreshToken, true); err != nil {
			return nil, errors.Wrap(err, "[Refresh] revoke rotated refresh token")
		}
	}
	return pair, nil
}

// RevokeToken records raw in the ledger until it would have expired. Tokens
// that do not decode are already rejected everywhere and are not recorded.
func (s *SessionService) RevokeToken(ctx context.Context, raw string, isRefresh bool) error {
	if s.ledger == nil {
		log.Warn().Msg("token revocation requested but no ledger is configured")
		return nil
	}

	kind := token.KindAccess
	if isRefresh {
		kind = token.KindRefresh
	}
	claims, err := s.codec.Decode(raw)
	if err != nil {
		log.Debug().Err(err).Str("kind", string(kind)).Msg("skipping revocation of undecodable token")
		return nil
	}
	remaining := s.codec.Remaining(claims)
	if remaining <= 0 {
		log.Debug().Str("kind", string(kind)).Msg("skipping revocation of expired token")
		return nil
	}
	return s.ledger.Revoke(ctx, raw, remaining)
}

// IsBlacklisted reports whether raw has been revoked. It is always false when
// no ledger is configured.
func (s *SessionService) IsBlacklisted(ctx context.Context, raw string) (bool, error) {
	if s.ledger == nil {
		return false, nil
	}
	return s.ledger.IsRevoked(ctx, raw)
}

// VerifyToken checks that raw is a live, unrevoked access token.
func (s *SessionService) VerifyToken(ctx context.Context, raw string) (*token.AccessClaims, error) {
	revoked, err := s.IsBlacklisted(ctx, raw)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperrors.ErrTokenRevoked
	}
	return s.codec.DecodeAccess(raw)
}

// CurrentUser returns the principal named by a valid access token.
func (s *SessionService) CurrentUser(ctx context.Context, raw string) (*users.Principal, error) {
	claims, err := s.VerifyToken(ctx, raw)
	if err != nil {
		return nil, err
	}
	return s.findByEmail(ctx, claims.Subject)
}

func (s *SessionService) findByEmail(ctx context.Context, email string) (*users.Principal, error) {
	principal, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Mark(apperrors.ErrUnknownSubject, err)
		}
		return nil, errors.Wrap(err, "user store FindByEmail")
	}
	if principal == nil {
		return nil, errors.Wrapf(apperrors.ErrUnknownSubject, "user %s", email)
	}
	return principal, nil
}
