package identity

import (
	"context"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	apperrors "github.com/jrsteele09/sso-service/internal/errors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type Config struct {
	ClientID       string
	AllowedIssuers []string
	Now            func() time.Time
}

// Verifier checks Google ID tokens. It keeps no per-token state and is safe
// for concurrent use.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
	issuers  map[string]struct{}
}

type idTokenClaims struct {
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

// NewVerifier verifies signatures against keySet. Issuers are compared by
// exact string match against cfg.AllowedIssuers.
func NewVerifier(keySet oidc.KeySet, cfg Config) (*Verifier, error) {
	if keySet == nil {
		return nil, errors.New("[identity.NewVerifier] key set is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("[identity.NewVerifier] client id is required")
	}
	if len(cfg.AllowedIssuers) == 0 {
		return nil, errors.New("[identity.NewVerifier] at least one allowed issuer is required")
	}

	issuers := make(map[string]struct{}, len(cfg.AllowedIssuers))
	for _, iss := range cfg.AllowedIssuers {
		issuers[iss] = struct{}{}
	}

	return &Verifier{
		// The issuer is checked against the allow-list after verification.
		verifier: oidc.NewVerifier("", keySet, &oidc.Config{
			ClientID:        cfg.ClientID,
			SkipIssuerCheck: true,
			Now:             cfg.Now,
		}),
		issuers: issuers,
	}, nil
}

// NewGoogleVerifier discovers Google's signing keys and builds a Verifier on them.
func NewGoogleVerifier(ctx context.Context, cfg Config) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, GoogleIssuerURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init google oidc provider")
	}
	var discovery struct {
		JWKSURL string `json:"jwks_uri"`
	}
	if err := provider.Claims(&discovery); err != nil {
		return nil, errors.Wrap(err, "failed to read google discovery document")
	}
	if len(cfg.AllowedIssuers) == 0 {
		cfg.AllowedIssuers = DefaultGoogleIssuers
	}
	return NewVerifier(oidc.NewRemoteKeySet(ctx, discovery.JWKSURL), cfg)
}

// Verify returns the identity asserted by rawIDToken. Every failure wraps
// errors.ErrInvalidIdentityAssertion; the reason is only logged.
func (v *Verifier) Verify(ctx context.Context, rawIDToken string) (*VerifiedIdentity, error) {
	idToken, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		log.Debug().Err(err).Msg("id token rejected")
		return nil, apperrors.Mark(apperrors.ErrInvalidIdentityAssertion, err)
	}

	if _, ok := v.issuers[idToken.Issuer]; !ok {
		log.Debug().Str("issuer", idToken.Issuer).Msg("id token issuer not allowed")
		return nil, errors.Wrapf(apperrors.ErrInvalidIdentityAssertion, "issuer %q not allowed", idToken.Issuer)
	}

	var claims idTokenClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, apperrors.Mark(apperrors.ErrInvalidIdentityAssertion, err)
	}
	if claims.Email == "" || idToken.Subject == "" {
		return nil, errors.Wrap(apperrors.ErrInvalidIdentityAssertion, "id token missing email or sub")
	}
	if claims.EmailVerified != nil && !*claims.EmailVerified {
		return nil, errors.Wrap(apperrors.ErrInvalidIdentityAssertion, "email not verified by provider")
	}

	return &VerifiedIdentity{
		Email:             claims.Email,
		ProviderSubjectID: idToken.Subject,
		GivenName:         claims.GivenName,
		FamilyName:        claims.FamilyName,
	}, nil
}
