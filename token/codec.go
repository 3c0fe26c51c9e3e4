package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/sso-service/internal/errors"
	"github.com/pkg/errors"
)

const (
	defaultAccessTTL  = 30 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// Codec mints and validates the service's own session tokens. It holds no
// mutable state and is safe for concurrent use.
type Codec struct {
	signer     Signer
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	nowFunc    func() time.Time
}

type CodecOption func(*Codec)

func WithAccessTTL(ttl time.Duration) CodecOption {
	return func(c *Codec) {
		c.accessTTL = ttl
	}
}

func WithRefreshTTL(ttl time.Duration) CodecOption {
	return func(c *Codec) {
		c.refreshTTL = ttl
	}
}

// WithIssuer stamps iss on minted tokens and requires it on decode.
func WithIssuer(issuer string) CodecOption {
	return func(c *Codec) {
		c.issuer = issuer
	}
}

func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

func NewCodec(signer Signer, options ...CodecOption) (*Codec, error) {
	if signer == nil {
		return nil, errors.New("[NewCodec] signer is required")
	}
	c := &Codec{
		signer:     signer,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
		nowFunc:    time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.accessTTL <= 0 || c.refreshTTL <= 0 {
		return nil, errors.New("[NewCodec] token lifetimes must be positive")
	}
	return c, nil
}

func (c *Codec) AccessTTL() time.Duration {
	return c.accessTTL
}

func (c *Codec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

// Mint signs claims with an expiry of now+ttl. The caller's claims are not modified.
func (c *Codec) Mint(claims Claims, ttl time.Duration) (string, error) {
	if claims == nil {
		return "", errors.New("claims are required")
	}
	now := c.nowFunc()
	stamped := claims.stamp(now, now.Add(ttl), uuid.NewString(), c.issuer)
	signed, err := c.signer.Sign(stamped)
	if err != nil {
		return "", errors.Wrap(err, "Codec.Mint Sign")
	}
	return signed, nil
}

// MintAccess mints an access token with the short lifetime.
func (c *Codec) MintAccess(claims AccessClaims) (string, error) {
	return c.Mint(&claims, c.accessTTL)
}

// MintRefresh mints a refresh token with the long lifetime. The token always
// carries token_type=refresh.
func (c *Codec) MintRefresh(claims RefreshClaims) (string, error) {
	return c.Mint(&claims, c.refreshTTL)
}

// Decode verifies signature and expiry and returns the typed claims. Missing
// application claims are not an error here.
func (c *Codec) Decode(raw string) (Claims, error) {
	parsed := &AccessClaims{}
	if _, err := jwt.ParseWithClaims(raw, parsed, c.signer.GetVerificationKey, c.parserOptions()...); err != nil {
		return nil, apperrors.Mark(apperrors.ErrInvalidToken, err)
	}

	switch parsed.TokenType {
	case KindRefresh:
		return &RefreshClaims{
			UserID:           parsed.UserID,
			TokenType:        KindRefresh,
			RegisteredClaims: parsed.RegisteredClaims,
		}, nil
	case KindAccess, "":
		parsed.TokenType = KindAccess
		return parsed, nil
	default:
		return nil, apperrors.Mark(apperrors.ErrInvalidToken, errors.Errorf("unknown token_type %q", parsed.TokenType))
	}
}

// DecodeAccess decodes raw and rejects anything but an access token.
func (c *Codec) DecodeAccess(raw string) (*AccessClaims, error) {
	claims, err := c.Decode(raw)
	if err != nil {
		return nil, err
	}
	access, ok := claims.(*AccessClaims)
	if !ok {
		return nil, errors.Wrapf(apperrors.ErrWrongTokenKind, "expected access token, got %s", claims.Kind())
	}
	return access, nil
}

// DecodeRefresh decodes raw and rejects anything without the refresh marker.
func (c *Codec) DecodeRefresh(raw string) (*RefreshClaims, error) {
	claims, err := c.Decode(raw)
	if err != nil {
		return nil, err
	}
	refresh, ok := claims.(*RefreshClaims)
	if !ok {
		return nil, errors.Wrapf(apperrors.ErrWrongTokenKind, "expected refresh token, got %s", claims.Kind())
	}
	return refresh, nil
}

// Remaining returns how long the token behind claims stays valid, never negative.
func (c *Codec) Remaining(claims Claims) time.Duration {
	exp := claims.Registered().ExpiresAt
	if exp == nil {
		return 0
	}
	remaining := exp.Sub(c.nowFunc())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (c *Codec) parserOptions() []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{c.signer.GetSigningMethod().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.nowFunc),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}
	return opts
}
