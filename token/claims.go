package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind distinguishes access tokens from refresh tokens. It travels inside the
// signed payload as the token_type claim.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims is implemented only by AccessClaims and RefreshClaims.
type Claims interface {
	jwt.Claims
	Kind() Kind
	Registered() jwt.RegisteredClaims
	stamp(issuedAt, expiresAt time.Time, id, issuer string) Claims
}

// RoleClaim is a role reference embedded in access tokens
type RoleClaim struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// UnitClaim is the organisational unit embedded in access tokens
type UnitClaim struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// AccessClaims carry the full profile of the subject. Subject holds the email.
type AccessClaims struct {
	UserID      int64       `json:"user_id"`
	Email       string      `json:"email"`
	IsActive    bool        `json:"is_active"`
	IsSuperuser bool        `json:"is_superuser"`
	Unit        *UnitClaim  `json:"unit"`
	Roles       []RoleClaim `json:"roles"`
	FirstName   string      `json:"first_name"`
	LastName    string      `json:"last_name,omitempty"`
	TokenType   Kind        `json:"token_type"`
	jwt.RegisteredClaims
}

var _ Claims = (*AccessClaims)(nil)

func (*AccessClaims) Kind() Kind { return KindAccess }

func (c *AccessClaims) Registered() jwt.RegisteredClaims { return c.RegisteredClaims }

// RoleNames returns the role names in token order
func (c *AccessClaims) RoleNames() []string {
	names := make([]string, 0, len(c.Roles))
	for _, r := range c.Roles {
		names = append(names, r.Name)
	}
	return names
}

func (c *AccessClaims) stamp(issuedAt, expiresAt time.Time, id, issuer string) Claims {
	cp := *c
	cp.Roles = append([]RoleClaim(nil), c.Roles...)
	if c.Unit != nil {
		unit := *c.Unit
		cp.Unit = &unit
	}
	cp.TokenType = KindAccess
	cp.RegisteredClaims = stampRegistered(c.RegisteredClaims, issuedAt, expiresAt, id, issuer)
	return &cp
}

// RefreshClaims identify the subject only.
type RefreshClaims struct {
	UserID    int64 `json:"user_id"`
	TokenType Kind  `json:"token_type"`
	jwt.RegisteredClaims
}

var _ Claims = (*RefreshClaims)(nil)

func (*RefreshClaims) Kind() Kind { return KindRefresh }

func (c *RefreshClaims) Registered() jwt.RegisteredClaims { return c.RegisteredClaims }

func (c *RefreshClaims) stamp(issuedAt, expiresAt time.Time, id, issuer string) Claims {
	cp := *c
	cp.TokenType = KindRefresh
	cp.RegisteredClaims = stampRegistered(c.RegisteredClaims, issuedAt, expiresAt, id, issuer)
	return &cp
}

func stampRegistered(rc jwt.RegisteredClaims, issuedAt, expiresAt time.Time, id, issuer string) jwt.RegisteredClaims {
	rc.IssuedAt = jwt.NewNumericDate(issuedAt)
	rc.ExpiresAt = jwt.NewNumericDate(expiresAt)
	if rc.ID == "" {
		rc.ID = id
	}
	if issuer != "" {
		rc.Issuer = issuer
	}
	return rc
}
