package config

import (
	"strings"

	"github.com/pkg/errors"
)

type SecurityConfig interface {
	GetJWTAlgorithm() string
	GetJWTSecretKey() string
	GetJWTPrivateKeyPEM() string
	GetJWTIssuer() string
	GetLedgerHashKey() string
	GetRevokeRefreshOnRotate() bool
}

type Security struct {
	JWTAlgorithm          string `env:"JWT_ALGORITHM" envDefault:"HS256"`
	JWTSecretKey          string `env:"JWT_SECRET_KEY"`
	JWTPrivateKeyPEM      string `env:"JWT_PRIVATE_KEY_PEM"`
	JWTIssuer             string `env:"JWT_ISSUER"`
	LedgerHashKey         string `env:"LEDGER_HASH_KEY"`
	RevokeRefreshOnRotate bool   `env:"REVOKE_REFRESH_ON_ROTATE" envDefault:"false"`
}

var _ SecurityConfig = Security{}

func (s Security) GetJWTAlgorithm() string {
	return strings.ToUpper(s.JWTAlgorithm)
}

func (s Security) GetJWTSecretKey() string {
	return s.JWTSecretKey
}

func (s Security) GetJWTPrivateKeyPEM() string {
	return s.JWTPrivateKeyPEM
}

func (s Security) GetJWTIssuer() string {
	return s.JWTIssuer
}

func (s Security) GetLedgerHashKey() string {
	return s.LedgerHashKey
}

func (s Security) GetRevokeRefreshOnRotate() bool {
	return s.RevokeRefreshOnRotate
}

func (s Security) validate() error {
	switch s.GetJWTAlgorithm() {
	case "HS256", "HS384", "HS512":
		if s.JWTSecretKey == "" {
			return errors.New("config: JWT_SECRET_KEY is required for HMAC signing")
		}
	case "RS256", "RS384", "RS512", "ES256", "ES384", "ES512":
		if s.JWTPrivateKeyPEM == "" {
			return errors.New("config: JWT_PRIVATE_KEY_PEM is required for asymmetric signing")
		}
	default:
		return errors.Errorf("config: unsupported JWT_ALGORITHM %q", s.JWTAlgorithm)
	}
	return nil
}
