package config

import (
	"time"

	"github.com/pkg/errors"
)

type OAuthConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetGoogleRedirectURI() string
	GetAllowedIssuers() []string
	GetLoginStateTimeout() time.Duration
	GetDefaultAccessTokenExpiry() time.Duration
	GetDefaultRefreshTokenExpiry() time.Duration
}

type OAuth struct {
	GoogleClientID           string   `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret       string   `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI        string   `env:"GOOGLE_REDIRECT_URI"`
	AllowedIssuers           []string `env:"GOOGLE_ALLOWED_ISSUERS" envSeparator:"," envDefault:"accounts.google.com,https://accounts.google.com"`
	AccessTokenExpireMinutes int      `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"30"`
	RefreshTokenExpireDays   int      `env:"REFRESH_TOKEN_EXPIRE_DAYS" envDefault:"7"`
}

var _ OAuthConfig = OAuth{}

func (o OAuth) GetGoogleClientID() string {
	return o.GoogleClientID
}

func (o OAuth) GetGoogleClientSecret() string {
	return o.GoogleClientSecret
}

func (o OAuth) GetGoogleRedirectURI() string {
	return o.GoogleRedirectURI
}

func (o OAuth) GetAllowedIssuers() []string {
	return o.AllowedIssuers
}

func (OAuth) GetLoginStateTimeout() time.Duration {
	return 10 * time.Minute
}

func (o OAuth) GetDefaultAccessTokenExpiry() time.Duration {
	return time.Duration(o.AccessTokenExpireMinutes) * time.Minute
}

func (o OAuth) GetDefaultRefreshTokenExpiry() time.Duration {
	return time.Duration(o.RefreshTokenExpireDays) * 24 * time.Hour
}

func (o OAuth) validate() error {
	if o.AccessTokenExpireMinutes <= 0 {
		return errors.New("config: ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if o.RefreshTokenExpireDays <= 0 {
		return errors.New("config: REFRESH_TOKEN_EXPIRE_DAYS must be positive")
	}
	if len(o.AllowedIssuers) == 0 {
		return errors.New("config: GOOGLE_ALLOWED_ISSUERS must list at least one issuer")
	}
	return nil
}
