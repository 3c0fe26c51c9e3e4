package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	SecurityConfig
	RedisConfig
	DatabaseConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetBaseURL() string
	GetLogLevel() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Security
	Redis
	Database
}

// GetGoogleRedirectURI defaults to the callback route under the base URL.
func (c mainConfig) GetGoogleRedirectURI() string {
	if uri := c.OAuth.GetGoogleRedirectURI(); uri != "" {
		return uri
	}
	return c.GetBaseURL() + "/auth/callback"
}

// New reads the configuration from the process environment.
func New() (Config, error) {
	return parse(env.Options{})
}

// FromMap reads the configuration from the given variables only.
func FromMap(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var c mainConfig
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return nil, errors.Wrap(err, "config: parse environment")
	}
	if err := c.Security.validate(); err != nil {
		return nil, err
	}
	if err := c.OAuth.validate(); err != nil {
		return nil, err
	}
	return c, nil
}
