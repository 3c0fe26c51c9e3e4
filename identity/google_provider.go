package identity

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/sso-service/internal/config"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// GoogleProvider runs the authorization code flow with PKCE and hands back
// the raw ID token for the Verifier to check.
type GoogleProvider struct {
	oauthConfig *oauth2.Config
}

// NewGoogleProvider discovers Google's endpoints and configures the client.
func NewGoogleProvider(ctx context.Context, cfg config.OAuthConfig) (*GoogleProvider, error) {
	provider, err := oidc.NewProvider(ctx, GoogleIssuerURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to init google oidc provider")
	}
	return NewProvider(provider.Endpoint(), cfg.GetGoogleClientID(), cfg.GetGoogleClientSecret(), cfg.GetGoogleRedirectURI())
}

// NewProvider configures the flow against an explicit endpoint.
func NewProvider(endpoint oauth2.Endpoint, clientID, clientSecret, redirectURL string) (*GoogleProvider, error) {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("google oauth config missing required fields")
	}
	return &GoogleProvider{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
		},
	}, nil
}

// AuthCodeURL builds the consent URL. verifier is the PKCE code verifier that
// must be passed back to Exchange.
func (p *GoogleProvider) AuthCodeURL(state, verifier string) string {
	return p.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
}

// Exchange trades an authorization code for the provider's raw ID token.
func (p *GoogleProvider) Exchange(ctx context.Context, code, verifier string) (string, error) {
	tok, err := p.oauthConfig.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return "", errors.Wrap(err, "google token exchange failed")
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return "", errors.New("google did not return id_token")
	}
	return rawIDToken, nil
}
