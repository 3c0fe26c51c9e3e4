package oauth2

import "time"

// TokenTypeBearer is the only token type this service issues.
const TokenTypeBearer = "bearer"

// TokenResponse represents the token pair returned after a login or refresh.
// The field names follow the OAuth2 token endpoint response of RFC 6749.
type TokenResponse struct {
	// AccessToken is the JWT used to access protected resources.
	// Usage: Include in Authorization header: "Bearer <access_token>"
	// Lifespan: Short-lived (ACCESS_TOKEN_EXPIRE_MINUTES)
	AccessToken string `json:"access_token"`

	// RefreshToken is the JWT exchanged at /auth/refresh for a new pair.
	// Lifespan: Long-lived (REFRESH_TOKEN_EXPIRE_DAYS)
	RefreshToken string `json:"refresh_token"`

	// TokenType is always "bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the lifetime in seconds of the access token.
	// Note: This is a hint - actual expiration is in the JWT's "exp" claim
	ExpiresIn int `json:"expires_in"`
}

// NewTokenResponse builds the wire form of a token pair.
func NewTokenResponse(accessToken, refreshToken string, expiresIn time.Duration) TokenResponse {
	return TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    int(expiresIn / time.Second),
	}
}
