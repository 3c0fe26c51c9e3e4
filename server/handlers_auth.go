package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/sso-service/internal/errors"
	"github.com/jrsteele09/sso-service/oauth2"
	"github.com/jrsteele09/sso-service/server/authflowrepo"
	xoauth2 "golang.org/x/oauth2"
)

// TokenVerifyResponse is the body returned by the verify endpoint
type TokenVerifyResponse struct {
	IsValid bool               `json:"is_valid"`
	Payload TokenVerifyPayload `json:"payload"`
}

type TokenVerifyPayload struct {
	Subject   string `json:"sub"`
	ExpiresAt int64  `json:"exp"`
	IssuedAt  int64  `json:"iat"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// LoginHandler starts the Google authorization code flow. The state and PKCE
// verifier are cached until the callback and the state is bound to the
// browser with a cookie.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.provider == nil {
			writeJSONError(w, "Login is not configured", http.StatusServiceUnavailable)
			return
		}

		state := uuid.NewString()
		verifier := xoauth2.GenerateVerifier()
		timeout := s.config.GetLoginStateTimeout()

		err := s.authState.Upsert(r.Context(), state, &authflowrepo.AuthFlowState{
			CodeVerifier: verifier,
			CreatedAt:    time.Now().UTC(),
		}, timeout)
		if err != nil {
			writeError(w, r, err, http.StatusForbidden)
			return
		}

		s.setLoginStateCookie(w, r, state, int(timeout/time.Second))
		http.Redirect(w, r, s.provider.AuthCodeURL(state, verifier), http.StatusFound)
	}
}

// CallbackHandler completes the login started by LoginHandler and returns a
// token pair for the registered user.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.provider == nil {
			writeJSONError(w, "Login is not configured", http.StatusServiceUnavailable)
			return
		}

		query := r.URL.Query()
		if providerErr := query.Get("error"); providerErr != "" {
			logger(r).Info().Str("error", providerErr).Msg("identity provider returned an error")
			writeJSONError(w, "Login was not completed", http.StatusBadRequest)
			return
		}

		state, code := query.Get("state"), query.Get("code")
		if state == "" || code == "" {
			writeJSONError(w, "Missing state or code", http.StatusBadRequest)
			return
		}
		cookie, err := r.Cookie(loginStateCookieName)
		if err != nil || cookie.Value != state {
			logger(r).Warn().Msg("login state does not match the browser cookie")
			writeJSONError(w, "Invalid login state", http.StatusBadRequest)
			return
		}
		s.setLoginStateCookie(w, r, "", -1)

		flow, err := s.authState.Take(r.Context(), state)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				writeJSONError(w, "Invalid login state", http.StatusBadRequest)
				return
			}
			writeError(w, r, err, http.StatusForbidden)
			return
		}

		rawIDToken, err := s.provider.Exchange(r.Context(), code, flow.CodeVerifier)
		if err != nil {
			writeError(w, r, apperrors.Mark(apperrors.ErrInvalidIdentityAssertion, err), http.StatusForbidden)
			return
		}

		pair, err := s.sessions.Login(r.Context(), rawIDToken)
		if err != nil {
			writeError(w, r, err, http.StatusForbidden)
			return
		}
		writeJSON(w, oauth2.NewTokenResponse(pair.AccessToken, pair.RefreshToken, pair.ExpiresIn), http.StatusOK)
	}
}

// LogoutHandler revokes the presented access token for the rest of its lifetime.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, r, apperrors.ErrInvalidToken, http.StatusForbidden)
			return
		}
		if err := s.sessions.RevokeToken(r.Context(), token, false); err != nil {
			writeError(w, r, err, http.StatusForbidden)
			return
		}
		writeJSON(w, messageResponse{Message: "Successfully logged out"}, http.StatusOK)
	}
}

// VerifyHandler introspects the presented access token.
func (s *Server) VerifyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, r, apperrors.ErrInvalidToken, http.StatusForbidden)
			return
		}
		claims, err := s.sessions.VerifyToken(r.Context(), token)
		if err != nil {
			writeError(w, r, err, http.StatusForbidden)
			return
		}

		payload := TokenVerifyPayload{Subject: claims.Subject}
		if claims.ExpiresAt != nil {
			payload.ExpiresAt = claims.ExpiresAt.Unix()
		}
		if claims.IssuedAt != nil {
			payload.IssuedAt = claims.IssuedAt.Unix()
		}
		writeJSON(w, TokenVerifyResponse{IsValid: true, Payload: payload}, http.StatusOK)
	}
}

// RefreshHandler exchanges a refresh token for a new token pair.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refreshToken := refreshTokenParam(r)
		if refreshToken == "" {
			writeJSONError(w, "refresh_token is required", http.StatusBadRequest)
			return
		}
		pair, err := s.sessions.Refresh(r.Context(), refreshToken)
		if err != nil {
			writeError(w, r, err, http.StatusForbidden)
			return
		}
		writeJSON(w, oauth2.NewTokenResponse(pair.AccessToken, pair.RefreshToken, pair.ExpiresIn), http.StatusOK)
	}
}

// RevokeHandler revokes a refresh token.
func (s *Server) RevokeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refreshToken := refreshTokenParam(r)
		if refreshToken == "" {
			writeJSONError(w, "refresh_token is required", http.StatusBadRequest)
			return
		}
		if err := s.sessions.RevokeToken(r.Context(), refreshToken, true); err != nil {
			writeError(w, r, err, http.StatusForbidden)
			return
		}
		writeJSON(w, messageResponse{Message: "Token revoked successfully"}, http.StatusOK)
	}
}

// MeHandler returns the user named by the presented access token.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, r, apperrors.ErrInvalidToken, http.StatusNotFound)
			return
		}
		principal, err := s.sessions.CurrentUser(r.Context(), token)
		if err != nil {
			writeError(w, r, err, http.StatusNotFound)
			return
		}
		writeJSON(w, principal, http.StatusOK)
	}
}

// HealthHandler reports whether the key-value store answers.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.health != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := s.health.Ping(ctx); err != nil {
				logger(r).Err(err).Msg("health check failed")
				writeJSON(w, map[string]string{"status": "unavailable"}, http.StatusServiceUnavailable)
				return
			}
		}
		writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	}
}

// refreshTokenParam reads refresh_token from the query string or a form body
func refreshTokenParam(r *http.Request) string {
	if token := r.URL.Query().Get("refresh_token"); token != "" {
		return token
	}
	return r.PostFormValue("refresh_token")
}
