package server

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/jrsteele09/sso-service/internal/errors"
)

const contentTypeJSON = "application/json; charset=utf-8"

// statusFor maps the error taxonomy onto HTTP statuses. unknownSubject is the
// status used for errors.ErrUnknownSubject, which differs by endpoint.
func statusFor(err error, unknownSubject int) (int, string) {
	switch {
	case apperrors.Is(err, apperrors.ErrLedgerUnavailable):
		return http.StatusInternalServerError, "Internal server error"
	case apperrors.Is(err, apperrors.ErrTokenRevoked):
		return http.StatusUnauthorized, "Token has been revoked"
	case apperrors.Is(err, apperrors.ErrInvalidIdentityAssertion):
		return http.StatusUnauthorized, "Invalid identity token"
	case apperrors.Is(err, apperrors.ErrInactiveSubject):
		return http.StatusUnauthorized, "Inactive user"
	case apperrors.Is(err, apperrors.ErrWrongTokenKind), apperrors.Is(err, apperrors.ErrInvalidToken):
		return http.StatusUnauthorized, "Could not validate credentials"
	case apperrors.Is(err, apperrors.ErrUnknownSubject):
		if unknownSubject == http.StatusNotFound {
			return unknownSubject, "User not found"
		}
		return unknownSubject, "User not registered"
	case apperrors.Is(err, apperrors.ErrInvalidRequest):
		return http.StatusBadRequest, "Invalid request"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// writeError logs err and writes the generic body for its class.
func writeError(w http.ResponseWriter, r *http.Request, err error, unknownSubject int) {
	status, detail := statusFor(err, unknownSubject)
	event := logger(r).Debug()
	if status >= http.StatusInternalServerError {
		event = logger(r).Error()
	}
	event.Err(err).Int("status", status).Msg("request failed")

	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	writeJSONError(w, detail, status)
}

func writeJSONError(w http.ResponseWriter, detail string, statusCode int) {
	writeJSON(w, map[string]string{"detail": detail}, statusCode)
}

func writeJSON(w http.ResponseWriter, body any, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
