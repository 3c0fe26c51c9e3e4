package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy for the session service. Callers classify failures with Is;
// the specific reason a check failed is logged, never returned to clients.
var (
	// Identity errors
	ErrInvalidIdentityAssertion = errors.New("invalid identity assertion")
	ErrUnknownSubject           = errors.New("unknown subject")
	ErrInactiveSubject          = errors.New("inactive subject")

	// Token errors
	ErrInvalidToken   = errors.New("invalid token")
	ErrWrongTokenKind = errors.New("wrong token kind")
	ErrTokenRevoked   = errors.New("token revoked")

	// Infrastructure errors
	ErrLedgerUnavailable = errors.New("revocation ledger unavailable")

	// General errors
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Mark joins a sentinel to an underlying cause so that both are visible to Is.
func Mark(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
