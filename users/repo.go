package users

import "context"

// Store is the narrow view of the external user store this service needs.
// FindByEmail returns an error wrapping errors.ErrNotFound when no principal
// has the email. LinkProviderID only sets a provider id that is still unset
// and returns the stored principal.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*Principal, error)
	LinkProviderID(ctx context.Context, userID int64, providerID string) (*Principal, error)
}
