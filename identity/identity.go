// Package identity verifies identity assertions issued by Google and drives
// the authorization code flow that obtains them.
package identity

// VerifiedIdentity holds the facts extracted from an ID token that passed
// signature, expiry, audience and issuer checks. Only Verifier creates it.
type VerifiedIdentity struct {
	Email             string
	ProviderSubjectID string
	GivenName         string
	FamilyName        string
}

const GoogleIssuerURL = "https://accounts.google.com"

// DefaultGoogleIssuers are the two spellings Google uses for the iss claim.
var DefaultGoogleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}
