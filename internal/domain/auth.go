package domain

import "strings"

const bearerScheme = "Bearer"

// AuthGuard checks shared-secret bearer tokens by prefix.
type AuthGuard struct {
	prefix string
}

// NewAuthGuard creates a guard accepting credentials that start with prefix.
func NewAuthGuard(prefix string) *AuthGuard {
	return &AuthGuard{prefix: prefix}
}

// Verify validates an Authorization header value.
func (g *AuthGuard) Verify(authorization string) error {
	scheme, credentials, found := strings.Cut(strings.TrimSpace(authorization), " ")
	if !found || scheme != bearerScheme {
		return ErrAuthentication
	}

	if !strings.HasPrefix(strings.TrimSpace(credentials), g.prefix) {
		return ErrAuthentication
	}

	return nil
}
