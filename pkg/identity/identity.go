// Package identity abstracts the third-party identity provider that issues
// short-lived bearer tokens for the store backend.
package identity

import (
	"context"
	"errors"
	"time"
)

// Error sentinels for identity operations.
var (
	// ErrNoSession indicates no authenticated identity is present.
	ErrNoSession = errors.New("no active session")

	// ErrNoToken indicates the provider returned an empty token.
	ErrNoToken = errors.New("identity provider returned no token")
)

// User describes the authenticated identity.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// Provider exposes the identity capabilities the transport client consumes.
//
// Tokens returned by IDToken are opaque bearer strings. The client never
// verifies them cryptographically; the server is the validating party. The
// client only estimates expiry to schedule refreshes.
type Provider interface {
	// CurrentUser returns the signed-in user, or ErrNoSession.
	CurrentUser(ctx context.Context) (*User, error)

	// IDToken returns a bearer token for the current user. When forceRefresh
	// is set, any provider-side caching must be bypassed.
	IDToken(ctx context.Context, forceRefresh bool) (string, error)

	// SignOut drops the current session.
	SignOut(ctx context.Context) error
}

// DefaultTokenLifetime is assumed when a token carries no decodable expiry.
const DefaultTokenLifetime = 45 * time.Second
