package identity

import (
	"context"
	"sync"
)

// Ensure StaticProvider implements Provider.
var _ Provider = (*StaticProvider)(nil)

// StaticProvider serves a fixed token and user, typically sourced from
// configuration. Useful for CLI runs and tests; SignOut clears both.
type StaticProvider struct {
	mu    sync.Mutex
	user  *User
	token string
}

// NewStaticProvider creates a provider around a fixed user and token.
func NewStaticProvider(user *User, token string) *StaticProvider {
	return &StaticProvider{user: user, token: token}
}

// CurrentUser returns the configured user, or ErrNoSession after SignOut.
func (p *StaticProvider) CurrentUser(_ context.Context) (*User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.user == nil {
		return nil, ErrNoSession
	}

	u := *p.user

	return &u, nil
}

// IDToken returns the configured token.
func (p *StaticProvider) IDToken(_ context.Context, _ bool) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.user == nil {
		return "", ErrNoSession
	}

	if p.token == "" {
		return "", ErrNoToken
	}

	return p.token, nil
}

// SignOut drops the user and token.
func (p *StaticProvider) SignOut(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.user = nil
	p.token = ""

	return nil
}
