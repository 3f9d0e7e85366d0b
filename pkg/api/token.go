package api

import (
	"context"
	"errors"
	"time"

	"github.com/catalinamedinaleal/store/pkg/identity"
	"github.com/catalinamedinaleal/store/pkg/observability"
)

// tokenSafetyMargin is subtracted from the estimated expiry so a token is
// never sent moments before it lapses server-side.
const tokenSafetyMargin = 10 * time.Second

// sessionToken returns a bearer token for the current user, reusing the
// cached one while its estimated expiry is comfortably in the future.
func (c *client) sessionToken(ctx context.Context, forceRefresh bool, requestID string) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	now := time.Now()

	if !forceRefresh && c.token != "" && now.Add(tokenSafetyMargin).Before(c.tokenExpiry) {
		return c.token, nil
	}

	user, err := c.provider.CurrentUser(ctx)
	if err != nil || user == nil {
		observability.TokenRefreshesTotal.WithLabelValues("no_session").Inc()

		return "", newError(ErrNoSession, requestID, "", err)
	}

	token, err := c.provider.IDToken(ctx, forceRefresh)
	if err != nil {
		if errors.Is(err, identity.ErrNoSession) {
			observability.TokenRefreshesTotal.WithLabelValues("no_session").Inc()

			return "", newError(ErrNoSession, requestID, "", err)
		}

		observability.TokenRefreshesTotal.WithLabelValues("error").Inc()

		return "", newError(ErrNoToken, requestID, "", err)
	}

	if token == "" {
		observability.TokenRefreshesTotal.WithLabelValues("empty").Inc()

		return "", newError(ErrNoToken, requestID, "", nil)
	}

	c.token = token
	c.tokenExpiry = identity.EstimateExpiry(token, now)

	observability.TokenRefreshesTotal.WithLabelValues("ok").Inc()

	c.log.WithField("expires_at", c.tokenExpiry.Format(time.RFC3339)).
		Debug("Cached session token")

	return token, nil
}

// InvalidateToken drops the cached token so the next call fetches a fresh one.
func (c *client) InvalidateToken() {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	c.token = ""
	c.tokenExpiry = time.Time{}
}
