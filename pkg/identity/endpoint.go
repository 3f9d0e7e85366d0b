package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/catalinamedinaleal/store/pkg/config"
)

// Default HTTP timeout for token exchanges.
const exchangeTimeout = 30 * time.Second

// Ensure TokenEndpointProvider implements Provider.
var _ Provider = (*TokenEndpointProvider)(nil)

// TokenEndpointProvider exchanges a long-lived refresh token for short-lived
// ID tokens against an HTTPS token endpoint, caching each ID token until its
// reported expiry.
type TokenEndpointProvider struct {
	log        logrus.FieldLogger
	endpoint   string
	refresh    string
	apiKey     string
	httpClient *http.Client

	mu        sync.Mutex
	user      *User
	token     string
	expiresAt time.Time
	signedOut bool
}

// NewTokenEndpointProvider creates a provider for the configured endpoint.
func NewTokenEndpointProvider(log logrus.FieldLogger, cfg *config.TokenEndpointConfig) *TokenEndpointProvider {
	return &TokenEndpointProvider{
		log:      log.WithField("component", "token_endpoint_provider"),
		endpoint: cfg.URL,
		refresh:  cfg.RefreshToken,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: exchangeTimeout,
		},
	}
}

// CurrentUser returns the user reported by the last exchange, performing an
// initial exchange when none has happened yet.
func (p *TokenEndpointProvider) CurrentUser(ctx context.Context) (*User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.signedOut {
		return nil, ErrNoSession
	}

	if p.user == nil {
		if err := p.exchangeLocked(ctx); err != nil {
			return nil, err
		}
	}

	u := *p.user

	return &u, nil
}

// IDToken returns a cached ID token, exchanging the refresh token when the
// cache is empty, expired or a forced refresh is requested.
func (p *TokenEndpointProvider) IDToken(ctx context.Context, forceRefresh bool) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.signedOut {
		return "", ErrNoSession
	}

	if !forceRefresh && p.token != "" && time.Now().Before(p.expiresAt) {
		return p.token, nil
	}

	if err := p.exchangeLocked(ctx); err != nil {
		return "", err
	}

	return p.token, nil
}

// SignOut drops the cached token and marks the provider signed out.
func (p *TokenEndpointProvider) SignOut(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.signedOut = true
	p.user = nil
	p.token = ""
	p.expiresAt = time.Time{}

	return nil
}

// exchangeLocked performs the refresh-token grant. Caller must hold p.mu.
func (p *TokenEndpointProvider) exchangeLocked(ctx context.Context) error {
	endpoint := p.endpoint
	if p.apiKey != "" {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}

		endpoint += sep + "key=" + url.QueryEscape(p.apiKey)
	}

	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {p.refresh},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("creating token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("exchanging refresh token: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		p.log.WithFields(logrus.Fields{
			"status_code": resp.StatusCode,
			"response":    string(body),
		}).Error("Token exchange failed")

		return fmt.Errorf("token exchange failed: status %d", resp.StatusCode)
	}

	var tr struct {
		IDToken   string `json:"id_token"`
		UserID    string `json:"user_id"`
		ExpiresIn string `json:"expires_in"`
	}

	if err := json.Unmarshal(body, &tr); err != nil {
		return fmt.Errorf("decoding token response: %w", err)
	}

	if tr.IDToken == "" {
		return ErrNoToken
	}

	now := time.Now()
	expiresAt := EstimateExpiry(tr.IDToken, now)

	// Prefer the endpoint's own expires_in when it is decodable.
	if secs, convErr := strconv.Atoi(tr.ExpiresIn); convErr == nil && secs > 0 {
		expiresAt = now.Add(time.Duration(secs) * time.Second)
	}

	p.token = tr.IDToken
	p.expiresAt = expiresAt

	if p.user == nil {
		p.user = &User{ID: tr.UserID}
	}

	p.log.WithFields(logrus.Fields{
		"user_id":    tr.UserID,
		"expires_at": expiresAt.Format(time.RFC3339),
	}).Debug("Exchanged refresh token")

	return nil
}
