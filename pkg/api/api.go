// Package api implements the transport client for the store RPC endpoint:
// token lifecycle, auth-failure retry, identical-request coalescing and an
// optional callback-style fallback transport, all behind one Call method.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/catalinamedinaleal/store/pkg/config"
	"github.com/catalinamedinaleal/store/pkg/identity"
	"github.com/catalinamedinaleal/store/pkg/observability"
)

// Payload carries the action-specific request fields. Keys pass through to
// the wire verbatim; the reserved fields (action, token, requestId, ts) are
// set by the client and cannot be overridden.
type Payload map[string]any

// Meta is the client-side metadata attached to every successful result.
type Meta struct {
	// RequestID correlates the result with logs on both sides.
	RequestID string `json:"request_id"`

	// Elapsed is the wall-clock duration of the winning attempt.
	Elapsed time.Duration `json:"elapsed"`

	// Transport names the transport that delivered the result.
	Transport string `json:"transport"`
}

// Result is the envelope returned by a successful call. Data is the remote's
// response document untouched; client metadata lives in Meta and never
// overwrites remote fields.
type Result struct {
	OK   bool           `json:"ok"`
	Data map[string]any `json:"data"`
	Meta Meta           `json:"meta"`
}

// Client defines the interface for talking to the store RPC endpoint.
type Client interface {
	// Call performs one named action against the endpoint.
	Call(ctx context.Context, action string, payload Payload, opts ...CallOption) (*Result, error)

	// InvalidateToken drops the cached session token.
	InvalidateToken()

	// Ping verifies the endpoint is reachable and the session is valid.
	Ping(ctx context.Context) (*Result, error)

	// ListProducts returns the catalog, optionally filtered by a query string.
	ListProducts(ctx context.Context, query string) (*Result, error)

	// UpsertProduct creates or updates a catalog product.
	UpsertProduct(ctx context.Context, product map[string]any) (*Result, error)

	// SetProductActive toggles a product's active flag.
	SetProductActive(ctx context.Context, id string, active bool) (*Result, error)

	// ListInventory returns current stock levels.
	ListInventory(ctx context.Context) (*Result, error)

	// AdjustStock applies a manual stock adjustment.
	AdjustStock(ctx context.Context, adjustment map[string]any) (*Result, error)

	// CreateSale posts a sale or pending order.
	CreateSale(ctx context.Context, data map[string]any) (*Result, error)

	// GetSale returns one sale with its items.
	GetSale(ctx context.Context, id string) (*Result, error)

	// UpdateSaleStatus moves a sale between statuses (e.g. pending to paid).
	UpdateSaleStatus(ctx context.Context, id, status string) (*Result, error)

	// ListSales returns sales filtered by status.
	ListSales(ctx context.Context, status string, includeItems bool, limit int) (*Result, error)

	// ListMoves returns recent inventory movements.
	ListMoves(ctx context.Context, limit int) (*Result, error)

	// Dashboard returns the summary figures for the dashboard.
	Dashboard(ctx context.Context) (*Result, error)
}

// Ensure client implements Client.
var _ Client = (*client)(nil)

// client is the HTTP-based implementation of the Client interface.
type client struct {
	log      logrus.FieldLogger
	cfg      config.APIConfig
	provider identity.Provider
	primary  Transport
	fallback Transport
	limiter  *rate.Limiter
	group    singleflight.Group

	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time
}

// New creates a new transport client for the configured endpoint.
func New(log logrus.FieldLogger, cfg config.APIConfig, provider identity.Provider) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var limiter *rate.Limiter

	if cfg.RateLimitPerMinute > 0 {
		// Burst of a few requests keeps interactive use snappy while the
		// sustained rate stays at the configured ceiling.
		burst := cfg.RateLimitPerMinute / 6
		if burst < 3 {
			burst = 3
		}

		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RateLimitPerMinute)/60.0), burst)
	}

	return &client{
		log:      log.WithField("component", "api_client"),
		cfg:      cfg,
		provider: provider,
		primary:  newPostTransport(cfg.BaseURL),
		fallback: newCallbackTransport(cfg.BaseURL),
		limiter:  limiter,
	}, nil
}

// callOptions holds the per-call knobs with their defaults applied.
type callOptions struct {
	timeout       time.Duration
	forceRefresh  bool
	authRetry     bool
	allowFallback bool
	coalesce      bool
	requestID     string
}

// CallOption customizes a single Call.
type CallOption func(*callOptions)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) CallOption {
	return func(o *callOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithForceRefreshToken bypasses the token cache for this call.
func WithForceRefreshToken() CallOption {
	return func(o *callOptions) { o.forceRefresh = true }
}

// WithoutAuthRetry disables the single auth-expiry retry.
func WithoutAuthRetry() CallOption {
	return func(o *callOptions) { o.authRetry = false }
}

// WithFallback overrides the configured fallback-transport setting.
func WithFallback(enabled bool) CallOption {
	return func(o *callOptions) { o.allowFallback = enabled }
}

// WithoutCoalescing opts this call out of identical-request deduplication.
func WithoutCoalescing() CallOption {
	return func(o *callOptions) { o.coalesce = false }
}

// WithRequestID supplies a caller-side correlation id.
func WithRequestID(id string) CallOption {
	return func(o *callOptions) {
		if id != "" {
			o.requestID = id
		}
	}
}

// buildOptions applies defaults and the caller's options.
func (c *client) buildOptions(opts []CallOption) callOptions {
	o := callOptions{
		timeout:       c.cfg.GetTimeout(),
		authRetry:     true,
		allowFallback: c.cfg.FallbackEnabled,
		coalesce:      true,
	}

	for _, opt := range opts {
		opt(&o)
	}

	if o.requestID == "" {
		o.requestID = "r_" + uuid.New().String()
	}

	return o
}

// Call performs one named action against the endpoint.
func (c *client) Call(ctx context.Context, action string, payload Payload, opts ...CallOption) (*Result, error) {
	o := c.buildOptions(opts)

	action = strings.TrimSpace(action)
	if action == "" {
		return nil, newError(ErrInvalidRequest, o.requestID, "call requires an action", nil)
	}

	if strings.TrimSpace(c.cfg.BaseURL) == "" {
		return nil, newError(ErrInvalidRequest, o.requestID, "api base URL is not configured", nil)
	}

	if !o.coalesce {
		res, dispatchErr := c.dispatch(ctx, action, payload, o)
		return c.finish(action, res, dispatchErr)
	}

	key, err := pendingKey(action, payload, o)
	if err != nil {
		return nil, newError(ErrInvalidRequest, o.requestID, "payload is not serializable", err)
	}

	// Concurrent identical calls attach to the one in-flight request and
	// observe the same settlement; singleflight releases the key as soon as
	// that settlement happens, so the next call starts fresh.
	value, callErr, shared := c.group.Do(key, func() (any, error) {
		res, dispatchErr := c.dispatch(ctx, action, payload, o)
		if dispatchErr != nil {
			return nil, dispatchErr
		}

		return res, nil
	})

	if shared {
		observability.CoalescedCallsTotal.WithLabelValues(action).Inc()
	}

	if callErr != nil {
		return c.finish(action, nil, callErr)
	}

	res, ok := value.(*Result)
	if !ok {
		return nil, newError(ErrInvalidRequest, o.requestID, "unexpected coalesced result type", nil)
	}

	return c.finish(action, res, nil)
}

// finish records terminal metrics for a call.
func (c *client) finish(action string, res *Result, err error) (*Result, error) {
	status := "ok"

	if err != nil {
		status = "error"

		var typed *Error
		if errors.As(err, &typed) {
			status = typed.Kind.Error()
		}
	}

	observability.RequestsTotal.WithLabelValues(action, status).Inc()

	if res != nil {
		observability.RequestDuration.WithLabelValues(action).Observe(res.Meta.Elapsed.Seconds())
	}

	return res, err
}

// dispatch runs the attempt / auth-retry / fallback sequence for one call.
func (c *client) dispatch(ctx context.Context, action string, payload Payload, o callOptions) (*Result, error) {
	res, firstErr := c.attempt(ctx, action, payload, o, o.forceRefresh, c.primary)
	if firstErr == nil {
		return res, nil
	}

	finalErr := firstErr

	// Exactly one retry, only for failures that read like an expired or
	// rejected authorization, with a forced token refresh in between.
	if o.authRetry && isAuthExpiredFailure(firstErr) {
		c.InvalidateToken()
		observability.AuthRetriesTotal.WithLabelValues(action).Inc()

		c.log.WithFields(logrus.Fields{
			"action":     action,
			"request_id": o.requestID,
		}).Debug("Retrying after auth-expiry failure")

		retryRes, retryErr := c.attempt(ctx, action, payload, o, true, c.primary)
		if retryErr == nil {
			return retryRes, nil
		}

		finalErr = retryErr
	}

	// The fallback only makes sense when the primary transport itself
	// failed; a remote rejection would just be rejected again.
	if o.allowFallback && isTransportFailure(firstErr) {
		fbRes, fbErr := c.attempt(ctx, action, payload, o, false, c.fallback)
		if fbErr == nil {
			observability.FallbackAttemptsTotal.WithLabelValues("ok").Inc()

			return fbRes, nil
		}

		observability.FallbackAttemptsTotal.WithLabelValues("error").Inc()

		finalErr = newError(ErrFallback, o.requestID, failureMessage(fbErr), fbErr)
	}

	return nil, finalErr
}

// attempt performs a single token-fetch + send + parse cycle on a transport.
func (c *client) attempt(
	ctx context.Context, action string, payload Payload,
	o callOptions, forceToken bool, transport Transport,
) (*Result, error) {
	token, err := c.sessionToken(ctx, forceToken, o.requestID)
	if err != nil {
		return nil, err
	}

	body := make(map[string]any, len(payload)+4)
	for k, v := range payload {
		body[k] = v
	}

	body["action"] = action
	body["token"] = token
	body["requestId"] = o.requestID
	body["ts"] = time.Now().UnixMilli()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, newError(ErrNetwork, o.requestID, "rate limiter interrupted", err)
		}
	}

	sendCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	started := time.Now()

	status, raw, err := transport.Send(sendCtx, body)
	if err != nil {
		if sendCtx.Err() != nil && ctx.Err() == nil {
			timeoutErr := newError(ErrTimeout, o.requestID,
				"timeout after "+o.timeout.String()+" talking to the server", err)
			timeoutErr.Timeout = o.timeout

			return nil, timeoutErr
		}

		return nil, newError(ErrNetwork, o.requestID, "", err)
	}

	doc := normalizeResponse(raw)

	if status < 200 || status > 299 {
		msg := extractMessage(doc, "HTTP "+strconv.Itoa(status))
		httpErr := newError(ErrHTTP, o.requestID, msg, nil)
		httpErr.Status = status

		return nil, httpErr
	}

	if ok, _ := doc["ok"].(bool); !ok {
		return nil, newError(ErrRemoteRejected, o.requestID, extractMessage(doc, "unknown API error"), nil)
	}

	return &Result{
		OK:   true,
		Data: doc,
		Meta: Meta{
			RequestID: o.requestID,
			Elapsed:   time.Since(started),
			Transport: transport.Name(),
		},
	}, nil
}

// normalizeResponse turns raw response bytes into a document, never failing:
// empty and unparsable bodies become sentinel failure payloads so the
// success-flag contract applies uniformly.
func normalizeResponse(raw []byte) map[string]any {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return map[string]any{"ok": false, "error": "empty response from server", "raw": ""}
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(text), &doc); err != nil || doc == nil {
		return map[string]any{"ok": false, "error": "invalid response from server", "raw": text}
	}

	return doc
}

// extractMessage pulls a structured error message out of a response
// document, checking the fields the backend is known to use, in order.
func extractMessage(doc map[string]any, fallback string) string {
	for _, field := range []string{"error", "message", "details", "msg"} {
		if s, ok := doc[field].(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		}
	}

	return fallback
}

// isAuthExpiredFailure reports whether a failure carries a remote message
// matching the auth-expiry heuristic. Only failures that have a remote
// message qualify; local failures (no session, timeout) never do.
func isAuthExpiredFailure(err error) bool {
	var typed *Error
	if !errors.As(err, &typed) {
		return false
	}

	if !errors.Is(typed.Kind, ErrHTTP) && !errors.Is(typed.Kind, ErrRemoteRejected) {
		return false
	}

	return IsAuthExpiredMessage(typed.Message)
}

// isTransportFailure reports whether a failure happened at the network, HTTP
// or timeout level, as opposed to a remote rejection.
func isTransportFailure(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrHTTP)
}

// pendingKey derives the deterministic coalescing key for a call. Map keys
// are serialized in sorted order, so structurally identical payloads always
// produce the same key.
func pendingKey(action string, payload Payload, o callOptions) (string, error) {
	encoded, err := json.Marshal(struct {
		Action       string  `json:"action"`
		Payload      Payload `json:"payload"`
		TimeoutMS    int64   `json:"timeout_ms"`
		ForceRefresh bool    `json:"force_refresh"`
	}{
		Action:       action,
		Payload:      payload,
		TimeoutMS:    o.timeout.Milliseconds(),
		ForceRefresh: o.forceRefresh,
	})
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}
