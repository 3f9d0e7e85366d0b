package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Transport delivers one RPC body to the endpoint and returns the raw
// response. Implementations own their serialization so the POST transport
// can ship a JSON body while the callback transport flattens the same fields
// into a query string.
type Transport interface {
	// Name identifies the transport in result metadata and logs.
	Name() string

	// Send delivers the body and returns the HTTP status and response bytes.
	Send(ctx context.Context, body map[string]any) (status int, respBody []byte, err error)
}

// maxResponseBytes bounds how much of a response is read.
const maxResponseBytes = 8 << 20

// Ensure postTransport implements Transport.
var _ Transport = (*postTransport)(nil)

// postTransport POSTs the JSON body with no custom headers. The endpoint
// sits behind CORS rules that preflight anything beyond a simple request, so
// the bearer token travels inside the body and the content type stays at the
// default.
type postTransport struct {
	baseURL    string
	httpClient *http.Client
}

func newPostTransport(baseURL string) *postTransport {
	return &postTransport{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Name identifies the transport.
func (t *postTransport) Name() string {
	return "post"
}

// Send POSTs the serialized body and reads the response as text.
func (t *postTransport) Send(ctx context.Context, body map[string]any) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("marshaling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}

	// No Content-Type or other custom headers: a simple request stays
	// outside CORS preflight rules.

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}

	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response body: %w", err)
	}

	return resp.StatusCode, respBody, nil
}
