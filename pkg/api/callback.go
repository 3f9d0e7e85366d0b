package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// callbackName is the callback the endpoint is asked to wrap its reply in.
const callbackName = "__storeCallback"

// Ensure callbackTransport implements Transport.
var _ Transport = (*callbackTransport)(nil)

// callbackTransport encodes the body as query parameters and issues a GET,
// expecting the reply as a callback invocation: `__storeCallback({...})`.
// It exists for deployments where POST is blocked but GET with a callback is
// reachable, and is only ever tried as a fallback.
type callbackTransport struct {
	baseURL    string
	httpClient *http.Client
}

func newCallbackTransport(baseURL string) *callbackTransport {
	return &callbackTransport{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// Name identifies the transport.
func (t *callbackTransport) Name() string {
	return "callback"
}

// Send issues the GET and unwraps the callback padding around the reply.
func (t *callbackTransport) Send(ctx context.Context, body map[string]any) (int, []byte, error) {
	params := url.Values{"callback": {callbackName}}

	for key, value := range body {
		encoded, err := encodeQueryValue(value)
		if err != nil {
			return 0, nil, fmt.Errorf("encoding field %q: %w", key, err)
		}

		params.Set(key, encoded)
	}

	sep := "?"
	if strings.Contains(t.baseURL, "?") {
		sep = "&"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+sep+params.Encode(), nil)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}

	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response body: %w", err)
	}

	unwrapped, err := unwrapCallback(respBody)
	if err != nil {
		return resp.StatusCode, nil, err
	}

	return resp.StatusCode, unwrapped, nil
}

// encodeQueryValue flattens a body field into a query parameter. Scalars go
// through verbatim; structured values are JSON-encoded.
func encodeQueryValue(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case nil:
		return "", nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", err
		}

		return string(encoded), nil
	}
}

// unwrapCallback strips the `name(...)` padding around a callback response.
func unwrapCallback(body []byte) ([]byte, error) {
	text := strings.TrimSpace(string(body))

	// Some gateways prefix callback replies with an anti-hijacking comment.
	text = strings.TrimPrefix(text, "/**/")
	text = strings.TrimSpace(text)

	open := strings.Index(text, "(")
	closing := strings.LastIndex(text, ")")

	if open < 0 || closing < open {
		return nil, fmt.Errorf("response is not a callback invocation")
	}

	if name := strings.TrimSpace(text[:open]); name != callbackName {
		return nil, fmt.Errorf("response invokes unexpected callback %q", name)
	}

	return []byte(text[open+1 : closing]), nil
}
