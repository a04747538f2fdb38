package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

const (
	// MinTimeout and MaxTimeout bound the per-request provider timeout.
	MinTimeout = 30 * time.Second
	MaxTimeout = 60 * time.Second

	maxResponseBytes = 32 << 20
)

// Transport is the HTTP client shared by every adapter of one provider.
// It turns non-2xx responses and transport failures into *ProviderError.
type Transport struct {
	provider string
	client   *http.Client
}

// NewTransport creates a transport whose timeout is clamped to [MinTimeout, MaxTimeout].
// A zero timeout selects MaxTimeout.
func NewTransport(provider string, timeout time.Duration) *Transport {
	return &Transport{
		provider: provider,
		client:   &http.Client{Timeout: ClampTimeout(timeout)},
	}
}

// ClampTimeout normalises a configured provider timeout.
func ClampTimeout(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return MaxTimeout
	case d < MinTimeout:
		return MinTimeout
	case d > MaxTimeout:
		return MaxTimeout
	}
	return d
}

// Provider returns the provider name used in errors.
func (t *Transport) Provider() string {
	return t.provider
}

// Timeout returns the effective client timeout.
func (t *Transport) Timeout() time.Duration {
	return t.client.Timeout
}

// Post sends body to url and returns the response body of a 2xx response.
func (t *Transport) Post(ctx context.Context, op Operation, url string, header http.Header, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, NewProviderError(t.provider, op, CodeRequestError, "failed to create request", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, NewProviderError(t.provider, op, CodeHTTPError, "request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, NewProviderError(t.provider, op, CodeReadError, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewStatusError(t.provider, op, resp.StatusCode, respBody)
	}
	return respBody, nil
}

// PostJSON marshals payload and posts it as application/json.
func (t *Transport) PostJSON(ctx context.Context, op Operation, url string, header http.Header, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, NewProviderError(t.provider, op, CodeMarshalError, "failed to marshal request", err)
	}
	return t.Post(ctx, op, url, header, "application/json", bytes.NewReader(data))
}
