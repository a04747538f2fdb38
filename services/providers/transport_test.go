package providers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampTimeout(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want time.Duration
	}{
		{"zero selects max", 0, MaxTimeout},
		{"negative selects max", -time.Second, MaxTimeout},
		{"below min", 5 * time.Second, MinTimeout},
		{"above max", 5 * time.Minute, MaxTimeout},
		{"in range", 45 * time.Second, 45 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampTimeout(tt.in))
		})
	}

	assert.Equal(t, MinTimeout, NewTransport("sarvam", time.Second).Timeout())
}

func TestTransport_PostJSON(t *testing.T) {
	t.Run("success returns body and forwards headers", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "key-1", r.Header.Get("api-subscription-key"))

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "vanakkam", body["input"])

			_, _ = w.Write([]byte(`{"ok":true}`))
		}))
		defer server.Close()

		tr := NewTransport("sarvam", 0)
		header := http.Header{}
		header.Set("api-subscription-key", "key-1")

		body, err := tr.PostJSON(context.Background(), OperationTranslate, server.URL, header, map[string]string{"input": "vanakkam"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"ok":true}`, string(body))
	})

	t.Run("non-2xx becomes status error with body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"quota"}`))
		}))
		defer server.Close()

		_, err := NewTransport("sarvam", 0).PostJSON(context.Background(), OperationTranslate, server.URL, nil, map[string]string{})
		require.Error(t, err)

		var provErr *ProviderError
		require.True(t, errors.As(err, &provErr))
		assert.Equal(t, http.StatusTooManyRequests, provErr.StatusCode)
		assert.Equal(t, `{"error":"quota"}`, provErr.Body)
		assert.Equal(t, CodeUpstreamStatus, provErr.Code)
		assert.True(t, provErr.IsClientStatus())
		assert.Contains(t, err.Error(), "status 429")
	})

	t.Run("transport failure has no status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := server.URL
		server.Close()

		_, err := NewTransport("gemini", 0).PostJSON(context.Background(), OperationGenerate, url, nil, map[string]string{})
		require.Error(t, err)

		var provErr *ProviderError
		require.True(t, errors.As(err, &provErr))
		assert.Equal(t, 0, provErr.StatusCode)
		assert.Equal(t, CodeHTTPError, provErr.Code)
		assert.NotNil(t, errors.Unwrap(provErr))
	})
}

func TestProviderError_Error(t *testing.T) {
	err := NewStatusError("sarvam", OperationSTT, 400, []byte(" audio duration greater than 30 seconds \n"))
	assert.Equal(t, "sarvam stt: status 400: audio duration greater than 30 seconds", err.Error())
	assert.False(t, NewStatusError("gemini", OperationGenerate, 503, nil).IsClientStatus())
}
