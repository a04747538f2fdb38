package rotation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gramgyan/backend/services/providers"
	"github.com/stretchr/testify/assert"
)

func TestClassifyHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"401 rotates", status(401), OutcomeRotateAndRetry},
		{"403 rotates", status(403), OutcomeRotateAndRetry},
		{"429 rotates", status(429), OutcomeRotateAndRetry},
		{"wrapped 429 rotates", fmt.Errorf("call: %w", status(429)), OutcomeRotateAndRetry},
		{"400 fatal", status(400), OutcomeFatal},
		{"500 fatal", status(500), OutcomeFatal},
		{"503 fatal", status(503), OutcomeFatal},
		{"transport failure fatal", providers.NewProviderError("sarvam", providers.OperationSTT, providers.CodeHTTPError, "request failed", errors.New("dial tcp")), OutcomeFatal},
		{"plain error mentioning quota is fatal", errors.New("quota"), OutcomeFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyHTTPStatus(tt.err))
		})
	}
}

func TestClassifyGenerative(t *testing.T) {
	gemini := func(code int, body string) error {
		return providers.NewStatusError("gemini", providers.OperationGenerate, code, []byte(body))
	}

	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"429 status", gemini(429, ""), OutcomeRotateAndRetry},
		{"quota in body", gemini(400, `{"error":{"message":"Quota exceeded for metric"}}`), OutcomeRotateAndRetry},
		{"resource exhausted text", errors.New("Resource has been exhausted (e.g. check quota)."), OutcomeRotateAndRetry},
		{"limit text", errors.New("rate LIMIT reached"), OutcomeRotateAndRetry},
		{"429 in message", errors.New("googleapi: Error 429"), OutcomeRotateAndRetry},
		{"503 retries same key", gemini(503, "The model is overloaded"), OutcomeRetrySame},
		{"400 bad request fatal", gemini(400, `{"error":{"message":"Invalid JSON payload"}}`), OutcomeFatal},
		{"500 fatal", gemini(500, "internal"), OutcomeFatal},
		{"cancelled fatal", context.Canceled, OutcomeFatal},
		{"nil fatal", nil, OutcomeFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyGenerative(tt.err))
		})
	}

	assert.True(t, IsQuotaError(gemini(429, "")))
	assert.False(t, IsQuotaError(gemini(404, "model not found")))
}
