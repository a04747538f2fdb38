package rotation

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gramgyan/backend/services/providers"
)

// ClassifyHTTPStatus is used for the speech, translation and synthesis APIs.
// 401, 403 and 429 rotate; every other status and all transport failures are fatal.
func ClassifyHTTPStatus(err error) Outcome {
	var provErr *providers.ProviderError
	if errors.As(err, &provErr) {
		switch provErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
			return OutcomeRotateAndRetry
		}
	}
	return OutcomeFatal
}

// quotaSignals are matched against the lowercased error text when no status
// code settles the decision.
var quotaSignals = []string{"429", "quota", "limit", "resource has been exhausted"}

// ClassifyGenerative is used for the generative text, vision and embedding APIs.
// A 429 or a quota signal in the error text rotates. A 503 (model overloaded)
// does not depend on the key and is retried on the same one. Anything else is fatal.
func ClassifyGenerative(err error) Outcome {
	if err == nil {
		return OutcomeFatal
	}
	var provErr *providers.ProviderError
	if errors.As(err, &provErr) {
		switch provErr.StatusCode {
		case http.StatusTooManyRequests:
			return OutcomeRotateAndRetry
		case http.StatusServiceUnavailable:
			return OutcomeRetrySame
		}
	}
	msg := strings.ToLower(err.Error())
	for _, signal := range quotaSignals {
		if strings.Contains(msg, signal) {
			return OutcomeRotateAndRetry
		}
	}
	return OutcomeFatal
}

// IsQuotaError reports whether err would rotate under ClassifyGenerative.
func IsQuotaError(err error) bool {
	return ClassifyGenerative(err) == OutcomeRotateAndRetry
}
