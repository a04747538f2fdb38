package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gramgyan/backend/services"
	"github.com/gramgyan/backend/services/providers"
	"github.com/gramgyan/backend/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain and provider errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	details := services.GetErrorDetails(err)

	var provErr *providers.ProviderError
	var writeErr error
	switch {
	case services.IsValidationError(err):
		writeErr = utils.WriteBadRequest(w, messageOf(err), details)

	case services.IsUnauthorizedError(err):
		writeErr = utils.WriteUnauthorized(w, messageOf(err))

	case services.IsNotFoundError(err):
		writeErr = utils.WriteNotFound(w, messageOf(err))

	case services.IsRateLimitError(err):
		writeErr = utils.WriteTooManyRequests(w, messageOf(err), details)

	case services.IsCredentialsExhaustedError(err):
		logger.Error("provider credentials exhausted", zap.Error(err))
		writeErr = utils.WriteServiceUnavailable(w, messageOf(err), details)

	case services.IsConfigurationError(err):
		logger.Error("service misconfigured", zap.Error(err))
		writeErr = utils.WriteServiceUnavailable(w, messageOf(err), nil)

	case services.IsParseError(err):
		logger.Error("unexpected provider response", zap.Error(err))
		writeErr = utils.WriteBadGateway(w, messageOf(err), nil)

	case errors.As(err, &provErr):
		writeErr = writeProviderError(w, provErr, logger)

	case services.IsProviderFatalError(err), services.IsProviderTransientError(err):
		logger.Error("provider call failed", zap.Error(err))
		writeErr = utils.WriteBadGateway(w, messageOf(err), details)

	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("request timed out", zap.Error(err))
		writeErr = utils.WriteError(w, http.StatusGatewayTimeout, "Upstream provider timed out", nil)

	case services.IsInternalError(err):
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An internal error occurred")

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		writeErr = utils.WriteInternalServerError(w, "An unexpected error occurred")
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// writeProviderError reports a fatal provider failure. A 4xx upstream status
// means the request itself was rejected, so the caller gets a 400 with the
// provider detail; anything else is a gateway failure.
func writeProviderError(w http.ResponseWriter, provErr *providers.ProviderError, logger *zap.Logger) error {
	details := map[string]interface{}{
		"provider":  provErr.Provider,
		"operation": string(provErr.Operation),
	}
	if provErr.StatusCode != 0 {
		details["upstream_status"] = provErr.StatusCode
	}

	if provErr.IsClientStatus() {
		logger.Warn("provider rejected request", zap.Error(provErr))
		if provErr.Body != "" {
			details["detail"] = provErr.Body
		}
		return utils.WriteBadRequest(w, provErr.Error(), details)
	}

	logger.Error("provider call failed", zap.Error(provErr))
	return utils.WriteBadGateway(w, "Upstream provider error", details)
}

// messageOf returns the domain message without the type prefix.
func messageOf(err error) string {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		return domainErr.Message
	}
	return err.Error()
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{})
		for k, v := range fields {
			details[k] = v
		}
		if err := utils.WriteBadRequest(w, "Validation failed", details); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
