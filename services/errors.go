package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeConfiguration        ErrorType = "configuration"
	ErrorTypeProviderTransient    ErrorType = "provider_transient"
	ErrorTypeProviderFatal        ErrorType = "provider_fatal"
	ErrorTypeCredentialsExhausted ErrorType = "credentials_exhausted"
	ErrorTypeUnauthorized         ErrorType = "unauthorized"
	ErrorTypeNotFound             ErrorType = "not_found"
	ErrorTypeParse                ErrorType = "parse"
	ErrorTypeValidation           ErrorType = "validation"
	ErrorTypeRateLimit            ErrorType = "rate_limit"
	ErrorTypeInternal             ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches any DomainError of the same type, so sentinels work with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Sentinels for errors.Is comparisons. Never mutate these; build a fresh
// DomainError with NewDomainError when details are needed.
var (
	ErrConfiguration        = NewDomainError(ErrorTypeConfiguration, "service misconfigured", nil)
	ErrProviderTransient    = NewDomainError(ErrorTypeProviderTransient, "provider temporarily unavailable", nil)
	ErrProviderFatal        = NewDomainError(ErrorTypeProviderFatal, "provider rejected the request", nil)
	ErrCredentialsExhausted = NewDomainError(ErrorTypeCredentialsExhausted, "all provider credentials exhausted", nil)
	ErrUnauthorized         = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)
	ErrInvalidToken         = NewDomainError(ErrorTypeUnauthorized, "invalid authentication token", nil)
	ErrUserNotFound         = NewDomainError(ErrorTypeNotFound, "user not found", nil)
	ErrReportNotFound       = NewDomainError(ErrorTypeNotFound, "report not found", nil)
	ErrParse                = NewDomainError(ErrorTypeParse, "unexpected provider response", nil)
	ErrInvalidInput         = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrRateLimitExceeded    = NewDomainError(ErrorTypeRateLimit, "rate limit exceeded", nil)
	ErrInternal             = NewDomainError(ErrorTypeInternal, "internal server error", nil)
)

func hasType(err error, t ErrorType) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == t
	}
	return false
}

// IsConfigurationError checks if an error is a configuration error
func IsConfigurationError(err error) bool { return hasType(err, ErrorTypeConfiguration) }

// IsProviderTransientError checks if an error is a retryable provider error
func IsProviderTransientError(err error) bool { return hasType(err, ErrorTypeProviderTransient) }

// IsProviderFatalError checks if an error is a non-retryable provider error
func IsProviderFatalError(err error) bool { return hasType(err, ErrorTypeProviderFatal) }

// IsCredentialsExhaustedError checks if every credential in a pool failed
func IsCredentialsExhaustedError(err error) bool { return hasType(err, ErrorTypeCredentialsExhausted) }

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool { return hasType(err, ErrorTypeUnauthorized) }

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool { return hasType(err, ErrorTypeNotFound) }

// IsParseError checks if an error is a provider response parse error
func IsParseError(err error) bool { return hasType(err, ErrorTypeParse) }

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool { return hasType(err, ErrorTypeValidation) }

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool { return hasType(err, ErrorTypeRateLimit) }

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool { return hasType(err, ErrorTypeInternal) }

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// NewConfigurationError reports a missing or invalid setting such as an empty key pool.
func NewConfigurationError(message string) *DomainError {
	return NewDomainError(ErrorTypeConfiguration, message, nil)
}

// NewParseError reports a provider response that did not have the expected shape.
func NewParseError(message string, err error) *DomainError {
	return NewDomainError(ErrorTypeParse, message, err)
}

// NewValidationError reports bad caller input.
func NewValidationError(message string) *DomainError {
	return NewDomainError(ErrorTypeValidation, message, nil)
}
