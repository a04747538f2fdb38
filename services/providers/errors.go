package providers

import (
	"fmt"
	"strings"
)

// Operation names a provider request shape.
type Operation string

const (
	OperationSTT             Operation = "stt"
	OperationTranslate       Operation = "translate"
	OperationTTS             Operation = "tts"
	OperationGenerate        Operation = "generate"
	OperationEmbed           Operation = "embed"
	OperationAnalyzeImage    Operation = "analyze_image"
	OperationTranscribeAudio Operation = "transcribe_audio"
)

// Error codes carried in ProviderError.Code
const (
	CodeUpstreamStatus = "UPSTREAM_STATUS"
	CodeHTTPError      = "HTTP_ERROR"
	CodeReadError      = "READ_ERROR"
	CodeMarshalError   = "MARSHAL_ERROR"
	CodeRequestError   = "REQUEST_ERROR"
	CodeFileError      = "FILE_ERROR"
)

// ProviderError is a failed call to an upstream provider. StatusCode is zero
// when the request never produced an HTTP response.
type ProviderError struct {
	Provider   string
	Operation  Operation
	Code       string
	Message    string
	StatusCode int
	Body       string
	Cause      error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Provider, e.Operation)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Body != "" {
		b.WriteString(": ")
		b.WriteString(e.Body)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewStatusError reports a non-2xx response.
func NewStatusError(provider string, op Operation, statusCode int, body []byte) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Operation:  op,
		Code:       CodeUpstreamStatus,
		StatusCode: statusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

// NewProviderError creates a provider error that has no HTTP status.
func NewProviderError(provider string, op Operation, code, message string, cause error) *ProviderError {
	return &ProviderError{
		Provider:  provider,
		Operation: op,
		Code:      code,
		Message:   message,
		Cause:     cause,
	}
}

// IsClientStatus reports whether the provider rejected the request itself (4xx).
func (e *ProviderError) IsClientStatus() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}
