// Package observability builds the process logger and tracer provider.
//
// Logs are structured with zap; spans are exported with OpenTelemetry to
// stdout or an OTLP collector. Provider calls made through the rotation
// executor are traced per attempt.
package observability
