package rotation

import (
	"context"
	"errors"
	"fmt"

	"github.com/gramgyan/backend/services"
	"github.com/gramgyan/backend/services/providers"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/gramgyan/backend/services/rotation"

// Outcome is the executor's decision after a failed attempt.
type Outcome int

const (
	// OutcomeFatal stops immediately and returns the failure unchanged.
	OutcomeFatal Outcome = iota
	// OutcomeRotateAndRetry advances the pool cursor and tries again.
	OutcomeRotateAndRetry
	// OutcomeRetrySame tries again with the same credential.
	OutcomeRetrySame
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRotateAndRetry:
		return "rotate_and_retry"
	case OutcomeRetrySame:
		return "retry_same"
	default:
		return "fatal"
	}
}

// Classifier maps a failed attempt to an Outcome.
type Classifier func(err error) Outcome

// Operation performs one provider request with the given credential.
type Operation[T any] func(ctx context.Context, credential string) (T, error)

// Call describes one logical provider call.
type Call[T any] struct {
	// Name identifies the call in logs and spans, e.g. "sarvam.translate".
	Name string
	Pool *Pool
	// MaxAttempts bounds total tries. Zero or less means one try per credential.
	MaxAttempts int
	Classify    Classifier
	Do          Operation[T]
}

// CallAttempt records one failed attempt.
type CallAttempt struct {
	Number   int
	KeyIndex int
	Outcome  Outcome
	Err      error
}

// Executor runs provider calls against credential pools.
type Executor struct {
	logger *zap.Logger
	tracer trace.Tracer
}

// NewExecutor creates an executor. A nil tracer uses the global provider.
func NewExecutor(logger *zap.Logger, tracer trace.Tracer) *Executor {
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{logger: logger, tracer: tracer}
}

// Execute runs call.Do until it succeeds, a failure is classified fatal, or
// the attempt budget runs out. A fatal failure is returned unchanged. Running
// out of attempts, or a rotate decision on a single-key pool, returns a
// credentials_exhausted DomainError wrapping the last failure.
func Execute[T any](ctx context.Context, e *Executor, call Call[T]) (T, error) {
	var zero T
	if call.Pool == nil {
		return zero, services.NewConfigurationError(fmt.Sprintf("%s: no credential pool", call.Name))
	}
	if _, _, err := call.Pool.current(); err != nil {
		return zero, err
	}
	classify := call.Classify
	if classify == nil {
		classify = func(error) Outcome { return OutcomeFatal }
	}

	maxAttempts := call.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = call.Pool.Len()
	}

	ctx, span := e.tracer.Start(ctx, "rotation."+call.Name)
	defer span.End()
	span.SetAttributes(
		attribute.String("rotation.pool", call.Pool.Name()),
		attribute.Int("rotation.pool_size", call.Pool.Len()),
		attribute.Int("rotation.max_attempts", maxAttempts),
	)

	var attempts []CallAttempt
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		credential, keyIndex, err := call.Pool.current()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "no credentials")
			return zero, err
		}

		result, err := call.Do(ctx, credential)
		if err == nil {
			span.SetAttributes(
				attribute.Int("rotation.attempts", attempt),
				attribute.Int("rotation.key_index", keyIndex),
			)
			return result, nil
		}

		outcome := classify(err)
		attempts = append(attempts, CallAttempt{Number: attempt, KeyIndex: keyIndex, Outcome: outcome, Err: err})
		span.AddEvent("attempt_failed", trace.WithAttributes(
			attribute.Int("attempt", attempt),
			attribute.Int("key_index", keyIndex),
			attribute.String("outcome", outcome.String()),
		))

		switch outcome {
		case OutcomeFatal:
			e.logger.Warn("provider call failed",
				zap.String("call", call.Name),
				zap.Int("attempt", attempt),
				zap.Int("key_index", keyIndex),
				zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, "fatal")
			return zero, err

		case OutcomeRotateAndRetry:
			call.Pool.Rotate()
			if call.Pool.Len() <= 1 || attempt == maxAttempts {
				return zero, e.exhausted(span, call.Name, call.Pool, attempts)
			}
			e.logger.Warn("rotating provider credential",
				zap.String("call", call.Name),
				zap.Int("attempt", attempt),
				zap.Int("key_index", keyIndex),
				zap.Int("next_key_index", call.Pool.Index()),
				zap.Error(err))

		case OutcomeRetrySame:
			e.logger.Info("retrying provider call with same credential",
				zap.String("call", call.Name),
				zap.Int("attempt", attempt),
				zap.Int("key_index", keyIndex),
				zap.Error(err))
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			span.RecordError(ctxErr)
			return zero, ctxErr
		}
	}

	return zero, e.exhausted(span, call.Name, call.Pool, attempts)
}

func (e *Executor) exhausted(span trace.Span, name string, pool *Pool, attempts []CallAttempt) error {
	last := attempts[len(attempts)-1].Err
	domainErr := services.NewDomainError(
		services.ErrorTypeCredentialsExhausted,
		fmt.Sprintf("all %s credentials exhausted after %d attempts", pool.Name(), len(attempts)),
		last,
	).WithDetail("provider", pool.Name()).WithDetail("attempts", len(attempts))

	var provErr *providers.ProviderError
	if errors.As(last, &provErr) {
		domainErr.WithDetail("last_status", provErr.StatusCode)
		if provErr.Body != "" {
			domainErr.WithDetail("last_response", provErr.Body)
		}
	}

	e.logger.Error("provider credentials exhausted",
		zap.String("call", name),
		zap.Int("attempts", len(attempts)),
		zap.Int("pool_size", pool.Len()),
		zap.Error(last))
	span.RecordError(last)
	span.SetStatus(codes.Error, "credentials exhausted")
	return domainErr
}
