package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/eyewear-quotes/internal/platform/logging"
)

// Write pipeline: Validate → Archive → Respond
//
// Every state change goes through the same three steps:
//  1. VALIDATE - load what the change depends on and build the new domain
//     value. Nothing is written; a failure leaves stored state untouched.
//  2. ARCHIVE  - persist the validated value with one store call.
//  3. RESPOND  - shape the result for the caller and emit side signals
//     (metrics, logs) only after the write succeeded.

// ExecutionStep names a step of the write pipeline.
type ExecutionStep string

const (
	StepValidate ExecutionStep = "validate"
	StepArchive  ExecutionStep = "archive"
	StepRespond  ExecutionStep = "respond"
)

// ExecutionError wraps errors with the step where they occurred.
type ExecutionError struct {
	Operation string
	Step      ExecutionStep
	Cause     error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Operation, e.Step, e.Cause)
}

// Unwrap returns the underlying cause so domain errors stay matchable.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Operation defines the functions for each step of a write.
// I is the request, V the validated domain value and O the result.
type Operation[I, V, O any] struct {
	// Name identifies this operation for logging.
	Name string

	// Validate builds the value to persist. Required.
	Validate func(ctx context.Context, input I) (V, error)

	// Archive persists the validated value. Required.
	Archive func(ctx context.Context, input I, validated V) error

	// Respond builds the result. When nil, the validated value is returned
	// if it is assignable to O.
	Respond func(ctx context.Context, input I, validated V) (O, error)
}

// Executor runs write operations and logs each step.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates a new executor with the given logger.
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{logger: logger}
}

// Execute runs op through validate, archive and respond.
func Execute[I, V, O any](ctx context.Context, exec *Executor, op Operation[I, V, O], input I) (O, error) {
	var zero O

	logger := logging.FromContextOr(ctx, exec.logger).With(slog.String("operation", op.Name))
	start := time.Now()

	fail := func(step ExecutionStep, err error) (O, error) {
		attrs := []any{slog.String("step", string(step)), slog.Any("error", err)}

		if step == StepValidate {
			logger.DebugContext(ctx, "operation rejected", attrs...)
		} else {
			logger.ErrorContext(ctx, "operation failed", attrs...)
		}

		return zero, &ExecutionError{Operation: op.Name, Step: step, Cause: err}
	}

	logger.DebugContext(ctx, "validating")

	validated, err := op.Validate(ctx, input)
	if err != nil {
		return fail(StepValidate, err)
	}

	logger.DebugContext(ctx, "archiving")

	if err := op.Archive(ctx, input, validated); err != nil {
		return fail(StepArchive, err)
	}

	result, err := respond(ctx, op, input, validated)
	if err != nil {
		return fail(StepRespond, err)
	}

	logger.InfoContext(ctx, "operation completed", slog.Duration("duration", time.Since(start)))

	return result, nil
}

func respond[I, V, O any](ctx context.Context, op Operation[I, V, O], input I, validated V) (O, error) {
	if op.Respond != nil {
		return op.Respond(ctx, input, validated)
	}

	if out, ok := any(validated).(O); ok {
		return out, nil
	}

	var zero O

	return zero, nil
}

// GetExecutionStep extracts the step from an execution error.
func GetExecutionStep(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Step, true
	}

	return "", false
}
