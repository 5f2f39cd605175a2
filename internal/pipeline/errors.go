// Package pipeline defines the error taxonomy for the Agent Pipeline turn
// handler (internal/agent.Pipeline.HandleTurn), generalized from
// internal/agent/errors.go's tool-scoped ToolError/ToolErrorType to the
// whole-turn error kinds of spec §7.
package pipeline

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes a turn-level failure for logging, user-facing
// messaging, and retry/backoff decisions.
type ErrorKind string

const (
	// ErrorKindInputInvalid covers oversized input and malformed requests.
	ErrorKindInputInvalid ErrorKind = "input_invalid"

	// ErrorKindSecurityCritical covers a critical prompt-injection pattern
	// the Sanitizer refused to process.
	ErrorKindSecurityCritical ErrorKind = "security_critical"

	// ErrorKindSessionBusy covers a session-lock timeout: a previous turn
	// on the same session has not finished persisting yet.
	ErrorKindSessionBusy ErrorKind = "session_busy"

	// ErrorKindSessionUnavailable covers a session-store failure.
	ErrorKindSessionUnavailable ErrorKind = "session_unavailable"

	// ErrorKindCostExceeded covers the daily cost/request/token budget gate.
	ErrorKindCostExceeded ErrorKind = "cost_exceeded"

	// ErrorKindLoopDetected covers a repeating/circular conversation.
	ErrorKindLoopDetected ErrorKind = "loop_detected"

	// ErrorKindProviderUnavailable covers an LLM provider call failure.
	ErrorKindProviderUnavailable ErrorKind = "provider_unavailable"

	// ErrorKindInternal covers anything else (programmer error, unexpected
	// nil dependency, etc).
	ErrorKindInternal ErrorKind = "internal"
)

// Severity indicates how serious a PipelineError is, independent of
// whether it's retryable.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// defaultSeverity maps a kind to its default severity when none is set
// explicitly via WithSeverity.
func defaultSeverity(kind ErrorKind) Severity {
	switch kind {
	case ErrorKindSecurityCritical:
		return SeverityCritical
	case ErrorKindInputInvalid, ErrorKindSessionBusy, ErrorKindLoopDetected, ErrorKindCostExceeded:
		return SeverityWarning
	default:
		return SeverityError
	}
}

// PipelineError is a structured turn-level error carrying both a message
// safe to show the end user and a separate internal message/context for
// logs, plus enough metadata to decide retry and continuation behavior.
type PipelineError struct {
	// Kind categorizes the failure.
	Kind ErrorKind

	// Severity indicates how serious the failure is.
	Severity Severity

	// Code is a short machine-readable identifier, stable across releases.
	Code string

	// UserMessage is safe to return to the end user verbatim.
	UserMessage string

	// InternalMessage is for logs only and may include details (raw
	// validation failures, underlying provider errors) unsafe to surface.
	InternalMessage string

	// Retryable indicates whether the same turn could plausibly succeed on
	// a later attempt (e.g. a provider timeout) versus never (e.g. input
	// too long).
	Retryable bool

	// Context carries arbitrary structured fields for logging (session ID,
	// tool name, etc), kept out of both messages.
	Context map[string]any

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface, favoring the internal message for
// %v/%s formatting (log output). Callers that need the user-facing string
// should use UserMessage directly.
func (e *PipelineError) Error() string {
	msg := e.InternalMessage
	if msg == "" {
		msg = e.UserMessage
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, msg)
}

// Unwrap returns the underlying cause for errors.Is/errors.As chains.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// New builds a PipelineError with a default severity and code derived
// from kind, and the given user-facing message.
func New(kind ErrorKind, userMessage string) *PipelineError {
	return &PipelineError{
		Kind:        kind,
		Severity:    defaultSeverity(kind),
		Code:        string(kind),
		UserMessage: userMessage,
	}
}

// Wrap builds a PipelineError around an existing error, preserving it as
// Cause and using its message as the internal (log-only) message.
func Wrap(kind ErrorKind, userMessage string, cause error) *PipelineError {
	e := New(kind, userMessage)
	e.Cause = cause
	if cause != nil {
		e.InternalMessage = cause.Error()
	}
	return e
}

// WithCode overrides the default code.
func (e *PipelineError) WithCode(code string) *PipelineError {
	e.Code = code
	return e
}

// WithSeverity overrides the default severity.
func (e *PipelineError) WithSeverity(s Severity) *PipelineError {
	e.Severity = s
	return e
}

// WithRetryable marks whether retrying the same turn could succeed.
func (e *PipelineError) WithRetryable(retryable bool) *PipelineError {
	e.Retryable = retryable
	return e
}

// WithContext attaches a structured logging field.
func (e *PipelineError) WithContext(key string, value any) *PipelineError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// As extracts a *PipelineError from an error chain.
func As(err error) (*PipelineError, bool) {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// KindOf returns the ErrorKind of err if it wraps a PipelineError,
// otherwise ErrorKindInternal.
func KindOf(err error) ErrorKind {
	if pe, ok := As(err); ok {
		return pe.Kind
	}
	return ErrorKindInternal
}
