// Package errors holds the application-wide error taxonomy: a generic
// AppError for internal faults (errors.As-compatible, Unwrap-capable) and a
// SimulatedError type for the wire-level failures LLMSim deliberately
// produces (spec §7).
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies an AppError by cause.
type ErrorCode string

const (
	CodeInvalidInput ErrorCode = "INVALID_INPUT"
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// AppError wraps an internal fault (tokenizer load failure, config fault)
// with a code and an optional underlying cause, without leaking that cause
// to the client — callers log it and return a generic message instead, per
// spec §7.6.
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewInternalError builds an internal-fault AppError with no underlying
// cause.
func NewInternalError(message string) *AppError {
	return &AppError{Code: CodeInternal, Message: message}
}

// NewInternalErrorWithCause builds an internal-fault AppError wrapping
// cause, for logging; the client-facing message stays generic.
func NewInternalErrorWithCause(message string, cause error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Err: cause}
}

// SimulatedKind is the wire-level error type an injected or validation
// failure is reported as, matching the provider error body's "type" field.
type SimulatedKind string

const (
	SimulatedRateLimit  SimulatedKind = "rate_limit_error"
	SimulatedServer     SimulatedKind = "server_error"
	SimulatedTimeout    SimulatedKind = "timeout_error"
	SimulatedInvalidReq SimulatedKind = "invalid_request_error"
)

// SimulatedErrorCode is the short machine-readable code nested in the error
// body alongside SimulatedKind.
type SimulatedErrorCode string

const (
	CodeRateLimitExceeded SimulatedErrorCode = "rate_limit_exceeded"
	CodeServerError       SimulatedErrorCode = "server_error"
	CodeTimeout           SimulatedErrorCode = "timeout"
	CodeInvalidRequest    SimulatedErrorCode = "invalid_request"
)

// SimulatedError is a deliberately-produced failure: either the error
// injector's roll, or a request validation failure. It carries the HTTP
// status and wire body shape directly, since callers serialize it verbatim
// rather than mapping an internal code to a status.
type SimulatedError struct {
	HTTPStatus int
	Kind       SimulatedKind
	Code       SimulatedErrorCode
	Message    string
}

func (e *SimulatedError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.HTTPStatus, e.Message)
}

// NewRateLimitError builds the 429 rate-limit SimulatedError.
func NewRateLimitError() *SimulatedError {
	return &SimulatedError{
		HTTPStatus: 429,
		Kind:       SimulatedRateLimit,
		Code:       CodeRateLimitExceeded,
		Message:    "Rate limit exceeded. Please retry after a short delay.",
	}
}

// NewServerError builds a 500 or 503 SimulatedError for status.
func NewServerError(status int) *SimulatedError {
	return &SimulatedError{
		HTTPStatus: status,
		Kind:       SimulatedServer,
		Code:       CodeServerError,
		Message:    "The server encountered an error while processing your request.",
	}
}

// NewTimeoutError builds the 504 timeout SimulatedError.
func NewTimeoutError() *SimulatedError {
	return &SimulatedError{
		HTTPStatus: 504,
		Kind:       SimulatedTimeout,
		Code:       CodeTimeout,
		Message:    "The request timed out before a response could be generated.",
	}
}

// NewValidationError builds a 400 SimulatedError for a malformed request.
func NewValidationError(message string) *SimulatedError {
	return &SimulatedError{
		HTTPStatus: 400,
		Kind:       SimulatedInvalidReq,
		Code:       CodeInvalidRequest,
		Message:    message,
	}
}

// IsSimulatedError reports whether err is a SimulatedError and returns it.
func IsSimulatedError(err error) (*SimulatedError, bool) {
	var simErr *SimulatedError
	if errors.As(err, &simErr) {
		return simErr, true
	}
	return nil, false
}
