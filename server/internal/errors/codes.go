package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies failures for logs and API payloads.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeUnauthorized indicates a failed webhook verification.
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	// ErrCodeRateLimited indicates the sender exceeded the message rate.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
	// ErrCodeClassificationFailed indicates the model could not classify a message.
	ErrCodeClassificationFailed ErrorCode = "CLASSIFICATION_FAILED"
	// ErrCodeRetrievalFailed indicates a catalog backend fault.
	ErrCodeRetrievalFailed ErrorCode = "RETRIEVAL_FAILED"
	// ErrCodePersistenceFailed indicates a best-effort write failed.
	ErrCodePersistenceFailed ErrorCode = "PERSISTENCE_FAILED"
	// ErrCodeProviderError indicates a language model provider failure.
	ErrCodeProviderError ErrorCode = "PROVIDER_ERROR"
	// ErrCodeNotConfigured indicates a required setting is missing.
	ErrCodeNotConfigured ErrorCode = "NOT_CONFIGURED"
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// AppError is a failure with a stable code.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the code to a response status.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeInvalidArgument:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusForbidden
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *AppError {
	return &AppError{Code: ErrCodeInvalidArgument, Message: msg}
}

// Unauthorized creates an unauthorized error.
func Unauthorized(msg string) *AppError {
	return &AppError{Code: ErrCodeUnauthorized, Message: msg}
}

// RateLimited creates a rate limited error.
func RateLimited(msg string) *AppError {
	return &AppError{Code: ErrCodeRateLimited, Message: msg}
}

// NotConfigured creates a missing configuration error.
func NotConfigured(msg string) *AppError {
	return &AppError{Code: ErrCodeNotConfigured, Message: msg}
}

// Wrap wraps an existing error with a code.
func Wrap(cause error, code ErrorCode, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: cause}
}

// GetCodeFromError extracts the code from any error in the chain.
// Returns defaultCode when there is none.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return defaultCode
}
