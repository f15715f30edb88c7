package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Stocker error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrFileNotFound   ErrorCode = "FILE_NOT_FOUND"  // 404
	ErrImageTooLarge  ErrorCode = "IMAGE_TOO_LARGE" // 413
	ErrDecodeFailed   ErrorCode = "DECODE_FAILED"   // 422
	ErrCancelled      ErrorCode = "CANCELLED"       // 499
	ErrInternal       ErrorCode = "INTERNAL"        // 500
	ErrStorageFailure ErrorCode = "STORAGE_FAILURE" // 507
)

// StockerError represents a structured error with code, status, and details.
type StockerError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	// cause is kept for errors.Unwrap but never rendered to callers.
	cause error
}

// Error implements the error interface.
func (e *StockerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *StockerError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *StockerError {
	return &StockerError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a prompt cannot be found.
func NewNotFound(id string) *StockerError {
	return &StockerError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("prompt not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *StockerError {
	return &StockerError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewImageTooLarge creates a 413 error when an image exceeds the configured limit.
func NewImageTooLarge(max, actual int) *StockerError {
	return &StockerError{
		Code:    ErrImageTooLarge,
		Status:  413,
		Message: fmt.Sprintf("image exceeds maximum size: %d bytes (max %d)", actual, max),
		Details: map[string]any{"max_bytes": max, "actual_bytes": actual},
	}
}

// NewDecodeFailed creates a 422 error for an image payload that could not be decoded.
func NewDecodeFailed(id string, err error) *StockerError {
	msg := "invalid image data"
	if err != nil {
		msg = fmt.Sprintf("invalid image data: %v", err)
	}
	return &StockerError{
		Code:    ErrDecodeFailed,
		Status:  422,
		Message: msg,
		Details: map[string]any{"id": id},
		cause:   err,
	}
}

// NewCancelled creates a 499 error for an operation aborted by its context.
func NewCancelled(op string) *StockerError {
	return &StockerError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewStorageFailure creates a 507 error for a failed read or write against the
// underlying storage engine (quota, corruption, engine unavailable).
func NewStorageFailure(err error) *StockerError {
	msg := "storage failure"
	if err != nil {
		msg = fmt.Sprintf("storage failure: %v", err)
	}
	return &StockerError{
		Code:    ErrStorageFailure,
		Status:  507,
		Message: msg,
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *StockerError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &StockerError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is (or wraps) a StockerError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *StockerError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}

// As returns the StockerError carried by err, if any.
func As(err error) (*StockerError, bool) {
	var sErr *StockerError
	if stderrors.As(err, &sErr) {
		return sErr, true
	}
	return nil, false
}
