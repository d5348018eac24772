package errors

import (
	"errors"
	"fmt"
)

// Error types for the migration pipeline
type ErrorType string

const (
	// ErrorTypeTransfer covers per-object download/upload failures, recovered
	// locally by omission from the manifest or URL mapping, and destination
	// batch-commit failures, recovered per collection.
	ErrorTypeTransfer ErrorType = "TRANSFER_ERROR"
	// ErrorTypeSerialization covers malformed or missing collection files at
	// import. Recovered per collection.
	ErrorTypeSerialization ErrorType = "SERIALIZATION_ERROR"
	// ErrorTypeCapacity covers destination write-batch limits. Prevented
	// structurally by pre-sizing commit units.
	ErrorTypeCapacity ErrorType = "CAPACITY_ERROR"
	// ErrorTypeConfiguration covers missing snapshot directories, manifests and
	// invalid settings. Fatal before any partial work begins.
	ErrorTypeConfiguration ErrorType = "CONFIGURATION_ERROR"
	ErrorTypeInternal      ErrorType = "INTERNAL_ERROR"
)

// Common pipeline errors
var (
	ErrSnapshotNotFound   = errors.New("snapshot directory not found")
	ErrSnapshotExists     = errors.New("snapshot directory already written")
	ErrManifestNotFound   = errors.New("blob manifest not found")
	ErrCollectionNotFound = errors.New("collection file not found")
	ErrObjectNotFound     = errors.New("object not found")
	ErrBatchSizeExceeded  = errors.New("write batch size exceeds destination limit")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// AppError represents a pipeline error with context
type AppError struct {
	Type      ErrorType              `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Component string                 `json:"component,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new pipeline error
func NewAppError(errorType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errorType,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithCause adds the underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithComponent adds the component name
func (e *AppError) WithComponent(component string) *AppError {
	e.Component = component
	return e
}

// WithDetail adds a detail field
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Common error constructors

// NewTransferError creates a per-object transfer error
func NewTransferError(message string) *AppError {
	return NewAppError(ErrorTypeTransfer, message)
}

// NewSerializationError creates a serialization error
func NewSerializationError(message string) *AppError {
	return NewAppError(ErrorTypeSerialization, message)
}

// NewCapacityError creates a capacity error
func NewCapacityError(message string) *AppError {
	return NewAppError(ErrorTypeCapacity, message)
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(message string) *AppError {
	return NewAppError(ErrorTypeConfiguration, message)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, message)
}

// Helper functions for common error scenarios

// WrapError wraps an error with context
func WrapError(err error, message string) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return NewInternalError(message).WithCause(err)
}

// IsTransfer checks if an error is a transfer error
func IsTransfer(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeTransfer
	}
	return false
}

// IsSerialization checks if an error is a serialization error
func IsSerialization(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeSerialization
	}
	return false
}

// IsConfiguration checks if an error is a configuration error
func IsConfiguration(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeConfiguration
	}
	return errors.Is(err, ErrSnapshotNotFound) || errors.Is(err, ErrManifestNotFound) || errors.Is(err, ErrInvalidConfig)
}

// IsNotFound checks if an error reports a missing snapshot artifact
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSnapshotNotFound) || errors.Is(err, ErrManifestNotFound) ||
		errors.Is(err, ErrCollectionNotFound) || errors.Is(err, ErrObjectNotFound)
}
