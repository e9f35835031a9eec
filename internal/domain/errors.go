package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeEmptyContent        = "EMPTY_CONTENT"
	ErrCodeUnsupportedFileType = "UNSUPPORTED_FILE_TYPE"
	ErrCodeProviderUnavailable = "PROVIDER_UNAVAILABLE"
	ErrCodeProviderError       = "PROVIDER_ERROR"
	ErrCodeDimensionMismatch   = "DIMENSION_MISMATCH"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// User input errors, surfaced to the caller as-is and never retried
var (
	ErrEmptyContent         = NewDomainError(ErrCodeEmptyContent, "content is empty")
	ErrUnsupportedFileType  = NewDomainError(ErrCodeUnsupportedFileType, "unsupported file type, only PDF, Markdown and plain text are supported")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
	ErrInvalidRepoURL       = NewDomainError(ErrCodeValidation, "invalid GitHub repository URL")
)

// Provider errors. Both degrade to the heuristic fallback path except
// where a strict dimensional contract is violated.
var (
	ErrProviderUnavailable = NewDomainError(ErrCodeProviderUnavailable, "model provider is not configured")
	ErrProviderCallFailed  = NewDomainError(ErrCodeProviderError, "model provider call failed")
	ErrDimensionMismatch   = NewDomainError(ErrCodeDimensionMismatch, "vector has wrong dimensions")
)

// Not found errors
var (
	ErrChunkNotFound  = NewDomainError(ErrCodeNotFound, "knowledge chunk not found")
	ErrSourceNotFound = NewDomainError(ErrCodeNotFound, "knowledge source not found")
)
