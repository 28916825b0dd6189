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
	}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeUpstream      = "UPSTREAM_ERROR"
	ErrCodeTimeout       = "UPSTREAM_TIMEOUT"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyDocument     = NewDomainError(ErrCodeValidation, "document contains no text after trimming")
	ErrDimensionMismatch = NewDomainError(ErrCodeValidation, "embedding dimension does not match collection")
)

// Not found errors
var (
	ErrCollectionNotFound = NewDomainError(ErrCodeNotFound, "collection has never been written")
	ErrNoContext          = NewDomainError(ErrCodeNotFound, "no passages available to ground an answer")
)

// Upstream provider errors, surfaced after local retries are exhausted
var (
	ErrEmbeddingProvider = NewDomainError(ErrCodeUpstream, "embedding provider request failed")
	ErrGeneration        = NewDomainError(ErrCodeUpstream, "generative model request failed")
	ErrUpstreamTimeout   = NewDomainError(ErrCodeTimeout, "upstream provider timed out")
)
