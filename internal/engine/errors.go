// internal/engine/errors.go
package engine

import (
	"errors"
	"fmt"
)

// Common resolution errors
var (
	ErrMissingURL     = errors.New("missing URL")
	ErrInvalidURL     = errors.New("invalid URL format")
	ErrTimeout        = errors.New("resolution timeout")
	ErrUpstreamShape  = errors.New("unrecognized upstream response shape")
	ErrProcessFailed  = errors.New("extraction process failed")
	ErrMalformedJSON  = errors.New("extraction output is not valid JSON")
	ErrExternalFailed = errors.New("external resolution failed")
)

// ErrorCode identifies a specific failure in the resolution pipeline.
type ErrorCode string

const (
	ErrCodeMissingURL        ErrorCode = "MISSING_URL"
	ErrCodeInvalidURL        ErrorCode = "INVALID_URL"
	ErrCodeExternalTimeout   ErrorCode = "EXTERNAL_TIMEOUT"
	ErrCodeExternalHTTP      ErrorCode = "EXTERNAL_HTTP"
	ErrCodeExternalFailed    ErrorCode = "EXTERNAL_FAILED"
	ErrCodeUnrecognizedShape ErrorCode = "UNRECOGNIZED_SHAPE"
	ErrCodeFallbackTimeout   ErrorCode = "FALLBACK_TIMEOUT"
	ErrCodeFallbackProcess   ErrorCode = "FALLBACK_PROCESS"
	ErrCodeFallbackOutput    ErrorCode = "FALLBACK_OUTPUT"
)

// ResolveError wraps resolution failures with stage context.
type ResolveError struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Details    map[string]interface{}
}

// Error implements the error interface
func (e *ResolveError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *ResolveError) Unwrap() error {
	return e.Underlying
}

// Is checks if the error matches the target
func (e *ResolveError) Is(target error) bool {
	if t, ok := target.(*ResolveError); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// NewResolveError creates a new ResolveError
func NewResolveError(code ErrorCode, message string, err error) *ResolveError {
	return &ResolveError{
		Code:       code,
		Message:    message,
		Underlying: err,
		Details:    make(map[string]interface{}),
	}
}

// WithDetail adds a detail to the error
func (e *ResolveError) WithDetail(key string, value interface{}) *ResolveError {
	e.Details[key] = value
	return e
}

// CodeOf extracts the ErrorCode from err, or "" when err carries none.
func CodeOf(err error) ErrorCode {
	var re *ResolveError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsInputError reports whether err is a client input error (missing or
// malformed URL) rather than a resolution failure.
func IsInputError(err error) bool {
	switch CodeOf(err) {
	case ErrCodeMissingURL, ErrCodeInvalidURL:
		return true
	}
	return false
}
