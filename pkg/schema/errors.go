package schema

import "fmt"

// Error codes for structured error reporting.
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeRender        = "RENDER_ERROR"
	ErrCodeInterpolation = "INTERPOLATION_ERROR"
	ErrCodeUpstream      = "UPSTREAM_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeConfig        = "CONFIG_ERROR"
)

// PlanloomError is the structured error type for all planloom operations.
// Upstream (remote engine) failures carry the remote status and message in
// Details and are propagated unchanged to the caller.
type PlanloomError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *PlanloomError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *PlanloomError) Unwrap() error {
	return e.Cause
}

// NewError creates a new PlanloomError.
func NewError(code, message string) *PlanloomError {
	return &PlanloomError{Code: code, Message: message}
}

// NewErrorf creates a new PlanloomError with a formatted message.
func NewErrorf(code, format string, args ...any) *PlanloomError {
	return &PlanloomError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause attaches an underlying cause.
func (e *PlanloomError) WithCause(err error) *PlanloomError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *PlanloomError) WithDetails(details map[string]any) *PlanloomError {
	e.Details = details
	return e
}
