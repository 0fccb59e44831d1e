package errors

import "fmt"

// ErrorCode represents a Pulse error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"    // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"          // 404
	ErrQuotaExceeded     ErrorCode = "QUOTA_EXCEEDED"     // 429
	ErrProviderTransient ErrorCode = "PROVIDER_TRANSIENT" // 502
	ErrProviderPermanent ErrorCode = "PROVIDER_PERMANENT" // 422
	ErrStoreUnavailable  ErrorCode = "STORE_UNAVAILABLE"  // 503
	ErrTimeout           ErrorCode = "TIMEOUT"            // 504
	ErrInternal          ErrorCode = "INTERNAL"           // 500
)

// PulseError represents a structured error with code, status, and details.
type PulseError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *PulseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *PulseError {
	return &PulseError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing document.
func NewNotFound(identifier string) *PulseError {
	return &PulseError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("document not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewQuotaExceeded creates a 429 error for provider quota/rate-limit signals.
// Quota errors pause an acquisition run; they must not be retried as
// generic transient failures.
func NewQuotaExceeded(msg string) *PulseError {
	return &PulseError{
		Code:    ErrQuotaExceeded,
		Status:  429,
		Message: msg,
	}
}

// NewProviderTransient creates a 502 error for retryable provider failures
// (network errors, 5xx responses).
func NewProviderTransient(err error) *PulseError {
	msg := "transient provider error"
	if err != nil {
		msg = err.Error()
	}
	return &PulseError{
		Code:    ErrProviderTransient,
		Status:  502,
		Message: msg,
	}
}

// NewProviderPermanent creates a 422 error for content the provider will
// never return (e.g. a video with transcripts disabled). Not retryable.
func NewProviderPermanent(msg string) *PulseError {
	return &PulseError{
		Code:    ErrProviderPermanent,
		Status:  422,
		Message: msg,
	}
}

// NewStoreUnavailable creates a 503 error when the corpus store cannot be
// reached. Fatal to the current operation; never converted into an empty
// result set.
func NewStoreUnavailable(err error) *PulseError {
	msg := "corpus store unavailable"
	if err != nil {
		msg = err.Error()
	}
	return &PulseError{
		Code:    ErrStoreUnavailable,
		Status:  503,
		Message: msg,
	}
}

// NewTimeout creates a 504 error for an expired caller deadline.
func NewTimeout(msg string) *PulseError {
	return &PulseError{
		Code:    ErrTimeout,
		Status:  504,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *PulseError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &PulseError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a PulseError with the given code.
func Is(err error, code ErrorCode) bool {
	if pErr, ok := err.(*PulseError); ok {
		return pErr.Code == code
	}
	return false
}

// Retryable reports whether the error represents a failure worth retrying
// on a later acquisition run.
func Retryable(err error) bool {
	return Is(err, ErrProviderTransient)
}
