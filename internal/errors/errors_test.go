package errors

import (
	"fmt"
	"testing"
)

func TestPulseError_Error(t *testing.T) {
	err := NewInvalidRequest("text is required")
	want := "INVALID_REQUEST: text is required"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *PulseError
		code   ErrorCode
		status int
	}{
		{"invalid request", NewInvalidRequest("bad"), ErrInvalidRequest, 400},
		{"not found", NewNotFound("doc-1"), ErrNotFound, 404},
		{"quota", NewQuotaExceeded("rate limit"), ErrQuotaExceeded, 429},
		{"transient", NewProviderTransient(fmt.Errorf("boom")), ErrProviderTransient, 502},
		{"permanent", NewProviderPermanent("gone"), ErrProviderPermanent, 422},
		{"store", NewStoreUnavailable(fmt.Errorf("locked")), ErrStoreUnavailable, 503},
		{"timeout", NewTimeout("deadline"), ErrTimeout, 504},
		{"internal", NewInternal(fmt.Errorf("oops")), ErrInternal, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.Status != tt.status {
				t.Errorf("Status = %d, want %d", tt.err.Status, tt.status)
			}
			if !Is(tt.err, tt.code) {
				t.Errorf("Is() = false for own code %q", tt.code)
			}
		})
	}
}

func TestNotFound_Details(t *testing.T) {
	err := NewNotFound("doc-42")
	if err.Details["identifier"] != "doc-42" {
		t.Errorf("Details = %v, want identifier doc-42", err.Details)
	}
}

func TestNilWrappedErrors(t *testing.T) {
	if got := NewProviderTransient(nil).Message; got != "transient provider error" {
		t.Errorf("nil transient message = %q", got)
	}
	if got := NewStoreUnavailable(nil).Message; got != "corpus store unavailable" {
		t.Errorf("nil store message = %q", got)
	}
	if got := NewInternal(nil).Message; got != "internal error" {
		t.Errorf("nil internal message = %q", got)
	}
}

func TestIs(t *testing.T) {
	if Is(fmt.Errorf("plain error"), ErrInternal) {
		t.Error("Is() matched a non-PulseError")
	}
	if Is(nil, ErrInternal) {
		t.Error("Is() matched nil")
	}
	if Is(NewTimeout("x"), ErrInvalidRequest) {
		t.Error("Is() matched wrong code")
	}
}

func TestRetryable(t *testing.T) {
	if !Retryable(NewProviderTransient(nil)) {
		t.Error("transient errors should be retryable")
	}
	if Retryable(NewProviderPermanent("gone")) {
		t.Error("permanent errors should not be retryable")
	}
	if Retryable(NewQuotaExceeded("quota")) {
		t.Error("quota errors should not be retryable")
	}
}
