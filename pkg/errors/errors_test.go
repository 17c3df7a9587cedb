package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := NewInvalidInputError("missing url parameter")
	if err.Error() != "INVALID_INPUT: missing url parameter" {
		t.Errorf("unexpected error string: %s", err.Error())
	}

	cause := errors.New("connection refused")
	wrapped := NewUpstreamError(cause, "playlist fetch failed")
	if wrapped.Error() != "UPSTREAM_ERROR: playlist fetch failed (caused by: connection refused)" {
		t.Errorf("unexpected wrapped error string: %s", wrapped.Error())
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("dial timeout")
	wrapped := NewRelayError(cause, "transcription backend unreachable")

	if !errors.Is(wrapped, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestConstructors_HTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code ErrorCode
		want int
	}{
		{"invalid input", NewInvalidInputError("bad"), ErrCodeInvalidInput, http.StatusBadRequest},
		{"not found", NewNotFoundError("stream not found or offline"), ErrCodeNotFound, http.StatusNotFound},
		{"policy violation", NewPolicyViolationError("host not allowed"), ErrCodePolicyViolation, http.StatusBadRequest},
		{"upstream", NewUpstreamError(nil, "fetch failed"), ErrCodeUpstream, http.StatusInternalServerError},
		{"relay", NewRelayError(nil, "backend error"), ErrCodeRelay, http.StatusBadGateway},
		{"rate limit", NewRateLimitError(), ErrCodeRateLimit, http.StatusTooManyRequests},
		{"internal", NewInternalError("boom"), ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.HTTPStatus != tt.want {
				t.Errorf("status = %d, want %d", tt.err.HTTPStatus, tt.want)
			}
		})
	}
}

func TestGetAppError(t *testing.T) {
	appErr := NewPolicyViolationError("host not allowed")
	chained := fmt.Errorf("proxy request failed: %w", appErr)

	got := GetAppError(chained)
	if got == nil {
		t.Fatal("expected AppError in chain")
	}
	if got.Code != ErrCodePolicyViolation {
		t.Errorf("code = %s, want %s", got.Code, ErrCodePolicyViolation)
	}

	if GetAppError(errors.New("plain")) != nil {
		t.Error("expected nil for plain error")
	}
	if GetAppError(nil) != nil {
		t.Error("expected nil for nil error")
	}
}

func TestWithContext(t *testing.T) {
	err := NewInvalidInputError("bad target").WithContext("url", "https://example.com")
	if err.Context["url"] != "https://example.com" {
		t.Error("expected context value to be stored")
	}
}
