package llmprovider

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
)

func TestHTTPStatusError_Classification(t *testing.T) {
	tests := []struct {
		status   int
		sentinel error
		message  string
	}{
		{401, ErrInvalidAPIKey, MessageAuthFailed},
		{403, ErrInvalidAPIKey, MessageAuthFailed},
		{429, ErrRateLimited, MessageRateLimited},
		{404, ErrNotFound, MessageNotFound},
		{500, ErrProviderUnavailable, MessageServerError},
		{503, ErrProviderUnavailable, MessageServerError},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", &HTTPStatusError{Provider: "test", StatusCode: tt.status, Body: "body"})

			if !errors.Is(err, ErrHTTPStatus) {
				t.Error("expected errors.Is(err, ErrHTTPStatus)")
			}
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("expected errors.Is(err, %v)", tt.sentinel)
			}
			if errors.Is(err, ErrNetwork) {
				t.Error("status errors must not be network errors")
			}
			if got := UserMessage(err); got != tt.message {
				t.Errorf("UserMessage() = %q, want %q", got, tt.message)
			}
			if got := StatusCode(err); got != tt.status {
				t.Errorf("StatusCode() = %d, want %d", got, tt.status)
			}
		})
	}
}

func TestHTTPStatusError_UnclassifiedStatus(t *testing.T) {
	err := &HTTPStatusError{Provider: "test", StatusCode: 418, Body: "teapot"}

	if !errors.Is(err, ErrHTTPStatus) {
		t.Error("expected errors.Is(err, ErrHTTPStatus)")
	}
	if got := UserMessage(err); got != MessageGeneric {
		t.Errorf("UserMessage() = %q, want generic", got)
	}
	if err.Error() != "provider 'test' error (status 418): teapot" {
		t.Errorf("unexpected Error() %q", err.Error())
	}
}

func TestNetworkError(t *testing.T) {
	err := &NetworkError{Provider: "test", Err: syscall.ECONNREFUSED}

	if !errors.Is(err, ErrNetwork) {
		t.Error("expected errors.Is(err, ErrNetwork)")
	}
	if !errors.Is(err, syscall.ECONNREFUSED) {
		t.Error("expected the transport cause to be reachable")
	}
	if !IsTransportError(err) {
		t.Error("network errors are transport errors")
	}
	if got := UserMessage(err); got != MessageNetworkError {
		t.Errorf("UserMessage() = %q, want %q", got, MessageNetworkError)
	}
}

func TestDecodeError(t *testing.T) {
	cause := errors.New("unexpected end of JSON input")
	err := &DecodeError{Provider: "test", Body: "{", Err: cause}

	if !errors.Is(err, ErrDecode) || !errors.Is(err, cause) {
		t.Error("expected both ErrDecode and the cause")
	}
	if got := UserMessage(err); got != MessageBadResponse {
		t.Errorf("UserMessage() = %q, want %q", got, MessageBadResponse)
	}
}

func TestUserMessage_Validation(t *testing.T) {
	err := &ValidationError{Field: "major", Reason: "请选择论文专业", Err: ErrInvalidRequest}

	if got := UserMessage(err); got != "请选择论文专业" {
		t.Errorf("UserMessage() = %q", got)
	}
	if !IsInvalidRequest(err) {
		t.Error("expected IsInvalidRequest")
	}
	if IsTransportError(err) {
		t.Error("validation errors are not transport errors")
	}
}

func TestUserMessage_Misc(t *testing.T) {
	if UserMessage(nil) != "" {
		t.Error("nil error should map to empty message")
	}
	if UserMessage(context.Canceled) != MessageCanceled {
		t.Error("expected canceled message")
	}
	if UserMessage(errors.New("boom")) != MessageGeneric {
		t.Error("expected generic message")
	}
	if !IsAuthError(ErrInvalidAPIKey) {
		t.Error("ErrInvalidAPIKey should be an auth error")
	}
}
