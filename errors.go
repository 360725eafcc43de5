package llmprovider

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common failure modes.
// These can be checked with errors.Is().
var (
	// ErrNetwork indicates a transport failure: no response was received, or
	// the connection dropped while the body was being read.
	ErrNetwork = errors.New("llmprovider: network failure")

	// ErrHTTPStatus indicates a response with a status outside 2xx.
	ErrHTTPStatus = errors.New("llmprovider: unexpected HTTP status")

	// ErrDecode indicates a malformed non-streamed response body.
	ErrDecode = errors.New("llmprovider: malformed response body")

	// ErrInvalidAPIKey indicates the API key is missing, malformed, or unauthorized.
	ErrInvalidAPIKey = errors.New("llmprovider: invalid API key")

	// ErrRateLimited indicates the provider's rate limit has been exceeded.
	ErrRateLimited = errors.New("llmprovider: rate limit exceeded")

	// ErrNotFound indicates the endpoint URL or model id does not exist.
	ErrNotFound = errors.New("llmprovider: endpoint not found")

	// ErrInvalidRequest indicates the request parameters are invalid.
	ErrInvalidRequest = errors.New("llmprovider: invalid request")

	// ErrProviderUnavailable indicates the provider returned a server error.
	ErrProviderUnavailable = errors.New("llmprovider: provider unavailable")
)

// NetworkError represents a transport-level failure.
type NetworkError struct {
	Provider string // The provider name
	Err      error  // Underlying transport error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("provider '%s' network error: %v", e.Provider, e.Err)
}

// Unwrap exposes both the ErrNetwork class and the transport cause.
func (e *NetworkError) Unwrap() []error {
	return []error{ErrNetwork, e.Err}
}

// HTTPStatusError represents a response received with a non-2xx status.
// The body is captured for diagnostics and never parsed as a stream.
type HTTPStatusError struct {
	Provider   string // The provider name
	StatusCode int    // HTTP status code
	Body       string // Raw response body (bounded)
	Message    string // Error message extracted from a JSON error body, if any
}

func (e *HTTPStatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Body
	}
	return fmt.Sprintf("provider '%s' error (status %d): %s", e.Provider, e.StatusCode, msg)
}

// Is reports true for ErrHTTPStatus regardless of the status class.
func (e *HTTPStatusError) Is(target error) bool {
	return target == ErrHTTPStatus
}

// Unwrap returns the sentinel matching the status class, or nil.
func (e *HTTPStatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return ErrInvalidAPIKey
	case e.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode == http.StatusBadRequest:
		return ErrInvalidRequest
	case e.StatusCode >= http.StatusInternalServerError:
		return ErrProviderUnavailable
	default:
		return nil
	}
}

// DecodeError represents a non-streamed body that could not be decoded.
type DecodeError struct {
	Provider string // The provider name
	Body     string // Raw body (bounded)
	Err      error  // Parse error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("provider '%s' returned malformed response: %v", e.Provider, e.Err)
}

// Unwrap exposes both the ErrDecode class and the parse cause.
func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}

// ValidationError represents an error in request or profile validation.
type ValidationError struct {
	Field  string // The field that failed validation
	Value  any    // The invalid value
	Reason string // Human-readable explanation
	Err    error  // Wrapped error (usually ErrInvalidRequest)
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation failed for '%s' (value: %v): %s (%v)", e.Field, e.Value, e.Reason, e.Err)
	}
	return fmt.Sprintf("validation failed for '%s' (value: %v): %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	return 0
}

// IsInvalidRequest checks if an error indicates invalid request parameters.
// These errors require request changes.
func IsInvalidRequest(err error) bool {
	if err == nil {
		return false
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return true
	}

	return errors.Is(err, ErrInvalidRequest)
}

// IsAuthError checks if an error is related to authentication.
func IsAuthError(err error) bool {
	return err != nil && errors.Is(err, ErrInvalidAPIKey)
}

// IsTransportError reports whether err came from the exchange with the
// endpoint (network, status or decode) rather than from caller input.
func IsTransportError(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrHTTPStatus) || errors.Is(err, ErrDecode)
}
