package errs

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors for the conditions the API surface maps to status codes.
var (
	// ErrNotFound means the identity lookup matched no account.
	ErrNotFound = errors.New("account not found")

	// ErrUnauthenticated means no valid verification credential is stored
	// for the account. The user must re-run the phrase handshake.
	ErrUnauthenticated = errors.New("authentication expired, please verify again")

	// ErrVerificationFailed means the verify call succeeded but Rolimon's
	// did not return a verification cookie.
	ErrVerificationFailed = errors.New("verification failed: no cookie returned")

	// ErrCacheUnavailable means the cache itself could not be reached on a
	// path where the cached value cannot be reconstructed any other way.
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// UpstreamError captures a transport failure or non-2xx response from one of
// the external services, including the upstream's own error detail when it
// can be extracted from the body.
type UpstreamError struct {
	Service    string
	StatusCode int
	Detail     string
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: unexpected status %d: %s", e.Service, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Detail)
}

// Upstream wraps a transport-level error from a named service.
func Upstream(service string, err error) *UpstreamError {
	return &UpstreamError{Service: service, Detail: err.Error()}
}

// UpstreamStatus builds an UpstreamError from a non-2xx response body,
// preferring the "message" field many APIs carry.
func UpstreamStatus(service string, statusCode int, body []byte) *UpstreamError {
	detail := string(body)
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		detail = parsed.Message
	}
	return &UpstreamError{Service: service, StatusCode: statusCode, Detail: detail}
}
