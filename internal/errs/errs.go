// Package errs defines the error kinds shared across the match engine.
//
// The HTTP layer translates these kinds into status codes; the engine's
// only obligation is to classify failures correctly.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthRequired means a credential is missing, invalid or expired and
	// the user must log in again. The affected slot's stored credential and
	// profile are always purged before this error surfaces.
	ErrAuthRequired = errors.New("authentication required")

	// ErrTokenRefreshFailed is a transient refresh failure. The stored
	// credential is retained so the next request can retry.
	ErrTokenRefreshFailed = errors.New("token refresh failed")

	// ErrRateLimited means the upstream provider is throttling us.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrUpstreamTimeout means an upstream request exceeded its timeout.
	ErrUpstreamTimeout = errors.New("upstream request timed out")

	// ErrMissingInput means data required for a computation is absent,
	// e.g. no cached analysis when a playlist is requested.
	ErrMissingInput = errors.New("missing input data")
)

// UpstreamError is a generic upstream failure carrying the endpoint that
// produced it. Status is zero when the failure happened before a response
// was received.
type UpstreamError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream error from %s: status %d: %s", e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("upstream error from %s: %s", e.Endpoint, e.Message)
}
