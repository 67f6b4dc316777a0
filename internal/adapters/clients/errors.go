// Package clients is the resilient HTTP client quotectl uses to reach the
// quote service.
package clients

import "errors"

// Transport-level failures. The acl package turns them into domain errors.
var (
	ErrCircuitOpen        = errors.New("circuit breaker open")
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
