// Package clients provides the resilient HTTP client used to reach the
// upstream quote API.
package clients

import "errors"

// Client errors represent transport failures. The ACL translates them to
// domain errors before they reach the application layer.
var (
	// ErrCircuitOpen is returned while the circuit breaker blocks requests.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded is returned after all retry attempts failed.
	// The last attempt's error is included in the message.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")

	// ErrRateLimited is returned when the request could not get a rate
	// limiter token before its context ended.
	ErrRateLimited = errors.New("rate limited")
)
