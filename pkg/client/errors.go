package client

import (
	"errors"

	"github.com/catalogkit/catalog-client/pkg/catalog"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")
)

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(errorClass catalog.ErrorClass) bool {
	switch errorClass {
	case catalog.ErrorClassClient, catalog.ErrorClassParse:
		// 4xx and malformed bodies do not get better on retry
		return false
	case catalog.ErrorClassServer:
		// 5xx server errors should be retried
		return true
	case catalog.ErrorClassRateLimit:
		// 429 responses should be retried after backoff
		return true
	case catalog.ErrorClassNetwork:
		// Network errors should be retried
		return true
	default:
		return false
	}
}
