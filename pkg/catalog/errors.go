package catalog

import (
	"errors"
	"fmt"
)

// ErrorClass classifies fetch failures for handling and observability.
type ErrorClass string

const (
	// ErrorClassNetwork represents transport failures and timeouts.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassParse represents a response body not in the expected shape.
	ErrorClassParse ErrorClass = "parse"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassRateLimit represents requests rejected by the remote
	// rate limit (HTTP 429).
	ErrorClassRateLimit ErrorClass = "rate_limit"
)

// Error is a classified catalog fetch failure.
type Error struct {
	Class      ErrorClass
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catalog %s error (status %d): %s: %v",
			e.Class, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("catalog %s error (status %d): %s",
		e.Class, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// classOf extracts the error class, or "" for foreign errors.
func classOf(err error) ErrorClass {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Class
	}
	return ""
}

// IsNetwork reports whether err is a transport-level fetch failure.
func IsNetwork(err error) bool {
	return classOf(err) == ErrorClassNetwork
}

// IsParse reports whether err is a malformed-response failure.
func IsParse(err error) bool {
	return classOf(err) == ErrorClassParse
}
