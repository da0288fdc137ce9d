// Package client holds the error taxonomy shared by the vision and collection
// API clients.
package client

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrUpstream      = errors.New("upstream error")
	ErrParse         = errors.New("parse error")
	ErrNetwork       = errors.New("network error")
)

// ConfigurationError reports a missing or invalid setting detected before any
// network call. It is not retryable without operator intervention.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrConfiguration, e.Setting, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// UpstreamError carries a non-success HTTP status and the raw response body.
type UpstreamError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("%s: %s: status %d", ErrUpstream, e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s: status %d: %s", ErrUpstream, e.Operation, e.StatusCode, body)
}

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// ParseError means a response did not contain a recoverable JSON object.
type ParseError struct {
	Operation string
	Err       error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrParse, e.Operation)
	}
	return fmt.Sprintf("%s: %s: %v", ErrParse, e.Operation, e.Err)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

func (e *ParseError) Unwrap() error { return e.Err }

// NetworkError wraps a transport-level failure.
type NetworkError struct {
	Operation string
	Err       error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrNetwork, e.Operation, e.Err)
}

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

func (e *NetworkError) Unwrap() error { return e.Err }

// StatusCode returns the upstream HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var up *UpstreamError
	if errors.As(err, &up) {
		return up.StatusCode
	}
	return 0
}

// UserMessage turns an error into the dismissable text shown to the user.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "Card identification is not configured. Set ANTHROPIC_API_KEY and try again."
	case errors.Is(err, ErrParse):
		return "Could not identify card. Try capturing the photo again."
	case errors.Is(err, ErrUpstream):
		if StatusCode(err) == 404 {
			return "The requested card was not found."
		}
		return fmt.Sprintf("The server returned an error (status %d). Please try again.", StatusCode(err))
	case errors.Is(err, ErrNetwork):
		return "Network error. Check your connection and try again."
	default:
		return "Something went wrong. Please try again."
	}
}
