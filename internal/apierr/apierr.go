// Package apierr classifies failures from external collaborators.
//
// Every outbound call in the pipeline funnels its failures through this
// taxonomy: transient transport problems and rate limits are retried,
// client errors abort immediately, and contract violations (a negative
// duration, an unrepairable model response) propagate to the caller
// untouched because no retry can fix them.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// StatusError is a non-2xx response from an external API.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s returned status %d", e.Service, e.StatusCode)
}

// InvariantError is a contract violation: bad caller input or a collaborator
// response that cannot be coerced into a valid shape. Never retried.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string { return e.Msg }

// Invariantf builds an InvariantError from a format string.
func Invariantf(format string, args ...any) error {
	return &InvariantError{Msg: fmt.Sprintf(format, args...)}
}

// IsInvariant reports whether err is an InvariantError.
func IsInvariant(err error) bool {
	var inv *InvariantError
	return errors.As(err, &inv)
}

// IsRetryable reports whether err is worth retrying: network/timeout
// failures, HTTP 429, and server-side 5xx responses. Client errors other
// than 429 and invariant violations are fatal.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Per-call timeouts are transient. Checked before the context errors
	// because an http.Client timeout also matches context.DeadlineExceeded.
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if IsInvariant(err) {
		return false
	}

	var se *StatusError
	if errors.As(err, &se) {
		if se.StatusCode == http.StatusTooManyRequests {
			return true
		}
		if se.StatusCode >= 500 {
			return true
		}
		return false
	}

	if errors.As(err, &ne) {
		return true
	}

	// Unclassified errors are treated as transient.
	return true
}
