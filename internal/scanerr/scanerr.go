// Package scanerr defines the closed error taxonomy for the scan path.
// Every error that crosses a component boundary (broker, cache, store,
// notifier, risk) is wrapped into one of these Kinds so callers can
// classify it with errors.As instead of matching on error text.
package scanerr

import (
	"errors"
	"fmt"
)

// Kind is one entry in the closed error taxonomy.
type Kind string

const (
	// KindTimeout: a deadline elapsed. Always recovered locally.
	KindTimeout Kind = "timeout"
	// KindTransient: network blip, 5xx, or rate-limit with no Retry-After.
	KindTransient Kind = "transient"
	// KindRateLimited: rate-limited, retry with backoff honoring any
	// provided delay.
	KindRateLimited Kind = "rate_limited"
	// KindUnauthorized: credentials invalid or expired.
	KindUnauthorized Kind = "unauthorized"
	// KindNotFound: instrument unknown or delisted.
	KindNotFound Kind = "not_found"
	// KindValidation: a candidate or signal violates an invariant.
	KindValidation Kind = "validation"
	// KindRiskRejected: the risk collaborator rejected a candidate.
	KindRiskRejected Kind = "risk_rejected"
	// KindPersistenceFailed: SignalStore.Create failed.
	KindPersistenceFailed Kind = "persistence_failed"
	// KindFatal: a startup configuration invariant failure.
	KindFatal Kind = "fatal"
)

// Error is a taxonomy-classified error, optionally carrying a retry delay
// (e.g. a broker's Retry-After header) and the wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Retry   *RetryHint
	Cause   error
}

// RetryHint carries a server-suggested backoff, when one was provided.
type RetryHint struct {
	AfterSeconds float64
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds a classified error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies cause under kind.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// WithRetryAfter attaches a server-suggested retry delay and returns e for
// chaining.
func (e *Error) WithRetryAfter(seconds float64) *Error {
	e.Retry = &RetryHint{AfterSeconds: seconds}
	return e
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, or "" if err isn't a *Error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// Retryable reports whether the taxonomy says this error kind should be
// retried by the caller: Transient and RateLimited are; everything else
// is handled locally without a retry loop.
func Retryable(err error) bool {
	k := KindOf(err)
	return k == KindTransient || k == KindRateLimited
}
