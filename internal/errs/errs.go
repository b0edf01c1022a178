// Package errs defines the error-kind taxonomy every layer above it
// translates foreign errors (HTTP, pgx, context) into, per the propagation
// policy: clients classify, pipeline stages decide skip-vs-abort.
package errs

import (
	"errors"
	"fmt"
	"time"
)

// Kind is one of the error categories a caller can branch on with Is.
type Kind string

const (
	// TransientUpstream covers network failures, timeouts, and HTTP 5xx —
	// retried with backoff; on final failure a read-only stage continues
	// with partial data, a write stage aborts the run.
	TransientUpstream Kind = "transient_upstream"

	// RateLimited is an explicit HTTP 429. Counts toward circuit-breaker
	// failures; the caller should honor RetryAfter when set.
	RateLimited Kind = "rate_limited"

	// CircuitOpen is a resilience rejection: no retry, surfaced as
	// "unavailable".
	CircuitOpen Kind = "circuit_open"

	// BulkheadFull is a resilience rejection: no retry, surfaced as
	// "unavailable".
	BulkheadFull Kind = "bulkhead_full"

	// ParseError marks a malformed upstream record. The record is skipped;
	// log once per batch, not once per record.
	ParseError Kind = "parse_error"

	// InvariantViolation is a would-be write that breaks a store check
	// constraint. Treated as a bug: the whole stage rolls back.
	InvariantViolation Kind = "invariant_violation"

	// NotFound means the entity is missing on a read. Not an error
	// condition to log. The ImpactRisk client's FetchOne reports it as
	// nil, nil; repository GetByID and the query services' ByDesignation
	// return it as an error of this kind.
	NotFound Kind = "not_found"

	// SessionMisuse means a repository was used outside a Unit of Work
	// scope. Programming error; fatal.
	SessionMisuse Kind = "session_misuse"
)

// Error wraps a Kind, a message, and an optional cause.
type Error struct {
	Kind       Kind
	Message    string
	Cause      error
	RetryAfter time.Duration // only meaningful when Kind == RateLimited
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, or "" if err is not one of ours.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func new(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Transient builds a TransientUpstream error.
func Transient(message string, cause error) *Error {
	return new(TransientUpstream, message, cause)
}

// RateLimitedf builds a RateLimited error, carrying the Retry-After duration
// when the upstream supplied one (zero when it didn't).
func RateLimitedf(retryAfter time.Duration, message string, cause error) *Error {
	e := new(RateLimited, message, cause)
	e.RetryAfter = retryAfter
	return e
}

// CircuitOpenf builds a CircuitOpen error.
func CircuitOpenf(message string) *Error {
	return new(CircuitOpen, message, nil)
}

// BulkheadFullf builds a BulkheadFull error.
func BulkheadFullf(message string) *Error {
	return new(BulkheadFull, message, nil)
}

// Parse builds a ParseError.
func Parse(message string, cause error) *Error {
	return new(ParseError, message, cause)
}

// Invariant builds an InvariantViolation error.
func Invariant(message string, cause error) *Error {
	return new(InvariantViolation, message, cause)
}

// NotFoundf builds a NotFound error.
func NotFoundf(message string) *Error {
	return new(NotFound, message, nil)
}

// SessionMisusef builds a SessionMisuse error.
func SessionMisusef(message string) *Error {
	return new(SessionMisuse, message, nil)
}

// Retryable reports whether err should be retried by the backoff policy in
// internal/resilience: transient network/timeout failures and explicit rate
// limiting, nothing else.
func Retryable(err error) bool {
	k := KindOf(err)
	return k == TransientUpstream || k == RateLimited
}
