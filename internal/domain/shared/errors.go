// Package shared contains common domain types and errors used across all
// domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation   = errors.New("validation error")
	ErrInvalidID    = errors.New("invalid ID")
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptyValue   = errors.New("value cannot be empty")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrExpired          = errors.New("expired")

	// External service errors. A Transient failure is retried on the next
	// poll cycle, never immediately; a Permanent failure means the remote
	// entity is gone or unusable and the mapping should be dropped.
	ErrTransient   = errors.New("transient failure")
	ErrPermanent   = errors.New("permanent failure")
	ErrUnavailable = errors.New("service unavailable")
	ErrMalformed   = errors.New("malformed response")
	ErrTimeout     = errors.New("operation timeout")
	ErrRateLimited = errors.New("rate limited")

	// Delivery errors. Never retried by the monitoring core; surfaced
	// per-recipient for logging only.
	ErrDeliveryFailed       = errors.New("delivery failed")
	ErrRecipientUnreachable = errors.New("recipient unreachable")
)

// IsTransient reports whether err should be retried on the next natural cycle.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient) ||
		errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrMalformed) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsPermanent reports whether err indicates the remote entity is gone for good.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent) || errors.Is(err, ErrNotFound)
}

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "course", "subscription", "monitor"
	Op      string // Operation that failed, e.g., "Fetch", "Diff"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Course domain errors
var (
	ErrCourseNotFound   = NewDomainError("course", "Fetch", ErrNotFound, "course not found upstream")
	ErrInvalidCourseID  = NewDomainError("course", "Validate", ErrInvalidID, "invalid course ID")
	ErrCourseUnfetched  = NewDomainError("course", "Diff", ErrInvalidState, "no snapshot fetched for course")
	ErrSnapshotMismatch = NewDomainError("course", "Diff", ErrInvalidInput, "snapshot belongs to a different course")
)

// Subscription domain errors
var (
	ErrSubscriberNotFound = NewDomainError("subscription", "Find", ErrNotFound, "subscriber not found")
	ErrAlreadySubscribed  = NewDomainError("subscription", "Subscribe", ErrAlreadyExists, "already subscribed to course")
	ErrNotSubscribed      = NewDomainError("subscription", "Unsubscribe", ErrNotFound, "not subscribed to course")
	ErrInvalidRecipient   = NewDomainError("subscription", "Validate", ErrInvalidID, "invalid recipient ID")
)
