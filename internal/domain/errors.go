// Package domain holds the quote session model: quotes, the per-user
// session state machine and the errors it reports. Nothing here knows
// about HTTP or storage; adapters translate these errors at their edge.
package domain

import (
	"errors"
	"fmt"
)

// Error categories. Adapters test for them with errors.Is and map them to
// status codes, so every typed error below unwraps to exactly one.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrForbidden       = errors.New("forbidden")
	ErrUnavailable     = errors.New("unavailable")
	ErrLoadFailure     = errors.New("load failure")
	ErrEmptyCollection = errors.New("empty quote collection")
	ErrPersistence     = errors.New("persistence failure")
)

// Session command errors.
var (
	// ErrNotReady rejects navigation and like commands outside the ready state.
	ErrNotReady = NewForbiddenError("session command", "session is not ready")

	// ErrLoadInFlight rejects a load while another is pending.
	ErrLoadInFlight = NewConflictError("session", "load already in flight")

	// ErrStaleLoad rejects the outcome of a superseded load ticket.
	ErrStaleLoad = NewConflictError("session", "stale load ticket")
)

// categorized is an error with a fixed message and a category sentinel.
type categorized struct {
	category error
	msg      string
}

func (e *categorized) Error() string { return e.msg }
func (e *categorized) Unwrap() error { return e.category }

// NotFoundError names a missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}

	return fmt.Sprintf("%s with id %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError reports that entity id does not exist.
func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// NewConflictError reports a state conflict on entity. An optional detail,
// such as the offending id, is appended in parentheses.
func NewConflictError(entity, reason string, details ...string) error {
	msg := entity + " conflict: " + reason
	if len(details) > 0 && details[0] != "" {
		msg += " (" + details[0] + ")"
	}

	return &categorized{category: ErrConflict, msg: msg}
}

// ValidationError names the field that broke a rule.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}

	return "validation failed for " + e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError reports that field violates message.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewForbiddenError reports that operation is not allowed now.
func NewForbiddenError(operation, reason string) error {
	msg := fmt.Sprintf("operation %q forbidden", operation)
	if reason != "" {
		msg += ": " + reason
	}

	return &categorized{category: ErrForbidden, msg: msg}
}

// NewUnavailableError reports that a dependency cannot be reached.
func NewUnavailableError(service, reason string) error {
	msg := fmt.Sprintf("service %q unavailable", service)
	if reason != "" {
		msg += ": " + reason
	}

	return &categorized{category: ErrUnavailable, msg: msg}
}

// LoadFailureError explains why a quote source produced no usable
// collection. It matches both ErrLoadFailure and its Cause.
type LoadFailureError struct {
	Source string
	Reason string
	Cause  error
}

func (e *LoadFailureError) Error() string {
	msg := "load failure"
	if e.Source != "" {
		msg = fmt.Sprintf("load from %q failed", e.Source)
	}

	for _, part := range []string{e.Reason, errText(e.Cause)} {
		if part != "" {
			msg += ": " + part
		}
	}

	return msg
}

func (e *LoadFailureError) Unwrap() []error { return withCause(ErrLoadFailure, e.Cause) }

// NewLoadFailureError reports a failed load from source.
func NewLoadFailureError(source, reason string, cause error) error {
	return &LoadFailureError{Source: source, Reason: reason, Cause: cause}
}

// PersistenceError is a failed store operation on one key. It matches
// both ErrPersistence and its Cause.
type PersistenceError struct {
	Op    string
	Key   string
	Cause error
}

func (e *PersistenceError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("persistence %s %q failed", e.Op, e.Key)
	}

	return fmt.Sprintf("persistence %s %q: %v", e.Op, e.Key, e.Cause)
}

func (e *PersistenceError) Unwrap() []error { return withCause(ErrPersistence, e.Cause) }

// NewPersistenceError reports that op on key failed.
func NewPersistenceError(op, key string, cause error) error {
	return &PersistenceError{Op: op, Key: key, Cause: cause}
}

func withCause(category, cause error) []error {
	if cause == nil {
		return []error{category}
	}

	return []error{category, cause}
}

func errText(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}

func IsNotFound(err error) bool        { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool        { return errors.Is(err, ErrConflict) }
func IsValidation(err error) bool      { return errors.Is(err, ErrValidation) }
func IsForbidden(err error) bool       { return errors.Is(err, ErrForbidden) }
func IsUnavailable(err error) bool     { return errors.Is(err, ErrUnavailable) }
func IsLoadFailure(err error) bool     { return errors.Is(err, ErrLoadFailure) }
func IsEmptyCollection(err error) bool { return errors.Is(err, ErrEmptyCollection) }
func IsPersistence(err error) bool     { return errors.Is(err, ErrPersistence) }
