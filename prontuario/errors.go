/*
errors.go - Centralized error types for the personnel record engine

PURPOSE:
  All event-command error types in one place. Callers (the HTTP surface,
  persistence adapters) branch with errors.Is against the sentinels;
  structured types carry the context needed for user-facing messages.

ERROR CATEGORIES:
  1. Lifecycle errors  - terminated employees, duplicate terminations
  2. Validation errors - missing or inconsistent payload fields
  3. Lookup errors     - unknown employee

All of these are recoverable, user-facing validation errors. The engine
never panics for expected failures; the presentation boundary maps each
sentinel to a localized message.

SEE ALSO:
  - events.go: payload validation producing FieldErrors
  - timeline.go: AddEvent command using the lifecycle sentinels
*/
package prontuario

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmployeeTerminated is returned when appending a lifecycle event to
	// an employee whose history already holds a Termination. Terminated is
	// absorbing.
	ErrEmployeeTerminated = errors.New("employee already terminated")

	// ErrDuplicateTermination is returned when a second Termination event is
	// recorded. At most one may exist per employee.
	ErrDuplicateTermination = errors.New("termination already recorded")

	// ErrTerminationNotLast is returned when a Termination would not be the
	// chronologically last event in the history.
	ErrTerminationNotLast = errors.New("termination must be the last event")

	// ErrMissingPayload is returned when a draft carries no payload for a
	// kind that requires one.
	ErrMissingPayload = errors.New("event payload required")

	// ErrKindMismatch is returned when a kind discriminator names no payload
	// type in the taxonomy, either from a caller or a stored row.
	ErrKindMismatch = errors.New("event kind does not match any payload type")

	// ErrMissingField is the root of all required-field validation failures.
	ErrMissingField = errors.New("required field missing")

	// ErrInvalidDateRange is returned when an event payload's end date
	// precedes its start date.
	ErrInvalidDateRange = errors.New("end date before start date")

	// ErrEmployeeNotFound is returned by repositories for unknown ids.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrTerminationBeforeAdmission is returned when a termination date
	// precedes the admission date.
	ErrTerminationBeforeAdmission = errors.New("termination date before admission date")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// FieldError reports a missing required field on a kind-specific payload.
type FieldError struct {
	Kind  Kind
	Field string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s event: missing required field %q", e.Kind, e.Field)
}

func (e *FieldError) Unwrap() error { return ErrMissingField }

// DateRangeError reports an inverted date range on a payload.
type DateRangeError struct {
	Kind       Kind
	StartField string
	EndField   string
}

func (e *DateRangeError) Error() string {
	return fmt.Sprintf("%s event: %s precedes %s", e.Kind, e.EndField, e.StartField)
}

func (e *DateRangeError) Unwrap() error { return ErrInvalidDateRange }

// KindError reports a kind discriminator outside the event taxonomy.
type KindError struct {
	Kind Kind
}

func (e *KindError) Error() string {
	return fmt.Sprintf("unknown event kind %q", e.Kind)
}

func (e *KindError) Unwrap() error { return ErrKindMismatch }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input,
// as opposed to an infrastructure failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrEmployeeTerminated) ||
		errors.Is(err, ErrDuplicateTermination) ||
		errors.Is(err, ErrTerminationNotLast) ||
		errors.Is(err, ErrMissingPayload) ||
		errors.Is(err, ErrKindMismatch) ||
		errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrTerminationBeforeAdmission)
}

// IsNotFound returns true if the error indicates a missing aggregate.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound)
}
