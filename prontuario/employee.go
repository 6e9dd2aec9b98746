/*
Package prontuario implements the employee personnel record ("prontuário"):
the identity aggregate and its append-only lifecycle history.

PURPOSE:
  An employee's professional life is modeled as an ordered sequence of typed
  historical events - admission, warnings, promotions, medical certificates,
  transfers, and optionally a closing termination. The aggregate enforces the
  lifecycle state machine at a single command boundary (AddEvent) instead of
  scattering it across callers.

KEY CONCEPTS:
  - Employee: identity root with contractual data and its event history
  - Event:    immutable history entry discriminated by Kind (events.go)
  - AddEvent: the only way history grows (timeline.go)

DESIGN PRINCIPLES:
  1. Append-only history: events are never deleted; amendments are
     administrative field edits, not new identities
  2. Read-time ordering: storage keeps insertion order; display order is a
     projection (ProjectTimeline)
  3. Absorbing termination: once a Termination exists, only reads remain

SEE ALSO:
  - events.go:   kind taxonomy and payload union
  - timeline.go: AddEvent command and timeline projection
  - repository.go: persistence boundary
*/
package prontuario

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type EventID string

// =============================================================================
// LIFECYCLE STATUS - derived, never stored
// =============================================================================

// LifecycleStatus is the employee's derived state. Terminated is absorbing.
type LifecycleStatus string

const (
	StatusActive     LifecycleStatus = "active"
	StatusTerminated LifecycleStatus = "terminated"
)

// =============================================================================
// EMPLOYEE - Identity root
// =============================================================================

// Employee is the aggregate root for a personnel record.
type Employee struct {
	ID    EmployeeID
	Name  string
	CPF   string
	Email string

	// Contractual data
	AdmissionDate   time.Time
	TerminationDate *time.Time
	Role            string
	Department      string
	Salary          decimal.Decimal
	WorkSchedule    string

	// History, in insertion order. Display ordering is a read-time
	// projection; see ProjectTimeline.
	Events []Event

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Status derives the lifecycle status from the history.
func (e *Employee) Status() LifecycleStatus {
	if e.Terminated() {
		return StatusTerminated
	}
	return StatusActive
}

// Terminated reports whether the employee's lifecycle is closed, either by
// contractual termination date or by a Termination event in the history.
func (e *Employee) Terminated() bool {
	if e.TerminationDate != nil {
		return true
	}
	return e.TerminationEvent() != nil
}

// TerminationEvent returns the closing event, or nil.
func (e *Employee) TerminationEvent() *Event {
	for i := range e.Events {
		if e.Events[i].Kind() == KindTermination {
			return &e.Events[i]
		}
	}
	return nil
}

// Validate checks the aggregate invariants.
func (e *Employee) Validate() error {
	if e.ID == "" {
		return &FieldError{Kind: KindAdmission, Field: "employeeId"}
	}
	if e.AdmissionDate.IsZero() {
		return &FieldError{Kind: KindAdmission, Field: "admissionDate"}
	}
	if e.TerminationDate != nil && e.TerminationDate.Before(e.AdmissionDate) {
		return ErrTerminationBeforeAdmission
	}
	return nil
}

// lastOccurredAt returns the latest occurredAt in the history, zero when empty.
func (e *Employee) lastOccurredAt() time.Time {
	var last time.Time
	for i := range e.Events {
		if e.Events[i].OccurredAt.After(last) {
			last = e.Events[i].OccurredAt
		}
	}
	return last
}
