/*
timeline.go - The AddEvent command and the timeline projection

PURPOSE:
  AddEvent is THE single place the lifecycle state machine is enforced.
  The reference system scattered termination gating across UI handlers;
  here every append flows through one validation path:

    1. Lifecycle gate: terminated employees accept no further events,
       except the Termination being recorded itself
    2. Termination uniqueness and chronological-last position
    3. Kind-specific payload validation

ORDERING:
  Storage keeps insertion order. ProjectTimeline produces the display
  ordering (occurredAt descending, insertion-stable on ties) as a fresh
  slice on every call - restartable, never mutating the aggregate.

SEE ALSO:
  - events.go:   payload union validated here
  - employee.go: aggregate whose history this grows
*/
package prontuario

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// EVENT DRAFT - command input from the presentation layer
// =============================================================================

// EventDraft is the input to AddEvent, built from form submissions.
type EventDraft struct {
	// OccurredAt defaults to the submission time when zero.
	OccurredAt time.Time

	Description   string
	Notes         string
	AttachmentRef string

	// Audit identity supplied by the session provider, recorded verbatim.
	RecordedByUserID string
	RecordedByName   string

	Payload Payload
}

// Kind returns the draft's discriminator, empty without a payload.
func (d EventDraft) Kind() Kind {
	if d.Payload == nil {
		return ""
	}
	return d.Payload.EventKind()
}

// =============================================================================
// ADD EVENT - the only way history grows
// =============================================================================

// AddEvent validates the draft against the employee's lifecycle, appends the
// event to the history and returns it. On a Termination draft the employee's
// termination date is set and the aggregate becomes read-only for further
// lifecycle events.
//
// Validation order:
//  1. terminated employees reject everything but their own closing event
//  2. termination uniqueness and chronological position
//  3. kind-specific payload validation
//
// The history is appended in insertion order; it is never re-sorted here.
func AddEvent(emp *Employee, draft EventDraft, now time.Time) (*Event, error) {
	if draft.Payload == nil {
		return nil, ErrMissingPayload
	}

	kind := draft.Kind()

	// Lifecycle gate first: field errors on a dead aggregate are noise.
	if emp.Terminated() {
		if kind == KindTermination {
			return nil, ErrDuplicateTermination
		}
		return nil, ErrEmployeeTerminated
	}

	occurredAt := draft.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now
	}

	if kind == KindTermination {
		// The closing event must end the chronology.
		if last := emp.lastOccurredAt(); occurredAt.Before(last) {
			return nil, ErrTerminationNotLast
		}
	}

	if err := draft.Payload.Validate(); err != nil {
		return nil, err
	}

	event := Event{
		ID:               EventID(uuid.NewString()),
		EmployeeID:       emp.ID,
		OccurredAt:       occurredAt,
		Description:      draft.Description,
		Notes:            draft.Notes,
		AttachmentRef:    draft.AttachmentRef,
		RecordedByUserID: draft.RecordedByUserID,
		RecordedByName:   draft.RecordedByName,
		Payload:          draft.Payload,
		CreatedAt:        now,
	}

	emp.Events = append(emp.Events, event)
	emp.UpdatedAt = now

	if kind == KindTermination {
		t := occurredAt
		emp.TerminationDate = &t
	}

	return &emp.Events[len(emp.Events)-1], nil
}

// =============================================================================
// TIMELINE PROJECTION - read-time ordering
// =============================================================================

// ProjectTimeline returns the display ordering of a history: occurredAt
// descending, ties broken by insertion order. The input slice is not
// modified; each call recomputes from scratch.
func ProjectTimeline(events []Event) []Event {
	out := make([]Event, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	return out
}

// TimelineByKind filters a projected timeline down to one kind, preserving
// the projection's order.
func TimelineByKind(events []Event, kind Kind) []Event {
	var out []Event
	for _, e := range ProjectTimeline(events) {
		if e.Kind() == kind {
			out = append(out, e)
		}
	}
	return out
}
