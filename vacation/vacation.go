/*
Package vacation implements acquisition-period vacation accounting.

PURPOSE:
  Brazilian labor rules grant 30 entitled days per 12-month acquisition
  period. This package keeps the balance arithmetic honest:

    takenDays + remainingDays == entitledDays

  holds after EVERY mutation. remainingDays is never accepted from input;
  it is recomputed, so the invariant cannot drift the way it could when
  the presentation layer computed it.

CASH-OUT ("abono pecuniário"):
  Up to 10 of the 30 entitled days may be monetized instead of taken.
  Whether to hard-enforce the cap is an open product question; the engine
  reports the violation via ExceedsCashOutCap without failing the command.

SEE ALSO:
  - prontuario: the Vacation history event marking the span on the timeline
*/
package vacation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vitaehr/prontuario-engine/prontuario"
)

// =============================================================================
// TYPES
// =============================================================================

// DefaultEntitledDays is the statutory entitlement per acquisition period.
const DefaultEntitledDays = 30

// CashOutCapDays is the maximum monetizable portion of the entitlement.
const CashOutCapDays = 10

// Type classifies how the period is taken.
type Type string

const (
	TypeFull       Type = "full"
	TypeSplit      Type = "split"
	TypeCollective Type = "collective"
	TypeCashedOut  Type = "cashed_out"
)

type PeriodID string

// VacationPeriod is one acquisition period's balance for an employee.
type VacationPeriod struct {
	ID         PeriodID
	EmployeeID prontuario.EmployeeID

	AcquisitionStart time.Time
	AcquisitionEnd   time.Time

	EntitledDays  int
	TakenDays     int
	RemainingDays int

	ScheduledStart *time.Time
	ScheduledEnd   *time.Time

	Type Type

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ExceedsCashOutCap reports whether a cashed-out period monetizes more than
// the 10-day cap allows (taken > entitled - 10). Advisory: the command does
// not fail on it.
func (p *VacationPeriod) ExceedsCashOutCap() bool {
	if p.Type != TypeCashedOut {
		return false
	}
	return p.TakenDays > p.EntitledDays-CashOutCapDays
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidDateRange is returned when an end date precedes its start.
	ErrInvalidDateRange = errors.New("vacation: end date before start date")

	// ErrNegativeDays is returned when any day count, supplied or computed,
	// is negative.
	ErrNegativeDays = errors.New("vacation: negative day count")

	// ErrPeriodNotFound is returned by repositories for unknown ids.
	ErrPeriodNotFound = errors.New("vacation period not found")
)

// BalanceError reports a balance that would go negative.
type BalanceError struct {
	EntitledDays int
	TakenDays    int
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("vacation balance negative: taken %d of %d entitled days",
		e.TakenDays, e.EntitledDays)
}

func (e *BalanceError) Unwrap() error { return ErrNegativeDays }

// =============================================================================
// DRAFT AND COMMAND
// =============================================================================

// Draft is the command input for recording or amending a vacation period.
// RemainingDays is intentionally absent: it is always derived.
type Draft struct {
	EmployeeID prontuario.EmployeeID

	AcquisitionStart time.Time
	AcquisitionEnd   time.Time

	// EntitledDays defaults to DefaultEntitledDays when zero.
	EntitledDays int
	TakenDays    int

	ScheduledStart *time.Time
	ScheduledEnd   *time.Time

	Type Type
}

// Record validates the draft and materializes a period with the balance
// invariant recomputed: remaining = entitled - taken.
func Record(draft Draft, now time.Time) (*VacationPeriod, error) {
	if err := validate(draft); err != nil {
		return nil, err
	}

	entitled := draft.EntitledDays
	if entitled == 0 {
		entitled = DefaultEntitledDays
	}

	remaining := entitled - draft.TakenDays
	if remaining < 0 {
		return nil, &BalanceError{EntitledDays: entitled, TakenDays: draft.TakenDays}
	}

	vt := draft.Type
	if vt == "" {
		vt = TypeFull
	}

	return &VacationPeriod{
		ID:               PeriodID(uuid.NewString()),
		EmployeeID:       draft.EmployeeID,
		AcquisitionStart: draft.AcquisitionStart,
		AcquisitionEnd:   draft.AcquisitionEnd,
		EntitledDays:     entitled,
		TakenDays:        draft.TakenDays,
		RemainingDays:    remaining,
		ScheduledStart:   draft.ScheduledStart,
		ScheduledEnd:     draft.ScheduledEnd,
		Type:             vt,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Amend applies a draft's acquisition dates and day counts onto an existing
// period, recomputing the remainder. Used for administrative corrections;
// the period keeps its identity. Zero draft dates keep the stored ones.
func Amend(p *VacationPeriod, draft Draft, now time.Time) error {
	if err := validate(draft); err != nil {
		return err
	}

	acqStart := p.AcquisitionStart
	if !draft.AcquisitionStart.IsZero() {
		acqStart = draft.AcquisitionStart
	}
	acqEnd := p.AcquisitionEnd
	if !draft.AcquisitionEnd.IsZero() {
		acqEnd = draft.AcquisitionEnd
	}
	// The effective range must stay ordered even when only one end moves.
	if acqEnd.Before(acqStart) {
		return ErrInvalidDateRange
	}

	entitled := draft.EntitledDays
	if entitled == 0 {
		entitled = p.EntitledDays
	}
	remaining := entitled - draft.TakenDays
	if remaining < 0 {
		return &BalanceError{EntitledDays: entitled, TakenDays: draft.TakenDays}
	}

	p.AcquisitionStart = acqStart
	p.AcquisitionEnd = acqEnd
	p.EntitledDays = entitled
	p.TakenDays = draft.TakenDays
	p.RemainingDays = remaining
	if draft.ScheduledStart != nil {
		p.ScheduledStart = draft.ScheduledStart
	}
	if draft.ScheduledEnd != nil {
		p.ScheduledEnd = draft.ScheduledEnd
	}
	if draft.Type != "" {
		p.Type = draft.Type
	}
	p.UpdatedAt = now
	return nil
}

func validate(draft Draft) error {
	if draft.EntitledDays < 0 || draft.TakenDays < 0 {
		return ErrNegativeDays
	}
	if !draft.AcquisitionStart.IsZero() && !draft.AcquisitionEnd.IsZero() &&
		draft.AcquisitionEnd.Before(draft.AcquisitionStart) {
		return ErrInvalidDateRange
	}
	if draft.ScheduledStart != nil && draft.ScheduledEnd != nil &&
		draft.ScheduledEnd.Before(*draft.ScheduledStart) {
		return ErrInvalidDateRange
	}
	return nil
}

// =============================================================================
// REPOSITORY
// =============================================================================

// Repository persists vacation periods. Method names leave room for one
// adapter to implement every domain repository side by side.
type Repository interface {
	GetPeriod(ctx context.Context, id PeriodID) (*VacationPeriod, error)
	SavePeriod(ctx context.Context, p *VacationPeriod) error
	ListPeriodsByEmployee(ctx context.Context, employeeID prontuario.EmployeeID) ([]*VacationPeriod, error)
}
