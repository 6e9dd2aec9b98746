/*
Package payroll implements the salary adjustment ledger.

PURPOSE:
  Compensation changes are recorded as an append-only, per-employee ledger
  entry. Only raises flow through this ledger - reductions are rejected at
  entry. The percentage change is a read-time derivation, never stored, so
  it cannot drift from the salaries that define it.

PRECISION:
  Salaries and percentages use decimal.Decimal. percentChange rounds
  half-up to 2 decimal places for display: 5000 -> 5500 is exactly +10.00%.

CHAIN CONTINUITY:
  previousSalary SHOULD equal the prior adjustment's newSalary. Whether
  gaps are backdated corrections or data errors is an open product
  question; the ledger reports them via ChainGaps without rejecting.

BOUNDARY:
  Recording an adjustment does NOT mutate Employee.Salary. That update is
  a separate, caller-triggered command - a documented boundary, not a bug.
*/
package payroll

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vitaehr/prontuario-engine/prontuario"
)

// =============================================================================
// TYPES
// =============================================================================

type AdjustmentID string

// Adjustment is one compensation change in the ledger.
type Adjustment struct {
	ID         AdjustmentID
	EmployeeID prontuario.EmployeeID

	PreviousSalary decimal.Decimal
	NewSalary      decimal.Decimal

	AdjustmentDate time.Time
	EffectiveDate  time.Time

	Reason     string
	ApprovedBy string

	CreatedAt time.Time
}

// PercentChange derives (new - previous) / previous * 100, rounded half-up
// to 2 decimal places. Computed at read time.
func (a *Adjustment) PercentChange() decimal.Decimal {
	return a.NewSalary.Sub(a.PreviousSalary).
		Div(a.PreviousSalary).
		Mul(decimal.NewFromInt(100)).
		Round(2)
}

// FormatPercent renders the change sign-prefixed for display: "+12.50%".
func (a *Adjustment) FormatPercent() string {
	return fmt.Sprintf("+%s%%", a.PercentChange().StringFixed(2))
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotAnIncrease is returned when newSalary <= previousSalary. The
	// ledger records raises only.
	ErrNotAnIncrease = errors.New("payroll: new salary must exceed previous salary")

	// ErrMissingDate is returned when either date is absent.
	ErrMissingDate = errors.New("payroll: adjustment and effective dates required")

	// ErrInvalidSalary is returned for zero or negative salary input.
	ErrInvalidSalary = errors.New("payroll: salary must be positive")
)

// IncreaseError carries the offending salaries for the UI message.
type IncreaseError struct {
	PreviousSalary decimal.Decimal
	NewSalary      decimal.Decimal
}

func (e *IncreaseError) Error() string {
	return fmt.Sprintf("new salary %s does not exceed previous %s",
		e.NewSalary.StringFixed(2), e.PreviousSalary.StringFixed(2))
}

func (e *IncreaseError) Unwrap() error { return ErrNotAnIncrease }

// =============================================================================
// DRAFT AND COMMAND
// =============================================================================

// Draft is the command input for recording an adjustment.
type Draft struct {
	EmployeeID     prontuario.EmployeeID
	PreviousSalary decimal.Decimal
	NewSalary      decimal.Decimal
	AdjustmentDate time.Time
	EffectiveDate  time.Time
	Reason         string
	ApprovedBy     string
}

// Record validates the draft and materializes a ledger entry.
func Record(draft Draft, now time.Time) (*Adjustment, error) {
	if draft.PreviousSalary.LessThanOrEqual(decimal.Zero) ||
		draft.NewSalary.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidSalary
	}
	if draft.AdjustmentDate.IsZero() || draft.EffectiveDate.IsZero() {
		return nil, ErrMissingDate
	}
	if !draft.NewSalary.GreaterThan(draft.PreviousSalary) {
		return nil, &IncreaseError{
			PreviousSalary: draft.PreviousSalary,
			NewSalary:      draft.NewSalary,
		}
	}

	return &Adjustment{
		ID:             AdjustmentID(uuid.NewString()),
		EmployeeID:     draft.EmployeeID,
		PreviousSalary: draft.PreviousSalary,
		NewSalary:      draft.NewSalary,
		AdjustmentDate: draft.AdjustmentDate,
		EffectiveDate:  draft.EffectiveDate,
		Reason:         draft.Reason,
		ApprovedBy:     draft.ApprovedBy,
		CreatedAt:      now,
	}, nil
}

// =============================================================================
// LEDGER VIEWS
// =============================================================================

// ByEffectiveDate returns a fresh slice ordered chronologically by effective
// date, stable on ties. Read-time projection; input untouched.
func ByEffectiveDate(adjustments []*Adjustment) []*Adjustment {
	out := make([]*Adjustment, len(adjustments))
	copy(out, adjustments)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EffectiveDate.Before(out[j].EffectiveDate)
	})
	return out
}

// ChainGap is a continuity break: an adjustment whose previousSalary does
// not equal the prior adjustment's newSalary.
type ChainGap struct {
	Prior *Adjustment
	Next  *Adjustment
}

func (g ChainGap) String() string {
	return fmt.Sprintf("chain gap at %s: expected previous %s, recorded %s",
		g.Next.EffectiveDate.Format("2006-01-02"),
		g.Prior.NewSalary.StringFixed(2),
		g.Next.PreviousSalary.StringFixed(2))
}

// ChainGaps scans the chronological ledger for continuity breaks. Soft
// invariant: gaps are reported, never rejected.
func ChainGaps(adjustments []*Adjustment) []ChainGap {
	ordered := ByEffectiveDate(adjustments)
	var gaps []ChainGap
	for i := 1; i < len(ordered); i++ {
		if !ordered[i].PreviousSalary.Equal(ordered[i-1].NewSalary) {
			gaps = append(gaps, ChainGap{Prior: ordered[i-1], Next: ordered[i]})
		}
	}
	return gaps
}

// =============================================================================
// REPOSITORY
// =============================================================================

// Repository persists the adjustment ledger. Append-only: no update or
// delete exists.
type Repository interface {
	Append(ctx context.Context, a *Adjustment) error
	ListByEmployee(ctx context.Context, employeeID prontuario.EmployeeID) ([]*Adjustment, error)
}
