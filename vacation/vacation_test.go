package vacation_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vitaehr/prontuario-engine/vacation"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func baseDraft() vacation.Draft {
	return vacation.Draft{
		EmployeeID:       "emp-1",
		AcquisitionStart: day(2024, time.February, 1),
		AcquisitionEnd:   day(2025, time.January, 31),
	}
}

var now = day(2025, time.March, 1)

// =============================================================================
// BALANCE INVARIANT
// =============================================================================

func TestRecord_BalanceInvariantHolds(t *testing.T) {
	// GIVEN: Any valid combination of entitled and taken days
	// THEN: taken + remaining == entitled after the mutation
	for taken := 0; taken <= 30; taken += 5 {
		draft := baseDraft()
		draft.TakenDays = taken

		p, err := vacation.Record(draft, now)
		if err != nil {
			t.Fatalf("taken=%d: unexpected error: %v", taken, err)
		}
		if p.TakenDays+p.RemainingDays != p.EntitledDays {
			t.Errorf("taken=%d: invariant violated: %d + %d != %d",
				taken, p.TakenDays, p.RemainingDays, p.EntitledDays)
		}
	}
}

func TestRecord_EntitledDefaultsTo30(t *testing.T) {
	p, err := vacation.Record(baseDraft(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.EntitledDays != 30 {
		t.Errorf("expected default 30 entitled days, got %d", p.EntitledDays)
	}
	if p.RemainingDays != 30 {
		t.Errorf("expected 30 remaining, got %d", p.RemainingDays)
	}
}

func TestRecord_TakenExceedsEntitled_NegativeBalance(t *testing.T) {
	draft := baseDraft()
	draft.TakenDays = 35

	_, err := vacation.Record(draft, now)
	if !errors.Is(err, vacation.ErrNegativeDays) {
		t.Fatalf("expected ErrNegativeDays, got %v", err)
	}
	var balErr *vacation.BalanceError
	if !errors.As(err, &balErr) {
		t.Error("expected BalanceError with context")
	}
}

func TestAmend_RecomputesRemainder(t *testing.T) {
	// GIVEN: A period with 30 remaining
	// WHEN: 12 days are taken via amendment
	// THEN: Remainder drops to 18 and the invariant still holds
	p, err := vacation.Record(baseDraft(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	draft := baseDraft()
	draft.TakenDays = 12
	if err := vacation.Amend(p, draft, now.AddDate(0, 1, 0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.RemainingDays != 18 {
		t.Errorf("expected 18 remaining, got %d", p.RemainingDays)
	}
	if p.TakenDays+p.RemainingDays != p.EntitledDays {
		t.Error("invariant violated after amendment")
	}
}

func TestAmend_AppliesAcquisitionDates(t *testing.T) {
	// GIVEN: A period recorded against the wrong acquisition window
	// WHEN: An amendment supplies the corrected dates
	// THEN: The period carries the corrected window
	p, err := vacation.Record(baseDraft(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	draft := baseDraft()
	draft.AcquisitionStart = day(2024, time.March, 1)
	draft.AcquisitionEnd = day(2025, time.February, 28)
	if err := vacation.Amend(p, draft, now.AddDate(0, 1, 0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.AcquisitionStart.Equal(day(2024, time.March, 1)) {
		t.Errorf("acquisition start not amended, got %v", p.AcquisitionStart)
	}
	if !p.AcquisitionEnd.Equal(day(2025, time.February, 28)) {
		t.Errorf("acquisition end not amended, got %v", p.AcquisitionEnd)
	}
}

func TestAmend_ZeroAcquisitionDatesKeepStored(t *testing.T) {
	p, err := vacation.Record(baseDraft(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	draft := vacation.Draft{EmployeeID: p.EmployeeID, TakenDays: 5}
	if err := vacation.Amend(p, draft, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.AcquisitionStart.Equal(day(2024, time.February, 1)) {
		t.Errorf("acquisition start changed, got %v", p.AcquisitionStart)
	}
	if !p.AcquisitionEnd.Equal(day(2025, time.January, 31)) {
		t.Errorf("acquisition end changed, got %v", p.AcquisitionEnd)
	}
}

func TestAmend_InvertedEffectiveAcquisitionRange(t *testing.T) {
	// GIVEN: A stored period ending 2025-01-31
	// WHEN: Only the start moves, past the stored end
	// THEN: The amendment is rejected and the period is untouched
	p, err := vacation.Record(baseDraft(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	draft := vacation.Draft{
		EmployeeID:       p.EmployeeID,
		AcquisitionStart: day(2025, time.June, 1),
	}
	if err := vacation.Amend(p, draft, now); !errors.Is(err, vacation.ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
	if !p.AcquisitionStart.Equal(day(2024, time.February, 1)) {
		t.Errorf("period mutated on rejected amendment, got %v", p.AcquisitionStart)
	}
}

// =============================================================================
// VALIDATION FAILURES
// =============================================================================

func TestRecord_InvertedAcquisitionPeriod(t *testing.T) {
	draft := baseDraft()
	draft.AcquisitionStart = day(2025, time.January, 31)
	draft.AcquisitionEnd = day(2024, time.February, 1)

	_, err := vacation.Record(draft, now)
	if !errors.Is(err, vacation.ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange, got %v", err)
	}
}

func TestRecord_InvertedSchedule(t *testing.T) {
	start := day(2025, time.April, 20)
	end := day(2025, time.April, 10)
	draft := baseDraft()
	draft.ScheduledStart = &start
	draft.ScheduledEnd = &end

	_, err := vacation.Record(draft, now)
	if !errors.Is(err, vacation.ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange, got %v", err)
	}
}

func TestRecord_NegativeInput(t *testing.T) {
	draft := baseDraft()
	draft.TakenDays = -1
	if _, err := vacation.Record(draft, now); !errors.Is(err, vacation.ErrNegativeDays) {
		t.Errorf("expected ErrNegativeDays, got %v", err)
	}
}

// =============================================================================
// CASH-OUT CAP - advisory, not enforced
// =============================================================================

func TestCashOutCap_AdvisoryOnly(t *testing.T) {
	// GIVEN: A cashed-out period monetizing more than 10 of 30 days
	// WHEN: Recorded
	// THEN: The command succeeds; ExceedsCashOutCap reports the violation
	draft := baseDraft()
	draft.Type = vacation.TypeCashedOut
	draft.TakenDays = 25 // only 20 may be taken when 10 are cashed out

	p, err := vacation.Record(draft, now)
	if err != nil {
		t.Fatalf("cash-out cap must not fail the command: %v", err)
	}
	if !p.ExceedsCashOutCap() {
		t.Error("expected cap violation to be reported")
	}

	draft.TakenDays = 20
	p, err = vacation.Record(draft, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ExceedsCashOutCap() {
		t.Error("20 taken of 30 entitled is within the cap")
	}
}

func TestCashOutCap_IgnoredForOtherTypes(t *testing.T) {
	draft := baseDraft()
	draft.Type = vacation.TypeFull
	draft.TakenDays = 30

	p, err := vacation.Record(draft, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ExceedsCashOutCap() {
		t.Error("cap applies to cashed-out periods only")
	}
}
