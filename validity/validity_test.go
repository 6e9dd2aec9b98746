package validity_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vitaehr/prontuario-engine/validity"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

var today = day(2025, time.June, 15)

// =============================================================================
// CLASSIFICATION SCENARIOS
// =============================================================================

func TestClassify_FarFuture_Approved(t *testing.T) {
	// GIVEN: Certificate expiring 45 days out
	// WHEN: Classified with a 30-day window
	// THEN: Approved
	status, err := validity.Classify(today.AddDate(0, 0, 45), today, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != validity.StatusApproved {
		t.Errorf("expected approved, got %s", status)
	}
}

func TestClassify_InsideWindow_Pending(t *testing.T) {
	// GIVEN: Certificate expiring in 10 days
	// WHEN: Classified with a 30-day window
	// THEN: Pending
	status, err := validity.Classify(today.AddDate(0, 0, 10), today, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != validity.StatusPending {
		t.Errorf("expected pending, got %s", status)
	}
}

func TestClassify_Yesterday_Expired(t *testing.T) {
	status, err := validity.Classify(today.AddDate(0, 0, -1), today, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != validity.StatusExpired {
		t.Errorf("expected expired, got %s", status)
	}
}

func TestClassify_SameDay_StillValid(t *testing.T) {
	// A record expiring today is valid for that instant: Pending, not Expired.
	status, err := validity.Classify(today, today, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != validity.StatusPending {
		t.Errorf("expected pending on expiry day, got %s", status)
	}

	// The next day's classification flips it.
	status, _ = validity.Classify(today, today.AddDate(0, 0, 1), 30)
	if status != validity.StatusExpired {
		t.Errorf("expected expired on the day after, got %s", status)
	}
}

func TestClassify_BoundaryOfWindow(t *testing.T) {
	// Exactly 30 days out is Pending; 31 days out is Approved.
	status, _ := validity.Classify(today.AddDate(0, 0, 30), today, 30)
	if status != validity.StatusPending {
		t.Errorf("30 days out: expected pending, got %s", status)
	}
	status, _ = validity.Classify(today.AddDate(0, 0, 31), today, 30)
	if status != validity.StatusApproved {
		t.Errorf("31 days out: expected approved, got %s", status)
	}
}

func TestClassify_ZeroDates_InvalidDate(t *testing.T) {
	if _, err := validity.Classify(time.Time{}, today, 30); !errors.Is(err, validity.ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
	if _, err := validity.Classify(today, time.Time{}, 30); !errors.Is(err, validity.ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
}

func TestClassify_DefaultWindowFallback(t *testing.T) {
	// Window <= 0 uses the 30-day default.
	status, _ := validity.Classify(today.AddDate(0, 0, 10), today, 0)
	if status != validity.StatusPending {
		t.Errorf("expected pending with default window, got %s", status)
	}
}

// =============================================================================
// MONOTONICITY PROPERTY
// =============================================================================

func TestClassify_Monotonic(t *testing.T) {
	// GIVEN: A fixed expiry date
	// WHEN: referenceNow advances one day at a time
	// THEN: Status only ever moves Approved -> Pending -> Expired
	expiry := day(2025, time.September, 1)
	rank := map[validity.Status]int{
		validity.StatusApproved: 0,
		validity.StatusPending:  1,
		validity.StatusExpired:  2,
	}

	prev := -1
	for offset := -90; offset <= 90; offset++ {
		now := expiry.AddDate(0, 0, offset)
		status, err := validity.Classify(expiry, now, 30)
		if err != nil {
			t.Fatalf("unexpected error at offset %d: %v", offset, err)
		}
		if rank[status] < prev {
			t.Fatalf("status regressed at offset %d: %s", offset, status)
		}
		prev = rank[status]
	}
}

// =============================================================================
// VALIDITY WINDOW
// =============================================================================

func TestWindow_InvertedRejected(t *testing.T) {
	_, err := validity.NewWindow(day(2025, time.March, 10), day(2025, time.March, 10))
	if !errors.Is(err, validity.ErrWindowInverted) {
		t.Errorf("expected ErrWindowInverted for equal dates, got %v", err)
	}

	_, err = validity.NewWindow(day(2025, time.March, 10), day(2025, time.March, 1))
	if !errors.Is(err, validity.ErrWindowInverted) {
		t.Errorf("expected ErrWindowInverted, got %v", err)
	}
}

func TestWindow_ClassifyDelegates(t *testing.T) {
	w, err := validity.NewWindow(day(2025, time.January, 1), day(2025, time.July, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	status, err := w.Classify(day(2025, time.June, 20), 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != validity.StatusPending {
		t.Errorf("expected pending, got %s", status)
	}
}
