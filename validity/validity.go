/*
Package validity classifies dated compliance records.

PURPOSE:
  Exams, training certificates and PPE issuances all carry an expiry date.
  This package maps that date to a status category relative to a reference
  instant, with a configurable warning window:

    Approved  expiry is comfortably in the future
    Pending   expiry falls within the warning window
    Expired   expiry is in the past

KEY PROPERTY:
  Monotonicity. For a fixed expiry date, advancing the reference time can
  only move the status forward: Approved -> Pending -> Expired. It never
  moves backward. Downstream alerting (see epi package) relies on this.

DAY GRANULARITY:
  All comparisons truncate to calendar days in UTC. A record expiring
  "today" is still valid today and classifies as Pending; it becomes
  Expired on the next day's classification.

USAGE:
  status, err := validity.Classify(cert.ExpiresAt, time.Now(), validity.DefaultWarningWindowDays)

SEE ALSO:
  - epi/alerts.go: reuses this thresholding for PPE expiry alerts
  - prontuario/events.go: training/medical records carrying Windows
*/
package validity

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the classification of a dated record.
type Status string

const (
	StatusApproved Status = "approved"
	StatusPending  Status = "pending"
	StatusExpired  Status = "expired"
)

// DefaultWarningWindowDays is the standard look-ahead for Pending.
const DefaultWarningWindowDays = 30

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidDate is returned when a classification argument is not a
	// valid calendar date (zero time).
	ErrInvalidDate = errors.New("invalid date")

	// ErrWindowInverted is returned when a validity window expires at or
	// before its issue date.
	ErrWindowInverted = errors.New("validity window: expiry not after issue date")
)

// =============================================================================
// CLASSIFIER
// =============================================================================

// Classify maps an expiry date to a Status relative to referenceNow.
//
// Rule:
//   - expiry day before reference day        -> Expired
//   - expiry within warningWindowDays (incl) -> Pending
//   - otherwise                              -> Approved
//
// A warningWindowDays <= 0 falls back to DefaultWarningWindowDays.
func Classify(expiresAt, referenceNow time.Time, warningWindowDays int) (Status, error) {
	if expiresAt.IsZero() || referenceNow.IsZero() {
		return "", ErrInvalidDate
	}
	if warningWindowDays <= 0 {
		warningWindowDays = DefaultWarningWindowDays
	}

	expiry := truncateDay(expiresAt)
	now := truncateDay(referenceNow)

	if expiry.Before(now) {
		return StatusExpired, nil
	}
	remaining := int(expiry.Sub(now).Hours() / 24)
	if remaining <= warningWindowDays {
		return StatusPending, nil
	}
	return StatusApproved, nil
}

// DaysUntil returns whole days from referenceNow to expiresAt, negative when
// already expired. Day granularity, UTC.
func DaysUntil(expiresAt, referenceNow time.Time) int {
	return int(truncateDay(expiresAt).Sub(truncateDay(referenceNow)).Hours() / 24)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// VALIDITY WINDOW
// =============================================================================

// Window is the [IssuedAt, ExpiresAt] span embedded in exams, training
// certificates and PPE issuances.
//
// INVARIANT: ExpiresAt > IssuedAt.
type Window struct {
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewWindow builds a validated window.
func NewWindow(issuedAt, expiresAt time.Time) (Window, error) {
	w := Window{IssuedAt: issuedAt, ExpiresAt: expiresAt}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// Validate checks the window invariant.
func (w Window) Validate() error {
	if w.IssuedAt.IsZero() || w.ExpiresAt.IsZero() {
		return ErrInvalidDate
	}
	if !w.ExpiresAt.After(w.IssuedAt) {
		return &WindowError{Window: w}
	}
	return nil
}

// Classify classifies the window's expiry relative to referenceNow.
func (w Window) Classify(referenceNow time.Time, warningWindowDays int) (Status, error) {
	if err := w.Validate(); err != nil {
		return "", err
	}
	return Classify(w.ExpiresAt, referenceNow, warningWindowDays)
}

// WindowError reports an inverted validity window with its dates.
type WindowError struct {
	Window Window
}

func (e *WindowError) Error() string {
	return fmt.Sprintf("validity window inverted: issued %s, expires %s",
		e.Window.IssuedAt.Format("2006-01-02"), e.Window.ExpiresAt.Format("2006-01-02"))
}

func (e *WindowError) Unwrap() error { return ErrWindowInverted }
