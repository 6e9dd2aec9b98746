/*
events.go - Event taxonomy: the kind-discriminated history entry

PURPOSE:
  Each history entry carries a kind-specific payload. The payload is a
  tagged union: one concrete type per kind, all implementing Payload. A
  Promotion cannot carry Warning fields - the combination is
  unrepresentable, not merely unvalidated.

ADDING A KIND:
  1. Add the Kind constant
  2. Define the payload struct with EventKind() and Validate()
  3. Nothing else: AddEvent dispatches through the interface

VALIDATION:
  Payload.Validate() enforces the kind's required fields and internal date
  consistency. It runs inside AddEvent after the lifecycle gate, so a
  terminated employee fails fast before field checks.

SEE ALSO:
  - timeline.go: AddEvent and the timeline projection
  - errors.go:   FieldError / DateRangeError produced here
*/
package prontuario

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vitaehr/prontuario-engine/validity"
)

// =============================================================================
// KIND - event discriminator
// =============================================================================

type Kind string

const (
	KindAdmission          Kind = "admission"
	KindMedicalCertificate Kind = "medical_certificate"
	KindWarning            Kind = "warning"
	KindPromotion          Kind = "promotion"
	KindTransfer           Kind = "transfer"
	KindVacation           Kind = "vacation"
	KindTraining           Kind = "training"
	KindCommendation       Kind = "commendation"
	KindTermination        Kind = "termination"
	KindLeaveOfAbsence     Kind = "leave_of_absence"
	KindSuspension         Kind = "suspension"
)

// Kinds lists every event kind, for registries and API enumerations.
func Kinds() []Kind {
	return []Kind{
		KindAdmission, KindMedicalCertificate, KindWarning, KindPromotion,
		KindTransfer, KindVacation, KindTraining, KindCommendation,
		KindTermination, KindLeaveOfAbsence, KindSuspension,
	}
}

// =============================================================================
// EVENT - immutable history entry
// =============================================================================

// Event is a single entry in an employee's history. Once appended it is
// never deleted; administrative amendments edit fields in place without
// creating a new identity.
type Event struct {
	ID         EventID
	EmployeeID EmployeeID
	OccurredAt time.Time

	Description string
	Notes       string
	// AttachmentRef points at an externally stored document (upload
	// mechanics are a collaborator concern).
	AttachmentRef string

	// Audit identity, recorded verbatim from the session provider.
	RecordedByUserID string
	RecordedByName   string

	Payload Payload

	CreatedAt time.Time
}

// Kind returns the payload's discriminator.
func (e *Event) Kind() Kind {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.EventKind()
}

// =============================================================================
// PAYLOAD UNION
// =============================================================================

// Payload is the kind-specific half of an event.
type Payload interface {
	EventKind() Kind
	Validate() error
}

// AdmissionPayload opens the history.
type AdmissionPayload struct {
	Role       string
	Department string
}

func (AdmissionPayload) EventKind() Kind { return KindAdmission }

func (p AdmissionPayload) Validate() error {
	if p.Role == "" {
		return &FieldError{Kind: KindAdmission, Field: "role"}
	}
	return nil
}

// MedicalCertificatePayload records a physician-issued absence.
//
// AbsenceDays is advisory and SHOULD equal endDate - startDate + 1; it is
// recorded as supplied.
type MedicalCertificatePayload struct {
	DiagnosisCode  string
	AbsenceDays    int
	StartDate      time.Time
	EndDate        time.Time
	PhysicianName  string
	PhysicianCRM   string
}

func (MedicalCertificatePayload) EventKind() Kind { return KindMedicalCertificate }

func (p MedicalCertificatePayload) Validate() error {
	if p.StartDate.IsZero() {
		return &FieldError{Kind: KindMedicalCertificate, Field: "startDate"}
	}
	if p.EndDate.IsZero() {
		return &FieldError{Kind: KindMedicalCertificate, Field: "endDate"}
	}
	if p.AbsenceDays <= 0 {
		return &FieldError{Kind: KindMedicalCertificate, Field: "absenceDays"}
	}
	if p.EndDate.Before(p.StartDate) {
		return &DateRangeError{Kind: KindMedicalCertificate, StartField: "startDate", EndField: "endDate"}
	}
	return nil
}

// ExpectedAbsenceDays is the advisory day count implied by the date range.
func (p MedicalCertificatePayload) ExpectedAbsenceDays() int {
	return int(p.EndDate.Sub(p.StartDate).Hours()/24) + 1
}

// WarningSeverity is the disciplinary tier of a warning.
type WarningSeverity string

const (
	SeverityLow    WarningSeverity = "low"
	SeverityMedium WarningSeverity = "medium"
	SeverityHigh   WarningSeverity = "high"
)

// WarningPayload records a disciplinary warning.
type WarningPayload struct {
	Severity  WarningSeverity
	Reason    string
	Witnesses []string
}

func (WarningPayload) EventKind() Kind { return KindWarning }

func (p WarningPayload) Validate() error {
	if p.Reason == "" {
		return &FieldError{Kind: KindWarning, Field: "reason"}
	}
	if p.Severity == "" {
		return &FieldError{Kind: KindWarning, Field: "severity"}
	}
	return nil
}

// PromotionPayload records a role change, optionally with salaries.
type PromotionPayload struct {
	PreviousRole   string
	NewRole        string
	PreviousSalary *decimal.Decimal
	NewSalary      *decimal.Decimal
}

func (PromotionPayload) EventKind() Kind { return KindPromotion }

func (p PromotionPayload) Validate() error {
	if p.PreviousRole == "" {
		return &FieldError{Kind: KindPromotion, Field: "previousRole"}
	}
	if p.NewRole == "" {
		return &FieldError{Kind: KindPromotion, Field: "newRole"}
	}
	return nil
}

// TransferPayload records a department move.
type TransferPayload struct {
	FromDepartment string
	ToDepartment   string
}

func (TransferPayload) EventKind() Kind { return KindTransfer }

func (p TransferPayload) Validate() error {
	if p.ToDepartment == "" {
		return &FieldError{Kind: KindTransfer, Field: "toDepartment"}
	}
	return nil
}

// VacationPayload marks a vacation span in the history. Balance accounting
// lives in the vacation package; this entry is the timeline's view of it.
type VacationPayload struct {
	StartDate time.Time
	EndDate   time.Time
	Days      int
}

func (VacationPayload) EventKind() Kind { return KindVacation }

func (p VacationPayload) Validate() error {
	if p.StartDate.IsZero() {
		return &FieldError{Kind: KindVacation, Field: "startDate"}
	}
	if p.EndDate.IsZero() {
		return &FieldError{Kind: KindVacation, Field: "endDate"}
	}
	if p.EndDate.Before(p.StartDate) {
		return &DateRangeError{Kind: KindVacation, StartField: "startDate", EndField: "endDate"}
	}
	return nil
}

// TrainingPayload records a completed training with its certificate window.
type TrainingPayload struct {
	CourseName  string
	Provider    string
	WorkloadHrs int
	Certificate validity.Window
}

func (TrainingPayload) EventKind() Kind { return KindTraining }

func (p TrainingPayload) Validate() error {
	if p.CourseName == "" {
		return &FieldError{Kind: KindTraining, Field: "courseName"}
	}
	return p.Certificate.Validate()
}

// CommendationPayload records formal recognition.
type CommendationPayload struct {
	Title string
}

func (CommendationPayload) EventKind() Kind { return KindCommendation }

func (p CommendationPayload) Validate() error {
	if p.Title == "" {
		return &FieldError{Kind: KindCommendation, Field: "title"}
	}
	return nil
}

// TerminationType classifies how the contract ended.
type TerminationType string

const (
	TerminationVoluntary       TerminationType = "voluntary"
	TerminationWithoutCause    TerminationType = "without_cause"
	TerminationForCause        TerminationType = "for_cause"
	TerminationMutualAgreement TerminationType = "mutual_agreement"
)

// TerminationPayload closes the history. At most one per employee.
type TerminationPayload struct {
	Type       TerminationType
	Reason     string
	NoticeDate *time.Time
}

func (TerminationPayload) EventKind() Kind { return KindTermination }

func (p TerminationPayload) Validate() error {
	if p.Type == "" {
		return &FieldError{Kind: KindTermination, Field: "type"}
	}
	if p.Reason == "" {
		return &FieldError{Kind: KindTermination, Field: "reason"}
	}
	return nil
}

// LeaveOfAbsencePayload records an unpaid or statutory leave.
type LeaveOfAbsencePayload struct {
	Reason    string
	StartDate time.Time
	EndDate   *time.Time // open-ended when nil
}

func (LeaveOfAbsencePayload) EventKind() Kind { return KindLeaveOfAbsence }

func (p LeaveOfAbsencePayload) Validate() error {
	if p.Reason == "" {
		return &FieldError{Kind: KindLeaveOfAbsence, Field: "reason"}
	}
	if p.StartDate.IsZero() {
		return &FieldError{Kind: KindLeaveOfAbsence, Field: "startDate"}
	}
	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return &DateRangeError{Kind: KindLeaveOfAbsence, StartField: "startDate", EndField: "endDate"}
	}
	return nil
}

// SuspensionPayload records a disciplinary suspension.
type SuspensionPayload struct {
	Reason    string
	StartDate time.Time
	EndDate   time.Time
}

func (SuspensionPayload) EventKind() Kind { return KindSuspension }

func (p SuspensionPayload) Validate() error {
	if p.Reason == "" {
		return &FieldError{Kind: KindSuspension, Field: "reason"}
	}
	if p.StartDate.IsZero() {
		return &FieldError{Kind: KindSuspension, Field: "startDate"}
	}
	if !p.EndDate.IsZero() && p.EndDate.Before(p.StartDate) {
		return &DateRangeError{Kind: KindSuspension, StartField: "startDate", EndField: "endDate"}
	}
	return nil
}

// Compile-time union membership checks.
var (
	_ Payload = AdmissionPayload{}
	_ Payload = MedicalCertificatePayload{}
	_ Payload = WarningPayload{}
	_ Payload = PromotionPayload{}
	_ Payload = TransferPayload{}
	_ Payload = VacationPayload{}
	_ Payload = TrainingPayload{}
	_ Payload = CommendationPayload{}
	_ Payload = TerminationPayload{}
	_ Payload = LeaveOfAbsencePayload{}
	_ Payload = SuspensionPayload{}
)
