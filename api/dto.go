/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Employee:
    EmployeeDTO, CreateEmployeeRequest

  Events:
    EventDTO, RecordEventRequest (kind discriminator + raw payload)

  Vacation:
    VacationPeriodDTO, RecordVacationRequest

  Payroll:
    AdjustmentDTO, RecordAdjustmentRequest

  EPI:
    ItemDTO, IssuanceDTO, CreateItemRequest, IssueRequest, RestockRequest

  Alerts:
    EPIAlertsDTO

VALIDATION:
  Request types carry go-playground/validator struct tags; handlers run
  them through the shared validator before touching domain logic. Domain
  invariants (date ordering, balance arithmetic, lifecycle gates) stay in
  the domain packages.

DATES:
  All dates cross the wire as RFC 3339 strings. Date-only inputs accept
  "2006-01-02" as well.

SEE ALSO:
  - handlers.go: Uses these types
  - prontuario/codec.go: Payload reconstruction from the kind discriminator
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/vitaehr/prontuario-engine/epi"
	"github.com/vitaehr/prontuario-engine/payroll"
	"github.com/vitaehr/prontuario-engine/prontuario"
	"github.com/vitaehr/prontuario-engine/vacation"
)

// =============================================================================
// EMPLOYEE TYPES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	CPF             string `json:"cpf,omitempty"`
	Email           string `json:"email,omitempty"`
	AdmissionDate   string `json:"admission_date"`
	TerminationDate string `json:"termination_date,omitempty"`
	Role            string `json:"role,omitempty"`
	Department      string `json:"department,omitempty"`
	Salary          string `json:"salary"`
	WorkSchedule    string `json:"work_schedule,omitempty"`
	Status          string `json:"status"`
	EventCount      int    `json:"event_count"`
}

// CreateEmployeeRequest is the request to create an employee.
type CreateEmployeeRequest struct {
	Name          string `json:"name" validate:"required"`
	CPF           string `json:"cpf" validate:"omitempty,len=14"`
	Email         string `json:"email" validate:"omitempty,email"`
	AdmissionDate string `json:"admission_date" validate:"required"`
	Role          string `json:"role"`
	Department    string `json:"department"`
	Salary        string `json:"salary" validate:"omitempty,numeric"`
	WorkSchedule  string `json:"work_schedule"`
}

// =============================================================================
// EVENT TYPES
// =============================================================================

// EventDTO represents one timeline entry in API responses. Payload is
// echoed back as-is under its kind discriminator.
type EventDTO struct {
	ID             string          `json:"id"`
	Kind           string          `json:"kind"`
	OccurredAt     string          `json:"occurred_at"`
	Description    string          `json:"description,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	AttachmentRef  string          `json:"attachment_ref,omitempty"`
	RecordedByName string          `json:"recorded_by_name,omitempty"`
	Payload        json.RawMessage `json:"payload"`
	CreatedAt      string          `json:"created_at,omitempty"`
}

// RecordEventRequest submits a new history entry. The payload shape
// depends on the kind; it is decoded through the taxonomy, never by
// guessing at optional fields.
type RecordEventRequest struct {
	Kind           string          `json:"kind" validate:"required"`
	OccurredAt     string          `json:"occurred_at"`
	Description    string          `json:"description"`
	Notes          string          `json:"notes"`
	AttachmentRef  string          `json:"attachment_ref"`
	RecordedByID   string          `json:"recorded_by_user_id"`
	RecordedByName string          `json:"recorded_by_name"`
	Payload        json.RawMessage `json:"payload" validate:"required"`
}

// =============================================================================
// VACATION TYPES
// =============================================================================

// VacationPeriodDTO represents one acquisition period's balance.
type VacationPeriodDTO struct {
	ID               string `json:"id"`
	EmployeeID       string `json:"employee_id"`
	AcquisitionStart string `json:"acquisition_start"`
	AcquisitionEnd   string `json:"acquisition_end"`
	EntitledDays     int    `json:"entitled_days"`
	TakenDays        int    `json:"taken_days"`
	RemainingDays    int    `json:"remaining_days"`
	ScheduledStart   string `json:"scheduled_start,omitempty"`
	ScheduledEnd     string `json:"scheduled_end,omitempty"`
	Type             string `json:"type"`

	// Advisory flag, never blocks the write.
	ExceedsCashOutCap bool `json:"exceeds_cash_out_cap,omitempty"`
}

// RecordVacationRequest records or amends an acquisition period.
// remaining_days is absent on purpose: the engine derives it.
type RecordVacationRequest struct {
	AcquisitionStart string `json:"acquisition_start" validate:"required"`
	AcquisitionEnd   string `json:"acquisition_end" validate:"required"`
	EntitledDays     int    `json:"entitled_days" validate:"gte=0"`
	TakenDays        int    `json:"taken_days" validate:"gte=0"`
	ScheduledStart   string `json:"scheduled_start"`
	ScheduledEnd     string `json:"scheduled_end"`
	Type             string `json:"type" validate:"omitempty,oneof=full split collective cashed_out"`
}

// =============================================================================
// PAYROLL TYPES
// =============================================================================

// AdjustmentDTO represents one ledger entry with its derived percentage.
type AdjustmentDTO struct {
	ID             string `json:"id"`
	EmployeeID     string `json:"employee_id"`
	PreviousSalary string `json:"previous_salary"`
	NewSalary      string `json:"new_salary"`
	AdjustmentDate string `json:"adjustment_date"`
	EffectiveDate  string `json:"effective_date"`
	Reason         string `json:"reason,omitempty"`
	ApprovedBy     string `json:"approved_by,omitempty"`
	PercentChange  string `json:"percent_change"`
}

// RecordAdjustmentRequest appends an increase to the ledger.
type RecordAdjustmentRequest struct {
	PreviousSalary string `json:"previous_salary" validate:"required,numeric"`
	NewSalary      string `json:"new_salary" validate:"required,numeric"`
	AdjustmentDate string `json:"adjustment_date" validate:"required"`
	EffectiveDate  string `json:"effective_date" validate:"required"`
	Reason         string `json:"reason"`
	ApprovedBy     string `json:"approved_by"`
}

// =============================================================================
// EPI TYPES
// =============================================================================

// ItemDTO represents a protective equipment item with derived stock status.
type ItemDTO struct {
	Code             string `json:"code"`
	Name             string `json:"name"`
	Category         string `json:"category,omitempty"`
	CA               string `json:"ca"`
	Manufacturer     string `json:"manufacturer,omitempty"`
	CAExpiry         string `json:"ca_expiry"`
	DurabilityMonths int    `json:"durability_months"`
	StockQuantity    int    `json:"stock_quantity"`
	MinimumStock     int    `json:"minimum_stock"`
	UnitPrice        string `json:"unit_price"`
	Supplier         string `json:"supplier,omitempty"`
	StockStatus      string `json:"stock_status"`
}

// CreateItemRequest registers an equipment item in the catalog.
type CreateItemRequest struct {
	Code             string `json:"code" validate:"required"`
	Name             string `json:"name" validate:"required"`
	Category         string `json:"category"`
	CA               string `json:"ca" validate:"required"`
	Manufacturer     string `json:"manufacturer"`
	CAExpiry         string `json:"ca_expiry" validate:"required"`
	DurabilityMonths int    `json:"durability_months" validate:"gt=0"`
	StockQuantity    int    `json:"stock_quantity" validate:"gte=0"`
	MinimumStock     int    `json:"minimum_stock" validate:"gte=0"`
	UnitPrice        string `json:"unit_price" validate:"omitempty,numeric"`
	Supplier         string `json:"supplier"`
}

// IssuanceDTO represents one issuance with its derived validity.
type IssuanceDTO struct {
	ID         string `json:"id"`
	EmployeeID string `json:"employee_id"`
	ItemCode   string `json:"item_code"`
	Quantity   int    `json:"quantity"`
	IssuedAt   string `json:"issued_at"`
	ExpiresAt  string `json:"expires_at"`
	ReturnedAt string `json:"returned_at,omitempty"`
	Status     string `json:"status"`
	Validity   string `json:"validity,omitempty"`
}

// IssueRequest hands equipment to an employee.
type IssueRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	ItemCode   string `json:"item_code" validate:"required"`
	Quantity   int    `json:"quantity" validate:"gt=0"`
	IssuedAt   string `json:"issued_at"`
}

// RestockRequest adds units to an item's stock.
type RestockRequest struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

// EPIAlertsDTO groups the compliance alerts in one response.
type EPIAlertsDTO struct {
	ExpiringSoon  []IssuanceDTO `json:"expiring_soon"`
	Expired       []IssuanceDTO `json:"expired"`
	LowStock      []ItemDTO     `json:"low_stock"`
	ExpiredCA     []ItemDTO     `json:"expired_certifications"`
	WarningWindow int           `json:"warning_window_days"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// MAPPERS
// =============================================================================

func toEmployeeDTO(e *prontuario.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		ID:            string(e.ID),
		Name:          e.Name,
		CPF:           e.CPF,
		Email:         e.Email,
		AdmissionDate: formatDate(e.AdmissionDate),
		Role:          e.Role,
		Department:    e.Department,
		Salary:        e.Salary.String(),
		WorkSchedule:  e.WorkSchedule,
		Status:        string(e.Status()),
		EventCount:    len(e.Events),
	}
	if e.TerminationDate != nil {
		dto.TerminationDate = formatDate(*e.TerminationDate)
	}
	return dto
}

func toEventDTO(e prontuario.Event) EventDTO {
	payload, _ := prontuario.MarshalPayload(e.Payload)
	dto := EventDTO{
		ID:             string(e.ID),
		Kind:           string(e.Kind()),
		OccurredAt:     formatDate(e.OccurredAt),
		Description:    e.Description,
		Notes:          e.Notes,
		AttachmentRef:  e.AttachmentRef,
		RecordedByName: e.RecordedByName,
		Payload:        payload,
	}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

func toVacationDTO(p *vacation.VacationPeriod) VacationPeriodDTO {
	dto := VacationPeriodDTO{
		ID:                string(p.ID),
		EmployeeID:        string(p.EmployeeID),
		AcquisitionStart:  formatDate(p.AcquisitionStart),
		AcquisitionEnd:    formatDate(p.AcquisitionEnd),
		EntitledDays:      p.EntitledDays,
		TakenDays:         p.TakenDays,
		RemainingDays:     p.RemainingDays,
		Type:              string(p.Type),
		ExceedsCashOutCap: p.ExceedsCashOutCap(),
	}
	if p.ScheduledStart != nil {
		dto.ScheduledStart = formatDate(*p.ScheduledStart)
	}
	if p.ScheduledEnd != nil {
		dto.ScheduledEnd = formatDate(*p.ScheduledEnd)
	}
	return dto
}

func toAdjustmentDTO(a *payroll.Adjustment) AdjustmentDTO {
	return AdjustmentDTO{
		ID:             string(a.ID),
		EmployeeID:     string(a.EmployeeID),
		PreviousSalary: a.PreviousSalary.String(),
		NewSalary:      a.NewSalary.String(),
		AdjustmentDate: formatDate(a.AdjustmentDate),
		EffectiveDate:  formatDate(a.EffectiveDate),
		Reason:         a.Reason,
		ApprovedBy:     a.ApprovedBy,
		PercentChange:  a.FormatPercent(),
	}
}

func toItemDTO(i *epi.Item) ItemDTO {
	return ItemDTO{
		Code:             string(i.Code),
		Name:             i.Name,
		Category:         i.Category,
		CA:               i.CA,
		Manufacturer:     i.Manufacturer,
		CAExpiry:         formatDate(i.CAExpiry),
		DurabilityMonths: i.DurabilityMonths,
		StockQuantity:    i.StockQuantity,
		MinimumStock:     i.MinimumStock,
		UnitPrice:        i.UnitPrice.String(),
		Supplier:         i.Supplier,
		StockStatus:      string(i.Status()),
	}
}

func toIssuanceDTO(iss *epi.Issuance, validityStatus string) IssuanceDTO {
	dto := IssuanceDTO{
		ID:         string(iss.ID),
		EmployeeID: string(iss.EmployeeID),
		ItemCode:   string(iss.ItemCode),
		Quantity:   iss.Quantity,
		IssuedAt:   formatDate(iss.IssuedAt),
		ExpiresAt:  formatDate(iss.ExpiresAt),
		Status:     string(iss.Status),
		Validity:   validityStatus,
	}
	if iss.ReturnedAt != nil {
		dto.ReturnedAt = formatDate(*iss.ReturnedAt)
	}
	return dto
}

func formatDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// parseDate accepts date-only or full RFC 3339 input.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
