/*
handlers.go - HTTP API handlers for the employee record engine

PURPOSE:
  Exposes the record engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees                      List all employees
    POST   /api/employees                      Create employee
    GET    /api/employees/{id}                 Get employee details
    POST   /api/employees/{id}/events          Record a history event
    GET    /api/employees/{id}/timeline        Chronological projection (?kind=)

  Vacations:
    GET    /api/employees/{id}/vacations       List acquisition periods
    POST   /api/employees/{id}/vacations       Record an acquisition period
    PUT    /api/vacations/{id}                 Amend a period (balance re-derived)

  Payroll:
    GET    /api/employees/{id}/adjustments     Salary ledger, chronological
    POST   /api/employees/{id}/adjustments     Append an increase

  EPI:
    GET    /api/epi/items                      Equipment catalog
    POST   /api/epi/items                      Register an item
    POST   /api/epi/items/{code}/restock       Add stock
    POST   /api/epi/issuances                  Issue equipment to an employee
    POST   /api/epi/issuances/{id}/return      Record a return (no restock)
    GET    /api/employees/{id}/epi             Employee's issuances with validity
    GET    /api/alerts/epi                     Compliance alerts (?within_days=)

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (go-playground/validator on the DTO)
  3. Call domain logic (timeline, vacation accounting, ledger, inventory)
  4. Serialize response
  5. Map errors to status codes

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, rejected domain commands
  - 404: Resource not found
  - 409: Lifecycle conflicts (terminated employee, duplicate termination,
         double return, insufficient stock)
  - 500: Internal errors

SECURITY NOTE:
  No authentication middleware currently. The recorded_by_* fields are
  taken verbatim from the request; a session provider fills them in
  deployments that have one.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vitaehr/prontuario-engine/epi"
	"github.com/vitaehr/prontuario-engine/payroll"
	"github.com/vitaehr/prontuario-engine/prontuario"
	"github.com/vitaehr/prontuario-engine/store/sqlite"
	"github.com/vitaehr/prontuario-engine/vacation"
	"github.com/vitaehr/prontuario-engine/validity"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     *sqlite.Store
	Employees *prontuario.Service

	validate *validator.Validate

	// Now is swappable in tests.
	Now func() time.Time
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store) *Handler {
	now := func() time.Time { return time.Now().UTC() }
	return &Handler{
		Store:     store,
		Employees: prontuario.NewService(store, now),
		validate:  validator.New(),
		Now:       now,
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee registers a new employee record.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if !h.decode(w, r, &req) {
		return
	}

	admission, err := parseDate(req.AdmissionDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid admission_date", err)
		return
	}

	salary := decimal.Zero
	if req.Salary != "" {
		if salary, err = decimal.NewFromString(req.Salary); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid salary", err)
			return
		}
	}

	now := h.Now()
	emp := &prontuario.Employee{
		ID:            prontuario.EmployeeID(uuid.NewString()),
		Name:          req.Name,
		CPF:           req.CPF,
		Email:         req.Email,
		AdmissionDate: admission,
		Role:          req.Role,
		Department:    req.Department,
		Salary:        salary,
		WorkSchedule:  req.WorkSchedule,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := emp.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee", err)
		return
	}

	if err := h.Store.Save(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// GetEmployee returns one employee with derived lifecycle status.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := prontuario.EmployeeID(chi.URLParam(r, "id"))

	emp, err := h.Store.Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to load employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// RecordEvent appends a history entry through the single validation path.
func (h *Handler) RecordEvent(w http.ResponseWriter, r *http.Request) {
	id := prontuario.EmployeeID(chi.URLParam(r, "id"))

	var req RecordEventRequest
	if !h.decode(w, r, &req) {
		return
	}

	payload, err := prontuario.UnmarshalPayload(prontuario.Kind(req.Kind), req.Payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payload", err)
		return
	}

	var occurredAt time.Time
	if req.OccurredAt != "" {
		if occurredAt, err = parseDate(req.OccurredAt); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid occurred_at", err)
			return
		}
	}

	event, err := h.Employees.RecordEvent(r.Context(), id, prontuario.EventDraft{
		OccurredAt:       occurredAt,
		Description:      req.Description,
		Notes:            req.Notes,
		AttachmentRef:    req.AttachmentRef,
		RecordedByUserID: req.RecordedByID,
		RecordedByName:   req.RecordedByName,
		Payload:          payload,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to record event", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEventDTO(*event))
}

// GetTimeline returns the employee's history, most recent first.
// An optional ?kind= filter narrows to one event kind.
func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	id := prontuario.EmployeeID(chi.URLParam(r, "id"))

	events, err := h.Employees.Timeline(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to load timeline", err)
		return
	}

	if kind := r.URL.Query().Get("kind"); kind != "" {
		events = prontuario.TimelineByKind(events, prontuario.Kind(kind))
	}

	dtos := make([]EventDTO, len(events))
	for i, e := range events {
		dtos[i] = toEventDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// VACATION HANDLERS
// =============================================================================

// ListVacations returns the employee's acquisition periods, oldest first.
func (h *Handler) ListVacations(w http.ResponseWriter, r *http.Request) {
	id := prontuario.EmployeeID(chi.URLParam(r, "id"))

	periods, err := h.Store.ListPeriodsByEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list periods", err)
		return
	}

	dtos := make([]VacationPeriodDTO, len(periods))
	for i, p := range periods {
		dtos[i] = toVacationDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RecordVacation records a new acquisition period. The remaining balance
// is always derived server-side.
func (h *Handler) RecordVacation(w http.ResponseWriter, r *http.Request) {
	id := prontuario.EmployeeID(chi.URLParam(r, "id"))

	draft, ok := h.vacationDraft(w, r, id)
	if !ok {
		return
	}

	period, err := vacation.Record(draft, h.Now())
	if err != nil {
		h.writeDomainError(w, "Failed to record vacation", err)
		return
	}

	if err := h.Store.SavePeriod(r.Context(), period); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save period", err)
		return
	}
	writeJSON(w, http.StatusCreated, toVacationDTO(period))
}

// AmendVacation updates an existing period and re-derives its balance.
func (h *Handler) AmendVacation(w http.ResponseWriter, r *http.Request) {
	id := vacation.PeriodID(chi.URLParam(r, "id"))

	period, err := h.Store.GetPeriod(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to load period", err)
		return
	}

	draft, ok := h.vacationDraft(w, r, period.EmployeeID)
	if !ok {
		return
	}

	if err := vacation.Amend(period, draft, h.Now()); err != nil {
		h.writeDomainError(w, "Failed to amend vacation", err)
		return
	}

	if err := h.Store.SavePeriod(r.Context(), period); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save period", err)
		return
	}
	writeJSON(w, http.StatusOK, toVacationDTO(period))
}

func (h *Handler) vacationDraft(w http.ResponseWriter, r *http.Request, id prontuario.EmployeeID) (vacation.Draft, bool) {
	var req RecordVacationRequest
	if !h.decode(w, r, &req) {
		return vacation.Draft{}, false
	}

	acqStart, err := parseDate(req.AcquisitionStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid acquisition_start", err)
		return vacation.Draft{}, false
	}
	acqEnd, err := parseDate(req.AcquisitionEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid acquisition_end", err)
		return vacation.Draft{}, false
	}
	schedStart, err := parseOptionalDate(req.ScheduledStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scheduled_start", err)
		return vacation.Draft{}, false
	}
	schedEnd, err := parseOptionalDate(req.ScheduledEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid scheduled_end", err)
		return vacation.Draft{}, false
	}

	return vacation.Draft{
		EmployeeID:       id,
		AcquisitionStart: acqStart,
		AcquisitionEnd:   acqEnd,
		EntitledDays:     req.EntitledDays,
		TakenDays:        req.TakenDays,
		ScheduledStart:   schedStart,
		ScheduledEnd:     schedEnd,
		Type:             vacation.Type(req.Type),
	}, true
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// ListAdjustments returns the salary ledger in effective-date order.
func (h *Handler) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	id := prontuario.EmployeeID(chi.URLParam(r, "id"))

	ledger, err := h.Store.ListByEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list adjustments", err)
		return
	}

	dtos := make([]AdjustmentDTO, len(ledger))
	for i, a := range payroll.ByEffectiveDate(ledger) {
		dtos[i] = toAdjustmentDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RecordAdjustment appends an increase to the ledger.
func (h *Handler) RecordAdjustment(w http.ResponseWriter, r *http.Request) {
	id := prontuario.EmployeeID(chi.URLParam(r, "id"))

	var req RecordAdjustmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	previous, err := decimal.NewFromString(req.PreviousSalary)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid previous_salary", err)
		return
	}
	next, err := decimal.NewFromString(req.NewSalary)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid new_salary", err)
		return
	}
	adjDate, err := parseDate(req.AdjustmentDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid adjustment_date", err)
		return
	}
	effDate, err := parseDate(req.EffectiveDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid effective_date", err)
		return
	}

	adjustment, err := payroll.Record(payroll.Draft{
		EmployeeID:     id,
		PreviousSalary: previous,
		NewSalary:      next,
		AdjustmentDate: adjDate,
		EffectiveDate:  effDate,
		Reason:         req.Reason,
		ApprovedBy:     req.ApprovedBy,
	}, h.Now())
	if err != nil {
		h.writeDomainError(w, "Failed to record adjustment", err)
		return
	}

	if err := h.Store.Append(r.Context(), adjustment); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to append adjustment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAdjustmentDTO(adjustment))
}

// =============================================================================
// EPI HANDLERS
// =============================================================================

// ListItems returns the equipment catalog with derived stock status.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.ListItems(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list items", err)
		return
	}

	dtos := make([]ItemDTO, len(items))
	for i, item := range items {
		dtos[i] = toItemDTO(item)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateItem registers an equipment item.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	caExpiry, err := parseDate(req.CAExpiry)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ca_expiry", err)
		return
	}

	price := decimal.Zero
	if req.UnitPrice != "" {
		if price, err = decimal.NewFromString(req.UnitPrice); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid unit_price", err)
			return
		}
	}

	now := h.Now()
	item := &epi.Item{
		Code:             epi.ItemCode(req.Code),
		Name:             req.Name,
		Category:         req.Category,
		CA:               req.CA,
		Manufacturer:     req.Manufacturer,
		CAExpiry:         caExpiry,
		DurabilityMonths: req.DurabilityMonths,
		StockQuantity:    req.StockQuantity,
		MinimumStock:     req.MinimumStock,
		UnitPrice:        price,
		Supplier:         req.Supplier,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := h.Store.SaveItem(r.Context(), item); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save item", err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemDTO(item))
}

// RestockItem adds units to stock. Distinct from returns, which never
// restock.
func (h *Handler) RestockItem(w http.ResponseWriter, r *http.Request) {
	code := epi.ItemCode(chi.URLParam(r, "code"))

	var req RestockRequest
	if !h.decode(w, r, &req) {
		return
	}

	item, err := h.Store.GetItem(r.Context(), code)
	if err != nil {
		h.writeDomainError(w, "Failed to load item", err)
		return
	}

	if err := epi.Restock(item, req.Quantity, h.Now()); err != nil {
		h.writeDomainError(w, "Failed to restock", err)
		return
	}

	if err := h.Store.SaveItem(r.Context(), item); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save item", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(item))
}

// IssueEquipment hands equipment to an employee, decrementing stock and
// stamping the expiry from the item's durability.
func (h *Handler) IssueEquipment(w http.ResponseWriter, r *http.Request) {
	var req IssueRequest
	if !h.decode(w, r, &req) {
		return
	}

	employeeID := prontuario.EmployeeID(req.EmployeeID)
	if _, err := h.Store.Get(r.Context(), employeeID); err != nil {
		h.writeDomainError(w, "Failed to load employee", err)
		return
	}

	item, err := h.Store.GetItem(r.Context(), epi.ItemCode(req.ItemCode))
	if err != nil {
		h.writeDomainError(w, "Failed to load item", err)
		return
	}

	now := h.Now()
	issuedAt := now
	if req.IssuedAt != "" {
		if issuedAt, err = parseDate(req.IssuedAt); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid issued_at", err)
			return
		}
	}

	iss, err := epi.Issue(item, employeeID, req.Quantity, issuedAt, now)
	if err != nil {
		h.writeDomainError(w, "Failed to issue equipment", err)
		return
	}

	if err := h.Store.SaveIssue(r.Context(), item, iss); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save issuance", err)
		return
	}
	writeJSON(w, http.StatusCreated, toIssuanceDTO(iss, h.classify(iss)))
}

// ReturnEquipment records a return. Stock is not incremented; used
// equipment goes through restock if it re-enters circulation.
func (h *Handler) ReturnEquipment(w http.ResponseWriter, r *http.Request) {
	id := epi.IssuanceID(chi.URLParam(r, "id"))

	iss, err := h.Store.GetIssuance(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, "Failed to load issuance", err)
		return
	}

	if err := epi.Return(iss, h.Now()); err != nil {
		h.writeDomainError(w, "Failed to return equipment", err)
		return
	}

	if err := h.Store.SaveIssuance(r.Context(), iss); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save issuance", err)
		return
	}
	writeJSON(w, http.StatusOK, toIssuanceDTO(iss, ""))
}

// ListEmployeeIssuances returns an employee's issuances with the current
// validity classification on open ones.
func (h *Handler) ListEmployeeIssuances(w http.ResponseWriter, r *http.Request) {
	id := prontuario.EmployeeID(chi.URLParam(r, "id"))

	issuances, err := h.Store.ListIssuancesByEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list issuances", err)
		return
	}

	dtos := make([]IssuanceDTO, len(issuances))
	for i, iss := range issuances {
		status := ""
		if iss.Status == epi.IssuanceIssued {
			status = h.classify(iss)
		}
		dtos[i] = toIssuanceDTO(iss, status)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// EPIAlerts aggregates the compliance view: issuances expiring inside the
// warning window, already expired ones, low stock, and lapsed CA
// certifications.
func (h *Handler) EPIAlerts(w http.ResponseWriter, r *http.Request) {
	withinDays := validity.DefaultWarningWindowDays
	if raw := r.URL.Query().Get("within_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "Invalid within_days", err)
			return
		}
		withinDays = n
	}

	open, err := h.Store.ListOpenIssuances(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list issuances", err)
		return
	}
	items, err := h.Store.ListItems(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list items", err)
		return
	}

	now := h.Now()
	alerts := EPIAlertsDTO{
		ExpiringSoon:  make([]IssuanceDTO, 0),
		Expired:       make([]IssuanceDTO, 0),
		LowStock:      make([]ItemDTO, 0),
		ExpiredCA:     make([]ItemDTO, 0),
		WarningWindow: withinDays,
	}
	for _, iss := range epi.ExpiringSoon(open, withinDays, now) {
		alerts.ExpiringSoon = append(alerts.ExpiringSoon, toIssuanceDTO(iss, string(validity.StatusPending)))
	}
	for _, iss := range epi.Expired(open, now) {
		alerts.Expired = append(alerts.Expired, toIssuanceDTO(iss, string(validity.StatusExpired)))
	}
	for _, item := range epi.LowStockItems(items) {
		alerts.LowStock = append(alerts.LowStock, toItemDTO(item))
	}
	for _, item := range epi.ExpiredCertifications(items, now) {
		alerts.ExpiredCA = append(alerts.ExpiredCA, toItemDTO(item))
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (h *Handler) classify(iss *epi.Issuance) string {
	status, err := validity.Classify(iss.ExpiresAt, h.Now(), validity.DefaultWarningWindowDays)
	if err != nil {
		return ""
	}
	return string(status)
}

// =============================================================================
// HELPERS
// =============================================================================

// decode unmarshals and validates the request body, writing a 400 on
// failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// writeDomainError maps domain errors onto HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case isNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case isConflict(err):
		writeError(w, http.StatusConflict, message, err)
	case isInvalid(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func isNotFound(err error) bool {
	return prontuario.IsNotFound(err) ||
		errors.Is(err, vacation.ErrPeriodNotFound) ||
		errors.Is(err, epi.ErrItemNotFound) ||
		errors.Is(err, epi.ErrIssuanceNotFound)
}

func isConflict(err error) bool {
	return errors.Is(err, prontuario.ErrEmployeeTerminated) ||
		errors.Is(err, prontuario.ErrDuplicateTermination) ||
		errors.Is(err, epi.ErrInsufficientStock) ||
		errors.Is(err, epi.ErrAlreadyReturned)
}

func isInvalid(err error) bool {
	return prontuario.IsClientError(err) ||
		errors.Is(err, vacation.ErrInvalidDateRange) ||
		errors.Is(err, vacation.ErrNegativeDays) ||
		errors.Is(err, payroll.ErrNotAnIncrease) ||
		errors.Is(err, payroll.ErrMissingDate) ||
		errors.Is(err, payroll.ErrInvalidSalary) ||
		errors.Is(err, epi.ErrInvalidQuantity)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
