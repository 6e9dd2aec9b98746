/*
Package sqlite provides a SQLite-backed implementation of every domain
repository.

PURPOSE:
  One adapter, all aggregates: employee records with their event histories,
  vacation periods, the salary adjustment ledger, and EPI inventory with
  issuances. In production, the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  prontuario.Repository: Employee aggregates and event histories
  vacation.Repository:   Acquisition periods and balances
  payroll.Repository:    Salary adjustment ledger (append-only)
  epi.Repository:        Protective equipment items and issuances

APPEND-ONLY ENFORCEMENT:
  The salary_adjustments table has no UPDATE or DELETE path in this
  adapter. Employee events are upserted by id (administrative amendments
  keep the identity) but never deleted; insertion order lives in the
  position column so read-time projections see the same tie-breaks as
  the in-memory store.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/prontuario.db")   // ":memory:" for tests
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - store/memory: in-memory implementation behind the same interfaces
  - prontuario/repository.go: interface definition and service layer
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/vitaehr/prontuario-engine/epi"
	"github.com/vitaehr/prontuario-engine/payroll"
	"github.com/vitaehr/prontuario-engine/prontuario"
	"github.com/vitaehr/prontuario-engine/vacation"
)

// Store implements every domain repository over SQLite.
type Store struct {
	mu sync.RWMutex
	db *sql.DB
}

// Compile-time interface checks.
var (
	_ prontuario.Repository = (*Store)(nil)
	_ vacation.Repository   = (*Store)(nil)
	_ payroll.Repository    = (*Store)(nil)
	_ epi.Repository        = (*Store)(nil)
)

// New opens (or creates) the database and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		cpf TEXT,
		email TEXT,
		admission_date TEXT NOT NULL,
		termination_date TEXT,
		role TEXT,
		department TEXT,
		salary TEXT NOT NULL DEFAULT '0',
		work_schedule TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- History entries. Never deleted; amendments upsert by id.
	CREATE TABLE IF NOT EXISTS employee_events (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		kind TEXT NOT NULL,
		occurred_at TEXT NOT NULL,
		description TEXT,
		notes TEXT,
		attachment_ref TEXT,
		recorded_by_user_id TEXT,
		recorded_by_name TEXT,
		payload_json TEXT NOT NULL,
		position INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_employee
		ON employee_events(employee_id, position);
	CREATE INDEX IF NOT EXISTS idx_events_kind
		ON employee_events(employee_id, kind);

	-- One termination per employee, enforced at the database level too.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_events_single_termination
		ON employee_events(employee_id)
		WHERE kind = 'termination';

	CREATE TABLE IF NOT EXISTS vacation_periods (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		acquisition_start TEXT NOT NULL,
		acquisition_end TEXT NOT NULL,
		entitled_days INTEGER NOT NULL,
		taken_days INTEGER NOT NULL,
		remaining_days INTEGER NOT NULL,
		scheduled_start TEXT,
		scheduled_end TEXT,
		type TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (taken_days + remaining_days = entitled_days)
	);

	CREATE INDEX IF NOT EXISTS idx_vacations_employee
		ON vacation_periods(employee_id, acquisition_start);

	-- Append-only ledger: no UPDATE or DELETE path exists in this adapter.
	CREATE TABLE IF NOT EXISTS salary_adjustments (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		previous_salary TEXT NOT NULL,
		new_salary TEXT NOT NULL,
		adjustment_date TEXT NOT NULL,
		effective_date TEXT NOT NULL,
		reason TEXT,
		approved_by TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_adjustments_employee
		ON salary_adjustments(employee_id, effective_date);

	CREATE TABLE IF NOT EXISTS epi_items (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT,
		ca TEXT NOT NULL,
		manufacturer TEXT,
		ca_expiry TEXT NOT NULL,
		durability_months INTEGER NOT NULL,
		stock_quantity INTEGER NOT NULL CHECK (stock_quantity >= 0),
		minimum_stock INTEGER NOT NULL,
		unit_price TEXT NOT NULL DEFAULT '0',
		supplier TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS epi_issuances (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		item_code TEXT NOT NULL REFERENCES epi_items(code),
		quantity INTEGER NOT NULL,
		issued_at TEXT NOT NULL,
		expires_at TEXT NOT NULL,
		returned_at TEXT,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_issuances_employee
		ON epi_issuances(employee_id, issued_at);
	CREATE INDEX IF NOT EXISTS idx_issuances_status
		ON epi_issuances(status, expires_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEE REPOSITORY (prontuario.Repository)
// =============================================================================

// Get loads the aggregate with its full history, in insertion order.
func (s *Store) Get(ctx context.Context, id prontuario.EmployeeID) (*prontuario.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, cpf, email, admission_date, termination_date,
		       role, department, salary, work_schedule, created_at, updated_at
		FROM employees WHERE id = ?`, id)

	emp, err := scanEmployee(row)
	if err == sql.ErrNoRows {
		return nil, prontuario.ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}

	emp.Events, err = s.loadEvents(ctx, id)
	if err != nil {
		return nil, err
	}
	return emp, nil
}

// Save persists the aggregate and its history in one transaction.
func (s *Store) Save(ctx context.Context, emp *prontuario.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO employees
		(id, name, cpf, email, admission_date, termination_date, role,
		 department, salary, work_schedule, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			cpf = excluded.cpf,
			email = excluded.email,
			admission_date = excluded.admission_date,
			termination_date = excluded.termination_date,
			role = excluded.role,
			department = excluded.department,
			salary = excluded.salary,
			work_schedule = excluded.work_schedule,
			updated_at = excluded.updated_at`,
		emp.ID, emp.Name, emp.CPF, emp.Email,
		formatTime(emp.AdmissionDate), formatTimePtr(emp.TerminationDate),
		emp.Role, emp.Department, emp.Salary.String(), emp.WorkSchedule,
		formatTime(orNow(emp.CreatedAt)), formatTime(orNow(emp.UpdatedAt)),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}

	for position, event := range emp.Events {
		payloadJSON, err := prontuario.MarshalPayload(event.Payload)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO employee_events
			(id, employee_id, kind, occurred_at, description, notes,
			 attachment_ref, recorded_by_user_id, recorded_by_name,
			 payload_json, position, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				occurred_at = excluded.occurred_at,
				description = excluded.description,
				notes = excluded.notes,
				attachment_ref = excluded.attachment_ref,
				payload_json = excluded.payload_json`,
			event.ID, emp.ID, string(event.Kind()),
			formatTime(event.OccurredAt), event.Description, event.Notes,
			event.AttachmentRef, event.RecordedByUserID, event.RecordedByName,
			string(payloadJSON), position, formatTime(orNow(event.CreatedAt)),
		)
		if err != nil {
			return fmt.Errorf("failed to save event %s: %w", event.ID, err)
		}
	}

	return tx.Commit()
}

// List returns all employees with their histories, ordered by name.
func (s *Store) List(ctx context.Context) ([]*prontuario.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, cpf, email, admission_date, termination_date,
		       role, department, salary, work_schedule, created_at, updated_at
		FROM employees ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []*prontuario.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, emp := range employees {
		if emp.Events, err = s.loadEvents(ctx, emp.ID); err != nil {
			return nil, err
		}
	}
	return employees, nil
}

func (s *Store) loadEvents(ctx context.Context, id prontuario.EmployeeID) ([]prontuario.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, kind, occurred_at, description, notes,
		       attachment_ref, recorded_by_user_id, recorded_by_name,
		       payload_json, created_at
		FROM employee_events
		WHERE employee_id = ?
		ORDER BY position ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []prontuario.Event
	for rows.Next() {
		var (
			e           prontuario.Event
			kind        string
			occurredAt  string
			createdAt   string
			description sql.NullString
			notes       sql.NullString
			attachment  sql.NullString
			byUserID    sql.NullString
			byName      sql.NullString
			payloadJSON string
		)
		if err := rows.Scan(&e.ID, &e.EmployeeID, &kind, &occurredAt,
			&description, &notes, &attachment, &byUserID, &byName,
			&payloadJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		e.OccurredAt = parseTime(occurredAt)
		e.CreatedAt = parseTime(createdAt)
		e.Description = description.String
		e.Notes = notes.String
		e.AttachmentRef = attachment.String
		e.RecordedByUserID = byUserID.String
		e.RecordedByName = byName.String
		e.Payload, err = prontuario.UnmarshalPayload(prontuario.Kind(kind), []byte(payloadJSON))
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (*prontuario.Employee, error) {
	var (
		emp         prontuario.Employee
		cpf         sql.NullString
		email       sql.NullString
		admission   string
		termination sql.NullString
		role        sql.NullString
		department  sql.NullString
		salary      string
		schedule    sql.NullString
		createdAt   string
		updatedAt   string
	)
	err := row.Scan(&emp.ID, &emp.Name, &cpf, &email, &admission, &termination,
		&role, &department, &salary, &schedule, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	emp.CPF = cpf.String
	emp.Email = email.String
	emp.AdmissionDate = parseTime(admission)
	if termination.Valid {
		t := parseTime(termination.String)
		emp.TerminationDate = &t
	}
	emp.Role = role.String
	emp.Department = department.String
	emp.Salary = mustDecimal(salary)
	emp.WorkSchedule = schedule.String
	emp.CreatedAt = parseTime(createdAt)
	emp.UpdatedAt = parseTime(updatedAt)
	return &emp, nil
}

// =============================================================================
// VACATION REPOSITORY (vacation.Repository)
// =============================================================================

func (s *Store) GetPeriod(ctx context.Context, id vacation.PeriodID) (*vacation.VacationPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, acquisition_start, acquisition_end,
		       entitled_days, taken_days, remaining_days,
		       scheduled_start, scheduled_end, type, created_at, updated_at
		FROM vacation_periods WHERE id = ?`, id)

	p, err := scanVacation(row)
	if err == sql.ErrNoRows {
		return nil, vacation.ErrPeriodNotFound
	}
	return p, err
}

func (s *Store) SavePeriod(ctx context.Context, p *vacation.VacationPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO vacation_periods
		(id, employee_id, acquisition_start, acquisition_end, entitled_days,
		 taken_days, remaining_days, scheduled_start, scheduled_end, type,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			entitled_days = excluded.entitled_days,
			taken_days = excluded.taken_days,
			remaining_days = excluded.remaining_days,
			scheduled_start = excluded.scheduled_start,
			scheduled_end = excluded.scheduled_end,
			type = excluded.type,
			updated_at = excluded.updated_at`,
		p.ID, p.EmployeeID,
		formatTime(p.AcquisitionStart), formatTime(p.AcquisitionEnd),
		p.EntitledDays, p.TakenDays, p.RemainingDays,
		formatTimePtr(p.ScheduledStart), formatTimePtr(p.ScheduledEnd),
		string(p.Type), formatTime(orNow(p.CreatedAt)), formatTime(orNow(p.UpdatedAt)),
	)
	if err != nil {
		return fmt.Errorf("failed to save vacation period: %w", err)
	}
	return nil
}

func (s *Store) ListPeriodsByEmployee(ctx context.Context, employeeID prontuario.EmployeeID) ([]*vacation.VacationPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, acquisition_start, acquisition_end,
		       entitled_days, taken_days, remaining_days,
		       scheduled_start, scheduled_end, type, created_at, updated_at
		FROM vacation_periods
		WHERE employee_id = ?
		ORDER BY acquisition_start ASC`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []*vacation.VacationPeriod
	for rows.Next() {
		p, err := scanVacation(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func scanVacation(row rowScanner) (*vacation.VacationPeriod, error) {
	var (
		p                vacation.VacationPeriod
		acqStart, acqEnd string
		schedStart       sql.NullString
		schedEnd         sql.NullString
		vtype            string
		createdAt        string
		updatedAt        string
	)
	err := row.Scan(&p.ID, &p.EmployeeID, &acqStart, &acqEnd,
		&p.EntitledDays, &p.TakenDays, &p.RemainingDays,
		&schedStart, &schedEnd, &vtype, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	p.AcquisitionStart = parseTime(acqStart)
	p.AcquisitionEnd = parseTime(acqEnd)
	if schedStart.Valid {
		t := parseTime(schedStart.String)
		p.ScheduledStart = &t
	}
	if schedEnd.Valid {
		t := parseTime(schedEnd.String)
		p.ScheduledEnd = &t
	}
	p.Type = vacation.Type(vtype)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

// =============================================================================
// PAYROLL REPOSITORY (payroll.Repository) - append-only
// =============================================================================

// Append writes a ledger entry. This is the only write path: no update,
// no delete.
func (s *Store) Append(ctx context.Context, a *payroll.Adjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO salary_adjustments
		(id, employee_id, previous_salary, new_salary, adjustment_date,
		 effective_date, reason, approved_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.EmployeeID,
		a.PreviousSalary.String(), a.NewSalary.String(),
		formatTime(a.AdjustmentDate), formatTime(a.EffectiveDate),
		a.Reason, a.ApprovedBy, formatTime(orNow(a.CreatedAt)),
	)
	if err != nil {
		return fmt.Errorf("failed to append adjustment: %w", err)
	}
	return nil
}

func (s *Store) ListByEmployee(ctx context.Context, employeeID prontuario.EmployeeID) ([]*payroll.Adjustment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, previous_salary, new_salary,
		       adjustment_date, effective_date, reason, approved_by, created_at
		FROM salary_adjustments
		WHERE employee_id = ?
		ORDER BY effective_date ASC, created_at ASC`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ledger []*payroll.Adjustment
	for rows.Next() {
		var (
			a                payroll.Adjustment
			previous, salary string
			adjDate, effDate string
			reason           sql.NullString
			approvedBy       sql.NullString
			createdAt        string
		)
		if err := rows.Scan(&a.ID, &a.EmployeeID, &previous, &salary,
			&adjDate, &effDate, &reason, &approvedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan adjustment: %w", err)
		}
		a.PreviousSalary = mustDecimal(previous)
		a.NewSalary = mustDecimal(salary)
		a.AdjustmentDate = parseTime(adjDate)
		a.EffectiveDate = parseTime(effDate)
		a.Reason = reason.String
		a.ApprovedBy = approvedBy.String
		a.CreatedAt = parseTime(createdAt)
		ledger = append(ledger, &a)
	}
	return ledger, rows.Err()
}

// =============================================================================
// EPI REPOSITORY (epi.Repository)
// =============================================================================

func (s *Store) GetItem(ctx context.Context, code epi.ItemCode) (*epi.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT code, name, category, ca, manufacturer, ca_expiry,
		       durability_months, stock_quantity, minimum_stock, unit_price,
		       supplier, created_at, updated_at
		FROM epi_items WHERE code = ?`, code)

	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, epi.ErrItemNotFound
	}
	return item, err
}

func (s *Store) SaveItem(ctx context.Context, item *epi.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return execSaveItem(ctx, s.db, item)
}

// execer is satisfied by both *sql.DB and *sql.Tx, letting the item and
// issuance upserts run standalone or inside a transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func execSaveItem(ctx context.Context, ex execer, item *epi.Item) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO epi_items
		(code, name, category, ca, manufacturer, ca_expiry, durability_months,
		 stock_quantity, minimum_stock, unit_price, supplier, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			ca = excluded.ca,
			manufacturer = excluded.manufacturer,
			ca_expiry = excluded.ca_expiry,
			durability_months = excluded.durability_months,
			stock_quantity = excluded.stock_quantity,
			minimum_stock = excluded.minimum_stock,
			unit_price = excluded.unit_price,
			supplier = excluded.supplier,
			updated_at = excluded.updated_at`,
		item.Code, item.Name, item.Category, item.CA, item.Manufacturer,
		formatTime(item.CAExpiry), item.DurabilityMonths,
		item.StockQuantity, item.MinimumStock, item.UnitPrice.String(),
		item.Supplier, formatTime(orNow(item.CreatedAt)), formatTime(orNow(item.UpdatedAt)),
	)
	if err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}
	return nil
}

func (s *Store) ListItems(ctx context.Context) ([]*epi.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT code, name, category, ca, manufacturer, ca_expiry,
		       durability_months, stock_quantity, minimum_stock, unit_price,
		       supplier, created_at, updated_at
		FROM epi_items ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*epi.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanItem(row rowScanner) (*epi.Item, error) {
	var (
		item         epi.Item
		category     sql.NullString
		manufacturer sql.NullString
		supplier     sql.NullString
		caExpiry     string
		unitPrice    string
		createdAt    string
		updatedAt    string
	)
	err := row.Scan(&item.Code, &item.Name, &category, &item.CA, &manufacturer,
		&caExpiry, &item.DurabilityMonths, &item.StockQuantity,
		&item.MinimumStock, &unitPrice, &supplier, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	item.Category = category.String
	item.Manufacturer = manufacturer.String
	item.Supplier = supplier.String
	item.CAExpiry = parseTime(caExpiry)
	item.UnitPrice = mustDecimal(unitPrice)
	item.CreatedAt = parseTime(createdAt)
	item.UpdatedAt = parseTime(updatedAt)
	return &item, nil
}

func (s *Store) GetIssuance(ctx context.Context, id epi.IssuanceID) (*epi.Issuance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, employee_id, item_code, quantity, issued_at, expires_at,
		       returned_at, status, created_at
		FROM epi_issuances WHERE id = ?`, id)

	iss, err := scanIssuance(row)
	if err == sql.ErrNoRows {
		return nil, epi.ErrIssuanceNotFound
	}
	return iss, err
}

func (s *Store) SaveIssuance(ctx context.Context, iss *epi.Issuance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return execSaveIssuance(ctx, s.db, iss)
}

// SaveIssue writes the decremented item and the new issuance in one
// transaction. A failure on either write leaves the stock count untouched.
func (s *Store) SaveIssue(ctx context.Context, item *epi.Item, iss *epi.Issuance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := execSaveItem(ctx, tx, item); err != nil {
		return err
	}
	if err := execSaveIssuance(ctx, tx, iss); err != nil {
		return err
	}
	return tx.Commit()
}

func execSaveIssuance(ctx context.Context, ex execer, iss *epi.Issuance) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO epi_issuances
		(id, employee_id, item_code, quantity, issued_at, expires_at,
		 returned_at, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			returned_at = excluded.returned_at,
			status = excluded.status`,
		iss.ID, iss.EmployeeID, iss.ItemCode, iss.Quantity,
		formatTime(iss.IssuedAt), formatTime(iss.ExpiresAt),
		formatTimePtr(iss.ReturnedAt), string(iss.Status),
		formatTime(orNow(iss.CreatedAt)),
	)
	if err != nil {
		return fmt.Errorf("failed to save issuance: %w", err)
	}
	return nil
}

func (s *Store) ListIssuancesByEmployee(ctx context.Context, employeeID prontuario.EmployeeID) ([]*epi.Issuance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryIssuances(ctx, `
		SELECT id, employee_id, item_code, quantity, issued_at, expires_at,
		       returned_at, status, created_at
		FROM epi_issuances
		WHERE employee_id = ?
		ORDER BY issued_at ASC`, employeeID)
}

func (s *Store) ListOpenIssuances(ctx context.Context) ([]*epi.Issuance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryIssuances(ctx, `
		SELECT id, employee_id, item_code, quantity, issued_at, expires_at,
		       returned_at, status, created_at
		FROM epi_issuances
		WHERE status = 'issued'
		ORDER BY expires_at ASC`)
}

func (s *Store) queryIssuances(ctx context.Context, query string, args ...any) ([]*epi.Issuance, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var issuances []*epi.Issuance
	for rows.Next() {
		iss, err := scanIssuance(rows)
		if err != nil {
			return nil, err
		}
		issuances = append(issuances, iss)
	}
	return issuances, rows.Err()
}

func scanIssuance(row rowScanner) (*epi.Issuance, error) {
	var (
		iss        epi.Issuance
		issuedAt   string
		expiresAt  string
		returnedAt sql.NullString
		status     string
		createdAt  string
	)
	err := row.Scan(&iss.ID, &iss.EmployeeID, &iss.ItemCode, &iss.Quantity,
		&issuedAt, &expiresAt, &returnedAt, &status, &createdAt)
	if err != nil {
		return nil, err
	}

	iss.IssuedAt = parseTime(issuedAt)
	iss.ExpiresAt = parseTime(expiresAt)
	if returnedAt.Valid {
		t := parseTime(returnedAt.String)
		iss.ReturnedAt = &t
	}
	iss.Status = epi.IssuanceStatus(status)
	iss.CreatedAt = parseTime(createdAt)
	return &iss, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
