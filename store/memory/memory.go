// Package memory provides in-memory repository implementations for tests
// and development. Same contracts as the sqlite adapter: atomic per-command
// persistence, copies handed out so callers never alias internal state.
package memory

import (
	"context"
	"sync"

	"github.com/vitaehr/prontuario-engine/epi"
	"github.com/vitaehr/prontuario-engine/payroll"
	"github.com/vitaehr/prontuario-engine/prontuario"
	"github.com/vitaehr/prontuario-engine/vacation"
)

// Store implements every domain repository in memory.
type Store struct {
	mu sync.RWMutex

	employees   map[prontuario.EmployeeID]*prontuario.Employee
	vacations   map[vacation.PeriodID]*vacation.VacationPeriod
	adjustments map[prontuario.EmployeeID][]*payroll.Adjustment
	items       map[epi.ItemCode]*epi.Item
	issuances   map[epi.IssuanceID]*epi.Issuance

	// Insertion order for deterministic listings.
	employeeOrder []prontuario.EmployeeID
	vacationOrder []vacation.PeriodID
	issuanceOrder []epi.IssuanceID
	itemOrder     []epi.ItemCode
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		employees:   make(map[prontuario.EmployeeID]*prontuario.Employee),
		vacations:   make(map[vacation.PeriodID]*vacation.VacationPeriod),
		adjustments: make(map[prontuario.EmployeeID][]*payroll.Adjustment),
		items:       make(map[epi.ItemCode]*epi.Item),
		issuances:   make(map[epi.IssuanceID]*epi.Issuance),
	}
}

// Compile-time interface checks.
var (
	_ prontuario.Repository = (*Store)(nil)
	_ vacation.Repository   = (*Store)(nil)
	_ payroll.Repository    = (*Store)(nil)
	_ epi.Repository        = (*Store)(nil)
)

// =============================================================================
// EMPLOYEE REPOSITORY
// =============================================================================

func (s *Store) Get(_ context.Context, id prontuario.EmployeeID) (*prontuario.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	emp, ok := s.employees[id]
	if !ok {
		return nil, prontuario.ErrEmployeeNotFound
	}
	return copyEmployee(emp), nil
}

func (s *Store) Save(_ context.Context, emp *prontuario.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.employees[emp.ID]; !ok {
		s.employeeOrder = append(s.employeeOrder, emp.ID)
	}
	s.employees[emp.ID] = copyEmployee(emp)
	return nil
}

func (s *Store) List(_ context.Context) ([]*prontuario.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*prontuario.Employee, 0, len(s.employeeOrder))
	for _, id := range s.employeeOrder {
		out = append(out, copyEmployee(s.employees[id]))
	}
	return out, nil
}

func copyEmployee(emp *prontuario.Employee) *prontuario.Employee {
	cp := *emp
	cp.Events = make([]prontuario.Event, len(emp.Events))
	copy(cp.Events, emp.Events)
	if emp.TerminationDate != nil {
		t := *emp.TerminationDate
		cp.TerminationDate = &t
	}
	return &cp
}

// =============================================================================
// VACATION REPOSITORY
// =============================================================================

func (s *Store) GetPeriod(_ context.Context, id vacation.PeriodID) (*vacation.VacationPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.vacations[id]
	if !ok {
		return nil, vacation.ErrPeriodNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) SavePeriod(_ context.Context, p *vacation.VacationPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.vacations[p.ID]; !ok {
		s.vacationOrder = append(s.vacationOrder, p.ID)
	}
	cp := *p
	s.vacations[p.ID] = &cp
	return nil
}

func (s *Store) ListPeriodsByEmployee(_ context.Context, employeeID prontuario.EmployeeID) ([]*vacation.VacationPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*vacation.VacationPeriod
	for _, id := range s.vacationOrder {
		if p := s.vacations[id]; p.EmployeeID == employeeID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// =============================================================================
// PAYROLL REPOSITORY (append-only)
// =============================================================================

func (s *Store) Append(_ context.Context, a *payroll.Adjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *a
	s.adjustments[a.EmployeeID] = append(s.adjustments[a.EmployeeID], &cp)
	return nil
}

func (s *Store) ListByEmployee(_ context.Context, employeeID prontuario.EmployeeID) ([]*payroll.Adjustment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ledger := s.adjustments[employeeID]
	out := make([]*payroll.Adjustment, 0, len(ledger))
	for _, a := range ledger {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

// =============================================================================
// EPI REPOSITORY
// =============================================================================

func (s *Store) GetItem(_ context.Context, code epi.ItemCode) (*epi.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[code]
	if !ok {
		return nil, epi.ErrItemNotFound
	}
	cp := *item
	return &cp, nil
}

func (s *Store) SaveItem(_ context.Context, item *epi.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[item.Code]; !ok {
		s.itemOrder = append(s.itemOrder, item.Code)
	}
	cp := *item
	s.items[item.Code] = &cp
	return nil
}

func (s *Store) ListItems(_ context.Context) ([]*epi.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*epi.Item, 0, len(s.itemOrder))
	for _, code := range s.itemOrder {
		cp := *s.items[code]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) GetIssuance(_ context.Context, id epi.IssuanceID) (*epi.Issuance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	iss, ok := s.issuances[id]
	if !ok {
		return nil, epi.ErrIssuanceNotFound
	}
	return copyIssuance(iss), nil
}

func (s *Store) SaveIssuance(_ context.Context, iss *epi.Issuance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.issuances[iss.ID]; !ok {
		s.issuanceOrder = append(s.issuanceOrder, iss.ID)
	}
	s.issuances[iss.ID] = copyIssuance(iss)
	return nil
}

// SaveIssue stores the decremented item and the new issuance under a single
// lock so readers never observe one without the other.
func (s *Store) SaveIssue(_ context.Context, item *epi.Item, iss *epi.Issuance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[item.Code]; !ok {
		s.itemOrder = append(s.itemOrder, item.Code)
	}
	cp := *item
	s.items[item.Code] = &cp

	if _, ok := s.issuances[iss.ID]; !ok {
		s.issuanceOrder = append(s.issuanceOrder, iss.ID)
	}
	s.issuances[iss.ID] = copyIssuance(iss)
	return nil
}

func (s *Store) ListIssuancesByEmployee(_ context.Context, employeeID prontuario.EmployeeID) ([]*epi.Issuance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*epi.Issuance
	for _, id := range s.issuanceOrder {
		if iss := s.issuances[id]; iss.EmployeeID == employeeID {
			out = append(out, copyIssuance(iss))
		}
	}
	return out, nil
}

func (s *Store) ListOpenIssuances(_ context.Context) ([]*epi.Issuance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*epi.Issuance
	for _, id := range s.issuanceOrder {
		if iss := s.issuances[id]; iss.Status == epi.IssuanceIssued {
			out = append(out, copyIssuance(iss))
		}
	}
	return out, nil
}

func copyIssuance(iss *epi.Issuance) *epi.Issuance {
	cp := *iss
	if iss.ReturnedAt != nil {
		t := *iss.ReturnedAt
		cp.ReturnedAt = &t
	}
	return &cp
}
