/*
repository.go - Persistence boundary for the employee aggregate

PURPOSE:
  The engine never touches a database directly. A Repository loads the full
  aggregate (employee + history) by id and persists the result of each
  command atomically - the engine assumes no partial writes are ever
  visible.

IMPLEMENTATIONS:
  - store/memory: in-memory, used by tests and dev
  - store/sqlite: durable adapter

CONCURRENCY:
  Commands are issued serially per aggregate; multi-user write
  serialization (optimistic locking on UpdatedAt, row locks) is the
  adapter's concern, not the engine's.
*/
package prontuario

import (
	"context"
	"time"
)

// Repository persists employee aggregates.
type Repository interface {
	// Get loads the aggregate with its full history.
	// Returns ErrEmployeeNotFound for unknown ids.
	Get(ctx context.Context, id EmployeeID) (*Employee, error)

	// Save persists the aggregate and its history atomically.
	Save(ctx context.Context, emp *Employee) error

	// List returns all employees, histories included.
	List(ctx context.Context) ([]*Employee, error)
}

// =============================================================================
// SERVICE - load, mutate, save
// =============================================================================

// Service runs event commands against persisted aggregates: the thin glue
// the presentation layer calls.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires a service over a repository. A nil clock uses time.Now.
func NewService(repo Repository, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{repo: repo, now: now}
}

// SetClock swaps the service clock, mainly for tests.
func (s *Service) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// RecordEvent loads the aggregate, appends the draft through AddEvent and
// persists the result. The returned event is the appended history entry.
func (s *Service) RecordEvent(ctx context.Context, id EmployeeID, draft EventDraft) (*Event, error) {
	emp, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	event, err := AddEvent(emp, draft, s.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, emp); err != nil {
		return nil, err
	}
	return event, nil
}

// Timeline loads the aggregate and returns its projected history.
func (s *Service) Timeline(ctx context.Context, id EmployeeID) ([]Event, error) {
	emp, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return ProjectTimeline(emp.Events), nil
}
