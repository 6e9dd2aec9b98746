package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaehr/prontuario-engine/prontuario"
	"github.com/vitaehr/prontuario-engine/store/memory"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedEmployee(t *testing.T, store *memory.Store) *prontuario.Employee {
	emp := &prontuario.Employee{
		ID:            "emp-1",
		Name:          "Joana Alves",
		AdmissionDate: day(2023, time.March, 1),
		Salary:        decimal.NewFromInt(3800),
	}
	require.NoError(t, store.Save(context.Background(), emp))
	return emp
}

func TestService_RecordEvent_ThroughMemoryStore(t *testing.T) {
	// GIVEN: A saved employee and a service over the memory store
	// WHEN: Recording an event
	// THEN: The persisted aggregate carries it and the timeline serves it

	store := memory.New()
	seedEmployee(t, store)
	ctx := context.Background()

	fixed := day(2025, time.June, 1)
	svc := prontuario.NewService(store, func() time.Time { return fixed })

	event, err := svc.RecordEvent(ctx, "emp-1", prontuario.EventDraft{
		OccurredAt:  day(2025, time.April, 4),
		Description: "NR-35 refresher",
		Payload: prontuario.CommendationPayload{
			Title: "Safety training completed",
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)

	timeline, err := svc.Timeline(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, timeline, 1)
	assert.Equal(t, prontuario.KindCommendation, timeline[0].Kind())
}

func TestService_RecordEvent_UnknownEmployee(t *testing.T) {
	store := memory.New()
	svc := prontuario.NewService(store, nil)

	_, err := svc.RecordEvent(context.Background(), "ghost", prontuario.EventDraft{
		Payload: prontuario.CommendationPayload{Title: "x"},
	})
	assert.ErrorIs(t, err, prontuario.ErrEmployeeNotFound)
}

func TestStore_HandsOutCopies(t *testing.T) {
	// GIVEN: A saved employee
	// WHEN: A caller mutates the loaded aggregate without saving
	// THEN: The stored state is untouched

	store := memory.New()
	seedEmployee(t, store)
	ctx := context.Background()

	loaded, err := store.Get(ctx, "emp-1")
	require.NoError(t, err)
	loaded.Name = "Mutated"

	fresh, err := store.Get(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "Joana Alves", fresh.Name)
}

func TestStore_ListPreservesInsertionOrder(t *testing.T) {
	store := memory.New()
	ctx := context.Background()

	for _, id := range []prontuario.EmployeeID{"z-emp", "a-emp", "m-emp"} {
		require.NoError(t, store.Save(ctx, &prontuario.Employee{
			ID:            id,
			Name:          string(id),
			AdmissionDate: day(2024, time.January, 2),
		}))
	}

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, prontuario.EmployeeID("z-emp"), all[0].ID)
	assert.Equal(t, prontuario.EmployeeID("m-emp"), all[2].ID)
}
