package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaehr/prontuario-engine/epi"
	"github.com/vitaehr/prontuario-engine/payroll"
	"github.com/vitaehr/prontuario-engine/prontuario"
	"github.com/vitaehr/prontuario-engine/store/sqlite"
	"github.com/vitaehr/prontuario-engine/vacation"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Referenced tables carry foreign keys, so dependent rows need a saved
// employee first.
func seedEmployee(t *testing.T, store *sqlite.Store, id string) *prontuario.Employee {
	emp := &prontuario.Employee{
		ID:            prontuario.EmployeeID(id),
		Name:          "Maria Souza",
		CPF:           "123.456.789-00",
		Email:         "maria@example.com",
		AdmissionDate: day(2023, time.February, 1),
		Role:          "Technician",
		Department:    "Operations",
		Salary:        decimal.NewFromInt(4200),
		WorkSchedule:  "mon-fri 08:00-17:00",
	}
	require.NoError(t, store.Save(context.Background(), emp))
	return emp
}

// =============================================================================
// EMPLOYEE ROUND-TRIP
// =============================================================================

func TestStore_Employee_RoundTrip(t *testing.T) {
	// GIVEN: An employee with two recorded events
	// WHEN: Saved and loaded back
	// THEN: Fields survive and events come back in insertion order with
	//       their concrete payload types

	store := newTestStore(t)
	ctx := context.Background()
	emp := seedEmployee(t, store, "emp-1")

	now := day(2024, time.June, 1)
	_, err := prontuario.AddEvent(emp, prontuario.EventDraft{
		OccurredAt:     day(2024, time.March, 10),
		Description:    "Verbal warning",
		RecordedByName: "Ana Lima",
		Payload: prontuario.WarningPayload{
			Severity: prontuario.SeverityLow,
			Reason:   "late arrival",
		},
	}, now)
	require.NoError(t, err)

	_, err = prontuario.AddEvent(emp, prontuario.EventDraft{
		OccurredAt:  day(2024, time.May, 2),
		Description: "Promoted to senior technician",
		Payload: prontuario.PromotionPayload{
			PreviousRole: "Technician",
			NewRole:      "Senior Technician",
		},
	}, now)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, emp))

	loaded, err := store.Get(ctx, "emp-1")
	require.NoError(t, err)

	assert.Equal(t, emp.Name, loaded.Name)
	assert.Equal(t, emp.CPF, loaded.CPF)
	assert.True(t, emp.Salary.Equal(loaded.Salary), "salary should survive exactly")
	assert.True(t, emp.AdmissionDate.Equal(loaded.AdmissionDate))
	assert.Nil(t, loaded.TerminationDate)

	require.Len(t, loaded.Events, 2)
	assert.Equal(t, prontuario.KindWarning, loaded.Events[0].Kind())
	assert.Equal(t, prontuario.KindPromotion, loaded.Events[1].Kind())
	assert.Equal(t, "Ana Lima", loaded.Events[0].RecordedByName)

	warning, ok := loaded.Events[0].Payload.(prontuario.WarningPayload)
	require.True(t, ok, "payload should decode to its concrete type")
	assert.Equal(t, prontuario.SeverityLow, warning.Severity)
	assert.Equal(t, "late arrival", warning.Reason)
}

func TestStore_Employee_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, prontuario.ErrEmployeeNotFound)
}

func TestStore_Employee_UpsertKeepsIdentity(t *testing.T) {
	// GIVEN: A saved employee
	// WHEN: Saved again with a changed department
	// THEN: The row is updated in place, not duplicated

	store := newTestStore(t)
	ctx := context.Background()
	emp := seedEmployee(t, store, "emp-1")

	emp.Department = "Maintenance"
	require.NoError(t, store.Save(ctx, emp))

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Maintenance", all[0].Department)
}

func TestStore_Employee_TerminationPersists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	emp := seedEmployee(t, store, "emp-1")

	now := day(2024, time.June, 1)
	_, err := prontuario.AddEvent(emp, prontuario.EventDraft{
		OccurredAt: day(2024, time.May, 30),
		Payload: prontuario.TerminationPayload{
			Type:   prontuario.TerminationVoluntary,
			Reason: "resignation",
		},
	}, now)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, emp))

	loaded, err := store.Get(ctx, "emp-1")
	require.NoError(t, err)

	assert.Equal(t, prontuario.StatusTerminated, loaded.Status())
	require.NotNil(t, loaded.TerminationDate)
	assert.True(t, loaded.TerminationDate.Equal(day(2024, time.May, 30)))
}

// =============================================================================
// VACATION ROUND-TRIP
// =============================================================================

func TestStore_Vacation_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	emp := seedEmployee(t, store, "emp-1")

	period, err := vacation.Record(vacation.Draft{
		EmployeeID:       emp.ID,
		AcquisitionStart: day(2023, time.February, 1),
		AcquisitionEnd:   day(2024, time.January, 31),
		TakenDays:        10,
		Type:             vacation.TypeSplit,
	}, day(2024, time.February, 5))
	require.NoError(t, err)
	require.NoError(t, store.SavePeriod(ctx, period))

	loaded, err := store.GetPeriod(ctx, period.ID)
	require.NoError(t, err)

	assert.Equal(t, 30, loaded.EntitledDays)
	assert.Equal(t, 10, loaded.TakenDays)
	assert.Equal(t, 20, loaded.RemainingDays)
	assert.Equal(t, vacation.TypeSplit, loaded.Type)
	assert.True(t, loaded.AcquisitionStart.Equal(period.AcquisitionStart))
}

func TestStore_Vacation_ListOrderedByAcquisition(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	emp := seedEmployee(t, store, "emp-1")

	// Saved newest first; listing must come back oldest first.
	for _, start := range []time.Time{
		day(2024, time.February, 1),
		day(2023, time.February, 1),
	} {
		period, err := vacation.Record(vacation.Draft{
			EmployeeID:       emp.ID,
			AcquisitionStart: start,
			AcquisitionEnd:   start.AddDate(1, 0, -1),
			Type:             vacation.TypeFull,
		}, day(2025, time.March, 1))
		require.NoError(t, err)
		require.NoError(t, store.SavePeriod(ctx, period))
	}

	periods, err := store.ListPeriodsByEmployee(ctx, emp.ID)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.True(t, periods[0].AcquisitionStart.Before(periods[1].AcquisitionStart))
}

func TestStore_Vacation_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetPeriod(context.Background(), "missing")
	assert.ErrorIs(t, err, vacation.ErrPeriodNotFound)
}

// =============================================================================
// PAYROLL LEDGER
// =============================================================================

func TestStore_Payroll_AppendAndList(t *testing.T) {
	// GIVEN: Two adjustments appended out of effective order
	// WHEN: Listing the ledger
	// THEN: Entries come back chronologically with exact decimals

	store := newTestStore(t)
	ctx := context.Background()
	emp := seedEmployee(t, store, "emp-1")

	second, err := payroll.Record(payroll.Draft{
		EmployeeID:     emp.ID,
		PreviousSalary: decimal.NewFromInt(4620),
		NewSalary:      decimal.RequireFromString("5082.00"),
		AdjustmentDate: day(2025, time.February, 20),
		EffectiveDate:  day(2025, time.March, 1),
		Reason:         "merit",
	}, day(2025, time.February, 20))
	require.NoError(t, err)

	first, err := payroll.Record(payroll.Draft{
		EmployeeID:     emp.ID,
		PreviousSalary: decimal.NewFromInt(4200),
		NewSalary:      decimal.NewFromInt(4620),
		AdjustmentDate: day(2024, time.February, 20),
		EffectiveDate:  day(2024, time.March, 1),
		Reason:         "annual review",
	}, day(2024, time.February, 20))
	require.NoError(t, err)

	require.NoError(t, store.Append(ctx, second))
	require.NoError(t, store.Append(ctx, first))

	ledger, err := store.ListByEmployee(ctx, emp.ID)
	require.NoError(t, err)
	require.Len(t, ledger, 2)

	assert.True(t, ledger[0].NewSalary.Equal(decimal.NewFromInt(4620)))
	assert.Equal(t, "+10.00%", ledger[0].FormatPercent())
	assert.Equal(t, "+10.00%", ledger[1].FormatPercent())
	assert.True(t, ledger[0].EffectiveDate.Before(ledger[1].EffectiveDate))
}

// =============================================================================
// EPI INVENTORY
// =============================================================================

func seedItem(t *testing.T, store *sqlite.Store) *epi.Item {
	item := &epi.Item{
		Code:             "epi-helmet",
		Name:             "Safety Helmet",
		Category:         "head",
		CA:               "CA-31469",
		Manufacturer:     "3M",
		CAExpiry:         day(2027, time.January, 15),
		DurabilityMonths: 12,
		StockQuantity:    5,
		MinimumStock:     2,
		UnitPrice:        decimal.RequireFromString("45.90"),
		Supplier:         "SafetyCo",
	}
	require.NoError(t, store.SaveItem(context.Background(), item))
	return item
}

func TestStore_EPI_ItemRoundTrip(t *testing.T) {
	store := newTestStore(t)
	seedItem(t, store)

	loaded, err := store.GetItem(context.Background(), "epi-helmet")
	require.NoError(t, err)

	assert.Equal(t, "CA-31469", loaded.CA)
	assert.Equal(t, 12, loaded.DurabilityMonths)
	assert.True(t, loaded.UnitPrice.Equal(decimal.RequireFromString("45.90")))
	assert.Equal(t, epi.StockAvailable, loaded.Status())
}

func TestStore_EPI_IssuanceLifecycle(t *testing.T) {
	// GIVEN: An issued helmet persisted alongside its decremented stock
	// WHEN: The issuance is returned and saved again
	// THEN: It drops out of the open issuance listing

	store := newTestStore(t)
	ctx := context.Background()
	emp := seedEmployee(t, store, "emp-1")
	item := seedItem(t, store)

	issuedAt := day(2025, time.April, 1)
	iss, err := epi.Issue(item, emp.ID, 1, issuedAt, issuedAt)
	require.NoError(t, err)
	require.NoError(t, store.SaveIssue(ctx, item, iss))

	open, err := store.ListOpenIssuances(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.True(t, open[0].ExpiresAt.Equal(day(2026, time.April, 1)))

	stored, err := store.GetItem(ctx, item.Code)
	require.NoError(t, err)
	assert.Equal(t, 4, stored.StockQuantity)

	require.NoError(t, epi.Return(iss, day(2025, time.October, 1)))
	require.NoError(t, store.SaveIssuance(ctx, iss))

	open, err = store.ListOpenIssuances(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)

	mine, err := store.ListIssuancesByEmployee(ctx, emp.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, epi.IssuanceReturned, mine[0].Status)
	require.NotNil(t, mine[0].ReturnedAt)
}

func TestStore_EPI_SaveIssueAtomic(t *testing.T) {
	// GIVEN: An issuance whose employee row does not exist
	// WHEN: SaveIssue hits the foreign key on the issuance write
	// THEN: The whole write rolls back and stock stays at its seeded count

	store := newTestStore(t)
	ctx := context.Background()
	item := seedItem(t, store)

	issuedAt := day(2025, time.April, 1)
	iss, err := epi.Issue(item, "emp-ghost", 1, issuedAt, issuedAt)
	require.NoError(t, err)
	require.Equal(t, 4, item.StockQuantity)

	err = store.SaveIssue(ctx, item, iss)
	require.Error(t, err)

	stored, err := store.GetItem(ctx, item.Code)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.StockQuantity)

	open, err := store.ListOpenIssuances(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestStore_EPI_NotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetItem(ctx, "missing")
	assert.ErrorIs(t, err, epi.ErrItemNotFound)

	_, err = store.GetIssuance(ctx, "missing")
	assert.ErrorIs(t, err, epi.ErrIssuanceNotFound)
}
