/*
Package epi tracks personal protective equipment (EPI) inventory and the
issuance lifecycle.

PURPOSE:
  Every PPE item type carries a regulator certification (CA) and a
  durability in months. Issuing an item to an employee decrements stock and
  stamps an expiry computed by calendar-month addition from the issue date.
  Returns close the issuance without restocking - putting equipment back on
  the shelf is a distinct inventory movement (Restock).

STOCK STATUS:
  Derived on read from stockQuantity vs minimumStock, never stored:
    OutOfStock  qty == 0
    LowStock    0 < qty <= minimum
    Available   qty > minimum

INVARIANTS:
  - Issue fails before touching stock when quantity is invalid or exceeds
    the quantity on hand
  - stock_after_issue == stock_before - quantity, always
  - Return never increments stock

SEE ALSO:
  - alerts.go: expiry alerting over issuances (validity classifier rules)
*/
package epi

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vitaehr/prontuario-engine/prontuario"
	"github.com/vitaehr/prontuario-engine/validity"
)

// =============================================================================
// ITEM - a PPE item type in inventory
// =============================================================================

type ItemCode string

// Item is a PPE item type with its certification and stock levels.
type Item struct {
	Code         ItemCode
	Name         string
	Category     string
	CA           string // Certificado de Aprovação number
	Manufacturer string
	CAExpiry     time.Time

	DurabilityMonths int
	StockQuantity    int
	MinimumStock     int
	UnitPrice        decimal.Decimal
	Supplier         string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// StockStatus is the derived inventory level category.
type StockStatus string

const (
	StockOut       StockStatus = "out_of_stock"
	StockLow       StockStatus = "low_stock"
	StockAvailable StockStatus = "available"
)

// Status derives the stock status. Recomputed on read, never stored.
func (i *Item) Status() StockStatus {
	switch {
	case i.StockQuantity == 0:
		return StockOut
	case i.StockQuantity <= i.MinimumStock:
		return StockLow
	default:
		return StockAvailable
	}
}

// =============================================================================
// ISSUANCE - one handover of equipment to an employee
// =============================================================================

type IssuanceID string

// IssuanceStatus tracks the issuance lifecycle.
type IssuanceStatus string

const (
	IssuanceIssued   IssuanceStatus = "issued"
	IssuanceReturned IssuanceStatus = "returned"
	IssuanceExpired  IssuanceStatus = "expired"
)

// Issuance records equipment handed to an employee.
type Issuance struct {
	ID         IssuanceID
	EmployeeID prontuario.EmployeeID
	ItemCode   ItemCode

	Quantity  int
	IssuedAt  time.Time
	ExpiresAt time.Time

	ReturnedAt *time.Time
	Status     IssuanceStatus

	CreatedAt time.Time
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrInvalidQuantity is returned for a non-positive issue quantity.
	ErrInvalidQuantity = errors.New("epi: quantity must be positive")

	// ErrInsufficientStock is returned when the requested quantity exceeds
	// the quantity on hand.
	ErrInsufficientStock = errors.New("epi: insufficient stock")

	// ErrAlreadyReturned is returned when returning an issuance whose
	// status is not Issued.
	ErrAlreadyReturned = errors.New("epi: issuance already closed")

	// ErrItemNotFound is returned by repositories for unknown item codes.
	ErrItemNotFound = errors.New("epi: item not found")

	// ErrIssuanceNotFound is returned by repositories for unknown issuances.
	ErrIssuanceNotFound = errors.New("epi: issuance not found")
)

// StockError carries the shortfall details for the UI message.
type StockError struct {
	ItemCode  ItemCode
	Available int
	Requested int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: %d available, %d requested",
		e.ItemCode, e.Available, e.Requested)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// =============================================================================
// COMMANDS
// =============================================================================

// Issue hands quantity units of the item to an employee. Validation order:
// quantity first, stock second. On success the item's stock is decremented
// and the issuance expiry is computed by calendar-month addition.
func Issue(item *Item, employeeID prontuario.EmployeeID, quantity int, issuedAt time.Time, now time.Time) (*Issuance, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if quantity > item.StockQuantity {
		return nil, &StockError{
			ItemCode:  item.Code,
			Available: item.StockQuantity,
			Requested: quantity,
		}
	}

	item.StockQuantity -= quantity
	item.UpdatedAt = now

	return &Issuance{
		ID:         IssuanceID(uuid.NewString()),
		EmployeeID: employeeID,
		ItemCode:   item.Code,
		Quantity:   quantity,
		IssuedAt:   issuedAt,
		ExpiresAt:  issuedAt.AddDate(0, item.DurabilityMonths, 0),
		Status:     IssuanceIssued,
		CreatedAt:  now,
	}, nil
}

// Return closes an issuance. It does NOT restock: returned equipment
// re-enters inventory only through an explicit Restock movement.
func Return(iss *Issuance, returnedAt time.Time) error {
	if iss.Status != IssuanceIssued {
		return ErrAlreadyReturned
	}
	t := returnedAt
	iss.ReturnedAt = &t
	iss.Status = IssuanceReturned
	return nil
}

// MarkExpired transitions an open issuance whose expiry has passed. It
// reports whether the transition happened; already closed issuances and
// still valid ones are left alone.
func MarkExpired(iss *Issuance, now time.Time) bool {
	if iss.Status != IssuanceIssued {
		return false
	}
	status, err := validity.Classify(iss.ExpiresAt, now, validity.DefaultWarningWindowDays)
	if err != nil || status != validity.StatusExpired {
		return false
	}
	iss.Status = IssuanceExpired
	return true
}

// Restock is the distinct inventory movement that adds quantity back to
// shelf stock, whether from a supplier delivery or an inspected return.
func Restock(item *Item, quantity int, now time.Time) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	item.StockQuantity += quantity
	item.UpdatedAt = now
	return nil
}

// =============================================================================
// REPOSITORY
// =============================================================================

// Repository persists PPE items and issuances.
type Repository interface {
	GetItem(ctx context.Context, code ItemCode) (*Item, error)
	SaveItem(ctx context.Context, item *Item) error
	ListItems(ctx context.Context) ([]*Item, error)

	GetIssuance(ctx context.Context, id IssuanceID) (*Issuance, error)
	SaveIssuance(ctx context.Context, iss *Issuance) error

	// SaveIssue persists an issue command's full output, the decremented
	// item and the new issuance, as one atomic write. Stock conservation
	// must hold in storage even when the second write fails.
	SaveIssue(ctx context.Context, item *Item, iss *Issuance) error
	ListIssuancesByEmployee(ctx context.Context, employeeID prontuario.EmployeeID) ([]*Issuance, error)
	ListOpenIssuances(ctx context.Context) ([]*Issuance, error)
}
