package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Product errors
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateSKU    = errors.New("product with this sku already exists")
	ErrProductInactive = errors.New("product is inactive")
	ErrInvalidProduct  = errors.New("invalid product")

	// Movement errors
	ErrInvalidMovement         = errors.New("invalid movement")
	ErrPersistenceFailure      = errors.New("failed to persist ledger entry")
	ErrProjectionUpdateFailure = errors.New("ledger entry written but product quantity not updated")
	ErrInsufficientStock       = errors.New("insufficient stock")
	ErrNoLedgerHistory         = errors.New("product has no ledger history")

	// Query errors
	ErrInvalidDateRange = errors.New("date from must not be after date to")
)

// ProjectionStaleError is returned when the ledger entry was persisted but the
// product quantity could not be brought in line with it. The entry is final;
// the product needs reconciliation.
type ProjectionStaleError struct {
	Entry *LedgerEntry
	Err   error
}

func (e *ProjectionStaleError) Error() string {
	return fmt.Sprintf("%s: sku %s expected quantity %s: %v",
		ErrProjectionUpdateFailure, e.Entry.SKU, e.Entry.BalanceAfter, e.Err)
}

func (e *ProjectionStaleError) Unwrap() []error {
	return []error{ErrProjectionUpdateFailure, e.Err}
}

// InsufficientStockError describes a sale line that exceeds available stock.
type InsufficientStockError struct {
	SKU       string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s for sku %s: requested %s, available %s",
		ErrInsufficientStock, e.SKU, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

func invalidMovement(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidMovement, fmt.Sprintf(format, args...))
}

func invalidProduct(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidProduct, fmt.Sprintf(format, args...))
}
