package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType is the kind of stock movement recorded by a ledger entry.
type MovementType string

const (
	// MovementIn increases stock by the entry quantity.
	MovementIn MovementType = "IN"
	// MovementOut decreases stock by the entry quantity.
	MovementOut MovementType = "OUT"
	// MovementAdjustment sets stock to the entry quantity. It is an absolute
	// target level, not a delta.
	MovementAdjustment MovementType = "ADJUSTMENT"
)

// IsValid checks if the movement type is known.
func (t MovementType) IsValid() bool {
	switch t {
	case MovementIn, MovementOut, MovementAdjustment:
		return true
	}
	return false
}

// MovementSource identifies the flow that originated a movement.
type MovementSource string

const (
	SourcePurchase   MovementSource = "purchase"
	SourceSale       MovementSource = "sale"
	SourceAdjustment MovementSource = "adjustment"
	SourceTransfer   MovementSource = "transfer"
	SourceOpening    MovementSource = "opening"
)

// IsValid checks if the source is known.
func (s MovementSource) IsValid() bool {
	switch s {
	case SourcePurchase, SourceSale, SourceAdjustment, SourceTransfer, SourceOpening:
		return true
	}
	return false
}

// DefaultSource returns the source assumed for a movement type when the caller
// does not name one.
func DefaultSource(t MovementType) MovementSource {
	switch t {
	case MovementIn:
		return SourcePurchase
	case MovementOut:
		return SourceSale
	default:
		return SourceAdjustment
	}
}

// LedgerEntry is an immutable record of one stock movement.
// ProductName and SKU are snapshots taken at write time.
type LedgerEntry struct {
	ID            string
	ProductID     string
	SKU           string
	ProductName   string
	Type          MovementType
	Quantity      decimal.Decimal
	UnitCost      decimal.Decimal
	UnitPrice     *decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Reference     string
	Source        MovementSource
	Note          string
	Username      string
	UserRole      Role
	CreatedAt     time.Time
}

// NextBalance computes the stock level after applying a movement to current.
// The result never goes below zero.
func NextBalance(current decimal.Decimal, t MovementType, quantity decimal.Decimal) decimal.Decimal {
	var next decimal.Decimal
	switch t {
	case MovementIn:
		next = current.Add(quantity)
	case MovementOut:
		next = current.Sub(quantity)
	case MovementAdjustment:
		next = quantity
	default:
		next = current
	}

	if next.IsNegative() {
		return decimal.Zero
	}
	return next
}

// ReplayResult is the outcome of replaying a product's ledger.
type ReplayResult struct {
	// Balance is the stock level obtained by applying every entry from zero.
	Balance decimal.Decimal
	Entries int
	// Broken holds entries whose BalanceAfter does not follow from the
	// entry recorded before them.
	Broken []*LedgerEntry
}

// Consistent reports whether every entry followed from its predecessor.
func (r ReplayResult) Consistent() bool {
	return len(r.Broken) == 0
}

// Replay walks entries in creation order starting from zero.
func Replay(entries []*LedgerEntry) ReplayResult {
	result := ReplayResult{Balance: decimal.Zero}
	previous := decimal.Zero

	for _, e := range entries {
		result.Balance = NextBalance(result.Balance, e.Type, e.Quantity)

		if !NextBalance(previous, e.Type, e.Quantity).Equal(e.BalanceAfter) {
			result.Broken = append(result.Broken, e)
		}

		previous = e.BalanceAfter
		result.Entries++
	}

	return result
}
