package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerFilter selects ledger entries for browsing and reporting.
// DateFrom and DateTo are inclusive.
type LedgerFilter struct {
	SKU       string
	ProductID string
	Type      MovementType
	Source    MovementSource
	Search    string
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	Ascending bool
}

// Offset returns the number of entries skipped before the current page.
func (f LedgerFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// Matches reports whether an entry passes every filter except pagination.
func (f LedgerFilter) Matches(e *LedgerEntry) bool {
	if f.SKU != "" && e.SKU != f.SKU {
		return false
	}
	if f.ProductID != "" && e.ProductID != f.ProductID {
		return false
	}
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.Source != "" && e.Source != f.Source {
		return false
	}
	if f.Search != "" && !containsFold(e.ProductName, f.Search) {
		return false
	}
	if f.DateFrom != nil && e.CreatedAt.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && e.CreatedAt.After(*f.DateTo) {
		return false
	}
	return true
}

// LedgerPage is one page of ledger entries with the total match count.
type LedgerPage struct {
	Items      []*LedgerEntry
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// NewLedgerPage computes page metadata for a result set.
func NewLedgerPage(items []*LedgerEntry, total, page, pageSize int) *LedgerPage {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	if items == nil {
		items = []*LedgerEntry{}
	}
	return &LedgerPage{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// ProductFilter selects catalog products.
type ProductFilter struct {
	Search          string
	Category        Category
	IncludeInactive bool
	Limit           int
	Offset          int
}

// Matches reports whether a product passes the filter, ignoring paging.
func (f ProductFilter) Matches(p *Product) bool {
	if !f.IncludeInactive && !p.IsActive {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Search != "" && !containsFold(p.Name, f.Search) && !containsFold(p.SKU, f.Search) {
		return false
	}
	return true
}

// SalesRank is one row of the best sellers report.
type SalesRank struct {
	ProductID string
	SKU       string
	Name      string
	UnitsSold decimal.Decimal
	Revenue   decimal.Decimal
}

// TurnoverRow is the turnover estimate for one product over a period.
type TurnoverRow struct {
	ProductID        string
	SKU              string
	Name             string
	UnitsSold        decimal.Decimal
	EndingBalance    decimal.Decimal
	ApproxStarting   decimal.Decimal
	AverageInventory decimal.Decimal
	Turnover         decimal.Decimal
}

// CategoryValuation aggregates stock value for one category.
type CategoryValuation struct {
	Category    Category
	Products    int
	Units       decimal.Decimal
	CostValue   decimal.Decimal
	RetailValue decimal.Decimal
}

// Valuation is the stock value across all active products.
type Valuation struct {
	Products    int
	Units       decimal.Decimal
	CostValue   decimal.Decimal
	RetailValue decimal.Decimal
	Categories  []CategoryValuation
	GeneratedAt time.Time
}
