package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultGSTPercent is applied when a product is created without a tax rate.
var DefaultGSTPercent = decimal.NewFromInt(5)

// Category groups products in the catalog.
type Category string

const (
	CategoryGeneral     Category = "general"
	CategoryGrocery     Category = "grocery"
	CategoryBeverages   Category = "beverages"
	CategoryElectronics Category = "electronics"
	CategoryApparel     Category = "apparel"
	CategoryHousehold   Category = "household"
	CategoryStationery  Category = "stationery"
	CategoryHealth      Category = "health"
	CategoryOther       Category = "other"
)

var validCategories = map[Category]bool{
	CategoryGeneral:     true,
	CategoryGrocery:     true,
	CategoryBeverages:   true,
	CategoryElectronics: true,
	CategoryApparel:     true,
	CategoryHousehold:   true,
	CategoryStationery:  true,
	CategoryHealth:      true,
	CategoryOther:       true,
}

// IsValid checks if the category is known.
func (c Category) IsValid() bool {
	return validCategories[c]
}

// Product is a catalog item. Quantity is a projection of the product's ledger
// and is only written by the balance engine and reconciliation.
type Product struct {
	ID          string
	SKU         string
	Name        string
	Description string
	Category    Category
	Price       decimal.Decimal
	Cost        decimal.Decimal
	GSTPercent  decimal.Decimal
	Quantity    decimal.Decimal
	MinQuantity decimal.Decimal
	Location    string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsLowStock reports whether the product is at or below its reorder threshold.
func (p *Product) IsLowStock() bool {
	return p.Quantity.LessThanOrEqual(p.MinQuantity)
}

// Shortfall returns how far the product is below its reorder threshold.
func (p *Product) Shortfall() decimal.Decimal {
	diff := p.MinQuantity.Sub(p.Quantity)
	if diff.IsNegative() {
		return decimal.Zero
	}
	return diff
}

// CostValue is the stock value at cost.
func (p *Product) CostValue() decimal.Decimal {
	return p.Quantity.Mul(p.Cost)
}

// RetailValue is the stock value at the selling price.
func (p *Product) RetailValue() decimal.Decimal {
	return p.Quantity.Mul(p.Price)
}

// Validate checks product attributes.
func (p *Product) Validate() error {
	if err := ValidateSKU(p.SKU); err != nil {
		return err
	}
	if err := ValidateProductName(p.Name); err != nil {
		return err
	}
	if !p.Category.IsValid() {
		return invalidProduct("unknown category %q", p.Category)
	}
	if p.Price.IsNegative() {
		return invalidProduct("price cannot be negative")
	}
	if p.Cost.IsNegative() {
		return invalidProduct("cost cannot be negative")
	}
	if p.GSTPercent.IsNegative() || p.GSTPercent.GreaterThan(decimal.NewFromInt(100)) {
		return invalidProduct("gst percent must be between 0 and 100")
	}
	if p.MinQuantity.IsNegative() {
		return invalidProduct("min quantity cannot be negative")
	}
	if exceedsScale(p.Price, AmountScale) || exceedsScale(p.Cost, AmountScale) {
		return invalidProduct("price and cost allow at most %d decimal places", AmountScale)
	}
	if exceedsScale(p.GSTPercent, PercentScale) {
		return invalidProduct("gst percent allows at most %d decimal places", PercentScale)
	}
	if exceedsScale(p.MinQuantity, QuantityScale) {
		return invalidProduct("min quantity allows at most %d decimal places", QuantityScale)
	}
	return nil
}
