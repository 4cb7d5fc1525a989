package dto

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

// MovementRequest represents a manual stock movement.
type MovementRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	Type      string           `json:"type"       validate:"required,movement_type"`
	Quantity  *decimal.Decimal `json:"quantity"   validate:"required"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Reference string           `json:"reference,omitempty" validate:"max=128"`
	Source    string           `json:"source,omitempty"    validate:"omitempty,oneof=purchase sale adjustment transfer opening"`
	Note      string           `json:"note,omitempty"      validate:"max=1024"`
}

// ToUseCaseInput converts to use case input.
func (r *MovementRequest) ToUseCaseInput(actor domain.Actor) usecase.MovementRequest {
	return usecase.MovementRequest{
		ProductID: r.ProductID,
		Type:      domain.MovementType(strings.ToUpper(r.Type)),
		Quantity:  r.Quantity,
		UnitCost:  r.UnitCost,
		UnitPrice: r.UnitPrice,
		Reference: r.Reference,
		Source:    domain.MovementSource(r.Source),
		Note:      r.Note,
		Actor:     actor,
	}
}

// SaleLineRequest is one line of a sale.
type SaleLineRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// SaleRequest represents a completed checkout.
type SaleRequest struct {
	InvoiceNumber string            `json:"invoice_number" validate:"max=128"`
	Client        string            `json:"client,omitempty" validate:"max=255"`
	Lines         []SaleLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ToUseCaseInput converts to use case input.
func (r *SaleRequest) ToUseCaseInput(actor domain.Actor) usecase.CheckoutInput {
	lines := make([]usecase.SaleLine, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = usecase.SaleLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
	}
	return usecase.CheckoutInput{
		InvoiceNumber: r.InvoiceNumber,
		Client:        r.Client,
		Lines:         lines,
		Actor:         actor,
	}
}

// PurchaseLineRequest is one received line of a purchase.
type PurchaseLineRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
}

// PurchaseRequest represents goods received from a supplier.
type PurchaseRequest struct {
	Reference string                `json:"reference" validate:"max=128"`
	Supplier  string                `json:"supplier,omitempty" validate:"max=255"`
	Lines     []PurchaseLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// ToUseCaseInput converts to use case input.
func (r *PurchaseRequest) ToUseCaseInput(actor domain.Actor) usecase.PurchaseInput {
	lines := make([]usecase.PurchaseLine, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = usecase.PurchaseLine{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
		}
	}
	return usecase.PurchaseInput{
		Reference: r.Reference,
		Supplier:  r.Supplier,
		Lines:     lines,
		Actor:     actor,
	}
}

// StockCountLineRequest is the counted quantity of one SKU.
type StockCountLineRequest struct {
	SKU     string           `json:"sku"     validate:"required,max=64"`
	Counted *decimal.Decimal `json:"counted" validate:"required"`
}

// StockCountRequest represents a physical inventory count.
type StockCountRequest struct {
	Reference string                  `json:"reference" validate:"max=128"`
	Counts    []StockCountLineRequest `json:"counts" validate:"required,min=1,dive"`
}

// ToUseCaseInput converts to use case input.
func (r *StockCountRequest) ToUseCaseInput(actor domain.Actor) usecase.StockCountInput {
	counts := make([]usecase.StockCount, len(r.Counts))
	for i, c := range r.Counts {
		counts[i] = usecase.StockCount{SKU: c.SKU, Counted: *c.Counted}
	}
	return usecase.StockCountInput{
		Reference: r.Reference,
		Counts:    counts,
		Actor:     actor,
	}
}

// CreateProductRequest represents a request to create a product.
type CreateProductRequest struct {
	SKU         string           `json:"sku"  validate:"required,max=64"`
	Name        string           `json:"name" validate:"required,max=255"`
	Description string           `json:"description,omitempty"`
	Category    string           `json:"category,omitempty" validate:"omitempty,category"`
	Price       decimal.Decimal  `json:"price"`
	Cost        decimal.Decimal  `json:"cost"`
	GSTPercent  *decimal.Decimal `json:"gst_percent,omitempty"`
	Quantity    decimal.Decimal  `json:"quantity"`
	MinQuantity decimal.Decimal  `json:"min_quantity"`
	Location    string           `json:"location,omitempty" validate:"max=255"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateProductRequest) ToUseCaseInput() usecase.CreateProductInput {
	return usecase.CreateProductInput{
		SKU:         r.SKU,
		Name:        r.Name,
		Description: r.Description,
		Category:    domain.Category(r.Category),
		Price:       r.Price,
		Cost:        r.Cost,
		GSTPercent:  r.GSTPercent,
		Quantity:    r.Quantity,
		MinQuantity: r.MinQuantity,
		Location:    r.Location,
	}
}

// UpdateProductRequest represents a partial product update. Absent fields are
// left unchanged.
type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty"     validate:"omitempty,max=255"`
	Description *string          `json:"description,omitempty"`
	Category    *string          `json:"category,omitempty" validate:"omitempty,category"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Cost        *decimal.Decimal `json:"cost,omitempty"`
	GSTPercent  *decimal.Decimal `json:"gst_percent,omitempty"`
	MinQuantity *decimal.Decimal `json:"min_quantity,omitempty"`
	Location    *string          `json:"location,omitempty" validate:"omitempty,max=255"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateProductRequest) ToUseCaseInput() usecase.UpdateProductInput {
	input := usecase.UpdateProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Cost:        r.Cost,
		GSTPercent:  r.GSTPercent,
		MinQuantity: r.MinQuantity,
		Location:    r.Location,
		Quantity:    r.Quantity,
	}
	if r.Category != nil {
		category := domain.Category(*r.Category)
		input.Category = &category
	}
	return input
}

// TokenRequest asks for a signed actor token.
type TokenRequest struct {
	Username string `json:"username" validate:"required,max=128"`
	Role     string `json:"role"     validate:"required,oneof=admin manager staff"`
}
