package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iho/stockledger/internal/domain"
)

// InventoryUseCase translates sales, purchases and stock counts into movements.
type InventoryUseCase struct {
	engine      *BalanceEngine
	productRepo ProductRepository
}

// NewInventoryUseCase creates a new InventoryUseCase.
func NewInventoryUseCase(engine *BalanceEngine, productRepo ProductRepository) *InventoryUseCase {
	return &InventoryUseCase{
		engine:      engine,
		productRepo: productRepo,
	}
}

// SaleLine is one line item of a checkout.
type SaleLine struct {
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice *decimal.Decimal
}

// CheckoutInput represents a completed sale.
type CheckoutInput struct {
	InvoiceNumber string
	Client        string
	Lines         []SaleLine
	Actor         domain.Actor
}

// Checkout applies one OUT movement per line, strictly in submission order.
// Each line is computed against the balance left by the previous one.
//
// Demand is checked against current stock before any movement is applied. If
// a line fails after others were applied, the applied entries are returned
// together with the error.
func (uc *InventoryUseCase) Checkout(ctx context.Context, input CheckoutInput) ([]*domain.LedgerEntry, error) {
	if !input.Actor.Role.CanSell() {
		return nil, domain.ErrInsufficientRole
	}

	if len(input.Lines) == 0 {
		return nil, fmt.Errorf("%w: sale has no lines", domain.ErrInvalidMovement)
	}

	// 1. Aggregate demand per product, keeping first-seen order
	demand := make(map[string]decimal.Decimal, len(input.Lines))
	order := make([]string, 0, len(input.Lines))
	for _, line := range input.Lines {
		if !line.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: sale quantity must be positive", domain.ErrInvalidMovement)
		}
		if err := validateLineAmounts(line.Quantity, "unit price", line.UnitPrice); err != nil {
			return nil, err
		}

		if _, seen := demand[line.ProductID]; !seen {
			order = append(order, line.ProductID)
		}
		demand[line.ProductID] = demand[line.ProductID].Add(line.Quantity)
	}

	// 2. Check stock before writing anything
	products := make(map[string]*domain.Product, len(order))
	for _, id := range order {
		product, err := uc.productRepo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if !product.IsActive {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductInactive, product.SKU)
		}

		if demand[id].GreaterThan(product.Quantity) {
			return nil, &domain.InsufficientStockError{
				SKU:       product.SKU,
				Requested: demand[id],
				Available: product.Quantity,
			}
		}

		products[id] = product
	}

	// 3. Apply lines sequentially
	note := "sale"
	if client := strings.TrimSpace(input.Client); client != "" {
		note = "sale to " + client
	}

	entries := make([]*domain.LedgerEntry, 0, len(input.Lines))
	for _, line := range input.Lines {
		quantity := line.Quantity

		unitPrice := line.UnitPrice
		if unitPrice == nil {
			price := products[line.ProductID].Price
			unitPrice = &price
		}

		entry, err := uc.engine.ApplyMovement(ctx, MovementRequest{
			ProductID: line.ProductID,
			Type:      domain.MovementOut,
			Quantity:  &quantity,
			UnitPrice: unitPrice,
			Reference: input.InvoiceNumber,
			Source:    domain.SourceSale,
			Note:      note,
			Actor:     input.Actor,
		})
		if entry != nil {
			entries = append(entries, entry)
		}
		if err != nil {
			return entries, err
		}
	}

	return entries, nil
}

// PurchaseLine is one received line of a purchase.
type PurchaseLine struct {
	ProductID string
	Quantity  decimal.Decimal
	UnitCost  *decimal.Decimal
}

// PurchaseInput represents goods received from a supplier.
type PurchaseInput struct {
	Reference string
	Supplier  string
	Lines     []PurchaseLine
	Actor     domain.Actor
}

// ReceivePurchase applies one IN movement per line in submission order.
func (uc *InventoryUseCase) ReceivePurchase(ctx context.Context, input PurchaseInput) ([]*domain.LedgerEntry, error) {
	if !input.Actor.Role.CanManageStock() {
		return nil, domain.ErrInsufficientRole
	}

	if len(input.Lines) == 0 {
		return nil, fmt.Errorf("%w: purchase has no lines", domain.ErrInvalidMovement)
	}

	for _, line := range input.Lines {
		if err := validateLineAmounts(line.Quantity, "unit cost", line.UnitCost); err != nil {
			return nil, err
		}
	}

	note := "purchase"
	if supplier := strings.TrimSpace(input.Supplier); supplier != "" {
		note = "purchase from " + supplier
	}

	entries := make([]*domain.LedgerEntry, 0, len(input.Lines))
	for _, line := range input.Lines {
		if !line.Quantity.IsPositive() {
			return entries, fmt.Errorf("%w: purchase quantity must be positive", domain.ErrInvalidMovement)
		}

		quantity := line.Quantity
		entry, err := uc.engine.ApplyMovement(ctx, MovementRequest{
			ProductID: line.ProductID,
			Type:      domain.MovementIn,
			Quantity:  &quantity,
			UnitCost:  line.UnitCost,
			Reference: input.Reference,
			Source:    domain.SourcePurchase,
			Note:      note,
			Actor:     input.Actor,
		})
		if entry != nil {
			entries = append(entries, entry)
		}
		if err != nil {
			return entries, err
		}
	}

	return entries, nil
}

// StockCount is the counted quantity of one SKU.
type StockCount struct {
	SKU     string
	Counted decimal.Decimal
}

// StockCountInput represents the result of a physical inventory count.
type StockCountInput struct {
	Reference string
	Counts    []StockCount
	Actor     domain.Actor
}

// CountStock sets each counted SKU to its counted quantity.
func (uc *InventoryUseCase) CountStock(ctx context.Context, input StockCountInput) ([]*domain.LedgerEntry, error) {
	if !input.Actor.Role.CanCount() {
		return nil, domain.ErrInsufficientRole
	}

	if len(input.Counts) == 0 {
		return nil, fmt.Errorf("%w: stock count is empty", domain.ErrInvalidMovement)
	}

	for _, count := range input.Counts {
		if err := domain.ValidateMovementQuantity(&count.Counted); err != nil {
			return nil, fmt.Errorf("sku %s: %w", count.SKU, err)
		}
	}

	entries := make([]*domain.LedgerEntry, 0, len(input.Counts))
	for _, count := range input.Counts {
		product, err := uc.productRepo.GetBySKU(ctx, count.SKU)
		if err != nil {
			return entries, fmt.Errorf("sku %s: %w", count.SKU, err)
		}

		counted := count.Counted
		entry, err := uc.engine.ApplyMovement(ctx, MovementRequest{
			ProductID: product.ID,
			Type:      domain.MovementAdjustment,
			Quantity:  &counted,
			Reference: input.Reference,
			Source:    domain.SourceAdjustment,
			Note:      "stock count",
			Actor:     input.Actor,
		})
		if entry != nil {
			entries = append(entries, entry)
		}
		if err != nil {
			return entries, err
		}
	}

	return entries, nil
}

// validateLineAmounts rejects a line the engine would refuse, so that a
// multi-line request fails before its first line is written.
func validateLineAmounts(quantity decimal.Decimal, field string, amount *decimal.Decimal) error {
	if err := domain.ValidateMovementQuantity(&quantity); err != nil {
		return err
	}
	return domain.ValidateUnitAmount(field, amount)
}

// RecordMovement applies a single manual movement.
func (uc *InventoryUseCase) RecordMovement(ctx context.Context, req MovementRequest) (*domain.LedgerEntry, error) {
	if !req.Actor.Role.CanManageStock() {
		return nil, domain.ErrInsufficientRole
	}

	return uc.engine.ApplyMovement(ctx, req)
}
