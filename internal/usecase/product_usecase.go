package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/stockledger/internal/domain"
)

// ProductUseCase handles catalog maintenance. Quantity changes always go
// through the balance engine.
type ProductUseCase struct {
	txManager   TransactionManager
	productRepo ProductRepository
	engine      *BalanceEngine
	idGen       IDGenerator
}

// NewProductUseCase creates a new ProductUseCase.
func NewProductUseCase(
	txManager TransactionManager,
	productRepo ProductRepository,
	engine *BalanceEngine,
	idGen IDGenerator,
) *ProductUseCase {
	return &ProductUseCase{
		txManager:   txManager,
		productRepo: productRepo,
		engine:      engine,
		idGen:       idGen,
	}
}

// CreateProductInput represents input for creating a product.
type CreateProductInput struct {
	SKU         string
	Name        string
	Description string
	Category    domain.Category
	Price       decimal.Decimal
	Cost        decimal.Decimal
	GSTPercent  *decimal.Decimal
	Quantity    decimal.Decimal
	MinQuantity decimal.Decimal
	Location    string
}

// CreateProduct stores a product with zero stock and records the initial
// quantity as an opening adjustment.
func (uc *ProductUseCase) CreateProduct(ctx context.Context, input CreateProductInput, actor domain.Actor) (*domain.Product, error) {
	if !actor.Role.CanManageStock() {
		return nil, domain.ErrInsufficientRole
	}

	if input.Quantity.IsNegative() {
		return nil, fmt.Errorf("%w: initial quantity cannot be negative", domain.ErrInvalidProduct)
	}

	if err := domain.ValidateMovementQuantity(&input.Quantity); err != nil {
		return nil, fmt.Errorf("%w: initial quantity: %w", domain.ErrInvalidProduct, err)
	}

	now := time.Now().UTC()

	gst := domain.DefaultGSTPercent
	if input.GSTPercent != nil {
		gst = *input.GSTPercent
	}

	category := input.Category
	if category == "" {
		category = domain.CategoryGeneral
	}

	product := &domain.Product{
		ID:          uc.idGen.Generate(),
		SKU:         strings.TrimSpace(input.SKU),
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		Category:    category,
		Price:       input.Price,
		Cost:        input.Cost,
		GSTPercent:  gst,
		Quantity:    decimal.Zero,
		MinQuantity: input.MinQuantity,
		Location:    input.Location,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := product.Validate(); err != nil {
		return nil, err
	}

	// 1. Reject duplicate SKUs before writing
	if _, err := uc.productRepo.GetBySKU(ctx, product.SKU); err == nil {
		return nil, domain.ErrDuplicateSKU
	} else if !errors.Is(err, domain.ErrProductNotFound) {
		return nil, err
	}

	// 2. Store the product with zero stock
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.productRepo.Create(ctx, tx, product); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	// 3. Opening balance
	if !input.Quantity.IsPositive() {
		return product, nil
	}

	opening := input.Quantity
	entry, err := uc.engine.ApplyMovement(ctx, MovementRequest{
		ProductID: product.ID,
		Type:      domain.MovementAdjustment,
		Quantity:  &opening,
		Source:    domain.SourceOpening,
		Note:      "opening balance",
		Actor:     actor,
	})
	if entry != nil {
		product.Quantity = entry.BalanceAfter
		product.UpdatedAt = entry.CreatedAt
	}
	if err != nil {
		return product, err
	}

	return product, nil
}

// UpdateProductInput holds the fields to change; nil fields are left as is.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Category    *domain.Category
	Price       *decimal.Decimal
	Cost        *decimal.Decimal
	GSTPercent  *decimal.Decimal
	MinQuantity *decimal.Decimal
	Location    *string
	Quantity    *decimal.Decimal
}

// UpdateProduct writes attribute changes. A present Quantity that differs
// from the stored one is recorded as a manual adjustment; edits without a
// quantity never touch the ledger.
func (uc *ProductUseCase) UpdateProduct(ctx context.Context, id string, input UpdateProductInput, actor domain.Actor) (*domain.Product, error) {
	if !actor.Role.CanManageStock() {
		return nil, domain.ErrInsufficientRole
	}

	if input.Quantity != nil {
		if err := domain.ValidateMovementQuantity(input.Quantity); err != nil {
			return nil, err
		}
	}

	// 1. Attributes
	product, err := uc.updateAttributes(ctx, id, input)
	if err != nil {
		return nil, err
	}

	if input.Quantity == nil || input.Quantity.Equal(product.Quantity) {
		return product, nil
	}

	// 2. Quantity change as an absolute adjustment
	entry, err := uc.engine.ApplyMovement(ctx, MovementRequest{
		ProductID: product.ID,
		Type:      domain.MovementAdjustment,
		Quantity:  input.Quantity,
		Source:    domain.SourceAdjustment,
		Actor:     actor,
		prepare: func(_ context.Context, _ Transaction, locked *domain.Product, req *MovementRequest) error {
			req.Note = fmt.Sprintf("manual edit (previous quantity %s)", locked.Quantity)
			return nil
		},
	})
	if entry != nil {
		product.Quantity = entry.BalanceAfter
		product.UpdatedAt = entry.CreatedAt
	}
	if err != nil {
		return product, err
	}

	return product, nil
}

func (uc *ProductUseCase) updateAttributes(ctx context.Context, id string, input UpdateProductInput) (*domain.Product, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	product, err := uc.productRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if !product.IsActive {
		return nil, domain.ErrProductInactive
	}

	if !input.hasAttributes() {
		return product, nil
	}

	applyProductUpdate(product, input)

	if err := product.Validate(); err != nil {
		return nil, err
	}

	product.UpdatedAt = time.Now().UTC()

	if err := uc.productRepo.Update(ctx, tx, product); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	uc.engine.notify(ctx, product.ID)

	return product, nil
}

func (in UpdateProductInput) hasAttributes() bool {
	return in.Name != nil || in.Description != nil || in.Category != nil ||
		in.Price != nil || in.Cost != nil || in.GSTPercent != nil ||
		in.MinQuantity != nil || in.Location != nil
}

func applyProductUpdate(p *domain.Product, in UpdateProductInput) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Cost != nil {
		p.Cost = *in.Cost
	}
	if in.GSTPercent != nil {
		p.GSTPercent = *in.GSTPercent
	}
	if in.MinQuantity != nil {
		p.MinQuantity = *in.MinQuantity
	}
	if in.Location != nil {
		p.Location = *in.Location
	}
}

// DeactivateProduct records a zero-effect adjustment at the current quantity
// and marks the product inactive in the same transaction.
func (uc *ProductUseCase) DeactivateProduct(ctx context.Context, id string, actor domain.Actor) (*domain.LedgerEntry, error) {
	if !actor.Role.CanManageStock() {
		return nil, domain.ErrInsufficientRole
	}

	// Replaced under the lock with the current quantity.
	placeholder := decimal.Zero

	return uc.engine.ApplyMovement(ctx, MovementRequest{
		ProductID: id,
		Type:      domain.MovementAdjustment,
		Quantity:  &placeholder,
		Source:    domain.SourceAdjustment,
		Note:      "product deactivated",
		Actor:     actor,
		prepare: func(ctx context.Context, tx Transaction, locked *domain.Product, req *MovementRequest) error {
			if !locked.IsActive {
				return domain.ErrProductInactive
			}

			current := locked.Quantity
			req.Quantity = &current

			locked.IsActive = false
			locked.UpdatedAt = time.Now().UTC()

			return uc.productRepo.Update(ctx, tx, locked)
		},
	})
}

// GetProduct retrieves a product by ID.
func (uc *ProductUseCase) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return uc.productRepo.GetByID(ctx, id)
}

// GetProductBySKU retrieves a product by SKU.
func (uc *ProductUseCase) GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return uc.productRepo.GetBySKU(ctx, sku)
}

// ListProductsInput represents input for listing products.
type ListProductsInput struct {
	Search          string
	Category        domain.Category
	IncludeInactive bool
	Limit           int
	Offset          int
}

// ListProducts lists products with pagination.
func (uc *ProductUseCase) ListProducts(ctx context.Context, input ListProductsInput) ([]*domain.Product, int, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > 200 {
		input.Limit = 200
	}
	if input.Offset < 0 {
		input.Offset = 0
	}

	return uc.productRepo.List(ctx, domain.ProductFilter{
		Search:          input.Search,
		Category:        input.Category,
		IncludeInactive: input.IncludeInactive,
		Limit:           input.Limit,
		Offset:          input.Offset,
	})
}
