package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/infrastructure/postgres/generated"
	"github.com/iho/stockledger/internal/usecase"
)

// ProductRepository implements usecase.ProductRepository.
type ProductRepository struct {
	db      generated.DBTX
	queries *generated.Queries
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return newProductRepository(pool)
}

func newProductRepository(db generated.DBTX) *ProductRepository {
	return &ProductRepository{
		db:      db,
		queries: generated.New(db),
	}
}

// Create inserts a product within a transaction.
func (r *ProductRepository) Create(ctx context.Context, tx usecase.Transaction, product *domain.Product) error {
	err := queriesFor(r.db, tx).CreateProduct(ctx, generated.CreateProductParams{
		ID:          product.ID,
		Sku:         product.SKU,
		Name:        product.Name,
		Description: product.Description,
		Category:    string(product.Category),
		Price:       decimalToNumeric(product.Price),
		Cost:        decimalToNumeric(product.Cost),
		GstPercent:  decimalToNumeric(product.GSTPercent),
		Quantity:    decimalToNumeric(product.Quantity),
		MinQuantity: decimalToNumeric(product.MinQuantity),
		Location:    product.Location,
		IsActive:    product.IsActive,
		CreatedAt:   timeToPgTimestamptz(product.CreatedAt),
		UpdatedAt:   timeToPgTimestamptz(product.UpdatedAt),
	})
	if isUniqueViolation(err) {
		return domain.ErrDuplicateSKU
	}

	return err
}

// GetByID retrieves a product by ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	row, err := r.queries.GetProductByID(ctx, id)
	return productOrNotFound(row, err)
}

// GetBySKU retrieves a product by SKU.
func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	row, err := r.queries.GetProductBySKU(ctx, sku)
	return productOrNotFound(row, err)
}

// GetByIDForUpdate retrieves a product by ID with a FOR UPDATE lock.
func (r *ProductRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Product, error) {
	row, err := queriesFor(r.db, tx).GetProductByIDForUpdate(ctx, id)
	return productOrNotFound(row, err)
}

// GetBySKUForUpdate retrieves a product by SKU with a FOR UPDATE lock.
func (r *ProductRepository) GetBySKUForUpdate(ctx context.Context, tx usecase.Transaction, sku string) (*domain.Product, error) {
	row, err := queriesFor(r.db, tx).GetProductBySKUForUpdate(ctx, sku)
	return productOrNotFound(row, err)
}

// Update writes every attribute except SKU and quantity.
func (r *ProductRepository) Update(ctx context.Context, tx usecase.Transaction, product *domain.Product) error {
	affected, err := queriesFor(r.db, tx).UpdateProduct(ctx, generated.UpdateProductParams{
		ID:          product.ID,
		Name:        product.Name,
		Description: product.Description,
		Category:    string(product.Category),
		Price:       decimalToNumeric(product.Price),
		Cost:        decimalToNumeric(product.Cost),
		GstPercent:  decimalToNumeric(product.GSTPercent),
		MinQuantity: decimalToNumeric(product.MinQuantity),
		Location:    product.Location,
		IsActive:    product.IsActive,
		UpdatedAt:   timeToPgTimestamptz(product.UpdatedAt),
	})
	if err != nil {
		return err
	}

	if affected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

// UpdateQuantity sets the projected stock level of a product.
func (r *ProductRepository) UpdateQuantity(ctx context.Context, tx usecase.Transaction, id string, quantity decimal.Decimal, updatedAt time.Time) error {
	affected, err := queriesFor(r.db, tx).UpdateProductQuantity(ctx, generated.UpdateProductQuantityParams{
		ID:        id,
		Quantity:  decimalToNumeric(quantity),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return err
	}

	if affected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

// List lists products matching the filter ordered by name.
func (r *ProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error) {
	total, err := r.queries.CountProducts(ctx, generated.CountProductsParams{
		Search:          filter.Search,
		Category:        string(filter.Category),
		IncludeInactive: filter.IncludeInactive,
	})
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.queries.ListProducts(ctx, generated.ListProductsParams{
		Search:          filter.Search,
		Category:        string(filter.Category),
		IncludeInactive: filter.IncludeInactive,
		RowLimit:        int32(filter.Limit),
		RowOffset:       int32(filter.Offset),
	})
	if err != nil {
		return nil, 0, err
	}

	return rowsToProducts(rows), int(total), nil
}

// ListLowStock lists active products at or below their reorder threshold.
func (r *ProductRepository) ListLowStock(ctx context.Context) ([]*domain.Product, error) {
	rows, err := r.queries.ListLowStockProducts(ctx)
	if err != nil {
		return nil, err
	}

	return rowsToProducts(rows), nil
}

func productOrNotFound(row generated.Product, err error) (*domain.Product, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}

		return nil, err
	}

	return rowToProduct(row), nil
}

func rowsToProducts(rows []generated.Product) []*domain.Product {
	products := make([]*domain.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, rowToProduct(row))
	}

	return products
}

func rowToProduct(row generated.Product) *domain.Product {
	return &domain.Product{
		ID:          row.ID,
		SKU:         row.Sku,
		Name:        row.Name,
		Description: row.Description,
		Category:    domain.Category(row.Category),
		Price:       numericToDecimal(row.Price),
		Cost:        numericToDecimal(row.Cost),
		GSTPercent:  numericToDecimal(row.GstPercent),
		Quantity:    numericToDecimal(row.Quantity),
		MinQuantity: numericToDecimal(row.MinQuantity),
		Location:    row.Location,
		IsActive:    row.IsActive,
		CreatedAt:   row.CreatedAt.Time,
		UpdatedAt:   row.UpdatedAt.Time,
	}
}
