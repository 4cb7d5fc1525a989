package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

// ProductRepository implements usecase.ProductRepository.
type ProductRepository struct {
	store *Store
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(store *Store) *ProductRepository {
	return &ProductRepository{store: store}
}

// Create stores a new product when tx commits. The SKU is reserved immediately.
func (r *ProductRepository) Create(ctx context.Context, tx usecase.Transaction, product *domain.Product) error {
	memTx, err := asTx(tx)
	if err != nil {
		return err
	}

	stored := copyProduct(product)

	r.store.mu.Lock()
	if _, taken := r.store.skus[stored.SKU]; taken {
		r.store.mu.Unlock()
		return domain.ErrDuplicateSKU
	}
	r.store.skus[stored.SKU] = stored.ID
	r.store.mu.Unlock()

	op := func(s *Store) {
		s.products[stored.ID] = stored
	}

	if memTx == nil {
		r.store.apply([]func(*Store){op})
		return nil
	}

	memTx.mu.Lock()
	memTx.reserved = append(memTx.reserved, stored.SKU)
	memTx.mu.Unlock()

	return memTx.record(op)
}

// GetByID retrieves a product by ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}

	return copyProduct(p), nil
}

// GetBySKU retrieves a product by SKU.
func (r *ProductRepository) GetBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	r.store.mu.RLock()
	id, ok := r.store.skus[sku]
	r.store.mu.RUnlock()

	if !ok {
		return nil, domain.ErrProductNotFound
	}

	return r.GetByID(ctx, id)
}

// GetByIDForUpdate locks the product until tx ends and returns its committed state.
func (r *ProductRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Product, error) {
	memTx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}

	if memTx != nil {
		if err := memTx.lockProduct(ctx, id); err != nil {
			return nil, err
		}
	}

	return r.GetByID(ctx, id)
}

// GetBySKUForUpdate locks the product with the given SKU until tx ends.
func (r *ProductRepository) GetBySKUForUpdate(ctx context.Context, tx usecase.Transaction, sku string) (*domain.Product, error) {
	product, err := r.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}

	return r.GetByIDForUpdate(ctx, tx, product.ID)
}

// Update writes product attributes. The quantity is left untouched.
func (r *ProductRepository) Update(ctx context.Context, tx usecase.Transaction, product *domain.Product) error {
	memTx, err := asTx(tx)
	if err != nil {
		return err
	}

	if _, err := r.GetByID(ctx, product.ID); err != nil {
		return err
	}

	update := copyProduct(product)
	op := func(s *Store) {
		current, ok := s.products[update.ID]
		if !ok {
			return
		}

		quantity, sku, createdAt := current.Quantity, current.SKU, current.CreatedAt
		*current = *update
		current.Quantity = quantity
		current.SKU = sku
		current.CreatedAt = createdAt
	}

	if memTx == nil {
		r.store.apply([]func(*Store){op})
		return nil
	}

	return memTx.record(op)
}

// UpdateQuantity sets the product quantity projection.
func (r *ProductRepository) UpdateQuantity(ctx context.Context, tx usecase.Transaction, id string, quantity decimal.Decimal, updatedAt time.Time) error {
	memTx, err := asTx(tx)
	if err != nil {
		return err
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}

	op := func(s *Store) {
		if p, ok := s.products[id]; ok {
			p.Quantity = quantity
			p.UpdatedAt = updatedAt
		}
	}

	if memTx == nil {
		r.store.apply([]func(*Store){op})
		return nil
	}

	return memTx.record(op)
}

// List lists products ordered by name.
func (r *ProductRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error) {
	r.store.mu.RLock()
	matched := make([]*domain.Product, 0)
	for _, p := range r.store.products {
		if filter.Matches(p) {
			matched = append(matched, copyProduct(p))
		}
	}
	r.store.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)

	start := min(filter.Offset, total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}

	return matched[start:end], total, nil
}

// ListLowStock lists active products at or below their reorder threshold.
func (r *ProductRepository) ListLowStock(ctx context.Context) ([]*domain.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	products := make([]*domain.Product, 0)
	for _, p := range r.store.products {
		if p.IsActive && p.IsLowStock() {
			products = append(products, copyProduct(p))
		}
	}

	sort.Slice(products, func(i, j int) bool {
		return products[i].SKU < products[j].SKU
	})

	return products, nil
}
