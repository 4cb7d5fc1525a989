package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/stockledger/internal/domain"
)

// ProductRepository defines data access for products.
// Quantity is only written through UpdateQuantity.
type ProductRepository interface {
	Create(ctx context.Context, tx Transaction, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (*domain.Product, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Product, error)
	GetBySKUForUpdate(ctx context.Context, tx Transaction, sku string) (*domain.Product, error)
	Update(ctx context.Context, tx Transaction, product *domain.Product) error
	UpdateQuantity(ctx context.Context, tx Transaction, id string, quantity decimal.Decimal, updatedAt time.Time) error
	List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error)
	ListLowStock(ctx context.Context) ([]*domain.Product, error)
}

// LedgerRepository defines data access for the append-only stock ledger.
// Entries are ordered by (created_at, id).
type LedgerRepository interface {
	Append(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	// LatestByProduct returns domain.ErrNoLedgerHistory when the product has
	// no entries. A nil tx reads outside any transaction.
	LatestByProduct(ctx context.Context, tx Transaction, productID string) (*domain.LedgerEntry, error)
	ListByProduct(ctx context.Context, productID string) ([]*domain.LedgerEntry, error)
	List(ctx context.Context, filter domain.LedgerFilter) ([]*domain.LedgerEntry, int, error)
	ListInRange(ctx context.Context, from, to time.Time) ([]*domain.LedgerEntry, error)
	BestSellers(ctx context.Context, from, to time.Time, limit int) ([]domain.SalesRank, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	// Begin starts a savepoint nested in this transaction.
	Begin(ctx context.Context) (Transaction, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
// IDs generated later must sort after IDs generated earlier.
type IDGenerator interface {
	Generate() string
}

// Retrier retries an operation on transient storage errors.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// StockMetrics records balance engine and reconciliation activity.
type StockMetrics interface {
	ObserveMovement(movementType domain.MovementType, source domain.MovementSource, duration time.Duration)
	MovementFailed(reason string)
	ProjectionStale()
	ProjectionCorrected()
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claim whose request failed.
	Release(ctx context.Context, key string) error
}
