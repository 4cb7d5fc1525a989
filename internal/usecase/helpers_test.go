package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/stockledger/internal/adapter/repository/memory"
	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/infrastructure/idgen"
	"github.com/iho/stockledger/internal/usecase"
)

var (
	admin   = domain.Actor{Username: "alice", Role: domain.RoleAdmin}
	manager = domain.Actor{Username: "maria", Role: domain.RoleManager}
	staff   = domain.Actor{Username: "sam", Role: domain.RoleStaff}
)

type fixture struct {
	store     *memory.Store
	txManager *memory.TxManager
	products  usecase.ProductRepository
	ledger    *memory.LedgerRepository
	outbox    *memory.OutboxRepository

	engine         *usecase.BalanceEngine
	inventory      *usecase.InventoryUseCase
	catalog        *usecase.ProductUseCase
	query          *usecase.LedgerQueryUseCase
	reconciliation *usecase.ReconciliationUseCase
}

type fixtureOption func(*fixture)

// withProducts swaps the product repository, typically for a failing wrapper.
func withProducts(wrap func(usecase.ProductRepository) usecase.ProductRepository) fixtureOption {
	return func(f *fixture) {
		f.products = wrap(f.products)
	}
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	store := memory.NewStore()
	f := &fixture{
		store:     store,
		txManager: memory.NewTxManager(store),
		products:  memory.NewProductRepository(store),
		ledger:    memory.NewLedgerRepository(store),
		outbox:    memory.NewOutboxRepository(store),
	}

	for _, opt := range opts {
		opt(f)
	}

	logger := zerolog.Nop()
	ids := idgen.NewULIDGenerator()

	f.engine = usecase.NewBalanceEngine(f.txManager, f.products, f.ledger, f.outbox, ids, nil, nil, logger)
	f.inventory = usecase.NewInventoryUseCase(f.engine, f.products)
	f.catalog = usecase.NewProductUseCase(f.txManager, f.products, f.engine, ids)
	f.query = usecase.NewLedgerQueryUseCase(f.ledger, f.products, nil, time.Minute, logger)
	f.reconciliation = usecase.NewReconciliationUseCase(f.txManager, f.products, f.ledger, nil, logger)

	return f
}

func (f *fixture) createProduct(t *testing.T, sku string, quantity int64) *domain.Product {
	t.Helper()

	product, err := f.catalog.CreateProduct(context.Background(), usecase.CreateProductInput{
		SKU:         sku,
		Name:        "Product " + sku,
		Category:    domain.CategoryGrocery,
		Price:       decimal.NewFromInt(10),
		Cost:        decimal.NewFromInt(6),
		Quantity:    decimal.NewFromInt(quantity),
		MinQuantity: decimal.NewFromInt(5),
	}, admin)
	require.NoError(t, err)

	return product
}

func (f *fixture) quantity(t *testing.T, productID string) decimal.Decimal {
	t.Helper()

	p, err := f.products.GetByID(context.Background(), productID)
	require.NoError(t, err)

	return p.Quantity
}

func (f *fixture) history(t *testing.T, productID string) []*domain.LedgerEntry {
	t.Helper()

	entries, err := f.ledger.ListByProduct(context.Background(), productID)
	require.NoError(t, err)

	return entries
}

func balances(entries []*domain.LedgerEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.BalanceAfter.String())
	}
	return out
}

func qty(n int64) *decimal.Decimal {
	d := decimal.NewFromInt(n)
	return &d
}

var errProjectionDown = errors.New("product store unavailable")

// failingProjection fails only the projection writes made by the engine,
// which run inside a savepoint, so setup helpers still work.
type failingProjection struct {
	usecase.ProductRepository
	enabled bool
}

func (r *failingProjection) UpdateQuantity(ctx context.Context, tx usecase.Transaction, id string, q decimal.Decimal, at time.Time) error {
	if r.enabled {
		return errProjectionDown
	}
	return r.ProductRepository.UpdateQuantity(ctx, tx, id, q, at)
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
