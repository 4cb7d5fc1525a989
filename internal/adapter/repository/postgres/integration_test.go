package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/iho/stockledger/internal/adapter/repository/postgres"
	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/infrastructure/idgen"
	infrapostgres "github.com/iho/stockledger/internal/infrastructure/postgres"
	"github.com/iho/stockledger/internal/usecase"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("stockledger"),
		tcpostgres.WithUsername("stockledger"),
		tcpostgres.WithPassword("stockledger"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, infrapostgres.RunMigrations(dsn, "", zerolog.Nop()))

	pool, err := infrapostgres.NewPool(ctx, dsn, 10, 1)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool
}

type services struct {
	products       *postgres.ProductRepository
	ledger         *postgres.LedgerRepository
	catalog        *usecase.ProductUseCase
	inventory      *usecase.InventoryUseCase
	query          *usecase.LedgerQueryUseCase
	reconciliation *usecase.ReconciliationUseCase
}

func newServices(pool *pgxpool.Pool) *services {
	logger := zerolog.Nop()
	ids := idgen.NewULIDGenerator()
	txManager := postgres.NewTxManager(pool)
	products := postgres.NewProductRepository(pool)
	ledger := postgres.NewLedgerRepository(pool)
	outbox := postgres.NewOutboxRepository(pool)

	engine := usecase.NewBalanceEngine(txManager, products, ledger, outbox, ids, postgres.NewRetrier(logger), nil, logger)

	return &services{
		products:       products,
		ledger:         ledger,
		catalog:        usecase.NewProductUseCase(txManager, products, engine, ids),
		inventory:      usecase.NewInventoryUseCase(engine, products),
		query:          usecase.NewLedgerQueryUseCase(ledger, products, nil, time.Minute, logger),
		reconciliation: usecase.NewReconciliationUseCase(txManager, products, ledger, nil, logger),
	}
}

func TestPostgresStockLedger(t *testing.T) {
	pool := startPostgres(t)
	svc := newServices(pool)
	ctx := context.Background()

	admin := domain.Actor{Username: "alice", Role: domain.RoleAdmin}
	staff := domain.Actor{Username: "sam", Role: domain.RoleStaff}

	product, err := svc.catalog.CreateProduct(ctx, usecase.CreateProductInput{
		SKU:         "ABC",
		Name:        "Assam Black Tea",
		Category:    domain.CategoryBeverages,
		Price:       decimal.RequireFromString("4.50"),
		Cost:        decimal.NewFromInt(2),
		Quantity:    decimal.NewFromInt(20),
		MinQuantity: decimal.NewFromInt(5),
	}, admin)
	require.NoError(t, err)

	t.Run("duplicate sku", func(t *testing.T) {
		_, err := svc.catalog.CreateProduct(ctx, usecase.CreateProductInput{SKU: "ABC", Name: "Again"}, admin)
		assert.ErrorIs(t, err, domain.ErrDuplicateSKU)
	})

	t.Run("sale and count", func(t *testing.T) {
		_, err := svc.inventory.Checkout(ctx, usecase.CheckoutInput{
			InvoiceNumber: "INV-1",
			Lines:         []usecase.SaleLine{{ProductID: product.ID, Quantity: decimal.NewFromInt(3)}},
			Actor:         staff,
		})
		require.NoError(t, err)

		_, err = svc.inventory.CountStock(ctx, usecase.StockCountInput{
			Counts: []usecase.StockCount{{SKU: "ABC", Counted: decimal.NewFromInt(15)}},
			Actor:  staff,
		})
		require.NoError(t, err)

		page, err := svc.query.ListLedger(ctx, usecase.ListLedgerInput{SKU: "ABC", Ascending: true})
		require.NoError(t, err)
		require.Len(t, page.Items, 3)
		assert.Equal(t, "20", page.Items[0].BalanceAfter.String())
		assert.Equal(t, "17", page.Items[1].BalanceAfter.String())
		assert.Equal(t, "15", page.Items[2].BalanceAfter.String())
		require.NotNil(t, page.Items[1].UnitPrice)
		assert.Equal(t, "4.5", page.Items[1].UnitPrice.String())
	})

	t.Run("search is literal", func(t *testing.T) {
		page, err := svc.query.ListLedger(ctx, usecase.ListLedgerInput{Search: "a%"})
		require.NoError(t, err)
		assert.Empty(t, page.Items)

		page, err = svc.query.ListLedger(ctx, usecase.ListLedgerInput{Search: "BLACK_TEA"})
		require.NoError(t, err)
		assert.Empty(t, page.Items)

		page, err = svc.query.ListLedger(ctx, usecase.ListLedgerInput{Search: "black tea"})
		require.NoError(t, err)
		assert.Len(t, page.Items, 3)

		products, total, err := svc.catalog.ListProducts(ctx, usecase.ListProductsInput{Search: "%"})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, products)
	})

	t.Run("fractional quantities survive storage", func(t *testing.T) {
		loose, err := svc.catalog.CreateProduct(ctx, usecase.CreateProductInput{
			SKU:      "SALT-LOOSE",
			Name:     "Loose Salt",
			Category: domain.CategoryGrocery,
			Quantity: decimal.NewFromInt(1),
		}, admin)
		require.NoError(t, err)

		for _, q := range []string{"0.0001", "0.3333", "0.25"} {
			quantity := decimal.RequireFromString(q)
			_, err := svc.inventory.RecordMovement(ctx, usecase.MovementRequest{
				ProductID: loose.ID,
				Type:      domain.MovementOut,
				Quantity:  &quantity,
				Source:    domain.SourceTransfer,
				Actor:     admin,
			})
			require.NoError(t, err)
		}

		tooFine := decimal.RequireFromString("0.00005")
		_, err = svc.inventory.RecordMovement(ctx, usecase.MovementRequest{
			ProductID: loose.ID,
			Type:      domain.MovementOut,
			Quantity:  &tooFine,
			Actor:     admin,
		})
		assert.ErrorIs(t, err, domain.ErrInvalidMovement)

		verification, err := svc.reconciliation.VerifyProductLedger(ctx, "SALT-LOOSE")
		require.NoError(t, err)
		assert.True(t, verification.Consistent())
		assert.True(t, verification.ReplayedBalance.Equal(decimal.RequireFromString("0.4166")), verification.ReplayedBalance.String())
	})

	t.Run("concurrent movements keep the walk consistent", func(t *testing.T) {
		var wg sync.WaitGroup
		for range 30 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				one := decimal.NewFromInt(1)
				_, _ = svc.inventory.RecordMovement(ctx, usecase.MovementRequest{
					ProductID: product.ID,
					Type:      domain.MovementOut,
					Quantity:  &one,
					Source:    domain.SourceTransfer,
					Actor:     admin,
				})
			}()
		}
		wg.Wait()

		stored, err := svc.products.GetByID(ctx, product.ID)
		require.NoError(t, err)
		assert.True(t, stored.Quantity.IsZero())

		verification, err := svc.reconciliation.VerifyProductLedger(ctx, "ABC")
		require.NoError(t, err)
		assert.True(t, verification.Consistent())
	})

	t.Run("ledger is append-only", func(t *testing.T) {
		_, err := pool.Exec(ctx, "UPDATE ledger_entries SET note = 'edited'")
		assert.Error(t, err)

		_, err = pool.Exec(ctx, "DELETE FROM ledger_entries")
		assert.Error(t, err)
	})

	t.Run("reconcile drifted projection", func(t *testing.T) {
		_, err := pool.Exec(ctx, "UPDATE products SET quantity = 99 WHERE sku = 'ABC'")
		require.NoError(t, err)

		result, err := svc.reconciliation.ReconcileProductQuantity(ctx, "ABC")
		require.NoError(t, err)
		assert.True(t, result.Corrected)
		assert.True(t, result.LedgerBalance.IsZero())

		stored, err := svc.products.GetBySKU(ctx, "ABC")
		require.NoError(t, err)
		assert.True(t, stored.Quantity.IsZero())
	})

	t.Run("reports", func(t *testing.T) {
		ranks, err := svc.query.BestSellers(ctx, time.Time{}, time.Time{}, 5)
		require.NoError(t, err)
		require.Len(t, ranks, 1)
		assert.Equal(t, "3", ranks[0].UnitsSold.String())

		low, err := svc.query.LowStock(ctx)
		require.NoError(t, err)
		require.Len(t, low, 1)
		assert.Equal(t, "ABC", low[0].SKU)
	})
}
