package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/stockledger/internal/domain"
)

// MovementRequest describes one stock movement.
// A nil Quantity is treated as missing.
type MovementRequest struct {
	ProductID string
	Type      domain.MovementType
	Quantity  *decimal.Decimal
	UnitCost  *decimal.Decimal
	UnitPrice *decimal.Decimal
	Reference string
	Source    domain.MovementSource
	Note      string
	Actor     domain.Actor

	// prepare runs under the product lock before the entry is built and may
	// rewrite the request from the locked product state.
	prepare func(ctx context.Context, tx Transaction, product *domain.Product, req *MovementRequest) error
}

// BalanceEngine appends ledger entries and keeps the product quantity
// projection in line with them.
//
// Movements on the same product are serialized by the product row lock taken
// in GetByIDForUpdate and held until commit. Movements on different products
// do not contend.
type BalanceEngine struct {
	txManager   TransactionManager
	productRepo ProductRepository
	ledgerRepo  LedgerRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	retrier     Retrier
	metrics     StockMetrics
	logger      zerolog.Logger
	now         func() time.Time
	listeners   []ProductChangeListener
}

// ProductChangeListener is called after a transaction that changed a
// product's quantity or valuation attributes has committed.
type ProductChangeListener func(ctx context.Context, productID string)

// OnProductChanged registers l for every committed movement and product
// edit. It must be called before the engine serves requests.
func (e *BalanceEngine) OnProductChanged(l ProductChangeListener) {
	e.listeners = append(e.listeners, l)
}

func (e *BalanceEngine) notify(ctx context.Context, productID string) {
	for _, l := range e.listeners {
		l(ctx, productID)
	}
}

// NewBalanceEngine creates a new BalanceEngine.
// retrier and metrics may be nil.
func NewBalanceEngine(
	txManager TransactionManager,
	productRepo ProductRepository,
	ledgerRepo LedgerRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retrier Retrier,
	metrics StockMetrics,
	logger zerolog.Logger,
) *BalanceEngine {
	if retrier == nil {
		retrier = onceRetrier{}
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}

	return &BalanceEngine{
		txManager:   txManager,
		productRepo: productRepo,
		ledgerRepo:  ledgerRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		retrier:     retrier,
		metrics:     metrics,
		logger:      logger.With().Str("component", "balance_engine").Logger(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ApplyMovement records a movement and updates the product quantity.
//
// When the entry is written but the quantity update fails, the entry is kept
// and returned together with a *domain.ProjectionStaleError.
func (e *BalanceEngine) ApplyMovement(ctx context.Context, req MovementRequest) (*domain.LedgerEntry, error) {
	start := time.Now()

	// 1. Validate before touching storage
	if err := domain.ValidateMovement(req.Type, req.Source, req.Quantity, req.UnitCost, req.UnitPrice, req.Reference, req.Note); err != nil {
		e.metrics.MovementFailed("invalid_movement")
		return nil, err
	}

	if req.ProductID == "" {
		e.metrics.MovementFailed("product_not_found")
		return nil, domain.ErrProductNotFound
	}

	if req.Source == "" {
		req.Source = domain.DefaultSource(req.Type)
	}

	var (
		entry *domain.LedgerEntry
		stale error
	)

	err := e.retrier.Retry(ctx, func() error {
		var applyErr error
		entry, applyErr = e.apply(ctx, req)

		var staleErr *domain.ProjectionStaleError
		if errors.As(applyErr, &staleErr) {
			// The entry is committed; running again would append it twice.
			stale = applyErr
			return nil
		}

		return applyErr
	})
	if err != nil {
		e.metrics.MovementFailed(failureReason(err))
		return nil, err
	}

	e.metrics.ObserveMovement(entry.Type, entry.Source, time.Since(start))
	e.notify(ctx, entry.ProductID)

	if stale != nil {
		return entry, stale
	}

	return entry, nil
}

func (e *BalanceEngine) apply(ctx context.Context, req MovementRequest) (*domain.LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	// 2. Begin transaction
	tx, err := e.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistenceFailure, err)
	}
	defer tx.Rollback(ctx)

	// 3. Lock the product until commit
	product, err := e.productRepo.GetByIDForUpdate(ctx, tx, req.ProductID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %w", domain.ErrPersistenceFailure, err)
	}

	if req.prepare != nil {
		if err := req.prepare(ctx, tx, product, &req); err != nil {
			return nil, err
		}
	}

	now := entryTime(e.now(), product.UpdatedAt)
	entry := e.buildEntry(product, req, now)

	// 4. Append the entry and its events
	if err := e.ledgerRepo.Append(ctx, tx, entry); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistenceFailure, err)
	}

	if err := e.enqueueEvents(ctx, tx, product, entry); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistenceFailure, err)
	}

	// 5. Update the projection inside a savepoint so a failure keeps the entry
	projectionErr := e.updateProjectionIsolated(ctx, tx, product.ID, entry.BalanceAfter, now)

	// 6. Commit
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistenceFailure, err)
	}

	if projectionErr != nil {
		e.metrics.ProjectionStale()
		e.logger.Warn().
			Err(projectionErr).
			Str("product_id", product.ID).
			Str("sku", product.SKU).
			Str("entry_id", entry.ID).
			Str("recorded_quantity", product.Quantity.String()).
			Str("ledger_balance", entry.BalanceAfter.String()).
			Msg("product quantity is stale, reconciliation required")

		return entry, &domain.ProjectionStaleError{Entry: entry, Err: projectionErr}
	}

	return entry, nil
}

// entryTime keeps a product's entries in commit order when the wall clock
// steps backwards. The locked product's UpdatedAt is the time of its last
// write, so a new entry is stamped strictly after it.
func entryTime(now, lastWrite time.Time) time.Time {
	if now.After(lastWrite) {
		return now
	}
	return lastWrite.Add(time.Microsecond)
}

func (e *BalanceEngine) buildEntry(product *domain.Product, req MovementRequest, now time.Time) *domain.LedgerEntry {
	quantity := *req.Quantity

	unitCost := product.Cost
	if req.UnitCost != nil {
		unitCost = *req.UnitCost
	}

	return &domain.LedgerEntry{
		ID:            e.idGen.Generate(),
		ProductID:     product.ID,
		SKU:           product.SKU,
		ProductName:   product.Name,
		Type:          req.Type,
		Quantity:      quantity,
		UnitCost:      unitCost,
		UnitPrice:     req.UnitPrice,
		BalanceBefore: product.Quantity,
		BalanceAfter:  domain.NextBalance(product.Quantity, req.Type, quantity),
		Reference:     req.Reference,
		Source:        req.Source,
		Note:          req.Note,
		Username:      req.Actor.Username,
		UserRole:      req.Actor.Role,
		CreatedAt:     now,
	}
}

func (e *BalanceEngine) enqueueEvents(ctx context.Context, tx Transaction, product *domain.Product, entry *domain.LedgerEntry) error {
	if e.outboxRepo == nil {
		return nil
	}

	if err := e.outboxRepo.Create(ctx, tx, domain.NewStockMovedEvent(e.idGen.Generate(), entry)); err != nil {
		return err
	}

	if domain.CrossesLowStock(product, entry) {
		return e.outboxRepo.Create(ctx, tx, domain.NewStockLowEvent(e.idGen.Generate(), product, entry))
	}

	return nil
}

// UpdateProjection sets the product quantity within tx.
func (e *BalanceEngine) UpdateProjection(ctx context.Context, tx Transaction, productID string, quantity decimal.Decimal) error {
	return e.productRepo.UpdateQuantity(ctx, tx, productID, quantity, e.now())
}

func (e *BalanceEngine) updateProjectionIsolated(ctx context.Context, tx Transaction, productID string, quantity decimal.Decimal, now time.Time) error {
	savepoint, err := tx.Begin(ctx)
	if err != nil {
		return err
	}

	if err := e.productRepo.UpdateQuantity(ctx, savepoint, productID, quantity, now); err != nil {
		_ = savepoint.Rollback(ctx)
		return err
	}

	return savepoint.Commit(ctx)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, domain.ErrInvalidMovement):
		return "invalid_movement"
	case errors.Is(err, domain.ErrProductInactive):
		return "product_inactive"
	case errors.Is(err, domain.ErrPersistenceFailure):
		return "persistence_failure"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "internal"
	}
}

type onceRetrier struct{}

func (onceRetrier) Retry(_ context.Context, operation func() error) error {
	return operation()
}

type noopMetrics struct{}

func (noopMetrics) ObserveMovement(domain.MovementType, domain.MovementSource, time.Duration) {}
func (noopMetrics) MovementFailed(string)                                                     {}
func (noopMetrics) ProjectionStale()                                                          {}
func (noopMetrics) ProjectionCorrected()                                                      {}
