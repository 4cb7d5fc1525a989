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

// ReconciliationUseCase realigns product quantities with their ledger.
// The ledger is the source of truth; only the product projection is changed.
type ReconciliationUseCase struct {
	txManager   TransactionManager
	productRepo ProductRepository
	ledgerRepo  LedgerRepository
	metrics     StockMetrics
	logger      zerolog.Logger
	listeners   []ProductChangeListener
}

// NewReconciliationUseCase creates a new reconciliation use case.
func NewReconciliationUseCase(
	txManager TransactionManager,
	productRepo ProductRepository,
	ledgerRepo LedgerRepository,
	metrics StockMetrics,
	logger zerolog.Logger,
) *ReconciliationUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}

	return &ReconciliationUseCase{
		txManager:   txManager,
		productRepo: productRepo,
		ledgerRepo:  ledgerRepo,
		metrics:     metrics,
		logger:      logger.With().Str("component", "reconciliation").Logger(),
	}
}

// OnProductChanged registers l for every committed correction.
func (uc *ReconciliationUseCase) OnProductChanged(l ProductChangeListener) {
	uc.listeners = append(uc.listeners, l)
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	ProductID     string
	SKU           string
	Recorded      decimal.Decimal
	LedgerBalance decimal.Decimal
	Difference    decimal.Decimal
	LastEntryID   string
	HasHistory    bool
	IsReconciled  bool
	Corrected     bool
	CheckedAt     time.Time
}

// ReconcileProductQuantity sets the product quantity to the balance of its
// latest ledger entry when they differ. Products without history are left
// unchanged.
func (uc *ReconciliationUseCase) ReconcileProductQuantity(ctx context.Context, sku string) (*ReconciliationResult, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	product, err := uc.productRepo.GetBySKUForUpdate(ctx, tx, sku)
	if err != nil {
		return nil, err
	}

	result, err := uc.compare(ctx, tx, product)
	if err != nil {
		return nil, err
	}

	if result.IsReconciled {
		return result, nil
	}

	if err := uc.productRepo.UpdateQuantity(ctx, tx, product.ID, result.LedgerBalance, result.CheckedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	result.Corrected = true
	uc.metrics.ProjectionCorrected()
	for _, l := range uc.listeners {
		l(ctx, product.ID)
	}
	uc.logger.Info().
		Str("product_id", product.ID).
		Str("sku", product.SKU).
		Str("recorded_quantity", result.Recorded.String()).
		Str("ledger_balance", result.LedgerBalance.String()).
		Msg("product quantity reconciled")

	return result, nil
}

// CheckProductQuantity compares a product with its latest entry without
// changing anything.
func (uc *ReconciliationUseCase) CheckProductQuantity(ctx context.Context, sku string) (*ReconciliationResult, error) {
	product, err := uc.productRepo.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}

	return uc.compare(ctx, nil, product)
}

func (uc *ReconciliationUseCase) compare(ctx context.Context, tx Transaction, product *domain.Product) (*ReconciliationResult, error) {
	result := &ReconciliationResult{
		ProductID:     product.ID,
		SKU:           product.SKU,
		Recorded:      product.Quantity,
		LedgerBalance: product.Quantity,
		Difference:    decimal.Zero,
		IsReconciled:  true,
		CheckedAt:     time.Now().UTC(),
	}

	latest, err := uc.ledgerRepo.LatestByProduct(ctx, tx, product.ID)
	if errors.Is(err, domain.ErrNoLedgerHistory) {
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	result.HasHistory = true
	result.LastEntryID = latest.ID
	result.LedgerBalance = latest.BalanceAfter
	result.Difference = product.Quantity.Sub(latest.BalanceAfter)
	result.IsReconciled = result.Difference.IsZero()

	return result, nil
}

// LedgerVerification is the outcome of replaying a product's full history.
type LedgerVerification struct {
	ProductID         string
	SKU               string
	Entries           int
	ReplayedBalance   decimal.Decimal
	RecordedQuantity  decimal.Decimal
	BrokenEntries     []*domain.LedgerEntry
	ProjectionMatches bool
}

// Consistent reports whether the walk is unbroken and ends at the stored quantity.
func (v *LedgerVerification) Consistent() bool {
	return len(v.BrokenEntries) == 0 && v.ProjectionMatches
}

// VerifyProductLedger replays every entry of a product from zero and checks
// each recorded balance and the final stored quantity.
func (uc *ReconciliationUseCase) VerifyProductLedger(ctx context.Context, sku string) (*LedgerVerification, error) {
	product, err := uc.productRepo.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}

	entries, err := uc.ledgerRepo.ListByProduct(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	replay := domain.Replay(entries)

	verification := &LedgerVerification{
		ProductID:         product.ID,
		SKU:               product.SKU,
		Entries:           replay.Entries,
		ReplayedBalance:   replay.Balance,
		RecordedQuantity:  product.Quantity,
		BrokenEntries:     replay.Broken,
		ProjectionMatches: replay.Entries == 0 || replay.Balance.Equal(product.Quantity),
	}

	if !verification.Consistent() {
		uc.logger.Warn().
			Str("sku", product.SKU).
			Int("broken_entries", len(replay.Broken)).
			Str("replayed_balance", replay.Balance.String()).
			Str("recorded_quantity", product.Quantity.String()).
			Msg("ledger verification failed")
	}

	if verification.BrokenEntries == nil {
		verification.BrokenEntries = []*domain.LedgerEntry{}
	}

	return verification, nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalProducts      int
	ReconciledProducts int
	CorrectedProducts  int
	Discrepancies      []*ReconciliationResult
	CheckedAt          time.Time
}

// GenerateReport checks every product, active or not. With fix set, each
// discrepancy is corrected as it is found.
func (uc *ReconciliationUseCase) GenerateReport(ctx context.Context, fix bool) (*ReconciliationReport, error) {
	report := &ReconciliationReport{
		Discrepancies: make([]*ReconciliationResult, 0),
		CheckedAt:     time.Now().UTC(),
	}

	err := walkProducts(ctx, uc.productRepo, true, func(p *domain.Product) error {
		var (
			result *ReconciliationResult
			err    error
		)
		if fix {
			result, err = uc.ReconcileProductQuantity(ctx, p.SKU)
		} else {
			result, err = uc.compare(ctx, nil, p)
		}
		if err != nil {
			return fmt.Errorf("failed to reconcile product %s: %w", p.SKU, err)
		}

		report.TotalProducts++
		if result.IsReconciled {
			report.ReconciledProducts++
			return nil
		}

		if result.Corrected {
			report.CorrectedProducts++
		}
		report.Discrepancies = append(report.Discrepancies, result)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return report, nil
}
