package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/stockledger/internal/domain"
)

const (
	defaultReportPeriod   = 30 * 24 * time.Hour
	defaultBestSellers    = 10
	maxBestSellers        = 100
	reportCacheKeyPrefix  = "report:"
	valuationCacheKey     = reportCacheKeyPrefix + "valuation"
	reportTimestampFormat = "20060102T150405"
)

// LedgerQueryUseCase serves read-only views over ledger history and products.
type LedgerQueryUseCase struct {
	ledgerRepo  LedgerRepository
	productRepo ProductRepository
	cache       Cache
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewLedgerQueryUseCase creates a new LedgerQueryUseCase.
// cache may be nil, in which case reports are computed on every call.
func NewLedgerQueryUseCase(
	ledgerRepo LedgerRepository,
	productRepo ProductRepository,
	cache Cache,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) *LedgerQueryUseCase {
	if cacheTTL <= 0 {
		cacheTTL = DefaultReportCacheTTL
	}

	return &LedgerQueryUseCase{
		ledgerRepo:  ledgerRepo,
		productRepo: productRepo,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger.With().Str("component", "ledger_query").Logger(),
	}
}

// ListLedgerInput represents a ledger browsing request.
type ListLedgerInput struct {
	SKU       string
	Type      string
	Source    string
	Search    string
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	Ascending bool
}

// ListLedger returns one page of matching entries, most recent first unless
// Ascending is set.
func (uc *LedgerQueryUseCase) ListLedger(ctx context.Context, input ListLedgerInput) (*domain.LedgerPage, error) {
	filter := domain.LedgerFilter{
		SKU:       input.SKU,
		Search:    input.Search,
		DateFrom:  input.DateFrom,
		DateTo:    input.DateTo,
		Ascending: input.Ascending,
	}

	if input.Type != "" {
		movementType, err := domain.ParseMovementType(input.Type)
		if err != nil {
			return nil, err
		}
		filter.Type = movementType
	}

	if input.Source != "" {
		source := domain.MovementSource(strings.ToLower(input.Source))
		if !source.IsValid() {
			return nil, fmt.Errorf("%w: unknown movement source %q", domain.ErrInvalidMovement, input.Source)
		}
		filter.Source = source
	}

	if filter.DateFrom != nil && filter.DateTo != nil && filter.DateFrom.After(*filter.DateTo) {
		return nil, domain.ErrInvalidDateRange
	}

	filter.Page, filter.PageSize = domain.ValidatePagination(input.Page, input.PageSize)

	items, total, err := uc.ledgerRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return domain.NewLedgerPage(items, total, filter.Page, filter.PageSize), nil
}

// ProductHistory returns every entry of a product in creation order.
func (uc *LedgerQueryUseCase) ProductHistory(ctx context.Context, sku string) ([]*domain.LedgerEntry, error) {
	product, err := uc.productRepo.GetBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}

	return uc.ledgerRepo.ListByProduct(ctx, product.ID)
}

// Turnover estimates stock turnover per product over [from, to].
//
// The starting balance is approximated by adding the units sold back onto the
// last balance in the period. Stock received inside the period is not
// subtracted, so the figure is a heuristic and overstates the average
// inventory whenever IN and OUT movements mix in the window.
func (uc *LedgerQueryUseCase) Turnover(ctx context.Context, from, to time.Time) ([]domain.TurnoverRow, error) {
	from, to, err := reportPeriod(from, to)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%sturnover:%s:%s", reportCacheKeyPrefix, from.Format(reportTimestampFormat), to.Format(reportTimestampFormat))

	return cachedReport(ctx, uc, key, func() ([]domain.TurnoverRow, error) {
		entries, err := uc.ledgerRepo.ListInRange(ctx, from, to)
		if err != nil {
			return nil, err
		}

		return computeTurnover(entries), nil
	})
}

func computeTurnover(entries []*domain.LedgerEntry) []domain.TurnoverRow {
	type acc struct {
		row  domain.TurnoverRow
		last *domain.LedgerEntry
	}

	byProduct := make(map[string]*acc)
	order := make([]string, 0)

	for _, e := range entries {
		a, ok := byProduct[e.ProductID]
		if !ok {
			a = &acc{row: domain.TurnoverRow{ProductID: e.ProductID, UnitsSold: decimal.Zero}}
			byProduct[e.ProductID] = a
			order = append(order, e.ProductID)
		}

		if e.Type == domain.MovementOut {
			a.row.UnitsSold = a.row.UnitsSold.Add(e.Quantity)
		}
		a.last = e
	}

	one := decimal.NewFromInt(1)
	two := decimal.NewFromInt(2)

	rows := make([]domain.TurnoverRow, 0, len(order))
	for _, id := range order {
		a := byProduct[id]
		row := a.row
		row.SKU = a.last.SKU
		row.Name = a.last.ProductName
		row.EndingBalance = a.last.BalanceAfter
		row.ApproxStarting = row.EndingBalance.Add(row.UnitsSold)

		average := row.ApproxStarting.Add(row.EndingBalance).Div(two)
		if average.LessThan(one) {
			average = one
		}
		row.AverageInventory = average
		row.Turnover = row.UnitsSold.DivRound(average, 4)

		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Turnover.Equal(rows[j].Turnover) {
			return rows[i].Turnover.GreaterThan(rows[j].Turnover)
		}
		return rows[i].SKU < rows[j].SKU
	})

	return rows
}

// LowStock lists active products at or below their reorder threshold, the
// largest shortfall first.
func (uc *LedgerQueryUseCase) LowStock(ctx context.Context) ([]*domain.Product, error) {
	products, err := uc.productRepo.ListLowStock(ctx)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(products, func(i, j int) bool {
		si, sj := products[i].Shortfall(), products[j].Shortfall()
		if !si.Equal(sj) {
			return si.GreaterThan(sj)
		}
		return products[i].SKU < products[j].SKU
	})

	return products, nil
}

// BestSellers ranks products by units sold in [from, to].
func (uc *LedgerQueryUseCase) BestSellers(ctx context.Context, from, to time.Time, limit int) ([]domain.SalesRank, error) {
	from, to, err := reportPeriod(from, to)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultBestSellers
	}
	if limit > maxBestSellers {
		limit = maxBestSellers
	}

	key := fmt.Sprintf("%sbest-sellers:%s:%s:%d", reportCacheKeyPrefix, from.Format(reportTimestampFormat), to.Format(reportTimestampFormat), limit)

	return cachedReport(ctx, uc, key, func() ([]domain.SalesRank, error) {
		return uc.ledgerRepo.BestSellers(ctx, from, to, limit)
	})
}

// Valuation sums stock value over active products, overall and per category.
func (uc *LedgerQueryUseCase) Valuation(ctx context.Context) (*domain.Valuation, error) {
	return cachedReport(ctx, uc, valuationCacheKey, func() (*domain.Valuation, error) {
		byCategory := make(map[domain.Category]*domain.CategoryValuation)
		result := &domain.Valuation{GeneratedAt: time.Now().UTC()}

		err := walkProducts(ctx, uc.productRepo, false, func(p *domain.Product) error {
			cv, ok := byCategory[p.Category]
			if !ok {
				cv = &domain.CategoryValuation{Category: p.Category}
				byCategory[p.Category] = cv
			}

			cv.Products++
			cv.Units = cv.Units.Add(p.Quantity)
			cv.CostValue = cv.CostValue.Add(p.CostValue())
			cv.RetailValue = cv.RetailValue.Add(p.RetailValue())

			result.Products++
			result.Units = result.Units.Add(p.Quantity)
			result.CostValue = result.CostValue.Add(p.CostValue())
			result.RetailValue = result.RetailValue.Add(p.RetailValue())

			return nil
		})
		if err != nil {
			return nil, err
		}

		result.Categories = make([]domain.CategoryValuation, 0, len(byCategory))
		for _, cv := range byCategory {
			result.Categories = append(result.Categories, *cv)
		}
		sort.Slice(result.Categories, func(i, j int) bool {
			return result.Categories[i].Category < result.Categories[j].Category
		})

		return result, nil
	})
}

// InvalidateValuation drops the cached valuation report. It has the shape of
// a ProductChangeListener so it can follow movements, edits and corrections.
func (uc *LedgerQueryUseCase) InvalidateValuation(ctx context.Context, productID string) {
	if uc.cache == nil {
		return
	}

	if err := uc.cache.Delete(ctx, valuationCacheKey); err != nil {
		uc.logger.Warn().Err(err).Str("product_id", productID).Msg("failed to invalidate valuation report")
	}
}

func cachedReport[T any](ctx context.Context, uc *LedgerQueryUseCase, key string, compute func() (T, error)) (T, error) {
	if uc.cache != nil {
		if data, err := uc.cache.Get(ctx, key); err == nil && data != nil {
			var cached T
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}

	result, err := compute()
	if err != nil {
		return result, err
	}

	if uc.cache != nil {
		data, err := json.Marshal(result)
		if err == nil {
			err = uc.cache.Set(ctx, key, data, uc.cacheTTL)
		}
		if err != nil {
			uc.logger.Warn().Err(err).Str("key", key).Msg("failed to cache report")
		}
	}

	return result, nil
}

func reportPeriod(from, to time.Time) (time.Time, time.Time, error) {
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-defaultReportPeriod)
	}
	if from.After(to) {
		return from, to, domain.ErrInvalidDateRange
	}
	return from.UTC(), to.UTC(), nil
}

// walkProducts visits every product page by page.
func walkProducts(ctx context.Context, repo ProductRepository, includeInactive bool, visit func(*domain.Product) error) error {
	offset := 0
	for {
		products, total, err := repo.List(ctx, domain.ProductFilter{
			IncludeInactive: includeInactive,
			Limit:           reportPageSize,
			Offset:          offset,
		})
		if err != nil {
			return err
		}

		for _, p := range products {
			if err := visit(p); err != nil {
				return err
			}
		}

		offset += len(products)
		if len(products) == 0 || offset >= total {
			return nil
		}
	}
}
