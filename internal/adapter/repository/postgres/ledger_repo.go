package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/infrastructure/postgres/generated"
	"github.com/iho/stockledger/internal/usecase"
)

const ledgerColumns = `id, product_id, sku, product_name, type, quantity, unit_cost, unit_price,
	balance_before, balance_after, reference, source, note, username, user_role, created_at`

// LedgerRepository implements usecase.LedgerRepository.
// The ledger_entries table rejects UPDATE and DELETE.
type LedgerRepository struct {
	db      generated.DBTX
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return newLedgerRepository(pool)
}

func newLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{
		db:      db,
		queries: generated.New(db),
	}
}

// Append inserts an entry within a transaction.
func (r *LedgerRepository) Append(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	return queriesFor(r.db, tx).CreateLedgerEntry(ctx, generated.CreateLedgerEntryParams{
		ID:            entry.ID,
		ProductID:     entry.ProductID,
		Sku:           entry.SKU,
		ProductName:   entry.ProductName,
		Type:          string(entry.Type),
		Quantity:      decimalToNumeric(entry.Quantity),
		UnitCost:      decimalToNumeric(entry.UnitCost),
		UnitPrice:     optionalDecimalToNumeric(entry.UnitPrice),
		BalanceBefore: decimalToNumeric(entry.BalanceBefore),
		BalanceAfter:  decimalToNumeric(entry.BalanceAfter),
		Reference:     entry.Reference,
		Source:        string(entry.Source),
		Note:          entry.Note,
		Username:      entry.Username,
		UserRole:      string(entry.UserRole),
		CreatedAt:     timeToPgTimestamptz(entry.CreatedAt),
	})
}

// LatestByProduct returns the most recent entry of a product.
func (r *LedgerRepository) LatestByProduct(ctx context.Context, tx usecase.Transaction, productID string) (*domain.LedgerEntry, error) {
	row, err := queriesFor(r.db, tx).GetLatestLedgerEntryByProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNoLedgerHistory
		}

		return nil, err
	}

	return rowToLedgerEntry(row), nil
}

// ListByProduct lists every entry of a product in creation order.
func (r *LedgerRepository) ListByProduct(ctx context.Context, productID string) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.ListLedgerEntriesByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	return rowsToLedgerEntries(rows), nil
}

// ListInRange lists entries created in [from, to] in creation order.
func (r *LedgerRepository) ListInRange(ctx context.Context, from, to time.Time) ([]*domain.LedgerEntry, error) {
	rows, err := r.queries.ListLedgerEntriesInRange(ctx, generated.ListLedgerEntriesInRangeParams{
		DateFrom: timeToPgTimestamptz(from),
		DateTo:   timeToPgTimestamptz(to),
	})
	if err != nil {
		return nil, err
	}

	return rowsToLedgerEntries(rows), nil
}

// BestSellers ranks products by units sold in [from, to].
func (r *LedgerRepository) BestSellers(ctx context.Context, from, to time.Time, limit int) ([]domain.SalesRank, error) {
	rows, err := r.queries.ListBestSellers(ctx, generated.ListBestSellersParams{
		DateFrom: timeToPgTimestamptz(from),
		DateTo:   timeToPgTimestamptz(to),
		RowLimit: int32(limit),
	})
	if err != nil {
		return nil, err
	}

	ranks := make([]domain.SalesRank, 0, len(rows))
	for _, row := range rows {
		ranks = append(ranks, domain.SalesRank{
			ProductID: row.ProductID,
			SKU:       row.Sku,
			Name:      row.ProductName,
			UnitsSold: numericToDecimal(row.UnitsSold),
			Revenue:   numericToDecimal(row.Revenue),
		})
	}

	return ranks, nil
}

// List lists a page of entries matching the filter.
func (r *LedgerRepository) List(ctx context.Context, filter domain.LedgerFilter) ([]*domain.LedgerEntry, int, error) {
	where, args := ledgerFilterClause(filter)

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM ledger_entries"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := " ORDER BY created_at DESC, id DESC"
	if filter.Ascending {
		order = " ORDER BY created_at, id"
	}

	query := "SELECT " + ledgerColumns + " FROM ledger_entries" + where + order
	if filter.PageSize > 0 {
		args = append(args, filter.PageSize, max(filter.Offset(), 0))
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}

	entries, err := pgx.CollectRows(rows, scanLedgerEntry)
	if err != nil {
		return nil, 0, err
	}

	return rowsToLedgerEntries(entries), total, nil
}

// ledgerFilterClause builds the WHERE clause for filter. Product name search
// is case-insensitive.
func ledgerFilterClause(filter domain.LedgerFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	add := func(condition string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(condition, len(args)))
	}

	if filter.SKU != "" {
		add("sku = $%d", filter.SKU)
	}
	if filter.ProductID != "" {
		add("product_id = $%d", filter.ProductID)
	}
	if filter.Type != "" {
		add("type = $%d", string(filter.Type))
	}
	if filter.Source != "" {
		add("source = $%d", string(filter.Source))
	}
	if filter.Search != "" {
		add("strpos(lower(product_name), lower($%d)) > 0", filter.Search)
	}
	if filter.DateFrom != nil {
		add("created_at >= $%d", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		add("created_at <= $%d", *filter.DateTo)
	}

	if len(conditions) == 0 {
		return "", nil
	}

	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanLedgerEntry(row pgx.CollectableRow) (generated.LedgerEntry, error) {
	var e generated.LedgerEntry
	err := row.Scan(
		&e.ID,
		&e.ProductID,
		&e.Sku,
		&e.ProductName,
		&e.Type,
		&e.Quantity,
		&e.UnitCost,
		&e.UnitPrice,
		&e.BalanceBefore,
		&e.BalanceAfter,
		&e.Reference,
		&e.Source,
		&e.Note,
		&e.Username,
		&e.UserRole,
		&e.CreatedAt,
	)
	return e, err
}

func rowsToLedgerEntries(rows []generated.LedgerEntry) []*domain.LedgerEntry {
	entries := make([]*domain.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToLedgerEntry(row))
	}

	return entries
}

func rowToLedgerEntry(row generated.LedgerEntry) *domain.LedgerEntry {
	return &domain.LedgerEntry{
		ID:            row.ID,
		ProductID:     row.ProductID,
		SKU:           row.Sku,
		ProductName:   row.ProductName,
		Type:          domain.MovementType(row.Type),
		Quantity:      numericToDecimal(row.Quantity),
		UnitCost:      numericToDecimal(row.UnitCost),
		UnitPrice:     numericToOptionalDecimal(row.UnitPrice),
		BalanceBefore: numericToDecimal(row.BalanceBefore),
		BalanceAfter:  numericToDecimal(row.BalanceAfter),
		Reference:     row.Reference,
		Source:        domain.MovementSource(row.Source),
		Note:          row.Note,
		Username:      row.Username,
		UserRole:      domain.Role(row.UserRole),
		CreatedAt:     row.CreatedAt.Time,
	}
}
