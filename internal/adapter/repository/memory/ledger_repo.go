package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
// Stored entries are never modified.
type LedgerRepository struct {
	store *Store
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(store *Store) *LedgerRepository {
	return &LedgerRepository{store: store}
}

// Append appends an entry when tx commits.
func (r *LedgerRepository) Append(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	memTx, err := asTx(tx)
	if err != nil {
		return err
	}

	stored := copyEntry(entry)
	op := func(s *Store) {
		s.entries = append(s.entries, stored)
	}

	if memTx == nil {
		r.store.apply([]func(*Store){op})
		return nil
	}

	return memTx.record(op)
}

// LatestByProduct returns the most recent committed entry of a product.
func (r *LedgerRepository) LatestByProduct(ctx context.Context, tx usecase.Transaction, productID string) (*domain.LedgerEntry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var latest *domain.LedgerEntry
	for _, e := range r.store.entries {
		if e.ProductID == productID && (latest == nil || entryBefore(latest, e)) {
			latest = e
		}
	}

	if latest == nil {
		return nil, domain.ErrNoLedgerHistory
	}

	return copyEntry(latest), nil
}

// ListByProduct lists every entry of a product in creation order.
func (r *LedgerRepository) ListByProduct(ctx context.Context, productID string) ([]*domain.LedgerEntry, error) {
	return r.collect(func(e *domain.LedgerEntry) bool {
		return e.ProductID == productID
	}, true), nil
}

// List lists a page of entries matching the filter.
func (r *LedgerRepository) List(ctx context.Context, filter domain.LedgerFilter) ([]*domain.LedgerEntry, int, error) {
	matched := r.collect(filter.Matches, filter.Ascending)
	total := len(matched)

	start := min(max(filter.Offset(), 0), total)
	end := total
	if filter.PageSize > 0 {
		end = min(start+filter.PageSize, total)
	}

	return matched[start:end], total, nil
}

// ListInRange lists entries created in [from, to] in creation order.
func (r *LedgerRepository) ListInRange(ctx context.Context, from, to time.Time) ([]*domain.LedgerEntry, error) {
	return r.collect(func(e *domain.LedgerEntry) bool {
		return !e.CreatedAt.Before(from) && !e.CreatedAt.After(to)
	}, true), nil
}

// BestSellers ranks products by units sold in [from, to].
func (r *LedgerRepository) BestSellers(ctx context.Context, from, to time.Time, limit int) ([]domain.SalesRank, error) {
	sales := r.collect(func(e *domain.LedgerEntry) bool {
		return e.Type == domain.MovementOut && e.Source == domain.SourceSale &&
			!e.CreatedAt.Before(from) && !e.CreatedAt.After(to)
	}, true)

	byProduct := make(map[string]*domain.SalesRank)
	for _, e := range sales {
		rank, ok := byProduct[e.ProductID]
		if !ok {
			rank = &domain.SalesRank{ProductID: e.ProductID, UnitsSold: decimal.Zero, Revenue: decimal.Zero}
			byProduct[e.ProductID] = rank
		}

		rank.SKU = e.SKU
		rank.Name = e.ProductName
		rank.UnitsSold = rank.UnitsSold.Add(e.Quantity)
		if e.UnitPrice != nil {
			rank.Revenue = rank.Revenue.Add(e.Quantity.Mul(*e.UnitPrice))
		}
	}

	ranks := make([]domain.SalesRank, 0, len(byProduct))
	for _, rank := range byProduct {
		ranks = append(ranks, *rank)
	}

	sort.Slice(ranks, func(i, j int) bool {
		if !ranks[i].UnitsSold.Equal(ranks[j].UnitsSold) {
			return ranks[i].UnitsSold.GreaterThan(ranks[j].UnitsSold)
		}
		return ranks[i].SKU < ranks[j].SKU
	})

	if limit > 0 && len(ranks) > limit {
		ranks = ranks[:limit]
	}

	return ranks, nil
}

func (r *LedgerRepository) collect(match func(*domain.LedgerEntry) bool, ascending bool) []*domain.LedgerEntry {
	r.store.mu.RLock()
	matched := make([]*domain.LedgerEntry, 0)
	for _, e := range r.store.entries {
		if match(e) {
			matched = append(matched, copyEntry(e))
		}
	}
	r.store.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if ascending {
			return entryBefore(matched[i], matched[j])
		}
		return entryBefore(matched[j], matched[i])
	})

	return matched
}

// entryBefore orders entries by (created_at, id).
func entryBefore(a, b *domain.LedgerEntry) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
