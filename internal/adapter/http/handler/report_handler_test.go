package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/stockledger/internal/adapter/http/dto"
	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

type queryServiceStub struct {
	listFn        func(ctx context.Context, input usecase.ListLedgerInput) (*domain.LedgerPage, error)
	historyFn     func(ctx context.Context, sku string) ([]*domain.LedgerEntry, error)
	turnoverFn    func(ctx context.Context, from, to time.Time) ([]domain.TurnoverRow, error)
	lowStockFn    func(ctx context.Context) ([]*domain.Product, error)
	bestSellersFn func(ctx context.Context, from, to time.Time, limit int) ([]domain.SalesRank, error)
	valuationFn   func(ctx context.Context) (*domain.Valuation, error)
}

func (s *queryServiceStub) ListLedger(ctx context.Context, input usecase.ListLedgerInput) (*domain.LedgerPage, error) {
	return s.listFn(ctx, input)
}

func (s *queryServiceStub) ProductHistory(ctx context.Context, sku string) ([]*domain.LedgerEntry, error) {
	return s.historyFn(ctx, sku)
}

func (s *queryServiceStub) Turnover(ctx context.Context, from, to time.Time) ([]domain.TurnoverRow, error) {
	return s.turnoverFn(ctx, from, to)
}

func (s *queryServiceStub) LowStock(ctx context.Context) ([]*domain.Product, error) {
	return s.lowStockFn(ctx)
}

func (s *queryServiceStub) BestSellers(ctx context.Context, from, to time.Time, limit int) ([]domain.SalesRank, error) {
	return s.bestSellersFn(ctx, from, to, limit)
}

func (s *queryServiceStub) Valuation(ctx context.Context) (*domain.Valuation, error) {
	return s.valuationFn(ctx)
}

func TestLedgerHandler_List(t *testing.T) {
	var captured usecase.ListLedgerInput
	h := NewLedgerHandler(&queryServiceStub{
		listFn: func(ctx context.Context, input usecase.ListLedgerInput) (*domain.LedgerPage, error) {
			captured = input
			items := []*domain.LedgerEntry{entry("e1", "ABC", domain.MovementOut, 1, 5, 4)}
			return domain.NewLedgerPage(items, 21, 2, 20), nil
		},
	})

	target := "/api/v1/ledger?sku=ABC&type=out&source=sale&search=rice&date_from=2024-03-01&date_to=2024-03-31&page=2&page_size=20&order=asc"
	rr := httptest.NewRecorder()
	h.List(rr, newRequest(t, http.MethodGet, target, nil, &staff))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.SKU != "ABC" || captured.Type != "out" || captured.Source != "sale" || captured.Search != "rice" {
		t.Fatalf("unexpected filters %+v", captured)
	}
	if captured.Page != 2 || captured.PageSize != 20 || !captured.Ascending {
		t.Fatalf("unexpected paging %+v", captured)
	}
	if captured.DateTo == nil || captured.DateTo.Day() != 31 || captured.DateTo.Hour() != 23 {
		t.Fatalf("expected inclusive date_to, got %v", captured.DateTo)
	}

	resp := decodeBody[dto.LedgerPageResponse](t, rr)
	if resp.TotalPages != 2 || len(resp.Items) != 1 {
		t.Fatalf("unexpected page %+v", resp)
	}
}

func TestLedgerHandler_ListRejects(t *testing.T) {
	h := NewLedgerHandler(&queryServiceStub{
		listFn: func(ctx context.Context, input usecase.ListLedgerInput) (*domain.LedgerPage, error) {
			return nil, domain.ErrInvalidDateRange
		},
	})

	rr := httptest.NewRecorder()
	h.List(rr, newRequest(t, http.MethodGet, "/api/v1/ledger?date_from=soon", nil, &staff))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.List(rr, newRequest(t, http.MethodGet, "/api/v1/ledger?date_from=2024-03-02&date_to=2024-03-01", nil, &staff))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", rr.Code)
	}
}

func TestLedgerHandler_History(t *testing.T) {
	h := NewLedgerHandler(&queryServiceStub{
		historyFn: func(ctx context.Context, sku string) ([]*domain.LedgerEntry, error) {
			if sku != "ABC" {
				return nil, domain.ErrProductNotFound
			}
			return []*domain.LedgerEntry{
				entry("e1", "ABC", domain.MovementAdjustment, 20, 0, 20),
				entry("e2", "ABC", domain.MovementOut, 3, 20, 17),
			}, nil
		},
	})

	rr := httptest.NewRecorder()
	h.History(rr, newRequest(t, http.MethodGet, "/api/v1/ledger/history/ABC", nil, &staff, "sku", "ABC"))
	if rr.Code != http.StatusOK || len(decodeBody[[]dto.LedgerEntryResponse](t, rr)) != 2 {
		t.Fatalf("expected two entries, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.History(rr, newRequest(t, http.MethodGet, "/api/v1/ledger/history/NOPE", nil, &staff, "sku", "NOPE"))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestReportHandler(t *testing.T) {
	var bestFrom, bestTo time.Time
	var bestLimit int
	h := NewReportHandler(&queryServiceStub{
		turnoverFn: func(ctx context.Context, from, to time.Time) ([]domain.TurnoverRow, error) {
			if !from.IsZero() || !to.IsZero() {
				t.Fatalf("expected zero period for defaults, got %v %v", from, to)
			}
			return []domain.TurnoverRow{{SKU: "ABC", Turnover: decimal.RequireFromString("0.285714")}}, nil
		},
		lowStockFn: func(ctx context.Context) ([]*domain.Product, error) {
			return []*domain.Product{product("p1", "LOW-1", 1)}, nil
		},
		bestSellersFn: func(ctx context.Context, from, to time.Time, limit int) ([]domain.SalesRank, error) {
			bestFrom, bestTo, bestLimit = from, to, limit
			return []domain.SalesRank{{SKU: "RICE-1", UnitsSold: decimal.NewFromInt(5), Revenue: decimal.NewFromInt(50)}}, nil
		},
		valuationFn: func(ctx context.Context) (*domain.Valuation, error) {
			return &domain.Valuation{Products: 3, Units: decimal.NewFromInt(115)}, nil
		},
	})

	rr := httptest.NewRecorder()
	h.Turnover(rr, newRequest(t, http.MethodGet, "/api/v1/reports/turnover", nil, &staff))
	if rr.Code != http.StatusOK {
		t.Fatalf("turnover: expected 200, got %d", rr.Code)
	}
	if rows := decodeBody[[]dto.TurnoverRowResponse](t, rr); rows[0].Turnover.String() != "0.2857" {
		t.Fatalf("expected rounded turnover, got %s", rows[0].Turnover)
	}

	rr = httptest.NewRecorder()
	h.LowStock(rr, newRequest(t, http.MethodGet, "/api/v1/reports/low-stock", nil, &staff))
	if rows := decodeBody[[]dto.LowStockResponse](t, rr); len(rows) != 1 || rows[0].Shortfall.String() != "1" {
		t.Fatalf("unexpected low stock %+v", rows)
	}

	rr = httptest.NewRecorder()
	h.BestSellers(rr, newRequest(t, http.MethodGet, "/api/v1/reports/best-sellers?from=2024-03-01&to=2024-03-31&limit=5", nil, &staff))
	if rr.Code != http.StatusOK || bestLimit != 5 || bestFrom.Day() != 1 || bestTo.Day() != 31 {
		t.Fatalf("unexpected best sellers call %d %v %v %d", rr.Code, bestFrom, bestTo, bestLimit)
	}

	rr = httptest.NewRecorder()
	h.Valuation(rr, newRequest(t, http.MethodGet, "/api/v1/reports/valuation", nil, &staff))
	if v := decodeBody[dto.ValuationResponse](t, rr); v.Products != 3 || v.Units.String() != "115" {
		t.Fatalf("unexpected valuation %+v", v)
	}

	rr = httptest.NewRecorder()
	h.BestSellers(rr, newRequest(t, http.MethodGet, "/api/v1/reports/best-sellers?from=tomorrow", nil, &staff))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad period, got %d", rr.Code)
	}
}
