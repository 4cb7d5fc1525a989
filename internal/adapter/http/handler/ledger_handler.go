package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/stockledger/internal/adapter/http/dto"
	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

// LedgerQueryService defines the read side used by LedgerHandler and
// ReportHandler.
type LedgerQueryService interface {
	ListLedger(ctx context.Context, input usecase.ListLedgerInput) (*domain.LedgerPage, error)
	ProductHistory(ctx context.Context, sku string) ([]*domain.LedgerEntry, error)
	Turnover(ctx context.Context, from, to time.Time) ([]domain.TurnoverRow, error)
	LowStock(ctx context.Context) ([]*domain.Product, error)
	BestSellers(ctx context.Context, from, to time.Time, limit int) ([]domain.SalesRank, error)
	Valuation(ctx context.Context) (*domain.Valuation, error)
}

// LedgerHandler serves ledger browsing.
type LedgerHandler struct {
	queryUC LedgerQueryService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(queryUC LedgerQueryService) *LedgerHandler {
	return &LedgerHandler{queryUC: queryUC}
}

// List returns one page of ledger entries.
func (h *LedgerHandler) List(w http.ResponseWriter, r *http.Request) {
	dateFrom, err := parseTimeQuery(r, "date_from", false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date_from", err.Error())
		return
	}
	dateTo, err := parseTimeQuery(r, "date_to", true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date_to", err.Error())
		return
	}

	query := r.URL.Query()
	page, err := h.queryUC.ListLedger(r.Context(), usecase.ListLedgerInput{
		SKU:       query.Get("sku"),
		Type:      query.Get("type"),
		Source:    query.Get("source"),
		Search:    query.Get("search"),
		DateFrom:  dateFrom,
		DateTo:    dateTo,
		Page:      parseIntQuery(r, "page", 1),
		PageSize:  parseIntQuery(r, "page_size", 0),
		Ascending: query.Get("order") == "asc",
	})
	if err != nil {
		writeDomainError(w, "failed to list ledger", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerPageFromDomain(page))
}

// History returns the full history of one SKU, oldest first.
func (h *LedgerHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.queryUC.ProductHistory(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		writeDomainError(w, "failed to get product history", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerEntriesFromDomain(entries))
}
