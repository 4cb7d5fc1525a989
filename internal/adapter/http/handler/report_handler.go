package handler

import (
	"net/http"

	"github.com/iho/stockledger/internal/adapter/http/dto"
)

// ReportHandler serves inventory reports.
type ReportHandler struct {
	queryUC LedgerQueryService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(queryUC LedgerQueryService) *ReportHandler {
	return &ReportHandler{queryUC: queryUC}
}

// Turnover estimates stock turnover per product.
func (h *ReportHandler) Turnover(w http.ResponseWriter, r *http.Request) {
	from, to, err := parsePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period", err.Error())
		return
	}

	rows, err := h.queryUC.Turnover(r.Context(), from, to)
	if err != nil {
		writeDomainError(w, "failed to compute turnover", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TurnoverFromDomain(rows))
}

// LowStock lists products at or below their reorder threshold.
func (h *ReportHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.queryUC.LowStock(r.Context())
	if err != nil {
		writeDomainError(w, "failed to list low stock", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LowStockFromDomain(products))
}

// BestSellers ranks products by units sold.
func (h *ReportHandler) BestSellers(w http.ResponseWriter, r *http.Request) {
	from, to, err := parsePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period", err.Error())
		return
	}

	ranks, err := h.queryUC.BestSellers(r.Context(), from, to, parseIntQuery(r, "limit", 0))
	if err != nil {
		writeDomainError(w, "failed to rank best sellers", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SalesRanksFromDomain(ranks))
}

// Valuation sums stock value at cost and at retail.
func (h *ReportHandler) Valuation(w http.ResponseWriter, r *http.Request) {
	valuation, err := h.queryUC.Valuation(r.Context())
	if err != nil {
		writeDomainError(w, "failed to compute valuation", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ValuationFromDomain(valuation))
}
