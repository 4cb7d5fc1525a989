package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/stockledger/internal/adapter/http/dto"
	"github.com/iho/stockledger/internal/usecase"
)

// ReconciliationService defines the behavior needed by ReconciliationHandler.
type ReconciliationService interface {
	ReconcileProductQuantity(ctx context.Context, sku string) (*usecase.ReconciliationResult, error)
	CheckProductQuantity(ctx context.Context, sku string) (*usecase.ReconciliationResult, error)
	VerifyProductLedger(ctx context.Context, sku string) (*usecase.LedgerVerification, error)
	GenerateReport(ctx context.Context, fix bool) (*usecase.ReconciliationReport, error)
}

// ReconciliationHandler exposes ledger checks and projection repair.
type ReconciliationHandler struct {
	reconciliationUC ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconciliationUC ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliationUC: reconciliationUC}
}

// Reconcile sets a product's quantity to its latest ledger balance.
func (h *ReconciliationHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconciliationUC.ReconcileProductQuantity(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		writeDomainError(w, "failed to reconcile product", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(result))
}

// Check compares a product's quantity with its latest ledger balance without
// changing anything.
func (h *ReconciliationHandler) Check(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconciliationUC.CheckProductQuantity(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		writeDomainError(w, "failed to check product", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(result))
}

// Report checks every product, correcting discrepancies when fix=true.
func (h *ReconciliationHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciliationUC.GenerateReport(r.Context(), parseBoolQuery(r, "fix"))
	if err != nil {
		writeDomainError(w, "failed to generate reconciliation report", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationReportFromUseCase(report))
}

// Verify replays a product's full ledger.
func (h *ReconciliationHandler) Verify(w http.ResponseWriter, r *http.Request) {
	verification, err := h.reconciliationUC.VerifyProductLedger(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		writeDomainError(w, "failed to verify ledger", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.VerificationFromUseCase(verification))
}
