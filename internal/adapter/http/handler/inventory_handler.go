package handler

import (
	"context"
	"net/http"

	"github.com/iho/stockledger/internal/adapter/http/dto"
	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

// InventoryService defines the behavior needed by InventoryHandler.
type InventoryService interface {
	Checkout(ctx context.Context, input usecase.CheckoutInput) ([]*domain.LedgerEntry, error)
	ReceivePurchase(ctx context.Context, input usecase.PurchaseInput) ([]*domain.LedgerEntry, error)
	CountStock(ctx context.Context, input usecase.StockCountInput) ([]*domain.LedgerEntry, error)
	RecordMovement(ctx context.Context, req usecase.MovementRequest) (*domain.LedgerEntry, error)
}

// InventoryHandler handles requests that move stock.
type InventoryHandler struct {
	inventoryUC InventoryService
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(inventoryUC InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryUC: inventoryUC}
}

// Movement records a single manual movement.
func (h *InventoryHandler) Movement(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.MovementRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	entry, err := h.inventoryUC.RecordMovement(r.Context(), req.ToUseCaseInput(actor))

	var entries []*domain.LedgerEntry
	if entry != nil {
		entries = append(entries, entry)
	}
	writeEntries(w, entries, err, "failed to record movement")
}

// Sale checks out a sale.
func (h *InventoryHandler) Sale(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.SaleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	entries, err := h.inventoryUC.Checkout(r.Context(), req.ToUseCaseInput(actor))
	writeEntries(w, entries, err, "failed to record sale")
}

// Purchase receives goods from a supplier.
func (h *InventoryHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.PurchaseRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	entries, err := h.inventoryUC.ReceivePurchase(r.Context(), req.ToUseCaseInput(actor))
	writeEntries(w, entries, err, "failed to record purchase")
}

// StockCount records a physical inventory count.
func (h *InventoryHandler) StockCount(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.StockCountRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	entries, err := h.inventoryUC.CountStock(r.Context(), req.ToUseCaseInput(actor))
	writeEntries(w, entries, err, "failed to record stock count")
}
