package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/stockledger/internal/adapter/http/dto"
	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

type inventoryServiceStub struct {
	checkoutFn func(ctx context.Context, input usecase.CheckoutInput) ([]*domain.LedgerEntry, error)
	purchaseFn func(ctx context.Context, input usecase.PurchaseInput) ([]*domain.LedgerEntry, error)
	countFn    func(ctx context.Context, input usecase.StockCountInput) ([]*domain.LedgerEntry, error)
	movementFn func(ctx context.Context, req usecase.MovementRequest) (*domain.LedgerEntry, error)
}

func (s *inventoryServiceStub) Checkout(ctx context.Context, input usecase.CheckoutInput) ([]*domain.LedgerEntry, error) {
	return s.checkoutFn(ctx, input)
}

func (s *inventoryServiceStub) ReceivePurchase(ctx context.Context, input usecase.PurchaseInput) ([]*domain.LedgerEntry, error) {
	return s.purchaseFn(ctx, input)
}

func (s *inventoryServiceStub) CountStock(ctx context.Context, input usecase.StockCountInput) ([]*domain.LedgerEntry, error) {
	return s.countFn(ctx, input)
}

func (s *inventoryServiceStub) RecordMovement(ctx context.Context, req usecase.MovementRequest) (*domain.LedgerEntry, error) {
	return s.movementFn(ctx, req)
}

func entry(id, sku string, t domain.MovementType, qty, before, after int64) *domain.LedgerEntry {
	return &domain.LedgerEntry{
		ID:            id,
		ProductID:     "prod-" + sku,
		SKU:           sku,
		Type:          t,
		Quantity:      decimal.NewFromInt(qty),
		BalanceBefore: decimal.NewFromInt(before),
		BalanceAfter:  decimal.NewFromInt(after),
		CreatedAt:     time.Now(),
	}
}

func TestInventoryHandler_Sale_Success(t *testing.T) {
	var captured usecase.CheckoutInput
	h := NewInventoryHandler(&inventoryServiceStub{
		checkoutFn: func(ctx context.Context, input usecase.CheckoutInput) ([]*domain.LedgerEntry, error) {
			captured = input
			return []*domain.LedgerEntry{
				entry("e1", "RICE-1", domain.MovementOut, 2, 10, 8),
				entry("e2", "RICE-1", domain.MovementOut, 3, 8, 5),
			}, nil
		},
	})

	body := `{"invoice_number":"INV-1","client":"Alice","lines":[{"product_id":"p1","quantity":"2"},{"product_id":"p1","quantity":3}]}`
	rr := httptest.NewRecorder()
	h.Sale(rr, newRequest(t, http.MethodPost, "/api/v1/sales", body, &staff))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if captured.Actor != staff || captured.InvoiceNumber != "INV-1" || len(captured.Lines) != 2 {
		t.Fatalf("unexpected use case input %+v", captured)
	}
	if !captured.Lines[1].Quantity.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("expected numeric quantity to decode, got %s", captured.Lines[1].Quantity)
	}

	resp := decodeBody[dto.MovementResponse](t, rr)
	if len(resp.Entries) != 2 || resp.Entries[1].BalanceAfter.String() != "5" || resp.Warning != "" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestInventoryHandler_Sale_Errors(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		actor       *domain.Actor
		entries     []*domain.LedgerEntry
		err         error
		wantStatus  int
		wantApplied int
	}{
		{
			name:       "no actor",
			body:       `{"lines":[{"product_id":"p1","quantity":"1"}]}`,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed json",
			body:       `{"lines":`,
			actor:      &staff,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "no lines",
			body:       `{"invoice_number":"INV-1","lines":[]}`,
			actor:      &staff,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:  "insufficient stock",
			body:  `{"lines":[{"product_id":"p1","quantity":"5"}]}`,
			actor: &staff,
			err: &domain.InsufficientStockError{
				SKU: "RICE-1", Requested: decimal.NewFromInt(5), Available: decimal.NewFromInt(4),
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:        "failure after first line",
			body:        `{"lines":[{"product_id":"p1","quantity":"1"},{"product_id":"p2","quantity":"1"}]}`,
			actor:       &staff,
			entries:     []*domain.LedgerEntry{entry("e1", "RICE-1", domain.MovementOut, 1, 10, 9)},
			err:         errors.New("connection reset"),
			wantStatus:  http.StatusInternalServerError,
			wantApplied: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewInventoryHandler(&inventoryServiceStub{
				checkoutFn: func(ctx context.Context, input usecase.CheckoutInput) ([]*domain.LedgerEntry, error) {
					return tt.entries, tt.err
				},
			})

			rr := httptest.NewRecorder()
			h.Sale(rr, newRequest(t, http.MethodPost, "/api/v1/sales", tt.body, tt.actor))

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}

			resp := decodeBody[dto.ErrorResponse](t, rr)
			if len(resp.Applied) != tt.wantApplied {
				t.Fatalf("expected %d applied entries, got %d", tt.wantApplied, len(resp.Applied))
			}
		})
	}
}

func TestInventoryHandler_Movement_StaleProjection(t *testing.T) {
	written := entry("e1", "ABC", domain.MovementIn, 5, 10, 15)
	h := NewInventoryHandler(&inventoryServiceStub{
		movementFn: func(ctx context.Context, req usecase.MovementRequest) (*domain.LedgerEntry, error) {
			if req.Type != domain.MovementIn || req.Actor != manager {
				t.Fatalf("unexpected movement request %+v", req)
			}
			return written, &domain.ProjectionStaleError{Entry: written, Err: errors.New("update failed")}
		},
	})

	body := `{"product_id":"prod-ABC","type":"in","quantity":"5"}`
	rr := httptest.NewRecorder()
	h.Movement(rr, newRequest(t, http.MethodPost, "/api/v1/movements", body, &manager))

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rr.Code, rr.Body.String())
	}

	resp := decodeBody[dto.MovementResponse](t, rr)
	if len(resp.Entries) != 1 || resp.Entries[0].ID != "e1" || resp.Warning == "" {
		t.Fatalf("expected the written entry with a warning, got %+v", resp)
	}
}

func TestInventoryHandler_Movement_ValidationFields(t *testing.T) {
	h := NewInventoryHandler(&inventoryServiceStub{})

	rr := httptest.NewRecorder()
	h.Movement(rr, newRequest(t, http.MethodPost, "/api/v1/movements", `{"product_id":"p1","type":"MOVE"}`, &manager))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	resp := decodeBody[dto.ErrorResponse](t, rr)
	fields := map[string]bool{}
	for _, f := range resp.Fields {
		fields[f.Field] = true
	}
	if !fields["type"] || !fields["quantity"] {
		t.Fatalf("expected type and quantity field errors, got %+v", resp.Fields)
	}
}

func TestInventoryHandler_PurchaseAndCount(t *testing.T) {
	h := NewInventoryHandler(&inventoryServiceStub{
		purchaseFn: func(ctx context.Context, input usecase.PurchaseInput) ([]*domain.LedgerEntry, error) {
			if input.Supplier != "Acme" || input.Lines[0].UnitCost == nil {
				t.Fatalf("unexpected purchase input %+v", input)
			}
			return []*domain.LedgerEntry{entry("e1", "ABC", domain.MovementIn, 2, 10, 12)}, nil
		},
		countFn: func(ctx context.Context, input usecase.StockCountInput) ([]*domain.LedgerEntry, error) {
			if input.Counts[0].SKU != "ABC" || !input.Counts[0].Counted.Equal(decimal.NewFromInt(7)) {
				t.Fatalf("unexpected count input %+v", input)
			}
			return []*domain.LedgerEntry{entry("e2", "ABC", domain.MovementAdjustment, 7, 12, 7)}, nil
		},
	})

	rr := httptest.NewRecorder()
	h.Purchase(rr, newRequest(t, http.MethodPost, "/api/v1/purchases",
		`{"reference":"PO-1","supplier":"Acme","lines":[{"product_id":"p1","quantity":"2","unit_cost":"6"}]}`, &manager))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected purchase 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.StockCount(rr, newRequest(t, http.MethodPost, "/api/v1/stock-counts",
		`{"reference":"COUNT-1","counts":[{"sku":"ABC","counted":"7"}]}`, &staff))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected count 201, got %d: %s", rr.Code, rr.Body.String())
	}
}
