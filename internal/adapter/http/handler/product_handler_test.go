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

type productServiceStub struct {
	createFn     func(ctx context.Context, input usecase.CreateProductInput, actor domain.Actor) (*domain.Product, error)
	updateFn     func(ctx context.Context, id string, input usecase.UpdateProductInput, actor domain.Actor) (*domain.Product, error)
	deactivateFn func(ctx context.Context, id string, actor domain.Actor) (*domain.LedgerEntry, error)
	getFn        func(ctx context.Context, id string) (*domain.Product, error)
	getBySKUFn   func(ctx context.Context, sku string) (*domain.Product, error)
	listFn       func(ctx context.Context, input usecase.ListProductsInput) ([]*domain.Product, int, error)
}

func (s *productServiceStub) CreateProduct(ctx context.Context, input usecase.CreateProductInput, actor domain.Actor) (*domain.Product, error) {
	return s.createFn(ctx, input, actor)
}

func (s *productServiceStub) UpdateProduct(ctx context.Context, id string, input usecase.UpdateProductInput, actor domain.Actor) (*domain.Product, error) {
	return s.updateFn(ctx, id, input, actor)
}

func (s *productServiceStub) DeactivateProduct(ctx context.Context, id string, actor domain.Actor) (*domain.LedgerEntry, error) {
	return s.deactivateFn(ctx, id, actor)
}

func (s *productServiceStub) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.getFn(ctx, id)
}

func (s *productServiceStub) GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	return s.getBySKUFn(ctx, sku)
}

func (s *productServiceStub) ListProducts(ctx context.Context, input usecase.ListProductsInput) ([]*domain.Product, int, error) {
	return s.listFn(ctx, input)
}

func product(id, sku string, qty int64) *domain.Product {
	now := time.Now()
	return &domain.Product{
		ID:          id,
		SKU:         sku,
		Name:        "Product " + sku,
		Category:    domain.CategoryGeneral,
		Price:       decimal.NewFromInt(10),
		Cost:        decimal.NewFromInt(6),
		GSTPercent:  domain.DefaultGSTPercent,
		Quantity:    decimal.NewFromInt(qty),
		MinQuantity: decimal.NewFromInt(2),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestProductHandler_Create(t *testing.T) {
	tests := []struct {
		name       string
		result     *domain.Product
		err        error
		wantStatus int
	}{
		{"created", product("p1", "ABC", 20), nil, http.StatusCreated},
		{"duplicate sku", nil, domain.ErrDuplicateSKU, http.StatusConflict},
		{"opening balance pending", product("p1", "ABC", 0), &domain.ProjectionStaleError{
			Entry: &domain.LedgerEntry{SKU: "ABC"}, Err: errors.New("update failed"),
		}, http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured usecase.CreateProductInput
			h := NewProductHandler(&productServiceStub{
				createFn: func(ctx context.Context, input usecase.CreateProductInput, actor domain.Actor) (*domain.Product, error) {
					captured = input
					return tt.result, tt.err
				},
			})

			body := `{"sku":"ABC","name":"Rice","category":"grocery","price":"10","cost":"6","quantity":"20","min_quantity":"2"}`
			rr := httptest.NewRecorder()
			h.Create(rr, newRequest(t, http.MethodPost, "/api/v1/products", body, &manager))

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
			if captured.Category != domain.CategoryGrocery || !captured.Quantity.Equal(decimal.NewFromInt(20)) {
				t.Fatalf("unexpected use case input %+v", captured)
			}
		})
	}
}

func TestProductHandler_Get(t *testing.T) {
	h := NewProductHandler(&productServiceStub{
		getFn: func(ctx context.Context, id string) (*domain.Product, error) {
			if id != "p1" {
				return nil, domain.ErrProductNotFound
			}
			return product("p1", "ABC", 1), nil
		},
		getBySKUFn: func(ctx context.Context, sku string) (*domain.Product, error) {
			return product("p1", sku, 1), nil
		},
	})

	rr := httptest.NewRecorder()
	h.Get(rr, newRequest(t, http.MethodGet, "/api/v1/products/p1", nil, nil, "id", "p1"))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	resp := decodeBody[dto.ProductResponse](t, rr)
	if resp.SKU != "ABC" || !resp.LowStock {
		t.Fatalf("unexpected product %+v", resp)
	}

	rr = httptest.NewRecorder()
	h.Get(rr, newRequest(t, http.MethodGet, "/api/v1/products/p2", nil, nil, "id", "p2"))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.GetBySKU(rr, newRequest(t, http.MethodGet, "/api/v1/products/sku/XYZ", nil, nil, "sku", "XYZ"))
	if rr.Code != http.StatusOK || decodeBody[dto.ProductResponse](t, rr).SKU != "XYZ" {
		t.Fatalf("expected product by sku, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestProductHandler_List(t *testing.T) {
	var captured usecase.ListProductsInput
	h := NewProductHandler(&productServiceStub{
		listFn: func(ctx context.Context, input usecase.ListProductsInput) ([]*domain.Product, int, error) {
			captured = input
			return []*domain.Product{product("p1", "ABC", 5)}, 7, nil
		},
	})

	rr := httptest.NewRecorder()
	h.List(rr, newRequest(t, http.MethodGet, "/api/v1/products?search=rice&category=grocery&include_inactive=true&limit=1&offset=3", nil, nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if captured.Search != "rice" || captured.Category != domain.CategoryGrocery || !captured.IncludeInactive || captured.Limit != 1 || captured.Offset != 3 {
		t.Fatalf("unexpected list input %+v", captured)
	}
	resp := decodeBody[dto.ListProductsResponse](t, rr)
	if resp.Total != 7 || len(resp.Products) != 1 {
		t.Fatalf("unexpected list response %+v", resp)
	}
}

func TestProductHandler_Update(t *testing.T) {
	h := NewProductHandler(&productServiceStub{
		updateFn: func(ctx context.Context, id string, input usecase.UpdateProductInput, actor domain.Actor) (*domain.Product, error) {
			if id != "p1" || input.Name == nil || *input.Name != "Basmati" || input.Quantity != nil {
				t.Fatalf("unexpected update %s %+v", id, input)
			}
			if actor != manager {
				t.Fatalf("expected manager actor, got %+v", actor)
			}
			p := product("p1", "ABC", 5)
			p.Name = *input.Name
			return p, nil
		},
	})

	rr := httptest.NewRecorder()
	h.Update(rr, newRequest(t, http.MethodPatch, "/api/v1/products/p1", `{"name":"Basmati"}`, &manager, "id", "p1"))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if decodeBody[dto.ProductResponse](t, rr).Name != "Basmati" {
		t.Fatalf("expected updated name")
	}
}

func TestProductHandler_Deactivate(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"deactivated", nil, http.StatusOK},
		{"already inactive", domain.ErrProductInactive, http.StatusConflict},
		{"staff rejected", domain.ErrInsufficientRole, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewProductHandler(&productServiceStub{
				deactivateFn: func(ctx context.Context, id string, actor domain.Actor) (*domain.LedgerEntry, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return entry("e1", "ABC", domain.MovementAdjustment, 12, 12, 12), nil
				},
			})

			rr := httptest.NewRecorder()
			h.Deactivate(rr, newRequest(t, http.MethodDelete, "/api/v1/products/p1", nil, &manager, "id", "p1"))

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
		})
	}
}
