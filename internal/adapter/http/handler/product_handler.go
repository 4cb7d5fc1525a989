package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/stockledger/internal/adapter/http/dto"
	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

// ProductService defines the behavior needed by ProductHandler.
type ProductService interface {
	CreateProduct(ctx context.Context, input usecase.CreateProductInput, actor domain.Actor) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, input usecase.UpdateProductInput, actor domain.Actor) (*domain.Product, error)
	DeactivateProduct(ctx context.Context, id string, actor domain.Actor) (*domain.LedgerEntry, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error)
	ListProducts(ctx context.Context, input usecase.ListProductsInput) ([]*domain.Product, int, error)
}

// ProductHandler handles catalog requests.
type ProductHandler struct {
	productUC ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productUC ProductService) *ProductHandler {
	return &ProductHandler{productUC: productUC}
}

// Create creates a product and records its opening stock.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.CreateProductRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	product, err := h.productUC.CreateProduct(r.Context(), req.ToUseCaseInput(), actor)
	writeProduct(w, http.StatusCreated, product, err, "failed to create product")
}

// Get retrieves a product by ID.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.productUC.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get product", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ProductFromDomain(product))
}

// GetBySKU retrieves a product by SKU.
func (h *ProductHandler) GetBySKU(w http.ResponseWriter, r *http.Request) {
	product, err := h.productUC.GetProductBySKU(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		writeDomainError(w, "failed to get product", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ProductFromDomain(product))
}

// List lists products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	input := usecase.ListProductsInput{
		Search:          query.Get("search"),
		Category:        domain.Category(query.Get("category")),
		IncludeInactive: parseBoolQuery(r, "include_inactive"),
		Limit:           parseIntQuery(r, "limit", 20),
		Offset:          parseIntQuery(r, "offset", 0),
	}

	products, total, err := h.productUC.ListProducts(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to list products", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListProductsResponse{
		Products: dto.ProductsFromDomain(products),
		Total:    total,
		Limit:    input.Limit,
		Offset:   input.Offset,
	})
}

// Update changes product attributes. A changed quantity is recorded as an
// adjustment.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.UpdateProductRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	product, err := h.productUC.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req.ToUseCaseInput(), actor)
	writeProduct(w, http.StatusOK, product, err, "failed to update product")
}

// Deactivate retires a product, leaving its history in place.
func (h *ProductHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	entry, err := h.productUC.DeactivateProduct(r.Context(), chi.URLParam(r, "id"), actor)

	var entries []*domain.LedgerEntry
	if entry != nil {
		entries = append(entries, entry)
	}
	if err == nil {
		writeJSON(w, http.StatusOK, dto.MovementResponse{Entries: dto.LedgerEntriesFromDomain(entries)})
		return
	}
	writeEntries(w, entries, err, "failed to deactivate product")
}

func writeProduct(w http.ResponseWriter, status int, product *domain.Product, err error, message string) {
	var stale *domain.ProjectionStaleError
	switch {
	case err == nil:
		writeJSON(w, status, dto.ProductFromDomain(product))
	case product != nil && errors.As(err, &stale):
		w.Header().Set("Warning", `199 - "product quantity pending reconciliation"`)
		writeJSON(w, http.StatusAccepted, dto.ProductFromDomain(product))
	default:
		writeDomainError(w, message, err)
	}
}
