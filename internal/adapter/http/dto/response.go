package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string       `json:"error"`
	Message string       `json:"message,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
	// Applied lists entries written before a multi-line request failed.
	Applied []*LedgerEntryResponse `json:"applied,omitempty"`
}

// ProductResponse represents a product in API responses.
type ProductResponse struct {
	ID          string          `json:"id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	GSTPercent  decimal.Decimal `json:"gst_percent"`
	Quantity    decimal.Decimal `json:"quantity"`
	MinQuantity decimal.Decimal `json:"min_quantity"`
	Location    string          `json:"location,omitempty"`
	IsActive    bool            `json:"is_active"`
	LowStock    bool            `json:"low_stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductFromDomain converts a domain product to a response.
func ProductFromDomain(p *domain.Product) *ProductResponse {
	return &ProductResponse{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Category:    string(p.Category),
		Price:       p.Price,
		Cost:        p.Cost,
		GSTPercent:  p.GSTPercent,
		Quantity:    p.Quantity,
		MinQuantity: p.MinQuantity,
		Location:    p.Location,
		IsActive:    p.IsActive,
		LowStock:    p.IsLowStock(),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ProductsFromDomain converts domain products to responses.
func ProductsFromDomain(products []*domain.Product) []*ProductResponse {
	result := make([]*ProductResponse, len(products))
	for i, p := range products {
		result[i] = ProductFromDomain(p)
	}
	return result
}

// ListProductsResponse represents a page of products.
type ListProductsResponse struct {
	Products []*ProductResponse `json:"products"`
	Total    int                `json:"total"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}

// LedgerEntryResponse represents a ledger entry in API responses.
type LedgerEntryResponse struct {
	ID            string           `json:"id"`
	ProductID     string           `json:"product_id"`
	SKU           string           `json:"sku"`
	ProductName   string           `json:"product_name"`
	Type          string           `json:"type"`
	Quantity      decimal.Decimal  `json:"quantity"`
	UnitCost      decimal.Decimal  `json:"unit_cost"`
	UnitPrice     *decimal.Decimal `json:"unit_price,omitempty"`
	BalanceBefore decimal.Decimal  `json:"balance_before"`
	BalanceAfter  decimal.Decimal  `json:"balance_after"`
	Reference     string           `json:"reference,omitempty"`
	Source        string           `json:"source"`
	Note          string           `json:"note,omitempty"`
	Username      string           `json:"username"`
	UserRole      string           `json:"user_role"`
	CreatedAt     time.Time        `json:"created_at"`
}

// LedgerEntryFromDomain converts a domain ledger entry to a response.
func LedgerEntryFromDomain(e *domain.LedgerEntry) *LedgerEntryResponse {
	return &LedgerEntryResponse{
		ID:            e.ID,
		ProductID:     e.ProductID,
		SKU:           e.SKU,
		ProductName:   e.ProductName,
		Type:          string(e.Type),
		Quantity:      e.Quantity,
		UnitCost:      e.UnitCost,
		UnitPrice:     e.UnitPrice,
		BalanceBefore: e.BalanceBefore,
		BalanceAfter:  e.BalanceAfter,
		Reference:     e.Reference,
		Source:        string(e.Source),
		Note:          e.Note,
		Username:      e.Username,
		UserRole:      string(e.UserRole),
		CreatedAt:     e.CreatedAt,
	}
}

// LedgerEntriesFromDomain converts domain ledger entries to responses.
func LedgerEntriesFromDomain(entries []*domain.LedgerEntry) []*LedgerEntryResponse {
	result := make([]*LedgerEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = LedgerEntryFromDomain(e)
	}
	return result
}

// MovementResponse wraps the entries written by a request. Warning is set
// when the entries are final but a product quantity could not be updated.
type MovementResponse struct {
	Entries []*LedgerEntryResponse `json:"entries"`
	Warning string                 `json:"warning,omitempty"`
}

// LedgerPageResponse represents one page of the ledger.
type LedgerPageResponse struct {
	Items      []*LedgerEntryResponse `json:"items"`
	Total      int                    `json:"total"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"page_size"`
	TotalPages int                    `json:"total_pages"`
}

// LedgerPageFromDomain converts a ledger page to a response.
func LedgerPageFromDomain(p *domain.LedgerPage) *LedgerPageResponse {
	return &LedgerPageResponse{
		Items:      LedgerEntriesFromDomain(p.Items),
		Total:      p.Total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: p.TotalPages,
	}
}

// ReconciliationResponse represents one product reconciliation.
type ReconciliationResponse struct {
	ProductID     string          `json:"product_id"`
	SKU           string          `json:"sku"`
	Recorded      decimal.Decimal `json:"recorded"`
	LedgerBalance decimal.Decimal `json:"ledger_balance"`
	Difference    decimal.Decimal `json:"difference"`
	LastEntryID   string          `json:"last_entry_id,omitempty"`
	HasHistory    bool            `json:"has_history"`
	IsReconciled  bool            `json:"is_reconciled"`
	Corrected     bool            `json:"corrected"`
	CheckedAt     time.Time       `json:"checked_at"`
}

// ReconciliationFromUseCase converts a reconciliation result to a response.
func ReconciliationFromUseCase(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		ProductID:     r.ProductID,
		SKU:           r.SKU,
		Recorded:      r.Recorded,
		LedgerBalance: r.LedgerBalance,
		Difference:    r.Difference,
		LastEntryID:   r.LastEntryID,
		HasHistory:    r.HasHistory,
		IsReconciled:  r.IsReconciled,
		Corrected:     r.Corrected,
		CheckedAt:     r.CheckedAt,
	}
}

// ReconciliationReportResponse represents a catalog-wide reconciliation.
type ReconciliationReportResponse struct {
	TotalProducts      int                       `json:"total_products"`
	ReconciledProducts int                       `json:"reconciled_products"`
	CorrectedProducts  int                       `json:"corrected_products"`
	Discrepancies      []*ReconciliationResponse `json:"discrepancies"`
	CheckedAt          time.Time                 `json:"checked_at"`
}

// ReconciliationReportFromUseCase converts a reconciliation report to a response.
func ReconciliationReportFromUseCase(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	discrepancies := make([]*ReconciliationResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		discrepancies[i] = ReconciliationFromUseCase(d)
	}
	return &ReconciliationReportResponse{
		TotalProducts:      r.TotalProducts,
		ReconciledProducts: r.ReconciledProducts,
		CorrectedProducts:  r.CorrectedProducts,
		Discrepancies:      discrepancies,
		CheckedAt:          r.CheckedAt,
	}
}

// VerificationResponse represents a full ledger replay of one product.
type VerificationResponse struct {
	ProductID         string                 `json:"product_id"`
	SKU               string                 `json:"sku"`
	Entries           int                    `json:"entries"`
	ReplayedBalance   decimal.Decimal        `json:"replayed_balance"`
	RecordedQuantity  decimal.Decimal        `json:"recorded_quantity"`
	ProjectionMatches bool                   `json:"projection_matches"`
	Consistent        bool                   `json:"consistent"`
	BrokenEntries     []*LedgerEntryResponse `json:"broken_entries"`
}

// VerificationFromUseCase converts a ledger verification to a response.
func VerificationFromUseCase(v *usecase.LedgerVerification) *VerificationResponse {
	return &VerificationResponse{
		ProductID:         v.ProductID,
		SKU:               v.SKU,
		Entries:           v.Entries,
		ReplayedBalance:   v.ReplayedBalance,
		RecordedQuantity:  v.RecordedQuantity,
		ProjectionMatches: v.ProjectionMatches,
		Consistent:        v.Consistent(),
		BrokenEntries:     LedgerEntriesFromDomain(v.BrokenEntries),
	}
}

// TurnoverRowResponse is the turnover estimate of one product.
type TurnoverRowResponse struct {
	ProductID        string          `json:"product_id"`
	SKU              string          `json:"sku"`
	Name             string          `json:"name"`
	UnitsSold        decimal.Decimal `json:"units_sold"`
	EndingBalance    decimal.Decimal `json:"ending_balance"`
	ApproxStarting   decimal.Decimal `json:"approx_starting"`
	AverageInventory decimal.Decimal `json:"average_inventory"`
	Turnover         decimal.Decimal `json:"turnover"`
}

// TurnoverFromDomain converts turnover rows to responses.
func TurnoverFromDomain(rows []domain.TurnoverRow) []TurnoverRowResponse {
	result := make([]TurnoverRowResponse, len(rows))
	for i, r := range rows {
		result[i] = TurnoverRowResponse{
			ProductID:        r.ProductID,
			SKU:              r.SKU,
			Name:             r.Name,
			UnitsSold:        r.UnitsSold,
			EndingBalance:    r.EndingBalance,
			ApproxStarting:   r.ApproxStarting,
			AverageInventory: r.AverageInventory,
			Turnover:         r.Turnover.Round(4),
		}
	}
	return result
}

// SalesRankResponse is one row of the best sellers report.
type SalesRankResponse struct {
	ProductID string          `json:"product_id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	UnitsSold decimal.Decimal `json:"units_sold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// SalesRanksFromDomain converts sales ranks to responses.
func SalesRanksFromDomain(ranks []domain.SalesRank) []SalesRankResponse {
	result := make([]SalesRankResponse, len(ranks))
	for i, r := range ranks {
		result[i] = SalesRankResponse(r)
	}
	return result
}

// LowStockResponse is one product at or below its reorder threshold.
type LowStockResponse struct {
	ProductID   string          `json:"product_id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Quantity    decimal.Decimal `json:"quantity"`
	MinQuantity decimal.Decimal `json:"min_quantity"`
	Shortfall   decimal.Decimal `json:"shortfall"`
}

// LowStockFromDomain converts low stock products to responses.
func LowStockFromDomain(products []*domain.Product) []LowStockResponse {
	result := make([]LowStockResponse, len(products))
	for i, p := range products {
		result[i] = LowStockResponse{
			ProductID:   p.ID,
			SKU:         p.SKU,
			Name:        p.Name,
			Quantity:    p.Quantity,
			MinQuantity: p.MinQuantity,
			Shortfall:   p.Shortfall(),
		}
	}
	return result
}

// CategoryValuationResponse is the stock value of one category.
type CategoryValuationResponse struct {
	Category    string          `json:"category"`
	Products    int             `json:"products"`
	Units       decimal.Decimal `json:"units"`
	CostValue   decimal.Decimal `json:"cost_value"`
	RetailValue decimal.Decimal `json:"retail_value"`
}

// ValuationResponse is the stock value across active products.
type ValuationResponse struct {
	Products    int                         `json:"products"`
	Units       decimal.Decimal             `json:"units"`
	CostValue   decimal.Decimal             `json:"cost_value"`
	RetailValue decimal.Decimal             `json:"retail_value"`
	Categories  []CategoryValuationResponse `json:"categories"`
	GeneratedAt time.Time                   `json:"generated_at"`
}

// ValuationFromDomain converts a valuation to a response.
func ValuationFromDomain(v *domain.Valuation) *ValuationResponse {
	categories := make([]CategoryValuationResponse, len(v.Categories))
	for i, c := range v.Categories {
		categories[i] = CategoryValuationResponse{
			Category:    string(c.Category),
			Products:    c.Products,
			Units:       c.Units,
			CostValue:   c.CostValue,
			RetailValue: c.RetailValue,
		}
	}
	return &ValuationResponse{
		Products:    v.Products,
		Units:       v.Units,
		CostValue:   v.CostValue,
		RetailValue: v.RetailValue,
		Categories:  categories,
		GeneratedAt: v.GeneratedAt,
	}
}

// TokenResponse carries a signed actor token.
type TokenResponse struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	ExpiresIn int64  `json:"expires_in"`
}
