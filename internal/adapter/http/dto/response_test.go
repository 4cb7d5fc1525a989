package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/stockledger/internal/domain"
	"github.com/iho/stockledger/internal/usecase"
)

func TestProductFromDomain(t *testing.T) {
	now := time.Now()
	p := &domain.Product{
		ID:          "prod-1",
		SKU:         "RICE-1",
		Name:        "Rice",
		Category:    domain.CategoryGrocery,
		Price:       decimal.NewFromInt(10),
		Cost:        decimal.NewFromInt(6),
		GSTPercent:  decimal.NewFromInt(5),
		Quantity:    decimal.NewFromInt(2),
		MinQuantity: decimal.NewFromInt(5),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	resp := ProductFromDomain(p)

	if resp.ID != p.ID || resp.SKU != p.SKU || resp.Category != "grocery" {
		t.Fatalf("unexpected product response %+v", resp)
	}
	if !resp.LowStock {
		t.Fatalf("expected product to be flagged low stock")
	}
}

func TestLedgerEntryFromDomainEncodesDecimalsAsStrings(t *testing.T) {
	entry := &domain.LedgerEntry{
		ID:            "entry-1",
		ProductID:     "prod-1",
		SKU:           "RICE-1",
		Type:          domain.MovementOut,
		Quantity:      decimal.RequireFromString("1.5"),
		BalanceBefore: decimal.NewFromInt(10),
		BalanceAfter:  decimal.RequireFromString("8.5"),
		Source:        domain.SourceSale,
		Username:      "bob",
		UserRole:      domain.RoleStaff,
	}

	data, err := json.Marshal(LedgerEntryFromDomain(entry))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if decoded["balance_after"] != "8.5" || decoded["quantity"] != "1.5" {
		t.Fatalf("expected decimal strings, got %v", decoded)
	}
	if decoded["type"] != "OUT" || decoded["source"] != "sale" || decoded["user_role"] != "staff" {
		t.Fatalf("unexpected enum values %v", decoded)
	}
	if _, ok := decoded["unit_price"]; ok {
		t.Fatalf("expected unit_price to be omitted")
	}
}

func TestVerificationFromUseCase(t *testing.T) {
	v := &usecase.LedgerVerification{
		ProductID:         "prod-1",
		SKU:               "ABC",
		Entries:           3,
		ReplayedBalance:   decimal.NewFromInt(12),
		RecordedQuantity:  decimal.NewFromInt(10),
		BrokenEntries:     []*domain.LedgerEntry{{ID: "zz-broken"}},
		ProjectionMatches: false,
	}

	resp := VerificationFromUseCase(v)

	if resp.Consistent {
		t.Fatalf("expected inconsistent verification")
	}
	if len(resp.BrokenEntries) != 1 || resp.BrokenEntries[0].ID != "zz-broken" {
		t.Fatalf("unexpected broken entries %+v", resp.BrokenEntries)
	}
}

func TestReconciliationReportFromUseCase(t *testing.T) {
	report := &usecase.ReconciliationReport{
		TotalProducts:      2,
		ReconciledProducts: 1,
		CorrectedProducts:  1,
		Discrepancies: []*usecase.ReconciliationResult{{
			SKU:        "ABC",
			Difference: decimal.NewFromInt(4),
			Corrected:  true,
		}},
	}

	resp := ReconciliationReportFromUseCase(report)

	if resp.TotalProducts != 2 || len(resp.Discrepancies) != 1 || !resp.Discrepancies[0].Corrected {
		t.Fatalf("unexpected report response %+v", resp)
	}
}
