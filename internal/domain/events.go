package domain

import (
	"encoding/json"
	"time"
)

// Event types
const (
	EventTypeStockMoved = "stock.moved"
	EventTypeStockLow   = "stock.low"
)

// Aggregate types
const (
	AggregateTypeProduct = "product"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// StockMovedEvent payload
type StockMovedEvent struct {
	EntryID      string `json:"entry_id"`
	ProductID    string `json:"product_id"`
	SKU          string `json:"sku"`
	Type         string `json:"type"`
	Source       string `json:"source"`
	Quantity     string `json:"quantity"`
	BalanceAfter string `json:"balance_after"`
	Reference    string `json:"reference,omitempty"`
	Username     string `json:"username,omitempty"`
}

// StockLowEvent payload
type StockLowEvent struct {
	ProductID   string `json:"product_id"`
	SKU         string `json:"sku"`
	Quantity    string `json:"quantity"`
	MinQuantity string `json:"min_quantity"`
}

// NewStockMovedEvent builds the outbox event for an applied movement.
func NewStockMovedEvent(id string, e *LedgerEntry) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   e.ProductID,
		AggregateType: AggregateTypeProduct,
		EventType:     EventTypeStockMoved,
		Payload: MarshalPayload(StockMovedEvent{
			EntryID:      e.ID,
			ProductID:    e.ProductID,
			SKU:          e.SKU,
			Type:         string(e.Type),
			Source:       string(e.Source),
			Quantity:     e.Quantity.String(),
			BalanceAfter: e.BalanceAfter.String(),
			Reference:    e.Reference,
			Username:     e.Username,
		}),
		CreatedAt: e.CreatedAt,
	}
}

// NewStockLowEvent builds the outbox event raised when a movement takes a
// product to or below its reorder threshold.
func NewStockLowEvent(id string, p *Product, e *LedgerEntry) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   p.ID,
		AggregateType: AggregateTypeProduct,
		EventType:     EventTypeStockLow,
		Payload: MarshalPayload(StockLowEvent{
			ProductID:   p.ID,
			SKU:         p.SKU,
			Quantity:    e.BalanceAfter.String(),
			MinQuantity: p.MinQuantity.String(),
		}),
		CreatedAt: e.CreatedAt,
	}
}

// CrossesLowStock reports whether moving from before to after crosses the
// reorder threshold downwards.
func CrossesLowStock(p *Product, e *LedgerEntry) bool {
	return e.BalanceBefore.GreaterThan(p.MinQuantity) && e.BalanceAfter.LessThanOrEqual(p.MinQuantity)
}

// MarshalPayload converts an event payload struct to a generic map.
func MarshalPayload(v any) map[string]any {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{"error": "failed to marshal payload"}
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return map[string]any{"error": "failed to unmarshal payload"}
	}

	return result
}
