package domain

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxProductNameLength = 255
	MaxSKULength         = 64
	MaxNoteLength        = 1024
	MaxReferenceLength   = 128
	MaxMovementQuantity  = "1000000000" // 1 billion units

	// QuantityScale and AmountScale match the NUMERIC columns quantities,
	// costs and prices are stored in. Replay only holds if stored values are
	// exactly the ones the balance was computed from.
	QuantityScale = 4
	AmountScale   = 4
	PercentScale  = 2
)

var skuRegex = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidateSKU validates a product SKU
func ValidateSKU(sku string) error {
	if sku == "" {
		return invalidProduct("sku cannot be empty")
	}

	if len(sku) > MaxSKULength {
		return invalidProduct("sku exceeds %d characters", MaxSKULength)
	}

	if !skuRegex.MatchString(sku) {
		return invalidProduct("sku %q contains forbidden characters", sku)
	}

	return nil
}

// ValidateProductName validates product name
func ValidateProductName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return invalidProduct("name cannot be empty")
	}

	if len(name) > MaxProductNameLength {
		return invalidProduct("name exceeds %d characters", MaxProductNameLength)
	}

	return nil
}

// ValidateMovementQuantity validates the quantity of a movement.
// Zero is allowed: an ADJUSTMENT to zero empties a product.
func ValidateMovementQuantity(quantity *decimal.Decimal) error {
	if quantity == nil {
		return invalidMovement("quantity is required")
	}

	if quantity.IsNegative() {
		return invalidMovement("quantity cannot be negative")
	}

	maxQuantity, _ := decimal.NewFromString(MaxMovementQuantity)
	if quantity.GreaterThan(maxQuantity) {
		return invalidMovement("quantity exceeds maximum of %s", MaxMovementQuantity)
	}

	if exceedsScale(*quantity, QuantityScale) {
		return invalidMovement("quantity has more than %d decimal places", QuantityScale)
	}

	return nil
}

// ValidateUnitAmount checks an optional unit cost or price of a movement.
func ValidateUnitAmount(field string, amount *decimal.Decimal) error {
	if amount == nil {
		return nil
	}

	if amount.IsNegative() {
		return invalidMovement("%s cannot be negative", field)
	}

	if exceedsScale(*amount, AmountScale) {
		return invalidMovement("%s has more than %d decimal places", field, AmountScale)
	}

	return nil
}

// exceedsScale reports whether d cannot be stored with scale decimal places
// without rounding. Trailing zeros do not count.
func exceedsScale(d decimal.Decimal, scale int32) bool {
	return !d.Equal(d.Truncate(scale))
}

// ValidateMovement validates the type, source, amounts and free-text fields
// of a movement.
func ValidateMovement(t MovementType, source MovementSource, quantity, unitCost, unitPrice *decimal.Decimal, reference, note string) error {
	if !t.IsValid() {
		return invalidMovement("unknown movement type %q", t)
	}

	if source != "" && !source.IsValid() {
		return invalidMovement("unknown movement source %q", source)
	}

	if err := ValidateMovementQuantity(quantity); err != nil {
		return err
	}

	if err := ValidateUnitAmount("unit cost", unitCost); err != nil {
		return err
	}

	if err := ValidateUnitAmount("unit price", unitPrice); err != nil {
		return err
	}

	if len(reference) > MaxReferenceLength {
		return invalidMovement("reference exceeds %d characters", MaxReferenceLength)
	}

	if len(note) > MaxNoteLength {
		return invalidMovement("note exceeds %d characters", MaxNoteLength)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(page, pageSize int) (int, int) {
	const MaxPageSize = 200
	const DefaultPageSize = 20

	if page <= 0 {
		page = 1
	}

	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	return page, pageSize
}

// ParseMovementType parses a movement type case-insensitively.
func ParseMovementType(s string) (MovementType, error) {
	t := MovementType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: unknown movement type %q", ErrInvalidMovement, s)
	}
	return t, nil
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
