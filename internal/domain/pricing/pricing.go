// Package pricing resolves the per-unit discount for a cart line item from a
// vendor-defined discount rule and an optional inline deal, and derives the
// final unit price. All functions are pure: given identical inputs they return
// identical outputs, which lets the cart recompute prices on every mutation.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies which input produced the resolved discount.
type Source string

const (
	// SourceNone means no discount applied.
	SourceNone Source = ""
	// SourceDiscount means only the vendor discount rule applied.
	SourceDiscount Source = "discount"
	// SourceDeal means only the inline deal applied.
	SourceDeal Source = "deal"
	// SourceCombined means both the rule and the deal applied and were summed.
	SourceCombined Source = "combined"
)

// DiscountRule is a vendor-defined discount attached to a product. Exactly one
// of AmountOff or PercentOff is meaningful per rule; when both are zero the
// rule never applies.
type DiscountRule struct {
	// AmountOff is a flat per-unit discount.
	AmountOff decimal.Decimal
	// PercentOff is a percentage of the base price, 0-100.
	PercentOff decimal.Decimal
	// MinQuantity is the minimum line quantity for the rule to apply.
	// Zero means no quantity threshold.
	MinQuantity int
	// MinSpend is the minimum line spend (base price * quantity) for the rule
	// to apply. Zero means no spend threshold.
	MinSpend decimal.Decimal
	// ValidFrom and ValidUntil bound the rule's validity window.
	// Nil means unbounded on that side.
	ValidFrom  *time.Time
	ValidUntil *time.Time
	// Weekdays restricts the rule to specific days of the week.
	// Empty means every day.
	Weekdays []time.Weekday
}

// Applied is the resolved per-unit outcome of combining a discount rule and a
// deal for one line item. It is always an output of ResolveDiscount, never an
// input to it.
type Applied struct {
	// Applicable reports whether any discount applied at all.
	Applicable bool
	// DiscountValue is the total per-unit savings, never exceeding the base price.
	DiscountValue decimal.Decimal
	// DealValue is the portion of DiscountValue attributable to the deal.
	DealValue decimal.Decimal
	// Source identifies which inputs contributed.
	Source Source
	// Display is a human-readable rendering ("$5", "10%"). Presentation only,
	// never used in arithmetic.
	Display string
}

var (
	hundred = decimal.NewFromInt(100)
	zero    = decimal.Zero
)

// floorAtZero clamps negative values to zero.
func floorAtZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return zero
	}
	return d
}

// clampTo caps d at limit, flooring at zero.
func clampTo(d, limit decimal.Decimal) decimal.Decimal {
	return floorAtZero(decimal.Min(d, limit))
}
