package cart

import (
	"github.com/shopspring/decimal"
)

// VendorGroup is one vendor's slice of the cart, in first-seen item order,
// with that vendor's aggregate figures.
type VendorGroup struct {
	VendorID   string
	VendorName string
	Items      []LineItem

	Subtotal          decimal.Decimal
	DiscountTotal     decimal.Decimal
	PromotionDiscount decimal.Decimal
	Total             decimal.Decimal
}

// Summary is the cart-level aggregate view. GrandTotal is always the sum of
// per-vendor totals — each already floored at zero — so an oversized
// promotion on one vendor can never eat into another vendor's total.
type Summary struct {
	GrandSubtotal decimal.Decimal
	GrandTotal    decimal.Decimal
	GrandSavings  decimal.Decimal
	ItemCount     int
	VendorCount   int
}

// VendorGroups partitions the snapshot's items by vendor, preserving the
// order vendors first appear in the cart, and computes each group's totals.
func (s Snapshot) VendorGroups() []VendorGroup {
	var (
		order  []string
		groups = make(map[string]*VendorGroup)
	)
	for _, it := range s.Items {
		g, ok := groups[it.VendorID]
		if !ok {
			g = &VendorGroup{VendorID: it.VendorID, VendorName: it.VendorName}
			groups[it.VendorID] = g
			order = append(order, it.VendorID)
		}
		g.Items = append(g.Items, it)
	}

	out := make([]VendorGroup, 0, len(order))
	for _, vendorID := range order {
		g := groups[vendorID]
		g.Subtotal = s.VendorSubtotal(vendorID)
		g.DiscountTotal = s.VendorDiscountTotal(vendorID)
		g.PromotionDiscount = s.VendorPromotionDiscount(vendorID)
		g.Total = s.VendorTotal(vendorID)
		out = append(out, *g)
	}
	return out
}

// VendorSubtotal is the pre-discount sum of basePrice x quantity over the
// vendor's items.
func (s Snapshot) VendorSubtotal(vendorID string) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range s.Items {
		if it.VendorID == vendorID {
			sum = sum.Add(it.LineSubtotal())
		}
	}
	return sum
}

// VendorDiscountTotal is the sum of per-unit resolved discounts times
// quantity over the vendor's items.
func (s Snapshot) VendorDiscountTotal(vendorID string) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range s.Items {
		if it.VendorID == vendorID {
			sum = sum.Add(it.LineDiscount())
		}
	}
	return sum
}

// VendorPromotionDiscount is the vendor's applied promotion value, or zero
// when the vendor has no applicable promotion.
func (s Snapshot) VendorPromotionDiscount(vendorID string) decimal.Decimal {
	p, ok := s.Promotions[vendorID]
	if !ok || !p.Applicable {
		return decimal.Zero
	}
	return p.DiscountValue
}

// VendorTotal is subtotal minus line discounts minus the promotion discount,
// floored at zero.
func (s Snapshot) VendorTotal(vendorID string) decimal.Decimal {
	total := s.VendorSubtotal(vendorID).
		Sub(s.VendorDiscountTotal(vendorID)).
		Sub(s.VendorPromotionDiscount(vendorID))
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// Summary folds the per-vendor figures into the cart-level view.
func (s Snapshot) Summary() Summary {
	sum := Summary{
		GrandSubtotal: decimal.Zero,
		GrandTotal:    decimal.Zero,
	}

	seen := make(map[string]bool)
	for _, it := range s.Items {
		sum.ItemCount += it.Quantity
		if !seen[it.VendorID] {
			seen[it.VendorID] = true
			sum.VendorCount++

			sum.GrandSubtotal = sum.GrandSubtotal.Add(s.VendorSubtotal(it.VendorID))
			sum.GrandTotal = sum.GrandTotal.Add(s.VendorTotal(it.VendorID))
		}
	}

	sum.GrandSavings = sum.GrandSubtotal.Sub(sum.GrandTotal)
	return sum
}
