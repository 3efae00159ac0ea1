package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leafmart/cartd/internal/domain/pricing"
	"github.com/leafmart/cartd/internal/domain/promotion"
)

func lineItem(productID, vendorID, price string, qty int, discount string) LineItem {
	it := LineItem{
		ID:         productID + "-" + vendorID,
		ProductID:  productID,
		VendorID:   vendorID,
		VendorName: "Vendor " + vendorID,
		Quantity:   qty,
		BasePrice:  d(price),
	}
	if discount != "" {
		it.Applied = pricing.Applied{
			Applicable:    true,
			DiscountValue: d(discount),
			Source:        pricing.SourceDiscount,
		}
	}
	it.Price = pricing.ResolveFinalPrice(it.BasePrice, it.Applied)
	return it
}

func promo(vendorID, code, value string) promotion.Applied {
	return promotion.Applied{
		VendorID:      vendorID,
		Code:          code,
		Applicable:    true,
		DiscountValue: d(value),
	}
}

func TestSnapshot_VendorGroups(t *testing.T) {
	snap := Snapshot{
		Items: []LineItem{
			lineItem("p1", "vA", "50", 1, ""),
			lineItem("p2", "vB", "30", 1, "3"),
			lineItem("p3", "vA", "10", 2, ""),
		},
		Promotions: map[string]promotion.Applied{},
	}

	groups := snap.VendorGroups()

	require.Len(t, groups, 2)
	// First-seen order, not alphabetical.
	assert.Equal(t, "vA", groups[0].VendorID)
	assert.Equal(t, "vB", groups[1].VendorID)
	assert.Len(t, groups[0].Items, 2)
	assert.Len(t, groups[1].Items, 1)
	assert.True(t, d("70").Equal(groups[0].Subtotal))
	assert.True(t, d("30").Equal(groups[1].Subtotal))
	assert.True(t, d("3").Equal(groups[1].DiscountTotal))
	assert.True(t, d("27").Equal(groups[1].Total))
}

func TestSnapshot_TwoVendorScenario(t *testing.T) {
	// VendorA: $50 item, no discount, $5 promotion.
	// VendorB: $30 item with 10% off.
	snap := Snapshot{
		Items: []LineItem{
			lineItem("p1", "vA", "50", 1, ""),
			lineItem("p2", "vB", "30", 1, "3"),
		},
		Promotions: map[string]promotion.Applied{
			"vA": promo("vA", "SAVE5", "5"),
		},
	}

	assert.True(t, d("50").Equal(snap.VendorSubtotal("vA")))
	assert.True(t, d("5").Equal(snap.VendorPromotionDiscount("vA")))
	assert.True(t, d("45").Equal(snap.VendorTotal("vA")))
	assert.True(t, d("27").Equal(snap.VendorTotal("vB")))

	sum := snap.Summary()
	assert.True(t, d("80").Equal(sum.GrandSubtotal))
	assert.True(t, d("72").Equal(sum.GrandTotal))
	assert.True(t, d("8").Equal(sum.GrandSavings))
	assert.Equal(t, 2, sum.ItemCount)
	assert.Equal(t, 2, sum.VendorCount)
}

func TestSnapshot_VendorTotalFloorsAtZero(t *testing.T) {
	// Promotion larger than the vendor's subtotal: the vendor floors at zero
	// and the overshoot cannot leak into the other vendor's total.
	snap := Snapshot{
		Items: []LineItem{
			lineItem("p1", "vA", "10", 1, ""),
			lineItem("p2", "vB", "40", 1, ""),
		},
		Promotions: map[string]promotion.Applied{
			"vA": promo("vA", "HUGE", "25"),
		},
	}

	assert.True(t, snap.VendorTotal("vA").IsZero())
	assert.True(t, d("40").Equal(snap.VendorTotal("vB")))

	sum := snap.Summary()
	assert.True(t, d("40").Equal(sum.GrandTotal))
	assert.False(t, sum.GrandTotal.GreaterThan(sum.GrandSubtotal))
}

func TestSnapshot_GrandTotalIsSumOfVendorTotals(t *testing.T) {
	snap := Snapshot{
		Items: []LineItem{
			lineItem("p1", "vA", "19.99", 3, "2.00"),
			lineItem("p2", "vB", "7.50", 2, ""),
			lineItem("p3", "vC", "120", 1, "12.00"),
		},
		Promotions: map[string]promotion.Applied{
			"vB": promo("vB", "B5", "5"),
			"vC": promo("vC", "C10", "10"),
		},
	}

	want := decimal.Zero
	for _, vendorID := range []string{"vA", "vB", "vC"} {
		want = want.Add(snap.VendorTotal(vendorID))
	}

	sum := snap.Summary()
	assert.True(t, want.Equal(sum.GrandTotal),
		"expected grand total %s, got %s", want, sum.GrandTotal)
	assert.Equal(t, 6, sum.ItemCount)
	assert.Equal(t, 3, sum.VendorCount)
}

func TestSnapshot_InapplicablePromotionContributesNothing(t *testing.T) {
	snap := Snapshot{
		Items: []LineItem{lineItem("p1", "vA", "50", 1, "")},
		Promotions: map[string]promotion.Applied{
			"vA": {VendorID: "vA", Code: "BAD", Applicable: false, DiscountValue: d("5"), ErrorMessage: "rejected"},
		},
	}

	assert.True(t, snap.VendorPromotionDiscount("vA").IsZero())
	assert.True(t, d("50").Equal(snap.VendorTotal("vA")))
}

func TestSnapshot_Empty(t *testing.T) {
	snap := Snapshot{Promotions: map[string]promotion.Applied{}}

	assert.Empty(t, snap.VendorGroups())
	sum := snap.Summary()
	assert.True(t, sum.GrandSubtotal.IsZero())
	assert.True(t, sum.GrandTotal.IsZero())
	assert.Equal(t, 0, sum.ItemCount)
	assert.Equal(t, 0, sum.VendorCount)
}
