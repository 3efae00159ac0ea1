package cart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leafmart/cartd/internal/domain/pricing"
	"github.com/leafmart/cartd/internal/domain/promotion"
)

func TestItemCodecRoundTrip(t *testing.T) {
	validFrom := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	deal, err := pricing.ParseDeal("10%")
	require.NoError(t, err)

	items := []*LineItem{
		{
			ID:          "item-1",
			ProductID:   "p1",
			VendorID:    "v1",
			VendorName:  "Green Fields",
			ProductName: "OG Kush 3.5g",
			Variant:     "3.5g",
			Flavor:      "earthy",
			Quantity:    2,
			BasePrice:   d("34.99"),
			Rule: &pricing.DiscountRule{
				PercentOff:  d("10"),
				MinQuantity: 2,
				MinSpend:    d("50"),
				ValidFrom:   &validFrom,
				Weekdays:    []time.Weekday{time.Friday, time.Saturday},
			},
			Deal: deal,
		},
		{
			ID:        "item-2",
			ProductID: "p2",
			VendorID:  "v2",
			Quantity:  1,
			BasePrice: d("12"),
		},
	}

	decoded, err := decodeItems(encodeItems(items))
	require.NoError(t, err)
	require.Len(t, decoded, 2)

	got := decoded[0]
	assert.Equal(t, "item-1", got.ID)
	assert.Equal(t, "p1", got.ProductID)
	assert.Equal(t, "v1", got.VendorID)
	assert.Equal(t, "Green Fields", got.VendorName)
	assert.Equal(t, "OG Kush 3.5g", got.ProductName)
	assert.Equal(t, "3.5g", got.Variant)
	assert.Equal(t, "earthy", got.Flavor)
	assert.Equal(t, 2, got.Quantity)
	assert.True(t, d("34.99").Equal(got.BasePrice))

	require.NotNil(t, got.Rule)
	assert.True(t, d("10").Equal(got.Rule.PercentOff))
	assert.Equal(t, 2, got.Rule.MinQuantity)
	assert.True(t, d("50").Equal(got.Rule.MinSpend))
	require.NotNil(t, got.Rule.ValidFrom)
	assert.True(t, validFrom.Equal(*got.Rule.ValidFrom))
	assert.Equal(t, []time.Weekday{time.Friday, time.Saturday}, got.Rule.Weekdays)

	require.NotNil(t, got.Deal)
	assert.Equal(t, pricing.DealPercent, got.Deal.Kind)
	assert.True(t, d("10").Equal(got.Deal.Value))

	bare := decoded[1]
	assert.Nil(t, bare.Rule)
	assert.Nil(t, bare.Deal)
}

func TestItemCodecOmitsDerivedFields(t *testing.T) {
	items := []*LineItem{{
		ID:        "item-1",
		ProductID: "p1",
		VendorID:  "v1",
		Quantity:  1,
		BasePrice: d("20"),
		Applied:   pricing.Applied{Applicable: true, DiscountValue: d("2"), Source: pricing.SourceDiscount},
		Price:     d("18"),
	}}

	blob := encodeItems(items)
	assert.NotContains(t, string(blob), "price\"")
	assert.NotContains(t, string(blob), "applied")
	assert.NotContains(t, string(blob), "discountValue")
}

func TestItemCodecRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{name: "not json", blob: `{"broken`},
		{name: "wrong top-level shape", blob: `{"items": []}`},
		{name: "missing identity fields", blob: `[{"quantity": 1, "basePrice": "10"}]`},
		{name: "negative base price", blob: `[{"id":"i","productId":"p","vendorId":"v","quantity":1,"basePrice":"-5"}]`},
		{name: "bad deal token", blob: `[{"id":"i","productId":"p","vendorId":"v","quantity":1,"basePrice":"5","deal":"nope!"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeItems([]byte(tt.blob))
			require.Error(t, err)
		})
	}
}

func TestItemCodecDropsZeroQuantity(t *testing.T) {
	blob := `[{"id":"i1","productId":"p","vendorId":"v","quantity":0,"basePrice":"5"},
	          {"id":"i2","productId":"p2","vendorId":"v","quantity":1,"basePrice":"5"}]`

	decoded, err := decodeItems([]byte(blob))
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, "i2", decoded[0].ID)
}

func TestPromotionCodecRoundTrip(t *testing.T) {
	promos := map[string]*promotion.Applied{
		"v1": {VendorID: "v1", Code: "LEAF5", Applicable: true, DiscountValue: d("5"), Display: "$5"},
		"v2": {VendorID: "v2", Code: "BAD", Applicable: false, ErrorMessage: "code expired", DiscountValue: d("0")},
	}

	decoded, err := decodePromotions(encodePromotions(promos))
	require.NoError(t, err)
	require.Len(t, decoded, 2)

	assert.Equal(t, "LEAF5", decoded["v1"].Code)
	assert.True(t, decoded["v1"].Applicable)
	assert.True(t, d("5").Equal(decoded["v1"].DiscountValue))
	assert.Equal(t, "$5", decoded["v1"].Display)
	assert.Equal(t, "v1", decoded["v1"].VendorID)

	assert.False(t, decoded["v2"].Applicable)
	assert.Equal(t, "code expired", decoded["v2"].ErrorMessage)
}

func TestPromotionCodecRejectsMalformed(t *testing.T) {
	_, err := decodePromotions([]byte(`["not", "an", "object"]`))
	require.Error(t, err)
}
