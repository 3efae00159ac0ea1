package handler

import (
	"github.com/shopspring/decimal"

	"github.com/leafmart/cartd/internal/domain/cart"
	"github.com/leafmart/cartd/internal/domain/promotion"
)

// Monetary fields marshal through shopspring/decimal, which renders JSON
// strings ("34.99"); clients must not parse them as binary floats.

type lineItemDTO struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"productId"`
	VendorID      string          `json:"vendorId"`
	VendorName    string          `json:"vendorName"`
	ProductName   string          `json:"productName"`
	Variant       string          `json:"variant,omitempty"`
	Flavor        string          `json:"flavor,omitempty"`
	Quantity      int             `json:"quantity"`
	BasePrice     decimal.Decimal `json:"basePrice"`
	Price         decimal.Decimal `json:"price"`
	Discounted    bool            `json:"discounted"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	DiscountShow  string          `json:"discountDisplay,omitempty"`
	Source        string          `json:"discountSource,omitempty"`
}

type promotionDTO struct {
	VendorID      string          `json:"vendorId"`
	Code          string          `json:"code"`
	Applicable    bool            `json:"isApplicable"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	Display       string          `json:"discountDisplay,omitempty"`
	ErrorMessage  string          `json:"errorMessage,omitempty"`
}

type vendorGroupDTO struct {
	VendorID          string          `json:"vendorId"`
	VendorName        string          `json:"vendorName"`
	Items             []lineItemDTO   `json:"items"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	DiscountTotal     decimal.Decimal `json:"discountTotal"`
	PromotionDiscount decimal.Decimal `json:"promotionDiscount"`
	Total             decimal.Decimal `json:"total"`
	Promotion         *promotionDTO   `json:"promotion,omitempty"`
}

type summaryDTO struct {
	GrandSubtotal decimal.Decimal `json:"grandSubtotal"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
	GrandSavings  decimal.Decimal `json:"grandSavings"`
	ItemCount     int             `json:"itemCount"`
	VendorCount   int             `json:"vendorCount"`
}

type cartDTO struct {
	Vendors []vendorGroupDTO `json:"vendors"`
	Summary summaryDTO       `json:"summary"`
}

func toCartDTO(snap cart.Snapshot) cartDTO {
	groups := snap.VendorGroups()
	out := cartDTO{Vendors: make([]vendorGroupDTO, 0, len(groups))}

	for _, g := range groups {
		dto := vendorGroupDTO{
			VendorID:          g.VendorID,
			VendorName:        g.VendorName,
			Items:             make([]lineItemDTO, 0, len(g.Items)),
			Subtotal:          g.Subtotal,
			DiscountTotal:     g.DiscountTotal,
			PromotionDiscount: g.PromotionDiscount,
			Total:             g.Total,
		}
		for _, it := range g.Items {
			dto.Items = append(dto.Items, toLineItemDTO(it))
		}
		if p, ok := snap.Promotions[g.VendorID]; ok {
			pd := toPromotionDTO(p)
			dto.Promotion = &pd
		}
		out.Vendors = append(out.Vendors, dto)
	}

	sum := snap.Summary()
	out.Summary = summaryDTO{
		GrandSubtotal: sum.GrandSubtotal.Round(2),
		GrandTotal:    sum.GrandTotal.Round(2),
		GrandSavings:  sum.GrandSavings.Round(2),
		ItemCount:     sum.ItemCount,
		VendorCount:   sum.VendorCount,
	}
	return out
}

func toLineItemDTO(it cart.LineItem) lineItemDTO {
	return lineItemDTO{
		ID:            it.ID,
		ProductID:     it.ProductID,
		VendorID:      it.VendorID,
		VendorName:    it.VendorName,
		ProductName:   it.ProductName,
		Variant:       it.Variant,
		Flavor:        it.Flavor,
		Quantity:      it.Quantity,
		BasePrice:     it.BasePrice.Round(2),
		Price:         it.Price.Round(2),
		Discounted:    it.Applied.Applicable,
		DiscountValue: it.Applied.DiscountValue.Round(2),
		DiscountShow:  it.Applied.Display,
		Source:        string(it.Applied.Source),
	}
}

func toPromotionDTO(p promotion.Applied) promotionDTO {
	return promotionDTO{
		VendorID:      p.VendorID,
		Code:          p.Code,
		Applicable:    p.Applicable,
		DiscountValue: p.DiscountValue.Round(2),
		Display:       p.Display,
		ErrorMessage:  p.ErrorMessage,
	}
}
