//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestCart_Empty(t *testing.T) {
	resp := doGet(t, "/api/carts/it-empty")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	cart := decodeJSON[cartResponse](t, resp)
	if len(cart.Vendors) != 0 {
		t.Errorf("expected empty cart, got %d vendor groups", len(cart.Vendors))
	}
	if cart.Summary.ItemCount != 0 || cart.Summary.VendorCount != 0 {
		t.Errorf("expected zero counts, got items=%d vendors=%d",
			cart.Summary.ItemCount, cart.Summary.VendorCount)
	}
}

func TestCart_AddItemsAndTotals(t *testing.T) {
	const cartPath = "/api/carts/it-totals"

	// Gummies: $18 base with a $3 deal.
	resp := doJSON(t, http.MethodPost, cartPath+"/items", addItemRequest{ProductID: "hf-gummies-100", Quantity: 2})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add gummies: expected 200, got %d", resp.StatusCode)
	}
	cart := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()

	if len(cart.Vendors) != 1 {
		t.Fatalf("expected 1 vendor group, got %d", len(cart.Vendors))
	}
	hf := cart.Vendors[0]
	if hf.Subtotal != "36" || hf.DiscountTotal != "6" || hf.Total != "30" {
		t.Errorf("happy-farms totals: subtotal=%s discount=%s total=%s",
			hf.Subtotal, hf.DiscountTotal, hf.Total)
	}

	// Tincture: $45, no discount, same vendor.
	resp = doJSON(t, http.MethodPost, cartPath+"/items", addItemRequest{ProductID: "hf-tincture-30", Quantity: 1})
	cart = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()

	if cart.Summary.VendorCount != 1 {
		t.Fatalf("expected 1 vendor, got %d", cart.Summary.VendorCount)
	}
	if cart.Vendors[0].Total != "75" {
		t.Errorf("happy-farms total after tincture: got %s, want 75", cart.Vendors[0].Total)
	}

	// Battery: $20, different vendor. Grand total sums vendor totals.
	resp = doJSON(t, http.MethodPost, cartPath+"/items", addItemRequest{ProductID: "cc-battery-510", Quantity: 1})
	cart = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()

	if cart.Summary.VendorCount != 2 {
		t.Fatalf("expected 2 vendors, got %d", cart.Summary.VendorCount)
	}
	if cart.Summary.ItemCount != 4 {
		t.Errorf("item count: got %d, want 4", cart.Summary.ItemCount)
	}
	if cart.Summary.GrandTotal != "95" {
		t.Errorf("grand total: got %s, want 95", cart.Summary.GrandTotal)
	}
	if cart.Summary.GrandSavings != "6" {
		t.Errorf("grand savings: got %s, want 6", cart.Summary.GrandSavings)
	}
}

func TestCart_QuantityThreshold(t *testing.T) {
	const cartPath = "/api/carts/it-threshold"

	// OG Kush: 10% off from 2 units. A single unit pays full price.
	resp := doJSON(t, http.MethodPost, cartPath+"/items", addItemRequest{ProductID: "gf-ogkush-35", Quantity: 1})
	cart := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()

	item := cart.Vendors[0].Items[0]
	if item.Discounted || item.Price != "34.99" {
		t.Errorf("qty 1: discounted=%v price=%s, want full price", item.Discounted, item.Price)
	}

	// Crossing the threshold re-resolves the unit price.
	resp = doJSON(t, http.MethodPatch, cartPath+"/items/"+item.ID, setQuantityRequest{Quantity: 2})
	cart = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()

	item = cart.Vendors[0].Items[0]
	if !item.Discounted || item.Price != "31.49" {
		t.Errorf("qty 2: discounted=%v price=%s, want 31.49", item.Discounted, item.Price)
	}
	if item.DiscountValue != "3.5" {
		t.Errorf("qty 2: discount value %s, want 3.5", item.DiscountValue)
	}

	// Quantity zero removes the item and its vendor group.
	resp = doJSON(t, http.MethodPatch, cartPath+"/items/"+item.ID, setQuantityRequest{Quantity: 0})
	cart = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()

	if len(cart.Vendors) != 0 {
		t.Errorf("expected empty cart after qty 0, got %d vendor groups", len(cart.Vendors))
	}
}

func TestCart_CombinedDiscountAndDeal(t *testing.T) {
	const cartPath = "/api/carts/it-combined"

	// Live Resin: $10 off from 2 units plus a 5% deal ($2.75 on $55).
	resp := doJSON(t, http.MethodPost, cartPath+"/items", addItemRequest{ProductID: "cc-vape-live", Quantity: 2})
	cart := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()

	item := cart.Vendors[0].Items[0]
	if !item.Discounted {
		t.Fatal("expected combined discount to apply")
	}
	if item.Price != "42.25" {
		t.Errorf("combined price: got %s, want 42.25", item.Price)
	}
	if item.DiscountValue != "12.75" {
		t.Errorf("combined discount value: got %s, want 12.75", item.DiscountValue)
	}
}

func TestCart_MergeSameProduct(t *testing.T) {
	const cartPath = "/api/carts/it-merge"

	resp := doJSON(t, http.MethodPost, cartPath+"/items", addItemRequest{ProductID: "hf-tincture-30", Quantity: 1})
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, cartPath+"/items", addItemRequest{ProductID: "hf-tincture-30", Quantity: 2})
	cart := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()

	if len(cart.Vendors[0].Items) != 1 {
		t.Fatalf("expected merged line item, got %d", len(cart.Vendors[0].Items))
	}
	if got := cart.Vendors[0].Items[0].Quantity; got != 3 {
		t.Errorf("merged quantity: got %d, want 3", got)
	}

	// A different variant stays a separate line.
	resp = doJSON(t, http.MethodPost, cartPath+"/items",
		addItemRequest{ProductID: "hf-tincture-30", Quantity: 1, Variant: "mint"})
	cart = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()

	if len(cart.Vendors[0].Items) != 2 {
		t.Errorf("expected separate line for variant, got %d items", len(cart.Vendors[0].Items))
	}
}

func TestCart_RemoveAndClear(t *testing.T) {
	const cartPath = "/api/carts/it-remove"

	resp := doJSON(t, http.MethodPost, cartPath+"/items", addItemRequest{ProductID: "hf-gummies-100", Quantity: 1})
	cart := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()

	itemID := cart.Vendors[0].Items[0].ID

	resp = doJSON(t, http.MethodPost, cartPath+"/items", addItemRequest{ProductID: "cc-battery-510", Quantity: 1})
	resp.Body.Close()

	resp = doJSON(t, http.MethodDelete, cartPath+"/items/"+itemID, nil)
	cart = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()

	if cart.Summary.VendorCount != 1 || cart.Vendors[0].VendorID != "coast-cannabis" {
		t.Errorf("after remove: %d vendors, first %q", cart.Summary.VendorCount, cart.Vendors[0].VendorID)
	}

	resp = doJSON(t, http.MethodDelete, cartPath, nil)
	cart = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()

	if len(cart.Vendors) != 0 {
		t.Errorf("after clear: expected empty cart, got %d vendor groups", len(cart.Vendors))
	}
}

func TestCart_Errors(t *testing.T) {
	resp := doJSON(t, http.MethodPost, "/api/carts/it-errors/items", addItemRequest{ProductID: "no-such-product", Quantity: 1})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown product: expected 404, got %d", resp.StatusCode)
	}

	resp2 := doJSON(t, http.MethodPost, "/api/carts/it-errors/items", addItemRequest{ProductID: "hf-gummies-100", Quantity: -1})
	defer resp2.Body.Close()

	if resp2.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("negative quantity: expected 422, got %d", resp2.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp2)
	if body.Message == "" {
		t.Error("expected error message in body")
	}
}
