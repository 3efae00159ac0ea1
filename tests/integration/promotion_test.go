//go:build integration

package integration

import (
	"net/http"
	"testing"
)

// The compose environment points the promotion service URL at a host that
// does not exist, so every validation attempt exercises the unavailable
// path. Accepted and rejected validations are covered by handler unit tests
// against a stub validator.

func TestPromotion_VendorWithoutItems(t *testing.T) {
	resp := doJSON(t, http.MethodPut, "/api/carts/it-promo-empty/vendors/happy-farms/promotion",
		applyPromotionRequest{Code: "LEAF20"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestPromotion_ValidatorUnavailableIsNonFatal(t *testing.T) {
	const cartPath = "/api/carts/it-promo-down"

	resp := doJSON(t, http.MethodPost, cartPath+"/items", addItemRequest{ProductID: "hf-gummies-100", Quantity: 1})
	resp.Body.Close()

	resp = doJSON(t, http.MethodPut, cartPath+"/vendors/happy-farms/promotion",
		applyPromotionRequest{Code: "LEAF20"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	result := decodeJSON[applyPromotionResponse](t, resp)
	resp.Body.Close()

	if result.Applied {
		t.Error("expected applied=false when validator is unreachable")
	}
	if result.Error == "" {
		t.Error("expected an error message")
	}

	// The cart itself is untouched.
	resp = doGet(t, cartPath)
	cart := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()

	if cart.Vendors[0].Promotion != nil {
		t.Error("expected no promotion on the vendor group")
	}
	if cart.Vendors[0].Total != "15" {
		t.Errorf("vendor total: got %s, want 15", cart.Vendors[0].Total)
	}
}

func TestPromotion_MissingCode(t *testing.T) {
	const cartPath = "/api/carts/it-promo-badreq"

	resp := doJSON(t, http.MethodPost, cartPath+"/items", addItemRequest{ProductID: "hf-gummies-100", Quantity: 1})
	resp.Body.Close()

	resp = doJSON(t, http.MethodPut, cartPath+"/vendors/happy-farms/promotion", applyPromotionRequest{})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPromotion_RemoveIsIdempotent(t *testing.T) {
	const cartPath = "/api/carts/it-promo-remove"

	resp := doJSON(t, http.MethodPost, cartPath+"/items", addItemRequest{ProductID: "hf-gummies-100", Quantity: 1})
	resp.Body.Close()

	resp = doJSON(t, http.MethodDelete, cartPath+"/vendors/happy-farms/promotion", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	cart := decodeJSON[cartResponse](t, resp)
	if cart.Vendors[0].Promotion != nil {
		t.Error("expected no promotion after removal")
	}
}
