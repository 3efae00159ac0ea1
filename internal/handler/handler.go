// Package handler exposes the cart service over HTTP. Routing is chi-based;
// all business decisions live in the domain packages and handlers only
// translate between wire DTOs and domain calls.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leafmart/cartd/internal/domain/cart"
	"github.com/leafmart/cartd/internal/domain/catalog"
	"github.com/leafmart/cartd/internal/domain/promotion"
)

// Handler wires the HTTP surface to the domain: the catalog collaborator,
// the per-cart store manager, and the promotion validation pipeline.
type Handler struct {
	catalog   catalog.Repository
	carts     *cart.Manager
	validator promotion.Validator
	prefilter *promotion.Prefilter
}

// New constructs a Handler with the required domain dependencies.
func New(
	catalogRepo catalog.Repository,
	carts *cart.Manager,
	validator promotion.Validator,
	prefilter *promotion.Prefilter,
) *Handler {
	return &Handler{
		catalog:   catalogRepo,
		carts:     carts,
		validator: validator,
		prefilter: prefilter,
	}
}

// Routes mounts all cart endpoints under /carts.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/carts/{cartID}", func(r chi.Router) {
		r.Get("/", h.getCart)
		r.Delete("/", h.clearCart)
		r.Post("/items", h.addItem)
		r.Patch("/items/{itemID}", h.setQuantity)
		r.Delete("/items/{itemID}", h.removeItem)
		r.Put("/vendors/{vendorID}/promotion", h.applyPromotion)
		r.Delete("/vendors/{vendorID}/promotion", h.removePromotion)
	})
	return r
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Code: status, Message: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}
