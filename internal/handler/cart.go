package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/leafmart/cartd/internal/domain/cart"
	"github.com/leafmart/cartd/internal/domain/catalog"
	"github.com/leafmart/cartd/internal/domain/pricing"
)

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Variant   string `json:"variant,omitempty"`
	Flavor    string `json:"flavor,omitempty"`
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(store.Snapshot()))
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}

	store, ok := h.store(w, r)
	if !ok {
		return
	}

	product, err := h.catalog.GetByID(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		h.internalError(w, r, err, "fetch product")
		return
	}

	in := cart.AddInput{
		ProductID:   product.ID,
		VendorID:    product.VendorID,
		VendorName:  product.VendorName,
		ProductName: product.Name,
		Variant:     req.Variant,
		Flavor:      req.Flavor,
		Quantity:    req.Quantity,
		BasePrice:   product.BasePrice,
		Rule:        product.Rule,
	}
	if product.DealToken != "" {
		deal, err := pricing.ParseDeal(product.DealToken)
		if err != nil {
			// A bad deal token on a catalog product is a data problem, not a
			// reason to block the purchase.
			zctx.From(r.Context()).Warn("ignoring unparseable deal token",
				zap.String("product_id", product.ID),
				zap.String("token", product.DealToken),
				zap.Error(err))
		} else {
			in.Deal = deal
		}
	}

	if _, err := store.AddItem(r.Context(), in); err != nil {
		if errors.Is(err, cart.ErrInvalidQuantity) {
			writeError(w, http.StatusUnprocessableEntity, "quantity must be greater than 0")
			return
		}
		h.internalError(w, r, err, "add item")
		return
	}

	writeJSON(w, http.StatusOK, toCartDTO(store.Snapshot()))
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if !decodeBody(w, r, &req) {
		return
	}

	store, ok := h.store(w, r)
	if !ok {
		return
	}

	// Non-positive quantities remove the item; that is the documented
	// behaviour, not an error.
	if err := store.SetQuantity(r.Context(), chi.URLParam(r, "itemID"), req.Quantity); err != nil {
		h.internalError(w, r, err, "set quantity")
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(store.Snapshot()))
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	if err := store.RemoveItem(r.Context(), chi.URLParam(r, "itemID")); err != nil {
		h.internalError(w, r, err, "remove item")
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(store.Snapshot()))
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	if err := store.Clear(r.Context()); err != nil {
		h.internalError(w, r, err, "clear cart")
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(store.Snapshot()))
}

// store loads (hydrating if needed) the request's cart store.
func (h *Handler) store(w http.ResponseWriter, r *http.Request) (*cart.Store, bool) {
	cartID := chi.URLParam(r, "cartID")
	if cartID == "" {
		writeError(w, http.StatusBadRequest, "cart id is required")
		return nil, false
	}

	store, err := h.carts.Get(r.Context(), cartID)
	if err != nil {
		h.internalError(w, r, err, "load cart")
		return nil, false
	}
	return store, true
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error, op string) {
	zctx.From(r.Context()).Error(op, zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
