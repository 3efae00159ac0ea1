package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/leafmart/cartd/internal/domain/promotion"
)

type applyPromotionRequest struct {
	Code string `json:"code"`
}

type applyPromotionResponse struct {
	Applied   bool          `json:"applied"`
	Promotion *promotionDTO `json:"promotion,omitempty"`
	Error     string        `json:"errorMessage,omitempty"`
	Cart      *cartDTO      `json:"cart,omitempty"`
}

// applyPromotion validates a vendor-scoped code and, on success, writes it
// into the cart's promotion ledger. A rejected or failed validation is a
// non-fatal outcome: the response carries the error message and the cart is
// left exactly as it was.
//
// The store's lock is not held across the validator call, so other cart
// mutations proceed while validation is in flight; the token issued before
// the call makes a late result for a superseded attempt or an emptied vendor
// group a no-op.
func (h *Handler) applyPromotion(w http.ResponseWriter, r *http.Request) {
	var req applyPromotionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	vendorID := chi.URLParam(r, "vendorID")
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	snap := store.Snapshot()
	subtotal := snap.VendorSubtotal(vendorID)
	if !subtotal.IsPositive() {
		writeError(w, http.StatusUnprocessableEntity, "vendor has no items in cart")
		return
	}

	if h.prefilter != nil && !h.prefilter.MayContain(req.Code) {
		writeJSON(w, http.StatusOK, applyPromotionResponse{
			Applied: false,
			Error:   promotion.ErrUnknownCode.Error(),
		})
		return
	}

	tok := store.BeginValidation(vendorID)

	applied, err := h.validator.Validate(r.Context(), req.Code, subtotal, vendorID)
	if err != nil {
		if errors.Is(err, promotion.ErrUnavailable) {
			zctx.From(r.Context()).Warn("promotion validation unavailable",
				zap.String("vendor_id", vendorID), zap.Error(err))
			writeJSON(w, http.StatusOK, applyPromotionResponse{
				Applied: false,
				Error:   promotion.ErrUnavailable.Error(),
			})
			return
		}
		h.internalError(w, r, err, "validate promotion")
		return
	}

	if !applied.Applicable {
		writeJSON(w, http.StatusOK, applyPromotionResponse{
			Applied: false,
			Error:   applied.ErrorMessage,
		})
		return
	}

	committed, err := store.CommitPromotion(r.Context(), tok, applied)
	if err != nil {
		h.internalError(w, r, err, "commit promotion")
		return
	}
	if !committed {
		writeJSON(w, http.StatusOK, applyPromotionResponse{
			Applied: false,
			Error:   "validation superseded",
		})
		return
	}

	dto := toPromotionDTO(*applied)
	cartBody := toCartDTO(store.Snapshot())
	writeJSON(w, http.StatusOK, applyPromotionResponse{
		Applied:   true,
		Promotion: &dto,
		Cart:      &cartBody,
	})
}

// removePromotion drops the vendor's promotion from the ledger.
func (h *Handler) removePromotion(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	if err := store.ApplyPromotion(r.Context(), chi.URLParam(r, "vendorID"), nil); err != nil {
		h.internalError(w, r, err, "remove promotion")
		return
	}
	writeJSON(w, http.StatusOK, toCartDTO(store.Snapshot()))
}
