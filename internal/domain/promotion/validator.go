package promotion

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// validateRequest is the wire request to the promotion service.
type validateRequest struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
	VendorID string          `json:"vendorId"`
}

// validateResponse is the wire response from the promotion service.
type validateResponse struct {
	IsApplicable    bool            `json:"isApplicable"`
	DiscountValue   decimal.Decimal `json:"discountValue"`
	DiscountDisplay string          `json:"discountDisplay"`
	Code            string          `json:"code"`
	ErrorMessage    string          `json:"errorMessage,omitempty"`
}

// HTTPValidator implements Validator against the remote promotion service.
// Outbound requests are traced via otelhttp.
type HTTPValidator struct {
	baseURL string
	client  *http.Client
}

var _ Validator = (*HTTPValidator)(nil)

// NewHTTPValidator creates a validator that POSTs to baseURL + "/validate".
func NewHTTPValidator(baseURL string, timeout time.Duration) *HTTPValidator {
	return &HTTPValidator{
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Validate asks the promotion service whether the code applies to the given
// vendor subtotal. The service's discount value is clamped into [0, subtotal]
// regardless of the remote answer. Transport and decode failures are returned
// as ErrUnavailable so callers can surface them without touching cart state.
func (v *HTTPValidator) Validate(ctx context.Context, code string, vendorSubtotal decimal.Decimal, vendorID string) (*Applied, error) {
	body, err := json.Marshal(validateRequest{
		Code:     code,
		Subtotal: vendorSubtotal,
		VendorID: vendorID,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encode validate request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/validate", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build validate request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(ErrUnavailable, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrUnavailable, "status %d", resp.StatusCode)
	}

	var decoded validateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errors.Wrap(ErrUnavailable, err.Error())
	}

	applied := &Applied{
		VendorID:      vendorID,
		Code:          decoded.Code,
		Applicable:    decoded.IsApplicable,
		DiscountValue: clamp(decoded.DiscountValue, vendorSubtotal),
		Display:       decoded.DiscountDisplay,
		ErrorMessage:  decoded.ErrorMessage,
	}
	if applied.Code == "" {
		applied.Code = code
	}
	if !applied.Applicable {
		applied.DiscountValue = decimal.Zero
		if applied.ErrorMessage == "" {
			applied.ErrorMessage = ErrRejected.Error()
		}
	}

	return applied, nil
}
