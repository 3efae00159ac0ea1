// Package promotion defines the vendor-scoped promotion code contract: the
// applied-promotion value stored in the cart's ledger and the validator
// boundary that decides whether a code applies to a vendor subtotal.
package promotion

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrRejected is returned when the promotion service reports the code as
	// not applicable. The cart ledger is left untouched.
	ErrRejected = errors.New("promotion rejected")
	// ErrUnavailable is returned when the promotion service cannot be reached
	// or returns a malformed answer. Reported as a result, never allowed to
	// corrupt cart state.
	ErrUnavailable = errors.New("promotion service unavailable")
	// ErrUnknownCode is returned when the local prefilter proves the code
	// cannot exist, skipping the remote round trip entirely.
	ErrUnknownCode = errors.New("unknown promotion code")
)

// Applied is a validated promotion for one vendor group. At most one Applied
// exists per vendor at any time; applying a new code replaces the previous
// one for that vendor and vendors never share promotions.
type Applied struct {
	VendorID string
	Code     string
	// Applicable reports whether the promotion service accepted the code.
	Applicable bool
	// DiscountValue is the discount against the vendor subtotal at the time
	// of application, clamped into [0, subtotal] before storage.
	DiscountValue decimal.Decimal
	// Display is a human-readable rendering of the discount.
	Display string
	// ErrorMessage carries the rejection reason when Applicable is false.
	ErrorMessage string
}

// Validator decides whether a promotion code applies to a vendor's subtotal.
// Implementations call an external service; the returned Applied is already
// normalized and defensively clamped.
type Validator interface {
	Validate(ctx context.Context, code string, vendorSubtotal decimal.Decimal, vendorID string) (*Applied, error)
}

// clamp forces v into [0, limit]. The remote service's answer is trusted for
// applicability but never for magnitude.
func clamp(v, limit decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(v, limit)
}
