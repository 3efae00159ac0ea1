// Package catalog is the boundary to the product catalog: the collaborator
// that supplies a product's base price, vendor discount rule, and deal token
// at the moment it is added to the cart.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/leafmart/cartd/internal/domain/pricing"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog item as seen by the cart: identity, pricing inputs,
// and the display fields carried onto the line item.
type Product struct {
	ID         string
	Name       string
	VendorID   string
	VendorName string
	Category   string
	BasePrice  decimal.Decimal
	// Rule is the vendor-defined discount rule, nil when the product has none.
	Rule *pricing.DiscountRule
	// DealToken is the raw inline deal shorthand ("$5", "10%"), empty when
	// the product has none. Parsed once when the product enters a cart.
	DealToken string
}

// Repository defines read operations over the product catalog.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
	ListByVendor(ctx context.Context, vendorID string) ([]Product, error)
}
