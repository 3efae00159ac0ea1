// Package cart owns the ordered collection of cart line items and the
// per-vendor promotion ledger. Every mutation re-resolves discounts through
// the pricing engine and synchronously persists the full state, so a line
// item's price is always a pure function of its base price, quantity,
// discount rule and deal.
package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/leafmart/cartd/internal/domain/pricing"
	"github.com/leafmart/cartd/internal/domain/promotion"
)

var (
	// ErrInvalidQuantity is returned when an item is added with a
	// non-positive quantity. Note that SetQuantity treats non-positive
	// quantities as removal, not as an error.
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	// ErrNotFound is returned by storage implementations when a key has no
	// value.
	ErrNotFound = errors.New("key not found")
)

// Storage is the persistence port for cart blobs: a durable key-value store
// with no further semantics. Implementations live in internal/storage.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// LineItem is one entry in the cart. BasePrice is the source of truth;
// Applied and Price are caches recomputed from the other fields on every
// mutation and on hydration, never mutated directly.
type LineItem struct {
	ID          string
	ProductID   string
	VendorID    string
	VendorName  string
	ProductName string
	Variant     string
	Flavor      string
	Quantity    int
	BasePrice   decimal.Decimal
	Rule        *pricing.DiscountRule
	Deal        *pricing.Deal

	// Applied and Price are derived. Price always equals
	// ResolveFinalPrice(BasePrice, Applied).
	Applied pricing.Applied
	Price   decimal.Decimal
}

// sameProduct reports whether two line items refer to the same purchasable
// thing: same product from the same vendor in the same variant and flavor.
// The store never holds two items that match by this key.
func (it *LineItem) sameProduct(other *LineItem) bool {
	return it.ProductID == other.ProductID &&
		it.VendorID == other.VendorID &&
		it.Variant == other.Variant &&
		it.Flavor == other.Flavor
}

// LineSubtotal is the pre-discount line total: base price times quantity.
func (it *LineItem) LineSubtotal() decimal.Decimal {
	return it.BasePrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// LineDiscount is the per-line savings from the resolved discount.
func (it *LineItem) LineDiscount() decimal.Decimal {
	return it.Applied.DiscountValue.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Snapshot is an immutable copy of the store's state, the input to all
// aggregation. Promotions maps vendor ID to that vendor's single applied
// promotion.
type Snapshot struct {
	Items      []LineItem
	Promotions map[string]promotion.Applied
}
