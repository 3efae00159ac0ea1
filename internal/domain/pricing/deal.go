package pricing

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DealKind discriminates the two deal variants.
type DealKind string

const (
	// DealPercent takes a percentage off the base price.
	DealPercent DealKind = "percent"
	// DealAmount takes a flat amount off the base price.
	DealAmount DealKind = "amount"
)

// ErrInvalidDeal is returned when a deal token cannot be parsed.
var ErrInvalidDeal = errors.New("invalid deal token")

// Deal is an inline per-product discount, decided once at ingestion. Unlike a
// DiscountRule it carries no eligibility conditions: it is either present on
// the item or it is not.
type Deal struct {
	Kind  DealKind
	Value decimal.Decimal
}

// ParseDeal parses a compact deal token into its tagged form. Supported
// shapes: "$5" (flat amount), "10%" (percent), and a bare number such as
// "10", which is treated as a percent. Parsing happens once when the item
// enters the cart; recomputation works on the parsed Deal.
func ParseDeal(token string) (*Deal, error) {
	s := strings.TrimSpace(token)
	if s == "" {
		return nil, errors.Wrap(ErrInvalidDeal, "empty token")
	}

	kind := DealPercent
	switch {
	case strings.HasPrefix(s, "$"):
		kind = DealAmount
		s = strings.TrimSpace(s[1:])
	case strings.HasSuffix(s, "%"):
		s = strings.TrimSpace(s[:len(s)-1])
	}

	v, err := decimal.NewFromString(s)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidDeal, "parse %q", token)
	}
	if v.IsNegative() {
		return nil, errors.Wrapf(ErrInvalidDeal, "negative value %q", token)
	}

	return &Deal{Kind: kind, Value: v}, nil
}

// Token renders the deal back to its compact string form, the inverse of
// ParseDeal for the canonical shapes.
func (d *Deal) Token() string {
	if d.Kind == DealAmount {
		return "$" + d.Value.String()
	}
	return d.Value.String() + "%"
}

// amount computes the deal's per-unit savings for the given base price,
// clamped into [0, basePrice].
func (d *Deal) amount(basePrice decimal.Decimal) decimal.Decimal {
	var raw decimal.Decimal
	switch d.Kind {
	case DealAmount:
		raw = d.Value
	case DealPercent:
		raw = basePrice.Mul(d.Value).Div(hundred)
	default:
		return zero
	}
	return clampTo(raw.Round(2), basePrice)
}
