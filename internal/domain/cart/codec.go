package cart

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/leafmart/cartd/internal/domain/pricing"
	"github.com/leafmart/cartd/internal/domain/promotion"
)

// The persisted representation is two independent JSON blobs: the item list
// and the vendor->promotion ledger. Derived fields (price, applied discount)
// are deliberately not written; hydration recomputes them, so a stale
// persisted price can never leak back into the cart.

func encodeItems(items []*LineItem) []byte {
	var e jx.Encoder
	e.Arr(func(e *jx.Encoder) {
		for _, it := range items {
			encodeItem(e, it)
		}
	})
	return e.Bytes()
}

func encodeItem(e *jx.Encoder, it *LineItem) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(it.ID) })
		e.Field("productId", func(e *jx.Encoder) { e.Str(it.ProductID) })
		e.Field("vendorId", func(e *jx.Encoder) { e.Str(it.VendorID) })
		e.Field("vendorName", func(e *jx.Encoder) { e.Str(it.VendorName) })
		e.Field("productName", func(e *jx.Encoder) { e.Str(it.ProductName) })
		if it.Variant != "" {
			e.Field("variant", func(e *jx.Encoder) { e.Str(it.Variant) })
		}
		if it.Flavor != "" {
			e.Field("flavor", func(e *jx.Encoder) { e.Str(it.Flavor) })
		}
		e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
		e.Field("basePrice", func(e *jx.Encoder) { e.Str(it.BasePrice.String()) })
		if it.Rule != nil {
			e.Field("rule", func(e *jx.Encoder) { encodeRule(e, it.Rule) })
		}
		if it.Deal != nil {
			e.Field("deal", func(e *jx.Encoder) { e.Str(it.Deal.Token()) })
		}
	})
}

func encodeRule(e *jx.Encoder, r *pricing.DiscountRule) {
	e.Obj(func(e *jx.Encoder) {
		if r.AmountOff.IsPositive() {
			e.Field("amountOff", func(e *jx.Encoder) { e.Str(r.AmountOff.String()) })
		}
		if r.PercentOff.IsPositive() {
			e.Field("percentOff", func(e *jx.Encoder) { e.Str(r.PercentOff.String()) })
		}
		if r.MinQuantity > 0 {
			e.Field("minQuantity", func(e *jx.Encoder) { e.Int(r.MinQuantity) })
		}
		if r.MinSpend.IsPositive() {
			e.Field("minSpend", func(e *jx.Encoder) { e.Str(r.MinSpend.String()) })
		}
		if r.ValidFrom != nil {
			e.Field("validFrom", func(e *jx.Encoder) { e.Str(r.ValidFrom.Format(time.RFC3339Nano)) })
		}
		if r.ValidUntil != nil {
			e.Field("validUntil", func(e *jx.Encoder) { e.Str(r.ValidUntil.Format(time.RFC3339Nano)) })
		}
		if len(r.Weekdays) > 0 {
			e.Field("weekdays", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, wd := range r.Weekdays {
						e.Int(int(wd))
					}
				})
			})
		}
	})
}

func decodeItems(blob []byte) ([]*LineItem, error) {
	d := jx.DecodeBytes(blob)

	var items []*LineItem
	err := d.Arr(func(d *jx.Decoder) error {
		it, err := decodeItem(d)
		if err != nil {
			return err
		}
		if it.Quantity <= 0 {
			// Zero-quantity items are never stored; drop defensively.
			return nil
		}
		items = append(items, it)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode cart items")
	}
	return items, nil
}

func decodeItem(d *jx.Decoder) (*LineItem, error) {
	it := &LineItem{}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			it.ID, err = d.Str()
		case "productId":
			it.ProductID, err = d.Str()
		case "vendorId":
			it.VendorID, err = d.Str()
		case "vendorName":
			it.VendorName, err = d.Str()
		case "productName":
			it.ProductName, err = d.Str()
		case "variant":
			it.Variant, err = d.Str()
		case "flavor":
			it.Flavor, err = d.Str()
		case "quantity":
			it.Quantity, err = d.Int()
		case "basePrice":
			it.BasePrice, err = decodeDecimal(d)
		case "rule":
			it.Rule, err = decodeRule(d)
		case "deal":
			var token string
			token, err = d.Str()
			if err == nil {
				it.Deal, err = pricing.ParseDeal(token)
			}
		default:
			// Display-only fields from older writers are ignored.
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if it.ID == "" || it.ProductID == "" || it.VendorID == "" {
		return nil, errors.New("line item missing required fields")
	}
	if it.BasePrice.IsNegative() {
		return nil, errors.New("line item has negative base price")
	}
	return it, nil
}

func decodeRule(d *jx.Decoder) (*pricing.DiscountRule, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}

	r := &pricing.DiscountRule{}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "amountOff":
			r.AmountOff, err = decodeDecimal(d)
		case "percentOff":
			r.PercentOff, err = decodeDecimal(d)
		case "minQuantity":
			r.MinQuantity, err = d.Int()
		case "minSpend":
			r.MinSpend, err = decodeDecimal(d)
		case "validFrom":
			r.ValidFrom, err = decodeTime(d)
		case "validUntil":
			r.ValidUntil, err = decodeTime(d)
		case "weekdays":
			err = d.Arr(func(d *jx.Decoder) error {
				n, err := d.Int()
				if err != nil {
					return err
				}
				r.Weekdays = append(r.Weekdays, time.Weekday(n))
				return nil
			})
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func encodePromotions(promos map[string]*promotion.Applied) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		for vendorID, p := range promos {
			e.Field(vendorID, func(e *jx.Encoder) { encodePromotion(e, p) })
		}
	})
	return e.Bytes()
}

func encodePromotion(e *jx.Encoder, p *promotion.Applied) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Str(p.Code) })
		e.Field("isApplicable", func(e *jx.Encoder) { e.Bool(p.Applicable) })
		e.Field("discountValue", func(e *jx.Encoder) { e.Str(p.DiscountValue.String()) })
		e.Field("discountDisplay", func(e *jx.Encoder) { e.Str(p.Display) })
		if p.ErrorMessage != "" {
			e.Field("errorMessage", func(e *jx.Encoder) { e.Str(p.ErrorMessage) })
		}
	})
}

func decodePromotions(blob []byte) (map[string]*promotion.Applied, error) {
	d := jx.DecodeBytes(blob)

	promos := make(map[string]*promotion.Applied)
	err := d.Obj(func(d *jx.Decoder, vendorID string) error {
		p, err := decodePromotion(d, vendorID)
		if err != nil {
			return err
		}
		promos[vendorID] = p
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode promotions")
	}
	return promos, nil
}

func decodePromotion(d *jx.Decoder, vendorID string) (*promotion.Applied, error) {
	p := &promotion.Applied{VendorID: vendorID}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "code":
			p.Code, err = d.Str()
		case "isApplicable":
			p.Applicable, err = d.Bool()
		case "discountValue":
			p.DiscountValue, err = decodeDecimal(d)
		case "discountDisplay":
			p.Display, err = d.Str()
		case "errorMessage":
			p.ErrorMessage, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	s, err := d.Str()
	if err != nil {
		return decimal.Zero, err
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "parse decimal %q", s)
	}
	return v, nil
}

func decodeTime(d *jx.Decoder) (*time.Time, error) {
	s, err := d.Str()
	if err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, errors.Wrapf(err, "parse time %q", s)
	}
	return &t, nil
}
