package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// ResolveDiscount computes the single applicable discount for one line item.
//
// The rule and the deal are evaluated independently: the rule against its own
// eligibility thresholds and validity window at the given instant, the deal
// unconditionally. When both contribute, each part is clamped to the base
// price before summing and the sum is clamped again, so a combined discount
// can never exceed 100% of the base price.
//
// The current time is an explicit parameter rather than a hidden clock read,
// so callers control the only time-dependent input and the function stays
// reproducible.
func ResolveDiscount(basePrice decimal.Decimal, quantity int, rule *DiscountRule, deal *Deal, now time.Time) Applied {
	if basePrice.IsNegative() {
		basePrice = zero
	}

	var (
		ruleAmount = zero
		dealAmount = zero
	)
	if rule != nil && rule.eligible(basePrice, quantity, now) {
		ruleAmount = rule.amount(basePrice)
	}
	if deal != nil {
		dealAmount = deal.amount(basePrice)
	}

	ruleOn := ruleAmount.IsPositive()
	dealOn := dealAmount.IsPositive()

	switch {
	case ruleOn && dealOn:
		return Applied{
			Applicable:    true,
			DiscountValue: clampTo(ruleAmount.Add(dealAmount), basePrice),
			DealValue:     dealAmount,
			Source:        SourceCombined,
			Display:       rule.display(basePrice) + " + " + deal.Token(),
		}
	case ruleOn:
		return Applied{
			Applicable:    true,
			DiscountValue: ruleAmount,
			Source:        SourceDiscount,
			Display:       rule.display(basePrice),
		}
	case dealOn:
		return Applied{
			Applicable:    true,
			DiscountValue: dealAmount,
			DealValue:     dealAmount,
			Source:        SourceDeal,
			Display:       deal.Token(),
		}
	default:
		return Applied{}
	}
}

// ResolveFinalPrice derives the unit price from the base price and a resolved
// discount, floored at zero.
func ResolveFinalPrice(basePrice decimal.Decimal, applied Applied) decimal.Decimal {
	return floorAtZero(basePrice.Sub(applied.DiscountValue))
}

// eligible reports whether the rule's thresholds and validity window are all
// satisfied for the given line at the given instant.
func (r *DiscountRule) eligible(basePrice decimal.Decimal, quantity int, now time.Time) bool {
	if r.MinQuantity > 0 && quantity < r.MinQuantity {
		return false
	}
	if r.MinSpend.IsPositive() {
		spend := basePrice.Mul(decimal.NewFromInt(int64(quantity)))
		if spend.LessThan(r.MinSpend) {
			return false
		}
	}
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && now.After(*r.ValidUntil) {
		return false
	}
	if len(r.Weekdays) > 0 {
		day := now.Weekday()
		ok := false
		for _, wd := range r.Weekdays {
			if wd == day {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	return true
}

// amount computes the rule's per-unit savings for the given base price,
// clamped into [0, basePrice]. PercentOff wins when both fields are set;
// a rule with neither field contributes nothing.
func (r *DiscountRule) amount(basePrice decimal.Decimal) decimal.Decimal {
	switch {
	case r.PercentOff.IsPositive():
		return clampTo(basePrice.Mul(r.PercentOff).Div(hundred).Round(2), basePrice)
	case r.AmountOff.IsPositive():
		return clampTo(r.AmountOff.Round(2), basePrice)
	default:
		return zero
	}
}

// display renders the rule for humans: "10%" for percentage rules, "$8" for
// flat rules.
func (r *DiscountRule) display(basePrice decimal.Decimal) string {
	if r.PercentOff.IsPositive() {
		return r.PercentOff.String() + "%"
	}
	return "$" + clampTo(r.AmountOff, basePrice).String()
}
