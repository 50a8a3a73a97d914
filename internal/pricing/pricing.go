// Package pricing combines line items, discount rule adjustments and an
// optional coupon into the final payable amount. The computed total is
// persisted on the order and never recomputed afterwards.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/kitarena/kitarena-backend/internal/discounts"
	"github.com/kitarena/kitarena-backend/pkg/types"
)

var hundred = decimal.NewFromInt(100)

// Breakdown itemizes how the payable amount was reached.
type Breakdown struct {
	Subtotal           decimal.Decimal             `json:"subtotal"`
	RuleDiscounts      []discounts.AppliedDiscount `json:"rule_discounts,omitempty"`
	RuleDiscountTotal  decimal.Decimal             `json:"rule_discount_total"`
	DiscountedSubtotal decimal.Decimal             `json:"discounted_subtotal"`
	CouponCode         string                      `json:"coupon_code,omitempty"`
	CouponPercentage   int                         `json:"coupon_percentage,omitempty"`
	CouponDiscount     decimal.Decimal             `json:"coupon_discount"`
	Shipping           decimal.Decimal             `json:"shipping"`
	Total              decimal.Decimal             `json:"total"`
}

// Coupon carries the validated coupon applied to a quote.
type Coupon struct {
	Code               string
	DiscountPercentage int
}

// Subtotal sums unit price times quantity across the cart.
func Subtotal(items []types.CartItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return subtotal
}

// Shipping sums per-product shipping prices. Shipping is not discountable.
func Shipping(items []types.CartItem) decimal.Decimal {
	shipping := decimal.Zero
	for _, item := range items {
		shipping = shipping.Add(item.ShippingPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return shipping
}

// ComputeTotal applies rule discounts (floored at zero), then the coupon
// multiplier, then adds shipping, and rounds half-up to two decimals.
func ComputeTotal(items []types.CartItem, ruleDiscounts []discounts.AppliedDiscount, coupon *Coupon) Breakdown {
	subtotal := Subtotal(items)

	ruleTotal := decimal.Zero
	for _, applied := range ruleDiscounts {
		ruleTotal = ruleTotal.Add(applied.Amount)
	}

	afterRules := subtotal.Sub(ruleTotal)
	if afterRules.IsNegative() {
		afterRules = decimal.Zero
	}

	breakdown := Breakdown{
		Subtotal:           subtotal,
		RuleDiscounts:      ruleDiscounts,
		RuleDiscountTotal:  ruleTotal,
		DiscountedSubtotal: afterRules,
		CouponDiscount:     decimal.Zero,
		Shipping:           Shipping(items),
	}

	afterCoupon := afterRules
	if coupon != nil && coupon.DiscountPercentage > 0 {
		multiplier := hundred.Sub(decimal.NewFromInt(int64(coupon.DiscountPercentage))).Div(hundred)
		afterCoupon = afterRules.Mul(multiplier)
		breakdown.CouponCode = coupon.Code
		breakdown.CouponPercentage = coupon.DiscountPercentage
		breakdown.CouponDiscount = afterRules.Sub(afterCoupon)
	}

	breakdown.Total = afterCoupon.Add(breakdown.Shipping).Round(2)
	return breakdown
}
