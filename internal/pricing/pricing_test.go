package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitarena/kitarena-backend/internal/discounts"
	"github.com/kitarena/kitarena-backend/pkg/enums"
	"github.com/kitarena/kitarena-backend/pkg/types"
)

func item(price string, qty int, shipping string) types.CartItem {
	return types.CartItem{
		ProductID:     uuid.New(),
		Name:          "away jersey",
		UnitPrice:     decimal.RequireFromString(price),
		Quantity:      qty,
		ShippingPrice: decimal.RequireFromString(shipping),
	}
}

func ruleDiscount(amount string) discounts.AppliedDiscount {
	return discounts.AppliedDiscount{
		RuleID:   uuid.New(),
		RuleName: "promo",
		Type:     enums.DiscountTypePercentage,
		Amount:   decimal.RequireFromString(amount),
	}
}

func TestComputeTotalRulesThenCoupon(t *testing.T) {
	items := []types.CartItem{item("50.00", 2, "0.00")}
	applied := []discounts.AppliedDiscount{ruleDiscount("10.00")}
	coupon := &Coupon{Code: "ESTATE20", DiscountPercentage: 20}

	breakdown := ComputeTotal(items, applied, coupon)

	assert.True(t, breakdown.Subtotal.Equal(decimal.RequireFromString("100.00")))
	assert.True(t, breakdown.DiscountedSubtotal.Equal(decimal.RequireFromString("90.00")))
	assert.True(t, breakdown.CouponDiscount.Equal(decimal.RequireFromString("18.00")), breakdown.CouponDiscount.String())
	assert.True(t, breakdown.Total.Equal(decimal.RequireFromString("72.00")), breakdown.Total.String())
}

func TestComputeTotalFloorsAtZero(t *testing.T) {
	items := []types.CartItem{item("10.00", 1, "0.00")}
	applied := []discounts.AppliedDiscount{ruleDiscount("25.00")}

	breakdown := ComputeTotal(items, applied, nil)
	assert.True(t, breakdown.DiscountedSubtotal.IsZero())
	assert.True(t, breakdown.Total.IsZero())
}

func TestComputeTotalShippingNotDiscounted(t *testing.T) {
	items := []types.CartItem{item("100.00", 1, "7.50")}
	coupon := &Coupon{Code: "HALF", DiscountPercentage: 50}

	breakdown := ComputeTotal(items, nil, coupon)

	assert.True(t, breakdown.Shipping.Equal(decimal.RequireFromString("7.50")))
	assert.True(t, breakdown.Total.Equal(decimal.RequireFromString("57.50")), breakdown.Total.String())
}

func TestComputeTotalRoundsHalfUp(t *testing.T) {
	items := []types.CartItem{item("10.05", 1, "0.00")}
	coupon := &Coupon{Code: "HALF", DiscountPercentage: 50}

	breakdown := ComputeTotal(items, nil, coupon)
	// 5.025 rounds half-up to 5.03.
	assert.True(t, breakdown.Total.Equal(decimal.RequireFromString("5.03")), breakdown.Total.String())
}

func TestComputeTotalNoAdjustments(t *testing.T) {
	items := []types.CartItem{item("30.00", 3, "5.00")}

	breakdown := ComputeTotal(items, nil, nil)
	require.True(t, breakdown.CouponDiscount.IsZero())
	assert.True(t, breakdown.Total.Equal(decimal.RequireFromString("105.00")), breakdown.Total.String())
}
