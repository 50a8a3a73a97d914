package coupons

import (
	"time"

	"github.com/google/uuid"
)

// Validation is the outcome of checking a coupon code for a checkout.
type Validation struct {
	CouponID           uuid.UUID `json:"coupon_id"`
	Code               string    `json:"code"`
	DiscountPercentage int       `json:"discount_percentage"`
}

// CreateCouponInput carries admin input for a new coupon.
type CreateCouponInput struct {
	Code               string    `json:"code"`
	DiscountPercentage int       `json:"discount_percentage"`
	ExpiresAt          time.Time `json:"expires_at"`
	MaxUses            *int      `json:"max_uses,omitempty"`
	Description        string    `json:"description,omitempty"`
}

// UpdateCouponInput carries partial admin edits for an existing coupon.
type UpdateCouponInput struct {
	DiscountPercentage *int       `json:"discount_percentage,omitempty"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	IsActive           *bool      `json:"is_active,omitempty"`
	MaxUses            *int       `json:"max_uses,omitempty"`
	Description        *string    `json:"description,omitempty"`
}
