package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/kitarena/kitarena-backend/pkg/db/types"
	"github.com/kitarena/kitarena-backend/pkg/enums"
	"github.com/kitarena/kitarena-backend/pkg/types"
)

// OrderDetails is the fully-resolved checkout snapshot written when a payment
// intent is created and consulted when the provider confirms the payment. It
// is keyed by the provider's intent id so webhook handling never trusts
// client-supplied line data.
type OrderDetails struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentIntentID string                `gorm:"column:payment_intent_id;not null;uniqueIndex"`
	Provider        enums.PaymentProvider `gorm:"column:provider;type:text;not null"`
	UserID          uuid.UUID             `gorm:"column:user_id;type:uuid;not null"`
	Email           string                `gorm:"column:email;not null"`
	Language        enums.Language        `gorm:"column:language;type:text;not null;default:'it'"`
	Amount          decimal.Decimal       `gorm:"column:amount;type:numeric(10,2);not null"`
	Currency        enums.Currency        `gorm:"column:currency;type:text;not null;default:'EUR'"`
	CouponID        *uuid.UUID            `gorm:"column:coupon_id;type:uuid"`
	CouponCode      *string               `gorm:"column:coupon_code"`
	AppliedRuleIDs  dbtypes.UUIDArray     `gorm:"column:applied_rule_ids;not null"`
	Items           []types.LineSnapshot  `gorm:"column:items;type:jsonb;serializer:json"`
	ShippingAddress types.Address         `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
}
