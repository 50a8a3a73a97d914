package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kitarena/kitarena-backend/pkg/enums"
	"github.com/kitarena/kitarena-backend/pkg/types"
)

// Order is the persisted result of a confirmed payment. Amount is
// authoritative from creation time and never recomputed.
type Order struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	Status          enums.OrderStatus     `gorm:"column:status;type:text;not null;default:'pending'"`
	Amount          decimal.Decimal       `gorm:"column:amount;type:numeric(10,2);not null"`
	Currency        enums.Currency        `gorm:"column:currency;type:text;not null;default:'EUR'"`
	ShippingAddress types.Address         `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	Provider        enums.PaymentProvider `gorm:"column:provider;type:text;not null"`
	PaymentIntentID string                `gorm:"column:payment_intent_id;not null;uniqueIndex:idx_orders_payment_intent_id"`
	// ProviderReference is what refunds are issued against. For PayPal it is
	// the capture id, which differs from the order id in PaymentIntentID.
	ProviderReference string      `gorm:"column:provider_reference;not null"`
	CouponCode        *string     `gorm:"column:coupon_code"`
	TrackingCode      *string     `gorm:"column:tracking_code"`
	Refunded          bool        `gorm:"column:refunded;not null;default:false"`
	RefundedAt        *time.Time  `gorm:"column:refunded_at"`
	RefundReference   *string     `gorm:"column:refund_reference"`
	CancelledAt       *time.Time  `gorm:"column:cancelled_at"`
	CancelledBy       *uuid.UUID  `gorm:"column:cancelled_by;type:uuid"`
	Items             []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is one priced line on an order, customization included.
type OrderItem struct {
	ID            uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID     *uuid.UUID           `gorm:"column:product_id;type:uuid"`
	Name          string               `gorm:"column:name;not null"`
	UnitPrice     decimal.Decimal      `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Quantity      int                  `gorm:"column:quantity;not null"`
	Customization *types.Customization `gorm:"column:customization;type:jsonb;serializer:json"`
	CreatedAt     time.Time            `gorm:"column:created_at;autoCreateTime"`
}
