package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is one priced cart line shared by the discount evaluator and the
// pricing aggregator. UnitPrice already includes customization surcharges.
type CartItem struct {
	ProductID     uuid.UUID       `json:"product_id"`
	Name          string          `json:"name"`
	Category      string          `json:"category,omitempty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	ShippingPrice decimal.Decimal `json:"shipping_price"`
	Customization *Customization  `json:"customization,omitempty"`
}

// LineTotal returns unit price times quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
