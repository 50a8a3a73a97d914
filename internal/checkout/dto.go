package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kitarena/kitarena-backend/internal/payments"
	"github.com/kitarena/kitarena-backend/internal/pricing"
	"github.com/kitarena/kitarena-backend/pkg/enums"
	"github.com/kitarena/kitarena-backend/pkg/types"
)

// Actor identifies the authenticated customer running the checkout.
type Actor struct {
	UserID   uuid.UUID
	Role     enums.UserRole
	Email    string
	Language enums.Language
}

// CustomizationInput is the raw personalization selected on the storefront.
// Patch codes are resolved against the catalog before pricing.
type CustomizationInput struct {
	PlayerName    string   `json:"player_name,omitempty"`
	PlayerNumber  string   `json:"player_number,omitempty"`
	Size          string   `json:"size,omitempty"`
	IncludeShorts bool     `json:"include_shorts,omitempty"`
	IncludeSocks  bool     `json:"include_socks,omitempty"`
	PatchCodes    []string `json:"patch_codes,omitempty"`
}

// LineInput is one unpriced cart line as submitted by the client. Prices are
// always re-derived server side from the catalog.
type LineInput struct {
	ProductID     uuid.UUID           `json:"product_id"`
	Quantity      int                 `json:"quantity"`
	Customization *CustomizationInput `json:"customization,omitempty"`
}

// QuoteInput prices a cart without touching any provider.
type QuoteInput struct {
	Items      []LineInput `json:"items"`
	CouponCode string      `json:"coupon_code,omitempty"`
}

// BeginInput starts a checkout: price the cart, create a provider intent and
// snapshot the resolved lines for later reconciliation.
type BeginInput struct {
	Items           []LineInput           `json:"items"`
	CouponCode      string                `json:"coupon_code,omitempty"`
	Provider        enums.PaymentProvider `json:"provider"`
	ShippingAddress types.Address         `json:"shipping_address"`
	RedirectURL     string                `json:"redirect_url,omitempty"`
}

// Quote is a pricing preview for the storefront cart page.
type Quote struct {
	Items     []types.CartItem  `json:"items"`
	Breakdown pricing.Breakdown `json:"breakdown"`
	Currency  enums.Currency    `json:"currency"`
}

// BeginResult hands the client everything needed to complete payment.
type BeginResult struct {
	Intent    *payments.Intent  `json:"intent"`
	Breakdown pricing.Breakdown `json:"breakdown"`
	Amount    decimal.Decimal   `json:"amount"`
	Currency  enums.Currency    `json:"currency"`
}
