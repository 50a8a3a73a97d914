package discounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kitarena/kitarena-backend/pkg/enums"
)

// CreateRuleInput carries admin input for a new discount rule.
type CreateRuleInput struct {
	Name                 string             `json:"name"`
	Type                 enums.DiscountType `json:"type"`
	IsActive             *bool              `json:"is_active,omitempty"`
	Priority             int                `json:"priority"`
	ExpiresAt            *time.Time         `json:"expires_at,omitempty"`
	MaxUses              *int               `json:"max_uses,omitempty"`
	MinQuantity          *int               `json:"min_quantity,omitempty"`
	MaxQuantity          *int               `json:"max_quantity,omitempty"`
	DiscountPercentage   *decimal.Decimal   `json:"discount_percentage,omitempty"`
	DiscountAmount       *decimal.Decimal   `json:"discount_amount,omitempty"`
	BuyQuantity          *int               `json:"buy_quantity,omitempty"`
	GetFreeQuantity      *int               `json:"get_free_quantity,omitempty"`
	FreeProductIDs       []uuid.UUID        `json:"free_product_ids,omitempty"`
	ApplicableProductIDs []uuid.UUID        `json:"applicable_product_ids,omitempty"`
	ExcludedProductIDs   []uuid.UUID        `json:"excluded_product_ids,omitempty"`
	ApplicableCategories []string           `json:"applicable_categories,omitempty"`
}

// UpdateRuleInput carries partial admin edits for an existing rule.
type UpdateRuleInput struct {
	Name               *string          `json:"name,omitempty"`
	IsActive           *bool            `json:"is_active,omitempty"`
	Priority           *int             `json:"priority,omitempty"`
	ExpiresAt          *time.Time       `json:"expires_at,omitempty"`
	MaxUses            *int             `json:"max_uses,omitempty"`
	MinQuantity        *int             `json:"min_quantity,omitempty"`
	MaxQuantity        *int             `json:"max_quantity,omitempty"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage,omitempty"`
	DiscountAmount     *decimal.Decimal `json:"discount_amount,omitempty"`
}
