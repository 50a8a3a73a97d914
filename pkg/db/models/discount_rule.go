package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	dbtypes "github.com/kitarena/kitarena-backend/pkg/db/types"
	"github.com/kitarena/kitarena-backend/pkg/enums"
)

// DiscountRule is an admin-defined conditional price adjustment evaluated
// against cart contents. Rules apply in descending priority order.
type DiscountRule struct {
	ID                   uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                 string             `gorm:"column:name;not null"`
	Type                 enums.DiscountType `gorm:"column:type;type:text;not null"`
	IsActive             bool               `gorm:"column:is_active;not null"`
	Priority             int                `gorm:"column:priority;not null;default:0"`
	ExpiresAt            *time.Time         `gorm:"column:expires_at"`
	MaxUses              *int               `gorm:"column:max_uses"`
	CurrentUses          int                `gorm:"column:current_uses;not null;default:0"`
	MinQuantity          *int               `gorm:"column:min_quantity"`
	MaxQuantity          *int               `gorm:"column:max_quantity"`
	DiscountPercentage   *decimal.Decimal   `gorm:"column:discount_percentage;type:numeric(5,2)"`
	DiscountAmount       *decimal.Decimal   `gorm:"column:discount_amount;type:numeric(10,2)"`
	BuyQuantity          *int               `gorm:"column:buy_quantity"`
	GetFreeQuantity      *int               `gorm:"column:get_free_quantity"`
	FreeProductIDs       dbtypes.UUIDArray  `gorm:"column:free_product_ids;not null"`
	ApplicableProductIDs dbtypes.UUIDArray  `gorm:"column:applicable_product_ids;not null"`
	ExcludedProductIDs   dbtypes.UUIDArray  `gorm:"column:excluded_product_ids;not null"`
	ApplicableCategories pq.StringArray     `gorm:"column:applicable_categories;type:text[]"`
	CreatedAt            time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
