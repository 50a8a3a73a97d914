package models

import (
	"time"

	"github.com/google/uuid"
)

// Coupon is a single-use-per-order percentage code gated to premium/admin
// accounts. Codes are normalized to uppercase before storage.
type Coupon struct {
	ID                 uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code               string    `gorm:"column:code;not null;uniqueIndex"`
	DiscountPercentage int       `gorm:"column:discount_percentage;not null"`
	ExpiresAt          time.Time `gorm:"column:expires_at;not null"`
	IsActive           bool      `gorm:"column:is_active;not null"`
	MaxUses            *int      `gorm:"column:max_uses"`
	CurrentUses        int       `gorm:"column:current_uses;not null;default:0"`
	Description        string    `gorm:"column:description;not null;default:''"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
