package products

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kitarena/kitarena-backend/pkg/db/models"
)

// ListFilters narrows public catalog listings.
type ListFilters struct {
	Category   string
	TeamID     *uuid.UUID
	Search     string
	OnlyActive bool
}

// ProductList is one page of catalog results.
type ProductList struct {
	Products   []models.Product `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
	HasMore    bool             `json:"has_more"`
}

// CreateProductInput carries admin input for a new listing.
type CreateProductInput struct {
	Slug          string           `json:"slug"`
	Name          string           `json:"name"`
	Description   *string          `json:"description,omitempty"`
	TeamID        *uuid.UUID       `json:"team_id,omitempty"`
	Category      string           `json:"category,omitempty"`
	Price         decimal.Decimal  `json:"price"`
	ShippingPrice *decimal.Decimal `json:"shipping_price,omitempty"`
	StockQuantity int              `json:"stock_quantity"`
	ImageURL      *string          `json:"image_url,omitempty"`
}

// UpdateProductInput carries partial admin edits for a listing.
type UpdateProductInput struct {
	Name          *string          `json:"name,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Category      *string          `json:"category,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	ShippingPrice *decimal.Decimal `json:"shipping_price,omitempty"`
	StockQuantity *int             `json:"stock_quantity,omitempty"`
	ImageURL      *string          `json:"image_url,omitempty"`
	IsActive      *bool            `json:"is_active,omitempty"`
}
