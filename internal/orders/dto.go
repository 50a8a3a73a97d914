package orders

import (
	"github.com/google/uuid"

	"github.com/kitarena/kitarena-backend/pkg/db/models"
	"github.com/kitarena/kitarena-backend/pkg/enums"
)

// Actor identifies who is operating on an order. Ownership checks compare
// UserID; admin bypasses them.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// ListFilters narrows an order listing.
type ListFilters struct {
	UserID *uuid.UUID
	Status *enums.OrderStatus
}

// OrderList is one page of order results.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
	HasMore    bool           `json:"has_more"`
}
