package discounts

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kitarena/kitarena-backend/pkg/db/models"
)

// Repository defines persistence operations for discount rules.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, rule *models.DiscountRule) (*models.DiscountRule, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.DiscountRule, error)
	List(ctx context.Context) ([]models.DiscountRule, error)
	ListActive(ctx context.Context) ([]models.DiscountRule, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error)
}
