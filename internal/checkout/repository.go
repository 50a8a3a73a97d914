package checkout

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kitarena/kitarena-backend/pkg/db/models"
)

// Repository persists the checkout snapshots consulted at webhook time.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateSnapshot(ctx context.Context, details *models.OrderDetails) (*models.OrderDetails, error)
	FindSnapshotByIntent(ctx context.Context, paymentIntentID string) (*models.OrderDetails, error)
	DeleteSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a checkout snapshot repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateSnapshot(ctx context.Context, details *models.OrderDetails) (*models.OrderDetails, error) {
	if err := r.db.WithContext(ctx).Create(details).Error; err != nil {
		return nil, err
	}
	return details, nil
}

func (r *repository) FindSnapshotByIntent(ctx context.Context, paymentIntentID string) (*models.OrderDetails, error) {
	var details models.OrderDetails
	err := r.db.WithContext(ctx).
		Where("payment_intent_id = ?", paymentIntentID).
		First(&details).Error
	if err != nil {
		return nil, err
	}
	return &details, nil
}

// DeleteSnapshotsBefore removes stale snapshots whose payment never
// completed. Confirmed intents live on through the orders table.
func (r *repository) DeleteSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.OrderDetails{})
	return result.RowsAffected, result.Error
}
