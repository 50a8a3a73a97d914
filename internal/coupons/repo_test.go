package coupons

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kitarena/kitarena-backend/pkg/db/models"
)

func setupCouponsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS coupons (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  discount_percentage INTEGER NOT NULL,
  expires_at DATETIME NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  max_uses INTEGER,
  current_uses INTEGER NOT NULL DEFAULT 0,
  description TEXT NOT NULL DEFAULT '',
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedCoupon(t *testing.T, db *gorm.DB, coupon *models.Coupon) *models.Coupon {
	t.Helper()
	if coupon.ID == uuid.Nil {
		coupon.ID = uuid.New()
	}
	require.NoError(t, db.Create(coupon).Error)
	return coupon
}

func TestRedeemConsumesSingleUse(t *testing.T) {
	db := setupCouponsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	maxUses := 1
	coupon := seedCoupon(t, db, &models.Coupon{
		Code:               "ONESHOT",
		DiscountPercentage: 15,
		ExpiresAt:          time.Now().Add(time.Hour),
		IsActive:           true,
		MaxUses:            &maxUses,
	})

	redeemed, err := repo.Redeem(ctx, coupon.ID)
	require.NoError(t, err)
	assert.True(t, redeemed)

	redeemed, err = repo.Redeem(ctx, coupon.ID)
	require.NoError(t, err)
	assert.False(t, redeemed)

	stored, err := repo.FindByID(ctx, coupon.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentUses)
}

func TestRedeemRejectsInactiveAndExpired(t *testing.T) {
	db := setupCouponsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	inactive := seedCoupon(t, db, &models.Coupon{
		Code:               "INACTIVE",
		DiscountPercentage: 10,
		ExpiresAt:          time.Now().Add(time.Hour),
		IsActive:           false,
	})
	expired := seedCoupon(t, db, &models.Coupon{
		Code:               "EXPIRED",
		DiscountPercentage: 10,
		ExpiresAt:          time.Now().Add(-time.Hour),
		IsActive:           true,
	})

	redeemed, err := repo.Redeem(ctx, inactive.ID)
	require.NoError(t, err)
	assert.False(t, redeemed)

	redeemed, err = repo.Redeem(ctx, expired.ID)
	require.NoError(t, err)
	assert.False(t, redeemed)
}

func TestCreatePersistsInactiveFlag(t *testing.T) {
	db := setupCouponsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	coupon := seedCoupon(t, db, &models.Coupon{
		Code:               "DORMANT",
		DiscountPercentage: 10,
		ExpiresAt:          time.Now().Add(time.Hour),
		IsActive:           false,
	})

	stored, err := repo.FindByID(ctx, coupon.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}

func TestFindByCode(t *testing.T) {
	db := setupCouponsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seedCoupon(t, db, &models.Coupon{
		Code:               "DERBY10",
		DiscountPercentage: 10,
		ExpiresAt:          time.Now().Add(time.Hour),
		IsActive:           true,
	})

	coupon, err := repo.FindByCode(ctx, "DERBY10")
	require.NoError(t, err)
	assert.Equal(t, 10, coupon.DiscountPercentage)

	_, err = repo.FindByCode(ctx, "MISSING")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
