package coupons

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kitarena/kitarena-backend/pkg/db"
	"github.com/kitarena/kitarena-backend/pkg/db/models"
	"github.com/kitarena/kitarena-backend/pkg/enums"
	pkgerrors "github.com/kitarena/kitarena-backend/pkg/errors"
	"github.com/kitarena/kitarena-backend/pkg/logger"
)

// Service exposes coupon validation/redemption plus the admin CRUD surface.
type Service interface {
	Validate(ctx context.Context, code string, role enums.UserRole) (*Validation, error)
	Redeem(ctx context.Context, tx *gorm.DB, couponID uuid.UUID) error
	CreateCoupon(ctx context.Context, input CreateCouponInput) (*models.Coupon, error)
	UpdateCoupon(ctx context.Context, id uuid.UUID, input UpdateCouponInput) (*models.Coupon, error)
	DeleteCoupon(ctx context.Context, id uuid.UUID) error
	GetCoupon(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	ListCoupons(ctx context.Context) ([]models.Coupon, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService wires the coupon service with its dependencies.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		repo: repo,
		logg: logg,
		now:  time.Now,
	}, nil
}

// Validate checks a coupon code against role gating, activation, expiry and
// the usage cap. It does not consume a use; Redeem does that at checkout.
func (s *service) Validate(ctx context.Context, code string, role enums.UserRole) (*Validation, error) {
	if !role.CanUseCoupons() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "coupons require a premium account")
	}
	normalized := NormalizeCode(code)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}

	coupon, err := s.repo.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading coupon")
	}
	if !coupon.IsActive || !coupon.ExpiresAt.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	if coupon.MaxUses != nil && coupon.CurrentUses >= *coupon.MaxUses {
		return nil, pkgerrors.New(pkgerrors.CodeUsageExceeded, "coupon usage limit reached")
	}

	return &Validation{
		CouponID:           coupon.ID,
		Code:               coupon.Code,
		DiscountPercentage: coupon.DiscountPercentage,
	}, nil
}

// Redeem consumes one use. The conditional update re-checks availability so a
// coupon exhausted since Validate fails with UsageExceeded instead of
// overshooting the cap.
func (s *service) Redeem(ctx context.Context, tx *gorm.DB, couponID uuid.UUID) error {
	redeemed, err := s.repo.WithTx(tx).Redeem(ctx, couponID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redeeming coupon")
	}
	if !redeemed {
		return pkgerrors.New(pkgerrors.CodeUsageExceeded, "coupon no longer available")
	}
	return nil
}

func (s *service) CreateCoupon(ctx context.Context, input CreateCouponInput) (*models.Coupon, error) {
	normalized := NormalizeCode(input.Code)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if input.DiscountPercentage < 1 || input.DiscountPercentage > 100 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount percentage must be between 1 and 100")
	}
	if !input.ExpiresAt.After(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiry must be in the future")
	}
	if input.MaxUses != nil && *input.MaxUses <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max uses must be positive")
	}

	coupon := &models.Coupon{
		Code:               normalized,
		DiscountPercentage: input.DiscountPercentage,
		ExpiresAt:          input.ExpiresAt,
		IsActive:           true,
		MaxUses:            input.MaxUses,
		Description:        input.Description,
	}
	created, err := s.repo.Create(ctx, coupon)
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("coupon code %s already exists", normalized))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating coupon")
	}
	return created, nil
}

func (s *service) UpdateCoupon(ctx context.Context, id uuid.UUID, input UpdateCouponInput) (*models.Coupon, error) {
	updates := map[string]any{}
	if input.DiscountPercentage != nil {
		if *input.DiscountPercentage < 1 || *input.DiscountPercentage > 100 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount percentage must be between 1 and 100")
		}
		updates["discount_percentage"] = *input.DiscountPercentage
	}
	if input.ExpiresAt != nil {
		if !input.ExpiresAt.After(s.now()) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "expiry must be in the future")
		}
		updates["expires_at"] = *input.ExpiresAt
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.MaxUses != nil {
		if *input.MaxUses <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "max uses must be positive")
		}
		updates["max_uses"] = *input.MaxUses
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.repo.Update(ctx, id, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating coupon")
	}
	return s.GetCoupon(ctx, id)
}

func (s *service) DeleteCoupon(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting coupon")
	}
	return nil
}

func (s *service) GetCoupon(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading coupon")
	}
	return coupon, nil
}

func (s *service) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	coupons, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing coupons")
	}
	return coupons, nil
}

// NormalizeCode uppercases and trims a client-supplied coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
