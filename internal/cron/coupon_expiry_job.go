package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/kitarena/kitarena-backend/pkg/logger"
)

type couponDeactivator interface {
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// CouponExpiryJobParams configure the coupon expiry job.
type CouponExpiryJobParams struct {
	Logger  *logger.Logger
	Coupons couponDeactivator
	Now     func() time.Time
}

// NewCouponExpiryJob builds the job that deactivates coupons past their
// expiry date. Validation already rejects expired codes at checkout; this
// keeps the admin listing honest.
func NewCouponExpiryJob(params CouponExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Coupons == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &couponExpiryJob{
		logg:    params.Logger,
		coupons: params.Coupons,
		now:     now,
	}, nil
}

type couponExpiryJob struct {
	logg    *logger.Logger
	coupons couponDeactivator
	now     func() time.Time
}

func (j *couponExpiryJob) Name() string { return "coupon-expiry" }

func (j *couponExpiryJob) Run(ctx context.Context) error {
	deactivated, err := j.coupons.DeactivateExpired(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("deactivating expired coupons: %w", err)
	}
	ctx = j.logg.WithField(ctx, "deactivated", deactivated)
	j.logg.Info(ctx, "expired coupons deactivated")
	return nil
}
