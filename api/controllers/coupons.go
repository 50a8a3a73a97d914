package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kitarena/kitarena-backend/api/responses"
	"github.com/kitarena/kitarena-backend/api/validators"
	couponsvc "github.com/kitarena/kitarena-backend/internal/coupons"
	"github.com/kitarena/kitarena-backend/pkg/logger"
)

type validateCouponRequest struct {
	Code string `json:"code" validate:"required"`
}

type createCouponRequest struct {
	Code               string    `json:"code" validate:"required"`
	DiscountPercentage int       `json:"discount_percentage" validate:"required,min=1,max=100"`
	ExpiresAt          time.Time `json:"expires_at" validate:"required"`
	MaxUses            *int      `json:"max_uses,omitempty" validate:"omitempty,min=1"`
	Description        string    `json:"description,omitempty"`
}

type updateCouponRequest struct {
	DiscountPercentage *int       `json:"discount_percentage,omitempty" validate:"omitempty,min=1,max=100"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	IsActive           *bool      `json:"is_active,omitempty"`
	MaxUses            *int       `json:"max_uses,omitempty" validate:"omitempty,min=1"`
	Description        *string    `json:"description,omitempty"`
}

// ValidateCoupon checks a code against the caller's role without redeeming it.
func ValidateCoupon(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload validateCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		validation, err := svc.Validate(r.Context(), payload.Code, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, validation)
	}
}

// AdminListCoupons returns every coupon, expired ones included.
func AdminListCoupons(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		coupons, err := svc.ListCoupons(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, coupons)
	}
}

// AdminGetCoupon returns one coupon by id.
func AdminGetCoupon(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		couponID, err := validators.PathUUID(chi.URLParam(r, "couponId"), "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.GetCoupon(r.Context(), couponID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, coupon)
	}
}

// AdminCreateCoupon registers a new coupon code.
func AdminCreateCoupon(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.CreateCoupon(r.Context(), couponsvc.CreateCouponInput{
			Code:               payload.Code,
			DiscountPercentage: payload.DiscountPercentage,
			ExpiresAt:          payload.ExpiresAt,
			MaxUses:            payload.MaxUses,
			Description:        payload.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, coupon)
	}
}

// AdminUpdateCoupon edits an existing coupon.
func AdminUpdateCoupon(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		couponID, err := validators.PathUUID(chi.URLParam(r, "couponId"), "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		coupon, err := svc.UpdateCoupon(r.Context(), couponID, couponsvc.UpdateCouponInput{
			DiscountPercentage: payload.DiscountPercentage,
			ExpiresAt:          payload.ExpiresAt,
			IsActive:           payload.IsActive,
			MaxUses:            payload.MaxUses,
			Description:        payload.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, coupon)
	}
}

// AdminDeleteCoupon removes a coupon.
func AdminDeleteCoupon(svc couponsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		couponID, err := validators.PathUUID(chi.URLParam(r, "couponId"), "couponId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteCoupon(r.Context(), couponID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
