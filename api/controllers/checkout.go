package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kitarena/kitarena-backend/api/responses"
	"github.com/kitarena/kitarena-backend/api/validators"
	checkoutsvc "github.com/kitarena/kitarena-backend/internal/checkout"
	usersvc "github.com/kitarena/kitarena-backend/internal/users"
	"github.com/kitarena/kitarena-backend/pkg/enums"
	"github.com/kitarena/kitarena-backend/pkg/errors"
	"github.com/kitarena/kitarena-backend/pkg/logger"
	"github.com/kitarena/kitarena-backend/pkg/types"
)

type checkoutCustomization struct {
	PlayerName    string   `json:"player_name" validate:"max=32"`
	PlayerNumber  string   `json:"player_number" validate:"max=3"`
	Size          string   `json:"size" validate:"max=8"`
	IncludeShorts bool     `json:"include_shorts"`
	IncludeSocks  bool     `json:"include_socks"`
	PatchCodes    []string `json:"patch_codes" validate:"max=8,dive,required"`
}

type checkoutLine struct {
	ProductID     string                 `json:"product_id" validate:"required,uuid"`
	Quantity      int                    `json:"quantity" validate:"required,min=1,max=50"`
	Customization *checkoutCustomization `json:"customization"`
}

type quoteRequest struct {
	Items      []checkoutLine `json:"items" validate:"required,min=1,max=50,dive"`
	CouponCode string         `json:"coupon_code"`
}

type beginRequest struct {
	Items           []checkoutLine `json:"items" validate:"required,min=1,max=50,dive"`
	CouponCode      string         `json:"coupon_code"`
	Provider        string         `json:"provider" validate:"required,oneof=stripe paypal mollie"`
	ShippingAddress addressPayload `json:"shipping_address" validate:"required"`
	RedirectURL     string         `json:"redirect_url" validate:"omitempty,url"`
}

type addressPayload struct {
	FullName string `json:"full_name" validate:"required,max=120"`
	Street   string `json:"street" validate:"required,max=200"`
	City     string `json:"city" validate:"required,max=100"`
	Zip      string `json:"zip" validate:"required,max=16"`
	Province string `json:"province" validate:"max=64"`
	Country  string `json:"country" validate:"required,len=2"`
	Phone    string `json:"phone" validate:"max=32"`
}

func (a addressPayload) toAddress() types.Address {
	return types.Address{
		FullName: a.FullName,
		Street:   a.Street,
		City:     a.City,
		Zip:      a.Zip,
		Province: a.Province,
		Country:  a.Country,
		Phone:    a.Phone,
	}
}

func (l checkoutLine) toInput() (checkoutsvc.LineInput, error) {
	productID, err := uuid.Parse(l.ProductID)
	if err != nil {
		return checkoutsvc.LineInput{}, errors.New(errors.CodeValidation, "product_id must be a valid uuid")
	}
	line := checkoutsvc.LineInput{ProductID: productID, Quantity: l.Quantity}
	if l.Customization != nil {
		line.Customization = &checkoutsvc.CustomizationInput{
			PlayerName:    l.Customization.PlayerName,
			PlayerNumber:  l.Customization.PlayerNumber,
			Size:          l.Customization.Size,
			IncludeShorts: l.Customization.IncludeShorts,
			IncludeSocks:  l.Customization.IncludeSocks,
			PatchCodes:    l.Customization.PatchCodes,
		}
	}
	return line, nil
}

func convertLines(raw []checkoutLine) ([]checkoutsvc.LineInput, error) {
	lines := make([]checkoutsvc.LineInput, 0, len(raw))
	for _, item := range raw {
		line, err := item.toInput()
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func checkoutActor(r *http.Request, users usersvc.Service) (checkoutsvc.Actor, error) {
	userID, role, err := actorFromContext(r)
	if err != nil {
		return checkoutsvc.Actor{}, err
	}
	profile, err := users.GetProfile(r.Context(), userID)
	if err != nil {
		return checkoutsvc.Actor{}, err
	}
	return checkoutsvc.Actor{
		UserID:   userID,
		Role:     role,
		Email:    profile.Email,
		Language: profile.Language,
	}, nil
}

// CheckoutQuote prices the submitted cart without creating a payment intent.
func CheckoutQuote(svc checkoutsvc.Service, users usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload quoteRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := checkoutActor(r, users)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := convertLines(payload.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), actor, checkoutsvc.QuoteInput{
			Items:      lines,
			CouponCode: payload.CouponCode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, quote)
	}
}

// CheckoutBegin prices the cart, creates the provider intent and snapshots the
// pending order for webhook reconciliation.
func CheckoutBegin(svc checkoutsvc.Service, users usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload beginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor, err := checkoutActor(r, users)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := convertLines(payload.Items)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Begin(r.Context(), actor, checkoutsvc.BeginInput{
			Items:           lines,
			CouponCode:      payload.CouponCode,
			Provider:        enums.PaymentProvider(payload.Provider),
			ShippingAddress: payload.ShippingAddress.toAddress(),
			RedirectURL:     payload.RedirectURL,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
