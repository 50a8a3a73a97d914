package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
	"github.com/stripe/stripe-go/v84/refund"

	"github.com/kitarena/kitarena-backend/pkg/enums"
	pkgerrors "github.com/kitarena/kitarena-backend/pkg/errors"
	pkgstripe "github.com/kitarena/kitarena-backend/pkg/stripe"
)

// StripeAPI is the subset of Stripe operations the provider needs, extracted
// so the provider can be tested without network calls.
type StripeAPI interface {
	CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	CreateRefund(ctx context.Context, params *stripe.RefundParams) (*stripe.Refund, error)
}

type stripeAPIWrapper struct{}

// NewStripeAPI wraps the package-level Stripe bindings behind StripeAPI.
func NewStripeAPI(client *pkgstripe.Client) StripeAPI {
	if client == nil {
		return nil
	}
	return &stripeAPIWrapper{}
}

func (w *stripeAPIWrapper) CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if params != nil {
		params.Context = ctx
	}
	return paymentintent.New(params)
}

func (w *stripeAPIWrapper) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	return paymentintent.Get(id, params)
}

func (w *stripeAPIWrapper) CreateRefund(ctx context.Context, params *stripe.RefundParams) (*stripe.Refund, error) {
	if params != nil {
		params.Context = ctx
	}
	return refund.New(params)
}

// StripeProvider implements Provider on top of Stripe PaymentIntents. Intent
// confirmation happens client-side; Confirm re-verifies the intent with the
// API before any order is reconciled.
type StripeProvider struct {
	api StripeAPI
}

// NewStripeProvider wires the Stripe payment provider.
func NewStripeProvider(api StripeAPI) (*StripeProvider, error) {
	if api == nil {
		return nil, fmt.Errorf("stripe api is required")
	}
	return &StripeProvider{api: api}, nil
}

func (p *StripeProvider) Kind() enums.PaymentProvider {
	return enums.PaymentProviderStripe
}

func (p *StripeProvider) CreateIntent(ctx context.Context, input CreateIntentInput) (*Intent, error) {
	if err := validateCreateIntent(input); err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(input.Amount)),
		Currency: stripe.String(input.Currency.Lower()),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if input.Description != "" {
		params.Description = stripe.String(input.Description)
	}
	for key, value := range input.Metadata {
		params.AddMetadata(key, value)
	}

	intent, err := p.api.CreatePaymentIntent(ctx, params)
	if err != nil {
		return nil, mapStripeError(err)
	}
	return &Intent{
		Provider:     enums.PaymentProviderStripe,
		Handle:       intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       stripeStatus(intent.Status),
	}, nil
}

func (p *StripeProvider) Confirm(ctx context.Context, handle string) (*Confirmation, error) {
	if handle == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id is required")
	}
	intent, err := p.api.GetPaymentIntent(ctx, handle)
	if err != nil {
		return nil, mapStripeError(err)
	}
	return &Confirmation{
		Status:            stripeStatus(intent.Status),
		ProviderReference: intent.ID,
	}, nil
}

func (p *StripeProvider) Refund(ctx context.Context, providerReference string, amount *decimal.Decimal) (*RefundResult, error) {
	if providerReference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider reference is required")
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(providerReference),
	}
	if amount != nil {
		params.Amount = stripe.Int64(toMinorUnits(*amount))
	}

	result, err := p.api.CreateRefund(ctx, params)
	if err != nil {
		return nil, mapStripeError(err)
	}

	status := enums.PaymentStatusPending
	switch result.Status {
	case stripe.RefundStatusSucceeded:
		status = enums.PaymentStatusSucceeded
	case stripe.RefundStatusFailed, stripe.RefundStatusCanceled:
		status = enums.PaymentStatusFailed
	}
	return &RefundResult{
		Status:          status,
		RefundReference: result.ID,
	}, nil
}

func stripeStatus(status stripe.PaymentIntentStatus) enums.PaymentStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return enums.PaymentStatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return enums.PaymentStatusFailed
	default:
		return enums.PaymentStatusPending
	}
}

func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode == http.StatusUnauthorized || stripeErr.HTTPStatusCode == http.StatusForbidden {
			return pkgerrors.Wrap(pkgerrors.CodeProviderAuth, err, "stripe rejected credentials")
		}
		switch stripeErr.Type {
		case stripe.ErrorTypeCard:
			return pkgerrors.Wrap(pkgerrors.CodeProviderRejected, err, "payment was declined")
		case stripe.ErrorTypeInvalidRequest:
			return pkgerrors.Wrap(pkgerrors.CodeProviderRejected, err, "stripe rejected the request")
		default:
			return pkgerrors.Wrap(pkgerrors.CodeProviderUnavailable, err, "stripe unavailable")
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeProviderUnavailable, err, "stripe call failed")
}

// toMinorUnits converts a decimal amount to the currency's minor unit.
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundredInt).Round(0).IntPart()
}

var hundredInt = decimal.NewFromInt(100)
