package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/VictorAvelar/mollie-api-go/v4/mollie"
	"github.com/shopspring/decimal"

	"github.com/kitarena/kitarena-backend/pkg/config"
	"github.com/kitarena/kitarena-backend/pkg/enums"
	pkgerrors "github.com/kitarena/kitarena-backend/pkg/errors"
)

// MollieAPI is the subset of Mollie Payments operations the provider needs.
type MollieAPI interface {
	CreatePayment(ctx context.Context, payment mollie.CreatePayment) (*mollie.Payment, error)
	GetPayment(ctx context.Context, id string) (*mollie.Payment, error)
	RefundPayment(ctx context.Context, paymentID string, refund mollie.CreatePaymentRefund) (*mollie.Refund, error)
}

type mollieAPIWrapper struct {
	client *mollie.Client
}

// NewMollieAPI builds the SDK client and wraps it behind MollieAPI.
func NewMollieAPI(cfg config.MollieConfig) (MollieAPI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("mollie api key is required")
	}
	client, err := mollie.NewClient(nil, mollie.NewConfig(false, mollie.APITokenEnv))
	if err != nil {
		return nil, fmt.Errorf("building mollie client: %w", err)
	}
	if err := client.WithAuthenticationValue(cfg.APIKey); err != nil {
		return nil, fmt.Errorf("mollie authentication: %w", err)
	}
	return &mollieAPIWrapper{client: client}, nil
}

func (w *mollieAPIWrapper) CreatePayment(ctx context.Context, payment mollie.CreatePayment) (*mollie.Payment, error) {
	_, created, err := w.client.Payments.Create(ctx, payment, nil)
	return created, err
}

func (w *mollieAPIWrapper) GetPayment(ctx context.Context, id string) (*mollie.Payment, error) {
	_, payment, err := w.client.Payments.Get(ctx, id, nil)
	return payment, err
}

func (w *mollieAPIWrapper) RefundPayment(ctx context.Context, paymentID string, refund mollie.CreatePaymentRefund) (*mollie.Refund, error) {
	_, created, err := w.client.Refunds.CreatePaymentRefund(ctx, paymentID, refund, nil)
	return created, err
}

// MollieProvider implements Provider over Mollie's asynchronous flow: intent
// creation returns a pending checkout URL and the webhook later announces a
// payment id whose status is re-fetched from the API.
type MollieProvider struct {
	api        MollieAPI
	webhookURL string
}

// NewMollieProvider wires the Mollie payment provider.
func NewMollieProvider(api MollieAPI, webhookURL string) (*MollieProvider, error) {
	if api == nil {
		return nil, fmt.Errorf("mollie api is required")
	}
	return &MollieProvider{api: api, webhookURL: webhookURL}, nil
}

func (p *MollieProvider) Kind() enums.PaymentProvider {
	return enums.PaymentProviderMollie
}

func (p *MollieProvider) CreateIntent(ctx context.Context, input CreateIntentInput) (*Intent, error) {
	if err := validateCreateIntent(input); err != nil {
		return nil, err
	}

	create := mollie.CreatePayment{
		Amount: &mollie.Amount{
			Currency: input.Currency.String(),
			Value:    input.Amount.StringFixed(2),
		},
		Description: input.Description,
		WebhookURL:  p.webhookURL,
		RedirectURL: input.Metadata["redirect_url"],
	}

	payment, err := p.api.CreatePayment(ctx, create)
	if err != nil {
		return nil, mapMollieError(err)
	}

	return &Intent{
		Provider:     enums.PaymentProviderMollie,
		Handle:       payment.ID,
		ClientSecret: checkoutURL(payment),
		Status:       mollieStatus(payment.Status),
	}, nil
}

// Confirm polls the Payments API for the authoritative status instead of
// trusting webhook payload fields.
func (p *MollieProvider) Confirm(ctx context.Context, handle string) (*Confirmation, error) {
	if handle == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mollie payment id is required")
	}
	payment, err := p.api.GetPayment(ctx, handle)
	if err != nil {
		return nil, mapMollieError(err)
	}
	return &Confirmation{
		Status:            mollieStatus(payment.Status),
		ProviderReference: payment.ID,
	}, nil
}

func (p *MollieProvider) Refund(ctx context.Context, providerReference string, amount *decimal.Decimal) (*RefundResult, error) {
	if providerReference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider reference is required")
	}

	// Mollie requires an explicit amount, so the captured payment is re-read
	// both for full refunds and for the currency of partial ones.
	payment, err := p.api.GetPayment(ctx, providerReference)
	if err != nil {
		return nil, mapMollieError(err)
	}

	refund := mollie.CreatePaymentRefund{Amount: payment.Amount}
	if amount != nil {
		refund.Amount = &mollie.Amount{
			Currency: payment.Amount.Currency,
			Value:    amount.StringFixed(2),
		}
	}

	created, err := p.api.RefundPayment(ctx, providerReference, refund)
	if err != nil {
		return nil, mapMollieError(err)
	}

	status := enums.PaymentStatusPending
	switch string(created.Status) {
	case "refunded":
		status = enums.PaymentStatusSucceeded
	case "failed":
		status = enums.PaymentStatusFailed
	}
	return &RefundResult{
		Status:          status,
		RefundReference: created.ID,
	}, nil
}

func mollieStatus(status string) enums.PaymentStatus {
	switch status {
	case "paid":
		return enums.PaymentStatusSucceeded
	case "failed", "canceled", "expired":
		return enums.PaymentStatusFailed
	default:
		return enums.PaymentStatusPending
	}
}

func checkoutURL(payment *mollie.Payment) string {
	if payment.Links.Checkout != nil {
		return payment.Links.Checkout.Href
	}
	return ""
}

func mapMollieError(err error) error {
	var apiErr *mollie.BaseError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden:
			return pkgerrors.Wrap(pkgerrors.CodeProviderAuth, err, "mollie rejected credentials")
		case apiErr.Status >= http.StatusInternalServerError:
			return pkgerrors.Wrap(pkgerrors.CodeProviderUnavailable, err, "mollie unavailable")
		default:
			return pkgerrors.Wrap(pkgerrors.CodeProviderRejected, err, "mollie rejected the payment")
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeProviderUnavailable, err, "mollie call failed")
}
