package payments

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/plutov/paypal/v4"
	"github.com/shopspring/decimal"

	"github.com/kitarena/kitarena-backend/pkg/config"
	"github.com/kitarena/kitarena-backend/pkg/enums"
	pkgerrors "github.com/kitarena/kitarena-backend/pkg/errors"
)

// PayPalAPI is the subset of PayPal Orders v2 operations the provider needs.
type PayPalAPI interface {
	CreateOrder(ctx context.Context, intent string, purchaseUnits []paypal.PurchaseUnitRequest, payer *paypal.PaymentSource, appContext *paypal.ApplicationContext) (*paypal.Order, error)
	GetOrder(ctx context.Context, orderID string) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string, request paypal.CaptureOrderRequest) (*paypal.CaptureOrderResponse, error)
	RefundCapture(ctx context.Context, captureID string, request paypal.RefundCaptureRequest) (*paypal.RefundResponse, error)
}

// NewPayPalClient builds the SDK client against the sandbox or live API base.
func NewPayPalClient(ctx context.Context, cfg config.PayPalConfig) (*paypal.Client, error) {
	if cfg.ClientID == "" || cfg.Secret == "" {
		return nil, fmt.Errorf("paypal client id and secret are required")
	}
	base := paypal.APIBaseSandBox
	if cfg.Live {
		base = paypal.APIBaseLive
	}
	client, err := paypal.NewClient(cfg.ClientID, cfg.Secret, base)
	if err != nil {
		return nil, fmt.Errorf("building paypal client: %w", err)
	}
	if _, err := client.GetAccessToken(ctx); err != nil {
		return nil, fmt.Errorf("paypal authentication: %w", err)
	}
	return client, nil
}

// PayPalProvider implements Provider over the Orders v2 capture flow. The
// capture response is the source of truth for payment completion.
type PayPalProvider struct {
	api      PayPalAPI
	currency enums.Currency
}

// NewPayPalProvider wires the PayPal payment provider. The currency is used
// for partial refund amounts, which PayPal requires to be denominated.
func NewPayPalProvider(api PayPalAPI, currency enums.Currency) (*PayPalProvider, error) {
	if api == nil {
		return nil, fmt.Errorf("paypal api is required")
	}
	if !currency.IsValid() {
		return nil, fmt.Errorf("invalid currency %q", currency)
	}
	return &PayPalProvider{api: api, currency: currency}, nil
}

func (p *PayPalProvider) Kind() enums.PaymentProvider {
	return enums.PaymentProviderPayPal
}

func (p *PayPalProvider) CreateIntent(ctx context.Context, input CreateIntentInput) (*Intent, error) {
	if err := validateCreateIntent(input); err != nil {
		return nil, err
	}

	units := []paypal.PurchaseUnitRequest{{
		Amount: &paypal.PurchaseUnitAmount{
			Currency: input.Currency.String(),
			Value:    input.Amount.StringFixed(2),
		},
		Description: input.Description,
		CustomID:    input.Metadata["order_reference"],
	}}

	order, err := p.api.CreateOrder(ctx, paypal.OrderIntentCapture, units, nil, nil)
	if err != nil {
		return nil, mapPayPalError(err)
	}

	return &Intent{
		Provider:     enums.PaymentProviderPayPal,
		Handle:       order.ID,
		ClientSecret: approvalLink(order),
		Status:       enums.PaymentStatusPending,
	}, nil
}

// Confirm captures the approved order. COMPLETED is the only status treated
// as payment; an order already captured earlier is re-read for its state.
func (p *PayPalProvider) Confirm(ctx context.Context, handle string) (*Confirmation, error) {
	if handle == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "paypal order id is required")
	}

	capture, err := p.api.CaptureOrder(ctx, handle, paypal.CaptureOrderRequest{})
	if err != nil {
		if isPayPalAlreadyCaptured(err) {
			return p.confirmFromOrder(ctx, handle)
		}
		return nil, mapPayPalError(err)
	}

	return &Confirmation{
		Status:            paypalStatus(capture.Status),
		ProviderReference: captureReference(capture),
	}, nil
}

func (p *PayPalProvider) confirmFromOrder(ctx context.Context, handle string) (*Confirmation, error) {
	order, err := p.api.GetOrder(ctx, handle)
	if err != nil {
		return nil, mapPayPalError(err)
	}
	return &Confirmation{
		Status:            paypalStatus(order.Status),
		ProviderReference: order.ID,
	}, nil
}

func (p *PayPalProvider) Refund(ctx context.Context, providerReference string, amount *decimal.Decimal) (*RefundResult, error) {
	if providerReference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "provider reference is required")
	}

	request := paypal.RefundCaptureRequest{}
	if amount != nil {
		request.Amount = &paypal.Money{
			Currency: p.currency.String(),
			Value:    amount.StringFixed(2),
		}
	}

	refund, err := p.api.RefundCapture(ctx, providerReference, request)
	if err != nil {
		return nil, mapPayPalError(err)
	}

	status := enums.PaymentStatusPending
	switch refund.Status {
	case "COMPLETED":
		status = enums.PaymentStatusSucceeded
	case "CANCELLED", "FAILED":
		status = enums.PaymentStatusFailed
	}
	return &RefundResult{
		Status:          status,
		RefundReference: refund.ID,
	}, nil
}

func paypalStatus(status string) enums.PaymentStatus {
	switch status {
	case "COMPLETED":
		return enums.PaymentStatusSucceeded
	case "VOIDED", "DECLINED":
		return enums.PaymentStatusFailed
	default:
		return enums.PaymentStatusPending
	}
}

// captureReference prefers the capture id over the order id so refunds target
// the actual capture.
func captureReference(capture *paypal.CaptureOrderResponse) string {
	for _, unit := range capture.PurchaseUnits {
		if unit.Payments == nil {
			continue
		}
		for _, c := range unit.Payments.Captures {
			if c.ID != "" {
				return c.ID
			}
		}
	}
	return capture.ID
}

func approvalLink(order *paypal.Order) string {
	for _, link := range order.Links {
		if link.Rel == "approve" {
			return link.Href
		}
	}
	return ""
}

func isPayPalAlreadyCaptured(err error) bool {
	var apiErr *paypal.ErrorResponse
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Name == "UNPROCESSABLE_ENTITY" && len(apiErr.Details) > 0 &&
		apiErr.Details[0].Issue == "ORDER_ALREADY_CAPTURED"
}

func mapPayPalError(err error) error {
	var apiErr *paypal.ErrorResponse
	if errors.As(err, &apiErr) && apiErr.Response != nil {
		switch {
		case apiErr.Response.StatusCode == http.StatusUnauthorized || apiErr.Response.StatusCode == http.StatusForbidden:
			return pkgerrors.Wrap(pkgerrors.CodeProviderAuth, err, "paypal rejected credentials")
		case apiErr.Response.StatusCode >= http.StatusInternalServerError:
			return pkgerrors.Wrap(pkgerrors.CodeProviderUnavailable, err, "paypal unavailable")
		default:
			return pkgerrors.Wrap(pkgerrors.CodeProviderRejected, err, "paypal rejected the payment")
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeProviderUnavailable, err, "paypal call failed")
}
