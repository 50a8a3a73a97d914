// Package payments provides a uniform capture/refund contract over Stripe,
// PayPal and Mollie. Each provider normalizes its SDK outcomes into the
// shared intent/confirmation/refund types and the provider error taxonomy.
package payments

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/kitarena/kitarena-backend/pkg/enums"
	pkgerrors "github.com/kitarena/kitarena-backend/pkg/errors"
)

// CreateIntentInput carries everything needed to open a payment with a provider.
type CreateIntentInput struct {
	Amount      decimal.Decimal
	Currency    enums.Currency
	Description string
	Metadata    map[string]string
}

// Intent is the provider handle returned to the client to complete payment.
type Intent struct {
	Provider enums.PaymentProvider `json:"provider"`
	Handle   string                `json:"handle"`
	// ClientSecret is the provider-specific value the storefront needs to
	// finish the flow: a Stripe client secret, a PayPal approval URL or a
	// Mollie checkout URL.
	ClientSecret string              `json:"client_secret,omitempty"`
	Status       enums.PaymentStatus `json:"status"`
}

// Confirmation is the normalized outcome of verifying a payment with its provider.
type Confirmation struct {
	Status            enums.PaymentStatus `json:"status"`
	ProviderReference string              `json:"provider_reference"`
}

// RefundResult reports a completed refund call.
type RefundResult struct {
	Status          enums.PaymentStatus `json:"status"`
	RefundReference string              `json:"refund_reference"`
}

// Provider is the uniform contract each payment gateway implements.
type Provider interface {
	Kind() enums.PaymentProvider
	CreateIntent(ctx context.Context, input CreateIntentInput) (*Intent, error)
	Confirm(ctx context.Context, handle string) (*Confirmation, error)
	Refund(ctx context.Context, providerReference string, amount *decimal.Decimal) (*RefundResult, error)
}

// Registry selects a Provider by its kind.
type Registry struct {
	providers map[enums.PaymentProvider]Provider
}

// NewRegistry indexes the supplied providers by kind.
func NewRegistry(providers ...Provider) (*Registry, error) {
	indexed := make(map[enums.PaymentProvider]Provider, len(providers))
	for _, provider := range providers {
		if provider == nil {
			continue
		}
		kind := provider.Kind()
		if !kind.IsValid() {
			return nil, fmt.Errorf("provider kind %q is not valid", kind)
		}
		if _, exists := indexed[kind]; exists {
			return nil, fmt.Errorf("duplicate provider registration for %q", kind)
		}
		indexed[kind] = provider
	}
	if len(indexed) == 0 {
		return nil, fmt.Errorf("at least one payment provider is required")
	}
	return &Registry{providers: indexed}, nil
}

// Get returns the provider registered for the given kind.
func (r *Registry) Get(kind enums.PaymentProvider) (Provider, error) {
	provider, ok := r.providers[kind]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported payment provider %q", kind))
	}
	return provider, nil
}

// Kinds lists the registered provider kinds.
func (r *Registry) Kinds() []enums.PaymentProvider {
	kinds := make([]enums.PaymentProvider, 0, len(r.providers))
	for kind := range r.providers {
		kinds = append(kinds, kind)
	}
	return kinds
}

func validateCreateIntent(input CreateIntentInput) error {
	if !input.Amount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}
	if !input.Currency.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported currency %q", input.Currency))
	}
	return nil
}
