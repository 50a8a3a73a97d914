package webhooks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v84"

	"github.com/kitarena/kitarena-backend/pkg/db/models"
	"github.com/kitarena/kitarena-backend/pkg/enums"
	pkgerrors "github.com/kitarena/kitarena-backend/pkg/errors"
	"github.com/kitarena/kitarena-backend/pkg/logger"
)

type orderConfirmer interface {
	ConfirmPayment(ctx context.Context, provider enums.PaymentProvider, paymentIntentID string) (*models.Order, error)
}

// Service turns provider callbacks into order confirmations.
type Service struct {
	orders orderConfirmer
	logg   *logger.Logger
}

func NewService(orders orderConfirmer, logg *logger.Logger) (*Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{orders: orders, logg: logg}, nil
}

// HandleStripeEvent processes payment intent lifecycle events. Unhandled
// event types are acknowledged without action.
func (s *Service) HandleStripeEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
		}
		return s.ConfirmProviderPayment(ctx, enums.PaymentProviderStripe, intent.ID)
	case stripe.EventTypePaymentIntentPaymentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
		}
		failCtx := s.logg.WithPaymentIntentID(ctx, intent.ID)
		s.logg.Warn(failCtx, "payment intent failed")
		return nil
	default:
		return nil
	}
}

// ConfirmProviderPayment reconciles a settled payment into an order. A payment
// the provider still reports as unsettled is acknowledged so the provider
// retries later instead of treating the callback as failed.
func (s *Service) ConfirmProviderPayment(ctx context.Context, provider enums.PaymentProvider, paymentIntentID string) error {
	if paymentIntentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment reference required")
	}

	ctx = s.logg.WithPaymentIntentID(ctx, paymentIntentID)

	order, err := s.orders.ConfirmPayment(ctx, provider, paymentIntentID)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
			s.logg.Warn(ctx, "payment not settled yet, callback acknowledged")
			return nil
		}
		return err
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(ctx, fmt.Sprintf("order reconciled via %s", provider))
	return nil
}
