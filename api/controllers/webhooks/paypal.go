package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kitarena/kitarena-backend/api/responses"
	"github.com/kitarena/kitarena-backend/pkg/enums"
	pkgerrors "github.com/kitarena/kitarena-backend/pkg/errors"
	"github.com/kitarena/kitarena-backend/pkg/logger"
)

type ProviderPaymentConfirmer interface {
	ConfirmProviderPayment(ctx context.Context, provider enums.PaymentProvider, paymentIntentID string) error
}

const (
	paypalEventCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"
	paypalEventOrderApproved    = "CHECKOUT.ORDER.APPROVED"
)

type paypalEvent struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID                string `json:"id"`
		SupplementaryData struct {
			RelatedIDs struct {
				OrderID string `json:"order_id"`
			} `json:"related_ids"`
		} `json:"supplementary_data"`
	} `json:"resource"`
}

// orderReference extracts the PayPal order id the payment was created under.
// Capture events carry the capture id in resource.id and reference the order
// through supplementary data.
func (e paypalEvent) orderReference() string {
	switch e.EventType {
	case paypalEventCaptureCompleted:
		if orderID := e.Resource.SupplementaryData.RelatedIDs.OrderID; orderID != "" {
			return orderID
		}
		return e.Resource.ID
	case paypalEventOrderApproved:
		return e.Resource.ID
	default:
		return ""
	}
}

// PayPalWebhook reconciles approved and captured PayPal orders. Event types
// outside the capture flow are acknowledged without action.
func PayPalWebhook(svc ProviderPaymentConfirmer, guard webhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		var event paypalEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode paypal event"))
			return
		}
		if event.ID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "paypal event id required"))
			return
		}

		reference := event.orderReference()
		if reference == "" {
			responses.WriteSuccess(w, nil)
			return
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, event.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			responses.WriteSuccess(w, nil)
			return
		}

		if err := svc.ConfirmProviderPayment(ctx, enums.PaymentProviderPayPal, reference); err != nil {
			_ = guard.Delete(ctx, event.ID)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("paypal event %s processed", event.ID))
		}
		responses.WriteSuccess(w, nil)
	}
}
