package webhooks

import (
	"net/http"

	"github.com/kitarena/kitarena-backend/api/responses"
	"github.com/kitarena/kitarena-backend/pkg/enums"
	pkgerrors "github.com/kitarena/kitarena-backend/pkg/errors"
	"github.com/kitarena/kitarena-backend/pkg/logger"
)

// MollieWebhook handles Mollie's payment status callbacks. Mollie only posts
// the payment id; the current status is re-fetched from the API before any
// order state changes, so the callback body is never trusted.
func MollieWebhook(svc ProviderPaymentConfirmer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		if err := r.ParseForm(); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parse webhook form"))
			return
		}

		paymentID := r.PostFormValue("id")
		if paymentID == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "payment id required"))
			return
		}

		if err := svc.ConfirmProviderPayment(ctx, enums.PaymentProviderMollie, paymentID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, nil)
	}
}
