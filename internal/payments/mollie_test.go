package payments

import (
	"context"
	"testing"

	"github.com/VictorAvelar/mollie-api-go/v4/mollie"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitarena/kitarena-backend/pkg/enums"
)

type fakeMollieAPI struct {
	createPaymentFn func(ctx context.Context, payment mollie.CreatePayment) (*mollie.Payment, error)
	getPaymentFn    func(ctx context.Context, id string) (*mollie.Payment, error)
	refundPaymentFn func(ctx context.Context, paymentID string, refund mollie.CreatePaymentRefund) (*mollie.Refund, error)
}

func (f *fakeMollieAPI) CreatePayment(ctx context.Context, payment mollie.CreatePayment) (*mollie.Payment, error) {
	return f.createPaymentFn(ctx, payment)
}

func (f *fakeMollieAPI) GetPayment(ctx context.Context, id string) (*mollie.Payment, error) {
	return f.getPaymentFn(ctx, id)
}

func (f *fakeMollieAPI) RefundPayment(ctx context.Context, paymentID string, refund mollie.CreatePaymentRefund) (*mollie.Refund, error) {
	return f.refundPaymentFn(ctx, paymentID, refund)
}

func TestMollieConfirmPollsPaymentStatus(t *testing.T) {
	api := &fakeMollieAPI{
		getPaymentFn: func(_ context.Context, id string) (*mollie.Payment, error) {
			return &mollie.Payment{ID: id, Status: "paid"}, nil
		},
	}
	provider, err := NewMollieProvider(api, "https://shop.example.com/webhooks/mollie")
	require.NoError(t, err)

	confirmation, err := provider.Confirm(context.Background(), "tr_1")
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusSucceeded, confirmation.Status)
	assert.Equal(t, "tr_1", confirmation.ProviderReference)
}

func TestMollieFullRefundUsesCapturedAmount(t *testing.T) {
	var captured mollie.CreatePaymentRefund
	api := &fakeMollieAPI{
		getPaymentFn: func(_ context.Context, id string) (*mollie.Payment, error) {
			return &mollie.Payment{ID: id, Amount: &mollie.Amount{Currency: "EUR", Value: "77.00"}}, nil
		},
		refundPaymentFn: func(_ context.Context, _ string, refund mollie.CreatePaymentRefund) (*mollie.Refund, error) {
			captured = refund
			return &mollie.Refund{ID: "re_1", Status: "refunded"}, nil
		},
	}
	provider, err := NewMollieProvider(api, "")
	require.NoError(t, err)

	result, err := provider.Refund(context.Background(), "tr_1", nil)
	require.NoError(t, err)
	require.NotNil(t, captured.Amount)
	assert.Equal(t, "EUR", captured.Amount.Currency)
	assert.Equal(t, "77.00", captured.Amount.Value)
	assert.Equal(t, enums.PaymentStatusSucceeded, result.Status)
	assert.Equal(t, "re_1", result.RefundReference)
}

func TestMolliePartialRefundKeepsPaymentCurrency(t *testing.T) {
	var captured mollie.CreatePaymentRefund
	api := &fakeMollieAPI{
		getPaymentFn: func(_ context.Context, id string) (*mollie.Payment, error) {
			return &mollie.Payment{ID: id, Amount: &mollie.Amount{Currency: "DKK", Value: "575.00"}}, nil
		},
		refundPaymentFn: func(_ context.Context, _ string, refund mollie.CreatePaymentRefund) (*mollie.Refund, error) {
			captured = refund
			return &mollie.Refund{ID: "re_2", Status: "pending"}, nil
		},
	}
	provider, err := NewMollieProvider(api, "")
	require.NoError(t, err)

	partial := decimal.RequireFromString("100.00")
	result, err := provider.Refund(context.Background(), "tr_1", &partial)
	require.NoError(t, err)
	require.NotNil(t, captured.Amount)
	assert.Equal(t, "DKK", captured.Amount.Currency)
	assert.Equal(t, "100.00", captured.Amount.Value)
	assert.Equal(t, enums.PaymentStatusPending, result.Status)
}
