package notifications

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitarena/kitarena-backend/pkg/enums"
	pkgerrors "github.com/kitarena/kitarena-backend/pkg/errors"
	"github.com/kitarena/kitarena-backend/pkg/logger"
	pkgmail "github.com/kitarena/kitarena-backend/pkg/mail"
)

type fakeTransport struct {
	sendFn func(ctx context.Context, msg pkgmail.Message) error
	sent   []pkgmail.Message
}

func (f *fakeTransport) Send(ctx context.Context, msg pkgmail.Message) error {
	f.sent = append(f.sent, msg)
	if f.sendFn != nil {
		return f.sendFn(ctx, msg)
	}
	return nil
}

func newTestDispatcher(t *testing.T, transport pkgmail.Transport) Dispatcher {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("error")})
	d, err := NewDispatcher(transport, logg)
	require.NoError(t, err)
	return d
}

func TestNewDispatcherRequiresTransport(t *testing.T) {
	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("error")})
	_, err := NewDispatcher(nil, logg)
	require.Error(t, err)
}

func TestSendOrderConfirmationItalian(t *testing.T) {
	transport := &fakeTransport{}
	d := newTestDispatcher(t, transport)

	result := d.Send(context.Background(), enums.NotificationOrderConfirmation, Recipient{
		Email:    "mario.rossi@example.com",
		Name:     "Mario Rossi",
		Language: enums.LanguageItalian,
	}, Params{
		"Name":        "Mario",
		"OrderNumber": "KA-2026-000123",
		"Amount":      "72.00",
		"Currency":    "EUR",
	})

	require.NoError(t, result.Err)
	assert.True(t, result.Delivered)
	require.Len(t, transport.sent, 1)

	msg := transport.sent[0]
	assert.Equal(t, "mario.rossi@example.com", msg.ToAddress)
	assert.Equal(t, "Conferma ordine KA-2026-000123", msg.Subject)
	assert.Contains(t, msg.TextBody, "grazie per il tuo ordine KA-2026-000123")
	assert.Contains(t, msg.TextBody, "72.00 EUR")
	assert.Contains(t, msg.HTMLBody, "<strong>KA-2026-000123</strong>")
}

func TestSendShippingNotificationEnglish(t *testing.T) {
	transport := &fakeTransport{}
	d := newTestDispatcher(t, transport)

	result := d.Send(context.Background(), enums.NotificationShippingNotification, Recipient{
		Email:    "jane@example.com",
		Name:     "Jane",
		Language: enums.LanguageEnglish,
	}, Params{
		"Name":         "Jane",
		"OrderNumber":  "KA-2026-000124",
		"TrackingCode": "TRK123456789",
	})

	require.NoError(t, result.Err)
	require.Len(t, transport.sent, 1)
	assert.Equal(t, "Your order KA-2026-000124 is on its way", transport.sent[0].Subject)
	assert.Contains(t, transport.sent[0].TextBody, "TRK123456789")
}

func TestSendFallsBackToItalianForUnknownLanguage(t *testing.T) {
	transport := &fakeTransport{}
	d := newTestDispatcher(t, transport)

	result := d.Send(context.Background(), enums.NotificationRefundConfirmation, Recipient{
		Email:    "luca@example.com",
		Name:     "Luca",
		Language: enums.Language("de"),
	}, Params{
		"Name":            "Luca",
		"OrderNumber":     "KA-2026-000125",
		"Amount":          "30.00",
		"Currency":        "EUR",
		"RefundReference": "re_abc",
	})

	require.NoError(t, result.Err)
	require.Len(t, transport.sent, 1)
	assert.True(t, strings.HasPrefix(transport.sent[0].Subject, "Rimborso ordine"))
}

func TestSendRejectsInvalidRecipient(t *testing.T) {
	transport := &fakeTransport{}
	d := newTestDispatcher(t, transport)

	result := d.Send(context.Background(), enums.NotificationInvoice, Recipient{
		Email: "not-an-address",
	}, Params{})

	require.Error(t, result.Err)
	assert.False(t, result.Delivered)
	assert.True(t, pkgerrors.HasCode(result.Err, pkgerrors.CodeValidation))
	assert.Empty(t, transport.sent)
}

func TestSendRejectsUnknownKind(t *testing.T) {
	transport := &fakeTransport{}
	d := newTestDispatcher(t, transport)

	result := d.Send(context.Background(), enums.NotificationKind("carrier_pigeon"), Recipient{
		Email: "mario@example.com",
	}, Params{})

	require.Error(t, result.Err)
	assert.True(t, pkgerrors.HasCode(result.Err, pkgerrors.CodeValidation))
	assert.Empty(t, transport.sent)
}

func TestSendSurfacesTransportFailure(t *testing.T) {
	transport := &fakeTransport{
		sendFn: func(ctx context.Context, msg pkgmail.Message) error {
			return errors.New("sendgrid: 503")
		},
	}
	d := newTestDispatcher(t, transport)

	result := d.Send(context.Background(), enums.NotificationOrderStatusUpdate, Recipient{
		Email:    "mario@example.com",
		Language: enums.LanguageItalian,
	}, Params{
		"Name":        "Mario",
		"OrderNumber": "KA-2026-000126",
		"Status":      "processing",
	})

	require.Error(t, result.Err)
	assert.False(t, result.Delivered)
	assert.True(t, pkgerrors.HasCode(result.Err, pkgerrors.CodeDependency))
}
