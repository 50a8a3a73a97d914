package notifications

import (
	"context"
	"net/mail"

	"go.uber.org/multierr"

	"github.com/kitarena/kitarena-backend/pkg/enums"
	pkgerrors "github.com/kitarena/kitarena-backend/pkg/errors"
	"github.com/kitarena/kitarena-backend/pkg/logger"
	pkgmail "github.com/kitarena/kitarena-backend/pkg/mail"
)

// Params carries the values interpolated into a template. Keys must match
// the template fields for the chosen kind (OrderNumber, Amount, ...).
type Params map[string]any

// Recipient identifies who receives a notification and in which language.
type Recipient struct {
	Email    string
	Name     string
	Language enums.Language
}

// DeliveryResult reports the outcome of a single dispatch. Err is set when
// Delivered is false; callers decide whether a failure is fatal.
type DeliveryResult struct {
	Kind      enums.NotificationKind
	Recipient string
	Delivered bool
	Err       error
}

// Dispatcher renders and sends transactional customer mail.
type Dispatcher interface {
	Send(ctx context.Context, kind enums.NotificationKind, recipient Recipient, params Params) DeliveryResult
}

type dispatcher struct {
	transport pkgmail.Transport
	logg      *logger.Logger
}

func NewDispatcher(transport pkgmail.Transport, logg *logger.Logger) (Dispatcher, error) {
	if transport == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifications: mail transport is required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "notifications: logger is required")
	}
	return &dispatcher{transport: transport, logg: logg}, nil
}

// Send renders the template for the recipient's language and hands the
// message to the transport. Failures are logged and returned in the result,
// never panicked; delivery is best effort.
func (d *dispatcher) Send(ctx context.Context, kind enums.NotificationKind, recipient Recipient, params Params) DeliveryResult {
	result := DeliveryResult{Kind: kind, Recipient: recipient.Email}
	ctx = d.logg.WithFields(ctx, map[string]any{
		"notification_kind": kind.String(),
		"recipient":         recipient.Email,
	})

	if err := validateDispatch(kind, recipient); err != nil {
		result.Err = err
		d.logg.Warn(ctx, "rejected notification dispatch")
		return result
	}

	subject, textBody, htmlBody, err := render(kind, recipient.Language, params)
	if err != nil {
		result.Err = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rendering notification template")
		d.logg.Error(ctx, "failed to render notification", result.Err)
		return result
	}

	msg := pkgmail.Message{
		ToAddress: recipient.Email,
		ToName:    recipient.Name,
		Subject:   subject,
		TextBody:  textBody,
		HTMLBody:  htmlBody,
	}
	if err := d.transport.Send(ctx, msg); err != nil {
		result.Err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sending notification mail")
		d.logg.Error(ctx, "failed to send notification", result.Err)
		return result
	}

	result.Delivered = true
	d.logg.Info(ctx, "notification delivered")
	return result
}

func validateDispatch(kind enums.NotificationKind, recipient Recipient) error {
	var err error
	if !kind.IsValid() {
		err = multierr.Append(err, pkgerrors.New(pkgerrors.CodeValidation, "unknown notification kind"))
	}
	if _, parseErr := mail.ParseAddress(recipient.Email); parseErr != nil {
		err = multierr.Append(err, pkgerrors.New(pkgerrors.CodeValidation, "invalid recipient address"))
	}
	return err
}
