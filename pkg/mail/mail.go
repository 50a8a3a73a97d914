// Package mail abstracts outbound email delivery behind a Transport so the
// notification service can be tested without network calls.
package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/kitarena/kitarena-backend/pkg/config"
)

// Message is a fully rendered email ready to be delivered.
type Message struct {
	ToAddress string
	ToName    string
	Subject   string
	TextBody  string
	HTMLBody  string
}

// Transport delivers rendered messages.
type Transport interface {
	Send(ctx context.Context, msg Message) error
}

type sendgridTransport struct {
	client      *sendgrid.Client
	fromAddress string
	fromName    string
}

// NewSendgrid builds a Transport backed by the SendGrid v3 API.
func NewSendgrid(cfg config.MailConfig) (Transport, error) {
	if cfg.SendgridAPIKey == "" {
		return nil, errors.New("sendgrid api key is required")
	}
	if cfg.FromAddress == "" {
		return nil, errors.New("mail from address is required")
	}
	return &sendgridTransport{
		client:      sendgrid.NewSendClient(cfg.SendgridAPIKey),
		fromAddress: cfg.FromAddress,
		fromName:    cfg.FromName,
	}, nil
}

func (t *sendgridTransport) Send(ctx context.Context, msg Message) error {
	if msg.ToAddress == "" {
		return errors.New("recipient address is required")
	}
	from := sgmail.NewEmail(t.fromName, t.fromAddress)
	to := sgmail.NewEmail(msg.ToName, msg.ToAddress)
	email := sgmail.NewSingleEmail(from, msg.Subject, to, msg.TextBody, msg.HTMLBody)

	resp, err := t.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
