// Package resend implements relay.Sender using the Resend API. It is an
// alternative transport for the direct sending path; the alias path always
// goes over SMTP because the reverse-alias hop must originate from the
// mailbox's own account.
package resend

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"

	"github.com/relaysms/email-gateway/pkg/emailaddr"
	"github.com/relaysms/email-gateway/pkg/relay"
	"github.com/relaysms/email-gateway/pkg/smtpcreds"
)

// Config holds Resend provider configuration. FromEmail, when set,
// overrides the message from-address; Resend only accepts senders on a
// verified domain.
type Config struct {
	APIKey    string
	FromEmail string
}

// Sender delivers messages through the Resend API. The SMTP connection
// fields of the identity are ignored; only the from-address and display
// name are used.
type Sender struct {
	client    *resend.Client
	fromEmail string
}

// New creates a Resend sender.
func New(cfg Config) *Sender {
	return &Sender{client: resend.NewClient(cfg.APIKey), fromEmail: cfg.FromEmail}
}

// Send implements relay.Sender.
func (s *Sender) Send(ctx context.Context, _ smtpcreds.Identity, msg *relay.Message) error {
	from := msg.From
	if s.fromEmail != "" {
		from = s.fromEmail
	}

	req := &resend.SendEmailRequest{
		From:    emailaddr.Recipient(msg.FromName, from),
		To:      []string{msg.To},
		Subject: msg.Subject,
	}

	if msg.IsHTML {
		req.Html = msg.Body
	} else {
		req.Text = msg.Body
	}

	if _, err := s.client.Emails.SendWithContext(ctx, req); err != nil {
		return fmt.Errorf("resend: failed to send email: %w", err)
	}
	return nil
}
