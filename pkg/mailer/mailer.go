package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/campusgo/tutorias-api/pkg/config"
)

// Message is an outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers messages to a recipient.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	client *mail.Client
	from   string
}

// NewSMTP builds an SMTP mailer from configuration.
func NewSMTP(cfg config.SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host not configured")
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.User),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("build smtp client: %w", err)
	}

	from := cfg.From
	if from == "" {
		from = cfg.User
	}

	return &SMTPMailer{client: client, from: from}, nil
}

// Send delivers a single message.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	envelope := mail.NewMsg()
	if err := envelope.From(m.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := envelope.To(msg.To); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	envelope.Subject(msg.Subject)
	if msg.Text != "" {
		envelope.SetBodyString(mail.TypeTextPlain, msg.Text)
	}
	if msg.HTML != "" {
		if msg.Text != "" {
			envelope.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
		} else {
			envelope.SetBodyString(mail.TypeTextHTML, msg.HTML)
		}
	}

	if err := m.client.DialAndSendWithContext(ctx, envelope); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}
