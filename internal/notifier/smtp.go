package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eventdesk/apiserver/config"
	"github.com/wneessen/go-mail"
)

// SMTPMailer sends messages through an SMTP relay.
type SMTPMailer struct {
	client *mail.Client
	from   string
}

// NewSMTPMailer constructs an SMTP mailer from config. SMTP auth is only
// enabled when a username is configured.
func NewSMTPMailer(cfg config.MailConfig) (*SMTPMailer, error) {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		return nil, errors.New("smtp host is required")
	}

	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.SendTimeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.SendTimeout))
	}
	if strings.TrimSpace(cfg.SMTPUser) != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUser),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &SMTPMailer{client: client, from: cfg.From}, nil
}

// Send delivers msg. An empty msg.From falls back to the configured sender.
// Malformed addresses and 5xx replies are reported as ErrUndeliverable.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	from := msg.From
	if from == "" {
		from = m.from
	}

	out := mail.NewMsg()
	if err := out.From(from); err != nil {
		return fmt.Errorf("%w: invalid sender %q: %w", ErrUndeliverable, from, err)
	}
	if err := out.AddToFormat(msg.ToName, msg.To); err != nil {
		return fmt.Errorf("%w: invalid recipient %q: %w", ErrUndeliverable, msg.To, err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextPlain, msg.Body)

	return classifySendError(m.client.DialAndSendWithContext(ctx, out))
}

func classifySendError(err error) error {
	var sendErr *mail.SendError
	if errors.As(err, &sendErr) && !sendErr.IsTemp() && sendErr.ErrorCode() >= 500 {
		return fmt.Errorf("%w: %w", ErrUndeliverable, err)
	}
	return err
}
