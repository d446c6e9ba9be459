package notifier

import (
	"context"
	"errors"
	"log"
)

// ErrUndeliverable marks a send failure that will fail again on retry, such
// as a malformed address or a permanent rejection by the mail server.
var ErrUndeliverable = errors.New("undeliverable")

// Message is a single outbound plain-text email.
type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	ToName  string `json:"to_name,omitempty"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Mailer delivers one message. Implementations must honour ctx cancellation.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the process log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Printf("mail to=%s subject=%q", msg.To, msg.Subject)
	return nil
}
