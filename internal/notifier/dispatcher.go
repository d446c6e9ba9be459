// Package notifier formats and delivers event lifecycle notifications.
package notifier

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/eventdesk/apiserver/types"
)

const defaultSendTimeout = 10 * time.Second

// Kind identifies the lifecycle change a notification reports.
type Kind string

const (
	KindCreated               Kind = "created"
	KindUpdated               Kind = "updated"
	KindCancelled             Kind = "cancelled"
	KindRegistrationConfirmed Kind = "registration_confirmed"
)

// Recipient is the addressee of one notification.
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RecipientsOf builds one recipient per registration, in the given order.
func RecipientsOf(registrations []types.Registration) []Recipient {
	recipients := make([]Recipient, 0, len(registrations))
	for _, reg := range registrations {
		recipients = append(recipients, Recipient{Name: reg.Username, Email: reg.Email})
	}
	return recipients
}

// NotificationError records a failed send to a single recipient.
type NotificationError struct {
	Kind      Kind
	Recipient Recipient
	Err       error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notify %s to %s: %v", e.Kind, e.Recipient.Email, e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}

// Delivery is the outcome of one send. Err is nil on success.
type Delivery struct {
	Recipient Recipient
	Err       *NotificationError
}

// Delivered reports whether the message was handed to the mailer.
func (d Delivery) Delivered() bool {
	return d.Err == nil
}

// Config holds the dispatcher settings shared by every send.
type Config struct {
	From        string
	SendTimeout time.Duration
}

// Dispatcher composes lifecycle messages and hands them to a Mailer.
type Dispatcher struct {
	mailer Mailer
	cfg    Config
}

func NewDispatcher(mailer Mailer, cfg Config) *Dispatcher {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}
	return &Dispatcher{mailer: mailer, cfg: cfg}
}

// Notify sends one message of the given kind to a single recipient.
// A non-nil error is always a *NotificationError.
func (d *Dispatcher) Notify(ctx context.Context, kind Kind, to Recipient, event types.Event) error {
	if err := d.send(ctx, kind, to, event); err != nil {
		return err
	}
	return nil
}

func (d *Dispatcher) send(ctx context.Context, kind Kind, to Recipient, event types.Event) *NotificationError {
	msg := Compose(kind, to, event)
	msg.From = d.cfg.From

	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()

	if err := d.mailer.Send(sendCtx, msg); err != nil {
		return &NotificationError{Kind: kind, Recipient: to, Err: err}
	}
	return nil
}

// NotifyAll sends one message per recipient, one after another. A failed
// send is logged and recorded in that recipient's Delivery; the remaining
// recipients are still attempted.
func (d *Dispatcher) NotifyAll(ctx context.Context, kind Kind, recipients []Recipient, event types.Event) []Delivery {
	deliveries := make([]Delivery, 0, len(recipients))
	for _, to := range recipients {
		delivery := Delivery{Recipient: to}
		if err := d.send(ctx, kind, to, event); err != nil {
			log.Printf("event %d: %v", event.ID, err)
			delivery.Err = err
		}
		deliveries = append(deliveries, delivery)
	}
	return deliveries
}

// FailedCount returns how many deliveries did not succeed.
func FailedCount(deliveries []Delivery) int {
	failed := 0
	for _, d := range deliveries {
		if !d.Delivered() {
			failed++
		}
	}
	return failed
}

// DisplayDate renders an event date the way notification texts show it,
// e.g. "Tue Mar 10 2026".
func DisplayDate(d types.Date) string {
	return d.Format("Mon Jan 02 2006")
}

// Compose builds the subject and body for a notification. The result
// depends only on its arguments. From is left for the caller to fill.
func Compose(kind Kind, to Recipient, event types.Event) Message {
	msg := Message{To: to.Email, ToName: to.Name}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", to.Name)

	switch kind {
	case KindCancelled:
		msg.Subject = fmt.Sprintf("Cancellation Notice: %s Event", event.Title)
		fmt.Fprintf(&b, "We regret to inform you that the %q event, originally scheduled for:\n\n", event.Title)
		writeDetails(&b, event, false)
		b.WriteString("\nhas been cancelled.\n\n")
		b.WriteString("We apologize for any inconvenience this cancellation may cause. ")
		b.WriteString("If you have any questions, please do not hesitate to contact us.\n\n")
		b.WriteString("Thank you for your understanding.\n")
	case KindUpdated:
		msg.Subject = fmt.Sprintf("Update: Changes to the %s Event", event.Title)
		fmt.Fprintf(&b, "We wanted to inform you about some important updates to the %q event that you have registered for.\n\n", event.Title)
		b.WriteString("Updated Event Details:\n")
		writeDetails(&b, event, true)
		b.WriteString("\nPlease review the updated event details above. ")
		b.WriteString("We apologize for any inconvenience these changes may cause.\n")
	case KindRegistrationConfirmed:
		msg.Subject = fmt.Sprintf("Registration Confirmed: %s Event", event.Title)
		fmt.Fprintf(&b, "You are registered for the %q event:\n\n", event.Title)
		writeDetails(&b, event, false)
		b.WriteString("\nWe look forward to seeing you there.\n")
	default:
		msg.Subject = fmt.Sprintf("New Event: %s", event.Title)
		fmt.Fprintf(&b, "A new event, %q, has been scheduled:\n\n", event.Title)
		writeDetails(&b, event, false)
	}

	b.WriteString("\nBest regards,\nEvent Management Team\n")
	msg.Body = b.String()
	return msg
}

func writeDetails(b *strings.Builder, event types.Event, withTitle bool) {
	if withTitle {
		fmt.Fprintf(b, "  - Title: %s\n", event.Title)
	}
	fmt.Fprintf(b, "  - Date: %s\n", DisplayDate(event.Date))
	fmt.Fprintf(b, "  - Time: %s\n", event.Time)
	fmt.Fprintf(b, "  - Location: %s\n", event.Location)
}
