package notifier

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eventdesk/apiserver/types"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []Message
	fail map[string]error
	// block makes sends to these addresses wait for ctx to end.
	block map[string]bool
}

func (m *recordingMailer) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	m.sent = append(m.sent, msg)
	failErr := m.fail[msg.To]
	blocked := m.block[msg.To]
	m.mu.Unlock()

	if blocked {
		<-ctx.Done()
		return ctx.Err()
	}
	return failErr
}

func sampleEvent() types.Event {
	date, _ := types.ParseDate("2026-03-20")
	return types.Event{
		ID:       3,
		Title:    "Go Meetup",
		Date:     date,
		Time:     "06:30 PM",
		Location: "Hall A",
	}
}

func TestComposeTexts(t *testing.T) {
	to := Recipient{Name: "ana", Email: "ana@example.com"}
	event := sampleEvent()

	cases := []struct {
		kind    Kind
		subject string
		phrase  string
	}{
		{KindCancelled, "Cancellation Notice: Go Meetup Event", "has been cancelled"},
		{KindUpdated, "Update: Changes to the Go Meetup Event", "Updated Event Details"},
		{KindRegistrationConfirmed, "Registration Confirmed: Go Meetup Event", "You are registered"},
		{KindCreated, "New Event: Go Meetup", "has been scheduled"},
	}
	for _, tc := range cases {
		msg := Compose(tc.kind, to, event)
		if msg.Subject != tc.subject {
			t.Errorf("%s: subject %q, want %q", tc.kind, msg.Subject, tc.subject)
		}
		for _, want := range []string{"Dear ana,", tc.phrase, "Fri Mar 20 2026", "06:30 PM", "Hall A", "Event Management Team"} {
			if !strings.Contains(msg.Body, want) {
				t.Errorf("%s: body lacks %q:\n%s", tc.kind, want, msg.Body)
			}
		}
		if msg.To != to.Email || msg.ToName != to.Name || msg.From != "" {
			t.Errorf("%s: unexpected addressing %+v", tc.kind, msg)
		}
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	to := Recipient{Name: "ben", Email: "ben@example.com"}
	first := Compose(KindUpdated, to, sampleEvent())
	for i := 0; i < 10; i++ {
		if got := Compose(KindUpdated, to, sampleEvent()); got != first {
			t.Fatalf("compose %d differs:\n%+v\n%+v", i, got, first)
		}
	}
}

func TestNotifyAllIsolatesFailures(t *testing.T) {
	mailer := &recordingMailer{fail: map[string]error{"b@example.com": errors.New("mailbox full")}}
	d := NewDispatcher(mailer, Config{From: "events@example.com", SendTimeout: time.Second})

	recipients := []Recipient{
		{Name: "a", Email: "a@example.com"},
		{Name: "b", Email: "b@example.com"},
		{Name: "c", Email: "c@example.com"},
	}
	deliveries := d.NotifyAll(context.Background(), KindCancelled, recipients, sampleEvent())

	if len(mailer.sent) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(mailer.sent))
	}
	if len(deliveries) != 3 || FailedCount(deliveries) != 1 {
		t.Fatalf("unexpected deliveries: %+v", deliveries)
	}
	if !deliveries[0].Delivered() || deliveries[1].Delivered() || !deliveries[2].Delivered() {
		t.Fatalf("unexpected delivery outcomes: %+v", deliveries)
	}
	nerr := deliveries[1].Err
	if nerr.Kind != KindCancelled || nerr.Recipient.Email != "b@example.com" {
		t.Fatalf("unexpected notification error: %+v", nerr)
	}
	if !strings.Contains(nerr.Error(), "mailbox full") {
		t.Fatalf("error text lacks cause: %q", nerr.Error())
	}
	for _, msg := range mailer.sent {
		if msg.From != "events@example.com" {
			t.Fatalf("dispatcher did not apply the configured sender: %+v", msg)
		}
	}
}

func TestNotifyAllWithNoRecipients(t *testing.T) {
	mailer := &recordingMailer{}
	d := NewDispatcher(mailer, Config{})

	deliveries := d.NotifyAll(context.Background(), KindUpdated, nil, sampleEvent())
	if len(deliveries) != 0 || len(mailer.sent) != 0 {
		t.Fatalf("expected nothing sent, got %+v", deliveries)
	}
}

func TestNotifyTimesOutPerRecipient(t *testing.T) {
	mailer := &recordingMailer{block: map[string]bool{"slow@example.com": true}}
	d := NewDispatcher(mailer, Config{SendTimeout: 20 * time.Millisecond})

	recipients := []Recipient{
		{Name: "slow", Email: "slow@example.com"},
		{Name: "fast", Email: "fast@example.com"},
	}
	deliveries := d.NotifyAll(context.Background(), KindUpdated, recipients, sampleEvent())

	if deliveries[0].Delivered() || !errors.Is(deliveries[0].Err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded for the slow recipient, got %+v", deliveries[0])
	}
	if !deliveries[1].Delivered() {
		t.Fatalf("the recipient after a timeout should still be delivered: %+v", deliveries[1])
	}
}

func TestNotifyReturnsNilOnSuccess(t *testing.T) {
	d := NewDispatcher(&recordingMailer{}, Config{})
	if err := d.Notify(context.Background(), KindCreated, Recipient{Email: "x@example.com"}, sampleEvent()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestRecipientsOf(t *testing.T) {
	regs := []types.Registration{
		{Username: "a", Email: "a@example.com"},
		{Username: "b", Email: "b@example.com"},
	}
	got := RecipientsOf(regs)
	if len(got) != 2 || got[0] != (Recipient{Name: "a", Email: "a@example.com"}) || got[1].Name != "b" {
		t.Fatalf("unexpected recipients: %+v", got)
	}
}

func TestAnnouncement(t *testing.T) {
	event := sampleEvent()
	if got := Announcement(KindCancelled, event); !strings.Contains(got, "Go Meetup") || !strings.Contains(got, "Fri Mar 20 2026 at 06:30 PM") {
		t.Fatalf("unexpected announcement %q", got)
	}
	if got := Announcement(KindCreated, event); !strings.Contains(got, "Hall A") {
		t.Fatalf("unexpected announcement %q", got)
	}
}

func TestDiscordAnnouncerRequiresChannel(t *testing.T) {
	if err := NewDiscordAnnouncer(nil, "123").Announce(context.Background(), KindCreated, sampleEvent()); err == nil {
		t.Fatalf("expected error for nil session")
	}
	if _, err := NewDiscordAnnouncerFromToken("", "123"); err == nil {
		t.Fatalf("expected error for empty token")
	}
}
