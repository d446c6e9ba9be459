package mq

import (
	"context"
	"testing"

	"github.com/eventdesk/apiserver/config"
	amqp "github.com/rabbitmq/amqp091-go"
)

type stubBackend struct {
	published []Message
	closed    bool
}

func (s *stubBackend) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	s.published = append(s.published, Message{ID: channel, Data: data, Attributes: attrs})
	return "id-1", nil
}

func (s *stubBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	for _, msg := range s.published {
		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (s *stubBackend) Close() error {
	s.closed = true
	return nil
}

func TestMQDelegatesToBackend(t *testing.T) {
	backend := &stubBackend{}
	q := New(backend)

	id, err := q.Publish(context.Background(), "mail", []byte("hi"), map[string]string{AttrContentType: "text/plain"})
	if err != nil || id != "id-1" {
		t.Fatalf("publish = %q, %v", id, err)
	}

	var seen []string
	err = q.Subscribe(context.Background(), "mail", func(ctx context.Context, msg Message) error {
		seen = append(seen, string(msg.Data))
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if len(seen) != 1 || seen[0] != "hi" {
		t.Fatalf("unexpected deliveries %v", seen)
	}

	if err := q.Close(); err != nil || !backend.closed {
		t.Fatalf("close = %v, closed = %v", err, backend.closed)
	}
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	if _, err := Open(context.Background(), config.MQConfig{Backend: "kafka"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestHeadersToAttributes(t *testing.T) {
	if attrs := headersToAttributes(nil); attrs != nil {
		t.Fatalf("expected nil attrs, got %v", attrs)
	}
	attrs := headersToAttributes(amqp.Table{
		"to":      "ana@example.com",
		"raw":     []byte("bytes"),
		"attempt": int32(2),
	})
	if attrs["to"] != "ana@example.com" || attrs["raw"] != "bytes" || attrs["attempt"] != "2" {
		t.Fatalf("unexpected attrs %v", attrs)
	}
}

func TestDeliveryModeFollowsDurability(t *testing.T) {
	if mode := (&RabbitMQClient{queueDurable: true}).deliveryMode(); mode != amqp.Persistent {
		t.Fatalf("durable queue mode = %d", mode)
	}
	if mode := (&RabbitMQClient{}).deliveryMode(); mode != amqp.Transient {
		t.Fatalf("transient queue mode = %d", mode)
	}
}
