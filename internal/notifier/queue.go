package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"maps"
	"strconv"

	"github.com/eventdesk/apiserver/internal/mq"
)

const (
	mailJobContentType = "application/json"
	attrAttempt        = "attempt"
	defaultMaxAttempts = 5
)

// Publisher is the subset of the message queue used to enqueue mail jobs.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// Subscriber is the subset of the message queue used to consume mail jobs.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler mq.Handler) error
}

// Queue consumes mail jobs and republishes the ones that are retried.
type Queue interface {
	Publisher
	Subscriber
}

// QueueMailer hands messages to the message queue. A separate consumer
// performs the actual delivery.
type QueueMailer struct {
	publisher Publisher
	channel   string
}

func NewQueueMailer(publisher Publisher, channel string) *QueueMailer {
	return &QueueMailer{publisher: publisher, channel: channel}
}

// Send publishes msg as a JSON mail job. Success means the job was
// accepted by the broker, not that the mail was delivered.
func (q *QueueMailer) Send(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = q.publisher.Publish(ctx, q.channel, data, map[string]string{
		mq.AttrContentType: mailJobContentType,
		"to":               msg.To,
	})
	return err
}

// Consume reads mail jobs from channel and delivers each with mailer until
// ctx is cancelled.
//
// A job that cannot be decoded, or whose send fails with ErrUndeliverable,
// is dropped. Other failures republish the job with its attempt count
// raised until maxAttempts sends have failed, after which it is dropped too.
// A job is handed back to the broker only when ctx ends mid-send or the
// republish fails. Non-positive maxAttempts selects a default of 5.
func Consume(ctx context.Context, queue Queue, channel string, mailer Mailer, maxAttempts int) error {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	return queue.Subscribe(ctx, channel, func(ctx context.Context, job mq.Message) error {
		var msg Message
		if err := json.Unmarshal(job.Data, &msg); err != nil {
			log.Printf("mail job %s: discarding undecodable payload: %v", job.ID, err)
			return nil
		}

		err := mailer.Send(ctx, msg)
		if err == nil {
			return nil
		}

		attempt := jobAttempt(job)
		switch {
		case ctx.Err() != nil:
			return fmt.Errorf("send mail job %s: %w", job.ID, err)
		case errors.Is(err, ErrUndeliverable):
			log.Printf("mail job %s: dropping undeliverable mail to %s: %v", job.ID, msg.To, err)
			return nil
		case attempt >= maxAttempts:
			log.Printf("mail job %s: dropping mail to %s after %d attempts: %v", job.ID, msg.To, attempt, err)
			return nil
		}

		log.Printf("mail job %s: attempt %d to %s failed: %v", job.ID, attempt, msg.To, err)
		attrs := make(map[string]string, len(job.Attributes)+1)
		maps.Copy(attrs, job.Attributes)
		attrs[attrAttempt] = strconv.Itoa(attempt + 1)
		if _, err := queue.Publish(ctx, channel, job.Data, attrs); err != nil {
			return fmt.Errorf("requeue mail job %s: %w", job.ID, err)
		}
		return nil
	})
}

// jobAttempt returns the 1-based attempt number carried by job.
func jobAttempt(job mq.Message) int {
	n, err := strconv.Atoi(job.Attributes[attrAttempt])
	if err != nil || n < 1 {
		return 1
	}
	return n
}
