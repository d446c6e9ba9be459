/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/eventdesk/apiserver/config"
	"github.com/eventdesk/apiserver/internal/mq"
	"github.com/eventdesk/apiserver/internal/notifier"
	"github.com/spf13/cobra"
)

// mailerCmd represents the mailer command
var mailerCmd = &cobra.Command{
	Use:   "mailer",
	Short: "Delivers queued notification mail over SMTP",
	Long: `Consumes mail jobs published by the server when MAIL_TRANSPORT=queue
and delivers each one over SMTP. Failed sends are republished until
MAIL_MAX_ATTEMPTS is reached; undeliverable mail is dropped.

	eventdesk mailer
`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		err := runMailer(ctx, config.LoadConfig())
		stop()
		if err != nil {
			fmt.Fprintf(os.Stderr, "mailer error: %v\n", err)
			os.Exit(1)
		}
	},
}

type mailQueue interface {
	notifier.Queue
	Close() error
}

var openMailQueue = func(ctx context.Context, cfg config.MQConfig) (mailQueue, error) {
	queue, err := mq.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return queue, nil
}

// runMailer consumes mail jobs until ctx is cancelled. The queue is closed
// before it returns.
func runMailer(ctx context.Context, cfg config.Config) error {
	smtp, err := notifier.NewSMTPMailer(cfg.Mail)
	if err != nil {
		return fmt.Errorf("configure smtp: %w", err)
	}

	queue, err := openMailQueue(ctx, cfg.MQ)
	if err != nil {
		return fmt.Errorf("connect to queue: %w", err)
	}
	defer func() {
		if err := queue.Close(); err != nil {
			log.Printf("close queue: %v", err)
		}
	}()

	log.Printf("mailer consuming %s via %s", cfg.Mail.QueueChannel, cfg.MQ.Backend)
	err = notifier.Consume(ctx, queue, cfg.Mail.QueueChannel, smtp, cfg.Mail.MaxAttempts)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func init() {
	rootCmd.AddCommand(mailerCmd)
}
