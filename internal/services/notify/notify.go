// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package notify delivers verification codes to email addresses and phone
// numbers.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"

	"github.com/postpin/backend/internal/config"
)

// ErrDeliveryFailed marks a notification that could not be delivered. Callers
// match it to tell delivery failures apart from persistence failures.
var ErrDeliveryFailed = errors.New("notification delivery failed")

// Notifier sends a message to a destination (email address or phone number).
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPNotifier sends email via SMTP using go-mail.
type SMTPNotifier struct {
	cfg *config.SMTPConfig
}

// NewSMTPNotifier creates a new SMTP notifier.
func NewSMTPNotifier(cfg *config.SMTPConfig) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}
	return &SMTPNotifier{cfg: cfg}, nil
}

// Send delivers a plain-text email. Failures are reported as
// ErrDeliveryFailed.
func (s *SMTPNotifier) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	// Implicit TLS (SSL) for port 465, STARTTLS for others.
	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return errors.Join(ErrDeliveryFailed, fmt.Errorf("creating mail client: %w", err))
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Join(ErrDeliveryFailed, fmt.Errorf("sending email: %w", err))
	}

	return nil
}

// LogNotifier writes messages to the log instead of delivering them. Used
// for SMS until a gateway is wired up, and for local development.
type LogNotifier struct{}

// NewLogNotifier creates a new log notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Send logs the message.
func (n *LogNotifier) Send(_ context.Context, to, subject, body string) error {
	slog.Info("notification", "to", to, "subject", subject, "body", body)
	return nil
}
