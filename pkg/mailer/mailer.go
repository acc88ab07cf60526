// Package mailer sends plain-text transactional email.
package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Message is a single plain-text email.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// From is the sender identity used for From headers.
type From struct {
	Name    string
	Address string
}

// SendGrid delivers mail through the SendGrid v3 API.
type SendGrid struct {
	client *sendgrid.Client
	from   *sgmail.Email
	logger zerolog.Logger
}

// NewSendGrid constructs a SendGrid sender.
func NewSendGrid(apiKey string, from From, logger zerolog.Logger) (*SendGrid, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("sendgrid api key must be provided")
	}
	return &SendGrid{
		client: sendgrid.NewSendClient(apiKey),
		from:   sgmail.NewEmail(from.Name, from.Address),
		logger: logger.With().Str("component", "mailer").Str("provider", "sendgrid").Logger(),
	}, nil
}

// Send delivers one message.
func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}

	to := sgmail.NewEmail(msg.ToName, msg.ToEmail)
	message := sgmail.NewSingleEmail(s.from, msg.Subject, to, msg.Text, "")

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("send email: sendgrid returned %d", resp.StatusCode)
	}

	s.logger.Info().Str("subject", msg.Subject).Int("status", resp.StatusCode).Msg("email sent")
	return nil
}

// Log writes messages to the log instead of sending them.
type Log struct {
	logger zerolog.Logger
}

// NewLog returns a sender for development environments.
func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger.With().Str("component", "mailer").Str("provider", "log").Logger()}
}

// Send logs the message.
func (l *Log) Send(_ context.Context, msg Message) error {
	if err := validate(msg); err != nil {
		return err
	}
	l.logger.Info().
		Str("to", msg.ToEmail).
		Str("subject", msg.Subject).
		Int("body_bytes", len(msg.Text)).
		Msg("email captured")
	return nil
}

func validate(msg Message) error {
	if strings.TrimSpace(msg.ToEmail) == "" {
		return fmt.Errorf("email recipient must be provided")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return fmt.Errorf("email subject must be provided")
	}
	return nil
}
