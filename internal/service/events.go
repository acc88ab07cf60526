package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Domain event names. The configured prefix is prepended to form the NATS subject.
const (
	EventEnrollmentActivated = "enrollment.activated"
	EventCourseCompleted     = "course.completed"
	EventCertificateIssued   = "certificate.issued"
	EventPaymentCompleted    = "payment.completed"
	EventPaymentFailed       = "payment.failed"
)

// EventPublisher emits domain events after state changes have been committed.
type EventPublisher interface {
	Publish(ctx context.Context, event string, payload map[string]interface{}) error
}

type eventEnvelope struct {
	Event      string                 `json:"event"`
	Payload    map[string]interface{} `json:"payload"`
	OccurredAt time.Time              `json:"occurred_at"`
}

type natsEventPublisher struct {
	conn   *nats.Conn
	prefix string
	logger zerolog.Logger
}

// NewNATSEventPublisher publishes events as JSON envelopes on "<prefix>.<event>".
func NewNATSEventPublisher(conn *nats.Conn, prefix string, logger zerolog.Logger) EventPublisher {
	if conn == nil {
		return NopEventPublisher()
	}
	return &natsEventPublisher{
		conn:   conn,
		prefix: strings.Trim(strings.ReplaceAll(prefix, ":", "."), "."),
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsEventPublisher) Publish(_ context.Context, event string, payload map[string]interface{}) error {
	data, err := json.Marshal(eventEnvelope{Event: event, Payload: payload, OccurredAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	subject := event
	if p.prefix != "" {
		subject = p.prefix + "." + event
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return err
	}
	p.logger.Debug().Str("subject", subject).Msg("event published")
	return nil
}

type nopEventPublisher struct{}

// NopEventPublisher discards events. Used when no broker is configured.
func NopEventPublisher() EventPublisher {
	return nopEventPublisher{}
}

func (nopEventPublisher) Publish(context.Context, string, map[string]interface{}) error {
	return nil
}

// publishEvent is best effort: the state change it reports is already committed.
func publishEvent(ctx context.Context, publisher EventPublisher, logger zerolog.Logger, event string, payload map[string]interface{}) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event, payload); err != nil {
		logger.Warn().Err(err).Str("event", event).Msg("failed to publish domain event")
	}
}
