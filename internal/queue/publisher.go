package queue

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/felixgeelhaar/codemastery/internal/domain"
)

// Publisher delivers one outbox event to the message bus
type Publisher interface {
	Publish(ctx context.Context, event domain.OutboxEvent) error
}

// Producer publishes outbox events to the topic exchange, routed by event type
type Producer struct {
	conn *Connection
}

// NewProducer creates a new queue producer
func NewProducer(conn *Connection) *Producer {
	return &Producer{conn: conn}
}

// Publish sends the event payload with its metadata in message properties
func (p *Producer) Publish(ctx context.Context, event domain.OutboxEvent) error {
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         event.Type,
		Timestamp:    event.OccurredAt,
		Headers: amqp.Table{
			"aggregate_type": event.AggregateType,
			"aggregate_id":   event.AggregateID,
		},
		Body: event.Payload,
	}

	if err := p.conn.publish(ctx, event.Type, msg); err != nil {
		return fmt.Errorf("failed to publish event %s: %w", event.ID, err)
	}

	slog.Debug("published event",
		"event_id", event.ID,
		"event_type", event.Type,
		"aggregate_id", event.AggregateID,
	)

	return nil
}

var _ Publisher = (*Producer)(nil)
