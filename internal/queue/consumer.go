package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Delivery is an event received from the exchange
type Delivery struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
}

// DeliveryHandler processes one received event
type DeliveryHandler func(ctx context.Context, d Delivery) error

// Consumer subscribes a private queue to the events exchange
type Consumer struct {
	conn       *Connection
	handler    DeliveryHandler
	bindings   []string
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewConsumer creates a consumer for the given routing patterns; none means all events
func NewConsumer(conn *Connection, handler DeliveryHandler, bindings ...string) *Consumer {
	if len(bindings) == 0 {
		bindings = []string{"#"}
	}
	return &Consumer{
		conn:     conn,
		handler:  handler,
		bindings: bindings,
	}
}

// Start declares an exclusive queue, binds it and begins consuming
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancelFunc = context.WithCancel(ctx)

	ch := c.conn.Channel()

	q, err := ch.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	for _, pattern := range c.bindings {
		if err := ch.QueueBind(q.Name, pattern, c.conn.Exchange(), false, nil); err != nil {
			return fmt.Errorf("failed to bind %s: %w", pattern, err)
		}
	}

	msgs, err := ch.Consume(
		q.Name,
		"",    // consumer tag (auto-generated)
		false, // auto-ack (manual ack for reliability)
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	slog.Info("consuming events", "queue", q.Name, "bindings", c.bindings)

	c.wg.Add(1)
	go c.consume(ctx, msgs)

	return nil
}

func (c *Consumer) consume(ctx context.Context, msgs <-chan amqp.Delivery) {
	defer c.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				slog.Info("message channel closed")
				return
			}
			c.processMessage(ctx, msg)
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context, msg amqp.Delivery) {
	d := toDelivery(msg)

	if err := c.handler(ctx, d); err != nil {
		slog.Error("event handler failed",
			"event_id", d.ID,
			"event_type", d.Type,
			"error", err,
		)
		// Reject without requeue; the outbox remains the source of truth
		_ = msg.Reject(false)
		return
	}

	if err := msg.Ack(false); err != nil {
		slog.Error("failed to ack message", "event_id", d.ID, "error", err)
	}
}

func toDelivery(msg amqp.Delivery) Delivery {
	d := Delivery{
		ID:         msg.MessageId,
		Type:       msg.Type,
		OccurredAt: msg.Timestamp.UTC(),
		Payload:    json.RawMessage(msg.Body),
	}
	if d.Type == "" {
		d.Type = msg.RoutingKey
	}
	if v, ok := msg.Headers["aggregate_type"].(string); ok {
		d.AggregateType = v
	}
	if v, ok := msg.Headers["aggregate_id"].(string); ok {
		d.AggregateID = v
	}
	return d
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
	slog.Info("consumer stopped")
}
