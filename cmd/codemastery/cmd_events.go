package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/felixgeelhaar/codemastery/internal/config"
	"github.com/felixgeelhaar/codemastery/internal/queue"
)

// cmdEvents prints events from the exchange as JSON lines until interrupted
func cmdEvents(patterns []string) error {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.RelayEnabled() {
		return fmt.Errorf("RABBITMQ_URL is not set")
	}

	conn, err := queue.NewConnection(cfg.RabbitMQURL, cfg.EventsExchange)
	if err != nil {
		return err
	}
	defer conn.Close()

	enc := json.NewEncoder(os.Stdout)
	consumer := queue.NewConsumer(conn, func(_ context.Context, d queue.Delivery) error {
		return enc.Encode(d)
	}, patterns...)

	ctx, cancel := signalContext()
	defer cancel()

	if err := consumer.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Listening on exchange %s (Ctrl+C to stop)\n", conn.Exchange())

	<-ctx.Done()
	consumer.Stop()
	return nil
}
