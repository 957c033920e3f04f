package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/codemastery/internal/domain"
)

// DefaultBatchSize bounds the events relayed per poll.
const DefaultBatchSize = 100

// Relay moves committed outbox events to a Publisher
type Relay struct {
	uow       domain.UnitOfWorkFactory
	publisher Publisher
	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// NewRelay creates a relay polling the outbox every interval
func NewRelay(uow domain.UnitOfWorkFactory, publisher Publisher, interval time.Duration) *Relay {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Relay{
		uow:       uow,
		publisher: publisher,
		interval:  interval,
		batchSize: DefaultBatchSize,
		now:       domain.Now,
	}
}

// Run polls until ctx is cancelled
func (r *Relay) Run(ctx context.Context) {
	slog.Info("starting outbox relay", "interval", r.interval, "batch_size", r.batchSize)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("outbox relay stopped")
			return
		case <-ticker.C:
			n, err := r.RelayOnce(ctx)
			if err != nil {
				slog.Error("outbox relay failed", "error", err, "published", n)
				continue
			}
			if n > 0 {
				slog.Info("relayed outbox events", "count", n)
			}
		}
	}
}

// RelayOnce publishes one batch in order and marks what was delivered.
// It stops at the first failed publish so later events wait their turn.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	events, err := domain.Within(ctx, r.uow, func(uow domain.UnitOfWork) ([]domain.OutboxEvent, error) {
		return uow.Events().Unpublished(ctx, r.batchSize)
	})
	if err != nil {
		return 0, fmt.Errorf("load outbox: %w", err)
	}

	var published []string
	var publishErr error
	for _, event := range events {
		if err := r.publisher.Publish(ctx, event); err != nil {
			publishErr = fmt.Errorf("publish %s %s: %w", event.Type, event.ID, err)
			break
		}
		published = append(published, event.ID)
	}

	if len(published) > 0 {
		at := r.now()
		err := domain.WithUnitOfWork(ctx, r.uow, func(uow domain.UnitOfWork) error {
			for _, id := range published {
				if err := uow.Events().MarkPublished(ctx, id, at); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return 0, fmt.Errorf("mark published: %w", err)
		}
	}

	return len(published), publishErr
}
