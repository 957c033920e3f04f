package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sqlc-dev/pqtype"

	"github.com/felixgeelhaar/codemastery/internal/domain"
)

// EventRepository implements domain.EventRepository as a transactional outbox
type EventRepository struct {
	queries *Queries
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(queries *Queries) *EventRepository {
	return &EventRepository{queries: queries}
}

// Append stores a domain event in the outbox
func (r *EventRepository) Append(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.EventType(), err)
	}

	_, err = r.queries.exec(ctx, `
		INSERT INTO outbox_events (id, event_type, aggregate_type, aggregate_id, payload, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		event.EventID().String(), event.EventType(), event.AggregateType(), event.AggregateID(),
		pqtype.NullRawMessage{RawMessage: payload, Valid: true}, event.OccurredAt().UTC(),
	)
	return err
}

// Unpublished returns up to limit events not yet relayed, oldest first
func (r *EventRepository) Unpublished(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	rows, err := r.queries.query(ctx, `
		SELECT id, event_type, aggregate_type, aggregate_id, payload, occurred_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY occurred_at, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]domain.OutboxEvent, 0)
	for rows.Next() {
		var e domain.OutboxEvent
		var payload pqtype.NullRawMessage
		if err := rows.Scan(&e.ID, &e.Type, &e.AggregateType, &e.AggregateID, &payload, &e.OccurredAt); err != nil {
			return nil, err
		}
		if payload.Valid {
			e.Payload = payload.RawMessage
		}
		e.OccurredAt = e.OccurredAt.UTC()
		events = append(events, e)
	}
	return events, rows.Err()
}

// MarkPublished records when an event was relayed
func (r *EventRepository) MarkPublished(ctx context.Context, id string, at time.Time) error {
	found, err := r.queries.execAffecting(ctx, `
		UPDATE outbox_events SET published_at = ? WHERE id = ? AND published_at IS NULL`,
		sql.NullTime{Time: at.UTC(), Valid: true}, id)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("outbox event %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

var _ domain.EventRepository = (*EventRepository)(nil)
