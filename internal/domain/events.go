package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Event Interface and Base Event
// -----------------------------------------------------------------------------

// Event types
const (
	EventAttemptSubmitted = "exercise.attempt_submitted"
	EventModuleCompleted  = "progress.module_completed"
)

// Event represents a domain event
type Event interface {
	// EventID returns the unique identifier for this event
	EventID() uuid.UUID
	// EventType returns the type name of this event
	EventType() string
	// OccurredAt returns when this event occurred
	OccurredAt() time.Time
	// AggregateID returns the ID of the aggregate that produced this event
	AggregateID() string
	// AggregateType returns the type of aggregate that produced this event
	AggregateType() string
}

// BaseEvent provides common event fields
type BaseEvent struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateKey  string    `json:"aggregate_id"`
	AggregateName string    `json:"aggregate_type"`
}

// NewBaseEvent creates a new BaseEvent
func NewBaseEvent(eventType string, aggregate Entity, aggregateID string, at time.Time) BaseEvent {
	return BaseEvent{
		ID:            uuid.New(),
		Type:          eventType,
		Timestamp:     at,
		AggregateKey:  aggregateID,
		AggregateName: string(aggregate),
	}
}

func (e BaseEvent) EventID() uuid.UUID    { return e.ID }
func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) AggregateID() string   { return e.AggregateKey }
func (e BaseEvent) AggregateType() string { return e.AggregateName }

// AttemptSubmittedEvent is recorded for every graded submission
type AttemptSubmittedEvent struct {
	BaseEvent
	UserID    int64 `json:"user_id"`
	LessonID  int64 `json:"lesson_id"`
	IsCorrect bool  `json:"is_correct"`
}

// NewAttemptSubmittedEvent creates an event for a stored attempt
func NewAttemptSubmittedEvent(a ExerciseAttempt) AttemptSubmittedEvent {
	return AttemptSubmittedEvent{
		BaseEvent: NewBaseEvent(EventAttemptSubmitted, EntityAttempt, strconv.FormatInt(a.ID, 10), a.AttemptDate),
		UserID:    a.UserID,
		LessonID:  a.LessonID,
		IsCorrect: a.IsCorrect,
	}
}

// ModuleCompletedEvent is recorded when a progress row becomes completed
type ModuleCompletedEvent struct {
	BaseEvent
	UserID         int64     `json:"user_id"`
	ModuleID       string    `json:"module_id"`
	CompletionDate time.Time `json:"completion_date"`
}

// NewModuleCompletedEvent creates an event for a completed progress row
func NewModuleCompletedEvent(p UserProgress) ModuleCompletedEvent {
	at := p.UpdatedAt
	if p.CompletionDate != nil {
		at = *p.CompletionDate
	}
	return ModuleCompletedEvent{
		BaseEvent:      NewBaseEvent(EventModuleCompleted, EntityProgress, strconv.FormatInt(p.ID, 10), p.UpdatedAt),
		UserID:         p.UserID,
		ModuleID:       p.ModuleID,
		CompletionDate: at,
	}
}

// OutboxEvent is a stored event waiting to be relayed
type OutboxEvent struct {
	ID            string
	Type          string
	AggregateType string
	AggregateID   string
	Payload       []byte
	OccurredAt    time.Time
	PublishedAt   *time.Time
}
