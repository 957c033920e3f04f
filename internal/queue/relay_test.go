package queue

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/codemastery/internal/domain"
	"github.com/felixgeelhaar/codemastery/internal/repository"
	"github.com/felixgeelhaar/codemastery/internal/storage"
)

var baseTime = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

// fakePublisher records events and fails on the configured event types.
type fakePublisher struct {
	mu     sync.Mutex
	events []domain.OutboxEvent
	failOn map[string]error
	calls  int
}

func (p *fakePublisher) Publish(_ context.Context, event domain.OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if err, ok := p.failOn[event.ID]; ok {
		return err
	}
	p.events = append(p.events, event)
	return nil
}

func newTestOutbox(t *testing.T) *repository.SQLUnitOfWork {
	t.Helper()
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "outbox.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return repository.NewSQLUnitOfWork(db)
}

// appendEvents stores n attempt events one minute apart and returns their ids.
func appendEvents(t *testing.T, uow domain.UnitOfWorkFactory, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	err := domain.WithUnitOfWork(context.Background(), uow, func(u domain.UnitOfWork) error {
		for i := 0; i < n; i++ {
			ev := domain.NewAttemptSubmittedEvent(domain.ExerciseAttempt{
				ID:          int64(i + 1),
				UserID:      7,
				LessonID:    3,
				IsCorrect:   i%2 == 0,
				AttemptDate: baseTime.Add(time.Duration(i) * time.Minute),
			})
			if err := u.Events().Append(context.Background(), ev); err != nil {
				return err
			}
			ids = append(ids, ev.EventID().String())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("append events: %v", err)
	}
	return ids
}

func unpublished(t *testing.T, uow domain.UnitOfWorkFactory) []domain.OutboxEvent {
	t.Helper()
	events, err := domain.Within(context.Background(), uow, func(u domain.UnitOfWork) ([]domain.OutboxEvent, error) {
		return u.Events().Unpublished(context.Background(), 100)
	})
	if err != nil {
		t.Fatalf("Unpublished() error = %v", err)
	}
	return events
}

func TestRelayOnce_PublishesInOrderAndMarks(t *testing.T) {
	uow := newTestOutbox(t)
	ids := appendEvents(t, uow, 3)

	pub := &fakePublisher{}
	relay := NewRelay(uow, pub, time.Second)
	relay.now = func() time.Time { return baseTime.Add(time.Hour) }

	n, err := relay.RelayOnce(context.Background())
	if err != nil {
		t.Fatalf("RelayOnce() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("RelayOnce() = %d, want 3", n)
	}
	for i, ev := range pub.events {
		if ev.ID != ids[i] {
			t.Errorf("event %d = %s, want %s", i, ev.ID, ids[i])
		}
		if ev.Type != domain.EventAttemptSubmitted {
			t.Errorf("event %d type = %q", i, ev.Type)
		}
		if len(ev.Payload) == 0 {
			t.Errorf("event %d has empty payload", i)
		}
	}

	if left := unpublished(t, uow); len(left) != 0 {
		t.Errorf("unpublished after relay = %d, want 0", len(left))
	}

	n, err = relay.RelayOnce(context.Background())
	if err != nil || n != 0 {
		t.Errorf("second RelayOnce() = %d, %v; want 0, nil", n, err)
	}
}

func TestRelayOnce_StopsAtFirstFailure(t *testing.T) {
	uow := newTestOutbox(t)
	ids := appendEvents(t, uow, 3)

	brokerDown := errors.New("broker down")
	pub := &fakePublisher{failOn: map[string]error{ids[1]: brokerDown}}
	relay := NewRelay(uow, pub, time.Second)

	n, err := relay.RelayOnce(context.Background())
	if !errors.Is(err, brokerDown) {
		t.Fatalf("RelayOnce() error = %v, want broker down", err)
	}
	if n != 1 {
		t.Errorf("RelayOnce() = %d, want 1", n)
	}
	if pub.calls != 2 {
		t.Errorf("publish calls = %d, want 2", pub.calls)
	}

	left := unpublished(t, uow)
	if len(left) != 2 || left[0].ID != ids[1] || left[1].ID != ids[2] {
		t.Fatalf("unpublished = %+v, want the failed event and its successor", left)
	}

	delete(pub.failOn, ids[1])
	n, err = relay.RelayOnce(context.Background())
	if err != nil || n != 2 {
		t.Errorf("retry RelayOnce() = %d, %v; want 2, nil", n, err)
	}
}

func TestRelay_RunStopsOnCancel(t *testing.T) {
	uow := newTestOutbox(t)
	appendEvents(t, uow, 1)

	pub := &fakePublisher{}
	relay := NewRelay(uow, pub, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		pub.mu.Lock()
		got := len(pub.events)
		pub.mu.Unlock()
		if got == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("relay did not publish within 2s")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
