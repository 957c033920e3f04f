//go:build integration

package queue_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"github.com/felixgeelhaar/codemastery/internal/domain"
	"github.com/felixgeelhaar/codemastery/internal/queue"
	"github.com/felixgeelhaar/codemastery/internal/repository"
	"github.com/felixgeelhaar/codemastery/internal/storage"
)

// setupRabbitMQ creates a RabbitMQ container for testing
func setupRabbitMQ(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, "rabbitmq:3.12-management")
	if err != nil {
		t.Fatalf("failed to start RabbitMQ container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	amqpURL, err := container.AmqpURL(ctx)
	if err != nil {
		t.Fatalf("failed to get AMQP URL: %v", err)
	}
	return amqpURL
}

func TestIntegration_Connection_ConnectAndClose(t *testing.T) {
	amqpURL := setupRabbitMQ(t)

	conn, err := queue.NewConnection(amqpURL, "")
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}
	if !conn.IsConnected() {
		t.Error("expected connection to be active")
	}
	if conn.Exchange() != queue.DefaultExchange {
		t.Errorf("exchange = %q", conn.Exchange())
	}
	if err := conn.Close(); err != nil {
		t.Errorf("failed to close connection: %v", err)
	}
}

func TestIntegration_Connection_InvalidURL(t *testing.T) {
	if _, err := queue.NewConnection("amqp://invalid:5672", ""); err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestIntegration_RelayDeliversToConsumer(t *testing.T) {
	amqpURL := setupRabbitMQ(t)
	ctx := context.Background()

	conn, err := queue.NewConnection(amqpURL, "codemastery.test")
	if err != nil {
		t.Fatalf("failed to create connection: %v", err)
	}
	defer conn.Close()

	received := make(chan queue.Delivery, 4)
	consumer := queue.NewConsumer(conn, func(_ context.Context, d queue.Delivery) error {
		received <- d
		return nil
	}, "progress.*")
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("failed to start consumer: %v", err)
	}
	defer consumer.Stop()

	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "relay.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	uow := repository.NewSQLUnitOfWork(db)

	completedAt := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	completed := domain.NewModuleCompletedEvent(domain.UserProgress{
		ID: 4, UserID: 7, ModuleID: "py101-m1", Completed: true,
		CompletionDate: &completedAt, UpdatedAt: completedAt,
	})
	submitted := domain.NewAttemptSubmittedEvent(domain.ExerciseAttempt{ID: 9, UserID: 7, LessonID: 3, AttemptDate: completedAt})
	err = domain.WithUnitOfWork(ctx, uow, func(u domain.UnitOfWork) error {
		if err := u.Events().Append(ctx, submitted); err != nil {
			return err
		}
		return u.Events().Append(ctx, completed)
	})
	if err != nil {
		t.Fatalf("append events: %v", err)
	}

	pub := queue.NewResilientPublisher(queue.NewProducer(conn), queue.DefaultResilientConfig())
	n, err := queue.NewRelay(uow, pub, time.Second).RelayOnce(ctx)
	if err != nil {
		t.Fatalf("RelayOnce() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("RelayOnce() = %d, want 2", n)
	}

	select {
	case d := <-received:
		if d.ID != completed.EventID().String() || d.Type != domain.EventModuleCompleted {
			t.Errorf("delivery = %+v, want the completion event", d)
		}
		if d.AggregateType != string(domain.EntityProgress) || d.AggregateID != "4" {
			t.Errorf("aggregate = %s/%s", d.AggregateType, d.AggregateID)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for delivery")
	}

	select {
	case d := <-received:
		t.Errorf("unexpected delivery for unbound routing key: %+v", d)
	case <-time.After(500 * time.Millisecond):
	}
}
