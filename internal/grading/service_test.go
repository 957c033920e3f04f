package grading

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/codemastery/internal/domain"
	"github.com/felixgeelhaar/codemastery/internal/repository"
	"github.com/felixgeelhaar/codemastery/internal/storage"
)

type fixture struct {
	svc     *Service
	factory *repository.SQLUnitOfWork
	clock   time.Time
	user    domain.User
	lesson  domain.Lesson
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "grading.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		factory: repository.NewSQLUnitOfWork(db),
		clock:   time.Date(2025, 2, 10, 14, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.factory)
	f.svc.now = func() time.Time {
		f.clock = f.clock.Add(time.Second)
		return f.clock
	}

	ctx := context.Background()
	err = domain.WithUnitOfWork(ctx, f.factory, func(uow domain.UnitOfWork) error {
		f.user = domain.User{Name: "Ada", Email: "ada@example.com", PasswordHash: "hash", CreatedAt: f.clock, UpdatedAt: f.clock}
		if err := uow.Users().Create(ctx, &f.user); err != nil {
			return err
		}
		if err := uow.Courses().Create(ctx, &domain.Course{ID: "py101", Title: "Python", CreatedAt: f.clock, UpdatedAt: f.clock}); err != nil {
			return err
		}
		if err := uow.Modules().Create(ctx, &domain.Module{ID: "py101-m1", CourseID: "py101", Title: "Intro", Position: 1, CreatedAt: f.clock, UpdatedAt: f.clock}); err != nil {
			return err
		}
		f.lesson = domain.Lesson{ModuleID: "py101-m1", Title: "Hello", PracticeSolution: "print('hi')", Position: 1, CreatedAt: f.clock, UpdatedAt: f.clock}
		return uow.Lessons().Create(ctx, &f.lesson)
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return f
}

func (f *fixture) outbox(t *testing.T) []domain.OutboxEvent {
	t.Helper()
	events, err := domain.Within(context.Background(), f.factory, func(uow domain.UnitOfWork) ([]domain.OutboxEvent, error) {
		return uow.Events().Unpublished(context.Background(), 100)
	})
	if err != nil {
		t.Fatalf("Unpublished() error = %v", err)
	}
	return events
}

func TestSubmit_Grading(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		code string
		want bool
	}{
		{"exact", "print('hi')", true},
		{"surrounding whitespace", "  print('hi')\n\n", true},
		{"different case", "print('HI')", false},
		{"inner whitespace", "print( 'hi')", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.Submit(context.Background(), SubmitRequest{LessonID: f.lesson.ID, UserID: f.user.ID, Code: tt.code})
			if err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
			if got.IsCorrect != tt.want {
				t.Errorf("IsCorrect = %v, want %v", got.IsCorrect, tt.want)
			}
			if got.ID == 0 || got.CodeSubmitted != tt.code {
				t.Errorf("Submit() = %+v", got)
			}
		})
	}

	if n := len(f.outbox(t)); n != len(tests) {
		t.Errorf("outbox has %d events, want %d", n, len(tests))
	}
}

func TestSubmit_RecordsEvent(t *testing.T) {
	f := newFixture(t)

	attempt, err := f.svc.Submit(context.Background(), SubmitRequest{LessonID: f.lesson.ID, UserID: f.user.ID, Code: "print('hi')"})
	if err != nil {
		t.Fatal(err)
	}

	events := f.outbox(t)
	if len(events) != 1 {
		t.Fatalf("outbox has %d events, want 1", len(events))
	}
	if events[0].Type != domain.EventAttemptSubmitted || events[0].AggregateType != string(domain.EntityAttempt) {
		t.Errorf("event = %+v", events[0])
	}

	var payload struct {
		UserID    int64 `json:"user_id"`
		LessonID  int64 `json:"lesson_id"`
		IsCorrect bool  `json:"is_correct"`
	}
	if err := json.Unmarshal(events[0].Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.UserID != attempt.UserID || payload.LessonID != attempt.LessonID || !payload.IsCorrect {
		t.Errorf("payload = %+v", payload)
	}
}

func TestSubmit_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, SubmitRequest{LessonID: 999, UserID: 999, Code: "x"})
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) || nf.Entity != domain.EntityLesson {
		t.Errorf("missing lesson and user: error = %v, want lesson NotFound", err)
	}

	_, err = f.svc.Submit(ctx, SubmitRequest{LessonID: f.lesson.ID, UserID: 999, Code: "x"})
	if !errors.As(err, &nf) || nf.Entity != domain.EntityUser {
		t.Errorf("missing user: error = %v, want user NotFound", err)
	}

	if n := len(f.outbox(t)); n != 0 {
		t.Errorf("failed submissions left %d events", n)
	}
}

func TestLatestAttempt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.LatestAttempt(ctx, f.lesson.ID, f.user.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("LatestAttempt() with no attempts error = %v, want ErrNotFound", err)
	}
	if _, err := f.svc.LatestAttempt(ctx, 999, f.user.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("LatestAttempt() for missing lesson error = %v, want ErrNotFound", err)
	}

	for _, code := range []string{"print('hi')", "print('HI')"} {
		if _, err := f.svc.Submit(ctx, SubmitRequest{LessonID: f.lesson.ID, UserID: f.user.ID, Code: code}); err != nil {
			t.Fatal(err)
		}
	}

	latest, err := f.svc.LatestAttempt(ctx, f.lesson.ID, f.user.ID)
	if err != nil {
		t.Fatalf("LatestAttempt() error = %v", err)
	}
	if latest.CodeSubmitted != "print('HI')" || latest.IsCorrect {
		t.Errorf("LatestAttempt() = %+v", latest)
	}
}

func TestListAndDeleteAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 3; i++ {
		a, err := f.svc.Submit(ctx, SubmitRequest{LessonID: f.lesson.ID, UserID: f.user.ID, Code: "x"})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, a.ID)
	}

	all, err := f.svc.ListAttempts(ctx, domain.AttemptFilter{})
	if err != nil || len(all) != 3 {
		t.Fatalf("ListAttempts() = %d, %v", len(all), err)
	}

	page, err := f.svc.ListAttempts(ctx, domain.AttemptFilter{UserID: &f.user.ID, Page: domain.Page{Offset: 1, Limit: 1}})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].ID != ids[1] {
		t.Errorf("paged ListAttempts() = %+v", page)
	}

	other := int64(999)
	none, err := f.svc.ListAttempts(ctx, domain.AttemptFilter{UserID: &other})
	if err != nil || len(none) != 0 {
		t.Errorf("ListAttempts(other user) = %v, %v", none, err)
	}

	if err := f.svc.DeleteAttempt(ctx, ids[0]); err != nil {
		t.Fatalf("DeleteAttempt() error = %v", err)
	}
	if err := f.svc.DeleteAttempt(ctx, ids[0]); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second DeleteAttempt() error = %v, want ErrNotFound", err)
	}
}
