package progress

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/codemastery/internal/domain"
	"github.com/felixgeelhaar/codemastery/internal/repository"
	"github.com/felixgeelhaar/codemastery/internal/storage"
)

var fixedNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc     *Service
	factory *repository.SQLUnitOfWork
	users   []domain.User
}

// newFixture seeds three users and the modules m1, m2 and m3 of course py101.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "progress.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &fixture{factory: repository.NewSQLUnitOfWork(db)}
	f.svc = NewService(f.factory)
	f.svc.now = func() time.Time { return fixedNow }

	ctx := context.Background()
	err = domain.WithUnitOfWork(ctx, f.factory, func(uow domain.UnitOfWork) error {
		for _, name := range []string{"ada", "grace", "linus"} {
			u := domain.User{Name: name, Email: name + "@example.com", PasswordHash: "hash", CreatedAt: fixedNow, UpdatedAt: fixedNow}
			if err := uow.Users().Create(ctx, &u); err != nil {
				return err
			}
			f.users = append(f.users, u)
		}
		if err := uow.Courses().Create(ctx, &domain.Course{ID: "py101", Title: "Python", CreatedAt: fixedNow, UpdatedAt: fixedNow}); err != nil {
			return err
		}
		for i, id := range []string{"m1", "m2", "m3"} {
			m := domain.Module{ID: id, CourseID: "py101", Title: id, Position: i + 1, CreatedAt: fixedNow, UpdatedAt: fixedNow}
			if err := uow.Modules().Create(ctx, &m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return f
}

func (f *fixture) create(t *testing.T, userID int64, moduleID string, completed bool, at *time.Time) *domain.UserProgress {
	t.Helper()
	p, err := f.svc.Create(context.Background(), CreateRequest{UserID: userID, ModuleID: moduleID, Completed: completed, CompletionDate: at})
	if err != nil {
		t.Fatalf("Create(%d, %s) error = %v", userID, moduleID, err)
	}
	return p
}

func (f *fixture) events(t *testing.T) []domain.OutboxEvent {
	t.Helper()
	events, err := domain.Within(context.Background(), f.factory, func(uow domain.UnitOfWork) ([]domain.OutboxEvent, error) {
		return uow.Events().Unpublished(context.Background(), 100)
	})
	if err != nil {
		t.Fatal(err)
	}
	return events
}

func boolPtr(b bool) *bool { return &b }

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.users[0].ID

	p := f.create(t, ada, "m1", true, nil)
	if p.ID == 0 || p.CompletionDate == nil || !p.CompletionDate.Equal(fixedNow) {
		t.Errorf("Create(completed) = %+v, want completion date stamped", p)
	}

	explicit := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))
	p = f.create(t, ada, "m2", true, &explicit)
	if p.CompletionDate == nil || !p.CompletionDate.Equal(explicit) || p.CompletionDate.Location() != time.UTC {
		t.Errorf("Create(explicit date) CompletionDate = %v", p.CompletionDate)
	}

	p = f.create(t, ada, "m3", false, nil)
	if p.CompletionDate != nil {
		t.Errorf("Create(incomplete) CompletionDate = %v, want nil", p.CompletionDate)
	}

	tests := []struct {
		name    string
		req     CreateRequest
		wantErr error
	}{
		{"duplicate pair", CreateRequest{UserID: ada, ModuleID: "m1"}, domain.ErrConflict},
		{"missing user", CreateRequest{UserID: 999, ModuleID: "m1"}, domain.ErrNotFound},
		{"missing module", CreateRequest{UserID: ada, ModuleID: "nope"}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Create(ctx, tt.req); !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if _, err := f.svc.Create(ctx, CreateRequest{UserID: ada, ModuleID: "m1"}); !errors.Is(err, domain.ErrProgressExists) {
		t.Errorf("duplicate Create() error = %v, want ErrProgressExists", err)
	}

	events := f.events(t)
	if len(events) != 2 {
		t.Fatalf("outbox has %d events, want 2 (one per completed create)", len(events))
	}
	for _, e := range events {
		if e.Type != domain.EventModuleCompleted {
			t.Errorf("event type = %q", e.Type)
		}
	}
}

func TestUpdate(t *testing.T) {
	earlier := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	explicit := time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		completed bool
		date      *time.Time
		patch     domain.ProgressPatch
		wantDone  bool
		wantDate  *time.Time
		wantEvent bool
	}{
		{
			name:      "complete stamps now",
			patch:     domain.ProgressPatch{Completed: boolPtr(true)},
			wantDone:  true,
			wantDate:  &fixedNow,
			wantEvent: true,
		},
		{
			name:      "complete with explicit null stamps now",
			patch:     domain.ProgressPatch{Completed: boolPtr(true), CompletionDate: domain.ClearTime()},
			wantDone:  true,
			wantDate:  &fixedNow,
			wantEvent: true,
		},
		{
			name:      "complete with explicit date",
			patch:     domain.ProgressPatch{Completed: boolPtr(true), CompletionDate: domain.SetTime(explicit)},
			wantDone:  true,
			wantDate:  &explicit,
			wantEvent: true,
		},
		{
			name:      "uncomplete keeps date",
			completed: true,
			date:      &earlier,
			patch:     domain.ProgressPatch{Completed: boolPtr(false)},
			wantDone:  false,
			wantDate:  &earlier,
		},
		{
			name:      "uncomplete and clear",
			completed: true,
			date:      &earlier,
			patch:     domain.ProgressPatch{Completed: boolPtr(false), CompletionDate: domain.ClearTime()},
			wantDone:  false,
			wantDate:  nil,
		},
		{
			name:      "already completed emits nothing",
			completed: true,
			date:      &earlier,
			patch:     domain.ProgressPatch{Completed: boolPtr(true), CompletionDate: domain.SetTime(earlier)},
			wantDone:  true,
			wantDate:  &earlier,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ada := f.users[0].ID
			f.create(t, ada, "m1", tt.completed, tt.date)
			before := len(f.events(t))

			got, err := f.svc.Update(context.Background(), ada, "m1", tt.patch)
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}
			if got.Completed != tt.wantDone {
				t.Errorf("Completed = %v, want %v", got.Completed, tt.wantDone)
			}
			switch {
			case tt.wantDate == nil && got.CompletionDate != nil:
				t.Errorf("CompletionDate = %v, want nil", got.CompletionDate)
			case tt.wantDate != nil && (got.CompletionDate == nil || !got.CompletionDate.Equal(*tt.wantDate)):
				t.Errorf("CompletionDate = %v, want %v", got.CompletionDate, tt.wantDate)
			}

			stored, err := f.svc.ByUser(context.Background(), ada)
			if err != nil || len(stored) != 1 || stored[0].Completed != tt.wantDone {
				t.Errorf("stored row = %+v, %v", stored, err)
			}

			emitted := len(f.events(t)) - before
			if tt.wantEvent != (emitted == 1) {
				t.Errorf("emitted %d events, wantEvent %v", emitted, tt.wantEvent)
			}
		})
	}
}

func TestUpdateAndDelete_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.users[0].ID

	if _, err := f.svc.Update(ctx, ada, "m1", domain.ProgressPatch{Completed: boolPtr(true)}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}

	f.create(t, ada, "m1", false, nil)
	if err := f.svc.Delete(ctx, ada, "m1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := f.svc.Delete(ctx, ada, "m1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestReads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada, grace := f.users[0].ID, f.users[1].ID

	march2 := time.Date(2025, 3, 2, 23, 59, 0, 0, time.UTC)
	march3 := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	f.create(t, ada, "m1", true, &march2)
	f.create(t, ada, "m2", true, &march3)
	f.create(t, grace, "m1", false, nil)

	t.Run("list paged", func(t *testing.T) {
		all, err := f.svc.List(ctx, domain.Page{})
		if err != nil || len(all) != 3 {
			t.Fatalf("List() = %d rows, %v", len(all), err)
		}
		page, err := f.svc.List(ctx, domain.Page{Offset: 2, Limit: 5})
		if err != nil || len(page) != 1 || page[0].UserID != grace {
			t.Errorf("List(offset 2) = %+v, %v", page, err)
		}
	})

	t.Run("by user", func(t *testing.T) {
		rows, err := f.svc.ByUser(ctx, ada)
		if err != nil || len(rows) != 2 {
			t.Errorf("ByUser() = %d rows, %v", len(rows), err)
		}
		if _, err := f.svc.ByUser(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("ByUser(999) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("by module", func(t *testing.T) {
		rows, err := f.svc.ByModule(ctx, "m1")
		if err != nil || len(rows) != 2 {
			t.Errorf("ByModule() = %d rows, %v", len(rows), err)
		}
		rows, err = f.svc.ByModule(ctx, "m3")
		if err != nil || len(rows) != 0 {
			t.Errorf("ByModule(m3) = %d rows, %v", len(rows), err)
		}
		if _, err := f.svc.ByModule(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("ByModule(nope) error = %v, want ErrNotFound", err)
		}
	})

	t.Run("by status", func(t *testing.T) {
		tests := []struct {
			raw     string
			want    int
			wantErr bool
		}{
			{"1", 2, false},
			{"0", 1, false},
			{"true", 0, true},
			{"", 0, true},
			{"2", 0, true},
		}
		for _, tt := range tests {
			rows, err := f.svc.ByStatus(ctx, tt.raw)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidInput) {
					t.Errorf("ByStatus(%q) error = %v, want ErrInvalidInput", tt.raw, err)
				}
				continue
			}
			if err != nil || len(rows) != tt.want {
				t.Errorf("ByStatus(%q) = %d rows, %v; want %d", tt.raw, len(rows), err, tt.want)
			}
		}
	})

	t.Run("by date range", func(t *testing.T) {
		tests := []struct {
			start, end string
			want       int
			wantErr    bool
		}{
			{"2025-03-02", "2025-03-02", 1, false},
			{"2025-03-02", "2025-03-03", 2, false},
			{"2025-03-03", "2025-03-31", 1, false},
			{"2025-04-01", "2025-04-30", 0, false},
			{"2025-03-05", "2025-03-01", 0, true},
			{"03/02/2025", "2025-03-03", 0, true},
			{"", "2025-03-03", 0, true},
		}
		for _, tt := range tests {
			rows, err := f.svc.ByDateRange(ctx, tt.start, tt.end)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidInput) {
					t.Errorf("ByDateRange(%s, %s) error = %v, want ErrInvalidInput", tt.start, tt.end, err)
				}
				continue
			}
			if err != nil || len(rows) != tt.want {
				t.Errorf("ByDateRange(%s, %s) = %d rows, %v; want %d", tt.start, tt.end, len(rows), err, tt.want)
			}
		}
	})
}

func TestModuleCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada, grace := f.users[0], f.users[1]

	f.create(t, ada.ID, "m1", true, nil)
	f.create(t, grace.ID, "m1", false, nil)

	lists, err := f.svc.ModuleCompletion(ctx, "m1")
	if err != nil {
		t.Fatalf("ModuleCompletion() error = %v", err)
	}
	if len(lists.Completed) != 1 || lists.Completed[0].UserID != ada.ID || lists.Completed[0].Email != ada.Email {
		t.Errorf("Completed = %+v", lists.Completed)
	}
	if len(lists.Incomplete) != 1 || lists.Incomplete[0].UserID != grace.ID {
		t.Errorf("Incomplete = %+v", lists.Incomplete)
	}

	seen := map[int64]bool{}
	for _, u := range append(lists.Completed, lists.Incomplete...) {
		if seen[u.UserID] {
			t.Errorf("user %d appears in both lists", u.UserID)
		}
		seen[u.UserID] = true
	}
	if seen[f.users[2].ID] {
		t.Error("user without progress appears in a list")
	}

	empty, err := f.svc.ModuleCompletion(ctx, "m2")
	if err != nil || len(empty.Completed) != 0 || len(empty.Incomplete) != 0 {
		t.Errorf("ModuleCompletion(m2) = %+v, %v", empty, err)
	}

	if _, err := f.svc.ModuleCompletion(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("ModuleCompletion(nope) error = %v, want ErrNotFound", err)
	}
}

func TestUserSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada, grace := f.users[0], f.users[1]

	summary, err := f.svc.UserSummary(ctx, grace.ID)
	if err != nil {
		t.Fatalf("UserSummary() error = %v", err)
	}
	if summary.Total != 0 || summary.Percentage != 0 || summary.UserName != "grace" {
		t.Errorf("empty summary = %+v", summary)
	}

	f.create(t, ada.ID, "m1", true, nil)
	f.create(t, ada.ID, "m2", true, nil)
	f.create(t, ada.ID, "m3", false, nil)

	summary, err = f.svc.UserSummary(ctx, ada.ID)
	if err != nil {
		t.Fatalf("UserSummary() error = %v", err)
	}
	want := domain.ProgressSummary{UserID: ada.ID, UserName: "ada", Total: 3, Completed: 2, Incomplete: 1, Percentage: 66.67}
	if *summary != want {
		t.Errorf("UserSummary() = %+v, want %+v", *summary, want)
	}

	if _, err := f.svc.UserSummary(ctx, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("UserSummary(999) error = %v, want ErrNotFound", err)
	}
}
