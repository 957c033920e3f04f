// Package progress tracks which modules each user has completed and
// aggregates completion statistics.
package progress

import (
	"context"
	"time"

	"github.com/felixgeelhaar/codemastery/internal/domain"
)

// Service handles progress operations
type Service struct {
	uow domain.UnitOfWorkFactory
	now func() time.Time
}

// NewService creates a new progress service
func NewService(uow domain.UnitOfWorkFactory) *Service {
	return &Service{uow: uow, now: domain.Now}
}

// CreateRequest contains data for recording progress on a module
type CreateRequest struct {
	UserID         int64
	ModuleID       string
	Completed      bool
	CompletionDate *time.Time
}

// Create records progress for a (user, module) pair. A second row for the
// same pair is rejected by the store with domain.ErrProgressExists.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.UserProgress, error) {
	p := domain.NewUserProgress(req.UserID, req.ModuleID, req.Completed, normalize(req.CompletionDate), s.now())

	return domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) (*domain.UserProgress, error) {
		if err := uow.Require(ctx, domain.EntityUser, req.UserID); err != nil {
			return nil, err
		}
		if err := uow.Require(ctx, domain.EntityModule, req.ModuleID); err != nil {
			return nil, err
		}
		if err := uow.Progress().Create(ctx, &p); err != nil {
			return nil, err
		}
		if p.Completed {
			if err := uow.Events().Append(ctx, domain.NewModuleCompletedEvent(p)); err != nil {
				return nil, err
			}
		}
		return &p, nil
	})
}

// Update applies patch to the row of a (user, module) pair
func (s *Service) Update(ctx context.Context, userID int64, moduleID string, patch domain.ProgressPatch) (*domain.UserProgress, error) {
	patch.CompletionDate.Value = normalize(patch.CompletionDate.Value)

	return domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) (*domain.UserProgress, error) {
		current, err := uow.Progress().Get(ctx, userID, moduleID)
		if err != nil {
			return nil, err
		}

		updated := current.Apply(patch, s.now())
		if err := uow.Progress().Update(ctx, &updated); err != nil {
			return nil, err
		}
		if domain.BecameCompleted(*current, updated) {
			if err := uow.Events().Append(ctx, domain.NewModuleCompletedEvent(updated)); err != nil {
				return nil, err
			}
		}
		return &updated, nil
	})
}

// Delete removes the row of a (user, module) pair
func (s *Service) Delete(ctx context.Context, userID int64, moduleID string) error {
	return domain.WithUnitOfWork(ctx, s.uow, func(uow domain.UnitOfWork) error {
		return uow.Progress().Delete(ctx, userID, moduleID)
	})
}

// List returns a page of progress rows ordered by ID
func (s *Service) List(ctx context.Context, page domain.Page) ([]domain.UserProgress, error) {
	return domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) ([]domain.UserProgress, error) {
		return uow.Progress().List(ctx, page)
	})
}

// ByUser returns every row of an existing user
func (s *Service) ByUser(ctx context.Context, userID int64) ([]domain.UserProgress, error) {
	return domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) ([]domain.UserProgress, error) {
		if err := uow.Require(ctx, domain.EntityUser, userID); err != nil {
			return nil, err
		}
		return uow.Progress().ListByUser(ctx, userID)
	})
}

// ByModule returns every row of an existing module
func (s *Service) ByModule(ctx context.Context, moduleID string) ([]domain.UserProgress, error) {
	return domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) ([]domain.UserProgress, error) {
		if err := uow.Require(ctx, domain.EntityModule, moduleID); err != nil {
			return nil, err
		}
		return uow.Progress().ListByModule(ctx, moduleID)
	})
}

// ByStatus returns the rows whose completion flag matches raw, which must be
// "1" or "0".
func (s *Service) ByStatus(ctx context.Context, raw string) ([]domain.UserProgress, error) {
	completed, err := domain.ParseCompletionStatus(raw)
	if err != nil {
		return nil, err
	}
	return domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) ([]domain.UserProgress, error) {
		return uow.Progress().ListByStatus(ctx, completed)
	})
}

// ByDateRange returns rows completed on any day from start to end inclusive.
// Both dates use the YYYY-MM-DD format.
func (s *Service) ByDateRange(ctx context.Context, start, end string) ([]domain.UserProgress, error) {
	r, err := domain.ParseDateRange(start, end)
	if err != nil {
		return nil, err
	}
	from, until := r.Bounds()
	return domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) ([]domain.UserProgress, error) {
		return uow.Progress().ListCompletedBetween(ctx, from, until)
	})
}

// ModuleCompletion splits the users with progress on a module into those who
// completed it and those who did not. Users without a row appear in neither.
func (s *Service) ModuleCompletion(ctx context.Context, moduleID string) (*domain.CompletionLists, error) {
	return domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) (*domain.CompletionLists, error) {
		if err := uow.Require(ctx, domain.EntityModule, moduleID); err != nil {
			return nil, err
		}
		completed, err := uow.Progress().UsersByModule(ctx, moduleID, true)
		if err != nil {
			return nil, err
		}
		incomplete, err := uow.Progress().UsersByModule(ctx, moduleID, false)
		if err != nil {
			return nil, err
		}
		return &domain.CompletionLists{ModuleID: moduleID, Completed: completed, Incomplete: incomplete}, nil
	})
}

// UserSummary aggregates the progress rows of an existing user
func (s *Service) UserSummary(ctx context.Context, userID int64) (*domain.ProgressSummary, error) {
	return domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) (*domain.ProgressSummary, error) {
		user, err := uow.Users().Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		total, completed, err := uow.Progress().CountByUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		summary := domain.Summarize(*user, total, completed)
		return &summary, nil
	})
}

// normalize stores caller-supplied timestamps in UTC at the precision every
// backend keeps.
func normalize(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	n := t.UTC().Truncate(time.Microsecond)
	return &n
}
