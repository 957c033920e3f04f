// Package users manages learner accounts after registration.
package users

import (
	"context"
	"time"

	"github.com/felixgeelhaar/codemastery/internal/domain"
)

// Service handles user account operations
type Service struct {
	uow domain.UnitOfWorkFactory
	now func() time.Time
}

// NewService creates a new user service
func NewService(uow domain.UnitOfWorkFactory) *Service {
	return &Service{uow: uow, now: domain.Now}
}

// List returns every user ordered by ID
func (s *Service) List(ctx context.Context) ([]domain.User, error) {
	return domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) ([]domain.User, error) {
		return uow.Users().List(ctx)
	})
}

// Get retrieves a user by ID
func (s *Service) Get(ctx context.Context, id int64) (*domain.User, error) {
	return domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) (*domain.User, error) {
		return uow.Users().Get(ctx, id)
	})
}

// Update applies the fields present in patch. A changed email must not
// belong to another account.
func (s *Service) Update(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error) {
	if patch.Email != nil {
		email := domain.NormalizeEmail(*patch.Email)
		patch.Email = &email
	}

	return domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) (*domain.User, error) {
		current, err := uow.Users().Get(ctx, id)
		if err != nil {
			return nil, err
		}

		updated := current.Apply(patch)
		if err := updated.Validate(); err != nil {
			return nil, err
		}
		updated.UpdatedAt = s.now()
		if err := uow.Users().Update(ctx, &updated); err != nil {
			return nil, err
		}
		return &updated, nil
	})
}

// Delete removes a user without progress or attempts
func (s *Service) Delete(ctx context.Context, id int64) error {
	return domain.WithUnitOfWork(ctx, s.uow, func(uow domain.UnitOfWork) error {
		return uow.Users().Delete(ctx, id)
	})
}
