// Package grading records exercise submissions and decides whether they
// match the lesson's reference solution.
//
// Grading is a plain comparison: the submitted code is correct when it
// equals the practice solution after trimming leading and trailing
// whitespace from both. Nothing is ever executed.
package grading

import (
	"context"
	"time"

	"github.com/felixgeelhaar/codemastery/internal/domain"
)

// Service grades and stores exercise attempts
type Service struct {
	uow domain.UnitOfWorkFactory
	now func() time.Time
}

// NewService creates a new grading service
func NewService(uow domain.UnitOfWorkFactory) *Service {
	return &Service{uow: uow, now: domain.Now}
}

// SubmitRequest is one code submission for a lesson
type SubmitRequest struct {
	LessonID int64
	UserID   int64
	Code     string
}

// Submit grades code against the lesson solution and records the attempt.
// The lesson is checked before the user.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*domain.ExerciseAttempt, error) {
	return domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) (*domain.ExerciseAttempt, error) {
		lesson, err := uow.Lessons().Get(ctx, req.LessonID)
		if err != nil {
			return nil, err
		}
		if err := uow.Require(ctx, domain.EntityUser, req.UserID); err != nil {
			return nil, err
		}

		attempt := &domain.ExerciseAttempt{
			UserID:        req.UserID,
			LessonID:      lesson.ID,
			CodeSubmitted: req.Code,
			IsCorrect:     domain.IsCorrectSubmission(req.Code, lesson.PracticeSolution),
			AttemptDate:   s.now(),
		}
		if err := uow.Attempts().Create(ctx, attempt); err != nil {
			return nil, err
		}
		if err := uow.Events().Append(ctx, domain.NewAttemptSubmittedEvent(*attempt)); err != nil {
			return nil, err
		}
		return attempt, nil
	})
}

// ListAttempts returns a page of attempts ordered by ID, optionally for one user
func (s *Service) ListAttempts(ctx context.Context, filter domain.AttemptFilter) ([]domain.ExerciseAttempt, error) {
	return domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) ([]domain.ExerciseAttempt, error) {
		return uow.Attempts().List(ctx, filter)
	})
}

// LatestAttempt returns the most recent attempt of a user on a lesson
func (s *Service) LatestAttempt(ctx context.Context, lessonID, userID int64) (*domain.ExerciseAttempt, error) {
	return domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) (*domain.ExerciseAttempt, error) {
		if err := uow.Require(ctx, domain.EntityLesson, lessonID); err != nil {
			return nil, err
		}
		return uow.Attempts().Latest(ctx, userID, lessonID)
	})
}

// DeleteAttempt removes an attempt
func (s *Service) DeleteAttempt(ctx context.Context, id int64) error {
	return domain.WithUnitOfWork(ctx, s.uow, func(uow domain.UnitOfWork) error {
		return uow.Attempts().Delete(ctx, id)
	})
}
