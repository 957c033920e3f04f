package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/codemastery/internal/domain"
	"github.com/felixgeelhaar/codemastery/internal/storage"
)

// AttemptRepository implements domain.AttemptRepository
type AttemptRepository struct {
	queries *Queries
}

// NewAttemptRepository creates a new AttemptRepository
func NewAttemptRepository(queries *Queries) *AttemptRepository {
	return &AttemptRepository{queries: queries}
}

// Create inserts an attempt and assigns its ID
func (r *AttemptRepository) Create(ctx context.Context, a *domain.ExerciseAttempt) error {
	err := r.queries.queryRow(ctx, `
		INSERT INTO exercise_attempts (user_id, lesson_id, code_submitted, is_correct, attempt_date)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		a.UserID, a.LessonID, a.CodeSubmitted, a.IsCorrect, a.AttemptDate.UTC(),
	).Scan(&a.ID)
	if err != nil {
		err = storage.Classify(err)
		if errors.Is(err, storage.ErrForeignKeyViolation) {
			return fmt.Errorf("user %d or lesson %d: %w", a.UserID, a.LessonID, domain.ErrNotFound)
		}
		return err
	}
	return nil
}

// Get retrieves an attempt by ID
func (r *AttemptRepository) Get(ctx context.Context, id int64) (*domain.ExerciseAttempt, error) {
	a, err := scanAttempt(r.queries.queryRow(ctx, `SELECT `+attemptColumns+` FROM exercise_attempts WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, domain.EntityAttempt, id)
	}
	return a, nil
}

// List returns a page of attempts, optionally for one user, ordered by ID
func (r *AttemptRepository) List(ctx context.Context, filter domain.AttemptFilter) ([]domain.ExerciseAttempt, error) {
	page := filter.Page.Normalized()

	query := `SELECT ` + attemptColumns + ` FROM exercise_attempts`
	var args []any
	if filter.UserID != nil {
		query += ` WHERE user_id = ?`
		args = append(args, *filter.UserID)
	}
	query += ` ORDER BY id LIMIT ? OFFSET ?`
	args = append(args, page.Limit, page.Offset)

	rows, err := r.queries.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanAttempt)
}

// Latest returns the most recent attempt of a user on a lesson
func (r *AttemptRepository) Latest(ctx context.Context, userID, lessonID int64) (*domain.ExerciseAttempt, error) {
	a, err := scanAttempt(r.queries.queryRow(ctx, `
		SELECT `+attemptColumns+` FROM exercise_attempts
		WHERE user_id = ? AND lesson_id = ?
		ORDER BY attempt_date DESC, id DESC
		LIMIT 1`, userID, lessonID))
	if err != nil {
		return nil, notFound(err, domain.EntityAttempt, fmt.Sprintf("for user %d on lesson %d", userID, lessonID))
	}
	return a, nil
}

// Delete removes an attempt
func (r *AttemptRepository) Delete(ctx context.Context, id int64) error {
	found, err := r.queries.execAffecting(ctx, `DELETE FROM exercise_attempts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if !found {
		return domain.NewNotFound(domain.EntityAttempt, id)
	}
	return nil
}

var _ domain.AttemptRepository = (*AttemptRepository)(nil)
