package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/codemastery/internal/domain"
	"github.com/felixgeelhaar/codemastery/internal/storage"
)

// ProgressRepository implements domain.ProgressRepository
type ProgressRepository struct {
	queries *Queries
}

// NewProgressRepository creates a new ProgressRepository
func NewProgressRepository(queries *Queries) *ProgressRepository {
	return &ProgressRepository{queries: queries}
}

// Create inserts a progress row. The (user_id, module_id) unique constraint
// decides duplicates, so concurrent creates cannot both succeed.
func (r *ProgressRepository) Create(ctx context.Context, p *domain.UserProgress) error {
	err := r.queries.queryRow(ctx, `
		INSERT INTO user_progress (user_id, module_id, completed, completion_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		p.UserID, p.ModuleID, p.Completed, ptrToNullTime(p.CompletionDate), p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
	).Scan(&p.ID)
	if err != nil {
		err = storage.Classify(err)
		switch {
		case errors.Is(err, storage.ErrUniqueViolation):
			return domain.ErrProgressExists
		case errors.Is(err, storage.ErrForeignKeyViolation):
			return fmt.Errorf("user %d or module %s: %w", p.UserID, p.ModuleID, domain.ErrNotFound)
		}
		return err
	}
	return nil
}

// Get retrieves the row for a (user, module) pair
func (r *ProgressRepository) Get(ctx context.Context, userID int64, moduleID string) (*domain.UserProgress, error) {
	p, err := scanProgress(r.queries.queryRow(ctx, `
		SELECT `+progressColumns+` FROM user_progress
		WHERE user_id = ? AND module_id = ?`, userID, moduleID))
	if err != nil {
		return nil, notFound(err, domain.EntityProgress, pairKey(userID, moduleID))
	}
	return p, nil
}

// Update writes completion state for the row's pair
func (r *ProgressRepository) Update(ctx context.Context, p *domain.UserProgress) error {
	found, err := r.queries.execAffecting(ctx, `
		UPDATE user_progress SET completed = ?, completion_date = ?, updated_at = ?
		WHERE user_id = ? AND module_id = ?`,
		p.Completed, ptrToNullTime(p.CompletionDate), p.UpdatedAt.UTC(), p.UserID, p.ModuleID,
	)
	if err != nil {
		return err
	}
	if !found {
		return domain.NewNotFound(domain.EntityProgress, pairKey(p.UserID, p.ModuleID))
	}
	return nil
}

// Delete removes the row for a (user, module) pair
func (r *ProgressRepository) Delete(ctx context.Context, userID int64, moduleID string) error {
	found, err := r.queries.execAffecting(ctx, `
		DELETE FROM user_progress WHERE user_id = ? AND module_id = ?`, userID, moduleID)
	if err != nil {
		return err
	}
	if !found {
		return domain.NewNotFound(domain.EntityProgress, pairKey(userID, moduleID))
	}
	return nil
}

// List returns a page of rows ordered by ID
func (r *ProgressRepository) List(ctx context.Context, page domain.Page) ([]domain.UserProgress, error) {
	page = page.Normalized()
	return r.list(ctx, `SELECT `+progressColumns+` FROM user_progress ORDER BY id LIMIT ? OFFSET ?`,
		page.Limit, page.Offset)
}

// ListByUser returns every row of a user
func (r *ProgressRepository) ListByUser(ctx context.Context, userID int64) ([]domain.UserProgress, error) {
	return r.list(ctx, `SELECT `+progressColumns+` FROM user_progress WHERE user_id = ? ORDER BY id`, userID)
}

// ListByModule returns every row of a module
func (r *ProgressRepository) ListByModule(ctx context.Context, moduleID string) ([]domain.UserProgress, error) {
	return r.list(ctx, `SELECT `+progressColumns+` FROM user_progress WHERE module_id = ? ORDER BY id`, moduleID)
}

// ListByStatus returns every row with the given completion flag
func (r *ProgressRepository) ListByStatus(ctx context.Context, completed bool) ([]domain.UserProgress, error) {
	return r.list(ctx, `SELECT `+progressColumns+` FROM user_progress WHERE completed = ? ORDER BY id`, completed)
}

// ListCompletedBetween returns rows whose completion date falls in [from, until)
func (r *ProgressRepository) ListCompletedBetween(ctx context.Context, from, until time.Time) ([]domain.UserProgress, error) {
	return r.list(ctx, `
		SELECT `+progressColumns+` FROM user_progress
		WHERE completion_date >= ? AND completion_date < ?
		ORDER BY completion_date, id`, from.UTC(), until.UTC())
}

// CountByUser returns a user's total and completed row counts
func (r *ProgressRepository) CountByUser(ctx context.Context, userID int64) (total, completed int, err error) {
	err = r.queries.queryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN completed THEN 1 ELSE 0 END), 0)
		FROM user_progress WHERE user_id = ?`, userID).Scan(&total, &completed)
	return total, completed, err
}

// UsersByModule returns the users whose row for the module has the given flag
func (r *ProgressRepository) UsersByModule(ctx context.Context, moduleID string, completed bool) ([]domain.UserRef, error) {
	rows, err := r.queries.query(ctx, `
		SELECT u.id, u.name, u.email
		FROM user_progress p
		JOIN users u ON u.id = p.user_id
		WHERE p.module_id = ? AND p.completed = ?
		ORDER BY u.id`, moduleID, completed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := make([]domain.UserRef, 0)
	for rows.Next() {
		var ref domain.UserRef
		if err := rows.Scan(&ref.UserID, &ref.Name, &ref.Email); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (r *ProgressRepository) list(ctx context.Context, query string, args ...any) ([]domain.UserProgress, error) {
	rows, err := r.queries.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanProgress)
}

func pairKey(userID int64, moduleID string) string {
	return fmt.Sprintf("for user %d and module %s", userID, moduleID)
}

var _ domain.ProgressRepository = (*ProgressRepository)(nil)
