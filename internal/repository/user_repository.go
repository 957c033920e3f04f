package repository

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/codemastery/internal/domain"
	"github.com/felixgeelhaar/codemastery/internal/storage"
)

// UserRepository implements domain.UserRepository
type UserRepository struct {
	queries *Queries
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(queries *Queries) *UserRepository {
	return &UserRepository{queries: queries}
}

// Create inserts a user and assigns its ID
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.queries.queryRow(ctx, `
		INSERT INTO users (name, email, password_hash, google_id, image, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		user.Name, user.Email, user.PasswordHash, ptrToNullString(user.GoogleID), ptrToNullString(user.Image),
		user.CreatedAt.UTC(), user.UpdatedAt.UTC(),
	).Scan(&user.ID)
	if err != nil {
		return emailConflict(storage.Classify(err))
	}
	return nil
}

// Get retrieves a user by ID
func (r *UserRepository) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := scanUser(r.queries.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, domain.EntityUser, id)
	}
	return user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := scanUser(r.queries.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		return nil, notFound(err, domain.EntityUser, email)
	}
	return user, nil
}

// List returns all users ordered by ID
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.queries.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanUser)
}

// Update writes the mutable user fields
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	found, err := r.queries.execAffecting(ctx, `
		UPDATE users SET name = ?, email = ?, image = ?, updated_at = ?
		WHERE id = ?`,
		user.Name, user.Email, ptrToNullString(user.Image), user.UpdatedAt.UTC(), user.ID,
	)
	if err != nil {
		return emailConflict(err)
	}
	if !found {
		return domain.NewNotFound(domain.EntityUser, user.ID)
	}
	return nil
}

// Delete removes a user
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	found, err := r.queries.execAffecting(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return restrictDelete(err, domain.EntityUser, id)
	}
	if !found {
		return domain.NewNotFound(domain.EntityUser, id)
	}
	return nil
}

func emailConflict(err error) error {
	if errors.Is(err, storage.ErrUniqueViolation) {
		return domain.ErrEmailTaken
	}
	return err
}

// Ensure UserRepository implements domain.UserRepository
var _ domain.UserRepository = (*UserRepository)(nil)
