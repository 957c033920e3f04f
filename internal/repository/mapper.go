// Package repository implements the domain repositories and unit of work
// on top of database/sql for SQLite and PostgreSQL.
package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/felixgeelhaar/codemastery/internal/domain"
	"github.com/felixgeelhaar/codemastery/internal/storage"
)

// scanner is implemented by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// -----------------------------------------------------------------------------
// Row Scanners
// -----------------------------------------------------------------------------

const userColumns = `id, name, email, password_hash, google_id, image, created_at, updated_at`

func scanUser(s scanner) (*domain.User, error) {
	var u domain.User
	var googleID, image sql.NullString
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &googleID, &image, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.GoogleID = nullStringToPtr(googleID)
	u.Image = nullStringToPtr(image)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return &u, nil
}

const courseColumns = `id, title, description, icon, color_class, created_at, updated_at`

func scanCourse(s scanner) (*domain.Course, error) {
	var c domain.Course
	if err := s.Scan(&c.ID, &c.Title, &c.Description, &c.Icon, &c.ColorClass, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}

const moduleColumns = `id, course_id, title, description, position, created_at, updated_at`

func scanModule(s scanner) (*domain.Module, error) {
	var m domain.Module
	if err := s.Scan(&m.ID, &m.CourseID, &m.Title, &m.Description, &m.Position, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()
	return &m, nil
}

const lessonColumns = `id, module_id, title, theory, practice_instructions, practice_initial_code,
	practice_solution, position, created_at, updated_at`

func scanLesson(s scanner) (*domain.Lesson, error) {
	var l domain.Lesson
	if err := s.Scan(&l.ID, &l.ModuleID, &l.Title, &l.Theory, &l.PracticeInstructions, &l.PracticeInitialCode,
		&l.PracticeSolution, &l.Position, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	return &l, nil
}

const progressColumns = `id, user_id, module_id, completed, completion_date, created_at, updated_at`

func scanProgress(s scanner) (*domain.UserProgress, error) {
	var p domain.UserProgress
	var completionDate sql.NullTime
	if err := s.Scan(&p.ID, &p.UserID, &p.ModuleID, &p.Completed, &completionDate, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.CompletionDate = nullTimeToPtr(completionDate)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return &p, nil
}

const attemptColumns = `id, user_id, lesson_id, code_submitted, is_correct, attempt_date`

func scanAttempt(s scanner) (*domain.ExerciseAttempt, error) {
	var a domain.ExerciseAttempt
	if err := s.Scan(&a.ID, &a.UserID, &a.LessonID, &a.CodeSubmitted, &a.IsCorrect, &a.AttemptDate); err != nil {
		return nil, err
	}
	a.AttemptDate = a.AttemptDate.UTC()
	return &a, nil
}

// collect drains rows with scan, closing them.
func collect[T any](rows *sql.Rows, scan func(scanner) (*T, error)) ([]T, error) {
	defer rows.Close()

	result := make([]T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}
	return result, rows.Err()
}

// -----------------------------------------------------------------------------
// Error Mapping
// -----------------------------------------------------------------------------

// notFound maps sql.ErrNoRows to a domain NotFoundError.
func notFound(err error, entity domain.Entity, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewNotFound(entity, id)
	}
	return err
}

// restrictDelete maps a foreign key violation on delete to a Conflict.
func restrictDelete(err error, entity domain.Entity, id any) error {
	if errors.Is(err, storage.ErrForeignKeyViolation) {
		return &domain.ConflictError{Entity: entity, ID: id, Reason: "has dependent records and cannot be deleted"}
	}
	return err
}

// -----------------------------------------------------------------------------
// Null Helpers
// -----------------------------------------------------------------------------

func nullStringToPtr(ns sql.NullString) *string {
	if ns.Valid {
		return &ns.String
	}
	return nil
}

func ptrToNullString(s *string) sql.NullString {
	if s != nil {
		return sql.NullString{String: *s, Valid: true}
	}
	return sql.NullString{}
}

func nullTimeToPtr(nt sql.NullTime) *time.Time {
	if nt.Valid {
		t := nt.Time.UTC()
		return &t
	}
	return nil
}

func ptrToNullTime(t *time.Time) sql.NullTime {
	if t != nil {
		return sql.NullTime{Time: t.UTC(), Valid: true}
	}
	return sql.NullTime{}
}
