package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/codemastery/internal/domain"
	"github.com/felixgeelhaar/codemastery/internal/storage"
)

// entityTables maps entity kinds to the table holding them.
var entityTables = map[domain.Entity]string{
	domain.EntityUser:     "users",
	domain.EntityCourse:   "courses",
	domain.EntityModule:   "modules",
	domain.EntityLesson:   "lessons",
	domain.EntityProgress: "user_progress",
	domain.EntityAttempt:  "exercise_attempts",
}

// SQLUnitOfWork implements domain.UnitOfWork over database/sql
type SQLUnitOfWork struct {
	db      *storage.DB
	tx      *sql.Tx
	queries *Queries

	// Lazy-initialized repositories
	users    *UserRepository
	courses  *CourseRepository
	modules  *ModuleRepository
	lessons  *LessonRepository
	progress *ProgressRepository
	attempts *AttemptRepository
	events   *EventRepository
}

// NewSQLUnitOfWork creates a factory for transactional units of work
func NewSQLUnitOfWork(db *storage.DB) *SQLUnitOfWork {
	return &SQLUnitOfWork{
		db:      db,
		queries: NewQueries(db.DB, db.Dialect()),
	}
}

// Begin starts a new unit of work with a transaction
func (uow *SQLUnitOfWork) Begin(ctx context.Context) (domain.UnitOfWork, error) {
	tx, err := uow.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	return &SQLUnitOfWork{
		db:      uow.db,
		tx:      tx,
		queries: NewQueries(tx, uow.db.Dialect()),
	}, nil
}

// Commit commits the transaction
func (uow *SQLUnitOfWork) Commit() error {
	if uow.tx == nil {
		return nil
	}
	return uow.tx.Commit()
}

// Rollback rolls back the transaction. Rolling back a finished transaction is a no-op.
func (uow *SQLUnitOfWork) Rollback() error {
	if uow.tx == nil {
		return nil
	}
	if err := uow.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// Require reports a *domain.NotFoundError unless the entity exists.
func (uow *SQLUnitOfWork) Require(ctx context.Context, entity domain.Entity, id any) error {
	table, ok := entityTables[entity]
	if !ok {
		return fmt.Errorf("unknown entity %q", entity)
	}

	var one int
	err := uow.queries.queryRow(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if err != nil {
		return notFound(err, entity, id)
	}
	return nil
}

// Users returns the user repository
func (uow *SQLUnitOfWork) Users() domain.UserRepository {
	if uow.users == nil {
		uow.users = NewUserRepository(uow.queries)
	}
	return uow.users
}

// Courses returns the course repository
func (uow *SQLUnitOfWork) Courses() domain.CourseRepository {
	if uow.courses == nil {
		uow.courses = NewCourseRepository(uow.queries)
	}
	return uow.courses
}

// Modules returns the module repository
func (uow *SQLUnitOfWork) Modules() domain.ModuleRepository {
	if uow.modules == nil {
		uow.modules = NewModuleRepository(uow.queries)
	}
	return uow.modules
}

// Lessons returns the lesson repository
func (uow *SQLUnitOfWork) Lessons() domain.LessonRepository {
	if uow.lessons == nil {
		uow.lessons = NewLessonRepository(uow.queries)
	}
	return uow.lessons
}

// Progress returns the progress repository
func (uow *SQLUnitOfWork) Progress() domain.ProgressRepository {
	if uow.progress == nil {
		uow.progress = NewProgressRepository(uow.queries)
	}
	return uow.progress
}

// Attempts returns the exercise attempt repository
func (uow *SQLUnitOfWork) Attempts() domain.AttemptRepository {
	if uow.attempts == nil {
		uow.attempts = NewAttemptRepository(uow.queries)
	}
	return uow.attempts
}

// Events returns the outbox event repository
func (uow *SQLUnitOfWork) Events() domain.EventRepository {
	if uow.events == nil {
		uow.events = NewEventRepository(uow.queries)
	}
	return uow.events
}

// Ensure SQLUnitOfWork implements the domain interfaces
var (
	_ domain.UnitOfWork        = (*SQLUnitOfWork)(nil)
	_ domain.UnitOfWorkFactory = (*SQLUnitOfWork)(nil)
)
