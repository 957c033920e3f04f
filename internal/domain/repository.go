package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Entity names a persisted entity kind.
type Entity string

const (
	EntityUser     Entity = "user"
	EntityCourse   Entity = "course"
	EntityModule   Entity = "module"
	EntityLesson   Entity = "lesson"
	EntityProgress Entity = "progress"
	EntityAttempt  Entity = "attempt"
)

// -----------------------------------------------------------------------------
// Repositories
// Lookups and mutations of a missing row return *NotFoundError.
// -----------------------------------------------------------------------------

// UserRepository persists users
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	Get(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id int64) error
}

// CourseRepository persists courses
type CourseRepository interface {
	Create(ctx context.Context, course *Course) error
	Get(ctx context.Context, id string) (*Course, error)
	List(ctx context.Context) ([]Course, error)
	Update(ctx context.Context, course *Course) error
	Delete(ctx context.Context, id string) error
}

// ModuleRepository persists modules
type ModuleRepository interface {
	Create(ctx context.Context, module *Module) error
	Get(ctx context.Context, id string) (*Module, error)
	ListByCourse(ctx context.Context, courseID string) ([]Module, error)
	Update(ctx context.Context, module *Module) error
	Delete(ctx context.Context, id string) error
}

// LessonRepository persists lessons
type LessonRepository interface {
	Create(ctx context.Context, lesson *Lesson) error
	Get(ctx context.Context, id int64) (*Lesson, error)
	ListByModule(ctx context.Context, moduleID string) ([]Lesson, error)
	Update(ctx context.Context, lesson *Lesson) error
	Delete(ctx context.Context, id int64) error
}

// ProgressRepository persists user progress rows keyed by (user, module)
type ProgressRepository interface {
	Create(ctx context.Context, progress *UserProgress) error
	Get(ctx context.Context, userID int64, moduleID string) (*UserProgress, error)
	Update(ctx context.Context, progress *UserProgress) error
	Delete(ctx context.Context, userID int64, moduleID string) error
	List(ctx context.Context, page Page) ([]UserProgress, error)
	ListByUser(ctx context.Context, userID int64) ([]UserProgress, error)
	ListByModule(ctx context.Context, moduleID string) ([]UserProgress, error)
	ListByStatus(ctx context.Context, completed bool) ([]UserProgress, error)
	ListCompletedBetween(ctx context.Context, from, until time.Time) ([]UserProgress, error)
	CountByUser(ctx context.Context, userID int64) (total, completed int, err error)
	UsersByModule(ctx context.Context, moduleID string, completed bool) ([]UserRef, error)
}

// AttemptRepository persists exercise attempts
type AttemptRepository interface {
	Create(ctx context.Context, attempt *ExerciseAttempt) error
	Get(ctx context.Context, id int64) (*ExerciseAttempt, error)
	List(ctx context.Context, filter AttemptFilter) ([]ExerciseAttempt, error)
	Latest(ctx context.Context, userID, lessonID int64) (*ExerciseAttempt, error)
	Delete(ctx context.Context, id int64) error
}

// EventRepository is the transactional outbox for domain events
type EventRepository interface {
	Append(ctx context.Context, event Event) error
	Unpublished(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, at time.Time) error
}

// -----------------------------------------------------------------------------
// Unit of Work
// -----------------------------------------------------------------------------

// UnitOfWork groups repositories bound to one transaction.
type UnitOfWork interface {
	Users() UserRepository
	Courses() CourseRepository
	Modules() ModuleRepository
	Lessons() LessonRepository
	Progress() ProgressRepository
	Attempts() AttemptRepository
	Events() EventRepository

	// Require returns *NotFoundError unless an entity of the given kind and id exists.
	Require(ctx context.Context, entity Entity, id any) error

	Commit() error
	Rollback() error
}

// UnitOfWorkFactory starts units of work
type UnitOfWorkFactory interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}

// WithUnitOfWork runs fn inside a new unit of work. It commits when fn
// returns nil and rolls back on error or panic.
func WithUnitOfWork(ctx context.Context, factory UnitOfWorkFactory, fn func(uow UnitOfWork) error) (err error) {
	uow, err := factory.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin unit of work: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = uow.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := uow.Rollback(); rbErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
	}()

	if err = fn(uow); err != nil {
		return err
	}
	if err = uow.Commit(); err != nil {
		return fmt.Errorf("commit unit of work: %w", err)
	}
	return nil
}

// Within is WithUnitOfWork for operations that produce a value.
func Within[T any](ctx context.Context, factory UnitOfWorkFactory, fn func(uow UnitOfWork) (T, error)) (T, error) {
	var result T
	err := WithUnitOfWork(ctx, factory, func(uow UnitOfWork) error {
		var err error
		result, err = fn(uow)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
