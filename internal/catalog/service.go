// Package catalog manages courses, their modules and the lessons inside them.
package catalog

import (
	"context"
	"time"

	"github.com/felixgeelhaar/codemastery/internal/domain"
)

// Service handles course, module and lesson operations
type Service struct {
	uow domain.UnitOfWorkFactory
	now func() time.Time
}

// NewService creates a new catalog service
func NewService(uow domain.UnitOfWorkFactory) *Service {
	return &Service{uow: uow, now: domain.Now}
}

// -----------------------------------------------------------------------------
// Courses
// -----------------------------------------------------------------------------

// CreateCourseRequest contains data for creating a course
type CreateCourseRequest struct {
	ID          string
	Title       string
	Description string
	Icon        string
	ColorClass  string
}

// ListCourses returns every course
func (s *Service) ListCourses(ctx context.Context) ([]domain.Course, error) {
	return domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) ([]domain.Course, error) {
		return uow.Courses().List(ctx)
	})
}

// GetCourse retrieves a course by ID
func (s *Service) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	return domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) (*domain.Course, error) {
		return uow.Courses().Get(ctx, id)
	})
}

// CreateCourse creates a course; a taken ID is a Conflict
func (s *Service) CreateCourse(ctx context.Context, req CreateCourseRequest) (*domain.Course, error) {
	now := s.now()
	course := &domain.Course{
		ID:          req.ID,
		Title:       req.Title,
		Description: req.Description,
		Icon:        req.Icon,
		ColorClass:  req.ColorClass,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := course.Validate(); err != nil {
		return nil, err
	}

	err := domain.WithUnitOfWork(ctx, s.uow, func(uow domain.UnitOfWork) error {
		return uow.Courses().Create(ctx, course)
	})
	if err != nil {
		return nil, err
	}
	return course, nil
}

// UpdateCourse applies the fields present in patch
func (s *Service) UpdateCourse(ctx context.Context, id string, patch domain.CoursePatch) (*domain.Course, error) {
	return domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) (*domain.Course, error) {
		current, err := uow.Courses().Get(ctx, id)
		if err != nil {
			return nil, err
		}

		updated := current.Apply(patch)
		updated.UpdatedAt = s.now()
		if err := updated.Validate(); err != nil {
			return nil, err
		}
		if err := uow.Courses().Update(ctx, &updated); err != nil {
			return nil, err
		}
		return &updated, nil
	})
}

// DeleteCourse removes a course that has no modules
func (s *Service) DeleteCourse(ctx context.Context, id string) error {
	return domain.WithUnitOfWork(ctx, s.uow, func(uow domain.UnitOfWork) error {
		return uow.Courses().Delete(ctx, id)
	})
}

// -----------------------------------------------------------------------------
// Modules
// -----------------------------------------------------------------------------

// CreateModuleRequest contains data for creating a module
type CreateModuleRequest struct {
	ID          string
	CourseID    string
	Title       string
	Description string
	Position    int
}

// ListModules returns the modules of a course ordered by position
func (s *Service) ListModules(ctx context.Context, courseID string) ([]domain.Module, error) {
	return domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) ([]domain.Module, error) {
		if err := uow.Require(ctx, domain.EntityCourse, courseID); err != nil {
			return nil, err
		}
		return uow.Modules().ListByCourse(ctx, courseID)
	})
}

// GetModule retrieves a module by ID
func (s *Service) GetModule(ctx context.Context, id string) (*domain.Module, error) {
	return domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) (*domain.Module, error) {
		return uow.Modules().Get(ctx, id)
	})
}

// CreateModule creates a module under an existing course
func (s *Service) CreateModule(ctx context.Context, req CreateModuleRequest) (*domain.Module, error) {
	now := s.now()
	module := &domain.Module{
		ID:          req.ID,
		CourseID:    req.CourseID,
		Title:       req.Title,
		Description: req.Description,
		Position:    req.Position,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := module.Validate(); err != nil {
		return nil, err
	}

	err := domain.WithUnitOfWork(ctx, s.uow, func(uow domain.UnitOfWork) error {
		if err := uow.Require(ctx, domain.EntityCourse, module.CourseID); err != nil {
			return err
		}
		return uow.Modules().Create(ctx, module)
	})
	if err != nil {
		return nil, err
	}
	return module, nil
}

// UpdateModule applies the fields present in patch
func (s *Service) UpdateModule(ctx context.Context, id string, patch domain.ModulePatch) (*domain.Module, error) {
	return domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) (*domain.Module, error) {
		current, err := uow.Modules().Get(ctx, id)
		if err != nil {
			return nil, err
		}

		updated := current.Apply(patch)
		updated.UpdatedAt = s.now()
		if err := updated.Validate(); err != nil {
			return nil, err
		}
		if err := uow.Modules().Update(ctx, &updated); err != nil {
			return nil, err
		}
		return &updated, nil
	})
}

// DeleteModule removes a module that has no lessons or progress
func (s *Service) DeleteModule(ctx context.Context, id string) error {
	return domain.WithUnitOfWork(ctx, s.uow, func(uow domain.UnitOfWork) error {
		return uow.Modules().Delete(ctx, id)
	})
}

// -----------------------------------------------------------------------------
// Lessons
// -----------------------------------------------------------------------------

// CreateLessonRequest contains data for creating a lesson
type CreateLessonRequest struct {
	ModuleID             string
	Title                string
	Theory               string
	PracticeInstructions string
	PracticeInitialCode  string
	PracticeSolution     string
	Position             int
}

// ListLessons returns the lessons of a module ordered by position
func (s *Service) ListLessons(ctx context.Context, moduleID string) ([]domain.Lesson, error) {
	return domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) ([]domain.Lesson, error) {
		if err := uow.Require(ctx, domain.EntityModule, moduleID); err != nil {
			return nil, err
		}
		return uow.Lessons().ListByModule(ctx, moduleID)
	})
}

// GetLesson retrieves a lesson by ID
func (s *Service) GetLesson(ctx context.Context, id int64) (*domain.Lesson, error) {
	return domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) (*domain.Lesson, error) {
		return uow.Lessons().Get(ctx, id)
	})
}

// CreateLesson creates a lesson under an existing module
func (s *Service) CreateLesson(ctx context.Context, req CreateLessonRequest) (*domain.Lesson, error) {
	now := s.now()
	lesson := &domain.Lesson{
		ModuleID:             req.ModuleID,
		Title:                req.Title,
		Theory:               req.Theory,
		PracticeInstructions: req.PracticeInstructions,
		PracticeInitialCode:  req.PracticeInitialCode,
		PracticeSolution:     req.PracticeSolution,
		Position:             req.Position,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := lesson.Validate(); err != nil {
		return nil, err
	}

	err := domain.WithUnitOfWork(ctx, s.uow, func(uow domain.UnitOfWork) error {
		if err := uow.Require(ctx, domain.EntityModule, lesson.ModuleID); err != nil {
			return err
		}
		return uow.Lessons().Create(ctx, lesson)
	})
	if err != nil {
		return nil, err
	}
	return lesson, nil
}

// UpdateLesson applies the fields present in patch
func (s *Service) UpdateLesson(ctx context.Context, id int64, patch domain.LessonPatch) (*domain.Lesson, error) {
	return domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) (*domain.Lesson, error) {
		current, err := uow.Lessons().Get(ctx, id)
		if err != nil {
			return nil, err
		}

		updated := current.Apply(patch)
		updated.UpdatedAt = s.now()
		if err := updated.Validate(); err != nil {
			return nil, err
		}
		if err := uow.Lessons().Update(ctx, &updated); err != nil {
			return nil, err
		}
		return &updated, nil
	})
}

// DeleteLesson removes a lesson that has no attempts
func (s *Service) DeleteLesson(ctx context.Context, id int64) error {
	return domain.WithUnitOfWork(ctx, s.uow, func(uow domain.UnitOfWork) error {
		return uow.Lessons().Delete(ctx, id)
	})
}
