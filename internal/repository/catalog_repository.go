package repository

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/codemastery/internal/domain"
	"github.com/felixgeelhaar/codemastery/internal/storage"
)

// -----------------------------------------------------------------------------
// Courses
// -----------------------------------------------------------------------------

// CourseRepository implements domain.CourseRepository
type CourseRepository struct {
	queries *Queries
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(queries *Queries) *CourseRepository {
	return &CourseRepository{queries: queries}
}

// Create inserts a course; a duplicate ID is a Conflict
func (r *CourseRepository) Create(ctx context.Context, c *domain.Course) error {
	_, err := r.queries.exec(ctx, `
		INSERT INTO courses (id, title, description, icon, color_class, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Title, c.Description, c.Icon, c.ColorClass, c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	)
	if errors.Is(err, storage.ErrUniqueViolation) {
		return &domain.ConflictError{Entity: domain.EntityCourse, ID: c.ID}
	}
	return err
}

// Get retrieves a course by ID
func (r *CourseRepository) Get(ctx context.Context, id string) (*domain.Course, error) {
	c, err := scanCourse(r.queries.queryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, domain.EntityCourse, id)
	}
	return c, nil
}

// List returns every course ordered by ID
func (r *CourseRepository) List(ctx context.Context) ([]domain.Course, error) {
	rows, err := r.queries.query(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanCourse)
}

// Update writes every mutable course field
func (r *CourseRepository) Update(ctx context.Context, c *domain.Course) error {
	found, err := r.queries.execAffecting(ctx, `
		UPDATE courses SET title = ?, description = ?, icon = ?, color_class = ?, updated_at = ?
		WHERE id = ?`,
		c.Title, c.Description, c.Icon, c.ColorClass, c.UpdatedAt.UTC(), c.ID,
	)
	if err != nil {
		return err
	}
	if !found {
		return domain.NewNotFound(domain.EntityCourse, c.ID)
	}
	return nil
}

// Delete removes a course that has no modules
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	found, err := r.queries.execAffecting(ctx, `DELETE FROM courses WHERE id = ?`, id)
	if err != nil {
		return restrictDelete(err, domain.EntityCourse, id)
	}
	if !found {
		return domain.NewNotFound(domain.EntityCourse, id)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Modules
// -----------------------------------------------------------------------------

// ModuleRepository implements domain.ModuleRepository
type ModuleRepository struct {
	queries *Queries
}

// NewModuleRepository creates a new ModuleRepository
func NewModuleRepository(queries *Queries) *ModuleRepository {
	return &ModuleRepository{queries: queries}
}

// Create inserts a module; a duplicate ID is a Conflict
func (r *ModuleRepository) Create(ctx context.Context, m *domain.Module) error {
	_, err := r.queries.exec(ctx, `
		INSERT INTO modules (id, course_id, title, description, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.CourseID, m.Title, m.Description, m.Position, m.CreatedAt.UTC(), m.UpdatedAt.UTC(),
	)
	switch {
	case errors.Is(err, storage.ErrUniqueViolation):
		return &domain.ConflictError{Entity: domain.EntityModule, ID: m.ID}
	case errors.Is(err, storage.ErrForeignKeyViolation):
		return domain.NewNotFound(domain.EntityCourse, m.CourseID)
	}
	return err
}

// Get retrieves a module by ID
func (r *ModuleRepository) Get(ctx context.Context, id string) (*domain.Module, error) {
	m, err := scanModule(r.queries.queryRow(ctx, `SELECT `+moduleColumns+` FROM modules WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, domain.EntityModule, id)
	}
	return m, nil
}

// ListByCourse returns a course's modules by position
func (r *ModuleRepository) ListByCourse(ctx context.Context, courseID string) ([]domain.Module, error) {
	rows, err := r.queries.query(ctx, `
		SELECT `+moduleColumns+` FROM modules
		WHERE course_id = ?
		ORDER BY position, id`, courseID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanModule)
}

// Update writes the mutable module fields
func (r *ModuleRepository) Update(ctx context.Context, m *domain.Module) error {
	found, err := r.queries.execAffecting(ctx, `
		UPDATE modules SET title = ?, description = ?, position = ?, updated_at = ?
		WHERE id = ?`,
		m.Title, m.Description, m.Position, m.UpdatedAt.UTC(), m.ID,
	)
	if err != nil {
		return err
	}
	if !found {
		return domain.NewNotFound(domain.EntityModule, m.ID)
	}
	return nil
}

// Delete removes a module without lessons or progress
func (r *ModuleRepository) Delete(ctx context.Context, id string) error {
	found, err := r.queries.execAffecting(ctx, `DELETE FROM modules WHERE id = ?`, id)
	if err != nil {
		return restrictDelete(err, domain.EntityModule, id)
	}
	if !found {
		return domain.NewNotFound(domain.EntityModule, id)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Lessons
// -----------------------------------------------------------------------------

// LessonRepository implements domain.LessonRepository
type LessonRepository struct {
	queries *Queries
}

// NewLessonRepository creates a new LessonRepository
func NewLessonRepository(queries *Queries) *LessonRepository {
	return &LessonRepository{queries: queries}
}

// Create inserts a lesson and assigns its ID
func (r *LessonRepository) Create(ctx context.Context, l *domain.Lesson) error {
	err := r.queries.queryRow(ctx, `
		INSERT INTO lessons (module_id, title, theory, practice_instructions, practice_initial_code,
			practice_solution, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		l.ModuleID, l.Title, l.Theory, l.PracticeInstructions, l.PracticeInitialCode,
		l.PracticeSolution, l.Position, l.CreatedAt.UTC(), l.UpdatedAt.UTC(),
	).Scan(&l.ID)
	if err != nil {
		err = storage.Classify(err)
		if errors.Is(err, storage.ErrForeignKeyViolation) {
			return domain.NewNotFound(domain.EntityModule, l.ModuleID)
		}
		return err
	}
	return nil
}

// Get retrieves a lesson by ID
func (r *LessonRepository) Get(ctx context.Context, id int64) (*domain.Lesson, error) {
	l, err := scanLesson(r.queries.queryRow(ctx, `SELECT `+lessonColumns+` FROM lessons WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, domain.EntityLesson, id)
	}
	return l, nil
}

// ListByModule returns a module's lessons by position
func (r *LessonRepository) ListByModule(ctx context.Context, moduleID string) ([]domain.Lesson, error) {
	rows, err := r.queries.query(ctx, `
		SELECT `+lessonColumns+` FROM lessons
		WHERE module_id = ?
		ORDER BY position, id`, moduleID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanLesson)
}

// Update writes the mutable lesson fields
func (r *LessonRepository) Update(ctx context.Context, l *domain.Lesson) error {
	found, err := r.queries.execAffecting(ctx, `
		UPDATE lessons SET title = ?, theory = ?, practice_instructions = ?, practice_initial_code = ?,
			practice_solution = ?, position = ?, updated_at = ?
		WHERE id = ?`,
		l.Title, l.Theory, l.PracticeInstructions, l.PracticeInitialCode,
		l.PracticeSolution, l.Position, l.UpdatedAt.UTC(), l.ID,
	)
	if err != nil {
		return err
	}
	if !found {
		return domain.NewNotFound(domain.EntityLesson, l.ID)
	}
	return nil
}

// Delete removes a lesson without attempts
func (r *LessonRepository) Delete(ctx context.Context, id int64) error {
	found, err := r.queries.execAffecting(ctx, `DELETE FROM lessons WHERE id = ?`, id)
	if err != nil {
		return restrictDelete(err, domain.EntityLesson, id)
	}
	if !found {
		return domain.NewNotFound(domain.EntityLesson, id)
	}
	return nil
}

var (
	_ domain.CourseRepository = (*CourseRepository)(nil)
	_ domain.ModuleRepository = (*ModuleRepository)(nil)
	_ domain.LessonRepository = (*LessonRepository)(nil)
)
