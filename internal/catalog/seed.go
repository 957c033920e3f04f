package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/codemastery/internal/domain"
)

// Seed is a catalog file: courses with nested modules and lessons.
type Seed struct {
	Courses []SeedCourse `yaml:"courses"`
}

// SeedCourse describes one course in a seed file
type SeedCourse struct {
	ID          string       `yaml:"id"`
	Title       string       `yaml:"title"`
	Description string       `yaml:"description"`
	Icon        string       `yaml:"icon"`
	ColorClass  string       `yaml:"color_class"`
	Modules     []SeedModule `yaml:"modules"`
}

// SeedModule describes one module in a seed file
type SeedModule struct {
	ID          string       `yaml:"id"`
	Title       string       `yaml:"title"`
	Description string       `yaml:"description"`
	Position    int          `yaml:"position"`
	Lessons     []SeedLesson `yaml:"lessons"`
}

// SeedLesson describes one lesson in a seed file. Lessons are matched to
// existing rows by title within their module.
type SeedLesson struct {
	Title                string `yaml:"title"`
	Theory               string `yaml:"theory"`
	PracticeInstructions string `yaml:"practice_instructions"`
	PracticeInitialCode  string `yaml:"practice_initial_code"`
	PracticeSolution     string `yaml:"practice_solution"`
	Position             int    `yaml:"position"`
}

// SeedResult counts what an import changed
type SeedResult struct {
	Created int
	Updated int
}

// LoadSeed decodes a YAML catalog, rejecting unknown keys.
func LoadSeed(r io.Reader) (*Seed, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var seed Seed
	if err := dec.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return &seed, nil
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return &seed, nil
}

// LoadSeedFile reads a YAML catalog from disk.
func LoadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadSeed(f)
}

// Import creates or updates every entry of seed in a single unit of work.
func (s *Service) Import(ctx context.Context, seed *Seed) (SeedResult, error) {
	return domain.Within(ctx, s.uow, func(uow domain.UnitOfWork) (SeedResult, error) {
		var res SeedResult
		now := s.now()

		for _, sc := range seed.Courses {
			course := domain.Course{
				ID:          sc.ID,
				Title:       sc.Title,
				Description: sc.Description,
				Icon:        sc.Icon,
				ColorClass:  sc.ColorClass,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := course.Validate(); err != nil {
				return res, fmt.Errorf("course %q: %w", sc.ID, err)
			}
			if err := upsertCourse(ctx, uow, &course, &res); err != nil {
				return res, err
			}

			for _, sm := range sc.Modules {
				module := domain.Module{
					ID:          sm.ID,
					CourseID:    sc.ID,
					Title:       sm.Title,
					Description: sm.Description,
					Position:    sm.Position,
					CreatedAt:   now,
					UpdatedAt:   now,
				}
				if err := module.Validate(); err != nil {
					return res, fmt.Errorf("module %q: %w", sm.ID, err)
				}
				if err := upsertModule(ctx, uow, &module, &res); err != nil {
					return res, err
				}
				if err := upsertLessons(ctx, uow, module.ID, sm.Lessons, now, &res); err != nil {
					return res, err
				}
			}
		}
		return res, nil
	})
}

func upsertCourse(ctx context.Context, uow domain.UnitOfWork, c *domain.Course, res *SeedResult) error {
	existing, err := uow.Courses().Get(ctx, c.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		res.Created++
		return uow.Courses().Create(ctx, c)
	case err != nil:
		return err
	}
	updated := existing.Apply(domain.CoursePatch{
		Title:       &c.Title,
		Description: &c.Description,
		Icon:        &c.Icon,
		ColorClass:  &c.ColorClass,
	})
	updated.UpdatedAt = c.UpdatedAt
	res.Updated++
	return uow.Courses().Update(ctx, &updated)
}

func upsertModule(ctx context.Context, uow domain.UnitOfWork, m *domain.Module, res *SeedResult) error {
	existing, err := uow.Modules().Get(ctx, m.ID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		res.Created++
		return uow.Modules().Create(ctx, m)
	case err != nil:
		return err
	}
	if existing.CourseID != m.CourseID {
		return &domain.ConflictError{Entity: domain.EntityModule, ID: m.ID, Reason: "belongs to course " + existing.CourseID}
	}
	updated := existing.Apply(domain.ModulePatch{Title: &m.Title, Description: &m.Description, Position: &m.Position})
	updated.UpdatedAt = m.UpdatedAt
	res.Updated++
	return uow.Modules().Update(ctx, &updated)
}

func upsertLessons(ctx context.Context, uow domain.UnitOfWork, moduleID string, lessons []SeedLesson, now time.Time, res *SeedResult) error {
	existing, err := uow.Lessons().ListByModule(ctx, moduleID)
	if err != nil {
		return err
	}
	byTitle := make(map[string]domain.Lesson, len(existing))
	for _, l := range existing {
		byTitle[l.Title] = l
	}

	for _, sl := range lessons {
		if current, ok := byTitle[sl.Title]; ok {
			updated := current.Apply(domain.LessonPatch{
				Theory:               &sl.Theory,
				PracticeInstructions: &sl.PracticeInstructions,
				PracticeInitialCode:  &sl.PracticeInitialCode,
				PracticeSolution:     &sl.PracticeSolution,
				Position:             &sl.Position,
			})
			updated.UpdatedAt = now
			if err := uow.Lessons().Update(ctx, &updated); err != nil {
				return err
			}
			res.Updated++
			continue
		}

		lesson := domain.Lesson{
			ModuleID:             moduleID,
			Title:                sl.Title,
			Theory:               sl.Theory,
			PracticeInstructions: sl.PracticeInstructions,
			PracticeInitialCode:  sl.PracticeInitialCode,
			PracticeSolution:     sl.PracticeSolution,
			Position:             sl.Position,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if err := lesson.Validate(); err != nil {
			return fmt.Errorf("lesson in module %q: %w", moduleID, err)
		}
		if err := uow.Lessons().Create(ctx, &lesson); err != nil {
			return err
		}
		res.Created++
	}
	return nil
}
