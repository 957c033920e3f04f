package domain

import (
	"strings"
	"time"
)

// Maximum lengths of caller-supplied identifiers.
const (
	MaxCourseIDLength = 20
	MaxModuleIDLength = 50
)

// Course is a top-level unit of the catalog. Its ID is chosen by the caller.
type Course struct {
	ID          string
	Title       string
	Description string
	Icon        string
	ColorClass  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks identity and required fields.
func (c Course) Validate() error {
	if err := validateID("id", c.ID, MaxCourseIDLength); err != nil {
		return err
	}
	if strings.TrimSpace(c.Title) == "" {
		return Invalid("title", "is required")
	}
	return nil
}

// CoursePatch holds the course fields present in an update request.
type CoursePatch struct {
	Title       *string
	Description *string
	Icon        *string
	ColorClass  *string
}

// Apply merges the present fields of p into a copy of c.
func (c Course) Apply(p CoursePatch) Course {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Icon != nil {
		c.Icon = *p.Icon
	}
	if p.ColorClass != nil {
		c.ColorClass = *p.ColorClass
	}
	return c
}

// Module belongs to one course and orders its lessons.
type Module struct {
	ID          string
	CourseID    string
	Title       string
	Description string
	Position    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (m Module) Validate() error {
	if err := validateID("id", m.ID, MaxModuleIDLength); err != nil {
		return err
	}
	if strings.TrimSpace(m.CourseID) == "" {
		return Invalid("course_id", "is required")
	}
	if strings.TrimSpace(m.Title) == "" {
		return Invalid("title", "is required")
	}
	return nil
}

// ModulePatch holds the module fields present in an update request.
// The owning course cannot change.
type ModulePatch struct {
	Title       *string
	Description *string
	Position    *int
}

// Apply merges the present fields of p into a copy of m.
func (m Module) Apply(p ModulePatch) Module {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.Position != nil {
		m.Position = *p.Position
	}
	return m
}

// Lesson holds the theory and the practice exercise of one step in a module.
type Lesson struct {
	ID                   int64
	ModuleID             string
	Title                string
	Theory               string
	PracticeInstructions string
	PracticeInitialCode  string
	PracticeSolution     string
	Position             int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (l Lesson) Validate() error {
	if strings.TrimSpace(l.ModuleID) == "" {
		return Invalid("module_id", "is required")
	}
	if strings.TrimSpace(l.Title) == "" {
		return Invalid("title", "is required")
	}
	return nil
}

// LessonPatch holds the lesson fields present in an update request.
type LessonPatch struct {
	Title                *string
	Theory               *string
	PracticeInstructions *string
	PracticeInitialCode  *string
	PracticeSolution     *string
	Position             *int
}

// Apply merges the present fields of p into a copy of l.
func (l Lesson) Apply(p LessonPatch) Lesson {
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.Theory != nil {
		l.Theory = *p.Theory
	}
	if p.PracticeInstructions != nil {
		l.PracticeInstructions = *p.PracticeInstructions
	}
	if p.PracticeInitialCode != nil {
		l.PracticeInitialCode = *p.PracticeInitialCode
	}
	if p.PracticeSolution != nil {
		l.PracticeSolution = *p.PracticeSolution
	}
	if p.Position != nil {
		l.Position = *p.Position
	}
	return l
}

func validateID(field, id string, max int) error {
	switch {
	case strings.TrimSpace(id) == "":
		return Invalid(field, "is required")
	case len(id) > max:
		return Invalid(field, "must be at most %d characters", max)
	case strings.ContainsAny(id, " /\t\n"):
		return Invalid(field, "must not contain spaces or slashes")
	}
	return nil
}
