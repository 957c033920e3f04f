package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/codemastery/internal/domain"
)

const seedYAML = `
courses:
  - id: py101
    title: Python 101
    icon: python
    modules:
      - id: py101-m1
        title: Basics
        position: 1
        lessons:
          - title: Hello
            theory: print writes to stdout
            practice_solution: print('hi')
            position: 1
          - title: Variables
            practice_solution: x = 1
            position: 2
`

func TestLoadSeed(t *testing.T) {
	seed, err := LoadSeed(strings.NewReader(seedYAML))
	if err != nil {
		t.Fatalf("LoadSeed() error = %v", err)
	}
	if len(seed.Courses) != 1 || len(seed.Courses[0].Modules) != 1 || len(seed.Courses[0].Modules[0].Lessons) != 2 {
		t.Errorf("LoadSeed() = %+v", seed)
	}

	empty, err := LoadSeed(strings.NewReader(""))
	if err != nil || len(empty.Courses) != 0 {
		t.Errorf("LoadSeed(empty) = %+v, %v", empty, err)
	}

	if _, err := LoadSeed(strings.NewReader("courses:\n  - id: x\n    colour: red\n")); err == nil {
		t.Error("LoadSeed() should reject unknown fields")
	}
}

func TestImport(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	seed, err := LoadSeed(strings.NewReader(seedYAML))
	if err != nil {
		t.Fatal(err)
	}

	res, err := s.Import(ctx, seed)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if res.Created != 4 || res.Updated != 0 {
		t.Errorf("first Import() = %+v, want 4 created", res)
	}

	seed.Courses[0].Title = "Python Basics"
	seed.Courses[0].Modules[0].Lessons[0].PracticeSolution = "print('hello')"
	res, err = s.Import(ctx, seed)
	if err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	if res.Created != 0 || res.Updated != 4 {
		t.Errorf("second Import() = %+v, want 4 updated", res)
	}

	course, err := s.GetCourse(ctx, "py101")
	if err != nil || course.Title != "Python Basics" {
		t.Errorf("GetCourse() = %+v, %v", course, err)
	}
	lessons, err := s.ListLessons(ctx, "py101-m1")
	if err != nil || len(lessons) != 2 {
		t.Fatalf("ListLessons() = %v, %v", lessons, err)
	}
	if lessons[0].PracticeSolution != "print('hello')" {
		t.Errorf("lesson not updated: %+v", lessons[0])
	}
}

func TestImport_RollsBackOnError(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	seed := &Seed{Courses: []SeedCourse{
		{ID: "go101", Title: "Go"},
		{ID: "bad id", Title: "Broken"},
	}}
	if _, err := s.Import(ctx, seed); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("Import() error = %v, want ErrInvalidInput", err)
	}
	if _, err := s.GetCourse(ctx, "go101"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("partial import was committed: %v", err)
	}
}

func TestImport_ModuleOwnedByOtherCourse(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	createPy101(t, s)

	seed := &Seed{Courses: []SeedCourse{{
		ID:      "go101",
		Title:   "Go",
		Modules: []SeedModule{{ID: "py101-m1", Title: "Stolen"}},
	}}}
	if _, err := s.Import(ctx, seed); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("Import() error = %v, want ErrConflict", err)
	}
}
