// Package mcp exposes grading and progress operations as MCP tools.
package mcp

import (
	"context"
	"fmt"
	"time"

	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"

	"github.com/felixgeelhaar/codemastery/internal/catalog"
	"github.com/felixgeelhaar/codemastery/internal/domain"
	"github.com/felixgeelhaar/codemastery/internal/grading"
	"github.com/felixgeelhaar/codemastery/internal/progress"
)

// Server wraps the MCP server with CodeMastery functionality
type Server struct {
	mcpServer *server.Server
	catalog   *catalog.Service
	grading   *grading.Service
	progress  *progress.Service
}

// Config contains configuration for the MCP server
type Config struct {
	Version  string
	Catalog  *catalog.Service
	Grading  *grading.Service
	Progress *progress.Service
}

// NewServer creates a new MCP server
func NewServer(cfg Config) *Server {
	s := &Server{
		catalog:  cfg.Catalog,
		grading:  cfg.Grading,
		progress: cfg.Progress,
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	s.mcpServer = server.New(server.Info{
		Name:    "codemastery",
		Version: version,
	}, server.WithInstructions(`
CodeMastery hosts programming courses made of modules and lessons.
Each lesson has a practice exercise graded by comparing the submitted code
with the stored solution after trimming surrounding whitespace.

Available tools:
- list_course_modules: Modules of a course with their lessons
- submit_exercise: Grade a submission for a lesson
- latest_attempt: Most recent attempt of a user on a lesson
- user_summary: Completion summary of a user
- module_completion: Users who completed or have not completed a module
`))

	s.registerTools()

	return s
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("list_course_modules").
		Description("List the modules of a course in order, with their lessons.").
		Handler(s.handleListCourseModules)

	s.mcpServer.Tool("submit_exercise").
		Description("Submit code for a lesson's practice exercise and get it graded.").
		Handler(s.handleSubmit)

	s.mcpServer.Tool("latest_attempt").
		Description("Get a user's most recent attempt on a lesson.").
		Handler(s.handleLatestAttempt)

	s.mcpServer.Tool("user_summary").
		Description("Get how many modules a user has completed.").
		Handler(s.handleUserSummary)

	s.mcpServer.Tool("module_completion").
		Description("List users who completed a module and users still working on it.").
		Handler(s.handleModuleCompletion)
}

// Input/Output types for tools

type CourseInput struct {
	CourseID string `json:"course_id" jsonschema:"description=Course ID such as py101"`
}

type LessonSummary struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

type ModuleSummary struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Position int             `json:"position"`
	Lessons  []LessonSummary `json:"lessons"`
}

type CourseModulesOutput struct {
	CourseID string          `json:"course_id"`
	Modules  []ModuleSummary `json:"modules"`
}

type SubmitInput struct {
	LessonID int64  `json:"lesson_id" jsonschema:"description=Lesson ID from list_course_modules"`
	UserID   int64  `json:"user_id" jsonschema:"description=ID of the submitting user"`
	Code     string `json:"code" jsonschema:"description=Submitted source code"`
}

type AttemptOutput struct {
	AttemptID   int64     `json:"attempt_id"`
	LessonID    int64     `json:"lesson_id"`
	UserID      int64     `json:"user_id"`
	Code        string    `json:"code"`
	IsCorrect   bool      `json:"is_correct"`
	AttemptDate time.Time `json:"attempt_date"`
	Message     string    `json:"message,omitempty"`
}

type LatestAttemptInput struct {
	LessonID int64 `json:"lesson_id" jsonschema:"description=Lesson ID"`
	UserID   int64 `json:"user_id" jsonschema:"description=User ID"`
}

type UserInput struct {
	UserID int64 `json:"user_id" jsonschema:"description=User ID"`
}

type SummaryOutput struct {
	UserID               int64   `json:"user_id"`
	UserName             string  `json:"user_name"`
	TotalModules         int     `json:"total_modules"`
	CompletedModules     int     `json:"completed_modules"`
	IncompleteModules    int     `json:"incomplete_modules"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

type ModuleInput struct {
	ModuleID string `json:"module_id" jsonschema:"description=Module ID"`
}

type UserRef struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

type CompletionOutput struct {
	ModuleID   string    `json:"module_id"`
	Completed  []UserRef `json:"completed"`
	Incomplete []UserRef `json:"incomplete"`
}

// Tool handlers

func (s *Server) handleListCourseModules(ctx context.Context, input CourseInput) (CourseModulesOutput, error) {
	modules, err := s.catalog.ListModules(ctx, input.CourseID)
	if err != nil {
		return CourseModulesOutput{}, fmt.Errorf("list modules: %w", err)
	}

	out := CourseModulesOutput{CourseID: input.CourseID, Modules: make([]ModuleSummary, 0, len(modules))}
	for _, m := range modules {
		lessons, err := s.catalog.ListLessons(ctx, m.ID)
		if err != nil {
			return CourseModulesOutput{}, fmt.Errorf("list lessons of %s: %w", m.ID, err)
		}
		summary := ModuleSummary{ID: m.ID, Title: m.Title, Position: m.Position, Lessons: make([]LessonSummary, 0, len(lessons))}
		for _, l := range lessons {
			summary.Lessons = append(summary.Lessons, LessonSummary{ID: l.ID, Title: l.Title, Position: l.Position})
		}
		out.Modules = append(out.Modules, summary)
	}
	return out, nil
}

func (s *Server) handleSubmit(ctx context.Context, input SubmitInput) (AttemptOutput, error) {
	attempt, err := s.grading.Submit(ctx, grading.SubmitRequest{
		LessonID: input.LessonID,
		UserID:   input.UserID,
		Code:     input.Code,
	})
	if err != nil {
		return AttemptOutput{}, fmt.Errorf("submit: %w", err)
	}

	out := toAttemptOutput(attempt)
	if attempt.IsCorrect {
		out.Message = "Correct! The submission matches the solution."
	} else {
		out.Message = "Not quite. The submission does not match the solution yet."
	}
	return out, nil
}

func (s *Server) handleLatestAttempt(ctx context.Context, input LatestAttemptInput) (AttemptOutput, error) {
	attempt, err := s.grading.LatestAttempt(ctx, input.LessonID, input.UserID)
	if err != nil {
		return AttemptOutput{}, fmt.Errorf("latest attempt: %w", err)
	}
	return toAttemptOutput(attempt), nil
}

func (s *Server) handleUserSummary(ctx context.Context, input UserInput) (SummaryOutput, error) {
	summary, err := s.progress.UserSummary(ctx, input.UserID)
	if err != nil {
		return SummaryOutput{}, fmt.Errorf("user summary: %w", err)
	}
	return SummaryOutput{
		UserID:               summary.UserID,
		UserName:             summary.UserName,
		TotalModules:         summary.Total,
		CompletedModules:     summary.Completed,
		IncompleteModules:    summary.Incomplete,
		CompletionPercentage: summary.Percentage,
	}, nil
}

func (s *Server) handleModuleCompletion(ctx context.Context, input ModuleInput) (CompletionOutput, error) {
	lists, err := s.progress.ModuleCompletion(ctx, input.ModuleID)
	if err != nil {
		return CompletionOutput{}, fmt.Errorf("module completion: %w", err)
	}
	return CompletionOutput{
		ModuleID:   lists.ModuleID,
		Completed:  toUserRefs(lists.Completed),
		Incomplete: toUserRefs(lists.Incomplete),
	}, nil
}

func toAttemptOutput(a *domain.ExerciseAttempt) AttemptOutput {
	return AttemptOutput{
		AttemptID:   a.ID,
		LessonID:    a.LessonID,
		UserID:      a.UserID,
		Code:        a.CodeSubmitted,
		IsCorrect:   a.IsCorrect,
		AttemptDate: a.AttemptDate,
	}
}

func toUserRefs(refs []domain.UserRef) []UserRef {
	out := make([]UserRef, 0, len(refs))
	for _, r := range refs {
		out = append(out, UserRef{UserID: r.UserID, Name: r.Name, Email: r.Email})
	}
	return out
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// GetMCPServer returns the underlying MCP server (for testing)
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
