package handlers

import (
	"time"

	"github.com/felixgeelhaar/codemastery/internal/domain"
)

// UserResponse is the public view of a user. The password hash never leaves
// the service layer.
type UserResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Image:     u.Image,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// CourseResponse represents a course in API responses
type CourseResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	ColorClass  string    `json:"color_class"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toCourseResponse(c *domain.Course) CourseResponse {
	return CourseResponse{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Icon:        c.Icon,
		ColorClass:  c.ColorClass,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// ModuleResponse represents a module in API responses
type ModuleResponse struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toModuleResponse(m *domain.Module) ModuleResponse {
	return ModuleResponse{
		ID:          m.ID,
		CourseID:    m.CourseID,
		Title:       m.Title,
		Description: m.Description,
		Position:    m.Position,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// LessonResponse represents a lesson in API responses
type LessonResponse struct {
	ID                   int64     `json:"id"`
	ModuleID             string    `json:"module_id"`
	Title                string    `json:"title"`
	Theory               string    `json:"theory"`
	PracticeInstructions string    `json:"practice_instructions"`
	PracticeInitialCode  string    `json:"practice_initial_code"`
	PracticeSolution     string    `json:"practice_solution"`
	Position             int       `json:"position"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func toLessonResponse(l *domain.Lesson) LessonResponse {
	return LessonResponse{
		ID:                   l.ID,
		ModuleID:             l.ModuleID,
		Title:                l.Title,
		Theory:               l.Theory,
		PracticeInstructions: l.PracticeInstructions,
		PracticeInitialCode:  l.PracticeInitialCode,
		PracticeSolution:     l.PracticeSolution,
		Position:             l.Position,
		CreatedAt:            l.CreatedAt,
		UpdatedAt:            l.UpdatedAt,
	}
}

// ProgressResponse represents a progress row in API responses
type ProgressResponse struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	ModuleID       string     `json:"module_id"`
	Completed      bool       `json:"completed"`
	CompletionDate *time.Time `json:"completion_date"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func toProgressResponse(p *domain.UserProgress) ProgressResponse {
	return ProgressResponse{
		ID:             p.ID,
		UserID:         p.UserID,
		ModuleID:       p.ModuleID,
		Completed:      p.Completed,
		CompletionDate: p.CompletionDate,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// AttemptResponse represents an exercise attempt in API responses
type AttemptResponse struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	LessonID      int64     `json:"lesson_id"`
	CodeSubmitted string    `json:"code_submitted"`
	IsCorrect     bool      `json:"is_correct"`
	AttemptDate   time.Time `json:"attempt_date"`
}

func toAttemptResponse(a *domain.ExerciseAttempt) AttemptResponse {
	return AttemptResponse{
		ID:            a.ID,
		UserID:        a.UserID,
		LessonID:      a.LessonID,
		CodeSubmitted: a.CodeSubmitted,
		IsCorrect:     a.IsCorrect,
		AttemptDate:   a.AttemptDate,
	}
}

// UserRefResponse identifies a user in completion listings
type UserRefResponse struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

func toUserRefs(refs []domain.UserRef) []UserRefResponse {
	out := make([]UserRefResponse, 0, len(refs))
	for _, ref := range refs {
		out = append(out, UserRefResponse{UserID: ref.UserID, Name: ref.Name, Email: ref.Email})
	}
	return out
}

// CompletionResponse lists the users who did and did not complete a module
type CompletionResponse struct {
	ModuleID   string            `json:"module_id"`
	Completed  []UserRefResponse `json:"completed"`
	Incomplete []UserRefResponse `json:"incomplete"`
}

// SummaryResponse aggregates a user's progress
type SummaryResponse struct {
	UserID               int64   `json:"user_id"`
	UserName             string  `json:"user_name"`
	TotalModules         int     `json:"total_modules"`
	CompletedModules     int     `json:"completed_modules"`
	IncompleteModules    int     `json:"incomplete_modules"`
	CompletionPercentage float64 `json:"completion_percentage"`
}

func toSummaryResponse(s *domain.ProgressSummary) SummaryResponse {
	return SummaryResponse{
		UserID:               s.UserID,
		UserName:             s.UserName,
		TotalModules:         s.Total,
		CompletedModules:     s.Completed,
		IncompleteModules:    s.Incomplete,
		CompletionPercentage: s.Percentage,
	}
}

// mapSlice converts each element of in with fn
func mapSlice[T, R any](in []T, fn func(*T) R) []R {
	out := make([]R, 0, len(in))
	for i := range in {
		out = append(out, fn(&in[i]))
	}
	return out
}
