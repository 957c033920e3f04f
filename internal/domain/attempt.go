package domain

import (
	"strings"
	"time"
)

// ExerciseAttempt is one graded submission. Attempts are never updated.
type ExerciseAttempt struct {
	ID            int64
	UserID        int64
	LessonID      int64
	CodeSubmitted string
	IsCorrect     bool
	AttemptDate   time.Time
}

// IsCorrectSubmission reports whether code matches solution once leading and
// trailing whitespace is removed from both. Case and inner whitespace count.
func IsCorrectSubmission(code, solution string) bool {
	return strings.TrimSpace(code) == strings.TrimSpace(solution)
}

// AttemptFilter narrows attempt listings.
type AttemptFilter struct {
	UserID *int64
	Page   Page
}

// Page bounds for list operations.
const (
	DefaultPageLimit = 100
	MaxPageLimit     = 500
)

// Page is an offset/limit window.
type Page struct {
	Offset int
	Limit  int
}

// NewPage validates offset and limit, applying defaults for zero values.
func NewPage(offset, limit int) (Page, error) {
	if offset < 0 {
		return Page{}, Invalid("offset", "must not be negative")
	}
	if limit < 0 {
		return Page{}, Invalid("limit", "must not be negative")
	}
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Page{Offset: offset, Limit: limit}, nil
}

// Normalized returns p with defaults applied, for callers that built it by hand.
func (p Page) Normalized() Page {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}
