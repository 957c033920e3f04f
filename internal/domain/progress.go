package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"time"
)

// UserProgress records whether a user has completed a module.
// At most one row exists per (UserID, ModuleID).
type UserProgress struct {
	ID             int64
	UserID         int64
	ModuleID       string
	Completed      bool
	CompletionDate *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewUserProgress builds a progress row. A completed row without an explicit
// completion date is stamped with now.
func NewUserProgress(userID int64, moduleID string, completed bool, completionDate *time.Time, now time.Time) UserProgress {
	p := UserProgress{
		UserID:         userID,
		ModuleID:       moduleID,
		Completed:      completed,
		CompletionDate: completionDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if completed && completionDate == nil {
		p.CompletionDate = &now
	}
	return p
}

// OptionalTime distinguishes an absent field from an explicit null when
// decoded from JSON.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

// SetTime returns an OptionalTime holding t.
func SetTime(t time.Time) OptionalTime {
	return OptionalTime{Set: true, Value: &t}
}

// ClearTime returns an OptionalTime that clears the field.
func ClearTime() OptionalTime {
	return OptionalTime{Set: true}
}

// UnmarshalJSON is only called when the key is present, so Set is always true.
func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return Invalid("completion_date", "must be an RFC 3339 timestamp")
	}
	o.Value = &t
	return nil
}

// ProgressPatch holds the progress fields present in an update request.
type ProgressPatch struct {
	Completed      *bool
	CompletionDate OptionalTime
}

// Apply merges p into a copy of up. Marking the row completed without a
// completion date stamps now; marking it incomplete keeps the prior date
// unless the patch clears it.
func (up UserProgress) Apply(p ProgressPatch, now time.Time) UserProgress {
	if p.CompletionDate.Set {
		up.CompletionDate = p.CompletionDate.Value
	}
	if p.Completed != nil {
		up.Completed = *p.Completed
		if *p.Completed && p.CompletionDate.Value == nil {
			up.CompletionDate = &now
		}
	}
	up.UpdatedAt = now
	return up
}

// BecameCompleted reports whether after marks a transition to completed.
func BecameCompleted(before, after UserProgress) bool {
	return after.Completed && !before.Completed
}

// UserRef is the public view of a user in completion listings.
type UserRef struct {
	UserID int64
	Name   string
	Email  string
}

// CompletionLists partitions the users that have progress on a module.
type CompletionLists struct {
	ModuleID   string
	Completed  []UserRef
	Incomplete []UserRef
}

// ProgressSummary aggregates a user's progress rows.
type ProgressSummary struct {
	UserID     int64
	UserName   string
	Total      int
	Completed  int
	Incomplete int
	Percentage float64
}

// Summarize computes the aggregate for total rows of which completed are done.
func Summarize(user User, total, completed int) ProgressSummary {
	return ProgressSummary{
		UserID:     user.ID,
		UserName:   user.Name,
		Total:      total,
		Completed:  completed,
		Incomplete: total - completed,
		Percentage: CompletionPercentage(completed, total),
	}
}

// CompletionPercentage returns completed/total as a percentage rounded to two
// decimals, or 0 when total is 0.
func CompletionPercentage(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	pct := float64(completed) / float64(total) * 100
	return math.Round(pct*100) / 100
}

// DateRange is a closed interval of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ParseDateRange parses two YYYY-MM-DD dates into a closed range.
func ParseDateRange(start, end string) (DateRange, error) {
	if start == "" {
		return DateRange{}, Invalid("start_date", "is required")
	}
	if end == "" {
		return DateRange{}, Invalid("end_date", "is required")
	}
	s, err := time.Parse(time.DateOnly, start)
	if err != nil {
		return DateRange{}, Invalid("start_date", "must use the YYYY-MM-DD format")
	}
	e, err := time.Parse(time.DateOnly, end)
	if err != nil {
		return DateRange{}, Invalid("end_date", "must use the YYYY-MM-DD format")
	}
	if s.After(e) {
		return DateRange{}, Invalid("start_date", "must not be after end_date")
	}
	return DateRange{Start: s, End: e}, nil
}

// Bounds returns the half-open instant interval [from, until) covering every
// moment of the range's days in UTC.
func (r DateRange) Bounds() (from, until time.Time) {
	return r.Start.UTC(), r.End.UTC().AddDate(0, 0, 1)
}

// ParseCompletionStatus accepts "1" (completed) or "0" (incomplete).
func ParseCompletionStatus(raw string) (bool, error) {
	switch raw {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return false, ErrInvalidStatus
}
