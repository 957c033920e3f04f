package domain

import (
	"strings"
	"time"
)

// User represents a registered learner
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	GoogleID     *string
	Image        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserPatch holds the user fields present in an update request.
type UserPatch struct {
	Name  *string
	Email *string
	Image *string
}

// Apply merges the present fields of p into a copy of u.
func (u User) Apply(p UserPatch) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Image != nil {
		u.Image = p.Image
	}
	return u
}

// Validate checks the fields that must never be blank.
func (u User) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return Invalid("name", "is required")
	}
	if !strings.Contains(u.Email, "@") {
		return Invalid("email", "must be a valid email address")
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
