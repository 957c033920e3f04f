package domain

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Domain Errors
// Services return these categories (directly or wrapped) so the HTTP layer can
// map them to statuses with errors.Is.
// -----------------------------------------------------------------------------

// General errors
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
)

// User errors
var (
	ErrEmailTaken         = newKindError(ErrConflict, "email already registered")
	ErrInvalidCredentials = newKindError(ErrUnauthorized, "invalid email or password")
	ErrInvalidToken       = newKindError(ErrUnauthorized, "invalid or expired token")
)

// Progress errors
var (
	ErrProgressExists = newKindError(ErrConflict, "progress already recorded for this user and module")
	ErrInvalidStatus  = newKindError(ErrInvalidInput, "status must be 0 (incomplete) or 1 (completed)")
)

// kindError is a specific error that matches one of the general categories.
type kindError struct {
	kind error
	msg  string
}

func newKindError(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool {
	return target == e.kind
}

// NotFoundError reports a missing entity by kind and id.
type NotFoundError struct {
	Entity Entity
	ID     any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Entity, e.ID)
}

// Is makes NotFoundError match ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFound returns a NotFoundError for the given entity.
func NewNotFound(entity Entity, id any) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError reports a write rejected by an existing record.
type ConflictError struct {
	Entity Entity
	ID     any
	Reason string
}

func (e *ConflictError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s %v already exists", e.Entity, e.ID)
	}
	return fmt.Sprintf("%s %v: %s", e.Entity, e.ID, e.Reason)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// ValidationError reports a malformed field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Invalid returns a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
