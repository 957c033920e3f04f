package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

var (
	// ErrUniqueViolation is returned when a write collides with a unique or primary key.
	ErrUniqueViolation = errors.New("unique constraint violation")
	// ErrForeignKeyViolation is returned when a write breaks a foreign key.
	ErrForeignKeyViolation = errors.New("foreign key constraint violation")
)

// PostgreSQL SQLSTATE codes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// ConstraintError wraps a driver error with its classified constraint kind.
type ConstraintError struct {
	Kind       error
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("%v (%s): %v", e.Kind, e.Constraint, e.Err)
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *ConstraintError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Classify converts driver constraint errors into ConstraintError values that
// match ErrUniqueViolation or ErrForeignKeyViolation. Other errors are
// returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return &ConstraintError{Kind: ErrUniqueViolation, Constraint: pgErr.ConstraintName, Err: err}
		case pgForeignKeyViolation:
			return &ConstraintError{Kind: ErrForeignKeyViolation, Constraint: pgErr.ConstraintName, Err: err}
		}
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			return &ConstraintError{Kind: ErrUniqueViolation, Constraint: pqErr.Constraint, Err: err}
		case pgForeignKeyViolation:
			return &ConstraintError{Kind: ErrForeignKeyViolation, Constraint: pqErr.Constraint, Err: err}
		}
		return err
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return &ConstraintError{Kind: ErrUniqueViolation, Err: err}
		case sqlite3.ErrConstraintForeignKey:
			return &ConstraintError{Kind: ErrForeignKeyViolation, Err: err}
		case sqlite3.ErrConstraintTrigger:
			// ON DELETE RESTRICT is enforced as a trigger constraint
			if strings.Contains(liteErr.Error(), "FOREIGN KEY") {
				return &ConstraintError{Kind: ErrForeignKeyViolation, Err: err}
			}
		}
	}
	return err
}

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return errors.Is(Classify(err), ErrUniqueViolation)
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	return errors.Is(Classify(err), ErrForeignKeyViolation)
}
