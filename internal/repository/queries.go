package repository

import (
	"context"
	"database/sql"

	"github.com/felixgeelhaar/codemastery/internal/storage"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries runs statements written with ? placeholders against a connection
// or transaction, rebinding them for the dialect.
type Queries struct {
	db      DBTX
	dialect storage.Dialect
}

// NewQueries creates Queries over db.
func NewQueries(db DBTX, dialect storage.Dialect) *Queries {
	return &Queries{db: db, dialect: dialect}
}

func (q *Queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := q.db.ExecContext(ctx, storage.Rebind(q.dialect, query), args...)
	return res, storage.Classify(err)
}

func (q *Queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.db.QueryContext(ctx, storage.Rebind(q.dialect, query), args...)
}

func (q *Queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.db.QueryRowContext(ctx, storage.Rebind(q.dialect, query), args...)
}

// execAffecting runs a statement and reports whether it touched any row.
func (q *Queries) execAffecting(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := q.exec(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
