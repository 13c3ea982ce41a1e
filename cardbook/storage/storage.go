// Package storage is the PostgreSQL gateway for users, persons, banks and
// accounts. Every method runs parameterized statements through sqlx.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when the addressed row, or its parent, is gone.
	ErrNotFound = errors.New("storage: not found")
	// ErrDuplicate is returned on a unique constraint violation.
	ErrDuplicate = errors.New("storage: duplicate")
)

const (
	pqUniqueViolation     = pq.ErrorCode("23505")
	pqForeignKeyViolation = pq.ErrorCode("23503")
)

// Postgres implements the repository stores on top of a pooled *sqlx.DB.
type Postgres struct {
	db *sqlx.DB
}

// New wraps db.
func New(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

// mapError converts driver errors to the package sentinels and wraps the rest.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%s: %w", op, ErrDuplicate)
		case pqForeignKeyViolation:
			return fmt.Errorf("%s: parent row: %w", op, ErrNotFound)
		}
	}
	return fmt.Errorf("%s: db error: %w", op, err)
}

func affected(op string, res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: rows affected: %w", op, err)
	}
	return n, nil
}

// inTx runs fn in a read-committed transaction and commits on success.
func (p *Postgres) inTx(ctx context.Context, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return mapError(op+": begin", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return mapError(op+": commit", err)
	}
	return nil
}
