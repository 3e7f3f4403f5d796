package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// ConstraintKind identifies which storage integrity rule a write violated.
type ConstraintKind int

const (
	ConstraintUnique ConstraintKind = iota + 1
	ConstraintForeignKey
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintUnique:
		return "unique"
	case ConstraintForeignKey:
		return "foreign_key"
	default:
		return "unknown"
	}
}

// Postgres SQLSTATE codes for integrity violations.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// ConstraintError is a storage integrity violation in driver-independent form.
// Constraint holds the constraint name (Postgres) or the offending columns
// (SQLite unique indexes) when the driver reports them.
type ConstraintError struct {
	Kind       ConstraintKind
	Constraint string
	Err        error
}

func (e *ConstraintError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("%s constraint violated (%s): %v", e.Kind, e.Constraint, e.Err)
	}
	return fmt.Sprintf("%s constraint violated: %v", e.Kind, e.Err)
}

func (e *ConstraintError) Unwrap() error { return e.Err }

// Classify inspects a storage error and returns a *ConstraintError when it is a
// unique or foreign-key violation, or nil otherwise.
func Classify(err error) *ConstraintError {
	if err == nil {
		return nil
	}

	var ce *ConstraintError
	if errors.As(err, &ce) {
		return ce
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		name := pgErr.ConstraintName
		if name == "" {
			name = pgErr.ColumnName
		}
		switch pgErr.Code {
		case pgUniqueViolation:
			return &ConstraintError{Kind: ConstraintUnique, Constraint: name, Err: err}
		case pgForeignKeyViolation:
			return &ConstraintError{Kind: ConstraintForeignKey, Constraint: name, Err: err}
		}
		return nil
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return &ConstraintError{Kind: ConstraintUnique, Constraint: sqliteDetail(sqliteErr.Error()), Err: err}
		case sqlite3.ErrConstraintForeignKey:
			return &ConstraintError{Kind: ConstraintForeignKey, Constraint: sqliteDetail(sqliteErr.Error()), Err: err}
		}
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &ConstraintError{Kind: ConstraintUnique, Err: err}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &ConstraintError{Kind: ConstraintForeignKey, Err: err}
	}
	return nil
}

// sqliteDetail extracts the column list from messages such as
// "UNIQUE constraint failed: budgets.user_id, budgets.month".
func sqliteDetail(msg string) string {
	if _, detail, ok := strings.Cut(msg, "failed: "); ok {
		return detail
	}
	return ""
}
