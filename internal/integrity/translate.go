// Package integrity turns storage-level failures into application errors so that
// a uniqueness or reference problem caught at commit time is reported with the
// same vocabulary as one caught by pre-write validation.
package integrity

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"fintrack/internal/database"
	apperrors "fintrack/internal/errors"
)

// Option customizes the error reported for a particular call site.
type Option func(*translation)

type translation struct {
	conflict  *apperrors.AppError
	reference *apperrors.AppError
	notFound  *apperrors.AppError
}

// OnConflict sets the error reported for a unique-constraint violation.
func OnConflict(sentinel *apperrors.AppError) Option {
	return func(t *translation) { t.conflict = sentinel }
}

// OnReference sets the error reported for any foreign-key violation, bypassing
// attribution by constraint name.
func OnReference(sentinel *apperrors.AppError) Option {
	return func(t *translation) { t.reference = sentinel }
}

// OnNotFound sets the error reported when the target row does not exist.
func OnNotFound(sentinel *apperrors.AppError) Option {
	return func(t *translation) { t.notFound = sentinel }
}

// Translate maps err to an *AppError. AppErrors pass through unchanged; unique
// violations become Conflict, foreign-key violations InvalidReference, missing
// rows NotFound, and everything else an internal error that keeps the cause
// for logging only.
func Translate(err error, opts ...Option) error {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	t := translation{
		conflict: apperrors.ErrConflict,
		notFound: apperrors.ErrNotFound,
	}
	for _, opt := range opts {
		opt(&t)
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Wrap(t.notFound, err)
	}

	ce := database.Classify(err)
	if ce == nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	switch ce.Kind {
	case database.ConstraintUnique:
		return apperrors.Wrap(t.conflict, err)
	case database.ConstraintForeignKey:
		if t.reference != nil {
			return apperrors.Wrap(t.reference, err)
		}
		return apperrors.Wrap(attributeReference(ce), err)
	default:
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
}

// attributeReference names the bad reference from the constraint name, falling
// back to the driver message when the driver does not report a name.
func attributeReference(ce *database.ConstraintError) *apperrors.AppError {
	for _, text := range []string{ce.Constraint, ce.Err.Error()} {
		text = strings.ToLower(text)
		switch {
		case strings.Contains(text, "category"):
			return apperrors.WithMessage(apperrors.ErrInvalidReference, "Invalid category reference")
		case strings.Contains(text, "user"):
			return apperrors.WithMessage(apperrors.ErrInvalidReference, "Invalid user reference")
		}
	}
	return apperrors.ErrInvalidReference
}
