package services

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"fintrack/internal/authz"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/integrity"
)

type ownerLookup struct {
	table    string
	column   string
	notFound *apperrors.AppError
}

var ownerLookups = map[authz.ResourceKind]ownerLookup{
	authz.KindUser:                 {table: "users", column: "id", notFound: apperrors.ErrUserNotFound},
	authz.KindCategory:             {table: "categories", column: "user_id", notFound: apperrors.ErrCategoryNotFound},
	authz.KindTransaction:          {table: "transactions", column: "user_id", notFound: apperrors.ErrTransactionNotFound},
	authz.KindRecurringTransaction: {table: "recurring_transactions", column: "user_id", notFound: apperrors.ErrRecurringTransactionNotFound},
	authz.KindBudget:               {table: "budgets", column: "user_id", notFound: apperrors.ErrBudgetNotFound},
}

// OwnershipResolver maps a resource id to the id of the user that owns it.
type OwnershipResolver struct {
	db *gorm.DB
}

// NewOwnershipResolver creates a new OwnershipResolver.
func NewOwnershipResolver(db *gorm.DB) *OwnershipResolver {
	return &OwnershipResolver{db: db}
}

// Resolve returns the resource with its owner filled in. System categories
// resolve to a nil owner. Unknown ids yield the kind's not-found error.
func (r *OwnershipResolver) Resolve(ctx context.Context, kind authz.ResourceKind, id string) (authz.Resource, error) {
	lookup, ok := ownerLookups[kind]
	if !ok {
		return authz.Resource{}, apperrors.WithMessage(apperrors.ErrInternalServer, "unknown resource kind "+string(kind))
	}
	if err := validateID("id", id); err != nil {
		return authz.Resource{}, err
	}

	var row struct {
		Owner sql.NullString
	}
	err := r.db.WithContext(ctx).
		Table(lookup.table).
		Select(lookup.column+" AS owner").
		Where("id = ?", id).
		Take(&row).Error
	if err != nil {
		return authz.Resource{}, integrity.Translate(err, integrity.OnNotFound(lookup.notFound))
	}

	if !row.Owner.Valid {
		return authz.Resource{Kind: kind}, nil
	}
	return authz.Owned(kind, row.Owner.String), nil
}
