package services

import (
	"context"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/integrity"
	"fintrack/internal/models"
)

// InvariantChecker enforces rules that span more than one entity.
type InvariantChecker struct {
	db *gorm.DB
}

// NewInvariantChecker creates a new InvariantChecker.
func NewInvariantChecker(db *gorm.DB) *InvariantChecker {
	return &InvariantChecker{db: db}
}

// VisibleCategory loads a category that ownerID may reference: a system
// category or one ownerID owns.
func (c *InvariantChecker) VisibleCategory(ctx context.Context, ownerID, categoryID string) (*models.Category, error) {
	if err := validateID("category_id", categoryID); err != nil {
		return nil, err
	}

	var category models.Category
	err := c.db.WithContext(ctx).
		Where("id = ? AND (user_id IS NULL OR user_id = ?)", categoryID, ownerID).
		Take(&category).Error
	if err != nil {
		return nil, integrity.Translate(err, integrity.OnNotFound(apperrors.ErrCategoryNotFound))
	}
	return &category, nil
}

// CheckTypeConsistency verifies that the category exists for ownerID and has
// the given type.
func (c *InvariantChecker) CheckTypeConsistency(ctx context.Context, ownerID, categoryID string, txType models.TransactionType) error {
	category, err := c.VisibleCategory(ctx, ownerID, categoryID)
	if err != nil {
		return err
	}
	if category.Type != txType {
		return apperrors.WithMessage(apperrors.ErrCategoryTypeMismatch,
			"Transaction type "+string(txType)+" does not match category type "+string(category.Type))
	}
	return nil
}

// CheckCategoryRetype rejects changing the type of a category that transactions
// or recurring transactions already reference, since their types must keep
// matching it.
func (c *InvariantChecker) CheckCategoryRetype(ctx context.Context, categoryID string) error {
	db := c.db.WithContext(ctx)
	for _, model := range []any{&models.Transaction{}, &models.RecurringTransaction{}} {
		var count int64
		if err := db.Model(model).Where("category_id = ?", categoryID).Count(&count).Error; err != nil {
			return integrity.Translate(err)
		}
		if count > 0 {
			return apperrors.WithMessage(apperrors.ErrCategoryTypeMismatch,
				"Category type cannot change while transactions use the category")
		}
	}
	return nil
}
