package services

import (
	"context"

	"gorm.io/gorm"

	"fintrack/internal/authz"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/integrity"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/validator"
)

// recurringTransactionService handles recurring transaction templates. It only
// stores schedules; nothing here materializes transactions from them.
type recurringTransactionService struct {
	db         *gorm.DB
	policy     *authz.Policy
	invariants *InvariantChecker
	resolver   *OwnershipResolver
}

// NewRecurringTransactionService creates a new RecurringTransactionServicer.
func NewRecurringTransactionService(db *gorm.DB, policy *authz.Policy, invariants *InvariantChecker) RecurringTransactionServicer {
	return &recurringTransactionService{
		db:         db,
		policy:     policy,
		invariants: invariants,
		resolver:   NewOwnershipResolver(db),
	}
}

var errEndBeforeStart = apperrors.WithMessage(apperrors.ErrValidation, "end_date must not be before start_date")

// CreateRecurringTransaction creates a recurring transaction for the caller.
func (s *recurringTransactionService) CreateRecurringTransaction(ctx context.Context, p *authz.Principal, in CreateRecurringTransactionInput) (*models.RecurringTransaction, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	start, err := parseDate("start_date", in.StartDate)
	if err != nil {
		return nil, err
	}
	var end *models.Date
	if in.EndDate != nil {
		d, err := parseDate("end_date", *in.EndDate)
		if err != nil {
			return nil, err
		}
		if d.Before(start.Time) {
			return nil, errEndBeforeStart
		}
		end = &d
	}
	next := start
	if in.NextOccurrence != nil {
		if next, err = parseDate("next_occurrence", *in.NextOccurrence); err != nil {
			return nil, err
		}
	}

	if err := s.invariants.CheckTypeConsistency(ctx, p.SubjectID, in.CategoryID, in.Type); err != nil {
		return nil, err
	}

	rt := &models.RecurringTransaction{
		UserID:         p.SubjectID,
		CategoryID:     in.CategoryID,
		Amount:         in.Amount.Round(2),
		Type:           in.Type,
		Description:    in.Description,
		Frequency:      in.Frequency,
		StartDate:      start,
		EndDate:        end,
		NextOccurrence: next,
		IsActive:       true,
	}
	if err := s.db.WithContext(ctx).Create(rt).Error; err != nil {
		return nil, integrity.Translate(err)
	}
	return rt, nil
}

// ListRecurringTransactions returns the caller's recurring transactions.
// Admins and managers see all of them.
func (s *recurringTransactionService) ListRecurringTransactions(ctx context.Context, p *authz.Principal, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringTransaction], error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	return paginate[models.RecurringTransaction](s.scoped(ctx, p), page, "next_occurrence ASC, created_at ASC")
}

// ListDueRecurringTransactions returns active recurring transactions whose next
// occurrence is on or before asOf and whose end date has not passed.
func (s *recurringTransactionService) ListDueRecurringTransactions(ctx context.Context, p *authz.Principal, asOf models.Date, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringTransaction], error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	query := s.scoped(ctx, p).
		Where("is_active = ?", true).
		Where("next_occurrence <= ?", asOf).
		Where("(end_date IS NULL OR end_date >= ?)", asOf)
	return paginate[models.RecurringTransaction](query, page, "next_occurrence ASC, created_at ASC")
}

func (s *recurringTransactionService) scoped(ctx context.Context, p *authz.Principal) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.RecurringTransaction{})
	if !p.IsPrivileged() {
		query = query.Where("user_id = ?", p.SubjectID)
	}
	return query
}

// GetRecurringTransaction retrieves a recurring transaction by ID.
func (s *recurringTransactionService) GetRecurringTransaction(ctx context.Context, p *authz.Principal, id string) (*models.RecurringTransaction, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	rt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(p, authz.Owned(authz.KindRecurringTransaction, rt.UserID), authz.ActionRead); err != nil {
		return nil, err
	}
	return rt, nil
}

// UpdateRecurringTransaction applies a patch, re-checking the category/type pair
// and the date range against the merged values.
func (s *recurringTransactionService) UpdateRecurringTransaction(ctx context.Context, p *authz.Principal, id string, in UpdateRecurringTransactionInput) (*models.RecurringTransaction, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	rt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(p, authz.Owned(authz.KindRecurringTransaction, rt.UserID), authz.ActionUpdate); err != nil {
		return nil, err
	}

	updates := make(map[string]any)

	start, end := rt.StartDate, rt.EndDate
	if in.StartDate != nil {
		if start, err = parseDate("start_date", *in.StartDate); err != nil {
			return nil, err
		}
		updates["start_date"] = start
	}
	if in.EndDate != nil {
		d, err := parseDate("end_date", *in.EndDate)
		if err != nil {
			return nil, err
		}
		end = &d
		updates["end_date"] = d
	}
	if end != nil && end.Before(start.Time) {
		return nil, errEndBeforeStart
	}
	if in.NextOccurrence != nil {
		next, err := parseDate("next_occurrence", *in.NextOccurrence)
		if err != nil {
			return nil, err
		}
		updates["next_occurrence"] = next
	}

	if in.CategoryID != nil || in.Type != nil {
		categoryID, txType := rt.CategoryID, rt.Type
		if in.CategoryID != nil {
			categoryID = *in.CategoryID
		}
		if in.Type != nil {
			txType = *in.Type
		}
		if err := s.invariants.CheckTypeConsistency(ctx, rt.UserID, categoryID, txType); err != nil {
			return nil, err
		}
	}

	if in.CategoryID != nil {
		updates["category_id"] = *in.CategoryID
	}
	if in.Amount != nil {
		updates["amount"] = in.Amount.Round(2)
	}
	if in.Type != nil {
		updates["type"] = *in.Type
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Frequency != nil {
		updates["frequency"] = *in.Frequency
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if len(updates) == 0 {
		return rt, nil
	}

	result := s.db.WithContext(ctx).Model(&models.RecurringTransaction{}).Where("id = ?", rt.ID).Updates(updates)
	if result.Error != nil {
		return nil, integrity.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrRecurringTransactionNotFound
	}
	return s.load(ctx, rt.ID)
}

// DeleteRecurringTransaction deletes a recurring transaction.
func (s *recurringTransactionService) DeleteRecurringTransaction(ctx context.Context, p *authz.Principal, id string) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	resource, err := s.resolver.Resolve(ctx, authz.KindRecurringTransaction, id)
	if err != nil {
		return err
	}
	if err := s.policy.Authorize(p, resource, authz.ActionDelete); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Delete(&models.RecurringTransaction{}, "id = ?", id)
	if result.Error != nil {
		return integrity.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrRecurringTransactionNotFound
	}
	return nil
}

func (s *recurringTransactionService) load(ctx context.Context, id string) (*models.RecurringTransaction, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}
	var rt models.RecurringTransaction
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&rt).Error; err != nil {
		return nil, integrity.Translate(err, integrity.OnNotFound(apperrors.ErrRecurringTransactionNotFound))
	}
	return &rt, nil
}
