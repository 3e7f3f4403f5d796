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

// transactionService handles transaction-related business logic.
type transactionService struct {
	db         *gorm.DB
	policy     *authz.Policy
	invariants *InvariantChecker
	resolver   *OwnershipResolver
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, policy *authz.Policy, invariants *InvariantChecker) TransactionServicer {
	return &transactionService{
		db:         db,
		policy:     policy,
		invariants: invariants,
		resolver:   NewOwnershipResolver(db),
	}
}

// CreateTransaction records a transaction for the caller. The category must be
// visible to the caller and have the same type as the transaction.
func (s *transactionService) CreateTransaction(ctx context.Context, p *authz.Principal, in CreateTransactionInput) (*models.Transaction, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	date, err := parseDate("date", in.Date)
	if err != nil {
		return nil, err
	}

	if err := s.invariants.CheckTypeConsistency(ctx, p.SubjectID, in.CategoryID, in.Type); err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		UserID:      p.SubjectID,
		CategoryID:  in.CategoryID,
		Amount:      in.Amount.Round(2),
		Type:        in.Type,
		Date:        date,
		Description: in.Description,
	}
	if err := s.db.WithContext(ctx).Create(transaction).Error; err != nil {
		return nil, integrity.Translate(err)
	}
	return transaction, nil
}

// ListTransactions returns the caller's transactions, newest first. Admins and
// managers see every user's transactions.
func (s *transactionService) ListTransactions(ctx context.Context, p *authz.Principal, filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := validator.Struct(filter); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.Transaction{})
	if !p.IsPrivileged() {
		query = query.Where("user_id = ?", p.SubjectID)
	}
	query, err := applyTransactionFilters(query, filter)
	if err != nil {
		return nil, err
	}
	return paginate[models.Transaction](query, page, "date DESC, created_at DESC")
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) (*gorm.DB, error) {
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.CategoryID != "" {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.From != "" {
		from, err := parseDate("from", f.From)
		if err != nil {
			return nil, err
		}
		q = q.Where("date >= ?", from)
	}
	if f.To != "" {
		to, err := parseDate("to", f.To)
		if err != nil {
			return nil, err
		}
		q = q.Where("date <= ?", to)
	}
	return q, nil
}

// GetTransaction retrieves a transaction by ID.
func (s *transactionService) GetTransaction(ctx context.Context, p *authz.Principal, id string) (*models.Transaction, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	transaction, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(p, authz.Owned(authz.KindTransaction, transaction.UserID), authz.ActionRead); err != nil {
		return nil, err
	}
	return transaction, nil
}

// UpdateTransaction applies a patch. When the category or type changes, the
// resulting pair is checked against the transaction owner's categories.
func (s *transactionService) UpdateTransaction(ctx context.Context, p *authz.Principal, id string, in UpdateTransactionInput) (*models.Transaction, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	transaction, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(p, authz.Owned(authz.KindTransaction, transaction.UserID), authz.ActionUpdate); err != nil {
		return nil, err
	}

	if in.CategoryID != nil || in.Type != nil {
		categoryID, txType := transaction.CategoryID, transaction.Type
		if in.CategoryID != nil {
			categoryID = *in.CategoryID
		}
		if in.Type != nil {
			txType = *in.Type
		}
		if err := s.invariants.CheckTypeConsistency(ctx, transaction.UserID, categoryID, txType); err != nil {
			return nil, err
		}
	}

	updates := make(map[string]any)
	if in.CategoryID != nil {
		updates["category_id"] = *in.CategoryID
	}
	if in.Amount != nil {
		updates["amount"] = in.Amount.Round(2)
	}
	if in.Type != nil {
		updates["type"] = *in.Type
	}
	if in.Date != nil {
		date, err := parseDate("date", *in.Date)
		if err != nil {
			return nil, err
		}
		updates["date"] = date
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if len(updates) == 0 {
		return transaction, nil
	}

	result := s.db.WithContext(ctx).Model(&models.Transaction{}).Where("id = ?", transaction.ID).Updates(updates)
	if result.Error != nil {
		return nil, integrity.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrTransactionNotFound
	}
	return s.load(ctx, transaction.ID)
}

// DeleteTransaction deletes a transaction.
func (s *transactionService) DeleteTransaction(ctx context.Context, p *authz.Principal, id string) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	resource, err := s.resolver.Resolve(ctx, authz.KindTransaction, id)
	if err != nil {
		return err
	}
	if err := s.policy.Authorize(p, resource, authz.ActionDelete); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Delete(&models.Transaction{}, "id = ?", id)
	if result.Error != nil {
		return integrity.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrTransactionNotFound
	}
	return nil
}

func (s *transactionService) load(ctx context.Context, id string) (*models.Transaction, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}
	var transaction models.Transaction
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&transaction).Error; err != nil {
		return nil, integrity.Translate(err, integrity.OnNotFound(apperrors.ErrTransactionNotFound))
	}
	return &transaction, nil
}
