package services

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fintrack/internal/authz"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/integrity"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/validator"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db         *gorm.DB
	policy     *authz.Policy
	invariants *InvariantChecker
	resolver   *OwnershipResolver
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, policy *authz.Policy, invariants *InvariantChecker) BudgetServicer {
	return &budgetService{
		db:         db,
		policy:     policy,
		invariants: invariants,
		resolver:   NewOwnershipResolver(db),
	}
}

var hundred = decimal.NewFromInt(100)

// CreateBudget creates a budget for the caller. The month is stored as the
// first day of the given date's month; a second budget for the same category
// and month is a conflict.
func (s *budgetService) CreateBudget(ctx context.Context, p *authz.Principal, in CreateBudgetInput) (*models.Budget, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	month, err := parseDate("month", in.Month)
	if err != nil {
		return nil, err
	}

	if _, err := s.invariants.VisibleCategory(ctx, p.SubjectID, in.CategoryID); err != nil {
		return nil, err
	}

	budget := &models.Budget{
		UserID:     p.SubjectID,
		CategoryID: in.CategoryID,
		Amount:     in.Amount.Round(2),
		Month:      month.MonthStart(),
	}
	if err := s.db.WithContext(ctx).Create(budget).Error; err != nil {
		return nil, integrity.Translate(err, integrity.OnConflict(apperrors.ErrDuplicateBudget))
	}
	return budget, nil
}

// ListBudgets returns the caller's budgets, optionally for one month. Admins
// and managers see every budget.
func (s *budgetService) ListBudgets(ctx context.Context, p *authz.Principal, filter BudgetFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := validator.Struct(filter); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.Budget{})
	if !p.IsPrivileged() {
		query = query.Where("user_id = ?", p.SubjectID)
	}
	if filter.Month != "" {
		month, err := parseDate("month", filter.Month)
		if err != nil {
			return nil, err
		}
		query = query.Where("month = ?", month.MonthStart())
	}
	return paginate[models.Budget](query, page, "month DESC, created_at ASC")
}

// GetBudget retrieves a budget by ID.
func (s *budgetService) GetBudget(ctx context.Context, p *authz.Principal, id string) (*models.Budget, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	budget, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(p, authz.Owned(authz.KindBudget, budget.UserID), authz.ActionRead); err != nil {
		return nil, err
	}
	return budget, nil
}

// UpdateBudget applies a patch. A new month is normalized like on create.
func (s *budgetService) UpdateBudget(ctx context.Context, p *authz.Principal, id string, in UpdateBudgetInput) (*models.Budget, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	budget, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(p, authz.Owned(authz.KindBudget, budget.UserID), authz.ActionUpdate); err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if in.CategoryID != nil {
		if _, err := s.invariants.VisibleCategory(ctx, budget.UserID, *in.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *in.CategoryID
	}
	if in.Amount != nil {
		updates["amount"] = in.Amount.Round(2)
	}
	if in.Month != nil {
		month, err := parseDate("month", *in.Month)
		if err != nil {
			return nil, err
		}
		updates["month"] = month.MonthStart()
	}
	if len(updates) == 0 {
		return budget, nil
	}

	result := s.db.WithContext(ctx).Model(&models.Budget{}).Where("id = ?", budget.ID).Updates(updates)
	if result.Error != nil {
		return nil, integrity.Translate(result.Error, integrity.OnConflict(apperrors.ErrDuplicateBudget))
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrBudgetNotFound
	}
	return s.load(ctx, budget.ID)
}

// DeleteBudget deletes a budget.
func (s *budgetService) DeleteBudget(ctx context.Context, p *authz.Principal, id string) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	resource, err := s.resolver.Resolve(ctx, authz.KindBudget, id)
	if err != nil {
		return err
	}
	if err := s.policy.Authorize(p, resource, authz.ActionDelete); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Delete(&models.Budget{}, "id = ?", id)
	if result.Error != nil {
		return integrity.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrBudgetNotFound
	}
	return nil
}

// GetBudgetProgress sums the owner's expense transactions in the budget's
// category during the budget's month.
func (s *budgetService) GetBudgetProgress(ctx context.Context, p *authz.Principal, id string) (*BudgetProgress, error) {
	budget, err := s.GetBudget(ctx, p, id)
	if err != nil {
		return nil, err
	}

	start := budget.Month.MonthStart()
	end := models.NewDate(start.AddDate(0, 1, 0))

	var spent decimal.NullDecimal
	row := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("SUM(amount)").
		Where("user_id = ? AND category_id = ? AND type = ?", budget.UserID, budget.CategoryID, models.TransactionTypeExpense).
		Where("date >= ? AND date < ?", start, end).
		Row()
	if err := row.Scan(&spent); err != nil {
		return nil, integrity.Translate(err)
	}

	total := decimal.Zero
	if spent.Valid {
		total = spent.Decimal.Round(2)
	}
	percentage := decimal.Zero
	if budget.Amount.IsPositive() {
		percentage = total.Div(budget.Amount).Mul(hundred).Round(2)
	}

	return &BudgetProgress{
		BudgetID:   budget.ID,
		Month:      start,
		Budgeted:   budget.Amount,
		Spent:      total,
		Remaining:  budget.Amount.Sub(total),
		Percentage: percentage,
	}, nil
}

func (s *budgetService) load(ctx context.Context, id string) (*models.Budget, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}
	var budget models.Budget
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&budget).Error; err != nil {
		return nil, integrity.Translate(err, integrity.OnNotFound(apperrors.ErrBudgetNotFound))
	}
	return &budget, nil
}
