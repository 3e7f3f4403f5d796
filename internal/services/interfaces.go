package services

import (
	"context"

	"github.com/shopspring/decimal"

	"fintrack/internal/authz"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// RegisterInput is the payload for self-registration. The role is always user.
type RegisterInput struct {
	Email     string `json:"email" binding:"required,email_address,max=255"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name" binding:"required,notblank,max=100"`
	LastName  string `json:"last_name" binding:"required,notblank,max=100"`
}

// CreateUserInput is the payload for creating a user on someone's behalf.
type CreateUserInput struct {
	Email     string      `json:"email" binding:"required,email_address,max=255"`
	Password  string      `json:"password" binding:"required"`
	FirstName string      `json:"first_name" binding:"required,notblank,max=100"`
	LastName  string      `json:"last_name" binding:"required,notblank,max=100"`
	Role      models.Role `json:"role" binding:"omitempty,oneof=user manager admin"`
}

// UpdateUserInput is a user patch; nil fields are left unchanged.
type UpdateUserInput struct {
	Email     *string      `json:"email" binding:"omitempty,email_address,max=255"`
	Password  *string      `json:"password"`
	FirstName *string      `json:"first_name" binding:"omitempty,notblank,max=100"`
	LastName  *string      `json:"last_name" binding:"omitempty,notblank,max=100"`
	Role      *models.Role `json:"role" binding:"omitempty,oneof=user manager admin"`
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	CreateUser(ctx context.Context, p *authz.Principal, in CreateUserInput) (*models.User, error)
	ListUsers(ctx context.Context, p *authz.Principal, page pagination.PageRequest) (*pagination.PageResponse[models.User], error)
	GetUser(ctx context.Context, p *authz.Principal, id string) (*models.User, error)
	UpdateUser(ctx context.Context, p *authz.Principal, id string, in UpdateUserInput) (*models.User, error)
	DeleteUser(ctx context.Context, p *authz.Principal, id string) error
}

// CreateCategoryInput is the payload for creating a category.
type CreateCategoryInput struct {
	Name  string              `json:"name" binding:"required,notblank,max=50"`
	Type  models.CategoryType `json:"type" binding:"required,oneof=income expense"`
	Color string              `json:"color" binding:"omitempty,hex_color"`
	Icon  string              `json:"icon" binding:"omitempty,max=50"`
}

// UpdateCategoryInput is a category patch; nil fields are left unchanged.
type UpdateCategoryInput struct {
	Name  *string              `json:"name" binding:"omitempty,notblank,max=50"`
	Type  *models.CategoryType `json:"type" binding:"omitempty,oneof=income expense"`
	Color *string              `json:"color" binding:"omitempty,hex_color"`
	Icon  *string              `json:"icon" binding:"omitempty,max=50"`
}

// CategoryFilter holds optional filter parameters for listing categories.
type CategoryFilter struct {
	Type string `form:"type" binding:"omitempty,oneof=income expense"`
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(ctx context.Context, p *authz.Principal, in CreateCategoryInput) (*models.Category, error)
	ListCategories(ctx context.Context, p *authz.Principal, filter CategoryFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategory(ctx context.Context, p *authz.Principal, id string) (*models.Category, error)
	UpdateCategory(ctx context.Context, p *authz.Principal, id string, in UpdateCategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, p *authz.Principal, id string) error
}

// CreateTransactionInput is the payload for recording a transaction.
type CreateTransactionInput struct {
	CategoryID  string                 `json:"category_id" binding:"required,uuid_canonical"`
	Amount      *decimal.Decimal       `json:"amount" binding:"required,amount" swaggertype:"string" example:"42.50"`
	Type        models.TransactionType `json:"type" binding:"required,oneof=income expense"`
	Date        string                 `json:"date" binding:"required,date" example:"2024-03-17"`
	Description *string                `json:"description" binding:"omitempty,max=255"`
}

// UpdateTransactionInput is a transaction patch; nil fields are left unchanged.
type UpdateTransactionInput struct {
	CategoryID  *string                 `json:"category_id" binding:"omitempty,uuid_canonical"`
	Amount      *decimal.Decimal        `json:"amount" binding:"omitempty,amount" swaggertype:"string"`
	Type        *models.TransactionType `json:"type" binding:"omitempty,oneof=income expense"`
	Date        *string                 `json:"date" binding:"omitempty,date"`
	Description *string                 `json:"description" binding:"omitempty,max=255"`
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	Type       string `form:"type" binding:"omitempty,oneof=income expense"`
	CategoryID string `form:"category_id" binding:"omitempty,uuid_canonical"`
	From       string `form:"from" binding:"omitempty,date"`
	To         string `form:"to" binding:"omitempty,date"`
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, p *authz.Principal, in CreateTransactionInput) (*models.Transaction, error)
	ListTransactions(ctx context.Context, p *authz.Principal, filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	GetTransaction(ctx context.Context, p *authz.Principal, id string) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, p *authz.Principal, id string, in UpdateTransactionInput) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, p *authz.Principal, id string) error
}

// CreateRecurringTransactionInput is the payload for a recurring transaction.
// NextOccurrence defaults to StartDate.
type CreateRecurringTransactionInput struct {
	CategoryID     string                 `json:"category_id" binding:"required,uuid_canonical"`
	Amount         *decimal.Decimal       `json:"amount" binding:"required,amount" swaggertype:"string"`
	Type           models.TransactionType `json:"type" binding:"required,oneof=income expense"`
	Description    *string                `json:"description" binding:"omitempty,max=255"`
	Frequency      models.Frequency       `json:"frequency" binding:"required,oneof=daily weekly monthly yearly"`
	StartDate      string                 `json:"start_date" binding:"required,date"`
	EndDate        *string                `json:"end_date" binding:"omitempty,date"`
	NextOccurrence *string                `json:"next_occurrence" binding:"omitempty,date"`
}

// UpdateRecurringTransactionInput is a recurring transaction patch.
type UpdateRecurringTransactionInput struct {
	CategoryID     *string                 `json:"category_id" binding:"omitempty,uuid_canonical"`
	Amount         *decimal.Decimal        `json:"amount" binding:"omitempty,amount" swaggertype:"string"`
	Type           *models.TransactionType `json:"type" binding:"omitempty,oneof=income expense"`
	Description    *string                 `json:"description" binding:"omitempty,max=255"`
	Frequency      *models.Frequency       `json:"frequency" binding:"omitempty,oneof=daily weekly monthly yearly"`
	StartDate      *string                 `json:"start_date" binding:"omitempty,date"`
	EndDate        *string                 `json:"end_date" binding:"omitempty,date"`
	NextOccurrence *string                 `json:"next_occurrence" binding:"omitempty,date"`
	IsActive       *bool                   `json:"is_active"`
}

// RecurringTransactionServicer defines the contract for recurring transactions.
type RecurringTransactionServicer interface {
	CreateRecurringTransaction(ctx context.Context, p *authz.Principal, in CreateRecurringTransactionInput) (*models.RecurringTransaction, error)
	ListRecurringTransactions(ctx context.Context, p *authz.Principal, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringTransaction], error)
	ListDueRecurringTransactions(ctx context.Context, p *authz.Principal, asOf models.Date, page pagination.PageRequest) (*pagination.PageResponse[models.RecurringTransaction], error)
	GetRecurringTransaction(ctx context.Context, p *authz.Principal, id string) (*models.RecurringTransaction, error)
	UpdateRecurringTransaction(ctx context.Context, p *authz.Principal, id string, in UpdateRecurringTransactionInput) (*models.RecurringTransaction, error)
	DeleteRecurringTransaction(ctx context.Context, p *authz.Principal, id string) error
}

// CreateBudgetInput is the payload for creating a budget. Any day of the month
// may be given; it is stored as the first of the month.
type CreateBudgetInput struct {
	CategoryID string           `json:"category_id" binding:"required,uuid_canonical"`
	Amount     *decimal.Decimal `json:"amount" binding:"required,amount" swaggertype:"string"`
	Month      string           `json:"month" binding:"required,date" example:"2024-03-01"`
}

// UpdateBudgetInput is a budget patch; nil fields are left unchanged.
type UpdateBudgetInput struct {
	CategoryID *string          `json:"category_id" binding:"omitempty,uuid_canonical"`
	Amount     *decimal.Decimal `json:"amount" binding:"omitempty,amount" swaggertype:"string"`
	Month      *string          `json:"month" binding:"omitempty,date"`
}

// BudgetFilter holds optional filter parameters for listing budgets.
type BudgetFilter struct {
	Month string `form:"month" binding:"omitempty,date"`
}

// BudgetProgress contains spending vs budget data for a budget's month.
type BudgetProgress struct {
	BudgetID   string          `json:"budget_id"`
	Month      models.Date     `json:"month"`
	Budgeted   decimal.Decimal `json:"budgeted" swaggertype:"string"`
	Spent      decimal.Decimal `json:"spent" swaggertype:"string"`
	Remaining  decimal.Decimal `json:"remaining" swaggertype:"string"`
	Percentage decimal.Decimal `json:"percentage" swaggertype:"string"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(ctx context.Context, p *authz.Principal, in CreateBudgetInput) (*models.Budget, error)
	ListBudgets(ctx context.Context, p *authz.Principal, filter BudgetFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	GetBudget(ctx context.Context, p *authz.Principal, id string) (*models.Budget, error)
	UpdateBudget(ctx context.Context, p *authz.Principal, id string, in UpdateBudgetInput) (*models.Budget, error)
	DeleteBudget(ctx context.Context, p *authz.Principal, id string) error
	GetBudgetProgress(ctx context.Context, p *authz.Principal, id string) (*BudgetProgress, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(ctx context.Context, entry AuditEntry)
}
