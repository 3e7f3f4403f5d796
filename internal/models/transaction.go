package models

import "github.com/shopspring/decimal"

// TransactionType represents the type of transaction. It always matches the
// type of the transaction's category.
type TransactionType = CategoryType

const (
	TransactionTypeIncome  = CategoryTypeIncome
	TransactionTypeExpense = CategoryTypeExpense
)

// Transaction represents a financial transaction in the system
type Transaction struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID  string          `gorm:"type:uuid;not null;index" json:"category_id"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Type        TransactionType `gorm:"size:10;not null" json:"type"`
	Date        Date            `gorm:"not null;index" json:"date"`
	Description *string         `gorm:"size:255" json:"description,omitempty"`

	User     *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
