package models

import "github.com/shopspring/decimal"

// Frequency is how often a recurring transaction repeats.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// RecurringTransaction is a template for a transaction that repeats on a schedule.
// NextOccurrence is stored as given; nothing advances it automatically.
type RecurringTransaction struct {
	Base
	UserID         string          `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID     string          `gorm:"type:uuid;not null;index" json:"category_id"`
	Amount         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Type           TransactionType `gorm:"size:10;not null" json:"type"`
	Description    *string         `gorm:"size:255" json:"description,omitempty"`
	Frequency      Frequency       `gorm:"size:10;not null" json:"frequency"`
	StartDate      Date            `gorm:"not null" json:"start_date"`
	EndDate        *Date           `json:"end_date,omitempty"`
	NextOccurrence Date            `gorm:"not null;index" json:"next_occurrence"`
	IsActive       bool            `gorm:"not null;default:true" json:"is_active"`

	User     *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
