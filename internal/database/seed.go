package database

import (
	"fmt"

	"gorm.io/gorm"

	"fintrack/internal/models"
)

// SystemCategory describes a category shared by all users.
type SystemCategory struct {
	Name  string
	Type  models.CategoryType
	Color string
	Icon  string
}

// SystemCategories are seeded on every fresh database. The SQL migration
// 000001_init_schema inserts the same rows for Postgres.
var SystemCategories = []SystemCategory{
	{Name: "Salary", Type: models.CategoryTypeIncome, Color: "#2E7D32", Icon: "briefcase"},
	{Name: "Investments", Type: models.CategoryTypeIncome, Color: "#1565C0", Icon: "trending-up"},
	{Name: "Other Income", Type: models.CategoryTypeIncome, Color: "#6A1B9A", Icon: "plus-circle"},
	{Name: "Groceries", Type: models.CategoryTypeExpense, Color: "#EF6C00", Icon: "shopping-cart"},
	{Name: "Housing", Type: models.CategoryTypeExpense, Color: "#5D4037", Icon: "home"},
	{Name: "Transport", Type: models.CategoryTypeExpense, Color: "#00838F", Icon: "car"},
	{Name: "Utilities", Type: models.CategoryTypeExpense, Color: "#F9A825", Icon: "zap"},
	{Name: "Healthcare", Type: models.CategoryTypeExpense, Color: "#C62828", Icon: "heart"},
	{Name: "Entertainment", Type: models.CategoryTypeExpense, Color: "#AD1457", Icon: "film"},
	{Name: "Other Expenses", Type: models.CategoryTypeExpense, Color: "#546E7A", Icon: "more-horizontal"},
}

// SeedSystemCategories inserts any missing system category. It is idempotent.
func SeedSystemCategories(db *gorm.DB) error {
	for _, sc := range SystemCategories {
		var count int64
		if err := db.Model(&models.Category{}).
			Where("user_id IS NULL AND name = ? AND type = ?", sc.Name, sc.Type).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check system category %s: %w", sc.Name, err)
		}
		if count > 0 {
			continue
		}
		category := &models.Category{
			Name:     sc.Name,
			Type:     sc.Type,
			Color:    sc.Color,
			Icon:     sc.Icon,
			IsSystem: true,
		}
		if err := db.Create(category).Error; err != nil {
			return fmt.Errorf("failed to seed system category %s: %w", sc.Name, err)
		}
	}
	return nil
}
