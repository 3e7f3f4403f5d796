package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Category represents a transaction category. System categories have no owner
// and are shared read-only by every user.
type Category struct {
	Base
	UserID   *string      `gorm:"type:uuid;uniqueIndex:idx_categories_user_name_type" json:"user_id"`
	Name     string       `gorm:"size:50;not null;uniqueIndex:idx_categories_user_name_type" json:"name"`
	Type     CategoryType `gorm:"size:10;not null;uniqueIndex:idx_categories_user_name_type" json:"type"`
	Color    string       `gorm:"size:7" json:"color,omitempty"`
	Icon     string       `gorm:"size:50" json:"icon,omitempty"`
	IsSystem bool         `gorm:"not null;default:false" json:"is_system"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// OwnerID returns the owning user id, or nil for a system category.
func (c *Category) OwnerID() *string {
	if c.IsSystem {
		return nil
	}
	return c.UserID
}
