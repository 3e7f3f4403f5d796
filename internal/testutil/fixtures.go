package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"fintrack/internal/authz"
	"fintrack/internal/models"
)

// TestPassword is the plaintext password of every fixture user.
const TestPassword = "Passw0rd!"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with role user, a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithRole(t, db, models.RoleUser)
}

// CreateTestUserWithRole creates a user with the given role.
func CreateTestUserWithRole(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email, role)
}

// CreateTestUserWithEmail creates a user with the given email and role.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:     email,
		Password:  string(hash),
		FirstName: "Test",
		LastName:  "User",
		Role:      role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// PrincipalFor returns the principal a verified token for user would carry.
func PrincipalFor(user *models.User) *authz.Principal {
	return &authz.Principal{SubjectID: user.ID, Email: user.Email, Role: user.Role}
}

// CreateTestCategory creates a user-owned category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: &userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Type:   categoryType,
		Color:  "#336699",
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// SystemCategory returns a seeded system category of the given type.
func SystemCategory(t *testing.T, db *gorm.DB, categoryType models.CategoryType) *models.Category {
	t.Helper()

	var category models.Category
	if err := db.Where("is_system = ? AND type = ?", true, categoryType).Order("name").First(&category).Error; err != nil {
		t.Fatalf("failed to load system category: %v", err)
	}
	return &category
}

// MustDate parses a YYYY-MM-DD string or fails the test.
func MustDate(t *testing.T, s string) models.Date {
	t.Helper()

	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatalf("invalid test date %q: %v", s, err)
	}
	return d
}

// CreateTestTransaction creates a transaction in the given category, with the category's type.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID string, category *models.Category, amount string, date string) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:     userID,
		CategoryID: category.ID,
		Type:       category.Type,
		Amount:     decimal.RequireFromString(amount),
		Date:       MustDate(t, date),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// CreateTestRecurringTransaction creates an active monthly recurring transaction.
func CreateTestRecurringTransaction(t *testing.T, db *gorm.DB, userID string, category *models.Category, startDate string) *models.RecurringTransaction {
	t.Helper()

	start := MustDate(t, startDate)
	rt := &models.RecurringTransaction{
		UserID:         userID,
		CategoryID:     category.ID,
		Type:           category.Type,
		Amount:         decimal.RequireFromString("25.00"),
		Frequency:      models.FrequencyMonthly,
		StartDate:      start,
		NextOccurrence: start,
		IsActive:       true,
	}
	if err := db.Create(rt).Error; err != nil {
		t.Fatalf("failed to create test recurring transaction: %v", err)
	}
	return rt
}

// CreateTestBudget creates a budget of 100.00 for the month containing month.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID, categoryID string, month string) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     decimal.RequireFromString("100.00"),
		Month:      MustDate(t, month).MonthStart(),
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}
