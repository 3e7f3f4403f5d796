package testutil_test

import (
	"testing"

	"fintrack/internal/database"
	"fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"users", "categories", "transactions", "recurring_transactions", "budgets", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}

	if err := db.Model(&models.Category{}).Where("is_system = ?", true).Count(&count).Error; err != nil {
		t.Fatalf("count system categories: %v", err)
	}
	if count != int64(len(database.SystemCategories)) {
		t.Errorf("expected %d system categories, got %d", len(database.SystemCategories), count)
	}
}

func TestSetupTestDB_Isolated(t *testing.T) {
	a := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, a)
	b := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, b)

	testutil.CreateTestUser(t, a)

	var count int64
	b.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Errorf("expected empty users table in second database, got %d rows", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have an ID")
	}
	if user.Role != models.RoleUser {
		t.Errorf("expected role user, got %s", user.Role)
	}

	category := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	if category.Type != models.CategoryTypeExpense {
		t.Errorf("expected expense category, got %s", category.Type)
	}

	tx := testutil.CreateTestTransaction(t, db, user.ID, category, "12.34", "2024-03-05")
	if tx.Amount.StringFixed(2) != "12.34" {
		t.Errorf("expected amount 12.34, got %s", tx.Amount)
	}

	budget := testutil.CreateTestBudget(t, db, user.ID, category.ID, "2024-03-17")
	if budget.Month.String() != "2024-03-01" {
		t.Errorf("expected month 2024-03-01, got %s", budget.Month)
	}

	var stored models.Transaction
	if err := db.First(&stored, "id = ?", tx.ID).Error; err != nil {
		t.Fatalf("reload transaction: %v", err)
	}
	if stored.Date.String() != "2024-03-05" {
		t.Errorf("expected date 2024-03-05 after round trip, got %s", stored.Date)
	}
}

func TestForeignKeysEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	missing := "0190a6f4-3c2b-7d1e-8f00-123456789abc"
	err := db.Create(&models.Category{UserID: &missing, Name: "Orphan", Type: models.CategoryTypeExpense}).Error
	if database.Classify(err) == nil {
		t.Fatalf("expected a foreign key violation, got %v", err)
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrBudgetNotFound, "custom message")
	testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
	testutil.AssertAppErrorKind(t, err, errors.KindNotFound)
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}
