package services

import (
	"testing"

	"fintrack/internal/authz"
	"fintrack/internal/models"
	"fintrack/internal/testutil"
	"fintrack/internal/uuid"
)

func TestCreateRecurringTransaction(t *testing.T) {
	t.Run("next_occurrence_defaults_to_start", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecurringTransactionService(db, authz.NewPolicy(), NewInvariantChecker(db))
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		rt, err := svc.CreateRecurringTransaction(ctx, testutil.PrincipalFor(user), CreateRecurringTransactionInput{
			CategoryID: cat.ID,
			Amount:     amount("1200"),
			Type:       models.TransactionTypeExpense,
			Frequency:  models.FrequencyMonthly,
			StartDate:  "2024-01-01",
			EndDate:    ptr("2024-12-31"),
		})
		testutil.AssertNoError(t, err)

		if rt.NextOccurrence.String() != "2024-01-01" {
			t.Errorf("expected next occurrence 2024-01-01, got %s", rt.NextOccurrence)
		}
		if !rt.IsActive {
			t.Error("expected recurring transaction to be active")
		}
		if rt.EndDate == nil || rt.EndDate.String() != "2024-12-31" {
			t.Errorf("expected end date 2024-12-31, got %v", rt.EndDate)
		}
	})

	t.Run("explicit_next_occurrence", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecurringTransactionService(db, authz.NewPolicy(), NewInvariantChecker(db))
		user := testutil.CreateTestUser(t, db)
		sys := testutil.SystemCategory(t, db, models.CategoryTypeIncome)

		rt, err := svc.CreateRecurringTransaction(ctx, testutil.PrincipalFor(user), CreateRecurringTransactionInput{
			CategoryID:     sys.ID,
			Amount:         amount("3000"),
			Type:           models.TransactionTypeIncome,
			Frequency:      models.FrequencyMonthly,
			StartDate:      "2024-01-25",
			NextOccurrence: ptr("2024-04-25"),
		})
		testutil.AssertNoError(t, err)
		if rt.NextOccurrence.String() != "2024-04-25" {
			t.Errorf("expected next occurrence 2024-04-25, got %s", rt.NextOccurrence)
		}
	})

	t.Run("end_before_start", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecurringTransactionService(db, authz.NewPolicy(), NewInvariantChecker(db))
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		_, err := svc.CreateRecurringTransaction(ctx, testutil.PrincipalFor(user), CreateRecurringTransactionInput{
			CategoryID: cat.ID, Amount: amount("10"), Type: models.TransactionTypeExpense,
			Frequency: models.FrequencyWeekly, StartDate: "2024-05-01", EndDate: ptr("2024-04-30"),
		})
		testutil.AssertAppError(t, err, "VALIDATION_FAILED")
	})

	t.Run("type_mismatch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecurringTransactionService(db, authz.NewPolicy(), NewInvariantChecker(db))
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		_, err := svc.CreateRecurringTransaction(ctx, testutil.PrincipalFor(user), CreateRecurringTransactionInput{
			CategoryID: cat.ID, Amount: amount("10"), Type: models.TransactionTypeIncome,
			Frequency: models.FrequencyDaily, StartDate: "2024-05-01",
		})
		testutil.AssertAppError(t, err, "TYPE_MISMATCH")
	})

	t.Run("invalid_frequency", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecurringTransactionService(db, authz.NewPolicy(), NewInvariantChecker(db))
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		_, err := svc.CreateRecurringTransaction(ctx, testutil.PrincipalFor(user), CreateRecurringTransactionInput{
			CategoryID: cat.ID, Amount: amount("10"), Type: models.TransactionTypeExpense,
			Frequency: "fortnightly", StartDate: "2024-05-01",
		})
		testutil.AssertAppError(t, err, "VALIDATION_FAILED")
	})
}

func TestListDueRecurringTransactions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewRecurringTransactionService(db, authz.NewPolicy(), NewInvariantChecker(db))
	user := testutil.CreateTestUser(t, db)
	cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

	due := testutil.CreateTestRecurringTransaction(t, db, user.ID, cat, "2024-03-01")
	testutil.CreateTestRecurringTransaction(t, db, user.ID, cat, "2024-04-01")

	inactive := testutil.CreateTestRecurringTransaction(t, db, user.ID, cat, "2024-02-01")
	db.Model(inactive).Update("is_active", false)

	ended := testutil.CreateTestRecurringTransaction(t, db, user.ID, cat, "2024-01-01")
	db.Model(ended).Update("end_date", testutil.MustDate(t, "2024-03-10"))

	other := testutil.CreateTestUser(t, db)
	testutil.CreateTestRecurringTransaction(t, db, other.ID, testutil.CreateTestCategory(t, db, other.ID, models.CategoryTypeExpense), "2024-03-01")

	result, err := svc.ListDueRecurringTransactions(ctx, testutil.PrincipalFor(user), testutil.MustDate(t, "2024-03-15"), firstPage())
	testutil.AssertNoError(t, err)

	if result.TotalItems != 1 {
		t.Fatalf("expected 1 due recurring transaction, got %d", result.TotalItems)
	}
	if result.Data[0].ID != due.ID {
		t.Errorf("expected %s to be due, got %s", due.ID, result.Data[0].ID)
	}

	all, err := svc.ListRecurringTransactions(ctx, testutil.PrincipalFor(user), firstPage())
	testutil.AssertNoError(t, err)
	if all.TotalItems != 4 {
		t.Errorf("expected 4 recurring transactions, got %d", all.TotalItems)
	}
}

func TestUpdateRecurringTransaction(t *testing.T) {
	t.Run("deactivate_and_reschedule", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecurringTransactionService(db, authz.NewPolicy(), NewInvariantChecker(db))
		user := testutil.CreateTestUser(t, db)
		rt := testutil.CreateTestRecurringTransaction(t, db, user.ID, testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense), "2024-03-01")

		updated, err := svc.UpdateRecurringTransaction(ctx, testutil.PrincipalFor(user), rt.ID, UpdateRecurringTransactionInput{
			IsActive:       ptr(false),
			NextOccurrence: ptr("2024-04-01"),
		})
		testutil.AssertNoError(t, err)
		if updated.IsActive {
			t.Error("expected recurring transaction to be inactive")
		}
		if updated.NextOccurrence.String() != "2024-04-01" {
			t.Errorf("expected next occurrence 2024-04-01, got %s", updated.NextOccurrence)
		}
	})

	t.Run("end_before_stored_start", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecurringTransactionService(db, authz.NewPolicy(), NewInvariantChecker(db))
		user := testutil.CreateTestUser(t, db)
		rt := testutil.CreateTestRecurringTransaction(t, db, user.ID, testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense), "2024-03-01")

		_, err := svc.UpdateRecurringTransaction(ctx, testutil.PrincipalFor(user), rt.ID, UpdateRecurringTransactionInput{EndDate: ptr("2024-02-01")})
		testutil.AssertAppError(t, err, "VALIDATION_FAILED")
	})

	t.Run("type_mismatch", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecurringTransactionService(db, authz.NewPolicy(), NewInvariantChecker(db))
		user := testutil.CreateTestUser(t, db)
		rt := testutil.CreateTestRecurringTransaction(t, db, user.ID, testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense), "2024-03-01")
		income := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeIncome)

		_, err := svc.UpdateRecurringTransaction(ctx, testutil.PrincipalFor(user), rt.ID, UpdateRecurringTransactionInput{CategoryID: &income.ID})
		testutil.AssertAppError(t, err, "TYPE_MISMATCH")
	})

	t.Run("other_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewRecurringTransactionService(db, authz.NewPolicy(), NewInvariantChecker(db))
		owner := testutil.CreateTestUser(t, db)
		rt := testutil.CreateTestRecurringTransaction(t, db, owner.ID, testutil.CreateTestCategory(t, db, owner.ID, models.CategoryTypeExpense), "2024-03-01")

		_, err := svc.UpdateRecurringTransaction(ctx, testutil.PrincipalFor(testutil.CreateTestUser(t, db)), rt.ID, UpdateRecurringTransactionInput{IsActive: ptr(false)})
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})
}

func TestDeleteRecurringTransaction(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewRecurringTransactionService(db, authz.NewPolicy(), NewInvariantChecker(db))
	owner := testutil.CreateTestUser(t, db)
	rt := testutil.CreateTestRecurringTransaction(t, db, owner.ID, testutil.CreateTestCategory(t, db, owner.ID, models.CategoryTypeExpense), "2024-03-01")

	err := svc.DeleteRecurringTransaction(ctx, testutil.PrincipalFor(testutil.CreateTestUser(t, db)), rt.ID)
	testutil.AssertAppError(t, err, "FORBIDDEN")

	testutil.AssertNoError(t, svc.DeleteRecurringTransaction(ctx, testutil.PrincipalFor(owner), rt.ID))

	err = svc.DeleteRecurringTransaction(ctx, testutil.PrincipalFor(owner), rt.ID)
	testutil.AssertAppError(t, err, "RECURRING_TRANSACTION_NOT_FOUND")

	_, err = svc.GetRecurringTransaction(ctx, testutil.PrincipalFor(owner), uuid.New())
	testutil.AssertAppError(t, err, "RECURRING_TRANSACTION_NOT_FOUND")
}
