//go:build integration

package database

import (
	"context"
	"log"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"fintrack/internal/models"
)

// TestPostgresConstraintClassification runs the SQL migrations against a real
// Postgres and checks that constraint violations are classified by name.
// Run with: go test -tags=integration -timeout 180s ./internal/database/...
func TestPostgresConstraintClassification(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("fintrack"),
		tcpostgres.WithUsername("fintrack"),
		tcpostgres.WithPassword("fintrack"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			log.Printf("failed to terminate postgres container: %v", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	mig, err := migrate.New("file://../../migrations", connStr)
	require.NoError(t, err)
	require.NoError(t, mig.Up())
	_, _ = mig.Close()

	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{})
	require.NoError(t, err)

	var systemCount int64
	require.NoError(t, db.Model(&models.Category{}).Where("is_system").Count(&systemCount).Error)
	assert.Equal(t, int64(len(SystemCategories)), systemCount)

	user := &models.User{Email: "pg@test.com", Password: "x", Role: models.RoleUser}
	require.NoError(t, db.WithContext(ctx).Create(user).Error)

	var category models.Category
	require.NoError(t, db.Where("is_system AND type = ?", models.CategoryTypeExpense).First(&category).Error)

	month, err := models.ParseDate("2024-03-01")
	require.NoError(t, err)

	t.Run("duplicate budget is a unique violation", func(t *testing.T) {
		first := &models.Budget{UserID: user.ID, CategoryID: category.ID, Amount: decimal.RequireFromString("100"), Month: month}
		require.NoError(t, db.Create(first).Error)

		dup := &models.Budget{UserID: user.ID, CategoryID: category.ID, Amount: decimal.RequireFromString("50"), Month: month}
		ce := Classify(db.Create(dup).Error)
		require.NotNil(t, ce)
		assert.Equal(t, ConstraintUnique, ce.Kind)
		assert.Equal(t, "idx_budgets_user_category_month", ce.Constraint)
	})

	t.Run("unknown category is a foreign key violation", func(t *testing.T) {
		date, _ := models.ParseDate("2024-03-02")
		tx := &models.Transaction{
			UserID:     user.ID,
			CategoryID: "0190a6f4-3c2b-7d1e-8f00-123456789abc",
			Amount:     decimal.RequireFromString("12.50"),
			Type:       models.TransactionTypeExpense,
			Date:       date,
		}
		ce := Classify(db.Create(tx).Error)
		require.NotNil(t, ce)
		assert.Equal(t, ConstraintForeignKey, ce.Kind)
		assert.Contains(t, ce.Constraint, "category")
	})

	t.Run("deleting a category in use is a foreign key violation", func(t *testing.T) {
		owned := &models.Category{UserID: &user.ID, Name: "Books", Type: models.CategoryTypeExpense}
		require.NoError(t, db.Create(owned).Error)
		date, _ := models.ParseDate("2024-03-03")
		require.NoError(t, db.Create(&models.Transaction{
			UserID: user.ID, CategoryID: owned.ID, Amount: decimal.RequireFromString("9.99"),
			Type: models.TransactionTypeExpense, Date: date,
		}).Error)

		ce := Classify(db.Delete(owned).Error)
		require.NotNil(t, ce)
		assert.Equal(t, ConstraintForeignKey, ce.Kind)
		assert.Equal(t, "fk_transactions_category", ce.Constraint)
	})
}
