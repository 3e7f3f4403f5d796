package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/models"
	"fintrack/internal/testutil"
)

func TestVerifier_Verify(t *testing.T) {
	tokens := NewTokenManager("secret", 15*time.Minute)
	ctx := context.Background()

	t.Run("returns principal with stored role", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)

		token, err := tokens.Sign(user)
		require.NoError(t, err)

		// Promote after the token was issued.
		require.NoError(t, db.Model(user).Update("role", models.RoleAdmin).Error)

		p, err := NewVerifier(tokens, db).Verify(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, p.SubjectID)
		assert.Equal(t, user.Email, p.Email)
		assert.Equal(t, models.RoleAdmin, p.Role)
	})

	t.Run("deleted account invalidates token", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)

		token, err := tokens.Sign(user)
		require.NoError(t, err)
		require.NoError(t, db.Delete(user).Error)

		_, err = NewVerifier(tokens, db).Verify(ctx, token)
		testutil.AssertAppError(t, err, "UNAUTHENTICATED")
	})

	t.Run("invalid token", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		_, err := NewVerifier(tokens, db).Verify(ctx, "garbage")
		testutil.AssertAppError(t, err, "UNAUTHENTICATED")
	})

	t.Run("empty token", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		_, err := NewVerifier(tokens, db).Verify(ctx, "")
		testutil.AssertAppError(t, err, "UNAUTHENTICATED")
	})
}
