package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/models"
)

func testUser() *models.User {
	return &models.User{
		Base:  models.Base{ID: "0190a6f4-3c2b-7d1e-8f00-123456789abc"},
		Email: "jane@test.com",
		Role:  models.RoleManager,
	}
}

func TestTokenManager_SignAndParse(t *testing.T) {
	m := NewTokenManager("secret", 15*time.Minute)

	token, err := m.Sign(testUser())
	require.NoError(t, err)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "0190a6f4-3c2b-7d1e-8f00-123456789abc", claims.UserID)
	assert.Equal(t, "jane@test.com", claims.Email)
	assert.Equal(t, models.RoleManager, claims.Role)
	assert.Equal(t, Issuer, claims.Issuer)
	assert.Equal(t, claims.UserID, claims.Subject)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager("secret", 15*time.Minute)

	t.Run("expired", func(t *testing.T) {
		past := NewTokenManager("secret", time.Minute)
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		token, err := past.Sign(testUser())
		require.NoError(t, err)

		_, err = m.Parse(token)
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := NewTokenManager("other", time.Minute).Sign(testUser())
		require.NoError(t, err)

		_, err = m.Parse(token)
		assert.Error(t, err)
	})

	t.Run("unsigned token", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{
			UserID: "x", Email: "x@test.com", Role: models.RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    Issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = m.Parse(token)
		assert.Error(t, err)
	})

	t.Run("missing role claim", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
			UserID: "x", Email: "x@test.com",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    Issuer,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = m.Parse(token)
		assert.Error(t, err)
	})

	t.Run("no expiry", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
			UserID: "x", Email: "x@test.com", Role: models.RoleUser,
			RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer},
		}).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = m.Parse(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Parse("not.a.token")
		assert.Error(t, err)
	})
}
