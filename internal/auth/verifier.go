package auth

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"fintrack/internal/authz"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

// Verifier turns a bearer token into a Principal. The token's subject must still
// exist, so deleting an account revokes its outstanding tokens.
type Verifier struct {
	tokens *TokenManager
	db     *gorm.DB
}

// NewVerifier creates a Verifier.
func NewVerifier(tokens *TokenManager, db *gorm.DB) *Verifier {
	return &Verifier{tokens: tokens, db: db}
}

// Verify returns the principal for token, carrying the account's stored email
// and role. Every credential problem is reported as ErrInvalidToken.
func (v *Verifier) Verify(ctx context.Context, token string) (*authz.Principal, error) {
	if token == "" {
		return nil, apperrors.ErrUnauthorized
	}

	claims, err := v.tokens.Parse(token)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidToken, err)
	}

	var user models.User
	if err := v.db.WithContext(ctx).Where("id = ?", claims.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &authz.Principal{
		SubjectID: user.ID,
		Email:     user.Email,
		Role:      user.Role,
	}, nil
}
