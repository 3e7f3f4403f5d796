package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"fintrack/internal/authz"
	apperrors "fintrack/internal/errors"
)

const principalKey = "principal"

// TokenVerifier turns a bearer token into the calling principal.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*authz.Principal, error)
}

// AuthMiddleware verifies the bearer token and stores the principal in the
// context. Requests without a valid token are rejected with 401.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Authorization header must be 'Bearer <token>'"))
			return
		}

		principal, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		SetPrincipal(c, principal)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// SetPrincipal stores the authenticated principal in the context.
func SetPrincipal(c *gin.Context, p *authz.Principal) {
	c.Set(principalKey, p)
}

// GetPrincipal returns the authenticated principal, or nil if the request was
// not authenticated.
func GetPrincipal(c *gin.Context) *authz.Principal {
	v, exists := c.Get(principalKey)
	if !exists {
		return nil
	}
	p, _ := v.(*authz.Principal)
	return p
}
