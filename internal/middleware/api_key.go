package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
)

var errMetricsDisabled = &apperrors.AppError{
	Kind:       apperrors.KindNotFound,
	Code:       "NOT_FOUND",
	Message:    "Metrics endpoint is not configured",
	StatusCode: http.StatusNotFound,
}

// APIKeyMiddleware guards an operational endpoint with the X-API-Key header.
// An empty configured key disables the endpoint entirely.
func APIKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			abortWithError(c, errMetricsDisabled)
			return
		}
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			abortWithError(c, apperrors.WithMessage(apperrors.ErrUnauthorized, "Invalid or missing API key"))
			return
		}
		c.Next()
	}
}
