package handlers

import (
	"github.com/gin-gonic/gin"

	"fintrack/internal/authz"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/middleware"
	"fintrack/internal/uuid"
	"fintrack/internal/validator"
)

// getPrincipal extracts the authenticated principal from the Gin context.
// Returns ErrUnauthorized if not present.
func getPrincipal(c *gin.Context) (*authz.Principal, error) {
	p := middleware.GetPrincipal(c)
	if p == nil {
		return nil, apperrors.ErrUnauthorized
	}
	return p, nil
}

// parsePathID reads a UUID path parameter and returns it in lower case.
//
//nolint:unparam // every route names its id "id" today
func parsePathID(c *gin.Context, param string) (string, error) {
	raw := c.Param(param)
	if !uuid.IsCanonical(raw) {
		return "", apperrors.WithMessage(apperrors.ErrValidation, param+" must be a valid UUID")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrValidation, param+" must be a valid UUID")
	}
	return id, nil
}

// bindJSON binds the request body and converts binding failures into a
// ValidationFailed AppError naming the first failing field.
func bindJSON(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil {
		return validator.FromBindingError(err)
	}
	return nil
}

// bindQuery is bindJSON for query parameters.
func bindQuery(c *gin.Context, obj any) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		return validator.FromBindingError(err)
	}
	return nil
}

// respondWithError writes a consistent JSON error response.
func respondWithError(c *gin.Context, err error) {
	middleware.WriteError(c, err)
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string   `json:"error" example:"VALIDATION_FAILED"`
	Message string   `json:"message" example:"amount must have at most 2 decimal places"`
	Details []string `json:"details,omitempty"`
}

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message"`
}
