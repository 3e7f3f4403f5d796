package services

import (
	"strings"

	"gorm.io/gorm"

	"fintrack/internal/authz"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/integrity"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/uuid"
)

// requirePrincipal is the coarse authorization gate: the caller must be authenticated.
func requirePrincipal(p *authz.Principal) error {
	if p == nil || p.SubjectID == "" {
		return apperrors.ErrUnauthorized
	}
	return nil
}

// validateID rejects ids that are not canonical UUIDs before they reach storage.
func validateID(field, id string) error {
	if !uuid.IsCanonical(id) {
		return apperrors.WithMessage(apperrors.ErrValidation, field+" must be a valid UUID")
	}
	return nil
}

// parseDate parses a date that has already passed the date validator.
func parseDate(field, s string) (models.Date, error) {
	d, err := models.ParseDate(s)
	if err != nil {
		return models.Date{}, apperrors.WithMessage(apperrors.ErrValidation, field+" must be a valid date (YYYY-MM-DD)")
	}
	return d, nil
}

// normalizeEmail lower-cases and trims an email address for storage and lookup.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// paginate counts and fetches one page of query, which must have a Model set.
func paginate[T any](query *gorm.DB, page pagination.PageRequest, order string) (*pagination.PageResponse[T], error) {
	page.Defaults()
	query = query.Session(&gorm.Session{})

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		return nil, integrity.Translate(err)
	}

	var items []T
	if err := query.Order(order).Scopes(pagination.Paginate(page)).Find(&items).Error; err != nil {
		return nil, integrity.Translate(err)
	}

	result := pagination.NewPageResponse(items, page.Page, page.PageSize, totalItems)
	return &result, nil
}
