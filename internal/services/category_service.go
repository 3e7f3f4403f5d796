package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"fintrack/internal/authz"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/integrity"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/validator"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db         *gorm.DB
	policy     *authz.Policy
	resolver   *OwnershipResolver
	invariants *InvariantChecker
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB, policy *authz.Policy) CategoryServicer {
	return &categoryService{db: db, policy: policy, resolver: NewOwnershipResolver(db), invariants: NewInvariantChecker(db)}
}

// CreateCategory creates a category owned by the caller.
func (s *categoryService) CreateCategory(ctx context.Context, p *authz.Principal, in CreateCategoryInput) (*models.Category, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	category := &models.Category{
		UserID: &p.SubjectID,
		Name:   strings.TrimSpace(in.Name),
		Type:   in.Type,
		Color:  in.Color,
		Icon:   in.Icon,
	}
	if err := s.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, integrity.Translate(err, integrity.OnConflict(apperrors.ErrDuplicateCategory))
	}
	return category, nil
}

// ListCategories returns system categories plus the caller's own. Admins and
// managers see every category.
func (s *categoryService) ListCategories(ctx context.Context, p *authz.Principal, filter CategoryFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := validator.Struct(filter); err != nil {
		return nil, err
	}

	query := s.db.WithContext(ctx).Model(&models.Category{})
	if !p.IsPrivileged() {
		query = query.Where("(user_id IS NULL OR user_id = ?)", p.SubjectID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	return paginate[models.Category](query, page, "is_system DESC, name ASC")
}

// GetCategory retrieves a category by ID.
func (s *categoryService) GetCategory(ctx context.Context, p *authz.Principal, id string) (*models.Category, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	category, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(p, authz.Resource{Kind: authz.KindCategory, OwnerID: category.OwnerID()}, authz.ActionRead); err != nil {
		return nil, err
	}
	return category, nil
}

// UpdateCategory applies a patch to a user-owned category.
func (s *categoryService) UpdateCategory(ctx context.Context, p *authz.Principal, id string, in UpdateCategoryInput) (*models.Category, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	category, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resource := authz.Resource{Kind: authz.KindCategory, OwnerID: category.OwnerID()}
	if err := s.authorizeMutation(p, resource, authz.ActionUpdate); err != nil {
		return nil, err
	}

	if in.Type != nil && *in.Type != category.Type {
		if err := s.invariants.CheckCategoryRetype(ctx, category.ID); err != nil {
			return nil, err
		}
	}

	updates := make(map[string]any)
	if in.Name != nil {
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Type != nil {
		updates["type"] = *in.Type
	}
	if in.Color != nil {
		updates["color"] = *in.Color
	}
	if in.Icon != nil {
		updates["icon"] = *in.Icon
	}
	if len(updates) == 0 {
		return category, nil
	}

	result := s.db.WithContext(ctx).Model(category).Updates(updates)
	if result.Error != nil {
		return nil, integrity.Translate(result.Error, integrity.OnConflict(apperrors.ErrDuplicateCategory))
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrCategoryNotFound
	}
	return s.load(ctx, category.ID)
}

// DeleteCategory deletes a user-owned category. Budgets for it are removed with
// it; categories still referenced by transactions cannot be deleted.
func (s *categoryService) DeleteCategory(ctx context.Context, p *authz.Principal, id string) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	resource, err := s.resolver.Resolve(ctx, authz.KindCategory, id)
	if err != nil {
		return err
	}
	if err := s.authorizeMutation(p, resource, authz.ActionDelete); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id)
	if result.Error != nil {
		return integrity.Translate(result.Error, integrity.OnReference(apperrors.ErrCategoryInUse))
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}

func (s *categoryService) load(ctx context.Context, id string) (*models.Category, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}
	var category models.Category
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&category).Error; err != nil {
		return nil, integrity.Translate(err, integrity.OnNotFound(apperrors.ErrCategoryNotFound))
	}
	return &category, nil
}

// authorizeMutation reports system categories with a dedicated error.
func (s *categoryService) authorizeMutation(p *authz.Principal, resource authz.Resource, action authz.Action) error {
	err := s.policy.Authorize(p, resource, action)
	if err != nil && resource.OwnerID == nil && errors.Is(err, apperrors.ErrForbidden) {
		return apperrors.ErrSystemCategory
	}
	return err
}
