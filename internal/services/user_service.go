package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"fintrack/internal/auth"
	"fintrack/internal/authz"
	apperrors "fintrack/internal/errors"
	"fintrack/internal/integrity"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/validator"
)

// userService handles user-related business logic.
type userService struct {
	db       *gorm.DB
	policy   *authz.Policy
	hasher   *auth.Hasher
	resolver *OwnershipResolver
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB, policy *authz.Policy, hasher *auth.Hasher) UserServicer {
	return &userService{
		db:       db,
		policy:   policy,
		hasher:   hasher,
		resolver: NewOwnershipResolver(db),
	}
}

// Register creates an account for an anonymous caller. The role is always user.
func (s *userService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	return s.create(ctx, in.Email, in.Password, in.FirstName, in.LastName, models.RoleUser)
}

// Authenticate returns the user whose email and password match. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, integrity.Translate(err)
	}
	if !s.hasher.Compare(user.Password, password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return &user, nil
}

// CreateUser creates an account on behalf of an admin or manager. Only admins
// may assign a role other than user.
func (s *userService) CreateUser(ctx context.Context, p *authz.Principal, in CreateUserInput) (*models.User, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	resource := authz.Resource{Kind: authz.KindUser}
	if err := s.policy.Authorize(p, resource, authz.ActionCreate); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser {
		if err := s.policy.Authorize(p, resource, authz.ActionChangeRole); err != nil {
			return nil, roleChangeError(err)
		}
	}

	return s.create(ctx, in.Email, in.Password, in.FirstName, in.LastName, role)
}

func (s *userService) create(ctx context.Context, email, password, firstName, lastName string, role models.Role) (*models.User, error) {
	if err := checkPassword(password); err != nil {
		return nil, err
	}
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Email:     normalizeEmail(email),
		Password:  digest,
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Role:      role,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, integrity.Translate(err, integrity.OnConflict(apperrors.ErrDuplicateEmail))
	}
	return user, nil
}

// ListUsers returns every user to admins and managers.
func (s *userService) ListUsers(ctx context.Context, p *authz.Principal, page pagination.PageRequest) (*pagination.PageResponse[models.User], error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(p, authz.Resource{Kind: authz.KindUser}, authz.ActionList); err != nil {
		return nil, err
	}
	return paginate[models.User](s.db.WithContext(ctx).Model(&models.User{}), page, "email ASC")
}

// GetUser retrieves a user by ID.
func (s *userService) GetUser(ctx context.Context, p *authz.Principal, id string) (*models.User, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(p, authz.Owned(authz.KindUser, user.ID), authz.ActionRead); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser applies a patch. Changing the role requires an admin; a new
// password must pass the strength rules and is re-hashed.
func (s *userService) UpdateUser(ctx context.Context, p *authz.Principal, id string, in UpdateUserInput) (*models.User, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}
	if err := validator.Struct(in); err != nil {
		return nil, err
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resource := authz.Owned(authz.KindUser, user.ID)
	if err := s.policy.Authorize(p, resource, authz.ActionUpdate); err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if in.Role != nil && *in.Role != user.Role {
		if err := s.policy.Authorize(p, resource, authz.ActionChangeRole); err != nil {
			return nil, roleChangeError(err)
		}
		updates["role"] = *in.Role
	}
	if in.Password != nil {
		if err := checkPassword(*in.Password); err != nil {
			return nil, err
		}
		digest, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		updates["password"] = digest
	}
	if in.Email != nil {
		updates["email"] = normalizeEmail(*in.Email)
	}
	if in.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*in.LastName)
	}
	if len(updates) == 0 {
		return user, nil
	}

	result := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(updates)
	if result.Error != nil {
		return nil, integrity.Translate(result.Error, integrity.OnConflict(apperrors.ErrDuplicateEmail))
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrUserNotFound
	}
	return s.load(ctx, user.ID)
}

// DeleteUser deletes a user and everything they own. Nobody may delete their
// own account, and only admins may delete others.
func (s *userService) DeleteUser(ctx context.Context, p *authz.Principal, id string) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	if id == p.SubjectID {
		return apperrors.ErrSelfDeletion
	}
	resource, err := s.resolver.Resolve(ctx, authz.KindUser, id)
	if err != nil {
		return err
	}
	if err := s.policy.Authorize(p, resource, authz.ActionDelete); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		return integrity.Translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

func (s *userService) load(ctx context.Context, id string) (*models.User, error) {
	if err := validateID("id", id); err != nil {
		return nil, err
	}
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error; err != nil {
		return nil, integrity.Translate(err, integrity.OnNotFound(apperrors.ErrUserNotFound))
	}
	return &user, nil
}

// checkPassword reports every violated strength rule at once.
func checkPassword(password string) error {
	strength := validator.CheckPassword(password)
	if strength.IsValid {
		return nil
	}
	return apperrors.WithDetails(apperrors.ErrWeakPassword, strings.Join(strength.Errors, "; "), strength.Errors)
}

func roleChangeError(err error) error {
	if errors.Is(err, apperrors.ErrForbidden) {
		return apperrors.ErrRoleChange
	}
	return err
}
