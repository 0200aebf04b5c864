package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	CountActiveByRole(ctx context.Context, role models.UserRole) (int, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// CreateUserRequest represents payload for creating users.
type CreateUserRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	FullName string          `json:"full_name" validate:"required,max=120"`
	Role     models.UserRole `json:"role" validate:"required,oneof=SUPERADMIN ADMIN EDITOR"`
	Password string          `json:"password" validate:"required,min=8"`
	Active   *bool           `json:"active"`
}

// UpdateUserRequest payload for updating users.
type UpdateUserRequest struct {
	Email    string          `json:"email" validate:"required,email"`
	FullName string          `json:"full_name" validate:"required,max=120"`
	Role     models.UserRole `json:"role" validate:"required,oneof=SUPERADMIN ADMIN EDITOR"`
	Active   *bool           `json:"active"`
}

var userDuplicateMessages = map[string]string{
	"users_email_key": "email already exists",
}

// UserService manages admin accounts. Callers must be SUPERADMIN.
type UserService struct {
	repo      userRepository
	audit     auditRepository
	validator *validator.Validate
	logger    *zap.Logger
}

func NewUserService(repo userRepository, audit auditRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown role filter")
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list users")
	}
	return users, newPagination(filter.Page, filter.PageSize, total), nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, internalError(err, "failed to load user")
	}
	return user, nil
}

// Create adds a new account with a bcrypt hashed password.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest, meta models.RequestMeta) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid create user payload")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.ensureEmailFree(ctx, email, ""); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, internalError(err, "failed to hash password")
	}
	user := &models.User{
		Email:        email,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         req.Role,
		Active:       req.Active == nil || *req.Active,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if dup, ok := duplicateError(err, userDuplicateMessages); ok {
			return nil, dup
		}
		return nil, internalError(err, "failed to create user")
	}

	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionCreate, models.AuditResourceUser, user.ID, nil,
		map[string]interface{}{"email": user.Email, "role": user.Role})
	return user, nil
}

// Update changes profile, role and active flag. The last active
// superadmin cannot be demoted or deactivated.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest, meta models.RequestMeta) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid update user payload")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != user.Email {
		if err := s.ensureEmailFree(ctx, email, id); err != nil {
			return nil, err
		}
	}

	active := user.Active
	if req.Active != nil {
		active = *req.Active
	}
	losesSuperadmin := user.Role == models.RoleSuperAdmin && user.Active && (req.Role != models.RoleSuperAdmin || !active)
	if losesSuperadmin {
		if err := s.ensureAnotherSuperadmin(ctx); err != nil {
			return nil, err
		}
	}

	before := map[string]interface{}{"email": user.Email, "role": user.Role, "active": user.Active}
	user.Email = email
	user.FullName = strings.TrimSpace(req.FullName)
	user.Role = req.Role
	user.Active = active
	if err := s.repo.Update(ctx, user); err != nil {
		if dup, ok := duplicateError(err, userDuplicateMessages); ok {
			return nil, dup
		}
		return nil, internalError(err, "failed to update user")
	}

	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionUpdate, models.AuditResourceUser, user.ID, before,
		map[string]interface{}{"email": user.Email, "role": user.Role, "active": user.Active})
	return user, nil
}

// Delete deactivates the account and revokes its sessions.
func (s *UserService) Delete(ctx context.Context, id string, meta models.RequestMeta) error {
	if id == meta.ActorID {
		return appErrors.Clone(appErrors.ErrValidation, "you cannot delete your own account")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == models.RoleSuperAdmin && user.Active {
		if err := s.ensureAnotherSuperadmin(ctx); err != nil {
			return err
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return internalError(err, "failed to delete user")
	}

	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionDelete, models.AuditResourceUser, id,
		map[string]interface{}{"email": user.Email, "role": user.Role}, nil)
	return nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email, excludeID string) error {
	exists, err := s.repo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return internalError(err, "failed to check email uniqueness")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrDuplicate, "email already exists")
	}
	return nil
}

func (s *UserService) ensureAnotherSuperadmin(ctx context.Context) error {
	count, err := s.repo.CountActiveByRole(ctx, models.RoleSuperAdmin)
	if err != nil {
		return internalError(err, "failed to count superadmins")
	}
	if count <= 1 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "at least one active superadmin must remain")
	}
	return nil
}
