package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Dependents(ctx context.Context, id string) (models.ClassDependents, error)
	Delete(ctx context.Context, id string) error
}

type classSubjectLister interface {
	ListByClass(ctx context.Context, classID string) ([]models.Subject, error)
}

// ClassRequest is the create/update payload for a class.
type ClassRequest struct {
	Name     string `json:"name" validate:"required,max=80"`
	Position int    `json:"position" validate:"gte=0"`
}

var classDuplicateMessages = map[string]string{
	"classes_name_key": "class name already exists",
}

// ClassService manages classes.
type ClassService struct {
	repo      classRepository
	subjects  classSubjectLister
	audit     auditRepository
	validator *validator.Validate
	logger    *zap.Logger
}

func NewClassService(repo classRepository, subjects classSubjectLister, audit auditRepository, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ClassService{repo: repo, subjects: subjects, audit: audit, validator: validate, logger: logger}
}

// List returns classes in display order.
func (s *ClassService) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, *models.Pagination, error) {
	classes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list classes")
	}
	return classes, newPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns the class with its ordered subjects.
func (s *ClassService) Get(ctx context.Context, id string) (*models.ClassDetail, error) {
	class, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	subjects, err := s.subjects.ListByClass(ctx, id)
	if err != nil {
		return nil, internalError(err, "failed to list subjects")
	}
	return &models.ClassDetail{Class: *class, Subjects: subjects}, nil
}

func (s *ClassService) Create(ctx context.Context, req ClassRequest, meta models.RequestMeta) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid class payload")
	}
	name := strings.TrimSpace(req.Name)
	if err := s.ensureNameFree(ctx, name, ""); err != nil {
		return nil, err
	}
	class := &models.Class{Name: name, Position: req.Position}
	if err := s.repo.Create(ctx, class); err != nil {
		if dup, ok := duplicateError(err, classDuplicateMessages); ok {
			return nil, dup
		}
		return nil, internalError(err, "failed to create class")
	}
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionCreate, models.AuditResourceClass, class.ID, nil, class)
	return class, nil
}

func (s *ClassService) Update(ctx context.Context, id string, req ClassRequest, meta models.RequestMeta) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid class payload")
	}
	class, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *class
	name := strings.TrimSpace(req.Name)
	if !strings.EqualFold(name, class.Name) {
		if err := s.ensureNameFree(ctx, name, id); err != nil {
			return nil, err
		}
	}
	class.Name = name
	class.Position = req.Position
	if err := s.repo.Update(ctx, class); err != nil {
		if dup, ok := duplicateError(err, classDuplicateMessages); ok {
			return nil, dup
		}
		return nil, internalError(err, "failed to update class")
	}
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionUpdate, models.AuditResourceClass, id, before, class)
	return class, nil
}

// Delete removes an empty class. Classes that still own subjects or
// students are refused with 412.
func (s *ClassService) Delete(ctx context.Context, id string, meta models.RequestMeta) error {
	class, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	deps, err := s.repo.Dependents(ctx, id)
	if err != nil {
		return internalError(err, "failed to check class dependents")
	}
	if deps.Subjects > 0 || deps.Students > 0 {
		return appErrors.Clone(appErrors.ErrPreconditionFailed,
			fmt.Sprintf("class still has %d subject(s) and %d student(s)", deps.Subjects, deps.Students))
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		if appErrors.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "class is still referenced")
		}
		return internalError(err, "failed to delete class")
	}
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionDelete, models.AuditResourceClass, id, class, nil)
	return nil
}

func (s *ClassService) find(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, internalError(err, "failed to load class")
	}
	return class, nil
}

func (s *ClassService) ensureNameFree(ctx context.Context, name, excludeID string) error {
	exists, err := s.repo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return internalError(err, "failed to check class name")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrDuplicate, "class name already exists")
	}
	return nil
}
