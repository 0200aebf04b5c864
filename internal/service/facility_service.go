package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type facilityRepository interface {
	List(ctx context.Context) ([]models.Facility, error)
	FindByID(ctx context.Context, id string) (*models.Facility, error)
	FindBySlug(ctx context.Context, slug string) (*models.Facility, error)
	ExistsBySlug(ctx context.Context, slug, excludeID string) (bool, error)
	Create(ctx context.Context, item *models.Facility) error
	Update(ctx context.Context, item *models.Facility) error
	Delete(ctx context.Context, id string) error
}

type FacilityRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=5000"`
	Position    int    `json:"position" validate:"gte=0"`
}

var facilityDuplicateMessages = map[string]string{
	"facilities_slug_key": "facility already exists",
}

type FacilityService struct {
	repo      facilityRepository
	media     *MediaService
	audit     auditRepository
	validator *validator.Validate
	logger    *zap.Logger
}

func NewFacilityService(repo facilityRepository, media *MediaService, audit auditRepository, validate *validator.Validate, logger *zap.Logger) *FacilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &FacilityService{repo: repo, media: media, audit: audit, validator: validate, logger: logger}
}

func (s *FacilityService) List(ctx context.Context) ([]models.Facility, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list facilities")
	}
	return items, nil
}

func (s *FacilityService) Get(ctx context.Context, id string) (*models.Facility, error) {
	return s.find(ctx, id)
}

func (s *FacilityService) GetBySlug(ctx context.Context, slug string) (*models.Facility, error) {
	item, err := s.repo.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "facility not found")
		}
		return nil, internalError(err, "failed to load facility")
	}
	return item, nil
}

func (s *FacilityService) Create(ctx context.Context, req FacilityRequest, meta models.RequestMeta) (*models.Facility, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid facility payload")
	}
	name := strings.TrimSpace(req.Name)
	slug, err := uniqueSlug(ctx, s.repo.ExistsBySlug, name, "facility", "")
	if err != nil {
		return nil, err
	}
	item := &models.Facility{Name: name, Slug: slug, Description: strings.TrimSpace(req.Description), Position: req.Position}
	if err := s.repo.Create(ctx, item); err != nil {
		if dup, ok := duplicateError(err, facilityDuplicateMessages); ok {
			return nil, dup
		}
		return nil, internalError(err, "failed to create facility")
	}
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionCreate, models.AuditResourceFacility, item.ID, nil, item)
	return item, nil
}

func (s *FacilityService) Update(ctx context.Context, id string, req FacilityRequest, meta models.RequestMeta) (*models.Facility, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid facility payload")
	}
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *item
	name := strings.TrimSpace(req.Name)
	if generateSlug(name) != item.Slug {
		if item.Slug, err = uniqueSlug(ctx, s.repo.ExistsBySlug, name, "facility", id); err != nil {
			return nil, err
		}
	}
	item.Name = name
	item.Description = strings.TrimSpace(req.Description)
	item.Position = req.Position
	if err := s.repo.Update(ctx, item); err != nil {
		if dup, ok := duplicateError(err, facilityDuplicateMessages); ok {
			return nil, dup
		}
		return nil, internalError(err, "failed to update facility")
	}
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionUpdate, models.AuditResourceFacility, id, before, item)
	return item, nil
}

func (s *FacilityService) UploadImage(ctx context.Context, id string, data []byte, meta models.RequestMeta) (*models.Facility, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	stored, err := s.media.StoreImage(ctx, MediaKindFacility, data, false)
	if err != nil {
		return nil, err
	}
	oldKey := item.StorageKey
	item.ImageURL = stored.URL
	item.StorageKey = stored.Key
	if err := s.repo.Update(ctx, item); err != nil {
		s.media.Remove(ctx, stored.Key)
		return nil, internalError(err, "failed to update facility image")
	}
	s.media.Remove(ctx, oldKey)
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionUpdate, models.AuditResourceFacility, id, nil, map[string]string{"image_url": item.ImageURL})
	return item, nil
}

func (s *FacilityService) Delete(ctx context.Context, id string, meta models.RequestMeta) error {
	item, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "facility not found")
		}
		return internalError(err, "failed to delete facility")
	}
	s.media.Remove(ctx, item.StorageKey)
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionDelete, models.AuditResourceFacility, id, item, nil)
	return nil
}

func (s *FacilityService) find(ctx context.Context, id string) (*models.Facility, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "facility not found")
		}
		return nil, internalError(err, "failed to load facility")
	}
	return item, nil
}
