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

type slideRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.Slide, error)
	FindByID(ctx context.Context, id string) (*models.Slide, error)
	NextPosition(ctx context.Context) (int, error)
	Create(ctx context.Context, item *models.Slide) error
	Update(ctx context.Context, item *models.Slide) error
	Delete(ctx context.Context, id string) error
	Reorder(ctx context.Context, updates []models.PositionUpdate) error
}

// SlideRequest is the create/update payload. Images are uploaded separately.
type SlideRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Caption string `json:"caption" validate:"max=500"`
	LinkURL string `json:"link_url" validate:"omitempty,url,max=500"`
	Active  bool   `json:"active"`
}

type ReorderRequest struct {
	Items []models.PositionUpdate `json:"items" validate:"required,min=1,dive"`
}

// SlideService manages the homepage slideshow.
type SlideService struct {
	repo      slideRepository
	media     *MediaService
	audit     auditRepository
	validator *validator.Validate
	logger    *zap.Logger
}

func NewSlideService(repo slideRepository, media *MediaService, audit auditRepository, validate *validator.Validate, logger *zap.Logger) *SlideService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SlideService{repo: repo, media: media, audit: audit, validator: validate, logger: logger}
}

func (s *SlideService) List(ctx context.Context) ([]models.Slide, error) {
	return s.list(ctx, false)
}

// ListActive returns the slides shown on the public homepage, in order.
func (s *SlideService) ListActive(ctx context.Context) ([]models.Slide, error) {
	return s.list(ctx, true)
}

func (s *SlideService) Get(ctx context.Context, id string) (*models.Slide, error) {
	return s.find(ctx, id)
}

func (s *SlideService) Create(ctx context.Context, req SlideRequest, meta models.RequestMeta) (*models.Slide, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid slide payload")
	}
	if req.Active {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "upload an image before activating the slide")
	}
	position, err := s.repo.NextPosition(ctx)
	if err != nil {
		return nil, internalError(err, "failed to compute slide position")
	}
	item := &models.Slide{Position: position}
	applySlide(item, req)
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, internalError(err, "failed to create slide")
	}
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionCreate, models.AuditResourceSlide, item.ID, nil, item)
	return item, nil
}

func (s *SlideService) Update(ctx context.Context, id string, req SlideRequest, meta models.RequestMeta) (*models.Slide, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid slide payload")
	}
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Active && item.ImageURL == "" {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "upload an image before activating the slide")
	}
	before := *item
	applySlide(item, req)
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, internalError(err, "failed to update slide")
	}
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionUpdate, models.AuditResourceSlide, id, before, item)
	return item, nil
}

// SetActive toggles whether the slide appears publicly.
func (s *SlideService) SetActive(ctx context.Context, id string, active bool, meta models.RequestMeta) (*models.Slide, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if active && item.ImageURL == "" {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "upload an image before activating the slide")
	}
	if item.Active == active {
		return item, nil
	}
	before := *item
	item.Active = active
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, internalError(err, "failed to update slide")
	}
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionUpdate, models.AuditResourceSlide, id, before, item)
	return item, nil
}

func (s *SlideService) UploadImage(ctx context.Context, id string, data []byte, meta models.RequestMeta) (*models.Slide, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	stored, err := s.media.StoreImage(ctx, MediaKindSlide, data, false)
	if err != nil {
		return nil, err
	}
	oldKey := item.StorageKey
	item.ImageURL = stored.URL
	item.StorageKey = stored.Key
	if err := s.repo.Update(ctx, item); err != nil {
		s.media.Remove(ctx, stored.Key)
		return nil, internalError(err, "failed to update slide image")
	}
	s.media.Remove(ctx, oldKey)
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionUpdate, models.AuditResourceSlide, id, nil, map[string]string{"image_url": item.ImageURL})
	return item, nil
}

// Reorder assigns new positions in one transaction.
func (s *SlideService) Reorder(ctx context.Context, req ReorderRequest, meta models.RequestMeta) ([]models.Slide, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid reorder payload")
	}
	seen := make(map[string]struct{}, len(req.Items))
	for _, item := range req.Items {
		if _, dup := seen[item.ID]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, "slide "+item.ID+" listed more than once")
		}
		seen[item.ID] = struct{}{}
	}
	if err := s.repo.Reorder(ctx, req.Items); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "slide not found")
		}
		return nil, internalError(err, "failed to reorder slides")
	}
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionUpdate, models.AuditResourceSlide, "", nil, req.Items)
	return s.list(ctx, false)
}

func (s *SlideService) Delete(ctx context.Context, id string, meta models.RequestMeta) error {
	item, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "slide not found")
		}
		return internalError(err, "failed to delete slide")
	}
	s.media.Remove(ctx, item.StorageKey)
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionDelete, models.AuditResourceSlide, id, item, nil)
	return nil
}

func (s *SlideService) list(ctx context.Context, activeOnly bool) ([]models.Slide, error) {
	items, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, internalError(err, "failed to list slides")
	}
	return items, nil
}

func (s *SlideService) find(ctx context.Context, id string) (*models.Slide, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "slide not found")
		}
		return nil, internalError(err, "failed to load slide")
	}
	return item, nil
}

func applySlide(item *models.Slide, req SlideRequest) {
	item.Title = strings.TrimSpace(req.Title)
	item.Caption = strings.TrimSpace(req.Caption)
	item.LinkURL = strings.TrimSpace(req.LinkURL)
	item.Active = req.Active
}
