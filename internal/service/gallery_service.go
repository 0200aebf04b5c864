package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type galleryRepository interface {
	ListCategories(ctx context.Context) ([]models.GalleryCategorySummary, error)
	FindCategory(ctx context.Context, id string) (*models.GalleryCategory, error)
	FindCategoryBySlug(ctx context.Context, slug string) (*models.GalleryCategory, error)
	CategorySlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	CreateCategory(ctx context.Context, item *models.GalleryCategory) error
	UpdateCategory(ctx context.Context, item *models.GalleryCategory) error
	DeleteCategory(ctx context.Context, id string) error
	ListImages(ctx context.Context, categoryID string) ([]models.GalleryImage, error)
	FindImage(ctx context.Context, id string) (*models.GalleryImage, error)
	NextImagePosition(ctx context.Context, categoryID string) (int, error)
	CreateImage(ctx context.Context, item *models.GalleryImage) error
	DeleteImage(ctx context.Context, id string) error
}

type GalleryCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=1000"`
	Position    int    `json:"position" validate:"gte=0"`
}

// GalleryAlbum is a category with its images, as served publicly.
type GalleryAlbum struct {
	models.GalleryCategory
	Images []models.GalleryImage `json:"images"`
}

var galleryDuplicateMessages = map[string]string{
	"gallery_categories_slug_key": "gallery category already exists",
}

// GalleryService manages photo categories and uploads.
type GalleryService struct {
	repo      galleryRepository
	media     *MediaService
	audit     auditRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

func NewGalleryService(repo galleryRepository, media *MediaService, audit auditRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *GalleryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &GalleryService{repo: repo, media: media, audit: audit, cache: cache, validator: validate, logger: logger}
}

func (s *GalleryService) ListCategories(ctx context.Context) ([]models.GalleryCategorySummary, error) {
	items, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list gallery categories")
	}
	return items, nil
}

// Album returns a category and its images by id or slug.
func (s *GalleryService) Album(ctx context.Context, idOrSlug string) (*GalleryAlbum, error) {
	category, err := s.repo.FindCategoryBySlug(ctx, strings.ToLower(strings.TrimSpace(idOrSlug)))
	if errors.Is(err, sql.ErrNoRows) {
		if _, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
			category, err = s.repo.FindCategory(ctx, idOrSlug)
		}
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "gallery category not found")
		}
		return nil, internalError(err, "failed to load gallery category")
	}
	images, err := s.repo.ListImages(ctx, category.ID)
	if err != nil {
		return nil, internalError(err, "failed to list gallery images")
	}
	return &GalleryAlbum{GalleryCategory: *category, Images: images}, nil
}

func (s *GalleryService) CreateCategory(ctx context.Context, req GalleryCategoryRequest, meta models.RequestMeta) (*models.GalleryCategory, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid gallery category payload")
	}
	name := strings.TrimSpace(req.Name)
	slug, err := uniqueSlug(ctx, s.repo.CategorySlugExists, name, "album", "")
	if err != nil {
		return nil, err
	}
	item := &models.GalleryCategory{Name: name, Slug: slug, Description: strings.TrimSpace(req.Description), Position: req.Position}
	if err := s.repo.CreateCategory(ctx, item); err != nil {
		if dup, ok := duplicateError(err, galleryDuplicateMessages); ok {
			return nil, dup
		}
		return nil, internalError(err, "failed to create gallery category")
	}
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionCreate, models.AuditResourceGallery, item.ID, nil, item)
	return item, nil
}

func (s *GalleryService) UpdateCategory(ctx context.Context, id string, req GalleryCategoryRequest, meta models.RequestMeta) (*models.GalleryCategory, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid gallery category payload")
	}
	item, err := s.findCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *item
	name := strings.TrimSpace(req.Name)
	if generateSlug(name) != item.Slug {
		if item.Slug, err = uniqueSlug(ctx, s.repo.CategorySlugExists, name, "album", id); err != nil {
			return nil, err
		}
	}
	item.Name = name
	item.Description = strings.TrimSpace(req.Description)
	item.Position = req.Position
	if err := s.repo.UpdateCategory(ctx, item); err != nil {
		if dup, ok := duplicateError(err, galleryDuplicateMessages); ok {
			return nil, dup
		}
		return nil, internalError(err, "failed to update gallery category")
	}
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionUpdate, models.AuditResourceGallery, id, before, item)
	return item, nil
}

// DeleteCategory removes a category together with its stored images.
func (s *GalleryService) DeleteCategory(ctx context.Context, id string, meta models.RequestMeta) error {
	item, err := s.findCategory(ctx, id)
	if err != nil {
		return err
	}
	images, err := s.repo.ListImages(ctx, id)
	if err != nil {
		return internalError(err, "failed to list gallery images")
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "gallery category not found")
		}
		return internalError(err, "failed to delete gallery category")
	}
	for _, img := range images {
		s.media.Remove(ctx, img.StorageKey, img.ThumbnailKey)
	}
	s.invalidate(ctx)
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionDelete, models.AuditResourceGallery, id, item, nil)
	return nil
}

// UploadImage resizes data, stores it with a thumbnail and appends it to the category.
func (s *GalleryService) UploadImage(ctx context.Context, categoryID, title string, data []byte, meta models.RequestMeta) (*models.GalleryImage, error) {
	if _, err := s.findCategory(ctx, categoryID); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if len(title) > 200 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title must be at most 200 characters")
	}
	position, err := s.repo.NextImagePosition(ctx, categoryID)
	if err != nil {
		return nil, internalError(err, "failed to compute image position")
	}
	stored, err := s.media.StoreImage(ctx, MediaKindGallery, data, true)
	if err != nil {
		return nil, err
	}
	img := &models.GalleryImage{
		CategoryID:   categoryID,
		Title:        title,
		ImageURL:     stored.URL,
		ThumbnailURL: stored.ThumbnailURL,
		StorageKey:   stored.Key,
		ThumbnailKey: stored.ThumbnailKey,
		Position:     position,
	}
	if err := s.repo.CreateImage(ctx, img); err != nil {
		s.media.Remove(ctx, stored.Key, stored.ThumbnailKey)
		return nil, internalError(err, "failed to save gallery image")
	}
	s.invalidate(ctx)
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionCreate, models.AuditResourceGallery, img.ID, nil, img)
	return img, nil
}

func (s *GalleryService) DeleteImage(ctx context.Context, id string, meta models.RequestMeta) error {
	img, err := s.repo.FindImage(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "gallery image not found")
		}
		return internalError(err, "failed to load gallery image")
	}
	if err := s.repo.DeleteImage(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "gallery image not found")
		}
		return internalError(err, "failed to delete gallery image")
	}
	s.media.Remove(ctx, img.StorageKey, img.ThumbnailKey)
	s.invalidate(ctx)
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionDelete, models.AuditResourceGallery, id, img, nil)
	return nil
}

func (s *GalleryService) findCategory(ctx context.Context, id string) (*models.GalleryCategory, error) {
	item, err := s.repo.FindCategory(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "gallery category not found")
		}
		return nil, internalError(err, "failed to load gallery category")
	}
	return item, nil
}

func (s *GalleryService) invalidate(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, dashboardPattern())
}
