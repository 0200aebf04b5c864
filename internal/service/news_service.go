package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type newsRepository interface {
	List(ctx context.Context, filter models.NewsFilter) ([]models.News, int, error)
	FindByID(ctx context.Context, id string) (*models.News, error)
	FindBySlug(ctx context.Context, slug string) (*models.News, error)
	ExistsBySlug(ctx context.Context, slug, excludeID string) (bool, error)
	Create(ctx context.Context, item *models.News) error
	Update(ctx context.Context, item *models.News) error
	Delete(ctx context.Context, id string) error
}

// NewsRequest is the create/update payload for a news post.
type NewsRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Slug        string `json:"slug" validate:"omitempty,max=160"`
	Summary     string `json:"summary" validate:"max=500"`
	Content     string `json:"content" validate:"required"`
	IsPublished bool   `json:"is_published"`
}

var newsDuplicateMessages = map[string]string{
	"news_slug_key": "news slug already exists",
}

// NewsService manages news posts and their cover images.
type NewsService struct {
	repo      newsRepository
	media     *MediaService
	audit     auditRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

func NewNewsService(repo newsRepository, media *MediaService, audit auditRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *NewsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &NewsService{repo: repo, media: media, audit: audit, cache: cache, validator: validate, logger: logger, now: time.Now}
}

func (s *NewsService) List(ctx context.Context, filter models.NewsFilter) ([]models.News, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list news")
	}
	return items, newPagination(filter.Page, filter.PageSize, total), nil
}

// ListPublished is the public feed; drafts are never returned.
func (s *NewsService) ListPublished(ctx context.Context, filter models.NewsFilter) ([]models.News, *models.Pagination, error) {
	published := true
	filter.Published = &published
	return s.List(ctx, filter)
}

func (s *NewsService) Get(ctx context.Context, id string) (*models.News, error) {
	return s.find(ctx, id)
}

// GetPublishedBySlug hides drafts behind the same 404 as unknown slugs.
func (s *NewsService) GetPublishedBySlug(ctx context.Context, slug string) (*models.News, error) {
	item, err := s.repo.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "news not found")
		}
		return nil, internalError(err, "failed to load news")
	}
	if !item.IsPublished {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "news not found")
	}
	return item, nil
}

func (s *NewsService) Create(ctx context.Context, req NewsRequest, meta models.RequestMeta) (*models.News, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid news payload")
	}
	item := &models.News{}
	if err := s.apply(ctx, item, req); err != nil {
		return nil, err
	}
	if meta.ActorID != "" {
		actor := meta.ActorID
		item.CreatedBy = &actor
	}
	if err := s.repo.Create(ctx, item); err != nil {
		if dup, ok := duplicateError(err, newsDuplicateMessages); ok {
			return nil, dup
		}
		return nil, internalError(err, "failed to create news")
	}
	s.invalidate(ctx)
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionCreate, models.AuditResourceNews, item.ID, nil, item)
	return item, nil
}

func (s *NewsService) Update(ctx context.Context, id string, req NewsRequest, meta models.RequestMeta) (*models.News, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid news payload")
	}
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *item
	if err := s.apply(ctx, item, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, item); err != nil {
		if dup, ok := duplicateError(err, newsDuplicateMessages); ok {
			return nil, dup
		}
		return nil, internalError(err, "failed to update news")
	}
	s.invalidate(ctx)
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionUpdate, models.AuditResourceNews, id, before, item)
	return item, nil
}

// UploadCover replaces the cover image of a post.
func (s *NewsService) UploadCover(ctx context.Context, id string, data []byte, meta models.RequestMeta) (*models.News, error) {
	item, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	stored, err := s.media.StoreImage(ctx, MediaKindNews, data, false)
	if err != nil {
		return nil, err
	}
	oldKey := item.CoverImageKey
	item.CoverImageURL = stored.URL
	item.CoverImageKey = stored.Key
	if err := s.repo.Update(ctx, item); err != nil {
		s.media.Remove(ctx, stored.Key)
		return nil, internalError(err, "failed to update news cover")
	}
	s.media.Remove(ctx, oldKey)
	s.invalidate(ctx)
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionUpdate, models.AuditResourceNews, id, nil, map[string]string{"cover_image_url": item.CoverImageURL})
	return item, nil
}

func (s *NewsService) Delete(ctx context.Context, id string, meta models.RequestMeta) error {
	item, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "news not found")
		}
		return internalError(err, "failed to delete news")
	}
	s.media.Remove(ctx, item.CoverImageKey)
	s.invalidate(ctx)
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionDelete, models.AuditResourceNews, id, item, nil)
	return nil
}

func (s *NewsService) apply(ctx context.Context, item *models.News, req NewsRequest) error {
	title := strings.TrimSpace(req.Title)
	source := req.Slug
	if source == "" {
		source = title
	}
	if item.ID == "" || generateSlug(source) != item.Slug {
		slug, err := uniqueSlug(ctx, s.repo.ExistsBySlug, source, "news", item.ID)
		if err != nil {
			return err
		}
		item.Slug = slug
	}
	item.Title = title
	item.Summary = strings.TrimSpace(req.Summary)
	item.Content = req.Content
	if req.IsPublished && item.PublishedAt == nil {
		at := s.now().UTC()
		item.PublishedAt = &at
	}
	if !req.IsPublished {
		item.PublishedAt = nil
	}
	item.IsPublished = req.IsPublished
	return nil
}

func (s *NewsService) find(ctx context.Context, id string) (*models.News, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "news not found")
		}
		return nil, internalError(err, "failed to load news")
	}
	return item, nil
}

func (s *NewsService) invalidate(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, dashboardPattern())
}
