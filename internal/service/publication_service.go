package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

type publicationRepository interface {
	List(ctx context.Context) ([]models.ResultPublication, error)
	FindByYear(ctx context.Context, academicYear string) (*models.ResultPublication, error)
	Upsert(ctx context.Context, pub *models.ResultPublication) error
	SetPublished(ctx context.Context, academicYear string, published bool) error
	Delete(ctx context.Context, academicYear string) error
}

// PublicationRequest configures the gate of an academic year.
// PublishDate accepts YYYY-MM-DD (midnight UTC) or an RFC3339 timestamp.
type PublicationRequest struct {
	PublishDate models.PublishTime `json:"publish_date" swaggertype:"string" example:"2026-05-01"`
	IsPublished bool               `json:"is_published"`
}

// PublicationService manages the per-year result publication gates.
type PublicationService struct {
	repo   publicationRepository
	audit  auditRepository
	cache  *CacheService
	logger *zap.Logger
	now    func() time.Time
}

func NewPublicationService(repo publicationRepository, audit auditRepository, cache *CacheService, logger *zap.Logger) *PublicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublicationService{repo: repo, audit: audit, cache: cache, logger: logger, now: time.Now}
}

func (s *PublicationService) List(ctx context.Context) ([]models.PublicationStatus, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, internalError(err, "failed to list result publications")
	}
	now := s.now()
	out := make([]models.PublicationStatus, 0, len(items))
	for i := range items {
		out = append(out, models.PublicationStatus{ResultPublication: items[i], Visible: items[i].IsVisible(now)})
	}
	return out, nil
}

func (s *PublicationService) Get(ctx context.Context, academicYear string) (*models.PublicationStatus, error) {
	pub, err := s.find(ctx, academicYear)
	if err != nil {
		return nil, err
	}
	return s.status(pub), nil
}

// Upsert creates or replaces the gate for academicYear.
func (s *PublicationService) Upsert(ctx context.Context, academicYear string, req PublicationRequest, meta models.RequestMeta) (*models.PublicationStatus, error) {
	academicYear = strings.TrimSpace(academicYear)
	if academicYear == "" || len(academicYear) > 20 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "academic year is required")
	}
	if req.PublishDate.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "publish_date is required")
	}

	var before *models.ResultPublication
	if existing, err := s.repo.FindByYear(ctx, academicYear); err == nil {
		before = existing
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, internalError(err, "failed to load result publication")
	}

	pub := &models.ResultPublication{
		AcademicYear: academicYear,
		PublishDate:  req.PublishDate.UTC(),
		IsPublished:  req.IsPublished,
	}
	if before != nil {
		pub.ID = before.ID
	}
	if err := s.repo.Upsert(ctx, pub); err != nil {
		return nil, internalError(err, "failed to save result publication")
	}
	s.invalidate(ctx, academicYear)

	action := models.AuditActionCreate
	var old interface{}
	if before != nil {
		action = models.AuditActionUpdate
		old = before
	}
	recordAudit(ctx, s.audit, s.logger, meta, action, models.AuditResourcePublication, pub.ID, old, pub)
	return s.status(pub), nil
}

// Publish opens the gate immediately, regardless of the publish date.
func (s *PublicationService) Publish(ctx context.Context, academicYear string, meta models.RequestMeta) (*models.PublicationStatus, error) {
	return s.setPublished(ctx, academicYear, true, meta)
}

// Unpublish clears the explicit flag. Results stay visible if the publish
// date has already passed.
func (s *PublicationService) Unpublish(ctx context.Context, academicYear string, meta models.RequestMeta) (*models.PublicationStatus, error) {
	return s.setPublished(ctx, academicYear, false, meta)
}

func (s *PublicationService) Delete(ctx context.Context, academicYear string, meta models.RequestMeta) error {
	pub, err := s.find(ctx, academicYear)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, academicYear); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "result publication not found")
		}
		return internalError(err, "failed to delete result publication")
	}
	s.invalidate(ctx, academicYear)
	recordAudit(ctx, s.audit, s.logger, meta, models.AuditActionDelete, models.AuditResourcePublication, pub.ID, pub, nil)
	return nil
}

func (s *PublicationService) setPublished(ctx context.Context, academicYear string, published bool, meta models.RequestMeta) (*models.PublicationStatus, error) {
	if err := s.repo.SetPublished(ctx, academicYear, published); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "result publication not found")
		}
		return nil, internalError(err, "failed to update result publication")
	}
	s.invalidate(ctx, academicYear)
	pub, err := s.find(ctx, academicYear)
	if err != nil {
		return nil, err
	}
	action := models.AuditActionPublish
	if !published {
		action = models.AuditActionUnpublish
	}
	recordAudit(ctx, s.audit, s.logger, meta, action, models.AuditResourcePublication, pub.ID, nil, pub)
	return s.status(pub), nil
}

func (s *PublicationService) find(ctx context.Context, academicYear string) (*models.ResultPublication, error) {
	pub, err := s.repo.FindByYear(ctx, academicYear)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "result publication not found")
		}
		return nil, internalError(err, "failed to load result publication")
	}
	return pub, nil
}

func (s *PublicationService) status(pub *models.ResultPublication) *models.PublicationStatus {
	return &models.PublicationStatus{ResultPublication: *pub, Visible: pub.IsVisible(s.now())}
}

func (s *PublicationService) invalidate(ctx context.Context, academicYear string) {
	_ = s.cache.Invalidate(ctx, publicResultYearPattern(academicYear))
	_ = s.cache.Invalidate(ctx, dashboardPattern())
}
