package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
)

type dashboardRepository interface {
	Summary(ctx context.Context, academicYear string) (*models.DashboardSummary, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardService composes the admin landing page counters.
type DashboardService struct {
	repo         dashboardRepository
	publications publicationFinder
	cache        *CacheService
	logger       *zap.Logger
	now          func() time.Time
	cfg          DashboardServiceConfig
}

func NewDashboardService(repo dashboardRepository, publications publicationFinder, cache *CacheService, logger *zap.Logger, cfg DashboardServiceConfig) *DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, publications: publications, cache: cache, logger: logger, now: time.Now, cfg: cfg}
}

// Summary returns counters scoped to academicYear and reports whether they came from cache.
func (s *DashboardService) Summary(ctx context.Context, academicYear string) (*models.DashboardSummary, bool, error) {
	academicYear = strings.TrimSpace(academicYear)
	key := dashboardKey(academicYear)

	var cached models.DashboardSummary
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, true, nil
	}

	summary, err := s.repo.Summary(ctx, academicYear)
	if err != nil {
		return nil, false, internalError(err, "failed to load dashboard")
	}
	summary.GeneratedAt = s.now().UTC()
	if academicYear != "" && s.publications != nil {
		pub, err := s.publications.FindByYear(ctx, academicYear)
		switch {
		case err == nil:
			summary.ResultsVisible = pub.IsVisible(s.now())
		case !errors.Is(err, sql.ErrNoRows):
			return nil, false, internalError(err, "failed to load result publication")
		}
	}

	if err := s.cache.Set(ctx, key, summary, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
	return summary, false, nil
}
