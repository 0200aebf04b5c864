package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
)

type auditLogLister interface {
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, int, error)
}

// AuditService exposes the audit trail to superadmins.
type AuditService struct {
	repo   auditLogLister
	logger *zap.Logger
}

func NewAuditService(repo auditLogLister, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// List returns audit entries newest first.
func (s *AuditService) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, *models.Pagination, error) {
	logs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("list audit logs", zap.Error(err))
		return nil, nil, internalError(err, "failed to list audit logs")
	}
	return logs, newPagination(filter.Page, filter.PageSize, total), nil
}
