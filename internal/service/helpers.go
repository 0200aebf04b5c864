package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/noah-isme/school-portal-api/internal/models"
	appErrors "github.com/noah-isme/school-portal-api/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type auditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// newPagination mirrors the window applied by the repositories.
func newPagination(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > maxPageSize {
		size = defaultPageSize
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

func internalError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// duplicateError maps a unique violation to a DUPLICATE error using the
// constraint name. ok is false for any other error.
func duplicateError(err error, messages map[string]string) (error, bool) {
	constraint, ok := appErrors.IsUniqueViolation(err)
	if !ok {
		return nil, false
	}
	message, known := messages[constraint]
	if !known {
		message = appErrors.ErrDuplicate.Message
	}
	return appErrors.Wrap(err, appErrors.ErrDuplicate.Code, appErrors.ErrDuplicate.Status, message), true
}

// recordAudit stores an audit entry; failures are logged and swallowed.
func recordAudit(ctx context.Context, repo auditRepository, logger *zap.Logger, meta models.RequestMeta, action, resource, resourceID string, oldValues, newValues interface{}) {
	if repo == nil {
		return
	}
	entry := &models.AuditLog{
		Action:    action,
		Resource:  resource,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	}
	if meta.ActorID != "" {
		actor := meta.ActorID
		entry.UserID = &actor
	}
	if resourceID != "" {
		id := resourceID
		entry.ResourceID = &id
	}
	if oldValues != nil {
		entry.OldValues, _ = json.Marshal(oldValues)
	}
	if newValues != nil {
		entry.NewValues, _ = json.Marshal(newValues)
	}
	if err := repo.CreateAuditLog(ctx, entry); err != nil {
		logger.Warn("failed to record audit log",
			zap.String("action", action),
			zap.String("resource", resource),
			zap.Error(err))
	}
}
