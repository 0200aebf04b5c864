package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type auditService interface {
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, *models.Pagination, error)
}

// AuditHandler exposes the audit trail.
type AuditHandler struct {
	service auditService
}

func NewAuditHandler(svc auditService) *AuditHandler {
	return &AuditHandler{service: svc}
}

// List godoc
// @Summary List audit log entries
// @Tags Audit
// @Produce json
// @Param resource query string false "Resource name"
// @Param user_id query string false "Acting user"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	filter := models.AuditFilter{
		Resource: strings.TrimSpace(c.Query("resource")),
		UserID:   strings.TrimSpace(c.Query("user_id")),
	}
	filter.Page, filter.PageSize = pageParams(c)

	logs, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, pagination)
}
