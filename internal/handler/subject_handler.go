package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/service"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type subjectService interface {
	ListByClass(ctx context.Context, classID string) ([]models.Subject, error)
	Get(ctx context.Context, id string) (*models.Subject, error)
	Create(ctx context.Context, classID string, req service.SubjectRequest, meta models.RequestMeta) (*models.Subject, error)
	Update(ctx context.Context, id string, req service.SubjectRequest, meta models.RequestMeta) (*models.Subject, error)
	Delete(ctx context.Context, id string, meta models.RequestMeta) error
	Reorder(ctx context.Context, classID string, req service.ReorderSubjectsRequest, meta models.RequestMeta) ([]models.Subject, error)
}

// SubjectHandler manages the subjects of a class.
type SubjectHandler struct {
	service subjectService
}

// NewSubjectHandler constructs a subject handler.
func NewSubjectHandler(svc subjectService) *SubjectHandler {
	return &SubjectHandler{service: svc}
}

// ListByClass godoc
// @Summary List subjects of a class
// @Tags Subjects
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/subjects [get]
func (h *SubjectHandler) ListByClass(c *gin.Context) {
	subjects, err := h.service.ListByClass(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// Get godoc
// @Summary Get subject
// @Tags Subjects
// @Produce json
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id} [get]
func (h *SubjectHandler) Get(c *gin.Context) {
	subject, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// Create godoc
// @Summary Add subject to a class
// @Tags Subjects
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body service.SubjectRequest true "Subject payload"
// @Success 201 {object} response.Envelope
// @Router /classes/{id}/subjects [post]
func (h *SubjectHandler) Create(c *gin.Context) {
	var req service.SubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	subject, err := h.service.Create(c.Request.Context(), c.Param("id"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// Update godoc
// @Summary Update subject
// @Description Changing the marking scheme fails with 412 once marks exist
// @Tags Subjects
// @Accept json
// @Produce json
// @Param id path string true "Subject ID"
// @Param payload body service.SubjectRequest true "Subject payload"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /subjects/{id} [put]
func (h *SubjectHandler) Update(c *gin.Context) {
	var req service.SubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	subject, err := h.service.Update(c.Request.Context(), c.Param("id"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subject, nil)
}

// Delete godoc
// @Summary Delete subject
// @Tags Subjects
// @Param id path string true "Subject ID"
// @Success 204
// @Router /subjects/{id} [delete]
func (h *SubjectHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Reorder godoc
// @Summary Reorder subjects of a class
// @Tags Subjects
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body service.ReorderSubjectsRequest true "New positions"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/subjects/reorder [put]
func (h *SubjectHandler) Reorder(c *gin.Context) {
	var req service.ReorderSubjectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	subjects, err := h.service.Reorder(c.Request.Context(), c.Param("id"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}
