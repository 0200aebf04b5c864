package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-portal-api/internal/models"
	"github.com/noah-isme/school-portal-api/internal/service"
	"github.com/noah-isme/school-portal-api/pkg/response"
)

type publicationService interface {
	List(ctx context.Context) ([]models.PublicationStatus, error)
	Get(ctx context.Context, academicYear string) (*models.PublicationStatus, error)
	Upsert(ctx context.Context, academicYear string, req service.PublicationRequest, meta models.RequestMeta) (*models.PublicationStatus, error)
	Publish(ctx context.Context, academicYear string, meta models.RequestMeta) (*models.PublicationStatus, error)
	Unpublish(ctx context.Context, academicYear string, meta models.RequestMeta) (*models.PublicationStatus, error)
	Delete(ctx context.Context, academicYear string, meta models.RequestMeta) error
}

// PublicationHandler manages the result publication gate per academic year.
type PublicationHandler struct {
	service publicationService
}

func NewPublicationHandler(svc publicationService) *PublicationHandler {
	return &PublicationHandler{service: svc}
}

// List godoc
// @Summary List publication gates
// @Tags Result Publications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /result-publications [get]
func (h *PublicationHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get publication gate
// @Tags Result Publications
// @Produce json
// @Param academicYear path string true "Academic year"
// @Success 200 {object} response.Envelope
// @Router /result-publications/{academicYear} [get]
func (h *PublicationHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("academicYear"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Upsert godoc
// @Summary Create or update publication gate
// @Description publish_date accepts YYYY-MM-DD (midnight UTC) or an RFC3339 timestamp
// @Tags Result Publications
// @Accept json
// @Produce json
// @Param academicYear path string true "Academic year"
// @Param payload body service.PublicationRequest true "Gate settings"
// @Success 200 {object} response.Envelope
// @Router /result-publications/{academicYear} [put]
func (h *PublicationHandler) Upsert(c *gin.Context) {
	var req service.PublicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	item, err := h.service.Upsert(c.Request.Context(), c.Param("academicYear"), req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Publish godoc
// @Summary Publish results now
// @Tags Result Publications
// @Produce json
// @Param academicYear path string true "Academic year"
// @Success 200 {object} response.Envelope
// @Router /result-publications/{academicYear}/publish [post]
func (h *PublicationHandler) Publish(c *gin.Context) {
	item, err := h.service.Publish(c.Request.Context(), c.Param("academicYear"), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Unpublish godoc
// @Summary Clear the explicit publish flag
// @Description Results stay visible if the publish date has passed
// @Tags Result Publications
// @Produce json
// @Param academicYear path string true "Academic year"
// @Success 200 {object} response.Envelope
// @Router /result-publications/{academicYear}/unpublish [post]
func (h *PublicationHandler) Unpublish(c *gin.Context) {
	item, err := h.service.Unpublish(c.Request.Context(), c.Param("academicYear"), requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete publication gate
// @Tags Result Publications
// @Param academicYear path string true "Academic year"
// @Success 204
// @Router /result-publications/{academicYear} [delete]
func (h *PublicationHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("academicYear"), requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
